package admins

import (
	"context"
	"errors"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMaster Role = "master"
)

var ErrNotFound = errors.New("admin not found")

type Admin struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
	Active      bool   `json:"active"`
}

func (a Admin) IsMaster() bool { return a.Role == RoleMaster }

// Store is implemented by Repo; handlers and services depend on this.
type Store interface {
	GetAdmin(ctx context.Context, id string) (Admin, error)
	ListActive(ctx context.Context) ([]Admin, error)
	SetActive(ctx context.Context, id string, active bool) error
}

type ctxKey struct{}

// WithActor stores the acting admin resolved by the auth middleware.
func WithActor(ctx context.Context, a Admin) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// ActorFrom is only used at the HTTP boundary; services take the actor as a parameter.
func ActorFrom(ctx context.Context) (Admin, bool) {
	a, ok := ctx.Value(ctxKey{}).(Admin)
	return a, ok
}
