package httpx

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ariefcatur/go-admin-orders/internal/admins"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// HeaderAdminID carries the admin id set by the auth gateway in front of this service.
const HeaderAdminID = "X-Admin-Id"

func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	log = log.Named("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("took", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// Authenticate resolves the acting admin and puts it on the request context.
func Authenticate(store admins.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(HeaderAdminID))
			if id == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing admin"})
				return
			}
			a, err := store.GetAdmin(r.Context(), id)
			switch {
			case errors.Is(err, admins.ErrNotFound), err == nil && !a.Active:
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "admin not allowed"})
				return
			case err != nil:
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
			next.ServeHTTP(w, r.WithContext(admins.WithActor(r.Context(), a)))
		})
	}
}

func RequireRole(role admins.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, ok := admins.ActorFrom(r.Context())
			if !ok || a.Role != role {
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "requires " + string(role)})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// actor is only called behind Authenticate.
func actor(r *http.Request) admins.Admin {
	a, _ := admins.ActorFrom(r.Context())
	return a
}
