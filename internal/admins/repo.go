package admins

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) GetAdmin(ctx context.Context, id string) (Admin, error) {
	var a Admin
	err := r.DB.QueryRow(ctx, `SELECT id, username, display_name, role, active FROM admins WHERE id=$1`, id).
		Scan(&a.ID, &a.Username, &a.DisplayName, &a.Role, &a.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return Admin{}, ErrNotFound
	}
	return a, err
}

func (r *Repo) ListActive(ctx context.Context) ([]Admin, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, username, display_name, role, active
                                FROM admins WHERE active ORDER BY display_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Admin
	for rows.Next() {
		var a Admin
		if err := rows.Scan(&a.ID, &a.Username, &a.DisplayName, &a.Role, &a.Active); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repo) SetActive(ctx context.Context, id string, active bool) error {
	ct, err := r.DB.Exec(ctx, `UPDATE admins SET active=$2 WHERE id=$1`, id, active)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
