package users

import (
	"context"
	"database/sql"
	"fmt"
)

// NOTE: PostgresRepo reads the users table owned by the auth layer:
// users(id BIGSERIAL, name TEXT, email TEXT, role_id SMALLINT, ...).
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Principals(ctx context.Context, ids []int64) (map[int64]Principal, error) {
	out := make(map[int64]Principal, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	const q = `
SELECT id, name, email, COALESCE(role_id, 0)
FROM users
WHERE id = ANY($1)
`
	rows, err := r.db.QueryContext(ctx, q, ids)
	if err != nil {
		return nil, fmt.Errorf("users: query principals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p Principal
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.RoleID); err != nil {
			return nil, fmt.Errorf("users: scan principal: %w", err)
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}
