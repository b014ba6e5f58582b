package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// NOTE: PostgresRepo assumes the following table exists:
//
//	CREATE TABLE admin_audit (
//	  id             BIGSERIAL PRIMARY KEY,
//	  admin_id       BIGINT NULL REFERENCES users(id) ON DELETE SET NULL,
//	  activity_title TEXT NOT NULL,
//	  module_type    TEXT NOT NULL,
//	  message        TEXT NOT NULL DEFAULT '',
//	  target_type    TEXT NOT NULL,
//	  target_id      BIGINT NULL,
//	  old_value      JSONB NULL,
//	  new_value      JSONB NULL,
//	  ip_address     TEXT NULL,
//	  user_agent     TEXT NULL,
//	  created_at     TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX ON admin_audit (target_type, target_id, created_at);
//	CREATE INDEX ON admin_audit (module_type, created_at);
//
// Grant INSERT/SELECT only; UPDATE/DELETE are never issued.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const recordColumns = `id, admin_id, activity_title, module_type, message, target_type, target_id,
  old_value, new_value, ip_address, user_agent, created_at`

func (r *PostgresRepo) Append(ctx context.Context, rec Record) (Record, error) {
	oldValue, err := marshalSnapshot(rec.OldValue)
	if err != nil {
		return Record{}, fmt.Errorf("audit: encode old_value: %w", err)
	}
	newValue, err := marshalSnapshot(rec.NewValue)
	if err != nil {
		return Record{}, fmt.Errorf("audit: encode new_value: %w", err)
	}

	const q = `
INSERT INTO admin_audit (
  admin_id, activity_title, module_type, message, target_type, target_id,
  old_value, new_value, ip_address, user_agent, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
)
RETURNING id
`
	if err := r.db.QueryRowContext(ctx, q,
		nullInt64(rec.AdminID),
		rec.ActivityTitle,
		rec.ModuleType,
		rec.Message,
		rec.TargetType,
		nullInt64(rec.TargetID),
		oldValue,
		newValue,
		nullString(rec.IPAddress),
		nullString(rec.UserAgent),
		rec.CreatedAt,
	).Scan(&rec.ID); err != nil {
		return Record{}, fmt.Errorf("audit: insert: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepo) Find(ctx context.Context, f Filter) ([]Record, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.TargetType != "" {
		where = append(where, "target_type = "+arg(f.TargetType))
	}
	if f.TargetID != nil {
		where = append(where, "target_id = "+arg(*f.TargetID))
	}
	if f.ModuleType != "" {
		where = append(where, "module_type = "+arg(f.ModuleType))
	}
	if f.ModuleLike != "" {
		where = append(where, "module_type ILIKE "+arg(likePattern(f.ModuleLike)))
	}
	if f.TitleLike != "" {
		where = append(where, "activity_title ILIKE "+arg(likePattern(f.TitleLike)))
	}
	if f.MessageLike != "" {
		where = append(where, "message ILIKE "+arg(likePattern(f.MessageLike)))
	}
	if f.Keyword != "" {
		p := arg(likePattern(f.Keyword))
		where = append(where, "(message ILIKE "+p+" OR activity_title ILIKE "+p+")")
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(recordColumns)
	b.WriteString("\nFROM admin_audit")
	if len(where) > 0 {
		b.WriteString("\nWHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	if f.Ascending {
		b.WriteString("\nORDER BY created_at ASC, id ASC")
	} else {
		b.WriteString("\nORDER BY created_at DESC, id DESC")
	}
	if f.Limit > 0 {
		b.WriteString("\nLIMIT " + arg(f.Limit))
	}

	return r.query(ctx, b.String(), args...)
}

func (r *PostgresRepo) List(ctx context.Context, p ListParams) ([]Record, error) {
	q := "SELECT " + recordColumns + "\nFROM admin_audit"
	var args []any
	if p.BeforeID > 0 {
		args = append(args, p.BeforeID)
		q += "\nWHERE id < $1"
	}
	q += "\nORDER BY id DESC"
	if p.Limit > 0 {
		args = append(args, p.Limit)
		q += "\nLIMIT $" + strconv.Itoa(len(args))
	}
	return r.query(ctx, q, args...)
}

func (r *PostgresRepo) query(ctx context.Context, q string, args ...any) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: query: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		var (
			rec                  Record
			adminID, targetID    sql.NullInt64
			oldValue, newValue   []byte
			ipAddress, userAgent sql.NullString
		)
		if err := rows.Scan(
			&rec.ID,
			&adminID,
			&rec.ActivityTitle,
			&rec.ModuleType,
			&rec.Message,
			&rec.TargetType,
			&targetID,
			&oldValue,
			&newValue,
			&ipAddress,
			&userAgent,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("audit: scan: %w", err)
		}
		if adminID.Valid {
			v := adminID.Int64
			rec.AdminID = &v
		}
		if targetID.Valid {
			v := targetID.Int64
			rec.TargetID = &v
		}
		if rec.OldValue, err = unmarshalSnapshot(oldValue); err != nil {
			return nil, fmt.Errorf("audit: decode old_value: %w", err)
		}
		if rec.NewValue, err = unmarshalSnapshot(newValue); err != nil {
			return nil, fmt.Errorf("audit: decode new_value: %w", err)
		}
		rec.IPAddress = ipAddress.String
		rec.UserAgent = userAgent.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

// likePattern wraps s for a substring ILIKE, escaping LIKE metacharacters.
func likePattern(s string) string {
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + s + "%"
}

func marshalSnapshot(v map[string]any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func unmarshalSnapshot(b []byte) (map[string]any, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
