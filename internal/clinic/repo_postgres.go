package clinic

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dental-clinic/pkg/utils"
)

// NOTE: PostgresStore assumes the following tables exist:
//
//	specializations (id BIGSERIAL PK, name TEXT UNIQUE NOT NULL, created_at, updated_at)
//	dentist_specialization (dentist_id BIGINT, specialization_id BIGINT)
//	clinic_availabilities (id BIGSERIAL PK, day_of_week SMALLINT UNIQUE, open_time TIME NULL,
//	                       close_time TIME NULL, is_closed BOOLEAN NOT NULL DEFAULT false)
//	clinic_closure_exceptions (id BIGSERIAL PK, date DATE UNIQUE, reason TEXT NULL,
//	                           is_closed BOOLEAN NOT NULL DEFAULT true)
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

func (p *PostgresStore) ListSpecializations(ctx context.Context) ([]Specialization, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, name, created_at, updated_at FROM specializations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("clinic: list specializations: %w", err)
	}
	defer rows.Close()

	out := make([]Specialization, 0)
	for rows.Next() {
		var s Specialization
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("clinic: scan specialization: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// InsertSpecializations writes all names in one statement; a duplicate rejects the batch.
func (p *PostgresStore) InsertSpecializations(ctx context.Context, names []string, now time.Time) ([]Specialization, error) {
	var (
		b    strings.Builder
		args = []any{now}
	)
	b.WriteString("INSERT INTO specializations (name, created_at, updated_at) VALUES ")
	for i, n := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		args = append(args, n)
		b.WriteString("($" + strconv.Itoa(len(args)) + ", $1, $1)")
	}
	b.WriteString(" RETURNING id, name, created_at, updated_at")

	rows, err := p.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		if utils.IsUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("clinic: insert specializations: %w", err)
	}
	defer rows.Close()

	out := make([]Specialization, 0, len(names))
	for rows.Next() {
		var s Specialization
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("clinic: scan specialization: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		if utils.IsUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return out, nil
}

func (p *PostgresStore) RenameSpecialization(ctx context.Context, id int64, name string, now time.Time) (before, after Specialization, err error) {
	err = utils.WithTx(ctx, p.db, func(tx *sql.Tx) error {
		before, err = lockSpecialization(ctx, tx, id)
		if err != nil {
			return err
		}
		const q = `
UPDATE specializations SET name = $2, updated_at = $3
WHERE id = $1
RETURNING id, name, created_at, updated_at
`
		if err := tx.QueryRowContext(ctx, q, id, name, now).Scan(&after.ID, &after.Name, &after.CreatedAt, &after.UpdatedAt); err != nil {
			if utils.IsUniqueViolation(err) {
				return ErrConflict
			}
			return err
		}
		return nil
	})
	return before, after, err
}

func (p *PostgresStore) DeleteSpecialization(ctx context.Context, id int64) (Specialization, error) {
	var out Specialization
	err := utils.WithTx(ctx, p.db, func(tx *sql.Tx) error {
		s, err := lockSpecialization(ctx, tx, id)
		if err != nil {
			return err
		}
		var assigned int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM dentist_specialization WHERE specialization_id = $1`, id,
		).Scan(&assigned); err != nil {
			return err
		}
		if assigned > 0 {
			return ErrInUse
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM specializations WHERE id = $1`, id); err != nil {
			return err
		}
		out = s
		return nil
	})
	return out, err
}

func lockSpecialization(ctx context.Context, tx *sql.Tx, id int64) (Specialization, error) {
	const q = `
SELECT id, name, created_at, updated_at
FROM specializations
WHERE id = $1
FOR UPDATE
`
	var s Specialization
	if err := tx.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.Name, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Specialization{}, ErrNotFound
		}
		return Specialization{}, err
	}
	return s, nil
}

const availabilityColumns = `id, day_of_week,
  COALESCE(to_char(open_time, 'HH24:MI'), ''), COALESCE(to_char(close_time, 'HH24:MI'), ''), is_closed`

func scanAvailability(row interface{ Scan(...any) error }) (Availability, error) {
	var a Availability
	err := row.Scan(&a.ID, &a.DayOfWeek, &a.OpenTime, &a.CloseTime, &a.IsClosed)
	return a, err
}

func (p *PostgresStore) ListAvailability(ctx context.Context) ([]Availability, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+availabilityColumns+` FROM clinic_availabilities ORDER BY day_of_week`)
	if err != nil {
		return nil, fmt.Errorf("clinic: list availability: %w", err)
	}
	defer rows.Close()

	out := make([]Availability, 0, 7)
	for rows.Next() {
		a, err := scanAvailability(rows)
		if err != nil {
			return nil, fmt.Errorf("clinic: scan availability: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (p *PostgresStore) UpsertAvailability(ctx context.Context, a Availability) (prev *Availability, stored Availability, err error) {
	err = utils.WithTx(ctx, p.db, func(tx *sql.Tx) error {
		existing, err := scanAvailability(tx.QueryRowContext(ctx,
			`SELECT `+availabilityColumns+` FROM clinic_availabilities WHERE day_of_week = $1 FOR UPDATE`, a.DayOfWeek))
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return err
		default:
			prev = &existing
		}

		const q = `
INSERT INTO clinic_availabilities (day_of_week, open_time, close_time, is_closed)
VALUES ($1, $2::time, $3::time, $4)
ON CONFLICT (day_of_week) DO UPDATE
SET open_time = EXCLUDED.open_time, close_time = EXCLUDED.close_time, is_closed = EXCLUDED.is_closed
RETURNING ` + availabilityColumns
		stored, err = scanAvailability(tx.QueryRowContext(ctx, q,
			a.DayOfWeek, nullableString(a.OpenTime), nullableString(a.CloseTime), a.IsClosed))
		return err
	})
	return prev, stored, err
}

func (p *PostgresStore) DeleteAvailability(ctx context.Context, id int64) (Availability, error) {
	a, err := scanAvailability(p.db.QueryRowContext(ctx,
		`DELETE FROM clinic_availabilities WHERE id = $1 RETURNING `+availabilityColumns, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Availability{}, ErrNotFound
	}
	return a, err
}

const closureColumns = `id, to_char(date, 'YYYY-MM-DD'), COALESCE(reason, ''), is_closed`

func scanClosure(row interface{ Scan(...any) error }) (Closure, error) {
	var c Closure
	err := row.Scan(&c.ID, &c.Date, &c.Reason, &c.IsClosed)
	return c, err
}

func (p *PostgresStore) ListClosures(ctx context.Context, from string) ([]Closure, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+closureColumns+` FROM clinic_closure_exceptions WHERE date >= $1::date ORDER BY date`, from)
	if err != nil {
		return nil, fmt.Errorf("clinic: list closures: %w", err)
	}
	defer rows.Close()

	out := make([]Closure, 0)
	for rows.Next() {
		c, err := scanClosure(rows)
		if err != nil {
			return nil, fmt.Errorf("clinic: scan closure: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *PostgresStore) InsertClosure(ctx context.Context, c Closure) (Closure, error) {
	const q = `
INSERT INTO clinic_closure_exceptions (date, reason, is_closed)
VALUES ($1::date, $2, $3)
RETURNING ` + closureColumns
	out, err := scanClosure(p.db.QueryRowContext(ctx, q, c.Date, nullableString(c.Reason), c.IsClosed))
	if err != nil {
		if utils.IsUniqueViolation(err) {
			return Closure{}, ErrConflict
		}
		return Closure{}, fmt.Errorf("clinic: insert closure: %w", err)
	}
	return out, nil
}

func (p *PostgresStore) DeleteClosure(ctx context.Context, id int64) (Closure, error) {
	c, err := scanClosure(p.db.QueryRowContext(ctx,
		`DELETE FROM clinic_closure_exceptions WHERE id = $1 RETURNING `+closureColumns, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Closure{}, ErrNotFound
	}
	return c, err
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
