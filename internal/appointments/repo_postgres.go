package appointments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// NOTE: PostgresRepo assumes:
// - patients(id, fname, mname NULL, lname, ...)
// - appointments(id, patient_id REFERENCES patients, dentist_id, status, appointment_start_datetime, created_at, ...)
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

// LatestForPatientName returns the most recently created appointment whose patient
// matches name against "first [middle] last" or "first last".
func (r *PostgresRepo) LatestForPatientName(ctx context.Context, name string) (int64, bool, error) {
	term := strings.ToLower(strings.TrimSpace(name))
	if term == "" {
		return 0, false, nil
	}

	const q = `
SELECT a.id
FROM appointments a
JOIN patients p ON p.id = a.patient_id
WHERE CONCAT_WS(' ', LOWER(p.fname), NULLIF(LOWER(p.mname), ''), LOWER(p.lname)) LIKE $1
   OR CONCAT(LOWER(p.fname), ' ', LOWER(p.lname)) LIKE $1
ORDER BY a.created_at DESC, a.id DESC
LIMIT 1
`
	var id int64
	if err := r.db.QueryRowContext(ctx, q, likePattern(term)).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("appointments: find by patient name: %w", err)
	}
	return id, true, nil
}

// PatientName returns the current full name of the appointment's patient.
// ok is false when the appointment or its patient no longer exists.
func (r *PostgresRepo) PatientName(ctx context.Context, appointmentID int64) (string, bool, error) {
	const q = `
SELECT p.fname, p.mname, p.lname
FROM appointments a
LEFT JOIN patients p ON p.id = a.patient_id
WHERE a.id = $1
`
	var fname, mname, lname sql.NullString
	if err := r.db.QueryRowContext(ctx, q, appointmentID).Scan(&fname, &mname, &lname); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("appointments: patient name: %w", err)
	}
	if !fname.Valid {
		return "", false, nil
	}
	p := Patient{FirstName: fname.String, MiddleName: mname.String, LastName: lname.String}
	return p.FullName(), true, nil
}

func likePattern(s string) string {
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + s + "%"
}
