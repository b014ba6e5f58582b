package appointments

import (
	"strings"
	"time"
)

type Patient struct {
	ID         int64  `json:"id" db:"id"`
	FirstName  string `json:"fname" db:"fname"`
	MiddleName string `json:"mname,omitempty" db:"mname"`
	LastName   string `json:"lname" db:"lname"`
}

// FullName is "first [middle] last"; an empty middle name is omitted.
func (p Patient) FullName() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.FirstName, p.MiddleName, p.LastName} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// ShortName is "first last", skipping the middle name entirely.
func (p Patient) ShortName() string {
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}

// MatchesName reports whether term is a case-insensitive substring of either name form.
func (p Patient) MatchesName(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return false
	}
	return strings.Contains(strings.ToLower(p.FullName()), term) ||
		strings.Contains(strings.ToLower(p.ShortName()), term)
}

type Appointment struct {
	ID        int64     `json:"id" db:"id"`
	PatientID int64     `json:"patient_id" db:"patient_id"`
	DentistID int64     `json:"dentist_id" db:"dentist_id"`
	Status    Status    `json:"status" db:"status"`
	StartAt   time.Time `json:"appointment_start_datetime" db:"appointment_start_datetime"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Status string

const (
	StatusScheduled Status = "Scheduled"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)
