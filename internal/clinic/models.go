package clinic

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInUse: a specialization still assigned to dentists cannot be deleted.
	ErrInUse = errors.New("in use")
	// ErrConflict: a unique name or date is already taken.
	ErrConflict = errors.New("conflict")
)

type Specialization struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Availability is the weekly opening schedule for one day.
// Days run 1 (Monday) through 7 (Sunday). Open/close times are "HH:MM" and
// empty when the day is closed.
type Availability struct {
	ID        int64  `json:"id" db:"id"`
	DayOfWeek int    `json:"day_of_week" db:"day_of_week"`
	OpenTime  string `json:"open_time,omitempty" db:"open_time"`
	CloseTime string `json:"close_time,omitempty" db:"close_time"`
	IsClosed  bool   `json:"is_closed" db:"is_closed"`
}

func (a Availability) DayName() string { return DayName(a.DayOfWeek) }

func (a Availability) snapshot() map[string]any {
	return map[string]any{
		"day_name":   a.DayName(),
		"open_time":  nullable(a.OpenTime),
		"close_time": nullable(a.CloseTime),
		"is_closed":  a.IsClosed,
	}
}

// Closure is a one-off exception to the weekly schedule, e.g. a holiday.
// Date is "YYYY-MM-DD" and unique.
type Closure struct {
	ID       int64  `json:"id" db:"id"`
	Date     string `json:"date" db:"date"`
	Reason   string `json:"reason,omitempty" db:"reason"`
	IsClosed bool   `json:"is_closed" db:"is_closed"`
}

func (c Closure) snapshot() map[string]any {
	return map[string]any{
		"date":      c.Date,
		"reason":    nullable(c.Reason),
		"is_closed": c.IsClosed,
	}
}

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

var dayNames = [...]string{"", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// DayName maps 1..7 onto Monday..Sunday; anything else is "Unknown".
func DayName(day int) string {
	if day < 1 || day > 7 {
		return "Unknown"
	}
	return dayNames[day]
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
