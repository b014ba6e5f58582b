package audit

import (
	"encoding/json"
	"time"
)

// Status tags the outcome of a query.
type Status string

const (
	// StatusMatch: the query found what was asked for.
	StatusMatch Status = "match"
	// StatusInferred: the strict search failed but a fallback found related activity.
	StatusInferred Status = "inferred"
	// StatusNoMatch: nothing matched. Not an error.
	StatusNoMatch Status = "no_match"
	// StatusInvalidRequest: the caller did not supply enough input to search.
	StatusInvalidRequest Status = "invalid_request"
)

// Result is the tagged outcome of an Engine query.
//
// JSON shapes:
//
//	match          {"found": true, ...payload}
//	inferred       {"found": true, "note": "...", ...payload}
//	no_match       {"found": false, "message": "..."}
//	invalid_request {"error": "..."}
type Result[T any] struct {
	Status Status
	// Message explains a no_match or invalid_request outcome.
	Message string
	// Note qualifies an inferred outcome.
	Note    string
	Payload T
}

func Match[T any](payload T) Result[T] {
	return Result[T]{Status: StatusMatch, Payload: payload}
}

func Inferred[T any](payload T, note string) Result[T] {
	return Result[T]{Status: StatusInferred, Payload: payload, Note: note}
}

func NoMatch[T any](message string) Result[T] {
	return Result[T]{Status: StatusNoMatch, Message: message}
}

func InvalidRequest[T any](message string) Result[T] {
	return Result[T]{Status: StatusInvalidRequest, Message: message}
}

func (r Result[T]) Found() bool {
	return r.Status == StatusMatch || r.Status == StatusInferred
}

func (r Result[T]) MarshalJSON() ([]byte, error) {
	switch r.Status {
	case StatusInvalidRequest:
		return json.Marshal(struct {
			Error string `json:"error"`
		}{r.Message})
	case StatusNoMatch:
		return json.Marshal(struct {
			Found   bool   `json:"found"`
			Message string `json:"message"`
		}{false, r.Message})
	}

	raw, err := json.Marshal(r.Payload)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	fields["found"] = json.RawMessage("true")
	if r.Note != "" {
		note, err := json.Marshal(r.Note)
		if err != nil {
			return nil, err
		}
		fields["note"] = note
	}
	return json.Marshal(fields)
}

// --- Payloads ---

type TargetLog struct {
	Action      string `json:"action"`
	PerformedBy string `json:"performed_by"`
	Message     string `json:"message"`
	Date        string `json:"date"`
	TargetID    *int64 `json:"target_id"`

	At time.Time `json:"-"`
}

type TargetLogs struct {
	Count int         `json:"count"`
	Logs  []TargetLog `json:"logs"`
}

type ActivityEntry struct {
	Action      string `json:"action"`
	PerformedBy string `json:"performed_by"`
	Message     string `json:"message"`
	Date        string `json:"date"`

	At time.Time `json:"-"`
}

type RecentActivity struct {
	Count    int             `json:"count"`
	Activity []ActivityEntry `json:"activity"`
}

type ModuleLog struct {
	Action      string `json:"action"`
	PerformedBy string `json:"performed_by"`
	Role        string `json:"role"`
	Message     string `json:"message"`
	Module      string `json:"module"`
	Date        string `json:"date"`

	At time.Time `json:"-"`
}

type ModuleLogs struct {
	Count int         `json:"count"`
	Logs  []ModuleLog `json:"logs"`
}

type AppointmentCreator struct {
	AppointmentID int64  `json:"appointment_id"`
	PatientName   string `json:"patient_name"`
	CreatedBy     string `json:"created_by"`
	CreatedAt     string `json:"created_at"`
	Message       string `json:"message"`

	At time.Time `json:"-"`
}

// EntityFinding holds exactly one of Creation (status match) or Activity (status inferred).
type EntityFinding struct {
	Creation *EntityCreation
	Activity *EntityActivity
}

type EntityCreation struct {
	Action     string `json:"action"`
	CreatedBy  string `json:"created_by"`
	Message    string `json:"message"`
	TargetType string `json:"target_type"`
	TargetID   *int64 `json:"target_id"`
	CreatedAt  string `json:"created_at"`

	At time.Time `json:"-"`
}

type EntityActivity struct {
	Action      string `json:"action"`
	PerformedBy string `json:"performed_by"`
	Message     string `json:"message"`
	TargetType  string `json:"target_type"`
	Date        string `json:"date"`

	At time.Time `json:"-"`
}

func (f EntityFinding) MarshalJSON() ([]byte, error) {
	if f.Creation != nil {
		return json.Marshal(f.Creation)
	}
	if f.Activity != nil {
		return json.Marshal(f.Activity)
	}
	return []byte("{}"), nil
}

// LogView is one row of the full audit listing.
type LogView struct {
	ID            int64          `json:"id"`
	AdminName     string         `json:"admin_name"`
	AdminEmail    string         `json:"admin_email,omitempty"`
	ActivityTitle string         `json:"activity_title"`
	ModuleType    string         `json:"module_type"`
	Message       string         `json:"message"`
	TargetType    string         `json:"target_type"`
	TargetLabel   string         `json:"target_label"`
	TargetID      *int64         `json:"target_id"`
	OldValue      map[string]any `json:"old_value,omitempty"`
	NewValue      map[string]any `json:"new_value,omitempty"`
	IPAddress     string         `json:"ip_address,omitempty"`
	CreatedAt     string         `json:"created_at"`
}

type LogPage struct {
	Logs       []LogView `json:"logs"`
	NextCursor *int64    `json:"next_cursor"`
}
