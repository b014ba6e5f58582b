package clinic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dental-clinic/internal/audit"
)

// Store persists clinic settings. Each method is one atomic unit of work.
type Store interface {
	ListSpecializations(ctx context.Context) ([]Specialization, error)
	InsertSpecializations(ctx context.Context, names []string, now time.Time) ([]Specialization, error)
	// RenameSpecialization returns the row as it was before and after the rename.
	RenameSpecialization(ctx context.Context, id int64, name string, now time.Time) (before, after Specialization, err error)
	// DeleteSpecialization fails with ErrInUse while dentists reference the row.
	DeleteSpecialization(ctx context.Context, id int64) (Specialization, error)

	ListAvailability(ctx context.Context) ([]Availability, error)
	// UpsertAvailability returns the previous row for the day, if any.
	UpsertAvailability(ctx context.Context, a Availability) (prev *Availability, stored Availability, err error)
	DeleteAvailability(ctx context.Context, id int64) (Availability, error)

	ListClosures(ctx context.Context, from string) ([]Closure, error)
	// InsertClosure fails with ErrConflict if the date is taken.
	InsertClosure(ctx context.Context, c Closure) (Closure, error)
	DeleteClosure(ctx context.Context, id int64) (Closure, error)
}

// Service manages specializations and the clinic schedule.
//
// Every mutation commits first and is then audited best-effort: an audit
// failure is logged and never undoes or fails the change.
type Service struct {
	store Store
	audit *audit.Service
	// clock is injectable for deterministic tests.
	clock func() time.Time
	loc   *time.Location
}

func NewService(store Store, auditor *audit.Service) *Service {
	return &Service{store: store, audit: auditor, clock: time.Now, loc: time.UTC}
}

// WithLocation sets the clinic-local zone used to decide what "today" is.
func (s *Service) WithLocation(loc *time.Location) *Service {
	if loc != nil {
		s.loc = loc
	}
	return s
}

func (s *Service) ListSpecializations(ctx context.Context) ([]Specialization, error) {
	return s.store.ListSpecializations(ctx)
}

// CreateSpecializations inserts names in bulk and writes one audit record per
// name. Bulk rows carry no target id.
func (s *Service) CreateSpecializations(ctx context.Context, actor int64, names []string) ([]Specialization, error) {
	clean := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || len(n) > 255 {
			return nil, ErrInvalidArgument
		}
		key := strings.ToLower(n)
		if _, dup := seen[key]; dup {
			return nil, ErrConflict
		}
		seen[key] = struct{}{}
		clean = append(clean, n)
	}
	if len(clean) == 0 {
		return nil, ErrInvalidArgument
	}

	created, err := s.store.InsertSpecializations(ctx, clean, s.clock().UTC())
	if err != nil {
		return nil, err
	}

	for _, name := range clean {
		s.audit.LogBestEffort(ctx, audit.Entry{
			AdminID:       actorID(actor),
			ActivityTitle: "Specialization Created",
			Message:       "Created specialization: " + name,
			ModuleType:    audit.ModuleServicesManagement,
			TargetType:    audit.TargetSpecialization,
			NewValue:      map[string]any{"name": name},
		})
	}
	return created, nil
}

func (s *Service) UpdateSpecialization(ctx context.Context, actor, id int64, name string) (Specialization, error) {
	name = strings.TrimSpace(name)
	if id <= 0 || name == "" || len(name) > 255 {
		return Specialization{}, ErrInvalidArgument
	}

	before, after, err := s.store.RenameSpecialization(ctx, id, name, s.clock().UTC())
	if err != nil {
		return Specialization{}, err
	}

	s.audit.LogBestEffort(ctx, audit.Entry{
		AdminID:       actorID(actor),
		ActivityTitle: "Specialization Updated",
		Message:       fmt.Sprintf("Updated specialization from '%s' to '%s'", before.Name, after.Name),
		ModuleType:    audit.ModuleServicesManagement,
		TargetType:    audit.TargetSpecialization,
		TargetID:      &after.ID,
		OldValue:      map[string]any{"name": before.Name},
		NewValue:      map[string]any{"name": after.Name},
	})
	return after, nil
}

func (s *Service) DeleteSpecialization(ctx context.Context, actor, id int64) error {
	if id <= 0 {
		return ErrInvalidArgument
	}
	deleted, err := s.store.DeleteSpecialization(ctx, id)
	if err != nil {
		return err
	}

	s.audit.LogBestEffort(ctx, audit.Entry{
		AdminID:       actorID(actor),
		ActivityTitle: "Specialization Deleted",
		Message:       "Deleted specialization: " + deleted.Name,
		ModuleType:    audit.ModuleServicesManagement,
		TargetType:    audit.TargetSpecialization,
		TargetID:      &deleted.ID,
		OldValue:      map[string]any{"id": deleted.ID, "name": deleted.Name},
	})
	return nil
}

func (s *Service) ListAvailability(ctx context.Context) ([]Availability, error) {
	return s.store.ListAvailability(ctx)
}

// SetAvailability creates or replaces the schedule for one day of the week.
func (s *Service) SetAvailability(ctx context.Context, actor int64, a Availability) (Availability, error) {
	a.ID = 0
	if err := validateAvailability(&a); err != nil {
		return Availability{}, err
	}

	prev, stored, err := s.store.UpsertAvailability(ctx, a)
	if err != nil {
		return Availability{}, err
	}

	title := "Clinic Availability Created"
	var old map[string]any
	if prev != nil {
		title = "Clinic Availability Updated"
		old = prev.snapshot()
	}
	s.audit.LogBestEffort(ctx, audit.Entry{
		AdminID:       actorID(actor),
		ActivityTitle: title,
		Message:       "Updated availability for " + stored.DayName(),
		ModuleType:    audit.ModuleClinicManagement,
		TargetType:    audit.TargetClinicAvailability,
		TargetID:      &stored.ID,
		OldValue:      old,
		NewValue:      stored.snapshot(),
	})
	return stored, nil
}

func (s *Service) RemoveAvailability(ctx context.Context, actor, id int64) error {
	if id <= 0 {
		return ErrInvalidArgument
	}
	removed, err := s.store.DeleteAvailability(ctx, id)
	if err != nil {
		return err
	}

	old := removed.snapshot()
	old["id"] = removed.ID
	s.audit.LogBestEffort(ctx, audit.Entry{
		AdminID:       actorID(actor),
		ActivityTitle: "Clinic Availability Removed",
		Message:       "Removed availability for " + removed.DayName(),
		ModuleType:    audit.ModuleClinicManagement,
		TargetType:    audit.TargetClinicAvailability,
		TargetID:      &removed.ID,
		OldValue:      old,
	})
	return nil
}

// ListClosures returns closure exceptions from one month ago onward, by date.
func (s *Service) ListClosures(ctx context.Context) ([]Closure, error) {
	from := s.today().AddDate(0, -1, 0).Format(dateLayout)
	return s.store.ListClosures(ctx, from)
}

// AddClosure records a closure exception for today or a later date.
// closed defaults to true when nil.
func (s *Service) AddClosure(ctx context.Context, actor int64, date, reason string, closed *bool) (Closure, error) {
	day, err := time.ParseInLocation(dateLayout, strings.TrimSpace(date), s.loc)
	if err != nil || day.Before(s.today()) {
		return Closure{}, ErrInvalidArgument
	}
	reason = strings.TrimSpace(reason)
	if len(reason) > 255 {
		return Closure{}, ErrInvalidArgument
	}
	c := Closure{Date: day.Format(dateLayout), Reason: reason, IsClosed: true}
	if closed != nil {
		c.IsClosed = *closed
	}

	stored, err := s.store.InsertClosure(ctx, c)
	if err != nil {
		return Closure{}, err
	}

	s.audit.LogBestEffort(ctx, audit.Entry{
		AdminID:       actorID(actor),
		ActivityTitle: "Closure Exception Added",
		Message:       "Added closure exception for " + stored.Date,
		ModuleType:    audit.ModuleClinicManagement,
		TargetType:    audit.TargetClosureException,
		TargetID:      &stored.ID,
		NewValue:      stored.snapshot(),
	})
	return stored, nil
}

func (s *Service) RemoveClosure(ctx context.Context, actor, id int64) error {
	if id <= 0 {
		return ErrInvalidArgument
	}
	removed, err := s.store.DeleteClosure(ctx, id)
	if err != nil {
		return err
	}

	old := removed.snapshot()
	old["id"] = removed.ID
	s.audit.LogBestEffort(ctx, audit.Entry{
		AdminID:       actorID(actor),
		ActivityTitle: "Closure Exception Removed",
		Message:       "Removed closure exception for " + removed.Date,
		ModuleType:    audit.ModuleClinicManagement,
		TargetType:    audit.TargetClosureException,
		TargetID:      &removed.ID,
		OldValue:      old,
	})
	return nil
}

func (s *Service) today() time.Time {
	y, m, d := s.clock().In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

// validateAvailability normalizes times to HH:MM and clears them on closed days.
func validateAvailability(a *Availability) error {
	if a.DayOfWeek < 1 || a.DayOfWeek > 7 {
		return ErrInvalidArgument
	}
	if a.IsClosed {
		a.OpenTime, a.CloseTime = "", ""
		return nil
	}
	open, err := time.Parse(clockLayout, strings.TrimSpace(a.OpenTime))
	if err != nil {
		return ErrInvalidArgument
	}
	closeAt, err := time.Parse(clockLayout, strings.TrimSpace(a.CloseTime))
	if err != nil {
		return ErrInvalidArgument
	}
	if !closeAt.After(open) {
		return ErrInvalidArgument
	}
	a.OpenTime = open.Format(clockLayout)
	a.CloseTime = closeAt.Format(clockLayout)
	return nil
}

// actorID maps the authenticated principal onto the audit admin id; zero means unknown.
func actorID(actor int64) *int64 {
	if actor <= 0 {
		return nil
	}
	return &actor
}
