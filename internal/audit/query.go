package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dental-clinic/internal/users"
)

const (
	// DefaultWindow bounds every query unless the caller supplies a limit.
	DefaultWindow = 10
	MaxWindow     = 100

	DefaultListLimit = 20

	UnknownUser = "Unknown User"
	// DateLayout renders as "Mon D, YYYY h:mm AM/PM".
	DateLayout = "Jan 2, 2006 3:04 PM"

	// createdKeyword matches "Created", "Create" and "created" case-insensitively.
	createdKeyword = "create"
)

// AppointmentLookup resolves appointments for the creator query.
// Implemented by internal/appointments.
type AppointmentLookup interface {
	// LatestForPatientName returns the most recently created appointment whose
	// patient name contains name (case-insensitive).
	LatestForPatientName(ctx context.Context, name string) (appointmentID int64, ok bool, err error)
	// PatientName returns the current patient name; ok is false if the relation is gone.
	PatientName(ctx context.Context, appointmentID int64) (name string, ok bool, err error)
}

// ActivityQuery holds the optional filters for SearchByActivity.
type ActivityQuery struct {
	Activity   string `form:"activity" json:"activity,omitempty"`
	ModuleType string `form:"module" json:"module,omitempty"`
	Keyword    string `form:"keyword" json:"keyword,omitempty"`
}

// Engine answers operator questions over the audit trail.
//
// Matching is heuristic: titles and messages are free text, so queries use
// case-insensitive substrings and accept false negatives (e.g. records written
// before audit coverage existed), reported as StatusNoMatch.
type Engine struct {
	repo         Reader
	principals   users.Directory
	appointments AppointmentLookup
	loc          *time.Location
}

func NewEngine(repo Reader, principals users.Directory, appointments AppointmentLookup) *Engine {
	return &Engine{repo: repo, principals: principals, appointments: appointments, loc: time.UTC}
}

// WithLocation sets the time zone used to render dates.
func (e *Engine) WithLocation(loc *time.Location) *Engine {
	if loc != nil {
		e.loc = loc
	}
	return e
}

// SearchAuditLogs returns the latest records for a target, optionally narrowed to
// one target id and to titles containing action.
func (e *Engine) SearchAuditLogs(ctx context.Context, targetType string, targetID *int64, action string) (Result[TargetLogs], error) {
	targetType = strings.TrimSpace(targetType)
	if targetType == "" {
		return InvalidRequest[TargetLogs]("Target type is required."), nil
	}

	recs, err := e.find(ctx, Filter{
		TargetType: targetType,
		TargetID:   targetID,
		TitleLike:  strings.TrimSpace(action),
		Limit:      DefaultWindow,
	})
	if err != nil {
		return Result[TargetLogs]{}, err
	}
	if len(recs) == 0 {
		withID := ""
		if targetID != nil {
			withID = fmt.Sprintf(" with ID %d", *targetID)
		}
		return NoMatch[TargetLogs](fmt.Sprintf("No audit logs found for %s%s.", targetType, withID)), nil
	}

	principals, err := e.principalsFor(ctx, recs)
	if err != nil {
		return Result[TargetLogs]{}, err
	}
	out := TargetLogs{Count: len(recs), Logs: make([]TargetLog, 0, len(recs))}
	for _, r := range recs {
		out.Logs = append(out.Logs, TargetLog{
			Action:      r.ActivityTitle,
			PerformedBy: performedBy(r, principals),
			Message:     r.Message,
			Date:        e.formatDate(r.CreatedAt),
			TargetID:    r.TargetID,
			At:          r.CreatedAt,
		})
	}
	return Match(out), nil
}

// FindAppointmentCreator finds the earliest creation record for an appointment.
// If appointmentID is nil, the appointment is resolved from patientName first.
func (e *Engine) FindAppointmentCreator(ctx context.Context, appointmentID *int64, patientName string) (Result[AppointmentCreator], error) {
	patientName = strings.TrimSpace(patientName)

	var id int64
	if appointmentID != nil && *appointmentID > 0 {
		id = *appointmentID
	}

	if id == 0 && patientName != "" {
		if e.appointments == nil {
			return Result[AppointmentCreator]{}, errors.New("audit: appointment lookup not configured")
		}
		found, ok, err := e.appointments.LatestForPatientName(ctx, patientName)
		if err != nil {
			return Result[AppointmentCreator]{}, err
		}
		if !ok {
			return NoMatch[AppointmentCreator](fmt.Sprintf("No appointments found for patient matching '%s'.", patientName)), nil
		}
		id = found
	}

	if id == 0 {
		return InvalidRequest[AppointmentCreator]("Either appointment ID or patient name is required."), nil
	}

	recs, err := e.find(ctx, Filter{
		TargetType: TargetAppointment,
		TargetID:   &id,
		TitleLike:  createdKeyword,
		Ascending:  true,
		Limit:      1,
	})
	if err != nil {
		return Result[AppointmentCreator]{}, err
	}
	if len(recs) == 0 {
		return NoMatch[AppointmentCreator](fmt.Sprintf(
			"No creation record found for appointment ID %d. The appointment may have been created before audit logging was enabled.", id,
		)), nil
	}
	created := recs[0]

	name := "Unknown"
	if e.appointments != nil {
		n, ok, err := e.appointments.PatientName(ctx, id)
		if err != nil {
			return Result[AppointmentCreator]{}, err
		}
		if ok && n != "" {
			name = n
		}
	}

	principals, err := e.principalsFor(ctx, recs)
	if err != nil {
		return Result[AppointmentCreator]{}, err
	}
	return Match(AppointmentCreator{
		AppointmentID: id,
		PatientName:   name,
		CreatedBy:     performedBy(created, principals),
		CreatedAt:     e.formatDate(created.CreatedAt),
		Message:       created.Message,
		At:            created.CreatedAt,
	}), nil
}

// GetRecentActivity returns the latest records of one module, newest first.
// limit <= 0 means DefaultWindow; it is capped at MaxWindow.
func (e *Engine) GetRecentActivity(ctx context.Context, moduleType string, limit int) (Result[RecentActivity], error) {
	moduleType = strings.TrimSpace(moduleType)
	if moduleType == "" {
		return InvalidRequest[RecentActivity]("Module type is required."), nil
	}

	recs, err := e.find(ctx, Filter{ModuleType: moduleType, Limit: clampLimit(limit, DefaultWindow)})
	if err != nil {
		return Result[RecentActivity]{}, err
	}
	if len(recs) == 0 {
		return NoMatch[RecentActivity](fmt.Sprintf("No recent activity found for %s.", moduleType)), nil
	}

	principals, err := e.principalsFor(ctx, recs)
	if err != nil {
		return Result[RecentActivity]{}, err
	}
	out := RecentActivity{Count: len(recs), Activity: make([]ActivityEntry, 0, len(recs))}
	for _, r := range recs {
		out.Activity = append(out.Activity, ActivityEntry{
			Action:      r.ActivityTitle,
			PerformedBy: performedBy(r, principals),
			Message:     r.Message,
			Date:        e.formatDate(r.CreatedAt),
			At:          r.CreatedAt,
		})
	}
	return Match(out), nil
}

// SearchByActivity ANDs the supplied filters. With no filters it returns the
// DefaultWindow most recent records.
func (e *Engine) SearchByActivity(ctx context.Context, q ActivityQuery) (Result[ModuleLogs], error) {
	q.Activity = strings.TrimSpace(q.Activity)
	q.ModuleType = strings.TrimSpace(q.ModuleType)
	q.Keyword = strings.TrimSpace(q.Keyword)

	recs, err := e.find(ctx, Filter{
		TitleLike:  q.Activity,
		ModuleLike: NormalizeModule(q.ModuleType),
		Keyword:    q.Keyword,
		Limit:      DefaultWindow,
	})
	if err != nil {
		return Result[ModuleLogs]{}, err
	}
	if len(recs) == 0 {
		return NoMatch[ModuleLogs](noActivityMessage(q)), nil
	}

	principals, err := e.principalsFor(ctx, recs)
	if err != nil {
		return Result[ModuleLogs]{}, err
	}
	out := ModuleLogs{Count: len(recs), Logs: make([]ModuleLog, 0, len(recs))}
	for _, r := range recs {
		role := "Unknown"
		if r.AdminID != nil {
			if p, ok := principals[*r.AdminID]; ok {
				role = users.RoleLabel(p.RoleID)
			}
		}
		out.Logs = append(out.Logs, ModuleLog{
			Action:      r.ActivityTitle,
			PerformedBy: performedBy(r, principals),
			Role:        role,
			Message:     r.Message,
			Module:      r.ModuleType,
			Date:        e.formatDate(r.CreatedAt),
			At:          r.CreatedAt,
		})
	}
	return Match(out), nil
}

// FindEntityCreator searches messages for name. A creation record yields
// StatusMatch; otherwise the most recent mentioning record yields StatusInferred.
func (e *Engine) FindEntityCreator(ctx context.Context, name string) (Result[EntityFinding], error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return InvalidRequest[EntityFinding]("Entity name is required."), nil
	}

	recs, err := e.find(ctx, Filter{MessageLike: name, TitleLike: createdKeyword, Limit: 1})
	if err != nil {
		return Result[EntityFinding]{}, err
	}
	if len(recs) == 1 {
		r := recs[0]
		principals, err := e.principalsFor(ctx, recs)
		if err != nil {
			return Result[EntityFinding]{}, err
		}
		return Match(EntityFinding{Creation: &EntityCreation{
			Action:     r.ActivityTitle,
			CreatedBy:  performedBy(r, principals),
			Message:    r.Message,
			TargetType: r.TargetType,
			TargetID:   r.TargetID,
			CreatedAt:  e.formatDate(r.CreatedAt),
			At:         r.CreatedAt,
		}}), nil
	}

	recs, err = e.find(ctx, Filter{MessageLike: name, Limit: 1})
	if err != nil {
		return Result[EntityFinding]{}, err
	}
	if len(recs) == 0 {
		return NoMatch[EntityFinding](fmt.Sprintf(
			"No audit logs found mentioning '%s'. The entity may have been created before audit logging was enabled.", name,
		)), nil
	}

	r := recs[0]
	principals, err := e.principalsFor(ctx, recs)
	if err != nil {
		return Result[EntityFinding]{}, err
	}
	return Inferred(EntityFinding{Activity: &EntityActivity{
		Action:      r.ActivityTitle,
		PerformedBy: performedBy(r, principals),
		Message:     r.Message,
		TargetType:  r.TargetType,
		Date:        e.formatDate(r.CreatedAt),
		At:          r.CreatedAt,
	}}, "No creation record found, but found other activity for this entity."), nil
}

// List pages through the whole audit trail, newest first.
func (e *Engine) List(ctx context.Context, p ListParams) (LogPage, error) {
	if e.repo == nil {
		return LogPage{}, ErrRepositoryNotConfigured
	}
	limit := clampLimit(p.Limit, DefaultListLimit)

	recs, err := e.repo.List(ctx, ListParams{Limit: limit + 1, BeforeID: p.BeforeID})
	if err != nil {
		return LogPage{}, err
	}

	var page LogPage
	if len(recs) > limit {
		recs = recs[:limit]
		next := recs[limit-1].ID
		page.NextCursor = &next
	}

	principals, err := e.principalsFor(ctx, recs)
	if err != nil {
		return LogPage{}, err
	}
	page.Logs = make([]LogView, 0, len(recs))
	for _, r := range recs {
		v := LogView{
			ID:            r.ID,
			AdminName:     performedBy(r, principals),
			ActivityTitle: r.ActivityTitle,
			ModuleType:    r.ModuleType,
			Message:       r.Message,
			TargetType:    r.TargetType,
			TargetLabel:   TargetLabel(r.TargetType),
			TargetID:      r.TargetID,
			OldValue:      r.OldValue,
			NewValue:      r.NewValue,
			IPAddress:     r.IPAddress,
			CreatedAt:     e.formatDate(r.CreatedAt),
		}
		if r.AdminID != nil {
			v.AdminEmail = principals[*r.AdminID].Email
		}
		page.Logs = append(page.Logs, v)
	}
	return page, nil
}

// NormalizeModule lowercases a module name and turns spaces into hyphens,
// so "Clinic Management" matches "clinic-management".
func NormalizeModule(m string) string {
	return strings.ToLower(strings.ReplaceAll(m, " ", "-"))
}

func (e *Engine) find(ctx context.Context, f Filter) ([]Record, error) {
	if e.repo == nil {
		return nil, ErrRepositoryNotConfigured
	}
	return e.repo.Find(ctx, f)
}

func (e *Engine) principalsFor(ctx context.Context, recs []Record) (map[int64]users.Principal, error) {
	if e.principals == nil {
		return map[int64]users.Principal{}, nil
	}
	ids := make([]int64, 0, len(recs))
	for _, r := range recs {
		if r.AdminID != nil {
			ids = append(ids, *r.AdminID)
		}
	}
	if len(ids) == 0 {
		return map[int64]users.Principal{}, nil
	}
	return e.principals.Principals(ctx, ids)
}

func (e *Engine) formatDate(t time.Time) string {
	return t.In(e.loc).Format(DateLayout)
}

func performedBy(r Record, principals map[int64]users.Principal) string {
	if r.AdminID == nil {
		return UnknownUser
	}
	p, ok := principals[*r.AdminID]
	if !ok || p.Name == "" {
		return UnknownUser
	}
	return p.Name
}

func noActivityMessage(q ActivityQuery) string {
	var parts []string
	if q.Activity != "" {
		parts = append(parts, fmt.Sprintf("activity '%s'", q.Activity))
	}
	if q.ModuleType != "" {
		parts = append(parts, fmt.Sprintf("module '%s'", q.ModuleType))
	}
	if q.Keyword != "" {
		parts = append(parts, fmt.Sprintf("keyword '%s'", q.Keyword))
	}
	if len(parts) == 0 {
		return "No audit logs found."
	}
	return "No audit logs found for " + strings.Join(parts, " and ") + "."
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > MaxWindow {
		return MaxWindow
	}
	return limit
}
