package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"dental-clinic/internal/appointments"
	"dental-clinic/internal/users"
)

var base = time.Date(2025, 1, 15, 14, 30, 0, 0, time.UTC)

func ptr(v int64) *int64 { return &v }

type fixture struct {
	repo   *MemoryRepo
	people *users.MemoryRepo
	appts  *appointments.MemoryRepo
	engine *Engine
}

func newFixture() *fixture {
	f := &fixture{
		repo: NewMemoryRepo(),
		people: users.NewMemoryRepo(
			users.Principal{ID: 1, Name: "Ana Reyes", Email: "ana@clinic.test", RoleID: users.RoleIDAdmin},
			users.Principal{ID: 2, Name: "Dr. Ben Cruz", Email: "ben@clinic.test", RoleID: users.RoleIDDentist},
			users.Principal{ID: 3, Name: "Front Desk", RoleID: 5},
		),
		appts: appointments.NewMemoryRepo(),
	}
	f.engine = NewEngine(f.repo, f.people, f.appts)
	return f
}

func (f *fixture) add(minutes int, r Record) Record {
	r.CreatedAt = base.Add(time.Duration(minutes) * time.Minute)
	stored, _ := f.repo.Append(context.Background(), r)
	return stored
}

func TestSearchAuditLogs_NewestFirstAndBounded(t *testing.T) {
	f := newFixture()
	for i := 0; i < 12; i++ {
		f.add(i, Record{
			AdminID:       ptr(1),
			ActivityTitle: "Dentist Updated",
			ModuleType:    ModuleDentistManagement,
			Message:       fmt.Sprintf("update %d", i),
			TargetType:    TargetDentist,
			TargetID:      ptr(5),
		})
	}
	f.add(30, Record{ActivityTitle: "Patient Updated", ModuleType: ModulePatientManagement, TargetType: TargetPatient})

	res, err := f.engine.SearchAuditLogs(context.Background(), TargetDentist, nil, "")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Status != StatusMatch {
		t.Fatalf("expected match, got %s", res.Status)
	}
	if res.Payload.Count != DefaultWindow || len(res.Payload.Logs) != DefaultWindow {
		t.Fatalf("expected %d logs, got %d", DefaultWindow, res.Payload.Count)
	}
	if res.Payload.Logs[0].Message != "update 11" || res.Payload.Logs[9].Message != "update 2" {
		t.Fatalf("expected newest first, got %q .. %q", res.Payload.Logs[0].Message, res.Payload.Logs[9].Message)
	}
	for i := 1; i < len(res.Payload.Logs); i++ {
		if res.Payload.Logs[i].At.After(res.Payload.Logs[i-1].At) {
			t.Fatalf("logs not in descending order at %d", i)
		}
	}
	if res.Payload.Logs[0].PerformedBy != "Ana Reyes" {
		t.Fatalf("expected performer name, got %q", res.Payload.Logs[0].PerformedBy)
	}
}

func TestSearchAuditLogs_TargetIDAndActionFilters(t *testing.T) {
	f := newFixture()
	f.add(0, Record{AdminID: ptr(1), ActivityTitle: "Dentist Created", ModuleType: ModuleDentistManagement, TargetType: TargetDentist, TargetID: ptr(5)})
	f.add(1, Record{AdminID: ptr(1), ActivityTitle: "Dentist Updated", ModuleType: ModuleDentistManagement, TargetType: TargetDentist, TargetID: ptr(5)})
	f.add(2, Record{AdminID: ptr(1), ActivityTitle: "Dentist Created", ModuleType: ModuleDentistManagement, TargetType: TargetDentist, TargetID: ptr(6)})

	res, err := f.engine.SearchAuditLogs(context.Background(), TargetDentist, ptr(5), "created")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Payload.Count != 1 || res.Payload.Logs[0].Action != "Dentist Created" || *res.Payload.Logs[0].TargetID != 5 {
		t.Fatalf("unexpected logs: %+v", res.Payload.Logs)
	}
}

func TestSearchAuditLogs_NoMatchMessages(t *testing.T) {
	f := newFixture()

	res, err := f.engine.SearchAuditLogs(context.Background(), TargetDentist, ptr(999), "")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Status != StatusNoMatch || res.Message != "No audit logs found for dentist with ID 999." {
		t.Fatalf("unexpected result: %+v", res)
	}

	res, _ = f.engine.SearchAuditLogs(context.Background(), TargetPatient, nil, "")
	if res.Message != "No audit logs found for patient." {
		t.Fatalf("unexpected message: %q", res.Message)
	}

	res, _ = f.engine.SearchAuditLogs(context.Background(), " ", nil, "")
	if res.Status != StatusInvalidRequest {
		t.Fatalf("expected invalid_request, got %s", res.Status)
	}
}

func TestFindAppointmentCreator_EarliestCreationRecord(t *testing.T) {
	f := newFixture()
	f.appts.AddPatient(appointments.Patient{ID: 1, FirstName: "Maria", MiddleName: "Luz", LastName: "Santos"})
	f.appts.AddAppointment(appointments.Appointment{ID: 42, PatientID: 1, CreatedAt: base})

	f.add(5, Record{AdminID: ptr(2), ActivityTitle: "Appointment Updated", ModuleType: ModuleAppointmentManagement, TargetType: TargetAppointment, TargetID: ptr(42)})
	f.add(0, Record{AdminID: ptr(1), ActivityTitle: "Appointment Created", ModuleType: ModuleAppointmentManagement, Message: "Booked appointment for Maria Santos", TargetType: TargetAppointment, TargetID: ptr(42)})
	f.add(9, Record{AdminID: ptr(2), ActivityTitle: "Appointment Re-created", ModuleType: ModuleAppointmentManagement, TargetType: TargetAppointment, TargetID: ptr(42)})

	res, err := f.engine.FindAppointmentCreator(context.Background(), ptr(42), "")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Status != StatusMatch {
		t.Fatalf("expected match, got %+v", res)
	}
	got := res.Payload
	if got.AppointmentID != 42 || got.CreatedBy != "Ana Reyes" || got.PatientName != "Maria Luz Santos" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if got.CreatedAt != "Jan 15, 2025 2:30 PM" {
		t.Fatalf("unexpected date: %q", got.CreatedAt)
	}
}

func TestFindAppointmentCreator_ByPatientName(t *testing.T) {
	f := newFixture()
	f.appts.AddPatient(appointments.Patient{ID: 1, FirstName: "Maria", MiddleName: "Luz", LastName: "Santos"})
	f.appts.AddAppointment(appointments.Appointment{ID: 10, PatientID: 1, CreatedAt: base})
	f.appts.AddAppointment(appointments.Appointment{ID: 11, PatientID: 1, CreatedAt: base.Add(time.Hour)})
	f.add(0, Record{AdminID: ptr(2), ActivityTitle: "Appointment Created", ModuleType: ModuleAppointmentManagement, TargetType: TargetAppointment, TargetID: ptr(10)})
	f.add(60, Record{AdminID: ptr(1), ActivityTitle: "Appointment Created", ModuleType: ModuleAppointmentManagement, TargetType: TargetAppointment, TargetID: ptr(11)})

	res, err := f.engine.FindAppointmentCreator(context.Background(), nil, "maria santos")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Status != StatusMatch || res.Payload.AppointmentID != 11 || res.Payload.CreatedBy != "Ana Reyes" {
		t.Fatalf("expected latest appointment 11 by Ana, got %+v", res)
	}

	res, _ = f.engine.FindAppointmentCreator(context.Background(), nil, "Nobody Here")
	if res.Status != StatusNoMatch || res.Message != "No appointments found for patient matching 'Nobody Here'." {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestFindAppointmentCreator_LastNameWithoutMiddleName(t *testing.T) {
	f := newFixture()
	f.appts.AddPatient(appointments.Patient{ID: 7, FirstName: "Juan", LastName: "Dela Cruz"})
	f.appts.AddAppointment(appointments.Appointment{ID: 30, PatientID: 7, CreatedAt: base})
	f.add(0, Record{AdminID: ptr(1), ActivityTitle: "Appointment Created", ModuleType: ModuleAppointmentManagement, Message: "Booked appointment for Juan Dela Cruz", TargetType: TargetAppointment, TargetID: ptr(30)})

	res, err := f.engine.FindAppointmentCreator(context.Background(), nil, "dela cruz")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Status != StatusMatch {
		t.Fatalf("expected match, got %+v", res)
	}
	got := res.Payload
	if got.AppointmentID != 30 || got.PatientName != "Juan Dela Cruz" || got.CreatedBy != "Ana Reyes" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestFindAppointmentCreator_EdgeCases(t *testing.T) {
	f := newFixture()

	res, _ := f.engine.FindAppointmentCreator(context.Background(), nil, "  ")
	if res.Status != StatusInvalidRequest || res.Message != "Either appointment ID or patient name is required." {
		t.Fatalf("unexpected result: %+v", res)
	}
	res, _ = f.engine.FindAppointmentCreator(context.Background(), ptr(0), "")
	if res.Status != StatusInvalidRequest {
		t.Fatalf("expected zero id to be treated as absent, got %s", res.Status)
	}

	res, _ = f.engine.FindAppointmentCreator(context.Background(), ptr(7), "")
	want := "No creation record found for appointment ID 7. The appointment may have been created before audit logging was enabled."
	if res.Status != StatusNoMatch || res.Message != want {
		t.Fatalf("unexpected result: %+v", res)
	}

	// Patient relation gone and creator account deleted.
	f.add(0, Record{AdminID: ptr(77), ActivityTitle: "Appointment Created", ModuleType: ModuleAppointmentManagement, TargetType: TargetAppointment, TargetID: ptr(7)})
	res, _ = f.engine.FindAppointmentCreator(context.Background(), ptr(7), "")
	if res.Payload.PatientName != "Unknown" || res.Payload.CreatedBy != UnknownUser {
		t.Fatalf("unexpected fallbacks: %+v", res.Payload)
	}
}

func TestGetRecentActivity_LimitAndModule(t *testing.T) {
	f := newFixture()
	for i := 0; i < 120; i++ {
		f.add(i, Record{AdminID: ptr(1), ActivityTitle: "Patient Updated", ModuleType: ModulePatientManagement, TargetType: TargetPatient})
	}
	f.add(500, Record{ActivityTitle: "Dentist Updated", ModuleType: ModuleDentistManagement, TargetType: TargetDentist})

	cases := []struct{ limit, want int }{{0, 10}, {-3, 10}, {5, 5}, {1000, MaxWindow}}
	for _, c := range cases {
		res, err := f.engine.GetRecentActivity(context.Background(), ModulePatientManagement, c.limit)
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if res.Payload.Count != c.want {
			t.Fatalf("limit %d: expected %d, got %d", c.limit, c.want, res.Payload.Count)
		}
		for _, a := range res.Payload.Activity {
			if a.Action != "Patient Updated" {
				t.Fatalf("foreign module leaked: %+v", a)
			}
		}
	}

	res, _ := f.engine.GetRecentActivity(context.Background(), ModuleUserManagement, 10)
	if res.Status != StatusNoMatch || res.Message != "No recent activity found for user-management." {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestSearchByActivity_NormalizesModuleAndResolvesRoles(t *testing.T) {
	f := newFixture()
	f.add(0, Record{AdminID: ptr(1), ActivityTitle: "Specialization Created", ModuleType: ModuleServicesManagement, Message: "Created specialization: Orthodontics", TargetType: TargetSpecialization})
	f.add(1, Record{AdminID: ptr(2), ActivityTitle: "Clinic Availability Updated", ModuleType: ModuleClinicManagement, Message: "Updated availability for Monday", TargetType: TargetClinicAvailability})
	f.add(2, Record{AdminID: ptr(3), ActivityTitle: "Closure Exception Added", ModuleType: ModuleClinicManagement, Message: "Added closure exception for 2025-12-25", TargetType: TargetClosureException})
	f.add(3, Record{ActivityTitle: "Closure Exception Removed", ModuleType: ModuleClinicManagement, Message: "Removed closure exception", TargetType: TargetClosureException})

	res, err := f.engine.SearchByActivity(context.Background(), ActivityQuery{ModuleType: "Clinic Management"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Payload.Count != 3 {
		t.Fatalf("expected 3 clinic-management logs, got %d", res.Payload.Count)
	}
	roles := []string{res.Payload.Logs[0].Role, res.Payload.Logs[1].Role, res.Payload.Logs[2].Role}
	if roles[0] != "Unknown" || roles[1] != "Unknown" || roles[2] != "Dentist" {
		t.Fatalf("unexpected roles: %v", roles)
	}
	if res.Payload.Logs[0].PerformedBy != UnknownUser || res.Payload.Logs[0].Module != ModuleClinicManagement {
		t.Fatalf("unexpected first log: %+v", res.Payload.Logs[0])
	}

	res, _ = f.engine.SearchByActivity(context.Background(), ActivityQuery{Activity: "closure", Keyword: "2025-12"})
	if res.Payload.Count != 1 || res.Payload.Logs[0].Action != "Closure Exception Added" {
		t.Fatalf("expected AND of activity and keyword, got %+v", res.Payload.Logs)
	}

	res, _ = f.engine.SearchByActivity(context.Background(), ActivityQuery{Keyword: "specialization"})
	if res.Payload.Count != 1 || res.Payload.Logs[0].Role != "Admin" {
		t.Fatalf("keyword should match title or message: %+v", res.Payload.Logs)
	}

	res, _ = f.engine.SearchByActivity(context.Background(), ActivityQuery{})
	if res.Payload.Count != 4 {
		t.Fatalf("expected all recent logs with no filters, got %d", res.Payload.Count)
	}
}

func TestSearchByActivity_NoMatchMessage(t *testing.T) {
	f := newFixture()

	res, _ := f.engine.SearchByActivity(context.Background(), ActivityQuery{Activity: "Deleted", ModuleType: "Clinic Management", Keyword: "x"})
	want := "No audit logs found for activity 'Deleted' and module 'Clinic Management' and keyword 'x'."
	if res.Status != StatusNoMatch || res.Message != want {
		t.Fatalf("unexpected result: %+v", res)
	}
	res, _ = f.engine.SearchByActivity(context.Background(), ActivityQuery{Keyword: "x"})
	if res.Message != "No audit logs found for keyword 'x'." {
		t.Fatalf("unexpected message: %q", res.Message)
	}
}

func TestFindEntityCreator(t *testing.T) {
	f := newFixture()
	f.add(0, Record{AdminID: ptr(1), ActivityTitle: "Specialization Created", ModuleType: ModuleServicesManagement, Message: "Created specialization: Orthodontics", TargetType: TargetSpecialization})
	f.add(1, Record{AdminID: ptr(2), ActivityTitle: "Specialization Updated", ModuleType: ModuleServicesManagement, Message: "Updated specialization: Endodontics", TargetType: TargetSpecialization, TargetID: ptr(3)})

	res, err := f.engine.FindEntityCreator(context.Background(), "orthodontics")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Status != StatusMatch || res.Payload.Creation == nil || res.Payload.Creation.CreatedBy != "Ana Reyes" {
		t.Fatalf("expected creation match, got %+v", res)
	}
	if res.Payload.Creation.TargetID != nil {
		t.Fatalf("bulk creation should have no target id")
	}

	res, _ = f.engine.FindEntityCreator(context.Background(), "Endodontics")
	if res.Status != StatusInferred || res.Payload.Activity == nil {
		t.Fatalf("expected inferred, got %+v", res)
	}
	if res.Note != "No creation record found, but found other activity for this entity." {
		t.Fatalf("unexpected note: %q", res.Note)
	}
	if res.Payload.Activity.PerformedBy != "Dr. Ben Cruz" || res.Payload.Activity.TargetType != TargetSpecialization {
		t.Fatalf("unexpected activity: %+v", res.Payload.Activity)
	}

	res, _ = f.engine.FindEntityCreator(context.Background(), "Periodontics")
	want := "No audit logs found mentioning 'Periodontics'. The entity may have been created before audit logging was enabled."
	if res.Status != StatusNoMatch || res.Message != want {
		t.Fatalf("unexpected result: %+v", res)
	}

	res, _ = f.engine.FindEntityCreator(context.Background(), "")
	if res.Status != StatusInvalidRequest {
		t.Fatalf("expected invalid_request, got %s", res.Status)
	}
}

func TestEngine_UnknownUserAndLocation(t *testing.T) {
	f := newFixture()
	f.add(0, Record{ActivityTitle: "Patient Created", ModuleType: ModulePatientManagement, TargetType: TargetPatient})
	f.add(1, Record{AdminID: ptr(99), ActivityTitle: "Patient Updated", ModuleType: ModulePatientManagement, TargetType: TargetPatient})

	manila := time.FixedZone("PHT", 8*3600)
	f.engine.WithLocation(manila)

	res, _ := f.engine.GetRecentActivity(context.Background(), ModulePatientManagement, 0)
	for _, a := range res.Payload.Activity {
		if a.PerformedBy != UnknownUser {
			t.Fatalf("expected %q, got %q", UnknownUser, a.PerformedBy)
		}
	}
	if res.Payload.Activity[1].Date != "Jan 15, 2025 10:30 PM" {
		t.Fatalf("unexpected localized date: %q", res.Payload.Activity[1].Date)
	}
}

func TestEngine_ResolvesPrincipalsInOneBatch(t *testing.T) {
	f := newFixture()
	for i := 0; i < 5; i++ {
		f.add(i, Record{AdminID: ptr(int64(i%2 + 1)), ActivityTitle: "Dentist Updated", ModuleType: ModuleDentistManagement, TargetType: TargetDentist})
	}
	before := f.people.Lookups()
	if _, err := f.engine.SearchAuditLogs(context.Background(), TargetDentist, nil, ""); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if f.people.Lookups()-before != 1 {
		t.Fatalf("expected one directory lookup, got %d", f.people.Lookups()-before)
	}
}

func TestEngine_ListPagesNewestFirst(t *testing.T) {
	f := newFixture()
	for i := 0; i < 5; i++ {
		f.add(i, Record{AdminID: ptr(1), ActivityTitle: "Patient Updated", ModuleType: ModulePatientManagement, TargetType: TargetPatient})
	}

	page, err := f.engine.List(context.Background(), ListParams{Limit: 2})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(page.Logs) != 2 || page.Logs[0].ID != 5 || page.Logs[1].ID != 4 {
		t.Fatalf("unexpected first page: %+v", page.Logs)
	}
	if page.NextCursor == nil || *page.NextCursor != 4 {
		t.Fatalf("expected cursor 4, got %v", page.NextCursor)
	}
	if page.Logs[0].AdminEmail != "ana@clinic.test" || page.Logs[0].TargetLabel != "Patient" {
		t.Fatalf("unexpected view: %+v", page.Logs[0])
	}

	page, _ = f.engine.List(context.Background(), ListParams{Limit: 2, BeforeID: 2})
	if len(page.Logs) != 1 || page.Logs[0].ID != 1 || page.NextCursor != nil {
		t.Fatalf("unexpected last page: %+v", page)
	}
}

func TestEngine_ReadsDoNotMutate(t *testing.T) {
	f := newFixture()
	f.add(0, Record{AdminID: ptr(1), ActivityTitle: "Patient Created", ModuleType: ModulePatientManagement, Message: "Created patient Maria", TargetType: TargetPatient})
	before := f.repo.Records()

	ctx := context.Background()
	_, _ = f.engine.SearchAuditLogs(ctx, TargetPatient, nil, "")
	_, _ = f.engine.GetRecentActivity(ctx, ModulePatientManagement, 5)
	_, _ = f.engine.SearchByActivity(ctx, ActivityQuery{Keyword: "maria"})
	_, _ = f.engine.FindEntityCreator(ctx, "Maria")
	_, _ = f.engine.List(ctx, ListParams{})

	after := f.repo.Records()
	if len(after) != len(before) || after[0].ID != before[0].ID {
		t.Fatalf("queries mutated the store")
	}
}

func TestNormalizeModule(t *testing.T) {
	if got := NormalizeModule("Clinic Management"); got != "clinic-management" {
		t.Fatalf("unexpected: %q", got)
	}
}

func TestEngine_ResolvesCurrentPrincipalNames(t *testing.T) {
	f := newFixture()
	f.add(0, Record{AdminID: ptr(1), ActivityTitle: "Patient Created", ModuleType: ModulePatientManagement, TargetType: TargetPatient})

	f.people.Put(users.Principal{ID: 1, Name: "Ana Reyes-Cruz", RoleID: users.RoleIDAdmin})
	res, _ := f.engine.GetRecentActivity(context.Background(), ModulePatientManagement, 0)
	if res.Payload.Activity[0].PerformedBy != "Ana Reyes-Cruz" {
		t.Fatalf("expected renamed principal, got %q", res.Payload.Activity[0].PerformedBy)
	}

	f.people.Delete(1)
	res, _ = f.engine.GetRecentActivity(context.Background(), ModulePatientManagement, 0)
	if res.Payload.Activity[0].PerformedBy != UnknownUser {
		t.Fatalf("expected %q for deleted principal, got %q", UnknownUser, res.Payload.Activity[0].PerformedBy)
	}
}

func TestTargetLabels(t *testing.T) {
	if !IsKnownTarget(TargetClosureException) || IsKnownTarget("spaceship") {
		t.Fatalf("unexpected IsKnownTarget result")
	}
	if TargetLabel(TargetAdmin) != "Administrator" || TargetLabel("spaceship") != "spaceship" {
		t.Fatalf("unexpected labels")
	}
}
