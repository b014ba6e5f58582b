package appointments

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory appointment/patient store for tests.
type MemoryRepo struct {
	mu           sync.Mutex
	patients     map[int64]Patient
	appointments []Appointment
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{patients: map[int64]Patient{}} }

func (r *MemoryRepo) AddPatient(p Patient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patients[p.ID] = p
}

func (r *MemoryRepo) RemovePatient(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.patients, id)
}

func (r *MemoryRepo) AddAppointment(a Appointment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appointments = append(r.appointments, a)
}

func (r *MemoryRepo) LatestForPatientName(ctx context.Context, name string) (int64, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		best  Appointment
		found bool
	)
	for _, a := range r.appointments {
		p, ok := r.patients[a.PatientID]
		if !ok || !p.MatchesName(name) {
			continue
		}
		if !found || a.CreatedAt.After(best.CreatedAt) || (a.CreatedAt.Equal(best.CreatedAt) && a.ID > best.ID) {
			best, found = a, true
		}
	}
	return best.ID, found, nil
}

func (r *MemoryRepo) PatientName(ctx context.Context, appointmentID int64) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.appointments {
		if a.ID != appointmentID {
			continue
		}
		p, ok := r.patients[a.PatientID]
		if !ok {
			return "", false, nil
		}
		return p.FullName(), true, nil
	}
	return "", false, nil
}
