package clinic

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu sync.Mutex

	specs       map[int64]Specialization
	assignments map[int64]int // specialization id -> dentist count
	avail       map[int64]Availability
	closures    map[int64]Closure
	nextID      int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		specs:       map[int64]Specialization{},
		assignments: map[int64]int{},
		avail:       map[int64]Availability{},
		closures:    map[int64]Closure{},
	}
}

// AssignDentist marks a specialization as used by one more dentist.
func (m *MemoryStore) AssignDentist(specializationID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments[specializationID]++
}

func (m *MemoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *MemoryStore) ListSpecializations(ctx context.Context) ([]Specialization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Specialization, 0, len(m.specs))
	for _, s := range m.specs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) InsertSpecializations(ctx context.Context, names []string, now time.Time) ([]Specialization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range names {
		if m.nameTaken(n, 0) {
			return nil, ErrConflict
		}
	}
	out := make([]Specialization, 0, len(names))
	for _, n := range names {
		s := Specialization{ID: m.id(), Name: n, CreatedAt: now, UpdatedAt: now}
		m.specs[s.ID] = s
		out = append(out, s)
	}
	return out, nil
}

func (m *MemoryStore) RenameSpecialization(ctx context.Context, id int64, name string, now time.Time) (Specialization, Specialization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before, ok := m.specs[id]
	if !ok {
		return Specialization{}, Specialization{}, ErrNotFound
	}
	if m.nameTaken(name, id) {
		return Specialization{}, Specialization{}, ErrConflict
	}
	after := before
	after.Name = name
	after.UpdatedAt = now
	m.specs[id] = after
	return before, after, nil
}

func (m *MemoryStore) DeleteSpecialization(ctx context.Context, id int64) (Specialization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.specs[id]
	if !ok {
		return Specialization{}, ErrNotFound
	}
	if m.assignments[id] > 0 {
		return Specialization{}, ErrInUse
	}
	delete(m.specs, id)
	return s, nil
}

func (m *MemoryStore) nameTaken(name string, except int64) bool {
	for id, s := range m.specs {
		if id != except && strings.EqualFold(s.Name, name) {
			return true
		}
	}
	return false
}

func (m *MemoryStore) ListAvailability(ctx context.Context) ([]Availability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Availability, 0, len(m.avail))
	for _, a := range m.avail {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DayOfWeek < out[j].DayOfWeek })
	return out, nil
}

func (m *MemoryStore) UpsertAvailability(ctx context.Context, a Availability) (*Availability, Availability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.avail {
		if existing.DayOfWeek == a.DayOfWeek {
			prev := existing
			a.ID = id
			m.avail[id] = a
			return &prev, a, nil
		}
	}
	a.ID = m.id()
	m.avail[a.ID] = a
	return nil, a, nil
}

func (m *MemoryStore) DeleteAvailability(ctx context.Context, id int64) (Availability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.avail[id]
	if !ok {
		return Availability{}, ErrNotFound
	}
	delete(m.avail, id)
	return a, nil
}

func (m *MemoryStore) ListClosures(ctx context.Context, from string) ([]Closure, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Closure, 0, len(m.closures))
	for _, c := range m.closures {
		// YYYY-MM-DD compares chronologically as a string.
		if c.Date >= from {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (m *MemoryStore) InsertClosure(ctx context.Context, c Closure) (Closure, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.closures {
		if existing.Date == c.Date {
			return Closure{}, ErrConflict
		}
	}
	c.ID = m.id()
	m.closures[c.ID] = c
	return c, nil
}

func (m *MemoryStore) DeleteClosure(ctx context.Context, id int64) (Closure, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.closures[id]
	if !ok {
		return Closure{}, ErrNotFound
	}
	delete(m.closures, id)
	return c, nil
}
