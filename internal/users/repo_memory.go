package users

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory Directory for tests and local development.
type MemoryRepo struct {
	mu         sync.Mutex
	principals map[int64]Principal
	lookups    int
}

func NewMemoryRepo(ps ...Principal) *MemoryRepo {
	r := &MemoryRepo{principals: make(map[int64]Principal, len(ps))}
	for _, p := range ps {
		r.principals[p.ID] = p
	}
	return r
}

func (r *MemoryRepo) Put(p Principal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.principals[p.ID] = p
}

func (r *MemoryRepo) Delete(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.principals, id)
}

// Lookups counts Principals calls; tests use it to observe caching.
func (r *MemoryRepo) Lookups() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookups
}

func (r *MemoryRepo) Principals(ctx context.Context, ids []int64) (map[int64]Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	out := make(map[int64]Principal, len(ids))
	for _, id := range ids {
		if p, ok := r.principals[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}
