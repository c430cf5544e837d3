package job

import (
	"context"
	"sort"
	"sync"
)

// Compile-time check that MemoryRepository implements Repository.
var _ Repository = (*MemoryRepository)(nil)

// MemoryRepository is an in-memory implementation of Repository.
// Trackers live in a map guarded by an RWMutex, retention is one
// session, and Delete gives the caller an eviction hook.
type MemoryRepository struct {
	mu       sync.RWMutex
	trackers map[string]*Tracker
}

// NewMemoryRepository creates a new in-memory tracker registry.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		trackers: make(map[string]*Tracker),
	}
}

// Save persists a tracker snapshot.
// Stores a clone so later mutations of the live tracker don't leak in.
func (r *MemoryRepository) Save(_ context.Context, t *Tracker) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trackers[t.ID] = t.Clone()
	return nil
}

// FindByID retrieves a tracker by its local identifier.
// Returns a clone to prevent external mutations.
func (r *MemoryRepository) FindByID(_ context.Context, trackerID string) (*Tracker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.trackers[trackerID]
	if !ok {
		return nil, ErrTrackerNotFound
	}
	return t.Clone(), nil
}

// List returns all trackers ordered newest first.
func (r *MemoryRepository) List(_ context.Context) ([]*Tracker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Tracker, 0, len(r.trackers))
	for _, t := range r.trackers {
		result = append(result, t.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// Delete removes a tracker from the registry.
func (r *MemoryRepository) Delete(_ context.Context, trackerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.trackers[trackerID]; !ok {
		return ErrTrackerNotFound
	}
	delete(r.trackers, trackerID)
	return nil
}
