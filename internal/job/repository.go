package job

import (
	"context"
	"errors"
)

// ErrTrackerNotFound is returned when a tracker cannot be found by ID.
var ErrTrackerNotFound = errors.New("tracker not found")

// Repository defines the interface for tracker persistence.
// The registry is owned by the caller and scoped to one session;
// nothing here survives process teardown.
type Repository interface {
	// Save persists a tracker snapshot. An existing tracker is replaced.
	Save(ctx context.Context, t *Tracker) error

	// FindByID retrieves a tracker by its local identifier.
	// Returns ErrTrackerNotFound if the tracker does not exist.
	FindByID(ctx context.Context, trackerID string) (*Tracker, error)

	// List returns all trackers, newest first.
	List(ctx context.Context) ([]*Tracker, error)

	// Delete removes a tracker from the registry.
	// Returns ErrTrackerNotFound if the tracker does not exist.
	Delete(ctx context.Context, trackerID string) error
}
