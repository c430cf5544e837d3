// Package job provides the Tracker aggregate for video generation requests.
// It includes the tracker entity with one-directional state transitions,
// a repository interface for session-scoped persistence, and the Service
// that drives the submit/poll/materialize lifecycle.
package job

import (
	"errors"
	"sync"
	"time"

	"github.com/grant-king/stability-demo/internal/job/id"
)

// Status represents the current state of a Tracker.
type Status string

const (
	// StatusSubmitted indicates the creation request was issued but no
	// generation ID has been confirmed yet.
	StatusSubmitted Status = "SUBMITTED"
	// StatusProcessing indicates the remote service accepted the job and
	// is rendering the video.
	StatusProcessing Status = "PROCESSING"
	// StatusSucceeded indicates the video was fetched and written to disk.
	StatusSucceeded Status = "SUCCEEDED"
	// StatusFailed indicates the generation ended with an error.
	StatusFailed Status = "FAILED"
)

// IsTerminal returns true if the status permits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// ErrorKind classifies why a tracker reached StatusFailed.
type ErrorKind string

const (
	// ErrorKindNone means the tracker has not failed.
	ErrorKindNone ErrorKind = ""
	// ErrorKindSubmissionRejected means the service returned a named error
	// at creation time and no generation ID was obtained.
	ErrorKindSubmissionRejected ErrorKind = "submission_rejected"
	// ErrorKindJobFailed means the service reported a terminal failure
	// while the job was being polled.
	ErrorKindJobFailed ErrorKind = "job_failed"
	// ErrorKindTimeout means no terminal result arrived before the
	// configured polling ceiling.
	ErrorKindTimeout ErrorKind = "timeout"
	// ErrorKindLocalIO means the finished video could not be written to disk.
	ErrorKindLocalIO ErrorKind = "local_io"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
// A rejected submission moves straight from SUBMITTED to FAILED.
var validTransitions = map[Status][]Status{
	StatusSubmitted:  {StatusProcessing, StatusFailed},
	StatusProcessing: {StatusSucceeded, StatusFailed},
	StatusSucceeded:  {},
	StatusFailed:     {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Tracker represents one video generation request's full lifecycle.
// It is mutated only by the Service's polling loop; everyone else reads
// snapshots via Clone.
type Tracker struct {
	mu sync.RWMutex

	// ID is the local identifier for this tracker.
	ID string
	// GenerationID is the opaque identifier issued by the remote service.
	// Empty if submission was rejected.
	GenerationID string
	// Status is the current lifecycle state.
	Status Status
	// InputImagePath is the preprocessed image the job was submitted with.
	InputImagePath string
	// ArtifactPath is the video file on success, or a placeholder path
	// while pending and after failure. Never empty once the tracker exists.
	ArtifactPath string
	// ArtifactURL is the remote mirror URL, when uploads are configured.
	ArtifactURL string
	// ErrorKind classifies the failure when Status is FAILED.
	ErrorKind ErrorKind
	// ErrorID is the error identifier from the service, when present.
	ErrorID string
	// ErrorName is the named error from the service, when present.
	ErrorName string
	// ErrorMessages holds the error descriptions from the service.
	ErrorMessages []string
	// StartTime is when the submission was accepted.
	StartTime time.Time
	// LastPollTime is when the result endpoint was last checked.
	LastPollTime time.Time
	// PollCount is how many result checks have been issued.
	PollCount int
	// CreatedAt is when the tracker was created.
	CreatedAt time.Time
	// UpdatedAt is when the tracker was last updated.
	UpdatedAt time.Time
	// CompletedAt is when the tracker reached a terminal state.
	CompletedAt time.Time
}

// New creates a Tracker with a generated ID in SUBMITTED state.
// pendingPath becomes the artifact path until a terminal state replaces it.
func New(pendingPath string) *Tracker {
	now := time.Now()
	return &Tracker{
		ID:           id.Generate(),
		Status:       StatusSubmitted,
		ArtifactPath: pendingPath,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewWithID creates a Tracker with the specified local ID.
// Useful for tests that need deterministic identifiers.
func NewWithID(trackerID, pendingPath string) *Tracker {
	t := New(pendingPath)
	t.ID = trackerID
	return t
}

// transitionTo changes the status, enforcing the transition table.
// Callers must hold the write lock.
func (t *Tracker) transitionTo(status Status) error {
	if !canTransition(t.Status, status) {
		return ErrInvalidTransition
	}
	t.Status = status
	t.UpdatedAt = time.Now()
	if status.IsTerminal() {
		t.CompletedAt = t.UpdatedAt
	}
	return nil
}

// AcceptSubmission records the generation ID and moves the tracker to
// PROCESSING. The generation ID is set here and nowhere else, so it is
// present exactly when submission succeeded.
func (t *Tracker) AcceptSubmission(generationID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.transitionTo(StatusProcessing); err != nil {
		return err
	}
	t.GenerationID = generationID
	t.StartTime = t.UpdatedAt
	t.LastPollTime = t.UpdatedAt
	return nil
}

// Succeed records the materialized artifact and moves the tracker to SUCCEEDED.
func (t *Tracker) Succeed(artifactPath string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.transitionTo(StatusSucceeded); err != nil {
		return err
	}
	t.ArtifactPath = artifactPath
	return nil
}

// Fail records the failure classification and moves the tracker to FAILED.
// errorPath becomes the artifact path so the front end keeps a render target.
func (t *Tracker) Fail(kind ErrorKind, errID, errName string, messages []string, errorPath string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.transitionTo(StatusFailed); err != nil {
		return err
	}
	t.ErrorKind = kind
	t.ErrorID = errID
	t.ErrorName = errName
	t.ErrorMessages = messages
	t.ArtifactPath = errorPath
	return nil
}

// RecordPoll stamps a result check. Called once per check, before the
// request is issued, mirroring how the poll clock gates the loop.
func (t *Tracker) RecordPoll(at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.LastPollTime = at
	t.PollCount++
	t.UpdatedAt = at
}

// SetArtifactURL records the remote mirror URL after an upload.
func (t *Tracker) SetArtifactURL(url string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ArtifactURL = url
	t.UpdatedAt = time.Now()
}

// GetStatus returns the current status (thread-safe).
func (t *Tracker) GetStatus() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Status
}

// IsTerminal returns true if the tracker is in a terminal state.
func (t *Tracker) IsTerminal() bool {
	return t.GetStatus().IsTerminal()
}

// Clone creates a deep copy of the tracker for safe reads.
func (t *Tracker) Clone() *Tracker {
	t.mu.RLock()
	defer t.mu.RUnlock()

	messages := make([]string, len(t.ErrorMessages))
	copy(messages, t.ErrorMessages)

	return &Tracker{
		ID:             t.ID,
		GenerationID:   t.GenerationID,
		Status:         t.Status,
		InputImagePath: t.InputImagePath,
		ArtifactPath:   t.ArtifactPath,
		ArtifactURL:    t.ArtifactURL,
		ErrorKind:      t.ErrorKind,
		ErrorID:        t.ErrorID,
		ErrorName:      t.ErrorName,
		ErrorMessages:  messages,
		StartTime:      t.StartTime,
		LastPollTime:   t.LastPollTime,
		PollCount:      t.PollCount,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		CompletedAt:    t.CompletedAt,
	}
}
