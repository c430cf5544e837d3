package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/grant-king/stability-demo/internal/media"
	"github.com/grant-king/stability-demo/internal/stability"
	"github.com/grant-king/stability-demo/internal/storage"
)

// Submitted images are covered to the resolution the video model expects.
const (
	coverWidth  = 1024
	coverHeight = 576
)

// DefaultPollInterval is the minimum spacing between result checks.
const DefaultPollInterval = 11 * time.Second

// Service drives the full lifecycle of generation requests: preprocess,
// submit, poll until terminal, materialize. Each tracker is polled by its
// own goroutine; trackers never share mutable state.
type Service struct {
	client stability.Client
	media  media.Processor
	store  storage.Store
	repo   Repository
	logger *slog.Logger

	pollInterval  time.Duration
	pollTimeout   time.Duration
	videoOpts     stability.VideoOptions
	uploadResults bool
}

// ServiceOption is a function that configures a Service.
type ServiceOption func(*Service)

// WithPollInterval sets the minimum spacing between result checks.
// Values of zero or less are ignored.
func WithPollInterval(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithPollTimeout sets a ceiling on total polling duration, after which
// the tracker fails with ErrorKindTimeout. Zero disables the ceiling.
func WithPollTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		s.pollTimeout = d
	}
}

// WithVideoOptions sets the generation parameters sent with each submission.
func WithVideoOptions(opts stability.VideoOptions) ServiceOption {
	return func(s *Service) {
		s.videoOpts = opts
	}
}

// WithUpload enables mirroring finished videos to remote storage.
func WithUpload(enabled bool) ServiceOption {
	return func(s *Service) {
		s.uploadResults = enabled
	}
}

// NewService creates a Service with the given collaborators.
func NewService(client stability.Client, proc media.Processor, store storage.Store, repo Repository, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		client:       client,
		media:        proc,
		store:        store,
		repo:         repo,
		logger:       logger,
		pollInterval: DefaultPollInterval,
		videoOpts:    stability.DefaultVideoOptions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit starts a video generation from the image at imagePath and
// returns its tracker. An empty path falls back to the most recently
// generated image. If the submission is accepted, polling continues in a
// goroutine owned by this tracker; cancelling ctx stops it without
// forging a terminal state. A rejected submission is reported on the
// returned tracker, not as an error.
func (s *Service) Submit(ctx context.Context, imagePath string) (*Tracker, error) {
	t, accepted, err := s.submit(ctx, imagePath)
	if err != nil {
		return nil, err
	}
	if accepted {
		go s.track(ctx, t)
	}
	return t, nil
}

// SubmitAndWait behaves like Submit but blocks until the tracker reaches
// a terminal state, cancellation, or the polling ceiling.
func (s *Service) SubmitAndWait(ctx context.Context, imagePath string) (*Tracker, error) {
	t, accepted, err := s.submit(ctx, imagePath)
	if err != nil {
		return nil, err
	}
	if accepted {
		s.track(ctx, t)
	}
	return t, nil
}

// submit preprocesses the input, issues the creation request, and
// records the outcome on a fresh tracker. The boolean reports whether
// the submission was accepted and polling should run.
func (s *Service) submit(ctx context.Context, imagePath string) (*Tracker, bool, error) {
	if imagePath == "" {
		latest, err := s.store.LatestImage(ctx)
		if err != nil {
			return nil, false, fmt.Errorf("resolve input image: %w", err)
		}
		imagePath = latest
	}

	covered, err := s.media.CoverResize(ctx, imagePath, coverWidth, coverHeight)
	if err != nil {
		return nil, false, fmt.Errorf("preprocess input image: %w", err)
	}

	data, err := os.ReadFile(covered) // #nosec G304 - path comes from our own preprocessor
	if err != nil {
		return nil, false, fmt.Errorf("read preprocessed image: %w", err)
	}

	t := New(s.store.PendingPlaceholder())
	t.InputImagePath = covered
	s.saveState(ctx, t)

	s.logger.Info("submitting video generation",
		slog.String("tracker_id", t.ID),
		slog.String("input", covered),
		slog.Int("motion_bucket_id", s.videoOpts.MotionBucketID),
	)

	generationID, err := s.client.SubmitVideo(ctx, data, s.videoOpts)
	if err != nil {
		var apiErr *stability.APIError
		if errors.As(err, &apiErr) {
			s.logger.Warn("submission rejected",
				slog.String("tracker_id", t.ID),
				slog.String("error_name", apiErr.Name),
			)
			s.failTracker(ctx, t, ErrorKindSubmissionRejected, apiErr.ID, apiErr.Name, apiErr.Messages)
			return t, false, nil
		}
		// Transport-level failures never produced a generation ID either;
		// record them on the tracker so the front end keeps a render target.
		s.logger.Error("submission failed",
			slog.String("tracker_id", t.ID),
			slog.String("error", err.Error()),
		)
		s.failTracker(ctx, t, ErrorKindSubmissionRejected, "", "request_failed", []string{err.Error()})
		return t, false, nil
	}

	if err := t.AcceptSubmission(generationID); err != nil {
		return nil, false, err
	}
	s.saveState(ctx, t)

	s.logger.Info("submission accepted",
		slog.String("tracker_id", t.ID),
		slog.String("generation_id", generationID),
	)

	return t, true, nil
}

// track polls one tracker until it reaches a terminal state.
// The wait is timer-based, never a busy spin: consecutive checks are
// spaced at least pollInterval apart, and the first check happens one
// interval after submission.
func (s *Service) track(ctx context.Context, t *Tracker) {
	timer := time.NewTimer(s.pollInterval)
	defer timer.Stop()

	var deadline time.Time
	if s.pollTimeout > 0 {
		deadline = time.Now().Add(s.pollTimeout)
	}

	for {
		select {
		case <-ctx.Done():
			// Cancellation leaves the status at its last observed value.
			s.logger.Info("tracking cancelled",
				slog.String("tracker_id", t.ID),
				slog.String("status", string(t.GetStatus())),
			)
			return
		case <-timer.C:
		}

		if !deadline.IsZero() && time.Now().After(deadline) {
			s.logger.Warn("polling ceiling reached",
				slog.String("tracker_id", t.ID),
				slog.Duration("ceiling", s.pollTimeout),
			)
			s.failTracker(ctx, t, ErrorKindTimeout, "", "", []string{fmt.Sprintf("no result after %s", s.pollTimeout)})
			return
		}

		if s.checkOnce(ctx, t) {
			return
		}
		timer.Reset(s.pollInterval)
	}
}

// checkOnce performs a single result check and interprets the outcome.
// It returns true when the tracker reached a terminal state and polling
// must stop.
func (s *Service) checkOnce(ctx context.Context, t *Tracker) bool {
	t.RecordPoll(time.Now())

	res, err := s.client.FetchResult(ctx, t.GenerationID)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		// Transport failures are transient; the next tick retries.
		s.logger.Warn("result check failed",
			slog.String("tracker_id", t.ID),
			slog.String("error", err.Error()),
		)
		s.saveState(ctx, t)
		return false
	}

	switch res.State {
	case stability.ResultReady:
		s.materialize(ctx, t, res.Video)
	case stability.ResultFailed:
		s.logger.Warn("generation failed",
			slog.String("tracker_id", t.ID),
			slog.String("error_name", res.Err.Name),
			slog.Int("http_status", res.HTTPStatus),
		)
		s.failTracker(ctx, t, ErrorKindJobFailed, res.Err.ID, res.Err.Name, res.Err.Messages)
	case stability.ResultInProgress:
		s.logger.Info("still processing",
			slog.String("tracker_id", t.ID),
			slog.String("generation_id", t.GenerationID),
			slog.Duration("next_check_in", s.pollInterval),
		)
		s.saveState(ctx, t)
	default:
		// Undocumented status codes keep the loop alive; the polling
		// ceiling bounds how long that can go on.
		s.logger.Warn("unclassified result status, continuing to poll",
			slog.String("tracker_id", t.ID),
			slog.Int("http_status", res.HTTPStatus),
		)
		s.saveState(ctx, t)
	}

	return t.IsTerminal()
}

// materialize writes the video bytes to disk and records the outcome.
// The bytes live only in this frame; nothing retains them after the write.
func (s *Service) materialize(ctx context.Context, t *Tracker, video []byte) {
	path, err := s.store.SaveVideo(ctx, video)
	if err != nil {
		s.logger.Error("materialize video",
			slog.String("tracker_id", t.ID),
			slog.String("error", err.Error()),
		)
		s.failTracker(ctx, t, ErrorKindLocalIO, "", "", []string{err.Error()})
		return
	}

	if err := t.Succeed(path); err != nil {
		s.logger.Error("record success",
			slog.String("tracker_id", t.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	s.saveState(ctx, t)

	s.logger.Info("video generation complete",
		slog.String("tracker_id", t.ID),
		slog.String("artifact", path),
	)

	if s.uploadResults {
		url, err := s.store.Upload(ctx, path)
		switch {
		case errors.Is(err, storage.ErrS3NotConfigured):
			// Local-only store; nothing to mirror.
		case err != nil:
			s.logger.Warn("artifact upload failed",
				slog.String("tracker_id", t.ID),
				slog.String("error", err.Error()),
			)
		default:
			t.SetArtifactURL(url)
			s.saveState(ctx, t)
		}
	}
}

// GenerateImage runs the synchronous text-to-image path: one request,
// immediate bytes, one saved file. No tracker is involved.
func (s *Service) GenerateImage(ctx context.Context, prompt string, opts stability.ImageOptions) (string, error) {
	data, err := s.client.GenerateImage(ctx, prompt, opts)
	if err != nil {
		return "", fmt.Errorf("generate image: %w", err)
	}

	path, err := s.store.SaveImage(ctx, data)
	if err != nil {
		return "", fmt.Errorf("save generated image: %w", err)
	}

	s.logger.Info("image generation complete", slog.String("artifact", path))
	return path, nil
}

// GetTracker retrieves a tracker snapshot by local ID.
func (s *Service) GetTracker(ctx context.Context, trackerID string) (*Tracker, error) {
	return s.repo.FindByID(ctx, trackerID)
}

// ListTrackers returns snapshots of all trackers, newest first.
func (s *Service) ListTrackers(ctx context.Context) ([]*Tracker, error) {
	return s.repo.List(ctx)
}

// failTracker records a failure and persists the tracker.
func (s *Service) failTracker(ctx context.Context, t *Tracker, kind ErrorKind, errID, errName string, messages []string) {
	if err := t.Fail(kind, errID, errName, messages, s.store.ErrorPlaceholder()); err != nil {
		s.logger.Error("record failure",
			slog.String("tracker_id", t.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	s.saveState(ctx, t)
}

// saveState persists the tracker, logging instead of propagating errors:
// registry failures must not break a running polling loop.
func (s *Service) saveState(ctx context.Context, t *Tracker) {
	if err := s.repo.Save(ctx, t); err != nil {
		s.logger.Error("save tracker",
			slog.String("tracker_id", t.ID),
			slog.String("error", err.Error()),
		)
	}
}
