// Package bootstrap provides dependency initialization for the demo.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/grant-king/stability-demo/internal/config"
	"github.com/grant-king/stability-demo/internal/job"
	"github.com/grant-king/stability-demo/internal/media"
	"github.com/grant-king/stability-demo/internal/stability"
	"github.com/grant-king/stability-demo/internal/storage"
)

// Dependencies holds all initialized dependencies for the front end.
type Dependencies struct {
	Service *job.Service
	Store   storage.Store
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	store, err := initStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	client, err := stability.NewClient(
		stability.WithAPIKey(cfg.APIKey),
		stability.WithBaseURL(cfg.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("create Stability client: %w", err)
	}

	resizer, err := media.NewCoverResizer(cfg.CoveredDir)
	if err != nil {
		return nil, fmt.Errorf("create image resizer: %w", err)
	}

	repo := job.NewMemoryRepository()

	videoOpts := stability.DefaultVideoOptions()
	videoOpts.MotionBucketID = cfg.MotionBucketID

	svc := job.NewService(
		client,
		resizer,
		store,
		repo,
		logger,
		job.WithPollInterval(cfg.PollInterval),
		job.WithPollTimeout(cfg.PollTimeout),
		job.WithVideoOptions(videoOpts),
		job.WithUpload(cfg.S3Enabled()),
	)

	return &Dependencies{
		Service: svc,
		Store:   store,
	}, nil
}

// initStore creates the appropriate artifact store based on configuration.
func initStore(cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Store(cfg.VideoDir, cfg.ImageDir, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 store: %w", err)
		}
		logger.Info("S3 mirroring configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStore(cfg.VideoDir, cfg.ImageDir)
	if err != nil {
		return nil, fmt.Errorf("create local store: %w", err)
	}
	logger.Info("local store configured",
		slog.String("video_dir", cfg.VideoDir),
		slog.String("image_dir", cfg.ImageDir),
	)
	return localStore, nil
}
