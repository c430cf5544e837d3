// Package storage persists generation artifacts to local disk and
// optionally mirrors finished videos to S3. It defines the Store
// interface (port) and implementations for local-only and S3-backed use.
package storage

import "context"

// Store defines the interface for artifact persistence.
// Video and image artifacts get collision-resistant timestamped names;
// pending and failed generations are represented by fixed placeholder
// paths so the presentation layer always has something to render.
type Store interface {
	// SaveVideo writes the video bytes under a timestamped name and
	// returns the absolute path of the written file.
	SaveVideo(ctx context.Context, data []byte) (path string, err error)

	// SaveImage writes the image bytes under a timestamped name and
	// returns the absolute path of the written file.
	SaveImage(ctx context.Context, data []byte) (path string, err error)

	// ListVideos returns the absolute paths of stored videos, newest first.
	ListVideos(ctx context.Context) ([]string, error)

	// LatestImage returns the absolute path of the most recently stored
	// image. Returns ErrNoImages when the image directory is empty.
	LatestImage(ctx context.Context) (string, error)

	// PendingPlaceholder returns the fixed path representing an
	// in-flight generation.
	PendingPlaceholder() string

	// ErrorPlaceholder returns the fixed path representing a failed
	// generation.
	ErrorPlaceholder() string

	// Upload mirrors a finished artifact to remote storage and returns
	// its public URL. Returns ErrS3NotConfigured when no remote is set up.
	Upload(ctx context.Context, path string) (url string, err error)
}
