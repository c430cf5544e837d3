package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Static errors for storage operations.
var (
	// ErrS3NotConfigured is returned when an upload is attempted without
	// S3 configuration.
	ErrS3NotConfigured = errors.New("storage: S3 is not configured")
	// ErrNoImages is returned when the image directory holds no images.
	ErrNoImages = errors.New("storage: no generated images found")
	// ErrEmptyArtifact is returned when there are no bytes to write.
	ErrEmptyArtifact = errors.New("storage: artifact payload is empty")
)

const (
	videoPrefix   = "stability_video_"
	imagePrefix   = "stability_"
	videoExt      = ".mp4"
	imageExt      = ".png"
	timeLayout    = "20060102_150405"
	pendingAsset  = "video_pending.png"
	errorAsset    = "video_error.png"
)

// LocalStore implements Store on local disk.
// Directory creation is idempotent so concurrent first use is safe;
// concurrent writers never share a filename because names carry a
// timestamp plus a disambiguating suffix claimed with O_EXCL.
type LocalStore struct {
	videoDir    string
	imageDir    string
	pendingPath string
	errorPath   string
	now         func() time.Time
}

// NewLocalStore creates a LocalStore with videos under videoDir and
// images under imageDir. Both directories are created if missing.
// Placeholder assets live next to the video directory.
func NewLocalStore(videoDir, imageDir string) (*LocalStore, error) {
	if videoDir == "" {
		videoDir = "generated_videos"
	}
	if imageDir == "" {
		imageDir = "generated_images"
	}
	for _, dir := range []string{videoDir, imageDir} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("storage: create directory %s: %w", dir, err)
		}
	}

	absVideo, err := filepath.Abs(videoDir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve video directory: %w", err)
	}
	absImage, err := filepath.Abs(imageDir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve image directory: %w", err)
	}

	parent := filepath.Dir(absVideo)
	return &LocalStore{
		videoDir:    absVideo,
		imageDir:    absImage,
		pendingPath: filepath.Join(parent, pendingAsset),
		errorPath:   filepath.Join(parent, errorAsset),
		now:         time.Now,
	}, nil
}

// VideoDir returns the video output directory.
func (s *LocalStore) VideoDir() string {
	return s.videoDir
}

// ImageDir returns the image output directory.
func (s *LocalStore) ImageDir() string {
	return s.imageDir
}

// SaveVideo writes video bytes as stability_video_<timestamp>.mp4.
func (s *LocalStore) SaveVideo(ctx context.Context, data []byte) (string, error) {
	return s.save(ctx, s.videoDir, videoPrefix, videoExt, data)
}

// SaveImage writes image bytes as stability_<timestamp>.png.
func (s *LocalStore) SaveImage(ctx context.Context, data []byte) (string, error) {
	return s.save(ctx, s.imageDir, imagePrefix, imageExt, data)
}

// save claims a unique timestamped filename with O_EXCL and writes the
// payload. The timestamp has second granularity, so a numeric suffix
// resolves same-second collisions.
func (s *LocalStore) save(ctx context.Context, dir, prefix, ext string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyArtifact
	}
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("storage: context cancelled: %w", ctx.Err())
	default:
	}

	stamp := s.now().Format(timeLayout)
	for attempt := 0; ; attempt++ {
		name := prefix + stamp + ext
		if attempt > 0 {
			name = fmt.Sprintf("%s%s_%d%s", prefix, stamp, attempt, ext)
		}
		path := filepath.Join(dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0640) // #nosec G304 - confined to the output directory
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("storage: create artifact: %w", err)
		}

		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			_ = os.Remove(path)
			return "", fmt.Errorf("storage: write artifact: %w", err)
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(path)
			return "", fmt.Errorf("storage: close artifact: %w", err)
		}

		return path, nil
	}
}

// ListVideos returns stored video paths newest first. Timestamped names
// sort chronologically, so reverse lexicographic order is reverse
// chronological.
func (s *LocalStore) ListVideos(ctx context.Context) ([]string, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("storage: context cancelled: %w", ctx.Err())
	default:
	}

	entries, err := os.ReadDir(s.videoDir)
	if err != nil {
		return nil, fmt.Errorf("storage: list videos: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), videoExt) {
			continue
		}
		paths = append(paths, filepath.Join(s.videoDir, entry.Name()))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	return paths, nil
}

// LatestImage returns the most recently stored image, used when a video
// generation is started without an explicit input path.
func (s *LocalStore) LatestImage(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("storage: context cancelled: %w", ctx.Err())
	default:
	}

	entries, err := os.ReadDir(s.imageDir)
	if err != nil {
		return "", fmt.Errorf("storage: list images: %w", err)
	}

	var latest string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), imageExt) {
			continue
		}
		if entry.Name() > latest {
			latest = entry.Name()
		}
	}
	if latest == "" {
		return "", ErrNoImages
	}
	return filepath.Join(s.imageDir, latest), nil
}

// PendingPlaceholder returns the fixed path shown while a generation is in flight.
func (s *LocalStore) PendingPlaceholder() string {
	return s.pendingPath
}

// ErrorPlaceholder returns the fixed path shown for failed generations.
func (s *LocalStore) ErrorPlaceholder() string {
	return s.errorPath
}

// Upload is not supported by LocalStore and returns ErrS3NotConfigured.
func (s *LocalStore) Upload(_ context.Context, _ string) (string, error) {
	return "", ErrS3NotConfigured
}

// Compile-time check that LocalStore implements Store.
var _ Store = (*LocalStore)(nil)
