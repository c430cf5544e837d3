package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	base := t.TempDir()
	store, err := NewLocalStore(filepath.Join(base, "videos"), filepath.Join(base, "images"))
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	return store
}

func TestLocalStore_SaveVideo_Naming(t *testing.T) {
	store := newTestStore(t)
	store.now = func() time.Time {
		return time.Date(2024, 6, 15, 9, 30, 45, 0, time.UTC)
	}

	path, err := store.SaveVideo(context.Background(), []byte("fake-mp4"))
	if err != nil {
		t.Fatalf("SaveVideo() error = %v", err)
	}

	want := filepath.Join(store.VideoDir(), "stability_video_20240615_093045.mp4")
	if path != want {
		t.Errorf("SaveVideo() path = %q, want %q", path, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}
	if string(data) != "fake-mp4" {
		t.Errorf("artifact content = %q, want %q", data, "fake-mp4")
	}
}

func TestLocalStore_SaveVideo_SameSecondCollision(t *testing.T) {
	store := newTestStore(t)
	store.now = func() time.Time {
		return time.Date(2024, 6, 15, 9, 30, 45, 0, time.UTC)
	}

	first, err := store.SaveVideo(context.Background(), []byte("one"))
	if err != nil {
		t.Fatalf("first SaveVideo() error = %v", err)
	}
	second, err := store.SaveVideo(context.Background(), []byte("two"))
	if err != nil {
		t.Fatalf("second SaveVideo() error = %v", err)
	}
	third, err := store.SaveVideo(context.Background(), []byte("three"))
	if err != nil {
		t.Fatalf("third SaveVideo() error = %v", err)
	}

	if filepath.Base(first) != "stability_video_20240615_093045.mp4" {
		t.Errorf("first artifact = %q", filepath.Base(first))
	}
	if filepath.Base(second) != "stability_video_20240615_093045_1.mp4" {
		t.Errorf("second artifact = %q", filepath.Base(second))
	}
	if filepath.Base(third) != "stability_video_20240615_093045_2.mp4" {
		t.Errorf("third artifact = %q", filepath.Base(third))
	}
}

func TestLocalStore_SaveVideo_Empty(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.SaveVideo(context.Background(), nil); !errors.Is(err, ErrEmptyArtifact) {
		t.Errorf("SaveVideo(nil) error = %v, want ErrEmptyArtifact", err)
	}
}

func TestLocalStore_SaveVideo_CancelledContext(t *testing.T) {
	store := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.SaveVideo(ctx, []byte("fake-mp4")); err == nil {
		t.Error("SaveVideo() with cancelled context should fail")
	}
}

func TestLocalStore_SaveImage_Naming(t *testing.T) {
	store := newTestStore(t)
	store.now = func() time.Time {
		return time.Date(2024, 6, 15, 9, 30, 45, 0, time.UTC)
	}

	path, err := store.SaveImage(context.Background(), []byte("fake-png"))
	if err != nil {
		t.Fatalf("SaveImage() error = %v", err)
	}

	want := filepath.Join(store.ImageDir(), "stability_20240615_093045.png")
	if path != want {
		t.Errorf("SaveImage() path = %q, want %q", path, want)
	}
}

func TestLocalStore_ListVideos_NewestFirst(t *testing.T) {
	store := newTestStore(t)

	names := []string{
		"stability_video_20240101_120000.mp4",
		"stability_video_20240301_120000.mp4",
		"stability_video_20240201_120000.mp4",
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(store.VideoDir(), name), []byte("v"), 0o640); err != nil {
			t.Fatal(err)
		}
	}
	// Non-video files are ignored.
	if err := os.WriteFile(filepath.Join(store.VideoDir(), "notes.txt"), []byte("x"), 0o640); err != nil {
		t.Fatal(err)
	}

	paths, err := store.ListVideos(context.Background())
	if err != nil {
		t.Fatalf("ListVideos() error = %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("ListVideos() returned %d paths, want 3", len(paths))
	}

	wantOrder := []string{
		"stability_video_20240301_120000.mp4",
		"stability_video_20240201_120000.mp4",
		"stability_video_20240101_120000.mp4",
	}
	for i, want := range wantOrder {
		if got := filepath.Base(paths[i]); got != want {
			t.Errorf("ListVideos()[%d] = %q, want %q", i, got, want)
		}
	}
}

func TestLocalStore_ListVideos_Empty(t *testing.T) {
	store := newTestStore(t)

	paths, err := store.ListVideos(context.Background())
	if err != nil {
		t.Fatalf("ListVideos() error = %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("ListVideos() returned %d paths, want 0", len(paths))
	}
}

func TestLocalStore_LatestImage(t *testing.T) {
	store := newTestStore(t)

	names := []string{
		"stability_20240101_090000.png",
		"stability_20240601_090000.png",
		"stability_20240301_090000.png",
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(store.ImageDir(), name), []byte("i"), 0o640); err != nil {
			t.Fatal(err)
		}
	}

	latest, err := store.LatestImage(context.Background())
	if err != nil {
		t.Fatalf("LatestImage() error = %v", err)
	}
	if got := filepath.Base(latest); got != "stability_20240601_090000.png" {
		t.Errorf("LatestImage() = %q, want stability_20240601_090000.png", got)
	}
}

func TestLocalStore_LatestImage_NoImages(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.LatestImage(context.Background()); !errors.Is(err, ErrNoImages) {
		t.Errorf("LatestImage() error = %v, want ErrNoImages", err)
	}
}

func TestLocalStore_Placeholders(t *testing.T) {
	store := newTestStore(t)

	pending := store.PendingPlaceholder()
	errPath := store.ErrorPlaceholder()

	if filepath.Base(pending) != "video_pending.png" {
		t.Errorf("PendingPlaceholder() = %q", pending)
	}
	if filepath.Base(errPath) != "video_error.png" {
		t.Errorf("ErrorPlaceholder() = %q", errPath)
	}
	// Both live next to the video directory, outside it.
	if filepath.Dir(pending) != filepath.Dir(store.VideoDir()) {
		t.Errorf("pending placeholder in %q, want parent of %q", filepath.Dir(pending), store.VideoDir())
	}
}

func TestLocalStore_Upload_NotConfigured(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Upload(context.Background(), "some.mp4"); !errors.Is(err, ErrS3NotConfigured) {
		t.Errorf("Upload() error = %v, want ErrS3NotConfigured", err)
	}
}

func TestNewLocalStore_DefaultDirs(t *testing.T) {
	base := t.TempDir()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(base); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })

	store, err := NewLocalStore("", "")
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	if filepath.Base(store.VideoDir()) != "generated_videos" {
		t.Errorf("VideoDir() = %q", store.VideoDir())
	}
	if filepath.Base(store.ImageDir()) != "generated_images" {
		t.Errorf("ImageDir() = %q", store.ImageDir())
	}
}
