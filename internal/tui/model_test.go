package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/grant-king/stability-demo/internal/job"
)

// stubStore provides just enough of storage.Store for the gallery.
type stubStore struct {
	videos  []string
	listErr error
}

func (s *stubStore) SaveVideo(context.Context, []byte) (string, error) { return "", nil }
func (s *stubStore) SaveImage(context.Context, []byte) (string, error) { return "", nil }
func (s *stubStore) ListVideos(context.Context) ([]string, error)      { return s.videos, s.listErr }
func (s *stubStore) LatestImage(context.Context) (string, error)       { return "", nil }
func (s *stubStore) PendingPlaceholder() string                        { return "video_pending.png" }
func (s *stubStore) ErrorPlaceholder() string                          { return "video_error.png" }
func (s *stubStore) Upload(context.Context, string) (string, error)    { return "", nil }

func TestNew_InitialState(t *testing.T) {
	m := New(nil, &stubStore{})

	if m.focus != focusPrompt {
		t.Errorf("initial focus = %v, want focusPrompt", m.focus)
	}
	if m.statusText != "Ready" {
		t.Errorf("initial status = %q, want Ready", m.statusText)
	}
	if !strings.Contains(m.View(), "no videos yet") {
		t.Error("empty gallery should render a hint")
	}
}

func TestUpdate_QuitKeys(t *testing.T) {
	for _, key := range []tea.KeyType{tea.KeyCtrlC, tea.KeyEsc} {
		m := New(nil, &stubStore{})
		updated, cmd := m.Update(tea.KeyMsg{Type: key})
		if cmd == nil {
			t.Errorf("key %v should produce a quit command", key)
		}
		if !updated.(Model).quitting {
			t.Errorf("key %v should mark the model quitting", key)
		}
	}
}

func TestUpdate_TabTogglesFocus(t *testing.T) {
	m := New(nil, &stubStore{})

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if got := updated.(Model).focus; got != focusImagePath {
		t.Errorf("focus after tab = %v, want focusImagePath", got)
	}

	updated, _ = updated.Update(tea.KeyMsg{Type: tea.KeyTab})
	if got := updated.(Model).focus; got != focusPrompt {
		t.Errorf("focus after second tab = %v, want focusPrompt", got)
	}
}

func TestUpdate_EmptyPromptIsRejectedLocally(t *testing.T) {
	m := New(nil, &stubStore{})

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("empty prompt must not start a generation")
	}
	if updated.(Model).err == nil {
		t.Error("empty prompt should surface an error")
	}
}

func TestUpdate_GalleryMsg(t *testing.T) {
	m := New(nil, &stubStore{})

	updated, _ := m.Update(galleryMsg{files: []string{
		"/out/stability_video_20240301_120000.mp4",
		"/out/stability_video_20240201_120000.mp4",
	}})

	view := updated.(Model).View()
	if !strings.Contains(view, "stability_video_20240301_120000.mp4") {
		t.Error("gallery entries should be rendered")
	}
}

func TestUpdate_VideoSubmittedError(t *testing.T) {
	m := New(nil, &stubStore{})
	m.busy = true

	updated, cmd := m.Update(videoSubmittedMsg{err: errors.New("no generated images found")})
	model := updated.(Model)
	if model.busy {
		t.Error("busy flag should clear on submission error")
	}
	if model.err == nil {
		t.Error("submission error should surface")
	}
	if cmd != nil {
		t.Error("failed submission should not schedule polling")
	}
}

func TestUpdate_VideoSubmittedKeepsPollingUntilTerminal(t *testing.T) {
	m := New(nil, &stubStore{})

	tracker := job.New("video_pending.png")
	if err := tracker.AcceptSubmission("abc123"); err != nil {
		t.Fatal(err)
	}

	updated, cmd := m.Update(videoSubmittedMsg{tracker: tracker})
	if cmd == nil {
		t.Error("in-flight tracker should schedule a refresh tick")
	}

	view := updated.(Model).View()
	if !strings.Contains(view, "abc123") {
		t.Error("tracker panel should show the generation id")
	}
	if !strings.Contains(view, "video_pending.png") {
		t.Error("tracker panel should show the pending placeholder as preview")
	}
}

func TestUpdate_ImageGenerated(t *testing.T) {
	m := New(nil, &stubStore{})
	m.busy = true

	updated, _ := m.Update(imageGeneratedMsg{path: "/out/stability_20240301_120000.png"})
	model := updated.(Model)
	if model.busy {
		t.Error("busy flag should clear after image generation")
	}
	if !strings.Contains(model.statusText, "stability_20240301_120000.png") {
		t.Errorf("status = %q, want saved path", model.statusText)
	}
}

func TestRenderTracker_FailedShowsErrorDetail(t *testing.T) {
	m := New(nil, &stubStore{})

	tracker := job.New("video_pending.png")
	if err := tracker.Fail(job.ErrorKindSubmissionRejected, "e1", "bad_request", []string{"invalid image"}, "video_error.png"); err != nil {
		t.Fatal(err)
	}
	m.current = tracker

	view := m.View()
	if !strings.Contains(view, "FAILED") {
		t.Error("failed tracker should render FAILED")
	}
	if !strings.Contains(view, "invalid image") {
		t.Error("failed tracker should render the error message")
	}
	if !strings.Contains(view, "video_error.png") {
		t.Error("failed tracker should show the error placeholder as preview")
	}
}
