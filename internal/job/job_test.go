package job

import (
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tracker := New("/tmp/video_pending.png")

	if tracker.ID == "" {
		t.Error("expected tracker to have an ID")
	}
	if tracker.Status != StatusSubmitted {
		t.Errorf("expected status %s, got %s", StatusSubmitted, tracker.Status)
	}
	if tracker.ArtifactPath != "/tmp/video_pending.png" {
		t.Errorf("expected pending placeholder, got %q", tracker.ArtifactPath)
	}
	if tracker.GenerationID != "" {
		t.Error("expected no generation ID before acceptance")
	}
	if tracker.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestNewWithID(t *testing.T) {
	tracker := NewWithID("trk-test-123", "/tmp/pending.png")

	if tracker.ID != "trk-test-123" {
		t.Errorf("expected ID trk-test-123, got %s", tracker.ID)
	}
	if tracker.Status != StatusSubmitted {
		t.Errorf("expected status %s, got %s", StatusSubmitted, tracker.Status)
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   Status
		terminal bool
	}{
		{StatusSubmitted, false},
		{StatusProcessing, false},
		{StatusSucceeded, true},
		{StatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsTerminal(); got != tt.terminal {
				t.Errorf("Status(%q).IsTerminal() = %v, want %v", tt.status, got, tt.terminal)
			}
		})
	}
}

func TestTracker_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		wantErr bool
	}{
		{"SUBMITTED to PROCESSING", StatusSubmitted, StatusProcessing, false},
		{"SUBMITTED to FAILED", StatusSubmitted, StatusFailed, false},
		{"PROCESSING to SUCCEEDED", StatusProcessing, StatusSucceeded, false},
		{"PROCESSING to FAILED", StatusProcessing, StatusFailed, false},
		{"SUBMITTED to SUCCEEDED", StatusSubmitted, StatusSucceeded, true},
		{"SUCCEEDED to PROCESSING", StatusSucceeded, StatusProcessing, true},
		{"SUCCEEDED to FAILED", StatusSucceeded, StatusFailed, true},
		{"FAILED to PROCESSING", StatusFailed, StatusProcessing, true},
		{"FAILED to SUCCEEDED", StatusFailed, StatusSucceeded, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := canTransition(tt.from, tt.to); got == tt.wantErr {
				t.Errorf("canTransition(%s, %s) = %v, wantErr %v", tt.from, tt.to, got, tt.wantErr)
			}
		})
	}
}

func TestTracker_AcceptSubmission(t *testing.T) {
	tracker := New("/tmp/pending.png")

	if err := tracker.AcceptSubmission("abc123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tracker.Status != StatusProcessing {
		t.Errorf("expected status %s, got %s", StatusProcessing, tracker.Status)
	}
	if tracker.GenerationID != "abc123" {
		t.Errorf("expected generation ID abc123, got %q", tracker.GenerationID)
	}
	if tracker.StartTime.IsZero() {
		t.Error("expected StartTime to be set")
	}
	if tracker.LastPollTime.IsZero() {
		t.Error("expected LastPollTime to be initialized at acceptance")
	}
}

func TestTracker_Succeed(t *testing.T) {
	tracker := New("/tmp/pending.png")
	if err := tracker.AcceptSubmission("abc123"); err != nil {
		t.Fatal(err)
	}

	if err := tracker.Succeed("/videos/stability_video_20240101_120000.mp4"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tracker.Status != StatusSucceeded {
		t.Errorf("expected status %s, got %s", StatusSucceeded, tracker.Status)
	}
	if tracker.ArtifactPath != "/videos/stability_video_20240101_120000.mp4" {
		t.Errorf("unexpected artifact path %q", tracker.ArtifactPath)
	}
	if tracker.CompletedAt.IsZero() {
		t.Error("expected CompletedAt to be set")
	}
}

func TestTracker_FailFromSubmitted(t *testing.T) {
	tracker := New("/tmp/pending.png")

	err := tracker.Fail(ErrorKindSubmissionRejected, "", "bad_request", []string{"invalid aspect ratio"}, "/tmp/video_error.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tracker.Status != StatusFailed {
		t.Errorf("expected status %s, got %s", StatusFailed, tracker.Status)
	}
	if tracker.ErrorKind != ErrorKindSubmissionRejected {
		t.Errorf("expected submission_rejected, got %s", tracker.ErrorKind)
	}
	if tracker.GenerationID != "" {
		t.Error("rejected submission must not carry a generation ID")
	}
	if tracker.ArtifactPath != "/tmp/video_error.png" {
		t.Errorf("expected error placeholder, got %q", tracker.ArtifactPath)
	}
}

func TestTracker_NoTransitionOutOfTerminal(t *testing.T) {
	tracker := New("/tmp/pending.png")
	if err := tracker.AcceptSubmission("abc123"); err != nil {
		t.Fatal(err)
	}
	if err := tracker.Succeed("/videos/out.mp4"); err != nil {
		t.Fatal(err)
	}

	if err := tracker.Fail(ErrorKindJobFailed, "", "late_error", nil, "/tmp/video_error.png"); err != ErrInvalidTransition {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if tracker.Status != StatusSucceeded {
		t.Errorf("terminal state changed to %s", tracker.Status)
	}
	if tracker.ArtifactPath != "/videos/out.mp4" {
		t.Errorf("artifact path changed to %q", tracker.ArtifactPath)
	}
}

func TestTracker_RecordPoll(t *testing.T) {
	tracker := New("/tmp/pending.png")
	if err := tracker.AcceptSubmission("abc123"); err != nil {
		t.Fatal(err)
	}

	at := time.Now().Add(11 * time.Second)
	tracker.RecordPoll(at)

	if tracker.PollCount != 1 {
		t.Errorf("expected PollCount 1, got %d", tracker.PollCount)
	}
	if !tracker.LastPollTime.Equal(at) {
		t.Errorf("expected LastPollTime %v, got %v", at, tracker.LastPollTime)
	}
}

func TestTracker_Clone(t *testing.T) {
	tracker := New("/tmp/pending.png")
	if err := tracker.AcceptSubmission("abc123"); err != nil {
		t.Fatal(err)
	}
	if err := tracker.Fail(ErrorKindJobFailed, "e1", "internal_error", []string{"timeout"}, "/tmp/video_error.png"); err != nil {
		t.Fatal(err)
	}

	clone := tracker.Clone()

	if clone.ID != tracker.ID || clone.Status != tracker.Status || clone.GenerationID != tracker.GenerationID {
		t.Error("clone does not match source")
	}

	clone.ErrorMessages[0] = "mutated"
	if tracker.ErrorMessages[0] != "timeout" {
		t.Error("mutating the clone leaked into the source")
	}
}
