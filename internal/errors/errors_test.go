package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
	"time"
)

func TestCodeOf(t *testing.T) {
	cause := stderrors.New("disk gone")
	err := NewInputUnreadableError("/uploads/card.png", cause)

	if got := CodeOf(err); got != ErrorInputUnreadable {
		t.Errorf("CodeOf = %q, want %q", got, ErrorInputUnreadable)
	}

	// The code survives wrapping.
	wrapped := fmt.Errorf("loading document: %w", err)
	if got := CodeOf(wrapped); got != ErrorInputUnreadable {
		t.Errorf("CodeOf(wrapped) = %q, want %q", got, ErrorInputUnreadable)
	}

	if got := CodeOf(stderrors.New("plain")); got != "" {
		t.Errorf("CodeOf(plain) = %q, want empty", got)
	}
	if got := CodeOf(nil); got != "" {
		t.Errorf("CodeOf(nil) = %q, want empty", got)
	}
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewStorageFailedError("job-1", cause)
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is did not find the cause through the pipeline error")
	}
}

func TestToMap(t *testing.T) {
	err := NewProcessingTimeoutError("job-1", 5*time.Minute, stderrors.New("context deadline exceeded"))
	m := err.ToMap()

	if m["error_code"] != string(ErrorProcessingTimeout) {
		t.Errorf("error_code = %v, want %s", m["error_code"], ErrorProcessingTimeout)
	}
	if m["job_id"] != "job-1" {
		t.Errorf("job_id = %v, want job-1", m["job_id"])
	}
	if m["cause"] != "context deadline exceeded" {
		t.Errorf("cause = %v, want the cause message", m["cause"])
	}
}
