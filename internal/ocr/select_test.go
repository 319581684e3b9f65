package ocr

import (
	"testing"

	apperrors "github.com/veridoc/idverify-worker/internal/errors"
)

func TestNewEngineRejectsUnknownName(t *testing.T) {
	_, err := NewEngine(Options{Engine: "azure"})
	if err == nil {
		t.Fatal("NewEngine accepted an unknown engine name")
	}
	if apperrors.CodeOf(err) == apperrors.ErrorEngineUnavailable {
		t.Error("an unknown engine name is a caller mistake, not an availability failure")
	}
}

func TestNewEngineDocAIRequiresConfiguration(t *testing.T) {
	_, err := NewEngine(Options{Engine: "docai"})
	if err == nil {
		t.Fatal("NewEngine built a Document AI engine with no project configured")
	}
	if got := apperrors.CodeOf(err); got != apperrors.ErrorEngineUnavailable {
		t.Errorf("error code = %q, want %q", got, apperrors.ErrorEngineUnavailable)
	}
}
