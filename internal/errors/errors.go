package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode classifies pipeline failures for callers and for job storage.
type ErrorCode string

const (
	// Input errors
	ErrorInputUnsupported ErrorCode = "INPUT_UNSUPPORTED"
	ErrorInputTooLarge    ErrorCode = "INPUT_TOO_LARGE"
	ErrorInputUnreadable  ErrorCode = "INPUT_UNREADABLE"

	// OCR errors
	ErrorEngineUnavailable ErrorCode = "ENGINE_UNAVAILABLE"
	ErrorOCRFailed         ErrorCode = "OCR_FAILED"

	// Persistence errors
	ErrorStorageFailed ErrorCode = "STORAGE_FAILED"

	// Worker errors
	ErrorProcessingTimeout ErrorCode = "PROCESSING_TIMEOUT"
)

// PipelineError is a structured error carried through the verification
// pipeline and persisted alongside failed jobs.
type PipelineError struct {
	Code      ErrorCode
	Message   string
	Timestamp time.Time
	Details   map[string]interface{}
	Cause     error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// CodeOf returns the error code if err carries one, or "" otherwise.
func CodeOf(err error) ErrorCode {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// Factory functions for common errors

func NewInputUnsupportedError(path, detail string) *PipelineError {
	return &PipelineError{
		Code:      ErrorInputUnsupported,
		Message:   fmt.Sprintf("Unsupported input file: %s", detail),
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"path": path,
		},
	}
}

func NewInputTooLargeError(path string, sizeBytes, maxBytes int64) *PipelineError {
	return &PipelineError{
		Code:      ErrorInputTooLarge,
		Message:   fmt.Sprintf("Input file is %d bytes, limit is %d bytes", sizeBytes, maxBytes),
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"path":       path,
			"size_bytes": sizeBytes,
			"max_bytes":  maxBytes,
		},
	}
}

func NewInputUnreadableError(path string, cause error) *PipelineError {
	return &PipelineError{
		Code:      ErrorInputUnreadable,
		Message:   "Failed to read or decode input file",
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"path": path,
		},
		Cause: cause,
	}
}

func NewEngineUnavailableError(detail string) *PipelineError {
	return &PipelineError{
		Code:      ErrorEngineUnavailable,
		Message:   fmt.Sprintf("No OCR engine could be initialized: %s", detail),
		Timestamp: time.Now(),
	}
}

func NewOCRFailedError(engine string, cause error) *PipelineError {
	return &PipelineError{
		Code:      ErrorOCRFailed,
		Message:   fmt.Sprintf("OCR failed on engine: %s", engine),
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"engine": engine,
		},
		Cause: cause,
	}
}

func NewStorageFailedError(jobID string, cause error) *PipelineError {
	return &PipelineError{
		Code:      ErrorStorageFailed,
		Message:   "Failed to store verification results",
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"job_id": jobID,
		},
		Cause: cause,
	}
}

func NewProcessingTimeoutError(jobID string, timeout time.Duration, cause error) *PipelineError {
	return &PipelineError{
		Code:      ErrorProcessingTimeout,
		Message:   fmt.Sprintf("Processing timed out after %v", timeout),
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"job_id":           jobID,
			"timeout_duration": timeout.String(),
		},
		Cause: cause,
	}
}

// ToMap converts the error to a map for database storage.
func (e *PipelineError) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"error_code": string(e.Code),
		"message":    e.Message,
		"timestamp":  e.Timestamp,
	}

	for k, v := range e.Details {
		result[k] = v
	}

	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}

	return result
}
