package queue

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TaskTypeVerify is the asynq task type for identity verification jobs.
const TaskTypeVerify = "identity:verify"

// VerifyPayload is the job payload enqueued by the API or CLI.
type VerifyPayload struct {
	JobID        string `json:"jobId"`
	FilePath     string `json:"filePath"`
	ExpectedName string `json:"expectedName,omitempty"`
	ExpectedDOB  string `json:"expectedDob,omitempty"`
}

// NewVerifyTask wraps the payload into an asynq task.
func NewVerifyTask(payload *VerifyPayload) (*asynq.Task, error) {
	if payload.JobID == "" {
		return nil, fmt.Errorf("job ID is required")
	}
	if payload.FilePath == "" {
		return nil, fmt.Errorf("file path is required")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal verify payload: %w", err)
	}
	return asynq.NewTask(TaskTypeVerify, data), nil
}

// Enqueue submits a verification job to the named queue.
func Enqueue(client *asynq.Client, payload *VerifyPayload, queueName string) error {
	task, err := NewVerifyTask(payload)
	if err != nil {
		return err
	}
	if _, err := client.Enqueue(task, asynq.Queue(queueName)); err != nil {
		return fmt.Errorf("failed to enqueue verification job: %w", err)
	}
	return nil
}
