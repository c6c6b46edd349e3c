package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Enqueuer hands lead imports to the worker through asynq.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

// EnqueueImport queues a CSV for userID and returns the task id.
func (e *Enqueuer) EnqueueImport(ctx context.Context, userID uint, filename string, data []byte) (string, error) {
	task, err := NewLeadImportTask(LeadImportPayload{
		UserID:     userID,
		Filename:   filename,
		CSV:        data,
		UploadedAt: time.Now().UTC(),
	}, asynq.TaskID(uuid.NewString()))
	if err != nil {
		return "", fmt.Errorf("building import task: %w", err)
	}

	info, err := e.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", fmt.Errorf("enqueueing import: %w", err)
	}
	return info.ID, nil
}
