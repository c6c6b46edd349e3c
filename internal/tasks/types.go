package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeLeadImport = "lead:import"
)

// LeadImportPayload carries an uploaded CSV file to the worker.
type LeadImportPayload struct {
	UserID     uint      `json:"user_id"`
	Filename   string    `json:"filename"`
	CSV        []byte    `json:"csv"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func NewLeadImportTask(payload LeadImportPayload, opts ...asynq.Option) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	opts = append([]asynq.Option{
		asynq.MaxRetry(3),
		asynq.Timeout(5 * time.Minute),
		asynq.Retention(24 * time.Hour),
	}, opts...)
	return asynq.NewTask(TypeLeadImport, data, opts...), nil
}
