package tasks

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/hugh/lead-hunter/internal/leads"
)

var ErrTaskNotFound = errors.New("task not found")

type ImportStatus struct {
	ID        string              `json:"id"`
	State     string              `json:"state"`
	Result    *leads.ImportResult `json:"result,omitempty"`
	LastError string              `json:"last_error,omitempty"`
}

// StatusReader looks up queued imports.
type StatusReader struct {
	inspector *asynq.Inspector
	queue     string
}

func NewStatusReader(inspector *asynq.Inspector) *StatusReader {
	return &StatusReader{inspector: inspector, queue: "default"}
}

// ImportStatus returns the state of import task id. Tasks owned by another
// user are reported as not found.
func (s *StatusReader) ImportStatus(userID uint, id string) (*ImportStatus, error) {
	info, err := s.inspector.GetTaskInfo(s.queue, id)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("inspecting task: %w", err)
	}
	return importStatusFromInfo(info, userID)
}

func importStatusFromInfo(info *asynq.TaskInfo, userID uint) (*ImportStatus, error) {
	if info.Type != TypeLeadImport {
		return nil, ErrTaskNotFound
	}
	var payload LeadImportPayload
	if err := json.Unmarshal(info.Payload, &payload); err != nil || payload.UserID != userID {
		return nil, ErrTaskNotFound
	}

	status := &ImportStatus{
		ID:        info.ID,
		State:     info.State.String(),
		LastError: info.LastErr,
	}
	if len(info.Result) > 0 {
		var result leads.ImportResult
		if err := json.Unmarshal(info.Result, &result); err == nil {
			status.Result = &result
		}
	}
	return status, nil
}
