package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/hugh/lead-hunter/internal/leads"
)

type Handler struct {
	store  leads.Store
	logger *slog.Logger
}

func NewHandler(store leads.Store, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger,
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeLeadImport, h.HandleLeadImport)
}

// HandleLeadImport inserts the rows of an uploaded CSV. The summary is written
// as the task result so the uploader can poll it.
func (h *Handler) HandleLeadImport(ctx context.Context, t *asynq.Task) error {
	var payload LeadImportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}
	if payload.UserID == 0 {
		return fmt.Errorf("payload has no user: %w", asynq.SkipRetry)
	}

	h.logger.Info("starting lead import",
		"user_id", payload.UserID,
		"filename", payload.Filename,
		"bytes", len(payload.CSV),
	)

	result, err := leads.ImportCSV(ctx, h.store, payload.UserID, bytes.NewReader(payload.CSV))
	if err != nil {
		if errors.Is(err, leads.ErrInvalidCSV) {
			return fmt.Errorf("import: %w: %w", err, asynq.SkipRetry)
		}
		h.logger.Error("lead import failed", "user_id", payload.UserID, "error", err)
		// a retry would report the inserted rows as duplicates
		if result != nil && result.Imported > 0 {
			h.writeResult(t, result)
			return fmt.Errorf("import stopped after %d rows: %w: %w", result.Imported, err, asynq.SkipRetry)
		}
		return err
	}

	h.logger.Info("lead import completed",
		"user_id", payload.UserID,
		"imported", result.Imported,
		"skipped", len(result.Skipped),
	)

	h.writeResult(t, result)
	return nil
}

func (h *Handler) writeResult(t *asynq.Task, result *leads.ImportResult) {
	w := t.ResultWriter()
	if w == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		h.logger.Warn("failed to marshal task result", "error", err)
		return
	}
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("failed to write task result", "error", err)
	}
}
