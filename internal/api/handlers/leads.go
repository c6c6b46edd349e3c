package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hugh/lead-hunter/internal/api/dto"
	"github.com/hugh/lead-hunter/internal/api/middleware"
	"github.com/hugh/lead-hunter/internal/database/models"
	"github.com/hugh/lead-hunter/internal/leads"
	"github.com/hugh/lead-hunter/internal/observability/metrics"
	"github.com/hugh/lead-hunter/internal/tasks"
)

// ImportQueue hands a CSV upload to the background worker.
type ImportQueue interface {
	EnqueueImport(ctx context.Context, userID uint, filename string, data []byte) (string, error)
}

// ImportStatusReader reports on queued imports.
type ImportStatusReader interface {
	ImportStatus(userID uint, id string) (*tasks.ImportStatus, error)
}

type LeadHandler struct {
	store  leads.Store
	queue  ImportQueue
	status ImportStatusReader
	logger *slog.Logger
}

// NewLeadHandler builds the lead endpoints. queue and status may be nil, in
// which case imports run inline and status lookups answer 404.
func NewLeadHandler(store leads.Store, queue ImportQueue, status ImportStatusReader, logger *slog.Logger) *LeadHandler {
	return &LeadHandler{store: store, queue: queue, status: status, logger: logger}
}

func (h *LeadHandler) leadID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, ok := dto.ParseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid lead id")
		return 0, false
	}
	return id, true
}

func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())

	var req dto.CreateLeadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if details := req.Validate(); len(details) > 0 {
		writeValidation(w, details)
		return
	}

	lead := req.ToModel()
	if err := h.store.Insert(r.Context(), owner, &lead); err != nil {
		if errors.Is(err, leads.ErrDuplicate) {
			writeError(w, http.StatusConflict, "Lead with this email already exists")
			return
		}
		h.logger.Error("failed to create lead", "user_id", owner, "error", err)
		writeServerError(w, "Failed to create lead")
		return
	}

	metrics.ObserveLeadWrite("create", 1)
	writeJSON(w, http.StatusCreated, lead)
}

func (h *LeadHandler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())

	var req dto.BulkCreateLeadsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if details := req.Validate(); len(details) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Message: "Failed to create leads", Details: details})
		return
	}

	created, err := h.store.BulkInsert(r.Context(), owner, req.ToModels())
	if err != nil {
		if errors.Is(err, leads.ErrDuplicate) {
			writeJSON(w, http.StatusConflict, dto.ErrorResponse{
				Message: "Failed to create leads",
				Error:   leads.ErrDuplicate.Error(),
			})
			return
		}
		h.logger.Error("failed to bulk create leads", "user_id", owner, "count", len(req.Leads), "error", err)
		writeServerError(w, "Failed to create leads")
		return
	}

	metrics.ObserveLeadWrite("bulk_create", len(created))
	writeJSON(w, http.StatusCreated, dto.BulkCreateLeadsResponse{
		Message: fmt.Sprintf("%d leads created successfully", len(created)),
		Data:    created,
	})
}

func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())
	query := r.URL.Query()

	filter := leads.BuildFilter(query)
	page := leads.ParsePage(query)

	rows, total, err := h.store.CountAndFetch(r.Context(), owner, filter, page)
	if err != nil {
		h.logger.Error("failed to list leads", "user_id", owner, "error", err)
		writeServerError(w, "Error fetching leads")
		return
	}

	writeJSON(w, http.StatusOK, leads.NewResult(rows, page, total))
}

func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())
	id, ok := h.leadID(w, r)
	if !ok {
		return
	}

	lead, err := h.store.Get(r.Context(), id, owner)
	if err != nil {
		if errors.Is(err, leads.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Lead not found")
			return
		}
		h.logger.Error("failed to get lead", "lead_id", id, "error", err)
		writeServerError(w, "Failed to fetch lead")
		return
	}

	writeJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())
	id, ok := h.leadID(w, r)
	if !ok {
		return
	}

	var req dto.UpdateLeadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if details := req.Validate(); len(details) > 0 {
		writeValidation(w, details)
		return
	}

	lead, err := h.store.UpdateByIDAndOwner(r.Context(), id, owner, req.ToPatch())
	if err != nil {
		switch {
		case errors.Is(err, leads.ErrNotFound):
			writeError(w, http.StatusNotFound, "Lead not found")
		case errors.Is(err, leads.ErrDuplicate):
			writeError(w, http.StatusConflict, "Lead with this email already exists")
		default:
			h.logger.Error("failed to update lead", "lead_id", id, "error", err)
			writeServerError(w, "Failed to update lead")
		}
		return
	}

	metrics.ObserveLeadWrite("update", 1)
	writeJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())
	id, ok := h.leadID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteByIDAndOwner(r.Context(), id, owner); err != nil {
		if errors.Is(err, leads.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Lead not found")
			return
		}
		h.logger.Error("failed to delete lead", "lead_id", id, "error", err)
		writeServerError(w, "Failed to delete lead")
		return
	}

	metrics.ObserveLeadWrite("delete", 1)
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Lead deleted"})
}

func (h *LeadHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())

	var req dto.BulkDeleteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	ids, err := req.ParseIDs()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request", Error: err.Error()})
		return
	}

	deleted, err := h.store.DeleteManyByIDsAndOwner(r.Context(), ids, owner)
	if err != nil {
		h.logger.Error("failed to bulk delete leads", "user_id", owner, "error", err)
		writeServerError(w, "Failed to delete leads")
		return
	}

	metrics.ObserveLeadWrite("delete", int(deleted))
	writeJSON(w, http.StatusOK, dto.DeleteResponse{Message: "Leads deleted", Deleted: deleted})
}

// Import accepts a multipart CSV upload in the "file" field.
func (h *LeadHandler) Import(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, leads.MaxImportSize+maxJSONBody)
	if err := r.ParseMultipartForm(leads.MaxImportSize); err != nil {
		writeError(w, http.StatusBadRequest, "File upload error")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "File upload error")
		return
	}
	defer file.Close()

	if header.Size > leads.MaxImportSize {
		writeError(w, http.StatusBadRequest, "File too large (max 5MB)")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, leads.MaxImportSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "File upload error")
		return
	}
	if len(data) > leads.MaxImportSize {
		writeError(w, http.StatusBadRequest, "File too large (max 5MB)")
		return
	}

	if err := leads.CheckHeader(bytes.NewReader(data)); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Message: "Failed to parse CSV file", Error: err.Error()})
		return
	}

	if h.queue != nil {
		taskID, err := h.queue.EnqueueImport(r.Context(), owner, header.Filename, data)
		if err != nil {
			h.logger.Error("failed to enqueue import", "user_id", owner, "error", err)
			writeServerError(w, "Failed to queue import")
			return
		}
		h.logger.Info("lead import queued", "user_id", owner, "task_id", taskID, "bytes", len(data))
		writeJSON(w, http.StatusAccepted, dto.ImportLeadsResponse{
			Message: "Import queued",
			TaskID:  taskID,
			Skipped: []leads.RowError{},
		})
		return
	}

	result, err := leads.ImportCSV(r.Context(), h.store, owner, bytes.NewReader(data))
	if err != nil {
		if result == nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Message: "Failed to parse CSV file", Error: err.Error()})
			return
		}
		h.logger.Error("lead import failed", "user_id", owner, "imported", result.Imported, "error", err)
		writeServerError(w, "Failed to import leads")
		return
	}

	metrics.ObserveImport(result.Imported, len(result.Skipped))
	writeJSON(w, http.StatusCreated, dto.ImportLeadsResponse{
		Message:  "Leads imported successfully",
		Imported: result.Imported,
		Skipped:  result.Skipped,
	})
}

func (h *LeadHandler) ImportStatus(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())
	if h.status == nil {
		writeError(w, http.StatusNotFound, "Import not found")
		return
	}

	status, err := h.status.ImportStatus(owner, chi.URLParam(r, "taskID"))
	if err != nil {
		if errors.Is(err, tasks.ErrTaskNotFound) {
			writeError(w, http.StatusNotFound, "Import not found")
			return
		}
		h.logger.Error("failed to read import status", "user_id", owner, "error", err)
		writeServerError(w, "Failed to read import status")
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// Export streams the caller's leads as CSV, honoring the listing filters.
func (h *LeadHandler) Export(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())
	filter := leads.BuildFilter(r.URL.Query())

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=leads_export_"+time.Now().Format("20060102")+".csv")

	writer, err := leads.NewCSVWriter(w)
	if err != nil {
		h.logger.Error("failed to start export", "user_id", owner, "error", err)
		return
	}

	rc := http.NewResponseController(w)
	err = h.store.Stream(r.Context(), owner, filter, func(batch []models.Lead) error {
		if err := writer.Write(batch); err != nil {
			return err
		}
		_ = rc.Flush()
		return nil
	})
	if err != nil {
		// headers are already sent; the client sees a truncated file
		h.logger.Error("export failed", "user_id", owner, "error", err)
		return
	}
	if err := writer.Flush(); err != nil {
		h.logger.Error("export flush failed", "user_id", owner, "error", err)
	}
}
