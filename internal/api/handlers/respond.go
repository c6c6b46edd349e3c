package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/hugh/lead-hunter/internal/api/dto"
)

// maxJSONBody bounds request bodies outside of file uploads.
const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, dto.ErrorResponse{Message: message})
}

func writeValidation(w http.ResponseWriter, details map[string]string) {
	writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Message: "Validation failed", Details: details})
}

// writeServerError hides err from the client; it is logged by the caller.
func writeServerError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Message: message, Error: "Server error"})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}
