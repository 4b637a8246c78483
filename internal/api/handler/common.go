package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/userix/userix/internal/api/response"
)

const timeFormat = "2006-01-02T15:04:05Z"

const maxBodyBytes = 1 << 20

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

// decodeJSON reads the request body into dst. On failure it writes a 400
// INVALID_JSON response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, requestID string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return false
	}
	return true
}

// pathID parses the {id} URL parameter. On failure it writes a 400
// INVALID_ID response and returns false.
func pathID(w http.ResponseWriter, r *http.Request, requestID string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return uuid.Nil, false
	}
	return id, true
}
