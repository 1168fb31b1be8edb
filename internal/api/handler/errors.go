// Package handler implements the HTTP and websocket endpoints.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	mw "github.com/kiranshivaraju/solverwatch/internal/api/middleware"
	"github.com/kiranshivaraju/solverwatch/internal/api/response"
	"github.com/kiranshivaraju/solverwatch/internal/errlog"
	"github.com/kiranshivaraju/solverwatch/internal/logparse"
	"github.com/kiranshivaraju/solverwatch/internal/store"
)

// jobIDParam reads the {jobID} path parameter, writing a 400 when it is not
// an integer.
func jobIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "jobID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "jobID must be an integer", nil)
		return 0, false
	}
	return id, true
}

// writeServiceError maps service errors onto the error envelope.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, store.ErrNotFound):
		response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", "Job not found", nil)
	case errors.Is(err, store.ErrDuplicateKey):
		response.Error(w, http.StatusConflict, "JOB_EXISTS", "A job with this id already exists", nil)
	case errors.As(err, &tooLarge):
		response.Error(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE",
			"Log exceeds the import size limit", map[string]int64{"limit_bytes": tooLarge.Limit})
	case errors.Is(err, logparse.ErrFormat):
		response.Error(w, http.StatusUnprocessableEntity, "INVALID_LOG", err.Error(), nil)
	case errors.Is(err, errlog.ErrMalformedPayload):
		slog.Error("malformed error log payload", "path", r.URL.Path, "error", err)
		response.Error(w, http.StatusInternalServerError, "MALFORMED_PAYLOAD",
			"Stored error log could not be decoded", nil)
	default:
		reqID, _ := mw.GetRequestID(r)
		slog.Error("request failed", "path", r.URL.Path, "request_id", reqID, "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}
