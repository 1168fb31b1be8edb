package handler

import (
	"context"
	"net/http"

	"github.com/kiranshivaraju/solverwatch/internal/api/response"
	"github.com/kiranshivaraju/solverwatch/internal/errlog"
	"github.com/kiranshivaraju/solverwatch/internal/monitor"
)

// ErrorLogs defines the error log operations the handlers depend on.
type ErrorLogs interface {
	monitor.Source
	ClearCache(ctx context.Context) (int64, error)
}

// NewErrorLogHandler returns an http.HandlerFunc for
// GET /api/v1/jobs/{jobID}/error-log. The body is the msgpack payload.
func NewErrorLogHandler(svc ErrorLogs) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := jobIDParam(w, r)
		if !ok {
			return
		}
		b, err := svc.Payload(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		response.Binary(w, errlog.ContentType, b)
	}
}

// NewSeriesHandler returns an http.HandlerFunc for
// GET /api/v1/jobs/{jobID}/series.
func NewSeriesHandler(svc ErrorLogs) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := jobIDParam(w, r)
		if !ok {
			return
		}
		snap, err := monitor.Load(r.Context(), svc, id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		response.JSON(w, snap)
	}
}

type totalTimeResponse struct {
	Seconds   float64        `json:"seconds"`
	Elapsed   errlog.Elapsed `json:"elapsed"`
	Formatted string         `json:"formatted"`
}

// NewTotalTimeHandler returns an http.HandlerFunc for
// GET /api/v1/jobs/{jobID}/total-time.
func NewTotalTimeHandler(svc ErrorLogs) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := jobIDParam(w, r)
		if !ok {
			return
		}
		secs, err := svc.TotalTime(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		e := errlog.SplitElapsed(secs)
		response.JSON(w, totalTimeResponse{Seconds: secs, Elapsed: e, Formatted: e.String()})
	}
}

// NewClearCacheHandler returns an http.HandlerFunc for
// DELETE /api/v1/cache/error-log.
func NewClearCacheHandler(svc ErrorLogs) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := svc.ClearCache(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		response.JSON(w, map[string]int64{"deleted": n})
	}
}
