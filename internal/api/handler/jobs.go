package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/kiranshivaraju/solverwatch/internal/api/response"
	"github.com/kiranshivaraju/solverwatch/internal/service"
	"github.com/kiranshivaraju/solverwatch/pkg/models"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// Jobs defines the job catalogue operations the handlers depend on.
type Jobs interface {
	ListJobs(ctx context.Context) ([]*models.Job, error)
	GetJob(ctx context.Context, id int64) (*models.Job, error)
	DeleteJob(ctx context.Context, id int64) error
	Import(ctx context.Context, r io.Reader) (*service.ImportResult, error)
}

// NewListJobsHandler returns an http.HandlerFunc for GET /api/v1/jobs.
func NewListJobsHandler(svc Jobs) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, limit, ok := pagination(w, r)
		if !ok {
			return
		}

		jobs, err := svc.ListJobs(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		total := len(jobs)
		start := (page - 1) * limit
		if start > total {
			start = total
		}
		end := start + limit
		if end > total {
			end = total
		}
		items := jobs[start:end]
		if items == nil {
			items = []*models.Job{}
		}

		response.Collection(w, items, response.PaginationMeta{
			Page:    page,
			Limit:   limit,
			Total:   total,
			HasNext: end < total,
		})
	}
}

func pagination(w http.ResponseWriter, r *http.Request) (page, limit int, ok bool) {
	page, limit = 1, defaultPageLimit
	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "page must be a positive integer", nil)
			return 0, 0, false
		}
		page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "limit must be a positive integer", nil)
			return 0, 0, false
		}
		limit = min(n, maxPageLimit)
	}
	return page, limit, true
}

// NewGetJobHandler returns an http.HandlerFunc for GET /api/v1/jobs/{jobID}.
func NewGetJobHandler(svc Jobs) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := jobIDParam(w, r)
		if !ok {
			return
		}
		job, err := svc.GetJob(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		response.JSON(w, job)
	}
}

// NewDeleteJobHandler returns an http.HandlerFunc for DELETE /api/v1/jobs/{jobID}.
func NewDeleteJobHandler(svc Jobs) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := jobIDParam(w, r)
		if !ok {
			return
		}
		if err := svc.DeleteJob(r.Context(), id); err != nil {
			writeServiceError(w, r, err)
			return
		}
		response.NoContent(w)
	}
}

// NewImportHandler returns an http.HandlerFunc for POST /api/v1/jobs/import.
// The request body is the raw solver log.
func NewImportHandler(svc Jobs, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := http.MaxBytesReader(w, r.Body, maxBytes)
		defer body.Close()

		res, err := svc.Import(r.Context(), body)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		response.Created(w, res)
	}
}
