package store

import (
	"context"
	"errors"

	"github.com/kiranshivaraju/solverwatch/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	ListJobs(ctx context.Context) ([]*models.Job, error)
	GetJob(ctx context.Context, id int64) (*models.Job, error)
	DeleteJob(ctx context.Context, id int64) error
	ImportJob(ctx context.Context, job *models.Job, entries []models.LogEntry) error

	ListErrorLogSummary(ctx context.Context, jobID int64) ([]models.ErrorLogSummary, error)
	ListErrorLogEntries(ctx context.Context, jobID int64) ([]models.ErrorLogEntry, error)
	TotalTime(ctx context.Context, jobID int64) (float64, error)
}
