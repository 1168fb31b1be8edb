package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/solverwatch/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Jobs ---

const jobColumns = `id, name, queue, num_cpu, nodes, parameters, created_at`

func scanJob(row pgx.Row) (*models.Job, error) {
	var (
		j      models.Job
		params []byte
	)
	if err := row.Scan(&j.ID, &j.Name, &j.Queue, &j.NumCPU, &j.Nodes, &params, &j.CreatedAt); err != nil {
		return nil, err
	}
	if params != nil {
		j.Parameters = params
	}
	return &j, nil
}

func (s *PostgresStore) ListJobs(ctx context.Context) ([]*models.Job, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+jobColumns+` FROM job_info ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []*models.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (s *PostgresStore) GetJob(ctx context.Context, id int64) (*models.Job, error) {
	j, err := scanJob(s.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM job_info WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

// DeleteJob removes a job together with its error log.
func (s *PostgresStore) DeleteJob(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM job_info WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ImportJob inserts the job header and bulk-copies its entries in a single
// transaction. A job id that already exists yields ErrDuplicateKey.
func (s *PostgresStore) ImportJob(ctx context.Context, job *models.Job, entries []models.LogEntry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback(ctx)

	nodes := job.Nodes
	if nodes == nil {
		nodes = []string{}
	}
	var params any
	if len(job.Parameters) > 0 {
		params = string(job.Parameters)
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO job_info (id, name, queue, num_cpu, nodes, parameters)
		 VALUES ($1, $2, $3, $4, $5, $6::jsonb)
		 RETURNING created_at`,
		job.ID, job.Name, job.Queue, job.NumCPU, nodes, params,
	).Scan(&job.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("insert job: %w", err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"error_log"},
		[]string{"job_id", "timestamp", "load", "iter", "error_u", "error_phi"},
		pgx.CopyFromSlice(len(entries), func(i int) ([]any, error) {
			e := entries[i]
			return []any{job.ID, e.Timestamp, e.Load, e.Iter, e.ErrorU, e.ErrorPhi}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy error log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

// --- Error log ---

// ListErrorLogSummary returns one row per load step in execution order. Cost
// is the time until the next step started, nil for the last step.
func (s *PostgresStore) ListErrorLogSummary(ctx context.Context, jobID int64) ([]models.ErrorLogSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT load, iters,
		        EXTRACT(EPOCH FROM LEAD(started_at) OVER (ORDER BY started_at) - started_at)::DOUBLE PRECISION AS cost
		 FROM error_log_summary
		 WHERE job_id = $1
		 ORDER BY started_at`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list error log summary: %w", err)
	}
	defer rows.Close()

	summary := []models.ErrorLogSummary{}
	for rows.Next() {
		var r models.ErrorLogSummary
		if err := rows.Scan(&r.Load, &r.Iters, &r.Cost); err != nil {
			return nil, fmt.Errorf("scan error log summary: %w", err)
		}
		summary = append(summary, r)
	}
	return summary, rows.Err()
}

// ListErrorLogEntries returns every iteration in timestamp order. Iters is the
// row's rank in that order; rows with equal timestamps keep insertion order.
func (s *PostgresStore) ListErrorLogEntries(ctx context.Context, jobID int64) ([]models.ErrorLogEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT (ROW_NUMBER() OVER (ORDER BY timestamp, seq))::BIGINT AS iters, load, error_u, error_phi
		 FROM error_log
		 WHERE job_id = $1
		 ORDER BY timestamp, seq`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list error log entries: %w", err)
	}
	defer rows.Close()

	entries := []models.ErrorLogEntry{}
	for rows.Next() {
		var e models.ErrorLogEntry
		if err := rows.Scan(&e.Iters, &e.Load, &e.ErrorU, &e.ErrorPhi); err != nil {
			return nil, fmt.Errorf("scan error log entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// TotalTime returns the seconds between the first and last entry of a job,
// 0 when it has none.
func (s *PostgresStore) TotalTime(ctx context.Context, jobID int64) (float64, error) {
	var total float64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(EXTRACT(EPOCH FROM MAX(timestamp) - MIN(timestamp)), 0)::DOUBLE PRECISION
		 FROM error_log
		 WHERE job_id = $1`, jobID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total time: %w", err)
	}
	return total, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
