// Package service serves solver jobs and their error logs on top of the store
// and the payload cache.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/kiranshivaraju/solverwatch/internal/cache"
	"github.com/kiranshivaraju/solverwatch/internal/errlog"
	"github.com/kiranshivaraju/solverwatch/internal/logparse"
	"github.com/kiranshivaraju/solverwatch/internal/store"
	"github.com/kiranshivaraju/solverwatch/pkg/models"
	"golang.org/x/sync/errgroup"
)

const cacheWriteTimeout = 5 * time.Second

// ErrorLogService answers error log requests, caching encoded payloads.
type ErrorLogService struct {
	store  store.Store
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger

	pending sync.WaitGroup
}

// NewErrorLogService creates a new ErrorLogService.
func NewErrorLogService(st store.Store, ca cache.Cache, ttl time.Duration, logger *slog.Logger) *ErrorLogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorLogService{store: st, cache: ca, ttl: ttl, logger: logger}
}

// Payload returns the encoded error log of a job, from the cache when
// possible. A miss queries summary and entries concurrently and writes the
// result back to the cache in the background.
func (s *ErrorLogService) Payload(ctx context.Context, jobID int64) ([]byte, error) {
	if b, ok := s.cachedPayload(ctx, jobID); ok {
		return b, nil
	}

	var (
		summary []models.ErrorLogSummary
		entries []models.ErrorLogEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = s.store.ListErrorLogSummary(gctx, jobID)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = s.store.ListErrorLogEntries(gctx, jobID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("query error log: %w", err)
	}

	if len(entries) == 0 {
		if _, err := s.store.GetJob(ctx, jobID); err != nil {
			return nil, err
		}
	}

	b, err := errlog.EncodePayload(summary, entries)
	if err != nil {
		return nil, err
	}
	s.cachePayload(jobID, b)
	return b, nil
}

func (s *ErrorLogService) cachedPayload(ctx context.Context, jobID int64) ([]byte, bool) {
	key := cache.ErrorLogPayloadKey(jobID)
	z, found, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("error log cache read failed", "job_id", jobID, "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	b, err := cache.Decompress(z)
	if err != nil {
		s.logger.Warn("dropping corrupt cached error log", "job_id", jobID, "error", err)
		_ = s.cache.Delete(ctx, key)
		return nil, false
	}
	return b, true
}

func (s *ErrorLogService) cachePayload(jobID int64, b []byte) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
		defer cancel()

		z, err := cache.Compress(b)
		if err == nil {
			err = s.cache.Set(ctx, cache.ErrorLogPayloadKey(jobID), z, s.ttl)
		}
		if err != nil {
			s.logger.Warn("error log cache write failed", "job_id", jobID, "error", err)
		}
	}()
}

// Flush waits for background cache writes to finish.
func (s *ErrorLogService) Flush() {
	s.pending.Wait()
}

// TotalTime returns the wall time of a job in seconds.
func (s *ErrorLogService) TotalTime(ctx context.Context, jobID int64) (float64, error) {
	return s.store.TotalTime(ctx, jobID)
}

// ClearCache drops every cached payload.
func (s *ErrorLogService) ClearCache(ctx context.Context) (int64, error) {
	n, err := s.cache.DeletePrefix(ctx, cache.ErrorLogPayloadPrefix)
	if err != nil {
		return n, fmt.Errorf("clear error log cache: %w", err)
	}
	s.logger.Info("error log cache cleared", "entries", n)
	return n, nil
}

// --- Jobs ---

func (s *ErrorLogService) ListJobs(ctx context.Context) ([]*models.Job, error) {
	return s.store.ListJobs(ctx)
}

func (s *ErrorLogService) GetJob(ctx context.Context, id int64) (*models.Job, error) {
	return s.store.GetJob(ctx, id)
}

// DeleteJob removes a job and evicts its cached payload.
func (s *ErrorLogService) DeleteJob(ctx context.Context, id int64) error {
	if err := s.store.DeleteJob(ctx, id); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, cache.ErrorLogPayloadKey(id)); err != nil {
		s.logger.Warn("error log cache evict failed", "job_id", id, "error", err)
	}
	return nil
}

// ImportResult describes a finished import.
type ImportResult struct {
	Job     *models.Job `json:"job"`
	Entries int         `json:"entries"`
	Skipped int         `json:"skipped_lines"`
}

// Import parses a raw solver log and stores it.
func (s *ErrorLogService) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	parsed, err := logparse.Parse(r)
	if err != nil {
		return nil, err
	}
	job := parsed.Job
	if err := s.store.ImportJob(ctx, &job, parsed.Entries); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, err
		}
		return nil, fmt.Errorf("import job %d: %w", job.ID, err)
	}
	// A job id can be reused after a delete; never serve the old payload.
	if err := s.cache.Delete(ctx, cache.ErrorLogPayloadKey(job.ID)); err != nil {
		s.logger.Warn("error log cache evict failed", "job_id", job.ID, "error", err)
	}

	s.logger.Info("job imported", "job_id", job.ID, "entries", len(parsed.Entries), "skipped_lines", parsed.Skipped)
	return &ImportResult{Job: &job, Entries: len(parsed.Entries), Skipped: parsed.Skipped}, nil
}
