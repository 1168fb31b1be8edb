package monitor

import (
	"context"
	"fmt"

	"github.com/kiranshivaraju/solverwatch/internal/errlog"
	"golang.org/x/sync/errgroup"
)

// Source supplies the raw inputs of a snapshot.
type Source interface {
	Payload(ctx context.Context, jobID int64) ([]byte, error)
	TotalTime(ctx context.Context, jobID int64) (float64, error)
}

// Snapshot is the chart-ready state of one job. It is never modified after
// it has been built.
type Snapshot struct {
	JobID        *int64                   `json:"job_id"`
	Summary      []errlog.SummaryRecord   `json:"summary"`
	Errors       []errlog.IterationRecord `json:"errors"`
	Iterations   int64                    `json:"iterations"`
	TotalElapsed string                   `json:"total_elapsed"`
}

// Empty returns the snapshot shown when a job has no data. A nil jobID means
// no job is selected.
func Empty(jobID *int64) *Snapshot {
	return &Snapshot{
		JobID:        jobID,
		Summary:      []errlog.SummaryRecord{},
		Errors:       []errlog.IterationRecord{},
		TotalElapsed: errlog.NoElapsed,
	}
}

// Load fetches the payload and total time of a job concurrently and builds
// its snapshot.
func Load(ctx context.Context, src Source, jobID int64) (*Snapshot, error) {
	var (
		payload []byte
		seconds float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		payload, err = src.Payload(gctx, jobID)
		return err
	})
	g.Go(func() error {
		var err error
		seconds, err = src.TotalTime(gctx, jobID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	series, err := errlog.DecodePayload(payload)
	if err != nil {
		return nil, err
	}
	return Build(jobID, series, seconds)
}

// Build turns a decoded series into a snapshot.
func Build(jobID int64, series errlog.Series, seconds float64) (*Snapshot, error) {
	errs := errlog.Transform(series.Errors)
	iters, err := errlog.IterationCount(errs)
	if err != nil {
		return nil, fmt.Errorf("job %d: %w", jobID, err)
	}
	summary := series.Summary
	if summary == nil {
		summary = []errlog.SummaryRecord{}
	}
	return &Snapshot{
		JobID:        &jobID,
		Summary:      summary,
		Errors:       errs,
		Iterations:   iters,
		TotalElapsed: errlog.SplitElapsed(seconds).String(),
	}, nil
}
