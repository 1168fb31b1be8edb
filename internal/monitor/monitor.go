// Package monitor holds the error log state of one viewer session. Every
// selection change starts a new load; only the latest one may commit.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
)

// ErrSuperseded is returned by Select when a newer selection replaced it
// before it could commit.
var ErrSuperseded = errors.New("selection superseded")

// Monitor is a generation-guarded snapshot slot.
type Monitor struct {
	src      Source
	logger   *slog.Logger
	onCommit func(*Snapshot)

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc

	current atomic.Pointer[Snapshot]
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithOnCommit registers fn to run after each commit. Calls happen in commit
// order and must not block.
func WithOnCommit(fn func(*Snapshot)) Option {
	return func(m *Monitor) { m.onCommit = fn }
}

// WithLogger sets the logger for load failures.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) { m.logger = l }
}

// New creates a Monitor with no job selected.
func New(src Source, opts ...Option) *Monitor {
	m := &Monitor{src: src, logger: slog.Default()}
	for _, o := range opts {
		o(m)
	}
	m.current.Store(Empty(nil))
	return m
}

// Current returns the last committed snapshot.
func (m *Monitor) Current() *Snapshot {
	return m.current.Load()
}

// Selection is a load started by Begin. Its place in the selection order is
// fixed when Begin returns, so Run may be called on another goroutine.
type Selection struct {
	m     *Monitor
	ctx   context.Context
	gen   uint64
	jobID int64
}

// Begin supersedes any earlier selection and cancels its load. The returned
// Selection commits only if nothing else begins before it finishes.
func (m *Monitor) Begin(ctx context.Context, jobID int64) *Selection {
	ctx, gen := m.begin(ctx)
	return &Selection{m: m, ctx: ctx, gen: gen, jobID: jobID}
}

// Run loads the job and commits its snapshot unless a later Begin or Clear
// happened in the meantime. A failed load commits an empty snapshot for the
// job and returns the error.
func (s *Selection) Run() error {
	m := s.m
	snap, err := Load(s.ctx, m.src, s.jobID)
	if err != nil {
		if m.stale(s.gen) {
			return ErrSuperseded
		}
		m.logger.Warn("error log load failed", "job_id", s.jobID, "error", err)
		snap = Empty(&s.jobID)
	}
	if !m.commit(s.gen, snap) {
		return ErrSuperseded
	}
	return err
}

// Select is Begin followed by Run on the calling goroutine.
func (m *Monitor) Select(ctx context.Context, jobID int64) error {
	return m.Begin(ctx, jobID).Run()
}

// Clear deselects the job and cancels any load in flight.
func (m *Monitor) Clear() {
	_, gen := m.begin(context.Background())
	m.commit(gen, Empty(nil))
}

// Close cancels any load in flight.
func (m *Monitor) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m *Monitor) begin(parent context.Context) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(parent)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
	}
	m.gen++
	m.cancel = cancel
	return ctx, m.gen
}

func (m *Monitor) stale(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return gen != m.gen
}

func (m *Monitor) commit(gen uint64, snap *Snapshot) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return false
	}
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.current.Store(snap)
	if m.onCommit != nil {
		m.onCommit(snap)
	}
	return true
}
