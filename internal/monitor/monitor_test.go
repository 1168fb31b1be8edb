package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kiranshivaraju/solverwatch/internal/errlog"
	"github.com/kiranshivaraju/solverwatch/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu       sync.Mutex
	payloads map[int64][]byte
	seconds  map[int64]float64
	gates    map[int64]chan struct{}
	err      error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		payloads: make(map[int64][]byte),
		seconds:  make(map[int64]float64),
		gates:    make(map[int64]chan struct{}),
	}
}

// block makes loads of jobID wait until the returned func is called.
func (f *fakeSource) block(jobID int64) func() {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[jobID] = ch
	f.mu.Unlock()
	return func() { close(ch) }
}

func (f *fakeSource) Payload(ctx context.Context, jobID int64) ([]byte, error) {
	f.mu.Lock()
	gate := f.gates[jobID]
	b, err := f.payloads[jobID], f.err
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return b, err
}

func (f *fakeSource) TotalTime(_ context.Context, jobID int64) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seconds[jobID], nil
}

func encode(t *testing.T, entries ...models.ErrorLogEntry) []byte {
	t.Helper()
	b, err := errlog.EncodePayload([]models.ErrorLogSummary{{Load: entries[0].Load, Iters: 1}}, entries)
	require.NoError(t, err)
	return b
}

func TestNew_StartsEmpty(t *testing.T) {
	m := New(newFakeSource())

	snap := m.Current()
	assert.Nil(t, snap.JobID)
	assert.Empty(t, snap.Errors)
	assert.Empty(t, snap.Summary)
	assert.Equal(t, "-", snap.TotalElapsed)
}

func TestSelect_CommitsTransformedSeries(t *testing.T) {
	src := newFakeSource()
	src.payloads[1] = encode(t,
		models.ErrorLogEntry{Iters: 1, Load: 0.5, ErrorU: 1e-3, ErrorPhi: 1e-30},
		models.ErrorLogEntry{Iters: 2, Load: 1.0, ErrorU: 1e-4, ErrorPhi: 1e-5},
	)
	src.seconds[1] = 90061

	m := New(src)
	require.NoError(t, m.Select(context.Background(), 1))

	snap := m.Current()
	require.NotNil(t, snap.JobID)
	assert.Equal(t, int64(1), *snap.JobID)
	require.Len(t, snap.Errors, 3)
	assert.Nil(t, snap.Errors[0].ErrorSecondary, "value under the noise floor")
	assert.True(t, snap.Errors[1].IsMarker())
	assert.Equal(t, 1.0, snap.Errors[1].Load)
	assert.Equal(t, int64(2), snap.Iterations)
	assert.Equal(t, "1 day, 1 hr, 1 min, 1 sec", snap.TotalElapsed)
}

func TestSelect_StaleResultIsDiscarded(t *testing.T) {
	src := newFakeSource()
	src.payloads[1] = encode(t, models.ErrorLogEntry{Iters: 1, Load: 1})
	src.payloads[2] = encode(t, models.ErrorLogEntry{Iters: 5, Load: 2})
	release := src.block(1)

	var commits []int64
	var mu sync.Mutex
	m := New(src, WithOnCommit(func(s *Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		commits = append(commits, *s.JobID)
	}))

	first := make(chan error, 1)
	go func() { first <- m.Select(context.Background(), 1) }()

	// Let the first load reach the gate before superseding it.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, m.Select(context.Background(), 2))
	release()

	select {
	case err := <-first:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(time.Second):
		t.Fatal("first Select did not return")
	}

	assert.Equal(t, int64(2), *m.Current().JobID)
	assert.Equal(t, int64(5), m.Current().Iterations)
	mu.Lock()
	assert.Equal(t, []int64{2}, commits)
	mu.Unlock()
}

func TestSelect_ClearSupersedesLoad(t *testing.T) {
	src := newFakeSource()
	src.payloads[1] = encode(t, models.ErrorLogEntry{Iters: 1, Load: 1})
	release := src.block(1)

	m := New(src)
	done := make(chan error, 1)
	go func() { done <- m.Select(context.Background(), 1) }()

	time.Sleep(20 * time.Millisecond)
	m.Clear()
	release()

	assert.ErrorIs(t, <-done, ErrSuperseded)
	assert.Nil(t, m.Current().JobID)
	assert.Equal(t, "-", m.Current().TotalElapsed)
}

func TestSelect_FetchErrorCommitsEmpty(t *testing.T) {
	src := newFakeSource()
	src.err = errors.New("database unavailable")

	m := New(src)
	err := m.Select(context.Background(), 4)
	require.Error(t, err)

	snap := m.Current()
	require.NotNil(t, snap.JobID)
	assert.Equal(t, int64(4), *snap.JobID)
	assert.Empty(t, snap.Errors)
	assert.Equal(t, "-", snap.TotalElapsed)
}

func TestSelect_MalformedPayloadCommitsEmpty(t *testing.T) {
	src := newFakeSource()
	src.payloads[4] = []byte{0xc1}

	m := New(src)
	err := m.Select(context.Background(), 4)
	assert.ErrorIs(t, err, errlog.ErrMalformedPayload)
	assert.Empty(t, m.Current().Errors)
}

func TestSelect_NoEntries(t *testing.T) {
	src := newFakeSource()
	b, err := errlog.EncodePayload(nil, nil)
	require.NoError(t, err)
	src.payloads[3] = b

	m := New(src)
	require.NoError(t, m.Select(context.Background(), 3))

	snap := m.Current()
	assert.Empty(t, snap.Errors)
	assert.Equal(t, int64(0), snap.Iterations)
	assert.Equal(t, "0 sec", snap.TotalElapsed)
}

func TestCommitOrderMatchesSelectOrder(t *testing.T) {
	src := newFakeSource()
	for id := int64(1); id <= 3; id++ {
		src.payloads[id] = encode(t, models.ErrorLogEntry{Iters: id, Load: float64(id)})
	}

	var seen []int64
	m := New(src, WithOnCommit(func(s *Snapshot) {
		if s.JobID != nil {
			seen = append(seen, *s.JobID)
		}
	}))
	for id := int64(1); id <= 3; id++ {
		require.NoError(t, m.Select(context.Background(), id))
	}
	assert.Equal(t, []int64{1, 2, 3}, seen)
}

func TestBegin_LaterSelectionWinsWhateverRunOrder(t *testing.T) {
	src := newFakeSource()
	src.payloads[1] = encode(t, models.ErrorLogEntry{Iters: 1, Load: 1})
	src.payloads[2] = encode(t, models.ErrorLogEntry{Iters: 7, Load: 2})

	m := New(src)
	first := m.Begin(context.Background(), 1)
	second := m.Begin(context.Background(), 2)

	require.NoError(t, second.Run())
	assert.ErrorIs(t, first.Run(), ErrSuperseded)

	require.NotNil(t, m.Current().JobID)
	assert.Equal(t, int64(2), *m.Current().JobID)
	assert.Equal(t, int64(7), m.Current().Iterations)
}

func TestBegin_ClearAfterBeginWins(t *testing.T) {
	src := newFakeSource()
	src.payloads[1] = encode(t, models.ErrorLogEntry{Iters: 1, Load: 1})

	m := New(src)
	sel := m.Begin(context.Background(), 1)
	m.Clear()

	assert.ErrorIs(t, sel.Run(), ErrSuperseded)
	assert.Nil(t, m.Current().JobID)
	assert.Equal(t, "-", m.Current().TotalElapsed)
}
