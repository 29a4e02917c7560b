package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/async-export/config"
	"github.com/target/async-export/internal/core"
	"github.com/target/async-export/internal/domain/job"
	"github.com/target/async-export/internal/domain/model"
)

// mockResyncLedger is a simple ledger stub that records ListStalePending calls.
// GetByID reports every job as pending unless statuses says otherwise.
type mockResyncLedger struct {
	core.ExportJobRepository

	staleCalls  int
	staleCutoff time.Time
	staleLimit  int
	staleJobs   []*model.ExportJob
	staleErr    error
	afterList   func()

	statuses map[string]model.ExportStatus
	getErr   error
}

func (m *mockResyncLedger) GetByID(_ context.Context, id string) (*model.ExportJob, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	status, ok := m.statuses[id]
	if !ok {
		status = model.ExportStatusPending
	}
	return &model.ExportJob{ID: id, Status: status}, nil
}

func (m *mockResyncLedger) ListStalePending(
	_ context.Context,
	olderThan time.Time,
	limit int,
) ([]*model.ExportJob, error) {
	m.staleCalls++
	m.staleCutoff = olderThan
	m.staleLimit = limit
	if m.staleErr != nil {
		return nil, m.staleErr
	}
	if m.afterList != nil {
		m.afterList()
	}
	return m.staleJobs, nil
}

func resyncConfig() config.ResyncConfig {
	return config.ResyncConfig{
		Interval:  time.Minute,
		MinAge:    5 * time.Minute,
		BatchSize: 50,
	}
}

func TestNewResyncService(t *testing.T) {
	t.Run("creates service with valid options", func(t *testing.T) {
		svc, err := NewResyncService(ResyncServiceOptions{
			Ledger: &mockResyncLedger{},
			Queue:  job.NewIntakeQueue(1),
			Config: resyncConfig(),
			Logger: slog.Default(),
		})
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})

	t.Run("returns error when ledger is nil", func(t *testing.T) {
		_, err := NewResyncService(ResyncServiceOptions{Queue: job.NewIntakeQueue(1), Config: resyncConfig()})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ExportJobRepository is required")
	})

	t.Run("queue optional for dry run", func(t *testing.T) {
		_, err := NewResyncService(ResyncServiceOptions{Ledger: &mockResyncLedger{}, Config: resyncConfig()})
		require.Error(t, err)

		_, err = NewResyncService(ResyncServiceOptions{Ledger: &mockResyncLedger{}, Config: resyncConfig(), DryRun: true})
		require.NoError(t, err)
	})
}

func TestResyncService_RunOnce(t *testing.T) {
	t.Run("offers untracked pending jobs", func(t *testing.T) {
		ledger := &mockResyncLedger{staleJobs: pendingJobs("a", "b", "c")}
		queue := job.NewIntakeQueue(10)
		require.True(t, queue.Offer(model.ExportRequest{JobID: "b"}))
		sink := newCountingSink()

		svc, err := NewResyncService(ResyncServiceOptions{
			Ledger:  ledger,
			Queue:   queue,
			Config:  resyncConfig(),
			Metrics: sink,
			Now:     func() time.Time { return fixedNow },
		})
		require.NoError(t, err)

		res, err := svc.RunOnce(context.Background())
		require.NoError(t, err)

		assert.Equal(t, fixedNow.Add(-5*time.Minute), ledger.staleCutoff)
		assert.Equal(t, 50, ledger.staleLimit)
		assert.Equal(t, 3, res.Examined)
		assert.Equal(t, 2, res.Offered)
		assert.Equal(t, 1, res.Skipped)
		assert.Equal(t, []string{"a", "c"}, res.Candidates)
		assert.False(t, res.Saturated)

		ids := make([]string, 0, 3)
		for _, r := range queue.Snapshot() {
			ids = append(ids, r.JobID)
		}
		assert.Equal(t, []string{"b", "a", "c"}, ids)

		assert.Equal(t, int64(1), sink.counts["export.resync"])
		assert.Equal(t, int64(2), sink.counts["export.resync_offered"])
		assert.Equal(t, "success", sink.tags["export.resync"][0]["result"])
	})

	t.Run("in-flight jobs are skipped", func(t *testing.T) {
		ledger := &mockResyncLedger{staleJobs: pendingJobs("running")}
		queue := job.NewIntakeQueue(10)
		queue.Offer(model.ExportRequest{JobID: "running"})
		_, err := queue.Take(context.Background())
		require.NoError(t, err)

		svc, err := NewResyncService(ResyncServiceOptions{Ledger: ledger, Queue: queue, Config: resyncConfig()})
		require.NoError(t, err)

		res, err := svc.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, res.Skipped)
		assert.Zero(t, res.Offered)
		assert.Equal(t, 0, queue.Len())
	})

	t.Run("job finished after listing is not offered again", func(t *testing.T) {
		queue := job.NewIntakeQueue(10)
		require.True(t, queue.Offer(model.ExportRequest{JobID: "x", Handler: "h"}))

		ledger := &mockResyncLedger{staleJobs: pendingJobs("x", "y")}
		ledger.afterList = func() {
			// The worker completes x while the pass holds the stale listing.
			taken, err := queue.Take(context.Background())
			require.NoError(t, err)
			ledger.statuses = map[string]model.ExportStatus{taken.JobID: model.ExportStatusSucceeded}
			queue.Done(taken.JobID)
		}

		svc, err := NewResyncService(ResyncServiceOptions{Ledger: ledger, Queue: queue, Config: resyncConfig()})
		require.NoError(t, err)

		res, err := svc.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, res.Offered)
		assert.Equal(t, 1, res.Skipped)
		assert.Equal(t, []string{"y"}, res.Candidates)
		assert.False(t, queue.Tracked("x"))
		assert.Equal(t, 1, queue.Len())
	})

	t.Run("reload error aborts the pass", func(t *testing.T) {
		ledger := &mockResyncLedger{staleJobs: pendingJobs("a"), getErr: errors.New("db down")}
		queue := job.NewIntakeQueue(10)

		svc, err := NewResyncService(ResyncServiceOptions{Ledger: ledger, Queue: queue, Config: resyncConfig()})
		require.NoError(t, err)

		_, err = svc.RunOnce(context.Background())
		require.ErrorContains(t, err, "reload export job a")
		assert.Zero(t, queue.Len())
	})

	t.Run("stops at first rejected offer", func(t *testing.T) {
		ledger := &mockResyncLedger{staleJobs: pendingJobs("a", "b", "c")}
		queue := job.NewIntakeQueue(1)
		sink := newCountingSink()

		svc, err := NewResyncService(ResyncServiceOptions{
			Ledger:  ledger,
			Queue:   queue,
			Config:  resyncConfig(),
			Metrics: sink,
		})
		require.NoError(t, err)

		res, err := svc.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, res.Offered)
		assert.True(t, res.Saturated)
		assert.Equal(t, []string{"a"}, res.Candidates)
		assert.Equal(t, "dropped", sink.tags["export.resync"][0]["result"])
	})

	t.Run("dry run lists without offering", func(t *testing.T) {
		ledger := &mockResyncLedger{staleJobs: pendingJobs("a", "b")}

		svc, err := NewResyncService(ResyncServiceOptions{Ledger: ledger, Config: resyncConfig(), DryRun: true})
		require.NoError(t, err)

		res, err := svc.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, res.Candidates)
		assert.Zero(t, res.Offered)
	})

	t.Run("ledger error is returned", func(t *testing.T) {
		ledger := &mockResyncLedger{staleErr: errors.New("db down")}
		sink := newCountingSink()

		svc, err := NewResyncService(ResyncServiceOptions{
			Ledger:  ledger,
			Queue:   job.NewIntakeQueue(1),
			Config:  resyncConfig(),
			Metrics: sink,
		})
		require.NoError(t, err)

		_, err = svc.RunOnce(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db down")
		assert.Equal(t, "error", sink.tags["export.resync"][0]["result"])
		assert.NotEmpty(t, sink.tags["export.resync"][0]["error_class"])
	})
}

func TestResyncService_Pending(t *testing.T) {
	ledger := &mockResyncLedger{staleJobs: pendingJobs("a")}
	svc, err := NewResyncService(ResyncServiceOptions{Ledger: ledger, Config: resyncConfig(), DryRun: true})
	require.NoError(t, err)

	jobs, err := svc.Pending(context.Background())
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
	assert.Equal(t, 1, ledger.staleCalls)
}

func TestResyncService_Run(t *testing.T) {
	t.Run("returns nil on cancellation", func(t *testing.T) {
		cfg := resyncConfig()
		cfg.Interval = 10 * time.Millisecond
		ledger := &mockResyncLedger{}

		svc, err := NewResyncService(ResyncServiceOptions{Ledger: ledger, Queue: job.NewIntakeQueue(1), Config: cfg})
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		done := make(chan error, 1)
		go func() { done <- svc.Run(ctx) }()

		time.Sleep(50 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("Run did not stop")
		}
		assert.Positive(t, ledger.staleCalls)
	})

	t.Run("rejects non-positive interval", func(t *testing.T) {
		svc, err := NewResyncService(ResyncServiceOptions{
			Ledger: &mockResyncLedger{},
			Queue:  job.NewIntakeQueue(1),
		})
		require.NoError(t, err)
		require.Error(t, svc.Run(context.Background()))
	})
}
