package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/async-export/internal/domain/job"
	"github.com/target/async-export/internal/domain/model"
	"github.com/target/async-export/internal/mocks"
	"go.uber.org/mock/gomock"
)

func pendingJobs(ids ...string) []*model.ExportJob {
	out := make([]*model.ExportJob, 0, len(ids))
	for _, id := range ids {
		out = append(out, &model.ExportJob{
			ID:      id,
			Handler: "exampleHandler",
			Params:  "p-" + id,
			Locale:  "en",
			Status:  model.ExportStatusPending,
		})
	}
	return out
}

func TestNewRecoveryService(t *testing.T) {
	ctrl := gomock.NewController(t)

	_, err := NewRecoveryService(RecoveryServiceOptions{Queue: job.NewIntakeQueue(1)})
	assert.ErrorContains(t, err, "ExportJobRepository is required")

	_, err = NewRecoveryService(RecoveryServiceOptions{Ledger: mocks.NewMockExportJobRepository(ctrl)})
	assert.ErrorContains(t, err, "RecoveryQueue is required")
}

func TestRecoveryService_Recover(t *testing.T) {
	t.Run("loads pending jobs in ledger order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		ledger := mocks.NewMockExportJobRepository(ctrl)
		queue := job.NewIntakeQueue(200)
		queue.Offer(model.ExportRequest{JobID: "stale"})
		sink := newCountingSink()

		ledger.EXPECT().ListByStatus(gomock.Any(), model.ExportStatusPending).
			Return(pendingJobs("j1", "j2", "j3"), nil)

		svc, err := NewRecoveryService(RecoveryServiceOptions{Ledger: ledger, Queue: queue, Metrics: sink})
		require.NoError(t, err)

		n, err := svc.Recover(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.Equal(t, 200, queue.Cap())
		assert.False(t, queue.Tracked("stale"))

		snap := queue.Snapshot()
		require.Len(t, snap, 3)
		assert.Equal(t, "j1", snap[0].JobID)
		assert.Equal(t, "p-j1", snap[0].Params)
		assert.Equal(t, "j3", snap[2].JobID)
		assert.InDelta(t, 3, sink.gauges["export.recovered"], 0)
	})

	t.Run("backlog larger than capacity grows the queue", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		ledger := mocks.NewMockExportJobRepository(ctrl)
		queue := job.NewIntakeQueue(2)

		ids := make([]string, 5)
		for i := range ids {
			ids[i] = fmt.Sprintf("j%d", i)
		}
		ledger.EXPECT().ListByStatus(gomock.Any(), model.ExportStatusPending).Return(pendingJobs(ids...), nil)

		svc, err := NewRecoveryService(RecoveryServiceOptions{Ledger: ledger, Queue: queue})
		require.NoError(t, err)

		n, err := svc.Recover(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 5, n)
		assert.Equal(t, 5, queue.Cap())
		assert.False(t, queue.Offer(model.ExportRequest{JobID: "extra"}))
	})

	t.Run("no pending jobs", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		ledger := mocks.NewMockExportJobRepository(ctrl)
		queue := job.NewIntakeQueue(0)

		ledger.EXPECT().ListByStatus(gomock.Any(), model.ExportStatusPending).Return(nil, nil)

		svc, err := NewRecoveryService(RecoveryServiceOptions{Ledger: ledger, Queue: queue})
		require.NoError(t, err)

		n, err := svc.Recover(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Equal(t, job.DefaultIntakeCapacity, queue.Cap())
	})

	t.Run("ledger failure leaves the queue untouched", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		ledger := mocks.NewMockExportJobRepository(ctrl)
		queue := job.NewIntakeQueue(3)
		queue.Offer(model.ExportRequest{JobID: "kept"})

		ledger.EXPECT().ListByStatus(gomock.Any(), model.ExportStatusPending).Return(nil, errors.New("connection refused"))

		svc, err := NewRecoveryService(RecoveryServiceOptions{Ledger: ledger, Queue: queue})
		require.NoError(t, err)

		_, err = svc.Recover(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
		assert.True(t, queue.Tracked("kept"))
	})
}
