package resync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/async-export/config"
	"github.com/target/async-export/internal/domain/job"
	"github.com/target/async-export/internal/domain/model"
	"github.com/target/async-export/internal/mocks"
	"go.uber.org/mock/gomock"
)

func TestNewRunner_RequiresStorage(t *testing.T) {
	_, err := NewRunner(RunnerOptions{Queue: job.NewIntakeQueue(1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database connection is required")
}

func TestNewRunner_RequiresQueue(t *testing.T) {
	ctrl := gomock.NewController(t)
	_, err := NewRunner(RunnerOptions{Ledger: mocks.NewMockExportJobRepository(ctrl)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wire resync service")
}

func TestRunner_RunOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := mocks.NewMockExportJobRepository(ctrl)
	queue := job.NewIntakeQueue(5)

	ledger.EXPECT().ListStalePending(gomock.Any(), gomock.Any(), 20).Return([]*model.ExportJob{
		{ID: "a", Handler: "exampleHandler", Status: model.ExportStatusPending},
	}, nil)
	ledger.EXPECT().GetByID(gomock.Any(), "a").Return(&model.ExportJob{ID: "a", Status: model.ExportStatusPending}, nil)

	r, err := NewRunner(RunnerOptions{
		Ledger: ledger,
		Queue:  queue,
		Config: config.ResyncConfig{Interval: time.Minute, MinAge: time.Minute, BatchSize: 20},
	})
	require.NoError(t, err)

	res, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Offered)
	assert.True(t, queue.Tracked("a"))
}
