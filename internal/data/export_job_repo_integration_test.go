package data

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/async-export/internal/domain/model"
	apperrors "github.com/target/async-export/internal/errors"
	"github.com/target/async-export/internal/testutil"
)

func TestExportJobRepo_Integration_Lifecycle(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		tp := NewFixedTimeProvider(base)
		repo := NewExportJobRepo(db, RepoConfig{TimeProvider: tp})
		ctx := context.Background()

		created, err := repo.Create(ctx, &model.ExportJob{
			ID:          "job1",
			RequesterID: "u1",
			Handler:     "exampleHandler",
			Params:      `{"a":1}`,
			Locale:      "en",
		})
		require.NoError(t, err)
		assert.Equal(t, model.ExportStatusPending, created.Status)
		assert.Equal(t, 0, created.RetryCount)
		assert.True(t, created.CreatedAt.Equal(base))
		assert.Nil(t, created.CompletedAt)

		_, err = repo.Create(ctx, &model.ExportJob{ID: "job1", Handler: "exampleHandler"})
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))

		tp.AddTime(time.Minute)
		url := "https://files.example.com/export/download/x.xlsx"
		n, err := repo.UpdateStatus(ctx, model.UpdateExportStatusParams{
			ID:        "job1",
			Status:    model.ExportStatusSucceeded,
			RowCount:  2,
			OutputURL: &url,
			Locale:    "en",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		got, err := repo.GetByID(ctx, "job1")
		require.NoError(t, err)
		assert.Equal(t, model.ExportStatusSucceeded, got.Status)
		assert.Equal(t, int64(2), got.RowCount)
		require.NotNil(t, got.OutputURL)
		assert.Equal(t, url, *got.OutputURL)
		require.NotNil(t, got.CompletedAt)
		assert.True(t, got.CompletedAt.Equal(base.Add(time.Minute)))

		msg := "second attempt"
		n, err = repo.UpdateStatus(ctx, model.UpdateExportStatusParams{
			ID:             "job1",
			Status:         model.ExportStatusFailed,
			FailureMessage: &msg,
		})
		require.NoError(t, err)
		assert.Zero(t, n, "terminal records are never rewritten")

		again, err := repo.GetByID(ctx, "job1")
		require.NoError(t, err)
		assert.Equal(t, model.ExportStatusSucceeded, again.Status)
		assert.Nil(t, again.FailureMessage)
		assert.Equal(t, url, *again.OutputURL)

		n, err = repo.UpdateStatus(ctx, model.UpdateExportStatusParams{ID: "missing", Status: model.ExportStatusFailed})
		require.NoError(t, err)
		assert.Zero(t, n)

		_, err = repo.GetByID(ctx, "missing")
		require.ErrorIs(t, err, model.ErrExportJobNotFound)
	})
}

func TestExportJobRepo_Integration_ListByStatusOrder(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		repo := NewExportJobRepo(db, RepoConfig{})
		ctx := context.Background()

		for i, id := range []string{"c", "a", "b"} {
			_, err := repo.Create(ctx, &model.ExportJob{
				ID:        id,
				Handler:   "exampleHandler",
				CreatedAt: base.Add(time.Duration(i) * time.Second),
			})
			require.NoError(t, err)
		}
		_, err := repo.UpdateStatus(ctx, model.UpdateExportStatusParams{ID: "a", Status: model.ExportStatusFailed})
		require.NoError(t, err)

		pending, err := repo.ListByStatus(ctx, model.ExportStatusPending)
		require.NoError(t, err)
		require.Len(t, pending, 2)
		assert.Equal(t, "c", pending[0].ID)
		assert.Equal(t, "b", pending[1].ID)

		stale, err := repo.ListStalePending(ctx, base.Add(time.Second), 10)
		require.NoError(t, err)
		require.Len(t, stale, 1)
		assert.Equal(t, "c", stale[0].ID)

		stats, err := repo.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, model.ExportJobStats{Pending: 2, Failed: 1}, *stats)

		failed := model.ExportStatusFailed
		list, err := repo.List(ctx, model.ExportJobListOptions{Status: &failed})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "a", list[0].ID)
	})
}
