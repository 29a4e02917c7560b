package data

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/async-export/internal/domain/model"
)

func TestBuildExportJobListQuery(t *testing.T) {
	failed := model.ExportStatusFailed

	tests := []struct {
		name     string
		opts     model.ExportJobListOptions
		contains []string
		wantArgs []any
	}{
		{
			name:     "no filters uses default limit",
			opts:     model.ExportJobListOptions{},
			contains: []string{"WHERE NOT is_deleted ORDER BY", "LIMIT $1 OFFSET $2"},
			wantArgs: []any{defaultListLimit, 0},
		},
		{
			name: "status and requester",
			opts: model.ExportJobListOptions{Status: &failed, RequesterID: "u1", Limit: 5, Offset: 10},
			contains: []string{
				"AND status = $1",
				"AND requester_id = $2",
				"LIMIT $3 OFFSET $4",
			},
			wantArgs: []any{failed, "u1", 5, 10},
		},
		{
			name:     "limit is capped and negative offset clamped",
			opts:     model.ExportJobListOptions{Limit: 5000, Offset: -3},
			wantArgs: []any{maxListLimit, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildExportJobListQuery(tt.opts)
			for _, c := range tt.contains {
				assert.Contains(t, query, c)
			}
			assert.True(t, strings.HasPrefix(strings.TrimSpace(query), "SELECT"))
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestExportJobRepo_ValidatesBeforeQuerying(t *testing.T) {
	repo := NewExportJobRepo(nil, RepoConfig{})
	ctx := context.Background()

	_, err := repo.Create(ctx, &model.ExportJob{Handler: "h"})
	require.ErrorIs(t, err, ErrExportJobIDRequired)

	_, err = repo.Create(ctx, &model.ExportJob{ID: "x"})
	require.ErrorIs(t, err, ErrHandlerRequired)

	_, err = repo.UpdateStatus(ctx, model.UpdateExportStatusParams{})
	require.ErrorIs(t, err, ErrExportJobIDRequired)

	_, err = repo.UpdateStatus(ctx, model.UpdateExportStatusParams{ID: "x", Status: "done"})
	require.ErrorIs(t, err, ErrStatusNotTerminal)

	_, err = repo.UpdateStatus(ctx, model.UpdateExportStatusParams{ID: "x", Status: model.ExportStatusPending})
	require.ErrorIs(t, err, ErrStatusNotTerminal)

	_, err = repo.ListByStatus(ctx, "bogus")
	require.Error(t, err)

	_, err = repo.GetByID(ctx, " ")
	require.ErrorIs(t, err, ErrExportJobIDRequired)
}
