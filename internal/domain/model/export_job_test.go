package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportStatus_Valid(t *testing.T) {
	assert.True(t, ExportStatusPending.Valid())
	assert.True(t, ExportStatusSucceeded.Valid())
	assert.True(t, ExportStatusFailed.Valid())
	assert.False(t, ExportStatus("running").Valid())

	assert.False(t, ExportStatusPending.Terminal())
	assert.True(t, ExportStatusSucceeded.Terminal())
	assert.True(t, ExportStatusFailed.Terminal())
}

func TestExportStatus_UnmarshalText(t *testing.T) {
	var s ExportStatus
	require.NoError(t, s.UnmarshalText([]byte(" Failed ")))
	assert.Equal(t, ExportStatusFailed, s)

	err := s.UnmarshalText([]byte("done"))
	require.Error(t, err)
	assert.Equal(t, ExportStatusFailed, s)
}

func TestSubmitExportRequest_Validate(t *testing.T) {
	tests := []struct {
		name     string
		req      SubmitExportRequest
		errorMsg string
	}{
		{name: "valid", req: SubmitExportRequest{Handler: "exampleHandler", Locale: "en"}},
		{name: "empty params allowed", req: SubmitExportRequest{Handler: "exampleHandler"}},
		{name: "blank handler", req: SubmitExportRequest{Handler: "   "}, errorMsg: "handler is required"},
		{
			name:     "long handler",
			req:      SubmitExportRequest{Handler: strings.Repeat("h", 256)},
			errorMsg: "255 characters",
		},
		{
			name:     "long locale",
			req:      SubmitExportRequest{Handler: "h", Locale: strings.Repeat("l", 33)},
			errorMsg: "locale",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.errorMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestExportJob_Request(t *testing.T) {
	job := &ExportJob{
		ID:          "job-1",
		RequesterID: "u1",
		Handler:     "exampleHandler",
		MethodName:  "export",
		Params:      `{"a":1}`,
		Locale:      "en",
		Status:      ExportStatusPending,
	}

	assert.Equal(t, ExportRequest{
		JobID:       "job-1",
		RequesterID: "u1",
		Handler:     "exampleHandler",
		MethodName:  "export",
		Params:      `{"a":1}`,
		Locale:      "en",
	}, job.Request())
}

func TestExportJobListOptions_Normalized(t *testing.T) {
	tests := []struct {
		name       string
		in         ExportJobListOptions
		wantLimit  int
		wantOffset int
	}{
		{name: "defaults", in: ExportJobListOptions{}, wantLimit: DefaultListLimit},
		{name: "negative", in: ExportJobListOptions{Limit: -1, Offset: -5}, wantLimit: DefaultListLimit},
		{name: "within bounds", in: ExportJobListOptions{Limit: 20, Offset: 40}, wantLimit: 20, wantOffset: 40},
		{name: "over max", in: ExportJobListOptions{Limit: MaxListLimit + 1}, wantLimit: MaxListLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalized()
			assert.Equal(t, tt.wantLimit, got.Limit)
			assert.Equal(t, tt.wantOffset, got.Offset)
		})
	}
}
