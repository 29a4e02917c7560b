package core

import (
	"context"
	"time"

	"github.com/target/async-export/internal/domain/export"
	"github.com/target/async-export/internal/domain/model"
)

// This file contains the ports the export pipeline depends on.
// Services and the worker depend on these interfaces, not on concrete adapters.

// ExportJobRepository is the durable job ledger.
type ExportJobRepository interface {
	Create(ctx context.Context, job *model.ExportJob) (*model.ExportJob, error)
	UpdateStatus(ctx context.Context, params model.UpdateExportStatusParams) (int64, error)
	// ListByStatus returns records in creation order (oldest first).
	ListByStatus(ctx context.Context, status model.ExportStatus) ([]*model.ExportJob, error)
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*model.ExportJob, error)
	GetByID(ctx context.Context, id string) (*model.ExportJob, error)
	List(ctx context.Context, opts model.ExportJobListOptions) ([]*model.ExportJob, error)
	Stats(ctx context.Context) (*model.ExportJobStats, error)
}

// ExportQueue is the intake queue as seen by admission and re-sync.
type ExportQueue interface {
	Offer(req model.ExportRequest) bool
	Tracked(jobID string) bool
	Len() int
	Cap() int
}

// ColumnSpecRepository looks up a handler's column layout.
// GetByHandler returns (nil, nil) when the handler has no spec.
type ColumnSpecRepository interface {
	GetByHandler(ctx context.Context, handler string) (*export.ColumnSpec, error)
}

// ColumnSpecWriter stores column layouts. Used by the admin tooling.
type ColumnSpecWriter interface {
	Upsert(ctx context.Context, spec *export.ColumnSpec) error
}

// DictionaryRepository resolves and stores dictionary translations.
type DictionaryRepository interface {
	export.DictionaryLookup
	Set(ctx context.Context, key, entry string) error
}

// TabularFile describes one output file.
type TabularFile struct {
	Path    string
	Sheet   string
	Headers []string
	Rows    [][]string
}

// TabularWriter renders rows to a local file.
type TabularWriter interface {
	Write(ctx context.Context, file TabularFile) error
}

// PutObjectParams groups parameters for ObjectUploader.Put.
type PutObjectParams struct {
	Prefix    string
	Name      string
	LocalPath string
}

// ObjectUploader publishes a local file and returns the URL it can be downloaded from.
type ObjectUploader interface {
	Put(ctx context.Context, params PutObjectParams) (string, error)
}
