// Package jobrunner runs the single export worker: it drains the intake queue, executes each
// job's handler, renders and uploads the file, and records a terminal status in the ledger.
package jobrunner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/target/async-export/internal/core"
	"github.com/target/async-export/internal/domain/export"
	"github.com/target/async-export/internal/domain/model"
	"github.com/target/async-export/internal/observability/metrics"
)

// Stage names the step of the job attempt the worker is currently in.
type Stage string

const (
	StageWait             Stage = "wait"
	StageDequeued         Stage = "dequeued"
	StageResolvingHandler Stage = "resolving_handler"
	StageExecuting        Stage = "executing"
	StageResolvingColumns Stage = "resolving_columns"
	StageProjecting       Stage = "projecting"
	StageWriting          Stage = "writing"
	StageUploading        Stage = "uploading"
	StageCleaning         Stage = "cleaning"
	StageCommitting       Stage = "committing"
)

// ErrColumnSpecMissing is the failure recorded when a handler has no usable column spec.
var ErrColumnSpecMissing = errors.New("column spec missing")

const (
	defaultFileSuffix   = "xlsx"
	defaultSheetName    = "Sheet1"
	defaultUploadPrefix = "export/download"
)

// JobSource is the queue side the worker consumes.
type JobSource interface {
	Take(ctx context.Context) (model.ExportRequest, error)
	Done(jobID string)
	Len() int
	Cap() int
}

// RunnerOptions configures the export worker.
type RunnerOptions struct {
	Queue     JobSource
	Ledger    core.ExportJobRepository
	Handlers  *export.Registry
	Columns   core.ColumnSpecRepository
	Projector *export.Projector
	Writer    core.TabularWriter
	Uploader  core.ObjectUploader

	Logger  *slog.Logger
	Metrics metrics.Sink

	TempDir      string        // defaults to os.TempDir()
	FileSuffix   string        // defaults to "xlsx"
	SheetName    string        // defaults to "Sheet1"
	UploadPrefix string        // defaults to "export/download"
	JobTimeout   time.Duration // 0 disables the per-job deadline

	// Optional hooks for tests.
	Now      func() time.Time
	FileName func(suffix string) string
}

// Runner is the single serial export worker.
type Runner struct {
	queue     JobSource
	ledger    core.ExportJobRepository
	handlers  *export.Registry
	columns   core.ColumnSpecRepository
	projector *export.Projector
	writer    core.TabularWriter
	uploader  core.ObjectUploader
	logger    *slog.Logger
	metrics   metrics.Sink

	tempDir      string
	suffix       string
	sheet        string
	uploadPrefix string
	jobTimeout   time.Duration
	now          func() time.Time
	fileName     func(string) string

	stage     atomic.Value // Stage
	processed atomic.Int64
}

// outcome is what the committing stage writes back to the ledger.
type outcome struct {
	rows int64
	url  string
	err  error
}

func resolveLogger(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func defaultFileName(suffix string) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + "." + suffix
}

// NewRunner validates dependencies and constructs the worker.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	switch {
	case opts.Queue == nil:
		return nil, errors.New("queue is required")
	case opts.Ledger == nil:
		return nil, errors.New("ledger is required")
	case opts.Handlers == nil:
		return nil, errors.New("handler registry is required")
	case opts.Columns == nil:
		return nil, errors.New("column spec repository is required")
	case opts.Writer == nil:
		return nil, errors.New("tabular writer is required")
	case opts.Uploader == nil:
		return nil, errors.New("object uploader is required")
	}

	projector := opts.Projector
	if projector == nil {
		projector = export.NewProjector(export.ProjectorOptions{})
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	fileName := opts.FileName
	if fileName == nil {
		fileName = defaultFileName
	}

	r := &Runner{
		queue:        opts.Queue,
		ledger:       opts.Ledger,
		handlers:     opts.Handlers,
		columns:      opts.Columns,
		projector:    projector,
		writer:       opts.Writer,
		uploader:     opts.Uploader,
		logger:       resolveLogger(opts.Logger).With("component", "export_worker"),
		metrics:      opts.Metrics,
		tempDir:      orDefault(opts.TempDir, os.TempDir()),
		suffix:       strings.TrimPrefix(orDefault(opts.FileSuffix, defaultFileSuffix), "."),
		sheet:        orDefault(opts.SheetName, defaultSheetName),
		uploadPrefix: orDefault(opts.UploadPrefix, defaultUploadPrefix),
		jobTimeout:   opts.JobTimeout,
		now:          now,
		fileName:     fileName,
	}
	r.stage.Store(StageWait)
	return r, nil
}

// Stage returns the step the worker is currently in.
func (r *Runner) Stage() Stage {
	s, _ := r.stage.Load().(Stage)
	return s
}

// Processed returns the number of jobs committed since start.
func (r *Runner) Processed() int64 {
	return r.processed.Load()
}

func (r *Runner) setStage(ctx context.Context, s Stage, jobID string) {
	r.stage.Store(s)
	if jobID != "" {
		r.logger.DebugContext(ctx, "export stage", "job_id", jobID, "stage", string(s))
	}
}

// Run processes jobs one at a time until ctx is cancelled. It returns nil on cancellation.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting export worker",
		"temp_dir", r.tempDir,
		"suffix", r.suffix,
		"job_timeout", r.jobTimeout,
	)
	for {
		r.setStage(ctx, StageWait, "")
		metrics.EmitQueueDepth(r.metrics, r.queue.Len(), r.queue.Cap())

		req, err := r.queue.Take(ctx)
		if err != nil {
			if ctx.Err() != nil {
				r.logger.InfoContext(ctx, "export worker stopped", "processed", r.Processed())
				return nil
			}
			return fmt.Errorf("take: %w", err)
		}
		r.processJob(ctx, req)
	}
}

// RunOnce takes and processes a single job. Used by tests and tooling.
func (r *Runner) RunOnce(ctx context.Context) error {
	req, err := r.queue.Take(ctx)
	if err != nil {
		return err
	}
	r.processJob(ctx, req)
	return nil
}

func (r *Runner) processJob(ctx context.Context, req model.ExportRequest) {
	start := r.now()
	r.setStage(ctx, StageDequeued, req.JobID)
	defer r.queue.Done(req.JobID)

	if !r.stillPending(ctx, req) {
		return
	}

	out := r.execute(ctx, req)

	r.setStage(ctx, StageCommitting, req.JobID)
	r.commit(ctx, req, out)
	r.processed.Add(1)

	transition, result := string(model.ExportStatusSucceeded), metrics.ResultSuccess
	if out.err != nil {
		transition, result = string(model.ExportStatusFailed), metrics.ResultError
	}
	metrics.EmitExportLifecycle(r.metrics, metrics.ExportMetric{
		Handler:    req.Handler,
		Transition: transition,
		Result:     result,
		Duration:   r.now().Sub(start),
		Rows:       out.rows,
		Err:        out.err,
	})
}

// stillPending reports whether the ledger record can still take a terminal status.
// A request may be queued twice, by admission and by a re-sync pass; the copy taken
// after the first commit must not produce a second file. When the ledger cannot be
// read the job runs and the conditional commit decides.
func (r *Runner) stillPending(ctx context.Context, req model.ExportRequest) bool {
	current, err := r.ledger.GetByID(ctx, req.JobID)
	switch {
	case errors.Is(err, model.ErrExportJobNotFound):
		r.logger.WarnContext(ctx, "export job has no ledger record, skipping", "job_id", req.JobID)
		return false
	case err != nil:
		r.logger.WarnContext(ctx, "export job status check failed", "job_id", req.JobID, "error", err)
		return true
	case current.Status != model.ExportStatusPending:
		r.logger.InfoContext(ctx, "export job no longer pending, skipping",
			"job_id", req.JobID, "status", current.Status)
		return false
	}
	return true
}

// execute runs every step up to committing. Panics from handlers become failures.
func (r *Runner) execute(ctx context.Context, req model.ExportRequest) (out outcome) {
	defer func() {
		if p := recover(); p != nil {
			out.err = fmt.Errorf("export panicked in stage %s: %v", r.Stage(), p)
		}
	}()

	r.setStage(ctx, StageResolvingHandler, req.JobID)
	h, err := r.handlers.Resolve(req.Handler)
	if err != nil {
		r.logger.WarnContext(ctx, "export handler not resolvable", "job_id", req.JobID, "handler", req.Handler)
		return outcome{err: err}
	}
	if c, ok := h.(export.Closer); ok {
		defer func() {
			if cerr := c.Close(); cerr != nil {
				r.logger.WarnContext(ctx, "export handler close failed", "job_id", req.JobID, "error", cerr)
			}
		}()
	}

	r.setStage(ctx, StageExecuting, req.JobID)
	rows, err := r.runHandler(ctx, h, req.Params)
	if err != nil {
		return outcome{err: fmt.Errorf("handler %s: %w", req.Handler, err)}
	}

	r.setStage(ctx, StageResolvingColumns, req.JobID)
	spec, err := r.columns.GetByHandler(ctx, req.Handler)
	if err != nil {
		return outcome{err: fmt.Errorf("load column spec: %w", err)}
	}
	if spec.Empty() {
		r.logger.WarnContext(ctx, "export column spec missing", "job_id", req.JobID, "handler", req.Handler)
		return outcome{err: fmt.Errorf("%w for handler %s", ErrColumnSpecMissing, req.Handler)}
	}

	r.setStage(ctx, StageProjecting, req.JobID)
	projected, err := r.projector.Project(ctx, export.ProjectInput{Spec: spec, Rows: rows, Locale: req.Locale})
	out.rows = int64(len(projected))
	if err != nil {
		out.err = fmt.Errorf("project: %w", err)
		return out
	}

	url, err := r.persist(ctx, req.JobID, core.TabularFile{
		Sheet:   r.sheet,
		Headers: spec.Labels(),
		Rows:    projected,
	})
	out.url, out.err = url, err
	return out
}

func (r *Runner) runHandler(ctx context.Context, h export.Handler, params string) ([]export.Row, error) {
	if r.jobTimeout <= 0 {
		return h.Export(ctx, params)
	}
	jobCtx, cancel := context.WithTimeout(ctx, r.jobTimeout)
	defer cancel()
	return h.Export(jobCtx, params)
}

// persist writes the temporary file, uploads it and always removes it afterwards.
func (r *Runner) persist(ctx context.Context, jobID string, file core.TabularFile) (string, error) {
	name := r.fileName(r.suffix)
	file.Path = filepath.Join(r.tempDir, name)

	defer func() {
		r.setStage(ctx, StageCleaning, jobID)
		if err := os.Remove(file.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			r.logger.WarnContext(ctx, "temp file cleanup failed", "job_id", jobID, "path", file.Path, "error", err)
		}
	}()

	r.setStage(ctx, StageWriting, jobID)
	if err := r.writer.Write(ctx, file); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	r.setStage(ctx, StageUploading, jobID)
	url, err := r.uploader.Put(ctx, core.PutObjectParams{
		Prefix:    r.uploadPrefix,
		Name:      name,
		LocalPath: file.Path,
	})
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	return url, nil
}

// commit always writes a terminal status, even when ctx was cancelled mid-job.
func (r *Runner) commit(ctx context.Context, req model.ExportRequest, out outcome) {
	ctx = context.WithoutCancel(ctx)
	params := model.UpdateExportStatusParams{
		ID:          req.JobID,
		RowCount:    out.rows,
		RetryCount:  0,
		Locale:      req.Locale,
		CompletedAt: r.now(),
	}
	if out.err != nil {
		msg := out.err.Error()
		params.Status = model.ExportStatusFailed
		params.FailureMessage = &msg
	} else {
		url := out.url
		params.Status = model.ExportStatusSucceeded
		params.OutputURL = &url
	}

	n, err := r.ledger.UpdateStatus(ctx, params)
	switch {
	case err != nil:
		r.logger.ErrorContext(ctx, "commit export status failed",
			"job_id", req.JobID, "status", params.Status, "error", err)
	case n == 0:
		r.logger.WarnContext(ctx, "commit export status matched no pending record", "job_id", req.JobID)
	case out.err != nil:
		r.logger.WarnContext(ctx, "export failed",
			"job_id", req.JobID, "handler", req.Handler, "rows", out.rows, "error", out.err)
	default:
		r.logger.InfoContext(ctx, "export succeeded",
			"job_id", req.JobID, "handler", req.Handler, "rows", out.rows, "url", out.url)
	}
}
