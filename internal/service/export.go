package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/target/async-export/internal/core"
	"github.com/target/async-export/internal/domain/model"
	apperrors "github.com/target/async-export/internal/errors"
	"github.com/target/async-export/internal/observability/metrics"
)

// ExportServiceOptions groups dependencies for ExportService.
type ExportServiceOptions struct {
	Ledger      core.ExportJobRepository // Required: job ledger
	Queue       core.ExportQueue         // Required: intake queue
	Logger      *slog.Logger             // Optional: structured logger
	Metrics     metrics.Sink             // Optional: metrics sink
	Now         func() time.Time         // Optional: clock, defaults to time.Now
	NewID       func() string            // Optional: job id generator
	WorkerStage func() string            // Optional: reports the worker stage in Stats
}

// ExportService admits export requests and answers ledger queries.
type ExportService struct {
	ledger      core.ExportJobRepository
	queue       core.ExportQueue
	logger      *slog.Logger
	metrics     metrics.Sink
	now         func() time.Time
	newID       func() string
	workerStage func() string
}

// LedgerOnlyQueue rejects every offer. Processes without a local worker use it so that
// submitted jobs stay pending until a worker process recovers or re-syncs them.
type LedgerOnlyQueue struct{}

func (LedgerOnlyQueue) Offer(model.ExportRequest) bool { return false }
func (LedgerOnlyQueue) Tracked(string) bool            { return false }
func (LedgerOnlyQueue) Len() int                       { return 0 }
func (LedgerOnlyQueue) Cap() int                       { return 0 }

// SubmitResult is returned by Submit. Enqueued is false when the queue was full or the
// process has no local worker; the job is still recorded as pending.
type SubmitResult struct {
	Job      *model.ExportJob `json:"job"`
	Enqueued bool             `json:"enqueued"`
}

// ExportStats combines ledger counts with the in-memory queue state.
type ExportStats struct {
	Ledger        *model.ExportJobStats `json:"ledger"`
	QueueDepth    int                   `json:"queue_depth"`
	QueueCapacity int                   `json:"queue_capacity"`
	QueuedJobIDs  []string              `json:"queued_job_ids,omitempty"`
	WorkerStage   string                `json:"worker_stage,omitempty"`
}

// queueSnapshotter is implemented by queues that can list their contents.
type queueSnapshotter interface {
	Snapshot() []model.ExportRequest
}

// NewExportService constructs a new ExportService.
func NewExportService(opts ExportServiceOptions) (*ExportService, error) {
	if opts.Ledger == nil {
		return nil, errors.New("ExportJobRepository is required")
	}
	if opts.Queue == nil {
		return nil, errors.New("ExportQueue is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	newID := opts.NewID
	if newID == nil {
		newID = NewJobID
	}
	return &ExportService{
		ledger:      opts.Ledger,
		queue:       opts.Queue,
		logger:      logger.With("component", "export_service"),
		metrics:     opts.Metrics,
		now:         now,
		newID:       newID,
		workerStage: opts.WorkerStage,
	}, nil
}

// MustNewExportService constructs a new ExportService and panics on error.
func MustNewExportService(opts ExportServiceOptions) *ExportService {
	svc, err := NewExportService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create ExportService: %v", err))
	}
	return svc
}

// NewJobID returns a random 32-character hex id.
func NewJobID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Submit records a pending job and offers it to the intake queue.
// The ledger write completes before the offer. A ledger failure is returned and
// nothing is enqueued; a full queue is not an error.
func (s *ExportService) Submit(ctx context.Context, req *model.SubmitExportRequest) (*SubmitResult, error) {
	if req == nil {
		return nil, apperrors.ValidationField("body", "request body is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.ValidationField("handler", err.Error())
	}

	job, err := s.ledger.Create(ctx, &model.ExportJob{
		ID:          s.newID(),
		RequesterID: req.RequesterID,
		Handler:     req.Handler,
		MethodName:  req.MethodName,
		Params:      req.Params,
		Locale:      req.Locale,
		Status:      model.ExportStatusPending,
		RetryCount:  0,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to record export job", "handler", req.Handler, "error", err)
		return nil, fmt.Errorf("record export job: %w", err)
	}

	enqueued := s.queue.Offer(job.Request())
	result := metrics.ResultSuccess
	switch {
	case enqueued:
		s.logger.InfoContext(ctx, "export job submitted", "job_id", job.ID, "handler", job.Handler)
	case s.queue.Cap() == 0:
		result = metrics.ResultNoop
		s.logger.InfoContext(ctx, "no local export worker, job left pending for recovery",
			"job_id", job.ID,
			"handler", job.Handler,
		)
	default:
		result = metrics.ResultDropped
		s.logger.WarnContext(ctx, "intake queue full, export job left pending",
			"job_id", job.ID,
			"handler", job.Handler,
			"queue_cap", s.queue.Cap(),
		)
	}
	metrics.EmitExportLifecycle(s.metrics, metrics.ExportMetric{
		Handler:    job.Handler,
		Transition: "submitted",
		Result:     result,
	})
	metrics.EmitQueueDepth(s.metrics, s.queue.Len(), s.queue.Cap())

	return &SubmitResult{Job: job, Enqueued: enqueued}, nil
}

// Get returns a ledger record by id.
func (s *ExportService) Get(ctx context.Context, id string) (*model.ExportJob, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.ValidationField("id", "id is required")
	}
	job, err := s.ledger.GetByID(ctx, id)
	if errors.Is(err, model.ErrExportJobNotFound) {
		return nil, apperrors.NotFound(fmt.Sprintf("export job %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("get export job: %w", err)
	}
	return job, nil
}

// List returns ledger records newest first.
func (s *ExportService) List(ctx context.Context, opts model.ExportJobListOptions) ([]*model.ExportJob, error) {
	if opts.Status != nil && !opts.Status.Valid() {
		return nil, apperrors.ValidationField("status", fmt.Sprintf("invalid status %q", *opts.Status))
	}
	if opts.Limit < 0 || opts.Offset < 0 {
		return nil, apperrors.ValidationField("limit", "limit and offset must not be negative")
	}
	jobs, err := s.ledger.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list export jobs: %w", err)
	}
	return jobs, nil
}

// Stats returns ledger counts and the current queue state, including the ids waiting
// in the queue in FIFO order.
func (s *ExportService) Stats(ctx context.Context) (*ExportStats, error) {
	ledger, err := s.ledger.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("export job stats: %w", err)
	}
	stats := &ExportStats{
		Ledger:        ledger,
		QueueDepth:    s.queue.Len(),
		QueueCapacity: s.queue.Cap(),
	}
	if q, ok := s.queue.(queueSnapshotter); ok {
		for _, req := range q.Snapshot() {
			stats.QueuedJobIDs = append(stats.QueuedJobIDs, req.JobID)
		}
	}
	if s.workerStage != nil {
		stats.WorkerStage = s.workerStage()
	}
	return stats, nil
}
