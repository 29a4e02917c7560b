package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/async-export/internal/core"
	"github.com/target/async-export/internal/domain/model"
	"github.com/target/async-export/internal/observability/metrics"
)

// RecoveryQueue is the part of the intake queue recovery replaces.
type RecoveryQueue interface {
	Reset(capacity int, initial []model.ExportRequest)
	Cap() int
}

// RecoveryServiceOptions groups dependencies for RecoveryService.
type RecoveryServiceOptions struct {
	Ledger  core.ExportJobRepository // Required: job ledger
	Queue   RecoveryQueue            // Required: intake queue to seed
	Logger  *slog.Logger             // Optional: structured logger
	Metrics metrics.Sink             // Optional: metrics sink
}

// RecoveryService reloads unfinished work into the intake queue at startup.
type RecoveryService struct {
	ledger  core.ExportJobRepository
	queue   RecoveryQueue
	logger  *slog.Logger
	metrics metrics.Sink
}

// NewRecoveryService constructs a new RecoveryService.
func NewRecoveryService(opts RecoveryServiceOptions) (*RecoveryService, error) {
	if opts.Ledger == nil {
		return nil, errors.New("ExportJobRepository is required")
	}
	if opts.Queue == nil {
		return nil, errors.New("RecoveryQueue is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RecoveryService{
		ledger:  opts.Ledger,
		queue:   opts.Queue,
		logger:  logger.With("component", "recovery_service"),
		metrics: opts.Metrics,
	}, nil
}

// Recover replaces the queue contents with every pending ledger record, oldest first,
// and returns how many were loaded. The queue keeps its configured capacity unless the
// backlog is larger, in which case it grows to hold all of it.
//
// An error means the ledger could not be read; the caller must not start the worker.
func (s *RecoveryService) Recover(ctx context.Context) (int, error) {
	start := time.Now()
	jobs, err := s.ledger.ListByStatus(ctx, model.ExportStatusPending)
	if err != nil {
		return 0, fmt.Errorf("recover pending export jobs: %w", err)
	}

	reqs := make([]model.ExportRequest, 0, len(jobs))
	for _, job := range jobs {
		reqs = append(reqs, job.Request())
	}

	capacity := max(len(reqs), s.queue.Cap())
	s.queue.Reset(capacity, reqs)

	s.logger.InfoContext(ctx, "recovered pending export jobs",
		"count", len(reqs),
		"queue_cap", capacity,
		"duration", time.Since(start),
	)
	if s.metrics != nil {
		s.metrics.Gauge("export.recovered", float64(len(reqs)), nil)
		metrics.EmitQueueDepth(s.metrics, len(reqs), capacity)
	}
	return len(reqs), nil
}
