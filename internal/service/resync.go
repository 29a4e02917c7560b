package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/async-export/config"
	"github.com/target/async-export/internal/core"
	"github.com/target/async-export/internal/domain/model"
	obserrors "github.com/target/async-export/internal/observability/errors"
	"github.com/target/async-export/internal/observability/metrics"
)

// ResyncServiceOptions groups dependencies for ResyncService.
type ResyncServiceOptions struct {
	Ledger  core.ExportJobRepository // Required: job ledger
	Queue   core.ExportQueue         // Required unless DryRun: intake queue to re-offer into
	Config  config.ResyncConfig      // Required: re-sync configuration
	Logger  *slog.Logger             // Optional: structured logger
	Metrics metrics.Sink             // Optional: metrics sink
	Now     func() time.Time         // Optional: clock, defaults to time.Now
	DryRun  bool                     // Optional: list candidates without offering
}

// ResyncService re-offers pending ledger records that are neither queued nor in flight.
// Such records exist when an offer was dropped because the intake queue was full.
type ResyncService struct {
	ledger  core.ExportJobRepository
	queue   core.ExportQueue
	config  config.ResyncConfig
	logger  *slog.Logger
	metrics metrics.Sink
	now     func() time.Time
	dryRun  bool
}

// ResyncResult summarizes one re-sync pass.
type ResyncResult struct {
	Examined   int      `json:"examined"`
	Offered    int      `json:"offered"`
	Skipped    int      `json:"skipped"`
	Candidates []string `json:"candidates,omitempty"`
	// Saturated is set when the queue rejected an offer and the pass stopped early.
	Saturated bool `json:"saturated"`
}

// NewResyncService constructs a new ResyncService.
func NewResyncService(opts ResyncServiceOptions) (*ResyncService, error) {
	if opts.Ledger == nil {
		return nil, errors.New("ExportJobRepository is required")
	}
	if opts.Queue == nil && !opts.DryRun {
		return nil, errors.New("ExportQueue is required")
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "resync_service")
		logger.Debug("ResyncService initialized",
			"interval", opts.Config.Interval,
			"min_age", opts.Config.MinAge,
			"batch_size", opts.Config.BatchSize,
			"dry_run", opts.DryRun,
		)
	}

	return &ResyncService{
		ledger:  opts.Ledger,
		queue:   opts.Queue,
		config:  opts.Config,
		logger:  logger,
		metrics: opts.Metrics,
		now:     now,
		dryRun:  opts.DryRun,
	}, nil
}

// Run starts the re-sync loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *ResyncService) Run(ctx context.Context) error {
	if s.config.Interval <= 0 {
		return errors.New("resync interval must be positive")
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting resync service", "interval", s.config.Interval)
	}

	// Add jitter to prevent thundering herd if multiple instances start together
	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	return s.runLoop(ctx, ticker)
}

// waitWithJitter adds a random delay up to 10% of the interval.
func (s *ResyncService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		}
		return
	}

	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}

func (s *ResyncService) runLoop(ctx context.Context, ticker *time.Ticker) error {
	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "resync service stopping", "reason", ctx.Err())
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logPassError(err)
			}
		}
	}
}

// RunOnce performs a single pass. Records older than the configured minimum age
// are examined oldest first. Records the queue already tracks, and records that are no
// longer pending when re-read, are skipped. The pass stops at the first rejected offer.
func (s *ResyncService) RunOnce(ctx context.Context) (ResyncResult, error) {
	start := time.Now()
	res, err := s.pass(ctx)
	s.emitPassMetrics(res, err, time.Since(start))
	return res, err
}

func (s *ResyncService) pass(ctx context.Context) (ResyncResult, error) {
	var res ResyncResult

	cutoff := s.now().Add(-s.config.MinAge)
	jobs, err := s.ledger.ListStalePending(ctx, cutoff, s.config.BatchSize)
	if err != nil {
		return res, fmt.Errorf("list stale pending jobs: %w", err)
	}
	res.Examined = len(jobs)

	for _, job := range jobs {
		if s.queue != nil && s.queue.Tracked(job.ID) {
			res.Skipped++
			continue
		}
		if s.dryRun {
			res.Candidates = append(res.Candidates, job.ID)
			continue
		}
		pending, err := s.stillPending(ctx, job.ID)
		if err != nil {
			return res, err
		}
		if !pending {
			res.Skipped++
			continue
		}
		res.Candidates = append(res.Candidates, job.ID)
		if !s.queue.Offer(job.Request()) {
			res.Saturated = true
			res.Candidates = res.Candidates[:len(res.Candidates)-1]
			break
		}
		res.Offered++
	}

	s.logPass(ctx, res)
	return res, nil
}

// stillPending re-reads a listed record. The listing is a snapshot, so a job the worker
// finished after it was taken must not be offered again.
func (s *ResyncService) stillPending(ctx context.Context, id string) (bool, error) {
	current, err := s.ledger.GetByID(ctx, id)
	if errors.Is(err, model.ErrExportJobNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reload export job %s: %w", id, err)
	}
	return current.Status == model.ExportStatusPending, nil
}

func (s *ResyncService) logPass(ctx context.Context, res ResyncResult) {
	if s.logger == nil {
		return
	}
	if res.Saturated {
		s.logger.WarnContext(ctx, "intake queue full during resync",
			"offered", res.Offered,
			"queue_len", s.queue.Len(),
			"queue_cap", s.queue.Cap(),
		)
	}
	if res.Offered > 0 || (s.dryRun && len(res.Candidates) > 0) {
		s.logger.InfoContext(ctx, "resynced pending export jobs",
			"examined", res.Examined,
			"offered", res.Offered,
			"skipped", res.Skipped,
			"dry_run", s.dryRun,
		)
	}
}

func (s *ResyncService) emitPassMetrics(res ResyncResult, err error, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}

	result := metrics.ResultSuccess
	switch {
	case err != nil:
		result = metrics.ResultError
	case res.Saturated:
		result = metrics.ResultDropped
	case res.Offered == 0:
		result = metrics.ResultNoop
	}

	tags := map[string]string{
		"result":      result,
		"error_class": obserrors.Classify(suppressContextCancellation(err)),
	}

	s.metrics.Count("export.resync", 1, tags)
	s.metrics.Timing("export.resync_duration", elapsed, metrics.CloneTags(tags))
	if res.Offered > 0 {
		s.metrics.Count("export.resync_offered", int64(res.Offered), nil)
	}
	if err == nil {
		s.metrics.Gauge("export.resync_last_success_epoch", float64(s.now().Unix()), nil)
	}
}

func (s *ResyncService) logPassError(err error) {
	if err == nil || s.logger == nil {
		return
	}
	if isContextCancellation(err) {
		s.logger.Debug("resync cancelled by context", "error", err)
		return
	}
	s.logger.Error("resync failed", "error", err)
}

// Pending lists the records a pass would examine, without touching the queue.
func (s *ResyncService) Pending(ctx context.Context) ([]*model.ExportJob, error) {
	return s.ledger.ListStalePending(ctx, s.now().Add(-s.config.MinAge), s.config.BatchSize)
}

func isContextCancellation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func suppressContextCancellation(err error) error {
	if isContextCancellation(err) {
		return nil
	}
	return err
}
