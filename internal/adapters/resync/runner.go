// Package resync provides adapters for running the pending-job re-sync loop.
package resync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/async-export/config"
	"github.com/target/async-export/internal/core"
	"github.com/target/async-export/internal/data"
	"github.com/target/async-export/internal/observability/metrics"
	"github.com/target/async-export/internal/service"
)

// Runner provides a simple adapter to run the re-sync loop.
// It constructs the re-sync service against the Postgres ledger and runs it.
type Runner struct {
	svc    *service.ResyncService
	logger *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	DB     *sql.DB
	Queue  core.ExportQueue
	Config config.ResyncConfig
	Logger *slog.Logger

	// Optional dependency injection for testing/decoupling
	Ledger  core.ExportJobRepository
	Metrics metrics.Sink
	DryRun  bool
}

// NewRunner creates a new re-sync runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if err := validateRunnerOptions(&opts); err != nil {
		return nil, err
	}

	svc, err := wireResyncService(opts)
	if err != nil {
		return nil, fmt.Errorf("wire resync service: %w", err)
	}

	return &Runner{svc: svc, logger: opts.Logger}, nil
}

// validateRunnerOptions validates and sets defaults for RunnerOptions.
func validateRunnerOptions(opts *RunnerOptions) error {
	if opts.DB == nil && opts.Ledger == nil {
		return errors.New("database connection is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return nil
}

func wireResyncService(opts RunnerOptions) (*service.ResyncService, error) {
	ledger := opts.Ledger
	if ledger == nil {
		ledger = data.NewExportJobRepo(opts.DB, data.RepoConfig{Logger: opts.Logger})
	}

	return service.NewResyncService(service.ResyncServiceOptions{
		Ledger:  ledger,
		Queue:   opts.Queue,
		Config:  opts.Config,
		Logger:  opts.Logger,
		Metrics: opts.Metrics,
		DryRun:  opts.DryRun,
	})
}

// Run starts the re-sync loop and runs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting resync runner")
	return r.svc.Run(ctx)
}

// RunOnce performs a single pass.
func (r *Runner) RunOnce(ctx context.Context) (service.ResyncResult, error) {
	return r.svc.RunOnce(ctx)
}
