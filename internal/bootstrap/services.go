package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/target/async-export/config"
	"github.com/target/async-export/internal/adapters/jobrunner"
	"github.com/target/async-export/internal/adapters/resync"
	"github.com/target/async-export/internal/adapters/xlsx"
	"github.com/target/async-export/internal/core"
	"github.com/target/async-export/internal/data"
	"github.com/target/async-export/internal/domain/export"
	"github.com/target/async-export/internal/domain/job"
	httpx "github.com/target/async-export/internal/http"
	"github.com/target/async-export/internal/observability/metrics"
	"github.com/target/async-export/internal/service"
	"golang.org/x/sync/errgroup"
)

// ServiceContainer holds the wired export pipeline.
type ServiceContainer struct {
	Queue    *job.IntakeQueue
	Ledger   core.ExportJobRepository
	Exports  *service.ExportService
	Recovery *service.RecoveryService
	Worker   *jobrunner.Runner
	// Resync is nil when the worker does not run in this process.
	Resync *resync.Runner
	// Metrics is nil when metrics are disabled.
	Metrics   *metrics.PromSink
	Readiness map[string]httpx.ReadinessCheck
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger

	// Optional overrides, mainly for tests.
	Ledger     core.ExportJobRepository
	Columns    core.ColumnSpecRepository
	Dictionary core.DictionaryRepository
	Uploader   core.ObjectUploader
	Writer     core.TabularWriter
	Registry   *prometheus.Registry
}

func (d *ServiceDeps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// resolveAdapters fills unset adapter overrides from config.
func (d *ServiceDeps) resolveAdapters() error {
	logger := d.logger()
	if d.Ledger == nil {
		d.Ledger = data.NewExportJobRepo(d.DB, data.RepoConfig{Logger: logger})
	}
	if d.Columns == nil {
		cols, err := NewColumnSpecs(d.DB, d.Config.Export, logger)
		if err != nil {
			return err
		}
		d.Columns = cols
	}
	if d.Dictionary == nil && d.RedisClient != nil {
		d.Dictionary = data.NewDictionaryRepo(data.DictionaryRepoOptions{
			Client:  d.RedisClient,
			HashKey: d.Config.Export.DictionaryHashKey,
			Logger:  logger,
		})
	}
	if d.Uploader == nil {
		up, err := NewUploader(d.Config.Storage, logger)
		if err != nil {
			return err
		}
		d.Uploader = up
	}
	if d.Writer == nil {
		d.Writer = xlsx.NewWriter(logger)
	}
	return nil
}

// NewServices wires the queue, worker, recovery, re-sync and gateway services.
func NewServices(deps *ServiceDeps) (*ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return nil, errors.New("service deps with config are required")
	}
	if err := deps.resolveAdapters(); err != nil {
		return nil, err
	}
	cfg := deps.Config
	logger := deps.logger()

	promSink := buildMetrics(cfg.Observability.Metrics, deps.Registry, logger)
	sink := sinkOf(promSink)

	queue := job.NewIntakeQueue(cfg.Export.QueueCapacity)

	handlers, err := NewHandlerRegistry()
	if err != nil {
		return nil, err
	}

	worker, err := jobrunner.NewRunner(jobrunner.RunnerOptions{
		Queue:    queue,
		Ledger:   deps.Ledger,
		Handlers: handlers,
		Columns:  deps.Columns,
		Projector: export.NewProjector(export.ProjectorOptions{
			Dictionary:    deps.Dictionary,
			NullValue:     cfg.Export.NullValue,
			DefaultLocale: cfg.Export.DefaultLocale,
		}),
		Writer:       deps.Writer,
		Uploader:     deps.Uploader,
		Logger:       logger,
		Metrics:      sink,
		TempDir:      cfg.Export.TempDir,
		FileSuffix:   cfg.Export.FileSuffix,
		SheetName:    cfg.Export.SheetName,
		UploadPrefix: cfg.Export.UploadPrefix,
		JobTimeout:   cfg.Export.JobTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create export worker: %w", err)
	}

	recovery, err := service.NewRecoveryService(service.RecoveryServiceOptions{
		Ledger:  deps.Ledger,
		Queue:   queue,
		Logger:  logger,
		Metrics: sink,
	})
	if err != nil {
		return nil, fmt.Errorf("create recovery service: %w", err)
	}

	// Without a local worker nothing drains this process's queue, so admission only
	// records the job and leaves it to a worker process.
	var admission core.ExportQueue = queue
	if !cfg.IsWorkerEnabled() {
		admission = service.LedgerOnlyQueue{}
	}

	exports, err := service.NewExportService(service.ExportServiceOptions{
		Ledger:      deps.Ledger,
		Queue:       admission,
		Logger:      logger,
		Metrics:     sink,
		WorkerStage: func() string { return string(worker.Stage()) },
	})
	if err != nil {
		return nil, fmt.Errorf("create export service: %w", err)
	}

	container := &ServiceContainer{
		Queue:     queue,
		Ledger:    deps.Ledger,
		Exports:   exports,
		Recovery:  recovery,
		Worker:    worker,
		Metrics:   promSink,
		Readiness: buildReadiness(deps.DB, deps.RedisClient),
	}

	// Re-sync only makes sense next to the worker that drains this queue.
	if cfg.IsWorkerEnabled() {
		runner, rerr := resync.NewRunner(resync.RunnerOptions{
			DB:      deps.DB,
			Queue:   queue,
			Config:  cfg.Resync,
			Logger:  logger,
			Ledger:  deps.Ledger,
			Metrics: sink,
		})
		if rerr != nil {
			return nil, fmt.Errorf("create resync runner: %w", rerr)
		}
		container.Resync = runner
	}

	return container, nil
}

func buildReadiness(db *sql.DB, rdb redis.UniversalClient) map[string]httpx.ReadinessCheck {
	checks := make(map[string]httpx.ReadinessCheck, 2)
	if db != nil {
		checks["postgres"] = db.PingContext
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return checks
}

// ServiceOrchestrationConfig contains everything RunServicesWithShutdown needs.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services *ServiceContainer
	Logger   *slog.Logger
}

// RunServicesWithShutdown recovers pending jobs, then runs every enabled service until
// SIGINT/SIGTERM or the first service failure.
func RunServicesWithShutdown(ctx context.Context, cfg *ServiceOrchestrationConfig) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return RunServices(ctx, cfg)
}

// RunServices is RunServicesWithShutdown without signal handling. It returns when ctx is
// cancelled or a service fails.
func RunServices(ctx context.Context, cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil || cfg.Services == nil {
		return errors.New("service orchestration config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	svcs := cfg.Services
	app := cfg.Config

	if app.IsWorkerEnabled() {
		// The queue must hold the recovered backlog before the worker or gateway touch it.
		n, err := svcs.Recovery.Recover(ctx)
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "pending exports recovered", "count", n, "queue_capacity", svcs.Queue.Cap())
	}

	g, gctx := errgroup.WithContext(ctx)

	if app.IsWorkerEnabled() {
		g.Go(func() error {
			if err := svcs.Worker.Run(gctx); err != nil {
				return fmt.Errorf("export worker: %w", err)
			}
			return nil
		})
	}

	if app.IsHTTPServerEnabled() {
		srv := NewHTTPServer(HTTPServerConfig{Config: app.HTTP, Services: svcs, Logger: logger})
		g.Go(func() error {
			return ServeHTTP(gctx, srv, app.HTTP.ShutdownTimeout, logger)
		})
	}

	if app.IsResyncEnabled() && svcs.Resync != nil {
		g.Go(func() error {
			if err := svcs.Resync.Run(gctx); err != nil {
				return fmt.Errorf("resync: %w", err)
			}
			return nil
		})
	}

	logger.InfoContext(ctx, "services started", "services", GetEnabledServices(app))
	err := g.Wait()
	if err != nil {
		logger.ErrorContext(ctx, "service error", "error", err)
		return err
	}
	logger.InfoContext(ctx, "services stopped", "processed", svcs.Worker.Processed())
	return nil
}
