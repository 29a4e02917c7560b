package bootstrap

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/target/async-export/config"
	"github.com/target/async-export/internal/adapters/exporthandlers"
	"github.com/target/async-export/internal/adapters/objectstore"
	"github.com/target/async-export/internal/core"
	"github.com/target/async-export/internal/data"
	"github.com/target/async-export/internal/domain/export"
	"github.com/target/async-export/internal/observability/metrics"
)

// buildMetrics returns the Prometheus sink used by every component, or nil when metrics are disabled.
func buildMetrics(cfg config.ObservabilityMetricsConfig, reg *prometheus.Registry, logger *slog.Logger) *metrics.PromSink {
	if !cfg.IsEnabled() {
		return nil
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return metrics.NewPromSink(metrics.PromSinkOptions{
		Namespace:  cfg.Namespace,
		Registerer: reg,
		Gatherer:   reg,
		Logger:     logger,
	})
}

// sinkOf returns a Sink that is safe to call when metrics are disabled.
//
//nolint:ireturn // the sink is selected at runtime.
func sinkOf(s *metrics.PromSink) metrics.Sink {
	if s == nil {
		return metrics.NoopSink{}
	}
	return s
}

// NewUploader builds the object store selected by STORAGE_DRIVER.
//
//nolint:ireturn // the uploader implementation is selected at runtime.
func NewUploader(cfg config.StorageConfig, logger *slog.Logger) (core.ObjectUploader, error) {
	switch cfg.Driver {
	case config.StorageDriverS3:
		up, err := objectstore.NewS3Uploader(objectstore.S3Config{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Region:    cfg.Region,
			Bucket:    cfg.Bucket,
			UseSSL:    cfg.UseSSL,
			PublicURL: cfg.PublicURL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("create s3 uploader: %w", err)
		}
		return up, nil
	case config.StorageDriverLocal, "":
		return objectstore.NewLocalDiskUploader(cfg.LocalDir, cfg.PublicURL, logger), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

// NewColumnSpecs returns the column spec source: a YAML file when EXPORT_COLUMN_SPEC_FILE is set,
// otherwise the export_column_specs table.
//
//nolint:ireturn // the spec source is selected at runtime.
func NewColumnSpecs(db *sql.DB, cfg config.ExportConfig, logger *slog.Logger) (core.ColumnSpecRepository, error) {
	if cfg.ColumnSpecFile != "" {
		repo, err := data.LoadFileColumnSpecRepo(cfg.ColumnSpecFile)
		if err != nil {
			return nil, fmt.Errorf("load column specs: %w", err)
		}
		if logger != nil {
			logger.Info("column specs loaded from file", "path", cfg.ColumnSpecFile, "count", len(repo.Specs()))
		}
		return repo, nil
	}
	return data.NewColumnSpecRepo(db, data.RepoConfig{Logger: logger}), nil
}

// NewHandlerRegistry returns a registry holding every built-in export handler.
func NewHandlerRegistry() (*export.Registry, error) {
	reg := export.NewRegistry()
	if err := exporthandlers.Register(reg); err != nil {
		return nil, fmt.Errorf("register export handlers: %w", err)
	}
	return reg, nil
}
