package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/target/async-export/config"
	httpx "github.com/target/async-export/internal/http"
)

// HTTPServerConfig contains configuration for the HTTP gateway.
type HTTPServerConfig struct {
	Config   config.HTTPConfig
	Services *ServiceContainer
	Logger   *slog.Logger
}

// NewHTTPServer builds the gateway server without starting it.
func NewHTTPServer(cfg HTTPServerConfig) *http.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rs := httpx.RouterServices{
		MaxBodyBytes: cfg.Config.MaxBodyBytes,
		Logger:       logger,
	}
	if cfg.Services != nil {
		rs.Exports = cfg.Services.Exports
		rs.Readiness = cfg.Services.Readiness
		// Avoid storing a typed nil in the interface.
		if cfg.Services.Resync != nil {
			rs.Resync = cfg.Services.Resync
		}
		if cfg.Services.Metrics != nil {
			rs.Metrics = cfg.Services.Metrics.Handler()
		}
	}

	addr := cfg.Config.Addr
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	return &http.Server{
		Addr:              addr,
		Handler:           httpx.NewRouter(rs),
		ReadHeaderTimeout: cfg.Config.ReadHeaderTimeout,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// ServeHTTP runs srv until ctx is cancelled, then shuts it down within timeout.
func ServeHTTP(ctx context.Context, srv *http.Server, timeout time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	return ShutdownHTTPServer(srv, timeout, logger)
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(srv *http.Server, timeout time.Duration, logger *slog.Logger) error {
	if srv == nil {
		return nil
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	logger.Info("HTTP server stopped")
	return nil
}
