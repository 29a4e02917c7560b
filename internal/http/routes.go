package httpx

import (
	"log/slog"
	"net/http"

	"github.com/target/async-export/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Exports *service.ExportService
	// Optional: on-demand re-sync pass.
	Resync ResyncTrigger
	// Optional: Prometheus handler mounted at /metrics.
	Metrics http.Handler
	// Optional: dependency checks for /readyz.
	Readiness map[string]ReadinessCheck

	MaxBodyBytes int64
	Logger       *slog.Logger
}

// NewRouter creates and configures the HTTP router with logging and panic recovery.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	registerExportRoutes(mux, &ExportHandlers{Svc: services.Exports, Resync: services.Resync})
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("GET /readyz", readyHandler(services.Readiness))
	if services.Metrics != nil {
		mux.Handle("GET /metrics", services.Metrics)
	}

	var handler http.Handler = mux
	handler = LimitBody(services.MaxBodyBytes)(handler)
	handler = Logging(logger)(handler)
	return Recover(logger)(handler)
}

func registerExportRoutes(mux *http.ServeMux, h *ExportHandlers) {
	mux.HandleFunc("POST /export", h.Submit)
	// Older clients send the request body with GET.
	mux.HandleFunc("GET /export", h.Submit)
	mux.HandleFunc("GET /exports", h.List)
	mux.HandleFunc("GET /exports/stats", h.Stats)
	mux.HandleFunc("POST /exports/resync", h.RunResync)
	mux.HandleFunc("GET /exports/{id}", h.Get)
}
