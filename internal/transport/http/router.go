// Package http wires the REST API: upload intake, file analysis, chart
// processing with server-sent progress, and artifact reads.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"sunburst/internal/config"
	apperrors "sunburst/internal/errors"
	"sunburst/internal/metrics"
	"sunburst/internal/middleware"
	"sunburst/internal/services"
)

// NewRouter assembles the full middleware chain and API surface.
func NewRouter(cfg *config.Config, svc *services.ChartService, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	errorHandler := apperrors.NewErrorHandler(logger)
	charts := NewChartHandler(cfg, svc, m, errorHandler, logger)
	health := NewHealthHandler(logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.RequestMetrics(m))

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		uploadLimiter := middleware.NewRateLimiter(cfg.Upload.RateRPS, cfg.Upload.RateBurst, logger)
		r.With(uploadLimiter.Handler).Post("/upload", charts.Upload)

		r.Post("/analyze", charts.Analyze)
		r.Get("/file-info", charts.FileInfo)
		r.Post("/validate-columns", charts.ValidateColumns)
		r.Post("/process", charts.Process)
		r.Get("/data", charts.Data)
		r.Get("/table-data", charts.TableDataQuery)
		r.Post("/table-data", charts.TableDataBody)

		r.Get("/health", health.HealthCheck)
		r.Get("/version", health.Version)
	})

	r.Method(http.MethodGet, "/metrics", m.Handler())

	return r
}
