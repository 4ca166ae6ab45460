// Package services holds the application services between the HTTP layer
// and the aggregation engine: upload intake, file analysis, chart builds,
// and artifact reads.
package services

import (
	"log/slog"

	"sunburst/internal/aggregator"
	"sunburst/internal/analyzer"
	"sunburst/internal/config"
	"sunburst/internal/operations"
	"sunburst/internal/profile"
	"sunburst/internal/schema"
	"sunburst/internal/store/sqlite"
	"sunburst/internal/table"
)

// ChartService orchestrates the upload-analyze-process-read lifecycle.
type ChartService struct {
	cfg      *config.Config
	reader   *table.Reader
	analyzer *analyzer.Analyzer
	profiler *profile.Profiler
	registry *schema.Registry
	palette  *aggregator.Palette
	limits   aggregator.Limits
	runner   *operations.Runner
	store    *sqlite.Store
	logger   *slog.Logger
}

// NewChartService wires the service from its collaborators. store may be
// nil when legacy report mode is not in use.
func NewChartService(cfg *config.Config, store *sqlite.Store, logger *slog.Logger) (*ChartService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	palette, err := aggregator.NewPalette(cfg.Processing.Palette)
	if err != nil {
		return nil, err
	}

	return &ChartService{
		cfg:      cfg,
		reader:   table.NewReader(logger),
		analyzer: analyzer.New(cfg.Processing.PreviewRows, cfg.Processing.MaxCountedRows, logger),
		profiler: profile.NewProfiler(cfg.Processing.ProfileRows, logger),
		registry: schema.NewRegistry(),
		palette:  palette,
		runner:   operations.NewRunner(cfg.Processing.OperationTimeout, cfg.Processing.ProgressBuffer, logger),
		store:    store,
		logger:   logger.With(slog.String("component", "chart-service")),
		limits: aggregator.Limits{
			MinLevels: cfg.Processing.MinHierarchy,
			MinRows:   cfg.Processing.MinRows,
		},
	}, nil
}

// Registry exposes the report-type registry for transport-level reads.
func (s *ChartService) Registry() *schema.Registry {
	return s.registry
}
