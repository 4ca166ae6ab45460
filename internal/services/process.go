package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"sunburst/internal/aggregator"
	"sunburst/internal/operations"
	"sunburst/internal/schema"
	"sunburst/internal/table"
	api "sunburst/pkg/contracts/api/v1"
	"sunburst/pkg/contracts/domain"
)

// Process starts a generic chart build in the background and returns the
// job whose progress channel the transport streams. The job reads the
// file, validates and aggregates it, and persists the session artifact.
func (s *ChartService) Process(ctx context.Context, req api.ProcessRequest) (*operations.Job, error) {
	path, err := s.resolveUpload(req.FilePath)
	if err != nil {
		return nil, err
	}
	if !req.Generic() {
		return nil, fmt.Errorf("generic mode requires chartName, treeOrder and valueColumn")
	}

	s.logger.InfoContext(ctx, "starting generic processing",
		slog.String("chart_name", req.ChartName),
		slog.String("session_id", req.SessionID),
		slog.Any("tree_order", req.TreeOrder),
		slog.String("value_column", req.ValueColumn))

	job := s.runner.Start(ctx, "generic-chart", func(jobCtx context.Context, reporter *operations.Reporter) error {
		reporter.Progress(0, 0, "Reading file...")
		tbl, err := s.reader.Read(path, table.Options{HeaderRow: req.HeaderRow, SkipRows: req.SkipRows})
		if err != nil {
			return fmt.Errorf("read file: %w", err)
		}

		reporter.Progress(0, 0, "Validating data...")
		agg := aggregator.New(req.ChartName, req.TreeOrder, req.ValueColumn, s.logger)
		agg.Limits = s.limits
		root, err := agg.Build(jobCtx, tbl, reporter.Progress)
		if err != nil {
			return err
		}

		metadata := domain.ChartMetadata{
			ChartName:   req.ChartName,
			TreeOrder:   req.TreeOrder,
			ValueColumn: req.ValueColumn,
			SourceFile:  filepath.Base(path),
			Data:        root,
		}
		if err := s.writeArtifact(s.cfg.ArtifactPath(req.SessionID), metadata); err != nil {
			return err
		}

		// the aggregator reported (i, total) per top-level category; the
		// closing message must not move current or total backwards
		top := len(root.Children)
		reporter.Progress(top, top, "Complete!")
		return nil
	})

	return job, nil
}

// ProcessLegacy runs the fixed-schema report pipeline synchronously: pull
// the metadata rows, locate the header, load the rows into the sqlite
// store, derive the hierarchy from the detected report type, and fold the
// grouped counts into a tree.
func (s *ChartService) ProcessLegacy(ctx context.Context, req api.ProcessRequest) (*domain.ReportMetadata, error) {
	path, err := s.resolveUpload(req.FilePath)
	if err != nil {
		return nil, err
	}
	if req.ClientName == "" {
		return nil, fmt.Errorf("legacy mode requires clientName")
	}

	s.logger.InfoContext(ctx, "starting legacy processing",
		slog.String("client_name", req.ClientName),
		slog.String("file", req.FilePath))

	raw, err := s.reader.RawRows(path, 0)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}

	reportType, dateStart, dateEnd := aggregator.ExtractReportMetadata(raw)
	headerRow := aggregator.FindReportHeaderRow(raw)

	tbl, err := table.Grid(raw, table.Options{HeaderRow: headerRow})
	if err != nil {
		return nil, fmt.Errorf("shape report rows: %w", err)
	}

	// schema matching runs on the raw headers; ingestion then rewrites
	// them to the underscored form the chart fields use
	matched := s.registry.Match(tbl.Headers)
	if len(matched) == 0 {
		return nil, fmt.Errorf("no report type matches the file's columns")
	}
	detected := matched[len(matched)-1]
	tbl = normalizeHeaders(tbl)

	if s.store != nil {
		if err := s.store.InitFromTable(ctx, tbl); err != nil {
			return nil, fmt.Errorf("load report store: %w", err)
		}
	}

	treeOrder := schema.ChartFields(detected, func(col string) bool {
		for _, v := range tbl.Column(col) {
			if v != "" {
				return true
			}
		}
		return false
	})

	grouped, err := aggregator.GroupCounts(tbl, treeOrder)
	if err != nil {
		return nil, fmt.Errorf("group report rows: %w", err)
	}

	builder := aggregator.NewBuilder(req.ClientName, s.palette, s.logger)
	builder.FoldAll(grouped)

	metadata := domain.ReportMetadata{
		ReportType: reportType,
		DateStart:  dateStart,
		DateEnd:    dateEnd,
		TreeOrder:  treeOrder,
		Data:       builder.Tree(),
	}
	if err := s.writeArtifact(s.cfg.ArtifactPath(req.SessionID), metadata); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "legacy report processed",
		slog.String("report_type", detected),
		slog.Int("groups", len(grouped)),
		slog.Int("skipped_rows", builder.Skipped()))
	return &metadata, nil
}

// normalizeHeaders rewrites a table's headers to the underscored ingestion
// form so they line up with the fixed-schema chart fields.
func normalizeHeaders(t *domain.Table) *domain.Table {
	headers := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		headers[i] = domain.NormalizeColumnName(h)
	}
	return domain.NewTable(headers, t.Rows)
}

// writeArtifact persists a chart or report artifact as indented JSON.
func (s *ChartService) writeArtifact(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	s.logger.Info("artifact written", slog.String("path", filepath.Base(path)))
	return nil
}
