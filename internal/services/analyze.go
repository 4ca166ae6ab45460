package services

import (
	"context"
	"fmt"
	"os"

	"sunburst/internal/aggregator"
	"sunburst/internal/analyzer"
	apierrors "sunburst/internal/errors"
	"sunburst/internal/table"
	api "sunburst/pkg/contracts/api/v1"
)

// filePreviewRows is how many data rows FileInfo echoes back.
const filePreviewRows = 5

// resolveUpload maps a stored file name to its path, rejecting empty and
// stale references with the analyzer's structured errors.
func (s *ChartService) resolveUpload(name string) (string, error) {
	if name == "" {
		return "", apierrors.NewMissingFilePathError()
	}
	path := s.cfg.UploadPath(name)
	if _, err := os.Stat(path); err != nil {
		return "", apierrors.NewUploadNotFoundError()
	}
	return path, nil
}

// Analyze inspects an uploaded file's structure.
func (s *ChartService) Analyze(ctx context.Context, req api.AnalyzeRequest) (*api.AnalyzeResponse, error) {
	path, err := s.resolveUpload(req.FilePath)
	if err != nil {
		return nil, err
	}

	a := s.analyzer
	if req.NumRows > 0 && req.NumRows != a.PreviewRows {
		a = analyzer.New(req.NumRows, s.cfg.Processing.MaxCountedRows, s.logger)
	}

	result, err := a.Analyze(path)
	if err != nil {
		return nil, err
	}

	return &api.AnalyzeResponse{
		Success:            true,
		PreviewRows:        result.PreviewRows,
		SuggestedHeaderRow: result.SuggestedHeaderRow,
		FileType:           result.FileType,
		IsSecurityReport:   result.IsSecurityReport,
		RowCount:           result.RowCount,
		Encoding:           result.Encoding,
	}, nil
}

// FileInfo profiles the columns of an uploaded file read with the given
// header position.
func (s *ChartService) FileInfo(ctx context.Context, fileName string, headerRow, skipRows int) (*api.FileInfoResponse, error) {
	path, err := s.resolveUpload(fileName)
	if err != nil {
		return nil, err
	}

	tbl, err := s.reader.Read(path, table.Options{HeaderRow: headerRow, SkipRows: skipRows})
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	preview := make([]map[string]string, 0, filePreviewRows)
	for i := 0; i < tbl.Len() && i < filePreviewRows; i++ {
		record := make(map[string]string, len(tbl.Headers))
		for j, h := range tbl.Headers {
			record[h] = tbl.Cell(i, j)
		}
		preview = append(preview, record)
	}

	return &api.FileInfoResponse{
		Columns:   s.profiler.ProfileTable(tbl),
		RowCount:  tbl.Len(),
		Preview:   preview,
		FileName:  fileName,
		HeaderRow: headerRow,
		SkipRows:  skipRows,
	}, nil
}

// ValidateColumns dry-runs a column selection and reports every problem in
// one pass.
func (s *ChartService) ValidateColumns(ctx context.Context, req api.ValidateColumnsRequest) (*api.ValidateColumnsResponse, error) {
	path, err := s.resolveUpload(req.FilePath)
	if err != nil {
		return nil, err
	}

	tbl, err := s.reader.Read(path, table.Options{HeaderRow: req.HeaderRow, SkipRows: req.SkipRows})
	if err != nil {
		return &api.ValidateColumnsResponse{
			Valid:  false,
			Errors: []string{fmt.Sprintf("Failed to read file: %s", err)},
		}, nil
	}

	problems := aggregator.ValidateSelectionLimits(tbl, req.TreeOrder, req.ValueColumn, s.limits)
	return &api.ValidateColumnsResponse{
		Valid:    len(problems) == 0,
		Errors:   problems,
		Warnings: []string{},
	}, nil
}
