package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	apperrors "sunburst/internal/errors"
	"sunburst/internal/store/sqlite"
	"sunburst/internal/table"
	api "sunburst/pkg/contracts/api/v1"
)

// Data returns the persisted chart artifact for the session. Sessions from
// before session scoping fall back to the unqualified artifact name.
func (s *ChartService) Data(ctx context.Context, sessionID string) (json.RawMessage, error) {
	path := s.cfg.ArtifactPath(sessionID)
	if _, err := os.Stat(path); err != nil {
		path = s.cfg.FallbackArtifactPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.ErrDataNotFound
	}
	return data, nil
}

// artifactHead reads just enough of an artifact to tell generic chart
// metadata from legacy report metadata.
type artifactHead struct {
	ChartName  string   `json:"chart_name"`
	SourceFile string   `json:"source_file"`
	TreeOrder  []string `json:"tree_order"`
}

// TableData returns a page of the flat rows behind the session's chart.
// Generic charts read back their source CSV; legacy reports query the
// sqlite store. A session with no artifact gets an empty page.
func (s *ChartService) TableData(ctx context.Context, req api.TableDataRequest) (*api.TableDataResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.ItemsPerPage < 1 {
		req.ItemsPerPage = 20
	}

	head, found, err := s.peekArtifact(req.SessionID)
	if err != nil {
		return nil, err
	}
	if !found {
		return &api.TableDataResponse{Data: []map[string]string{}, Page: 1}, nil
	}

	if head.ChartName != "" && head.SourceFile != "" {
		return s.genericTableData(head.SourceFile, req)
	}
	return s.legacyTableData(ctx, req)
}

func (s *ChartService) peekArtifact(sessionID string) (artifactHead, bool, error) {
	path := s.cfg.ArtifactPath(sessionID)
	if _, err := os.Stat(path); err != nil {
		path = s.cfg.FallbackArtifactPath()
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return artifactHead{}, false, nil
	}
	if err != nil {
		return artifactHead{}, false, fmt.Errorf("read artifact: %w", err)
	}

	var head artifactHead
	if err := json.Unmarshal(data, &head); err != nil {
		return artifactHead{}, false, fmt.Errorf("decode artifact: %w", err)
	}
	return head, true, nil
}

// genericTableData filters and pages the chart's source CSV in memory.
func (s *ChartService) genericTableData(sourceFile string, req api.TableDataRequest) (*api.TableDataResponse, error) {
	path := s.cfg.UploadPath(sourceFile)
	if _, err := os.Stat(path); err != nil {
		return nil, apperrors.ErrFileNotFound
	}

	tbl, err := s.reader.Read(path, table.Options{})
	if err != nil {
		return nil, fmt.Errorf("read source file: %w", err)
	}

	filterIdx := make(map[int]string)
	for col, want := range req.Filters {
		if want == "" {
			continue
		}
		if idx := tbl.ColumnIndex(col); idx >= 0 {
			filterIdx[idx] = want
		}
	}

	var matched []int
rowLoop:
	for i := 0; i < tbl.Len(); i++ {
		for idx, want := range filterIdx {
			if tbl.Cell(i, idx) != want {
				continue rowLoop
			}
		}
		matched = append(matched, i)
	}

	total := len(matched)
	start := (req.Page - 1) * req.ItemsPerPage
	end := start + req.ItemsPerPage
	if !req.Paginate {
		start, end = 0, total
	}
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	data := make([]map[string]string, 0, end-start)
	for _, rowIdx := range matched[start:end] {
		record := make(map[string]string, len(tbl.Headers))
		for j, h := range tbl.Headers {
			record[h] = tbl.Cell(rowIdx, j)
		}
		data = append(data, record)
	}

	totalPages := 1
	if req.Paginate {
		totalPages = (total + req.ItemsPerPage - 1) / req.ItemsPerPage
	}

	return &api.TableDataResponse{
		Data:       data,
		Page:       req.Page,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

func (s *ChartService) legacyTableData(ctx context.Context, req api.TableDataRequest) (*api.TableDataResponse, error) {
	if s.store == nil {
		return &api.TableDataResponse{Data: []map[string]string{}, Page: 1}, nil
	}

	page, err := s.store.Query(ctx, sqlite.QueryOptions{
		Page:     req.Page,
		PerPage:  req.ItemsPerPage,
		Filters:  req.Filters,
		Paginate: req.Paginate,
	})
	if err != nil {
		return nil, fmt.Errorf("query report store: %w", err)
	}

	return &api.TableDataResponse{
		Data:       page.Data,
		Page:       page.Page,
		Total:      page.Total,
		TotalPages: page.TotalPages,
	}, nil
}
