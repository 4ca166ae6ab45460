// Package api contains API contract definitions for the sunburst service.
// Version v1 represents the current stable API version.
package api

import (
	"sunburst/pkg/contracts/domain"
)

// AnalyzeRequest asks for a structural preview of an uploaded file.
type AnalyzeRequest struct {
	FilePath string `json:"filePath" validate:"required"`
	NumRows  int    `json:"numRows" validate:"omitempty,min=1,max=100"`
}

// AnalyzeResponse is the successful analysis payload.
type AnalyzeResponse struct {
	Success            bool       `json:"success"`
	PreviewRows        [][]string `json:"preview_rows"`
	SuggestedHeaderRow int        `json:"suggested_header_row"`
	FileType           string     `json:"file_type"`
	IsSecurityReport   bool       `json:"is_security_report"`
	RowCount           int        `json:"row_count"`
	Encoding           string     `json:"encoding"`
}

// FileInfoResponse describes the columns of an uploaded file.
type FileInfoResponse struct {
	Columns   []domain.ColumnProfile `json:"columns"`
	RowCount  int                    `json:"rowCount"`
	Preview   []map[string]string    `json:"preview"`
	FileName  string                 `json:"fileName"`
	HeaderRow int                    `json:"headerRow"`
	SkipRows  int                    `json:"skipRows"`
}

// ValidateColumnsRequest is a pre-flight check of a column selection.
type ValidateColumnsRequest struct {
	FilePath    string   `json:"filePath" validate:"required"`
	TreeOrder   []string `json:"treeOrder" validate:"required,min=1"`
	ValueColumn string   `json:"valueColumn" validate:"required"`
	HeaderRow   int      `json:"headerRow" validate:"omitempty,min=0"`
	SkipRows    int      `json:"skipRows" validate:"omitempty,min=0"`
}

// ValidateColumnsResponse reports every problem discovered in one pass.
type ValidateColumnsResponse struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// ProcessRequest starts tree construction. Generic mode requires ChartName,
// TreeOrder and ValueColumn; legacy fixed-schema mode requires ClientName.
type ProcessRequest struct {
	FilePath    string   `json:"filePath" validate:"required"`
	ChartName   string   `json:"chartName" validate:"omitempty,min=1,max=200"`
	TreeOrder   []string `json:"treeOrder" validate:"omitempty,min=3,dive,required"`
	ValueColumn string   `json:"valueColumn"`
	ClientName  string   `json:"clientName" validate:"omitempty,min=1,max=200"`
	SessionID   string   `json:"sessionId"`
	HeaderRow   int      `json:"headerRow" validate:"omitempty,min=0"`
	SkipRows    int      `json:"skipRows" validate:"omitempty,min=0"`
}

// Generic reports whether the request selects user-configured processing.
func (r ProcessRequest) Generic() bool {
	return r.ChartName != "" && len(r.TreeOrder) > 0 && r.ValueColumn != ""
}

// UploadResponse is returned after a successful file upload.
type UploadResponse struct {
	Message  string `json:"message"`
	FilePath string `json:"filePath"`
}

// TableDataRequest selects a page of flat rows, optionally filtered by
// column equality.
type TableDataRequest struct {
	SessionID    string            `json:"session_id"`
	Page         int               `json:"page" validate:"omitempty,min=1"`
	ItemsPerPage int               `json:"items_per_page" validate:"omitempty,min=1,max=1000"`
	Filters      map[string]string `json:"filters"`
	Paginate     bool              `json:"paginate"`
}

// TableDataResponse is one page of flat rows.
type TableDataResponse struct {
	Data       []map[string]string `json:"data"`
	Page       int                 `json:"page"`
	Total      int                 `json:"total"`
	TotalPages int                 `json:"total_pages"`
}
