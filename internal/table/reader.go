// Package table reads tabular files from disk into domain.Table grids.
// CSV input is charset-sniffed and decoded to UTF-8 before parsing; Excel
// input goes through excelize. Both readers hand back raw string cells and
// leave type coercion to the normalizer.
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"sunburst/pkg/contracts/domain"
)

// Options controls how a raw grid becomes a table.
type Options struct {
	// HeaderRow is the index of the header row in the raw grid. Rows above
	// it are discarded.
	HeaderRow int
	// SkipRows drops this many data rows immediately after the header.
	SkipRows int
	// MaxRows caps the number of data rows kept; 0 means no cap.
	MaxRows int
	// Sheet names the Excel worksheet to read; empty selects the first.
	Sheet string
}

// Reader loads CSV and Excel files into tables.
type Reader struct {
	logger *slog.Logger
}

// NewReader returns a file reader. A nil logger uses the default.
func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger.With(slog.String("component", "table-reader"))}
}

// Read loads the file at path, dispatching on its extension. ".csv" and
// ".txt" parse as CSV; ".xlsx" and ".xls" go through excelize.
func (r *Reader) Read(path string, opts Options) (*domain.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return r.ReadCSV(path, opts)
	case ".xlsx", ".xls":
		return r.ReadExcel(path, opts)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

// ReadCSV parses a CSV file, decoding it from its detected charset first.
func (r *Reader) ReadCSV(path string, opts Options) (*domain.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read csv file: %w", err)
	}

	decoded, charset := sniffAndDecode(data)
	if charset != "UTF-8" {
		r.logger.Debug("decoding csv from detected charset",
			slog.String("file", filepath.Base(path)),
			slog.String("charset", charset))
	}

	raw, err := ParseCSV(decoded)
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return Grid(raw, opts)
}

// ParseCSV reads CSV records from r. Ragged rows are accepted; the grid keeps
// each row at its own width.
func ParseCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows [][]string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// ReadExcel reads a worksheet from an Excel file.
func (r *Reader) ReadExcel(path string, opts Options) (*domain.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open excel file: %w", err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("excel file has no sheets")
		}
		sheet = sheets[0]
	}

	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	r.logger.Debug("read excel sheet",
		slog.String("file", filepath.Base(path)),
		slog.String("sheet", sheet),
		slog.Int("rows", len(raw)))

	return Grid(raw, opts)
}

// Grid slices the raw rows into headers and data per the options.
func Grid(raw [][]string, opts Options) (*domain.Table, error) {
	if opts.HeaderRow < 0 || opts.HeaderRow >= len(raw) {
		return nil, fmt.Errorf("header row %d out of range (%d rows)", opts.HeaderRow, len(raw))
	}

	headers := make([]string, len(raw[opts.HeaderRow]))
	for i, h := range raw[opts.HeaderRow] {
		headers[i] = strings.TrimSpace(h)
	}

	start := opts.HeaderRow + 1 + opts.SkipRows
	if start > len(raw) {
		start = len(raw)
	}
	rows := raw[start:]
	if opts.MaxRows > 0 && len(rows) > opts.MaxRows {
		rows = rows[:opts.MaxRows]
	}

	return domain.NewTable(headers, rows), nil
}

// RawRows loads a file as an untyped grid without header interpretation,
// for preview and structure analysis. maxRows of 0 reads everything.
func (r *Reader) RawRows(path string, maxRows int) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		decoded, _ := sniffAndDecode(data)
		raw, err := ParseCSV(decoded)
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		return capRows(raw, maxRows), nil
	case ".xlsx", ".xls":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("open excel file: %w", err)
		}
		defer f.Close()
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("excel file has no sheets")
		}
		raw, err := f.GetRows(sheets[0])
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
		}
		return capRows(raw, maxRows), nil
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

func capRows(rows [][]string, maxRows int) [][]string {
	if maxRows > 0 && len(rows) > maxRows {
		return rows[:maxRows]
	}
	return rows
}
