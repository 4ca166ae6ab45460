// Package analyzer inspects the structure of an uploaded file before any
// processing choice is made: a short preview, a header-row guess, a
// security-report format check, and a bounded row count.
package analyzer

import (
	"bufio"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "sunburst/internal/errors"
	"sunburst/internal/table"
)

// File type labels reported to clients.
const (
	FileTypeSecurityReport = "security_report"
	FileTypeGenericCSV     = "generic_csv"
)

// Result is the structural analysis of one file.
type Result struct {
	PreviewRows        [][]string `json:"preview_rows"`
	SuggestedHeaderRow int        `json:"suggested_header_row"`
	FileType           string     `json:"file_type"`
	IsSecurityReport   bool       `json:"is_security_report"`
	RowCount           int        `json:"row_count"`
	RowCountCapped     bool       `json:"row_count_capped"`
	Encoding           string     `json:"encoding"`
}

// Analyzer produces file previews and structure guesses.
type Analyzer struct {
	// PreviewRows is how many leading rows feed the preview and heuristics.
	PreviewRows int
	// MaxCountedRows bounds the row count scan.
	MaxCountedRows int

	reader *table.Reader
	logger *slog.Logger
}

// New returns an analyzer with the given preview depth and row-count cap.
func New(previewRows, maxCountedRows int, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	if previewRows <= 0 {
		previewRows = 10
	}
	if maxCountedRows <= 0 {
		maxCountedRows = 100000
	}
	return &Analyzer{
		PreviewRows:    previewRows,
		MaxCountedRows: maxCountedRows,
		reader:         table.NewReader(logger),
		logger:         logger.With(slog.String("component", "analyzer")),
	}
}

// Analyze inspects the file at path. Failures come back as *AnalysisError so
// the transport layer can relay the code and suggestions verbatim.
func (a *Analyzer) Analyze(path string) (*Result, error) {
	encoding := a.detectEncoding(path)

	preview, err := a.reader.RawRows(path, a.PreviewRows)
	if err != nil {
		a.logger.Warn("file analysis failed",
			slog.String("file", filepath.Base(path)),
			slog.String("error", err.Error()))
		return nil, apperrors.NewAnalysisFailedError(err)
	}
	if len(preview) == 0 {
		return nil, apperrors.NewEmptyFileError()
	}

	isSecurity := DetectSecurityReport(preview)
	fileType := FileTypeGenericCSV
	if isSecurity {
		fileType = FileTypeSecurityReport
	}

	count, capped := a.countRows(path, len(preview))

	result := &Result{
		PreviewRows:        preview,
		SuggestedHeaderRow: DetectHeaderRow(preview),
		FileType:           fileType,
		IsSecurityReport:   isSecurity,
		RowCount:           count,
		RowCountCapped:     capped,
		Encoding:           encoding,
	}

	a.logger.Info("file analyzed",
		slog.String("file", filepath.Base(path)),
		slog.String("file_type", fileType),
		slog.Int("suggested_header_row", result.SuggestedHeaderRow),
		slog.Int("row_count", count),
		slog.String("encoding", encoding))

	return result, nil
}

func (a *Analyzer) detectEncoding(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return "UTF-8"
	}
	defer f.Close()

	buf := make([]byte, 10*1024)
	n, _ := f.Read(buf)
	return table.DetectEncoding(buf[:n])
}

// DetectHeaderRow scores each preview row and returns the index of the most
// header-like one; on ties the earliest wins. The score rewards fully
// populated rows, high in-row uniqueness, and a textual row sitting above a
// numeric one, and penalizes title-like rows.
func DetectHeaderRow(rows [][]string) int {
	if len(rows) == 0 {
		return 0
	}

	scores := make([]float64, len(rows))
	for idx, row := range rows {
		if !anyNonEmpty(row) {
			continue
		}

		var score float64

		nonEmpty := 0
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				nonEmpty++
			}
		}
		if len(row) > 0 && nonEmpty == len(row) {
			score += 3
		}

		// uniqueness over raw cells, empties included
		if len(row) > 0 {
			unique := make(map[string]struct{}, len(row))
			for _, cell := range row {
				unique[cell] = struct{}{}
			}
			score += float64(len(unique)) / float64(len(row)) * 5
		}

		if idx < len(rows)-1 {
			if !anyNumericCell(row) && anyNumericCell(rows[idx+1]) {
				score += 4
			}
		}

		if nonEmpty == 1 {
			score -= 2
		}
		for _, cell := range row {
			if len(cell) > 20 && isUpper(cell) {
				score -= 1
				break
			}
		}

		scores[idx] = score
	}

	best := 0
	for i, s := range scores {
		if s > scores[best] {
			best = i
		}
	}
	return best
}

// dateRangePattern matches "M/D/YYYY ... - ... M/D/YYYY" report period lines.
var dateRangePattern = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}.*-.*\d{1,2}/\d{1,2}/\d{4}`)

// DetectSecurityReport checks the preview against the fixed report layout:
// a keyword title on row 0, a date range on row 1, and at least two of the
// expected column names on row 3. All three must hold.
func DetectSecurityReport(rows [][]string) bool {
	if len(rows) < 4 {
		return false
	}

	row0 := strings.ToLower(strings.Join(rows[0], " "))
	hasKeyword := false
	for _, kw := range []string{"report", "security", "incident", "threat", "scan"} {
		if strings.Contains(row0, kw) {
			hasKeyword = true
			break
		}
	}
	if !hasKeyword {
		return false
	}

	if !dateRangePattern.MatchString(strings.Join(rows[1], " ")) {
		return false
	}

	row3 := strings.ToLower(strings.Join(rows[3], " "))
	found := 0
	for _, col := range []string{"incident", "tag", "hit", "scan"} {
		if strings.Contains(row3, col) {
			found++
		}
	}
	return found >= 2
}

// countRows counts the rows of the file, stopping at the configured cap. CSV
// counts physical lines; Excel counts sheet rows. A read failure falls back
// to the preview length.
func (a *Analyzer) countRows(path string, previewLen int) (int, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		f, err := os.Open(path)
		if err != nil {
			return previewLen, false
		}
		defer f.Close()

		count := 0
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			count++
			if count >= a.MaxCountedRows {
				return count, true
			}
		}
		if scanner.Err() != nil {
			return previewLen, false
		}
		return count, false
	case ".xlsx", ".xls":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return previewLen, false
		}
		defer f.Close()
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return previewLen, false
		}
		rows, err := f.GetRows(sheets[0])
		if err != nil {
			return previewLen, false
		}
		if len(rows) > a.MaxCountedRows {
			return a.MaxCountedRows, true
		}
		return len(rows), false
	default:
		return previewLen, false
	}
}

func anyNonEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return true
		}
	}
	return false
}

func anyNumericCell(row []string) bool {
	for _, cell := range row {
		if cellIsNumeric(cell) {
			return true
		}
	}
	return false
}

func cellIsNumeric(cell string) bool {
	s := strings.NewReplacer(",", "", "$", "", "%", "").Replace(strings.TrimSpace(cell))
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// isUpper mirrors a string with cased letters that are all uppercase.
func isUpper(s string) bool {
	hasCased := false
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasCased = true
		}
	}
	return hasCased
}
