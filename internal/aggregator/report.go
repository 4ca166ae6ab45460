package aggregator

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"sunburst/pkg/contracts/domain"
)

// Fixed-schema reports carry two metadata rows above the data: the report
// type on row 0 and a date span on row 1, e.g.
// "01/01/2025 00:00 - 01/31/2025 23:59".

const reportDateLayout = "1/2/2006 15:04"

// ReportHeaderSearchLimit bounds how far past the metadata rows the header
// scan looks.
const ReportHeaderSearchLimit = 7

// headerSearchStart is the first row that can hold the data header.
const headerSearchStart = 3

// ExtractReportMetadata pulls the report type and formatted date range from
// the metadata rows. Dates that fail to parse are kept verbatim.
func ExtractReportMetadata(rows [][]string) (reportType, dateStart, dateEnd string) {
	if len(rows) > 0 && len(rows[0]) > 0 {
		reportType = strings.Trim(strings.TrimSpace(rows[0][0]), `"`)
	}
	if len(rows) > 1 && len(rows[1]) > 0 {
		span := strings.Trim(strings.TrimSpace(rows[1][0]), `"`)
		if start, end, ok := strings.Cut(span, " - "); ok {
			dateStart = formatReportDate(strings.Trim(strings.TrimSpace(start), `"`))
			dateEnd = formatReportDate(strings.Trim(strings.TrimSpace(end), `"`))
		}
	}
	return reportType, dateStart, dateEnd
}

func formatReportDate(s string) string {
	t, err := time.Parse(reportDateLayout, s)
	if err != nil {
		return s
	}
	return fmt.Sprintf("%s. %d, %d", t.Format("Jan"), t.Day(), t.Year())
}

// FindReportHeaderRow locates the data header in a fixed-schema report by
// scanning for known column names, starting after the metadata rows. The
// scan gives up after ReportHeaderSearchLimit rows and falls back to the
// first candidate.
func FindReportHeaderRow(rows [][]string) int {
	for i := headerSearchStart; i < len(rows) && i < headerSearchStart+ReportHeaderSearchLimit; i++ {
		text := strings.ToLower(strings.Join(rows[i], " "))
		for _, term := range []string{"incident", "tag name", "tag_name", "hit type", "hit_type"} {
			if strings.Contains(text, term) {
				return i
			}
		}
	}
	return headerSearchStart
}

// GroupCounts groups the table's rows by the given columns and counts
// occurrences per distinct combination, largest group first. Each returned
// row is the combination's cells followed by the count, the shape the
// streaming builder folds. Rows with a blank cell in any grouping column
// are dropped.
func GroupCounts(t *domain.Table, columns []string) ([][]string, error) {
	idx := make([]int, len(columns))
	for i, col := range columns {
		ci := t.ColumnIndex(col)
		if ci < 0 {
			return nil, fmt.Errorf("column %q not found", col)
		}
		idx[i] = ci
	}

	type group struct {
		cells []string
		count int
	}
	var order []string
	groups := make(map[string]*group)

rowLoop:
	for i := 0; i < t.Len(); i++ {
		cells := make([]string, len(idx))
		for j, ci := range idx {
			cell := t.Cell(i, ci)
			if cell == "" {
				continue rowLoop
			}
			cells[j] = cell
		}
		key := strings.Join(cells, "\x1f")
		g, ok := groups[key]
		if !ok {
			g = &group{cells: cells}
			groups[key] = g
			order = append(order, key)
		}
		g.count++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return groups[order[i]].count > groups[order[j]].count
	})

	out := make([][]string, 0, len(order))
	for _, key := range order {
		g := groups[key]
		out = append(out, append(g.cells, fmt.Sprintf("%d", g.count)))
	}
	return out, nil
}
