package domain

import "strings"

// Table is an in-memory string grid with named columns, the unit of exchange
// between the file readers and the aggregation engine. Cells keep their raw
// text form; type coercion is the normalizer's job.
type Table struct {
	Headers []string
	Rows    [][]string

	index map[string]int
}

// NewTable builds a table over the given headers and rows.
func NewTable(headers []string, rows [][]string) *Table {
	t := &Table{Headers: headers, Rows: rows}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Headers))
	for i, h := range t.Headers {
		if _, exists := t.index[h]; !exists {
			t.index[h] = i
		}
	}
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	if t.index == nil {
		t.reindex()
	}
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Cell returns the trimmed cell at (row, column index). Rows shorter than the
// header set read as empty cells.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return ""
	}
	r := t.Rows[row]
	if col >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[col])
}

// Column returns all values of the named column, row order preserved.
func (t *Table) Column(name string) []string {
	col := t.ColumnIndex(name)
	if col < 0 {
		return nil
	}
	values := make([]string, len(t.Rows))
	for i := range t.Rows {
		values[i] = t.Cell(i, col)
	}
	return values
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// NormalizeColumnName lowercases, trims, and underscores a column name. This
// is the column-name rule used when reading fixed-schema reports; it is
// deliberately distinct from the header normalization used for schema
// matching, which collapses whitespace but keeps spaces.
func NormalizeColumnName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}
