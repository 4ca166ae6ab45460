package aggregator

import (
	"fmt"
	"strings"

	"sunburst/internal/normalize"
	"sunburst/pkg/contracts/domain"
)

const (
	// MinHierarchyLevels is the smallest hierarchy a chart can be built on.
	MinHierarchyLevels = 3
	// MinRows is the smallest usable row count.
	MinRows = 10
	// minValueRatio is the fraction of rows that must coerce to a nonzero
	// number for a value column to pass validation.
	minValueRatio = 0.5
	// minUniqueValues per hierarchy column.
	minUniqueValues = 2
)

// Limits bounds what a selection must satisfy. Zero fields fall back to
// the package defaults, so the zero value behaves like DefaultLimits.
type Limits struct {
	MinLevels int
	MinRows   int
}

// DefaultLimits returns the package-default selection limits.
func DefaultLimits() Limits {
	return Limits{MinLevels: MinHierarchyLevels, MinRows: MinRows}
}

func (l Limits) withDefaults() Limits {
	if l.MinLevels <= 0 {
		l.MinLevels = MinHierarchyLevels
	}
	if l.MinRows <= 0 {
		l.MinRows = MinRows
	}
	return l
}

// ValidateSelection dry-runs a column selection against the table and
// returns every problem found, not just the first. An empty slice means the
// selection is processable.
func ValidateSelection(t *domain.Table, treeOrder []string, valueColumn string) []string {
	return ValidateSelectionLimits(t, treeOrder, valueColumn, DefaultLimits())
}

// ValidateSelectionLimits is ValidateSelection with configurable limits.
func ValidateSelectionLimits(t *domain.Table, treeOrder []string, valueColumn string, lim Limits) []string {
	lim = lim.withDefaults()

	var errs []string

	if len(treeOrder) < lim.MinLevels {
		errs = append(errs, fmt.Sprintf("Hierarchy must have at least %d levels", lim.MinLevels))
	}

	var missing []string
	for _, col := range append(append([]string{}, treeOrder...), valueColumn) {
		if !t.HasColumn(col) && !contains(missing, col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		errs = append(errs, fmt.Sprintf("Columns not found in file: %s", strings.Join(missing, ", ")))
		// the remaining checks read the named columns; stop here
		return errs
	}

	if contains(treeOrder, valueColumn) {
		errs = append(errs, fmt.Sprintf("Value column '%s' cannot also be in hierarchy", valueColumn))
	}

	seen := make(map[string]struct{}, len(treeOrder))
	duplicated := false
	for _, col := range treeOrder {
		if _, ok := seen[col]; ok {
			duplicated = true
			break
		}
		seen[col] = struct{}{}
	}
	if duplicated {
		errs = append(errs, "Hierarchy columns must be unique (no duplicates)")
	}

	if t.Len() > 0 {
		numeric := 0
		for _, v := range t.Column(valueColumn) {
			if normalize.CleanNumeric(v) != 0 {
				numeric++
			}
		}
		ratio := float64(numeric) / float64(t.Len())
		if ratio < minValueRatio {
			errs = append(errs, fmt.Sprintf(
				"Value column '%s' must contain mostly numeric data (only %.1f%% valid)",
				valueColumn, ratio*100))
		}
	}

	for _, col := range treeOrder {
		unique := make(map[string]struct{})
		for _, v := range t.Column(col) {
			if v != "" {
				unique[v] = struct{}{}
			}
		}
		if len(unique) < minUniqueValues {
			errs = append(errs, fmt.Sprintf(
				"Hierarchy column '%s' must have at least %d unique values (found %d)",
				col, minUniqueValues, len(unique)))
		}
	}

	if t.Len() < lim.MinRows {
		errs = append(errs, fmt.Sprintf("File must contain at least %d rows (found %d)", lim.MinRows, t.Len()))
	}

	return errs
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
