// Package profile classifies the columns of an uploaded table so the UI can
// offer sensible hierarchy and value choices.
package profile

import (
	"log/slog"

	"sunburst/internal/normalize"
	"sunburst/internal/schema"
	"sunburst/pkg/contracts/domain"
)

const (
	// numericRatio is the fraction of sampled non-empty cells that must
	// clean to a nonzero number for the column to count as numeric.
	numericRatio = 0.8
	// sampleTruncate bounds the echoed sample value.
	sampleTruncate = 50
)

// Profiler classifies table columns.
type Profiler struct {
	// SampleRows bounds how many rows feed the type classification.
	// Unique counts always scan the full column. 0 means all rows.
	SampleRows int

	logger *slog.Logger
}

// NewProfiler returns a profiler sampling up to sampleRows rows per column.
func NewProfiler(sampleRows int, logger *slog.Logger) *Profiler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Profiler{
		SampleRows: sampleRows,
		logger:     logger.With(slog.String("component", "profiler")),
	}
}

// ProfileTable profiles every column of the table in header order.
func (p *Profiler) ProfileTable(t *domain.Table) []domain.ColumnProfile {
	profiles := make([]domain.ColumnProfile, 0, len(t.Headers))
	for _, h := range t.Headers {
		profiles = append(profiles, p.ProfileColumn(t, h))
	}
	return profiles
}

// ProfileColumn profiles a single named column. A column with no non-empty
// cells is empty and unsuitable as a value source; a column where most
// sampled cells clean to a nonzero number is numeric and suitable.
func (p *Profiler) ProfileColumn(t *domain.Table, name string) domain.ColumnProfile {
	prof := domain.ColumnProfile{
		Name:        name,
		DisplayName: schema.DisplayName(name),
	}

	values := t.Column(name)

	var nonEmpty, numeric int
	sampled := 0
	for _, v := range values {
		if v == "" {
			continue
		}
		if prof.Sample == "" {
			prof.Sample = truncate(v, sampleTruncate)
		}
		if p.SampleRows > 0 && sampled >= p.SampleRows {
			continue
		}
		sampled++
		nonEmpty++
		if normalize.CleanNumeric(v) != 0 {
			numeric++
		}
	}

	prof.UniqueCount = uniqueCount(values)

	if nonEmpty == 0 {
		prof.Type = domain.ColumnTypeEmpty
		return prof
	}

	if float64(numeric)/float64(nonEmpty) > numericRatio {
		prof.Type = domain.ColumnTypeNumeric
		prof.SuitableForValue = true
	} else {
		prof.Type = domain.ColumnTypeText
	}
	return prof
}

func uniqueCount(values []string) int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		seen[v] = struct{}{}
	}
	return len(seen)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
