// Package aggregator turns flat tabular rows into the hierarchical tree a
// sunburst chart renders. Two builders exist: the batch Aggregator groups a
// whole table recursively along user-chosen columns, and the streaming
// Builder folds pre-shaped rows into the tree one at a time. For the same
// underlying data both produce the same {name, value} content.
package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"sunburst/internal/normalize"
	"sunburst/pkg/contracts/domain"
)

// ProgressFunc receives coarse progress while a tree is built. current is
// 1-based; total is the top-level category count.
type ProgressFunc func(current, total int, message string)

// Aggregator builds a sunburst tree by recursive grouping.
type Aggregator struct {
	ChartName   string
	TreeOrder   []string
	ValueColumn string
	Limits      Limits

	logger *slog.Logger
}

// New returns a batch aggregator for the given column selection.
func New(chartName string, treeOrder []string, valueColumn string, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		ChartName:   chartName,
		TreeOrder:   treeOrder,
		ValueColumn: valueColumn,
		Limits:      DefaultLimits(),
		logger:      logger.With(slog.String("component", "aggregator")),
	}
}

// cleanedRow pairs the retained hierarchy cells with the coerced value.
type cleanedRow struct {
	path  []string
	value float64
}

// Build validates the selection, cleans the table, and aggregates it into a
// tree. Progress fires after each top-level category; deeper levels are
// silent. The context cancels the build between top-level categories.
func (a *Aggregator) Build(ctx context.Context, t *domain.Table, progress ProgressFunc) (*domain.TreeRoot, error) {
	if problems := ValidateSelectionLimits(t, a.TreeOrder, a.ValueColumn, a.Limits); len(problems) > 0 {
		return nil, fmt.Errorf("invalid column selection: %s", strings.Join(problems, "; "))
	}

	lim := a.Limits.withDefaults()
	rows := a.cleanRows(t)
	if len(rows) < lim.MinRows {
		return nil, fmt.Errorf("only %d usable rows remain after cleaning (need at least %d)", len(rows), lim.MinRows)
	}

	a.logger.Info("building tree",
		slog.String("chart_name", a.ChartName),
		slog.Any("tree_order", a.TreeOrder),
		slog.String("value_column", a.ValueColumn),
		slog.Int("rows", len(rows)))

	var total float64
	for _, r := range rows {
		total += r.value
	}

	children, err := a.buildLevel(ctx, rows, 0, progress)
	if err != nil {
		return nil, err
	}

	root := domain.NewTreeRoot(a.ChartName)
	root.Value = total
	root.Children = children
	return root, nil
}

// cleanRows coerces the value column and drops unusable rows: nonpositive
// values and blank hierarchy cells.
func (a *Aggregator) cleanRows(t *domain.Table) []cleanedRow {
	valueIdx := t.ColumnIndex(a.ValueColumn)
	hierIdx := make([]int, len(a.TreeOrder))
	for i, col := range a.TreeOrder {
		hierIdx[i] = t.ColumnIndex(col)
	}

	rows := make([]cleanedRow, 0, t.Len())
	dropped := 0
rowLoop:
	for i := 0; i < t.Len(); i++ {
		value := normalize.CleanNumeric(t.Cell(i, valueIdx))
		if value <= 0 {
			dropped++
			continue
		}
		path := make([]string, len(hierIdx))
		for j, idx := range hierIdx {
			cell := t.Cell(i, idx)
			if cell == "" {
				dropped++
				continue rowLoop
			}
			path[j] = cell
		}
		rows = append(rows, cleanedRow{path: path, value: value})
	}

	if dropped > 0 {
		a.logger.Debug("dropped unusable rows", slog.Int("dropped", dropped), slog.Int("kept", len(rows)))
	}
	return rows
}

// buildLevel partitions rows by the hierarchy column at the given depth and
// recurses into each partition. Distinct values keep first-encounter order
// until the final value-descending sort, which is stable so equal values
// stay in discovery order.
func (a *Aggregator) buildLevel(ctx context.Context, rows []cleanedRow, depth int, progress ProgressFunc) ([]*domain.TreeNode, error) {
	if depth >= len(a.TreeOrder) {
		return nil, nil
	}

	var order []string
	groups := make(map[string][]cleanedRow)
	for _, r := range rows {
		name := r.path[depth]
		if _, seen := groups[name]; !seen {
			order = append(order, name)
		}
		groups[name] = append(groups[name], r)
	}

	children := make([]*domain.TreeNode, 0, len(order))
	for idx, name := range order {
		if depth == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		subset := groups[name]
		var sum float64
		for _, r := range subset {
			sum += r.value
		}

		childNodes, err := a.buildLevel(ctx, subset, depth+1, progress)
		if err != nil {
			return nil, err
		}

		children = append(children, &domain.TreeNode{
			Name:     name,
			Value:    sum,
			Children: childNodes,
		})

		if depth == 0 && progress != nil {
			progress(idx+1, len(order),
				fmt.Sprintf("Processing %s: %s (%d/%d)", a.TreeOrder[0], name, idx+1, len(order)))
		}
	}

	sort.SliceStable(children, func(i, j int) bool {
		return children[i].Value > children[j].Value
	})
	return children, nil
}
