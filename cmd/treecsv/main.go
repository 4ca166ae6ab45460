// treecsv folds a tabular CSV or Excel file into a sunburst tree without
// the web service: pick the hierarchy columns and either a value column to
// sum or nothing to count rows, and it writes the tree as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"sunburst/internal/aggregator"
	"sunburst/internal/table"
	"sunburst/pkg/contracts/domain"
)

func main() {
	in := flag.String("in", "", "input csv/xlsx file")
	out := flag.String("out", "", "output json file (defaults to stdout)")
	name := flag.String("name", "Chart", "root label of the tree")
	columns := flag.String("columns", "", "comma-separated hierarchy columns, outermost first")
	value := flag.String("value", "", "numeric column to sum; omitted counts rows instead")
	paletteName := flag.String("palette", aggregator.DefaultPaletteName, "color palette: "+strings.Join(aggregator.MustPalette(aggregator.DefaultPaletteName).Available(), ", "))
	headerRow := flag.Int("header-row", 0, "zero-based header row")
	skipRows := flag.Int("skip-rows", 0, "data rows to skip after the header")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *in == "" || *columns == "" {
		fmt.Fprintln(os.Stderr, "usage: treecsv -in data.csv -columns region,country,product [-value revenue]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	tree, err := buildTree(*in, *name, splitColumns(*columns), *value, *paletteName, table.Options{HeaderRow: *headerRow, SkipRows: *skipRows}, logger)
	if err != nil {
		logger.Error("build failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	payload, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		logger.Error("encode failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *out == "" {
		fmt.Println(string(payload))
		return
	}
	if err := os.WriteFile(*out, payload, 0o644); err != nil {
		logger.Error("write failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("tree written", slog.String("path", *out))
}

func splitColumns(s string) []string {
	parts := strings.Split(s, ",")
	cols := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			cols = append(cols, trimmed)
		}
	}
	return cols
}

// buildTree sums a value column through the batch aggregator, or counts
// rows per combination through the streaming builder when no value column
// is given.
func buildTree(path, name string, columns []string, valueColumn, paletteName string, opts table.Options, logger *slog.Logger) (*domain.TreeRoot, error) {
	reader := table.NewReader(logger)
	tbl, err := reader.Read(path, opts)
	if err != nil {
		return nil, err
	}

	if valueColumn != "" {
		agg := aggregator.New(name, columns, valueColumn, logger)
		return agg.Build(context.Background(), tbl, func(current, total int, message string) {
			logger.Info(message, slog.Int("current", current), slog.Int("total", total))
		})
	}

	palette, err := aggregator.NewPalette(paletteName)
	if err != nil {
		return nil, err
	}

	grouped, err := aggregator.GroupCounts(tbl, columns)
	if err != nil {
		return nil, err
	}

	builder := aggregator.NewBuilder(name, palette, logger)
	builder.FoldAll(grouped)
	if skipped := builder.Skipped(); skipped > 0 {
		logger.Warn("rows skipped during fold", slog.Int("count", skipped))
	}
	return builder.Tree(), nil
}
