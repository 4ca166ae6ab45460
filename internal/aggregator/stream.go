package aggregator

import (
	"log/slog"
	"strconv"
	"strings"

	"sunburst/pkg/contracts/domain"
)

// ParsedRow is one streaming row reduced to a tree path and leaf value.
type ParsedRow struct {
	Key   string
	Path  []string
	Value float64
}

// ParseRow reads a positional row where the cells themselves encode the
// path: blank cells are dropped, non-numeric cells extend the path (the
// first one is the key), and the first numeric cell ends the scan as the
// leaf value. A zero at the start of the path is kept as a path segment
// rather than read as a value, since a bare "0" in the first column is a
// categorical code, not a measurement. ok is false when the row yields no
// path or no value.
func ParseRow(row []string) (parsed ParsedRow, ok bool) {
	cleaned := make([]string, 0, len(row))
	for _, cell := range row {
		if c := strings.TrimSpace(cell); c != "" {
			cleaned = append(cleaned, c)
		}
	}
	if len(cleaned) == 0 {
		return ParsedRow{}, false
	}

	var (
		path     []string
		value    float64
		hasValue bool
	)
	key := ""

	for _, item := range cleaned {
		v, err := strconv.ParseFloat(item, 64)
		if err == nil {
			if v == 0 && len(path) == 0 {
				if key == "" {
					key = item
				}
				path = append(path, item)
				continue
			}
			value = v
			hasValue = true
			break
		}
		if key == "" {
			key = item
		}
		path = append(path, item)
	}

	if key == "" || len(path) == 0 || !hasValue {
		return ParsedRow{}, false
	}
	return ParsedRow{Key: key, Path: path, Value: value}, true
}

// Builder folds parsed rows into a shared tree accumulator. Children keep
// insertion order for serialization; a per-node name index keeps descent
// O(1) regardless of fan-out. Top-level nodes take a palette color at
// creation, and descendants inherit it.
type Builder struct {
	root    *domain.TreeRoot
	palette *Palette
	index   map[*domain.TreeNode]map[string]*domain.TreeNode
	skipped int
	logger  *slog.Logger
}

// NewBuilder returns a streaming builder with the given root name. palette
// may be nil to skip color annotation.
func NewBuilder(rootName string, palette *Palette, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	root := domain.NewTreeRoot(rootName)
	return &Builder{
		root:    root,
		palette: palette,
		index:   map[*domain.TreeNode]map[string]*domain.TreeNode{root: {}},
		logger:  logger.With(slog.String("component", "stream-builder")),
	}
}

// Fold parses one raw row and accumulates it. Malformed rows are skipped
// with a warning and do not stop the stream.
func (b *Builder) Fold(row []string) {
	parsed, ok := ParseRow(row)
	if !ok {
		b.skipped++
		b.logger.Warn("skipping row without path and numeric value", slog.Any("row", row))
		return
	}
	b.Add(parsed.Path, parsed.Value)
}

// Add accumulates value along path, creating nodes as needed. Every visited
// node's value grows by the leaf value, the root included.
func (b *Builder) Add(path []string, value float64) {
	b.root.Value += value

	current := b.root
	color := ""
	for depth, name := range path {
		children := b.index[current]
		if children == nil {
			children = make(map[string]*domain.TreeNode)
			b.index[current] = children
		}

		next, exists := children[name]
		if !exists {
			next = &domain.TreeNode{Name: name}
			if depth == 0 {
				if b.palette != nil {
					color = b.palette.Color(len(current.Children))
					next.ItemStyle = &domain.ItemStyle{Color: color}
				}
			} else if color != "" {
				next.ItemStyle = &domain.ItemStyle{Color: color}
			}
			current.Children = append(current.Children, next)
			children[name] = next
		} else if depth == 0 && next.ItemStyle != nil {
			color = next.ItemStyle.Color
		}
		next.Value += value
		current = next
	}
}

// FoldAll folds every row in order.
func (b *Builder) FoldAll(rows [][]string) {
	for _, row := range rows {
		b.Fold(row)
	}
}

// Skipped reports how many rows were dropped as malformed.
func (b *Builder) Skipped() int {
	return b.skipped
}

// Tree returns the accumulator. The builder keeps ownership; callers must
// not fold after serializing the result.
func (b *Builder) Tree() *domain.TreeRoot {
	return b.root
}
