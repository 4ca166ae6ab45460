package aggregator

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sunburst/pkg/contracts/domain"
)

func salesTable() *domain.Table {
	return domain.NewTable(
		[]string{"region", "product", "channel", "amount"},
		[][]string{
			{"EMEA", "Widget", "web", "$100.00"},
			{"EMEA", "Widget", "retail", "50"},
			{"EMEA", "Gadget", "web", "200"},
			{"APAC", "Widget", "web", "75"},
			{"APAC", "Gadget", "retail", "125"},
			{"APAC", "Gadget", "web", "25"},
			{"LATAM", "Widget", "web", "60"},
			{"LATAM", "Gadget", "retail", "40"},
			{"EMEA", "Widget", "web", "30"},
			{"APAC", "Widget", "retail", "45"},
			{"LATAM", "Widget", "web", "20"},
			{"EMEA", "Gadget", "retail", "80"},
		},
	)
}

func TestBuildTree(t *testing.T) {
	agg := New("Sales", []string{"region", "product", "channel"}, "amount", nil)

	root, err := agg.Build(context.Background(), salesTable(), nil)
	require.NoError(t, err)

	assert.Equal(t, "Sales", root.Name)
	assert.InDelta(t, 850.0, root.Value, 0.001)
	require.Len(t, root.Children, 3)

	// siblings sorted by value descending
	assert.Equal(t, "EMEA", root.Children[0].Name)
	assert.InDelta(t, 460.0, root.Children[0].Value, 0.001)
	assert.Equal(t, "APAC", root.Children[1].Name)
	assert.InDelta(t, 270.0, root.Children[1].Value, 0.001)
	assert.Equal(t, "LATAM", root.Children[2].Name)
	assert.InDelta(t, 120.0, root.Children[2].Value, 0.001)

	// every node's value equals the sum of its children
	root.Walk(func(n *domain.TreeNode, depth int) {
		if len(n.Children) == 0 {
			return
		}
		var sum float64
		for _, c := range n.Children {
			sum += c.Value
		}
		assert.InDelta(t, n.Value, sum, 0.001, "node %s", n.Name)
	})

	// leaf level has no children
	leaf := root.Children[0].Children[0].Children[0]
	assert.Empty(t, leaf.Children)
}

func TestBuildCleaning(t *testing.T) {
	rows := [][]string{
		{"EMEA", "Widget", "web", "0"},     // nonpositive, dropped
		{"EMEA", "Widget", "web", "-5"},    // nonpositive, dropped
		{"", "Widget", "web", "100"},       // blank hierarchy, dropped
		{"EMEA", "Widget", "web", "bogus"}, // unparseable, dropped
	}
	for i := 0; i < 10; i++ {
		product := "Widget"
		if i%2 == 0 {
			product = "Gadget"
		}
		channel := "web"
		if i%3 == 0 {
			channel = "retail"
		}
		rows = append(rows, []string{"EMEA", product, channel, "10"})
	}
	// second region so every hierarchy column has 2+ unique values
	rows = append(rows, []string{"APAC", "Widget", "web", "10"})

	tbl := domain.NewTable([]string{"region", "product", "channel", "amount"}, rows)
	agg := New("Clean", []string{"region", "product", "channel"}, "amount", nil)

	root, err := agg.Build(context.Background(), tbl, nil)
	require.NoError(t, err)
	assert.InDelta(t, 110.0, root.Value, 0.001)
}

func TestBuildProgressAtTopLevelOnly(t *testing.T) {
	agg := New("Sales", []string{"region", "product", "channel"}, "amount", nil)

	type event struct {
		current, total int
		message        string
	}
	var events []event
	_, err := agg.Build(context.Background(), salesTable(), func(current, total int, message string) {
		events = append(events, event{current, total, message})
	})
	require.NoError(t, err)

	// one event per top-level category, nothing from deeper levels
	require.Len(t, events, 3)
	for i, e := range events {
		assert.Equal(t, i+1, e.current)
		assert.Equal(t, 3, e.total)
		assert.Contains(t, e.message, "region")
	}
}

func TestBuildRejectsInvalidSelection(t *testing.T) {
	agg := New("Sales", []string{"region", "product"}, "amount", nil)
	_, err := agg.Build(context.Background(), salesTable(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Hierarchy must have at least 3 levels")
}

func TestBuildCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agg := New("Sales", []string{"region", "product", "channel"}, "amount", nil)
	_, err := agg.Build(ctx, salesTable(), nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestBuildInsufficientUsableRows(t *testing.T) {
	// passes raw-row validation but loses too many rows to cleaning
	rows := make([][]string, 0, 12)
	for i := 0; i < 6; i++ {
		rows = append(rows, []string{"EMEA", "Widget", "web", "10"})
		rows = append(rows, []string{"APAC", "Gadget", "retail", "0"})
	}
	tbl := domain.NewTable([]string{"region", "product", "channel", "amount"}, rows)

	agg := New("Sparse", []string{"region", "product", "channel"}, "amount", nil)
	_, err := agg.Build(context.Background(), tbl, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usable rows")
}

func TestBuildRowOrderIndependence(t *testing.T) {
	agg := New("Sales", []string{"region", "product", "channel"}, "amount", nil)

	forward, err := agg.Build(context.Background(), salesTable(), nil)
	require.NoError(t, err)

	tbl := salesTable()
	for i, j := 0, len(tbl.Rows)-1; i < j; i, j = i+1, j-1 {
		tbl.Rows[i], tbl.Rows[j] = tbl.Rows[j], tbl.Rows[i]
	}
	reversed, err := agg.Build(context.Background(), tbl, nil)
	require.NoError(t, err)

	assertSameContent(t, forward, reversed)
}

func TestValidateSelection(t *testing.T) {
	tbl := salesTable()

	t.Run("valid selection", func(t *testing.T) {
		errs := ValidateSelection(tbl, []string{"region", "product", "channel"}, "amount")
		assert.Empty(t, errs)
	})

	t.Run("short hierarchy", func(t *testing.T) {
		errs := ValidateSelection(tbl, []string{"region", "product"}, "amount")
		assert.Contains(t, errs, "Hierarchy must have at least 3 levels")
	})

	t.Run("missing columns stop further checks", func(t *testing.T) {
		errs := ValidateSelection(tbl, []string{"region", "nope", "channel"}, "missing_too")
		require.Len(t, errs, 1)
		assert.Equal(t, "Columns not found in file: nope, missing_too", errs[0])
	})

	t.Run("value column in hierarchy", func(t *testing.T) {
		errs := ValidateSelection(tbl, []string{"region", "product", "amount"}, "amount")
		assert.Contains(t, errs, "Value column 'amount' cannot also be in hierarchy")
	})

	t.Run("duplicate hierarchy columns", func(t *testing.T) {
		errs := ValidateSelection(tbl, []string{"region", "region", "channel"}, "amount")
		assert.Contains(t, errs, "Hierarchy columns must be unique (no duplicates)")
	})

	t.Run("non numeric value column", func(t *testing.T) {
		errs := ValidateSelection(tbl, []string{"region", "product", "channel"}, "product")
		found := false
		for _, e := range errs {
			if e == "Value column 'product' must contain mostly numeric data (only 0.0% valid)" {
				found = true
			}
		}
		assert.True(t, found, "got %v", errs)
	})

	t.Run("low variety hierarchy column", func(t *testing.T) {
		rows := make([][]string, 12)
		for i := range rows {
			rows[i] = []string{"only", fmt.Sprintf("p%d", i%3), fmt.Sprintf("c%d", i%2), "10"}
		}
		flat := domain.NewTable([]string{"region", "product", "channel", "amount"}, rows)
		errs := ValidateSelection(flat, []string{"region", "product", "channel"}, "amount")
		assert.Contains(t, errs, "Hierarchy column 'region' must have at least 2 unique values (found 1)")
	})

	t.Run("too few rows", func(t *testing.T) {
		small := domain.NewTable(
			[]string{"region", "product", "channel", "amount"},
			[][]string{
				{"EMEA", "Widget", "web", "10"},
				{"APAC", "Gadget", "retail", "20"},
			},
		)
		errs := ValidateSelection(small, []string{"region", "product", "channel"}, "amount")
		assert.Contains(t, errs, "File must contain at least 10 rows (found 2)")
	})

	t.Run("all problems reported together", func(t *testing.T) {
		small := domain.NewTable(
			[]string{"region", "amount"},
			[][]string{{"EMEA", "x"}, {"EMEA", "y"}},
		)
		errs := ValidateSelection(small, []string{"region", "amount"}, "amount")
		assert.GreaterOrEqual(t, len(errs), 4)
	})
}

// assertSameContent checks two trees carry the same {name, value} at every
// corresponding node, ignoring sibling order.
func assertSameContent(t *testing.T, a, b *domain.TreeNode) {
	t.Helper()
	assert.Equal(t, a.Name, b.Name)
	assert.InDelta(t, a.Value, b.Value, 0.001, "node %s", a.Name)
	require.Equal(t, len(a.Children), len(b.Children), "children of %s", a.Name)
	for _, ca := range a.Children {
		cb := findChild(b, ca.Name)
		require.NotNil(t, cb, "missing child %s under %s", ca.Name, b.Name)
		assertSameContent(t, ca, cb)
	}
}

func findChild(n *domain.TreeNode, name string) *domain.TreeNode {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestCustomLimits(t *testing.T) {
	tbl := domain.NewTable(
		[]string{"region", "product", "amount"},
		[][]string{
			{"EMEA", "Widget", "100"},
			{"EMEA", "Gadget", "50"},
			{"APAC", "Widget", "75"},
			{"APAC", "Gadget", "25"},
			{"LATAM", "Widget", "60"},
		},
	)
	lim := Limits{MinLevels: 2, MinRows: 4}

	errs := ValidateSelectionLimits(tbl, []string{"region", "product"}, "amount", lim)
	assert.Empty(t, errs)

	agg := New("Compact", []string{"region", "product"}, "amount", nil)
	agg.Limits = lim
	root, err := agg.Build(context.Background(), tbl, nil)
	require.NoError(t, err)
	assert.InDelta(t, 310.0, root.Value, 0.001)
	assert.Len(t, root.Children, 3)
}

func TestZeroLimitsFallBackToDefaults(t *testing.T) {
	errs := ValidateSelectionLimits(salesTable(), []string{"region", "product"}, "amount", Limits{})
	assert.Contains(t, errs, "Hierarchy must have at least 3 levels")
}
