package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sunburst/pkg/contracts/domain"
)

func TestExtractReportMetadata(t *testing.T) {
	rows := [][]string{
		{`"Security Scan Report"`},
		{`"01/05/2025 00:00 - 01/31/2025 23:59"`},
	}

	reportType, start, end := ExtractReportMetadata(rows)
	assert.Equal(t, "Security Scan Report", reportType)
	assert.Equal(t, "Jan. 5, 2025", start)
	assert.Equal(t, "Jan. 31, 2025", end)
}

func TestExtractReportMetadataUnparseableDates(t *testing.T) {
	rows := [][]string{
		{"Weekly Report"},
		{"sometime - later"},
	}

	reportType, start, end := ExtractReportMetadata(rows)
	assert.Equal(t, "Weekly Report", reportType)
	assert.Equal(t, "sometime", start)
	assert.Equal(t, "later", end)
}

func TestExtractReportMetadataShortPreview(t *testing.T) {
	reportType, start, end := ExtractReportMetadata(nil)
	assert.Empty(t, reportType)
	assert.Empty(t, start)
	assert.Empty(t, end)
}

func TestFindReportHeaderRow(t *testing.T) {
	rows := [][]string{
		{"Security Scan Report"},
		{"01/01/2025 00:00 - 01/31/2025 23:59"},
		{""},
		{"some note"},
		{"Incident", "Tag Name", "Hit Type"},
		{"data", "data", "data"},
	}
	assert.Equal(t, 4, FindReportHeaderRow(rows))

	// nothing recognizable falls back to the first candidate row
	blank := [][]string{{"a"}, {"b"}, {"c"}, {"d"}, {"e"}}
	assert.Equal(t, 3, FindReportHeaderRow(blank))
}

func TestGroupCounts(t *testing.T) {
	tbl := domain.NewTable(
		[]string{"hit_type", "incident", "tag_name", "extra"},
		[][]string{
			{"active", "malware", "tag-a", "x"},
			{"active", "malware", "tag-a", "y"},
			{"passive", "phishing", "tag-b", "z"},
			{"active", "malware", "tag-a", "w"},
			{"passive", "phishing", "tag-c", ""},
			{"", "malware", "tag-a", "q"}, // blank grouping cell, dropped
		},
	)

	rows, err := GroupCounts(tbl, []string{"hit_type", "incident", "tag_name"})
	require.NoError(t, err)

	require.Len(t, rows, 3)
	// largest group first
	assert.Equal(t, []string{"active", "malware", "tag-a", "3"}, rows[0])
	assert.Equal(t, []string{"passive", "phishing", "tag-b", "1"}, rows[1])
	assert.Equal(t, []string{"passive", "phishing", "tag-c", "1"}, rows[2])
}

func TestGroupCountsMissingColumn(t *testing.T) {
	tbl := domain.NewTable([]string{"a"}, [][]string{{"x"}})
	_, err := GroupCounts(tbl, []string{"a", "missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestGroupCountsFeedStreamingBuilder(t *testing.T) {
	tbl := domain.NewTable(
		[]string{"hit_type", "incident", "tag_name"},
		[][]string{
			{"active", "malware", "tag-a"},
			{"active", "malware", "tag-a"},
			{"passive", "phishing", "tag-b"},
		},
	)

	rows, err := GroupCounts(tbl, []string{"hit_type", "incident", "tag_name"})
	require.NoError(t, err)

	b := NewBuilder("Client", nil, nil)
	b.FoldAll(rows)

	root := b.Tree()
	assert.InDelta(t, 3.0, root.Value, 0.001)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "active", root.Children[0].Name)
	assert.InDelta(t, 2.0, root.Children[0].Value, 0.001)
	assert.Zero(t, b.Skipped())
}

func TestPalette(t *testing.T) {
	p, err := NewPalette("sunset")
	require.NoError(t, err)
	assert.Equal(t, "sunset", p.Name())
	assert.Equal(t, 10, p.Len())

	// cyclic indexing
	assert.Equal(t, p.Color(0), p.Color(10))

	_, err = NewPalette("neon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available palettes")

	require.NoError(t, p.AddPalette("custom", []string{"#001219", "#005f73"}))
	require.NoError(t, p.SetPalette("custom"))
	assert.Equal(t, "#005f73", p.Color(3))

	err = p.AddPalette("ocean", []string{"#fff"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}
