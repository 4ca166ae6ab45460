package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sunburst/pkg/contracts/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func reportTable() *domain.Table {
	return domain.NewTable(
		[]string{"Hit Type", "Incident", "Tag Name"},
		[][]string{
			{"active", "malware", "tag-a"},
			{"active", "malware", "tag-b"},
			{"passive", "phishing", "tag-a"},
			{"active", "phishing", "tag-c"},
			{"passive", "malware", "tag-b"},
		},
	)
}

func TestInitFromTableNormalizesColumns(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.InitFromTable(context.Background(), reportTable()))

	cols, err := s.Columns(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"hit_type", "incident", "tag_name"}, cols)
}

func TestInitFromTableReplacesExistingData(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InitFromTable(ctx, reportTable()))

	replacement := domain.NewTable(
		[]string{"country", "city"},
		[][]string{{"DE", "Berlin"}},
	)
	require.NoError(t, s.InitFromTable(ctx, replacement))

	cols, err := s.Columns(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"country", "city"}, cols)

	page, err := s.Query(ctx, QueryOptions{Paginate: true})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestQueryPagination(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InitFromTable(ctx, reportTable()))

	page, err := s.Query(ctx, QueryOptions{Page: 1, PerPage: 2, Paginate: true})
	require.NoError(t, err)

	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "active", page.Data[0]["hit_type"])

	last, err := s.Query(ctx, QueryOptions{Page: 3, PerPage: 2, Paginate: true})
	require.NoError(t, err)
	assert.Len(t, last.Data, 1)
}

func TestQueryFilters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InitFromTable(ctx, reportTable()))

	page, err := s.Query(ctx, QueryOptions{
		Filters:  map[string]string{"hit_type": "active", "incident": "malware"},
		Paginate: true,
		PerPage:  20,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, page.Total)
	for _, row := range page.Data {
		assert.Equal(t, "active", row["hit_type"])
		assert.Equal(t, "malware", row["incident"])
	}
}

func TestQueryIgnoresUnknownFilterColumns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InitFromTable(ctx, reportTable()))

	// a hostile filter name must not reach the SQL text
	page, err := s.Query(ctx, QueryOptions{
		Filters:  map[string]string{"1=1; DROP TABLE report_data;--": "x"},
		Paginate: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)

	cols, err := s.Columns(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, cols)
}

func TestQueryWithoutPagination(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InitFromTable(ctx, reportTable()))

	page, err := s.Query(ctx, QueryOptions{Paginate: false})
	require.NoError(t, err)
	assert.Len(t, page.Data, 5)
	assert.Equal(t, 1, page.TotalPages)
}

func TestInitFromTableRejectsBadColumn(t *testing.T) {
	s := openTestStore(t)
	bad := domain.NewTable([]string{"ok", "not;ok"}, nil)
	err := s.InitFromTable(context.Background(), bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid column name")
}
