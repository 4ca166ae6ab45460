// Package sqlite persists the most recently ingested report table so the
// table-data endpoints can page and filter it without re-reading the source
// file. The schema is rebuilt from each upload; every column is TEXT.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	_ "modernc.org/sqlite"

	"sunburst/pkg/contracts/domain"
)

const tableName = "report_data"

// identPattern is the only shape of column name the store accepts. Columns
// go through domain.NormalizeColumnName before storage, so anything else is
// a caller bug, not user input.
var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Store is a sqlite-backed row store for one report dataset.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to the sqlite database at dsn (":memory:" works for tests).
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &Store{db: db, logger: logger.With(slog.String("component", "sqlite-store"))}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// InitFromTable drops and recreates the dataset table from the given grid.
// Column names are normalized to the underscored form first.
func (s *Store) InitFromTable(ctx context.Context, t *domain.Table) error {
	if len(t.Headers) == 0 {
		return fmt.Errorf("table has no columns")
	}

	cols := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		col := domain.NormalizeColumnName(h)
		if !identPattern.MatchString(col) {
			return fmt.Errorf("invalid column name %q", h)
		}
		cols[i] = col
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", tableName)); err != nil {
		return fmt.Errorf("drop table: %w", err)
	}

	defs := make([]string, len(cols))
	for i, col := range cols {
		defs[i] = fmt.Sprintf("%q TEXT", col)
	}
	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", tableName, strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	insertSQL := fmt.Sprintf("INSERT INTO %s VALUES (%s)", tableName, placeholders)
	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < t.Len(); i++ {
		args := make([]any, len(cols))
		for j := range cols {
			args[j] = t.Cell(i, j)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.Info("dataset loaded",
		slog.Int("rows", t.Len()),
		slog.Int("columns", len(cols)))
	return nil
}

// Columns returns the dataset's column names in table order.
func (s *Store) Columns(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return nil, fmt.Errorf("table info: %w", err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

// QueryOptions controls a paged, filtered read.
type QueryOptions struct {
	Page     int
	PerPage  int
	Filters  map[string]string
	Paginate bool
}

// Page is one page of dataset rows.
type Page struct {
	Data       []map[string]string `json:"data"`
	Total      int                 `json:"total"`
	Page       int                 `json:"page"`
	TotalPages int                 `json:"total_pages"`
}

// Query reads rows matching the filters, equality per column. Filters on
// columns the table does not have are ignored rather than failing; filter
// values only ever bind as parameters.
func (s *Store) Query(ctx context.Context, opts QueryOptions) (*Page, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PerPage < 1 {
		opts.PerPage = 20
	}

	known, err := s.Columns(ctx)
	if err != nil {
		return nil, err
	}
	knownSet := make(map[string]struct{}, len(known))
	for _, c := range known {
		knownSet[c] = struct{}{}
	}

	var (
		conditions []string
		params     []any
	)
	for _, col := range known {
		value, ok := opts.Filters[col]
		if !ok {
			continue
		}
		conditions = append(conditions, fmt.Sprintf("%q = ?", col))
		params = append(params, value)
	}
	for col := range opts.Filters {
		if _, ok := knownSet[col]; !ok {
			s.logger.Warn("ignoring filter on unknown column", slog.String("column", col))
		}
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", tableName, where)
	if err := s.db.QueryRowContext(ctx, countSQL, params...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count rows: %w", err)
	}

	querySQL := fmt.Sprintf("SELECT * FROM %s%s", tableName, where)
	queryParams := params
	if opts.Paginate {
		querySQL += " LIMIT ? OFFSET ?"
		queryParams = append(append([]any{}, params...), opts.PerPage, (opts.Page-1)*opts.PerPage)
	}

	rows, err := s.db.QueryContext(ctx, querySQL, queryParams...)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("row columns: %w", err)
	}

	data := make([]map[string]string, 0, opts.PerPage)
	for rows.Next() {
		values := make([]sql.NullString, len(cols))
		scan := make([]any, len(cols))
		for i := range values {
			scan[i] = &values[i]
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		record := make(map[string]string, len(cols))
		for i, col := range cols {
			record[col] = values[i].String
		}
		data = append(data, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalPages := 1
	if opts.Paginate {
		totalPages = (total + opts.PerPage - 1) / opts.PerPage
	}

	return &Page{
		Data:       data,
		Total:      total,
		Page:       opts.Page,
		TotalPages: totalPages,
	}, nil
}
