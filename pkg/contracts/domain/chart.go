package domain

// ChartMetadata is the persisted artifact for a generic (user-configured)
// chart. One artifact exists per processing session.
type ChartMetadata struct {
	ChartName   string    `json:"chart_name"`
	TreeOrder   []string  `json:"tree_order"`
	ValueColumn string    `json:"value_column"`
	SourceFile  string    `json:"source_file,omitempty"`
	Data        *TreeRoot `json:"data"`
}

// ReportMetadata is the persisted artifact for a fixed-schema report
// processed in legacy mode, where the value is an implicit row count.
type ReportMetadata struct {
	ReportType string    `json:"report_type"`
	DateStart  string    `json:"date_start"`
	DateEnd    string    `json:"date_end"`
	TreeOrder  []string  `json:"tree_order"`
	Data       *TreeRoot `json:"data"`
}

// ColumnType classifies a profiled column.
type ColumnType string

const (
	ColumnTypeNumeric ColumnType = "numeric"
	ColumnTypeText    ColumnType = "text"
	ColumnTypeEmpty   ColumnType = "empty"
)

// ColumnProfile describes one column of an uploaded file.
type ColumnProfile struct {
	Name             string     `json:"name"`
	DisplayName      string     `json:"display_name"`
	Type             ColumnType `json:"type"`
	Sample           string     `json:"sample,omitempty"`
	UniqueCount      int        `json:"unique_count"`
	SuitableForValue bool       `json:"suitable_for_value"`
}
