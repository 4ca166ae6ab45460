package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertCurrency(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{name: "dollars with separators", input: "$54,500.02", want: 54500.02, ok: true},
		{name: "plain dollars", input: "$1,000.00", want: 1000, ok: true},
		{name: "euros no decimals", input: "€500", want: 500, ok: true},
		{name: "pound with space", input: "£ 2,500", want: 2500, ok: true},
		{name: "yen", input: "¥12000", want: 12000, ok: true},
		{name: "not currency", input: "hello", want: 0, ok: false},
		{name: "empty", input: "", want: 0, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ConvertCurrency(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestConvertPercentage(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{name: "whole percent", input: "3%", want: 0.03, ok: true},
		{name: "fractional percent", input: "15.5%", want: 0.155, ok: true},
		{name: "explicit example", input: "2.5%", want: 0.025, ok: true},
		{name: "separator inside", input: "1,250%", want: 12.5, ok: true},
		{name: "bare number still divides", input: "40", want: 0.4, ok: true},
		{name: "garbage", input: "n/a", want: 0, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ConvertPercentage(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

// CleanNumeric and ConvertPercentage deliberately disagree on percentages:
// the aggregation path keeps the numeric face value while the typed
// percentage conversion divides by 100.
func TestPercentageConversionsDiverge(t *testing.T) {
	kept := CleanNumeric("2.5%")
	divided, ok := ConvertPercentage("2.5%")
	require.True(t, ok)

	assert.InDelta(t, 2.5, kept, 1e-9)
	assert.InDelta(t, 0.025, divided, 1e-9)
}

func TestConvertNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{name: "thousands separator", input: "1,000", want: 1000, ok: true},
		{name: "separators and decimals", input: "1,234.56", want: 1234.56, ok: true},
		{name: "negative", input: "-42.5", want: -42.5, ok: true},
		{name: "scientific notation", input: "1e6", want: 1e6, ok: true},
		{name: "scientific uppercase", input: "1.5E3", want: 1500, ok: true},
		{name: "letters reject", input: "12abc", want: 0, ok: false},
		{name: "word reject", input: "seven", want: 0, ok: false},
		{name: "empty reject", input: "", want: 0, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ConvertNumber(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestCleanNumeric(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{name: "currency", input: "$54,500.02", want: 54500.02},
		{name: "plain formatted", input: "1,234.56", want: 1234.56},
		{name: "percentage keeps number", input: "2.5%", want: 2.5},
		{name: "euro", input: "€99.90", want: 99.9},
		{name: "malformed coerces to zero", input: "not a number", want: 0},
		{name: "empty coerces to zero", input: "", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CleanNumeric(tt.input), 1e-9)
		})
	}
}

func TestConvertDate(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantISO    string
		wantFormat DateFormat
		ok         bool
	}{
		{name: "iso", input: "2025-01-01", wantISO: "2025-01-01", wantFormat: FormatISO, ok: true},
		{name: "us slash", input: "01/15/2025", wantISO: "2025-01-15", wantFormat: FormatUS, ok: true},
		{name: "eu slash day first", input: "25/01/2025", wantISO: "2025-01-25", wantFormat: FormatEU, ok: true},
		{name: "ambiguous slash defaults US", input: "03/04/2025", wantISO: "2025-03-04", wantFormat: FormatUS, ok: true},
		{name: "text month", input: "Jan 15, 2025", wantISO: "2025-01-15", wantFormat: FormatText, ok: true},
		{name: "plain number is not a date", input: "1234.5", ok: false},
		{name: "negative number is not a date", input: "-42", ok: false},
		{name: "garbage", input: "yesterday-ish", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iso, format, ok := ConvertDate(tt.input)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.wantISO, iso)
				assert.Equal(t, tt.wantFormat, format)
			}
		})
	}
}

func TestDetectColumnType(t *testing.T) {
	tests := []struct {
		name          string
		values        []string
		wantType      ValueType
		wantAmbiguous bool
	}{
		{
			name:     "currency column",
			values:   []string{"$100", "$250.50", "$1,000", "$42", "$9.99"},
			wantType: TypeCurrency,
		},
		{
			name:     "percentage column",
			values:   []string{"5%", "12.5%", "99%", "0.1%", "40%"},
			wantType: TypePercentage,
		},
		{
			name:     "numeric column",
			values:   []string{"1,000", "2500", "-17", "3.14", "1e3"},
			wantType: TypeNumeric,
		},
		{
			name:     "date column single format",
			values:   []string{"2025-01-01", "2025-02-15", "2025-03-30", "2024-12-31", "2025-06-01"},
			wantType: TypeDate,
		},
		{
			name:          "date column mixed formats is ambiguous",
			values:        []string{"2025-01-01", "01/15/2025", "2025-03-30", "02/20/2025", "2025-06-01"},
			wantType:      TypeDate,
			wantAmbiguous: true,
		},
		{
			name:     "text column",
			values:   []string{"alpha", "beta", "gamma", "delta", "epsilon"},
			wantType: TypeText,
		},
		{
			name:     "mostly text falls through to text",
			values:   []string{"1", "2", "three", "four", "five"},
			wantType: TypeText,
		},
		{
			name:     "empty sample is text",
			values:   []string{"", "  ", ""},
			wantType: TypeText,
		},
	}

	var d ColumnDetector
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det := d.DetectColumnType(tt.values)
			assert.Equal(t, tt.wantType, det.Type)
			assert.Equal(t, tt.wantAmbiguous, det.Ambiguous)
			if tt.wantAmbiguous {
				assert.Greater(t, len(det.FormatsFound), 1)
			}
		})
	}
}

func TestDetectColumnTypeSampleLimit(t *testing.T) {
	// 200 values, only the first 100 sampled; the tail would flip the type
	// if the limit were ignored.
	values := make([]string, 0, 200)
	for i := 0; i < 100; i++ {
		values = append(values, "42%")
	}
	for i := 0; i < 100; i++ {
		values = append(values, "plain text")
	}

	det := ColumnDetector{SampleSize: 100}.DetectColumnType(values)
	assert.Equal(t, TypePercentage, det.Type)
	assert.InDelta(t, 1.0, det.Confidence, 1e-9)
}
