// Package normalize detects and converts raw cell values into typed values.
// It handles percentages, currency, dates, and formatted numbers, scoring
// each detector by the fraction of a sample it successfully converts.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

// ValueType classifies a detected value.
type ValueType string

const (
	TypeText       ValueType = "text"
	TypeNumeric    ValueType = "numeric"
	TypeCurrency   ValueType = "currency"
	TypePercentage ValueType = "percentage"
	TypeDate       ValueType = "date"
)

// SupportedTypes lists every type the detector can return.
var SupportedTypes = []ValueType{TypeText, TypeNumeric, TypeCurrency, TypePercentage, TypeDate}

// CurrencySymbols is the fixed glyph set recognized by the currency detector.
var CurrencySymbols = []string{"$", "€", "£", "¥", "₹", "₽", "₩", "₪", "₦", "₱", "₡", "₴"}

var currencyPattern = regexp.MustCompile(buildCurrencyClass())

// letters other than e/E disqualify a value from numeric conversion
var nonNumericLetter = regexp.MustCompile(`[a-df-zA-DF-Z]`)

func buildCurrencyClass() string {
	var b strings.Builder
	b.WriteString("[")
	for _, s := range CurrencySymbols {
		b.WriteString(regexp.QuoteMeta(s))
	}
	b.WriteString("]")
	return b.String()
}

// ConvertPercentage converts a percentage string to a decimal fraction:
// "3%" -> 0.03, "15.5%" -> 0.155. Note that this intentionally differs from
// CleanNumeric, which keeps the percentage as the plain number ("2.5%" ->
// 2.5). Both behaviors exist in the wild for this data and callers must pick
// one explicitly; see ColumnDetector for where each applies.
func ConvertPercentage(value string) (float64, bool) {
	s := strings.TrimSpace(value)
	s = strings.ReplaceAll(s, "%", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f / 100.0, true
}

// ConvertCurrency converts a currency string to a number:
// "$1,000.00" -> 1000.0, "€500" -> 500.0.
func ConvertCurrency(value string) (float64, bool) {
	s := strings.TrimSpace(value)
	for _, sym := range CurrencySymbols {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ConvertNumber converts a formatted number string to a float:
// "1,000" -> 1000.0, "1,000.00" -> 1000.0, "1e6" -> 1000000.0. Any letter
// other than e/E disqualifies the value.
func ConvertNumber(value string) (float64, bool) {
	s := strings.TrimSpace(value)
	if s == "" {
		return 0, false
	}
	if nonNumericLetter.MatchString(s) {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// CleanNumeric coerces a raw value to a number for aggregation, handling
// currency symbols, thousands separators, and percent signs. Percentages keep
// their numeric face value ("2.5%" -> 2.5). Values that fail to parse coerce
// to 0.0 so one malformed cell never aborts a pass; 0.0 is therefore
// indistinguishable from a failed coercion on this path.
func CleanNumeric(value string) float64 {
	s := strings.TrimSpace(value)
	if s == "" {
		return 0
	}
	for _, sym := range CurrencySymbols {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "%", "")
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// Convert converts a single value to the target type. Failed conversions
// return the type-specific sentinel (0 for numeric paths, the input for
// text/date) and ok=false.
func Convert(value string, target ValueType) (string, float64, bool) {
	switch target {
	case TypePercentage:
		f, ok := ConvertPercentage(value)
		return "", f, ok
	case TypeCurrency:
		f, ok := ConvertCurrency(value)
		return "", f, ok
	case TypeNumeric:
		f, ok := ConvertNumber(value)
		return "", f, ok
	case TypeDate:
		iso, _, ok := ConvertDate(value)
		return iso, 0, ok
	default:
		return value, 0, true
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func hasCurrencySymbol(s string) bool {
	return currencyPattern.MatchString(s)
}

func hasPercentSign(s string) bool {
	return strings.Contains(s, "%")
}
