package normalize

import (
	"strconv"
	"strings"
	"time"
)

// DateFormat tags the source format a date value was parsed from.
type DateFormat string

const (
	FormatISO  DateFormat = "ISO"
	FormatUS   DateFormat = "US"
	FormatEU   DateFormat = "EU"
	FormatText DateFormat = "TEXT"
)

// Layout sets tried per source family. Slash dates are disambiguated before
// parsing: a first component above 12 forces day-first interpretation.
var (
	isoLayouts = []string{
		"2006-01-02",
		"2006/01/02",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		time.RFC3339,
	}
	usSlashLayouts = []string{
		"01/02/2006",
		"1/2/2006",
		"01/02/2006 15:04",
		"1/2/2006 15:04",
	}
	euSlashLayouts = []string{
		"02/01/2006",
		"2/1/2006",
		"02/01/2006 15:04",
	}
	textLayouts = []string{
		"Jan 2, 2006",
		"January 2, 2006",
		"Jan. 2, 2006",
		"2 Jan 2006",
		"2 January 2006",
		"Jan 2 2006",
	}
)

// ConvertDate parses a date string and returns it in ISO-8601 form
// (YYYY-MM-DD) together with the detected source format:
// "2025-01-01" -> ("2025-01-01", ISO), "01/15/2025" -> ("2025-01-15", US).
// Slash dates with an ambiguous first component default to US.
func ConvertDate(value string) (string, DateFormat, bool) {
	s := strings.TrimSpace(value)
	if s == "" {
		return "", "", false
	}

	switch {
	case strings.Contains(s, "/"):
		layouts := usSlashLayouts
		format := FormatUS
		if dayFirst(s) {
			layouts = euSlashLayouts
			format = FormatEU
		}
		if t, ok := tryLayouts(s, layouts); ok {
			return t.Format("2006-01-02"), format, true
		}
	case strings.Contains(s, "-") && !looksNumeric(s):
		if t, ok := tryLayouts(s, isoLayouts); ok {
			return t.Format("2006-01-02"), FormatISO, true
		}
	default:
		if t, ok := tryLayouts(s, textLayouts); ok {
			return t.Format("2006-01-02"), FormatText, true
		}
	}

	return "", "", false
}

func tryLayouts(s string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// dayFirst reports whether a slash date must be day-first because its first
// component exceeds 12.
func dayFirst(s string) bool {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return false
	}
	first, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return false
	}
	return first > 12
}

// looksNumeric guards the ISO branch against negative numbers such as "-42".
func looksNumeric(s string) bool {
	_, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	return err == nil
}
