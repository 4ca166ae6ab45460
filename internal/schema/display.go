package schema

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Known acronyms rendered uppercase in display names.
var acronyms = map[string]struct{}{
	"id": {}, "url": {}, "api": {}, "html": {}, "css": {}, "sql": {},
	"csv": {}, "json": {}, "xml": {}, "http": {}, "https": {}, "ftp": {},
	"ssh": {}, "ip": {}, "dns": {}, "cdn": {}, "seo": {}, "roi": {},
	"kpi": {}, "ctr": {}, "cpc": {}, "cpm": {}, "crm": {}, "erp": {},
	"saas": {}, "b2b": {}, "b2c": {}, "dsp": {},
}

var commonPrefixes = []string{
	"col_", "field_", "data_", "val_", "value_", "attr_",
	"prop_", "item_", "row_", "column_",
}

var commonSuffixes = []string{
	"_id", "_key", "_field", "_col", "_column", "_value",
	"_data", "_attr", "_prop", "_item",
}

var (
	camelBoundary   = regexp.MustCompile(`([a-z])([A-Z])`)
	acronymBoundary = regexp.MustCompile(`([A-Z]+)([A-Z][a-z])`)
)

// DisplayName converts a technical column name to a human-readable title:
// "num_widgets" -> "Num Widgets", "totalRevenue" -> "Total Revenue",
// "col_customer_id" -> "Customer ID", "dsp_name" -> "DSP Name".
func DisplayName(technicalName string) string {
	name := strings.TrimSpace(technicalName)
	if name == "" {
		return ""
	}

	name = stripAffixes(name)
	name = toTitleCase(name)
	return capitalizeAcronyms(name)
}

// DisplayNames maps each technical name to its display form.
func DisplayNames(technicalNames []string) map[string]string {
	out := make(map[string]string, len(technicalNames))
	for _, name := range technicalNames {
		out[name] = DisplayName(name)
	}
	return out
}

func stripAffixes(name string) string {
	lower := strings.ToLower(name)
	for _, prefix := range commonPrefixes {
		if strings.HasPrefix(lower, prefix) {
			name = name[len(prefix):]
			break
		}
	}
	lower = strings.ToLower(name)
	for _, suffix := range commonSuffixes {
		if strings.HasSuffix(lower, suffix) {
			// keep the acronym when the suffix itself is one, as in
			// "customer_id" -> "Customer ID"
			trimmed := strings.TrimPrefix(suffix, "_")
			if _, isAcronym := acronyms[trimmed]; isAcronym {
				break
			}
			name = name[:len(name)-len(suffix)]
			break
		}
	}
	return name
}

func toTitleCase(name string) string {
	name = strings.ReplaceAll(name, "_", " ")
	name = camelBoundary.ReplaceAllString(name, "$1 $2")
	name = acronymBoundary.ReplaceAllString(name, "$1 $2")

	words := strings.Fields(name)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = strings.ToUpper(string(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

func capitalizeAcronyms(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		if _, ok := acronyms[strings.ToLower(w)]; ok {
			words[i] = strings.ToUpper(w)
		}
	}
	return strings.Join(words, " ")
}
