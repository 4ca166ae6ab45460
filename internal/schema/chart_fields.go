package schema

// Chart hierarchies per report type, outermost grouping first. Column names
// here use the underscored form produced by fixed-schema ingestion.
var chartFields = map[string][]string{
	TypeBasic: {"scan_type", "hit_type", "incident", "tag_name"},
	TypeEnhanced: {
		"hit_type", "threat_behavior", "malware_condition",
		"incident", "tag_name",
	},
	TypeDetailed: {
		"publisher_name", "website_name", "provider_name",
		"country", "hit_type", "named_threat", "threat_behavior",
		"malware_condition", "incident", "tag_name",
	},
	TypeFull: {
		"publisher_name", "website_name", "provider_name",
		"country", "hit_type", "named_threat", "threat_behavior",
		"malware_condition", "incident", "tag_name",
	},
}

// detailFields are the optional detail columns that participate in the
// detailed/full hierarchies only when they actually hold data.
var detailFields = []string{
	"publisher_name", "website_name", "provider_name",
	"provider_account", "country",
}

// standardDetailTail is appended after whichever detail fields have data.
var standardDetailTail = []string{
	"hit_type", "named_threat", "threat_behavior",
	"malware_condition", "incident", "tag_name",
}

// ChartFields returns the hierarchy columns for the given report type.
// hasData reports whether a column holds at least one non-blank value; for
// detailed and full reports, detail columns without data are dropped so the
// chart never nests through an all-empty ring. A nil hasData keeps every
// field.
func ChartFields(reportType string, hasData func(column string) bool) []string {
	base, ok := chartFields[reportType]
	if !ok {
		return nil
	}

	if reportType != TypeDetailed && reportType != TypeFull {
		return append([]string{}, base...)
	}

	if hasData == nil {
		return append([]string{}, base...)
	}

	var present []string
	for _, f := range detailFields {
		if hasData(f) {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return append([]string{}, base...)
	}
	return append(present, standardDetailTail...)
}
