package normalize

import "strings"

// DefaultSampleSize is the number of non-null values sampled per column.
const DefaultSampleSize = 100

// confidenceThreshold is the fraction of a sample a detector must convert
// before its type is accepted.
const confidenceThreshold = 0.8

const maxSampleEcho = 5

// Detection is the result of column-level type detection.
type Detection struct {
	Type             ValueType    `json:"detected_type"`
	Confidence       float64      `json:"confidence"`
	SampleValues     []string     `json:"sample_values"`
	ConvertedSamples []string     `json:"converted_samples"`
	Ambiguous        bool         `json:"ambiguous"`
	FormatsFound     []DateFormat `json:"formats_found,omitempty"`
}

// ColumnDetector samples a column's values and classifies the column.
// The zero value uses the default sample size.
type ColumnDetector struct {
	SampleSize int
}

// DetectColumnType analyzes column values and detects their type. Detectors
// run in order of specificity (percentage, currency, date, numeric); the
// first whose confidence exceeds the threshold wins, otherwise the column is
// text with full confidence.
func (d ColumnDetector) DetectColumnType(values []string) Detection {
	limit := d.SampleSize
	if limit <= 0 {
		limit = DefaultSampleSize
	}

	sample := make([]string, 0, limit)
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		sample = append(sample, v)
		if len(sample) >= limit {
			break
		}
	}

	if len(sample) == 0 {
		return Detection{Type: TypeText, SampleValues: []string{}, ConvertedSamples: []string{}}
	}

	if det := detectPercentage(sample); det.Confidence > confidenceThreshold {
		return det
	}
	if det := detectCurrency(sample); det.Confidence > confidenceThreshold {
		return det
	}
	if det := detectDate(sample); det.Confidence > confidenceThreshold {
		return det
	}
	if det := detectNumeric(sample); det.Confidence > confidenceThreshold {
		return det
	}

	echo := echoSample(sample)
	return Detection{
		Type:             TypeText,
		Confidence:       1.0,
		SampleValues:     echo,
		ConvertedSamples: echo,
	}
}

func detectPercentage(sample []string) Detection {
	matched := 0
	converted := make([]string, 0, maxSampleEcho)
	for i, v := range sample {
		s := strings.TrimSpace(v)
		out := v
		if hasPercentSign(s) {
			matched++
			if f, ok := ConvertPercentage(s); ok {
				out = formatFloat(f)
			}
		}
		if i < maxSampleEcho {
			converted = append(converted, out)
		}
	}
	return Detection{
		Type:             TypePercentage,
		Confidence:       float64(matched) / float64(len(sample)),
		SampleValues:     echoSample(sample),
		ConvertedSamples: converted,
	}
}

func detectCurrency(sample []string) Detection {
	matched := 0
	converted := make([]string, 0, maxSampleEcho)
	for i, v := range sample {
		s := strings.TrimSpace(v)
		out := v
		if hasCurrencySymbol(s) {
			matched++
			if f, ok := ConvertCurrency(s); ok {
				out = formatFloat(f)
			}
		}
		if i < maxSampleEcho {
			converted = append(converted, out)
		}
	}
	return Detection{
		Type:             TypeCurrency,
		Confidence:       float64(matched) / float64(len(sample)),
		SampleValues:     echoSample(sample),
		ConvertedSamples: converted,
	}
}

func detectDate(sample []string) Detection {
	matched := 0
	converted := make([]string, 0, maxSampleEcho)
	formats := make(map[DateFormat]struct{})
	for i, v := range sample {
		out := v
		if iso, format, ok := ConvertDate(v); ok {
			matched++
			out = iso
			formats[format] = struct{}{}
		}
		if i < maxSampleEcho {
			converted = append(converted, out)
		}
	}

	// More than one distinct source format in one column means the column's
	// dates cannot be interpreted consistently.
	ambiguous := len(formats) > 1
	var found []DateFormat
	if ambiguous {
		for _, f := range []DateFormat{FormatISO, FormatUS, FormatEU, FormatText} {
			if _, ok := formats[f]; ok {
				found = append(found, f)
			}
		}
	}

	return Detection{
		Type:             TypeDate,
		Confidence:       float64(matched) / float64(len(sample)),
		SampleValues:     echoSample(sample),
		ConvertedSamples: converted,
		Ambiguous:        ambiguous,
		FormatsFound:     found,
	}
}

func detectNumeric(sample []string) Detection {
	matched := 0
	converted := make([]string, 0, maxSampleEcho)
	for i, v := range sample {
		out := v
		if f, ok := ConvertNumber(v); ok {
			matched++
			out = formatFloat(f)
		}
		if i < maxSampleEcho {
			converted = append(converted, out)
		}
	}
	return Detection{
		Type:             TypeNumeric,
		Confidence:       float64(matched) / float64(len(sample)),
		SampleValues:     echoSample(sample),
		ConvertedSamples: converted,
	}
}

func echoSample(sample []string) []string {
	n := len(sample)
	if n > maxSampleEcho {
		n = maxSampleEcho
	}
	out := make([]string, n)
	copy(out, sample[:n])
	return out
}
