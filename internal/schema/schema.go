// Package schema matches uploaded column headers against the predefined
// report-type definitions. A file with extra columns still matches; a richer
// file legitimately satisfies several definitions at once.
package schema

import (
	"fmt"
	"strings"
	"sync"
)

// Report type names, ordered from least to most detailed. Each type's
// required header set is a superset of the previous one.
const (
	TypeBasic    = "basic"
	TypeEnhanced = "enhanced"
	TypeDetailed = "detailed"
	TypeFull     = "full"
)

// detailOrder fixes the least-to-most-detailed ordering of match results.
var detailOrder = []string{TypeBasic, TypeEnhanced, TypeDetailed, TypeFull}

var basicFields = []string{
	"incident", "ad tag id", "hash", "tag name", "scan type",
	"hit type", "scan date", "scan id", "example", "csid",
	"resolution reason",
}

var enhancedFields = append(append([]string{}, basicFields...),
	"comment type", "comment text", "threat behavior",
	"expected behavior", "malware condition",
)

var detailedFields = append(append([]string{}, enhancedFields...),
	"start date", "end date", "pause", "priority",
	"publisher name", "publisher id", "website id",
	"website name", "provider id", "provider name",
	"provider account id", "provider account", "country",
	"referrer", "city", "named threat",
)

var fullFields = append(append([]string{}, detailedFields...),
	"report period hit count", "tag status", "public deck",
	"extracted source",
)

// NormalizeHeader lowercases, trims, and collapses internal whitespace of a
// header for schema matching. It keeps spaces: the underscore rule lives in
// domain.NormalizeColumnName and applies only when column names are rewritten
// for fixed-schema ingestion. The two rules are separate on purpose.
func NormalizeHeader(header string) string {
	return strings.Join(strings.Fields(strings.ToLower(header)), " ")
}

// Registry holds the report-type definitions. It is immutable after startup
// reads aside from explicit, guarded Register calls, and safe for concurrent
// Match calls.
type Registry struct {
	mu    sync.RWMutex
	types map[string]map[string]struct{}
	order []string
}

// NewRegistry returns a registry loaded with the predefined report types.
func NewRegistry() *Registry {
	r := &Registry{
		types: make(map[string]map[string]struct{}),
	}
	for name, fields := range map[string][]string{
		TypeBasic:    basicFields,
		TypeEnhanced: enhancedFields,
		TypeDetailed: detailedFields,
		TypeFull:     fullFields,
	} {
		r.types[name] = normalizeSet(fields)
	}
	r.order = append(r.order, detailOrder...)
	return r
}

func normalizeSet(fields []string) map[string]struct{} {
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[NormalizeHeader(f)] = struct{}{}
	}
	return set
}

// Register adds a custom report type. The name must not collide with an
// existing type; the new type appends to the detail ordering.
func (r *Registry) Register(name string, fields []string) error {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return fmt.Errorf("report type name is required")
	}
	if len(fields) == 0 {
		return fmt.Errorf("report type %q requires at least one field", key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[key]; exists {
		return fmt.Errorf("report type %q already exists", key)
	}
	r.types[key] = normalizeSet(fields)
	r.order = append(r.order, key)
	return nil
}

// Match returns every report type whose required headers are a subset of the
// given headers, ordered from least to most detailed. Extra headers in the
// input are tolerated.
func (r *Registry) Match(headers []string) []string {
	have := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		have[NormalizeHeader(h)] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []string
	for _, name := range r.order {
		required := r.types[name]
		if subset(required, have) {
			matched = append(matched, name)
		}
	}
	return matched
}

// MostDetailed returns the richest matching report type, or "" when nothing
// matches.
func (r *Registry) MostDetailed(headers []string) string {
	matched := r.Match(headers)
	if len(matched) == 0 {
		return ""
	}
	return matched[len(matched)-1]
}

// MissingFields reports which required headers of the named type are absent
// from the given headers, for remediation messages.
func (r *Registry) MissingFields(name string, headers []string) []string {
	have := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		have[NormalizeHeader(h)] = struct{}{}
	}

	r.mu.RLock()
	required, ok := r.types[strings.ToLower(name)]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	var missing []string
	for f := range required {
		if _, present := have[f]; !present {
			missing = append(missing, f)
		}
	}
	return missing
}

// Types returns the registered type names in detail order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func subset(required, have map[string]struct{}) bool {
	for f := range required {
		if _, ok := have[f]; !ok {
			return false
		}
	}
	return true
}
