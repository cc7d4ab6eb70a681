// Package extract applies manifest responseExtract mappings to a decoded JSON
// response, producing the normalized output record a stage stores.
package extract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shortforge/short-video-pipeline/internal/jsonpath"
)

// FieldError is one output field whose path did not resolve.
type FieldError struct {
	Field string
	Path  string
}

// Error lists every field that failed to extract. The caller decides whether
// partial success is acceptable; this package only reports.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = fmt.Sprintf("%s (%s)", f.Field, f.Path)
	}
	return "extract: unresolved fields: " + strings.Join(names, ", ")
}

// FieldNames returns the failed field names in sorted order.
func (e *Error) FieldNames() []string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Field
	}
	sort.Strings(names)
	return names
}

// Extract evaluates every mapping path against response. On any miss it
// returns the partial record alongside an *Error naming all failed fields.
// Structured leaves (objects, arrays) pass through as-is, never flattened.
func Extract(mappings map[string]string, response any) (map[string]any, error) {
	record := make(map[string]any, len(mappings))
	var failed []FieldError
	for field, path := range mappings {
		val, ok, err := jsonpath.Lookup(path, response)
		if err != nil || !ok {
			failed = append(failed, FieldError{Field: field, Path: path})
			continue
		}
		record[field] = val
	}
	if len(failed) > 0 {
		sort.Slice(failed, func(i, j int) bool { return failed[i].Field < failed[j].Field })
		return record, &Error{Fields: failed}
	}
	return record, nil
}
