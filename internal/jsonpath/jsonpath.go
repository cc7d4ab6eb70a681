// Package jsonpath implements the dotted/bracket path grammar shared by the
// template engine and the response extractor: `a.b[0].c`, with an optional
// leading `$` root marker for response paths.
package jsonpath

import (
	"fmt"
	"strconv"
	"strings"
)

// Segment is one step of a parsed path: either a map key or an array index.
type Segment struct {
	Key   string
	Index int
	IsKey bool
}

// ParseError reports a malformed path expression.
type ParseError struct {
	Path   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Reason)
}

// Parse splits a path expression into segments. A leading `$` or `$.` is
// stripped. Empty paths and empty segments are rejected.
func Parse(path string) ([]Segment, error) {
	raw := strings.TrimSpace(path)
	raw = strings.TrimPrefix(raw, "$")
	raw = strings.TrimPrefix(raw, ".")
	if raw == "" {
		return nil, &ParseError{Path: path, Reason: "empty path"}
	}
	var segs []Segment
	for _, part := range strings.Split(raw, ".") {
		if part == "" {
			return nil, &ParseError{Path: path, Reason: "empty segment"}
		}
		key := part
		var brackets []string
		if open := strings.IndexByte(part, '['); open >= 0 {
			key = part[:open]
			// Indexes may only trail the key: `a[0][1]` is fine, `a[0]b`
			// is not.
			rest := part[open:]
			for rest != "" {
				if rest[0] != '[' {
					return nil, &ParseError{Path: path, Reason: fmt.Sprintf("unexpected %q after index", rest)}
				}
				close := strings.IndexByte(rest, ']')
				if close < 0 {
					return nil, &ParseError{Path: path, Reason: "unclosed bracket"}
				}
				brackets = append(brackets, rest[1:close])
				rest = rest[close+1:]
			}
		}
		if key != "" {
			segs = append(segs, Segment{Key: key, IsKey: true})
		} else if len(brackets) == 0 {
			return nil, &ParseError{Path: path, Reason: "empty segment"}
		}
		for _, b := range brackets {
			idx, err := strconv.Atoi(b)
			if err != nil || idx < 0 {
				return nil, &ParseError{Path: path, Reason: fmt.Sprintf("bad index %q", b)}
			}
			segs = append(segs, Segment{Index: idx})
		}
	}
	return segs, nil
}

// Eval walks value along the parsed segments. The second return is false when
// any segment does not resolve; it never invents a zero value.
func Eval(segs []Segment, value any) (any, bool) {
	cur := value
	for _, seg := range segs {
		if seg.IsKey {
			m, ok := cur.(map[string]any)
			if !ok {
				return nil, false
			}
			next, ok := m[seg.Key]
			if !ok {
				return nil, false
			}
			cur = next
			continue
		}
		arr, ok := cur.([]any)
		if !ok || seg.Index >= len(arr) {
			return nil, false
		}
		cur = arr[seg.Index]
	}
	return cur, true
}

// Lookup parses and evaluates path against value in one call.
func Lookup(path string, value any) (any, bool, error) {
	segs, err := Parse(path)
	if err != nil {
		return nil, false, err
	}
	v, ok := Eval(segs, value)
	return v, ok, nil
}
