// Package template resolves {{path.to.value}} placeholders in manifest body
// templates against a runtime input context. Resolution is pure: no I/O, and
// identical inputs always produce identical output.
package template

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shortforge/short-video-pipeline/internal/jsonpath"
)

const (
	openToken  = "{{"
	closeToken = "}}"
)

// Error reports a placeholder whose path did not resolve against the context.
// A missing value is never silently substituted with an empty one; an
// ambiguous empty field sent to an external API is a correctness risk.
type Error struct {
	Path string
}

func (e *Error) Error() string {
	return fmt.Sprintf("template: path %q not found in context", e.Path)
}

// Resolve walks the template tree and substitutes placeholders from ctx.
//
// A string leaf that is exactly one placeholder token resolves to the
// referenced value's native type. A leaf mixing literal text and placeholders
// stringifies each placeholder in place. Non-string scalars and empty
// containers pass through untouched.
func Resolve(tmpl any, ctx any) (any, error) {
	switch node := tmpl.(type) {
	case map[string]any:
		out := make(map[string]any, len(node))
		for k, v := range node {
			resolved, err := Resolve(v, ctx)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(node))
		for i, v := range node {
			resolved, err := Resolve(v, ctx)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	case string:
		return resolveLeaf(node, ctx)
	default:
		return node, nil
	}
}

func resolveLeaf(leaf string, ctx any) (any, error) {
	if !strings.Contains(leaf, openToken) {
		return leaf, nil
	}
	if expr, sole := soleToken(leaf); sole {
		return lookup(expr, ctx)
	}
	var b strings.Builder
	rest := leaf
	for {
		open := strings.Index(rest, openToken)
		if open < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		close := strings.Index(rest[open:], closeToken)
		if close < 0 {
			// Unterminated token: treat the remainder as literal text.
			b.WriteString(rest)
			return b.String(), nil
		}
		b.WriteString(rest[:open])
		expr := rest[open+len(openToken) : open+close]
		val, err := lookup(expr, ctx)
		if err != nil {
			return nil, err
		}
		b.WriteString(stringify(val))
		rest = rest[open+close+len(closeToken):]
	}
}

// soleToken reports whether leaf is exactly one placeholder with no
// surrounding text, returning the inner expression.
func soleToken(leaf string) (string, bool) {
	if !strings.HasPrefix(leaf, openToken) || !strings.HasSuffix(leaf, closeToken) {
		return "", false
	}
	inner := leaf[len(openToken) : len(leaf)-len(closeToken)]
	if strings.Contains(inner, openToken) || strings.Contains(inner, closeToken) {
		return "", false
	}
	return inner, true
}

func lookup(expr string, ctx any) (any, error) {
	path := strings.TrimSpace(expr)
	val, ok, err := jsonpath.Lookup(path, ctx)
	if err != nil || !ok {
		return nil, &Error{Path: path}
	}
	return val, nil
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}
