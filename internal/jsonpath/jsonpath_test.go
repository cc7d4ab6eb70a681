package jsonpath_test

import (
	"reflect"
	"testing"

	"github.com/shortforge/short-video-pipeline/internal/jsonpath"
)

func TestLookupResolvesNestedPaths(t *testing.T) {
	doc := map[string]any{
		"choices": []any{
			map[string]any{
				"message": map[string]any{"content": "hi"},
			},
		},
		"usage": map[string]any{"total_tokens": float64(42)},
	}

	cases := []struct {
		name string
		path string
		want any
	}{
		{"nested index", "choices[0].message.content", "hi"},
		{"dollar root", "$.choices[0].message.content", "hi"},
		{"number leaf", "usage.total_tokens", float64(42)},
		{"object leaf", "choices[0].message", map[string]any{"content": "hi"}},
		{"array leaf", "choices", doc["choices"]},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok, err := jsonpath.Lookup(tc.path, doc)
			if err != nil {
				t.Fatalf("Lookup(%q) error: %v", tc.path, err)
			}
			if !ok {
				t.Fatalf("Lookup(%q) did not resolve", tc.path)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Lookup(%q) = %#v, want %#v", tc.path, got, tc.want)
			}
		})
	}
}

func TestLookupMissing(t *testing.T) {
	doc := map[string]any{"a": []any{"x"}}

	for _, path := range []string{"b", "a[1]", "a[0].k", "a.b.c"} {
		_, ok, err := jsonpath.Lookup(path, doc)
		if err != nil {
			t.Fatalf("Lookup(%q) error: %v", path, err)
		}
		if ok {
			t.Fatalf("Lookup(%q) resolved unexpectedly", path)
		}
	}
}

func TestParseRejectsMalformedPaths(t *testing.T) {
	for _, path := range []string{"", "$", "a..b", "a[b]", "a[", "a[-1]", ".a.", "a[0]b", "a[0]b[1]"} {
		if _, err := jsonpath.Parse(path); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", path)
		}
	}
}

func TestParseMultipleIndices(t *testing.T) {
	got, ok, err := jsonpath.Lookup("grid[1][0]", map[string]any{
		"grid": []any{
			[]any{"a"},
			[]any{"b", "c"},
		},
	})
	if err != nil || !ok {
		t.Fatalf("Lookup failed: ok=%v err=%v", ok, err)
	}
	if got != "b" {
		t.Fatalf("got %#v, want \"b\"", got)
	}
}
