package template_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shortforge/short-video-pipeline/internal/template"
)

func ctx() map[string]any {
	return map[string]any{
		"input": map[string]any{
			"topic":          "cats",
			"targetDuration": float64(30),
			"messages": []any{
				map[string]any{"role": "user", "content": "write about cats"},
			},
		},
		"output": map[string]any{
			"script": map[string]any{"text": "a script about cats"},
		},
	}
}

func TestResolvePassesThroughPlaceholderFreeTemplates(t *testing.T) {
	cases := []any{
		"plain text",
		float64(7),
		true,
		nil,
		map[string]any{"model": "gpt-4", "n": float64(1)},
		[]any{"a", float64(2)},
	}
	for _, tmpl := range cases {
		got, err := template.Resolve(tmpl, ctx())
		if err != nil {
			t.Fatalf("Resolve(%#v) error: %v", tmpl, err)
		}
		if !reflect.DeepEqual(got, tmpl) {
			t.Fatalf("Resolve(%#v) = %#v, want unchanged", tmpl, got)
		}
	}
}

func TestResolveSoleTokenKeepsNativeType(t *testing.T) {
	tmpl := map[string]any{
		"messages": "{{input.messages}}",
		"n":        "{{input.targetDuration}}",
		"x":        "{{input.topic}}",
	}
	got, err := template.Resolve(tmpl, ctx())
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	resolved := got.(map[string]any)
	if _, ok := resolved["messages"].([]any); !ok {
		t.Fatalf("messages = %#v, want native array", resolved["messages"])
	}
	if resolved["n"] != float64(30) {
		t.Fatalf("n = %#v, want 30 as number", resolved["n"])
	}
	if resolved["x"] != "cats" {
		t.Fatalf("x = %#v, want \"cats\"", resolved["x"])
	}
}

func TestResolveMixedLeafStringifies(t *testing.T) {
	got, err := template.Resolve("Topic: {{input.topic}}!", ctx())
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got != "Topic: cats!" {
		t.Fatalf("got %#v, want \"Topic: cats!\"", got)
	}
}

func TestResolveMultiplePlaceholdersInOneLeaf(t *testing.T) {
	got, err := template.Resolve("{{input.topic}} in {{input.targetDuration}}s", ctx())
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got != "cats in 30s" {
		t.Fatalf("got %#v, want \"cats in 30s\"", got)
	}
}

func TestResolvePriorStageOutputReference(t *testing.T) {
	got, err := template.Resolve(map[string]any{"text": "{{output.script.text}}"}, ctx())
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got.(map[string]any)["text"] != "a script about cats" {
		t.Fatalf("got %#v", got)
	}
}

func TestResolveMissingPathFails(t *testing.T) {
	_, err := template.Resolve(map[string]any{"x": "{{input.missing}}"}, ctx())
	if err == nil {
		t.Fatal("expected error for missing path")
	}
	var terr *template.Error
	if !errors.As(err, &terr) {
		t.Fatalf("error type %T, want *template.Error", err)
	}
	if terr.Path != "input.missing" {
		t.Fatalf("error path %q, want input.missing", terr.Path)
	}
}

func TestResolveNestedTreeWithIndices(t *testing.T) {
	tmpl := map[string]any{
		"parts": []any{
			map[string]any{"role": "{{input.messages[0].role}}"},
		},
	}
	got, err := template.Resolve(tmpl, ctx())
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	part := got.(map[string]any)["parts"].([]any)[0].(map[string]any)
	if part["role"] != "user" {
		t.Fatalf("role = %#v, want \"user\"", part["role"])
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	tmpl := map[string]any{"a": "{{input.topic}}", "b": []any{"{{input.targetDuration}}"}}
	first, err := template.Resolve(tmpl, ctx())
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	second, err := template.Resolve(tmpl, ctx())
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("resolution not deterministic: %#v vs %#v", first, second)
	}
}
