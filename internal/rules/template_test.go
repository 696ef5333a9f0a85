package rules

import "testing"

func TestRenderCommandTemplateSubstitutesPlainString(t *testing.T) {
	got, err := RenderCommandTemplate("echo {task}", BoundVariables{"task": "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "echo hello" {
		t.Errorf("got %q, want %q", got, "echo hello")
	}
}

func TestRenderCommandTemplateSerializesArrayAsCompactJSON(t *testing.T) {
	got, err := RenderCommandTemplate("tags={tags}", BoundVariables{"tags": []any{1, 2, 3}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "tags=[1,2,3]" {
		t.Errorf("got %q, want %q", got, "tags=[1,2,3]")
	}
}

func TestRenderCommandTemplateSerializesObjectAsCompactJSON(t *testing.T) {
	got, err := RenderCommandTemplate("meta={meta}", BoundVariables{"meta": map[string]any{"ticket": "ABC-1"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `meta={"ticket":"ABC-1"}` {
		t.Errorf("got %q, want compact JSON object", got)
	}
}
