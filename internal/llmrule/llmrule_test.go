package llmrule

import (
	"testing"
)

func TestParseModelArrayExtractsSortedUniqueIds(t *testing.T) {
	payload := map[string]any{
		"data": []any{
			map[string]any{"id": "gpt-4o"},
			map[string]any{"id": "gpt-3.5-turbo"},
			map[string]any{"id": "gpt-4o"},
			map[string]any{"not_id": "ignored"},
		},
	}
	got := parseModelArray(payload)
	want := []string{"gpt-3.5-turbo", "gpt-4o"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
			break
		}
	}
}

func TestParseOpenAIChatExtractsContent(t *testing.T) {
	payload := map[string]any{
		"choices": []any{
			map[string]any{
				"message": map[string]any{"content": `{"match":true}`},
			},
		},
	}
	content, err := parseOpenAIChatContent(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content != `{"match":true}` {
		t.Errorf("got %q", content)
	}
}

func TestParseOpenAIChatRejectsMissingChoices(t *testing.T) {
	if _, err := parseOpenAIChatContent(map[string]any{}); err == nil {
		t.Error("expected error for missing choices")
	}
}

func TestParseAnthropicMessageExtractsText(t *testing.T) {
	payload := map[string]any{
		"content": []any{
			map[string]any{"type": "text", "text": `{"match":false}`},
		},
	}
	text, err := parseAnthropicMessageText(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != `{"match":false}` {
		t.Errorf("got %q", text)
	}
}

func TestParseAnthropicMessageRejectsEmptyContent(t *testing.T) {
	if _, err := parseAnthropicMessageText(map[string]any{"content": []any{}}); err == nil {
		t.Error("expected error for empty content")
	}
}

func TestMockedModelListFromEnvParsesAndDeduplicates(t *testing.T) {
	t.Setenv("HERD_MODEL_FETCH_FIXTURE", "gpt-4o, gpt-4o ,gpt-3.5-turbo,")
	models, ok := mockedModelListFromEnv()
	if !ok {
		t.Fatal("expected fixture to be recognized")
	}
	want := []string{"gpt-3.5-turbo", "gpt-4o"}
	if len(models) != len(want) {
		t.Fatalf("got %v, want %v", models, want)
	}
	for i := range want {
		if models[i] != want[i] {
			t.Errorf("got %v, want %v", models, want)
			break
		}
	}
}

func TestMockedModelListFromEnvAbsentWhenEmpty(t *testing.T) {
	t.Setenv("HERD_MODEL_FETCH_FIXTURE", "")
	_, ok := mockedModelListFromEnv()
	if ok {
		t.Error("expected no fixture when env var is empty")
	}
}

func TestFetchModelsUsesFixtureOverNetwork(t *testing.T) {
	t.Setenv("HERD_MODEL_FETCH_FIXTURE", "model-a,model-b")
	models, err := FetchModels("openai", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(models) != 2 || models[0] != "model-a" || models[1] != "model-b" {
		t.Errorf("got %v", models)
	}
}

func TestFetchModelsRequiresAPIKeyWithoutFixture(t *testing.T) {
	t.Setenv("HERD_MODEL_FETCH_FIXTURE", "")
	if _, err := FetchModels("openai", "  "); err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestEvaluateRuleRequiresModel(t *testing.T) {
	if _, err := EvaluateRule("openai", "key", " ", "rule", "input"); err == nil {
		t.Error("expected error for missing model")
	}
}
