package rules

import (
	"os"
	"testing"
)

func testRuntimeContext() *RuleRuntimeContext {
	return &RuleRuntimeContext{
		PaneID:      "%1",
		SessionName: "agent-a",
		Status: RuleStatusContext{
			State:           "stalled",
			DisplayStatus:   "stalled",
			InactiveSecs:    240,
			WaitingSecs:     0,
			Confidence:      90,
			EligibleForHerd: true,
			Reasons:         []string{"inactivity_exceeded"},
		},
	}
}

func TestRenderCommandTemplateFailsWhenMissingVariable(t *testing.T) {
	if _, err := RenderCommandTemplate("echo {missing}", BoundVariables{}); err == nil {
		t.Error("expected an error for an unbound placeholder")
	}
}

func TestParseLlmJSONRequiresMatchBoolean(t *testing.T) {
	if _, err := ParseLlmDecisionJSON(`{"command":"echo hi"}`); err == nil {
		t.Error("expected an error when match is absent")
	}
}

func TestEvaluateRulesStopsOnFirstMatch(t *testing.T) {
	ruleFile := &RuleFile{
		Version: 1,
		Rules: []RuleDefinition{
			{Regex: &RegexRule{
				ID:              "first",
				Enabled:         true,
				InputScope:      ScopeFullBuffer,
				Pattern:         "(?P<task>hello)",
				CommandTemplate: "echo {task}",
			}},
			{Regex: &RegexRule{
				ID:              "second",
				Enabled:         true,
				InputScope:      ScopeFullBuffer,
				Pattern:         "(?P<task>hello)",
				CommandTemplate: "echo second",
			}},
		},
	}
	noopLLM := func(rule *LlmRule, input string, ctx *RuleRuntimeContext) (LlmRuleDecision, error) {
		return LlmRuleDecision{}, nil
	}
	summary := EvaluateRulesInOrder(ruleFile, "hello world", "hello", testRuntimeContext(), noopLLM)

	if summary.MatchedRuleID == nil || *summary.MatchedRuleID != "first" {
		t.Fatalf("got matched rule %v, want first", summary.MatchedRuleID)
	}
	if summary.CommandToSend == nil || *summary.CommandToSend != "echo hello" {
		t.Fatalf("got command %v, want echo hello", summary.CommandToSend)
	}
	if summary.Variables["status_state"] != "stalled" {
		t.Errorf("got status_state %v, want stalled", summary.Variables["status_state"])
	}
}

func TestEvaluateLlmRuleSupportsCommandVariable(t *testing.T) {
	ruleFile := &RuleFile{
		Version: 1,
		Rules: []RuleDefinition{
			{Llm: &LlmRule{
				ID:              "llm",
				Enabled:         true,
				InputScope:      ScopeVisibleWindow,
				Prompt:          "p",
				CommandTemplate: "{command}",
			}},
		},
	}
	command := "echo llm"
	evalLLM := func(rule *LlmRule, input string, ctx *RuleRuntimeContext) (LlmRuleDecision, error) {
		return LlmRuleDecision{Matched: true, Command: &command, Variables: BoundVariables{}}, nil
	}
	summary := EvaluateRulesInOrder(ruleFile, "x", "y", testRuntimeContext(), evalLLM)
	if summary.CommandToSend == nil || *summary.CommandToSend != "echo llm" {
		t.Fatalf("got command %v, want echo llm", summary.CommandToSend)
	}
}

func TestTailLinesReturnsVisibleWindowSlice(t *testing.T) {
	if got := TailLines("a\nb\nc\nd", 2); got != "c\nd" {
		t.Errorf("got %q, want %q", got, "c\nd")
	}
}

func TestParseLlmDecisionJSONExtractsFields(t *testing.T) {
	decision, err := ParseLlmDecisionJSON(`{"match":true,"command":"echo hi","variables":{"ticket":"ABC-1"}}`)
	if err != nil {
		t.Fatalf("decision should parse: %v", err)
	}
	if !decision.Matched {
		t.Error("expected matched=true")
	}
	if decision.Command == nil || *decision.Command != "echo hi" {
		t.Fatalf("got command %v, want echo hi", decision.Command)
	}
	if decision.Variables["ticket"] != "ABC-1" {
		t.Errorf("got ticket %v, want ABC-1", decision.Variables["ticket"])
	}
}

func TestEvaluateRulesSkipsDisabledRules(t *testing.T) {
	ruleFile := &RuleFile{
		Version: 1,
		Rules: []RuleDefinition{
			{Regex: &RegexRule{ID: "off", Enabled: false, InputScope: ScopeFullBuffer, Pattern: ".*", CommandTemplate: "x"}},
			{Regex: &RegexRule{ID: "on", Enabled: true, InputScope: ScopeFullBuffer, Pattern: ".*", CommandTemplate: "y"}},
		},
	}
	noopLLM := func(rule *LlmRule, input string, ctx *RuleRuntimeContext) (LlmRuleDecision, error) {
		return LlmRuleDecision{}, nil
	}
	summary := EvaluateRulesInOrder(ruleFile, "anything", "anything", testRuntimeContext(), noopLLM)
	if summary.MatchedRuleID == nil || *summary.MatchedRuleID != "on" {
		t.Fatalf("expected the disabled rule to be skipped, got %v", summary.MatchedRuleID)
	}
}

func TestDefaultRuleFileContentRendersValidModeName(t *testing.T) {
	content, err := DefaultRuleFileContent("review")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content == "" {
		t.Error("expected non-empty rule file content")
	}
	file, err := LoadRuleFile(writeTemp(t, content))
	if err != nil {
		t.Fatalf("round-trip load failed: %v", err)
	}
	if len(file.Rules) != 2 {
		t.Fatalf("got %d rules, want 2", len(file.Rules))
	}
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := t.TempDir() + "/rules.json"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed writing temp rule file: %v", err)
	}
	return path
}
