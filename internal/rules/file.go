package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// LoadRuleFile reads and parses a rule file from path.
func LoadRuleFile(path string) (RuleFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RuleFile{}, fmt.Errorf("failed reading rule file %s: %w", path, err)
	}
	var file RuleFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return RuleFile{}, fmt.Errorf("failed parsing rule file %s: %w", path, err)
	}
	return file, nil
}

// ParseLlmDecisionJSON parses an LLM evaluator's raw text response. The
// response must be a JSON object with a boolean "match" field; "command"
// and "variables" are optional.
func ParseLlmDecisionJSON(raw string) (LlmRuleDecision, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return LlmRuleDecision{}, fmt.Errorf("llm rule response was not valid JSON: %w", err)
	}
	matched, ok := obj["match"].(bool)
	if !ok {
		return LlmRuleDecision{}, fmt.Errorf("llm rule response must contain boolean field `match`")
	}
	decision := LlmRuleDecision{Matched: matched, Variables: BoundVariables{}}
	if command, ok := obj["command"].(string); ok {
		decision.Command = &command
	}
	if vars, ok := obj["variables"].(map[string]any); ok {
		decision.Variables = vars
	}
	return decision, nil
}

// TailLines returns the last n lines of content, in order, joined by "\n".
func TailLines(content string, n int) string {
	if n <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	if len(lines) <= n {
		return content
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}

// DefaultRuleFile is the default two-rule rule file materialized for a new
// herd mode: an always-match nudge, plus a disabled LLM suggestion rule
// scoped to the mode's name. The nudge's command is the fixed built-in
// default nudge text; a configured nudge_message is not written into it.
func DefaultRuleFile(modeName string) RuleFile {
	return RuleFile{
		Version: RuleFileVersion,
		Rules: []RuleDefinition{
			{Regex: &RegexRule{
				ID:              "default_nudge",
				Enabled:         true,
				InputScope:      ScopeFullBuffer,
				Pattern:         "(?s).*",
				CommandTemplate: "Please continue until the task is fully complete.",
			}},
			{Llm: &LlmRule{
				ID:         "llm_suggested_command",
				Enabled:    false,
				InputScope: ScopeVisibleWindow,
				Prompt: fmt.Sprintf(
					`Mode: %s. Return strict JSON: {"match":bool,"command":string?,"variables":object?}.`,
					modeName,
				),
				CommandTemplate: "{command}",
			}},
		},
	}
}

// DefaultRuleFileContent renders DefaultRuleFile as pretty JSON.
func DefaultRuleFileContent(modeName string) (string, error) {
	data, err := json.MarshalIndent(DefaultRuleFile(modeName), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed serializing default rule file: %w", err)
	}
	return string(data), nil
}
