// Package rules implements the ordered regex/LLM rule engine that decides
// what, if anything, to send to a herded pane on a given tick.
package rules

import "encoding/json"

const RuleFileVersion = 1

// InputScope selects which buffer a rule sees.
type InputScope string

const (
	ScopeFullBuffer    InputScope = "full_buffer"
	ScopeVisibleWindow InputScope = "visible_window"
)

// RegexRule matches pattern against the scoped input and renders
// CommandTemplate with the context variables plus any named captures.
type RegexRule struct {
	ID              string     `json:"id"`
	Enabled         bool       `json:"enabled"`
	InputScope      InputScope `json:"input_scope"`
	Pattern         string     `json:"pattern"`
	CommandTemplate string     `json:"command_template"`
}

// LlmRule hands the scoped input to an LLM evaluator along with Prompt, and
// renders CommandTemplate from the evaluator's decision on a match.
type LlmRule struct {
	ID              string     `json:"id"`
	Enabled         bool       `json:"enabled"`
	InputScope      InputScope `json:"input_scope"`
	Prompt          string     `json:"prompt"`
	CommandTemplate string     `json:"command_template"`
}

// RuleDefinition is either a RegexRule or an LlmRule, tagged by "type" in
// JSON ("regex" | "llm") the same way the Rust rule file format is.
type RuleDefinition struct {
	Regex *RegexRule
	Llm   *LlmRule
}

func (r RuleDefinition) MarshalJSON() ([]byte, error) {
	if r.Regex != nil {
		return json.Marshal(struct {
			Type string `json:"type"`
			*RegexRule
		}{"regex", r.Regex})
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		*LlmRule
	}{"llm", r.Llm})
}

func (r *RuleDefinition) UnmarshalJSON(data []byte) error {
	var tagged struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	switch tagged.Type {
	case "llm":
		var rule LlmRule
		rule.Enabled = true
		if err := json.Unmarshal(data, &rule); err != nil {
			return err
		}
		r.Llm = &rule
	default:
		var rule RegexRule
		rule.Enabled = true
		if err := json.Unmarshal(data, &rule); err != nil {
			return err
		}
		r.Regex = &rule
	}
	return nil
}

// RuleFile is the on-disk shape of a herd mode's rule set.
type RuleFile struct {
	Version int              `json:"version"`
	Rules   []RuleDefinition  `json:"rules"`
}

// BoundVariables carries the variables resolved for one rule evaluation:
// context vars, then regex captures / LLM variables, then (for LLM rules
// only) the evaluator's suggested "command" inserted last.
type BoundVariables map[string]any

// LlmRuleDecision is what an LLM evaluator callback returns for one rule.
type LlmRuleDecision struct {
	Matched   bool
	Command   *string
	Variables BoundVariables
}

// RuleExecutionSummary is the outcome of evaluating a whole rule file for
// one pane on one tick.
type RuleExecutionSummary struct {
	MatchedRuleID  *string
	CommandToSend  *string
	Variables      BoundVariables
	Logs           []string
}

// RuleStatusContext is the pane's current classifier output, as seen by
// rule templates and LLM prompts.
type RuleStatusContext struct {
	State           string
	DisplayStatus   string
	InactiveSecs    int64
	WaitingSecs     int64
	Confidence      uint8
	EligibleForHerd bool
	Reasons         []string
}

// RuleRuntimeContext is everything a rule evaluation needs besides the
// buffer content itself.
type RuleRuntimeContext struct {
	PaneID      string
	SessionName string
	Status      RuleStatusContext
}
