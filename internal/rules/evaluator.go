package rules

import (
	"encoding/json"
	"fmt"
	"regexp"
)

func variablesFromRegex(re *regexp.Regexp, match []string) BoundVariables {
	vars := BoundVariables{}
	for i, name := range re.SubexpNames() {
		if name == "" || i >= len(match) {
			continue
		}
		vars[name] = match[i]
	}
	return vars
}

func contextVariables(ctx *RuleRuntimeContext) BoundVariables {
	reasons := ctx.Status.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	reasonsJoined := ""
	for i, r := range reasons {
		if i > 0 {
			reasonsJoined += "|"
		}
		reasonsJoined += r
	}
	reasonsJSON := make([]any, len(reasons))
	for i, r := range reasons {
		reasonsJSON[i] = r
	}
	return BoundVariables{
		"pane_id":                 ctx.PaneID,
		"session_name":            ctx.SessionName,
		"status_state":            ctx.Status.State,
		"status_display":          ctx.Status.DisplayStatus,
		"status_inactive_secs":    ctx.Status.InactiveSecs,
		"status_waiting_secs":     ctx.Status.WaitingSecs,
		"status_confidence":       uint64(ctx.Status.Confidence),
		"status_eligible_for_herd": ctx.Status.EligibleForHerd,
		"status_reasons":          reasonsJoined,
		"status_reasons_json":     reasonsJSON,
	}
}

func mergeInto(dst, src BoundVariables) {
	for k, v := range src {
		dst[k] = v
	}
}

func varsAsJSON(vars BoundVariables) string {
	data, err := json.Marshal(vars)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func evaluateRegexRule(rule *RegexRule, input string, ctx *RuleRuntimeContext, logs *[]string) (string, BoundVariables, bool, error) {
	re, err := regexp.Compile(rule.Pattern)
	if err != nil {
		return "", nil, false, fmt.Errorf("rule %s regex compile failed: %w", rule.ID, err)
	}
	match := re.FindStringSubmatch(input)
	if match == nil {
		*logs = append(*logs, fmt.Sprintf("rule_result id=%s type=regex match=false", rule.ID))
		return "", nil, false, nil
	}
	vars := contextVariables(ctx)
	mergeInto(vars, variablesFromRegex(re, match))
	*logs = append(*logs, fmt.Sprintf("rule_result id=%s type=regex match=true vars=%s", rule.ID, varsAsJSON(vars)))
	command, err := RenderCommandTemplate(rule.CommandTemplate, vars)
	if err != nil {
		return "", nil, false, fmt.Errorf("rule %s template render failed: %w", rule.ID, err)
	}
	return command, vars, true, nil
}

// EvalLLMFunc invokes an LLM evaluator for one rule; the scheduler wires
// this to the HTTP-backed evaluator in package llmrule.
type EvalLLMFunc func(rule *LlmRule, input string, ctx *RuleRuntimeContext) (LlmRuleDecision, error)

func evaluateLlmRule(rule *LlmRule, input string, ctx *RuleRuntimeContext, evalLLM EvalLLMFunc, logs *[]string) (string, BoundVariables, bool, error) {
	decision, err := evalLLM(rule, input, ctx)
	if err != nil {
		return "", nil, false, fmt.Errorf("rule %s llm evaluation failed: %w", rule.ID, err)
	}
	*logs = append(*logs, fmt.Sprintf("rule_result id=%s type=llm match=%t vars=%s", rule.ID, decision.Matched, varsAsJSON(decision.Variables)))
	if !decision.Matched {
		return "", nil, false, nil
	}
	vars := contextVariables(ctx)
	mergeInto(vars, decision.Variables)
	if decision.Command != nil {
		vars["command"] = *decision.Command
	}
	rendered, err := RenderCommandTemplate(rule.CommandTemplate, vars)
	if err != nil {
		return "", nil, false, fmt.Errorf("rule %s template render failed: %w", rule.ID, err)
	}
	return rendered, vars, true, nil
}

// EvaluateRulesInOrder walks rule_file.Rules in order, skipping disabled
// rules, stopping at the first match. Every step (skip/start/result/match/
// error) is appended to the summary's structured logs, and a trailing
// cycle_end line records whether anything matched.
func EvaluateRulesInOrder(ruleFile *RuleFile, fullBuffer, visibleWindow string, ctx *RuleRuntimeContext, evalLLM EvalLLMFunc) RuleExecutionSummary {
	summary := RuleExecutionSummary{}
	summary.Logs = append(summary.Logs, fmt.Sprintf("mode_loaded version=%d rule_count=%d", ruleFile.Version, len(ruleFile.Rules)))

	for _, rule := range ruleFile.Rules {
		switch {
		case rule.Regex != nil:
			r := rule.Regex
			if !r.Enabled {
				summary.Logs = append(summary.Logs, fmt.Sprintf("rule_skipped id=%s reason=disabled", r.ID))
				continue
			}
			input := fullBuffer
			if r.InputScope == ScopeVisibleWindow {
				input = visibleWindow
			}
			summary.Logs = append(summary.Logs, fmt.Sprintf("rule_start id=%s type=regex scope=%s input_len=%d", r.ID, r.InputScope, len(input)))
			command, vars, matched, err := evaluateRegexRule(r, input, ctx, &summary.Logs)
			if err != nil {
				summary.Logs = append(summary.Logs, fmt.Sprintf("rule_error id=%s error=%s", r.ID, err))
				continue
			}
			if matched {
				summary.Logs = append(summary.Logs, fmt.Sprintf("rule_match id=%s command=%s", r.ID, command))
				id := r.ID
				summary.MatchedRuleID = &id
				summary.Variables = vars
				cmd := command
				summary.CommandToSend = &cmd
				summary.Logs = append(summary.Logs, "cycle_end matched=true")
				return summary
			}
		case rule.Llm != nil:
			r := rule.Llm
			if !r.Enabled {
				summary.Logs = append(summary.Logs, fmt.Sprintf("rule_skipped id=%s reason=disabled", r.ID))
				continue
			}
			input := fullBuffer
			if r.InputScope == ScopeVisibleWindow {
				input = visibleWindow
			}
			summary.Logs = append(summary.Logs, fmt.Sprintf("rule_start id=%s type=llm scope=%s input_len=%d", r.ID, r.InputScope, len(input)))
			command, vars, matched, err := evaluateLlmRule(r, input, ctx, evalLLM, &summary.Logs)
			if err != nil {
				summary.Logs = append(summary.Logs, fmt.Sprintf("rule_error id=%s error=%s", r.ID, err))
				continue
			}
			if matched {
				summary.Logs = append(summary.Logs, fmt.Sprintf("rule_match id=%s command=%s", r.ID, command))
				id := r.ID
				summary.MatchedRuleID = &id
				summary.Variables = vars
				cmd := command
				summary.CommandToSend = &cmd
				summary.Logs = append(summary.Logs, "cycle_end matched=true")
				return summary
			}
		}
	}

	summary.Logs = append(summary.Logs, "cycle_end matched=false")
	return summary
}
