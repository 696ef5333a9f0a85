package scheduler

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leo/herd/internal/config"
	"github.com/leo/herd/internal/herd"
	"github.com/leo/herd/internal/llmrule"
	"github.com/leo/herd/internal/rules"
	"github.com/leo/herd/internal/tmux"
)

func resolveHerdModeDefinition(cfg *config.AppConfig, modeName string) (config.HerdModeDefinition, bool) {
	for _, mode := range cfg.HerdModes {
		if strings.EqualFold(mode.Name, modeName) {
			return mode, true
		}
	}
	if len(cfg.HerdModes) > 0 {
		return cfg.HerdModes[0], true
	}
	return config.HerdModeDefinition{}, false
}

// EvaluateAndDispatchRulesForSession records the session's latest
// assessment, asks engine whether it's due for a nudge, and if so loads
// its herd mode's rule file and evaluates every rule against the pane's
// buffer in order. The first match's rendered command is sent to the pane
// and returned; logs is appended with one line per step for the caller to
// surface.
func EvaluateAndDispatchRulesForSession(
	adapter tmux.Adapter,
	engine herd.Engine,
	registry *herd.Registry,
	cfg *config.AppConfig,
	configPath string,
	session UiSession,
	nowUnix int64,
	logs *[]string,
	paneCache map[string]*PaneContentCacheEntry,
) (command string, ruleID string, err error) {
	reasonLabels := session.Assessment.ReasonLabels()
	registry.RecordAssessment(session.PaneID, session.Assessment)
	sessionRef := session.ToSessionRef()
	if !engine.ShouldNudge(sessionRef, session.Assessment, registry.SessionState(session.PaneID), nowUnix) {
		return "", "", nil
	}

	herdID := uint8(0)
	if session.HerdID != nil {
		herdID = *session.HerdID
	}
	if herdID >= config.MaxHerds {
		herdID = config.MaxHerds - 1
	}
	modeName := registry.HerdMode(herdID)
	*logs = append(*logs, fmt.Sprintf("mode_selected pane=%s herd=%d mode=%s", session.PaneID, herdID, modeName))

	modeDefinition, ok := resolveHerdModeDefinition(cfg, modeName)
	if !ok {
		return "", "", fmt.Errorf("no herd mode definition is configured")
	}
	rulePath := config.RuleFilePath(configPath, modeDefinition.RuleFile)
	*logs = append(*logs, fmt.Sprintf("mode_file pane=%s path=%s", session.PaneID, rulePath))

	ruleFile, err := rules.LoadRuleFile(rulePath)
	if err != nil {
		return "", "", err
	}

	paneHeight, err := adapter.PaneHeight(session.PaneID)
	if err != nil || paneHeight <= 0 {
		paneHeight = 40
	}
	visibleWindow := rules.TailLines(session.Content, paneHeight)
	runtimeContext := &rules.RuleRuntimeContext{
		PaneID:      session.PaneID,
		SessionName: session.SessionName,
		Status: rules.RuleStatusContext{
			State:           session.Assessment.State.String(),
			DisplayStatus:   session.Assessment.DisplayStatus.String(),
			InactiveSecs:    session.Assessment.InactiveSecs,
			WaitingSecs:     session.Assessment.WaitingSecs,
			Confidence:      session.Assessment.Confidence,
			EligibleForHerd: session.Assessment.EligibleForHerd,
			Reasons:         reasonLabels,
		},
	}
	*logs = append(*logs, fmt.Sprintf("inputs pane=%s full_lines=%d visible_lines=%d", session.PaneID, strings.Count(session.Content, "\n")+1, paneHeight))

	provider := cfg.NormalizedProvider()
	apiKey := cfg.ProviderAPIKey(provider)
	model := cfg.LlmModel

	summary := rules.EvaluateRulesInOrder(&ruleFile, session.Content, visibleWindow, runtimeContext, func(rule *rules.LlmRule, input string, ctx *rules.RuleRuntimeContext) (rules.LlmRuleDecision, error) {
		payload, err := json.Marshal(map[string]any{
			"status_context": map[string]any{
				"pane_id":           ctx.PaneID,
				"session_name":      ctx.SessionName,
				"state":             ctx.Status.State,
				"display_status":    ctx.Status.DisplayStatus,
				"inactive_secs":     ctx.Status.InactiveSecs,
				"waiting_secs":      ctx.Status.WaitingSecs,
				"confidence":        ctx.Status.Confidence,
				"eligible_for_herd": ctx.Status.EligibleForHerd,
				"reasons":           ctx.Status.Reasons,
			},
			"pane_input": input,
		})
		if err != nil {
			return rules.LlmRuleDecision{}, err
		}
		return llmrule.EvaluateRule(provider, apiKey, model, rule.Prompt, string(payload))
	})

	for _, logLine := range summary.Logs {
		*logs = append(*logs, fmt.Sprintf("rule_eval pane=%s mode=%s %s", session.PaneID, modeName, logLine))
	}

	if summary.CommandToSend == nil {
		*logs = append(*logs, fmt.Sprintf("dispatch_skip pane=%s reason=no_match", session.PaneID))
		return "", "", nil
	}

	command = *summary.CommandToSend
	if summary.MatchedRuleID != nil {
		ruleID = *summary.MatchedRuleID
	}
	if err := adapter.SendKeys(session.PaneID, command); err != nil {
		*logs = append(*logs, fmt.Sprintf("dispatch_failed pane=%s error=%v", session.PaneID, err))
		return "", "", fmt.Errorf("dispatch failed for %s: %w", session.PaneID, err)
	}
	delete(paneCache, session.PaneID)
	registry.RecordNudge(session.PaneID, nowUnix)
	*logs = append(*logs, fmt.Sprintf("dispatch_ok pane=%s command=%s", session.PaneID, command))
	return command, ruleID, nil
}
