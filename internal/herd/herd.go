// Package herd holds the persistent per-pane herd registry and the rule
// engine that decides whether a herded, eligible pane gets nudged this
// cycle.
package herd

import (
	"github.com/leo/herd/internal/agent"
	"github.com/leo/herd/internal/config"
	"github.com/leo/herd/internal/domain"
)

const DefaultHerdModeName = "Balanced"

// Engine decides whether an eligible, herded session should be nudged.
type Engine interface {
	ShouldNudge(session domain.SessionRef, assessment agent.ProcessAssessment, sessionState *SessionState, nowUnix int64) bool
	NudgeMessage() string
}

// Config is the subset of AppConfig the rule engine needs.
type Config struct {
	CooldownSecs                  int64
	MaxNudges                     uint32
	NudgeMessage                  string
	StatusConfidenceMinForTrigger uint8
}

func ConfigFromAppConfig(cfg *config.AppConfig) Config {
	return Config{
		CooldownSecs:                  cfg.CooldownSecs,
		MaxNudges:                     cfg.MaxNudges,
		NudgeMessage:                  cfg.NudgeMessage,
		StatusConfidenceMinForTrigger: cfg.StatusConfidenceMinForTrigger(),
	}
}

// RuleEngine is the default Engine: eligible, confident, herded, under the
// nudge cap, and past cooldown.
type RuleEngine struct {
	config Config
}

func NewRuleEngine(cfg Config) *RuleEngine {
	return &RuleEngine{config: cfg}
}

func (e *RuleEngine) ShouldNudge(_ domain.SessionRef, assessment agent.ProcessAssessment, sessionState *SessionState, nowUnix int64) bool {
	if !assessment.EligibleForHerd {
		return false
	}
	if assessment.Confidence < e.config.StatusConfidenceMinForTrigger {
		return false
	}
	if sessionState == nil {
		return false
	}
	if !sessionState.Herded {
		return false
	}
	if sessionState.NudgeCount >= e.config.MaxNudges {
		return false
	}
	if sessionState.LastNudgeUnix != nil && nowUnix-*sessionState.LastNudgeUnix < e.config.CooldownSecs {
		return false
	}
	return true
}

func (e *RuleEngine) NudgeMessage() string { return e.config.NudgeMessage }
