// Package config loads, merges, and persists herd's settings file, and
// resolves the default settings/state/audit paths under ~/.config/herd.
package config

const (
	MaxHerds                                = 10
	DefaultHerdCount                        = 5
	DefaultStatusWaitingGraceSecs            = 120
	DefaultStatusTransitionStabilitySecs     = 5
	DefaultStatusConfidenceMinForTrigger      = 60
	DefaultProvider                          = "openai"
	AnthropicProvider                        = "anthropic"
	DefaultSlackNotifyCooldownSecs            = 300
)

// HerdModeDefinition names a herd mode and the rule file backing it.
type HerdModeDefinition struct {
	Name     string `json:"name"`
	RuleFile string `json:"rule_file"`
}

// AppConfig is the fully-resolved settings file, always clamped into valid
// ranges by its own accessors (see merge.go) even if a field was set
// out-of-range directly.
type AppConfig struct {
	RefreshIntervalMs               uint64                `json:"refresh_interval_ms"`
	CaptureLines                    int                   `json:"capture_lines"`
	StallThresholdSecs              int64                 `json:"stall_threshold_secs"`
	CooldownSecs                    int64                 `json:"cooldown_secs"`
	MaxNudges                       uint32                `json:"max_nudges"`
	NudgeMessage                    string                `json:"nudge_message"`
	FinishedMarkers                 []string              `json:"finished_markers"`
	WaitingMarkers                  []string              `json:"waiting_markers"`
	MarkerLookbackLinesRaw          int                   `json:"marker_lookback_lines"`
	StatusTrackExactCommands        []string              `json:"status_track_exact_commands"`
	AgentProcessMarkers             []string              `json:"agent_process_markers"`
	StatusWaitingGraceSecsRaw       int64                 `json:"status_waiting_grace_secs"`
	StatusTransitionStabilitySecsRaw int64                `json:"status_transition_stability_secs"`
	StatusConfidenceMinForTriggerRaw uint8                `json:"status_confidence_min_for_trigger"`
	LiveCaptureLineMultiplierRaw     int                   `json:"live_capture_line_multiplier"`
	LiveCaptureMinLinesRaw           int                   `json:"live_capture_min_lines"`
	HerdCountRaw                     uint8                 `json:"herd_count"`
	OpenAIAPIKey                     string                `json:"openai_api_key"`
	AnthropicAPIKey                  string                `json:"anthropic_api_key"`
	LlmProvider                      string                `json:"llm_provider"`
	LlmModel                         string                `json:"llm_model"`
	HerdModes                        []HerdModeDefinition  `json:"herd_modes"`

	// Ambient-stack additions (SPEC_FULL.md §6); unknown/missing keys follow
	// the same default-when-absent rule as every other field.
	SlackWebhookURL           string `json:"slack_webhook_url"`
	SlackNotifyCooldownSecs   int64  `json:"slack_notify_cooldown_secs"`
	AuditLogPath              string `json:"audit_log_path"`
	CompanionStreamAddr       string `json:"companion_stream_addr"`
	ConfigWatchEnabled        bool   `json:"config_watch_enabled"`
}

// Default returns the built-in default configuration.
func Default() AppConfig {
	return AppConfig{
		RefreshIntervalMs:  500,
		CaptureLines:       300,
		StallThresholdSecs: 120,
		CooldownSecs:       120,
		MaxNudges:          3,
		NudgeMessage:       "Please continue until the task is fully complete.",
		FinishedMarkers:    []string{"finished", "complete", "done"},
		WaitingMarkers:     []string{"waiting for input", "need your input"},
		MarkerLookbackLinesRaw:           8,
		StatusTrackExactCommands:        []string{"tmux"},
		AgentProcessMarkers:             []string{"claude", "codex"},
		StatusWaitingGraceSecsRaw:        DefaultStatusWaitingGraceSecs,
		StatusTransitionStabilitySecsRaw: DefaultStatusTransitionStabilitySecs,
		StatusConfidenceMinForTriggerRaw: DefaultStatusConfidenceMinForTrigger,
		LiveCaptureLineMultiplierRaw: 8,
		LiveCaptureMinLinesRaw:       400,
		HerdCountRaw:                 DefaultHerdCount,
		LlmProvider:                  DefaultProvider,
		HerdModes:                    defaultHerdModes(),
		SlackNotifyCooldownSecs:      DefaultSlackNotifyCooldownSecs,
		ConfigWatchEnabled:           true,
	}
}

// NormalizeProvider folds any unrecognized provider name to the default
// provider; only an exact case-insensitive match for "anthropic" selects
// the Anthropic provider.
func NormalizeProvider(provider string) string {
	if equalFoldASCII(provider, AnthropicProvider) {
		return AnthropicProvider
	}
	return DefaultProvider
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
