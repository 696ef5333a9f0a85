package config

// partialAppConfig mirrors AppConfig with every field optional, so a
// settings file containing only a few keys merges onto the defaults
// without clobbering the rest.
type partialAppConfig struct {
	RefreshIntervalMs                *uint64               `json:"refresh_interval_ms"`
	CaptureLines                     *int                  `json:"capture_lines"`
	StallThresholdSecs               *int64                `json:"stall_threshold_secs"`
	CooldownSecs                     *int64                `json:"cooldown_secs"`
	MaxNudges                        *uint32               `json:"max_nudges"`
	NudgeMessage                     *string               `json:"nudge_message"`
	FinishedMarkers                  []string              `json:"finished_markers"`
	WaitingMarkers                   []string              `json:"waiting_markers"`
	MarkerLookbackLines              *int                  `json:"marker_lookback_lines"`
	StatusTrackExactCommands         []string              `json:"status_track_exact_commands"`
	AgentProcessMarkers              []string              `json:"agent_process_markers"`
	StatusWaitingGraceSecs           *int64                `json:"status_waiting_grace_secs"`
	StatusTransitionStabilitySecs    *int64                `json:"status_transition_stability_secs"`
	StatusConfidenceMinForTrigger    *uint8                `json:"status_confidence_min_for_trigger"`
	LiveCaptureLineMultiplier        *int                  `json:"live_capture_line_multiplier"`
	LiveCaptureMinLines              *int                  `json:"live_capture_min_lines"`
	HerdCount                        *uint8                `json:"herd_count"`
	OpenAIAPIKey                     *string               `json:"openai_api_key"`
	AnthropicAPIKey                  *string               `json:"anthropic_api_key"`
	LlmProvider                      *string               `json:"llm_provider"`
	LlmModel                         *string               `json:"llm_model"`
	HerdModes                        []HerdModeDefinition  `json:"herd_modes"`
	SlackWebhookURL                  *string               `json:"slack_webhook_url"`
	SlackNotifyCooldownSecs          *int64                `json:"slack_notify_cooldown_secs"`
	AuditLogPath                     *string               `json:"audit_log_path"`
	CompanionStreamAddr              *string               `json:"companion_stream_addr"`
	ConfigWatchEnabled               *bool                 `json:"config_watch_enabled"`
}

func clampInt(v, min int) int {
	if v < min {
		return min
	}
	return v
}

func clampI64(v, min int64) int64 {
	if v < min {
		return min
	}
	return v
}

func clampU8Max(v, max uint8) uint8 {
	if v > max {
		return max
	}
	return v
}

func clampU8Range(v, lo, hi uint8) uint8 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// merged applies partial on top of cfg, defaulting every unset field and
// clamping every numeric field into its valid range both on assignment and
// again at the end, mirroring the Rust `merged()` method exactly.
func (cfg AppConfig) merged(partial partialAppConfig) AppConfig {
	if partial.RefreshIntervalMs != nil {
		cfg.RefreshIntervalMs = *partial.RefreshIntervalMs
	}
	if partial.CaptureLines != nil {
		cfg.CaptureLines = *partial.CaptureLines
	}
	if partial.StallThresholdSecs != nil {
		cfg.StallThresholdSecs = *partial.StallThresholdSecs
	}
	if partial.CooldownSecs != nil {
		cfg.CooldownSecs = *partial.CooldownSecs
	}
	if partial.MaxNudges != nil {
		cfg.MaxNudges = *partial.MaxNudges
	}
	if partial.NudgeMessage != nil {
		cfg.NudgeMessage = *partial.NudgeMessage
	}
	if partial.FinishedMarkers != nil {
		cfg.FinishedMarkers = partial.FinishedMarkers
	}
	if partial.WaitingMarkers != nil {
		cfg.WaitingMarkers = partial.WaitingMarkers
	}
	if partial.MarkerLookbackLines != nil {
		cfg.MarkerLookbackLinesRaw = clampInt(*partial.MarkerLookbackLines, 1)
	}
	if partial.StatusTrackExactCommands != nil {
		cfg.StatusTrackExactCommands = sanitizeTextList(partial.StatusTrackExactCommands)
	}
	if partial.AgentProcessMarkers != nil {
		cfg.AgentProcessMarkers = sanitizeTextList(partial.AgentProcessMarkers)
	}
	if partial.StatusWaitingGraceSecs != nil {
		cfg.StatusWaitingGraceSecsRaw = clampI64(*partial.StatusWaitingGraceSecs, 0)
	}
	if partial.StatusTransitionStabilitySecs != nil {
		cfg.StatusTransitionStabilitySecsRaw = clampI64(*partial.StatusTransitionStabilitySecs, 0)
	}
	if partial.StatusConfidenceMinForTrigger != nil {
		cfg.StatusConfidenceMinForTriggerRaw = clampU8Max(*partial.StatusConfidenceMinForTrigger, 100)
	}
	if partial.LiveCaptureLineMultiplier != nil {
		cfg.LiveCaptureLineMultiplierRaw = clampInt(*partial.LiveCaptureLineMultiplier, 1)
	}
	if partial.LiveCaptureMinLines != nil {
		cfg.LiveCaptureMinLinesRaw = clampInt(*partial.LiveCaptureMinLines, 1)
	}
	if partial.HerdCount != nil {
		cfg.HerdCountRaw = clampU8Range(*partial.HerdCount, 1, MaxHerds)
	}
	if partial.OpenAIAPIKey != nil {
		cfg.OpenAIAPIKey = *partial.OpenAIAPIKey
	}
	if partial.AnthropicAPIKey != nil {
		cfg.AnthropicAPIKey = *partial.AnthropicAPIKey
	}
	if partial.LlmProvider != nil {
		cfg.LlmProvider = NormalizeProvider(*partial.LlmProvider)
	}
	if partial.LlmModel != nil {
		cfg.LlmModel = *partial.LlmModel
	}
	if partial.HerdModes != nil {
		cfg.HerdModes = sanitizeHerdModes(partial.HerdModes)
	}
	if partial.SlackWebhookURL != nil {
		cfg.SlackWebhookURL = *partial.SlackWebhookURL
	}
	if partial.SlackNotifyCooldownSecs != nil {
		cfg.SlackNotifyCooldownSecs = clampI64(*partial.SlackNotifyCooldownSecs, 0)
	}
	if partial.AuditLogPath != nil {
		cfg.AuditLogPath = *partial.AuditLogPath
	}
	if partial.CompanionStreamAddr != nil {
		cfg.CompanionStreamAddr = *partial.CompanionStreamAddr
	}
	if partial.ConfigWatchEnabled != nil {
		cfg.ConfigWatchEnabled = *partial.ConfigWatchEnabled
	}

	cfg.MarkerLookbackLinesRaw = clampInt(cfg.MarkerLookbackLinesRaw, 1)
	cfg.StatusWaitingGraceSecsRaw = clampI64(cfg.StatusWaitingGraceSecsRaw, 0)
	cfg.StatusTransitionStabilitySecsRaw = clampI64(cfg.StatusTransitionStabilitySecsRaw, 0)
	cfg.StatusConfidenceMinForTriggerRaw = clampU8Max(cfg.StatusConfidenceMinForTriggerRaw, 100)
	cfg.LiveCaptureLineMultiplierRaw = clampInt(cfg.LiveCaptureLineMultiplierRaw, 1)
	cfg.LiveCaptureMinLinesRaw = clampInt(cfg.LiveCaptureMinLinesRaw, 1)
	cfg.HerdCountRaw = clampU8Range(cfg.HerdCountRaw, 1, MaxHerds)
	cfg.LlmProvider = NormalizeProvider(cfg.LlmProvider)
	return cfg
}

// NormalizedHerdCount clamps HerdCountRaw into [1, MaxHerds].
func (cfg *AppConfig) NormalizedHerdCount() uint8 {
	return clampU8Range(cfg.HerdCountRaw, 1, MaxHerds)
}

// NormalizedProvider returns the normalized llm_provider value.
func (cfg *AppConfig) NormalizedProvider() string {
	return NormalizeProvider(cfg.LlmProvider)
}

// ProviderAPIKey returns the configured API key for provider, or "" if
// unset/blank.
func (cfg *AppConfig) ProviderAPIKey(provider string) string {
	var key string
	if NormalizeProvider(provider) == AnthropicProvider {
		key = cfg.AnthropicAPIKey
	} else {
		key = cfg.OpenAIAPIKey
	}
	return trimSpace(key)
}

func (cfg *AppConfig) MarkerLookbackLines() int           { return clampInt(cfg.MarkerLookbackLinesRaw, 1) }
func (cfg *AppConfig) StatusWaitingGraceSecs() int64       { return clampI64(cfg.StatusWaitingGraceSecsRaw, 0) }
func (cfg *AppConfig) StatusTransitionStabilitySecs() int64 {
	return clampI64(cfg.StatusTransitionStabilitySecsRaw, 0)
}
func (cfg *AppConfig) StatusConfidenceMinForTrigger() uint8 {
	return clampU8Max(cfg.StatusConfidenceMinForTriggerRaw, 100)
}

// LiveCaptureLineLimit bounds how many lines of control-mode-streamed
// content are retained per pane between full captures.
func (cfg *AppConfig) LiveCaptureLineLimit() int {
	multiplier := clampInt(cfg.LiveCaptureLineMultiplierRaw, 1)
	minLines := clampInt(cfg.LiveCaptureMinLinesRaw, 1)
	limit := cfg.CaptureLines * multiplier
	if limit < minLines {
		limit = minLines
	}
	return limit
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isSpaceByte(s[start]) {
		start++
	}
	for end > start && isSpaceByte(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
