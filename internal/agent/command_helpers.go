package agent

import "strings"

// ShouldTrackStatusForCommand reports whether a pane's current foreground
// command is one whose process state the classifier should track: either a
// configured exact match (e.g. a plain shell sitting inside tmux) or a
// command containing one of the configured agent process markers.
func ShouldTrackStatusForCommand(command string, exactCommands, markers []string) bool {
	normalized := normalizeCommand(command)
	if normalized == "" {
		return false
	}
	for _, exact := range exactCommands {
		if normalized == exact {
			return true
		}
	}
	return containsAnyMarker(normalized, markers)
}

// ShouldHighlightCommand reports whether a pane's command matches one of
// the configured agent process markers, independent of exact-command
// tracking.
func ShouldHighlightCommand(command string, markers []string) bool {
	normalized := normalizeCommand(command)
	if normalized == "" {
		return false
	}
	return containsAnyMarker(normalized, markers)
}

// DisplayCommand renders command for display, substituting "(none)" when
// empty.
func DisplayCommand(command string) string {
	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return "(none)"
	}
	return trimmed
}

// AgentNameForCommand names the agent running command: the matching marker
// if one hits, else the matching exact command, else "none".
func AgentNameForCommand(command string, exactCommands, markers []string) string {
	normalized := normalizeCommand(command)
	if normalized == "" {
		return "none"
	}
	for _, marker := range markers {
		if strings.Contains(normalized, marker) {
			return marker
		}
	}
	for _, exact := range exactCommands {
		if normalized == exact {
			return exact
		}
	}
	return "none"
}

func normalizeCommand(command string) string {
	return strings.ToLower(strings.TrimSpace(command))
}

func containsAnyMarker(normalized string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(normalized, marker) {
			return true
		}
	}
	return false
}
