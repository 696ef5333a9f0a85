// Package tmux wraps the tmux CLI and its control-mode protocol: listing
// panes into domain.SessionRef values, capturing pane content, sending
// keys, and streaming live output via a control-mode multiplexer.
package tmux

import "github.com/leo/herd/internal/domain"

// listPanesDelim separates list-panes fields; chosen to never collide with
// path or command text the way a tab or comma might.
const listPanesDelim = "__HERD_FIELD__"

// Adapter is the tmux surface the scheduler depends on.
type Adapter interface {
	ListSessions() ([]domain.SessionRef, error)
	CapturePane(paneID string, lines int) (domain.PaneSnapshot, error)
	PaneHeight(paneID string) (int, error)
	SendKeys(paneID, message string) error
}

// ParseListPanesOutput parses raw `tmux list-panes -F ...` output into
// session refs, exposed standalone for testing against fixture output.
func ParseListPanesOutput(output string) ([]domain.SessionRef, error) {
	return parseListPanesOutput(output)
}
