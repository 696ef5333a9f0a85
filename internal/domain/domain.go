// Package domain holds the plain data types shared by every other package:
// the tmux-sourced session reference and the captured pane content snapshot
// that the classifier, rule engine, and herd registry all operate on.
package domain

// SessionRef identifies one tmux pane and its window/session context, as
// reported by `tmux list-panes`.
type SessionRef struct {
	SessionID            string
	SessionName           string
	WindowID              string
	WindowIndex           int64
	WindowName            string
	PaneID                string
	PaneIndex             int64
	PaneCurrentPath       string
	PaneCurrentCommand    string
	PaneDead              bool
	PaneLastActivityUnix  int64
}

// PaneSnapshot is the captured content of one pane at a point in time.
type PaneSnapshot struct {
	PaneID            string
	Content           string
	CapturedAtUnix    int64
	LastActivityUnix  int64
}
