// Package scheduler drives the periodic refresh cycle: it lists tmux
// sessions, classifies each pane's process state, folds in codex app-server
// status where applicable, and evaluates/dispatches herd rules for any pane
// a rule engine decides deserves a nudge.
package scheduler

import (
	"github.com/leo/herd/internal/agent"
	"github.com/leo/herd/internal/domain"
)

// StatusSource names where a session's ProcessAssessment came from.
type StatusSource int

const (
	StatusSourceTmuxHeuristic StatusSource = iota
	StatusSourceTmuxFallback
	StatusSourceCodexAppServer
	StatusSourceNotTracked
)

func (s StatusSource) String() string {
	switch s {
	case StatusSourceTmuxHeuristic:
		return "tmux heuristic"
	case StatusSourceTmuxFallback:
		return "tmux fallback"
	case StatusSourceCodexAppServer:
		return "codex app-server"
	default:
		return "n/a"
	}
}

// UiSession is one tmux pane plus everything derived from it during a
// refresh cycle: its classified process state, cached content, and herd
// membership. It is the unit the scheduler hands to rule evaluation and a
// presentation layer hands to rendering.
type UiSession struct {
	SessionName     string
	WindowIndex     int64
	WindowName      string
	PaneID          string
	PaneIndex       int64
	CurrentCommand  string
	AgentName       string
	Highlighted     bool
	StatusTracked   bool
	Status          agent.AgentStatus
	Assessment      agent.ProcessAssessment
	StatusSource    StatusSource
	Content         string
	LastUpdateUnix  int64
	Herded          bool
	HerdID          *uint8
}

// ToSessionRef projects the identifying fields back to a domain.SessionRef,
// for code (e.g. the herd rule engine) that only needs pane identity.
func (s UiSession) ToSessionRef() domain.SessionRef {
	return domain.SessionRef{
		SessionName: s.SessionName,
		WindowIndex: s.WindowIndex,
		WindowName:  s.WindowName,
		PaneID:      s.PaneID,
		PaneIndex:   s.PaneIndex,
	}
}

// PaneContentCacheEntry is the live-captured content cached for one pane
// between refresh cycles, updated either by a full capture-pane call or by
// streamed control-mode output.
type PaneContentCacheEntry struct {
	Content        string
	LastUpdateUnix int64
}
