package scheduler

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/leo/herd/internal/agent"
	"github.com/leo/herd/internal/codex"
	"github.com/leo/herd/internal/config"
	"github.com/leo/herd/internal/domain"
	"github.com/leo/herd/internal/herd"
	"github.com/leo/herd/internal/tmux"
)

func nowUnix() int64 { return time.Now().Unix() }

// ApplyRegistryToSessions folds each session's herd membership in from the
// registry, in place.
func ApplyRegistryToSessions(sessions []UiSession, registry *herd.Registry) {
	for i := range sessions {
		sessions[i].HerdID = registry.HerdGroup(sessions[i].PaneID)
		sessions[i].Herded = registry.IsHerded(sessions[i].PaneID) || sessions[i].HerdID != nil
	}
}

// LoadSessionRefs lists sessions from adapter, sorted by session name then
// window/pane index then pane id, so refresh cycles produce a stable order.
func LoadSessionRefs(adapter tmux.Adapter) ([]domain.SessionRef, error) {
	sessions, err := adapter.ListSessions()
	if err != nil {
		return nil, err
	}
	sort.Slice(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if a.SessionName != b.SessionName {
			return a.SessionName < b.SessionName
		}
		if a.WindowIndex != b.WindowIndex {
			return a.WindowIndex < b.WindowIndex
		}
		if a.PaneIndex != b.PaneIndex {
			return a.PaneIndex < b.PaneIndex
		}
		return a.PaneID < b.PaneID
	})
	return sessions, nil
}

// CurrentTmuxPaneID returns the pane id herd itself is running in, from
// $TMUX_PANE, so the scheduler can exclude its own pane from session lists.
func CurrentTmuxPaneID() (string, bool) {
	value := strings.TrimSpace(os.Getenv("TMUX_PANE"))
	return value, value != ""
}

// FilterLocalPaneFromSessions drops localPaneID (if set) from sessions.
func FilterLocalPaneFromSessions(sessions []domain.SessionRef, localPaneID string) []domain.SessionRef {
	if localPaneID == "" {
		return sessions
	}
	out := sessions[:0]
	for _, session := range sessions {
		if session.PaneID != localPaneID {
			out = append(out, session)
		}
	}
	return out
}

// CollectSessionNames returns the distinct tmux session names present.
func CollectSessionNames(sessions []domain.SessionRef) map[string]struct{} {
	names := make(map[string]struct{}, len(sessions))
	for _, session := range sessions {
		names[session.SessionName] = struct{}{}
	}
	return names
}

// AppendControlEventsToCache folds streamed control-mode output into
// paneCache, trimming each entry to maxLines once it grows well past it.
// Reports whether any cache entry changed.
func AppendControlEventsToCache(paneCache map[string]*PaneContentCacheEntry, events []tmux.ControlOutputEvent, maxLines int) bool {
	changed := false
	for _, event := range events {
		if event.Content == "" {
			continue
		}
		entry, ok := paneCache[event.PaneID]
		if !ok {
			entry = &PaneContentCacheEntry{}
			paneCache[event.PaneID] = entry
		}
		entry.Content += event.Content
		if event.CapturedAtUnix > entry.LastUpdateUnix {
			entry.LastUpdateUnix = event.CapturedAtUnix
		}
		entry.Content = trimContentToRecentLines(entry.Content, maxLines)
		changed = true
	}
	return changed
}

func trimContentToRecentLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	if len(lines) <= maxLines+128 {
		return content
	}
	return strings.Join(lines[len(lines)-maxLines:], "\n")
}

// BuildUiSessionsFromRefs classifies every session ref into a UiSession,
// using paneCache where already populated and otherwise capturing fresh
// pane content (and caching it). Codex CLI panes whose working directory
// has app-server turn status override the heuristic classifier's verdict.
func BuildUiSessionsFromRefs(
	adapter tmux.Adapter,
	classifier agent.SessionClassifier,
	cfg *config.AppConfig,
	registry *herd.Registry,
	sessions []domain.SessionRef,
	captureLines int,
	paneCache map[string]*PaneContentCacheEntry,
	codexStatusByCwd map[string]codex.ThreadState,
) []UiSession {
	uiSessions := make([]UiSession, 0, len(sessions))
	for _, session := range sessions {
		tracked := agent.ShouldTrackStatusForCommand(session.PaneCurrentCommand, cfg.StatusTrackExactCommands, cfg.AgentProcessMarkers)
		highlighted := agent.ShouldHighlightCommand(session.PaneCurrentCommand, cfg.AgentProcessMarkers)
		agentName := agent.AgentNameForCommand(session.PaneCurrentCommand, cfg.StatusTrackExactCommands, cfg.AgentProcessMarkers)
		command := agent.DisplayCommand(session.PaneCurrentCommand)

		var content string
		var lastUpdateUnix int64
		if cached, ok := paneCache[session.PaneID]; ok {
			content, lastUpdateUnix = cached.Content, cached.LastUpdateUnix
		} else if snapshot, err := adapter.CapturePane(session.PaneID, captureLines); err == nil {
			content, lastUpdateUnix = snapshot.Content, snapshot.CapturedAtUnix
			paneCache[session.PaneID] = &PaneContentCacheEntry{Content: snapshot.Content, LastUpdateUnix: snapshot.CapturedAtUnix}
		} else {
			content = fmt.Sprintf("failed to capture pane %s: %v", session.PaneID, err)
			lastUpdateUnix = nowUnix()
		}

		capturedAtUnix := lastUpdateUnix
		if capturedAtUnix <= 0 {
			capturedAtUnix = nowUnix()
		}
		snapshot := domain.PaneSnapshot{
			PaneID:           session.PaneID,
			Content:          content,
			CapturedAtUnix:   capturedAtUnix,
			LastActivityUnix: normalizeActivityTimestamp(session.PaneLastActivityUnix, capturedAtUnix),
		}

		var prior agent.PriorProcessState
		if tracked {
			prior = registry.PriorProcessState(session.PaneID)
		}
		var assessment agent.ProcessAssessment
		if tracked {
			assessment = classifier.Assess(snapshot, prior)
		} else {
			assessment = agent.FromDisplayStatus(agent.StatusUnknown)
		}
		statusSource := StatusSourceNotTracked
		if tracked {
			statusSource = StatusSourceTmuxHeuristic
		}
		if tracked && codex.IsCodexCommand(session.PaneCurrentCommand) {
			statusSource = StatusSourceTmuxFallback
			if codexState, ok := codexStatusByCwd[session.PaneCurrentPath]; ok {
				codexCapturedAt := capturedAtUnix
				if codexState.ThreadUpdatedUnix > codexCapturedAt {
					codexCapturedAt = codexState.ThreadUpdatedUnix
				}
				assessment = codex.AssessmentFromCodexState(codexState, prior, codexCapturedAt, cfg.StatusWaitingGraceSecs())
				statusSource = StatusSourceCodexAppServer
			}
		}

		uiSessions = append(uiSessions, UiSession{
			SessionName:    session.SessionName,
			WindowIndex:    session.WindowIndex,
			WindowName:     session.WindowName,
			PaneID:         session.PaneID,
			PaneIndex:      session.PaneIndex,
			CurrentCommand: command,
			AgentName:      agentName,
			Highlighted:    highlighted,
			StatusTracked:  tracked,
			Status:         assessment.DisplayStatus,
			Assessment:     assessment,
			StatusSource:   statusSource,
			Content:        content,
			LastUpdateUnix: capturedAtUnix,
		})
	}
	return uiSessions
}

func normalizeActivityTimestamp(activityUnix, capturedAtUnix int64) int64 {
	if activityUnix >= 1_000_000_000 && activityUnix <= capturedAtUnix+86_400 {
		return activityUnix
	}
	return capturedAtUnix
}
