package scheduler

import (
	"fmt"

	"github.com/leo/herd/internal/agent"
	"github.com/leo/herd/internal/codex"
	"github.com/leo/herd/internal/config"
	"github.com/leo/herd/internal/domain"
	"github.com/leo/herd/internal/herd"
	"github.com/leo/herd/internal/tmux"
)

// Sink receives the side effects of a refresh cycle: the rendered session
// list, status/log lines, and tmux server connectivity transitions. A TUI
// model or headless logger implements it.
type Sink interface {
	SetSessions(sessions []UiSession)
	SetStatusMessage(message string)
	NoteRefreshSuccess()
	NoteRefreshError(message string)
	SetTmuxServerOnline()
	SetTmuxServerOffline(reason string)
	PushHerderLog(line string)
	PushHerderLogForHerd(herdID *uint8, line string)
}

// Cycle holds the state a refresh tick needs across calls: the tmux
// control-mode stream, cached pane content, and the codex app-server
// status cache, alongside the registry and config it operates on.
type Cycle struct {
	Adapter       *tmux.SystemTmuxAdapter
	Control       *tmux.ControlModeMultiplexer
	Classifier    agent.SessionClassifier
	Engine        herd.Engine
	CodexProvider *codex.SessionStateProvider
	Registry      *herd.Registry
	Config        *config.AppConfig
	ConfigPath    string
	StatePath     string
	LocalPaneID   string

	// OnDispatch and OnStalled are optional ambient hooks: OnDispatch fires
	// after every successful send_keys with the rule that matched, and
	// OnStalled fires whenever a tracked, herded pane's process state
	// transitions into Stalled or WaitingLong. Both are best-effort and never
	// block the tick.
	OnDispatch func(session UiSession, command, ruleID string, nowUnix int64)
	OnStalled  func(session UiSession, nowUnix int64)

	SessionRefs      []domain.SessionRef
	PaneCache        map[string]*PaneContentCacheEntry
	CodexStatusByCwd map[string]codex.ThreadState
	TmuxServerOnline bool
}

// NewCycle builds an empty refresh cycle ready for its first tick.
func NewCycle(
	adapter *tmux.SystemTmuxAdapter,
	control *tmux.ControlModeMultiplexer,
	classifier agent.SessionClassifier,
	engine herd.Engine,
	codexProvider *codex.SessionStateProvider,
	registry *herd.Registry,
	cfg *config.AppConfig,
	configPath, statePath, localPaneID string,
) *Cycle {
	return &Cycle{
		Adapter:          adapter,
		Control:          control,
		Classifier:       classifier,
		Engine:           engine,
		CodexProvider:    codexProvider,
		Registry:         registry,
		Config:           cfg,
		ConfigPath:       configPath,
		StatePath:        statePath,
		LocalPaneID:      localPaneID,
		PaneCache:        make(map[string]*PaneContentCacheEntry),
		CodexStatusByCwd: make(map[string]codex.ThreadState),
	}
}

// ApplyStreamedControlUpdates folds any buffered control-mode output into
// the pane cache and, if anything changed, rebuilds and publishes the
// session list without waiting for the next full periodic refresh.
func (c *Cycle) ApplyStreamedControlUpdates(sink Sink) {
	events := c.Control.DrainEvents()
	if !AppendControlEventsToCache(c.PaneCache, events, c.Config.LiveCaptureLineLimit()) {
		return
	}

	c.CodexStatusByCwd = c.CodexProvider.StatusesForCwds(codex.CollectCodexCwdsFromSessions(c.SessionRefs), nowUnix())
	streamed := BuildUiSessionsFromRefs(c.Adapter, c.Classifier, c.Config, c.Registry, c.SessionRefs, c.Config.CaptureLines, c.PaneCache, c.CodexStatusByCwd)
	ApplyRegistryToSessions(streamed, c.Registry)
	sink.SetSessions(streamed)
}

// PerformPeriodicRefresh runs one full refresh tick: relists sessions,
// refreshes codex status, rebuilds every session's assessment, evaluates
// and dispatches herd rules, persists the registry, and reports results to
// sink.
func (c *Cycle) PerformPeriodicRefresh(sink Sink) {
	refs, err := LoadSessionRefs(c.Adapter)
	if err != nil {
		c.TmuxServerOnline = false
		c.SessionRefs = nil
		c.PaneCache = make(map[string]*PaneContentCacheEntry)
		sink.SetSessions(nil)
		if syncErr := c.Control.SyncSessions(map[string]struct{}{}); syncErr != nil {
			sink.PushHerderLog(fmt.Sprintf("control_sync_error error=%v", syncErr))
		}
		sink.SetTmuxServerOffline(err.Error())
		sink.NoteRefreshError(fmt.Sprintf("refresh error: %v", err))
		return
	}

	if !c.TmuxServerOnline {
		c.Adapter.EnableExtendedKeysPassthrough()
	}
	c.TmuxServerOnline = true
	sink.SetTmuxServerOnline()

	localPane := c.LocalPaneID
	c.SessionRefs = FilterLocalPaneFromSessions(refs, localPane)

	c.CodexStatusByCwd = c.CodexProvider.StatusesForCwds(codex.CollectCodexCwdsFromSessions(c.SessionRefs), nowUnix())
	if codexErr := c.CodexProvider.TakeLastError(); codexErr != nil {
		sink.PushHerderLog(fmt.Sprintf("codex_status_provider_error error=%v", codexErr))
	}

	if err := c.Control.SyncSessions(CollectSessionNames(c.SessionRefs)); err != nil {
		sink.NoteRefreshError(fmt.Sprintf("control sync error: %v", err))
	}

	newSessions := BuildUiSessionsFromRefs(c.Adapter, c.Classifier, c.Config, c.Registry, c.SessionRefs, c.Config.CaptureLines, c.PaneCache, c.CodexStatusByCwd)
	ApplyRegistryToSessions(newSessions, c.Registry)

	now := nowUnix()
	var eventMessage string
	for _, session := range newSessions {
		if !session.StatusTracked {
			continue
		}
		state := session.Assessment.State
		if c.OnStalled != nil && session.Herded && (state == agent.ProcessStalled || state == agent.ProcessWaitingLong) {
			if prior := c.Registry.SessionState(session.PaneID); prior == nil || prior.LastAssessmentState == nil ||
				(*prior.LastAssessmentState != agent.ProcessStalled && *prior.LastAssessmentState != agent.ProcessWaitingLong) {
				c.OnStalled(session, now)
			}
		}
		var cycleLogs []string
		command, ruleID, err := EvaluateAndDispatchRulesForSession(c.Adapter, c.Engine, c.Registry, c.Config, c.ConfigPath, session, now, &cycleLogs, c.PaneCache)
		switch {
		case err != nil:
			eventMessage = fmt.Sprintf("failed to evaluate rules for %s: %v", session.SessionName, err)
			cycleLogs = append(cycleLogs, fmt.Sprintf("cycle_error pane=%s error=%v", session.PaneID, err))
		case command != "":
			eventMessage = fmt.Sprintf("rule command sent to %s (%s)", session.SessionName, session.PaneID)
			cycleLogs = append(cycleLogs, fmt.Sprintf("dispatch pane=%s command=%s", session.PaneID, command))
			if c.OnDispatch != nil {
				c.OnDispatch(session, command, ruleID, now)
			}
		}
		for _, line := range cycleLogs {
			sink.PushHerderLogForHerd(session.HerdID, line)
		}
	}

	if err := c.Registry.SaveToPath(c.StatePath); err != nil {
		sink.SetStatusMessage(fmt.Sprintf("failed to save herd state: %v", err))
	} else if eventMessage != "" {
		sink.SetStatusMessage(eventMessage)
	} else {
		sink.NoteRefreshSuccess()
	}
	sink.SetSessions(newSessions)
}
