package main

import (
	"fmt"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/leo/herd/internal/agent"
	"github.com/leo/herd/internal/audit"
	"github.com/leo/herd/internal/codex"
	"github.com/leo/herd/internal/companion"
	"github.com/leo/herd/internal/config"
	"github.com/leo/herd/internal/configwatch"
	"github.com/leo/herd/internal/herd"
	"github.com/leo/herd/internal/logging"
	"github.com/leo/herd/internal/notifier"
	"github.com/leo/herd/internal/scheduler"
	"github.com/leo/herd/internal/tmux"
	"github.com/leo/herd/internal/tui"
)

// runTUI wires every package into one refresh cycle and launches the
// Bubble Tea program. It is the RunE for the bare `herd` command.
func runTUI(cmd *cobra.Command, args []string) error {
	if err := requireTmux(); err != nil {
		return err
	}

	logger := logging.New(os.Stderr, os.Getenv("HERD_LOG_LEVEL"))

	settingsPath, err := resolveConfigPath()
	if err != nil {
		return fmt.Errorf("failed resolving settings path: %w", err)
	}
	cfg, err := config.LoadFromPath(settingsPath)
	if err != nil {
		return fmt.Errorf("failed loading settings: %w", err)
	}
	if err := config.EnsureHerdModeFiles(settingsPath, cfg); err != nil {
		logger.Warn("failed materializing default rule files", "error", err)
	}

	statePath, err := config.DefaultStatePath()
	if err != nil {
		return fmt.Errorf("failed resolving state path: %w", err)
	}
	registry, err := herd.LoadRegistryFromPath(statePath)
	if err != nil {
		return fmt.Errorf("failed loading herd state: %w", err)
	}

	adapter := tmux.NewSystemTmuxAdapter(os.Getenv("HERD_TMUX_SOCKET"))
	control := tmux.NewControlModeMultiplexer(os.Getenv("HERD_TMUX_SOCKET"))
	defer control.Close()

	classifier := agent.NewHeuristicSessionClassifier(agent.ClassifierConfigFromAppConfig(&cfg))
	engine := herd.NewRuleEngine(herd.ConfigFromAppConfig(&cfg))
	codexProvider := codex.NewSessionStateProvider()
	defer codexProvider.Close()

	localPaneID, _ := scheduler.CurrentTmuxPaneID()

	cycle := scheduler.NewCycle(adapter, control, classifier, engine, codexProvider, registry, &cfg, settingsPath, statePath, localPaneID)

	auditLogPath := cfg.AuditLogPath
	if auditLogPath == "" {
		if defaultPath, err := config.DefaultAuditLogPath(); err == nil {
			auditLogPath = defaultPath
		}
	}
	var auditLog *audit.Log
	if auditLogPath != "" {
		auditLog, err = audit.Open(auditLogPath)
		if err != nil {
			logger.Warn("failed opening audit log, nudges will not be recorded", "path", auditLogPath, "error", err)
			auditLog = nil
		} else {
			defer auditLog.Close()
		}
	}

	slackNotifier := notifier.New(cfg.SlackWebhookURL, cfg.SlackNotifyCooldownSecs)

	cycle.OnDispatch = func(session scheduler.UiSession, command, ruleID string, nowUnix int64) {
		if auditLog == nil {
			return
		}
		if err := auditLog.RecordNudge(audit.Entry{
			PaneID:      session.PaneID,
			SessionName: session.SessionName,
			HerdID:      session.HerdID,
			Command:     command,
			RuleID:      ruleID,
			SentAtUnix:  nowUnix,
		}); err != nil {
			logger.Warn("failed recording audit entry", "pane_id", session.PaneID, "error", err)
		}
	}
	cycle.OnStalled = func(session scheduler.UiSession, nowUnix int64) {
		sent, err := slackNotifier.NotifyAttentionNeeded(session.PaneID, session.SessionName, "pane "+session.Assessment.State.String(), nowUnix)
		if err != nil {
			logger.Warn("failed sending stall notification", "pane_id", session.PaneID, "error", err)
		} else if sent {
			logger.Info("sent stall notification", "pane_id", session.PaneID, "session", session.SessionName)
		}
	}

	var companionServer *companion.Server
	if cfg.CompanionStreamAddr != "" {
		companionServer = companion.New()
		mux := http.NewServeMux()
		mux.Handle("/", companionServer)
		server := &http.Server{Addr: cfg.CompanionStreamAddr, Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("companion stream server exited", "error", err)
			}
		}()
		defer server.Close()
	}

	if cfg.ConfigWatchEnabled {
		watcher, err := configwatch.Start(settingsPath, func(reloaded config.AppConfig) {
			*cycle.Config = reloaded
			cycle.Classifier = agent.NewHeuristicSessionClassifier(agent.ClassifierConfigFromAppConfig(&reloaded))
			cycle.Engine = herd.NewRuleEngine(herd.ConfigFromAppConfig(&reloaded))
			logger.Info("reloaded settings", "path", settingsPath)
		}, func(err error) {
			logger.Warn("config watch error", "error", err)
		})
		if err != nil {
			logger.Warn("failed starting config watcher", "error", err)
		} else {
			defer watcher.Close()
		}
	}

	model := tui.NewModel(cycle)
	if companionServer != nil {
		model = model.WithSessionsObserver(func(sessions []scheduler.UiSession) {
			companionServer.Broadcast(toCompanionStatuses(sessions))
		})
	}

	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

func toCompanionStatuses(sessions []scheduler.UiSession) []companion.SessionStatus {
	statuses := make([]companion.SessionStatus, 0, len(sessions))
	for _, s := range sessions {
		statuses = append(statuses, companion.SessionStatus{
			PaneID:         s.PaneID,
			SessionName:    s.SessionName,
			Status:         s.Status.String(),
			Herded:         s.Herded,
			HerdID:         s.HerdID,
			LastUpdateUnix: s.LastUpdateUnix,
		})
	}
	return statuses
}
