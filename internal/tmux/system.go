package tmux

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/leo/herd/internal/domain"
)

// SystemTmuxAdapter drives the real tmux binary via os/exec, optionally
// against a named alternate socket (`tmux -L <socket>`).
type SystemTmuxAdapter struct {
	SocketName string
}

func NewSystemTmuxAdapter(socketName string) *SystemTmuxAdapter {
	return &SystemTmuxAdapter{SocketName: socketName}
}

func (a *SystemTmuxAdapter) runTmux(args ...string) (string, error) {
	return runTmuxWithSocket(a.SocketName, args)
}

func runTmuxWithSocket(socketName string, args []string) (string, error) {
	full := args
	if socketName != "" {
		full = append([]string{"-L", socketName}, args...)
	}
	cmd := exec.Command("tmux", full...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("tmux %v failed: %s", args, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("failed to run tmux %v: %w", args, err)
	}
	return string(out), nil
}

// EnableExtendedKeysPassthrough configures the server and every current
// session so extended keyboard escapes reach the pane and sessions survive
// the last client detaching, then re-applies it to every existing session
// (the per-session setting does not inherit a later global change).
func (a *SystemTmuxAdapter) EnableExtendedKeysPassthrough() {
	_, _ = a.runTmux("set-option", "-g", "xterm-keys", "on")
	_, _ = a.runTmux("set-option", "-s", "extended-keys", "always")
	_, _ = a.runTmux("set-option", "-s", "extended-keys-format", "csi-u")
	// Keep the server alive even if all sessions exit, so herd can recover
	// without immediately losing tmux server connectivity.
	_, _ = a.runTmux("set-option", "-s", "exit-empty", "off")
	_, _ = a.runTmux("set-option", "-s", "exit-unattached", "off")
	// Guard against environments where session auto-destruction is enabled.
	_, _ = a.runTmux("set-option", "-g", "destroy-unattached", "off")

	stdout, err := a.runTmux("list-sessions", "-F", "#{session_name}")
	if err != nil {
		return
	}
	for _, name := range strings.Split(stdout, "\n") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		setDestroyUnattachedOffForSession(a.SocketName, name)
	}
}

func (a *SystemTmuxAdapter) SendLiteralKeys(paneID, text string) error {
	if text == "" {
		return nil
	}
	_, err := a.runTmux("send-keys", "-t", paneID, "-l", text)
	return err
}

func (a *SystemTmuxAdapter) SendKeyToken(paneID, token string) error {
	if token == "" {
		return nil
	}
	_, err := a.runTmux("send-keys", "-t", paneID, token)
	return err
}

func setDestroyUnattachedOffForSession(socketName, sessionName string) {
	_, _ = runTmuxWithSocket(socketName, []string{"set-option", "-t", sessionName, "destroy-unattached", "off"})
}

func (a *SystemTmuxAdapter) ListSessions() ([]domain.SessionRef, error) {
	fields := strings.Join([]string{
		"#{session_id}", "#{session_name}", "#{window_id}", "#{window_index}",
		"#{window_name}", "#{pane_id}", "#{pane_index}", "#{pane_current_path}",
		"#{pane_current_command}", "#{pane_dead}", "#{pane_last}",
	}, listPanesDelim)
	stdout, err := a.runTmux("list-panes", "-a", "-F", fields)
	if err != nil {
		if isTmuxEmptyTargetError(err.Error()) {
			return nil, nil
		}
		return nil, err
	}
	sessions, err := parseListPanesOutput(stdout)
	if err != nil {
		return nil, err
	}
	// Dead panes represent exited shells/processes and should not remain in
	// the active session list surfaced to the CLI/TUI.
	live := sessions[:0]
	for _, s := range sessions {
		if !s.PaneDead {
			live = append(live, s)
		}
	}
	return live, nil
}

func (a *SystemTmuxAdapter) CapturePane(paneID string, lines int) (domain.PaneSnapshot, error) {
	stdout, err := a.runTmux("capture-pane", "-p", "-e", "-N", "-J", "-t", paneID, "-S", fmt.Sprintf("-%d", lines))
	if err != nil {
		return domain.PaneSnapshot{}, err
	}
	return domain.PaneSnapshot{
		PaneID:         paneID,
		Content:        stdout,
		CapturedAtUnix: nowUnix(),
	}, nil
}

func (a *SystemTmuxAdapter) PaneHeight(paneID string) (int, error) {
	stdout, err := a.runTmux("display-message", "-p", "-t", paneID, "#{pane_height}")
	if err != nil {
		return 0, err
	}
	trimmed := strings.TrimSpace(stdout)
	height, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid pane_height %q for %s: %w", trimmed, paneID, err)
	}
	if height < 1 {
		height = 1
	}
	return height, nil
}

func (a *SystemTmuxAdapter) SendKeys(paneID, message string) error {
	if err := a.SendLiteralKeys(paneID, message); err != nil {
		return err
	}
	return a.SendKeyToken(paneID, "Enter")
}

func nowUnix() int64 { return time.Now().Unix() }

// isTmuxEmptyTargetError reports whether a tmux error indicates there is
// simply nothing to list (no sessions yet), as opposed to the server being
// down entirely.
func isTmuxEmptyTargetError(errText string) bool {
	normalized := strings.ToLower(errText)
	return strings.Contains(normalized, "no current target") ||
		strings.Contains(normalized, "can't find session") ||
		strings.Contains(normalized, "no sessions")
}
