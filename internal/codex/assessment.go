// Package codex overrides the heuristic classifier for codex CLI panes: it
// talks to `codex app-server` over JSON-RPC/stdio to read the actual turn
// status of the thread running in a pane's working directory, instead of
// guessing from captured terminal text.
package codex

import (
	"strings"

	"github.com/leo/herd/internal/agent"
	"github.com/leo/herd/internal/domain"
)

// TurnStatus is a codex thread's most recent turn state, as reported by
// the app-server's thread/read response.
type TurnStatus int

const (
	TurnUnknown TurnStatus = iota
	TurnInProgress
	TurnCompleted
	TurnInterrupted
	TurnFailed
)

// ThreadState is the codex app-server state cached for one working
// directory.
type ThreadState struct {
	ThreadID         string
	ThreadUpdatedUnix int64
	TurnStatus       *TurnStatus
}

// ParseTurnStatus maps the app-server's turn status strings to TurnStatus.
func ParseTurnStatus(raw string) *TurnStatus {
	var status TurnStatus
	switch raw {
	case "inProgress":
		status = TurnInProgress
	case "completed":
		status = TurnCompleted
	case "interrupted":
		status = TurnInterrupted
	case "failed":
		status = TurnFailed
	default:
		return nil
	}
	return &status
}

// IsCodexCommand reports whether a tmux pane's current command names the
// codex CLI.
func IsCodexCommand(command string) bool {
	return strings.Contains(strings.ToLower(strings.TrimSpace(command)), "codex")
}

// CollectCodexCwdsFromSessions returns the distinct working directories of
// every codex-CLI session, in first-seen order.
func CollectCodexCwdsFromSessions(sessions []domain.SessionRef) []string {
	seen := make(map[string]bool)
	var out []string
	for _, session := range sessions {
		if !IsCodexCommand(session.PaneCurrentCommand) {
			continue
		}
		cwd := strings.TrimSpace(session.PaneCurrentPath)
		if cwd == "" || seen[cwd] {
			continue
		}
		seen[cwd] = true
		out = append(out, cwd)
	}
	return out
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// AssessmentFromCodexState maps a codex thread's last known turn status to
// a full ProcessAssessment, the same shape the heuristic classifier
// produces, so the scheduler can treat both sources uniformly.
func AssessmentFromCodexState(state ThreadState, prior agent.PriorProcessState, capturedAtUnix, waitingGraceSecs int64) agent.ProcessAssessment {
	lastActivityUnix := maxI64(state.ThreadUpdatedUnix, 0)
	inactiveSecs := int64(0)
	if lastActivityUnix > 0 {
		inactiveSecs = maxI64(capturedAtUnix-lastActivityUnix, 0)
	}

	if state.TurnStatus == nil {
		return waitingAssessment(agent.ReasonCodexNoTurnData, 70, prior, capturedAtUnix, lastActivityUnix, inactiveSecs, waitingGraceSecs)
	}

	switch *state.TurnStatus {
	case TurnInProgress:
		stateEntered := capturedAtUnix
		if prior.State != nil && *prior.State == agent.ProcessRunning && prior.StateEnteredUnix != nil {
			stateEntered = *prior.StateEnteredUnix
		}
		return agent.ProcessAssessment{
			DisplayStatus:    agent.ProcessRunning.DisplayStatus(),
			State:            agent.ProcessRunning,
			Reasons:          []agent.StatusReasonCode{agent.ReasonCodexTurnInProgress},
			Confidence:       96,
			CapturedAtUnix:   capturedAtUnix,
			LastActivityUnix: lastActivityUnix,
			InactiveSecs:     inactiveSecs,
			StateEnteredUnix: stateEntered,
			EligibleForHerd:  false,
		}
	case TurnFailed:
		stateEntered := capturedAtUnix
		if prior.State != nil && *prior.State == agent.ProcessStalled && prior.StateEnteredUnix != nil {
			stateEntered = *prior.StateEnteredUnix
		}
		return agent.ProcessAssessment{
			DisplayStatus:    agent.ProcessStalled.DisplayStatus(),
			State:            agent.ProcessStalled,
			Reasons:          []agent.StatusReasonCode{agent.ReasonCodexTurnFailed},
			Confidence:       83,
			CapturedAtUnix:   capturedAtUnix,
			LastActivityUnix: lastActivityUnix,
			InactiveSecs:     inactiveSecs,
			StateEnteredUnix: stateEntered,
			EligibleForHerd:  true,
		}
	case TurnCompleted:
		return waitingAssessment(agent.ReasonCodexTurnCompleted, 92, prior, capturedAtUnix, lastActivityUnix, inactiveSecs, waitingGraceSecs)
	case TurnInterrupted:
		return waitingAssessment(agent.ReasonCodexTurnInterrupted, 85, prior, capturedAtUnix, lastActivityUnix, inactiveSecs, waitingGraceSecs)
	default:
		return waitingAssessment(agent.ReasonCodexNoTurnData, 70, prior, capturedAtUnix, lastActivityUnix, inactiveSecs, waitingGraceSecs)
	}
}

func waitingAssessment(reason agent.StatusReasonCode, confidence uint8, prior agent.PriorProcessState, capturedAtUnix, lastActivityUnix, inactiveSecs, waitingGraceSecs int64) agent.ProcessAssessment {
	reasons := []agent.StatusReasonCode{reason}

	stateEntered := capturedAtUnix
	if prior.State != nil && (*prior.State == agent.ProcessWaiting || *prior.State == agent.ProcessWaitingLong) && prior.StateEnteredUnix != nil {
		stateEntered = *prior.StateEnteredUnix
	}
	if stateEntered <= 0 {
		stateEntered = capturedAtUnix
	}

	waitingSecs := maxI64(capturedAtUnix-stateEntered, 0)
	state := agent.ProcessWaiting
	if prior.State != nil && *prior.State == agent.ProcessWaitingLong {
		state = agent.ProcessWaitingLong
	}

	if state == agent.ProcessWaiting && waitingSecs >= maxI64(waitingGraceSecs, 0) {
		state = agent.ProcessWaitingLong
		reasons = append(reasons, agent.ReasonWaitingGraceExceeded)
	}

	return agent.ProcessAssessment{
		DisplayStatus:    state.DisplayStatus(),
		State:            state,
		Reasons:          reasons,
		Confidence:       confidence,
		CapturedAtUnix:   capturedAtUnix,
		LastActivityUnix: lastActivityUnix,
		InactiveSecs:     inactiveSecs,
		WaitingSecs:      waitingSecs,
		StateEnteredUnix: stateEntered,
		EligibleForHerd:  state == agent.ProcessWaitingLong,
	}
}
