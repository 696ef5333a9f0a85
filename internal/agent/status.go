// Package agent classifies the status of an agent CLI process running in a
// tmux pane, from a plain heuristic read of its captured content down to a
// formal state machine with stability and grace-period handling.
package agent

import "github.com/leo/herd/internal/domain"

// AgentStatus is the status surfaced to the UI and rule engine.
type AgentStatus int

const (
	StatusRunning AgentStatus = iota
	StatusWaiting
	StatusFinished
	StatusStalled
	StatusUnknown
)

func (s AgentStatus) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusWaiting:
		return "waiting"
	case StatusFinished:
		return "finished"
	case StatusStalled:
		return "stalled"
	default:
		return "unknown"
	}
}

// ProcessState is the finer-grained classifier state machine. Several states
// collapse to the same AgentStatus (Waiting and WaitingLong both display as
// "waiting").
type ProcessState int

const (
	ProcessUnknown ProcessState = iota
	ProcessRunning
	ProcessWaiting
	ProcessWaitingLong
	ProcessStalled
	ProcessFinished
)

func (s ProcessState) String() string {
	switch s {
	case ProcessRunning:
		return "running"
	case ProcessWaiting:
		return "waiting"
	case ProcessWaitingLong:
		return "waiting_long"
	case ProcessStalled:
		return "stalled"
	case ProcessFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the state the same snake_case tokens the Rust state
// file used, so a registry state file survives the rewrite.
func (s ProcessState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *ProcessState) UnmarshalJSON(data []byte) error {
	raw := string(data)
	raw = raw[1 : len(raw)-1]
	switch raw {
	case "running":
		*s = ProcessRunning
	case "waiting":
		*s = ProcessWaiting
	case "waiting_long":
		*s = ProcessWaitingLong
	case "stalled":
		*s = ProcessStalled
	case "finished":
		*s = ProcessFinished
	default:
		*s = ProcessUnknown
	}
	return nil
}

// DisplayStatus maps the fine-grained state to the coarse status the UI and
// rule templates see.
func (s ProcessState) DisplayStatus() AgentStatus {
	switch s {
	case ProcessRunning:
		return StatusRunning
	case ProcessWaiting, ProcessWaitingLong:
		return StatusWaiting
	case ProcessStalled:
		return StatusStalled
	case ProcessFinished:
		return StatusFinished
	default:
		return StatusUnknown
	}
}

// StatusReasonCode explains which signal(s) drove a classification.
type StatusReasonCode int

const (
	ReasonNoContent StatusReasonCode = iota
	ReasonFinishedMarker
	ReasonWaitingMarker
	ReasonQuestionTail
	ReasonInactivityExceeded
	ReasonActivityRecent
	ReasonWaitingGraceExceeded
	ReasonTransitionStabilityHold
	ReasonCodexTurnInProgress
	ReasonCodexTurnCompleted
	ReasonCodexTurnInterrupted
	ReasonCodexTurnFailed
	ReasonCodexNoTurnData
)

func (r StatusReasonCode) String() string {
	switch r {
	case ReasonNoContent:
		return "no_content"
	case ReasonFinishedMarker:
		return "finished_marker"
	case ReasonWaitingMarker:
		return "waiting_marker"
	case ReasonQuestionTail:
		return "question_tail"
	case ReasonInactivityExceeded:
		return "inactivity_exceeded"
	case ReasonActivityRecent:
		return "activity_recent"
	case ReasonWaitingGraceExceeded:
		return "waiting_grace_exceeded"
	case ReasonTransitionStabilityHold:
		return "transition_stability_hold"
	case ReasonCodexTurnInProgress:
		return "codex_turn_in_progress"
	case ReasonCodexTurnCompleted:
		return "codex_turn_completed"
	case ReasonCodexTurnInterrupted:
		return "codex_turn_interrupted"
	case ReasonCodexTurnFailed:
		return "codex_turn_failed"
	case ReasonCodexNoTurnData:
		return "codex_no_turn_data"
	default:
		return "unknown"
	}
}

// PriorProcessState is what the herd registry remembers about a pane's last
// classification, fed back into the next assess() call.
type PriorProcessState struct {
	State          *ProcessState
	StateEnteredUnix *int64
}

// ProcessAssessment is the full result of classifying one pane snapshot.
type ProcessAssessment struct {
	DisplayStatus     AgentStatus
	State             ProcessState
	Reasons           []StatusReasonCode
	Confidence        uint8
	CapturedAtUnix    int64
	LastActivityUnix  int64
	InactiveSecs      int64
	WaitingSecs       int64
	StateEnteredUnix  int64
	EligibleForHerd   bool
}

// FromDisplayStatus builds a degenerate assessment carrying only a display
// status, used for panes that aren't status-tracked.
func FromDisplayStatus(status AgentStatus) ProcessAssessment {
	var state ProcessState
	switch status {
	case StatusRunning:
		state = ProcessRunning
	case StatusWaiting:
		state = ProcessWaiting
	case StatusFinished:
		state = ProcessFinished
	case StatusStalled:
		state = ProcessStalled
	default:
		state = ProcessUnknown
	}
	return ProcessAssessment{
		DisplayStatus:   status,
		State:           state,
		EligibleForHerd: state == ProcessStalled,
	}
}

// ReasonLabels renders the reason codes as strings, the shape the rule
// engine and UI consume.
func (a ProcessAssessment) ReasonLabels() []string {
	labels := make([]string, len(a.Reasons))
	for i, r := range a.Reasons {
		labels[i] = r.String()
	}
	return labels
}

// SessionClassifier assesses a pane snapshot given its prior state.
type SessionClassifier interface {
	Assess(snapshot domain.PaneSnapshot, prior PriorProcessState) ProcessAssessment
}
