package codex

import (
	"testing"

	"github.com/leo/herd/internal/agent"
	"github.com/leo/herd/internal/domain"
)

func turnStatusPtr(s TurnStatus) *TurnStatus { return &s }

func TestCodexInProgressMapsToRunningAssessment(t *testing.T) {
	assessment := AssessmentFromCodexState(
		ThreadState{ThreadID: "t1", ThreadUpdatedUnix: 100, TurnStatus: turnStatusPtr(TurnInProgress)},
		agent.PriorProcessState{},
		110, 120,
	)
	if assessment.State != agent.ProcessRunning {
		t.Fatalf("got state %v, want Running", assessment.State)
	}
	if assessment.EligibleForHerd {
		t.Error("in-progress turns should not be herd-eligible")
	}
}

func TestCodexCompletedMapsToWaitingLongAfterGrace(t *testing.T) {
	waiting := agent.ProcessWaiting
	entered := int64(5)
	assessment := AssessmentFromCodexState(
		ThreadState{ThreadID: "t2", ThreadUpdatedUnix: 100, TurnStatus: turnStatusPtr(TurnCompleted)},
		agent.PriorProcessState{State: &waiting, StateEnteredUnix: &entered},
		130, 120,
	)
	if assessment.State != agent.ProcessWaitingLong {
		t.Fatalf("got state %v, want WaitingLong", assessment.State)
	}
	if !assessment.EligibleForHerd {
		t.Error("WaitingLong should be herd-eligible")
	}
}

func TestCodexFailedMapsToStalled(t *testing.T) {
	assessment := AssessmentFromCodexState(
		ThreadState{ThreadID: "t3", ThreadUpdatedUnix: 100, TurnStatus: turnStatusPtr(TurnFailed)},
		agent.PriorProcessState{},
		150, 120,
	)
	if assessment.State != agent.ProcessStalled {
		t.Fatalf("got state %v, want Stalled", assessment.State)
	}
	if !assessment.EligibleForHerd {
		t.Error("failed turns should be herd-eligible")
	}
}

func TestParseTurnStatusHandlesKnownValues(t *testing.T) {
	cases := map[string]*TurnStatus{
		"inProgress":  turnStatusPtr(TurnInProgress),
		"completed":   turnStatusPtr(TurnCompleted),
		"interrupted": turnStatusPtr(TurnInterrupted),
		"failed":      turnStatusPtr(TurnFailed),
		"unknown":     nil,
	}
	for raw, want := range cases {
		got := ParseTurnStatus(raw)
		if (got == nil) != (want == nil) {
			t.Errorf("ParseTurnStatus(%q) = %v, want %v", raw, got, want)
			continue
		}
		if got != nil && *got != *want {
			t.Errorf("ParseTurnStatus(%q) = %v, want %v", raw, *got, *want)
		}
	}
}

func TestCollectCodexCwdsSelectsUniqueCodexSessions(t *testing.T) {
	sessions := []domain.SessionRef{
		{PaneID: "%1", PaneCurrentPath: "/tmp/work1", PaneCurrentCommand: "codex"},
		{PaneID: "%2", PaneCurrentPath: "/tmp/work1", PaneCurrentCommand: "codex --profile x"},
		{PaneID: "%3", PaneCurrentPath: "/tmp/work2", PaneCurrentCommand: "bash"},
	}
	cwds := CollectCodexCwdsFromSessions(sessions)
	if len(cwds) != 1 || cwds[0] != "/tmp/work1" {
		t.Errorf("got %v, want [/tmp/work1]", cwds)
	}
}
