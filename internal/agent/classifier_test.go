package agent

import (
	"testing"

	"github.com/leo/herd/internal/domain"
)

func testConfig() ClassifierConfig {
	return ClassifierConfig{
		StallThresholdSecs:      120,
		FinishedMarkers:         []string{"finished", "done"},
		WaitingMarkers:          []string{"waiting for input"},
		MarkerLookbackLines:     8,
		WaitingGraceSecs:        60,
		TransitionStabilitySecs: 5,
	}
}

func TestAssessDetectsFinishedMarker(t *testing.T) {
	c := NewHeuristicSessionClassifier(testConfig())
	snapshot := domain.PaneSnapshot{Content: "build finished", CapturedAtUnix: 1000, LastActivityUnix: 999}
	result := c.Assess(snapshot, PriorProcessState{})
	if result.State != ProcessFinished {
		t.Fatalf("got state %v, want Finished", result.State)
	}
	if result.EligibleForHerd {
		t.Error("finished should not be herd-eligible")
	}
}

func TestAssessDetectsQuestionTail(t *testing.T) {
	c := NewHeuristicSessionClassifier(testConfig())
	snapshot := domain.PaneSnapshot{Content: "should I continue?", CapturedAtUnix: 1000, LastActivityUnix: 1000}
	result := c.Assess(snapshot, PriorProcessState{})
	if result.State != ProcessWaiting {
		t.Fatalf("got state %v, want Waiting", result.State)
	}
}

func TestAssessStallsAfterInactivityThreshold(t *testing.T) {
	c := NewHeuristicSessionClassifier(testConfig())
	snapshot := domain.PaneSnapshot{Content: "$ still here", CapturedAtUnix: 1200, LastActivityUnix: 1000}
	result := c.Assess(snapshot, PriorProcessState{})
	if result.State != ProcessStalled {
		t.Fatalf("got state %v, want Stalled", result.State)
	}
	if !result.EligibleForHerd {
		t.Error("stalled should be herd-eligible")
	}
}

func TestAssessEmptyContentIsUnknown(t *testing.T) {
	c := NewHeuristicSessionClassifier(testConfig())
	snapshot := domain.PaneSnapshot{Content: "   \n  ", CapturedAtUnix: 1000}
	result := c.Assess(snapshot, PriorProcessState{})
	if result.State != ProcessUnknown {
		t.Fatalf("got state %v, want Unknown", result.State)
	}
	if len(result.Reasons) != 1 || result.Reasons[0] != ReasonNoContent {
		t.Errorf("got reasons %v, want [no_content]", result.Reasons)
	}
}

func TestAssessTransitionStabilityHoldsBriefStateChange(t *testing.T) {
	c := NewHeuristicSessionClassifier(testConfig())
	running := ProcessRunning
	prior := PriorProcessState{State: &running, StateEnteredUnix: int64Ptr(998)}
	snapshot := domain.PaneSnapshot{Content: "build finished", CapturedAtUnix: 1000, LastActivityUnix: 1000}
	result := c.Assess(snapshot, prior)
	if result.State != ProcessRunning {
		t.Fatalf("got state %v, want the hold to keep Running", result.State)
	}
	found := false
	for _, r := range result.Reasons {
		if r == ReasonTransitionStabilityHold {
			found = true
		}
	}
	if !found {
		t.Error("expected a transition_stability_hold reason")
	}
}

func TestAssessWaitingPromotesToWaitingLongAfterGrace(t *testing.T) {
	c := NewHeuristicSessionClassifier(testConfig())
	waiting := ProcessWaiting
	prior := PriorProcessState{State: &waiting, StateEnteredUnix: int64Ptr(900)}
	snapshot := domain.PaneSnapshot{Content: "waiting for input", CapturedAtUnix: 1000, LastActivityUnix: 1000}
	result := c.Assess(snapshot, prior)
	if result.State != ProcessWaitingLong {
		t.Fatalf("got state %v, want WaitingLong after grace elapses", result.State)
	}
}

func TestContainsMarkerIsWholeWordForAlphanumeric(t *testing.T) {
	if containsMarker("the task is doneness", "done") {
		t.Error("'done' should not match inside 'doneness'")
	}
	if !containsMarker("the task is done", "done") {
		t.Error("'done' should match as a whole word")
	}
}

func TestContainsMarkerIsSubstringForPhrases(t *testing.T) {
	if !containsMarker("i am waiting for input now", "waiting for input") {
		t.Error("phrase markers should match as substrings")
	}
}

func int64Ptr(v int64) *int64 { return &v }
