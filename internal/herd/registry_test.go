package herd

import (
	"path/filepath"
	"testing"

	"github.com/leo/herd/internal/agent"
	"github.com/leo/herd/internal/domain"
)

func TestToggleHerdedFlipsAndClearsGroup(t *testing.T) {
	r := NewRegistry()
	one := uint8(1)
	r.SetHerdGroup("%1", &one)
	if !r.ToggleHerded("%1") {
		// SetHerdGroup already herded it; toggling flips to false.
	}
	if r.IsHerded("%1") {
		t.Error("expected toggle to unherd an already-herded pane")
	}
	if r.HerdGroup("%1") != nil {
		t.Error("unherding should clear the herd group")
	}
}

func TestShouldNudgeRequiresEligibilityConfidenceAndMembership(t *testing.T) {
	engine := NewRuleEngine(Config{CooldownSecs: 120, MaxNudges: 3, NudgeMessage: "go", StatusConfidenceMinForTrigger: 60})
	session := domain.SessionRef{PaneID: "%1"}
	assessment := agent.ProcessAssessment{EligibleForHerd: true, Confidence: 90, State: agent.ProcessStalled}

	if engine.ShouldNudge(session, assessment, nil, 1000) {
		t.Error("no session state yet: should not nudge")
	}

	herdedState := &SessionState{Herded: true}
	if !engine.ShouldNudge(session, assessment, herdedState, 1000) {
		t.Error("eligible, confident, herded, fresh: should nudge")
	}

	lowConfidence := agent.ProcessAssessment{EligibleForHerd: true, Confidence: 10, State: agent.ProcessStalled}
	if engine.ShouldNudge(session, lowConfidence, herdedState, 1000) {
		t.Error("low confidence should block the nudge")
	}

	capped := &SessionState{Herded: true, NudgeCount: 3}
	if engine.ShouldNudge(session, assessment, capped, 1000) {
		t.Error("nudge count at max should block further nudges")
	}

	last := int64(950)
	onCooldown := &SessionState{Herded: true, LastNudgeUnix: &last}
	if engine.ShouldNudge(session, assessment, onCooldown, 1000) {
		t.Error("within cooldown should block the nudge")
	}
}

func TestRegistrySaveLoadRoundTrips(t *testing.T) {
	r := NewRegistry()
	r.SetHerded("%3", true)
	r.RecordNudge("%3", 1234)
	r.SetHerdMode(2, "Focused")

	path := filepath.Join(t.TempDir(), "state.json")
	if err := r.SaveToPath(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := LoadRegistryFromPath(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !loaded.IsHerded("%3") {
		t.Error("expected %3 to remain herded after round trip")
	}
	if loaded.HerdMode(2) != "Focused" {
		t.Errorf("got herd mode %q, want Focused", loaded.HerdMode(2))
	}
}

func TestLoadRegistryFromMissingPathReturnsEmpty(t *testing.T) {
	r, err := LoadRegistryFromPath(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(r.AllSessions()) != 0 {
		t.Error("expected an empty registry")
	}
}
