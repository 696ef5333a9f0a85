package tui

import (
	"testing"
	"time"

	"github.com/leo/herd/internal/agent"
	"github.com/leo/herd/internal/scheduler"
)

func sessionsFixture() []scheduler.UiSession {
	return []scheduler.UiSession{
		{PaneID: "%1", SessionName: "alpha", Status: agent.StatusRunning},
		{PaneID: "%2", SessionName: "alpha", Status: agent.StatusStalled},
		{PaneID: "%3", SessionName: "beta", Status: agent.StatusFinished},
	}
}

func TestFlattenTreeGroupsBySessionName(t *testing.T) {
	items := FlattenTree(sessionsFixture())

	var kinds []ItemKind
	for _, it := range items {
		kinds = append(kinds, it.Kind)
	}
	want := []ItemKind{KindSession, KindPane, KindPane, KindSession, KindPane}
	if len(kinds) != len(want) {
		t.Fatalf("got %d items, want %d", len(kinds), len(want))
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("item %d: got %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestNextPrevPaneSkipHeaders(t *testing.T) {
	items := FlattenTree(sessionsFixture())
	// items: [session alpha, pane0, pane1, session beta, pane2]
	if next := NextPane(items, 0); next != 1 {
		t.Errorf("NextPane from header: got %d, want 1", next)
	}
	if next := NextPane(items, 1); next != 2 {
		t.Errorf("NextPane from pane0: got %d, want 2", next)
	}
	if next := NextPane(items, 2); next != 4 {
		t.Errorf("NextPane across header: got %d, want 4", next)
	}
	if next := NextPane(items, 4); next != 4 {
		t.Errorf("NextPane at end: got %d, want unchanged 4", next)
	}
	if prev := PrevPane(items, 4); prev != 2 {
		t.Errorf("PrevPane across header: got %d, want 2", prev)
	}
	if prev := PrevPane(items, 1); prev != 1 {
		t.Errorf("PrevPane at first pane: got %d, want unchanged 1", prev)
	}
}

func TestNearestPaneClampsAndSkipsHeaders(t *testing.T) {
	items := FlattenTree(sessionsFixture())
	if got := NearestPane(items, 0); got != 1 {
		t.Errorf("NearestPane from header 0: got %d, want 1", got)
	}
	if got := NearestPane(items, 2); got != 2 {
		t.Errorf("NearestPane already on pane: got %d, want unchanged 2", got)
	}
	if got := NearestPane(items, 100); got != 4 {
		t.Errorf("NearestPane out of bounds: got %d, want 4", got)
	}
	if got := NearestPane(nil, 3); got != 0 {
		t.Errorf("NearestPane on empty list: got %d, want 0", got)
	}
}

func TestFirstAttentionPanePrefersStalled(t *testing.T) {
	items := FlattenTree(sessionsFixture())
	sessions := sessionsFixture()
	got := NearestPane(items, FirstAttentionPane(items, sessions))
	if got != 2 {
		t.Errorf("got %d, want the stalled pane at index 2", got)
	}
}

func TestFirstAttentionPaneFallsBackToFirstPane(t *testing.T) {
	sessions := []scheduler.UiSession{
		{PaneID: "%1", SessionName: "alpha", Status: agent.StatusRunning},
		{PaneID: "%2", SessionName: "alpha", Status: agent.StatusFinished},
	}
	items := FlattenTree(sessions)
	got := FirstAttentionPane(items, sessions)
	if got != FirstPane(items) {
		t.Errorf("got %d, want FirstPane fallback %d", got, FirstPane(items))
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in      string
		maxLen  int
		want    string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"hello", 0, ""},
		{"hello", 3, "hel"},
	}
	for _, c := range cases {
		if got := truncate(c.in, c.maxLen); got != c.want {
			t.Errorf("truncate(%q, %d): got %q, want %q", c.in, c.maxLen, got, c.want)
		}
	}
}

func TestFormatElapsed(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{5 * time.Minute, "5m"},
		{90 * time.Minute, "1h30m"},
		{3 * time.Hour, "3h"},
		{48 * time.Hour, "2d"},
	}
	for _, c := range cases {
		if got := formatElapsed(c.d); got != c.want {
			t.Errorf("formatElapsed(%v): got %q, want %q", c.d, got, c.want)
		}
	}
}

func TestVisibleSliceKeepsCursorInView(t *testing.T) {
	if got := VisibleSlice(5, 2, 10); got != 0 {
		t.Errorf("total<=height: got %d, want 0", got)
	}
	if got := VisibleSlice(20, 15, 5); got != 11 {
		t.Errorf("scroll down: got %d, want 11", got)
	}
	if got := VisibleSlice(20, 0, 5); got != 0 {
		t.Errorf("cursor at top: got %d, want 0", got)
	}
}
