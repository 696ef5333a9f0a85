package companion

import "testing"

func TestClientCountStartsEmpty(t *testing.T) {
	s := New()
	if s.ClientCount() != 0 {
		t.Errorf("got %d, want 0", s.ClientCount())
	}
}

func TestBroadcastWithNoClientsIsNoop(t *testing.T) {
	s := New()
	s.Broadcast([]SessionStatus{{PaneID: "%1", SessionName: "work", Status: "running"}})
	if s.ClientCount() != 0 {
		t.Errorf("got %d, want 0", s.ClientCount())
	}
}
