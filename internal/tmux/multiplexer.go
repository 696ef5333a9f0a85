package tmux

import "sync"

// ControlOutputEvent is one decoded line of live pane output streamed from
// a control-mode client.
type ControlOutputEvent struct {
	PaneID         string
	Content        string
	CapturedAtUnix int64
}

// ControlModeMultiplexer keeps one control-mode tmux client per live
// session, forwarding every client's decoded output onto a shared channel
// the scheduler drains once per cycle.
type ControlModeMultiplexer struct {
	socketName string
	events     chan ControlOutputEvent

	mu      sync.Mutex
	clients map[string]*controlSessionClient
}

func NewControlModeMultiplexer(socketName string) *ControlModeMultiplexer {
	return &ControlModeMultiplexer{
		socketName: socketName,
		events:     make(chan ControlOutputEvent, 4096),
		clients:    make(map[string]*controlSessionClient),
	}
}

// SyncSessions reconciles live control-mode clients against the set of
// session names currently reported by tmux: clients for sessions that no
// longer exist (or whose subprocess already exited) are stopped, and a new
// client is spawned for every session not yet covered.
func (m *ControlModeMultiplexer) SyncSessions(sessionNames map[string]struct{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, client := range m.clients {
		if client.isExited() {
			client.stop()
			delete(m.clients, name)
		}
	}
	for name, client := range m.clients {
		if _, ok := sessionNames[name]; !ok {
			client.stop()
			delete(m.clients, name)
		}
	}
	for name := range sessionNames {
		if _, ok := m.clients[name]; ok {
			continue
		}
		client, err := spawnControlSessionClient(m.socketName, name, m.events)
		if err != nil {
			return err
		}
		m.clients[name] = client
	}
	return nil
}

// DrainEvents returns every event buffered since the last drain, without
// blocking.
func (m *ControlModeMultiplexer) DrainEvents() []ControlOutputEvent {
	var events []ControlOutputEvent
	for {
		select {
		case event := <-m.events:
			events = append(events, event)
		default:
			return events
		}
	}
}

// Close stops every live control-mode client.
func (m *ControlModeMultiplexer) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, client := range m.clients {
		client.stop()
		delete(m.clients, name)
	}
}
