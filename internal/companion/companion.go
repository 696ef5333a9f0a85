// Package companion serves a websocket status stream for an external
// companion app (e.g. a phone dashboard) to watch herd's session list
// without attaching to tmux itself.
package companion

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// SessionStatus is the wire shape broadcast to companion clients for one
// tracked session.
type SessionStatus struct {
	PaneID         string `json:"pane_id"`
	SessionName    string `json:"session_name"`
	Status         string `json:"status"`
	Herded         bool   `json:"herded"`
	HerdID         *uint8 `json:"herd_id,omitempty"`
	LastUpdateUnix int64  `json:"last_update_unix"`
}

type statusMessage struct {
	Type     string          `json:"type"`
	Sessions []SessionStatus `json:"sessions"`
}

// Server streams session status snapshots to every connected websocket
// client whenever Broadcast is called.
type Server struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// New builds an empty companion stream server.
func New() *Server {
	return &Server{clients: make(map[*websocket.Conn]struct{})}
}

// ServeHTTP upgrades the request to a websocket and keeps the connection
// registered for broadcasts until the client disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
	})
	if err != nil {
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(4096)

	s.register(conn)
	defer s.unregister(conn)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go s.pingLoop(ctx, cancel, conn)

	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
	}
}

func (s *Server) pingLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn) {
	defer cancel()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.Ping(ctx); err != nil {
				return
			}
		}
	}
}

func (s *Server) register(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[conn] = struct{}{}
}

func (s *Server) unregister(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, conn)
}

// Broadcast sends the given session statuses to every connected client,
// dropping (and unregistering) any client whose write fails or times out.
func (s *Server) Broadcast(sessions []SessionStatus) {
	data, err := json.Marshal(statusMessage{Type: "sessions", Sessions: sessions})
	if err != nil {
		return
	}

	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := conn.Write(ctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			s.unregister(conn)
		}
	}
}

// ClientCount returns the number of currently connected companion clients.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}
