package devhost

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/dusk-indust/mergeframes/internal/host"
	"github.com/gorilla/websocket"
)

const writeTimeout = 5 * time.Second

// hub fans host events out to every connected plugin.
type hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func newHub(logger *slog.Logger) *hub {
	return &hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // plugins connect from localhost tooling
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
		conns:  make(map[*websocket.Conn]struct{}),
	}
}

// handleEvents upgrades the request and keeps the connection registered until
// the plugin disconnects.
func (h *hub) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("event stream upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("plugin subscribed", "remote", r.RemoteAddr)

	// Plugins never send on the event stream; reading only drains control
	// frames and notices the disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.drop(conn)
	h.logger.Info("plugin unsubscribed", "remote", r.RemoteAddr)
}

// broadcast writes req to every subscriber and returns how many received it.
func (h *hub) broadcast(req host.JSONRPCRequest) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	sent := 0
	for conn := range h.conns {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(req); err != nil {
			h.logger.Warn("dropping subscriber", "error", err)
			delete(h.conns, conn)
			conn.Close()
			continue
		}
		sent++
	}
	return sent
}

func (h *hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
		conn.Close()
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// closeAll sends a normal close frame to every subscriber.
func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "host shutting down")
	for conn := range h.conns {
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		conn.Close()
		delete(h.conns, conn)
	}
}
