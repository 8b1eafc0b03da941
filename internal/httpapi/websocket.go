package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"agentdeck/internal/board"
)

// WSMessage is the wire envelope for board pushes.
type WSMessage struct {
	Type    string `json:"type"`
	Symbol  string `json:"symbol,omitempty"`
	Tab     string `json:"tab,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

var wsUpgrader = websocket.Upgrader{
	CheckOrigin:       func(*http.Request) bool { return true },
	EnableCompression: true,
}

const (
	wsPingInterval = 45 * time.Second
	wsReadDeadline = 90 * time.Second
	wsSendBuffer   = 256
)

type wsClient struct {
	conn *websocket.Conn
	out  chan WSMessage
	done chan struct{}
}

// Hub fans board events out to connected WebSocket clients. Slow clients
// drop messages rather than stall the board.
type Hub struct {
	board *board.Model
	log   *slog.Logger

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

// NewHub creates a Hub over the shared board.
func NewHub(b *board.Model, log *slog.Logger) *Hub {
	return &Hub{
		board:   b,
		log:     log,
		clients: make(map[*wsClient]struct{}),
	}
}

// Run subscribes to the board and pumps events to clients until ctx is
// cancelled.
func (h *Hub) Run(ctx context.Context) {
	id, events := h.board.Subscribe(wsSendBuffer)
	defer h.board.Unsubscribe(id)

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			h.broadcast(WSMessage{
				Type:    string(evt.Type),
				Symbol:  evt.Symbol,
				Tab:     string(evt.Tab),
				Payload: evt.Payload,
			})
		}
	}
}

// broadcast sends to every client with a non-blocking send.
func (h *Hub) broadcast(msg WSMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.out <- msg:
		default:
			// Slow client, drop message.
		}
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWS upgrades the connection, replays a board snapshot, and streams
// events until the client goes away.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	cl := &wsClient{
		conn: conn,
		out:  make(chan WSMessage, wsSendBuffer),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
	h.log.Debug("websocket client connected", "remote", r.RemoteAddr)

	// Writer goroutine with keepalive pings.
	go func() {
		ping := time.NewTicker(wsPingInterval)
		defer ping.Stop()
		for {
			select {
			case msg := <-cl.out:
				if err := conn.WriteJSON(msg); err != nil {
					return
				}
			case <-ping.C:
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-cl.done:
				return
			}
		}
	}()

	h.greet(cl)

	// Reader: consume pongs and client frames until the connection drops.
	conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	close(cl.done)
	h.mu.Lock()
	delete(h.clients, cl)
	h.mu.Unlock()
	h.log.Debug("websocket client disconnected", "remote", r.RemoteAddr)
}

// greet replays the current board state so a fresh client renders without
// waiting for the next mutation.
func (h *Hub) greet(cl *wsClient) {
	send := func(msg WSMessage) {
		select {
		case cl.out <- msg:
		default:
		}
	}

	send(WSMessage{Type: "hello", Payload: map[string]string{"status": "connected"}})

	view := h.board.View()
	send(WSMessage{Type: string(board.EventView), Payload: view})

	if view.Selected != "" {
		for _, pv := range h.board.Panels(view.Selected) {
			send(WSMessage{
				Type:    string(board.EventReport),
				Symbol:  view.Selected,
				Tab:     string(pv.Tab),
				Payload: pv,
			})
		}
	}
	send(WSMessage{Type: string(board.EventAgents), Payload: h.board.AgentStatuses()})
	if acct, ok := h.board.Account(); ok {
		send(WSMessage{Type: string(board.EventAccount), Payload: acct})
	}
	if sess, ok := h.board.Session(); ok {
		send(WSMessage{Type: string(board.EventSession), Symbol: sess.Symbol, Payload: sess})
	}
}
