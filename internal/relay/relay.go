// Package relay is the message boundary between the in-page script and the
// agent: a websocket hub that fans PROBLEM_UPDATE and TOGGLE_CHAT events out
// to connected widgets and routes page-side traffic (DOM snapshots, editor
// code, run triggers) inward. Delivery is fire-and-forget, at most once per
// change; slow or closed clients are dropped rather than buffered forever.
package relay

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"leetmate/agent/internal/model"
)

// Event type tags on the wire.
const (
	TypeProblemUpdate = "PROBLEM_UPDATE"
	TypeToggleChat    = "TOGGLE_CHAT"

	typeSnapshot     = "dom_snapshot"
	typeCodeUpdate   = "code_update"
	typeRunTriggered = "run_triggered"
)

// Envelope is the single wire shape for inbound page messages.
type Envelope struct {
	Type string `json:"type"`
	Path string `json:"path,omitempty"`
	HTML string `json:"html,omitempty"`
	Code string `json:"code,omitempty"`
}

// ProblemUpdateEvent is the outbound notification for a qualifying change.
type ProblemUpdateEvent struct {
	Type        string               `json:"type"`
	ProblemSlug string               `json:"problemSlug"`
	Data        *model.UnifiedUpdate `json:"data"`
}

// ToggleChatEvent asks the widget to show or hide itself; sent when the
// popup requests a toggle.
type ToggleChatEvent struct {
	Type string `json:"type"`
}

// Handlers receives the page-side traffic. The run-triggered path also
// carries the keyboard chord (ctrl-') the page script forwards verbatim.
type Handlers struct {
	OnSnapshot     func(path, html string)
	OnCode         func(code string)
	OnRunTriggered func()
}

const clientBuffer = 16

type Hub struct {
	upgrader websocket.Upgrader
	handlers Handlers

	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
	closed  bool
}

func NewHub(handlers Handlers) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The page script connects from the host site's origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		handlers: handlers,
		clients:  make(map[*websocket.Conn]chan []byte),
	}
}

// HandleWS upgrades the connection and runs the read loop until the client
// goes away.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Websocket upgrade failed", "error", err)
		return
	}

	send := make(chan []byte, clientBuffer)
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[conn] = send
	h.mu.Unlock()
	slog.Info("Page client connected", "remote", conn.RemoteAddr().String())

	go h.writePump(conn, send)
	h.readPump(conn)
}

func (h *Hub) readPump(conn *websocket.Conn) {
	defer h.drop(conn)
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var env Envelope
		if err := sonic.Unmarshal(raw, &env); err != nil {
			slog.Warn("Discarding malformed relay message", "error", err)
			continue
		}
		h.dispatch(env)
	}
}

func (h *Hub) dispatch(env Envelope) {
	switch env.Type {
	case typeSnapshot:
		if h.handlers.OnSnapshot != nil {
			h.handlers.OnSnapshot(env.Path, env.HTML)
		}
	case typeCodeUpdate:
		if h.handlers.OnCode != nil {
			h.handlers.OnCode(env.Code)
		}
	case typeRunTriggered:
		if h.handlers.OnRunTriggered != nil {
			h.handlers.OnRunTriggered()
		}
	default:
		slog.Debug("Ignoring unknown relay message type", "type", env.Type)
	}
}

func (h *Hub) writePump(conn *websocket.Conn, send <-chan []byte) {
	for raw := range send {
		if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
			h.drop(conn)
			return
		}
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	send, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
		close(send)
	}
	h.mu.Unlock()
	if ok {
		_ = conn.Close()
	}
}

// BroadcastProblemUpdate pushes a qualifying change to every connected
// widget.
func (h *Hub) BroadcastProblemUpdate(update *model.UnifiedUpdate) {
	h.broadcast(ProblemUpdateEvent{
		Type:        TypeProblemUpdate,
		ProblemSlug: update.ProblemSlug,
		Data:        update,
	})
}

// BroadcastToggleChat forwards the popup's toggle command.
func (h *Hub) BroadcastToggleChat() {
	h.broadcast(ToggleChatEvent{Type: TypeToggleChat})
}

func (h *Hub) broadcast(payload any) {
	raw, err := sonic.Marshal(payload)
	if err != nil {
		slog.Error("Failed to encode relay event", "error", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, send := range h.clients {
		select {
		case send <- raw:
		default:
			// Slow consumer; drop it rather than block the content path.
			delete(h.clients, conn)
			close(send)
			_ = conn.Close()
		}
	}
}

// Close drops every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for conn, send := range h.clients {
		delete(h.clients, conn)
		close(send)
		_ = conn.Close()
	}
}
