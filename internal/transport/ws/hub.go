package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"aisurvey/internal/logger"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Monitor message types. Session events reuse the names the session
// service broadcasts.
const (
	MsgMonitorWelcome MessageType = "monitor_welcome"
	MsgError          MessageType = "error"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans session events out to connected researcher monitors
type Hub struct {
	monitors map[*Connection]struct{}

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *Message
	done       chan struct{}
	closeOnce  sync.Once
}

// Connection represents a monitor WebSocket connection
type Connection struct {
	ResearcherID string
	Send         chan []byte
	Hub          *Hub
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		monitors:   make(map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *Message, 256),
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for conn := range h.monitors {
				delete(h.monitors, conn)
				close(conn.Send)
			}
			h.mu.Unlock()
			return

		case conn := <-h.register:
			h.mu.Lock()
			h.monitors[conn] = struct{}{}
			count := len(h.monitors)
			h.mu.Unlock()
			logger.Log.Info("monitor connected",
				zap.String("researcher", conn.ResearcherID),
				zap.Int("monitors", count))

			welcome, _ := json.Marshal(map[string]int{"monitors": count})
			h.send(conn, &Message{Type: MsgMonitorWelcome, Payload: welcome})

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.monitors[conn]; ok {
				delete(h.monitors, conn)
				close(conn.Send)
				logger.Log.Info("monitor disconnected", zap.String("researcher", conn.ResearcherID))
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			for conn := range h.monitors {
				h.send(conn, msg)
			}
			h.mu.RUnlock()
		}
	}
}

// send drops the message if the connection's buffer is full.
func (h *Hub) send(conn *Connection, msg *Message) {
	data, _ := json.Marshal(msg)
	select {
	case conn.Send <- data:
	default:
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Count returns the number of connected monitors.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.monitors)
}

// BroadcastToMonitors sends an event to every monitor (implements service.Broadcaster)
func (h *Hub) BroadcastToMonitors(msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Log.Warn("unencodable monitor payload", zap.String("type", msgType), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- &Message{Type: MessageType(msgType), Payload: data}:
	case <-h.done:
	default:
		logger.Log.Warn("monitor broadcast queue full, dropping event", zap.String("type", msgType))
	}
}

// Close disconnects every monitor and stops the hub.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}
