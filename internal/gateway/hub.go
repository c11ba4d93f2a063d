// Package gateway is the realtime transport: a WebSocket hub that
// groups connections by session id, feeds client commands to the
// coordinator, and fans session snapshots back out.
package gateway

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// CommandHandler consumes the client commands the hub reads off its
// connections. Implemented by the coordinator.
type CommandHandler interface {
	Join(connID, sessionID, name string)
	SelectChallenge(sessionID, challengeID string)
	StartWorkout(sessionID string)
	Disconnect(connID string)
}

// Config holds WebSocket connection tuning.
type Config struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConfig returns the default WebSocket tuning.
func DefaultConfig() Config {
	return Config{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// The original server runs CORS-open; restrict in production.
			return true
		},
	}
}

// Hub owns every live connection. A connection binds to a session only
// after it sends join-session, so the hub tracks both the full
// connection set and the per-session pools.
type Hub struct {
	mu       sync.RWMutex
	conns    map[string]*Connection
	sessions map[string]map[*Connection]bool

	upgrader websocket.Upgrader
	config   Config
	handler  CommandHandler
}

// Connection is one client socket with its buffered outbound queue.
type Connection struct {
	id        string
	sessionID string // guarded by hub.mu; empty until join-session
	sock      *websocket.Conn
	send      chan []byte
	hub       *Hub
}

func NewHub(config Config) *Hub {
	return &Hub{
		conns:    make(map[string]*Connection),
		sessions: make(map[string]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
	}
}

// SetHandler wires the command consumer. Must be called before the hub
// accepts connections; split from NewHub because the coordinator needs
// the hub as its broadcaster.
func (h *Hub) SetHandler(handler CommandHandler) {
	h.handler = handler
}

// Upgrade promotes an HTTP request to a WebSocket connection and starts
// its pumps.
func (h *Hub) Upgrade(w http.ResponseWriter, r *http.Request) error {
	sock, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	conn := &Connection{
		id:   uuid.New().String(),
		sock: sock,
		send: make(chan []byte, 256),
		hub:  h,
	}

	h.mu.Lock()
	h.conns[conn.id] = conn
	h.mu.Unlock()

	go conn.writePump()
	go conn.readPump()

	log.Info().Str("connection_id", conn.id).Msg("websocket connection established")
	return nil
}

// AddToSession binds a connection to a session's broadcast pool.
func (h *Hub) AddToSession(connID, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[connID]
	if !ok {
		return
	}
	conn.sessionID = sessionID
	if h.sessions[sessionID] == nil {
		h.sessions[sessionID] = make(map[*Connection]bool)
	}
	h.sessions[sessionID][conn] = true
}

// SendToConnection sends an event to a single connection.
func (h *Hub) SendToConnection(connID, eventType string, payload any) {
	data, err := marshalEvent(eventType, payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to marshal event")
		return
	}

	h.mu.RLock()
	conn, ok := h.conns[connID]
	var slow bool
	if ok {
		select {
		case conn.send <- data:
		default:
			slow = true
		}
	}
	h.mu.RUnlock()

	if slow {
		h.closeSlow(conn)
	}
}

// BroadcastToSession sends an event to every connection bound to the
// session. The payload is marshalled once; sends happen under the read
// lock so a connection cannot be torn down mid-fanout.
func (h *Hub) BroadcastToSession(sessionID, eventType string, payload any) {
	data, err := marshalEvent(eventType, payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to marshal event")
		return
	}

	h.mu.RLock()
	var slow []*Connection
	count := 0
	for conn := range h.sessions[sessionID] {
		select {
		case conn.send <- data:
			count++
		default:
			slow = append(slow, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range slow {
		h.closeSlow(conn)
	}

	log.Debug().
		Str("event_type", eventType).
		Str("session_id", sessionID).
		Int("connections", count).
		Msg("event broadcast")
}

// closeSlow closes the socket of a connection whose send buffer is
// full; its read pump will then drop it through the normal path.
func (h *Hub) closeSlow(conn *Connection) {
	log.Warn().Str("connection_id", conn.id).Msg("send buffer full, closing connection")
	conn.sock.Close()
}

// drop removes the connection from the hub and, if it was still
// registered, notifies the command handler exactly once.
func (h *Hub) drop(conn *Connection) {
	h.mu.Lock()
	_, registered := h.conns[conn.id]
	if registered {
		delete(h.conns, conn.id)
		if conn.sessionID != "" {
			if pool := h.sessions[conn.sessionID]; pool != nil {
				delete(pool, conn)
				if len(pool) == 0 {
					delete(h.sessions, conn.sessionID)
				}
			}
		}
		close(conn.send)
	}
	h.mu.Unlock()

	if registered {
		log.Info().Str("connection_id", conn.id).Msg("connection closed")
		h.handler.Disconnect(conn.id)
	}
}

// Stats reports active connection and session-pool counts.
func (h *Hub) Stats() (connections, sessions int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns), len(h.sessions)
}
