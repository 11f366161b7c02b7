package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionhouse/go/internal/auction/events"
)

// TimerSource answers the client timer-sync request with remaining seconds
// per live auction.
type TimerSource interface {
	TimerDeadlines() map[uuid.UUID]int
}

// Hub fans engine events out to every connected websocket client. The whole
// auction room shares one feed, mirroring the floor: everybody sees every
// bid, sale and activity line.
type Hub struct {
	mu          sync.RWMutex
	connections map[*Connection]bool

	upgrader    websocket.Upgrader
	config      ConnectionConfig
	broadcastCh chan events.Envelope
	timers      TimerSource
}

// Connection represents a WebSocket connection to a client
type Connection struct {
	ID     string
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
	hub    *Hub

	ConnectedAt time.Time
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// NewHub creates a websocket hub backed by the given timer source. A nil
// timer source is valid for relay deployments where the engine runs in
// another process; timer-sync requests then answer with an empty set.
func NewHub(config ConnectionConfig, timers TimerSource) *Hub {
	return &Hub{
		connections: make(map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan events.Envelope, 1000),
		timers:      timers,
	}
}

// Publish implements the engine's Publisher. It never blocks; if the
// broadcast buffer is full the event is dropped and logged.
func (h *Hub) Publish(e events.Envelope) {
	select {
	case h.broadcastCh <- e:
	default:
		log.Warn().
			Str("event_type", string(e.Type)).
			Str("auction_id", e.AuctionID.String()).
			Msg("broadcast buffer full, dropping event")
	}
}

// Run delivers broadcast events until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	log.Info().Msg("gateway hub started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("gateway hub shutting down")
			h.closeAll()
			return nil
		case e := <-h.broadcastCh:
			h.broadcast(e)
		}
	}
}

func (h *Hub) broadcast(e events.Envelope) {
	data, err := json.Marshal(e)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal broadcast event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.connections {
		select {
		case conn.Send <- data:
		default:
			// Slow consumer; drop the frame rather than stall the feed.
			log.Debug().Str("conn_id", conn.ID).Msg("send buffer full, dropping frame")
		}
	}
}

func (h *Hub) register(conn *Connection) {
	h.mu.Lock()
	h.connections[conn] = true
	count := len(h.connections)
	h.mu.Unlock()

	log.Info().
		Str("conn_id", conn.ID).
		Str("user_id", conn.UserID).
		Int("total", count).
		Msg("websocket client connected")
}

func (h *Hub) unregister(conn *Connection) {
	h.mu.Lock()
	if _, ok := h.connections[conn]; ok {
		delete(h.connections, conn)
		close(conn.Send)
	}
	count := len(h.connections)
	h.mu.Unlock()

	log.Info().
		Str("conn_id", conn.ID).
		Int("total", count).
		Msg("websocket client disconnected")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.connections {
		close(conn.Send)
		delete(h.connections, conn)
	}
}
