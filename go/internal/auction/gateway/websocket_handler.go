package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// clientMessage is what we accept from clients. The only supported action
// is the timer-sync request a client sends after (re)connecting.
type clientMessage struct {
	Action string `json:"action"`
}

// timersMessage answers a get_all_timers request.
type timersMessage struct {
	Type   string         `json:"type"`
	Timers map[string]int `json:"timers"`
}

// ServeWS upgrades an HTTP request to a websocket connection and joins it
// to the hub feed.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade websocket connection")
		return
	}

	conn := &Connection{
		ID:          uuid.New().String(),
		UserID:      userID,
		Conn:        wsConn,
		Send:        make(chan []byte, 256),
		hub:         h,
		ConnectedAt: time.Now(),
	}
	h.register(conn)

	go conn.writePump()
	go conn.readPump()
}

// readPump consumes client messages until the connection drops.
func (c *Connection) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.hub.config.MaxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("conn_id", c.ID).Msg("websocket read error")
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Debug().Err(err).Str("conn_id", c.ID).Msg("ignoring malformed client message")
			continue
		}

		switch msg.Action {
		case "get_all_timers":
			c.sendTimers()
		default:
			log.Debug().Str("action", msg.Action).Str("conn_id", c.ID).Msg("unknown client action")
		}
	}
}

func (c *Connection) sendTimers() {
	timers := make(map[string]int)
	if c.hub.timers != nil {
		for id, secs := range c.hub.timers.TimerDeadlines() {
			timers[id.String()] = secs
		}
	}

	data, err := json.Marshal(timersMessage{Type: "all_timers", Timers: timers})
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal timers message")
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

// writePump writes outgoing frames and keeps the connection alive with pings.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.hub.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug().Err(err).Str("conn_id", c.ID).Msg("websocket write error")
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// String implements fmt.Stringer for connection logging.
func (c *Connection) String() string {
	return fmt.Sprintf("conn %s (user %s, connected %s)", c.ID, c.UserID, c.ConnectedAt.Format(time.RFC3339))
}
