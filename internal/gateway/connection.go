package gateway

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// writePump drains the send queue to the socket and keeps the
// connection alive with periodic pings.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.hub.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.sock.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.sock.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			if !ok {
				c.sock.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.sock.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debug().Err(err).Str("connection_id", c.id).Msg("websocket write failed")
				return
			}

		case <-ticker.C:
			c.sock.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads client commands until the socket dies, then drops the
// connection, which triggers participant cleanup.
func (c *Connection) readPump() {
	defer func() {
		c.hub.drop(c)
		c.sock.Close()
	}()

	c.sock.SetReadLimit(c.hub.config.MaxMessageSize)
	c.sock.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
	c.sock.SetPongHandler(func(string) error {
		c.sock.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("connection_id", c.id).Msg("unexpected websocket close")
			}
			return
		}
		c.hub.dispatch(c.id, message)
		c.sock.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
	}
}

// dispatch decodes one inbound envelope and routes it to the command
// handler. Malformed messages are logged and dropped; they never tear
// down the connection.
func (h *Hub) dispatch(connID string, raw []byte) {
	var evt Event
	if err := json.Unmarshal(raw, &evt); err != nil {
		log.Warn().Err(err).Str("connection_id", connID).Msg("malformed client event")
		return
	}

	switch evt.Type {
	case EventJoinSession:
		var p JoinSessionPayload
		if err := json.Unmarshal(evt.Data, &p); err != nil {
			log.Warn().Err(err).Str("connection_id", connID).Msg("malformed join-session payload")
			return
		}
		h.handler.Join(connID, p.SessionID, p.Name)

	case EventSelectChallenge:
		var p SelectChallengePayload
		if err := json.Unmarshal(evt.Data, &p); err != nil {
			log.Warn().Err(err).Str("connection_id", connID).Msg("malformed select-challenge payload")
			return
		}
		h.handler.SelectChallenge(p.SessionID, p.ChallengeID)

	case EventStartWorkout:
		var p StartWorkoutPayload
		if err := json.Unmarshal(evt.Data, &p); err != nil {
			log.Warn().Err(err).Str("connection_id", connID).Msg("malformed start-workout payload")
			return
		}
		h.handler.StartWorkout(p.SessionID)

	default:
		log.Debug().Str("connection_id", connID).Str("event_type", evt.Type).Msg("unknown client event")
	}
}
