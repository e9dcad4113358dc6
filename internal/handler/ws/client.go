package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lingo-app/lingo-backend/internal/domain"
	"github.com/lingo-app/lingo-backend/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 4096

	dispatchTimeout = 15 * time.Second
)

// Inbound event names
const (
	EventJoin       = "join"
	EventCallUser   = "call-user"
	EventAcceptCall = "accept-call"
	EventRejectCall = "reject-call"
	EventEndCall    = "end-call"
)

// JoinPayload announces which user this connection belongs to. The claimed
// id must match the authenticated user or the join is dropped.
type JoinPayload struct {
	UserID uuid.UUID `json:"userId"`
}

// CallUserPayload asks to ring another user
type CallUserPayload struct {
	ReceiverID uuid.UUID `json:"receiverId"`
}

// CallActionPayload carries accept, reject and end events
type CallActionPayload struct {
	CallID uuid.UUID `json:"callId"`
}

// Coordinator is the call signaling interface consumed by the realtime layer
type Coordinator interface {
	CallUser(ctx context.Context, callerID, receiverID uuid.UUID) (*domain.Call, error)
	AcceptCall(ctx context.Context, callID, receiverID uuid.UUID) error
	RejectCall(ctx context.Context, callID, receiverID uuid.UUID) error
	EndCall(ctx context.Context, callID, userID uuid.UUID) error
}

// Client is a single realtime connection owned by an authenticated user
type Client struct {
	hub         *Hub
	coordinator Coordinator
	conn        *websocket.Conn
	send        chan []byte
	userID      uuid.UUID

	// joined flips once a valid join event was processed; only then does
	// the connection receive emitted events
	joined bool
}

// readPump reads envelopes from the connection and dispatches them.
// A closed or failed connection unregisters the client but never mutates
// call state; ringing and ongoing calls survive reconnects.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.hub.refreshPresence(c.userID)
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Debug("Realtime connection closed",
					zap.String("user_id", c.userID.String()),
					zap.Error(err))
			}
			break
		}

		var envelope Envelope
		if err := json.Unmarshal(message, &envelope); err != nil {
			logger.Warn("Invalid realtime message",
				zap.String("user_id", c.userID.String()),
				zap.Error(err))
			continue
		}

		c.dispatch(&envelope)
	}
}

// dispatch routes a single inbound envelope. Malformed payloads and events
// the sender is not entitled to are dropped without a reply.
func (c *Client) dispatch(envelope *Envelope) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	if envelope.Event == EventJoin {
		c.handleJoin(envelope.Data)
		return
	}

	if !c.joined {
		logger.Debug("Dropping event before join",
			zap.String("user_id", c.userID.String()),
			zap.String("event", envelope.Event))
		return
	}

	switch envelope.Event {
	case EventCallUser:
		var payload CallUserPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil || payload.ReceiverID == uuid.Nil {
			c.logMalformed(envelope.Event, err)
			return
		}
		if _, err := c.coordinator.CallUser(ctx, c.userID, payload.ReceiverID); err != nil {
			logger.Error("Failed to initiate call",
				zap.String("caller_id", c.userID.String()), zap.Error(err))
		}

	case EventAcceptCall:
		var payload CallActionPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil || payload.CallID == uuid.Nil {
			c.logMalformed(envelope.Event, err)
			return
		}
		if err := c.coordinator.AcceptCall(ctx, payload.CallID, c.userID); err != nil {
			logger.Error("Failed to accept call",
				zap.String("call_id", payload.CallID.String()), zap.Error(err))
		}

	case EventRejectCall:
		var payload CallActionPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil || payload.CallID == uuid.Nil {
			c.logMalformed(envelope.Event, err)
			return
		}
		if err := c.coordinator.RejectCall(ctx, payload.CallID, c.userID); err != nil {
			logger.Error("Failed to reject call",
				zap.String("call_id", payload.CallID.String()), zap.Error(err))
		}

	case EventEndCall:
		var payload CallActionPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil || payload.CallID == uuid.Nil {
			c.logMalformed(envelope.Event, err)
			return
		}
		if err := c.coordinator.EndCall(ctx, payload.CallID, c.userID); err != nil {
			logger.Error("Failed to end call",
				zap.String("call_id", payload.CallID.String()), zap.Error(err))
		}

	default:
		logger.Debug("Dropping unknown event",
			zap.String("user_id", c.userID.String()),
			zap.String("event", envelope.Event))
	}
}

// handleJoin registers the connection in its user's group. A claimed user
// id that does not match the authenticated identity is dropped silently.
func (c *Client) handleJoin(data json.RawMessage) {
	var payload JoinPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		c.logMalformed(EventJoin, err)
		return
	}

	if payload.UserID != c.userID {
		logger.Debug("Dropping join with mismatched user id",
			zap.String("user_id", c.userID.String()),
			zap.String("claimed_id", payload.UserID.String()))
		return
	}

	if c.joined {
		return
	}
	c.joined = true
	c.hub.register(c)
}

func (c *Client) logMalformed(event string, err error) {
	logger.Warn("Dropping malformed event",
		zap.String("user_id", c.userID.String()),
		zap.String("event", event),
		zap.Error(err))
}

// writePump writes queued messages and keepalive pings to the connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
