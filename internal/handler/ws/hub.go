package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lingo-app/lingo-backend/pkg/logger"
	"github.com/lingo-app/lingo-backend/pkg/metrics"
)

// Envelope is the wire format for every realtime message, both directions
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// PresenceTracker records which users currently hold open connections
type PresenceTracker interface {
	SetUserOnline(ctx context.Context, userID uuid.UUID) error
	RefreshUserOnline(ctx context.Context, userID uuid.UUID) error
	SetUserOffline(ctx context.Context, userID uuid.UUID) error
}

// Hub tracks open realtime connections grouped by user. A user may hold
// several connections at once (multiple tabs or devices); EmitToUser fans
// an event out to all of them.
type Hub struct {
	mu     sync.RWMutex
	groups map[uuid.UUID]map[*Client]bool

	presence PresenceTracker // optional
	metrics  *metrics.Metrics
}

// NewHub creates a new connection hub. presence and m may be nil.
func NewHub(presence PresenceTracker, m *metrics.Metrics) *Hub {
	return &Hub{
		groups:   make(map[uuid.UUID]map[*Client]bool),
		presence: presence,
		metrics:  m,
	}
}

// register adds a joined client to its user's group
func (h *Hub) register(client *Client) {
	h.mu.Lock()
	if h.groups[client.userID] == nil {
		h.groups[client.userID] = make(map[*Client]bool)
	}
	h.groups[client.userID][client] = true
	first := len(h.groups[client.userID]) == 1
	h.mu.Unlock()

	h.metrics.IncWSConnections()

	if first && h.presence != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.presence.SetUserOnline(ctx, client.userID); err != nil {
			logger.Warn("Failed to mark user online",
				zap.String("user_id", client.userID.String()), zap.Error(err))
		}
	}
}

// unregister drops a client from its user's group. Dropping a connection
// never touches call state; a party who reconnects mid-call continues where
// they left off.
func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	clients, ok := h.groups[client.userID]
	if !ok || !clients[client] {
		h.mu.Unlock()
		return
	}
	delete(clients, client)
	close(client.send)
	last := len(clients) == 0
	if last {
		delete(h.groups, client.userID)
	}
	h.mu.Unlock()

	h.metrics.DecWSConnections()

	if last && h.presence != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.presence.SetUserOffline(ctx, client.userID); err != nil {
			logger.Warn("Failed to mark user offline",
				zap.String("user_id", client.userID.String()), zap.Error(err))
		}
	}
}

// refreshPresence extends the user's online TTL, called on pong
func (h *Hub) refreshPresence(userID uuid.UUID) {
	if h.presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.presence.RefreshUserOnline(ctx, userID); err != nil {
		logger.Debug("Failed to refresh presence",
			zap.String("user_id", userID.String()), zap.Error(err))
	}
}

// EmitToUser delivers an event to every open connection of a user. Users
// with no open connection receive nothing; delivery is not queued.
func (h *Hub) EmitToUser(userID uuid.UUID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal event payload",
			zap.String("event", event), zap.Error(err))
		return
	}

	message, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		logger.Error("Failed to marshal event envelope",
			zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.groups[userID] {
		select {
		case client.send <- message:
		default:
			// Slow consumer, drop the event rather than block the emitter
			logger.Warn("Dropping event for slow connection",
				zap.String("user_id", userID.String()),
				zap.String("event", event))
		}
	}
}

// ConnectionCount reports the number of open connections for a user
func (h *Hub) ConnectionCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[userID])
}
