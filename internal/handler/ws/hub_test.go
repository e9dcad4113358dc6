package ws

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingo-app/lingo-backend/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.InitDefault()
	m.Run()
}

// fakePresence records online/offline transitions
type fakePresence struct {
	mu      sync.Mutex
	online  map[uuid.UUID]bool
	changes []string
}

func newFakePresence() *fakePresence {
	return &fakePresence{online: make(map[uuid.UUID]bool)}
}

func (p *fakePresence) SetUserOnline(ctx context.Context, userID uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online[userID] = true
	p.changes = append(p.changes, "online")
	return nil
}

func (p *fakePresence) RefreshUserOnline(ctx context.Context, userID uuid.UUID) error {
	return nil
}

func (p *fakePresence) SetUserOffline(ctx context.Context, userID uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online[userID] = false
	p.changes = append(p.changes, "offline")
	return nil
}

func (p *fakePresence) isOnline(userID uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online[userID]
}

func newTestClient(hub *Hub, userID uuid.UUID) *Client {
	return &Client{
		hub:    hub,
		send:   make(chan []byte, 16),
		userID: userID,
	}
}

func receiveEnvelope(t *testing.T, client *Client) *Envelope {
	t.Helper()
	select {
	case message := <-client.send:
		envelope := &Envelope{}
		require.NoError(t, json.Unmarshal(message, envelope))
		return envelope
	default:
		t.Fatal("expected a queued message")
		return nil
	}
}

func TestEmitToUser_FansOutToAllConnections(t *testing.T) {
	hub := NewHub(nil, nil)
	userID := uuid.New()

	first := newTestClient(hub, userID)
	second := newTestClient(hub, userID)
	hub.register(first)
	hub.register(second)

	hub.EmitToUser(userID, "call-missed", map[string]string{"callId": "abc"})

	for _, client := range []*Client{first, second} {
		envelope := receiveEnvelope(t, client)
		assert.Equal(t, "call-missed", envelope.Event)

		var data map[string]string
		require.NoError(t, json.Unmarshal(envelope.Data, &data))
		assert.Equal(t, "abc", data["callId"])
	}
}

func TestEmitToUser_OtherUsersReceiveNothing(t *testing.T) {
	hub := NewHub(nil, nil)
	target := newTestClient(hub, uuid.New())
	bystander := newTestClient(hub, uuid.New())
	hub.register(target)
	hub.register(bystander)

	hub.EmitToUser(target.userID, "incoming-call", nil)

	assert.Len(t, target.send, 1)
	assert.Empty(t, bystander.send)
}

func TestEmitToUser_NoConnectionsIsNoop(t *testing.T) {
	hub := NewHub(nil, nil)

	// Must not panic or block
	hub.EmitToUser(uuid.New(), "call-ended", map[string]string{})
}

func TestUnregister_RemovesOnlyThatConnection(t *testing.T) {
	hub := NewHub(nil, nil)
	userID := uuid.New()

	first := newTestClient(hub, userID)
	second := newTestClient(hub, userID)
	hub.register(first)
	hub.register(second)

	hub.unregister(first)

	assert.Equal(t, 1, hub.ConnectionCount(userID))
	hub.EmitToUser(userID, "call-ended", nil)
	assert.Len(t, second.send, 1)
}

func TestUnregister_Idempotent(t *testing.T) {
	hub := NewHub(nil, nil)
	client := newTestClient(hub, uuid.New())
	hub.register(client)

	hub.unregister(client)
	hub.unregister(client)

	assert.Equal(t, 0, hub.ConnectionCount(client.userID))
}

func TestPresence_TracksFirstAndLastConnection(t *testing.T) {
	presence := newFakePresence()
	hub := NewHub(presence, nil)
	userID := uuid.New()

	first := newTestClient(hub, userID)
	second := newTestClient(hub, userID)

	hub.register(first)
	assert.True(t, presence.isOnline(userID))

	hub.register(second)
	hub.unregister(first)
	// Still one connection open
	assert.True(t, presence.isOnline(userID))

	hub.unregister(second)
	assert.False(t, presence.isOnline(userID))

	// Exactly one online and one offline transition
	assert.Equal(t, []string{"online", "offline"}, presence.changes)
}

func TestHandleJoin_MismatchedIdentityIgnored(t *testing.T) {
	hub := NewHub(nil, nil)
	client := newTestClient(hub, uuid.New())

	payload, err := json.Marshal(JoinPayload{UserID: uuid.New()})
	require.NoError(t, err)

	client.handleJoin(payload)

	assert.False(t, client.joined)
	assert.Equal(t, 0, hub.ConnectionCount(client.userID))
}

func TestHandleJoin_MatchingIdentityRegisters(t *testing.T) {
	hub := NewHub(nil, nil)
	client := newTestClient(hub, uuid.New())

	payload, err := json.Marshal(JoinPayload{UserID: client.userID})
	require.NoError(t, err)

	client.handleJoin(payload)

	assert.True(t, client.joined)
	assert.Equal(t, 1, hub.ConnectionCount(client.userID))
}
