package peer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingo-app/lingo-backend/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.InitDefault()
	m.Run()
}

func newTestServer(t *testing.T) (*httptest.Server, *atomic.Int64, *atomic.Int64) {
	t.Helper()

	var allocated, released atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("GET /lingo/peerjs/id", func(w http.ResponseWriter, r *http.Request) {
		n := allocated.Add(1)
		fmt.Fprintf(w, "peer-%d", n)
	})
	mux.HandleFunc("DELETE /lingo/peerjs/", func(w http.ResponseWriter, r *http.Request) {
		released.Add(1)
		w.WriteHeader(http.StatusOK)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server, &allocated, &released
}

func newTestBroker(url string) *HTTPBroker {
	return NewHTTPBroker(&Config{
		BaseURL: url,
		Path:    "lingo",
		Timeout: 2 * time.Second,
	})
}

func TestAllocate(t *testing.T) {
	server, _, _ := newTestServer(t)
	broker := newTestBroker(server.URL)
	callID := uuid.New()

	peerID, err := broker.Allocate(context.Background(), callID)

	require.NoError(t, err)
	assert.Equal(t, "peer-1", peerID)
	assert.Equal(t, []string{"peer-1"}, broker.Allocated(callID))
}

func TestAllocate_KeyedByCall(t *testing.T) {
	server, _, _ := newTestServer(t)
	broker := newTestBroker(server.URL)
	callA := uuid.New()
	callB := uuid.New()

	peerA, err := broker.Allocate(context.Background(), callA)
	require.NoError(t, err)
	peerB, err := broker.Allocate(context.Background(), callB)
	require.NoError(t, err)

	assert.NotEqual(t, peerA, peerB)

	// Releasing one call must not touch the other call's allocation
	err = broker.Release(context.Background(), callA)
	require.NoError(t, err)

	assert.Empty(t, broker.Allocated(callA))
	assert.Equal(t, []string{peerB}, broker.Allocated(callB))
}

func TestAllocate_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	broker := newTestBroker(server.URL)

	peerID, err := broker.Allocate(context.Background(), uuid.New())

	assert.Empty(t, peerID)
	assert.ErrorIs(t, err, ErrAllocation)
}

func TestAllocate_ServerUnreachable(t *testing.T) {
	broker := newTestBroker("http://127.0.0.1:1")

	peerID, err := broker.Allocate(context.Background(), uuid.New())

	assert.Empty(t, peerID)
	assert.ErrorIs(t, err, ErrAllocation)
}

func TestRelease_Idempotent(t *testing.T) {
	server, _, _ := newTestServer(t)
	broker := newTestBroker(server.URL)
	callID := uuid.New()

	// Release with nothing allocated
	assert.NoError(t, broker.Release(context.Background(), callID))

	_, err := broker.Allocate(context.Background(), callID)
	require.NoError(t, err)

	// Double release
	assert.NoError(t, broker.Release(context.Background(), callID))
	assert.NoError(t, broker.Release(context.Background(), callID))
	assert.Empty(t, broker.Allocated(callID))
}

func TestRelease_BothParties(t *testing.T) {
	server, _, released := newTestServer(t)
	broker := newTestBroker(server.URL)
	callID := uuid.New()

	_, err := broker.Allocate(context.Background(), callID)
	require.NoError(t, err)
	_, err = broker.Allocate(context.Background(), callID)
	require.NoError(t, err)

	require.NoError(t, broker.Release(context.Background(), callID))

	assert.Equal(t, int64(2), released.Load())
	assert.Empty(t, broker.Allocated(callID))
}
