package peer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lingo-app/lingo-backend/pkg/logger"
)

// ErrAllocation indicates the peer-routing handshake failed or timed out
var ErrAllocation = errors.New("peer allocation failed")

// Broker allocates transient peer identities used by clients to establish a
// direct media path. Allocations are keyed by call id so that concurrent
// calls cannot tear down each other's media endpoints on cleanup.
type Broker interface {
	// Allocate performs a handshake with the routing server and records the
	// returned identity under callID
	Allocate(ctx context.Context, callID uuid.UUID) (string, error)
	// Release tears down every identity held for callID. Idempotent: safe to
	// call when nothing was allocated or the call was already released.
	Release(ctx context.Context, callID uuid.UUID) error
}

// Config holds routing server settings
type Config struct {
	// BaseURL of the PeerJS-style routing server, e.g. http://localhost:9000
	BaseURL string
	// Path is the server mount path, e.g. "lingo"
	Path string
	// Timeout bounds the handshake round trip
	Timeout time.Duration
}

// HTTPBroker brokers peer identities against a PeerJS-style routing server
// over HTTP
type HTTPBroker struct {
	cfg    *Config
	client *http.Client

	mu          sync.Mutex
	allocations map[uuid.UUID][]string
}

// NewHTTPBroker creates a new broker
func NewHTTPBroker(cfg *Config) *HTTPBroker {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPBroker{
		cfg:         cfg,
		client:      &http.Client{Timeout: timeout},
		allocations: make(map[uuid.UUID][]string),
	}
}

// Allocate requests a fresh peer identity from the routing server and records
// it under callID
func (b *HTTPBroker) Allocate(ctx context.Context, callID uuid.UUID) (string, error) {
	url := fmt.Sprintf("%s/%s/peerjs/id", strings.TrimRight(b.cfg.BaseURL, "/"), b.cfg.Path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAllocation, err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAllocation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: routing server returned %d", ErrAllocation, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAllocation, err)
	}

	peerID := strings.TrimSpace(string(body))
	if peerID == "" {
		return "", fmt.Errorf("%w: routing server returned empty identity", ErrAllocation)
	}

	b.mu.Lock()
	b.allocations[callID] = append(b.allocations[callID], peerID)
	b.mu.Unlock()

	return peerID, nil
}

// Release tears down every identity held for callID. Teardown on the routing
// server is best-effort; local bookkeeping is authoritative.
func (b *HTTPBroker) Release(ctx context.Context, callID uuid.UUID) error {
	b.mu.Lock()
	peerIDs := b.allocations[callID]
	delete(b.allocations, callID)
	b.mu.Unlock()

	for _, peerID := range peerIDs {
		url := fmt.Sprintf("%s/%s/peerjs/%s", strings.TrimRight(b.cfg.BaseURL, "/"), b.cfg.Path, peerID)

		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
		if err != nil {
			continue
		}

		resp, err := b.client.Do(req)
		if err != nil {
			logger.Warn("Failed to release peer identity on routing server",
				zap.String("peer_id", peerID),
				zap.Error(err))
			continue
		}
		resp.Body.Close()
	}

	return nil
}

// Allocated returns the identities currently held for callID
func (b *HTTPBroker) Allocated(callID uuid.UUID) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.allocations[callID]...)
}
