package ws

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lingo-app/lingo-backend/pkg/env"
	"github.com/lingo-app/lingo-backend/pkg/logger"
)

var (
	allowedOriginsOnce sync.Once
	allowedOrigins     map[string]bool
)

// getAllowedOrigins loads the WS origin allowlist from WS_ALLOWED_ORIGINS
func getAllowedOrigins() map[string]bool {
	allowedOriginsOnce.Do(func() {
		allowedOrigins = make(map[string]bool)
		raw := env.GetString("WS_ALLOWED_ORIGINS", "http://localhost:3000")
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				allowedOrigins[origin] = true
			}
		}
	})
	return allowedOrigins
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return false
		}
		return getAllowedOrigins()[origin]
	},
}

// Handler upgrades authenticated HTTP requests to realtime connections
type Handler struct {
	hub         *Hub
	coordinator Coordinator

	// semaphore limits concurrent connections
	semaphore chan struct{}
}

// NewHandler creates a new realtime handler
func NewHandler(hub *Hub, coordinator Coordinator) *Handler {
	maxConns := env.GetInt("WS_MAX_CONNECTIONS", 10000)
	return &Handler{
		hub:         hub,
		coordinator: coordinator,
		semaphore:   make(chan struct{}, maxConns),
	}
}

// ServeWS handles a realtime connection request. Auth middleware must have
// set user_id on the context before this runs.
func (h *Handler) ServeWS(c *gin.Context) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	userID, ok := userIDVal.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid user id"})
		return
	}

	select {
	case h.semaphore <- struct{}{}:
	default:
		logger.Warn("Realtime connection rejected, server at capacity",
			zap.String("user_id", userID.String()))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "server at capacity, please try again later"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		<-h.semaphore
		logger.Warn("WebSocket upgrade failed",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return
	}

	client := &Client{
		hub:         h.hub,
		coordinator: h.coordinator,
		conn:        conn,
		send:        make(chan []byte, 256),
		userID:      userID,
	}

	go client.writePump()
	go func() {
		client.readPump()
		<-h.semaphore
	}()
}
