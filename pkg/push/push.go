package push

import (
	"context"

	"go.uber.org/zap"

	"github.com/lingo-app/lingo-backend/pkg/logger"
)

// Notification is a push notification addressed to a single device token
type Notification struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// Provider defines the interface for push notification delivery
type Provider interface {
	Send(ctx context.Context, n *Notification) error
}

// MockProvider logs notifications instead of sending them.
// Used in development and tests.
type MockProvider struct{}

// Send logs the notification
func (m *MockProvider) Send(ctx context.Context, n *Notification) error {
	logger.Info("Mock push notification sent",
		zap.String("token", n.Token),
		zap.String("title", n.Title))
	return nil
}
