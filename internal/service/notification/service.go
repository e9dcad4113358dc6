package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lingo-app/lingo-backend/internal/domain"
	"github.com/lingo-app/lingo-backend/pkg/logger"
	"github.com/lingo-app/lingo-backend/pkg/push"
)

// SettingsRepository provides user and notification-settings lookups
type SettingsRepository interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	GetNotificationSettings(ctx context.Context, userID uuid.UUID) (*domain.NotificationSettings, error)
}

// TokenRepository provides device push token lookups
type TokenRepository interface {
	GetTokens(ctx context.Context, userID uuid.UUID) ([]string, error)
	RegisterToken(ctx context.Context, userID uuid.UUID, token string) error
	RemoveToken(ctx context.Context, userID uuid.UUID, token string) error
}

// Service delivers out-of-band push notifications. Delivery is best-effort:
// failures are logged and never surfaced to the flows that trigger them.
type Service struct {
	settingsRepo SettingsRepository
	tokenRepo    TokenRepository
	provider     push.Provider
}

// NewService creates a new notification service
func NewService(settingsRepo SettingsRepository, tokenRepo TokenRepository, provider push.Provider) *Service {
	return &Service{
		settingsRepo: settingsRepo,
		tokenRepo:    tokenRepo,
		provider:     provider,
	}
}

// RegisterDevice stores a device push token for a user
func (s *Service) RegisterDevice(ctx context.Context, userID uuid.UUID, token string) error {
	return s.tokenRepo.RegisterToken(ctx, userID, token)
}

// UnregisterDevice removes a device push token for a user
func (s *Service) UnregisterDevice(ctx context.Context, userID uuid.UUID, token string) error {
	return s.tokenRepo.RemoveToken(ctx, userID, token)
}

// NotifyMissedCall alerts the receiver of a call that rang out, on every
// registered device, unless they disabled missed call alerts.
func (s *Service) NotifyMissedCall(ctx context.Context, call *domain.Call) {
	settings, err := s.settingsRepo.GetNotificationSettings(ctx, call.ReceiverID)
	if err != nil {
		logger.Warn("Failed to load notification settings",
			zap.String("user_id", call.ReceiverID.String()), zap.Error(err))
		return
	}
	if !settings.MissedCallAlert {
		return
	}

	caller, err := s.settingsRepo.GetByID(ctx, call.CallerID)
	if err != nil {
		logger.Warn("Failed to load caller for missed call alert",
			zap.String("user_id", call.CallerID.String()), zap.Error(err))
		return
	}

	s.sendToAll(ctx, call.ReceiverID, &push.Notification{
		Title: "Missed call",
		Body:  fmt.Sprintf("You missed a call from %s", caller.Name),
		Data: map[string]string{
			"type":     "missed-call",
			"callId":   call.CallID.String(),
			"callerId": call.CallerID.String(),
		},
	})
}

func (s *Service) sendToAll(ctx context.Context, userID uuid.UUID, n *push.Notification) {
	tokens, err := s.tokenRepo.GetTokens(ctx, userID)
	if err != nil {
		logger.Warn("Failed to load push tokens",
			zap.String("user_id", userID.String()), zap.Error(err))
		return
	}

	for _, token := range tokens {
		notification := *n
		notification.Token = token
		if err := s.provider.Send(ctx, &notification); err != nil {
			logger.Warn("Failed to send push notification",
				zap.String("user_id", userID.String()), zap.Error(err))
		}
	}
}
