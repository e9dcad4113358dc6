package notification

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/lingo-app/lingo-backend/internal/domain"
	"github.com/lingo-app/lingo-backend/pkg/logger"
	"github.com/lingo-app/lingo-backend/pkg/push"
)

func TestMain(m *testing.M) {
	logger.InitDefault()
	m.Run()
}

// MockSettingsRepository is a mock implementation of SettingsRepository
type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockSettingsRepository) GetNotificationSettings(ctx context.Context, userID uuid.UUID) (*domain.NotificationSettings, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.NotificationSettings), args.Error(1)
}

// MockTokenRepository is a mock implementation of TokenRepository
type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) GetTokens(ctx context.Context, userID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockTokenRepository) RegisterToken(ctx context.Context, userID uuid.UUID, token string) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}

func (m *MockTokenRepository) RemoveToken(ctx context.Context, userID uuid.UUID, token string) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}

// capturingProvider records sent notifications
type capturingProvider struct {
	mu   sync.Mutex
	sent []*push.Notification
}

func (p *capturingProvider) Send(ctx context.Context, n *push.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, n)
	return nil
}

func TestNotifyMissedCall(t *testing.T) {
	settingsRepo := new(MockSettingsRepository)
	tokenRepo := new(MockTokenRepository)
	provider := &capturingProvider{}
	service := NewService(settingsRepo, tokenRepo, provider)

	call := &domain.Call{
		CallID:     uuid.New(),
		CallerID:   uuid.New(),
		ReceiverID: uuid.New(),
	}

	settingsRepo.On("GetNotificationSettings", mock.Anything, call.ReceiverID).
		Return(&domain.NotificationSettings{UserID: call.ReceiverID, MissedCallAlert: true}, nil)
	settingsRepo.On("GetByID", mock.Anything, call.CallerID).
		Return(&domain.User{UserID: call.CallerID, Name: "Alice"}, nil)
	tokenRepo.On("GetTokens", mock.Anything, call.ReceiverID).
		Return([]string{"token-1", "token-2"}, nil)

	service.NotifyMissedCall(context.Background(), call)

	assert.Len(t, provider.sent, 2)
	assert.Equal(t, "token-1", provider.sent[0].Token)
	assert.Contains(t, provider.sent[0].Body, "Alice")
	assert.Equal(t, call.CallID.String(), provider.sent[0].Data["callId"])
}

func TestNotifyMissedCall_AlertDisabled(t *testing.T) {
	settingsRepo := new(MockSettingsRepository)
	tokenRepo := new(MockTokenRepository)
	provider := &capturingProvider{}
	service := NewService(settingsRepo, tokenRepo, provider)

	call := &domain.Call{
		CallID:     uuid.New(),
		CallerID:   uuid.New(),
		ReceiverID: uuid.New(),
	}

	settingsRepo.On("GetNotificationSettings", mock.Anything, call.ReceiverID).
		Return(&domain.NotificationSettings{UserID: call.ReceiverID, MissedCallAlert: false}, nil)

	service.NotifyMissedCall(context.Background(), call)

	assert.Empty(t, provider.sent)
	tokenRepo.AssertNotCalled(t, "GetTokens")
}

func TestNotifyMissedCall_NoTokens(t *testing.T) {
	settingsRepo := new(MockSettingsRepository)
	tokenRepo := new(MockTokenRepository)
	provider := &capturingProvider{}
	service := NewService(settingsRepo, tokenRepo, provider)

	call := &domain.Call{
		CallID:     uuid.New(),
		CallerID:   uuid.New(),
		ReceiverID: uuid.New(),
	}

	settingsRepo.On("GetNotificationSettings", mock.Anything, call.ReceiverID).
		Return(&domain.NotificationSettings{UserID: call.ReceiverID, MissedCallAlert: true}, nil)
	settingsRepo.On("GetByID", mock.Anything, call.CallerID).
		Return(&domain.User{UserID: call.CallerID, Name: "Alice"}, nil)
	tokenRepo.On("GetTokens", mock.Anything, call.ReceiverID).Return([]string{}, nil)

	service.NotifyMissedCall(context.Background(), call)

	assert.Empty(t, provider.sent)
}
