package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lingo-app/lingo-backend/internal/domain"
	redisRepo "github.com/lingo-app/lingo-backend/internal/repository/redis"
	"github.com/lingo-app/lingo-backend/pkg/email"
	"github.com/lingo-app/lingo-backend/pkg/jwt"
	"github.com/lingo-app/lingo-backend/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.InitDefault()
	m.Run()
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, userID, passwordHash)
	return args.Error(0)
}

func (m *MockUserRepository) SetEmailVerified(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockSessionRepository is a mock implementation of SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) CreateSession(ctx context.Context, session *redisRepo.Session, ttl time.Duration) error {
	args := m.Called(ctx, session, ttl)
	return args.Error(0)
}

func (m *MockSessionRepository) GetSession(ctx context.Context, sessionID string) (*redisRepo.Session, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*redisRepo.Session), args.Error(1)
}

func (m *MockSessionRepository) DeleteSession(ctx context.Context, sessionID string, userID uuid.UUID) error {
	args := m.Called(ctx, sessionID, userID)
	return args.Error(0)
}

func (m *MockSessionRepository) DeleteUserSessions(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func newTestService(userRepo *MockUserRepository, sessionRepo *MockSessionRepository) *Service {
	jwtManager := jwt.NewManager("test-secret-key-for-testing", 15*time.Minute, 24*time.Hour)
	return NewService(userRepo, sessionRepo, &email.MockSender{}, jwtManager, 24*time.Hour, "http://localhost:3000")
}

func TestRegister(t *testing.T) {
	userRepo := new(MockUserRepository)
	sessionRepo := new(MockSessionRepository)
	service := newTestService(userRepo, sessionRepo)

	userRepo.On("EmailExists", mock.Anything, "new@example.com").Return(false, nil)
	userRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	user, err := service.Register(context.Background(), &RegisterInput{
		Name:     "New User",
		Email:    "new@example.com",
		Password: "s3cretpass",
	})

	require.NoError(t, err)
	assert.Equal(t, "new@example.com", user.Email)
	assert.NotEqual(t, "s3cretpass", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cretpass")))
	userRepo.AssertExpectations(t)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	userRepo := new(MockUserRepository)
	sessionRepo := new(MockSessionRepository)
	service := newTestService(userRepo, sessionRepo)

	userRepo.On("EmailExists", mock.Anything, "taken@example.com").Return(true, nil)

	user, err := service.Register(context.Background(), &RegisterInput{
		Name:     "User",
		Email:    "taken@example.com",
		Password: "s3cretpass",
	})

	assert.Nil(t, user)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	userRepo.AssertNotCalled(t, "Create")
}

func existingUser(t *testing.T, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.User{
		UserID:       uuid.New(),
		Name:         "Existing User",
		Email:        "user@example.com",
		PasswordHash: string(hash),
	}
}

func TestLogin(t *testing.T) {
	userRepo := new(MockUserRepository)
	sessionRepo := new(MockSessionRepository)
	service := newTestService(userRepo, sessionRepo)

	user := existingUser(t, "correct-password")
	userRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
	sessionRepo.On("CreateSession", mock.Anything, mock.AnythingOfType("*redis.Session"), mock.Anything).Return(nil)

	out, err := service.Login(context.Background(), user.Email, "correct-password")

	require.NoError(t, err)
	assert.NotEmpty(t, out.AccessToken)
	assert.NotEmpty(t, out.RefreshToken)
	assert.NotEmpty(t, out.SessionID)
	assert.Equal(t, user.UserID, out.User.UserID)
	sessionRepo.AssertExpectations(t)
}

func TestLogin_WrongPassword(t *testing.T) {
	userRepo := new(MockUserRepository)
	sessionRepo := new(MockSessionRepository)
	service := newTestService(userRepo, sessionRepo)

	user := existingUser(t, "correct-password")
	userRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)

	out, err := service.Login(context.Background(), user.Email, "wrong-password")

	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	sessionRepo.AssertNotCalled(t, "CreateSession")
}

func TestLogin_UnknownEmail(t *testing.T) {
	userRepo := new(MockUserRepository)
	sessionRepo := new(MockSessionRepository)
	service := newTestService(userRepo, sessionRepo)

	userRepo.On("GetByEmail", mock.Anything, "ghost@example.com").
		Return(nil, fmt.Errorf("user: %w", domain.ErrNotFound))

	out, err := service.Login(context.Background(), "ghost@example.com", "whatever")

	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefresh(t *testing.T) {
	userRepo := new(MockUserRepository)
	sessionRepo := new(MockSessionRepository)
	service := newTestService(userRepo, sessionRepo)

	user := existingUser(t, "pw")
	refreshToken, err := service.jwtManager.GenerateRefreshToken(user.UserID)
	require.NoError(t, err)

	session := &redisRepo.Session{
		SessionID:    uuid.New().String(),
		UserID:       user.UserID,
		RefreshToken: refreshToken,
	}

	sessionRepo.On("GetSession", mock.Anything, session.SessionID).Return(session, nil)
	userRepo.On("GetByID", mock.Anything, user.UserID).Return(user, nil)

	accessToken, err := service.Refresh(context.Background(), session.SessionID, refreshToken)

	require.NoError(t, err)
	assert.NotEmpty(t, accessToken)
}

func TestRefresh_TokenMismatch(t *testing.T) {
	userRepo := new(MockUserRepository)
	sessionRepo := new(MockSessionRepository)
	service := newTestService(userRepo, sessionRepo)

	session := &redisRepo.Session{
		SessionID:    uuid.New().String(),
		UserID:       uuid.New(),
		RefreshToken: "stored-token",
	}
	sessionRepo.On("GetSession", mock.Anything, session.SessionID).Return(session, nil)

	accessToken, err := service.Refresh(context.Background(), session.SessionID, "other-token")

	assert.Empty(t, accessToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyEmail(t *testing.T) {
	userRepo := new(MockUserRepository)
	sessionRepo := new(MockSessionRepository)
	service := newTestService(userRepo, sessionRepo)

	user := existingUser(t, "pw")
	token, err := service.jwtManager.GenerateEmailToken(user.UserID, "email-verification", time.Hour)
	require.NoError(t, err)

	userRepo.On("GetByID", mock.Anything, user.UserID).Return(user, nil)
	userRepo.On("SetEmailVerified", mock.Anything, user.UserID).Return(nil)

	err = service.VerifyEmail(context.Background(), token)

	assert.NoError(t, err)
	userRepo.AssertExpectations(t)
}

func TestVerifyEmail_AlreadyVerified(t *testing.T) {
	userRepo := new(MockUserRepository)
	sessionRepo := new(MockSessionRepository)
	service := newTestService(userRepo, sessionRepo)

	user := existingUser(t, "pw")
	user.EmailVerified = true
	token, err := service.jwtManager.GenerateEmailToken(user.UserID, "email-verification", time.Hour)
	require.NoError(t, err)

	userRepo.On("GetByID", mock.Anything, user.UserID).Return(user, nil)

	err = service.VerifyEmail(context.Background(), token)

	assert.NoError(t, err)
	userRepo.AssertNotCalled(t, "SetEmailVerified")
}

func TestResetPassword(t *testing.T) {
	userRepo := new(MockUserRepository)
	sessionRepo := new(MockSessionRepository)
	service := newTestService(userRepo, sessionRepo)

	userID := uuid.New()
	token, err := service.jwtManager.GenerateEmailToken(userID, "password-reset", time.Minute)
	require.NoError(t, err)

	userRepo.On("UpdatePassword", mock.Anything, userID, mock.AnythingOfType("string")).Return(nil)
	sessionRepo.On("DeleteUserSessions", mock.Anything, userID).Return(nil)

	err = service.ResetPassword(context.Background(), token, "new-password")

	assert.NoError(t, err)
	userRepo.AssertExpectations(t)
	sessionRepo.AssertExpectations(t)
}

func TestResetPassword_WrongPurposeToken(t *testing.T) {
	userRepo := new(MockUserRepository)
	sessionRepo := new(MockSessionRepository)
	service := newTestService(userRepo, sessionRepo)

	// An email verification token must not reset passwords
	token, err := service.jwtManager.GenerateEmailToken(uuid.New(), "email-verification", time.Hour)
	require.NoError(t, err)

	err = service.ResetPassword(context.Background(), token, "new-password")

	assert.Error(t, err)
	userRepo.AssertNotCalled(t, "UpdatePassword")
}

func TestChangePassword(t *testing.T) {
	userRepo := new(MockUserRepository)
	sessionRepo := new(MockSessionRepository)
	service := newTestService(userRepo, sessionRepo)

	user := existingUser(t, "old-password")
	userRepo.On("GetByID", mock.Anything, user.UserID).Return(user, nil)
	userRepo.On("UpdatePassword", mock.Anything, user.UserID, mock.AnythingOfType("string")).Return(nil)

	err := service.ChangePassword(context.Background(), user.UserID, "old-password", "new-password")

	assert.NoError(t, err)
	userRepo.AssertExpectations(t)
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	userRepo := new(MockUserRepository)
	sessionRepo := new(MockSessionRepository)
	service := newTestService(userRepo, sessionRepo)

	user := existingUser(t, "old-password")
	userRepo.On("GetByID", mock.Anything, user.UserID).Return(user, nil)

	err := service.ChangePassword(context.Background(), user.UserID, "not-the-password", "new-password")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	userRepo.AssertNotCalled(t, "UpdatePassword")
}
