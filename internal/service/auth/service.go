package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/lingo-app/lingo-backend/internal/domain"
	redisRepo "github.com/lingo-app/lingo-backend/internal/repository/redis"
	"github.com/lingo-app/lingo-backend/pkg/email"
	"github.com/lingo-app/lingo-backend/pkg/jwt"
	"github.com/lingo-app/lingo-backend/pkg/logger"
)

// Token purposes for email-scoped tokens
const (
	purposeEmailVerification = "email-verification"
	purposePasswordReset     = "password-reset"

	emailVerificationTTL = 2 * time.Hour
	passwordResetTTL     = 5 * time.Minute
)

// ErrInvalidCredentials indicates a failed login or password check
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository is the persistence interface consumed by the auth service
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	SetEmailVerified(ctx context.Context, userID uuid.UUID) error
}

// SessionRepository handles refresh-token sessions
type SessionRepository interface {
	CreateSession(ctx context.Context, session *redisRepo.Session, ttl time.Duration) error
	GetSession(ctx context.Context, sessionID string) (*redisRepo.Session, error)
	DeleteSession(ctx context.Context, sessionID string, userID uuid.UUID) error
	DeleteUserSessions(ctx context.Context, userID uuid.UUID) error
}

// Service handles authentication business logic
type Service struct {
	userRepo    UserRepository
	sessionRepo SessionRepository
	emailSender email.Sender
	jwtManager  *jwt.Manager

	refreshTokenTTL time.Duration
	appURL          string
}

// NewService creates a new auth service
func NewService(
	userRepo UserRepository,
	sessionRepo SessionRepository,
	emailSender email.Sender,
	jwtManager *jwt.Manager,
	refreshTokenTTL time.Duration,
	appURL string,
) *Service {
	return &Service{
		userRepo:        userRepo,
		sessionRepo:     sessionRepo,
		emailSender:     emailSender,
		jwtManager:      jwtManager,
		refreshTokenTTL: refreshTokenTTL,
		appURL:          appURL,
	}
}

// RegisterInput contains user registration data
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates a new user account and sends a verification email
func (s *Service) Register(ctx context.Context, input *RegisterInput) (*domain.User, error) {
	exists, err := s.userRepo.EmailExists(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("email %s: %w", input.Email, domain.ErrAlreadyExists)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		UserID:       uuid.New(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(passwordHash),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Verification email is best-effort; the account exists either way
	if err := s.sendVerificationEmail(ctx, user); err != nil {
		logger.Warn("Failed to send verification email",
			zap.String("user_id", user.UserID.String()),
			zap.Error(err))
	}

	return user, nil
}

// LoginOutput contains the issued token pair
type LoginOutput struct {
	User         *domain.User
	SessionID    string
	AccessToken  string
	RefreshToken string
}

// Login verifies credentials and issues an access/refresh token pair
func (s *Service) Login(ctx context.Context, emailAddr, password string) (*LoginOutput, error) {
	user, err := s.userRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(user.UserID, user.Email, user.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	session := &redisRepo.Session{
		SessionID:    uuid.New().String(),
		UserID:       user.UserID,
		RefreshToken: refreshToken,
		CreatedAt:    time.Now(),
		ExpiresAt:    time.Now().Add(s.refreshTokenTTL),
	}

	if err := s.sessionRepo.CreateSession(ctx, session, s.refreshTokenTTL); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &LoginOutput{
		User:         user,
		SessionID:    session.SessionID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Refresh exchanges a valid refresh token for a new access token
func (s *Service) Refresh(ctx context.Context, sessionID, refreshToken string) (string, error) {
	session, err := s.sessionRepo.GetSession(ctx, sessionID)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if session.RefreshToken != refreshToken {
		return "", ErrInvalidCredentials
	}

	claims, err := s.jwtManager.ValidateToken(refreshToken)
	if err != nil || claims.UserID != session.UserID {
		return "", ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		return "", fmt.Errorf("failed to load user: %w", err)
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(user.UserID, user.Email, user.Name)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}

	return accessToken, nil
}

// Logout deletes the session, invalidating its refresh token
func (s *Service) Logout(ctx context.Context, sessionID string, userID uuid.UUID) error {
	return s.sessionRepo.DeleteSession(ctx, sessionID, userID)
}

// VerifyEmail marks the account of a valid verification token as verified
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	claims, err := s.jwtManager.ValidateEmailToken(token, purposeEmailVerification)
	if err != nil {
		return fmt.Errorf("invalid or expired token: %w", err)
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	if user.EmailVerified {
		return nil
	}

	return s.userRepo.SetEmailVerified(ctx, user.UserID)
}

// RequestPasswordReset sends a password reset email to the given address.
// Unknown addresses are ignored so the endpoint does not leak registrations.
func (s *Service) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	user, err := s.userRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	token, err := s.jwtManager.GenerateEmailToken(user.UserID, purposePasswordReset, passwordResetTTL)
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	return s.emailSender.SendPasswordReset(ctx, user.Email, &email.PasswordResetEmailData{
		Name:   user.Name,
		Token:  token,
		AppURL: s.appURL,
	})
}

// ResetPassword sets a new password for the account of a valid reset token
// and invalidates all of its sessions
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := s.jwtManager.ValidateEmailToken(token, purposePasswordReset)
	if err != nil {
		return fmt.Errorf("invalid or expired token: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, claims.UserID, string(passwordHash)); err != nil {
		return err
	}

	if err := s.sessionRepo.DeleteUserSessions(ctx, claims.UserID); err != nil {
		logger.Warn("Failed to invalidate sessions after password reset",
			zap.String("user_id", claims.UserID.String()),
			zap.Error(err))
	}

	return nil
}

// ChangePassword verifies the current password and replaces it
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.userRepo.UpdatePassword(ctx, userID, string(passwordHash))
}

func (s *Service) sendVerificationEmail(ctx context.Context, user *domain.User) error {
	token, err := s.jwtManager.GenerateEmailToken(user.UserID, purposeEmailVerification, emailVerificationTTL)
	if err != nil {
		return fmt.Errorf("failed to generate verification token: %w", err)
	}

	return s.emailSender.SendVerification(ctx, user.Email, &email.VerificationEmailData{
		Name:   user.Name,
		Token:  token,
		AppURL: s.appURL,
	})
}
