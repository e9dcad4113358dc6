package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lingo-app/lingo-backend/internal/domain"
)

// UserRepository is the persistence interface consumed by the user service
type UserRepository interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]*domain.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, name, email string) (*domain.User, error)
	SetTwoFactorEnabled(ctx context.Context, userID uuid.UUID, enabled bool) error
	GetNotificationSettings(ctx context.Context, userID uuid.UUID) (*domain.NotificationSettings, error)
	UpdateNotificationSettings(ctx context.Context, userID uuid.UUID, upd domain.NotificationSettingsUpdate) error
}

// Service handles user profile and settings business logic
type Service struct {
	userRepo UserRepository
}

// NewService creates a new user service
func NewService(userRepo UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// Get retrieves a user by id
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// List retrieves users for the contact picker
func (s *Service) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.userRepo.List(ctx, limit, offset)
}

// UpdateProfile changes a user's display name and email address.
// Switching to an email already held by another account is rejected.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, name, email string) (*domain.User, error) {
	current, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if email != current.Email {
		exists, err := s.userRepo.EmailExists(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if exists {
			return nil, fmt.Errorf("email %s: %w", email, domain.ErrAlreadyExists)
		}
	}

	return s.userRepo.UpdateProfile(ctx, userID, name, email)
}

// SetTwoFactorEnabled toggles a user's two-factor setting
func (s *Service) SetTwoFactorEnabled(ctx context.Context, userID uuid.UUID, enabled bool) error {
	return s.userRepo.SetTwoFactorEnabled(ctx, userID, enabled)
}

// GetNotificationSettings retrieves a user's notification settings
func (s *Service) GetNotificationSettings(ctx context.Context, userID uuid.UUID) (*domain.NotificationSettings, error) {
	return s.userRepo.GetNotificationSettings(ctx, userID)
}

// UpdateNotificationSettings applies the non-nil fields of upd and returns
// the resulting settings
func (s *Service) UpdateNotificationSettings(ctx context.Context, userID uuid.UUID, upd domain.NotificationSettingsUpdate) (*domain.NotificationSettings, error) {
	if err := s.userRepo.UpdateNotificationSettings(ctx, userID, upd); err != nil {
		return nil, err
	}
	return s.userRepo.GetNotificationSettings(ctx, userID)
}
