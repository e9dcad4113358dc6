package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestGenerateAccessToken(t *testing.T) {
	manager := NewManager("test-secret", 15*time.Minute, 24*time.Hour)
	userID := uuid.New()

	token, err := manager.GenerateAccessToken(userID, "test@example.com", "Test User")

	assert.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestValidateToken_ValidToken(t *testing.T) {
	manager := NewManager("test-secret", 15*time.Minute, 24*time.Hour)
	userID := uuid.New()

	token, err := manager.GenerateAccessToken(userID, "test@example.com", "Test User")
	assert.NoError(t, err)

	claims, err := manager.ValidateToken(token)

	assert.NoError(t, err)
	assert.NotNil(t, claims)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "test@example.com", claims.Email)
	assert.Equal(t, "Test User", claims.Name)
}

func TestValidateToken_ExpiredToken(t *testing.T) {
	manager := NewManager("test-secret", 1*time.Nanosecond, 24*time.Hour)
	userID := uuid.New()

	token, err := manager.GenerateAccessToken(userID, "test@example.com", "Test User")
	assert.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	claims, err := manager.ValidateToken(token)

	assert.Error(t, err)
	assert.Nil(t, claims)
	assert.Contains(t, err.Error(), "expired")
}

func TestValidateToken_WrongSecret(t *testing.T) {
	manager1 := NewManager("secret-1", 15*time.Minute, 24*time.Hour)
	userID := uuid.New()
	token, err := manager1.GenerateAccessToken(userID, "test@example.com", "Test User")
	assert.NoError(t, err)

	manager2 := NewManager("secret-2", 15*time.Minute, 24*time.Hour)
	claims, err := manager2.ValidateToken(token)

	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestValidateEmailToken(t *testing.T) {
	manager := NewManager("test-secret", 15*time.Minute, 24*time.Hour)
	userID := uuid.New()

	token, err := manager.GenerateEmailToken(userID, "password-reset", 5*time.Minute)
	assert.NoError(t, err)

	claims, err := manager.ValidateEmailToken(token, "password-reset")
	assert.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
}

func TestValidateEmailToken_WrongPurpose(t *testing.T) {
	manager := NewManager("test-secret", 15*time.Minute, 24*time.Hour)
	userID := uuid.New()

	token, err := manager.GenerateEmailToken(userID, "email-verification", 2*time.Hour)
	assert.NoError(t, err)

	claims, err := manager.ValidateEmailToken(token, "password-reset")
	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestValidateEmailToken_AccessTokenRejected(t *testing.T) {
	manager := NewManager("test-secret", 15*time.Minute, 24*time.Hour)
	userID := uuid.New()

	token, err := manager.GenerateAccessToken(userID, "test@example.com", "Test User")
	assert.NoError(t, err)

	claims, err := manager.ValidateEmailToken(token, "password-reset")
	assert.Error(t, err)
	assert.Nil(t, claims)
}
