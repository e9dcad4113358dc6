package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/lingo-app/lingo-backend/internal/domain"
)

// SessionRepository handles refresh-token sessions in Redis
type SessionRepository struct {
	client *redis.Client
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

// Session represents a refresh-token session
type Session struct {
	SessionID    string    `json:"sessionId"`
	UserID       uuid.UUID `json:"userId"`
	RefreshToken string    `json:"refreshToken"`
	CreatedAt    time.Time `json:"createdAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// CreateSession stores a new session with the given TTL
func (r *SessionRepository) CreateSession(ctx context.Context, session *Session, ttl time.Duration) error {
	key := fmt.Sprintf("session:%s", session.SessionID)

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	// user_id -> session ids index for bulk invalidation
	userSessionKey := fmt.Sprintf("user:sessions:%s", session.UserID)
	if err := r.client.SAdd(ctx, userSessionKey, session.SessionID).Err(); err != nil {
		return fmt.Errorf("failed to add session to user index: %w", err)
	}

	return nil
}

// GetSession retrieves a session by ID
func (r *SessionRepository) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	key := fmt.Sprintf("session:%s", sessionID)

	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

// DeleteSession removes a session and its user-index entry
func (r *SessionRepository) DeleteSession(ctx context.Context, sessionID string, userID uuid.UUID) error {
	key := fmt.Sprintf("session:%s", sessionID)

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	userSessionKey := fmt.Sprintf("user:sessions:%s", userID)
	r.client.SRem(ctx, userSessionKey, sessionID)

	return nil
}

// DeleteUserSessions removes every session belonging to a user.
// Called after a password reset.
func (r *SessionRepository) DeleteUserSessions(ctx context.Context, userID uuid.UUID) error {
	userSessionKey := fmt.Sprintf("user:sessions:%s", userID)

	sessionIDs, err := r.client.SMembers(ctx, userSessionKey).Result()
	if err != nil {
		return fmt.Errorf("failed to list user sessions: %w", err)
	}

	for _, id := range sessionIDs {
		r.client.Del(ctx, fmt.Sprintf("session:%s", id))
	}
	r.client.Del(ctx, userSessionKey)

	return nil
}
