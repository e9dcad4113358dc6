package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// pushTokenTTL expires tokens of devices that never re-register
const pushTokenTTL = 60 * 24 * time.Hour

// PushTokenRepository stores device push tokens per user
type PushTokenRepository struct {
	client *redis.Client
}

// NewPushTokenRepository creates a new push token repository
func NewPushTokenRepository(client *redis.Client) *PushTokenRepository {
	return &PushTokenRepository{client: client}
}

// RegisterToken stores a device token for a user
func (r *PushTokenRepository) RegisterToken(ctx context.Context, userID uuid.UUID, token string) error {
	key := fmt.Sprintf("push:tokens:%s", userID)

	if err := r.client.SAdd(ctx, key, token).Err(); err != nil {
		return fmt.Errorf("failed to register push token: %w", err)
	}
	r.client.Expire(ctx, key, pushTokenTTL)

	return nil
}

// RemoveToken deletes a device token for a user
func (r *PushTokenRepository) RemoveToken(ctx context.Context, userID uuid.UUID, token string) error {
	key := fmt.Sprintf("push:tokens:%s", userID)
	if err := r.client.SRem(ctx, key, token).Err(); err != nil {
		return fmt.Errorf("failed to remove push token: %w", err)
	}
	return nil
}

// GetTokens retrieves all device tokens registered for a user
func (r *PushTokenRepository) GetTokens(ctx context.Context, userID uuid.UUID) ([]string, error) {
	key := fmt.Sprintf("push:tokens:%s", userID)

	tokens, err := r.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get push tokens: %w", err)
	}

	return tokens, nil
}
