package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/Jampi276/pymescore-ai/internal/models"
)

const userKeyPrefix = "pymescore:user:"

// RedisUserStore is the durable UserStore backing for deployments.
type RedisUserStore struct {
	client *redis.Client
}

// NewRedisUserStore wraps an established redis client as a UserStore.
func NewRedisUserStore(client *redis.Client) *RedisUserStore {
	return &RedisUserStore{client: client}
}

// Get returns the account for the email, or ErrUserNotFound.
func (s *RedisUserStore) Get(ctx context.Context, email string) (*models.User, error) {
	data, err := s.client.Get(ctx, userKeyPrefix+email).Result()
	if err == redis.Nil {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user %s: %w", email, err)
	}

	var user models.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", email, err)
	}
	return &user, nil
}

// Put stores the account, replacing any existing record for the same email.
func (s *RedisUserStore) Put(ctx context.Context, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user %s: %w", user.Email, err)
	}
	if err := s.client.Set(ctx, userKeyPrefix+user.Email, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write user %s: %w", user.Email, err)
	}
	return nil
}

// Delete removes the account. Deleting an absent account succeeds.
func (s *RedisUserStore) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, userKeyPrefix+email).Err(); err != nil {
		return fmt.Errorf("failed to delete user %s: %w", email, err)
	}
	return nil
}

var _ UserStore = (*RedisUserStore)(nil)
