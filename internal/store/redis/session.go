package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/bookmarker/internal/domain"
)

// SaveSlot stores ident under session id with the given ttl
func (s *Store) SaveSlot(ctx context.Context, id string, ident domain.Identity, ttl time.Duration) error {
	data, err := json.Marshal(ident)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.client.Set(ctx, SessionKey(id), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// LoadSlot returns the identity in session id, or nil on a miss
func (s *Store) LoadSlot(ctx context.Context, id string) (*domain.Identity, error) {
	data, err := s.client.Get(ctx, SessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Expired or never written
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var ident domain.Identity
	if err := json.Unmarshal(data, &ident); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &ident, nil
}

// ClearSlot removes session id
func (s *Store) ClearSlot(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, SessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
