package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lumeoapp/lumeo/backend/internal/cache"
)

// Drafts are working state, not archives; let abandoned ones age out
const redisDraftTTL = 7 * 24 * time.Hour

// RedisStore keeps checkpoints in Redis for deployments that don't want
// composer working state in the relational store
type RedisStore struct {
	client *cache.RedisClient
}

// NewRedisStore wraps an initialized Redis client
func NewRedisStore(client *cache.RedisClient) *RedisStore {
	return &RedisStore{client: client}
}

func redisDraftKey(sessionKey string) string {
	return fmt.Sprintf("draft:%s", sessionKey)
}

// Save writes the checkpoint as JSON under the session's draft key
func (s *RedisStore) Save(ctx context.Context, cp *Checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("failed to serialize checkpoint: %w", err)
	}
	return s.client.SetEx(ctx, redisDraftKey(cp.SessionKey), data, redisDraftTTL)
}

// Load reads and decodes the checkpoint for a session key
func (s *RedisStore) Load(ctx context.Context, sessionKey string) (*Checkpoint, error) {
	data, err := s.client.Get(ctx, redisDraftKey(sessionKey))
	if cache.IsNil(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var cp Checkpoint
	if err := json.Unmarshal([]byte(data), &cp); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	return &cp, nil
}

// Delete removes the checkpoint slot
func (s *RedisStore) Delete(ctx context.Context, sessionKey string) error {
	return s.client.Del(ctx, redisDraftKey(sessionKey))
}
