package voices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one JSON catalog document per caller in Redis. It is
// the Store used when the service runs with shared state across replicas.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed catalog store.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "voicestudio"
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Load retrieves the caller's catalog document. A missing key yields an
// empty document, not an error.
func (s *RedisStore) Load(ctx context.Context, caller string) (*Document, error) {
	data, err := s.client.Get(ctx, s.key(caller)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &Document{}, nil
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog document: %w", err)
	}

	return &doc, nil
}

// Save replaces the caller's catalog document.
func (s *RedisStore) Save(ctx context.Context, caller string, doc *Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal catalog document: %w", err)
	}

	if err := s.client.Set(ctx, s.key(caller), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func (s *RedisStore) key(caller string) string {
	return fmt.Sprintf("%s:catalog:%s", s.prefix, caller)
}
