// Package redisstore adapts Redis into the flowctx.ContextStore interface,
// a shared-across-processes backing for deployments where multiple flow
// executions (or branches) need to observe each other's Global/Session
// writes immediately. Redis's single-key GET/SET/DEL are linearizable,
// matching spec.md section 5's shared-resource policy.
package redisstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/flowmesh/engine/flowctx"
)

// Store is a flowctx.ContextStore backed by a Redis client.
type Store struct {
	client *redis.Client
	// KeyPrefix namespaces every key this store touches, so one Redis
	// instance can back multiple independent engine deployments.
	KeyPrefix string
}

var _ flowctx.ContextStore = (*Store)(nil)

// New wraps an existing *redis.Client. The caller owns the client's
// lifecycle (including Close).
func New(client *redis.Client, keyPrefix string) *Store {
	return &Store{client: client, KeyPrefix: keyPrefix}
}

func (s *Store) namespaced(key string) string {
	return s.KeyPrefix + key
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.namespaced(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redisstore: get %q: %w", key, err)
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.namespaced(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redisstore: set %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.namespaced(key)).Err(); err != nil {
		return fmt.Errorf("redisstore: delete %q: %w", key, err)
	}
	return nil
}

// Keys scans for every stored key with the given prefix, used by scope
// guards to find exactly the keys a dropped scope must delete.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	pattern := s.namespaced(prefix) + "*"
	var out []string
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		out = append(out, iter.Val()[len(s.KeyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redisstore: scan %q: %w", prefix, err)
	}
	return out, nil
}
