// Package session tracks per-browser session history keyed by session id.
package session

import (
	"context"
	"fmt"
	"time"

	"boardhub/internal/store"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each session list as a Redis list under session:<id>:<list>.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis-backed session store
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client), nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "session:",
	}
}

func (s *RedisStore) key(sessionID, list string) string {
	return s.prefix + sessionID + ":" + list
}

// AppendSessionEntry pushes value and trims the list to its newest limit
// entries in one MULTI/EXEC, then refreshes the TTL of both session lists.
func (s *RedisStore) AppendSessionEntry(ctx context.Context, sessionID, list, value string, limit int, ttl time.Duration) error {
	key := s.key(sessionID, list)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, value)
		if limit > 0 {
			pipe.LTrim(ctx, key, int64(-limit), -1)
		}
		if ttl > 0 {
			pipe.Expire(ctx, s.key(sessionID, store.ListURLHistory), ttl)
			pipe.Expire(ctx, s.key(sessionID, store.ListBoardPath), ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append %s: %w", list, err)
	}
	return nil
}

// LoadSessionState reads both lists. An unknown session yields empty lists.
func (s *RedisStore) LoadSessionState(ctx context.Context, sessionID string) (store.SessionState, error) {
	urls, err := s.client.LRange(ctx, s.key(sessionID, store.ListURLHistory), 0, -1).Result()
	if err != nil {
		return store.SessionState{}, fmt.Errorf("load url history: %w", err)
	}
	boards, err := s.client.LRange(ctx, s.key(sessionID, store.ListBoardPath), 0, -1).Result()
	if err != nil {
		return store.SessionState{}, fmt.Errorf("load board path: %w", err)
	}
	return store.SessionState{
		ID:         sessionID,
		URLHistory: nonNil(urls),
		BoardPath:  nonNil(boards),
	}, nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
