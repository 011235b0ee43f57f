// Package idempotency remembers which Telegram updates were already handled,
// so a redelivered update does not record the same hours twice.
package idempotency

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long a handled update id is remembered.
const DefaultTTL = 24 * time.Hour

// Store claims update keys. Claim reports true only for the first caller of a key
// within ttl.
type Store interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// UpdateKey builds the claim key for a Telegram update id.
func UpdateKey(updateID int) string {
	return fmt.Sprintf("update:%d", updateID)
}

// RedisStore claims keys with SETNX so that all bot replicas share them.
type RedisStore struct {
	client *redis.Client
	log    *slog.Logger
}

// NewRedisStore constructs a Redis-backed Store.
func NewRedisStore(client *redis.Client, log *slog.Logger) *RedisStore {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStore{client: client, log: log}
}

func (s *RedisStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	claimed, err := s.client.SetNX(ctx, redisKey(key), 1, ttl).Result()
	if err != nil {
		s.log.Error("failed to claim idempotency key", slog.String("key", key), slog.Any("error", err))
		return false, err
	}

	return claimed, nil
}

func redisKey(key string) string {
	return "studybot:idempotency:" + key
}

// MemoryStore keeps claimed keys in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	claimed map[string]time.Time
	now     func() time.Time
}

// NewMemoryStore constructs an in-memory Store. A nil clock defaults to time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}

	return &MemoryStore{claimed: make(map[string]time.Time), now: now}
}

func (s *MemoryStore) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if expires, ok := s.claimed[key]; ok && now.Before(expires) {
		return false, nil
	}

	s.claimed[key] = now.Add(ttl)
	return true, nil
}

// Sweep forgets expired keys. maxAge is unused; keys carry their own expiry.
func (s *MemoryStore) Sweep(_ context.Context, _ time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, expires := range s.claimed {
		if !now.Before(expires) {
			delete(s.claimed, key)
			removed++
		}
	}

	return removed, nil
}
