package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "studybot:ratelimit:"
	scanCount      = 100
)

// RedisLimiter implements Limiter using Redis sorted sets scored in milliseconds.
type RedisLimiter struct {
	client *redis.Client
	log    *slog.Logger
	now    func() time.Time
}

var (
	_ Limiter = (*RedisLimiter)(nil)
	_ Sweeper = (*RedisLimiter)(nil)
)

// NewRedisLimiter creates a Redis-backed Limiter implementation.
func NewRedisLimiter(client *redis.Client, log *slog.Logger) *RedisLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &RedisLimiter{
		client: client,
		log:    log,
		now:    time.Now,
	}
}

// Check evaluates the rate limit for key. Rejected requests are removed again
// so they do not extend the penalty.
func (l *RedisLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	if l.client == nil {
		return nil, errors.New("redis client is not configured for rate limiting")
	}

	now := l.now()
	if limit <= 0 {
		return &Result{Allowed: false, Remaining: 0, ResetAt: now.Add(window)}, ErrLimitExceeded
	}

	redisKey := redisKeyPrefix + key
	member := uuid.NewString()

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", "("+msScore(now.Add(-window)))
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixMilli()), Member: member})
	countCmd := pipe.ZCard(ctx, redisKey)
	oldestCmd := pipe.ZRangeWithScores(ctx, redisKey, 0, 0)
	pipe.Expire(ctx, redisKey, window*2)

	if _, err := pipe.Exec(ctx); err != nil {
		l.log.Error("rate limiter pipeline failed", slog.String("key", key), slog.Any("error", err))
		return nil, err
	}

	count := countCmd.Val()
	allowed := count <= int64(limit)

	resetAt := now.Add(window)
	if oldest := oldestCmd.Val(); len(oldest) > 0 {
		resetAt = time.UnixMilli(int64(oldest[0].Score)).Add(window)
	}

	if !allowed {
		if err := l.client.ZRem(ctx, redisKey, member).Err(); err != nil {
			l.log.Warn("rate limiter failed to drop rejected request", slog.String("key", key), slog.Any("error", err))
		}
		count--
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	result := &Result{
		Allowed:   allowed,
		Remaining: remaining,
		ResetAt:   resetAt,
	}

	if !allowed {
		return result, ErrLimitExceeded
	}

	return result, nil
}

// Sweep trims entries older than maxAge and deletes keys left empty.
func (l *RedisLimiter) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := "(" + msScore(l.now().Add(-maxAge))

	var (
		cursor  uint64
		removed int
	)

	for {
		keys, next, err := l.client.Scan(ctx, cursor, redisKeyPrefix+"*", scanCount).Result()
		if err != nil {
			return removed, fmt.Errorf("scan rate limit keys: %w", err)
		}

		for _, key := range keys {
			pipe := l.client.TxPipeline()
			pipe.ZRemRangeByScore(ctx, key, "-inf", cutoff)
			cardCmd := pipe.ZCard(ctx, key)
			if _, err := pipe.Exec(ctx); err != nil {
				l.log.Warn("cleanup pipeline failed", slog.String("key", key), slog.Any("error", err))
				continue
			}

			if cardCmd.Val() > 0 {
				continue
			}

			if err := l.client.Del(ctx, key).Err(); err != nil {
				l.log.Warn("failed to delete empty rate limit key", slog.String("key", key), slog.Any("error", err))
				continue
			}
			removed++
		}

		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

func msScore(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
