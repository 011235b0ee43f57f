package state

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	stateKeyPrefix = "studybot:state:"
	stateScanBatch = 100
)

// RedisStorage keeps one JSON document per user under studybot:state:<id>.
// Redis enforces the TTL, so an expired dialogue simply reads as missing.
type RedisStorage struct {
	rdb redis.Cmdable
	ttl time.Duration
	log *slog.Logger
}

var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage returns a Storage on top of any go-redis client.
func NewRedisStorage(rdb redis.Cmdable, ttl time.Duration, log *slog.Logger) *RedisStorage {
	if log == nil {
		log = slog.Default()
	}
	return &RedisStorage{rdb: rdb, ttl: ttl, log: log}
}

func stateKey(userID int64) string {
	return stateKeyPrefix + strconv.FormatInt(userID, 10)
}

func decodeState(raw []byte) (*UserState, error) {
	us := new(UserState)
	if err := json.Unmarshal(raw, us); err != nil {
		return nil, err
	}
	return us, nil
}

func (s *RedisStorage) GetState(ctx context.Context, userID int64) (*UserState, error) {
	raw, err := s.rdb.Get(ctx, stateKey(userID)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, ErrStateNotFound
	case err != nil:
		s.log.Error("redis state read failed", slog.Int64("user_id", userID), slog.Any("error", err))
		return nil, err
	}

	us, err := decodeState(raw)
	if err != nil {
		s.log.Error("stored state is not valid JSON", slog.Int64("user_id", userID), slog.Any("error", err))
		return nil, err
	}
	return us, nil
}

// SetState stamps the owner and the write time, then stores the state with the TTL.
func (s *RedisStorage) SetState(ctx context.Context, userID int64, us *UserState) error {
	us.UserID = userID
	us.UpdatedAt = time.Now().UTC()

	raw, err := json.Marshal(us)
	if err == nil {
		err = s.rdb.Set(ctx, stateKey(userID), raw, s.ttl).Err()
	}
	if err != nil {
		s.log.Error("redis state write failed", slog.Int64("user_id", userID), slog.Any("error", err))
	}
	return err
}

func (s *RedisStorage) ClearState(ctx context.Context, userID int64) error {
	err := s.rdb.Del(ctx, stateKey(userID)).Err()
	if err != nil {
		s.log.Error("redis state delete failed", slog.Int64("user_id", userID), slog.Any("error", err))
	}
	return err
}

// GetAllStates walks the keyspace with SCAN and loads each batch with one MGET.
// Keys that expire mid-walk and documents that fail to decode are skipped.
func (s *RedisStorage) GetAllStates(ctx context.Context) ([]*UserState, error) {
	var out []*UserState

	iter := s.rdb.Scan(ctx, 0, stateKeyPrefix+"*", stateScanBatch).Iterator()
	batch := make([]string, 0, stateScanBatch)

	load := func() error {
		if len(batch) == 0 {
			return nil
		}
		values, err := s.rdb.MGet(ctx, batch...).Result()
		if err != nil {
			return err
		}
		for i, v := range values {
			raw, ok := v.(string)
			if !ok {
				continue
			}
			us, err := decodeState([]byte(raw))
			if err != nil {
				s.log.Warn("skipping undecodable state", slog.String("key", batch[i]), slog.Any("error", err))
				continue
			}
			out = append(out, us)
		}
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == stateScanBatch {
			if err := load(); err != nil {
				s.log.Error("redis state batch read failed", slog.Any("error", err))
				return nil, err
			}
		}
	}
	err := iter.Err()
	if err == nil {
		err = load()
	}
	if err != nil {
		s.log.Error("redis state scan failed", slog.Any("error", err))
		return nil, err
	}

	return out, nil
}
