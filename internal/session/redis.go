package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	errx "github.com/shipmentbot/server/internal/core/error"
	logx "github.com/shipmentbot/server/pkg/logger"
)

// RedisRepository keeps session histories in redis lists with a sliding TTL.
type RedisRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisRepository(rdb redis.Cmdable, ttl time.Duration) *RedisRepository {
	return &RedisRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisRepository) sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s:messages", sessionID)
}

func (r *RedisRepository) Append(ctx context.Context, sessionID, message string) error {
	key := r.sessionKey(sessionID)

	if err := r.rdb.RPush(ctx, key, message).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push message to redis")
		return errx.WrapRedis(err)
	}
	// extend TTL on touch
	if r.ttl > 0 {
		if ok, err := r.rdb.Expire(ctx, key, r.ttl).Result(); err != nil {
			logx.Error().Err(err).Str("key", key).Msg("failed to set expire")
			return errx.WrapRedis(err)
		} else if !ok {
			logx.Warn().Str("key", key).Dur("ttl", r.ttl).Msg("failed to set TTL on session key")
		}
	}
	return nil
}

func (r *RedisRepository) History(ctx context.Context, sessionID string) ([]string, error) {
	key := r.sessionKey(sessionID)

	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return []string{}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load session history from redis")
		return nil, errx.WrapRedis(err)
	}
	return rows, nil
}

func (r *RedisRepository) Clear(ctx context.Context, sessionID string) error {
	key := r.sessionKey(sessionID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete session history from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisRepository) Count(ctx context.Context, sessionID string) (int, error) {
	key := r.sessionKey(sessionID)
	n, err := r.rdb.LLen(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to get message count from redis")
		return 0, errx.WrapRedis(err)
	}
	return int(n), nil
}

var _ Repository = (*RedisRepository)(nil)
