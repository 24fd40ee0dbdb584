package persistence

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/violation-service/internal/config"
)

// Redis wraps the go-redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration. An unreachable
// server is logged and left to the readiness probe.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// PushCapped prepends value to the list at key and trims it to max entries.
func (r *Redis) PushCapped(ctx context.Context, key string, value []byte, max int64) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	pipe := r.Client.TxPipeline()
	pipe.LPush(ctx, key, value)
	if max > 0 {
		pipe.LTrim(ctx, key, 0, max-1)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Range returns up to limit newest entries of the list at key.
func (r *Redis) Range(ctx context.Context, key string, limit int64) ([]string, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("redis client not configured")
	}
	if limit <= 0 {
		limit = 50
	}
	return r.Client.LRange(ctx, key, 0, limit-1).Result()
}
