package repository

import (
	"context"
	"fmt"
	"time"

	"hotel-booking/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// IdempotencyRepository claims one-shot keys, e.g. a gateway transaction that must be applied once.
type IdempotencyRepository interface {
	// Acquire returns true when the key was not claimed yet.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// NewRedisClient builds a client from config, or returns nil when no address is configured.
func NewRedisClient(cfg utils.RedisConfig) *redis.Client {
	if cfg.Address == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

type redisIdempotencyRepository struct {
	client *redis.Client
	prefix string
	log    *zap.Logger
}

// NewIdempotencyRepository falls back to a no-op store when client is nil, so every key is acquirable.
func NewIdempotencyRepository(client *redis.Client, log *zap.Logger) IdempotencyRepository {
	if client == nil {
		return noopIdempotencyRepository{}
	}
	return &redisIdempotencyRepository{
		client: client,
		prefix: "idem:",
		log:    log.With(zap.String("repository", "idempotency")),
	}
}

func (r *redisIdempotencyRepository) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.prefix+key, time.Now().Unix(), ttl).Result()
	if err != nil {
		r.log.Error("Failed to acquire idempotency key", zap.Error(err), zap.String("key", key))
		return false, fmt.Errorf("acquire idempotency key %s: %w", key, err)
	}
	return ok, nil
}

func (r *redisIdempotencyRepository) Release(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("release idempotency key %s: %w", key, err)
	}
	return nil
}

type noopIdempotencyRepository struct{}

func (noopIdempotencyRepository) Acquire(context.Context, string, time.Duration) (bool, error) {
	return true, nil
}

func (noopIdempotencyRepository) Release(context.Context, string) error { return nil }
