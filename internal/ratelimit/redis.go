package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Fixed window counters in redis, shared by every replica
type Redis struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRedis(cfg Config) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		MaxRetries:   2,
	})

	return &Redis{
		client: client,
		prefix: cfg.KeyPrefix,
		limit:  cfg.Limit,
		window: cfg.Window,
	}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if key == "" {
		key = "unknown"
	}
	key = r.prefix + key

	// INCR and EXPIRE NX go together, so a counter never lives without ttl
	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, r.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("redis error: %w", err)
	}

	if incr.Val() <= int64(r.limit) {
		return true, 0, nil
	}

	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis error: %w", err)
	}
	if ttl <= 0 {
		return false, r.window, nil
	}

	return false, ttl, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
