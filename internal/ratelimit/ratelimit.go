package ratelimit

import (
	"context"
	"time"
)

const (
	defaultWindow    = time.Minute
	defaultKeyPrefix = "mediashare:ratelimit:"
)

// Fixed window limiter: at most Limit hits per key in Window
type Limiter interface {
	// Register hit for key
	// When not allowed retryAfter tells how long until the window resets
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

type Config struct {
	// Hits allowed per window. Zero or less disables limiting
	Limit int

	// Window length. If not set than default is used
	Window time.Duration

	// Shared store; in-process counters are used when empty
	RedisAddr     string
	RedisPassword string

	// Prefix of redis keys. If not set than default is used
	KeyPrefix string
}

// Create limiter by config: unlimited, redis backed or in-memory
func New(cfg Config) Limiter {
	if cfg.Limit <= 0 {
		return Unlimited{}
	}
	if cfg.Window <= 0 {
		cfg.Window = defaultWindow
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaultKeyPrefix
	}

	if cfg.RedisAddr != "" {
		return NewRedis(cfg)
	}
	return NewMemory(cfg.Limit, cfg.Window)
}

// Limiter that allows everything
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string) (bool, time.Duration, error) {
	return true, 0, nil
}
