package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection settings for the sweep claims, idempotency
// keys and the event stream.
type Config struct {
	URL          string
	PoolSize     int
	DialTimeout  time.Duration
	ConnectTries uint64
}

// NewClient connects to Redis and pings it, retrying the ping with
// exponential backoff up to ConnectTries times.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}

	client := redis.NewClient(opts)

	ping := func() error { return client.Ping(ctx).Err() }
	var b backoff.BackOff = backoff.NewExponentialBackOff(backoff.WithInitialInterval(50 * time.Millisecond))
	if cfg.ConnectTries > 1 {
		b = backoff.WithMaxRetries(b, cfg.ConnectTries-1)
	} else {
		b = &backoff.StopBackOff{}
	}

	if err := backoff.Retry(ping, backoff.WithContext(b, ctx)); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}
