// Package redis holds the Redis-backed helpers of the API. Redis is optional:
// when it is unreachable at startup the API runs without login throttling.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config selects the Redis server and bounds every command.
type Config struct {
	Addr    string
	DB      int
	Timeout time.Duration // 0 means 5s
}

func (c Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return 5 * time.Second
}

// Connect opens a client and fails unless the server answers PING.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		DB:           cfg.DB,
		DialTimeout:  cfg.timeout(),
		ReadTimeout:  cfg.timeout(),
		WriteTimeout: cfg.timeout(),
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.timeout())
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}
