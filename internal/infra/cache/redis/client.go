package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Options mirrors the redis section of the config.
type Options struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}

// Connect opens a client and pings it.
func Connect(ctx context.Context, opts Options) (*redis.Client, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// HealthChecker pings redis for the /health endpoint.
type HealthChecker struct {
	Client *redis.Client
}

func (h HealthChecker) Check(ctx context.Context) error {
	return h.Client.Ping(ctx).Err()
}
