package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ClientConfig holds Redis connection configuration.
type ClientConfig struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

// ClientOption configures the Redis client.
type ClientOption func(*ClientConfig)

// WithAddr sets the server address.
func WithAddr(addr string) ClientOption {
	return func(c *ClientConfig) {
		c.Addr = addr
	}
}

// WithAuth sets password and logical database.
func WithAuth(password string, db int) ClientOption {
	return func(c *ClientConfig) {
		c.Password = password
		c.DB = db
	}
}

// WithDialTimeout sets the connect/ping timeout.
func WithDialTimeout(d time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.DialTimeout = d
	}
}

// NewClient connects to Redis and verifies the connection with a ping.
func NewClient(opts ...ClientOption) (*redis.Client, error) {
	cfg := &ClientConfig{
		Addr:        "localhost:6379",
		DialTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
