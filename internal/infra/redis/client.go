package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

var (
	defaultPoolSize     = 20
	defaultDialTimeout  = 5 * time.Second
	defaultReadTimeout  = 3 * time.Second
	defaultWriteTimeout = 3 * time.Second
	defaultPingTimeout  = 5 * time.Second
)

type config struct {
	URL          string
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PingTimeout  time.Duration
}

type Option func(*config)

func WithURL(url string) Option {
	return func(c *config) {
		c.URL = url
	}
}

func WithPoolSize(size int) Option {
	return func(c *config) {
		c.PoolSize = size
	}
}

func WithTimeouts(dial, read, write time.Duration) Option {
	return func(c *config) {
		c.DialTimeout = dial
		c.ReadTimeout = read
		c.WriteTimeout = write
	}
}

func WithPingTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.PingTimeout = timeout
	}
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		URL:          "redis://localhost:6379/0",
		PoolSize:     defaultPoolSize,
		DialTimeout:  defaultDialTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		PingTimeout:  defaultPingTimeout,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// New parses the URL, applies pool settings and checks the connection.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := newConfig(opts...)

	options, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	options.PoolSize = cfg.PoolSize
	options.DialTimeout = cfg.DialTimeout
	options.ReadTimeout = cfg.ReadTimeout
	options.WriteTimeout = cfg.WriteTimeout

	rdb := goredis.NewClient(options)

	ctx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Client{Client: rdb}, nil
}

type Client struct {
	*goredis.Client
}

func (c *Client) Close() error {
	return c.Client.Close()
}
