// Package cache holds the process wide redis handle. The handle is created
// once at startup; its pool connects on first use and reconnects by itself.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key is absent
var ErrMiss = errors.New("cache miss")

type Client struct {
	rdb *redis.Client
	err error

	closeOnce sync.Once
}

// New parses uri and builds the client. go-redis opens pool connections on
// demand, so nothing is dialled here and an unreachable server only costs the
// caller that hits it.
func New(uri string) *Client {
	opts, err := redis.ParseURL(uri)
	if err != nil {
		return &Client{err: fmt.Errorf("cache: parse uri: %w", err)}
	}
	return &Client{rdb: redis.NewClient(opts)}
}

func (c *Client) conn() (*redis.Client, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.rdb, nil
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	rdb, err := c.conn()
	if err != nil {
		return nil, err
	}
	val, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, err
	}
	return val, nil
}

func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("cache: ttl must be positive")
	}
	rdb, err := c.conn()
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, value, ttl).Err()
}

func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	rdb, err := c.conn()
	if err != nil {
		return err
	}
	return rdb.Del(ctx, keys...).Err()
}

// Ping checks the server answers
func (c *Client) Ping(ctx context.Context) error {
	rdb, err := c.conn()
	if err != nil {
		return err
	}
	return rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	if c.rdb == nil {
		return nil
	}
	var err error
	c.closeOnce.Do(func() { err = c.rdb.Close() })
	return err
}
