package redis

import (
	"context"
	"time"

	libredis "github.com/go-redis/redis/v8"

	"storyd/internal/config"
)

// Client implements core.Counter on top of Redis.
type Client struct {
	Config *config.Config

	rdb *libredis.Client
}

func (c *Client) Init(ctx context.Context) error {
	opts, err := libredis.ParseURL(c.Config.RedisURL)
	if err != nil {
		return err
	}
	c.rdb = libredis.NewClient(opts)

	return c.rdb.Ping(ctx).Err()
}

// Incr atomically increments key and keeps its TTL at ttl. INCR is the
// admission check's only read-modify-write, so two concurrent callers can
// never both observe the same count.
func (c *Client) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := c.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (c *Client) HealthCheck(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Shutdown(context.Context) error {
	return c.rdb.Close()
}
