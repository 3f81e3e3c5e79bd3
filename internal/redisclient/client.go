package redisclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// pendingMarker holds an idempotency key while the first request using it is
// still running.
const pendingMarker = "pending"

// ErrKeyInFlight is returned when another request already claimed the key but
// has not finished yet.
var ErrKeyInFlight = errors.New("idempotency key in flight")

type Client struct {
	rdb *redis.Client
	kv  redis.Cmdable
	ttl time.Duration
}

// NewClient creates a new Redis client and checks the connection.
func NewClient(addr, password string, db int, ttl time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb, kv: rdb, ttl: ttl}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping reports whether Redis is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func idempotencyKey(key string) string {
	return fmt.Sprintf("idempotency:sale:%s", key)
}

// claimAttempts bounds how often ClaimSaleKey retries when the key vanishes
// between SETNX and GET.
const claimAttempts = 2

// ClaimSaleKey reserves an idempotency key for a new sale. It returns the sale
// id stored under the key when a previous request completed, or claimed=true
// when the caller now owns the key and must Complete or Release it.
func (c *Client) ClaimSaleKey(ctx context.Context, key string) (saleID int64, claimed bool, err error) {
	for attempt := 0; attempt < claimAttempts; attempt++ {
		ok, err := c.kv.SetNX(ctx, idempotencyKey(key), pendingMarker, c.ttl).Result()
		if err != nil {
			return 0, false, fmt.Errorf("claim idempotency key: %w", err)
		}
		if ok {
			return 0, true, nil
		}

		value, err := c.kv.Get(ctx, idempotencyKey(key)).Result()
		if errors.Is(err, redis.Nil) {
			// Expired or released between the two calls.
			continue
		}
		if err != nil {
			return 0, false, fmt.Errorf("get idempotency key: %w", err)
		}

		if value == pendingMarker {
			return 0, false, ErrKeyInFlight
		}

		saleID, err = strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, false, fmt.Errorf("corrupt idempotency value %q: %w", value, err)
		}
		return saleID, false, nil
	}

	return 0, false, ErrKeyInFlight
}

// CompleteSaleKey records the sale created under a claimed key.
func (c *Client) CompleteSaleKey(ctx context.Context, key string, saleID int64) error {
	return c.kv.Set(ctx, idempotencyKey(key), saleID, c.ttl).Err()
}

// ReleaseSaleKey drops a claimed key so a failed request can be retried.
func (c *Client) ReleaseSaleKey(ctx context.Context, key string) error {
	return c.kv.Del(ctx, idempotencyKey(key)).Err()
}
