package redisclient

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/redeem_once.lua
var redeemOnceScript string

type Client struct {
	rdb          *redis.Client
	redeemScript *redis.Script
}

// NewClient creates a new Redis client with Lua scripts loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:          rdb,
		redeemScript: redis.NewScript(redeemOnceScript),
	}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// ClaimRedemption atomically claims a single-use redemption code.
// Returns true for the first caller, false for everyone after.
func (c *Client) ClaimRedemption(ctx context.Context, code string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("redeemed:%s", code)

	result, err := c.redeemScript.Run(ctx, c.rdb, []string{key}, int(ttl.Seconds())).Result()
	if err != nil {
		return false, fmt.Errorf("redeem script failed: %w", err)
	}

	claimed, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected script result type")
	}

	return claimed == 1, nil
}

// ReleaseRedemption drops a redemption claim after a failed database
// transition so the code can be retried
func (c *Client) ReleaseRedemption(ctx context.Context, code string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("redeemed:%s", code)).Err()
}

// CacheQRContext stores a resolved QR payload with TTL
func (c *Client) CacheQRContext(ctx context.Context, code string, payload []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("qr:%s", code), payload, ttl).Err()
}

// GetQRContext retrieves a cached QR payload; nil when absent
func (c *Client) GetQRContext(ctx context.Context, code string) ([]byte, error) {
	payload, err := c.rdb.Get(ctx, fmt.Sprintf("qr:%s", code)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// InvalidateQRContext drops a cached QR payload
func (c *Client) InvalidateQRContext(ctx context.Context, code string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("qr:%s", code)).Err()
}

// SetIdempotencyKey stores an idempotency key with TTL
func (c *Client) SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("idempotency:%s", key), value, ttl).Err()
}

// CheckIdempotencyKey checks if an idempotency key exists
func (c *Client) CheckIdempotencyKey(ctx context.Context, key string) (bool, error) {
	result, err := c.rdb.Exists(ctx, fmt.Sprintf("idempotency:%s", key)).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}

// AcquireLock acquires a distributed lock
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), "1", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("lock:%s", lockKey)).Err()
}
