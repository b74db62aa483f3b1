package repository

import (
	"context"
	"fmt"
	"time"

	"shim/internal/config"

	"github.com/redis/go-redis/v9"
)

const quotaKeyPrefix = "shim:booking_quota:"

// consumeScript increments the counter and attaches the window TTL whenever
// the key has none, so a lost expiry is repaired by the next request.
var consumeScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if redis.call('PTTL', KEYS[1]) < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`)

// releaseScript decrements a live counter without going below zero.
var releaseScript = redis.NewScript(`
local n = tonumber(redis.call('GET', KEYS[1]) or '0')
if n > 0 then
  return redis.call('DECR', KEYS[1])
end
return 0
`)

// RedisQuotaRepository counts booking requests per requester in fixed windows.
type RedisQuotaRepository struct {
	client *redis.Client
}

// NewRedisClient builds a Redis client from configuration.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisQuotaRepository(client *redis.Client) *RedisQuotaRepository {
	return &RedisQuotaRepository{client: client}
}

// CheckRateLimit consumes one unit of userID's quota and reports whether the
// request is still within limit for the current window.
func (r *RedisQuotaRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	count, err := consumeScript.Run(ctx, r.client, []string{quotaKey(userID)}, window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to increment quota: %w", err)
	}
	return count <= int64(limit), nil
}

// ReleaseRateLimit returns one unit to userID's current window.
func (r *RedisQuotaRepository) ReleaseRateLimit(ctx context.Context, userID int64) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := releaseScript.Run(ctx, r.client, []string{quotaKey(userID)}).Err(); err != nil {
		return fmt.Errorf("failed to release quota: %w", err)
	}
	return nil
}

func quotaKey(userID int64) string {
	return fmt.Sprintf("%s%d", quotaKeyPrefix, userID)
}

// Ping checks the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close closes the Redis client if one was created.
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
