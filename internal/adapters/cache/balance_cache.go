// Package cache holds BalanceCache adapters.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	portssvc "github.com/SscSPs/cashledger/internal/core/ports/services"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
)

// Nop never caches anything.
type Nop struct{}

var _ portssvc.BalanceCache = Nop{}

func (Nop) Get(context.Context, string, int64) (decimal.Decimal, bool, error) {
	return decimal.Zero, false, nil
}
func (Nop) Set(context.Context, string, int64, decimal.Decimal) error { return nil }
func (Nop) Invalidate(context.Context, string) error                  { return nil }

// RedisBalanceCache stores "version|balance" per register in redis. Calls go through a circuit
// breaker so a struggling redis degrades to cache misses instead of slowing every read down.
type RedisBalanceCache struct {
	client  redis.UniversalClient
	ttl     time.Duration
	prefix  string
	breaker *gobreaker.CircuitBreaker
}

var _ portssvc.BalanceCache = (*RedisBalanceCache)(nil)

// NewRedisBalanceCache creates a cache whose entries expire after ttl.
func NewRedisBalanceCache(client redis.UniversalClient, ttl time.Duration) *RedisBalanceCache {
	return &RedisBalanceCache{
		client: client,
		ttl:    ttl,
		prefix: "cashledger:balance:",
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "balance-cache",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
		}),
	}
}

func (c *RedisBalanceCache) key(registerID string) string {
	return c.prefix + registerID
}

func (c *RedisBalanceCache) Get(ctx context.Context, registerID string, version int64) (decimal.Decimal, bool, error) {
	raw, err := c.breaker.Execute(func() (interface{}, error) {
		val, err := c.client.Get(ctx, c.key(registerID)).Result()
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return val, err
	})
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("balance cache get: %w", err)
	}
	val := raw.(string)
	if val == "" {
		return decimal.Zero, false, nil
	}

	storedVersion, balance, err := decode(val)
	if err != nil {
		return decimal.Zero, false, err
	}
	if storedVersion != version {
		return decimal.Zero, false, nil
	}
	return balance, true, nil
}

func (c *RedisBalanceCache) Set(ctx context.Context, registerID string, version int64, balance decimal.Decimal) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, c.key(registerID), encode(version, balance), c.ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("balance cache set: %w", err)
	}
	return nil
}

func (c *RedisBalanceCache) Invalidate(ctx context.Context, registerID string) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Del(ctx, c.key(registerID)).Err()
	})
	if err != nil {
		return fmt.Errorf("balance cache invalidate: %w", err)
	}
	return nil
}

func encode(version int64, balance decimal.Decimal) string {
	return strconv.FormatInt(version, 10) + "|" + balance.String()
}

func decode(val string) (int64, decimal.Decimal, error) {
	versionPart, balancePart, ok := strings.Cut(val, "|")
	if !ok {
		return 0, decimal.Zero, fmt.Errorf("malformed balance cache entry %q", val)
	}
	version, err := strconv.ParseInt(versionPart, 10, 64)
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("malformed balance cache version: %w", err)
	}
	balance, err := decimal.NewFromString(balancePart)
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("malformed balance cache amount: %w", err)
	}
	return version, balance, nil
}
