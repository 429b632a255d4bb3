package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/cashledger/internal/apperrors"
	portssvc "github.com/SscSPs/cashledger/internal/core/ports/services"
	"github.com/SscSPs/cashledger/internal/middleware"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// RedisOptions tunes the distributed lock.
type RedisOptions struct {
	Prefix     string
	Expiry     time.Duration
	Tries      int
	RetryDelay time.Duration
}

// RedisLocker serialises work across processes with a redsync mutex per key.
type RedisLocker struct {
	rs   *redsync.Redsync
	opts RedisOptions
}

var _ portssvc.Locker = (*RedisLocker)(nil)

// NewRedisLocker creates a RedLock-backed locker on top of client.
func NewRedisLocker(client redis.UniversalClient, opts RedisOptions) *RedisLocker {
	if opts.Prefix == "" {
		opts.Prefix = "cashledger:lock:"
	}
	if opts.Expiry <= 0 {
		opts.Expiry = 10 * time.Second
	}
	if opts.Tries <= 0 {
		opts.Tries = 32
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 50 * time.Millisecond
	}
	return &RedisLocker{rs: redsync.New(goredis.NewPool(client)), opts: opts}
}

func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	mutex := l.rs.NewMutex(l.opts.Prefix+key,
		redsync.WithExpiry(l.opts.Expiry),
		redsync.WithTries(l.opts.Tries),
		redsync.WithRetryDelay(l.opts.RetryDelay),
	)
	if err := mutex.LockContext(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: could not acquire lock %s: %v", apperrors.ErrTransient, key, err)
	}
	defer func() {
		// The caller's ctx may already be cancelled; the lock must still be released.
		if ok, err := mutex.UnlockContext(context.WithoutCancel(ctx)); err != nil || !ok {
			middleware.GetLoggerFromCtx(ctx).Warn("Failed to release distributed lock",
				slog.String("key", key), slog.Any("error", err))
		}
	}()

	return fn(ctx)
}
