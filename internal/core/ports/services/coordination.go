package services

import (
	"context"

	"github.com/shopspring/decimal"
)

// Locker serialises work on a key (a register or a location) across goroutines and, depending on
// the adapter, across processes. Acquisition is bounded; failing to acquire returns an error
// wrapping apperrors.ErrTransient.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// BalanceCache is an optional read-through cache of replayed balances. Entries are keyed by the
// register version they were computed at, so a cached value is never served for a newer log.
type BalanceCache interface {
	Get(ctx context.Context, registerID string, version int64) (decimal.Decimal, bool, error)
	Set(ctx context.Context, registerID string, version int64, balance decimal.Decimal) error
	Invalidate(ctx context.Context, registerID string) error
}

// RegisterLockKey is the lock key serialising writes to one register.
func RegisterLockKey(registerID string) string { return "register:" + registerID }

// LocationLockKey is the lock key serialising opens and batch closes of a location.
func LocationLockKey(locationID string) string { return "location:" + locationID }
