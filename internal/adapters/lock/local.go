// Package lock provides Locker adapters: an in-process keyed mutex and a redis RedLock.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SscSPs/cashledger/internal/apperrors"
	portssvc "github.com/SscSPs/cashledger/internal/core/ports/services"
)

// LocalLocker is a keyed mutex for a single process. Keys are created on demand and
// dropped once nobody holds or waits on them.
type LocalLocker struct {
	mu      sync.Mutex
	slots   map[string]*slot
	timeout time.Duration
}

type slot struct {
	ch   chan struct{}
	refs int
}

var _ portssvc.Locker = (*LocalLocker)(nil)

// NewLocalLocker creates a locker whose acquisitions give up after timeout (0 waits for ctx only).
func NewLocalLocker(timeout time.Duration) *LocalLocker {
	return &LocalLocker{slots: make(map[string]*slot), timeout: timeout}
}

func (l *LocalLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	s := l.ref(key)
	defer l.unref(key, s)

	wait := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		wait, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	select {
	case s.ch <- struct{}{}:
	case <-wait.Done():
		if err := ctx.Err(); err != nil {
			return err
		}
		return fmt.Errorf("%w: timed out waiting for lock %s", apperrors.ErrTransient, key)
	}
	defer func() { <-s.ch }()

	return fn(ctx)
}

func (l *LocalLocker) ref(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *LocalLocker) unref(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// held reports how many keys are currently tracked; used by tests.
func (l *LocalLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
