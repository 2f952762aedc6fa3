package lock

import (
	"context"
	"errors"
	"sync"
)

var ErrLockNotAcquired = errors.New("slot lock not acquired")

// Locker guards a critical section per booking slot key.
type Locker interface {
	WithSlotLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

type localLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker serializes callers sharing a key inside this process.
// Waiters block until the holder releases or their context ends.
func NewLocalLocker() Locker {
	return &localLocker{slots: make(map[string]*slot)}
}

func (l *localLocker) WithSlotLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	s := l.ref(key)
	defer l.unref(key)

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		return ErrLockNotAcquired
	}
	defer func() { <-s.ch }()

	return fn(ctx)
}

func (l *localLocker) ref(key string) *slot {
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

func (l *localLocker) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.slots[key]
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}
