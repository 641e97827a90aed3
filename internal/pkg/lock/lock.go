// Package lock provides per-key locking for concurrent account and session operations.
// Operations on different keys never contend with each other.
package lock

import (
	"context"
	"sync"
	"time"
)

// KeyLock serialises work per key. The zero value is not usable; use New.
type KeyLock[K comparable] struct {
	mu    sync.Mutex
	locks map[K]*entry
}

// entry is a per-key mutex with a count of holders and waiters,
// so idle keys can be dropped from the map.
type entry struct {
	mu   sync.Mutex
	refs int
}

// New creates an empty KeyLock.
func New[K comparable]() *KeyLock[K] {
	return &KeyLock[K]{locks: make(map[K]*entry)}
}

// acquire returns the entry for key with its reference taken.
func (l *KeyLock[K]) acquire(key K) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.locks[key]
	if !ok {
		e = &entry{}
		l.locks[key] = e
	}
	e.refs++
	return e
}

// release drops a reference and forgets the key once nobody uses it.
func (l *KeyLock[K]) release(key K, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// Unlock releases the lock for key. Unlocking a key that is not locked panics,
// the same as sync.Mutex.
func (l *KeyLock[K]) Unlock(key K) {
	l.mu.Lock()
	e, ok := l.locks[key]
	l.mu.Unlock()
	if !ok {
		panic("lock: unlock of unlocked key")
	}
	e.mu.Unlock()
	l.release(key, e)
}

// LockContext waits for the lock until ctx is done or timeout elapses.
// A timeout of 0 waits only on ctx.
func (l *KeyLock[K]) LockContext(ctx context.Context, key K, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	e := l.acquire(key)
	done := make(chan struct{})
	go func() {
		e.mu.Lock()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		// The waiter still gets the mutex eventually; hand it straight back.
		go func() {
			<-done
			e.mu.Unlock()
			l.release(key, e)
		}()
		if ctx.Err() == context.DeadlineExceeded {
			return ErrLockTimeout
		}
		return ctx.Err()
	}
}

// WithLockContext executes fn while holding the lock for key,
// giving up with ErrLockTimeout or the context error.
func (l *KeyLock[K]) WithLockContext(ctx context.Context, key K, timeout time.Duration, fn func() error) error {
	if err := l.LockContext(ctx, key, timeout); err != nil {
		return err
	}
	defer l.Unlock(key)
	return fn()
}

// Len returns the number of keys currently tracked.
func (l *KeyLock[K]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
