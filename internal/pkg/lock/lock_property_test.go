package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type testKey struct {
	chat int64
	user int64
}

func lockKey(kl *KeyLock[testKey], key testKey) {
	if err := kl.LockContext(context.Background(), key, 0); err != nil {
		panic(err)
	}
}

// TestConcurrentBalanceSafetyProperty checks that read-modify-write under the
// key lock matches sequential execution of the same operations.
func TestConcurrentBalanceSafetyProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initialBalance := rapid.Int64Range(1000, 100000).Draw(t, "initialBalance")
		numOps := rapid.IntRange(2, 20).Draw(t, "numOps")

		amounts := make([]int64, numOps)
		expected := initialBalance
		for i := range amounts {
			amounts[i] = rapid.Int64Range(-500, 500).Draw(t, "amount")
			expected += amounts[i]
		}

		key := testKey{chat: rapid.Int64Range(-1000, -1).Draw(t, "chat"), user: rapid.Int64Range(1, 1000000).Draw(t, "user")}
		kl := New[testKey]()
		balance := initialBalance

		var wg sync.WaitGroup
		wg.Add(numOps)
		for _, amount := range amounts {
			go func(amount int64) {
				defer wg.Done()
				lockKey(kl, key)
				defer kl.Unlock(key)
				balance += amount
			}(amount)
		}
		wg.Wait()

		if balance != expected {
			t.Fatalf("balance mismatch: expected %d, got %d (initial=%d, ops=%d)", expected, balance, initialBalance, numOps)
		}
		if kl.Len() != 0 {
			t.Fatalf("expected idle keys to be released, %d still tracked", kl.Len())
		}
	})
}

// TestWithLockContextProperty checks that WithLockContext serialises operations.
func TestWithLockContextProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numOps := rapid.IntRange(5, 30).Draw(t, "numOps")
		amountPerOp := rapid.Int64Range(1, 100).Draw(t, "amountPerOp")

		kl := New[testKey]()
		key := testKey{chat: 1, user: 2}
		var balance int64

		var wg sync.WaitGroup
		wg.Add(numOps)
		for i := 0; i < numOps; i++ {
			go func() {
				defer wg.Done()
				_ = kl.WithLockContext(context.Background(), key, time.Second, func() error {
					balance += amountPerOp
					return nil
				})
			}()
		}
		wg.Wait()

		if balance != int64(numOps)*amountPerOp {
			t.Fatalf("balance mismatch: expected %d, got %d", int64(numOps)*amountPerOp, balance)
		}
	})
}

// TestIndependentKeysProperty checks that the same user in different chats
// is tracked under independent keys.
func TestIndependentKeysProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numChats := rapid.IntRange(2, 10).Draw(t, "numChats")
		opsPerChat := rapid.IntRange(5, 20).Draw(t, "opsPerChat")

		kl := New[testKey]()
		balances := make(map[testKey]*int64)
		for i := 0; i < numChats; i++ {
			var b int64
			balances[testKey{chat: int64(-i - 1), user: 7}] = &b
		}

		var wg sync.WaitGroup
		for key := range balances {
			for j := 0; j < opsPerChat; j++ {
				wg.Add(1)
				go func(key testKey) {
					defer wg.Done()
					lockKey(kl, key)
					defer kl.Unlock(key)
					*balances[key] += 10
				}(key)
			}
		}
		wg.Wait()

		for key, b := range balances {
			if *b != int64(opsPerChat)*10 {
				t.Fatalf("key %v: expected %d, got %d", key, opsPerChat*10, *b)
			}
		}
	})
}

func TestLockContext_HeldKeyBlocksOnlyThatKey(t *testing.T) {
	kl := New[testKey]()
	key := testKey{chat: 1, user: 1}
	lockKey(kl, key)

	err := kl.LockContext(context.Background(), key, 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrLockTimeout)

	other := testKey{chat: 2, user: 1}
	require.NoError(t, kl.LockContext(context.Background(), other, 10*time.Millisecond))
	kl.Unlock(other)

	kl.Unlock(key)
}

func TestLockContext_Timeout(t *testing.T) {
	kl := New[testKey]()
	key := testKey{chat: 1, user: 1}
	lockKey(kl, key)

	err := kl.LockContext(context.Background(), key, 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrLockTimeout)

	kl.Unlock(key)

	require.Eventually(t, func() bool { return kl.Len() == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, kl.LockContext(context.Background(), key, time.Second))
	kl.Unlock(key)
}

func TestWithLockContext_Cancelled(t *testing.T) {
	kl := New[testKey]()
	key := testKey{chat: 1, user: 1}
	lockKey(kl, key)
	defer kl.Unlock(key)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := kl.WithLockContext(ctx, key, 0, func() error {
		called = true
		return nil
	})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, called)
}

func TestUnlock_NotLockedPanics(t *testing.T) {
	kl := New[testKey]()
	assert.Panics(t, func() { kl.Unlock(testKey{chat: 1, user: 1}) })
}
