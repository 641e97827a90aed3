package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-wager-bot/internal/model"
)

// runStoreContract exercises the behaviour every Store must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	key := model.AccountKey{ChatID: -100, UserID: 42}

	t.Run("missing session", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_, err := store.Get(ctx, key)
		assert.ErrorIs(t, err, ErrSessionNotFound)

		_, err = store.Take(ctx, key)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("save and get", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		s := New(key)
		require.NoError(t, s.Transition(StateAwaitingOutcome, 250))
		require.NoError(t, store.Save(ctx, s))
		assert.False(t, s.UpdatedAt.IsZero())

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, StateAwaitingOutcome, got.State)
		assert.Equal(t, int64(250), got.PendingWager)
		assert.Equal(t, key, got.Key())

		_, err = store.Get(ctx, model.AccountKey{ChatID: -100, UserID: 43})
		assert.ErrorIs(t, err, ErrSessionNotFound, "sessions are per user")
		_, err = store.Get(ctx, model.AccountKey{ChatID: -101, UserID: 42})
		assert.ErrorIs(t, err, ErrSessionNotFound, "sessions are per chat")
	})

	t.Run("idle is not stored", func(t *testing.T) {
		store := newStore(t)

		err := store.Save(context.Background(), New(key))
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("take consumes", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		s := New(key)
		require.NoError(t, s.Transition(StateAwaitingOutcome, 5))
		require.NoError(t, store.Save(ctx, s))

		taken, err := store.Take(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, int64(5), taken.PendingWager)

		_, err = store.Take(ctx, key)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("concurrent take yields once", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		s := New(key)
		require.NoError(t, s.Transition(StateAwaitingOutcome, 5))
		require.NoError(t, store.Save(ctx, s))

		var (
			wg    sync.WaitGroup
			taken atomic.Int32
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := store.Take(ctx, key); err == nil {
					taken.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), taken.Load())
	})

	t.Run("all", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		for i := int64(1); i <= 3; i++ {
			s := New(model.AccountKey{ChatID: -1, UserID: i})
			require.NoError(t, s.Transition(StateAwaitingWager, 0))
			require.NoError(t, store.Save(ctx, s))
		}

		all, err := store.All(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})
}
