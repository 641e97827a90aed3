package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-wager-bot/internal/model"
)

// storeFactory returns a fresh, empty store for one test.
type storeFactory func(t *testing.T) AccountStore

// runAccountStoreContract exercises the behaviour every AccountStore must share.
func runAccountStoreContract(t *testing.T, newStore storeFactory) {
	t.Run("GetOrCreate", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		key := model.AccountKey{ChatID: -100, UserID: 1}

		account, created, err := store.GetOrCreate(ctx, key, "alice")
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, model.StartingBalance, account.Balance)
		assert.Equal(t, "alice", account.Username)
		assert.Zero(t, account.TotalGames)

		account, created, err = store.GetOrCreate(ctx, key, "alice2")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, "alice2", account.Username)

		account, _, err = store.GetOrCreate(ctx, key, "")
		require.NoError(t, err)
		assert.Equal(t, "alice2", account.Username, "empty username keeps the stored one")
	})

	t.Run("Get", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_, err := store.Get(ctx, model.AccountKey{ChatID: 1, UserID: 1})
		assert.ErrorIs(t, err, ErrAccountNotFound)

		_, _, err = store.GetOrCreate(ctx, model.AccountKey{ChatID: 1, UserID: 1}, "bob")
		require.NoError(t, err)

		account, err := store.Get(ctx, model.AccountKey{ChatID: 1, UserID: 1})
		require.NoError(t, err)
		assert.Equal(t, "bob", account.Username)

		_, err = store.Get(ctx, model.AccountKey{ChatID: 2, UserID: 1})
		assert.ErrorIs(t, err, ErrAccountNotFound, "accounts are per chat")
	})

	t.Run("ApplyDelta win and loss", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		key := model.AccountKey{ChatID: -100, UserID: 2}
		_, _, err := store.GetOrCreate(ctx, key, "carol")
		require.NoError(t, err)

		account, err := store.ApplyDelta(ctx, key, model.Settlement{Game: model.GameDice, Wager: 100, BalanceDelta: 50, Won: true})
		require.NoError(t, err)
		assert.Equal(t, int64(1050), account.Balance)
		assert.Equal(t, int64(50), account.TotalWon)
		assert.Equal(t, int64(1), account.TotalGames)
		assert.Equal(t, int64(1), account.Wins)

		account, err = store.ApplyDelta(ctx, key, model.Settlement{Game: model.GameDice, Wager: 100, BalanceDelta: -100})
		require.NoError(t, err)
		assert.Equal(t, int64(950), account.Balance)
		assert.Equal(t, int64(100), account.TotalLost)
		assert.Equal(t, int64(2), account.TotalGames)
		assert.Equal(t, int64(1), account.Losses())

		account, err = store.ApplyDelta(ctx, key, model.Settlement{Game: model.GameCoinflip, PointsDelta: 1, Won: true})
		require.NoError(t, err)
		assert.Equal(t, int64(950), account.Balance)
		assert.Equal(t, int64(1), account.Points)
		assert.Equal(t, int64(2), account.Wins)
		assert.Equal(t, account.TotalGames, account.Wins+account.Losses())
	})

	t.Run("ApplyDelta creates missing account", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		key := model.AccountKey{ChatID: -5, UserID: 9}

		account, err := store.ApplyDelta(ctx, key, model.Settlement{Game: model.GameDice, Wager: 100, BalanceDelta: -100})
		require.NoError(t, err)
		assert.Equal(t, int64(900), account.Balance)
	})

	t.Run("ApplyDelta rejects overdraw atomically", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		key := model.AccountKey{ChatID: -100, UserID: 3}
		_, _, err := store.GetOrCreate(ctx, key, "dave")
		require.NoError(t, err)

		_, err = store.ApplyDelta(ctx, key, model.Settlement{Game: model.GameDice, Wager: 2000, BalanceDelta: -2000})
		assert.ErrorIs(t, err, ErrInsufficientBalance)

		account, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, model.StartingBalance, account.Balance)
		assert.Zero(t, account.TotalGames)

		entries, err := store.RecentEntries(ctx, key, 10)
		require.NoError(t, err)
		assert.Empty(t, entries)

		// Wagering the whole balance is allowed.
		account, err = store.ApplyDelta(ctx, key, model.Settlement{Game: model.GameDice, Wager: 1000, BalanceDelta: -1000})
		require.NoError(t, err)
		assert.Zero(t, account.Balance)
	})

	t.Run("TopN orders by balance with stable ties", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		chat := int64(-300)

		for i, delta := range []int64{-100, 50, 0} {
			key := model.AccountKey{ChatID: chat, UserID: int64(i + 1)}
			_, _, err := store.GetOrCreate(ctx, key, "")
			require.NoError(t, err)
			if delta != 0 {
				_, err = store.ApplyDelta(ctx, key, model.Settlement{Game: model.GameDice, BalanceDelta: delta, Won: delta > 0})
				require.NoError(t, err)
			}
		}
		// Same balance as user 3, created later.
		_, _, err := store.GetOrCreate(ctx, model.AccountKey{ChatID: chat, UserID: 4}, "")
		require.NoError(t, err)
		// Other chat must not leak in.
		_, _, err = store.GetOrCreate(ctx, model.AccountKey{ChatID: -999, UserID: 5}, "")
		require.NoError(t, err)

		top, err := store.TopN(ctx, chat, 5, model.RankByBalance)
		require.NoError(t, err)
		require.Len(t, top, 4)

		balances := []int64{top[0].Balance, top[1].Balance, top[2].Balance, top[3].Balance}
		assert.Equal(t, []int64{1050, 1000, 1000, 900}, balances)
		assert.Equal(t, int64(3), top[1].UserID)
		assert.Equal(t, int64(4), top[2].UserID)

		again, err := store.TopN(ctx, chat, 5, model.RankByBalance)
		require.NoError(t, err)
		for i := range top {
			assert.Equal(t, top[i].UserID, again[i].UserID)
		}

		limited, err := store.TopN(ctx, chat, 2, model.RankByBalance)
		require.NoError(t, err)
		assert.Len(t, limited, 2)
	})

	t.Run("TopN by points", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		chat := int64(-400)

		for user, points := range map[int64]int{1: 1, 2: 3, 3: 2} {
			key := model.AccountKey{ChatID: chat, UserID: user}
			for i := 0; i < points; i++ {
				_, err := store.ApplyDelta(ctx, key, model.Settlement{Game: model.GameCoinflip, PointsDelta: 1, Won: true})
				require.NoError(t, err)
			}
		}

		top, err := store.TopN(ctx, chat, 5, model.RankByPoints)
		require.NoError(t, err)
		require.Len(t, top, 3)
		assert.Equal(t, []int64{2, 3, 1}, []int64{top[0].UserID, top[1].UserID, top[2].UserID})
	})

	t.Run("TopN with non-positive n is empty", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		_, _, err := store.GetOrCreate(ctx, model.AccountKey{ChatID: -500, UserID: 1}, "gina")
		require.NoError(t, err)

		for _, n := range []int{0, -1} {
			top, err := store.TopN(ctx, -500, n, model.RankByBalance)
			require.NoError(t, err)
			assert.Empty(t, top, "n=%d", n)
		}
	})

	t.Run("RecentEntries newest first", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		key := model.AccountKey{ChatID: -100, UserID: 6}

		for _, delta := range []int64{-10, 5, -20} {
			_, err := store.ApplyDelta(ctx, key, model.Settlement{Game: model.GameDice, Wager: 10, BalanceDelta: delta, Won: delta > 0})
			require.NoError(t, err)
		}

		entries, err := store.RecentEntries(ctx, key, 2)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, int64(-20), entries[0].Delta)
		assert.Equal(t, int64(975), entries[0].BalanceAfter)
		assert.Equal(t, int64(5), entries[1].Delta)
		assert.True(t, entries[1].Won)
	})

	t.Run("concurrent ApplyDelta loses no update", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		key := model.AccountKey{ChatID: -100, UserID: 7}
		_, _, err := store.GetOrCreate(ctx, key, "eve")
		require.NoError(t, err)

		deltas := []int64{50, -100, 25, -10, 75, -40, 10, -5}
		var expected int64 = model.StartingBalance
		for _, d := range deltas {
			expected += d
		}

		var wg sync.WaitGroup
		for _, d := range deltas {
			wg.Add(1)
			go func(d int64) {
				defer wg.Done()
				_, err := store.ApplyDelta(ctx, key, model.Settlement{Game: model.GameDice, BalanceDelta: d, Won: d > 0})
				assert.NoError(t, err)
			}(d)
		}
		wg.Wait()

		account, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, expected, account.Balance)
		assert.Equal(t, int64(len(deltas)), account.TotalGames)
	})

	t.Run("concurrent GetOrCreate creates once", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		key := model.AccountKey{ChatID: -100, UserID: 8}

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			created int
		)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, c, err := store.GetOrCreate(ctx, key, "frank")
				assert.NoError(t, err)
				if c {
					mu.Lock()
					created++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, created)
	})
}
