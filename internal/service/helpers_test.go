package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"telegram-wager-bot/internal/game/coinflip"
	"telegram-wager-bot/internal/model"
	"telegram-wager-bot/internal/repository"
	"telegram-wager-bot/internal/session"
)

var alice = Player{ChatID: -1001, UserID: 1, Username: "alice"}

func newTestGameService(t *testing.T, opts GameOptions) (*GameService, *repository.MemoryAccountStore, *session.MemoryStore) {
	t.Helper()
	accounts := repository.NewMemoryAccountStore()
	sessions := session.NewMemoryStore(0)
	flipper := coinflip.FlipperFunc(func() coinflip.Side { return coinflip.Heads })
	return NewGameService(accounts, sessions, flipper, opts), accounts, sessions
}

func balanceOf(t *testing.T, accounts repository.AccountStore, p Player) int64 {
	t.Helper()
	account, err := accounts.Get(context.Background(), p.Key())
	require.NoError(t, err)
	return account.Balance
}

func stateOf(t *testing.T, svc *GameService, p Player) session.State {
	t.Helper()
	s, err := svc.State(context.Background(), p)
	require.NoError(t, err)
	return s.State
}

// mockAccountStore is a testify mock of repository.AccountStore.
type mockAccountStore struct {
	mock.Mock
}

func (m *mockAccountStore) GetOrCreate(ctx context.Context, key model.AccountKey, username string) (*model.Account, bool, error) {
	args := m.Called(ctx, key, username)
	account, _ := args.Get(0).(*model.Account)
	return account, args.Bool(1), args.Error(2)
}

func (m *mockAccountStore) Get(ctx context.Context, key model.AccountKey) (*model.Account, error) {
	args := m.Called(ctx, key)
	account, _ := args.Get(0).(*model.Account)
	return account, args.Error(1)
}

func (m *mockAccountStore) ApplyDelta(ctx context.Context, key model.AccountKey, s model.Settlement) (*model.Account, error) {
	args := m.Called(ctx, key, s)
	account, _ := args.Get(0).(*model.Account)
	return account, args.Error(1)
}

func (m *mockAccountStore) TopN(ctx context.Context, chatID int64, n int, by model.RankBy) ([]*model.Account, error) {
	args := m.Called(ctx, chatID, n, by)
	accounts, _ := args.Get(0).([]*model.Account)
	return accounts, args.Error(1)
}

func (m *mockAccountStore) RecentEntries(ctx context.Context, key model.AccountKey, limit int) ([]*model.LedgerEntry, error) {
	args := m.Called(ctx, key, limit)
	entries, _ := args.Get(0).([]*model.LedgerEntry)
	return entries, args.Error(1)
}
