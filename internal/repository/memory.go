package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"telegram-wager-bot/internal/model"
)

// DefaultEntryHistory is how many ledger entries the memory store keeps per account.
const DefaultEntryHistory = 50

// MemoryAccountStore is an AccountStore kept in process memory.
// Every method holds the store mutex for its whole read-modify-write, so
// concurrent ApplyDelta calls never lose an update.
type MemoryAccountStore struct {
	mu         sync.Mutex
	accounts   map[model.AccountKey]*model.Account
	entries    map[model.AccountKey][]*model.LedgerEntry
	seq        int64
	entrySeq   int64
	maxEntries int
	now        func() time.Time
}

// NewMemoryAccountStore creates an empty in-memory ledger.
func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{
		accounts:   make(map[model.AccountKey]*model.Account),
		entries:    make(map[model.AccountKey][]*model.LedgerEntry),
		maxEntries: DefaultEntryHistory,
		now:        time.Now,
	}
}

// GetOrCreate implements AccountStore.
func (s *MemoryAccountStore) GetOrCreate(_ context.Context, key model.AccountKey, username string) (*model.Account, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.accounts[key]; ok {
		if username != "" && a.Username != username {
			a.Username = username
			a.UpdatedAt = s.now()
		}
		return copyAccount(a), false, nil
	}

	a := s.create(key, username)
	return copyAccount(a), true, nil
}

// Get implements AccountStore.
func (s *MemoryAccountStore) Get(_ context.Context, key model.AccountKey) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[key]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return copyAccount(a), nil
}

// ApplyDelta implements AccountStore.
func (s *MemoryAccountStore) ApplyDelta(_ context.Context, key model.AccountKey, st model.Settlement) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[key]
	if !ok {
		if model.StartingBalance+st.BalanceDelta < 0 {
			return nil, ErrInsufficientBalance
		}
		a = s.create(key, "")
	}

	if a.Balance+st.BalanceDelta < 0 {
		return nil, ErrInsufficientBalance
	}

	wins, won, lost := tally(st)
	now := s.now()
	a.Balance += st.BalanceDelta
	a.Points += st.PointsDelta
	a.TotalGames++
	a.Wins += wins
	a.TotalWon += won
	a.TotalLost += lost
	a.UpdatedAt = now

	s.entrySeq++
	entry := &model.LedgerEntry{
		ID:           s.entrySeq,
		ChatID:       key.ChatID,
		UserID:       key.UserID,
		Game:         st.Game,
		Wager:        st.Wager,
		Delta:        st.BalanceDelta,
		PointsDelta:  st.PointsDelta,
		Won:          st.Won,
		BalanceAfter: a.Balance,
		CreatedAt:    now,
	}
	history := append(s.entries[key], entry)
	if len(history) > s.maxEntries {
		history = history[len(history)-s.maxEntries:]
	}
	s.entries[key] = history

	return copyAccount(a), nil
}

// TopN implements AccountStore.
func (s *MemoryAccountStore) TopN(_ context.Context, chatID int64, n int, by model.RankBy) ([]*model.Account, error) {
	if n <= 0 {
		return []*model.Account{}, nil
	}

	s.mu.Lock()
	ranked := make([]*model.Account, 0)
	for key, a := range s.accounts {
		if key.ChatID == chatID {
			ranked = append(ranked, copyAccount(a))
		}
	}
	s.mu.Unlock()

	score := func(a *model.Account) int64 {
		if by == model.RankByPoints {
			return a.Points
		}
		return a.Balance
	}

	sort.Slice(ranked, func(i, j int) bool {
		si, sj := score(ranked[i]), score(ranked[j])
		if si != sj {
			return si > sj
		}
		if ranked[i].Seq != ranked[j].Seq {
			return ranked[i].Seq < ranked[j].Seq
		}
		return ranked[i].UserID < ranked[j].UserID
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked, nil
}

// RecentEntries implements AccountStore.
func (s *MemoryAccountStore) RecentEntries(_ context.Context, key model.AccountKey, limit int) ([]*model.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.entries[key]
	if limit <= 0 {
		return []*model.LedgerEntry{}, nil
	}
	result := make([]*model.LedgerEntry, 0, min(limit, len(history)))
	for i := len(history) - 1; i >= 0 && len(result) < limit; i-- {
		e := *history[i]
		result = append(result, &e)
	}
	return result, nil
}

// create must be called with s.mu held.
func (s *MemoryAccountStore) create(key model.AccountKey, username string) *model.Account {
	s.seq++
	now := s.now()
	a := &model.Account{
		ChatID:    key.ChatID,
		UserID:    key.UserID,
		Username:  username,
		Balance:   model.StartingBalance,
		Seq:       s.seq,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.accounts[key] = a
	return a
}

func copyAccount(a *model.Account) *model.Account {
	c := *a
	return &c
}
