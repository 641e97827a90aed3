// Package repository provides the account ledger: per-(chat, user) balances,
// points and game statistics.
package repository

import (
	"context"
	"errors"

	"telegram-wager-bot/internal/model"
)

// Common errors for repository operations.
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// AccountStore is the ledger contract shared by the Postgres and in-memory stores.
type AccountStore interface {
	// GetOrCreate returns the account for key, creating it with the starting
	// balance if needed. A non-empty username replaces the stored one.
	// The bool reports whether the account was created by this call.
	GetOrCreate(ctx context.Context, key model.AccountKey, username string) (*model.Account, bool, error)

	// Get returns ErrAccountNotFound when the account does not exist.
	Get(ctx context.Context, key model.AccountKey) (*model.Account, error)

	// ApplyDelta atomically applies one settlement and records a ledger entry.
	// A missing account is created with defaults first. If the balance would
	// go negative nothing is applied and ErrInsufficientBalance is returned.
	ApplyDelta(ctx context.Context, key model.AccountKey, s model.Settlement) (*model.Account, error)

	// TopN returns up to n accounts of a chat ordered descending by the given
	// column, ties broken by creation order. n <= 0 returns no accounts.
	TopN(ctx context.Context, chatID int64, n int, by model.RankBy) ([]*model.Account, error)

	// RecentEntries returns the newest ledger entries of an account first.
	RecentEntries(ctx context.Context, key model.AccountKey, limit int) ([]*model.LedgerEntry, error)
}

// tally splits a settlement into counter increments.
func tally(s model.Settlement) (wins, won, lost int64) {
	switch {
	case s.Won:
		wins = 1
		if s.BalanceDelta > 0 {
			won = s.BalanceDelta
		}
	case s.BalanceDelta < 0:
		lost = -s.BalanceDelta
	}
	return wins, won, lost
}
