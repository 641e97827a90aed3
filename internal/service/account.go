// Package service provides business logic implementations.
package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"telegram-wager-bot/internal/model"
	"telegram-wager-bot/internal/repository"
)

// HistoryLimit is how many ledger entries /history shows.
const HistoryLimit = 5

// AccountService handles account registration and read-only account views.
type AccountService struct {
	accounts repository.AccountStore
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(accounts repository.AccountStore) *AccountService {
	return &AccountService{accounts: accounts}
}

// EnsureAccount ensures the player's account exists in the chat, creating it
// with the starting balance if necessary. A changed display name is stored.
// Returns the account and whether it was newly created.
func (s *AccountService) EnsureAccount(ctx context.Context, p Player) (*model.Account, bool, error) {
	account, created, err := s.accounts.GetOrCreate(ctx, p.Key(), p.Username)
	if err != nil {
		return nil, false, fmt.Errorf("failed to ensure account: %w", err)
	}

	if created {
		log.Info().
			Int64("chat_id", p.ChatID).
			Int64("user_id", p.UserID).
			Str("username", p.Username).
			Msg("Account created")
	}

	return account, created, nil
}

// History returns the player's most recent ledger entries, newest first.
func (s *AccountService) History(ctx context.Context, p Player) ([]*model.LedgerEntry, error) {
	entries, err := s.accounts.RecentEntries(ctx, p.Key(), HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	return entries, nil
}
