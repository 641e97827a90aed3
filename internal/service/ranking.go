package service

import (
	"context"
	"fmt"

	"telegram-wager-bot/internal/model"
	"telegram-wager-bot/internal/repository"
)

// LeaderboardSize is the number of entries a leaderboard shows.
const LeaderboardSize = 5

// RankingService handles leaderboard queries. It only reads the ledger.
type RankingService struct {
	accounts repository.AccountStore
}

// NewRankingService creates a new RankingService instance.
func NewRankingService(accounts repository.AccountStore) *RankingService {
	return &RankingService{accounts: accounts}
}

// Leaderboard returns the top accounts of a chat by balance or points.
func (s *RankingService) Leaderboard(ctx context.Context, chatID int64, by model.RankBy) ([]*model.Account, error) {
	if by != model.RankByPoints {
		by = model.RankByBalance
	}

	accounts, err := s.accounts.TopN(ctx, chatID, LeaderboardSize, by)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	return accounts, nil
}
