// Package model defines the data models for the wager bot.
package model

import (
	"fmt"
	"time"
)

// StartingBalance is the balance every account is created with.
const StartingBalance int64 = 1000

// AccountKey identifies an account: one per user per chat.
type AccountKey struct {
	ChatID int64
	UserID int64
}

// String renders the key as "chat:user", used for logging and cache keys.
func (k AccountKey) String() string {
	return fmt.Sprintf("%d:%d", k.ChatID, k.UserID)
}

// Account is a user's ledger record inside a single chat.
// Losses are not stored: they are TotalGames - Wins.
type Account struct {
	ChatID     int64     `db:"chat_id"`
	UserID     int64     `db:"user_id"`
	Username   string    `db:"username"`
	Balance    int64     `db:"balance"`
	Points     int64     `db:"points"`
	TotalGames int64     `db:"total_rolls"`
	Wins       int64     `db:"wins"`
	TotalWon   int64     `db:"total_won"`
	TotalLost  int64     `db:"total_lost"`
	Seq        int64     `db:"seq"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// Key returns the account's identity.
func (a *Account) Key() AccountKey {
	return AccountKey{ChatID: a.ChatID, UserID: a.UserID}
}

// Losses returns the number of games the account did not win.
func (a *Account) Losses() int64 {
	return a.TotalGames - a.Wins
}

// WinRate returns the win percentage, 0 when no games were played.
func (a *Account) WinRate() float64 {
	if a.TotalGames == 0 {
		return 0
	}
	return float64(a.Wins) / float64(a.TotalGames) * 100
}

// Settlement is the ledger change produced by one resolved game.
type Settlement struct {
	Game         string
	Wager        int64
	BalanceDelta int64
	PointsDelta  int64
	Won          bool
}

// LedgerEntry is an audit record of an applied settlement.
type LedgerEntry struct {
	ID           int64     `db:"id"`
	ChatID       int64     `db:"chat_id"`
	UserID       int64     `db:"user_id"`
	Game         string    `db:"game"`
	Wager        int64     `db:"wager"`
	Delta        int64     `db:"delta"`
	PointsDelta  int64     `db:"points_delta"`
	Won          bool      `db:"won"`
	BalanceAfter int64     `db:"balance_after"`
	CreatedAt    time.Time `db:"created_at"`
}

// RankBy selects the column a leaderboard is ordered by.
type RankBy string

// Leaderboard orderings.
const (
	RankByBalance RankBy = "balance"
	RankByPoints  RankBy = "points"
)

// Game identifiers recorded on ledger entries.
const (
	GameDice     = "dice"
	GameCoinflip = "coinflip"
)
