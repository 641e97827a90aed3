package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"telegram-wager-bot/internal/model"
)

// insertEntry records an applied settlement inside the settlement transaction.
func insertEntry(ctx context.Context, tx pgx.Tx, key model.AccountKey, s model.Settlement, balanceAfter int64) error {
	const query = `
		INSERT INTO ledger_entries (chat_id, user_id, game, wager, delta, points_delta, won, balance_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`

	_, err := tx.Exec(ctx, query,
		key.ChatID, key.UserID, s.Game, s.Wager, s.BalanceDelta, s.PointsDelta, s.Won, balanceAfter)
	if err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}

	return nil
}

// RecentEntries retrieves an account's ledger entries, newest first.
func (r *PostgresAccountStore) RecentEntries(ctx context.Context, key model.AccountKey, limit int) ([]*model.LedgerEntry, error) {
	const query = `
		SELECT id, chat_id, user_id, game, wager, delta, points_delta, won, balance_after, created_at
		FROM ledger_entries
		WHERE chat_id = $1 AND user_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, key.ChatID, key.UserID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*model.LedgerEntry, 0)
	for rows.Next() {
		var e model.LedgerEntry
		err := rows.Scan(
			&e.ID,
			&e.ChatID,
			&e.UserID,
			&e.Game,
			&e.Wager,
			&e.Delta,
			&e.PointsDelta,
			&e.Won,
			&e.BalanceAfter,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entries: %w", err)
	}

	return entries, nil
}
