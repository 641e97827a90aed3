package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"telegram-wager-bot/internal/model"
)

const accountColumns = `chat_id, user_id, username, balance, points, total_rolls, wins, total_won, total_lost, seq, created_at, updated_at`

// PostgresAccountStore is an AccountStore backed by the accounts table.
type PostgresAccountStore struct {
	pool *pgxpool.Pool
}

// NewPostgresAccountStore creates a new PostgresAccountStore instance.
func NewPostgresAccountStore(pool *pgxpool.Pool) *PostgresAccountStore {
	return &PostgresAccountStore{pool: pool}
}

// GetOrCreate inserts the account with defaults or returns the existing row.
// The upsert takes the row lock, so concurrent callers create at most one account.
func (r *PostgresAccountStore) GetOrCreate(ctx context.Context, key model.AccountKey, username string) (*model.Account, bool, error) {
	const query = `
		INSERT INTO accounts (chat_id, user_id, username)
		VALUES ($1, $2, $3)
		ON CONFLICT (chat_id, user_id) DO UPDATE
		SET username = CASE WHEN EXCLUDED.username = '' THEN accounts.username ELSE EXCLUDED.username END
		RETURNING ` + accountColumns + `, (xmax = 0) AS inserted
	`

	var (
		account  model.Account
		inserted bool
	)
	err := r.pool.QueryRow(ctx, query, key.ChatID, key.UserID, username).Scan(
		&account.ChatID,
		&account.UserID,
		&account.Username,
		&account.Balance,
		&account.Points,
		&account.TotalGames,
		&account.Wins,
		&account.TotalWon,
		&account.TotalLost,
		&account.Seq,
		&account.CreatedAt,
		&account.UpdatedAt,
		&inserted,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get or create account: %w", err)
	}

	return &account, inserted, nil
}

// Get retrieves an account by key.
func (r *PostgresAccountStore) Get(ctx context.Context, key model.AccountKey) (*model.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE chat_id = $1 AND user_id = $2`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, key.ChatID, key.UserID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return account, nil
}

// ApplyDelta inserts the account with defaults when missing, then increments
// it in the same transaction. The guarded UPDATE holds the row lock until
// commit, so concurrent settlements for one key are applied one after another.
func (r *PostgresAccountStore) ApplyDelta(ctx context.Context, key model.AccountKey, s model.Settlement) (*model.Account, error) {
	const ensureQuery = `
		INSERT INTO accounts (chat_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (chat_id, user_id) DO NOTHING
	`
	const applyQuery = `
		UPDATE accounts
		SET balance = balance + $3,
			points = points + $4,
			total_rolls = total_rolls + 1,
			wins = wins + $5,
			total_won = total_won + $6,
			total_lost = total_lost + $7,
			updated_at = NOW()
		WHERE chat_id = $1 AND user_id = $2 AND balance + $3 >= 0
		RETURNING ` + accountColumns

	wins, won, lost := tally(s)

	var account *model.Account
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, ensureQuery, key.ChatID, key.UserID); err != nil {
			return fmt.Errorf("failed to ensure account: %w", err)
		}

		updated, err := scanAccount(tx.QueryRow(ctx, applyQuery,
			key.ChatID, key.UserID, s.BalanceDelta, s.PointsDelta, wins, won, lost))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrInsufficientBalance
			}
			return fmt.Errorf("failed to apply settlement: %w", err)
		}

		if err := insertEntry(ctx, tx, key, s, updated.Balance); err != nil {
			return err
		}

		account = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// TopN retrieves the leading accounts of one chat. n <= 0 yields none.
func (r *PostgresAccountStore) TopN(ctx context.Context, chatID int64, n int, by model.RankBy) ([]*model.Account, error) {
	const byBalance = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE chat_id = $1
		ORDER BY balance DESC, seq ASC, user_id ASC
		LIMIT $2
	`
	const byPoints = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE chat_id = $1
		ORDER BY points DESC, seq ASC, user_id ASC
		LIMIT $2
	`

	if n <= 0 {
		return []*model.Account{}, nil
	}

	query := byBalance
	if by == model.RankByPoints {
		query = byPoints
	}

	rows, err := r.pool.Query(ctx, query, chatID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to get top accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]*model.Account, 0, n)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}

func scanAccount(row pgx.Row) (*model.Account, error) {
	var account model.Account
	err := row.Scan(
		&account.ChatID,
		&account.UserID,
		&account.Username,
		&account.Balance,
		&account.Points,
		&account.TotalGames,
		&account.Wins,
		&account.TotalWon,
		&account.TotalLost,
		&account.Seq,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &account, nil
}
