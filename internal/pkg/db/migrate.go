package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
)

// Execer is the subset of pgxpool.Pool used by migrations.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type migration struct {
	name string
	sql  string
}

// migrations are applied in order and must stay idempotent.
var migrations = []migration{
	{
		name: "accounts table",
		sql: `
			CREATE TABLE IF NOT EXISTS accounts (
				chat_id BIGINT NOT NULL,
				user_id BIGINT NOT NULL,
				username VARCHAR(255) NOT NULL DEFAULT '',
				balance BIGINT NOT NULL DEFAULT 1000 CHECK (balance >= 0),
				points BIGINT NOT NULL DEFAULT 0,
				total_rolls BIGINT NOT NULL DEFAULT 0,
				wins BIGINT NOT NULL DEFAULT 0,
				total_won BIGINT NOT NULL DEFAULT 0,
				total_lost BIGINT NOT NULL DEFAULT 0,
				seq BIGSERIAL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				PRIMARY KEY (chat_id, user_id)
			);
			CREATE INDEX IF NOT EXISTS idx_accounts_chat_balance ON accounts(chat_id, balance DESC, seq);
			CREATE INDEX IF NOT EXISTS idx_accounts_chat_points ON accounts(chat_id, points DESC, seq);
		`,
	},
	{
		name: "ledger_entries table",
		sql: `
			CREATE TABLE IF NOT EXISTS ledger_entries (
				id BIGSERIAL PRIMARY KEY,
				chat_id BIGINT NOT NULL,
				user_id BIGINT NOT NULL,
				game VARCHAR(32) NOT NULL,
				wager BIGINT NOT NULL DEFAULT 0,
				delta BIGINT NOT NULL,
				points_delta BIGINT NOT NULL DEFAULT 0,
				won BOOLEAN NOT NULL,
				balance_after BIGINT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				FOREIGN KEY (chat_id, user_id) REFERENCES accounts(chat_id, user_id) ON DELETE CASCADE
			);
			CREATE INDEX IF NOT EXISTS idx_ledger_entries_account_time ON ledger_entries(chat_id, user_id, created_at DESC);
		`,
	},
}

// Migrate creates the schema used by the account store.
func Migrate(ctx context.Context, db Execer) error {
	log.Info().Msg("Running database migrations...")

	for i, m := range migrations {
		if _, err := db.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("migration %d (%s): %w", i+1, m.name, err)
		}
		log.Info().Int("step", i+1).Str("migration", m.name).Msg("Migration applied")
	}

	log.Info().Msg("All migrations completed successfully")
	return nil
}
