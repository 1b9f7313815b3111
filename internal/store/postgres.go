package store

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

var postgresDialect = dialect{
	name:         "postgres",
	schema:       postgresSchema,
	numberedArgs: true,
	open:         openPostgres,
}

func openPostgres(ctx context.Context, dsn string) (*sql.DB, func(), error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return stdlib.OpenDBFromPool(pool), pool.Close, nil
}

var postgresSchema = []string{
	`
CREATE TABLE IF NOT EXISTS hands (
    id BIGSERIAL PRIMARY KEY,
    received_at_ms BIGINT NOT NULL,
    client_timestamp TEXT NOT NULL DEFAULT '',
    formkey TEXT NOT NULL DEFAULT 'default',
    wager_amount BIGINT NOT NULL DEFAULT 0,
    wager_currency TEXT NOT NULL DEFAULT 'coins',
    player_cards TEXT NOT NULL DEFAULT '[]',
    dealer_cards TEXT NOT NULL DEFAULT '[]',
    player_value INTEGER NOT NULL DEFAULT 0,
    dealer_value INTEGER NOT NULL DEFAULT 0,
    player_split_cards TEXT NOT NULL DEFAULT '[]',
    player_split_value INTEGER NOT NULL DEFAULT 0,
    has_split INTEGER NOT NULL DEFAULT 0,
    doubled_down INTEGER NOT NULL DEFAULT 0,
    bought_insurance INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL DEFAULT '',
    status_split TEXT NOT NULL DEFAULT '',
    payout BIGINT NOT NULL DEFAULT 0,
    coins_before BIGINT NOT NULL DEFAULT 0,
    marseybux_before BIGINT NOT NULL DEFAULT 0,
    raw_state TEXT NOT NULL DEFAULT '{}'
)`,
	`CREATE INDEX IF NOT EXISTS idx_hands_status ON hands(status, formkey)`,
	`CREATE INDEX IF NOT EXISTS idx_hands_received_at ON hands(received_at_ms)`,
	`
CREATE TABLE IF NOT EXISTS actions (
    id BIGSERIAL PRIMARY KEY,
    hand_id BIGINT NOT NULL REFERENCES hands(id),
    action TEXT NOT NULL,
    player_value INTEGER NOT NULL DEFAULT 0,
    dealer_value INTEGER NOT NULL DEFAULT 0,
    created_at_ms BIGINT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_actions_hand ON actions(hand_id)`,
	`
CREATE TABLE IF NOT EXISTS dealer_patterns (
    id BIGSERIAL PRIMARY KEY,
    hand_id BIGINT NOT NULL REFERENCES hands(id),
    upcard TEXT NOT NULL,
    final_value INTEGER NOT NULL,
    busted INTEGER NOT NULL DEFAULT 0,
    created_at_ms BIGINT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_dealer_patterns_upcard ON dealer_patterns(upcard)`,
}
