package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

var sqliteDialect = dialect{
	name:   "sqlite",
	schema: sqliteSchema,
	open:   openSQLite,
}

func openSQLite(ctx context.Context, path string) (*sql.DB, func(), error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		parent := filepath.Dir(path)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, err
	}
	// one connection keeps :memory: databases alive and serialises writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, nil, nil
}

var sqliteSchema = []string{
	`
CREATE TABLE IF NOT EXISTS hands (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    received_at_ms INTEGER NOT NULL,
    client_timestamp TEXT NOT NULL DEFAULT '',
    formkey TEXT NOT NULL DEFAULT 'default',
    wager_amount INTEGER NOT NULL DEFAULT 0,
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
    payout INTEGER NOT NULL DEFAULT 0,
    coins_before INTEGER NOT NULL DEFAULT 0,
    marseybux_before INTEGER NOT NULL DEFAULT 0,
    raw_state TEXT NOT NULL DEFAULT '{}'
)`,
	`CREATE INDEX IF NOT EXISTS idx_hands_status ON hands(status, formkey)`,
	`CREATE INDEX IF NOT EXISTS idx_hands_received_at ON hands(received_at_ms)`,
	`
CREATE TABLE IF NOT EXISTS actions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    hand_id INTEGER NOT NULL REFERENCES hands(id),
    action TEXT NOT NULL,
    player_value INTEGER NOT NULL DEFAULT 0,
    dealer_value INTEGER NOT NULL DEFAULT 0,
    created_at_ms INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_actions_hand ON actions(hand_id)`,
	`
CREATE TABLE IF NOT EXISTS dealer_patterns (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    hand_id INTEGER NOT NULL REFERENCES hands(id),
    upcard TEXT NOT NULL,
    final_value INTEGER NOT NULL,
    busted INTEGER NOT NULL DEFAULT 0,
    created_at_ms INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_dealer_patterns_upcard ON dealer_patterns(upcard)`,
}
