// Package repository holds the SQLite persistence layer for the ledger.
// Bids and transactions are append-only: the schema has no UPDATE or DELETE
// path for either table, so the log stays a faithful audit trail.
package repository

import (
	"fmt"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go sqlite driver
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know a bindvar
	// style for. SQLite uses ?-placeholders.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// schema is applied on every start. Idempotent: CREATE ... IF NOT EXISTS only.
const schema = `
CREATE TABLE IF NOT EXISTS bids (
	id         TEXT PRIMARY KEY,
	post_id    TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	bid_amount TEXT NOT NULL,
	placed_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
	id         TEXT PRIMARY KEY,
	post_id    TEXT NOT NULL,
	from_user  TEXT NOT NULL,
	to_user    TEXT,
	amount     TEXT NOT NULL,
	price      TEXT NOT NULL,
	type       TEXT NOT NULL CHECK (type IN ('buy', 'sell', 'reward')),
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS post_prices (
	post_id       TEXT PRIMARY KEY,
	base_price    TEXT NOT NULL,
	current_price TEXT NOT NULL,
	updated_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bids_post_id ON bids(post_id);
CREATE INDEX IF NOT EXISTS idx_tx_post_id ON transactions(post_id);
CREATE INDEX IF NOT EXISTS idx_tx_from_user ON transactions(from_user);
CREATE INDEX IF NOT EXISTS idx_tx_to_user ON transactions(to_user);
`

// Open connects to the SQLite file at path, enables WAL mode, and applies the
// schema. Use ":memory:" for tests.
func Open(path string) (*sqlx.DB, error) {
	if path != ":memory:" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("repository.Open: resolve path %q: %w", path, err)
		}
		path = abs
	}

	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("repository.Open: connect: %w", err)
	}

	// Each :memory: connection is its own database; pin the pool to one
	// connection so tests see a single shared store.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err = db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("repository.Open: enable WAL: %w", err)
	}
	if _, err = db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("repository.Open: enable foreign keys: %w", err)
	}

	if err = Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate applies the ledger schema. Safe to call repeatedly.
func Migrate(db *sqlx.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("repository.Migrate: %w", err)
	}
	return nil
}
