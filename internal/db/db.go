package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS deliveries (
    delivery_id       TEXT PRIMARY KEY,
    purchase_order_id TEXT,
    position          INTEGER NOT NULL DEFAULT 0,
    body              TEXT NOT NULL,
    fetched_at        TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);

CREATE TABLE IF NOT EXISTS submissions (
    id                INTEGER PRIMARY KEY,
    delivery_id       TEXT NOT NULL,
    purchase_order_id TEXT,
    status            TEXT NOT NULL CHECK(status IN ('succeeded','failed')),
    photo_count       INTEGER NOT NULL DEFAULT 0,
    damaged_units     INTEGER NOT NULL DEFAULT 0,
    notes             TEXT,
    error             TEXT,
    submitted_at      TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);

CREATE TABLE IF NOT EXISTS permissions (
    source     TEXT PRIMARY KEY,
    granted    INTEGER NOT NULL CHECK(granted IN (0,1)),
    decided_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);

CREATE INDEX IF NOT EXISTS idx_submissions_delivery_id ON submissions(delivery_id);
CREATE INDEX IF NOT EXISTS idx_submissions_submitted_at ON submissions(submitted_at DESC);
`

// Open opens or creates the SQLite database and initializes the schema.
func Open(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}
