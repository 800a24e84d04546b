package repository

import (
	"database/sql"
	"fmt"
	"log"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// OpenSQLite opens (and creates if necessary) the SQLite database backing
// the unit ledger store. WAL mode keeps concurrent reads cheap; SQLite
// supports a single writer so the pool is capped at one connection.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createSQLiteTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteStore] Initialized with database: %s", dbPath)
	return db, nil
}

func createSQLiteTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS catalogue_items (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			points_cost INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS units (
			id TEXT PRIMARY KEY,
			item_id TEXT NOT NULL,
			label TEXT NOT NULL DEFAULT '',
			total_stock INTEGER NOT NULL DEFAULT 0,
			remaining_stock INTEGER NOT NULL DEFAULT 0,
			reserved_by TEXT NOT NULL DEFAULT '',
			reserved_reference TEXT NOT NULL DEFAULT '',
			reserved_until DATETIME,
			redeemed INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_units_item ON units(item_id)`,
		`CREATE INDEX IF NOT EXISTS idx_units_reserved_until ON units(reserved_until)`,
		`CREATE INDEX IF NOT EXISTS idx_units_reserved_reference ON units(reserved_reference)`,
		`CREATE TABLE IF NOT EXISTS redemptions (
			id TEXT PRIMARY KEY,
			unit_id TEXT NOT NULL,
			agent_id TEXT NOT NULL,
			reference TEXT NOT NULL UNIQUE,
			points INTEGER NOT NULL DEFAULT 0,
			completed_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ledger_entries (
			id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL,
			agent_code TEXT NOT NULL DEFAULT '',
			points INTEGER NOT NULL,
			category TEXT NOT NULL,
			status TEXT NOT NULL,
			external_ref TEXT,
			description TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_ledger_external_ref
			ON ledger_entries(external_ref) WHERE external_ref IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_agent ON ledger_entries(agent_id)`,
		`CREATE TABLE IF NOT EXISTS agents (
			id TEXT PRIMARY KEY,
			code TEXT NOT NULL DEFAULT '',
			display_name TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_agents_code ON agents(code)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
