package repository

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// OpenMySQL opens the MySQL database backing the unit ledger store. The DSN
// must include parseTime=true so DATETIME columns scan into time.Time.
func OpenMySQL(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	if err := createMySQLTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Println("[MySQLStore] Initialized")
	return db, nil
}

func createMySQLTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS catalogue_items (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			points_cost INT NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS units (
			id VARCHAR(64) PRIMARY KEY,
			item_id VARCHAR(64) NOT NULL,
			label VARCHAR(255) NOT NULL DEFAULT '',
			total_stock INT NOT NULL DEFAULT 0,
			remaining_stock INT NOT NULL DEFAULT 0,
			reserved_by VARCHAR(64) NOT NULL DEFAULT '',
			reserved_reference VARCHAR(64) NOT NULL DEFAULT '',
			reserved_until DATETIME NULL,
			redeemed TINYINT(1) NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			INDEX idx_units_item (item_id),
			INDEX idx_units_reserved_until (reserved_until),
			INDEX idx_units_reserved_reference (reserved_reference)
		)`,
		`CREATE TABLE IF NOT EXISTS redemptions (
			id VARCHAR(64) PRIMARY KEY,
			unit_id VARCHAR(64) NOT NULL,
			agent_id VARCHAR(64) NOT NULL,
			reference VARCHAR(64) NOT NULL,
			points INT NOT NULL DEFAULT 0,
			completed_at DATETIME NOT NULL,
			UNIQUE KEY uq_redemptions_reference (reference)
		)`,
		`CREATE TABLE IF NOT EXISTS ledger_entries (
			id VARCHAR(64) PRIMARY KEY,
			agent_id VARCHAR(64) NOT NULL,
			agent_code VARCHAR(64) NOT NULL DEFAULT '',
			points INT NOT NULL,
			category VARCHAR(32) NOT NULL,
			status VARCHAR(16) NOT NULL,
			external_ref VARCHAR(128) NULL,
			description VARCHAR(255) NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			UNIQUE KEY uq_ledger_external_ref (external_ref),
			INDEX idx_ledger_agent (agent_id)
		)`,
		`CREATE TABLE IF NOT EXISTS agents (
			id VARCHAR(64) PRIMARY KEY,
			code VARCHAR(64) NOT NULL DEFAULT '',
			display_name VARCHAR(255) NOT NULL DEFAULT '',
			INDEX idx_agents_code (code)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
