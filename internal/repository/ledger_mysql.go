package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"loyalty-rewards-api/internal/model"
)

// MySQLLedgerRepository implements LedgerRepository using MySQL.
type MySQLLedgerRepository struct {
	db *sql.DB
}

// NewMySQLLedgerRepository creates a new MySQL ledger repository.
func NewMySQLLedgerRepository(db *sql.DB) *MySQLLedgerRepository {
	return &MySQLLedgerRepository{db: db}
}

// UpsertByExternalRef writes a ledger entry keyed on its external reference.
// INSERT IGNORE against the unique key makes redelivery a no-op; the
// affected-row count reports whether this delivery created the row.
func (r *MySQLLedgerRepository) UpsertByExternalRef(ctx context.Context, entry model.LedgerEntry) (bool, error) {
	if entry.ExternalRef == "" {
		return false, errors.New("external reference required for idempotent ledger write")
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT IGNORE INTO ledger_entries
			(id, agent_id, agent_code, points, category, status, external_ref, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.AgentID, entry.AgentCode, entry.Points, entry.Category,
		entry.Status, entry.ExternalRef, entry.Description, entry.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to upsert ledger entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to upsert ledger entry: %w", err)
	}
	return affected > 0, nil
}

// InsertEntry writes a ledger entry with no idempotency key.
func (r *MySQLLedgerRepository) InsertEntry(ctx context.Context, entry model.LedgerEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ledger_entries
			(id, agent_id, agent_code, points, category, status, external_ref, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, NULL, ?, ?)`,
		entry.ID, entry.AgentID, entry.AgentCode, entry.Points, entry.Category,
		entry.Status, entry.Description, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	return nil
}

// ListByAgent returns all ledger entries for the agent, newest first.
// Payment-sourced entries may carry only the agent code (the webhook metadata
// is allowed to omit the opaque id), so matching on the canonical id alone
// would lose those credits.
func (r *MySQLLedgerRepository) ListByAgent(ctx context.Context, agent model.Agent) ([]model.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
			WHERE agent_id = ? OR (? <> '' AND agent_code = ?)
			ORDER BY created_at DESC, id`,
		agent.ID, agent.Code, agent.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []model.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// ResolveAgent resolves an AgentRef into a canonical agent. The opaque ID
// wins when both dimensions are supplied.
func (r *MySQLLedgerRepository) ResolveAgent(ctx context.Context, ref model.AgentRef) (*model.Agent, error) {
	if ref.IsZero() {
		return nil, ErrNotFound
	}

	var row *sql.Row
	if ref.ID != "" {
		row = r.db.QueryRowContext(ctx,
			`SELECT id, code, display_name FROM agents WHERE id = ?`, ref.ID)
	} else {
		row = r.db.QueryRowContext(ctx,
			`SELECT id, code, display_name FROM agents WHERE code = ? LIMIT 1`, ref.Code)
	}

	var a model.Agent
	if err := row.Scan(&a.ID, &a.Code, &a.DisplayName); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to resolve agent: %w", err)
	}
	return &a, nil
}

// UpsertAgent inserts or updates an agent by ID.
func (r *MySQLLedgerRepository) UpsertAgent(ctx context.Context, agent model.Agent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO agents (id, code, display_name) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE
			code = VALUES(code),
			display_name = VALUES(display_name)`,
		agent.ID, agent.Code, agent.DisplayName)
	if err != nil {
		return fmt.Errorf("failed to upsert agent: %w", err)
	}
	return nil
}
