package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"loyalty-rewards-api/internal/model"
)

// SQLiteRedemptionRepository implements RedemptionRepository using SQLite.
type SQLiteRedemptionRepository struct {
	db *sql.DB
}

// NewSQLiteRedemptionRepository creates a new SQLite redemption repository.
func NewSQLiteRedemptionRepository(db *sql.DB) *SQLiteRedemptionRepository {
	return &SQLiteRedemptionRepository{db: db}
}

// ExistsByReference reports whether a completed redemption was recorded
// under the canonical reference.
func (r *SQLiteRedemptionRepository) ExistsByReference(ctx context.Context, reference string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM redemptions WHERE reference = ?`, reference).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check redemption reference: %w", err)
	}
	return count > 0, nil
}

// CompleteRedemption promotes a live reservation into a permanent redemption
// record in one transaction. The unit update is conditional on the caller
// still holding a live reservation and stock remaining; the redemptions
// reference column is the uniqueness backstop behind the verifier.
func (r *SQLiteRedemptionRepository) CompleteRedemption(ctx context.Context, rdm model.Redemption, debit model.LedgerEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin redemption tx: %w", err)
	}
	defer tx.Rollback()

	now := rdm.CompletedAt

	res, err := tx.ExecContext(ctx, `
		UPDATE units
		SET redeemed = 1, remaining_stock = remaining_stock - 1,
			reserved_by = '', reserved_reference = '', reserved_until = NULL, updated_at = ?
		WHERE id = ? AND reserved_by = ?
			AND reserved_until IS NOT NULL AND reserved_until > ?
			AND remaining_stock > 0`,
		now, rdm.UnitID, rdm.AgentID, now)
	if err != nil {
		return fmt.Errorf("failed to redeem unit: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to redeem unit: %w", err)
	}
	if affected == 0 {
		return classifyRedeemFailure(ctx, tx, rdm, now)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO redemptions (id, unit_id, agent_id, reference, points, completed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rdm.ID, rdm.UnitID, rdm.AgentID, rdm.Reference, rdm.Points, rdm.CompletedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return ErrReferenceUsed
		}
		return fmt.Errorf("failed to insert redemption: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ledger_entries (id, agent_id, agent_code, points, category, status, external_ref, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		debit.ID, debit.AgentID, debit.AgentCode, debit.Points, debit.Category,
		debit.Status, nullableRef(debit.ExternalRef), debit.Description, debit.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert redemption ledger entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit redemption: %w", err)
	}
	return nil
}
