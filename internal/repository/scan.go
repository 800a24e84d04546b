package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"loyalty-rewards-api/internal/model"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const unitColumns = `id, item_id, label, total_stock, remaining_stock,
	reserved_by, reserved_reference, reserved_until, redeemed, created_at, updated_at`

func scanUnit(s rowScanner) (*model.Unit, error) {
	var u model.Unit
	var until sql.NullTime
	err := s.Scan(
		&u.ID, &u.ItemID, &u.Label, &u.TotalStock, &u.RemainingStock,
		&u.ReservedBy, &u.ReservedReference, &until, &u.Redeemed,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if until.Valid {
		t := until.Time.UTC()
		u.ReservedUntil = &t
	}
	return &u, nil
}

const ledgerColumns = `id, agent_id, agent_code, points, category, status,
	external_ref, description, created_at`

func scanLedgerEntry(s rowScanner) (*model.LedgerEntry, error) {
	var e model.LedgerEntry
	var extRef sql.NullString
	err := s.Scan(
		&e.ID, &e.AgentID, &e.AgentCode, &e.Points, &e.Category, &e.Status,
		&extRef, &e.Description, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if extRef.Valid {
		e.ExternalRef = extRef.String
	}
	return &e, nil
}

// nullableRef maps an empty external reference onto SQL NULL so that entries
// without an idempotency key never collide on the unique index.
func nullableRef(ref string) interface{} {
	if ref == "" {
		return nil
	}
	return ref
}

// classifyRedeemFailure re-reads the unit inside the transaction after a
// failed conditional redeem to report why the compare-and-set lost.
func classifyRedeemFailure(ctx context.Context, tx *sql.Tx, rdm model.Redemption, now time.Time) error {
	unit, err := scanUnit(tx.QueryRowContext(ctx,
		`SELECT `+unitColumns+` FROM units WHERE id = ?`, rdm.UnitID))
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("failed to classify redeem failure: %w", err)
	}
	if !unit.HeldBy(rdm.AgentID, now) {
		return ErrNotHeld
	}
	if unit.RemainingStock <= 0 {
		return ErrOutOfStock
	}
	return ErrNotHeld
}
