package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"loyalty-rewards-api/internal/model"
)

// SQLiteUnitRepository implements UnitRepository using SQLite. SQLite
// serializes writers, so the conditional UPDATE discipline used here behaves
// identically to the MySQL backend under concurrency.
type SQLiteUnitRepository struct {
	db *sql.DB
}

// NewSQLiteUnitRepository creates a new SQLite unit repository.
func NewSQLiteUnitRepository(db *sql.DB) *SQLiteUnitRepository {
	return &SQLiteUnitRepository{db: db}
}

// GetUnit retrieves a single unit by ID.
func (r *SQLiteUnitRepository) GetUnit(ctx context.Context, unitID string) (*model.Unit, error) {
	query := `SELECT ` + unitColumns + ` FROM units WHERE id = ?`

	unit, err := scanUnit(r.db.QueryRowContext(ctx, query, unitID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}
	return unit, nil
}

// ListCatalogue returns all catalogue items ordered by name.
func (r *SQLiteUnitRepository) ListCatalogue(ctx context.Context) ([]model.CatalogueItem, error) {
	query := `SELECT id, name, description, points_cost, created_at, updated_at
		FROM catalogue_items ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalogue: %w", err)
	}
	defer rows.Close()

	var items []model.CatalogueItem
	for rows.Next() {
		var it model.CatalogueItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Description, &it.PointsCost, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan catalogue item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListUnitsByItem returns all units belonging to a catalogue item.
func (r *SQLiteUnitRepository) ListUnitsByItem(ctx context.Context, itemID string) ([]model.Unit, error) {
	query := `SELECT ` + unitColumns + ` FROM units WHERE item_id = ? ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	defer rows.Close()

	var units []model.Unit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan unit: %w", err)
		}
		units = append(units, *u)
	}
	return units, rows.Err()
}

// UpsertCatalogueItem inserts or updates a catalogue item by ID.
func (r *SQLiteUnitRepository) UpsertCatalogueItem(ctx context.Context, item model.CatalogueItem) error {
	query := `
		INSERT INTO catalogue_items (id, name, description, points_cost, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			points_cost = excluded.points_cost,
			updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.Name, item.Description, item.PointsCost, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert catalogue item: %w", err)
	}
	return nil
}

// UpsertUnit inserts or updates a unit by ID. Reservation fields are left
// untouched on update so a running sync cannot clobber an active hold.
func (r *SQLiteUnitRepository) UpsertUnit(ctx context.Context, unit model.Unit) error {
	query := `
		INSERT INTO units (id, item_id, label, total_stock, remaining_stock,
			reserved_by, reserved_reference, reserved_until, redeemed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, '', '', NULL, 0, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			item_id = excluded.item_id,
			label = excluded.label,
			total_stock = excluded.total_stock,
			remaining_stock = excluded.remaining_stock,
			updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		unit.ID, unit.ItemID, unit.Label, unit.TotalStock, unit.RemainingStock,
		unit.CreatedAt, unit.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert unit: %w", err)
	}
	return nil
}

// ReserveUnit atomically places a hold via a conditional UPDATE. The WHERE
// clause encodes the compare-and-set: the write lands only when the unit is
// unredeemed, has stock (unless override), and its current reservation is
// absent, expired, or held by the same agent.
func (r *SQLiteUnitRepository) ReserveUnit(ctx context.Context, unitID, agentID, reference string, until, now time.Time, override bool) (bool, error) {
	query := `
		UPDATE units
		SET reserved_by = ?, reserved_reference = ?, reserved_until = ?, updated_at = ?
		WHERE id = ? AND redeemed = 0
			AND (remaining_stock > 0 OR ?)
			AND (reserved_by = '' OR reserved_by = ? OR reserved_until IS NULL OR reserved_until <= ?)`

	res, err := r.db.ExecContext(ctx, query,
		agentID, reference, until, now, unitID, override, agentID, now)
	if err != nil {
		return false, fmt.Errorf("failed to reserve unit: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to reserve unit: %w", err)
	}
	return affected > 0, nil
}

// ReleaseUnit clears the reservation only when agentID holds a live hold.
func (r *SQLiteUnitRepository) ReleaseUnit(ctx context.Context, unitID, agentID string, now time.Time) (bool, error) {
	query := `
		UPDATE units
		SET reserved_by = '', reserved_reference = '', reserved_until = NULL, updated_at = ?
		WHERE id = ? AND reserved_by = ? AND reserved_until IS NOT NULL AND reserved_until > ?`

	res, err := r.db.ExecContext(ctx, query, now, unitID, agentID, now)
	if err != nil {
		return false, fmt.Errorf("failed to release unit: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to release unit: %w", err)
	}
	return affected > 0, nil
}

// ExpireReservations clears every stale hold in one conditional UPDATE and
// returns the count. Overlapping sweeps cannot double-count: the second
// sweep's WHERE clause no longer matches the rows the first one cleared.
func (r *SQLiteUnitRepository) ExpireReservations(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE units
		SET reserved_by = '', reserved_reference = '', reserved_until = NULL, updated_at = ?
		WHERE reserved_by <> '' AND reserved_until IS NOT NULL AND reserved_until <= ?`

	res, err := r.db.ExecContext(ctx, query, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire reservations: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to expire reservations: %w", err)
	}
	return affected, nil
}

// FindActiveReservationByReference returns the unit carrying a live
// reservation under the canonical reference, or nil when none exists.
func (r *SQLiteUnitRepository) FindActiveReservationByReference(ctx context.Context, reference string, now time.Time) (*model.Unit, error) {
	query := `SELECT ` + unitColumns + ` FROM units
		WHERE reserved_reference = ? AND reserved_until IS NOT NULL AND reserved_until > ?
		LIMIT 1`

	unit, err := scanUnit(r.db.QueryRowContext(ctx, query, reference, now))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find reservation by reference: %w", err)
	}
	return unit, nil
}

// Stats returns statistics about the unit store.
func (r *SQLiteUnitRepository) Stats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var totalUnits, reservedUnits, redeemedUnits, items int64
	now := time.Now().UTC()

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM units`).Scan(&totalUnits); err != nil {
		return nil, fmt.Errorf("failed to count units: %w", err)
	}
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM units WHERE reserved_by <> '' AND reserved_until > ?`, now).Scan(&reservedUnits); err != nil {
		return nil, fmt.Errorf("failed to count reserved units: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM units WHERE redeemed = 1`).Scan(&redeemedUnits); err != nil {
		return nil, fmt.Errorf("failed to count redeemed units: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM catalogue_items`).Scan(&items); err != nil {
		return nil, fmt.Errorf("failed to count catalogue items: %w", err)
	}

	stats["units_total"] = totalUnits
	stats["units_reserved"] = reservedUnits
	stats["units_redeemed"] = redeemedUnits
	stats["catalogue_items"] = items
	return stats, nil
}
