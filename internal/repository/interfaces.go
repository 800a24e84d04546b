package repository

import (
	"context"
	"time"

	"loyalty-rewards-api/internal/model"
)

// UnitRepository defines data access for catalogue items, units and the
// reservation fields on units. All reservation mutations are conditional
// (compare-and-set against the currently observed reservation state) so that
// concurrent callers across process instances cannot lose updates; the
// atomicity lives in the store, never in an in-process lock.
type UnitRepository interface {
	// GetUnit retrieves a single unit. Returns ErrNotFound when missing.
	GetUnit(ctx context.Context, unitID string) (*model.Unit, error)

	// ListCatalogue returns all catalogue items.
	ListCatalogue(ctx context.Context) ([]model.CatalogueItem, error)

	// ListUnitsByItem returns all units belonging to a catalogue item.
	ListUnitsByItem(ctx context.Context, itemID string) ([]model.Unit, error)

	// UpsertCatalogueItem inserts or updates a catalogue item by ID.
	UpsertCatalogueItem(ctx context.Context, item model.CatalogueItem) error

	// UpsertUnit inserts or updates a unit by ID. Reservation fields are
	// never touched by the upsert; only catalogue-sync attributes are.
	UpsertUnit(ctx context.Context, unit model.Unit) error

	// ReserveUnit atomically places a hold on the unit: it succeeds only if
	// the unit is not redeemed, has stock remaining (unless override), and is
	// either unreserved, expired-reserved, or already held by the same agent.
	// Returns true when the hold was taken, false when the compare-and-set
	// lost (caller should re-read the unit to classify the conflict).
	ReserveUnit(ctx context.Context, unitID, agentID, reference string, until, now time.Time, override bool) (bool, error)

	// ReleaseUnit clears the reservation if agentID holds a still-live hold.
	// Returns false when there was nothing to release; never an error for
	// an expired or absent hold.
	ReleaseUnit(ctx context.Context, unitID, agentID string, now time.Time) (bool, error)

	// ExpireReservations clears every reservation whose expiry is at or
	// before now and returns the number of holds cleared. Safe to run
	// concurrently with itself and with ReserveUnit/ReleaseUnit.
	ExpireReservations(ctx context.Context, now time.Time) (int64, error)

	// FindActiveReservationByReference returns the unit holding a live
	// reservation recorded under the canonical reference, or nil when none.
	FindActiveReservationByReference(ctx context.Context, reference string, now time.Time) (*model.Unit, error)

	// Stats returns store statistics for the admin surface.
	Stats(ctx context.Context) (map[string]interface{}, error)
}

// RedemptionRepository defines access to completed redemption records and the
// redemption completion transaction.
type RedemptionRepository interface {
	// ExistsByReference reports whether a completed redemption was recorded
	// under the canonical reference.
	ExistsByReference(ctx context.Context, reference string) (bool, error)

	// CompleteRedemption promotes a live reservation into a permanent
	// redemption record in one transaction: decrements stock, marks the unit
	// redeemed, clears the reservation, writes the redemption row and the
	// debit ledger entry. Returns ErrNotHeld when agentID does not hold a
	// live reservation on the unit, ErrOutOfStock when stock is exhausted,
	// and ErrReferenceUsed when the reference backstop constraint fires.
	CompleteRedemption(ctx context.Context, rdm model.Redemption, debit model.LedgerEntry) error
}

// LedgerRepository defines access to points ledger entries and agent
// identity resolution.
type LedgerRepository interface {
	// UpsertByExternalRef writes a ledger entry keyed on entry.ExternalRef.
	// Redelivery of the same external reference leaves the existing row
	// untouched; created reports whether a new row was written.
	UpsertByExternalRef(ctx context.Context, entry model.LedgerEntry) (created bool, err error)

	// InsertEntry writes a ledger entry with no idempotency key.
	InsertEntry(ctx context.Context, entry model.LedgerEntry) error

	// ListByAgent returns all ledger entries for the resolved agent, newest
	// first.
	ListByAgent(ctx context.Context, agent model.Agent) ([]model.LedgerEntry, error)

	// ResolveAgent resolves an AgentRef (id, code, or both) into a canonical
	// agent. Returns ErrNotFound when no agent matches.
	ResolveAgent(ctx context.Context, ref model.AgentRef) (*model.Agent, error)

	// UpsertAgent inserts or updates an agent by ID.
	UpsertAgent(ctx context.Context, agent model.Agent) error
}
