package handler

import (
	"context"
	"sync"
	"time"

	"loyalty-rewards-api/internal/model"
	"loyalty-rewards-api/internal/repository"
)

// stubUnitRepo is a minimal in-memory UnitRepository for handler tests. The
// conditional reserve/release semantics mirror the SQL stores.
type stubUnitRepo struct {
	mu    sync.Mutex
	units map[string]*model.Unit
}

func newStubUnitRepo(units ...*model.Unit) *stubUnitRepo {
	r := &stubUnitRepo{units: make(map[string]*model.Unit)}
	for _, u := range units {
		r.units[u.ID] = u
	}
	return r
}

func (r *stubUnitRepo) GetUnit(ctx context.Context, unitID string) (*model.Unit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.units[unitID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *stubUnitRepo) ListCatalogue(ctx context.Context) ([]model.CatalogueItem, error) {
	return nil, nil
}

func (r *stubUnitRepo) ListUnitsByItem(ctx context.Context, itemID string) ([]model.Unit, error) {
	return nil, nil
}

func (r *stubUnitRepo) UpsertCatalogueItem(ctx context.Context, item model.CatalogueItem) error {
	return nil
}

func (r *stubUnitRepo) UpsertUnit(ctx context.Context, unit model.Unit) error {
	return nil
}

func (r *stubUnitRepo) ReserveUnit(ctx context.Context, unitID, agentID, reference string, until, now time.Time, override bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.units[unitID]
	if !ok || u.Redeemed {
		return false, nil
	}
	if u.RemainingStock <= 0 && !override {
		return false, nil
	}
	free := u.ReservedBy == "" || u.ReservedBy == agentID ||
		u.ReservedUntil == nil || !u.ReservedUntil.After(now)
	if !free {
		return false, nil
	}
	u.ReservedBy = agentID
	u.ReservedReference = reference
	u.ReservedUntil = &until
	return true, nil
}

func (r *stubUnitRepo) ReleaseUnit(ctx context.Context, unitID, agentID string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.units[unitID]
	if !ok || u.ReservedBy != agentID || u.ReservedUntil == nil || !u.ReservedUntil.After(now) {
		return false, nil
	}
	u.ReservedBy = ""
	u.ReservedReference = ""
	u.ReservedUntil = nil
	return true, nil
}

func (r *stubUnitRepo) ExpireReservations(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, u := range r.units {
		if u.ReservedBy != "" && u.ReservedUntil != nil && !u.ReservedUntil.After(now) {
			u.ReservedBy = ""
			u.ReservedReference = ""
			u.ReservedUntil = nil
			count++
		}
	}
	return count, nil
}

func (r *stubUnitRepo) FindActiveReservationByReference(ctx context.Context, reference string, now time.Time) (*model.Unit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.units {
		if u.ReservedReference == reference && u.HasLiveReservation(now) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *stubUnitRepo) Stats(ctx context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{"total_units": len(r.units)}, nil
}

// stubLedgerRepo backs the webhook handler tests.
type stubLedgerRepo struct {
	mu       sync.Mutex
	byExtRef map[string]bool
	entries  []model.LedgerEntry
}

func newStubLedgerRepo() *stubLedgerRepo {
	return &stubLedgerRepo{byExtRef: make(map[string]bool)}
}

func (r *stubLedgerRepo) UpsertByExternalRef(ctx context.Context, entry model.LedgerEntry) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byExtRef[entry.ExternalRef] {
		return false, nil
	}
	r.byExtRef[entry.ExternalRef] = true
	r.entries = append(r.entries, entry)
	return true, nil
}

func (r *stubLedgerRepo) InsertEntry(ctx context.Context, entry model.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *stubLedgerRepo) ListByAgent(ctx context.Context, agent model.Agent) ([]model.LedgerEntry, error) {
	return nil, nil
}

func (r *stubLedgerRepo) ResolveAgent(ctx context.Context, ref model.AgentRef) (*model.Agent, error) {
	return &model.Agent{ID: ref.ID, Code: ref.Code}, nil
}

func (r *stubLedgerRepo) UpsertAgent(ctx context.Context, agent model.Agent) error {
	return nil
}
