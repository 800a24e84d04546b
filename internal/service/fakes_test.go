package service

import (
	"context"
	"sync"
	"time"

	"loyalty-rewards-api/internal/cache"
	"loyalty-rewards-api/internal/model"
	"loyalty-rewards-api/internal/repository"
)

// fakeUnitRepo mirrors the store's conditional-update semantics in memory: a
// single mutex stands in for the row-level atomicity the SQL UPDATE provides.
type fakeUnitRepo struct {
	mu    sync.Mutex
	units map[string]*model.Unit
	err   error // when set, every method fails with it
}

func newFakeUnitRepo(units ...*model.Unit) *fakeUnitRepo {
	r := &fakeUnitRepo{units: make(map[string]*model.Unit)}
	for _, u := range units {
		r.units[u.ID] = u
	}
	return r
}

func (r *fakeUnitRepo) GetUnit(ctx context.Context, unitID string) (*model.Unit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.units[unitID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUnitRepo) ListCatalogue(ctx context.Context) ([]model.CatalogueItem, error) {
	return nil, r.err
}

func (r *fakeUnitRepo) ListUnitsByItem(ctx context.Context, itemID string) ([]model.Unit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []model.Unit
	for _, u := range r.units {
		if u.ItemID == itemID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUnitRepo) UpsertCatalogueItem(ctx context.Context, item model.CatalogueItem) error {
	return r.err
}

func (r *fakeUnitRepo) UpsertUnit(ctx context.Context, unit model.Unit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if existing, ok := r.units[unit.ID]; ok {
		// Reservation and redemption state survives a catalogue sync,
		// matching the SQL upserts.
		existing.ItemID = unit.ItemID
		existing.Label = unit.Label
		existing.TotalStock = unit.TotalStock
		existing.RemainingStock = unit.RemainingStock
		existing.UpdatedAt = unit.UpdatedAt
		return nil
	}
	cp := unit
	r.units[unit.ID] = &cp
	return nil
}

func (r *fakeUnitRepo) ReserveUnit(ctx context.Context, unitID, agentID, reference string, until, now time.Time, override bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
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
	u.UpdatedAt = now
	return true, nil
}

func (r *fakeUnitRepo) ReleaseUnit(ctx context.Context, unitID, agentID string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	u, ok := r.units[unitID]
	if !ok || u.ReservedBy != agentID || u.ReservedUntil == nil || !u.ReservedUntil.After(now) {
		return false, nil
	}
	u.ReservedBy = ""
	u.ReservedReference = ""
	u.ReservedUntil = nil
	return true, nil
}

func (r *fakeUnitRepo) ExpireReservations(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
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

func (r *fakeUnitRepo) FindActiveReservationByReference(ctx context.Context, reference string, now time.Time) (*model.Unit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.units {
		if u.ReservedReference == reference && u.HasLiveReservation(now) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUnitRepo) Stats(ctx context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{"total_units": len(r.units)}, r.err
}

// fakeRedemptionRepo records completion calls and answers uniqueness lookups
// from a set of used references.
type fakeRedemptionRepo struct {
	mu          sync.Mutex
	used        map[string]bool
	completeErr error
	existsErr   error
	completed   []model.Redemption
	debits      []model.LedgerEntry
}

func newFakeRedemptionRepo(usedRefs ...string) *fakeRedemptionRepo {
	r := &fakeRedemptionRepo{used: make(map[string]bool)}
	for _, ref := range usedRefs {
		r.used[ref] = true
	}
	return r
}

func (r *fakeRedemptionRepo) ExistsByReference(ctx context.Context, reference string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.existsErr != nil {
		return false, r.existsErr
	}
	return r.used[reference], nil
}

func (r *fakeRedemptionRepo) CompleteRedemption(ctx context.Context, rdm model.Redemption, debit model.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.completeErr != nil {
		return r.completeErr
	}
	if r.used[rdm.Reference] {
		return repository.ErrReferenceUsed
	}
	r.used[rdm.Reference] = true
	r.completed = append(r.completed, rdm)
	r.debits = append(r.debits, debit)
	return nil
}

// fakeLedgerRepo stores entries in memory keyed on their external reference.
type fakeLedgerRepo struct {
	mu        sync.Mutex
	agents    map[string]model.Agent // by ID
	entries   []model.LedgerEntry
	byExtRef  map[string]bool
	upsertErr error
	listErr   error
}

func newFakeLedgerRepo(agents ...model.Agent) *fakeLedgerRepo {
	r := &fakeLedgerRepo{
		agents:   make(map[string]model.Agent),
		byExtRef: make(map[string]bool),
	}
	for _, a := range agents {
		r.agents[a.ID] = a
	}
	return r
}

func (r *fakeLedgerRepo) UpsertByExternalRef(ctx context.Context, entry model.LedgerEntry) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return false, r.upsertErr
	}
	if r.byExtRef[entry.ExternalRef] {
		return false, nil
	}
	r.byExtRef[entry.ExternalRef] = true
	r.entries = append(r.entries, entry)
	return true, nil
}

func (r *fakeLedgerRepo) InsertEntry(ctx context.Context, entry model.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeLedgerRepo) ListByAgent(ctx context.Context, agent model.Agent) ([]model.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []model.LedgerEntry
	for _, e := range r.entries {
		// Same predicate as the SQL backends: canonical id, or the agent
		// code for entries written without one.
		if e.AgentID == agent.ID || (agent.Code != "" && e.AgentCode == agent.Code) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) ResolveAgent(ctx context.Context, ref model.AgentRef) (*model.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ref.ID != "" {
		if a, ok := r.agents[ref.ID]; ok {
			return &a, nil
		}
		return nil, repository.ErrNotFound
	}
	for _, a := range r.agents {
		if a.Code == ref.Code {
			cp := a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeLedgerRepo) UpsertAgent(ctx context.Context, agent model.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[agent.ID] = agent
	return nil
}

// fakePointsCache counts operations and supports error injection so tests
// can assert the cache stays advisory.
type fakePointsCache struct {
	mu          sync.Mutex
	data        map[string]cache.CachedSummary
	getErr      error
	setErr      error
	invalErr    error
	gets        int
	sets        int
	invalidated []string
}

func newFakePointsCache() *fakePointsCache {
	return &fakePointsCache{data: make(map[string]cache.CachedSummary)}
}

func (c *fakePointsCache) Get(ctx context.Context, key string) (*cache.CachedSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return nil, c.getErr
	}
	if cs, ok := c.data[key]; ok {
		cp := cs
		return &cp, nil
	}
	return nil, nil
}

func (c *fakePointsCache) Set(ctx context.Context, key string, cs *cache.CachedSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	c.data[key] = *cs
	return nil
}

func (c *fakePointsCache) Invalidate(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.invalErr != nil {
		return c.invalErr
	}
	for _, k := range keys {
		delete(c.data, k)
		c.invalidated = append(c.invalidated, k)
	}
	return nil
}

// fakePendingHolds is a deterministic pending-hold store with error injection
// for the fail-closed paths.
type fakePendingHolds struct {
	mu         sync.Mutex
	holds      map[string]bool
	acquireErr error
	existsErr  error
	released   []string
}

func newFakePendingHolds(held ...string) *fakePendingHolds {
	s := &fakePendingHolds{holds: make(map[string]bool)}
	for _, ref := range held {
		s.holds[ref] = true
	}
	return s
}

func (s *fakePendingHolds) Acquire(ctx context.Context, reference string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.acquireErr != nil {
		return false, s.acquireErr
	}
	if s.holds[reference] {
		return false, nil
	}
	s.holds[reference] = true
	return true, nil
}

func (s *fakePendingHolds) Exists(ctx context.Context, reference string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.existsErr != nil {
		return false, s.existsErr
	}
	return s.holds[reference], nil
}

func (s *fakePendingHolds) Release(ctx context.Context, reference string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.holds, reference)
	s.released = append(s.released, reference)
	return nil
}
