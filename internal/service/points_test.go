package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loyalty-rewards-api/internal/cache"
	"loyalty-rewards-api/internal/clock"
	"loyalty-rewards-api/internal/model"
	"loyalty-rewards-api/internal/repository"
)

func seededLedger() *fakeLedgerRepo {
	ledger := newFakeLedgerRepo(model.Agent{ID: "agent-1", Code: "ACME", DisplayName: "Acme Corp"})
	ledger.entries = []model.LedgerEntry{
		{ID: "e1", AgentID: "agent-1", Points: 500, Category: model.LedgerCategoryTopUp, Status: model.LedgerStatusPosted},
		{ID: "e2", AgentID: "agent-1", Points: -120, Category: model.LedgerCategoryRedemption, Status: model.LedgerStatusPosted},
		{ID: "e3", AgentID: "agent-1", Points: 50, Category: model.LedgerCategoryTopUp, Status: model.LedgerStatusPending},
	}
	return ledger
}

func TestPointsService_Summary_MissThenHit(t *testing.T) {
	pointsCache := newFakePointsCache()
	svc := NewPointsService(seededLedger(), pointsCache, clock.NewFixed(testNow))

	summary, source, err := svc.Summary(context.Background(), model.AgentByID("agent-1"), false)
	require.NoError(t, err)
	assert.Equal(t, model.CacheMiss, source)
	assert.Equal(t, 380, summary.PostedTotal)
	assert.Equal(t, 50, summary.PendingTotal)
	assert.Equal(t, "Acme Corp", summary.DisplayName)
	assert.Len(t, summary.Records, 3)
	assert.Equal(t, 1, pointsCache.sets, "the miss must populate the cache")

	summary, source, err = svc.Summary(context.Background(), model.AgentByID("agent-1"), false)
	require.NoError(t, err)
	assert.Equal(t, model.CacheHit, source)
	assert.Equal(t, 380, summary.PostedTotal)
	assert.Equal(t, 1, pointsCache.sets, "a hit must not rewrite the cache")
}

func TestPointsService_Summary_FreshBypassesCache(t *testing.T) {
	pointsCache := newFakePointsCache()
	ledger := seededLedger()
	svc := NewPointsService(ledger, pointsCache, clock.NewFixed(testNow))

	_, _, err := svc.Summary(context.Background(), model.AgentByID("agent-1"), false)
	require.NoError(t, err)

	// New activity lands; a stale cached value now exists.
	ledger.entries = append(ledger.entries, model.LedgerEntry{
		ID: "e4", AgentID: "agent-1", Points: 1000,
		Category: model.LedgerCategoryTopUp, Status: model.LedgerStatusPosted,
	})

	summary, source, err := svc.Summary(context.Background(), model.AgentByID("agent-1"), true)
	require.NoError(t, err)
	assert.Equal(t, model.CacheRefresh, source)
	assert.Equal(t, 1380, summary.PostedTotal, "fresh must see the new entry")

	// The refresh repopulated the cache.
	summary, source, err = svc.Summary(context.Background(), model.AgentByID("agent-1"), false)
	require.NoError(t, err)
	assert.Equal(t, model.CacheHit, source)
	assert.Equal(t, 1380, summary.PostedTotal)
}

func TestPointsService_Summary_CacheFailureDegradesToLiveRead(t *testing.T) {
	pointsCache := newFakePointsCache()
	pointsCache.getErr = errors.New("cache down")
	pointsCache.setErr = errors.New("cache down")
	svc := NewPointsService(seededLedger(), pointsCache, clock.NewFixed(testNow))

	summary, source, err := svc.Summary(context.Background(), model.AgentByID("agent-1"), false)
	require.NoError(t, err, "cache failure must never fail the read")
	assert.Equal(t, model.CacheMiss, source)
	assert.Equal(t, 380, summary.PostedTotal)
}

func TestPointsService_Summary_UnknownAgent(t *testing.T) {
	svc := NewPointsService(seededLedger(), newFakePointsCache(), clock.NewFixed(testNow))

	_, _, err := svc.Summary(context.Background(), model.AgentByID("nobody"), false)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPointsService_Summary_EmptyRef(t *testing.T) {
	svc := NewPointsService(seededLedger(), newFakePointsCache(), clock.NewFixed(testNow))

	_, _, err := svc.Summary(context.Background(), model.AgentRef{}, false)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPointsService_Summary_ByCode(t *testing.T) {
	svc := NewPointsService(seededLedger(), newFakePointsCache(), clock.NewFixed(testNow))

	summary, _, err := svc.Summary(context.Background(), model.AgentByCode("ACME"), false)
	require.NoError(t, err)
	assert.Equal(t, 380, summary.PostedTotal)
}

func TestPointsService_Summary_NoEntries(t *testing.T) {
	ledger := newFakeLedgerRepo(model.Agent{ID: "agent-2", Code: "EMPTY"})
	svc := NewPointsService(ledger, newFakePointsCache(), clock.NewFixed(testNow))

	summary, _, err := svc.Summary(context.Background(), model.AgentByID("agent-2"), false)
	require.NoError(t, err)
	assert.NotNil(t, summary.Records, "records serializes as [], not null")
	assert.Empty(t, summary.Records)
	assert.Zero(t, summary.PostedTotal)
}

func TestPointsService_Invalidate_ClearsAllKeyVariants(t *testing.T) {
	pointsCache := newFakePointsCache()
	svc := NewPointsService(seededLedger(), pointsCache, clock.NewFixed(testNow))

	require.NoError(t, svc.Invalidate(context.Background(), "agent-1", "ACME"))

	assert.ElementsMatch(t, []string{
		cache.SummaryKey("agent-1", "ACME"),
		cache.SummaryKey("agent-1", ""),
		cache.SummaryKey("", "ACME"),
	}, pointsCache.invalidated)
}

func TestPointsService_Invalidate_EvictsCachedSummary(t *testing.T) {
	// A summary cached under the id-only key must be gone after an
	// invalidation addressed with both id and code.
	pointsCache := newFakePointsCache()
	ledger := seededLedger()
	svc := NewPointsService(ledger, pointsCache, clock.NewFixed(testNow))

	_, _, err := svc.Summary(context.Background(), model.AgentByID("agent-1"), false)
	require.NoError(t, err)

	require.NoError(t, svc.Invalidate(context.Background(), "agent-1", "ACME"))

	_, source, err := svc.Summary(context.Background(), model.AgentByID("agent-1"), false)
	require.NoError(t, err)
	assert.Equal(t, model.CacheMiss, source)
}
