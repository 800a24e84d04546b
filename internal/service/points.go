package service

import (
	"context"
	"log"

	"loyalty-rewards-api/internal/cache"
	"loyalty-rewards-api/internal/clock"
	"loyalty-rewards-api/internal/model"
	"loyalty-rewards-api/internal/repository"
)

// PointsService serves per-agent points summaries through a short-TTL
// read-through cache. The cache is advisory: every cache failure degrades to
// a live ledger read, and the reservation/redemption paths never consult it.
type PointsService struct {
	ledger repository.LedgerRepository
	cache  cache.PointsCache
	clk    clock.Clock
}

// NewPointsService creates a new points service.
func NewPointsService(ledger repository.LedgerRepository, pointsCache cache.PointsCache, clk clock.Clock) *PointsService {
	return &PointsService{ledger: ledger, cache: pointsCache, clk: clk}
}

// Summary returns the points summary for the addressed agent along with how
// it was produced (cache hit, miss, or forced refresh). fresh bypasses the
// cache and repopulates it.
func (s *PointsService) Summary(ctx context.Context, ref model.AgentRef, fresh bool) (*model.PointsSummary, model.CacheSource, error) {
	if ref.IsZero() {
		return nil, "", repository.ErrNotFound
	}

	key := cache.SummaryKey(ref.ID, ref.Code)

	if !fresh {
		cs, err := s.cache.Get(ctx, key)
		if err != nil {
			// Degrade to a live read; the cache never gates correctness.
			log.Printf("[PointsService] cache read failed for %s: %v", key, err)
		} else if cs != nil {
			summary := cs.Summary
			return &summary, model.CacheHit, nil
		}
	}

	agent, err := s.ledger.ResolveAgent(ctx, ref)
	if err != nil {
		return nil, "", err
	}

	entries, err := s.ledger.ListByAgent(ctx, *agent)
	if err != nil {
		return nil, "", err
	}

	summary := computeSummary(agent, entries)

	if err := s.cache.Set(ctx, key, &cache.CachedSummary{Summary: *summary, CachedAt: s.clk.Now()}); err != nil {
		log.Printf("[PointsService] cache write failed for %s: %v", key, err)
	}

	source := model.CacheMiss
	if fresh {
		source = model.CacheRefresh
	}
	return summary, source, nil
}

// Invalidate clears every cache-key variant the agent's summary could have
// been populated under: the full pair, agent-only, and code-only.
func (s *PointsService) Invalidate(ctx context.Context, agentID, agentCode string) error {
	keys := cache.SummaryKeyVariants(agentID, agentCode)
	return s.cache.Invalidate(ctx, keys...)
}

func computeSummary(agent *model.Agent, entries []model.LedgerEntry) *model.PointsSummary {
	summary := &model.PointsSummary{
		Records:     entries,
		DisplayName: agent.DisplayName,
	}
	for _, e := range entries {
		switch e.Status {
		case model.LedgerStatusPosted:
			summary.PostedTotal += e.Points
		case model.LedgerStatusPending:
			summary.PendingTotal += e.Points
		}
	}
	if summary.Records == nil {
		summary.Records = []model.LedgerEntry{}
	}
	return summary
}
