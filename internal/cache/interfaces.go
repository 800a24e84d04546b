package cache

import (
	"context"
	"strings"
	"time"

	"loyalty-rewards-api/internal/model"
)

// CachedSummary wraps a points summary with its insertion time. Cache
// entries are disposable: correctness depends only on timely invalidation,
// never on the cached value itself.
type CachedSummary struct {
	Summary  model.PointsSummary `json:"summary"`
	CachedAt time.Time           `json:"cached_at"`
}

// PointsCache is the read-through cache for per-agent points summaries.
// This abstraction allows swapping between memory cache (development)
// and Redis cache (production) without changing business logic.
type PointsCache interface {
	// Get retrieves a cached summary. Returns (nil, nil) on a miss or an
	// expired entry; errors indicate the cache backend itself failed.
	Get(ctx context.Context, key string) (*CachedSummary, error)

	// Set stores a summary under the key with the cache's configured TTL.
	Set(ctx context.Context, key string, cs *CachedSummary) error

	// Invalidate removes every listed key. Missing keys are not an error.
	Invalidate(ctx context.Context, keys ...string) error
}

// PendingHoldStore records short-lived provisional holds on redemption
// references, created when verification succeeds and before a full unit
// reservation exists. Lookups must fail closed: an error here means the
// verifier cannot vouch for uniqueness.
type PendingHoldStore interface {
	// Acquire claims the reference for ttl. Returns false when another
	// caller already holds an unexpired claim (set-if-absent semantics).
	Acquire(ctx context.Context, reference string, ttl time.Duration) (bool, error)

	// Exists reports whether an unexpired claim is recorded for the reference.
	Exists(ctx context.Context, reference string) (bool, error)

	// Release drops the claim. Releasing an absent claim is a no-op.
	Release(ctx context.Context, reference string) error
}

// SummaryKey derives the cache key for the (agentID, agentCode) pair. Either
// dimension may be empty; the two are independent addressing keys.
func SummaryKey(agentID, agentCode string) string {
	return "points:" + agentID + ":" + strings.ToLower(agentCode)
}

// SummaryKeyVariants returns every key under which a summary for this agent
// could plausibly have been cached: the full pair, agent-only, and
// code-only. The key space is not canonicalized to a single identity, so
// invalidation must clear all variants.
func SummaryKeyVariants(agentID, agentCode string) []string {
	seen := make(map[string]struct{}, 3)
	var keys []string
	add := func(k string) {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	add(SummaryKey(agentID, agentCode))
	if agentID != "" {
		add(SummaryKey(agentID, ""))
	}
	if agentCode != "" {
		add(SummaryKey("", agentCode))
	}
	return keys
}
