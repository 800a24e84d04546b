package model

import "time"

// Ledger entry categories.
const (
	LedgerCategoryTopUp      = "topup"
	LedgerCategoryRedemption = "redemption"
	LedgerCategoryExpiry     = "expiry"
	LedgerCategoryAdjustment = "adjustment"
)

// Ledger entry statuses.
const (
	LedgerStatusPosted  = "posted"
	LedgerStatusPending = "pending"
)

// LedgerEntry is an immutable points accounting row. Points are signed:
// top-ups are positive, redemptions and expirations negative. ExternalRef,
// when set, is the idempotency key for payment-sourced entries and maps to
// at most one row.
type LedgerEntry struct {
	ID          string    `json:"id"`
	AgentID     string    `json:"agent_id"`
	AgentCode   string    `json:"agent_code,omitempty"`
	Points      int       `json:"points"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	ExternalRef string    `json:"external_ref,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// PointsSummary is the derived per-agent view served by the points read path.
type PointsSummary struct {
	Records      []LedgerEntry `json:"records"`
	DisplayName  string        `json:"display_name,omitempty"`
	PostedTotal  int           `json:"posted_total"`
	PendingTotal int           `json:"pending_total"`
}

// CacheSource indicates how a points summary was produced.
type CacheSource string

const (
	CacheHit     CacheSource = "hit"     // served from cache within TTL
	CacheMiss    CacheSource = "miss"    // not cached, recomputed from the ledger
	CacheRefresh CacheSource = "refresh" // caller forced a fresh read
)

// Redemption is the permanent record written when a reserved unit is
// redeemed. The reference column carries a uniqueness constraint as a
// last-resort backstop behind the verifier's ordered checks.
type Redemption struct {
	ID          string    `json:"id"`
	UnitID      string    `json:"unit_id"`
	AgentID     string    `json:"agent_id"`
	Reference   string    `json:"reference"`
	Points      int       `json:"points"`
	CompletedAt time.Time `json:"completed_at"`
}
