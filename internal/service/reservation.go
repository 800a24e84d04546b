package service

import (
	"context"
	"log"
	"time"

	"loyalty-rewards-api/internal/cache"
	"loyalty-rewards-api/internal/clock"
	"loyalty-rewards-api/internal/model"
	"loyalty-rewards-api/internal/repository"
)

const defaultHoldTTL = 15 * time.Minute

// ReserveStatus classifies the outcome of a reservation attempt. Conflicts
// are ordinary results, not errors: callers branch on the status, and errors
// are reserved for store failures.
type ReserveStatus string

const (
	ReserveOK         ReserveStatus = "reserved"
	ReserveConflict   ReserveStatus = "conflict"
	ReserveOutOfStock ReserveStatus = "out_of_stock"
	ReserveNotFound   ReserveStatus = "not_found"
)

// ReserveOutcome describes the result of a create call. ExpiresAt carries
// the hold expiry on success, or the competing hold's expiry on conflict so
// the caller can tell the user when a retry is sensible.
type ReserveOutcome struct {
	Status    ReserveStatus
	Message   string
	UnitID    string
	ExpiresAt *time.Time
}

// CreateReservationInput carries the parameters of a reservation attempt.
// Duration of zero selects the configured default hold TTL. Override
// bypasses the stock check only; every other invariant still applies.
type CreateReservationInput struct {
	UnitID    string
	AgentID   string
	Reference string // raw, normalized here
	Duration  time.Duration
	Override  bool
}

// ReservationService grants, releases and expires exclusive holds on units.
// Mutual exclusion is delegated entirely to the store's compare-and-set
// updates; the service itself keeps no cross-request state.
type ReservationService struct {
	units   repository.UnitRepository
	pending cache.PendingHoldStore
	clk     clock.Clock
	holdTTL time.Duration
}

// ReservationOption configures a ReservationService.
type ReservationOption func(*ReservationService)

// WithHoldTTL overrides the default TTL for new holds.
func WithHoldTTL(d time.Duration) ReservationOption {
	return func(s *ReservationService) {
		if d > 0 {
			s.holdTTL = d
		}
	}
}

// NewReservationService creates a new reservation service.
func NewReservationService(units repository.UnitRepository, pending cache.PendingHoldStore, clk clock.Clock, opts ...ReservationOption) *ReservationService {
	s := &ReservationService{
		units:   units,
		pending: pending,
		clk:     clk,
		holdTTL: defaultHoldTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create attempts to place an exclusive hold on the unit. Exactly one of N
// concurrent callers succeeds; the rest receive a conflict outcome carrying
// the winning hold's expiry. A returned error means the store could not be
// reached and nothing can be said about the unit's state.
func (s *ReservationService) Create(ctx context.Context, in CreateReservationInput) (ReserveOutcome, error) {
	reference, err := model.NormalizeReference(in.Reference)
	if err != nil {
		return ReserveOutcome{}, err
	}

	duration := in.Duration
	if duration <= 0 {
		duration = s.holdTTL
	}

	now := s.clk.Now()
	until := now.Add(duration)

	ok, err := s.units.ReserveUnit(ctx, in.UnitID, in.AgentID, reference, until, now, in.Override)
	if err != nil {
		return ReserveOutcome{}, err
	}

	if ok {
		if in.Override {
			log.Printf("[ReservationService] stock check bypassed by override: unit=%s agent=%s ref=%s",
				in.UnitID, in.AgentID, reference)
		}
		// The provisional hold taken at verification time is superseded by
		// the full reservation; failing to drop it only delays reuse by its TTL.
		if s.pending != nil {
			if err := s.pending.Release(ctx, reference); err != nil {
				log.Printf("[ReservationService] failed to release pending hold for %s: %v", reference, err)
			}
		}
		return ReserveOutcome{
			Status:    ReserveOK,
			Message:   "unit reserved",
			UnitID:    in.UnitID,
			ExpiresAt: &until,
		}, nil
	}

	// The compare-and-set lost; re-read to classify. The state may have
	// moved again since, which only affects the message, not correctness.
	unit, err := s.units.GetUnit(ctx, in.UnitID)
	if err != nil {
		if err == repository.ErrNotFound {
			return ReserveOutcome{Status: ReserveNotFound, Message: "unit not found"}, nil
		}
		return ReserveOutcome{}, err
	}

	switch {
	case unit.Redeemed:
		return ReserveOutcome{Status: ReserveConflict, Message: "unit has already been redeemed", UnitID: in.UnitID}, nil
	case unit.HasLiveReservation(now) && unit.ReservedBy != in.AgentID:
		return ReserveOutcome{
			Status:    ReserveConflict,
			Message:   "unit is already reserved by another agent",
			UnitID:    in.UnitID,
			ExpiresAt: unit.ReservedUntil,
		}, nil
	case unit.RemainingStock <= 0:
		return ReserveOutcome{Status: ReserveOutOfStock, Message: "unit has no remaining stock", UnitID: in.UnitID}, nil
	default:
		return ReserveOutcome{
			Status:  ReserveConflict,
			Message: "unit reservation state changed, please retry",
			UnitID:  in.UnitID,
		}, nil
	}
}

// Release clears the caller's hold. Only the current holder of a still-live
// reservation releases anything; for everyone else (wrong agent, expired or
// absent hold) this is a no-op reporting released=false.
func (s *ReservationService) Release(ctx context.Context, unitID, agentID string) (bool, error) {
	return s.units.ReleaseUnit(ctx, unitID, agentID, s.clk.Now())
}

// Sweep physically clears every expired hold and returns the count. Lazy
// expiry makes stale holds invisible to readers before this runs; the sweep
// just reclaims the rows.
func (s *ReservationService) Sweep(ctx context.Context) (int64, error) {
	count, err := s.units.ExpireReservations(ctx, s.clk.Now())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		log.Printf("[ReservationService] swept %d expired reservations", count)
	}
	return count, nil
}
