package service

import (
	"context"
	"time"

	"loyalty-rewards-api/internal/cache"
	"loyalty-rewards-api/internal/clock"
	"loyalty-rewards-api/internal/model"
	"loyalty-rewards-api/internal/repository"
)

const defaultPendingHoldTTL = 90 * time.Second

// VerifyStatus classifies the outcome of a reference verification.
type VerifyStatus string

const (
	VerifyOK          VerifyStatus = "ok"
	VerifyInvalid     VerifyStatus = "invalid"
	VerifyConflict    VerifyStatus = "conflict"
	VerifyUnavailable VerifyStatus = "unavailable"
)

// Failure reason tags surfaced to clients.
const (
	ReasonInvalidInput = "invalid_input"
	ReasonAlreadyUsed  = "already_used"
)

// VerifyResult describes a verification outcome. Reference carries the
// normalized form on success and on conflicts, so clients can display what
// the input collided as.
type VerifyResult struct {
	Status    VerifyStatus
	Reason    string
	Message   string
	Reference string
}

// VerifierService enforces redemption reference uniqueness across the three
// sources a reference can live in: pending holds, active unit reservations,
// and completed redemptions. The check order is fixed - it decides which
// conflict message is surfaced, and each check assumes the previous ones
// already passed. Any lookup failure yields an unable-to-verify outcome,
// never a false "ok": this path guards scarce inventory and must fail closed.
type VerifierService struct {
	pending     cache.PendingHoldStore
	units       repository.UnitRepository
	redemptions repository.RedemptionRepository
	clk         clock.Clock
	pendingTTL  time.Duration
}

// VerifierOption configures a VerifierService.
type VerifierOption func(*VerifierService)

// WithPendingHoldTTL overrides the TTL of provisional holds taken by
// VerifyAndHold. This is deliberately independent from the reservation hold
// TTL and much shorter.
func WithPendingHoldTTL(d time.Duration) VerifierOption {
	return func(s *VerifierService) {
		if d > 0 {
			s.pendingTTL = d
		}
	}
}

// NewVerifierService creates a new verifier service.
func NewVerifierService(pending cache.PendingHoldStore, units repository.UnitRepository, redemptions repository.RedemptionRepository, clk clock.Clock, opts ...VerifierOption) *VerifierService {
	s := &VerifierService{
		pending:     pending,
		units:       units,
		redemptions: redemptions,
		clk:         clk,
		pendingTTL:  defaultPendingHoldTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify normalizes the raw reference and runs the ordered three-source
// uniqueness check without taking a provisional hold.
func (s *VerifierService) Verify(ctx context.Context, raw string) VerifyResult {
	reference, err := model.NormalizeReference(raw)
	if err != nil {
		return VerifyResult{
			Status:  VerifyInvalid,
			Reason:  ReasonInvalidInput,
			Message: "redemption reference is missing or malformed",
		}
	}

	// Check 1: provisional holds with an unexpired TTL.
	held, err := s.pending.Exists(ctx, reference)
	if err != nil {
		return unavailableResult(reference)
	}
	if held {
		return VerifyResult{
			Status:    VerifyConflict,
			Reason:    ReasonAlreadyUsed,
			Message:   "this reference is already being processed",
			Reference: reference,
		}
	}

	// Check 2: live unit reservations recorded under this reference.
	unit, err := s.units.FindActiveReservationByReference(ctx, reference, s.clk.Now())
	if err != nil {
		return unavailableResult(reference)
	}
	if unit != nil {
		return VerifyResult{
			Status:    VerifyConflict,
			Reason:    ReasonAlreadyUsed,
			Message:   "this reference is already reserved on another unit",
			Reference: reference,
		}
	}

	// Check 3: completed redemptions.
	used, err := s.redemptions.ExistsByReference(ctx, reference)
	if err != nil {
		return unavailableResult(reference)
	}
	if used {
		return VerifyResult{
			Status:    VerifyConflict,
			Reason:    ReasonAlreadyUsed,
			Message:   "this reference was already used on a previous redemption",
			Reference: reference,
		}
	}

	return VerifyResult{Status: VerifyOK, Reference: reference}
}

// VerifyAndHold runs Verify and, on success, claims a provisional hold on
// the reference so concurrent verifications of the same code see "already
// being processed" until a full reservation replaces the hold or its TTL
// lapses.
func (s *VerifierService) VerifyAndHold(ctx context.Context, raw string) VerifyResult {
	res := s.Verify(ctx, raw)
	if res.Status != VerifyOK {
		return res
	}

	acquired, err := s.pending.Acquire(ctx, res.Reference, s.pendingTTL)
	if err != nil {
		return unavailableResult(res.Reference)
	}
	if !acquired {
		return VerifyResult{
			Status:    VerifyConflict,
			Reason:    ReasonAlreadyUsed,
			Message:   "this reference is already being processed",
			Reference: res.Reference,
		}
	}
	return res
}

func unavailableResult(reference string) VerifyResult {
	return VerifyResult{
		Status:    VerifyUnavailable,
		Message:   "unable to verify reference, please try again",
		Reference: reference,
	}
}
