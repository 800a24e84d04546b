package service

import (
	"context"
	"log"

	"loyalty-rewards-api/internal/cache"
	"loyalty-rewards-api/internal/clock"
	"loyalty-rewards-api/internal/model"
	"loyalty-rewards-api/internal/repository"
	"loyalty-rewards-api/pkg/uid"
)

// CompleteStatus classifies the outcome of a redemption completion.
type CompleteStatus string

const (
	CompleteOK            CompleteStatus = "completed"
	CompleteInvalid       CompleteStatus = "invalid"
	CompleteNotFound      CompleteStatus = "not_found"
	CompleteNotHeld       CompleteStatus = "not_held"
	CompleteOutOfStock    CompleteStatus = "out_of_stock"
	CompleteReferenceUsed CompleteStatus = "reference_used"
)

// CompleteOutcome describes the result of a completion attempt.
type CompleteOutcome struct {
	Status    CompleteStatus
	Message   string
	Reference string
}

// CompleteRedemptionInput carries the parameters of a completion. Points is
// the cost debited from the agent's ledger.
type CompleteRedemptionInput struct {
	UnitID    string
	AgentID   string
	AgentCode string
	Reference string // raw, normalized here
	Points    int
}

// RedemptionService promotes live reservations into permanent redemption
// records: the unit is marked redeemed, stock decremented, the debit posted
// to the ledger, and the cached points summary invalidated.
type RedemptionService struct {
	redemptions repository.RedemptionRepository
	points      *PointsService
	pending     cache.PendingHoldStore
	clk         clock.Clock
}

// NewRedemptionService creates a new redemption completion service.
func NewRedemptionService(redemptions repository.RedemptionRepository, points *PointsService, pending cache.PendingHoldStore, clk clock.Clock) *RedemptionService {
	return &RedemptionService{
		redemptions: redemptions,
		points:      points,
		pending:     pending,
		clk:         clk,
	}
}

// Complete runs the completion transaction. Only the current holder of a
// live reservation on the unit can complete; everything else is reported as
// a non-error outcome the handler maps onto a conflict.
func (s *RedemptionService) Complete(ctx context.Context, in CompleteRedemptionInput) (CompleteOutcome, error) {
	reference, err := model.NormalizeReference(in.Reference)
	if err != nil {
		return CompleteOutcome{
			Status:  CompleteInvalid,
			Message: "redemption reference is missing or malformed",
		}, nil
	}

	now := s.clk.Now()

	rdm := model.Redemption{
		ID:          uid.New(),
		UnitID:      in.UnitID,
		AgentID:     in.AgentID,
		Reference:   reference,
		Points:      in.Points,
		CompletedAt: now,
	}
	debit := model.LedgerEntry{
		ID:          uid.New(),
		AgentID:     in.AgentID,
		AgentCode:   in.AgentCode,
		Points:      -in.Points,
		Category:    model.LedgerCategoryRedemption,
		Status:      model.LedgerStatusPosted,
		Description: "redemption " + reference,
		CreatedAt:   now,
	}

	if err := s.redemptions.CompleteRedemption(ctx, rdm, debit); err != nil {
		switch err {
		case repository.ErrNotFound:
			return CompleteOutcome{Status: CompleteNotFound, Message: "unit not found", Reference: reference}, nil
		case repository.ErrNotHeld:
			return CompleteOutcome{Status: CompleteNotHeld, Message: "no live reservation held on this unit", Reference: reference}, nil
		case repository.ErrOutOfStock:
			return CompleteOutcome{Status: CompleteOutOfStock, Message: "unit has no remaining stock", Reference: reference}, nil
		case repository.ErrReferenceUsed:
			return CompleteOutcome{Status: CompleteReferenceUsed, Message: "this reference was already used on a previous redemption", Reference: reference}, nil
		default:
			return CompleteOutcome{}, err
		}
	}

	if s.pending != nil {
		if err := s.pending.Release(ctx, reference); err != nil {
			log.Printf("[RedemptionService] failed to release pending hold for %s: %v", reference, err)
		}
	}

	if err := s.points.Invalidate(ctx, in.AgentID, in.AgentCode); err != nil {
		log.Printf("[RedemptionService] cache invalidation failed for agent=%s code=%s: %v",
			in.AgentID, in.AgentCode, err)
	}

	return CompleteOutcome{Status: CompleteOK, Message: "redemption completed", Reference: reference}, nil
}
