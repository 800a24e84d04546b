package handler

import (
	"encoding/json"
	"net/http"

	"loyalty-rewards-api/internal/service"
	"loyalty-rewards-api/pkg/apierror"
	"loyalty-rewards-api/pkg/response"
)

// RedemptionHandler handles redemption verification and completion.
type RedemptionHandler struct {
	verifier    *service.VerifierService
	redemptions *service.RedemptionService
}

// NewRedemptionHandler creates a new redemption handler.
func NewRedemptionHandler(verifier *service.VerifierService, redemptions *service.RedemptionService) *RedemptionHandler {
	return &RedemptionHandler{verifier: verifier, redemptions: redemptions}
}

type verifyRequest struct {
	Reference string `json:"reference"`
}

// Verify handles POST /api/v1/redemptions/verify. A successful verification
// takes a short-lived provisional hold on the reference, so a parallel
// submission of the same code is told it is already being processed.
func (h *RedemptionHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}

	result := h.verifier.VerifyAndHold(r.Context(), req.Reference)
	switch result.Status {
	case service.VerifyOK:
		response.OK(w, map[string]interface{}{
			"valid":     true,
			"reference": result.Reference,
		})
	case service.VerifyInvalid:
		response.Error(w, apierror.ValidationError(result.Message).WithMeta(map[string]interface{}{
			"reason": result.Reason,
		}))
	case service.VerifyUnavailable:
		response.Error(w, apierror.ServiceUnavailable(result.Message))
	default: // conflict
		response.Error(w, apierror.Conflict(result.Message).WithMeta(map[string]interface{}{
			"reason":    result.Reason,
			"reference": result.Reference,
		}))
	}
}

type completeRequest struct {
	UnitID    string `json:"unit_id"`
	AgentID   string `json:"agent_id"`
	AgentCode string `json:"agent_code"`
	Reference string `json:"reference"`
	Points    int    `json:"points"`
}

// Complete handles POST /api/v1/redemptions/complete
func (h *RedemptionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	if req.UnitID == "" || req.AgentID == "" {
		response.Error(w, apierror.ValidationError("unit_id and agent_id are required"))
		return
	}
	if req.Points < 0 {
		response.Error(w, apierror.ValidationError("points must not be negative",
			apierror.FieldError{Field: "points", Message: "must be zero or positive"}))
		return
	}

	outcome, err := h.redemptions.Complete(r.Context(), service.CompleteRedemptionInput{
		UnitID:    req.UnitID,
		AgentID:   req.AgentID,
		AgentCode: req.AgentCode,
		Reference: req.Reference,
		Points:    req.Points,
	})
	if err != nil {
		response.Error(w, apierror.ServiceUnavailable("unable to reach the unit store"))
		return
	}

	switch outcome.Status {
	case service.CompleteOK:
		response.OK(w, map[string]interface{}{
			"message":   outcome.Message,
			"reference": outcome.Reference,
		})
	case service.CompleteInvalid:
		response.Error(w, apierror.ValidationError(outcome.Message).WithMeta(map[string]interface{}{
			"reason": service.ReasonInvalidInput,
		}))
	case service.CompleteNotFound:
		response.Error(w, apierror.NotFound(outcome.Message))
	default: // not_held, out_of_stock, reference_used
		response.Error(w, apierror.Conflict(outcome.Message).WithMeta(map[string]interface{}{
			"reason":    string(outcome.Status),
			"reference": outcome.Reference,
		}))
	}
}
