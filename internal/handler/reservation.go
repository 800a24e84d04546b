package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"loyalty-rewards-api/internal/model"
	"loyalty-rewards-api/internal/service"
	"loyalty-rewards-api/pkg/apierror"
	"loyalty-rewards-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// ReservationHandler handles reservation-related HTTP requests.
type ReservationHandler struct {
	reservations *service.ReservationService
}

// NewReservationHandler creates a new reservation handler.
func NewReservationHandler(reservations *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservations: reservations}
}

type reserveRequest struct {
	AgentID         string `json:"agent_id"`
	Reference       string `json:"reference"`
	DurationMinutes int    `json:"duration_minutes"`
	Override        bool   `json:"override"`
}

// Reserve handles POST /api/v1/units/{unit_id}/reserve
func (h *ReservationHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	unitID := chi.URLParam(r, "unit_id")
	if unitID == "" {
		response.Error(w, apierror.BadRequest("unit_id is required"))
		return
	}

	var req reserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	if req.AgentID == "" {
		response.Error(w, apierror.ValidationError("agent_id is required",
			apierror.FieldError{Field: "agent_id", Message: "must not be empty"}))
		return
	}

	outcome, err := h.reservations.Create(r.Context(), service.CreateReservationInput{
		UnitID:    unitID,
		AgentID:   req.AgentID,
		Reference: req.Reference,
		Duration:  time.Duration(req.DurationMinutes) * time.Minute,
		Override:  req.Override,
	})
	if err != nil {
		if err == model.ErrInvalidReference {
			response.Error(w, apierror.ValidationError("reference is missing or malformed",
				apierror.FieldError{Field: "reference", Message: "must contain the LER prefix and at least 3 digits"}))
			return
		}
		response.Error(w, apierror.ServiceUnavailable("unable to reach the unit store"))
		return
	}

	switch outcome.Status {
	case service.ReserveOK:
		response.OK(w, map[string]interface{}{
			"message":    outcome.Message,
			"unit_id":    outcome.UnitID,
			"expires_at": outcome.ExpiresAt,
		})
	case service.ReserveNotFound:
		response.Error(w, apierror.NotFound("unit not found"))
	case service.ReserveOutOfStock:
		response.Error(w, apierror.Conflict(outcome.Message).WithMeta(map[string]interface{}{
			"reason": "out_of_stock",
		}))
	default: // conflict
		meta := map[string]interface{}{"reason": "reserved"}
		if outcome.ExpiresAt != nil {
			meta["expires_at"] = outcome.ExpiresAt
		}
		response.Error(w, apierror.Conflict(outcome.Message).WithMeta(meta))
	}
}

type releaseRequest struct {
	AgentID string `json:"agent_id"`
}

// Release handles POST /api/v1/units/{unit_id}/release
func (h *ReservationHandler) Release(w http.ResponseWriter, r *http.Request) {
	unitID := chi.URLParam(r, "unit_id")
	if unitID == "" {
		response.Error(w, apierror.BadRequest("unit_id is required"))
		return
	}

	var req releaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	if req.AgentID == "" {
		response.Error(w, apierror.ValidationError("agent_id is required",
			apierror.FieldError{Field: "agent_id", Message: "must not be empty"}))
		return
	}

	released, err := h.reservations.Release(r.Context(), unitID, req.AgentID)
	if err != nil {
		response.Error(w, apierror.ServiceUnavailable("unable to reach the unit store"))
		return
	}

	response.OK(w, map[string]interface{}{"released": released})
}

// Sweep handles POST /api/v1/admin/reservations/sweep
func (h *ReservationHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	count, err := h.reservations.Sweep(r.Context())
	if err != nil {
		response.Error(w, apierror.ServiceUnavailable("unable to reach the unit store"))
		return
	}

	response.OK(w, map[string]interface{}{"expired_count": count})
}
