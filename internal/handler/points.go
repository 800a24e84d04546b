package handler

import (
	"net/http"

	"loyalty-rewards-api/internal/model"
	"loyalty-rewards-api/internal/repository"
	"loyalty-rewards-api/internal/service"
	"loyalty-rewards-api/pkg/apierror"
	"loyalty-rewards-api/pkg/response"
)

// PointsHandler handles the points ledger read path.
type PointsHandler struct {
	points *service.PointsService
}

// NewPointsHandler creates a new points handler.
func NewPointsHandler(points *service.PointsService) *PointsHandler {
	return &PointsHandler{points: points}
}

// Summary handles GET /api/v1/points?agent_id=...&agent_code=...&fresh=true
func (h *PointsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ref := model.AgentRef{
		ID:   q.Get("agent_id"),
		Code: q.Get("agent_code"),
	}
	if ref.IsZero() {
		response.Error(w, apierror.ValidationError("agent_id or agent_code is required"))
		return
	}
	fresh := q.Get("fresh") == "true" || q.Get("fresh") == "1"

	summary, source, err := h.points.Summary(r.Context(), ref, fresh)
	if err != nil {
		if err == repository.ErrNotFound {
			response.Error(w, apierror.NotFound("agent not found"))
			return
		}
		response.Error(w, apierror.ServiceUnavailable("unable to read the points ledger"))
		return
	}

	response.OK(w, map[string]interface{}{
		"records":      summary.Records,
		"display_name": summary.DisplayName,
		"totals": map[string]int{
			"posted":  summary.PostedTotal,
			"pending": summary.PendingTotal,
		},
		"cache": string(source),
	})
}
