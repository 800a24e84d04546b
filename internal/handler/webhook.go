package handler

import (
	"io"
	"net/http"

	"loyalty-rewards-api/internal/service"
	"loyalty-rewards-api/pkg/apierror"
	"loyalty-rewards-api/pkg/response"
)

// SignatureHeader carries the hex HMAC-SHA256 of the webhook body.
const SignatureHeader = "X-Payment-Signature"

// WebhookHandler handles payment provider webhook deliveries.
type WebhookHandler struct {
	payments *service.PaymentService
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(payments *service.PaymentService) *WebhookHandler {
	return &WebhookHandler{payments: payments}
}

// PaymentEvent handles POST /api/v1/webhooks/payment. Signature failures are
// terminal rejections; a ledger-write failure is reported as a server error
// so the provider's retry mechanism redelivers the event.
func (h *WebhookHandler) PaymentEvent(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		response.Error(w, apierror.BadRequest("failed to read request body"))
		return
	}
	defer r.Body.Close()

	result, err := h.payments.ProcessEvent(r.Context(), payload, r.Header.Get(SignatureHeader))
	if err != nil {
		switch err {
		case service.ErrBadSignature:
			response.Error(w, apierror.Unauthorized("invalid event signature"))
		case service.ErrBadPayload:
			response.Error(w, apierror.BadRequest("malformed event payload"))
		default:
			response.Error(w, apierror.InternalError("event processing failed, retry later"))
		}
		return
	}

	response.OK(w, map[string]interface{}{"result": string(result)})
}
