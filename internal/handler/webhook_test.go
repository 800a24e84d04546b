package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loyalty-rewards-api/internal/cache"
	"loyalty-rewards-api/internal/clock"
	"loyalty-rewards-api/internal/service"
)

const webhookTestSecret = "whsec_test"

func signBody(body string) string {
	mac := hmac.New(sha256.New, []byte(webhookTestSecret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func newWebhookHandler(ledger *stubLedgerRepo) *WebhookHandler {
	clk := clock.NewFixed(handlerNow)
	points := service.NewPointsService(ledger, cache.NewMemoryPointsCache(0), clk)
	payments := service.NewPaymentService(ledger, points, webhookTestSecret, clk)
	return NewWebhookHandler(payments)
}

func postEvent(h *WebhookHandler, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment", strings.NewReader(body))
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	h.PaymentEvent(rec, req)
	return rec
}

const paidEventBody = `{
	"type": "checkout.session.completed",
	"data": {
		"payment_status": "paid",
		"payment_intent_id": "pi_001",
		"metadata": {"agent_id": "agent-1", "agent_code": "ACME", "expected_points": 500}
	}
}`

func TestWebhookHandler_PaymentEvent_Credited(t *testing.T) {
	ledger := newStubLedgerRepo()
	h := newWebhookHandler(ledger)

	rec := postEvent(h, paidEventBody, signBody(paidEventBody))
	assert.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "credited", data["result"])
	require.Len(t, ledger.entries, 1)
	assert.Equal(t, 500, ledger.entries[0].Points)
}

func TestWebhookHandler_PaymentEvent_DuplicateDelivery(t *testing.T) {
	ledger := newStubLedgerRepo()
	h := newWebhookHandler(ledger)

	sig := signBody(paidEventBody)
	rec := postEvent(h, paidEventBody, sig)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postEvent(h, paidEventBody, sig)
	assert.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "duplicate", data["result"])
	assert.Len(t, ledger.entries, 1)
}

func TestWebhookHandler_PaymentEvent_BadSignature(t *testing.T) {
	h := newWebhookHandler(newStubLedgerRepo())

	rec := postEvent(h, paidEventBody, "deadbeef")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postEvent(h, paidEventBody, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookHandler_PaymentEvent_MalformedPayload(t *testing.T) {
	h := newWebhookHandler(newStubLedgerRepo())

	body := `{"type": "checkout`
	rec := postEvent(h, body, signBody(body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookHandler_PaymentEvent_Ignored(t *testing.T) {
	ledger := newStubLedgerRepo()
	h := newWebhookHandler(ledger)

	body := `{"type": "checkout.session.expired", "data": {"payment_status": "unpaid"}}`
	rec := postEvent(h, body, signBody(body))
	assert.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "ignored", data["result"])
	assert.Empty(t, ledger.entries)
}
