package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loyalty-rewards-api/internal/cache"
	"loyalty-rewards-api/internal/clock"
	"loyalty-rewards-api/internal/model"
	"loyalty-rewards-api/internal/service"
)

var handlerNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newReservationRouter(repo *stubUnitRepo) *chi.Mux {
	svc := service.NewReservationService(repo, cache.NewMemoryPendingHoldStore(), clock.NewFixed(handlerNow))
	h := NewReservationHandler(svc)

	r := chi.NewRouter()
	r.Post("/api/v1/units/{unit_id}/reserve", h.Reserve)
	r.Post("/api/v1/units/{unit_id}/release", h.Release)
	r.Post("/api/v1/admin/reservations/sweep", h.Sweep)
	return r
}

func postJSON(t *testing.T, router http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestReservationHandler_Reserve_OK(t *testing.T) {
	repo := newStubUnitRepo(&model.Unit{ID: "unit-1", ItemID: "item-1", TotalStock: 3, RemainingStock: 3})
	router := newReservationRouter(repo)

	rec := postJSON(t, router, "/api/v1/units/unit-1/reserve",
		`{"agent_id": "agent-a", "reference": "LER-0042"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "unit-1", data["unit_id"])
	assert.NotEmpty(t, data["expires_at"])
}

func TestReservationHandler_Reserve_Conflict(t *testing.T) {
	until := handlerNow.Add(10 * time.Minute)
	repo := newStubUnitRepo(&model.Unit{
		ID: "unit-1", ItemID: "item-1", TotalStock: 3, RemainingStock: 3,
		ReservedBy: "agent-a", ReservedReference: "LER100", ReservedUntil: &until,
	})
	router := newReservationRouter(repo)

	rec := postJSON(t, router, "/api/v1/units/unit-1/reserve",
		`{"agent_id": "agent-b", "reference": "LER200"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, "CONFLICT", errBody["code"])
	meta := errBody["meta"].(map[string]interface{})
	assert.NotEmpty(t, meta["expires_at"], "conflicts carry the competing hold's expiry")
}

func TestReservationHandler_Reserve_NotFound(t *testing.T) {
	router := newReservationRouter(newStubUnitRepo())

	rec := postJSON(t, router, "/api/v1/units/nope/reserve",
		`{"agent_id": "agent-a", "reference": "LER100"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReservationHandler_Reserve_BadInput(t *testing.T) {
	repo := newStubUnitRepo(&model.Unit{ID: "unit-1", RemainingStock: 1})
	router := newReservationRouter(repo)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing agent", `{"reference": "LER100"}`},
		{"bad reference", `{"agent_id": "agent-a", "reference": "LER-12"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, router, "/api/v1/units/unit-1/reserve", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestReservationHandler_Release(t *testing.T) {
	until := handlerNow.Add(10 * time.Minute)
	repo := newStubUnitRepo(&model.Unit{
		ID: "unit-1", RemainingStock: 1,
		ReservedBy: "agent-a", ReservedUntil: &until,
	})
	router := newReservationRouter(repo)

	rec := postJSON(t, router, "/api/v1/units/unit-1/release", `{"agent_id": "agent-a"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, true, data["released"])

	// Second release is a no-op, still 200.
	rec = postJSON(t, router, "/api/v1/units/unit-1/release", `{"agent_id": "agent-a"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	data = decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, false, data["released"])
}

func TestReservationHandler_Sweep(t *testing.T) {
	past := handlerNow.Add(-time.Minute)
	repo := newStubUnitRepo(&model.Unit{
		ID: "unit-1", RemainingStock: 1,
		ReservedBy: "agent-a", ReservedUntil: &past,
	})
	router := newReservationRouter(repo)

	rec := postJSON(t, router, "/api/v1/admin/reservations/sweep", ``)
	assert.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["expired_count"])
}
