package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"loyalty-rewards-api/internal/clock"
	"loyalty-rewards-api/internal/model"
	"loyalty-rewards-api/internal/repository"
	"loyalty-rewards-api/pkg/uid"
)

// Payment event type and status that trigger a credit; everything else is
// acknowledged and ignored.
const (
	paymentEventCompleted = "checkout.session.completed"
	paymentStatusPaid     = "paid"
)

// Errors surfaced by the payment ingestor. A bad signature is terminal (a
// retry cannot help); any other error is retryable and must be reported to
// the provider so it redelivers.
var (
	ErrBadSignature = errors.New("invalid payment event signature")
	ErrBadPayload   = errors.New("malformed payment event payload")
)

// IngestResult classifies how a payment event was handled.
type IngestResult string

const (
	IngestCredited  IngestResult = "credited"  // new ledger entry written
	IngestDuplicate IngestResult = "duplicate" // redelivery, entry already exists
	IngestIgnored   IngestResult = "ignored"   // acknowledged, not ours to process
)

// PaymentEvent is the wire shape of a provider webhook delivery.
type PaymentEvent struct {
	Type string `json:"type"`
	Data struct {
		PaymentStatus   string `json:"payment_status"`
		PaymentIntentID string `json:"payment_intent_id"`
		SessionID       string `json:"session_id"`
		Metadata        struct {
			AgentID        string `json:"agent_id"`
			AgentCode      string `json:"agent_code"`
			ExpectedPoints int    `json:"expected_points"`
		} `json:"metadata"`
	} `json:"data"`
}

// PaymentService converts verified payment confirmations into exactly one
// points-ledger credit each, regardless of how many times the provider
// delivers the event.
type PaymentService struct {
	ledger repository.LedgerRepository
	points *PointsService
	secret []byte
	clk    clock.Clock
}

// NewPaymentService creates a new payment ingestor.
func NewPaymentService(ledger repository.LedgerRepository, points *PointsService, secret string, clk clock.Clock) *PaymentService {
	return &PaymentService{
		ledger: ledger,
		points: points,
		secret: []byte(secret),
		clk:    clk,
	}
}

// ProcessEvent validates the signature, filters for completed successful
// payments carrying our metadata, and upserts the credit keyed on the
// provider's payment-intent identifier (falling back to the session
// identifier). The cache is invalidated only when a new entry was written.
func (s *PaymentService) ProcessEvent(ctx context.Context, payload []byte, signature string) (IngestResult, error) {
	if !s.verifySignature(payload, signature) {
		return "", ErrBadSignature
	}

	var ev PaymentEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return "", ErrBadPayload
	}

	if ev.Type != paymentEventCompleted || ev.Data.PaymentStatus != paymentStatusPaid {
		return IngestIgnored, nil
	}

	meta := ev.Data.Metadata
	if (meta.AgentID == "" && meta.AgentCode == "") || meta.ExpectedPoints <= 0 {
		// No initiation metadata: the payment is not ours to process.
		return IngestIgnored, nil
	}

	externalRef := ev.Data.PaymentIntentID
	if externalRef == "" {
		externalRef = ev.Data.SessionID
	}
	if externalRef == "" {
		log.Printf("[PaymentService] event without payment intent or session id, ignoring")
		return IngestIgnored, nil
	}

	entry := model.LedgerEntry{
		ID:          uid.New(),
		AgentID:     meta.AgentID,
		AgentCode:   meta.AgentCode,
		Points:      meta.ExpectedPoints,
		Category:    model.LedgerCategoryTopUp,
		Status:      model.LedgerStatusPosted,
		ExternalRef: "payment:" + externalRef,
		Description: "points top-up via payment",
		CreatedAt:   s.clk.Now(),
	}

	created, err := s.ledger.UpsertByExternalRef(ctx, entry)
	if err != nil {
		// Reported as a processing failure so the provider redelivers.
		return "", err
	}
	if !created {
		return IngestDuplicate, nil
	}

	// A stale summary self-heals via TTL, so invalidation failure must not
	// fail the acknowledgment.
	if err := s.points.Invalidate(ctx, meta.AgentID, meta.AgentCode); err != nil {
		log.Printf("[PaymentService] cache invalidation failed for agent=%s code=%s: %v",
			meta.AgentID, meta.AgentCode, err)
	}

	return IngestCredited, nil
}

// verifySignature checks the hex-encoded HMAC-SHA256 of the payload against
// the shared secret. An optional "sha256=" prefix on the header is accepted.
func (s *PaymentService) verifySignature(payload []byte, signature string) bool {
	signature = strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	if signature == "" || len(s.secret) == 0 {
		return false
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
