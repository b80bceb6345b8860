package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/movakid/shop-backend/internal/payments"
)

type stubEventService struct {
	events []payments.Event
	err    error
}

func (s *stubEventService) HandleEvent(_ context.Context, event payments.Event) error {
	s.events = append(s.events, event)
	return s.err
}

type stubStripeClient struct {
	secret string
}

func (s *stubStripeClient) SigningSecret() string { return s.secret }

const testSigningSecret = "whsec_unit_test"

// signStripePayload builds a Stripe-Signature header the verifier accepts.
func signStripePayload(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

// stripeCheckoutPayload pins api_version to the library's, which the
// verifier checks alongside the signature.
func stripeCheckoutPayload(eventType string, orderID uuid.UUID) []byte {
	return fmt.Appendf(nil,
		`{"object":"event","id":"evt_test_1","api_version":%q,"type":%q,"data":{"object":{"id":"cs_test_1","metadata":{"order_id":%q}}}}`,
		stripe.APIVersion, eventType, orderID,
	)
}

func TestStripeWebhook_MissingSignatureRejected(t *testing.T) {
	svc := &stubEventService{}
	handler := Stripe(svc, &stubStripeClient{secret: testSigningSecret}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe",
		bytes.NewReader(stripeCheckoutPayload("checkout.session.completed", uuid.New())))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if len(svc.events) != 0 {
		t.Fatalf("unverified delivery must not reach the service")
	}
}

func TestStripeWebhook_BadSignatureRejected(t *testing.T) {
	svc := &stubEventService{}
	handler := Stripe(svc, &stubStripeClient{secret: testSigningSecret}, nil)

	payload := stripeCheckoutPayload("checkout.session.completed", uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signStripePayload(payload, "whsec_wrong"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if len(svc.events) != 0 {
		t.Fatalf("unverified delivery must not reach the service")
	}
}

func TestStripeWebhook_CompletedSessionMarksPaid(t *testing.T) {
	svc := &stubEventService{}
	handler := Stripe(svc, &stubStripeClient{secret: testSigningSecret}, nil)

	orderID := uuid.New()
	payload := stripeCheckoutPayload("checkout.session.completed", orderID)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signStripePayload(payload, testSigningSecret))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(svc.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(svc.events))
	}
	event := svc.events[0]
	if event.Provider != "stripe" || event.ID != "evt_test_1" {
		t.Fatalf("unexpected event identity %+v", event)
	}
	if event.OrderID != orderID || event.Kind != payments.EventPaid {
		t.Fatalf("unexpected event mapping %+v", event)
	}
}

func TestStripeWebhook_ExpiredSessionMarksFailed(t *testing.T) {
	svc := &stubEventService{}
	handler := Stripe(svc, &stubStripeClient{secret: testSigningSecret}, nil)

	payload := stripeCheckoutPayload("checkout.session.expired", uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signStripePayload(payload, testSigningSecret))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(svc.events) != 1 || svc.events[0].Kind != payments.EventFailed {
		t.Fatalf("expected one failed event, got %+v", svc.events)
	}
}

func TestStripeWebhook_UnhandledTypeAcknowledged(t *testing.T) {
	svc := &stubEventService{}
	handler := Stripe(svc, &stubStripeClient{secret: testSigningSecret}, nil)

	payload := fmt.Appendf(nil, `{"object":"event","id":"evt_test_2","api_version":%q,"type":"invoice.created","data":{"object":{}}}`, stripe.APIVersion)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signStripePayload(payload, testSigningSecret))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(svc.events) != 0 {
		t.Fatalf("unhandled types must not reach the service")
	}
}

func TestStripeWebhook_MissingOrderIDRejected(t *testing.T) {
	svc := &stubEventService{}
	handler := Stripe(svc, &stubStripeClient{secret: testSigningSecret}, nil)

	payload := fmt.Appendf(nil, `{"object":"event","id":"evt_test_3","api_version":%q,"type":"checkout.session.completed","data":{"object":{"id":"cs_test_2","metadata":{}}}}`, stripe.APIVersion)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signStripePayload(payload, testSigningSecret))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(svc.events) != 0 {
		t.Fatalf("events without an order id must not reach the service")
	}
}
