package webhooks

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/movakid/shop-backend/internal/payments"
	"github.com/movakid/shop-backend/pkg/paypal"
)

type stubPayPalVerifier struct {
	verified bool
	err      error
	sig      paypal.WebhookSignature
}

func (s *stubPayPalVerifier) VerifyWebhookSignature(_ context.Context, sig paypal.WebhookSignature, _ []byte) (bool, error) {
	s.sig = sig
	return s.verified, s.err
}

func paypalRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paypal", strings.NewReader(body))
	req.Header.Set("Paypal-Auth-Algo", "SHA256withRSA")
	req.Header.Set("Paypal-Cert-Url", "https://api.paypal.com/cert")
	req.Header.Set("Paypal-Transmission-Id", "tx-1")
	req.Header.Set("Paypal-Transmission-Sig", "sig-1")
	req.Header.Set("Paypal-Transmission-Time", "2025-06-01T12:00:00Z")
	return req
}

func TestPayPalWebhook_RejectedSignature(t *testing.T) {
	svc := &stubEventService{}
	handler := PayPal(svc, &stubPayPalVerifier{verified: false}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, paypalRequest(`{"id":"WH-1","event_type":"PAYMENT.CAPTURE.COMPLETED"}`))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if len(svc.events) != 0 {
		t.Fatalf("unverified delivery must not reach the service")
	}
}

func TestPayPalWebhook_CaptureCompletedMarksPaid(t *testing.T) {
	svc := &stubEventService{}
	verifier := &stubPayPalVerifier{verified: true}
	handler := PayPal(svc, verifier, nil)

	orderID := uuid.New()
	body := fmt.Sprintf(`{"id":"WH-2","event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{"custom_id":%q}}`, orderID)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, paypalRequest(body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if verifier.sig.TransmissionID != "tx-1" {
		t.Fatalf("transmission headers not forwarded to the verifier")
	}
	if len(svc.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(svc.events))
	}
	event := svc.events[0]
	if event.Provider != "paypal" || event.ID != "WH-2" {
		t.Fatalf("unexpected event identity %+v", event)
	}
	if event.OrderID != orderID || event.Kind != payments.EventPaid {
		t.Fatalf("unexpected event mapping %+v", event)
	}
}

func TestPayPalWebhook_OrderReferenceFallback(t *testing.T) {
	svc := &stubEventService{}
	handler := PayPal(svc, &stubPayPalVerifier{verified: true}, nil)

	orderID := uuid.New()
	body := fmt.Sprintf(`{"id":"WH-3","event_type":"CHECKOUT.ORDER.COMPLETED","resource":{"purchase_units":[{"reference_id":%q}]}}`, orderID)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, paypalRequest(body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(svc.events) != 1 || svc.events[0].OrderID != orderID {
		t.Fatalf("expected order id from purchase unit, got %+v", svc.events)
	}
}

func TestPayPalWebhook_CaptureDeniedMarksFailed(t *testing.T) {
	svc := &stubEventService{}
	handler := PayPal(svc, &stubPayPalVerifier{verified: true}, nil)

	body := fmt.Sprintf(`{"id":"WH-4","event_type":"PAYMENT.CAPTURE.DENIED","resource":{"custom_id":%q}}`, uuid.New())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, paypalRequest(body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(svc.events) != 1 || svc.events[0].Kind != payments.EventFailed {
		t.Fatalf("expected one failed event, got %+v", svc.events)
	}
}

func TestPayPalWebhook_UnhandledTypeAcknowledged(t *testing.T) {
	svc := &stubEventService{}
	handler := PayPal(svc, &stubPayPalVerifier{verified: true}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, paypalRequest(`{"id":"WH-5","event_type":"BILLING.PLAN.CREATED","resource":{}}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(svc.events) != 0 {
		t.Fatalf("unhandled types must not reach the service")
	}
}
