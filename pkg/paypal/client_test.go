package paypal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/movakid/shop-backend/pkg/config"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(config.PayPalConfig{
		ClientID:   "client-id",
		Secret:     "client-secret",
		BaseAPIURL: srv.URL,
		WebhookID:  "wh-1",
		Timeout:    5 * time.Second,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, srv
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	if _, err := NewClient(config.PayPalConfig{}); err == nil {
		t.Fatalf("expected error for missing credentials")
	}
}

func TestCreateOrder_ReturnsApproveURL(t *testing.T) {
	mux := http.NewServeMux()
	tokenCalls := 0
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		if user, pass, ok := r.BasicAuth(); !ok || user != "client-id" || pass != "client-secret" {
			t.Errorf("unexpected basic auth %q %q", user, pass)
		}
		json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
	})
	mux.HandleFunc("/v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("unexpected auth header %q", got)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["intent"] != "CAPTURE" {
			t.Errorf("expected CAPTURE intent, got %v", body["intent"])
		}
		units := body["purchase_units"].([]any)
		amount := units[0].(map[string]any)["amount"].(map[string]any)
		if amount["value"] != "129.98" {
			t.Errorf("unexpected amount %v", amount["value"])
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "ORD-1",
			"status": "PAYER_ACTION_REQUIRED",
			"links": []map[string]string{
				{"href": "https://paypal.test/self", "rel": "self"},
				{"href": "https://paypal.test/approve", "rel": "payer-action"},
			},
		})
	})

	client, _ := newTestClient(t, mux)

	order, err := client.CreateOrder(context.Background(), OrderRequest{
		ReferenceID: "MK2501011234",
		AmountMinor: 12998,
		Currency:    "EUR",
		ReturnURL:   "https://shop.test/return",
		CancelURL:   "https://shop.test/cancel",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.ID != "ORD-1" {
		t.Fatalf("unexpected order id %s", order.ID)
	}
	approve, err := order.ApproveURL()
	if err != nil {
		t.Fatalf("approve url: %v", err)
	}
	if approve != "https://paypal.test/approve" {
		t.Fatalf("unexpected approve url %s", approve)
	}

	// second call reuses the cached token
	if _, err := client.CreateOrder(context.Background(), OrderRequest{AmountMinor: 12998, Currency: "EUR"}); err != nil {
		t.Fatalf("second create order: %v", err)
	}
	if tokenCalls != 1 {
		t.Fatalf("expected 1 token fetch, got %d", tokenCalls)
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
	})
	mux.HandleFunc("/v1/notifications/verify-webhook-signature", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["webhook_id"] != "wh-1" {
			t.Errorf("unexpected webhook id %v", body["webhook_id"])
		}
		json.NewEncoder(w).Encode(map[string]string{"verification_status": "SUCCESS"})
	})

	client, _ := newTestClient(t, mux)

	ok, err := client.VerifyWebhookSignature(context.Background(), WebhookSignature{
		AuthAlgo:        "SHA256withRSA",
		TransmissionID:  "t-1",
		TransmissionSig: "sig",
		TransmissionTS:  "2025-01-01T00:00:00Z",
		CertURL:         "https://api.paypal.test/cert",
	}, []byte(`{"id":"WH-1","event_type":"PAYMENT.CAPTURE.COMPLETED"}`))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatalf("expected verification success")
	}
}

func TestMinorToDecimalString(t *testing.T) {
	cases := map[int64]string{
		0:     "0.00",
		5:     "0.05",
		999:   "9.99",
		12998: "129.98",
		-150:  "-1.50",
	}
	for minor, want := range cases {
		if got := minorToDecimalString(minor); got != want {
			t.Errorf("minor %d: expected %s got %s", minor, want, got)
		}
	}
}
