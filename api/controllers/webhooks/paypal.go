package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/movakid/shop-backend/api/responses"
	"github.com/movakid/shop-backend/internal/payments"
	"github.com/movakid/shop-backend/pkg/enums"
	pkgerrors "github.com/movakid/shop-backend/pkg/errors"
	"github.com/movakid/shop-backend/pkg/logger"
	"github.com/movakid/shop-backend/pkg/paypal"
)

type paypalVerifier interface {
	VerifyWebhookSignature(ctx context.Context, sig paypal.WebhookSignature, rawEvent []byte) (bool, error)
}

type paypalEvent struct {
	ID           string `json:"id"`
	EventType    string `json:"event_type"`
	Resource     struct {
		CustomID      string `json:"custom_id"`
		PurchaseUnits []struct {
			ReferenceID string `json:"reference_id"`
		} `json:"purchase_units"`
	} `json:"resource"`
}

// PayPal verifies each delivery against the verify-webhook-signature
// API before touching any order state.
func PayPal(svc paymentEventService, client paypalVerifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil || client == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "paypal webhook unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		sig := paypal.WebhookSignature{
			AuthAlgo:        r.Header.Get("Paypal-Auth-Algo"),
			CertURL:         r.Header.Get("Paypal-Cert-Url"),
			TransmissionID:  r.Header.Get("Paypal-Transmission-Id"),
			TransmissionSig: r.Header.Get("Paypal-Transmission-Sig"),
			TransmissionTS:  r.Header.Get("Paypal-Transmission-Time"),
		}
		verified, err := client.VerifyWebhookSignature(ctx, sig, payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify paypal signature"))
			return
		}
		if !verified {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "paypal signature rejected"))
			return
		}

		var event paypalEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode paypal event"))
			return
		}

		kind, ok := paypalEventKind(event.EventType)
		if !ok {
			responses.WriteSuccess(w, nil)
			return
		}

		orderID, err := paypalOrderID(event)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		mapped := payments.Event{
			Provider: string(enums.PaymentMethodPayPal),
			ID:       event.ID,
			OrderID:  orderID,
			Kind:     kind,
		}
		if err := svc.HandleEvent(ctx, mapped); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, fmt.Sprintf("paypal event %s processed", event.ID))
		}
		responses.WriteSuccess(w, nil)
	}
}

func paypalEventKind(eventType string) (payments.EventKind, bool) {
	switch eventType {
	case "PAYMENT.CAPTURE.COMPLETED", "CHECKOUT.ORDER.COMPLETED":
		return payments.EventPaid, true
	case "PAYMENT.CAPTURE.DENIED", "PAYMENT.CAPTURE.DECLINED":
		return payments.EventFailed, true
	default:
		return "", false
	}
}

// paypalOrderID digs the storefront order id out of the event. Order
// resources carry it as a purchase unit reference, capture resources
// as custom_id.
func paypalOrderID(event paypalEvent) (uuid.UUID, error) {
	raw := event.Resource.CustomID
	if raw == "" && len(event.Resource.PurchaseUnits) > 0 {
		raw = event.Resource.PurchaseUnits[0].ReferenceID
	}
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "paypal event carries no order reference")
	}
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order reference")
	}
	return orderID, nil
}
