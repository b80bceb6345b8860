package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/movakid/shop-backend/api/responses"
	"github.com/movakid/shop-backend/internal/payments"
	"github.com/movakid/shop-backend/pkg/enums"
	pkgerrors "github.com/movakid/shop-backend/pkg/errors"
	"github.com/movakid/shop-backend/pkg/logger"
)

type paymentEventService interface {
	HandleEvent(ctx context.Context, event payments.Event) error
}

type stripeClient interface {
	SigningSecret() string
}

// Stripe verifies the signature first, then maps checkout session
// events onto order payment transitions. Unhandled event types are
// acknowledged so Stripe stops retrying them.
func Stripe(svc paymentEventService, client stripeClient, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil || client == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stripe webhook unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get("Stripe-Signature")
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "stripe signature missing"))
			return
		}

		event, err := webhook.ConstructEvent(payload, sigHeader, client.SigningSecret())
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "verify signature"))
			return
		}

		kind, ok := stripeEventKind(event.Type)
		if !ok {
			responses.WriteSuccess(w, nil)
			return
		}

		orderID, err := stripeOrderID(event)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		mapped := payments.Event{
			Provider: string(enums.PaymentMethodStripe),
			ID:       event.ID,
			OrderID:  orderID,
			Kind:     kind,
		}
		if err := svc.HandleEvent(ctx, mapped); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, fmt.Sprintf("stripe event %s processed", event.ID))
		}
		responses.WriteSuccess(w, nil)
	}
}

func stripeEventKind(eventType stripe.EventType) (payments.EventKind, bool) {
	switch eventType {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		return payments.EventPaid, true
	case "checkout.session.expired", "checkout.session.async_payment_failed":
		return payments.EventFailed, true
	default:
		return "", false
	}
}

func stripeOrderID(event stripe.Event) (uuid.UUID, error) {
	var session struct {
		Metadata map[string]string `json:"metadata"`
	}
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session")
	}
	raw, ok := session.Metadata["order_id"]
	if !ok || raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session carries no order id")
	}
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id in metadata")
	}
	return orderID, nil
}
