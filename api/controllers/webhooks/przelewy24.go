package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/movakid/shop-backend/api/responses"
	"github.com/movakid/shop-backend/internal/payments"
	"github.com/movakid/shop-backend/pkg/enums"
	pkgerrors "github.com/movakid/shop-backend/pkg/errors"
	"github.com/movakid/shop-backend/pkg/logger"
	"github.com/movakid/shop-backend/pkg/przelewy24"
)

type p24Verifier interface {
	VerifyNotificationSign(n przelewy24.Notification) bool
	VerifyTransaction(ctx context.Context, n przelewy24.Notification) error
}

// Przelewy24 handles the transaction status notification. The CRC
// sign gates everything; the verify call back to P24 settles the
// funds, so an order is marked paid only after both succeed.
func Przelewy24(svc paymentEventService, client p24Verifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil || client == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "przelewy24 webhook unavailable"))
			return
		}

		var notification przelewy24.Notification
		if err := json.NewDecoder(r.Body).Decode(&notification); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode notification"))
			return
		}

		if !client.VerifyNotificationSign(notification) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "notification sign rejected"))
			return
		}

		orderID, err := uuid.Parse(notification.SessionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid session id"))
			return
		}

		kind := payments.EventPaid
		if err := client.VerifyTransaction(ctx, notification); err != nil {
			if logg != nil {
				logg.Error(ctx, "verify p24 transaction", err)
			}
			// only an authoritative rejection settles the payment as
			// failed; a transport error gets a 5xx so P24 redelivers
			if !errors.Is(err, przelewy24.ErrVerificationRejected) {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify transaction"))
				return
			}
			kind = payments.EventFailed
		}

		mapped := payments.Event{
			Provider: string(enums.PaymentMethodPrzelewy24),
			ID:       fmt.Sprintf("p24:%d", notification.OrderID),
			OrderID:  orderID,
			Kind:     kind,
		}
		if err := svc.HandleEvent(ctx, mapped); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, fmt.Sprintf("p24 notification for order %s processed", notification.SessionID))
		}
		responses.WriteSuccess(w, nil)
	}
}
