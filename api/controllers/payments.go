package controllers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/movakid/shop-backend/api/responses"
	"github.com/movakid/shop-backend/api/validators"
	"github.com/movakid/shop-backend/internal/orders"
	"github.com/movakid/shop-backend/internal/payments"
	"github.com/movakid/shop-backend/pkg/enums"
	pkgerrors "github.com/movakid/shop-backend/pkg/errors"
	"github.com/movakid/shop-backend/pkg/logger"
	"github.com/movakid/shop-backend/pkg/paypal"
)

type initPaymentRequest struct {
	Method string `json:"method" validate:"required"`
}

// InitPayment starts the selected payment flow for an order. The
// response carries either a provider redirect URL or bank-transfer
// instructions.
func InitPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		orderID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "orderId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		var payload initPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParsePaymentMethod(payload.Method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		result, err := svc.Init(r.Context(), orderID, method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type paypalCapturer interface {
	CaptureOrder(ctx context.Context, orderID string) (*paypal.Order, error)
}

// PaymentReturnHandler lands the shopper coming back from a hosted
// payment page and forwards them to the storefront result page.
type PaymentReturnHandler struct {
	payments payments.Service
	orders   orders.Service
	paypal   paypalCapturer
	baseURL  string
	logg     *logger.Logger
}

// NewPaymentReturnHandler wires the return-redirect endpoint. The
// paypal client is optional; without it PayPal returns are treated as
// pending until the webhook lands.
func NewPaymentReturnHandler(paySvc payments.Service, orderSvc orders.Service, capturer paypalCapturer, baseURL string, logg *logger.Logger) (*PaymentReturnHandler, error) {
	if paySvc == nil {
		return nil, fmt.Errorf("payments service required")
	}
	if orderSvc == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if baseURL == "" {
		return nil, fmt.Errorf("base url required")
	}
	return &PaymentReturnHandler{
		payments: paySvc,
		orders:   orderSvc,
		paypal:   capturer,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logg:     logg,
	}, nil
}

// Return handles GET /payments/return/{provider}. Status is settled by
// the provider webhook; the PayPal capture here is the one provider
// call the return leg must make itself. Failures redirect to the
// cancel page, never to an error response, because the shopper is
// mid-browser-navigation.
func (h *PaymentReturnHandler) Return(w http.ResponseWriter, r *http.Request) {
	provider := strings.TrimSpace(chi.URLParam(r, "provider"))
	orderNumber := strings.TrimSpace(r.URL.Query().Get("order"))
	cancelled := r.URL.Query().Get("cancel") == "true"

	if orderNumber == "" {
		h.redirect(w, r, "cancel", "")
		return
	}

	order, err := h.orders.GetOrderByNumber(r.Context(), orderNumber)
	if err != nil {
		if h.logg != nil {
			h.logg.Error(r.Context(), "payment return for unknown order", err)
		}
		h.redirect(w, r, "cancel", orderNumber)
		return
	}

	if cancelled {
		h.redirect(w, r, "cancel", orderNumber)
		return
	}

	// paypal approves on return; the capture is ours to trigger
	if provider == string(enums.PaymentMethodPayPal) && h.paypal != nil {
		token := strings.TrimSpace(r.URL.Query().Get("token"))
		if token != "" {
			h.capturePayPal(r.Context(), order.ID, token)
		}
	}

	h.redirect(w, r, "success", orderNumber)
}

func (h *PaymentReturnHandler) capturePayPal(ctx context.Context, orderID uuid.UUID, token string) {
	captured, err := h.paypal.CaptureOrder(ctx, token)
	if err != nil {
		if h.logg != nil {
			h.logg.Error(ctx, "capture paypal order on return", err)
		}
		return
	}
	if captured.Status != "COMPLETED" {
		return
	}
	event := payments.Event{
		Provider: string(enums.PaymentMethodPayPal),
		ID:       "capture:" + token,
		OrderID:  orderID,
		Kind:     payments.EventPaid,
	}
	if err := h.payments.HandleEvent(ctx, event); err != nil && h.logg != nil {
		h.logg.Error(ctx, "record paypal capture", err)
	}
}

func (h *PaymentReturnHandler) redirect(w http.ResponseWriter, r *http.Request, outcome, orderNumber string) {
	target := h.baseURL + "/checkout/" + outcome
	if orderNumber != "" {
		target += "?order=" + url.QueryEscape(orderNumber)
	}
	http.Redirect(w, r, target, http.StatusFound)
}
