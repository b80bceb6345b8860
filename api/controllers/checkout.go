package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/movakid/shop-backend/api/middleware"
	"github.com/movakid/shop-backend/api/responses"
	"github.com/movakid/shop-backend/api/validators"
	"github.com/movakid/shop-backend/internal/cart"
	"github.com/movakid/shop-backend/internal/checkout"
	"github.com/movakid/shop-backend/internal/orders"
	"github.com/movakid/shop-backend/pkg/db/models"
	"github.com/movakid/shop-backend/pkg/enums"
	pkgerrors "github.com/movakid/shop-backend/pkg/errors"
	"github.com/movakid/shop-backend/pkg/logger"
)

type checkoutRequest struct {
	FirstName       string  `json:"firstname" validate:"required"`
	LastName        string  `json:"lastname" validate:"required"`
	Email           string  `json:"email" validate:"required,email"`
	Phone           string  `json:"phone" validate:"required"`
	Address         string  `json:"address" validate:"required"`
	PostalCode      string  `json:"postal_code" validate:"required"`
	City            string  `json:"city" validate:"required"`
	Country         string  `json:"country"`
	PaymentMethod   string  `json:"payment_method" validate:"required"`
	Notes           *string `json:"notes"`
	NewsletterOptIn bool    `json:"newsletter_opt_in"`
}

type checkoutResponse struct {
	OrderID       uuid.UUID           `json:"order_id"`
	OrderNumber   string              `json:"order_number"`
	Total         decimal.Decimal     `json:"total"`
	Currency      string              `json:"currency"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
}

func newCheckoutResponse(order *models.Order) checkoutResponse {
	return checkoutResponse{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Total:         order.Total,
		Currency:      order.Currency,
		PaymentMethod: order.PaymentMethod,
	}
}

// Checkout places an order from the session cart. The cart is cleared
// only after the order is committed; a failed submit keeps it intact.
func Checkout(svc checkout.Service, carts cart.Store, sessionOrders orders.SessionIndex, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		sessionID := middleware.SessionIDFromContext(r.Context())
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session missing"))
			return
		}
		current, err := carts.Load(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart"))
			return
		}

		order, err := svc.Execute(r.Context(), current, checkout.Input{
			FirstName:       payload.FirstName,
			LastName:        payload.LastName,
			Email:           payload.Email,
			Phone:           payload.Phone,
			Address:         payload.Address,
			PostalCode:      payload.PostalCode,
			City:            payload.City,
			Country:         payload.Country,
			PaymentMethod:   method,
			Notes:           payload.Notes,
			NewsletterOptIn: payload.NewsletterOptIn,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := carts.Delete(r.Context(), sessionID); err != nil && logg != nil {
			// the order exists; a stale cart is an annoyance, not a failure
			logg.Error(r.Context(), "clear cart after checkout", err)
		}
		if sessionOrders != nil {
			if err := sessionOrders.Record(r.Context(), sessionID, order.OrderNumber); err != nil && logg != nil {
				logg.Error(r.Context(), "record session order", err)
			}
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCheckoutResponse(order))
	}
}
