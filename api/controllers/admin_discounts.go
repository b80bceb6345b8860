package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/movakid/shop-backend/api/responses"
	"github.com/movakid/shop-backend/api/validators"
	"github.com/movakid/shop-backend/internal/discounts"
	"github.com/movakid/shop-backend/pkg/db/models"
	"github.com/movakid/shop-backend/pkg/enums"
	pkgerrors "github.com/movakid/shop-backend/pkg/errors"
	"github.com/movakid/shop-backend/pkg/logger"
)

type discountCodeResponse struct {
	ID            uuid.UUID            `json:"id"`
	Code          string               `json:"code"`
	Type          enums.DiscountType   `json:"type"`
	Value         decimal.Decimal      `json:"value"`
	MinOrderValue decimal.Decimal      `json:"min_order_value"`
	MaxUses       *int                 `json:"max_uses,omitempty"`
	UsesCount     int                  `json:"uses_count"`
	StartDate     *time.Time           `json:"start_date,omitempty"`
	EndDate       *time.Time           `json:"end_date,omitempty"`
	Status        enums.DiscountStatus `json:"status"`
}

func newDiscountCodeResponse(code *models.DiscountCode) discountCodeResponse {
	return discountCodeResponse{
		ID:            code.ID,
		Code:          code.Code,
		Type:          code.Type,
		Value:         code.Value,
		MinOrderValue: code.MinOrderValue,
		MaxUses:       code.MaxUses,
		UsesCount:     code.UsesCount,
		StartDate:     code.StartDate,
		EndDate:       code.EndDate,
		Status:        code.Status,
	}
}

type createDiscountRequest struct {
	Code          string          `json:"code" validate:"required"`
	Type          string          `json:"type" validate:"required"`
	Value         decimal.Decimal `json:"value" validate:"required"`
	MinOrderValue decimal.Decimal `json:"min_order_value"`
	MaxUses       *int            `json:"max_uses"`
	StartDate     *time.Time      `json:"start_date"`
	EndDate       *time.Time      `json:"end_date"`
	Status        string          `json:"status"`
}

// AdminListDiscounts lists every configured discount code.
func AdminListDiscounts(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discounts service unavailable"))
			return
		}

		codes, err := svc.ListCodes(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := make([]discountCodeResponse, len(codes))
		for i := range codes {
			payload[i] = newDiscountCodeResponse(&codes[i])
		}
		responses.WriteSuccess(w, payload)
	}
}

// AdminCreateDiscount registers a new discount code.
func AdminCreateDiscount(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discounts service unavailable"))
			return
		}

		var payload createDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discountType, err := enums.ParseDiscountType(payload.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type"))
			return
		}
		status := enums.DiscountStatusActive
		if payload.Status != "" {
			status, err = enums.ParseDiscountStatus(payload.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount status"))
				return
			}
		}

		code, err := svc.CreateCode(r.Context(), discounts.CreateCodeInput{
			Code:          payload.Code,
			Type:          discountType,
			Value:         payload.Value,
			MinOrderValue: payload.MinOrderValue,
			MaxUses:       payload.MaxUses,
			StartDate:     payload.StartDate,
			EndDate:       payload.EndDate,
			Status:        status,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newDiscountCodeResponse(code))
	}
}

type updateDiscountRequest struct {
	Value         *decimal.Decimal `json:"value"`
	MinOrderValue *decimal.Decimal `json:"min_order_value"`
	MaxUses       *int             `json:"max_uses"`
	StartDate     *time.Time       `json:"start_date"`
	EndDate       *time.Time       `json:"end_date"`
	Status        *string          `json:"status"`
}

// AdminUpdateDiscount applies a partial update to a discount code. The
// code string itself is immutable once issued.
func AdminUpdateDiscount(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discounts service unavailable"))
			return
		}

		codeID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "codeId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount id"))
			return
		}

		var payload updateDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := discounts.UpdateCodeInput{
			Value:         payload.Value,
			MinOrderValue: payload.MinOrderValue,
			MaxUses:       payload.MaxUses,
			StartDate:     payload.StartDate,
			EndDate:       payload.EndDate,
		}
		if payload.Status != nil {
			status, err := enums.ParseDiscountStatus(*payload.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount status"))
				return
			}
			input.Status = &status
		}

		code, err := svc.UpdateCode(r.Context(), codeID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newDiscountCodeResponse(code))
	}
}

// AdminDeleteDiscount removes a discount code.
func AdminDeleteDiscount(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discounts service unavailable"))
			return
		}

		codeID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "codeId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount id"))
			return
		}

		if err := svc.DeleteCode(r.Context(), codeID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}
