package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/movakid/shop-backend/api/responses"
	"github.com/movakid/shop-backend/internal/catalog"
	"github.com/movakid/shop-backend/pkg/db/models"
	"github.com/movakid/shop-backend/pkg/enums"
	pkgerrors "github.com/movakid/shop-backend/pkg/errors"
	"github.com/movakid/shop-backend/pkg/logger"
)

type productResponse struct {
	ID          uuid.UUID         `json:"id"`
	SKU         string            `json:"sku"`
	Name        string            `json:"name"`
	Description *string           `json:"description,omitempty"`
	Price       decimal.Decimal   `json:"price"`
	InStock     bool              `json:"in_stock"`
	Type        enums.ProductType `json:"type"`
	ImageURL    *string           `json:"image_url,omitempty"`
}

func newProductResponse(product *models.Product) productResponse {
	return productResponse{
		ID:          product.ID,
		SKU:         product.SKU,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		InStock:     product.Stock > 0,
		Type:        product.Type,
		ImageURL:    product.ImageURL,
	}
}

// ListProducts returns the public catalog. Only active products are
// visible to shoppers; stock counts stay private.
func ListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		active := enums.ProductStatusActive
		filter := catalog.ListFilter{Status: &active}

		if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
			productType, err := enums.ParseProductType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product type"))
				return
			}
			filter.Type = &productType
		}
		if r.URL.Query().Get("in_stock") == "true" {
			filter.InStockOnly = true
		}

		products, err := svc.ListProducts(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := make([]productResponse, len(products))
		for i := range products {
			payload[i] = newProductResponse(&products[i])
		}
		responses.WriteSuccess(w, payload)
	}
}

// GetProduct returns one active product by id.
func GetProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "productId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		product, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if product.Status != enums.ProductStatusActive {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
			return
		}

		responses.WriteSuccess(w, newProductResponse(product))
	}
}

// ProductAvailability reports per-line remaining stock against the
// configured production caps.
func ProductAvailability(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		availability, err := svc.Availability(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, availability)
	}
}
