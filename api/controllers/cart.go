package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/movakid/shop-backend/api/middleware"
	"github.com/movakid/shop-backend/api/responses"
	"github.com/movakid/shop-backend/api/validators"
	"github.com/movakid/shop-backend/internal/cart"
	pkgerrors "github.com/movakid/shop-backend/pkg/errors"
	"github.com/movakid/shop-backend/pkg/logger"
)

type cartResponse struct {
	Entries []cart.Entry `json:"entries"`
	Summary cart.Summary `json:"summary"`
}

func newCartResponse(c *cart.Cart, svc cart.Service) cartResponse {
	return cartResponse{Entries: c.Entries, Summary: svc.Summary(c)}
}

// CartHandler bundles the session-scoped load/mutate/save cycle every
// cart endpoint repeats.
type CartHandler struct {
	svc   cart.Service
	store cart.Store
	logg  *logger.Logger
}

// NewCartHandler wires the cart endpoints.
func NewCartHandler(svc cart.Service, store cart.Store, logg *logger.Logger) (*CartHandler, error) {
	if svc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart service required")
	}
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart store required")
	}
	return &CartHandler{svc: svc, store: store, logg: logg}, nil
}

func (h *CartHandler) load(w http.ResponseWriter, r *http.Request) (string, *cart.Cart, bool) {
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		responses.WriteError(r.Context(), h.logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session missing"))
		return "", nil, false
	}
	current, err := h.store.Load(r.Context(), sessionID)
	if err != nil {
		responses.WriteError(r.Context(), h.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart"))
		return "", nil, false
	}
	return sessionID, current, true
}

func (h *CartHandler) save(w http.ResponseWriter, r *http.Request, sessionID string, c *cart.Cart) bool {
	if err := h.store.Save(r.Context(), sessionID, c); err != nil {
		responses.WriteError(r.Context(), h.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart"))
		return false
	}
	return true
}

// Get returns the cart with computed totals.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	_, current, ok := h.load(w, r)
	if !ok {
		return
	}
	responses.WriteSuccess(w, newCartResponse(current, h.svc))
}

type addItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

// AddItem merges a product line into the cart.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var payload addItemRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}

	sessionID, current, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.svc.Add(r.Context(), current, payload.ProductID, payload.Quantity); err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	if !h.save(w, r, sessionID, current) {
		return
	}
	responses.WriteSuccess(w, newCartResponse(current, h.svc))
}

type updateItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// UpdateItem replaces a line's quantity.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "productId")))
	if err != nil {
		responses.WriteError(r.Context(), h.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
		return
	}

	var payload updateItemRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}

	sessionID, current, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.svc.Update(r.Context(), current, productID, payload.Quantity); err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	if !h.save(w, r, sessionID, current) {
		return
	}
	responses.WriteSuccess(w, newCartResponse(current, h.svc))
}

// RemoveItem drops a line from the cart.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "productId")))
	if err != nil {
		responses.WriteError(r.Context(), h.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
		return
	}

	sessionID, current, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.svc.Remove(current, productID); err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	if !h.save(w, r, sessionID, current) {
		return
	}
	responses.WriteSuccess(w, newCartResponse(current, h.svc))
}

// Clear empties the cart and drops any applied discount.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	sessionID, current, ok := h.load(w, r)
	if !ok {
		return
	}
	h.svc.Clear(current)
	if !h.save(w, r, sessionID, current) {
		return
	}
	responses.WriteSuccess(w, newCartResponse(current, h.svc))
}

type applyDiscountRequest struct {
	Code string `json:"code" validate:"required"`
}

// ApplyDiscount validates and attaches a discount code; an existing
// code is replaced.
func (h *CartHandler) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	var payload applyDiscountRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}

	sessionID, current, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.svc.ApplyDiscount(r.Context(), current, payload.Code); err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	if !h.save(w, r, sessionID, current) {
		return
	}
	responses.WriteSuccess(w, newCartResponse(current, h.svc))
}

// RemoveDiscount detaches the applied code, if any.
func (h *CartHandler) RemoveDiscount(w http.ResponseWriter, r *http.Request) {
	sessionID, current, ok := h.load(w, r)
	if !ok {
		return
	}
	h.svc.RemoveDiscount(current)
	if !h.save(w, r, sessionID, current) {
		return
	}
	responses.WriteSuccess(w, newCartResponse(current, h.svc))
}
