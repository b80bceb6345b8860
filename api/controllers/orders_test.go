package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/movakid/shop-backend/api/middleware"
	"github.com/movakid/shop-backend/internal/orders"
	"github.com/movakid/shop-backend/pkg/db/models"
)

// stubOrderService embeds the interface so only GetOrderByNumber is
// implemented; other calls would panic.
type stubOrderService struct {
	orders.Service
	order *models.Order
	err   error
	calls int
}

func (s *stubOrderService) GetOrderByNumber(_ context.Context, orderNumber string) (*models.Order, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.order, nil
}

func confirmationRequest(orderNumber, sessionID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderNumber, nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderNumber", orderNumber)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	if sessionID != "" {
		ctx = middleware.WithSession(ctx, sessionID, "csrf-1")
	}
	return req.WithContext(ctx)
}

func TestGetOrderConfirmation_OwnOrderReturned(t *testing.T) {
	sessionOrders := orders.NewMemorySessionIndex()
	if err := sessionOrders.Record(context.Background(), "sess-1", "MK2506014821"); err != nil {
		t.Fatalf("seed index: %v", err)
	}
	svc := &stubOrderService{order: placedOrder()}
	handler := GetOrderConfirmation(svc, sessionOrders, testControllerLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, confirmationRequest("MK2506014821", "sess-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.calls != 1 {
		t.Fatalf("expected 1 lookup, got %d", svc.calls)
	}
}

func TestGetOrderConfirmation_ForeignOrderHidden(t *testing.T) {
	sessionOrders := orders.NewMemorySessionIndex()
	if err := sessionOrders.Record(context.Background(), "sess-1", "MK2506014821"); err != nil {
		t.Fatalf("seed index: %v", err)
	}
	svc := &stubOrderService{order: placedOrder()}
	handler := GetOrderConfirmation(svc, sessionOrders, testControllerLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, confirmationRequest("MK2506014821", "sess-2"))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another session's order, got %d", rec.Code)
	}
	if svc.calls != 0 {
		t.Fatalf("foreign lookups must not reach the service")
	}
}

func TestGetOrderConfirmation_MissingSessionHidden(t *testing.T) {
	svc := &stubOrderService{order: placedOrder()}
	handler := GetOrderConfirmation(svc, orders.NewMemorySessionIndex(), testControllerLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, confirmationRequest("MK2506014821", ""))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without a session, got %d", rec.Code)
	}
}
