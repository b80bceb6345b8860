package routes

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/movakid/shop-backend/internal/auth"
	"github.com/movakid/shop-backend/internal/cart"
	"github.com/movakid/shop-backend/internal/catalog"
	checkoutsvc "github.com/movakid/shop-backend/internal/checkout"
	"github.com/movakid/shop-backend/internal/discounts"
	"github.com/movakid/shop-backend/internal/orders"
	"github.com/movakid/shop-backend/internal/payments"
	"github.com/movakid/shop-backend/pkg/config"
	"github.com/movakid/shop-backend/pkg/logger"
	"github.com/movakid/shop-backend/pkg/metrics"
)

// The stubs embed their interface so only the route table is under
// test; any handler that reaches into a service would panic.
type stubCatalogService struct{ catalog.Service }
type stubCartService struct{ cart.Service }
type stubCheckoutService struct{ checkoutsvc.Service }
type stubOrderService struct{ orders.Service }
type stubPaymentService struct{ payments.Service }
type stubDiscountService struct{ discounts.Service }
type stubAuthService struct{ auth.Service }

func testRouterDeps(t *testing.T) Deps {
	t.Helper()

	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.App.BaseURL = "https://movakid.com"
	cfg.App.Port = "8080"
	cfg.Session.CookieName = "movakid_session"
	cfg.Session.TTL = 72 * time.Hour
	cfg.JWT.Secret = "router-test-secret"
	cfg.JWT.Issuer = "movakid-test"
	cfg.JWT.ExpirationMinutes = 15
	cfg.AuthRateLimit.LoginWindow = time.Minute
	cfg.AuthRateLimit.LoginIPLimit = 10
	cfg.AuthRateLimit.LoginEmailLimit = 5

	registry := prometheus.NewRegistry()
	metrics.NewStorefrontMetrics(registry)

	return Deps{
		Config:      cfg,
		Logger:      logger.New(logger.Options{ServiceName: "routes-test", Output: io.Discard}),
		Catalog:     stubCatalogService{},
		CartService: stubCartService{},
		CartStore:   cart.NewMemoryStore(),
		Checkout:    stubCheckoutService{},
		Orders:      stubOrderService{},
		OrderIndex:  orders.NewMemorySessionIndex(),
		Payments:    stubPaymentService{},
		Discounts:   stubDiscountService{},
		AdminAuth:   stubAuthService{},
		Registry:    registry,
	}
}

func TestNewRouter_HealthLive(t *testing.T) {
	handler, err := NewRouter(testRouterDeps(t))
	if err != nil {
		t.Fatalf("new router: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-MovaKid-Env") != "test" {
		t.Fatalf("expected env header, got %q", rec.Header().Get("X-MovaKid-Env"))
	}
}

func TestNewRouter_MetricsExposed(t *testing.T) {
	handler, err := NewRouter(testRouterDeps(t))
	if err != nil {
		t.Fatalf("new router: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestNewRouter_WebhookWithoutProviderUnavailable(t *testing.T) {
	handler, err := NewRouter(testRouterDeps(t))
	if err != nil {
		t.Fatalf("new router: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for unconfigured provider, got %d", rec.Code)
	}
}

func TestNewRouter_AdminRoutesRequireAuth(t *testing.T) {
	handler, err := NewRouter(testRouterDeps(t))
	if err != nil {
		t.Fatalf("new router: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", rec.Code)
	}
}

func TestNewRouter_UnknownRouteNotFound(t *testing.T) {
	handler, err := NewRouter(testRouterDeps(t))
	if err != nil {
		t.Fatalf("new router: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
