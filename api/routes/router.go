package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/movakid/shop-backend/api/controllers"
	webhookcontrollers "github.com/movakid/shop-backend/api/controllers/webhooks"
	"github.com/movakid/shop-backend/api/middleware"
	"github.com/movakid/shop-backend/internal/auth"
	"github.com/movakid/shop-backend/internal/cart"
	"github.com/movakid/shop-backend/internal/catalog"
	checkoutsvc "github.com/movakid/shop-backend/internal/checkout"
	"github.com/movakid/shop-backend/internal/customers"
	"github.com/movakid/shop-backend/internal/discounts"
	"github.com/movakid/shop-backend/internal/orders"
	"github.com/movakid/shop-backend/internal/payments"
	"github.com/movakid/shop-backend/pkg/config"
	"github.com/movakid/shop-backend/pkg/db"
	"github.com/movakid/shop-backend/pkg/enums"
	"github.com/movakid/shop-backend/pkg/logger"
	"github.com/movakid/shop-backend/pkg/paypal"
	"github.com/movakid/shop-backend/pkg/przelewy24"
	"github.com/movakid/shop-backend/pkg/redis"
	"github.com/movakid/shop-backend/pkg/stripe"
)

// Deps carries everything the HTTP surface needs. Provider clients are
// optional; their routes answer 503 when unconfigured.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       *redis.Client
	Catalog     catalog.Service
	CartService cart.Service
	CartStore   cart.Store
	Checkout    checkoutsvc.Service
	Orders      orders.Service
	OrderIndex  orders.SessionIndex
	Payments    payments.Service
	Discounts   discounts.Service
	AdminAuth   auth.Service
	Subscribers *customers.SubscriberRepository
	Stripe      *stripe.Client
	PayPal      *paypal.Client
	Przelewy24  *przelewy24.Client
	Registry    *prometheus.Registry
}

func NewRouter(deps Deps) (http.Handler, error) {
	cfg := deps.Config
	logg := deps.Logger

	cartHandler, err := controllers.NewCartHandler(deps.CartService, deps.CartStore, logg)
	if err != nil {
		return nil, err
	}

	var capturer interface {
		CaptureOrder(ctx context.Context, orderID string) (*paypal.Order, error)
	}
	if deps.PayPal != nil {
		capturer = deps.PayPal
	}
	returnHandler, err := controllers.NewPaymentReturnHandler(deps.Payments, deps.Orders, capturer, cfg.App.BaseURL, logg)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	// provider callbacks authenticate themselves; no session or csrf
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.Stripe(deps.Payments, stripeWebhookClient(deps.Stripe), logg))
		r.Post("/paypal", webhookcontrollers.PayPal(deps.Payments, paypalWebhookClient(deps.PayPal), logg))
		r.Post("/przelewy24", webhookcontrollers.Przelewy24(deps.Payments, p24WebhookClient(deps.Przelewy24), logg))
	})

	// storefront group: session cookie, csrf on mutations, opt-in
	// idempotency on checkout and payment init
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(cfg.Session, deps.Redis, logg))
		r.Use(middleware.RequireCSRF(logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Get("/session", controllers.SessionInfo(deps.CartStore, logg))
		r.Get("/products", controllers.ListProducts(deps.Catalog, logg))
		r.Get("/products/{productId}", controllers.GetProduct(deps.Catalog, logg))
		r.Get("/availability", controllers.ProductAvailability(deps.Catalog, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.Get)
			r.Post("/", cartHandler.AddItem)
			r.Delete("/", cartHandler.Clear)
			r.Put("/items/{productId}", cartHandler.UpdateItem)
			r.Delete("/items/{productId}", cartHandler.RemoveItem)
			r.Post("/discount", cartHandler.ApplyDiscount)
			r.Delete("/discount", cartHandler.RemoveDiscount)
		})

		r.Post("/checkout", controllers.Checkout(deps.Checkout, deps.CartStore, deps.OrderIndex, logg))
		r.Get("/orders/{orderNumber}", controllers.GetOrderConfirmation(deps.Orders, deps.OrderIndex, logg))
		r.Post("/payments/{orderId}/init", controllers.InitPayment(deps.Payments, logg))
		r.Get("/payments/return/{provider}", returnHandler.Return)
	})

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"admin-login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
			Post("/auth/login", controllers.AdminLogin(deps.AdminAuth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminAuth(cfg.JWT, logg))
			r.Use(middleware.RequireRole(logg, string(enums.AdminRoleAdmin), string(enums.AdminRoleEditor)))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.AdminListProducts(deps.Catalog, logg))
				r.Post("/", controllers.AdminCreateProduct(deps.Catalog, logg))
				r.Patch("/{productId}", controllers.AdminUpdateProduct(deps.Catalog, logg))
				r.Delete("/{productId}", controllers.AdminDeleteProduct(deps.Catalog, logg))
			})

			r.Route("/discounts", func(r chi.Router) {
				r.Get("/", controllers.AdminListDiscounts(deps.Discounts, logg))
				r.Post("/", controllers.AdminCreateDiscount(deps.Discounts, logg))
				r.Patch("/{codeId}", controllers.AdminUpdateDiscount(deps.Discounts, logg))
				r.Delete("/{codeId}", controllers.AdminDeleteDiscount(deps.Discounts, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminListOrders(deps.Orders, logg))
				r.Get("/{orderId}", controllers.AdminGetOrder(deps.Orders, logg))
				// fulfillment moves are reserved for full admins
				r.With(middleware.RequireRole(logg, string(enums.AdminRoleAdmin))).
					Patch("/{orderId}/status", controllers.AdminUpdateOrderStatus(deps.Orders, logg))
			})

			r.Get("/subscribers", controllers.AdminListSubscribers(deps.Subscribers, logg))
		})
	})

	return r, nil
}

// The nil checks below keep a missing provider client from turning into
// a non-nil interface holding a nil pointer inside the webhook handlers.

func stripeWebhookClient(client *stripe.Client) interface{ SigningSecret() string } {
	if client == nil {
		return nil
	}
	return client
}

func paypalWebhookClient(client *paypal.Client) interface {
	VerifyWebhookSignature(ctx context.Context, sig paypal.WebhookSignature, rawEvent []byte) (bool, error)
} {
	if client == nil {
		return nil
	}
	return client
}

func p24WebhookClient(client *przelewy24.Client) interface {
	VerifyNotificationSign(n przelewy24.Notification) bool
	VerifyTransaction(ctx context.Context, n przelewy24.Notification) error
} {
	if client == nil {
		return nil
	}
	return client
}
