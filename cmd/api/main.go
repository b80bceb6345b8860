package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/movakid/shop-backend/api/routes"
	"github.com/movakid/shop-backend/internal/auth"
	"github.com/movakid/shop-backend/internal/cart"
	"github.com/movakid/shop-backend/internal/catalog"
	checkoutsvc "github.com/movakid/shop-backend/internal/checkout"
	"github.com/movakid/shop-backend/internal/customers"
	"github.com/movakid/shop-backend/internal/discounts"
	"github.com/movakid/shop-backend/internal/notifications"
	"github.com/movakid/shop-backend/internal/orders"
	"github.com/movakid/shop-backend/internal/payments"
	"github.com/movakid/shop-backend/pkg/config"
	"github.com/movakid/shop-backend/pkg/db"
	"github.com/movakid/shop-backend/pkg/enums"
	"github.com/movakid/shop-backend/pkg/logger"
	"github.com/movakid/shop-backend/pkg/metrics"
	"github.com/movakid/shop-backend/pkg/migrate"
	"github.com/movakid/shop-backend/pkg/paypal"
	"github.com/movakid/shop-backend/pkg/przelewy24"
	"github.com/movakid/shop-backend/pkg/redis"
	"github.com/movakid/shop-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	storeMetrics := metrics.NewStorefrontMetrics(registry)

	gormDB := dbClient.DB()
	catalogRepo := catalog.NewRepository(gormDB)
	customerRepo := customers.NewRepository(gormDB)
	subscriberRepo := customers.NewSubscriberRepository(gormDB)
	orderRepo := orders.NewRepository(gormDB)
	discountRepo := discounts.NewRepository(gormDB)

	catalogService, err := catalog.NewService(catalogRepo, cfg.Store)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}
	discountService, err := discounts.NewService(discountRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create discount service", err)
		os.Exit(1)
	}
	cartService, err := cart.NewService(catalogRepo, discountService, cfg.Store)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}
	cartStore, err := cart.NewRedisStore(redisClient, cfg.Session.TTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart store", err)
		os.Exit(1)
	}
	orderService, err := orders.NewService(orderRepo, dbClient, catalogRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}
	orderIndex, err := orders.NewRedisSessionIndex(redisClient, cfg.Session.TTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create session order index", err)
		os.Exit(1)
	}
	authService, err := auth.NewService(auth.NewRepository(gormDB), cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	// The mailer is optional so local setups run without an SMTP relay.
	var mailer checkoutsvc.Mailer
	if cfg.SMTP.Host != "" {
		smtpMailer, err := notifications.NewSMTPMailer(cfg.SMTP, cfg.BankTransfer, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create smtp mailer", err)
			os.Exit(1)
		}
		mailer = smtpMailer
	} else {
		logg.Warn(context.Background(), "smtp host not set, order confirmation emails disabled")
	}

	checkoutService, err := checkoutsvc.NewService(
		dbClient,
		checkoutsvc.CatalogInventory{Repo: catalogRepo},
		checkoutsvc.CustomerUpserter{Repo: customerRepo},
		checkoutsvc.OrderCreator{Repo: orderRepo},
		discountService,
		mailer,
		subscriberRepo,
		cfg.Store,
		storeMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	// Payment providers come up only when their credentials are set, so
	// the storefront keeps running with a partial provider lineup.
	providers := map[enums.PaymentMethod]payments.Provider{}
	guards := map[string]payments.EventGuard{}

	var stripeClient *stripe.Client
	if cfg.Stripe.APIKey != "" {
		stripeClient, err = stripe.NewClient(context.Background(), cfg.Stripe, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create stripe client", err)
			os.Exit(1)
		}
		provider, err := payments.NewStripeProvider(stripeClient)
		if err != nil {
			logg.Error(context.Background(), "failed to create stripe provider", err)
			os.Exit(1)
		}
		providers[enums.PaymentMethodStripe] = provider
	} else {
		logg.Warn(context.Background(), "stripe credentials not set, card payments disabled")
	}

	var paypalClient *paypal.Client
	if cfg.PayPal.ClientID != "" {
		paypalClient, err = paypal.NewClient(cfg.PayPal)
		if err != nil {
			logg.Error(context.Background(), "failed to create paypal client", err)
			os.Exit(1)
		}
		provider, err := payments.NewPayPalProvider(paypalClient)
		if err != nil {
			logg.Error(context.Background(), "failed to create paypal provider", err)
			os.Exit(1)
		}
		providers[enums.PaymentMethodPayPal] = provider
	} else {
		logg.Warn(context.Background(), "paypal credentials not set, paypal payments disabled")
	}

	var p24Client *przelewy24.Client
	if cfg.Przelewy24.MerchantID != 0 {
		p24Client, err = przelewy24.NewClient(cfg.Przelewy24)
		if err != nil {
			logg.Error(context.Background(), "failed to create przelewy24 client", err)
			os.Exit(1)
		}
		provider, err := payments.NewP24Provider(p24Client, cfg.App.BaseURL+"/api/v1/webhooks/przelewy24")
		if err != nil {
			logg.Error(context.Background(), "failed to create przelewy24 provider", err)
			os.Exit(1)
		}
		providers[enums.PaymentMethodPrzelewy24] = provider
	} else {
		logg.Warn(context.Background(), "przelewy24 credentials not set, p24 payments disabled")
	}

	for method := range providers {
		scope := string(method)
		guard, err := payments.NewIdempotencyGuard(redisClient, cfg.Webhooks.IdempotencyTTL, scope)
		if err != nil {
			logg.Error(context.Background(), "failed to create webhook guard", err)
			os.Exit(1)
		}
		guards[scope] = guard
	}

	paymentService, err := payments.NewService(
		orderService,
		providers,
		guards,
		cfg.BankTransfer,
		cfg.App.BaseURL,
		storeMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	handler, err := routes.NewRouter(routes.Deps{
		Config:      cfg,
		Logger:      logg,
		DB:          dbClient,
		Redis:       redisClient,
		Catalog:     catalogService,
		CartService: cartService,
		CartStore:   cartStore,
		Checkout:    checkoutService,
		Orders:      orderService,
		OrderIndex:  orderIndex,
		Payments:    paymentService,
		Discounts:   discountService,
		AdminAuth:   authService,
		Subscribers: subscriberRepo,
		Stripe:      stripeClient,
		PayPal:      paypalClient,
		Przelewy24:  p24Client,
		Registry:    registry,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build router", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
