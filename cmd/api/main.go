package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/casadaesfiha/storefront-backend/api/routes"
	"github.com/casadaesfiha/storefront-backend/internal/auth"
	"github.com/casadaesfiha/storefront-backend/internal/cart"
	"github.com/casadaesfiha/storefront-backend/internal/catalog"
	"github.com/casadaesfiha/storefront-backend/internal/orders"
	"github.com/casadaesfiha/storefront-backend/internal/paymentmethods"
	"github.com/casadaesfiha/storefront-backend/internal/settings"
	"github.com/casadaesfiha/storefront-backend/internal/users"
	"github.com/casadaesfiha/storefront-backend/pkg/auth/session"
	"github.com/casadaesfiha/storefront-backend/pkg/config"
	"github.com/casadaesfiha/storefront-backend/pkg/db"
	"github.com/casadaesfiha/storefront-backend/pkg/logger"
	"github.com/casadaesfiha/storefront-backend/pkg/metrics"
	"github.com/casadaesfiha/storefront-backend/pkg/migrate"
	"github.com/casadaesfiha/storefront-backend/pkg/redis"
	pkgstripe "github.com/casadaesfiha/storefront-backend/pkg/stripe"
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	var stripeClient *pkgstripe.Client
	if cfg.Stripe.APIKey != "" {
		stripeClient, err = pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to initialize stripe", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "stripe api key not set, card payments disabled")
	}

	registry := prometheus.NewRegistry()
	storeMetrics := metrics.NewStorefrontMetrics(registry)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartStore, err := cart.NewStore(redisClient, logg, storeMetrics, cfg.Cart.TTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart store", err)
		os.Exit(1)
	}
	cartService, err := cart.NewService(cartStore, catalogService)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	settingsHolder, err := settings.NewHolder(redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create settings holder", err)
		os.Exit(1)
	}

	paymentMethodsService, err := paymentmethods.NewService(paymentmethods.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create payment methods service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:           orders.NewRepository(dbClient.DB()),
		Tx:             dbClient,
		Carts:          cartService,
		Products:       catalogService,
		PaymentMethods: paymentMethodsService,
		Config:         settingsHolder,
		Stripe:         orders.NewStripeClient(stripeClient),
		Logger:         logg,
		Metrics:        storeMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:         cfg,
			Logger:         logg,
			DB:             dbClient,
			Redis:          redisClient,
			SessionManager: sessionManager,
			Registry:       registry,
			AuthService:    authService,
			CatalogService: catalogService,
			CartService:    cartService,
			OrdersService:  ordersService,
			PaymentMethods: paymentMethodsService,
			Settings:       settingsHolder,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
