package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/casadaesfiha/storefront-backend/api/controllers"
	"github.com/casadaesfiha/storefront-backend/api/middleware"
	"github.com/casadaesfiha/storefront-backend/internal/auth"
	"github.com/casadaesfiha/storefront-backend/internal/cart"
	"github.com/casadaesfiha/storefront-backend/internal/catalog"
	"github.com/casadaesfiha/storefront-backend/internal/orders"
	"github.com/casadaesfiha/storefront-backend/internal/paymentmethods"
	"github.com/casadaesfiha/storefront-backend/internal/settings"
	"github.com/casadaesfiha/storefront-backend/pkg/auth/session"
	"github.com/casadaesfiha/storefront-backend/pkg/config"
	"github.com/casadaesfiha/storefront-backend/pkg/db"
	"github.com/casadaesfiha/storefront-backend/pkg/enums"
	"github.com/casadaesfiha/storefront-backend/pkg/logger"
	"github.com/casadaesfiha/storefront-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          *redis.Client
	SessionManager *session.Manager
	Registry       *prometheus.Registry

	AuthService    auth.Service
	CatalogService catalog.Service
	CartService    cart.Service
	OrdersService  orders.Service
	PaymentMethods paymentmethods.Service
	Settings       *settings.Holder
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/menu", controllers.Menu(deps.CatalogService, logg))
		r.Get("/menu/products/{productId}", controllers.MenuProduct(deps.CatalogService, logg))
		r.Get("/store", controllers.StoreInfo(deps.Settings, logg))
		r.Get("/payment-methods", controllers.PublicPaymentMethods(deps.PaymentMethods, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.With(
			middleware.AuthRateLimit(registerPolicy, deps.Redis, logg),
			middleware.Idempotency(deps.Redis, logg),
		).Post("/register", controllers.AuthRegister(deps.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))
		r.With(middleware.Auth(cfg.JWT, deps.SessionManager, logg)).Post("/logout", controllers.AuthLogout(deps.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionManager, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.CartService, logg))
			r.Post("/items", controllers.CartAddItem(deps.CartService, logg))
			r.Patch("/items/{fingerprint}", controllers.CartUpdateItem(deps.CartService, logg))
			r.Delete("/items/{fingerprint}", controllers.CartRemoveItem(deps.CartService, logg))
			r.Delete("/", controllers.CartClear(deps.CartService, logg))
		})

		r.Post("/checkout", controllers.Checkout(deps.OrdersService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.MyOrders(deps.OrdersService, logg))
			r.Get("/{orderId}", controllers.MyOrderDetail(deps.OrdersService, logg))
			r.Post("/{orderId}/payment-intent", controllers.CheckoutPaymentIntent(deps.OrdersService, logg))
			r.Post("/{orderId}/confirm-payment", controllers.ConfirmPayment(deps.OrdersService, deps.CartService, logg))
			r.Post("/{orderId}/payment-failed", controllers.PaymentFailed(deps.OrdersService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionManager, logg))
		r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.AdminListCategories(deps.CatalogService, logg))
			r.Post("/", controllers.AdminCreateCategory(deps.CatalogService, logg))
			r.Patch("/{categoryId}", controllers.AdminUpdateCategory(deps.CatalogService, logg))
			r.Delete("/{categoryId}", controllers.AdminDeleteCategory(deps.CatalogService, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminListProducts(deps.CatalogService, logg))
			r.Post("/", controllers.AdminCreateProduct(deps.CatalogService, logg))
			r.Patch("/{productId}", controllers.AdminUpdateProduct(deps.CatalogService, logg))
			r.Delete("/{productId}", controllers.AdminDeleteProduct(deps.CatalogService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListOrders(deps.OrdersService, logg))
			r.Get("/{orderId}", controllers.AdminOrderDetail(deps.OrdersService, logg))
			r.Post("/{orderId}/fulfillment", controllers.AdminUpdateFulfillment(deps.OrdersService, logg))
			r.Post("/{orderId}/refund", controllers.AdminRefundOrder(deps.OrdersService, logg))
			r.Post("/{orderId}/retotal", controllers.AdminRetotalOrder(deps.OrdersService, logg))
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", controllers.AdminGetSettings(deps.Settings, logg))
			r.Put("/", controllers.AdminUpdateSettings(deps.Settings, logg))
			r.Post("/refresh", controllers.AdminRefreshSettings(deps.Settings, logg))
		})

		r.Route("/payment-methods", func(r chi.Router) {
			r.Get("/", controllers.AdminListPaymentMethods(deps.PaymentMethods, logg))
			r.Patch("/{methodId}", controllers.AdminUpdatePaymentMethod(deps.PaymentMethods, logg))
		})
	})

	return r
}
