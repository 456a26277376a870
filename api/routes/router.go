package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	webhookcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/webhooks"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

type redisStore interface {
	redis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type webhookGuard interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Complete(ctx context.Context, eventID string) error
	Release(ctx context.Context, eventID string) error
}

type signingSecret interface {
	SigningSecret() string
}

// Dependencies carries everything the router hands to middleware and controllers.
type Dependencies struct {
	Readiness     map[string]controllers.Pinger
	Registry      *prometheus.Registry
	HTTPMetrics   *metrics.HTTPMetrics
	Redis         redisStore
	Sessions      session.AccessSessionChecker
	Auth          auth.Service
	Catalog       controllers.CatalogService
	Cart          controllers.CartService
	Checkout      controllers.CheckoutService
	Profiles      controllers.ProfileService
	Orders        controllers.OrderHistoryService
	StripeWebhook webhookcontrollers.StripeWebhookService
	StripeSecret  signingSecret
	WebhookGuard  webhookGuard
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	limits := cfg.RateLimit
	loginPolicy := middleware.RateLimitPolicy{
		Name:   "login",
		Window: limits.LoginWindow,
		Limits: map[middleware.RateScope]int{middleware.ScopeIP: limits.LoginIPLimit, middleware.ScopeEmail: limits.LoginEmailLimit},
	}
	registerPolicy := middleware.RateLimitPolicy{
		Name:   "register",
		Window: limits.RegisterWindow,
		Limits: map[middleware.RateScope]int{middleware.ScopeIP: limits.RegisterIPLimit, middleware.ScopeEmail: limits.RegisterEmailLimit},
	}
	checkoutPolicy := middleware.RateLimitPolicy{
		Name:   "checkout",
		Window: limits.CheckoutWindow,
		Limits: map[middleware.RateScope]int{middleware.ScopeIP: limits.CheckoutIPLimit, middleware.ScopeCart: limits.CheckoutCartLimit},
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.Readiness, logg))
	})

	if deps.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/webhooks/stripe", webhookcontrollers.StripeWebhook(deps.StripeWebhook, deps.StripeSecret, deps.WebhookGuard, logg))

		r.Route("/auth", func(r chi.Router) {
			r.With(
				middleware.RateLimit(registerPolicy, deps.Redis, logg),
				middleware.Idempotency(deps.Redis, logg),
			).Post("/register", controllers.AuthRegister(deps.Auth, logg))
			r.With(middleware.RateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
			r.With(middleware.Auth(cfg.JWT, deps.Sessions, logg)).Post("/logout", controllers.AuthLogout(deps.Auth, logg))
		})

		r.Get("/products", controllers.ProductList(deps.Catalog, logg))
		r.Get("/products/featured", controllers.ProductFeatured(deps.Catalog, logg))
		r.Get("/products/{productId}", controllers.ProductDetail(deps.Catalog, logg))
		r.Get("/products/{productId}/related", controllers.ProductRelated(deps.Catalog, logg))
		r.Get("/categories", controllers.CategoryList(deps.Catalog, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.CartSession(logg))
			r.Get("/", controllers.CartGet(deps.Cart, logg))
			r.Delete("/", controllers.CartClear(deps.Cart, logg))
			r.Get("/summary", controllers.CartSummary(deps.Cart, logg))
			r.With(middleware.Idempotency(deps.Redis, logg)).Post("/items", controllers.CartAddItem(deps.Cart, logg))
			r.Patch("/items/{productId}", controllers.CartUpdateItem(deps.Cart, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(deps.Cart, logg))
		})

		r.With(
			middleware.OptionalAuth(cfg.JWT, deps.Sessions, logg),
			middleware.CartSession(logg),
			middleware.RateLimit(checkoutPolicy, deps.Redis, logg),
			middleware.Idempotency(deps.Redis, logg),
		).Post("/checkout/session", controllers.CheckoutSession(deps.Checkout, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Use(middleware.Idempotency(deps.Redis, logg))
			r.Get("/me/profile", controllers.ProfileGet(deps.Profiles, logg))
			r.Put("/me/profile", controllers.ProfileUpsert(deps.Profiles, logg))
			r.Get("/orders", controllers.OrderList(deps.Orders, logg))
			r.Get("/orders/{orderId}", controllers.OrderDetail(deps.Orders, logg))
		})
	})

	return r
}
