package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meridian-commerce/storefront/pkg/health"
	"github.com/meridian-commerce/storefront/pkg/middleware"

	"github.com/meridian-commerce/storefront/internal/auth"
	"github.com/meridian-commerce/storefront/internal/service"
)

// catalogCacheSeconds is the Cache-Control max-age for public catalog reads.
const catalogCacheSeconds = 60

// RouterConfig bundles the dependencies of the HTTP router.
type RouterConfig struct {
	Cart     *service.CartService
	Checkout *service.CheckoutService
	Catalog  *service.CatalogService
	Pages    *service.PageService
	Orders   *service.OrderService
	Settings *service.SettingsService
	Auth     *service.AuthService

	JWT    *auth.JWTManager
	Health *health.Handler
	Logger *slog.Logger

	WebhookSecret  string
	CORS           middleware.CORSConfig
	RateLimitRPS   int
	RateLimitBurst int
	PprofCIDRs     []string
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.PrometheusMetrics("storefront"))
	r.Use(middleware.Tracing("storefront"))
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, cfg.Logger)

	cartHandler := NewCartHandler(cfg.Cart, cfg.Logger)
	checkoutHandler := NewCheckoutHandler(cfg.Checkout, cfg.Logger)
	productHandler := NewProductHandler(cfg.Catalog, cfg.Logger)
	categoryHandler := NewCategoryHandler(cfg.Catalog, cfg.Logger)
	pageHandler := NewPageHandler(cfg.Pages, cfg.Logger)
	orderHandler := NewOrderHandler(cfg.Orders, cfg.Logger)
	settingsHandler := NewSettingsHandler(cfg.Settings, cfg.Logger)
	authHandler := NewAuthHandler(cfg.Auth, cfg.Logger)
	webhookHandler := NewWebhookHandler(cfg.Orders, cfg.WebhookSecret, cfg.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		// The provider signs webhook bodies; signature verification is the
		// gate, not the rate limiter.
		r.Post("/webhooks/payment", webhookHandler.HandlePaymentEvent)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.Logger))
			r.Use(ContentTypeJSON)

			// Public catalog reads, cacheable at the edge.
			r.Group(func(r chi.Router) {
				r.Use(middleware.CacheControl(catalogCacheSeconds))

				r.Get("/products", productHandler.ListProducts)
				r.Get("/products/{slug}", productHandler.GetProductBySlug)
				r.Get("/categories", categoryHandler.ListCategories)
				r.Get("/pages/{slug}", pageHandler.GetPublishedPage)
				r.Get("/settings", settingsHandler.GetSettings)
			})

			// Cart and checkout, addressed by the X-Cart-Session header.
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)
				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{itemId}", cartHandler.UpdateItem)
				r.Delete("/items/{itemId}", cartHandler.RemoveItem)
			})
			r.Post("/checkout", checkoutHandler.StartCheckout)

			r.Route("/admin", func(r chi.Router) {
				r.Post("/login", authHandler.Login)

				// Everything else requires a valid token with the admin role.
				r.Group(func(r chi.Router) {
					r.Use(middleware.Auth(cfg.JWT.Validator()))
					r.Use(middleware.RequireRole("admin"))

					r.Get("/products", productHandler.AdminListProducts)
					r.Post("/products", productHandler.CreateProduct)
					r.Get("/products/{id}", productHandler.GetProduct)
					r.Put("/products/{id}", productHandler.UpdateProduct)
					r.Delete("/products/{id}", productHandler.DeleteProduct)

					r.Post("/categories", categoryHandler.CreateCategory)
					r.Delete("/categories/{id}", categoryHandler.DeleteCategory)

					r.Get("/pages", pageHandler.ListPages)
					r.Post("/pages", pageHandler.CreatePage)
					r.Put("/pages/{id}", pageHandler.UpdatePage)
					r.Delete("/pages/{id}", pageHandler.DeletePage)

					r.Get("/orders", orderHandler.ListOrders)
					r.Get("/orders/{id}", orderHandler.GetOrder)
					r.Put("/orders/{id}/status", orderHandler.UpdateOrderStatus)

					r.Put("/settings", settingsHandler.UpdateSettings)
				})
			})
		})
	})

	return r
}
