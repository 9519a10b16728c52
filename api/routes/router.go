package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/medicarehub-backend/api/controllers"
	"github.com/angelmondragon/medicarehub-backend/api/middleware"
	"github.com/angelmondragon/medicarehub-backend/internal/analytics"
	"github.com/angelmondragon/medicarehub-backend/internal/credentials"
	"github.com/angelmondragon/medicarehub-backend/internal/messaging"
	"github.com/angelmondragon/medicarehub-backend/internal/notifications"
	"github.com/angelmondragon/medicarehub-backend/internal/orders"
	"github.com/angelmondragon/medicarehub-backend/internal/session"
	"github.com/angelmondragon/medicarehub-backend/internal/stores"
	"github.com/angelmondragon/medicarehub-backend/internal/users"
	"github.com/angelmondragon/medicarehub-backend/pkg/config"
	"github.com/angelmondragon/medicarehub-backend/pkg/logger"
)

// Params bundles everything the router mounts. Remote, RateLimiter and
// Static are optional.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	Local    controllers.Pinger
	Remote   controllers.Pinger
	Gatherer prometheus.Gatherer

	Sessions      *session.Registry
	Stores        stores.Service
	Orders        orders.Service
	Users         users.Service
	Credentials   credentials.Service
	Notifications notifications.Service
	Analytics     analytics.Service
	Linker        *messaging.Linker

	// RateLimiter backs the login window limits; nil falls back to a
	// per-IP token bucket.
	RateLimiter middleware.WindowLimiter
	Static      http.Handler
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginLimit := loginLimiter(cfg, p.RateLimiter, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Local, p.Remote))
	})
	if p.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(p.Sessions, logg))

		r.Get("/session", controllers.SessionState(logg))
		r.Post("/session/logout", controllers.Logout(logg))

		r.Route("/auth", func(r chi.Router) {
			r.With(loginLimit).Post("/admin/login", controllers.AdminLogin(p.Credentials, logg))
			r.With(loginLimit).Post("/store/login", controllers.StoreLogin(p.Credentials, p.Stores, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.With(loginLimit).Post("/register", controllers.UserRegister(p.Users, logg))
			r.With(loginLimit).Post("/login", controllers.UserLogin(p.Users, logg))
			r.Post("/logout", controllers.UserLogout(logg))
			r.Get("/me", controllers.UserMe(p.Users, logg))
			r.Get("/me/orders", controllers.UserOrders(p.Users, p.Orders, logg))
			r.With(middleware.RequireAdmin(logg)).Get("/", controllers.UserList(p.Users, logg))
		})

		r.Route("/stores", func(r chi.Router) {
			r.Get("/", controllers.StoreList(p.Stores, logg))
			r.Get("/{storeId}", controllers.StoreGet(p.Stores, logg))
			r.Post("/{storeId}/select", controllers.StoreSelect(p.Stores, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireStoreOrAdmin(logg))
				r.Patch("/{storeId}", controllers.StoreUpdate(p.Stores, logg))
				r.Get("/{storeId}/orders", controllers.StoreOrders(p.Orders, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin(logg))
				r.Post("/", controllers.StoreCreate(p.Stores, logg))
				r.Delete("/{storeId}", controllers.StoreDelete(p.Stores, logg))
				r.Get("/{storeId}/credentials", controllers.StoreCredentialsGet(p.Credentials, logg))
				r.Put("/{storeId}/credentials", controllers.StoreCredentialsUpdate(p.Credentials, logg))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(p.Orders, p.Users, logg))
			r.Get("/rejection-reasons", controllers.RejectionReasons())
			r.Get("/{orderId}", controllers.OrderGet(p.Orders, logg))
			r.With(middleware.RequireAdmin(logg)).Get("/", controllers.OrderList(p.Orders, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireStoreOrAdmin(logg))
				r.Post("/{orderId}/accept", controllers.OrderAccept(p.Orders, logg))
				r.Post("/{orderId}/accept-with-billing", controllers.OrderAcceptWithBilling(p.Orders, logg))
				r.Post("/{orderId}/reject", controllers.OrderReject(p.Orders, logg))
				r.Post("/{orderId}/deliver", controllers.OrderDeliver(p.Orders, logg))
				r.Put("/{orderId}/ai-verification", controllers.OrderAIVerification(p.Orders, logg))
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.NotificationList(p.Notifications, p.Users, logg))
			r.Get("/unread-count", controllers.NotificationUnreadCount(p.Notifications, p.Users, logg))
			r.Post("/{notificationId}/read", controllers.NotificationMarkRead(p.Notifications, p.Users, logg))
			r.Delete("/{notificationId}", controllers.NotificationDelete(p.Notifications, p.Users, logg))
		})

		r.Post("/links/chat", controllers.ChatLink(p.Linker, p.Stores, logg))

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logg))
			r.Get("/analytics", controllers.AnalyticsReport(p.Analytics, logg))
			r.Get("/store-credentials", controllers.StoreCredentialsList(p.Credentials, logg))
			r.Put("/credentials", controllers.AdminCredentialsUpdate(p.Credentials, logg))
		})
	})

	if p.Static != nil {
		r.Handle("/*", p.Static)
	}

	return r
}

func loginLimiter(cfg *config.Config, limiter middleware.WindowLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	if limiter != nil {
		policy := middleware.NewAuthRateLimitPolicy(
			"login",
			cfg.AuthLimit.LoginWindow,
			cfg.AuthLimit.LoginIPLimit,
			cfg.AuthLimit.LoginPrincipalLimit,
		)
		return middleware.AuthRateLimit(policy, limiter, logg)
	}
	return middleware.IPRateLimit(middleware.NewIPRateLimiter(cfg.AuthLimit.LoginPerMinute, cfg.AuthLimit.LoginBurst), logg)
}
