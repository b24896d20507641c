package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/recipevault/recipevault/internal/handler"
	"github.com/recipevault/recipevault/internal/middleware"
	"github.com/recipevault/recipevault/internal/model"
)

// Handlers groups every HTTP handler mounted by the router.
type Handlers struct {
	Root      *handler.Handler
	Health    *handler.HealthHandler
	Metrics   *handler.MetricsHandler
	Auth      *handler.AuthHandler
	Users     *handler.UserHandler
	Recipes   *handler.RecipeHandler
	Reviews   *handler.ReviewHandler
	Favorites *handler.FavoriteHandler
	Premium   *handler.PremiumHandler
	Admin     *handler.AdminHandler
	Reminders *handler.ReminderHandler
	Images    *handler.ImageHandler
}

// RouterConfig holds the middleware dependencies of the router.
type RouterConfig struct {
	Logger        *slog.Logger
	Authenticator middleware.Authenticator
	Features      middleware.FeatureChecker
	RateLimit     middleware.RateLimitConfig
	Security      middleware.SecurityConfig
	CORS          middleware.CORSConfig

	// Instrument wraps the router with request metrics when set.
	Instrument func(http.Handler) http.Handler
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig, h Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(cfg.Security))
	r.Use(middleware.CORS(cfg.CORS))
	if cfg.Instrument != nil {
		r.Use(cfg.Instrument)
	}

	// Operational endpoints
	r.Get("/healthz", h.Health.Healthz)
	r.Get("/readyz", h.Health.Readyz)
	r.Get("/metrics", h.Metrics.Metrics)
	r.Get("/", h.Root.Hello)

	authCfg := middleware.AuthConfig{
		Logger:        cfg.Logger,
		Authenticator: cfg.Authenticator,
	}
	requireAuth := middleware.Auth(authCfg)
	optionalAuth := middleware.OptionalAuth(authCfg)
	userLimit := middleware.RateLimitUser(cfg.RateLimit)
	jsonBody := middleware.MaxBodySize(cfg.Security.MaxRequestBodySize)

	r.Route("/api/v1", func(r chi.Router) {
		// Credential endpoints are limited per client IP.
		r.Route("/auth", func(r chi.Router) {
			r.Use(jsonBody)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimitIP(cfg.RateLimit))
				r.Post("/signup", h.Auth.SignUp)
				r.Post("/signin", h.Auth.SignIn)
				r.Post("/google", h.Auth.Google)
				r.Post("/password-reset", h.Auth.RequestPasswordReset)
				r.Post("/password-reset/confirm", h.Auth.ConfirmPasswordReset)
			})
			r.With(requireAuth).Post("/signout", h.Auth.SignOut)
		})

		// Public reads; a valid token personalizes the response.
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Use(userLimit)

			r.Get("/recipes", h.Recipes.List)
			r.Get("/recipes/recent", h.Recipes.Recent)
			r.Get("/recipes/{id}", h.Recipes.Get)
			r.Get("/recipes/{id}/stats", h.Recipes.Stats)
			r.Get("/recipes/{id}/comments", h.Reviews.ListComments)
			r.Get("/recipes/{id}/ratings", h.Reviews.ListRatings)
		})

		// Image uploads carry their own size limit.
		r.With(requireAuth, userLimit).Post("/images", h.Images.Upload)

		// Authenticated API
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(userLimit)
			r.Use(jsonBody)

			r.Get("/me", h.Users.Me)
			r.Patch("/me", h.Users.UpdateMe)
			r.Get("/users/{id}", h.Users.Profile)
			r.Get("/users/{id}/recipes", h.Recipes.ListByUser)

			// Recipe writes share paths with the public reads above, so they
			// are registered flat rather than under a mounted subrouter.
			r.Post("/recipes", h.Recipes.Create)
			r.With(middleware.RequireFeature(cfg.Features, model.FeatureExportRecipes)).
				Get("/recipes/export", h.Recipes.Export)
			r.Patch("/recipes/{id}", h.Recipes.Update)
			r.Delete("/recipes/{id}", h.Recipes.Delete)

			r.Post("/recipes/{id}/comments", h.Reviews.AddComment)
			r.Post("/recipes/{id}/reviews", h.Reviews.SubmitReview)
			r.Post("/recipes/{id}/comments/{commentID}/like", h.Reviews.ToggleLike)
			r.Delete("/recipes/{id}/comments/{commentID}", h.Reviews.DeleteComment)

			r.Get("/recipes/{id}/ratings/me", h.Reviews.MyRating)
			r.Put("/recipes/{id}/ratings/me", h.Reviews.Rate)
			r.Delete("/recipes/{id}/ratings/me", h.Reviews.RemoveRating)

			r.Route("/favorites", func(r chi.Router) {
				r.Get("/", h.Favorites.List)
				r.Post("/sync", h.Favorites.Sync)
				r.Get("/{recipeID}", h.Favorites.Get)
				r.Put("/{recipeID}", h.Favorites.Add)
				r.Delete("/{recipeID}", h.Favorites.Remove)
				r.Post("/{recipeID}/toggle", h.Favorites.Toggle)
			})

			r.Route("/premium", func(r chi.Router) {
				r.Get("/", h.Premium.Status)
				r.Post("/upgrade", h.Premium.Upgrade)
				r.Post("/cancel", h.Premium.Cancel)
				r.Post("/reactivate", h.Premium.Reactivate)
				r.Post("/restore", h.Premium.Restore)
				r.Get("/features/{feature}", h.Premium.Feature)
			})

			r.Route("/reminders", func(r chi.Router) {
				r.Get("/", h.Reminders.List)
				r.Post("/", h.Reminders.Create)
				r.Get("/upcoming", h.Reminders.Upcoming)
				r.Get("/{id}", h.Reminders.Get)
				r.Delete("/{id}", h.Reminders.Delete)
				r.Post("/{id}/complete", h.Reminders.Complete)
				r.Post("/{id}/cancel", h.Reminders.Cancel)
				r.Post("/{id}/reschedule", h.Reminders.Reschedule)
			})

			r.Get("/notifications", h.Reminders.Notifications)
			r.Post("/notifications/{id}/read", h.Reminders.MarkRead)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin())
				r.Get("/premium/stats", h.Admin.PremiumStats)
				r.Get("/premium/active", h.Admin.ActiveSubscriptions)
				r.Get("/premium/expiring", h.Admin.ExpiringSubscriptions)
				r.Post("/premium/{userID}/renew", h.Admin.RenewSubscription)
			})
		})
	})

	r.NotFound(h.Root.NotFound)
	r.MethodNotAllowed(h.Root.MethodNotAllowed)

	return r
}
