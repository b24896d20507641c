// Package main is the entrypoint for the RecipeVault API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/recipevault/recipevault/internal/auth"
	"github.com/recipevault/recipevault/internal/cache"
	"github.com/recipevault/recipevault/internal/config"
	"github.com/recipevault/recipevault/internal/events"
	"github.com/recipevault/recipevault/internal/handler"
	"github.com/recipevault/recipevault/internal/jobs"
	"github.com/recipevault/recipevault/internal/metrics"
	"github.com/recipevault/recipevault/internal/middleware"
	"github.com/recipevault/recipevault/internal/migrate"
	"github.com/recipevault/recipevault/internal/reminder"
	"github.com/recipevault/recipevault/internal/repository"
	"github.com/recipevault/recipevault/internal/server"
	"github.com/recipevault/recipevault/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL, repository.PoolOptions{
		MaxConns:        cfg.DatabaseMaxConns,
		MinConns:        cfg.DatabaseMinConns,
		MaxConnLifetime: cfg.DatabaseMaxConnLife,
	})
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Reminder delivery claims rows through database/sql
	sqlDB, err := migrate.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to open reminder store",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
		)
		os.Exit(1)
	}

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL, cache.PoolOptions{
		Size:         cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdleConns,
		Timeout:      cfg.RedisPoolTimeout,
	})
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	recorder := metrics.NewPrometheus()
	eventRepo := repository.NewRecipeEventRepository(repo)

	var emitter events.Emitter = events.NopEmitter{}
	if cfg.EventsEnabled {
		emitter = events.NewPublisher(cacheClient.Client(), logger, recorder)
	}

	// Initialize services
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.SessionTTL)
	var google service.IdentityVerifier
	if cfg.GoogleSignInEnabled() {
		google = auth.NewGoogleVerifier(cfg.GoogleClientID, cfg.GoogleTokenInfoURL)
	}
	mailer := service.NewLogMailer(logger, cfg.BaseURL)

	authService := service.NewAuthService(repo, repo, cacheClient, cacheClient, tokens, google, mailer, logger, recorder)
	userService := service.NewUserService(repo)
	premiumService := service.NewPremiumService(repo, logger, recorder)
	recipeService := service.NewRecipeService(repo, cacheClient, eventRepo, premiumService, emitter, logger, recorder)
	ratingService := service.NewRatingService(repo, cacheClient, emitter, logger)
	commentService := service.NewCommentService(repo, ratingService, emitter, logger, recorder)
	favoriteService := service.NewFavoriteService(repo, cacheClient, repo, cacheClient, premiumService, emitter, logger, recorder)
	reminderService := service.NewReminderService(repo, repo)
	imageService := service.NewImageService(cfg.ImageHostURL, cfg.ImageHostAPIKey, cfg.ImageMaxHeight, cfg.ImageMaxPixels, logger)

	// Initialize handlers
	handlers := server.Handlers{
		Root: handler.New(),
		Health: handler.NewHealthHandler(
			handler.HealthCheck{Name: "postgres", Checker: repo},
			handler.HealthCheck{Name: "redis", Checker: cacheClient},
			handler.HealthCheck{Name: "reminder_store", Checker: handler.HealthFunc(sqlDB.PingContext)},
		),
		Metrics:   handler.NewMetricsHandler(recorder.Handler(), nil),
		Auth:      handler.NewAuthHandler(authService, logger),
		Users:     handler.NewUserHandler(userService, logger),
		Recipes:   handler.NewRecipeHandler(recipeService, logger),
		Reviews:   handler.NewReviewHandler(commentService, ratingService, logger),
		Favorites: handler.NewFavoriteHandler(favoriteService, logger),
		Premium:   handler.NewPremiumHandler(premiumService, logger),
		Admin:     handler.NewAdminHandler(premiumService, logger),
		Reminders: handler.NewReminderHandler(reminderService, logger),
		Images:    handler.NewImageHandler(imageService, cfg.ImageMaxFileSize, logger),
	}

	router := server.NewRouter(server.RouterConfig{
		Logger:        logger,
		Authenticator: authService,
		Features:      premiumService,
		RateLimit: middleware.RateLimitConfig{
			Logger:        logger,
			Limiter:       cacheClient,
			Enabled:       cfg.RateLimitEnabled,
			UserPerMinute: cfg.RateLimitUserPerMin,
			UserBurst:     cfg.RateLimitUserBurst,
			IPRPS:         cfg.RateLimitAuthRPS,
			IPBurst:       cfg.RateLimitAuthBurst,
			FallbackRPS:   cfg.RateLimitFallbackRPS,
			FallbackBurst: cfg.RateLimitFallbackBurst,
		},
		Security: middleware.SecurityConfig{
			IsDevelopment:      cfg.IsDevelopment(),
			MaxRequestBodySize: cfg.MaxRequestBodySize,
		},
		CORS:       corsConfig(cfg),
		Instrument: recorder.InstrumentHandler,
	}, handlers)

	srv := server.New(
		router,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	// Components stop in reverse registration order
	srv.OnShutdown("database", func(ctx context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("reminder-store", func(ctx context.Context) error {
		return sqlDB.Close()
	})
	srv.OnShutdown("cache", func(ctx context.Context) error {
		return cacheClient.Close()
	})

	if cfg.EventsEnabled {
		statsWorker := events.NewWorker(cacheClient.Client(), eventRepo, logger, events.NewConsumerID(), recorder)
		srv.Go("recipe-events", statsWorker.Run)
		srv.OnShutdown("recipe-events", statsWorker.Shutdown)
	}

	if cfg.ReminderWorkerEnabled {
		// Without a webhook URL reminders only land in the in-app inbox
		var sender reminder.Sender
		if cfg.ReminderWebhookURL != "" {
			sender = reminder.NewWebhookSender(cfg.ReminderWebhookURL, cfg.ReminderWebhookSecret)
		}
		reminderWorker := reminder.NewWorker(reminder.NewStore(sqlDB), sender, logger, recorder)
		reminderWorker.SetBatchSize(cfg.ReminderBatchSize)
		reminderWorker.SetPollInterval(cfg.ReminderPollInterval)
		srv.Go("reminder-delivery", reminderWorker.Run)
	}

	scheduler := jobs.NewScheduler(logger, cfg.ShutdownTimeout)
	if err := scheduler.Add("premium-sweep", cfg.PremiumSweepSchedule, jobs.PremiumSweep(premiumService, logger)); err != nil {
		logger.Error("failed to schedule premium sweep", "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	srv.OnShutdown("scheduler", scheduler.Shutdown)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"base_url", cfg.BaseURL,
		"env", cfg.AppEnv,
		"google_sign_in", cfg.GoogleSignInEnabled(),
		"image_uploads", imageService.Enabled(),
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func corsConfig(cfg *config.Config) middleware.CORSConfig {
	return middleware.CORSConfig{AllowedOrigins: cfg.GetCORSAllowedOrigins(), MaxAge: cfg.CORSMaxAge}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
