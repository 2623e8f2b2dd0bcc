package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/forgo/questline/internal/apperror"
	"github.com/forgo/questline/internal/chat"
	"github.com/forgo/questline/internal/config"
	"github.com/forgo/questline/internal/database"
	"github.com/forgo/questline/internal/handler"
	"github.com/forgo/questline/internal/metrics"
	"github.com/forgo/questline/internal/middleware"
	"github.com/forgo/questline/internal/model"
	"github.com/forgo/questline/internal/policy"
	"github.com/forgo/questline/internal/repository"
	"github.com/forgo/questline/internal/service"
	"github.com/forgo/questline/pkg/jwt"
)

func main() {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logging
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Server.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection
	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
	})

	ctx := context.Background()
	if err := db.Connect(ctx); err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	slog.Info("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Database),
	)

	// Initialize JWT service
	jwtService, err := jwt.NewService(jwt.Config{
		Secret:         cfg.JWT.Secret,
		Issuer:         cfg.JWT.Issuer,
		ExpirationMins: cfg.JWT.ExpirationMins,
	})
	if err != nil {
		slog.Error("failed to initialize JWT service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Error boundary shared by HTTP handlers, middleware and the socket
	errs := &apperror.Normalizer{
		Production:   cfg.IsProduction(),
		Logger:       logger,
		RequestAttrs: middleware.LogAttrs,
	}
	tiers := policy.DefaultTiers()

	// Services
	userRepo := repository.NewUserRepository(db)
	profileService := service.NewProfileService(service.ProfileServiceConfig{
		UserRepo: userRepo,
		Tracker:  service.NewLogTracker(logger),
		Logger:   logger,
	})

	// Realtime chat
	hub := chat.NewHub(cfg.Chat.PingInterval, logger)
	defer hub.Close()

	chatRouter := chat.NewRouter(hub, chat.RouterConfig{
		MaxMessageLength: cfg.Chat.MaxMessageLength,
		Limiter: middleware.NewRateLimiter(middleware.RateLimitConfig{
			Rate:   cfg.Chat.EventsPerMinute,
			Window: time.Minute,
			Burst:  cfg.Chat.EventBurst,
		}),
		Errors: errs,
		Logger: logger,
	})
	chatServer := chat.NewServer(hub, chatRouter, chat.ServerConfig{
		Verifier:       jwtService,
		Errors:         errs,
		Logger:         logger,
		OriginPatterns: cfg.Chat.OriginPatterns,
		SendBuffer:     cfg.Chat.SendBuffer,
		WriteTimeout:   cfg.Chat.WriteTimeout,
		ReadLimit:      cfg.Chat.ReadLimit,
	})

	// Handlers
	healthHandler := handler.NewHealthHandler(db)
	authHandler := handler.NewAuthHandler(errs)
	profileHandler := handler.NewProfileHandler(profileService, errs)
	insightsHandler := handler.NewInsightsHandler(tiers)
	chatHandler := handler.NewChatHandler(hub)

	// Middleware
	authMiddleware := middleware.Auth(jwtService, errs)
	optionalAuth := middleware.OptionalAuth(jwtService)
	adminMiddleware := func(next http.Handler) http.Handler {
		return authMiddleware(middleware.Authorize(errs, model.RoleAdmin)(next))
	}
	potionMiddleware := func(next http.Handler) http.Handler {
		return authMiddleware(middleware.RequireTier(tiers, errs, policy.TierPotion)(next))
	}
	guildMiddleware := func(next http.Handler) http.Handler {
		return authMiddleware(middleware.GuildAccess(errs)(next))
	}

	// Set up routes
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Realtime socket; authenticates during the handshake
	mux.Handle("GET /v1/socket", chatServer)

	mux.Handle("GET /v1/auth/me", authMiddleware(http.HandlerFunc(authHandler.Me)))

	mux.Handle("GET /v1/profile", authMiddleware(http.HandlerFunc(profileHandler.Get)))
	mux.Handle("PATCH /v1/profile/onboarding", authMiddleware(http.HandlerFunc(profileHandler.SaveOnboarding)))

	mux.Handle("GET /v1/insights", potionMiddleware(http.HandlerFunc(insightsHandler.Get)))

	mux.Handle("GET /v1/guilds/{guildId}/presence", optionalAuth(http.HandlerFunc(chatHandler.Presence)))
	mux.Handle("GET /v1/guilds/{guildId}/roster", guildMiddleware(http.HandlerFunc(chatHandler.Roster)))

	mux.Handle("GET /v1/admin/chat/stats", adminMiddleware(http.HandlerFunc(chatHandler.Stats)))

	// Apply global middleware
	globals := []middleware.Middleware{
		middleware.RequestID,
		middleware.Logger,
		middleware.Recovery(errs),
		middleware.CORS(cfg.Server.AllowedOrigins),
		metrics.Middleware,
	}
	if cfg.RateLimit.Enabled {
		globals = append(globals, middleware.RateLimit(middleware.NewRateLimiter(middleware.RateLimitConfig{
			Rate:   cfg.RateLimit.Rate,
			Window: cfg.RateLimit.Window,
			Burst:  cfg.RateLimit.Burst,
		}), errs))
	}
	wrapped := middleware.Chain(mux, globals...)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	// Close sockets first; Shutdown does not track hijacked connections
	hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	slog.Info("server exited")
}
