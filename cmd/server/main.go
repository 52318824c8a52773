package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/Mitul30M/exploreinn-sub002/internal/config"
	"github.com/Mitul30M/exploreinn-sub002/internal/health"
	"github.com/Mitul30M/exploreinn-sub002/internal/identity"
	"github.com/Mitul30M/exploreinn-sub002/internal/logger"
	"github.com/Mitul30M/exploreinn-sub002/internal/mailbox"
	"github.com/Mitul30M/exploreinn-sub002/internal/metrics"
	"github.com/Mitul30M/exploreinn-sub002/internal/middleware"
	"github.com/Mitul30M/exploreinn-sub002/internal/repository"
	"github.com/Mitul30M/exploreinn-sub002/internal/sanitizer"
)

// Version is set at build time
var Version = "dev"

func main() {
	cfg := config.Load()

	log := logger.New(logger.DefaultConfig())
	slog.SetDefault(log)

	if cfg.JWT.AccessSecret == "" {
		log.Error("JWT_ACCESS_SECRET environment variable is required")
		os.Exit(1)
	}

	// Database connection
	pool, err := setupDatabase(cfg, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// sqlx handle over the same pool for the mail repository
	sqlDB := stdlib.OpenDBFromPool(pool)
	db := sqlx.NewDb(sqlDB, "pgx")
	defer db.Close()

	// Repositories
	userRepo := repository.NewUserRepository(pool)
	listingRepo := repository.NewListingRepository(pool)
	mailRepo := repository.NewMailRepo(db)

	// Identity resolution
	tokenService := identity.NewTokenService(identity.TokenServiceConfig{
		AccessSecret:      cfg.JWT.AccessSecret,
		AccessTokenExpiry: cfg.JWT.AccessTokenExpiry,
		Issuer:            cfg.JWT.Issuer,
	})
	resolver := identity.NewTokenResolver(tokenService)

	// Mailbox core
	gate := mailbox.NewGate(userRepo, listingRepo, log)
	query := mailbox.NewQuery(mailRepo)
	enricher := mailbox.NewEnricher(userRepo, listingRepo, sanitizer.NewBodySanitizer(), log)
	registry := mailbox.NewViewRegistry(cfg.Mailbox.ViewIdleTimeout, log)

	viewService := mailbox.NewViewService(mailbox.ViewServiceConfig{
		Gate:     gate,
		Query:    query,
		Enricher: enricher,
		Marker:   mailRepo,
		Unread:   mailRepo,
		Registry: registry,
		Logger:   log,
	})

	mailboxHandler := mailbox.NewHandler(viewService, log)

	// Middleware
	actorMiddleware := middleware.NewActorMiddleware(resolver)
	openLimiter := middleware.NewViewOpenRateLimiter()

	// Health and metrics
	healthHandler := health.NewHandler(health.Config{
		DBPool:  pool,
		Version: Version,
	})
	dbStats := metrics.NewDBStatsCollector(pool)
	dbStats.Start(15 * time.Second)
	defer dbStats.Stop()

	// Router
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(metrics.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://exploreinn.com", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.Health)
	r.Get("/health/ready", healthHandler.Readiness)
	r.Get("/health/live", healthHandler.Liveness)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(actorMiddleware.Resolve)
		mailbox.RegisterRoutes(r, mailboxHandler, openLimiter.RateLimitOpen)
	})

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("starting server", "addr", addr, "version", Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	healthHandler.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server exited")
}

// setupDatabase creates and configures the database connection pool
func setupDatabase(cfg *config.Config, log *slog.Logger) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = 50
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 5 * time.Minute
	poolConfig.MaxConnIdleTime = 1 * time.Minute
	poolConfig.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	log.Info("connected to database",
		"name", cfg.Database.DBName,
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
	)
	return pool, nil
}
