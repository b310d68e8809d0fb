package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/log"

	"github.com/starlight-api/starlight-be/internal/api"
	"github.com/starlight-api/starlight-be/internal/auth"
	"github.com/starlight-api/starlight-be/internal/cache"
	"github.com/starlight-api/starlight-be/internal/config"
	"github.com/starlight-api/starlight-be/internal/database"
	"github.com/starlight-api/starlight-be/internal/logger"
	"github.com/starlight-api/starlight-be/internal/oauth"
	"github.com/starlight-api/starlight-be/internal/ratelimit"
	"github.com/starlight-api/starlight-be/internal/repositories/users"
	"github.com/starlight-api/starlight-be/internal/services"
	"github.com/starlight-api/starlight-be/internal/storage"
	"github.com/starlight-api/starlight-be/internal/tasks"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Environment)

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			AttachStacktrace: true,
		}); err != nil {
			log.Error().Err(err).Msg("Failed to initialize Sentry")
		}
		defer sentry.Flush(2 * time.Second)
	}

	// Set up database
	db, err := database.New(cfg.DatabaseURL, database.Options{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLife,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up cache and rate limiter on a shared Redis connection
	cacheClient, err := cache.New(cfg.RedisURL, cfg.CacheTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize cache")
	}
	defer cacheClient.Close()

	if err := cacheClient.Ping(context.Background()); err != nil {
		// The cache layer fails open, so a cold Redis only degrades features.
		log.Warn().Err(err).Msg("Cache backend unreachable at startup")
	}

	limiter := ratelimit.New(cacheClient.Client(), cfg.RateLimitPerMinute)
	tokens := auth.NewTokenService(cfg.SecretKey, cfg.AccessTokenExpiry)

	// Set up background task dispatch
	var dispatcher tasks.Dispatcher
	if asynqDispatcher, err := tasks.NewDispatcher(cfg.RedisURL); err != nil {
		log.Warn().Err(err).Msg("Task dispatch disabled")
		dispatcher = tasks.NopDispatcher{}
	} else {
		defer asynqDispatcher.Close()
		dispatcher = asynqDispatcher
	}

	// Set up services
	userService := services.NewUserService(users.NewPostgresRepository(db), cacheClient, dispatcher)

	// Set up OAuth providers
	redirect := func(provider string) string {
		return fmt.Sprintf("%s/api/v1/oauth/callback/%s", cfg.OAuthRedirectBase, provider)
	}
	googleProvider, err := oauth.NewGoogle(context.Background(), cfg.GoogleClientID, cfg.GoogleClientSecret, redirect("google"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Google OAuth provider")
	}
	var providerList []oauth.Provider
	if googleProvider != nil {
		providerList = append(providerList, googleProvider)
	}
	if githubProvider := oauth.NewGitHub(cfg.GitHubClientID, cfg.GitHubClientSecret, redirect("github")); githubProvider != nil {
		providerList = append(providerList, githubProvider)
	}
	providers := oauth.NewRegistry(providerList...)

	// Set up file storage backend
	var backend storage.Backend
	switch cfg.StorageBackend {
	case "s3":
		backend, err = storage.NewS3(context.Background(), storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	default:
		backend, err = storage.NewLocal(cfg.UploadDir)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage backend")
	}

	// Set up router
	router := api.NewRouter(api.Deps{
		Config:     cfg,
		DB:         db,
		Cache:      cacheClient,
		Limiter:    limiter,
		Tokens:     tokens,
		Users:      userService,
		Providers:  providers,
		Storage:    backend,
		Dispatcher: dispatcher,
	})

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("environment", cfg.Environment).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
