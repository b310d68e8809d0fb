// The worker consumes background tasks from the Redis queue and runs
// the periodic maintenance jobs.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/starlight-api/starlight-be/internal/cache"
	"github.com/starlight-api/starlight-be/internal/config"
	"github.com/starlight-api/starlight-be/internal/database"
	"github.com/starlight-api/starlight-be/internal/logger"
	"github.com/starlight-api/starlight-be/internal/repositories/users"
	"github.com/starlight-api/starlight-be/internal/services"
	"github.com/starlight-api/starlight-be/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init(cfg.Environment)

	db, err := database.New(cfg.DatabaseURL, database.Options{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLife,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	cacheClient, err := cache.New(cfg.RedisURL, cfg.CacheTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize cache")
	}
	defer cacheClient.Close()

	userService := services.NewUserService(users.NewPostgresRepository(db), cacheClient, tasks.NopDispatcher{})

	// Periodic jobs: keep the cached user stats warm.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@every 5m", func() {
		if err := userService.RefreshStats(context.Background()); err != nil {
			log.Error().Err(err).Msg("Failed to refresh user stats")
		}
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cron job")
	}
	scheduler.Start()
	defer scheduler.Stop()

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid Redis URL")
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{Concurrency: 10})

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeEmailSend, tasks.HandleEmailSend)
	mux.HandleFunc(tasks.TypeFileProcess, tasks.HandleFileProcess)

	go func() {
		log.Info().Msg("Worker starting")
		if err := srv.Run(mux); err != nil {
			log.Fatal().Err(err).Msg("Worker failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker...")
	srv.Shutdown()
	log.Info().Msg("Worker exiting")
}
