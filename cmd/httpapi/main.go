// Command httpapi serves the operator-facing HTTP edge: health and
// readiness probes, the dead-letter query endpoints, and a manual
// trigger for the area generation orchestrator. Grounded on
// event-service's api/cmd/main.go wiring order, split into its own
// process because the event-driven core (cmd/worldcore) and this
// edge scale independently.
package main

import (
	"context"
	"database/sql"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/piquet-h/the-shifting-atlas-sub001/internal/areagen"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/config"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/eventcontract"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/infrastructure/caching/redis"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/infrastructure/messaging/rabbitmq"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/infrastructure/postgres"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/logger"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/telemetry"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/transport/http/handlers"
	mw "github.com/piquet-h/the-shifting-atlas-sub001/internal/transport/http/middleware"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/transport/http/router"

	zlog "github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("config load failed")
	}
	logger.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal().Err(err).Msg("pgx pool init failed")
	}
	defer pool.Close()

	sqlDB, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal().Err(err).Msg("database/sql open failed")
	}
	defer sqlDB.Close()

	locations := postgres.NewLocationRepository(pool)
	realms := postgres.NewRealmRepository(sqlDB)
	deadLetters := postgres.NewDeadLetterRepository(pool)

	var rc *redis.Client
	if cfg.RedisURL != "" {
		rc, err = redis.New(cfg.RedisURL)
		if err != nil {
			zlog.Warn().Err(err).Msg("redis connect failed, readyz will report not_configured")
			rc = nil
		} else {
			defer rc.Close()
		}
	}

	var publisher eventcontract.Publisher
	var rabbitPub *rabbitmq.Publisher
	for i := 0; i < 15; i++ {
		rabbitPub, err = rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange, logger.Logger)
		if err == nil {
			break
		}
		zlog.Warn().Err(err).Msg("rabbit publisher init failed, retrying")
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		zlog.Fatal().Err(err).Msg("rabbit publisher init failed after retries")
	}
	defer rabbitPub.Close()
	publisher = rabbitPub

	sink := telemetry.NewLoggingSink(logger.Logger)
	orchestrator := areagen.New(locations, realms, publisher, sink, cfg.StarterLocationID, logger.Logger)

	deadLettersHandler := handlers.NewDeadLettersHandler(deadLetters)
	areaGenHandler := handlers.NewAreaGenHandler(orchestrator)
	auth := mw.NewAuth(cfg.JWTSecret, "")

	httpHandler := router.New(router.Dependencies{
		DeadLetters: deadLettersHandler,
		AreaGen:     areaGenHandler,
		Auth:        auth,
		Pool:        pool,
		Redis:       rc,
		Config:      cfg,
		Logger:      logger.Logger,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpHandler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zlog.Info().Str("addr", cfg.HTTPAddr).Msg("httpapi listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		zlog.Fatal().Err(err).Msg("server crashed")
	}
}
