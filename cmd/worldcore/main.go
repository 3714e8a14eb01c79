// Command worldcore runs the event-driven simulation core: it
// consumes World.Location.BatchGenerate and World.Exit.Create
// messages off RabbitMQ and dispatches them through the queue
// processor. Grounded on event-service's api/cmd/main.go wiring
// order (config -> logger -> postgres -> rabbit -> handlers -> serve).
package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/piquet-h/the-shifting-atlas-sub001/internal/batchgen"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/config"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/eventcontract"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/exitcreate"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/infrastructure/caching/redis"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/infrastructure/messaging/rabbitmq"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/infrastructure/postgres"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/logger"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/ports"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/queueprocessor"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/telemetry"

	zlog "github.com/rs/zerolog/log"
)

const idempotencyCacheCapacity = 4096

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
	if err := pool.Ping(ctx); err != nil {
		zlog.Fatal().Err(err).Msg("pgx pool ping failed")
	}

	if _, err := pool.Exec(ctx, postgres.Schema); err != nil {
		zlog.Fatal().Err(err).Msg("schema apply failed")
	}

	locations := postgres.NewLocationRepository(pool)
	processedEvents := postgres.NewProcessedEventRepository(pool)
	deadLetters := postgres.NewDeadLetterRepository(pool)

	var layers ports.LayerRepository = postgres.NewLayerRepository(pool)
	if cfg.RedisURL != "" {
		rc, err := redis.New(cfg.RedisURL)
		if err != nil {
			zlog.Warn().Err(err).Msg("redis connect failed, continuing uncached")
		} else {
			defer rc.Close()
			layers = redis.NewLayerCache(layers, rc, cfg.LayerCacheTTL)
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

	registry := queueprocessor.NewRegistry()
	batchHandler := batchgen.NewHandler(locations, layers, publisher, sink, logger.Logger)
	exitHandler := exitcreate.NewHandler(locations)
	registry.Register(eventcontract.WorldLocationBatchGenerate, batchHandler.Handle)
	registry.Register(eventcontract.WorldExitCreate, exitHandler.Handle)

	cache := queueprocessor.NewIdempotencyCache(idempotencyCacheCapacity)
	processor := queueprocessor.NewProcessor(registry, processedEvents, deadLetters, sink, cache, logger.Logger)

	var consumer *rabbitmq.Consumer
	for i := 0; i < 15; i++ {
		consumer, err = rabbitmq.NewConsumer(cfg.RabbitURL, cfg.RabbitExchange, "worldcore", processor, logger.Logger)
		if err == nil {
			break
		}
		zlog.Warn().Err(err).Msg("rabbit consumer init failed, retrying")
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		zlog.Fatal().Err(err).Msg("rabbit consumer init failed after retries")
	}
	defer consumer.Close()

	if err := consumer.Start(ctx); err != nil {
		zlog.Fatal().Err(err).Msg("consumer start failed")
	}

	zlog.Info().Msg("worldcore consuming")
	<-ctx.Done()
	zlog.Info().Msg("worldcore shutting down")
}
