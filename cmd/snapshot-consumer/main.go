package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/maltedev/product-page-scraper/internal/config"
	"github.com/maltedev/product-page-scraper/internal/database"
	"github.com/maltedev/product-page-scraper/internal/logger"
	"github.com/maltedev/product-page-scraper/internal/storage"
	"github.com/redis/go-redis/v9"
)

// snapshot-consumer moves products published to the redis stream into the
// product_snapshot table.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	logger.Info("Connected to Redis", "addr", cfg.Redis.Addr)

	db, err := database.New(ctx, database.Config{
		DSN:      cfg.Database.DSN(),
		MaxConns: cfg.Database.MaxConns,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to prepare schema: %v", err)
	}
	sink := storage.NewPostgresSink(db)
	defer sink.Close()

	hostname, _ := os.Hostname()
	consumer := storage.NewStreamConsumer(rdb, cfg.Output.Stream, cfg.Output.StreamGroup, "consumer-"+hostname, sink, logger).
		WithClaimIdle(cfg.Output.ClaimIdle)

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer error", "error", err)
		os.Exit(1)
	}
	logger.Info("Consumer stopped")
}
