package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/maltedev/product-page-scraper/internal/config"
	"github.com/maltedev/product-page-scraper/internal/database"
	"github.com/maltedev/product-page-scraper/internal/observability"
	"github.com/redis/go-redis/v9"
)

var ErrUnknownTarget = errors.New("unknown output target")

// Sink persists one serialized product. url identifies the scraped page.
type Sink interface {
	Store(ctx context.Context, url string, data []byte) error
	Name() string
	Close() error
}

// Open builds the sink selected by cfg.Output.Target and checks that its
// backend is reachable.
func Open(ctx context.Context, cfg *config.Config) (Sink, error) {
	switch cfg.Output.Target {
	case config.TargetFile, "":
		return NewFileSink(cfg.Output.File), nil

	case config.TargetPostgres:
		db, err := database.New(ctx, database.Config{
			DSN:      cfg.Database.DSN(),
			MaxConns: cfg.Database.MaxConns,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return NewPostgresSink(db), nil

	case config.TargetRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return NewRedisSink(client, cfg.Output.Stream), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, cfg.Output.Target)
	}
}

// Persist stores data through sink and records the outcome.
func Persist(ctx context.Context, sink Sink, url string, data []byte) error {
	err := sink.Store(ctx, url, data)
	observability.ObservePersist(sink.Name(), err)
	if err != nil {
		return fmt.Errorf("%s sink: %w", sink.Name(), err)
	}
	return nil
}
