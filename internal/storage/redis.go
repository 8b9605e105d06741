package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisClient is the part of go-redis the sink uses.
type RedisClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
	Close() error
}

type RedisSink struct {
	client RedisClient
	stream string
}

func NewRedisSink(client RedisClient, stream string) *RedisSink {
	return &RedisSink{client: client, stream: stream}
}

func (s *RedisSink) Name() string {
	return "redis"
}

// Store appends one entry to the stream. The id field is a fresh uuid so
// consumers can deduplicate redeliveries.
func (s *RedisSink) Store(ctx context.Context, url string, data []byte) error {
	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{
			"id":   uuid.NewString(),
			"url":  url,
			"data": string(data),
		},
	}

	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to add to stream %s: %w", s.stream, err)
	}

	return nil
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}
