package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var errMalformedEntry = errors.New("stream entry is missing url or data")

const (
	defaultClaimIdle = 30 * time.Second
	readCount        = 10
)

// StreamConsumer drains the products stream written by RedisSink into
// another sink, typically postgres.
type StreamConsumer struct {
	client     *redis.Client
	stream     string
	deadLetter string
	group      string
	consumer   string
	claimIdle  time.Duration
	sink       Sink
	logger     *slog.Logger
}

func NewStreamConsumer(client *redis.Client, stream, group, consumer string, sink Sink, logger *slog.Logger) *StreamConsumer {
	return &StreamConsumer{
		client:     client,
		stream:     stream,
		deadLetter: stream + ":dead",
		group:      group,
		consumer:   consumer,
		claimIdle:  defaultClaimIdle,
		sink:       sink,
		logger:     logger.With("component", "stream_consumer", "stream", stream),
	}
}

// WithClaimIdle sets how long an entry must sit unacknowledged before it is
// retried. Zero retries every pending entry on the next pass.
func (c *StreamConsumer) WithClaimIdle(d time.Duration) *StreamConsumer {
	c.claimIdle = d
	return c
}

// EnsureGroup creates the consumer group, and the stream with it.
func (c *StreamConsumer) EnsureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	return nil
}

func (c *StreamConsumer) Run(ctx context.Context) error {
	if err := c.EnsureGroup(ctx); err != nil {
		return err
	}

	c.logger.Info("starting consumer", "group", c.group, "sink", c.sink.Name(), "claim_idle", c.claimIdle)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, err := c.ProcessOnce(ctx, 5*time.Second); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("failed to read from stream", "error", err)
			time.Sleep(time.Second)
		}
	}
}

// ProcessOnce first retries entries left pending longer than the claim idle
// time, then reads one batch of new entries. A negative block returns
// immediately when nothing new is there. Entries that fail to store stay
// pending; malformed entries go to the dead-letter stream.
func (c *StreamConsumer) ProcessOnce(ctx context.Context, block time.Duration) (int, error) {
	reclaimed, err := c.reclaim(ctx)
	if err != nil {
		return 0, err
	}
	stored := c.handle(ctx, reclaimed)

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.consumer,
		Streams:  []string{c.stream, ">"},
		Count:    readCount,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return stored, nil
	}
	if err != nil {
		return stored, err
	}

	for _, stream := range streams {
		stored += c.handle(ctx, stream.Messages)
	}

	return stored, nil
}

func (c *StreamConsumer) reclaim(ctx context.Context) ([]redis.XMessage, error) {
	msgs, _, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   c.stream,
		Group:    c.group,
		Consumer: c.consumer,
		MinIdle:  c.claimIdle,
		Start:    "0-0",
		Count:    readCount,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to claim pending entries: %w", err)
	}
	return msgs, nil
}

func (c *StreamConsumer) handle(ctx context.Context, msgs []redis.XMessage) int {
	stored := 0
	for _, msg := range msgs {
		err := c.processMessage(ctx, msg)
		if errors.Is(err, errMalformedEntry) {
			c.logger.Warn("moving malformed message to dead letter", "id", msg.ID, "dead_letter", c.deadLetter)
			if err := c.moveToDeadLetter(ctx, msg); err != nil {
				c.logger.Error("failed to dead-letter message", "id", msg.ID, "error", err)
			}
			continue
		}
		if err != nil {
			c.logger.Error("failed to process message", "id", msg.ID, "error", err)
			continue
		}

		if err := c.client.XAck(ctx, c.stream, c.group, msg.ID).Err(); err != nil {
			c.logger.Error("failed to acknowledge message", "id", msg.ID, "error", err)
			continue
		}
		stored++
	}
	return stored
}

func (c *StreamConsumer) processMessage(ctx context.Context, msg redis.XMessage) error {
	url, _ := msg.Values["url"].(string)
	data, _ := msg.Values["data"].(string)
	if url == "" || data == "" {
		return fmt.Errorf("%w: %s", errMalformedEntry, msg.ID)
	}

	if err := Persist(ctx, c.sink, url, []byte(data)); err != nil {
		return err
	}

	c.logger.Debug("stored product", "id", msg.Values["id"], "url", url)
	return nil
}

func (c *StreamConsumer) moveToDeadLetter(ctx context.Context, msg redis.XMessage) error {
	values := make(map[string]interface{}, len(msg.Values)+1)
	for k, v := range msg.Values {
		values[k] = v
	}
	values["source_id"] = msg.ID

	if err := c.client.XAdd(ctx, &redis.XAddArgs{Stream: c.deadLetter, Values: values}).Err(); err != nil {
		return err
	}
	return c.client.XAck(ctx, c.stream, c.group, msg.ID).Err()
}
