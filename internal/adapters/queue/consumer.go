package queue

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// MessageHandler processes one stream entry; a nil error acknowledges it
type MessageHandler interface {
	Handle(ctx context.Context, msg redis.XMessage) error
}

// Consumer reads a stream as a member of a consumer group and reclaims
// entries left pending by crashed members.
type Consumer struct {
	client    *redis.Client
	stream    string
	group     string
	consumer  string
	claimIdle time.Duration
	log       zerolog.Logger
	handler   MessageHandler
}

// NewConsumer creates a new consumer
func NewConsumer(client *redis.Client, stream, group, consumer string, claimIdle time.Duration, log zerolog.Logger, handler MessageHandler) *Consumer {
	if claimIdle <= 0 {
		claimIdle = 30 * time.Second
	}
	return &Consumer{
		client:    client,
		stream:    stream,
		group:     group,
		consumer:  consumer,
		claimIdle: claimIdle,
		log:       log,
		handler:   handler,
	}
}

// EnsureGroup creates the stream and group when missing
func (c *Consumer) EnsureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

// Start consumes until ctx is cancelled
func (c *Consumer) Start(ctx context.Context) error {
	ticker := time.NewTicker(c.claimIdle)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := c.read(ctx); err != nil && ctx.Err() == nil {
				c.log.Error().Err(err).Msg("stream read error")
				time.Sleep(2 * time.Second)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.claimStalled(ctx); err != nil && ctx.Err() == nil {
				c.log.Error().Err(err).Msg("claim stalled error")
			}
		default:
		}
	}
}

func (c *Consumer) read(ctx context.Context) error {
	result, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.consumer,
		Streams:  []string{c.stream, ">"},
		Count:    10,
		Block:    5 * time.Second,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	for _, stream := range result {
		for _, msg := range stream.Messages {
			c.process(ctx, msg)
		}
	}
	return nil
}

func (c *Consumer) claimStalled(ctx context.Context) error {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: c.stream,
		Group:  c.group,
		Start:  "-",
		End:    "+",
		Count:  10,
	}).Result()
	if err != nil {
		return err
	}

	for _, entry := range pending {
		if entry.Idle < c.claimIdle {
			continue
		}
		msgs, err := c.client.XClaim(ctx, &redis.XClaimArgs{
			Stream:   c.stream,
			Group:    c.group,
			Consumer: c.consumer,
			MinIdle:  c.claimIdle,
			Messages: []string{entry.ID},
		}).Result()
		if err != nil {
			c.log.Error().Err(err).Str("message_id", entry.ID).Msg("claim error")
			continue
		}
		for _, msg := range msgs {
			c.process(ctx, msg)
		}
	}
	return nil
}

// process handles and acknowledges msg; failed entries stay pending for a later claim
func (c *Consumer) process(ctx context.Context, msg redis.XMessage) {
	if err := c.handler.Handle(ctx, msg); err != nil {
		c.log.Error().Err(err).Str("message_id", msg.ID).Msg("handle message failed")
		return
	}
	if err := c.client.XAck(ctx, c.stream, c.group, msg.ID).Err(); err != nil {
		c.log.Error().Err(err).Str("message_id", msg.ID).Msg("ack failed")
	}
}
