package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/povarna/generative-ai-agents/lm-bridge/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// PayloadField holds the JSON document in both request and result messages.
const PayloadField = "payload"

type Completer interface {
	Execute(ctx context.Context, request models.CompletionRequest) models.CompletionResult
}

// streamClient is the subset of *redis.Client the consumer needs.
type streamClient interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
	Close() error
}

type Consumer struct {
	client       streamClient
	stream       string
	resultStream string
	groupID      string
	consumerName string
	completer    Completer
	logger       *zerolog.Logger
}

func NewConsumer(client streamClient, cfg *RedisStreamConfig, completer Completer, logger *zerolog.Logger) *Consumer {
	return &Consumer{
		client:       client,
		stream:       cfg.RequestStream,
		resultStream: cfg.ResultStream,
		groupID:      cfg.Group,
		consumerName: cfg.ConsumerName,
		completer:    completer,
		logger:       logger,
	}
}

func (c *Consumer) Setup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.groupID, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info().
		Str("stream", c.stream).
		Str("result_stream", c.resultStream).
		Str("group", c.groupID).
		Str("consumer", c.consumerName).
		Msg("Consumer started")

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.groupID,
			Consumer: c.consumerName,
			Streams:  []string{c.stream, ">"},
			Count:    1,
			Block:    2 * time.Second,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) {
				// timeout, no message -> loop again
				continue
			}

			if ctx.Err() != nil {
				return ctx.Err() // context cancelled during block
			}

			c.logger.Error().Err(err).Msg("Failed to read from stream")
			continue
		}

		for _, s := range streams {
			for _, msg := range s.Messages {
				c.process(ctx, msg)
			}
		}
	}
}

func (c *Consumer) Stop() error {
	return c.client.Close()
}

func (c *Consumer) process(ctx context.Context, msg redis.XMessage) {
	c.logger.Info().Str("id", msg.ID).Msg("Message received")

	payload, ok := msg.Values[PayloadField].(string)
	if !ok {
		c.logger.Error().Str("id", msg.ID).Msg("Missing payload field")
		c.ack(ctx, msg.ID)
		return
	}

	var request models.CompletionRequest
	if err := json.Unmarshal([]byte(payload), &request); err != nil {
		c.logger.Error().Err(err).Str("id", msg.ID).Msg("Failed to decode message")
		c.ack(ctx, msg.ID) // ACK so the bad message is not redelivered
		return
	}
	if request.ID == "" {
		request.ID = msg.ID
	}

	result := c.completer.Execute(ctx, request)
	if result.Outcome == models.OutcomeCancelled {
		// Leave it pending so another consumer can claim it.
		c.logger.Warn().Str("id", msg.ID).Msg("Completion cancelled, message left pending")
		return
	}

	if err := c.publish(ctx, result); err != nil {
		c.logger.Error().Err(err).Str("id", msg.ID).Msg("Failed to publish result")
		return
	}

	c.logger.Info().
		Str("id", msg.ID).
		Str("outcome", string(result.Outcome)).
		Dur("duration", result.Duration).
		Msg("Completion published")

	c.ack(ctx, msg.ID)
}

func (c *Consumer) publish(ctx context.Context, result models.CompletionResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	return c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: c.resultStream,
		Values: map[string]any{PayloadField: string(data)},
	}).Err()
}

func (c *Consumer) ack(ctx context.Context, msgID string) {
	if err := c.client.XAck(ctx, c.stream, c.groupID, msgID).Err(); err != nil {
		c.logger.Error().Err(err).Str("id", msgID).Msg("Failed to ACK message")
	}
}
