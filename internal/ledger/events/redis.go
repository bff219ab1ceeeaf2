package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisNotifier publishes events on a Redis pub/sub channel for the realtime
// transport to fan out. Publish failures are logged, never surfaced.
type RedisNotifier struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

func NewRedisNotifier(client *redis.Client, channel string, logger *slog.Logger) *RedisNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisNotifier{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

func (n *RedisNotifier) Publish(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.WarnContext(ctx, "failed to encode domain event", "event", event.Name, "error", err)
		return
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		n.logger.WarnContext(ctx, "failed to publish domain event",
			"event", event.Name,
			"channel", n.channel,
			"error", err,
		)
	}
}
