package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaNotifier produces events to a Kafka topic, keyed by user id so a
// single account's events stay ordered within a partition. Production is
// asynchronous; delivery errors are logged from the callback.
type KafkaNotifier struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

func NewKafkaNotifier(brokers []string, topic string, logger *slog.Logger) (*KafkaNotifier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, err
	}
	return &KafkaNotifier{
		client: client,
		topic:  topic,
		logger: logger,
	}, nil
}

func (n *KafkaNotifier) Publish(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.WarnContext(ctx, "failed to encode domain event", "event", event.Name, "error", err)
		return
	}

	record := &kgo.Record{
		Topic: n.topic,
		Key:   []byte(strconv.FormatInt(event.UserID, 10)),
		Value: payload,
	}
	n.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			n.logger.Warn("failed to produce domain event",
				"event", event.Name,
				"topic", n.topic,
				"error", err,
			)
		}
	})
}

// Close flushes pending records and releases the producer.
func (n *KafkaNotifier) Close() {
	n.client.Close()
}
