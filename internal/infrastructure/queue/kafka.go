package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/YodaWagyu/everything-switching/internal/domain/model"
	"github.com/YodaWagyu/everything-switching/internal/domain/repository"
)

// KafkaConfig holds Kafka connection configuration
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// KafkaUsageSink publishes usage events to a Kafka topic so central
// analytics can consume them. The local SQLite store stays the source of
// truth; this sink is best-effort.
type KafkaUsageSink struct {
	writer *kafka.Writer
}

// NewKafkaUsageSink creates a new usage-event producer
func NewKafkaUsageSink(config KafkaConfig) *KafkaUsageSink {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(config.Brokers...),
		Topic:    config.Topic,
		Balancer: &kafka.Hash{}, // events of one session stay in order on one partition
		// Usage events are fire-and-forget; don't block request handling on acks.
		RequiredAcks: kafka.RequireOne,
		Async:        true,
	}
	return &KafkaUsageSink{writer: writer}
}

var _ repository.UsageSink = (*KafkaUsageSink)(nil)

// Publish sends one usage event, keyed by session id.
func (s *KafkaUsageSink) Publish(ctx context.Context, event model.UsageEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.SessionID),
		Value: data,
		Time:  time.Now(),
	})
}

// PublishBatch sends several usage events in one write.
func (s *KafkaUsageSink) PublishBatch(ctx context.Context, events []model.UsageEvent) error {
	msgs := make([]kafka.Message, len(events))
	for i, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			return err
		}
		msgs[i] = kafka.Message{
			Key:   []byte(event.SessionID),
			Value: data,
			Time:  time.Now(),
		}
	}
	return s.writer.WriteMessages(ctx, msgs...)
}

// Close closes the producer
func (s *KafkaUsageSink) Close() error {
	return s.writer.Close()
}
