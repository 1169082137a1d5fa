package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	alertDomain "github.com/allisson/trustlog/internal/alert/domain"
	apperrors "github.com/allisson/trustlog/internal/errors"
	"github.com/allisson/trustlog/internal/retry"
)

// Producer is the subset of *kgo.Client used by KafkaChannel.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// KafkaChannel publishes alert payloads to a topic, keyed by tenant so the
// alerts of one tenant stay ordered within a partition.
type KafkaChannel struct {
	producer     Producer
	defaultTopic string
	logger       *slog.Logger
}

// NewKafkaChannel connects a producer to the given brokers.
func NewKafkaChannel(brokers []string, defaultTopic string, logger *slog.Logger) (*KafkaChannel, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(defaultTopic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.ZstdCompression(), kgo.NoCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}
	return NewKafkaChannelWithProducer(client, defaultTopic, logger), nil
}

// NewKafkaChannelWithProducer wraps an existing producer.
func NewKafkaChannelWithProducer(producer Producer, defaultTopic string, logger *slog.Logger) *KafkaChannel {
	return &KafkaChannel{
		producer:     producer,
		defaultTopic: defaultTopic,
		logger:       logger.With("component", "alert-kafka-channel"),
	}
}

// Kind returns ChannelKafka.
func (c *KafkaChannel) Kind() alertDomain.ChannelKind {
	return alertDomain.ChannelKafka
}

// Deliver produces one record and waits for the broker acknowledgement.
func (c *KafkaChannel) Deliver(
	ctx context.Context,
	target string,
	payload *alertDomain.Payload,
) (alertDomain.DeliveryState, error) {
	topic := target
	if topic == "" {
		topic = c.defaultTopic
	}
	if topic == "" {
		return alertDomain.DeliveryFailed, retry.Permanent(
			apperrors.Wrap(alertDomain.ErrChannelUnavailable, "no kafka topic configured"),
		)
	}

	value, err := json.Marshal(payload)
	if err != nil {
		return alertDomain.DeliveryFailed, retry.Permanent(err)
	}

	record := &kgo.Record{
		Topic: topic,
		Key:   []byte(payload.TenantID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_kind", Value: []byte(payload.EventKind)},
			{Key: "severity", Value: []byte(payload.Severity)},
		},
	}
	if err := c.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return alertDomain.DeliveryFailed, apperrors.Wrap(apperrors.ErrUnreachable, err.Error())
	}
	return alertDomain.DeliverySent, nil
}

// Close flushes and closes the producer.
func (c *KafkaChannel) Close() {
	c.producer.Close()
}
