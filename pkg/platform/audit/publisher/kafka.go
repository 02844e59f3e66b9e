package publisher

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "fundmatch/pkg/platform/audit"
)

// Kafka publishes committed outbox events to a Kafka topic. Kafka is the
// durable feed downstream consumers (reconciliation, analytics) read from.
type Kafka struct {
	client *kgo.Client
	topic  string
}

// NewKafka connects to the brokers and ensures the topic exists.
func NewKafka(brokers []string, topic string) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	admin := kadm.NewClient(client)
	resp, err := admin.CreateTopic(context.Background(), 1, 1, nil, topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("create kafka topic: %w", err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		client.Close()
		return nil, fmt.Errorf("create kafka topic: %w", resp.Err)
	}

	return &Kafka{client: client, topic: topic}, nil
}

// Publish produces one event synchronously. The worker retries on error by
// leaving the outbox row pending.
func (k *Kafka) Publish(ctx context.Context, event audit.PendingEvent) error {
	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(event.Event.CampaignID),
		Value: event.Payload,
	}
	if err := k.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes and releases the underlying client.
func (k *Kafka) Close() {
	k.client.Close()
}
