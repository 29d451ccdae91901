// Package kafka mirrors processed articles onto a Kafka/Redpanda topic
// for consumers other than the dashboard, e.g. a downstream analytics
// job. Optional: disabled whenever no brokers are configured.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-cv-evaluator/internal/domain"
)

// Producer publishes one record per processed article, keyed by domain
// so per-portal ordering is preserved across partitions.
type Producer struct {
	client *kgo.Client
	topic  string
}

// NewProducer constructs a Producer. Like the result stream this
// mirrors, there is no exactly-once requirement here: a duplicate result
// record on this topic is harmless for a downstream analytics consumer,
// so the client runs without a transactional ID.
func NewProducer(brokers []string, topic string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka: no seed brokers configured")
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.RequestRetries(5),
		kgo.ProducerBatchMaxBytes(1_000_000),
		kgo.WithHooks(otelHooks()...),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	if err := createTopicIfNotExists(context.Background(), client, topic, 4, 1); err != nil {
		slog.Warn("kafka: topic creation skipped, it may already exist",
			slog.String("topic", topic), slog.Any("error", err))
	}

	return &Producer{client: client, topic: topic}, nil
}

// PublishResult mirrors one processed article record.
func (p *Producer) PublishResult(ctx context.Context, result domain.Result) error {
	_, span := otel.Tracer("streaming.kafka").Start(ctx, "kafka.PublishResult")
	defer span.End()

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("kafka: marshal result: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(result.Domain),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "source", Value: []byte(result.Source)},
			{Key: "worker_id", Value: []byte(result.WorkerID)},
		},
	}

	promise := kgo.AbortingFirstErrPromise(p.client)
	p.client.Produce(ctx, record, promise.Promise())
	if err := promise.Err(); err != nil {
		return fmt.Errorf("kafka: produce: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (p *Producer) Close() error {
	if p.client != nil {
		p.client.Close()
	}
	return nil
}
