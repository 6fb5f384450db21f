package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const DefaultTopic = "clinic.appointments"

type KafkaConfig struct {
	Brokers []string
	Topic   string
	// Linger is how long the client waits to fill a batch.
	Linger time.Duration
}

// Kafka publishes events keyed by doctor id so a doctor's events stay ordered.
type Kafka struct {
	client *kgo.Client
	topic  string
	logger *zap.Logger
	tracer trace.Tracer
}

func NewKafka(cfg KafkaConfig, logger *zap.Logger) (*Kafka, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("no kafka brokers configured")
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.Linger <= 0 {
		cfg.Linger = 5 * time.Millisecond
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.ProducerLinger(cfg.Linger),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		// events are best effort; a request never waits on retries
		kgo.RecordRetries(1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	return &Kafka{
		client: client,
		topic:  cfg.Topic,
		logger: logger,
		tracer: otel.Tracer("clinic-events"),
	}, nil
}

func (k *Kafka) Publish(ctx context.Context, e Event) error {
	ctx, span := k.tracer.Start(ctx, "publish_event",
		trace.WithAttributes(
			attribute.String("topic", k.topic),
			attribute.String("event.type", string(e.Type)),
		))
	defer span.End()

	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	rec := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(strconv.FormatInt(e.DoctorID, 10)),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event-type", Value: []byte(e.Type)},
		},
	}
	if err := k.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("produce %s: %w", e.Type, err)
	}
	k.logger.Debug("event published",
		zap.String("type", string(e.Type)),
		zap.String("id", e.ID),
		zap.Int32("partition", rec.Partition),
		zap.Int64("offset", rec.Offset))
	return nil
}

func (k *Kafka) Close() {
	k.client.Close()
}

// EnsureTopic creates topic if it is missing.
func EnsureTopic(ctx context.Context, brokers []string, topic string, partitions int32, replicas int16, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	cl, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	if err != nil {
		return fmt.Errorf("failed to create kafka client: %w", err)
	}
	defer cl.Close()

	adm := kadm.NewClient(cl)
	resp, err := adm.CreateTopics(ctx, partitions, replicas, nil, topic)
	if err != nil {
		return fmt.Errorf("failed to create topic %s: %w", topic, err)
	}
	for _, r := range resp {
		if errors.Is(r.Err, kerr.TopicAlreadyExists) {
			logger.Info("topic already exists", zap.String("topic", r.Topic))
			continue
		}
		if r.Err != nil {
			return fmt.Errorf("failed to create topic %s: %w", r.Topic, r.Err)
		}
		logger.Info("topic created", zap.String("topic", r.Topic), zap.Int32("partitions", partitions))
	}
	return nil
}
