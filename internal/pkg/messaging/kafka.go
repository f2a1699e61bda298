package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// ErrKafkaBrokersRequired is returned when no Kafka brokers are configured.
var ErrKafkaBrokersRequired = errors.New("messaging: kafka brokers are required")

// KafkaConfig configures the Kafka implementation.
type KafkaConfig struct {
	Brokers []string
	// Transport overrides the default kafka-go transport.
	Transport kafka.RoundTripper
}

// Kafka publishes with one kafka-go writer shared by all topics.
type Kafka struct {
	writer *kafka.Writer

	mu     sync.Mutex
	closed bool
}

func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrKafkaBrokersRequired
	}

	return &Kafka{
		writer: &kafka.Writer{
			Addr:      kafka.TCP(cfg.Brokers...),
			Balancer:  &kafka.LeastBytes{},
			Transport: cfg.Transport,
		},
	}, nil
}

func (k *Kafka) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return nil
	}
	k.closed = true

	return k.writer.Close()
}

func (k *Kafka) Publish(ctx context.Context, topic string, msg Message) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if topic == "" {
		return PublishResult{}, ErrTopicRequired
	}

	k.mu.Lock()
	closed := k.closed
	k.mu.Unlock()
	if closed {
		return PublishResult{}, ErrClosed
	}

	kmsg := kafka.Message{
		Topic: topic,
		Key:   msg.Key,
		Value: msg.Body,
		Time:  time.Now(),
	}
	for key, v := range msg.Headers {
		kmsg.Headers = append(kmsg.Headers, kafka.Header{Key: key, Value: []byte(v)})
	}

	if err := k.writer.WriteMessages(ctx, kmsg); err != nil {
		return PublishResult{}, fmt.Errorf("messaging: kafka publish: %w", err)
	}

	return PublishResult{Topic: topic, Timestamp: kmsg.Time}, nil
}
