package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrTopicRequired is returned when Publish is called without a topic.
	ErrTopicRequired = errors.New("messaging: topic is required")
	// ErrClosed is returned when publishing on a closed client.
	ErrClosed = errors.New("messaging: client is closed")
)

// Messaging is a broker client usable for publishing.
type Messaging interface {
	io.Closer
	Publisher
}

// Publisher publishes messages to a topic (subject for NATS).
type Publisher interface {
	Publish(ctx context.Context, topic string, msg Message) (PublishResult, error)
}

// Message is a broker-agnostic outgoing message.
type Message struct {
	Body []byte
	// Key is used by Kafka for partitioning.
	Key []byte
	// Headers become broker headers or Pub/Sub attributes.
	Headers map[string]string
}

// PublishResult carries what the broker reported back.
type PublishResult struct {
	// MessageID is empty when the broker assigns none.
	MessageID string
	Topic     string
	Timestamp time.Time
}
