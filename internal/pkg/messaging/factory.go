package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Driver names accepted by messaging.driver.
const (
	DriverNSQ          = "nsq"
	DriverNATS         = "nats"
	DriverKafka        = "kafka"
	DriverGooglePubSub = "google-pubsub"
)

var ErrUnknownDriver = errors.New("messaging: unknown driver")

// FactoryOptions holds the settings of every backend; only the one named by
// the driver is read.
type FactoryOptions struct {
	NSQ    NSQConfig
	Kafka  KafkaConfig
	NATS   NATSConfig
	PubSub PubSubConfig
}

var constructors = map[string]func(context.Context, FactoryOptions) (Messaging, error){
	DriverNSQ:          func(_ context.Context, o FactoryOptions) (Messaging, error) { return NewNSQ(o.NSQ) },
	DriverKafka:        func(_ context.Context, o FactoryOptions) (Messaging, error) { return NewKafka(o.Kafka) },
	DriverNATS:         func(_ context.Context, o FactoryOptions) (Messaging, error) { return NewNATS(o.NATS) },
	DriverGooglePubSub: func(ctx context.Context, o FactoryOptions) (Messaging, error) { return NewPubSub(ctx, o.PubSub) },
}

// NewFromDriver connects the backend named by driver.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Messaging, error) {
	build, ok := constructors[strings.ToLower(strings.TrimSpace(driver))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	return build(ctx, opts)
}
