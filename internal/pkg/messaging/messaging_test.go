package messaging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromDriver(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		driver  string
		opts    FactoryOptions
		wantErr error
	}{
		{name: "unknown", driver: "rabbit", wantErr: ErrUnknownDriver},
		{name: "nsq without producer", driver: DriverNSQ, wantErr: ErrNSQProducerAddrRequired},
		{name: "kafka without brokers", driver: DriverKafka, wantErr: ErrKafkaBrokersRequired},
		{name: "nats without url", driver: DriverNATS, wantErr: ErrNATSURLRequired},
		{name: "pubsub without project", driver: DriverGooglePubSub, wantErr: ErrPubSubProjectIDRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewFromDriver(ctx, tt.driver, tt.opts)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestKafka_Publish(t *testing.T) {
	ctx := context.Background()

	k, err := NewKafka(KafkaConfig{Brokers: []string{"127.0.0.1:1"}})
	require.NoError(t, err)

	_, err = k.Publish(ctx, "", Message{Body: []byte("x")})
	assert.ErrorIs(t, err, ErrTopicRequired)

	require.NoError(t, k.Close())
	require.NoError(t, k.Close())

	_, err = k.Publish(ctx, "otp", Message{Body: []byte("x")})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestNSQ_Publish(t *testing.T) {
	ctx := context.Background()

	n, err := NewNSQ(NSQConfig{ProducerAddr: "127.0.0.1:1"})
	require.NoError(t, err)

	_, err = n.Publish(ctx, "", Message{})
	assert.ErrorIs(t, err, ErrTopicRequired)

	require.NoError(t, n.Close())
	_, err = n.Publish(ctx, "otp", Message{})
	assert.ErrorIs(t, err, ErrClosed)
}
