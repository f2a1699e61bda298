package delivery

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/gotp/internal/otp/entity"
	"github.com/shandysiswandi/gotp/internal/pkg/instrument"
	"github.com/shandysiswandi/gotp/internal/pkg/messaging"
	"github.com/shandysiswandi/gotp/internal/pkg/uid"
)

const headerCorrelationID = "X-Correlation-ID"

// Event is the payload published by Broker and posted by Webhook.
type Event struct {
	Target      entity.Target `json:"target"`
	Reference   string        `json:"reference"`
	Message     string        `json:"message"`
	ExpiresAtMS int64         `json:"expires_at_ms"`
}

func newEvent(otp entity.OTPValue, message string) Event {
	return Event{
		Target:      otp.Target,
		Reference:   otp.Reference,
		Message:     message,
		ExpiresAtMS: otp.ExpiresAt.UnixMilli(),
	}
}

// Broker hands the rendered message to a downstream sender over a topic.
type Broker struct {
	client messaging.Publisher
	topic  string
	body   *Renderer
	uuid   uid.StringID
	ins    instrument.Instrumentation
}

func NewBroker(client messaging.Publisher, topic string, body *Renderer, uuid uid.StringID, ins instrument.Instrumentation) *Broker {
	return &Broker{
		client: client,
		topic:  topic,
		body:   body,
		uuid:   uuid,
		ins:    ins,
	}
}

func (b *Broker) SendMessageToAudience(ctx context.Context, otp entity.OTPValue) (_ string, err error) {
	ctx, span := startSpan(ctx, b.ins, "Broker.SendMessageToAudience")
	defer func() { endSpan(span, err) }()

	text, err := b.body.Render(otp)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(newEvent(otp, text))
	if err != nil {
		return "", err
	}

	res, err := b.client.Publish(ctx, b.topic, messaging.Message{
		Body:    body,
		Key:     []byte(otp.Target.RecipientKey()),
		Headers: map[string]string{headerCorrelationID: instrument.GetCorrelationID(ctx)},
	})
	if err != nil {
		return "", err
	}

	if res.MessageID != "" {
		return res.MessageID, nil
	}

	return b.uuid.Generate(), nil
}
