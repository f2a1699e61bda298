package delivery

import (
	"context"

	"github.com/shandysiswandi/gotp/internal/otp/entity"
	"github.com/shandysiswandi/gotp/internal/pkg/instrument"
	"github.com/shandysiswandi/gotp/internal/pkg/mail"
	"github.com/shandysiswandi/gotp/internal/pkg/uid"
)

// Mail delivers to email targets. The receipt id is the generated
// Message-ID of the mail.
type Mail struct {
	client  mail.Mail
	subject string
	body    *Renderer
	uuid    uid.StringID
	ins     instrument.Instrumentation
}

func NewMail(client mail.Mail, subject string, body *Renderer, uuid uid.StringID, ins instrument.Instrumentation) *Mail {
	if subject == "" {
		subject = "Your verification code"
	}

	return &Mail{
		client:  client,
		subject: subject,
		body:    body,
		uuid:    uuid,
		ins:     ins,
	}
}

func (m *Mail) SendMessageToAudience(ctx context.Context, otp entity.OTPValue) (_ string, err error) {
	ctx, span := startSpan(ctx, m.ins, "Mail.SendMessageToAudience")
	defer func() { endSpan(span, err) }()

	if err := requireTarget(otp.Target, entity.TargetTypeEmail); err != nil {
		return "", err
	}

	text, err := m.body.Render(otp)
	if err != nil {
		return "", err
	}

	id := m.uuid.Generate()
	if err := m.client.Send(ctx, mail.Message{
		ID:       id,
		To:       []string{otp.Target.Value},
		Subject:  m.subject,
		TextBody: text,
	}); err != nil {
		return "", err
	}

	return id, nil
}
