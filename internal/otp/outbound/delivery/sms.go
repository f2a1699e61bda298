package delivery

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/shandysiswandi/gotp/internal/otp/entity"
	"github.com/shandysiswandi/gotp/internal/pkg/instrument"
)

var errNoMessageID = errors.New("delivery: sns returned no message id")

// SNSPublisher is the subset of the SNS client used for SMS.
type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// NewSNSClient loads the default AWS credential chain for region.
func NewSNSClient(ctx context.Context, region string) (*sns.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}

	return sns.NewFromConfig(cfg), nil
}

// SMS delivers to msisdn targets through AWS SNS.
type SMS struct {
	client SNSPublisher
	body   *Renderer
	ins    instrument.Instrumentation
}

func NewSMS(client SNSPublisher, body *Renderer, ins instrument.Instrumentation) *SMS {
	return &SMS{client: client, body: body, ins: ins}
}

func (s *SMS) SendMessageToAudience(ctx context.Context, otp entity.OTPValue) (_ string, err error) {
	ctx, span := startSpan(ctx, s.ins, "SMS.SendMessageToAudience")
	defer func() { endSpan(span, err) }()

	if err := requireTarget(otp.Target, entity.TargetTypeMSISDN); err != nil {
		return "", err
	}

	text, err := s.body.Render(otp)
	if err != nil {
		return "", err
	}

	out, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(otp.Target.Value),
		Message:     aws.String(text),
	})
	if err != nil {
		return "", err
	}

	id := aws.ToString(out.MessageId)
	if id == "" {
		return "", errNoMessageID
	}

	return id, nil
}
