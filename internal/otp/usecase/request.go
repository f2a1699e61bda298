package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/gotp/internal/otp/entity"
	"github.com/shandysiswandi/gotp/internal/pkg/goerror"
	"go.opentelemetry.io/otel/attribute"
)

type RequestInput struct {
	Target entity.Target
}

type msisdnValue struct {
	Value string `validate:"e164"`
}

type emailValue struct {
	Value string `validate:"email"`
}

// Request issues a new OTP for the target and hands it to the matching
// delivery agent. The returned value is the exact value stored and delivered.
func (s *Usecase) Request(ctx context.Context, in RequestInput) (_ *entity.OTPValue, err error) {
	ctx, span := s.startSpan(ctx, "Request")
	defer span.End()

	if err := s.validateTarget(in.Target); err != nil {
		return nil, err
	}

	schema, err := MatchSchema(in.Target, s.schemas)
	if err != nil {
		slog.WarnContext(ctx, "no schema matched target", "target_type", in.Target.Type.String())
		s.count(ctx, s.requested, err)
		return nil, err
	}

	agent, err := s.matchAgent(in.Target)
	if err != nil {
		slog.WarnContext(ctx, "no delivery agent matched target", "target_type", in.Target.Type.String(), "schema", schema.Name)
		s.count(ctx, s.requested, err, attribute.String("schema", schema.Name))
		return nil, err
	}

	defer func() {
		s.count(ctx, s.requested, err, attribute.String("schema", schema.Name), attribute.String("agent", agent.Name))
	}()

	storage, err := s.storage.get(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to init otp storage", "error", err)
		return nil, err
	}

	delivery, err := agent.delivery.get(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to init delivery agent", "agent", agent.Name, "error", err)
		return nil, err
	}

	now := s.clock.Now()
	code, ref, err := s.generator.GenerateOTPAndReference(schema.OTP, schema.Reference)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp", "schema", schema.Name, "error", err)
		return nil, err
	}

	otp := &entity.OTPValue{
		Target:          in.Target,
		Value:           code,
		Reference:       ref,
		ExpiresAt:       now.Add(schema.Aging.ExpiresIn),
		ResendAllowedAt: now.Add(schema.Aging.CanResendIn),
	}

	key := in.Target.RecipientKey()
	ttl, err := storage.MarkRequested(ctx, key, schema.Aging.CanResendIn)
	if err != nil {
		slog.ErrorContext(ctx, "failed to mark recipient requested", "recipient_key", key, "error", err)
		return nil, err
	}
	if ttl > 0 {
		slog.WarnContext(ctx, "recipient is still blocked", "recipient_key", key, "ttl_ms", ttl.Milliseconds())
		return nil, &entity.ResendBlockedError{TTL: ttl}
	}

	if err := s.deliver(ctx, storage, delivery, *otp, now.Add(schema.Aging.PurgeFromDBIn)); err != nil {
		if errUnmark := storage.UnmarkRequested(context.WithoutCancel(ctx), key); errUnmark != nil {
			slog.ErrorContext(ctx, "failed to release recipient block", "recipient_key", key, "error", errUnmark)
		}
		return nil, err
	}

	slog.InfoContext(ctx, "otp requested", "reference", otp.Reference, "schema", schema.Name, "agent", agent.Name)

	return otp, nil
}

func (s *Usecase) deliver(ctx context.Context, storage Storage, delivery Delivery, otp entity.OTPValue, deletableAt time.Time) error {
	if err := storage.Store(ctx, otp, deletableAt); err != nil {
		slog.ErrorContext(ctx, "failed to store otp", "reference", otp.Reference, "error", err)
		return err
	}

	receiptID, err := delivery.SendMessageToAudience(ctx, otp)
	if err != nil {
		slog.ErrorContext(ctx, "failed to send otp", "reference", otp.Reference, "error", err)
		return err
	}

	marker, ok := storage.(SentMarker)
	if !ok {
		return nil
	}

	if err := marker.MarkAsSent(ctx, otp.Reference, otp.Value, receiptID); err != nil {
		slog.ErrorContext(ctx, "failed to mark otp as sent", "reference", otp.Reference, "receipt_id", receiptID, "error", err)
		return err
	}

	return nil
}

func (s *Usecase) validateTarget(target entity.Target) error {
	if err := s.validator.Validate(target); err != nil {
		return goerror.NewInvalidInput(err)
	}

	var v any
	switch target.Type {
	case entity.TargetTypeMSISDN:
		v = msisdnValue{Value: target.Value}
	case entity.TargetTypeEmail:
		v = emailValue{Value: target.Value}
	default:
		return nil
	}

	if err := s.validator.Validate(v); err != nil {
		return goerror.NewInvalidInput(err)
	}

	return nil
}
