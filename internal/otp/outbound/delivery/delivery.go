// Package delivery sends rendered OTP messages to their target over mail,
// SMS, webhook or a message broker.
package delivery

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shandysiswandi/gotp/internal/otp/entity"
	"github.com/shandysiswandi/gotp/internal/pkg/instrument"
)

// ErrUnsupportedTarget is returned when an agent cannot reach the target type.
var ErrUnsupportedTarget = errors.New("delivery: unsupported target type")

func requireTarget(target entity.Target, want entity.TargetType) error {
	if target.Type != want {
		return fmt.Errorf("%w: %s", ErrUnsupportedTarget, target.Type)
	}

	return nil
}

func startSpan(ctx context.Context, ins instrument.Instrumentation, name string) (context.Context, trace.Span) {
	return ins.Tracer("otp.outbound.delivery").Start(ctx, name)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
