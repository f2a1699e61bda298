package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/shandysiswandi/gotp/internal/otp/entity"
	"github.com/shandysiswandi/gotp/internal/pkg/clock"
	"github.com/shandysiswandi/gotp/internal/pkg/instrument"
	"github.com/shandysiswandi/gotp/internal/pkg/validator"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Storage persists OTP records and recipient blocks.
//
// MarkRequested and FetchAndUsed must be atomic in the backing store; the
// usecase performs no compare-and-swap of its own.
type Storage interface {
	// MarkRequested blocks recipientKey for blockedFor. It returns zero when the
	// caller may proceed, or the remaining block when one already exists.
	MarkRequested(ctx context.Context, recipientKey string, blockedFor time.Duration) (time.Duration, error)
	// UnmarkRequested releases the block created by MarkRequested.
	UnmarkRequested(ctx context.Context, recipientKey string) error
	// Store persists otp until deletableAt.
	Store(ctx context.Context, otp entity.OTPValue, deletableAt time.Time) error
	// FetchAndUsed returns the record stored for exactly (reference, value) after
	// incrementing its used counter, or nil when there is none.
	FetchAndUsed(ctx context.Context, reference, value string) (*entity.OTPRecord, error)
}

// SentMarker is implemented by storages that keep the delivery receipt id.
type SentMarker interface {
	MarkAsSent(ctx context.Context, reference, value, receiptID string) error
}

// Delivery sends the OTP to its target and returns the agent receipt id.
type Delivery interface {
	SendMessageToAudience(ctx context.Context, otp entity.OTPValue) (string, error)
}

// ReceiptGenerator issues and decodes validation receipts.
type ReceiptGenerator interface {
	CreateValidationReceipt(ctx context.Context, record entity.OTPRecord, purposes []string) (string, error)
	ValidateReceipt(ctx context.Context, reference, token string) (*entity.ValidationReceipt, error)
}

type (
	// StorageFactory builds the Storage on first use.
	StorageFactory func(ctx context.Context) (Storage, error)
	// DeliveryFactory builds a Delivery on first use.
	DeliveryFactory func(ctx context.Context) (Delivery, error)
	// ReceiptFactory builds the ReceiptGenerator on first use.
	ReceiptFactory func(ctx context.Context) (ReceiptGenerator, error)
)

// DeliveryAgent pairs a target predicate with the delivery it selects.
type DeliveryAgent struct {
	Name    string
	Match   entity.Predicate
	Factory DeliveryFactory
}

// Matches reports whether the agent applies to target.
func (a DeliveryAgent) Matches(target entity.Target) bool {
	return a.Match == nil || a.Match(target)
}

type Dependency struct {
	Schemas    []entity.Schema
	Agents     []DeliveryAgent
	Storage    StorageFactory
	Receipt    ReceiptFactory
	Clock      clock.Clocker
	Validator  validator.Validator
	Instrument instrument.Instrumentation
	// Random feeds the generator; crypto/rand when nil.
	Random io.Reader
}

type agentSlot struct {
	DeliveryAgent
	delivery *lazy[Delivery]
}

type Usecase struct {
	schemas   []entity.Schema
	agents    []agentSlot
	storage   *lazy[Storage]
	receipt   *lazy[ReceiptGenerator]
	generator *Generator
	clock     clock.Clocker
	validator validator.Validator
	ins       instrument.Instrumentation

	requested        metric.Int64Counter
	validated        metric.Int64Counter
	receiptValidated metric.Int64Counter
}

func New(dep Dependency) *Usecase {
	random := dep.Random
	if random == nil {
		random = rand.Reader
	}

	agents := make([]agentSlot, 0, len(dep.Agents))
	for _, agent := range dep.Agents {
		agents = append(agents, agentSlot{DeliveryAgent: agent, delivery: newLazy(agent.Factory)})
	}

	s := &Usecase{
		schemas:   append([]entity.Schema(nil), dep.Schemas...),
		agents:    agents,
		storage:   newLazy(dep.Storage),
		generator: NewGenerator(random),
		clock:     dep.Clock,
		validator: dep.Validator,
		ins:       dep.Instrument,
	}
	if dep.Receipt != nil {
		s.receipt = newLazy(dep.Receipt)
	}

	s.initMetrics()

	return s
}

func (s *Usecase) initMetrics() {
	meter := s.ins.Meter("otp.usecase")

	var err error
	if s.requested, err = meter.Int64Counter("otp.requested", metric.WithDescription("Number of OTP requests")); err != nil {
		slog.Error("failed to create otp requested counter", "error", err)
	}
	if s.validated, err = meter.Int64Counter("otp.validated", metric.WithDescription("Number of OTP validations")); err != nil {
		slog.Error("failed to create otp validated counter", "error", err)
	}
	if s.receiptValidated, err = meter.Int64Counter("otp.receipt.validated", metric.WithDescription("Number of receipt validations")); err != nil {
		slog.Error("failed to create otp receipt counter", "error", err)
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("otp.usecase").Start(ctx, name)
}

func (s *Usecase) count(ctx context.Context, c metric.Int64Counter, err error, attrs ...attribute.KeyValue) {
	if c == nil {
		return
	}

	attrs = append(attrs, attribute.String("outcome", outcome(err)))
	c.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, entity.ErrResendBlocked):
		return "resend_blocked"
	case errors.Is(err, entity.ErrNoSchemaMatched), errors.Is(err, entity.ErrNoDeliveryAgentMatched):
		return "unmatched"
	case errors.Is(err, entity.ErrOTPMismatched):
		return "mismatched"
	case errors.Is(err, entity.ErrOTPUsed):
		return "used"
	case errors.Is(err, entity.ErrOTPExpired), errors.Is(err, entity.ErrValidationReceiptExpired):
		return "expired"
	case errors.Is(err, entity.ErrValidationReceiptInvalid):
		return "invalid"
	case errors.Is(err, entity.ErrValidationReceiptPurposeMismatch):
		return "purpose_mismatch"
	default:
		return "error"
	}
}
