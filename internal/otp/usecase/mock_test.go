package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shandysiswandi/gotp/internal/otp/entity"
	"github.com/shandysiswandi/gotp/internal/pkg/clock"
	"github.com/shandysiswandi/gotp/internal/pkg/instrument"
	"github.com/shandysiswandi/gotp/internal/pkg/validator"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStorage struct{ mock.Mock }

func (m *mockStorage) MarkRequested(ctx context.Context, key string, blockedFor time.Duration) (time.Duration, error) {
	args := m.Called(ctx, key, blockedFor)
	return args.Get(0).(time.Duration), args.Error(1)
}

func (m *mockStorage) UnmarkRequested(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockStorage) Store(ctx context.Context, otp entity.OTPValue, deletableAt time.Time) error {
	return m.Called(ctx, otp, deletableAt).Error(0)
}

func (m *mockStorage) FetchAndUsed(ctx context.Context, reference, value string) (*entity.OTPRecord, error) {
	args := m.Called(ctx, reference, value)
	rec, _ := args.Get(0).(*entity.OTPRecord)
	return rec, args.Error(1)
}

type mockSentStorage struct{ mockStorage }

func (m *mockSentStorage) MarkAsSent(ctx context.Context, reference, value, receiptID string) error {
	return m.Called(ctx, reference, value, receiptID).Error(0)
}

type mockDelivery struct{ mock.Mock }

func (m *mockDelivery) SendMessageToAudience(ctx context.Context, otp entity.OTPValue) (string, error) {
	args := m.Called(ctx, otp)
	return args.String(0), args.Error(1)
}

type mockReceipt struct{ mock.Mock }

func (m *mockReceipt) CreateValidationReceipt(ctx context.Context, record entity.OTPRecord, purposes []string) (string, error) {
	args := m.Called(ctx, record, purposes)
	return args.String(0), args.Error(1)
}

func (m *mockReceipt) ValidateReceipt(ctx context.Context, reference, token string) (*entity.ValidationReceipt, error) {
	args := m.Called(ctx, reference, token)
	rec, _ := args.Get(0).(*entity.ValidationReceipt)
	return rec, args.Error(1)
}

var (
	testNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	emailTarget  = entity.Target{Type: entity.TargetTypeEmail, Value: "a@b.com"}
	msisdnTarget = entity.Target{Type: entity.TargetTypeMSISDN, Value: "+628123456789"}

	defaultSchema = entity.Schema{
		Name:      "default",
		OTP:       entity.CharsetSpec{Charset: []string{"0123456789"}, Length: 6},
		Reference: entity.CharsetSpec{Charset: []string{"ABCDEFGHIJKLMNOPQRSTUVWXYZ", "0123456789"}, Length: 8},
		Aging: entity.Aging{
			SuccessValidateCount: 1,
			PurgeFromDBIn:        time.Hour,
			CanResendIn:          time.Minute,
			ExpiresIn:            5 * time.Minute,
		},
	}
)

type testDeps struct {
	storage  Storage
	delivery Delivery
	receipt  ReceiptGenerator
	schemas  []entity.Schema
	agents   []DeliveryAgent
	clock    *clock.Fixed
}

func newUsecase(t *testing.T, deps testDeps) *Usecase {
	t.Helper()

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	if deps.schemas == nil {
		deps.schemas = []entity.Schema{defaultSchema}
	}
	if deps.agents == nil {
		deps.agents = []DeliveryAgent{{
			Name:    "default",
			Factory: func(context.Context) (Delivery, error) { return deps.delivery, nil },
		}}
	}
	if deps.clock == nil {
		deps.clock = clock.NewFixed(testNow)
	}

	dep := Dependency{
		Schemas:    deps.schemas,
		Agents:     deps.agents,
		Storage:    func(context.Context) (Storage, error) { return deps.storage, nil },
		Clock:      deps.clock,
		Validator:  v,
		Instrument: instrument.NewNoop(),
	}
	if deps.receipt != nil {
		dep.Receipt = func(context.Context) (ReceiptGenerator, error) { return deps.receipt, nil }
	}

	return New(dep)
}
