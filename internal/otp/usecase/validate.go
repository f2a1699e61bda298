package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/gotp/internal/otp/entity"
	"github.com/shandysiswandi/gotp/internal/pkg/goerror"
)

type ValidateInput struct {
	Reference string `validate:"required"`
	OTP       string `validate:"required"`
	// Purpose requests a receipt when non-nil.
	Purpose []string `validate:"omitempty,dive,required"`
}

type ValidateOutput struct {
	// Used is 1 for the first successful validation.
	Used int
	// Receipt is set only when a purpose was requested.
	Receipt string
}

// Validate consumes one validation attempt for (reference, otp).
func (s *Usecase) Validate(ctx context.Context, in ValidateInput) (_ *ValidateOutput, err error) {
	ctx, span := s.startSpan(ctx, "Validate")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	defer func() { s.count(ctx, s.validated, err) }()

	storage, err := s.storage.get(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to init otp storage", "error", err)
		return nil, err
	}

	record, err := storage.FetchAndUsed(ctx, in.Reference, in.OTP)
	if err != nil {
		slog.ErrorContext(ctx, "failed to fetch otp", "reference", in.Reference, "error", err)
		return nil, err
	}
	if record == nil {
		slog.WarnContext(ctx, "otp mismatched", "reference", in.Reference)
		return nil, entity.ErrOTPMismatched
	}

	schema, err := MatchSchema(record.Target, s.schemas)
	if err != nil {
		slog.WarnContext(ctx, "no schema matched stored target", "reference", in.Reference)
		return nil, err
	}

	if record.Used > schema.Aging.SuccessValidateCount {
		slog.WarnContext(ctx, "otp validation limit exceeded", "reference", in.Reference, "used", record.Used)
		return nil, &entity.OTPUsedError{Used: record.Used}
	}

	if !s.clock.Now().Before(record.ExpiresAt) {
		slog.WarnContext(ctx, "otp expired", "reference", in.Reference)
		return nil, entity.ErrOTPExpired
	}

	if in.Purpose == nil {
		return &ValidateOutput{Used: record.Used}, nil
	}

	if s.receipt == nil {
		slog.WarnContext(ctx, "receipt requested without receipt generator", "reference", in.Reference)
		return nil, entity.ErrNoReceiptGenerator
	}

	rg, err := s.receipt.get(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to init receipt generator", "error", err)
		return nil, err
	}

	token, err := rg.CreateValidationReceipt(ctx, *record, in.Purpose)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create validation receipt", "reference", in.Reference, "error", err)
		return nil, err
	}

	return &ValidateOutput{Used: record.Used, Receipt: token}, nil
}
