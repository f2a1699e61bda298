package usecase

import (
	"context"
	"log/slog"

	"github.com/samber/lo"
	"github.com/shandysiswandi/gotp/internal/otp/entity"
	"github.com/shandysiswandi/gotp/internal/pkg/goerror"
)

type ValidateReceiptInput struct {
	Reference string `validate:"required"`
	Receipt   string `validate:"required"`
	Purpose   string `validate:"required"`
}

// ValidateReceipt checks that the receipt belongs to reference, is still
// valid and covers purpose.
func (s *Usecase) ValidateReceipt(ctx context.Context, in ValidateReceiptInput) (_ *entity.ValidationReceipt, err error) {
	ctx, span := s.startSpan(ctx, "ValidateReceipt")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	defer func() { s.count(ctx, s.receiptValidated, err) }()

	if s.receipt == nil {
		return nil, entity.ErrNoReceiptGenerator
	}

	rg, err := s.receipt.get(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to init receipt generator", "error", err)
		return nil, err
	}

	result, err := rg.ValidateReceipt(ctx, in.Reference, in.Receipt)
	if err != nil {
		slog.WarnContext(ctx, "validation receipt rejected", "reference", in.Reference, "error", err)
		return nil, &entity.ValidationReceiptInvalidError{Cause: err}
	}

	if !result.ExpiresAt.After(s.clock.Now()) {
		slog.WarnContext(ctx, "validation receipt expired", "reference", in.Reference)
		return nil, entity.ErrValidationReceiptExpired
	}

	if !lo.Contains(result.Purpose, in.Purpose) {
		slog.WarnContext(ctx, "validation receipt purpose mismatch", "reference", in.Reference, "purpose", in.Purpose)
		return nil, &entity.ValidationReceiptPurposeMismatchError{Purpose: in.Purpose}
	}

	return &entity.ValidationReceipt{
		Target:    result.Target,
		Purpose:   result.Purpose,
		ExpiresAt: result.ExpiresAt,
	}, nil
}
