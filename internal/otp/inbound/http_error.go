package inbound

import (
	"errors"
	"strconv"

	"github.com/shandysiswandi/gotp/internal/otp/entity"
	"github.com/shandysiswandi/gotp/internal/pkg/goerror"
)

// toHTTPError maps domain errors to goerror values. Errors that are already
// structured pass through.
func toHTTPError(err error) error {
	var gerr *goerror.Error
	if errors.As(err, &gerr) {
		return err
	}

	var blocked *entity.ResendBlockedError
	if errors.As(err, &blocked) {
		return goerror.NewBusinessWithFields(err, "OTP was requested recently, try again later",
			goerror.CodeTooManyRequest, "retry_after_ms", strconv.FormatInt(blocked.TTL.Milliseconds(), 10))
	}

	switch {
	case errors.Is(err, entity.ErrOTPMismatched):
		return goerror.NewBusinessWithFields(err, "Invalid OTP", goerror.CodeUnauthorized)
	case errors.Is(err, entity.ErrOTPExpired):
		return goerror.NewBusinessWithFields(err, "OTP has expired", goerror.CodeUnauthorized)
	case errors.Is(err, entity.ErrOTPUsed):
		return goerror.NewBusinessWithFields(err, "OTP has already been used", goerror.CodeForbidden)
	case errors.Is(err, entity.ErrValidationReceiptInvalid):
		return goerror.NewBusinessWithFields(err, "Invalid validation receipt", goerror.CodeUnauthorized)
	case errors.Is(err, entity.ErrValidationReceiptExpired):
		return goerror.NewBusinessWithFields(err, "Validation receipt has expired", goerror.CodeUnauthorized)
	case errors.Is(err, entity.ErrValidationReceiptPurposeMismatch):
		return goerror.NewBusinessWithFields(err, "Validation receipt does not cover this purpose", goerror.CodeForbidden)
	case errors.Is(err, entity.ErrNoSchemaMatched):
		return goerror.NewBusinessWithFields(err, "No OTP policy accepts this target", goerror.CodeInvalidInput)
	case errors.Is(err, entity.ErrNoDeliveryAgentMatched):
		return goerror.NewBusinessWithFields(err, "No delivery channel accepts this target", goerror.CodeInvalidInput)
	case errors.Is(err, entity.ErrNoReceiptGenerator):
		return goerror.NewBusinessWithFields(err, "Validation receipts are not enabled", goerror.CodeNotImplemented)
	}

	return goerror.NewServer(err)
}
