package entity

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidConfig is returned for an unusable charset or length.
	ErrInvalidConfig = errors.New("otp: invalid config")
	// ErrNoSchemaMatched is returned when no schema accepts the target.
	ErrNoSchemaMatched = errors.New("otp: no schema matched")
	// ErrNoDeliveryAgentMatched is returned when no delivery agent accepts the target.
	ErrNoDeliveryAgentMatched = errors.New("otp: no delivery agent matched")
	// ErrResendBlocked is matched by *ResendBlockedError.
	ErrResendBlocked = errors.New("otp: resend blocked")
	// ErrOTPMismatched covers unknown reference, wrong value and purged records alike.
	ErrOTPMismatched = errors.New("otp: mismatched")
	// ErrOTPUsed is matched by *OTPUsedError.
	ErrOTPUsed = errors.New("otp: used")
	// ErrOTPExpired is returned when a matching record is past its expiry.
	ErrOTPExpired = errors.New("otp: expired")
	// ErrNoReceiptGenerator is returned when a receipt operation has no receipt capability.
	ErrNoReceiptGenerator = errors.New("otp: no receipt generator")
	// ErrValidationReceiptInvalid is matched by *ValidationReceiptInvalidError.
	ErrValidationReceiptInvalid = errors.New("otp: validation receipt invalid")
	// ErrValidationReceiptExpired is returned for a receipt past its expiry.
	ErrValidationReceiptExpired = errors.New("otp: validation receipt expired")
	// ErrValidationReceiptPurposeMismatch is matched by *ValidationReceiptPurposeMismatchError.
	ErrValidationReceiptPurposeMismatch = errors.New("otp: validation receipt purpose mismatch")
)

// ResendBlockedError carries the remaining block for the recipient.
type ResendBlockedError struct {
	TTL time.Duration
}

func (e *ResendBlockedError) Error() string {
	return fmt.Sprintf("%s: retry in %dms", ErrResendBlocked, e.TTL.Milliseconds())
}

// Is matches ErrResendBlocked.
func (e *ResendBlockedError) Is(target error) bool {
	return target == ErrResendBlocked
}

// OTPUsedError carries the used counter observed by the failing validation.
type OTPUsedError struct {
	Used int
}

func (e *OTPUsedError) Error() string {
	return fmt.Sprintf("%s: %d times", ErrOTPUsed, e.Used)
}

// Is matches ErrOTPUsed.
func (e *OTPUsedError) Is(target error) bool {
	return target == ErrOTPUsed
}

// ValidationReceiptInvalidError wraps the decoding failure of a receipt.
type ValidationReceiptInvalidError struct {
	Cause error
}

func (e *ValidationReceiptInvalidError) Error() string {
	if e.Cause == nil {
		return ErrValidationReceiptInvalid.Error()
	}

	return ErrValidationReceiptInvalid.Error() + ": " + e.Cause.Error()
}

// Is matches ErrValidationReceiptInvalid.
func (e *ValidationReceiptInvalidError) Is(target error) bool {
	return target == ErrValidationReceiptInvalid
}

func (e *ValidationReceiptInvalidError) Unwrap() error {
	return e.Cause
}

// ValidationReceiptPurposeMismatchError carries the purpose that was asked for.
type ValidationReceiptPurposeMismatchError struct {
	Purpose string
}

func (e *ValidationReceiptPurposeMismatchError) Error() string {
	return fmt.Sprintf("%s: %q", ErrValidationReceiptPurposeMismatch, e.Purpose)
}

// Is matches ErrValidationReceiptPurposeMismatch.
func (e *ValidationReceiptPurposeMismatchError) Is(target error) bool {
	return target == ErrValidationReceiptPurposeMismatch
}
