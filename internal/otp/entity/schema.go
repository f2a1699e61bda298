package entity

import "time"

// Predicate decides whether a schema or delivery agent applies to a target.
// A nil Predicate matches every target.
type Predicate func(Target) bool

// CharsetSpec describes a random string: fragments are concatenated into one
// alphabet and Length symbols are drawn from it.
type CharsetSpec struct {
	Charset []string
	Length  int
}

// Aging holds the lifetimes applied to a generated OTP.
type Aging struct {
	// SuccessValidateCount is the number of successful validations allowed.
	SuccessValidateCount int
	// PurgeFromDBIn is how long storage keeps the record.
	PurgeFromDBIn time.Duration
	// CanResendIn is the resend block for the same recipient.
	CanResendIn time.Duration
	// ExpiresIn is the validity window of the OTP.
	ExpiresIn time.Duration
}

// Schema is one OTP policy.
type Schema struct {
	Name      string
	Match     Predicate
	OTP       CharsetSpec
	Reference CharsetSpec
	Aging     Aging
}

// Matches reports whether the schema applies to target.
func (s Schema) Matches(target Target) bool {
	return s.Match == nil || s.Match(target)
}
