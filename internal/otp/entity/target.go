package entity

// TargetType is the delivery channel family of a recipient.
type TargetType string

const (
	// TargetTypeMSISDN is a phone number in E.164 form.
	TargetTypeMSISDN TargetType = "msisdn"
	// TargetTypeEmail is an email address.
	TargetTypeEmail TargetType = "email"
)

// String returns the wire form of the target type.
func (t TargetType) String() string {
	return string(t)
}

// Target is the recipient of an OTP.
type Target struct {
	Type  TargetType `json:"type" validate:"required,oneof=msisdn email"`
	Value string     `json:"value" validate:"required"`
	// UniqueIdentifier overrides the resend-block identity when set.
	UniqueIdentifier string `json:"unique_identifier,omitempty"`
}

// RecipientKey returns the identity used for resend blocking.
func (t Target) RecipientKey() string {
	if t.UniqueIdentifier != "" {
		return t.UniqueIdentifier
	}

	return string(t.Type) + "|" + t.Value
}

// Subject returns the receipt subject in "type:value" form.
func (t Target) Subject() string {
	return string(t.Type) + ":" + t.Value
}
