package inbound

import "github.com/shandysiswandi/gotp/internal/otp/entity"

type TargetPayload struct {
	Type             string `json:"type"`
	Value            string `json:"value"`
	UniqueIdentifier string `json:"unique_identifier,omitempty"`
}

func (t TargetPayload) entity() entity.Target {
	return entity.Target{
		Type:             entity.TargetType(t.Type),
		Value:            t.Value,
		UniqueIdentifier: t.UniqueIdentifier,
	}
}

func newTargetPayload(t entity.Target) TargetPayload {
	return TargetPayload{
		Type:             t.Type.String(),
		Value:            t.Value,
		UniqueIdentifier: t.UniqueIdentifier,
	}
}

type RequestOTPRequest struct {
	Target TargetPayload `json:"target"`
}

// RequestOTPResponse never carries the OTP value itself.
type RequestOTPResponse struct {
	Reference         string `json:"reference"`
	ExpiresAtMS       int64  `json:"expires_at_ms"`
	ResendAllowedAtMS int64  `json:"resend_allowed_at_ms"`
}

func (RequestOTPResponse) Message() string {
	return "OTP has been sent"
}

type ValidateOTPRequest struct {
	Reference string `json:"reference"`
	OTP       string `json:"otp"`
	// Purpose requests a validation receipt when present.
	Purpose []string `json:"purpose,omitempty"`
}

type ValidateOTPResponse struct {
	Used    int    `json:"used"`
	Receipt string `json:"receipt,omitempty"`
}

func (ValidateOTPResponse) Message() string {
	return "OTP is valid"
}

type ValidateReceiptRequest struct {
	Reference string `json:"reference"`
	Receipt   string `json:"receipt"`
	Purpose   string `json:"purpose"`
}

type ValidateReceiptResponse struct {
	Target      TargetPayload `json:"target"`
	Purpose     []string      `json:"purpose"`
	ExpiresAtMS int64         `json:"expires_at_ms"`
}

func (ValidateReceiptResponse) Message() string {
	return "Validation receipt is valid"
}
