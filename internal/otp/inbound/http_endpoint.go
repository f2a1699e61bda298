package inbound

import (
	"github.com/shandysiswandi/gotp/internal/otp/usecase"
	"github.com/shandysiswandi/gotp/internal/pkg/router"
)

// HTTPEndpoint exposes the OTP lifecycle over HTTP.
type HTTPEndpoint struct {
	uc uc
}

// Request issues an OTP and delivers it to the target.
func (h *HTTPEndpoint) Request(r *router.Request) (any, error) {
	var req RequestOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Request(r.Context(), usecase.RequestInput{Target: req.Target.entity()})
	if err != nil {
		return nil, toHTTPError(err)
	}

	return RequestOTPResponse{
		Reference:         resp.Reference,
		ExpiresAtMS:       resp.ExpiresAt.UnixMilli(),
		ResendAllowedAtMS: resp.ResendAllowedAt.UnixMilli(),
	}, nil
}

// Validate consumes one validation attempt, returning a receipt when a
// purpose is given.
func (h *HTTPEndpoint) Validate(r *router.Request) (any, error) {
	var req ValidateOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Validate(r.Context(), usecase.ValidateInput{
		Reference: req.Reference,
		OTP:       req.OTP,
		Purpose:   req.Purpose,
	})
	if err != nil {
		return nil, toHTTPError(err)
	}

	return ValidateOTPResponse{Used: resp.Used, Receipt: resp.Receipt}, nil
}

func (h *HTTPEndpoint) ValidateReceipt(r *router.Request) (any, error) {
	var req ValidateReceiptRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.ValidateReceipt(r.Context(), usecase.ValidateReceiptInput{
		Reference: req.Reference,
		Receipt:   req.Receipt,
		Purpose:   req.Purpose,
	})
	if err != nil {
		return nil, toHTTPError(err)
	}

	return ValidateReceiptResponse{
		Target:      newTargetPayload(resp.Target),
		Purpose:     resp.Purpose,
		ExpiresAtMS: resp.ExpiresAt.UnixMilli(),
	}, nil
}
