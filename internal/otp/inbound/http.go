package inbound

import (
	"context"

	"github.com/shandysiswandi/gotp/internal/otp/entity"
	"github.com/shandysiswandi/gotp/internal/otp/usecase"
	"github.com/shandysiswandi/gotp/internal/pkg/router"
)

type uc interface {
	Request(ctx context.Context, in usecase.RequestInput) (*entity.OTPValue, error)
	Validate(ctx context.Context, in usecase.ValidateInput) (*usecase.ValidateOutput, error)
	ValidateReceipt(ctx context.Context, in usecase.ValidateReceiptInput) (*entity.ValidationReceipt, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/otp/request", end.Request)
	r.POST("/api/v1/otp/validate", end.Validate)
	r.POST("/api/v1/otp/receipt/validate", end.ValidateReceipt)
}
