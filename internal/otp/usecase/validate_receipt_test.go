package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/gotp/internal/otp/entity"
	"github.com/shandysiswandi/gotp/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUsecase_ValidateReceipt(t *testing.T) {
	errSig := errors.New("token signature is invalid")
	decoded := &entity.ValidationReceipt{
		Target:    emailTarget,
		Purpose:   []string{"login", "Transfer"},
		ExpiresAt: testNow.Add(10 * time.Minute),
	}

	tests := []struct {
		name    string
		purpose string
		result  *entity.ValidationReceipt
		err     error
		clock   *clock.Fixed
		check   func(t *testing.T, got *entity.ValidationReceipt, err error)
	}{
		{
			name:    "valid",
			purpose: "login",
			result:  decoded,
			check: func(t *testing.T, got *entity.ValidationReceipt, err error) {
				require.NoError(t, err)
				assert.Equal(t, decoded, got)
			},
		},
		{
			name:    "decode failure is wrapped",
			purpose: "login",
			err:     errSig,
			check: func(t *testing.T, got *entity.ValidationReceipt, err error) {
				assert.ErrorIs(t, err, entity.ErrValidationReceiptInvalid)
				assert.ErrorIs(t, err, errSig)
				assert.Contains(t, err.Error(), errSig.Error())
			},
		},
		{
			name:    "expired exactly at expiry",
			purpose: "login",
			result:  decoded,
			clock:   clock.NewFixed(decoded.ExpiresAt),
			check: func(t *testing.T, got *entity.ValidationReceipt, err error) {
				assert.ErrorIs(t, err, entity.ErrValidationReceiptExpired)
			},
		},
		{
			name:    "purpose is case-sensitive",
			purpose: "transfer",
			result:  decoded,
			check: func(t *testing.T, got *entity.ValidationReceipt, err error) {
				var mismatch *entity.ValidationReceiptPurposeMismatchError
				require.ErrorAs(t, err, &mismatch)
				assert.Equal(t, "transfer", mismatch.Purpose)
				assert.ErrorIs(t, err, entity.ErrValidationReceiptPurposeMismatch)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := new(mockReceipt)
			r.On("ValidateReceipt", mock.Anything, "ABCD1234", "token").Return(tt.result, tt.err).Once()
			uc := newUsecase(t, testDeps{storage: new(mockStorage), receipt: r, clock: tt.clock})

			got, err := uc.ValidateReceipt(context.Background(), ValidateReceiptInput{
				Reference: "ABCD1234",
				Receipt:   "token",
				Purpose:   tt.purpose,
			})

			if err != nil {
				assert.Nil(t, got)
			}
			tt.check(t, got, err)
			r.AssertExpectations(t)
		})
	}
}

func TestUsecase_ValidateReceipt_NoGenerator(t *testing.T) {
	uc := newUsecase(t, testDeps{storage: new(mockStorage)})

	_, err := uc.ValidateReceipt(context.Background(), ValidateReceiptInput{Reference: "r", Receipt: "t", Purpose: "login"})

	assert.ErrorIs(t, err, entity.ErrNoReceiptGenerator)
}
