package goerror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_StatusCode(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeInvalidFormat, http.StatusBadRequest},
		{CodeInvalidInput, http.StatusUnprocessableEntity},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeTooManyRequest, http.StatusTooManyRequests},
		{CodeNotImplemented, http.StatusNotImplemented},
		{CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			var gerr *Error
			require.ErrorAs(t, NewBusiness("x", tt.code), &gerr)
			assert.Equal(t, tt.want, gerr.StatusCode())
		})
	}
}

func TestNewBusinessWithFields(t *testing.T) {
	cause := errors.New("blocked")

	err := NewBusinessWithFields(cause, "Too many requests", CodeTooManyRequest, "retry_after_ms", "45000", "dangling")

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Too many requests", gerr.Msg())
	assert.Equal(t, TypeBusiness, gerr.Type())
	assert.Equal(t, map[string]string{"retry_after_ms": "45000"}, gerr.Fields())
}

func TestNewServer(t *testing.T) {
	cause := errors.New("redis down")
	err := NewServer(cause)

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, "Internal server error", gerr.Msg())
	assert.Equal(t, "redis down", err.Error())
	assert.Equal(t, CodeInternal, gerr.Code())
}

func TestNewInvalidInput(t *testing.T) {
	var gerr *Error

	require.ErrorAs(t, NewInvalidInput(nil, "target", "is required"), &gerr)
	assert.Equal(t, CodeInvalidInput, gerr.Code())
	assert.Equal(t, TypeValidation, gerr.Type())
	assert.Equal(t, map[string]string{"target": "is required"}, gerr.Fields())

	cause := errors.New("reference is required")
	err := NewInvalidInput(cause)
	require.ErrorAs(t, err, &gerr)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, gerr.Fields())

	require.ErrorAs(t, NewInvalidInput(nil, "odd"), &gerr)
	assert.Equal(t, CodeInvalidFormat, gerr.Code())
}

func TestNewInvalidFormat(t *testing.T) {
	var gerr *Error

	require.ErrorAs(t, NewInvalidFormat(), &gerr)
	assert.Equal(t, "Invalid request body", gerr.Msg())
	assert.Equal(t, http.StatusBadRequest, gerr.StatusCode())

	require.ErrorAs(t, NewInvalidFormat("Request body too large"), &gerr)
	assert.Equal(t, "Request body too large", gerr.Error())
}

func TestCode_String(t *testing.T) {
	assert.Equal(t, "ERROR_CODE_TOO_MANY_REQUESTS", CodeTooManyRequest.String())
	assert.Equal(t, "ERROR_CODE_INTERNAL", Code(99).String())
	assert.Equal(t, "ERROR_TYPE_UNKNOWN", Type(99).String())
}
