// Package goerror carries the user-facing side of an error (message, code,
// extra fields) to the HTTP boundary while keeping the cause for errors.Is.
package goerror

import (
	"fmt"
	"net/http"
)

// Type classifies errors for logging.
type Type int

const (
	TypeServer Type = iota
	TypeBusiness
	TypeValidation
)

func (t Type) String() string {
	switch t {
	case TypeServer:
		return "ERROR_TYPE_SERVER"
	case TypeBusiness:
		return "ERROR_TYPE_BUSINESS"
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	}

	return "ERROR_TYPE_UNKNOWN"
}

// Code is the stable identifier of an error kind; it decides the HTTP status.
type Code int

const (
	CodeInternal Code = iota
	// CodeInvalidFormat is an undecodable request body.
	CodeInvalidFormat
	// CodeInvalidInput is a decodable body that fails validation, or a
	// request the configured policies cannot serve.
	CodeInvalidInput
	// CodeTooManyRequest is a rate limit, e.g. an OTP resend block.
	CodeTooManyRequest
	CodeUnauthorized
	CodeForbidden
	// CodeNotImplemented is a capability that is not configured.
	CodeNotImplemented
)

var codes = map[Code]struct {
	name   string
	status int
}{
	CodeInternal:       {"ERROR_CODE_INTERNAL", http.StatusInternalServerError},
	CodeInvalidFormat:  {"ERROR_CODE_INVALID_FORMAT", http.StatusBadRequest},
	CodeInvalidInput:   {"ERROR_CODE_INVALID_INPUT", http.StatusUnprocessableEntity},
	CodeTooManyRequest: {"ERROR_CODE_TOO_MANY_REQUESTS", http.StatusTooManyRequests},
	CodeUnauthorized:   {"ERROR_CODE_UNAUTHORIZED", http.StatusUnauthorized},
	CodeForbidden:      {"ERROR_CODE_FORBIDDEN", http.StatusForbidden},
	CodeNotImplemented: {"ERROR_CODE_NOT_IMPLEMENTED", http.StatusNotImplemented},
}

func (c Code) String() string {
	if info, ok := codes[c]; ok {
		return info.name
	}

	return codes[CodeInternal].name
}

// Error is the structured error returned by inbound handlers.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
	fields  map[string]string
}

// Error prefers the cause so logs keep the technical message; Msg is what
// clients see.
func (e *Error) Error() string {
	switch {
	case e.err != nil:
		return e.err.Error()
	case e.msg != "":
		return e.msg
	}

	return e.errType.String()
}

// String is the verbose form used in debug logs.
func (e *Error) String() string {
	return fmt.Sprintf("type=%s code=%s msg=%q cause=%v", e.errType, e.code, e.msg, e.err)
}

func (e *Error) Msg() string               { return e.msg }
func (e *Error) Type() Type                { return e.errType }
func (e *Error) Code() Code                { return e.code }
func (e *Error) Fields() map[string]string { return e.fields }
func (e *Error) Unwrap() error             { return e.err }

func (e *Error) StatusCode() int {
	if info, ok := codes[e.code]; ok {
		return info.status
	}

	return http.StatusInternalServerError
}

// pairs turns k1, v1, k2, v2... into a map. A trailing odd key is dropped.
func pairs(kv []string) map[string]string {
	if len(kv) < 2 {
		return nil
	}

	m := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}

	return m
}

func NewServer(err error) error {
	return &Error{err: err, msg: "Internal server error", errType: TypeServer, code: CodeInternal}
}

func NewBusiness(msg string, code Code) error {
	return &Error{msg: msg, errType: TypeBusiness, code: code}
}

// NewBusinessWithFields wraps err and adds response fields given as
// key/value pairs.
func NewBusinessWithFields(err error, msg string, code Code, kv ...string) error {
	return &Error{err: err, msg: msg, errType: TypeBusiness, code: code, fields: pairs(kv)}
}

// NewInvalidInput wraps a validator error. With a nil err the fields come
// from kv instead; an odd kv means the caller built the body wrong.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return &Error{err: err, msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput}
	}

	if len(kv)%2 != 0 {
		return NewInvalidFormat()
	}

	return &Error{msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput, fields: pairs(kv)}
}

// NewInvalidFormat reports an undecodable body, with msgs[0] as message when given.
func NewInvalidFormat(msgs ...string) error {
	msg := "Invalid request body"
	if len(msgs) > 0 {
		msg = msgs[0]
	}

	return &Error{msg: msg, errType: TypeValidation, code: CodeInvalidFormat}
}
