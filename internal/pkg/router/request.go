package router

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/shandysiswandi/gotp/internal/pkg/goerror"
)

// maxBodyBytes caps request bodies; OTP payloads are a few hundred bytes.
const maxBodyBytes = 64 << 10

// Request is what handlers receive: the http.Request plus decoding helpers.
type Request struct {
	*http.Request
	w http.ResponseWriter
}

// DecodeBody reads exactly one JSON object into dst. Unknown fields, trailing
// data and oversized bodies are format errors.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Body == nil || r.Body == http.NoBody {
		return goerror.NewInvalidFormat("Request body is required")
	}

	dec := json.NewDecoder(http.MaxBytesReader(r.w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return goerror.NewInvalidFormat("Request body too large")
		}
		return goerror.NewInvalidFormat()
	}

	if dec.More() {
		return goerror.NewInvalidFormat()
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return goerror.NewInvalidFormat()
	}

	return nil
}
