package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/gotp/internal/pkg/instrument"
	"github.com/shandysiswandi/gotp/internal/pkg/uid"
)

const (
	// HeaderCorrelationID carries the correlation id in and out of the service.
	HeaderCorrelationID = "X-Correlation-ID"
	// HeaderRequestID is accepted when the caller sets no correlation id.
	HeaderRequestID = "X-Request-ID"

	maxCorrelationIDLen = 128
)

// correlationID returns the first usable inbound id, or "" when none is.
func correlationID(h http.Header) string {
	for _, name := range []string{HeaderCorrelationID, HeaderRequestID} {
		v := h.Get(name)
		if strings.ContainsAny(v, "\r\n") {
			continue
		}
		if v = strings.TrimSpace(v); v != "" {
			return v[:min(len(v), maxCorrelationIDLen)]
		}
	}

	return ""
}

// middlewareCorrelationID makes the id available to logging and to outbound
// delivery calls, generating one when the caller did not send it.
func middlewareCorrelationID(gen uid.StringID) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid := correlationID(r.Header)
			if cid == "" && gen != nil {
				cid = gen.Generate()
			}

			if cid != "" {
				w.Header().Set(HeaderCorrelationID, cid)
				r = r.WithContext(instrument.SetCorrelationID(r.Context(), cid))
			}

			next.ServeHTTP(w, r)
		})
	}
}
