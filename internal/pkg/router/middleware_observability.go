package router

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/gotp/internal/pkg/config"
	"github.com/shandysiswandi/gotp/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// logBodyLimit bounds how much of each body is copied into logs.
const logBodyLimit = 32 << 10

// sensitiveHeaders are masked in request logs on top of the configured fields.
var sensitiveHeaders = []string{"authorization", "cookie", strings.ToLower(HeaderAPIKey)}

// limitedBuffer keeps the first logBodyLimit bytes written to it.
type limitedBuffer struct {
	bytes.Buffer
	truncated bool
}

func (b *limitedBuffer) keep(p []byte) {
	room := logBodyLimit - b.Len()
	if len(p) > room {
		p, b.truncated = p[:max(room, 0)], true
	}
	b.Write(p)
}

// responseRecorder captures what the handler wrote for logs and metrics.
type responseRecorder struct {
	http.ResponseWriter
	status  int
	written int
	body    limitedBuffer
	err     error
}

func (w *responseRecorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	w.body.keep(p)

	n, err := w.ResponseWriter.Write(p)
	w.written += n
	return n, err
}

// SetError lets the endpoint adapter hand the handler error to the span.
func (w *responseRecorder) SetError(err error) { w.err = err }

func (w *responseRecorder) code() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func matchedRoutePath(r *http.Request) string {
	if p := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); p != "" {
		return p
	}
	return r.URL.Path
}

// peekBody copies the head of the request body and leaves r.Body readable
// from the start.
func peekBody(r *http.Request) ([]byte, bool) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, false
	}

	head, _ := io.ReadAll(io.LimitReader(r.Body, logBodyLimit+1)) //nolint:errcheck // logging only
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}

	if len(head) > logBodyLimit {
		return head[:logBodyLimit], true
	}
	return head, false
}

func maskHeaders(h http.Header, keys map[string]struct{}) http.Header {
	out := h.Clone()
	for k := range out {
		if _, ok := keys[strings.ToLower(k)]; ok {
			out[k] = []string{"***"}
		}
	}
	return out
}

// maskBody renders a body for logs: JSON with masked keys, or plain text.
func maskBody(body []byte, truncated bool, keys map[string]struct{}) any {
	switch {
	case len(body) == 0:
		return nil
	case json.Valid(body):
		var doc any
		_ = json.Unmarshal(body, &doc) //nolint:errcheck // validated above
		return instrument.MaskData(doc, keys)
	case !utf8.Valid(body):
		return "<binary body omitted>"
	case truncated:
		return string(body) + "...(truncated)"
	}
	return string(body)
}

func middlewareObservability(cfg config.Config, ins instrument.Instrumentation) Middleware {
	var fields []string
	if cfg != nil {
		fields = cfg.GetArray("instrument.log_mask_fields")
	}
	keys := instrument.MaskKeys(append(fields, sensitiveHeaders...))

	tracer := ins.Tracer("http.server")
	meter := ins.Meter("http.server")

	requests, err := meter.Int64Counter("http.server.requests",
		metric.WithDescription("HTTP requests served"))
	if err != nil {
		slog.Error("failed to create metric", "name", "http.server.requests", "error", err)
	}
	latency, err := meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request latency"), metric.WithUnit("ms"))
	if err != nil {
		slog.Error("failed to create metric", "name", "http.server.duration", "error", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			route := matchedRoutePath(r)
			base := []attribute.KeyValue{
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
			}

			ctx, span := tracer.Start(r.Context(), r.Method+" "+route, trace.WithAttributes(base...))
			defer span.End()

			reqBody, reqTruncated := peekBody(r)
			slog.InfoContext(ctx, "request received",
				"method", r.Method,
				"path", route,
				"headers", maskHeaders(r.Header, keys),
				"body", maskBody(reqBody, reqTruncated, keys),
			)

			rec := &responseRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.code()
			elapsed := time.Since(start)
			attrs := append(base, semconv.HTTPResponseStatusCodeKey.Int(status))

			span.SetAttributes(attrs...)
			if rec.err != nil {
				span.RecordError(rec.err)
			}
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}

			if requests != nil {
				requests.Add(ctx, 1, metric.WithAttributes(attrs...))
			}
			if latency != nil {
				latency.Record(ctx, float64(elapsed.Microseconds())/1000, metric.WithAttributes(attrs...))
			}

			slog.InfoContext(ctx, "response sent",
				"method", r.Method,
				"path", route,
				"status", status,
				"bytes", rec.written,
				"latency_ms", elapsed.Milliseconds(),
				"body", maskBody(rec.body.Bytes(), rec.body.truncated, keys),
			)
		})
	}
}
