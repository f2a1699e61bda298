package instrument

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const masked = "***"

// builtinMaskFields never reach a log sink in clear text.
var builtinMaskFields = []string{"otp", "value", "receipt", "secret"}

func setupLogger(service string, lp *sdklog.LoggerProvider, maskFields []string) {
	var h slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       slog.LevelInfo,
		AddSource:   true,
		ReplaceAttr: renameAttr,
	})

	if lp != nil {
		h = fanout{h, otelslog.NewHandler(service, otelslog.WithLoggerProvider(lp))}
	}

	h = maskHandler{next: h, keys: MaskKeys(maskFields)}
	slog.SetDefault(slog.New(requestHandler{Handler: h, service: service}))
}

// renameAttr shortens the built-in keys and keeps only sources inside this
// module, trimmed to their internal/ path.
func renameAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
	case slog.LevelKey:
		a.Key = "severity"
	case slog.SourceKey:
		src, ok := a.Value.Any().(*slog.Source)
		if !ok {
			return a
		}
		idx := strings.LastIndex(src.File, "/internal/")
		if idx < 0 {
			return slog.Attr{}
		}
		return slog.String("file", src.File[idx+1:]+":"+strconv.Itoa(src.Line))
	}

	return a
}

// requestHandler stamps every record with the service and the correlation id.
type requestHandler struct {
	slog.Handler
	service string
}

func (h requestHandler) Handle(ctx context.Context, r slog.Record) error {
	if cid := GetCorrelationID(ctx); cid != "" {
		r.AddAttrs(slog.String("_cID", cid))
	}
	r.AddAttrs(slog.String("service", h.service))

	return h.Handler.Handle(ctx, r)
}

func (h requestHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return requestHandler{Handler: h.Handler.WithAttrs(attrs), service: h.service}
}

func (h requestHandler) WithGroup(name string) slog.Handler {
	return requestHandler{Handler: h.Handler.WithGroup(name), service: h.service}
}

// fanout writes each record to every handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	return lo.ContainsBy(f, func(h slog.Handler) bool { return h.Enabled(ctx, level) })
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}

	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return fanout(lo.Map(f, func(h slog.Handler, _ int) slog.Handler { return h.WithAttrs(attrs) }))
}

func (f fanout) WithGroup(name string) slog.Handler {
	return fanout(lo.Map(f, func(h slog.Handler, _ int) slog.Handler { return h.WithGroup(name) }))
}

// maskHandler hides values of sensitive keys, including keys nested in
// groups, maps and JSON encoded strings.
type maskHandler struct {
	next slog.Handler
	keys map[string]struct{}
}

func (h maskHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h maskHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.mask(a))
		return true
	})

	return h.next.Handle(ctx, out)
}

func (h maskHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return maskHandler{
		next: h.next.WithAttrs(lo.Map(attrs, func(a slog.Attr, _ int) slog.Attr { return h.mask(a) })),
		keys: h.keys,
	}
}

func (h maskHandler) WithGroup(name string) slog.Handler {
	return maskHandler{next: h.next.WithGroup(name), keys: h.keys}
}

func (h maskHandler) mask(a slog.Attr) slog.Attr {
	if _, ok := h.keys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, masked)
	}

	switch a.Value.Kind() {
	case slog.KindGroup:
		a.Value = slog.GroupValue(lo.Map(a.Value.Group(), func(ga slog.Attr, _ int) slog.Attr { return h.mask(ga) })...)
	case slog.KindString:
		if s, ok := maskJSON([]byte(a.Value.String()), h.keys); ok {
			a.Value = slog.StringValue(s)
		}
	case slog.KindAny:
		switch v := a.Value.Any().(type) {
		case map[string]any, []any:
			a.Value = slog.AnyValue(MaskData(v, h.keys))
		case map[string]string:
			a.Value = slog.AnyValue(MaskData(lo.MapValues(v, func(s string, _ string) any { return s }), h.keys))
		case []byte:
			if s, ok := maskJSON(v, h.keys); ok {
				a.Value = slog.StringValue(s)
			}
		}
	}

	return a
}

// maskJSON masks payload when it is a JSON object or array.
func maskJSON(payload []byte, keys map[string]struct{}) (string, bool) {
	if len(payload) == 0 || (payload[0] != '{' && payload[0] != '[') {
		return "", false
	}

	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return "", false
	}

	out, err := json.Marshal(MaskData(doc, keys))
	if err != nil {
		return "", false
	}

	return string(out), true
}

// MaskKeys returns the lower-cased set of masked field names, built-ins included.
func MaskKeys(fields []string) map[string]struct{} {
	keys := lo.FilterMap(slices.Concat(fields, builtinMaskFields), func(f string, _ int) (string, bool) {
		f = strings.ToLower(strings.TrimSpace(f))
		return f, f != ""
	})

	return lo.Keyify(keys)
}

// MaskData returns a copy of decoded JSON with masked keys replaced.
func MaskData(v any, keys map[string]struct{}) any {
	switch val := v.(type) {
	case map[string]any:
		return lo.MapEntries(val, func(k string, inner any) (string, any) {
			if _, ok := keys[strings.ToLower(k)]; ok {
				return k, masked
			}
			return k, MaskData(inner, keys)
		})
	case []any:
		return lo.Map(val, func(inner any, _ int) any { return MaskData(inner, keys) })
	}

	return v
}
