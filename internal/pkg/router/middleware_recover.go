package router

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/shandysiswandi/gotp/internal/pkg/stacktrace"
)

// middlewareRecoverer turns a handler panic into a 500 response. An
// http.ErrAbortHandler panic is re-raised so net/http can drop the connection.
func middlewareRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			//nolint:errorlint // sentinel is panicked as is
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			stack := debug.Stack()
			attrs := []any{"route", matchedRoutePath(r), "because", rvr}
			if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
				attrs = append(attrs, "stack", paths)
			} else {
				attrs = append(attrs, "stack", string(stack))
			}
			slog.ErrorContext(r.Context(), "panic while serving request", attrs...)

			writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}
