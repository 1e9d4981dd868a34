package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// ErrorReporter receives panics recovered from handlers.
type ErrorReporter interface {
	LogError(ctx context.Context, err error, where string)
}

// Recover returns middleware that recovers from panics. reporter may be nil.
func Recover(reporter ErrorReporter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				slog.Error("panic recovered in handler",
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				if reporter != nil {
					reporter.LogError(r.Context(), fmt.Errorf("panic: %v", rec), r.Method+" "+r.URL.Path)
				}
				writeError(w, http.StatusInternalServerError, "internal error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}
