package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// PanicHandler writes the response for a request whose handler panicked.
// It is only called while the response has not started.
type PanicHandler func(w http.ResponseWriter, r *http.Request, recovered any)

// Recovery logs handler panics and answers with handler. A panic after the
// response started (a half-sent event stream, say) aborts the connection
// instead, so the client cannot mistake the partial body for a whole one.
func Recovery(logger *slog.Logger, handler PanicHandler) func(http.Handler) http.Handler {
	if handler == nil {
		handler = plainPanicHandler
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}

				started := responseStarted(w)
				logger.Error("panic recovered",
					slog.Any("panic", recovered),
					slog.String("request_id", RequestID(r.Context())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Bool("response_started", started),
					slog.String("stack", string(debug.Stack())),
				)

				if started {
					panic(http.ErrAbortHandler)
				}
				handler(w, r, recovered)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func responseStarted(w http.ResponseWriter) bool {
	s, ok := w.(interface{ Started() bool })
	return ok && s.Started()
}

func plainPanicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
