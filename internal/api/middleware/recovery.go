package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/dartleague/internal/api/apierr"
	"github.com/mcoot/dartleague/internal/middleware"
)

// Recovery answers handler panics with a JSON INTERNAL_ERROR carrying the
// request id
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, func(w http.ResponseWriter, r *http.Request, _ any) {
		apierr.WriteError(w, apierr.NewInternalError(middleware.RequestID(r.Context())))
	})
}
