package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/dartleague/internal/middleware"
)

// Logging logs every API request
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Logging(logger)
}
