package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/mcoot/dartleague/internal/api/apierr"
	"github.com/mcoot/dartleague/internal/model"
	"github.com/mcoot/dartleague/internal/services/auth"
)

type contextKey string

const (
	playerContextKey  contextKey = "player"
	sessionContextKey contextKey = "session"
)

// Players looks up the player behind a session
type Players interface {
	Get(ctx context.Context, id model.PlayerID) (*model.Player, error)
}

// Auth creates authentication middleware. The player is re-read on every
// request so admin changes and deletions take effect straight away.
func Auth(authService *auth.Service, players Players) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			session, err := authService.ValidateSession(token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			player, err := players.Get(r.Context(), session.PlayerID)
			if err != nil {
				if errors.Is(err, model.ErrPlayerNotFound) {
					authService.InvalidateSession(token)
					apierr.WriteError(w, auth.ErrInvalidSession)
					return
				}
				apierr.WriteError(w, err)
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, sessionContextKey, session)
			ctx = context.WithValue(ctx, playerContextKey, player)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects players without the admin flag. Must run after Auth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		player := GetPlayer(r.Context())
		if player == nil {
			apierr.WriteError(w, apierr.NewUnauthorizedError())
			return
		}
		if !player.IsAdmin {
			apierr.WriteError(w, apierr.NewNotAdminError())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractToken extracts the session token from the request
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	cookie, err := r.Cookie("session")
	if err == nil {
		return cookie.Value
	}

	return ""
}

// GetPlayer returns the authenticated player from the request context
func GetPlayer(ctx context.Context) *model.Player {
	player, _ := ctx.Value(playerContextKey).(*model.Player)
	return player
}

// GetSession returns the session from the request context
func GetSession(ctx context.Context) *auth.Session {
	session, _ := ctx.Value(sessionContextKey).(*auth.Session)
	return session
}

// MustGetPlayer returns the authenticated player or panics
func MustGetPlayer(ctx context.Context) *model.Player {
	player := GetPlayer(ctx)
	if player == nil {
		panic("no player in context - auth middleware not applied?")
	}
	return player
}
