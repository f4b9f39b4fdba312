package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/dartleague/internal/model"
	"github.com/mcoot/dartleague/internal/services/auth"
	"github.com/mcoot/dartleague/internal/services/leaderboard"
	"github.com/mcoot/dartleague/internal/services/roster"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeNotAdmin             = "NOT_ADMIN"
	CodePlayerNotFound       = "PLAYER_NOT_FOUND"
	CodeMatchNotFound        = "MATCH_NOT_FOUND"
	CodeCredentialNotFound   = "CREDENTIAL_NOT_FOUND"
	CodeNotParticipant       = "NOT_PARTICIPANT"
	CodeInvalidMatchState    = "INVALID_MATCH_STATE"
	CodeConcurrentUpdate     = "CONCURRENT_UPDATE"
	CodeSamePlayer           = "SAME_PLAYER"
	CodeInvalidRank          = "INVALID_RANK"
	CodeInvalidRecord        = "INVALID_RECORD"
	CodeInvalidPlayer        = "INVALID_PLAYER"
	CodeEmailExists          = "EMAIL_EXISTS"
	CodePlayerHasOpenMatches = "PLAYER_HAS_OPEN_MATCHES"
	CodeUnknownPolicy        = "UNKNOWN_POLICY"
	CodeInternalError        = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status WriteError would use for err
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	// Not found
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrMatchNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeMatchNotFound, "Match not found"}}
	case errors.Is(err, model.ErrCredentialNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeCredentialNotFound, "No login is set up for this player"}}

	// Confirmation
	case errors.Is(err, model.ErrNotParticipant):
		return &httpError{http.StatusForbidden, APIError{CodeNotParticipant, "You are not playing in this match"}}
	case errors.Is(err, model.ErrInvalidMatchState):
		return &httpError{http.StatusConflict, APIError{CodeInvalidMatchState, "The match can no longer be changed this way"}}
	case errors.Is(err, model.ErrConcurrentUpdate):
		return &httpError{http.StatusConflict, APIError{CodeConcurrentUpdate, "Someone else changed this at the same time, please try again"}}

	// Directory and schedule
	case errors.Is(err, model.ErrSamePlayer):
		return &httpError{http.StatusBadRequest, APIError{CodeSamePlayer, "A player cannot play against themselves"}}
	case errors.Is(err, model.ErrInvalidRank):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRank, "Rank must be between 1 and the number of players"}}
	case errors.Is(err, model.ErrInvalidRecord):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRecord, "Wins and losses cannot be negative"}}
	case errors.Is(err, roster.ErrInvalidPlayer):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidPlayer, "A player needs a name, an email and a password"}}
	case errors.Is(err, model.ErrEmailExists):
		return &httpError{http.StatusConflict, APIError{CodeEmailExists, "That email is already in use"}}
	case errors.Is(err, model.ErrPlayerHasOpenMatches):
		return &httpError{http.StatusConflict, APIError{CodePlayerHasOpenMatches, "Player still has unfinished matches"}}
	case errors.Is(err, leaderboard.ErrUnknownPolicy):
		return &httpError{http.StatusBadRequest, APIError{CodeUnknownPolicy, "Unknown rank policy"}}

	// Auth
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid email or password"}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewNotAdminError is returned when a non-admin reaches an admin route
func NewNotAdminError() error {
	return &httpError{http.StatusForbidden, APIError{CodeNotAdmin, "Only league admins can do this"}}
}

// NewInternalError creates an internal server error that quotes the request
// id, so a player can pass it on to an admin reading the logs
func NewInternalError(requestID string) error {
	msg := "Internal server error"
	if requestID != "" {
		msg += " (request " + requestID + ")"
	}
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, msg}}
}
