package handler

import (
	"net/http"

	"github.com/mcoot/dartleague/internal/api/middleware"
	"github.com/mcoot/dartleague/internal/api/request"
	"github.com/mcoot/dartleague/internal/api/response"
	"github.com/mcoot/dartleague/internal/services/auth"
	"github.com/mcoot/dartleague/internal/services/roster"
)

// SessionHandler handles login, logout and the caller's own profile
type SessionHandler struct {
	authService *auth.Service
	roster      *roster.Service
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(authService *auth.Service, roster *roster.Service) *SessionHandler {
	return &SessionHandler{
		authService: authService,
		roster:      roster,
	}
}

// Login handles POST /api/v1/sessions
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := request.Decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	session, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	player, err := h.roster.Get(r.Context(), session.PlayerID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.SessionResponseFrom(session, player))
}

// Logout handles DELETE /api/v1/sessions
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if session := middleware.GetSession(r.Context()); session != nil {
		h.authService.InvalidateSession(session.Token)
	}
	response.NoContent(w)
}

// GetMe handles GET /api/v1/me
func (h *SessionHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	response.JSON(w, http.StatusOK, response.PlayerFromModel(player))
}
