package handler

import (
	"net/http"

	"github.com/mcoot/dartleague/internal/api/request"
	"github.com/mcoot/dartleague/internal/api/response"
	"github.com/mcoot/dartleague/internal/model"
	"github.com/mcoot/dartleague/internal/services/leaderboard"
	"github.com/mcoot/dartleague/internal/services/roster"
	"github.com/mcoot/dartleague/internal/services/schedule"
	"github.com/mcoot/dartleague/internal/services/standings"
)

// AdminHandler handles the admin-only player, schedule and week routes
type AdminHandler struct {
	roster      *roster.Service
	leaderboard *leaderboard.Service
	schedule    *schedule.Service
	updater     *standings.Updater
	events      *Notifier
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	roster *roster.Service,
	leaderboard *leaderboard.Service,
	schedule *schedule.Service,
	updater *standings.Updater,
	events *Notifier,
) *AdminHandler {
	return &AdminHandler{
		roster:      roster,
		leaderboard: leaderboard,
		schedule:    schedule,
		updater:     updater,
		events:      events,
	}
}

// ListPlayers handles GET /api/v1/admin/players
func (h *AdminHandler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.roster.List(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.PlayersFromModel(players))
}

// CreatePlayer handles POST /api/v1/admin/players
func (h *AdminHandler) CreatePlayer(w http.ResponseWriter, r *http.Request) {
	var req request.CreatePlayerRequest
	if err := request.Decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	player, err := h.roster.Create(r.Context(), roster.NewPlayer{
		Name:          req.Name,
		Email:         req.Email,
		SchoolEmail:   req.SchoolEmail,
		PersonalEmail: req.PersonalEmail,
		Phone:         req.Phone,
		Password:      req.Password,
		IsAdmin:       req.IsAdmin,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	h.events.StandingsChanged(r.Context())
	response.JSON(w, http.StatusCreated, response.PlayerFromModel(player))
}

// GetPlayer handles GET /api/v1/admin/players/{id}
func (h *AdminHandler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	player, err := h.roster.Get(r.Context(), playerIDFromPath(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.PlayerFromModel(player))
}

// UpdatePlayer handles PATCH /api/v1/admin/players/{id}
func (h *AdminHandler) UpdatePlayer(w http.ResponseWriter, r *http.Request) {
	var req request.UpdatePlayerRequest
	if err := request.Decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	player, err := h.roster.Update(r.Context(), playerIDFromPath(r), roster.PlayerUpdate{
		Name:          req.Name,
		Email:         req.Email,
		SchoolEmail:   req.SchoolEmail,
		PersonalEmail: req.PersonalEmail,
		Phone:         req.Phone,
		IsAdmin:       req.IsAdmin,
		Password:      req.Password,
		Wins:          req.Wins,
		Losses:        req.Losses,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	h.events.StandingsChanged(r.Context())
	response.JSON(w, http.StatusOK, response.PlayerFromModel(player))
}

// DeletePlayer handles DELETE /api/v1/admin/players/{id}
func (h *AdminHandler) DeletePlayer(w http.ResponseWriter, r *http.Request) {
	if err := h.roster.Delete(r.Context(), playerIDFromPath(r)); err != nil {
		WriteError(w, err)
		return
	}
	h.events.StandingsChanged(r.Context())
	response.NoContent(w)
}

// SetRank handles PUT /api/v1/admin/players/{id}/rank
func (h *AdminHandler) SetRank(w http.ResponseWriter, r *http.Request) {
	var req request.SetRankRequest
	if err := request.Decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.Rank == nil && req.PreviousRank == nil {
		WriteError(w, NewInvalidRequestError("rank or previous_rank is required"))
		return
	}

	ctx := r.Context()
	id := playerIDFromPath(r)

	var (
		player *model.Player
		err    error
	)
	if req.Rank != nil {
		if player, err = h.leaderboard.SetRank(ctx, id, *req.Rank); err != nil {
			WriteError(w, err)
			return
		}
	}
	if req.PreviousRank != nil {
		if player, err = h.leaderboard.SetPreviousRank(ctx, id, *req.PreviousRank); err != nil {
			WriteError(w, err)
			return
		}
	}

	h.events.StandingsChanged(ctx)
	response.JSON(w, http.StatusOK, response.PlayerFromModel(player))
}

// AdvanceWeek handles POST /api/v1/admin/week/advance
func (h *AdminHandler) AdvanceWeek(w http.ResponseWriter, r *http.Request) {
	entries, err := h.leaderboard.AdvanceWeek(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	h.events.StandingsChanged(r.Context())
	response.JSON(w, http.StatusOK, response.LeaderboardFrom(h.leaderboard.Policy().Name(), entries))
}

// SetWeekLabel handles PUT /api/v1/admin/week
func (h *AdminHandler) SetWeekLabel(w http.ResponseWriter, r *http.Request) {
	var req request.WeekLabelRequest
	if err := request.Decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	if err := h.schedule.SetWeekLabel(r.Context(), req.Label); err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.WeekLabel{Label: req.Label})
}

// ListMatches handles GET /api/v1/admin/matches
func (h *AdminHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := h.schedule.ListMatches(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.MatchesFromModel(matches))
}

// CreateMatch handles POST /api/v1/admin/matches
func (h *AdminHandler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var req request.CreateMatchRequest
	if err := request.Decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	match, err := h.schedule.CreateMatch(r.Context(), schedule.MatchDetails{
		Player1ID:     model.PlayerID(req.Player1ID),
		Player2ID:     model.PlayerID(req.Player2ID),
		DateScheduled: req.DateScheduled,
		Notes:         req.Notes,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	h.events.MatchChanged(match)
	response.JSON(w, http.StatusCreated, response.MatchFromModel(match))
}

// UpdateMatch handles PATCH /api/v1/admin/matches/{id}
func (h *AdminHandler) UpdateMatch(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateMatchRequest
	if err := request.Decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	ctx := r.Context()
	id := matchIDFromPath(r)

	current, err := h.schedule.GetMatch(ctx, id)
	if err != nil {
		WriteError(w, err)
		return
	}

	details := schedule.MatchDetails{
		Player1ID:     current.Player1ID,
		Player2ID:     current.Player2ID,
		DateScheduled: current.DateScheduled,
		Notes:         current.Notes,
	}
	if req.Player1ID != nil {
		details.Player1ID = model.PlayerID(*req.Player1ID)
	}
	if req.Player2ID != nil {
		details.Player2ID = model.PlayerID(*req.Player2ID)
	}
	if req.DateScheduled != nil {
		details.DateScheduled = *req.DateScheduled
	}
	if req.Notes != nil {
		details.Notes = *req.Notes
	}

	match, err := h.schedule.UpdateMatch(ctx, id, details)
	if err != nil {
		WriteError(w, err)
		return
	}

	h.events.MatchChanged(match)
	response.JSON(w, http.StatusOK, response.MatchFromModel(match))
}

// DeleteMatch handles DELETE /api/v1/admin/matches/{id}
func (h *AdminHandler) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	id := matchIDFromPath(r)
	if err := h.schedule.DeleteMatch(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}
	h.events.MatchDeleted(id)
	response.NoContent(w)
}

// CancelMatch handles POST /api/v1/admin/matches/{id}/cancel
func (h *AdminHandler) CancelMatch(w http.ResponseWriter, r *http.Request) {
	match, err := h.schedule.CancelMatch(r.Context(), matchIDFromPath(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	h.events.MatchChanged(match)
	response.JSON(w, http.StatusOK, response.MatchFromModel(match))
}

// ReopenMatch handles POST /api/v1/admin/matches/{id}/reopen
func (h *AdminHandler) ReopenMatch(w http.ResponseWriter, r *http.Request) {
	match, err := h.schedule.ReopenDisputed(r.Context(), matchIDFromPath(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	h.events.MatchChanged(match)
	response.JSON(w, http.StatusOK, response.MatchFromModel(match))
}

// ReconcileMatch handles POST /api/v1/admin/matches/{id}/reconcile
func (h *AdminHandler) ReconcileMatch(w http.ResponseWriter, r *http.Request) {
	id := matchIDFromPath(r)

	applied, err := h.updater.Reconcile(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := response.Reconciled{Applied: []string{}}
	if applied {
		resp.Applied = append(resp.Applied, string(id))
		h.events.StandingsChanged(r.Context())
	}
	response.JSON(w, http.StatusOK, resp)
}

// ReconcileAll handles POST /api/v1/admin/reconcile
func (h *AdminHandler) ReconcileAll(w http.ResponseWriter, r *http.Request) {
	repaired, err := h.updater.ReconcileAll(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := response.Reconciled{Applied: make([]string, 0, len(repaired))}
	for _, id := range repaired {
		resp.Applied = append(resp.Applied, string(id))
	}
	if len(repaired) > 0 {
		h.events.StandingsChanged(r.Context())
	}
	response.JSON(w, http.StatusOK, resp)
}
