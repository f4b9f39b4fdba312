package handler

import (
	"context"
	"net/http"

	"github.com/mcoot/dartleague/internal/api/middleware"
	"github.com/mcoot/dartleague/internal/api/response"
	"github.com/mcoot/dartleague/internal/model"
	"github.com/mcoot/dartleague/internal/services/leaderboard"
	"github.com/mcoot/dartleague/internal/services/roster"
	"github.com/mcoot/dartleague/internal/services/schedule"
	"github.com/mcoot/dartleague/internal/services/standings"
)

// LeagueHandler serves the read-only views every player sees
type LeagueHandler struct {
	leaderboard *leaderboard.Service
	schedule    *schedule.Service
	history     *standings.History
	roster      *roster.Service
}

// NewLeagueHandler creates a new league handler
func NewLeagueHandler(
	leaderboard *leaderboard.Service,
	schedule *schedule.Service,
	history *standings.History,
	roster *roster.Service,
) *LeagueHandler {
	return &LeagueHandler{
		leaderboard: leaderboard,
		schedule:    schedule,
		history:     history,
		roster:      roster,
	}
}

// Leaderboard handles GET /api/v1/leaderboard
func (h *LeagueHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.leaderboard.GetLeaderboard(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LeaderboardFrom(h.leaderboard.Policy().Name(), entries))
}

// Matchups handles GET /api/v1/matchups
func (h *LeagueHandler) Matchups(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	matchups, err := h.schedule.Matchups(ctx)
	if err != nil {
		WriteError(w, err)
		return
	}
	label, err := h.schedule.WeekLabel(ctx)
	if err != nil {
		WriteError(w, err)
		return
	}
	names, err := h.playerNames(ctx)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchupsFrom(label, matchups, names))
}

// MyHistory handles GET /api/v1/me/history
func (h *LeagueHandler) MyHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	player := middleware.MustGetPlayer(ctx)

	entries, record, err := h.history.ForPlayer(ctx, player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}
	names, err := h.playerNames(ctx)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.HistoryFrom(player.ID, entries, record, names))
}

func (h *LeagueHandler) playerNames(ctx context.Context) (map[model.PlayerID]string, error) {
	players, err := h.roster.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[model.PlayerID]string, len(players))
	for _, p := range players {
		names[p.ID] = p.Name
	}
	return names, nil
}
