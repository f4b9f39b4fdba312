package handler

import (
	"net/http"

	"github.com/mcoot/dartleague/internal/api/middleware"
	"github.com/mcoot/dartleague/internal/api/request"
	"github.com/mcoot/dartleague/internal/api/response"
	"github.com/mcoot/dartleague/internal/services/confirmation"
	"github.com/mcoot/dartleague/internal/services/roster"
	"github.com/mcoot/dartleague/internal/services/schedule"
)

// MatchHandler handles match viewing and result reporting
type MatchHandler struct {
	schedule *schedule.Service
	roster   *roster.Service
	engine   *confirmation.Engine
	events   *Notifier
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(schedule *schedule.Service, roster *roster.Service, engine *confirmation.Engine, events *Notifier) *MatchHandler {
	return &MatchHandler{
		schedule: schedule,
		roster:   roster,
		engine:   engine,
		events:   events,
	}
}

// Current handles GET /api/v1/me/match
func (h *MatchHandler) Current(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	match, err := h.schedule.CurrentMatch(r.Context(), player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	var resp response.CurrentMatch
	if match != nil {
		m := response.MatchFromModel(match)
		resp.Match = &m

		opponent, err := h.roster.Get(r.Context(), match.Opponent(player.ID))
		if err != nil {
			WriteError(w, err)
			return
		}
		resp.Opponent = response.OpponentFromModel(opponent)
	}
	response.JSON(w, http.StatusOK, resp)
}

// Get handles GET /api/v1/matches/{id}
func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	match, err := h.schedule.GetMatch(r.Context(), matchIDFromPath(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchFromModel(match))
}

// Report handles POST /api/v1/matches/{id}/report
func (h *MatchHandler) Report(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	var req request.ReportRequest
	if err := request.Decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	result, err := h.engine.ReportResult(r.Context(), matchIDFromPath(r), player.ID, *req.Won)
	if err != nil {
		WriteError(w, err)
		return
	}

	h.events.MatchChanged(result.Match)
	if result.StandingsUpdated {
		h.events.StandingsChanged(r.Context())
	}

	response.JSON(w, http.StatusOK, response.ReportResult{
		Match:            response.MatchFromModel(result.Match),
		StandingsUpdated: result.StandingsUpdated,
	})
}
