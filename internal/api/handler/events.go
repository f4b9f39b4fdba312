package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mcoot/dartleague/internal/api/middleware"
	"github.com/mcoot/dartleague/internal/api/response"
	"github.com/mcoot/dartleague/internal/api/sse"
	"github.com/mcoot/dartleague/internal/model"
	"github.com/mcoot/dartleague/internal/services/leaderboard"
)

// Publisher delivers a named event to live subscribers
type Publisher interface {
	Publish(event string, v any)
}

// Notifier turns successful writes into stream events. A nil Notifier is a no-op.
type Notifier struct {
	pub         Publisher
	leaderboard *leaderboard.Service
	logger      *slog.Logger
}

// NewNotifier creates a notifier. pub may be nil, in which case nothing is sent.
func NewNotifier(pub Publisher, leaderboard *leaderboard.Service, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{pub: pub, leaderboard: leaderboard, logger: logger}
}

func (n *Notifier) enabled() bool {
	return n != nil && n.pub != nil
}

// MatchChanged publishes the new state of a match
func (n *Notifier) MatchChanged(m *model.Match) {
	if !n.enabled() {
		return
	}
	n.pub.Publish(sse.EventMatchUpdated, response.MatchFromModel(m))
}

// MatchDeleted publishes the id of a removed match
func (n *Notifier) MatchDeleted(id model.MatchID) {
	if !n.enabled() {
		return
	}
	n.pub.Publish(sse.EventMatchDeleted, map[string]string{"id": string(id)})
}

// StandingsChanged publishes the current leaderboard
func (n *Notifier) StandingsChanged(ctx context.Context) {
	if !n.enabled() {
		return
	}
	entries, err := n.leaderboard.GetLeaderboard(ctx)
	if err != nil {
		n.logger.Warn("failed to read leaderboard for event", slog.String("error", err.Error()))
		return
	}
	n.pub.Publish(sse.EventStandingsUpdated, response.LeaderboardFrom(n.leaderboard.Policy().Name(), entries))
}

// EventsHandler serves the live event stream
type EventsHandler struct {
	hub *sse.Hub
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub *sse.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// Stream handles GET /api/v1/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		WriteError(w, NewInvalidRequestError("event stream is not enabled"))
		return
	}
	player := middleware.MustGetPlayer(r.Context())
	sse.ServeSSE(w, r, h.hub, player.ID)
}
