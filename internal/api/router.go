package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/dartleague/internal/api/handler"
	"github.com/mcoot/dartleague/internal/api/middleware"
	"github.com/mcoot/dartleague/internal/api/sse"
	"github.com/mcoot/dartleague/internal/services/auth"
	"github.com/mcoot/dartleague/internal/services/confirmation"
	"github.com/mcoot/dartleague/internal/services/leaderboard"
	"github.com/mcoot/dartleague/internal/services/roster"
	"github.com/mcoot/dartleague/internal/services/schedule"
	"github.com/mcoot/dartleague/internal/services/standings"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger             *slog.Logger
	AuthService        *auth.Service
	RosterService      *roster.Service
	ScheduleService    *schedule.Service
	LeaderboardService *leaderboard.Service
	ConfirmationEngine *confirmation.Engine
	StandingsUpdater   *standings.Updater
	History            *standings.History

	// Events receives league changes for GET /events (optional)
	Events *sse.Hub
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	sessionHandler := handler.NewSessionHandler(cfg.AuthService, cfg.RosterService)
	leagueHandler := handler.NewLeagueHandler(cfg.LeaderboardService, cfg.ScheduleService, cfg.History, cfg.RosterService)
	var publisher handler.Publisher
	if cfg.Events != nil {
		publisher = cfg.Events
	}
	notifier := handler.NewNotifier(publisher, cfg.LeaderboardService, cfg.Logger)

	matchHandler := handler.NewMatchHandler(cfg.ScheduleService, cfg.RosterService, cfg.ConfirmationEngine, notifier)
	adminHandler := handler.NewAdminHandler(cfg.RosterService, cfg.LeaderboardService, cfg.ScheduleService, cfg.StandingsUpdater, notifier)
	eventsHandler := handler.NewEventsHandler(cfg.Events)

	authMiddleware := middleware.Auth(cfg.AuthService, cfg.RosterService)

	// Recovery sits inside logging so a panic is still logged as a 500
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Logging(cfg.Logger))
	api.Use(middleware.Recovery(cfg.Logger))

	// Open routes
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	api.HandleFunc("/sessions", sessionHandler.Login).Methods(http.MethodPost)

	// Any logged-in player
	player := api.NewRoute().Subrouter()
	player.Use(authMiddleware)
	player.HandleFunc("/sessions", sessionHandler.Logout).Methods(http.MethodDelete)
	player.HandleFunc("/me", sessionHandler.GetMe).Methods(http.MethodGet)
	player.HandleFunc("/me/match", matchHandler.Current).Methods(http.MethodGet)
	player.HandleFunc("/me/history", leagueHandler.MyHistory).Methods(http.MethodGet)
	player.HandleFunc("/leaderboard", leagueHandler.Leaderboard).Methods(http.MethodGet)
	player.HandleFunc("/matchups", leagueHandler.Matchups).Methods(http.MethodGet)
	player.HandleFunc("/matches/{id}", matchHandler.Get).Methods(http.MethodGet)
	player.HandleFunc("/matches/{id}/report", matchHandler.Report).Methods(http.MethodPost)
	player.HandleFunc("/events", eventsHandler.Stream).Methods(http.MethodGet)

	// Admins only
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(authMiddleware)
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/players", adminHandler.ListPlayers).Methods(http.MethodGet)
	admin.HandleFunc("/players", adminHandler.CreatePlayer).Methods(http.MethodPost)
	admin.HandleFunc("/players/{id}", adminHandler.GetPlayer).Methods(http.MethodGet)
	admin.HandleFunc("/players/{id}", adminHandler.UpdatePlayer).Methods(http.MethodPatch)
	admin.HandleFunc("/players/{id}", adminHandler.DeletePlayer).Methods(http.MethodDelete)
	admin.HandleFunc("/players/{id}/rank", adminHandler.SetRank).Methods(http.MethodPut)
	admin.HandleFunc("/week/advance", adminHandler.AdvanceWeek).Methods(http.MethodPost)
	admin.HandleFunc("/week", adminHandler.SetWeekLabel).Methods(http.MethodPut)
	admin.HandleFunc("/matches", adminHandler.ListMatches).Methods(http.MethodGet)
	admin.HandleFunc("/matches", adminHandler.CreateMatch).Methods(http.MethodPost)
	admin.HandleFunc("/matches/{id}", adminHandler.UpdateMatch).Methods(http.MethodPatch)
	admin.HandleFunc("/matches/{id}", adminHandler.DeleteMatch).Methods(http.MethodDelete)
	admin.HandleFunc("/matches/{id}/cancel", adminHandler.CancelMatch).Methods(http.MethodPost)
	admin.HandleFunc("/matches/{id}/reopen", adminHandler.ReopenMatch).Methods(http.MethodPost)
	admin.HandleFunc("/matches/{id}/reconcile", adminHandler.ReconcileMatch).Methods(http.MethodPost)
	admin.HandleFunc("/reconcile", adminHandler.ReconcileAll).Methods(http.MethodPost)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
