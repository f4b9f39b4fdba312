package confirmation

import (
	"context"
	"log/slog"
	"time"

	"github.com/mcoot/dartleague/internal/dependencies/clock"
	"github.com/mcoot/dartleague/internal/model"
	"github.com/mcoot/dartleague/internal/services/standings"
	"github.com/mcoot/dartleague/internal/storage"
)

// Result is what a report did to the match
type Result struct {
	Match *model.Match

	// StandingsUpdated is true only for the report that completed the match
	StandingsUpdated bool
}

// Engine runs the two-party result confirmation protocol
type Engine struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a new Engine
func New(storage storage.Storage, clock clock.Clock, logger *slog.Logger) *Engine {
	return &Engine{
		storage: storage,
		clock:   clock,
		logger:  logger,
	}
}

// ReportResult records one participant's claim about a match. When both
// participants agree the match completes and standings are updated in the
// same storage unit; when they disagree the match is disputed.
func (e *Engine) ReportResult(ctx context.Context, matchID model.MatchID, playerID model.PlayerID, claimsSelfWon bool) (*Result, error) {
	var outcome *model.Outcome
	match, err := e.storage.UpdateMatch(ctx, matchID, func(m *model.Match) (*model.Outcome, error) {
		o, err := Apply(m, playerID, claimsSelfWon, e.clock.Now())
		outcome = o
		return o, err
	})
	if err != nil {
		e.logger.Warn("result report rejected",
			slog.String("match_id", string(matchID)),
			slog.String("player_id", string(playerID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	e.logger.Info("result reported",
		slog.String("match_id", string(matchID)),
		slog.String("player_id", string(playerID)),
		slog.Bool("claims_self_won", claimsSelfWon),
		slog.String("status", string(match.Status)),
	)
	if outcome != nil {
		e.logger.Info("match completed",
			slog.String("match_id", string(matchID)),
			slog.String("winner_id", string(outcome.WinnerID)),
			slog.String("loser_id", string(outcome.LoserID)),
		)
	}

	return &Result{Match: match, StandingsUpdated: outcome != nil}, nil
}

// Apply is the protocol's state transition. It mutates m and returns the
// outcome to count when this report completes the match.
//
// A later report from the same player replaces their earlier one, so a
// disputed match resolves as soon as either side changes their claim.
func Apply(m *model.Match, reporter model.PlayerID, claimsSelfWon bool, now time.Time) (*model.Outcome, error) {
	slot := m.Slot(reporter)
	if slot == model.SlotNone {
		return nil, model.ErrNotParticipant
	}
	if m.Status.IsTerminal() {
		return nil, model.ErrInvalidMatchState
	}

	claimed := reporter
	if !claimsSelfWon {
		claimed = m.Opponent(reporter)
	}
	m.SetReport(slot, &model.Report{ClaimedWinnerID: claimed, ReportedAt: now})
	m.UpdatedAt = now

	r1, r2 := m.Player1Report, m.Player2Report
	switch {
	case r1 == nil || r2 == nil:
		m.Status = model.MatchStatusAwaitingConfirmation
		return nil, nil
	case r1.ClaimedWinnerID != r2.ClaimedWinnerID:
		m.Status = model.MatchStatusDisputed
		return nil, nil
	}

	winner := r1.ClaimedWinnerID
	loser := m.Opponent(winner)
	m.Status = model.MatchStatusCompleted
	m.WinnerID = winner
	m.LoserID = loser
	m.CompletedAt = &now
	m.StandingsApplied = true
	return standings.ApplyResult(winner, loser), nil
}
