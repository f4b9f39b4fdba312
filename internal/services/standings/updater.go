package standings

import (
	"context"
	"log/slog"

	"github.com/mcoot/dartleague/internal/dependencies/clock"
	"github.com/mcoot/dartleague/internal/model"
	"github.com/mcoot/dartleague/internal/storage"
)

// ApplyResult is the standings delta of an agreed match: one win for the
// winner, one loss for the loser, nothing else. Storage applies it in the
// same unit as the match write.
func ApplyResult(winner, loser model.PlayerID) *model.Outcome {
	return &model.Outcome{WinnerID: winner, LoserID: loser}
}

// Updater repairs standings for completed matches whose outcome was never counted
type Updater struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
}

// NewUpdater creates a new Updater
func NewUpdater(storage storage.Storage, clock clock.Clock, logger *slog.Logger) *Updater {
	return &Updater{
		storage: storage,
		clock:   clock,
		logger:  logger,
	}
}

// Reconcile applies a completed match's outcome if it has not been applied
// yet. It reports whether anything changed; calling it again is a no-op.
func (u *Updater) Reconcile(ctx context.Context, matchID model.MatchID) (bool, error) {
	applied := false
	_, err := u.storage.UpdateMatch(ctx, matchID, func(m *model.Match) (*model.Outcome, error) {
		applied = false
		if m.Status != model.MatchStatusCompleted {
			return nil, model.ErrInvalidMatchState
		}
		if m.StandingsApplied {
			return nil, nil
		}
		m.StandingsApplied = true
		m.UpdatedAt = u.clock.Now()
		applied = true
		return ApplyResult(m.WinnerID, m.LoserID), nil
	})
	if err != nil {
		return false, err
	}

	if applied {
		u.logger.Info("standings reconciled",
			slog.String("match_id", string(matchID)),
		)
	}
	return applied, nil
}

// ReconcileAll runs Reconcile over every completed match and returns the
// ids it had to repair
func (u *Updater) ReconcileAll(ctx context.Context) ([]model.MatchID, error) {
	matches, err := u.storage.ListMatches(ctx)
	if err != nil {
		return nil, err
	}

	var repaired []model.MatchID
	for _, m := range matches {
		if m.Status != model.MatchStatusCompleted || m.StandingsApplied {
			continue
		}
		applied, err := u.Reconcile(ctx, m.ID)
		if err != nil {
			return repaired, err
		}
		if applied {
			repaired = append(repaired, m.ID)
		}
	}
	return repaired, nil
}
