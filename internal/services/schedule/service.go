package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/mcoot/dartleague/internal/dependencies/clock"
	"github.com/mcoot/dartleague/internal/dependencies/idgen"
	"github.com/mcoot/dartleague/internal/model"
	"github.com/mcoot/dartleague/internal/storage"
)

// MatchDetails is what an admin fills in when pairing two players
type MatchDetails struct {
	Player1ID     model.PlayerID
	Player2ID     model.PlayerID
	DateScheduled time.Time
	Notes         string
}

// Service manages the match schedule. Matchups are never stored on their
// own; they are read off matches that are still scheduled.
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	ids     idgen.Generator
	logger  *slog.Logger
}

// New creates a new schedule Service
func New(storage storage.Storage, clock clock.Clock, ids idgen.Generator, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		ids:     ids,
		logger:  logger,
	}
}

// CreateMatch schedules a new match between two existing players
func (s *Service) CreateMatch(ctx context.Context, d MatchDetails) (*model.Match, error) {
	if err := s.checkPairing(ctx, d.Player1ID, d.Player2ID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	match := &model.Match{
		ID:            model.MatchID(s.ids.NewID()),
		Player1ID:     d.Player1ID,
		Player2ID:     d.Player2ID,
		DateScheduled: d.DateScheduled,
		Notes:         d.Notes,
		Status:        model.MatchStatusScheduled,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.storage.CreateMatch(ctx, match); err != nil {
		s.logger.Error("failed to save match",
			slog.String("match_id", string(match.ID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("match scheduled",
		slog.String("match_id", string(match.ID)),
		slog.String("player1_id", string(match.Player1ID)),
		slog.String("player2_id", string(match.Player2ID)),
		slog.Time("date_scheduled", match.DateScheduled),
	)
	return match, nil
}

// UpdateMatch edits a match nobody has reported on yet
func (s *Service) UpdateMatch(ctx context.Context, id model.MatchID, d MatchDetails) (*model.Match, error) {
	if err := s.checkPairing(ctx, d.Player1ID, d.Player2ID); err != nil {
		return nil, err
	}

	match, err := s.storage.UpdateMatch(ctx, id, func(m *model.Match) (*model.Outcome, error) {
		if m.Status != model.MatchStatusScheduled {
			return nil, model.ErrInvalidMatchState
		}
		m.Player1ID = d.Player1ID
		m.Player2ID = d.Player2ID
		m.DateScheduled = d.DateScheduled
		m.Notes = d.Notes
		m.UpdatedAt = s.clock.Now()
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("match updated",
		slog.String("match_id", string(id)),
	)
	return match, nil
}

// CancelMatch calls off a match that has not finished
func (s *Service) CancelMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	match, err := s.storage.UpdateMatch(ctx, id, func(m *model.Match) (*model.Outcome, error) {
		if m.Status.IsTerminal() {
			return nil, model.ErrInvalidMatchState
		}
		m.Status = model.MatchStatusCancelled
		m.UpdatedAt = s.clock.Now()
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("match cancelled",
		slog.String("match_id", string(id)),
	)
	return match, nil
}

// ReopenDisputed resolves a dispute by clearing both reports so the
// players can report again
func (s *Service) ReopenDisputed(ctx context.Context, id model.MatchID) (*model.Match, error) {
	match, err := s.storage.UpdateMatch(ctx, id, func(m *model.Match) (*model.Outcome, error) {
		if m.Status != model.MatchStatusDisputed {
			return nil, model.ErrInvalidMatchState
		}
		m.Status = model.MatchStatusScheduled
		m.Player1Report = nil
		m.Player2Report = nil
		m.UpdatedAt = s.clock.Now()
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("disputed match reopened",
		slog.String("match_id", string(id)),
	)
	return match, nil
}

// DeleteMatch removes a match that never produced a result
func (s *Service) DeleteMatch(ctx context.Context, id model.MatchID) error {
	err := s.storage.DeleteMatch(ctx, id, func(m *model.Match) error {
		if m.Status != model.MatchStatusScheduled && m.Status != model.MatchStatusCancelled {
			return model.ErrInvalidMatchState
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("match deleted",
		slog.String("match_id", string(id)),
	)
	return nil
}

// GetMatch returns one match
func (s *Service) GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	return s.storage.GetMatch(ctx, id)
}

// ListMatches returns every match by date
func (s *Service) ListMatches(ctx context.Context) ([]*model.Match, error) {
	return s.storage.ListMatches(ctx)
}

// Matchups returns the pairings still waiting to be played, by date
func (s *Service) Matchups(ctx context.Context) ([]model.Matchup, error) {
	matches, err := s.storage.ListMatches(ctx)
	if err != nil {
		return nil, err
	}

	matchups := []model.Matchup{}
	for _, m := range matches {
		if m.Status == model.MatchStatusScheduled {
			matchups = append(matchups, model.MatchupFromMatch(m))
		}
	}
	return matchups, nil
}

// CurrentMatch returns the player's earliest unfinished match, or nil
func (s *Service) CurrentMatch(ctx context.Context, playerID model.PlayerID) (*model.Match, error) {
	matches, err := s.MatchesForPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}

	for _, m := range matches {
		if !m.Status.IsTerminal() {
			return m, nil
		}
	}
	return nil, nil
}

// MatchesForPlayer returns every match the player is in, by date
func (s *Service) MatchesForPlayer(ctx context.Context, playerID model.PlayerID) ([]*model.Match, error) {
	if _, err := s.storage.GetPlayer(ctx, playerID); err != nil {
		return nil, err
	}
	return s.storage.ListMatchesByPlayer(ctx, playerID)
}

// WeekLabel returns the label shown above the matchups
func (s *Service) WeekLabel(ctx context.Context) (string, error) {
	return s.storage.GetWeekLabel(ctx)
}

// SetWeekLabel changes the label shown above the matchups
func (s *Service) SetWeekLabel(ctx context.Context, label string) error {
	return s.storage.SaveWeekLabel(ctx, label)
}

func (s *Service) checkPairing(ctx context.Context, p1, p2 model.PlayerID) error {
	if p1 == p2 {
		return model.ErrSamePlayer
	}
	for _, id := range []model.PlayerID{p1, p2} {
		if _, err := s.storage.GetPlayer(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
