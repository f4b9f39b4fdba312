package leaderboard

import (
	"context"
	"log/slog"
	"slices"

	"github.com/mcoot/dartleague/internal/dependencies/clock"
	"github.com/mcoot/dartleague/internal/model"
	"github.com/mcoot/dartleague/internal/storage"
)

// Service serves the leaderboard and the admin rank edits
type Service struct {
	storage storage.Storage
	policy  Policy
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a new leaderboard Service
func New(storage storage.Storage, policy Policy, clock clock.Clock, logger *slog.Logger) *Service {
	if policy == nil {
		policy = ManualPolicy{}
	}
	return &Service{
		storage: storage,
		policy:  policy,
		clock:   clock,
		logger:  logger,
	}
}

// Policy returns the configured rank policy
func (s *Service) Policy() Policy {
	return s.policy
}

// GetLeaderboard returns every player in rank order
func (s *Service) GetLeaderboard(ctx context.Context) ([]Entry, error) {
	players, err := s.storage.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Collect(BuildLeaderboard(players)), nil
}

// AdvanceWeek closes the current week: each player's rank becomes their
// previous rank, then the policy's order is written back as the new ranks.
func (s *Service) AdvanceWeek(ctx context.Context) ([]Entry, error) {
	now := s.clock.Now()
	var ordered []*model.Player

	err := s.storage.UpdatePlayers(ctx, func(players []*model.Player) ([]*model.Player, error) {
		for _, p := range players {
			p.PreviousRank = p.Rank
			p.UpdatedAt = now
		}
		ordered = s.policy.Order(players)
		Renumber(ordered)
		return ordered, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("week advanced",
		slog.String("policy", s.policy.Name()),
		slog.Int("player_count", len(ordered)),
	)

	return slices.Collect(BuildLeaderboard(ordered)), nil
}

// SetRank moves a player to rank and shifts everyone between the old and
// new position by one, so ranks stay 1..N. Previous ranks are left alone.
func (s *Service) SetRank(ctx context.Context, playerID model.PlayerID, rank int) (*model.Player, error) {
	now := s.clock.Now()
	var moved model.Player
	var shifted int

	err := s.storage.UpdatePlayers(ctx, func(players []*model.Player) ([]*model.Player, error) {
		idx := slices.IndexFunc(players, func(p *model.Player) bool { return p.ID == playerID })
		if idx < 0 {
			return nil, model.ErrPlayerNotFound
		}
		if rank < 1 || rank > len(players) {
			return nil, model.ErrInvalidRank
		}

		target := players[idx]
		players = slices.Delete(players, idx, idx+1)
		players = slices.Insert(players, rank-1, target)

		changed := Renumber(players)
		for _, p := range changed {
			p.UpdatedAt = now
		}
		moved = *target
		shifted = len(changed)
		return changed, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("rank set",
		slog.String("player_id", string(playerID)),
		slog.Int("rank", rank),
		slog.Int("players_moved", shifted),
	)
	return &moved, nil
}

// SetPreviousRank overwrites a player's previous rank
func (s *Service) SetPreviousRank(ctx context.Context, playerID model.PlayerID, previousRank int) (*model.Player, error) {
	if previousRank < 1 {
		return nil, model.ErrInvalidRank
	}

	var updated model.Player
	err := s.storage.UpdatePlayers(ctx, func(players []*model.Player) ([]*model.Player, error) {
		idx := slices.IndexFunc(players, func(p *model.Player) bool { return p.ID == playerID })
		if idx < 0 {
			return nil, model.ErrPlayerNotFound
		}
		p := players[idx]
		p.PreviousRank = previousRank
		p.UpdatedAt = s.clock.Now()
		updated = *p
		return []*model.Player{p}, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
