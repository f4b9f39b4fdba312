package roster

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/mcoot/dartleague/internal/dependencies/clock"
	"github.com/mcoot/dartleague/internal/dependencies/idgen"
	"github.com/mcoot/dartleague/internal/model"
	"github.com/mcoot/dartleague/internal/services/leaderboard"
	"github.com/mcoot/dartleague/internal/storage"
)

var ErrInvalidPlayer = errors.New("player needs a name, an email and a password")

// Credentials is the part of the auth service the roster needs
type Credentials interface {
	HashPassword(password string) (string, error)
	InvalidatePlayerSessions(playerID model.PlayerID)
}

// NewPlayer is an admin's request to add someone to the league
type NewPlayer struct {
	Name          string
	Email         string
	SchoolEmail   string
	PersonalEmail string
	Phone         string
	Password      string
	IsAdmin       bool
}

// PlayerUpdate changes only the fields that are set
type PlayerUpdate struct {
	Name          *string
	Email         *string
	SchoolEmail   *string
	PersonalEmail *string
	Phone         *string
	IsAdmin       *bool
	Password      *string

	// Record corrections
	Wins   *int
	Losses *int
}

// Service is the admin-managed player directory
type Service struct {
	storage storage.Storage
	creds   Credentials
	clock   clock.Clock
	ids     idgen.Generator
	logger  *slog.Logger
}

// New creates a new roster Service
func New(storage storage.Storage, creds Credentials, clock clock.Clock, ids idgen.Generator, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		creds:   creds,
		clock:   clock,
		ids:     ids,
		logger:  logger,
	}
}

// Get returns one player
func (s *Service) Get(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	return s.storage.GetPlayer(ctx, id)
}

// List returns every player in rank order
func (s *Service) List(ctx context.Context) ([]*model.Player, error) {
	return s.storage.ListPlayers(ctx)
}

// Create adds a player at the bottom of the ladder with a clean record
func (s *Service) Create(ctx context.Context, req NewPlayer) (*model.Player, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return nil, ErrInvalidPlayer
	}
	if err := s.ensureEmailFree(ctx, req.Email, ""); err != nil {
		return nil, err
	}

	hash, err := s.creds.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	player := &model.Player{
		ID:            model.PlayerID(s.ids.NewID()),
		Name:          req.Name,
		Email:         req.Email,
		SchoolEmail:   req.SchoolEmail,
		PersonalEmail: req.PersonalEmail,
		Phone:         req.Phone,
		IsAdmin:       req.IsAdmin,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.storage.UpdatePlayers(ctx, func(players []*model.Player) ([]*model.Player, error) {
		player.Rank = len(players) + 1
		player.PreviousRank = player.Rank
		return []*model.Player{player}, nil
	})
	if err != nil {
		return nil, err
	}

	err = s.storage.SaveCredential(ctx, &model.Credential{
		PlayerID:     player.ID,
		Email:        player.Email,
		PasswordHash: hash,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("player created",
		slog.String("player_id", string(player.ID)),
		slog.Int("rank", player.Rank),
	)
	return player, nil
}

// Update applies an admin edit to a player
func (s *Service) Update(ctx context.Context, id model.PlayerID, upd PlayerUpdate) (*model.Player, error) {
	if (upd.Wins != nil && *upd.Wins < 0) || (upd.Losses != nil && *upd.Losses < 0) {
		return nil, model.ErrInvalidRecord
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return nil, ErrInvalidPlayer
	}
	if upd.Email != nil {
		if strings.TrimSpace(*upd.Email) == "" {
			return nil, ErrInvalidPlayer
		}
		if err := s.ensureEmailFree(ctx, *upd.Email, id); err != nil {
			return nil, err
		}
	}
	if upd.Password != nil && *upd.Password == "" {
		return nil, ErrInvalidPlayer
	}

	var hash string
	if upd.Password != nil {
		var err error
		if hash, err = s.creds.HashPassword(*upd.Password); err != nil {
			return nil, err
		}
	}

	now := s.clock.Now()
	var before, after model.Player
	err := s.storage.UpdatePlayers(ctx, func(players []*model.Player) ([]*model.Player, error) {
		idx := slices.IndexFunc(players, func(p *model.Player) bool { return p.ID == id })
		if idx < 0 {
			return nil, model.ErrPlayerNotFound
		}
		p := players[idx]
		before = *p
		applyUpdate(p, upd)
		p.UpdatedAt = now
		after = *p
		return []*model.Player{p}, nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.syncCredential(ctx, &before, &after, hash); err != nil {
		return nil, err
	}

	s.logger.Info("player updated",
		slog.String("player_id", string(id)),
	)
	return &after, nil
}

func applyUpdate(p *model.Player, upd PlayerUpdate) {
	if upd.Name != nil {
		p.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Email != nil {
		p.Email = strings.TrimSpace(*upd.Email)
	}
	if upd.SchoolEmail != nil {
		p.SchoolEmail = *upd.SchoolEmail
	}
	if upd.PersonalEmail != nil {
		p.PersonalEmail = *upd.PersonalEmail
	}
	if upd.Phone != nil {
		p.Phone = *upd.Phone
	}
	if upd.IsAdmin != nil {
		p.IsAdmin = *upd.IsAdmin
	}
	if upd.Wins != nil {
		p.Wins = *upd.Wins
	}
	if upd.Losses != nil {
		p.Losses = *upd.Losses
	}
}

// syncCredential keeps the login email and password in step with the player
func (s *Service) syncCredential(ctx context.Context, before, after *model.Player, hash string) error {
	if hash == "" && storage.NormalizeEmail(before.Email) == storage.NormalizeEmail(after.Email) {
		return nil
	}

	if hash == "" {
		cred, err := s.storage.GetCredentialByEmail(ctx, before.Email)
		if err != nil {
			if errors.Is(err, model.ErrCredentialNotFound) {
				return nil // no login to move
			}
			return err
		}
		hash = cred.PasswordHash
	}

	return s.storage.SaveCredential(ctx, &model.Credential{
		PlayerID:     after.ID,
		Email:        after.Email,
		PasswordHash: hash,
		UpdatedAt:    after.UpdatedAt,
	})
}

// Delete removes a player who is not in any unfinished match and closes
// the gap they leave in the ranking. The guard, the delete and the
// renumbering are one storage unit.
func (s *Service) Delete(ctx context.Context, id model.PlayerID) error {
	now := s.clock.Now()
	err := s.storage.DeletePlayer(ctx, id, func(players []*model.Player) ([]*model.Player, error) {
		changed := leaderboard.Renumber(players)
		for _, p := range changed {
			p.UpdatedAt = now
		}
		return changed, nil
	})
	if err != nil {
		return err
	}
	s.creds.InvalidatePlayerSessions(id)

	s.logger.Info("player deleted",
		slog.String("player_id", string(id)),
	)
	return nil
}

// ensureEmailFree fails if email belongs to anyone other than self
func (s *Service) ensureEmailFree(ctx context.Context, email string, self model.PlayerID) error {
	cred, err := s.storage.GetCredentialByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrCredentialNotFound) {
			return nil
		}
		return err
	}
	if cred.PlayerID != self {
		return model.ErrEmailExists
	}
	return nil
}
