package storage

import (
	"context"

	"github.com/mcoot/dartleague/internal/model"
)

// MatchMutation changes a match in place and optionally returns the standings
// outcome that must be applied together with the match write. Returning an
// error aborts the whole unit and nothing is persisted.
type MatchMutation func(m *model.Match) (*model.Outcome, error)

// PlayersMutation receives every player ordered by rank, changes them in
// place and returns the ones that must be written back.
type PlayersMutation func(players []*model.Player) ([]*model.Player, error)

// MatchGuard vetoes a write by returning an error for the match as stored
type MatchGuard func(m *model.Match) error

// Storage defines the interface for data persistence
type Storage interface {
	// Player directory operations
	SavePlayer(ctx context.Context, player *model.Player) error
	// SavePlayers writes all given players as one unit (rank reorders)
	SavePlayers(ctx context.Context, players []*model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	// ListPlayers returns every player ordered by rank
	ListPlayers(ctx context.Context) ([]*model.Player, error)
	// DeletePlayer removes a player and their credential in one unit. It
	// fails with ErrPlayerNotFound if the player is gone and with
	// ErrPlayerHasOpenMatches while an unfinished match references them.
	// The remaining players are passed to renumber (which may be nil) and
	// whatever it returns is written in the same unit.
	DeletePlayer(ctx context.Context, id model.PlayerID, renumber PlayersMutation) error
	// UpdatePlayers is a read-modify-write over the whole directory. It never
	// overwrites a record increment made by a concurrent UpdateMatch.
	UpdatePlayers(ctx context.Context, fn PlayersMutation) error

	// Credential operations
	SaveCredential(ctx context.Context, cred *model.Credential) error
	GetCredentialByEmail(ctx context.Context, email string) (*model.Credential, error)
	DeleteCredential(ctx context.Context, playerID model.PlayerID) error

	// Match store operations
	SaveMatch(ctx context.Context, match *model.Match) error
	// CreateMatch inserts a new match, failing with ErrPlayerNotFound unless
	// both players exist when the write lands
	CreateMatch(ctx context.Context, match *model.Match) error
	GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error)
	ListMatches(ctx context.Context) ([]*model.Match, error)
	ListMatchesByPlayer(ctx context.Context, playerID model.PlayerID) ([]*model.Match, error)
	// DeleteMatch removes a match if guard (which may be nil) accepts the
	// stored state. The check and the delete are one unit.
	DeleteMatch(ctx context.Context, id model.MatchID, guard MatchGuard) error

	// UpdateMatch runs fn against the current match and persists the match
	// and any returned outcome atomically. Concurrent updates of the same
	// match are serialised. A re-pairing fails with ErrPlayerNotFound unless
	// both new players still exist.
	UpdateMatch(ctx context.Context, id model.MatchID, fn MatchMutation) (*model.Match, error)

	// League settings
	GetWeekLabel(ctx context.Context) (string, error)
	SaveWeekLabel(ctx context.Context, label string) error
}
