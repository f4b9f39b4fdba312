package memory

import (
	"context"
	"sync"

	"github.com/mcoot/dartleague/internal/model"
	"github.com/mcoot/dartleague/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Records are copied on the way in and out so callers never share state
// with the store.
type Storage struct {
	mu sync.RWMutex

	players     map[model.PlayerID]*model.Player
	credentials map[model.PlayerID]*model.Credential
	emailIndex  map[string]model.PlayerID
	matches     map[model.MatchID]*model.Match
	weekLabel   string
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players:     make(map[model.PlayerID]*model.Player),
		credentials: make(map[model.PlayerID]*model.Credential),
		emailIndex:  make(map[string]model.PlayerID),
		matches:     make(map[model.MatchID]*model.Match),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := *player
	s.players[player.ID] = &p
	return nil
}

func (s *Storage) SavePlayers(ctx context.Context, players []*model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, player := range players {
		p := *player
		s.players[player.ID] = &p
	}
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	p := *player
	return &p, nil
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	players := make([]*model.Player, 0, len(s.players))
	for _, player := range s.players {
		p := *player
		players = append(players, &p)
	}
	storage.SortPlayersByRank(players)
	return players, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID, renumber storage.PlayersMutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[id]; !ok {
		return model.ErrPlayerNotFound
	}
	for _, m := range s.matches {
		if m.HasParticipant(id) && !m.Status.IsTerminal() {
			return model.ErrPlayerHasOpenMatches
		}
	}

	var changed []*model.Player
	if renumber != nil {
		remaining := make([]*model.Player, 0, len(s.players))
		for pid, player := range s.players {
			if pid != id {
				p := *player
				remaining = append(remaining, &p)
			}
		}
		storage.SortPlayersByRank(remaining)

		var err error
		if changed, err = renumber(remaining); err != nil {
			return err
		}
	}

	delete(s.players, id)
	if cred, ok := s.credentials[id]; ok {
		delete(s.emailIndex, storage.NormalizeEmail(cred.Email))
		delete(s.credentials, id)
	}
	for _, player := range changed {
		p := *player
		s.players[player.ID] = &p
	}
	return nil
}

func (s *Storage) UpdatePlayers(ctx context.Context, fn storage.PlayersMutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	players := make([]*model.Player, 0, len(s.players))
	for _, player := range s.players {
		p := *player
		players = append(players, &p)
	}
	storage.SortPlayersByRank(players)

	changed, err := fn(players)
	if err != nil {
		return err
	}
	for _, player := range changed {
		p := *player
		s.players[player.ID] = &p
	}
	return nil
}

// Credential operations

func (s *Storage) SaveCredential(ctx context.Context, cred *model.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.credentials[cred.PlayerID]; ok {
		delete(s.emailIndex, storage.NormalizeEmail(old.Email))
	}
	c := *cred
	s.credentials[cred.PlayerID] = &c
	s.emailIndex[storage.NormalizeEmail(cred.Email)] = cred.PlayerID
	return nil
}

func (s *Storage) GetCredentialByEmail(ctx context.Context, email string) (*model.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	playerID, ok := s.emailIndex[storage.NormalizeEmail(email)]
	if !ok {
		return nil, model.ErrCredentialNotFound
	}
	cred, ok := s.credentials[playerID]
	if !ok {
		return nil, model.ErrCredentialNotFound
	}
	c := *cred
	return &c, nil
}

func (s *Storage) DeleteCredential(ctx context.Context, playerID model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cred, ok := s.credentials[playerID]; ok {
		delete(s.emailIndex, storage.NormalizeEmail(cred.Email))
		delete(s.credentials, playerID)
	}
	return nil
}

// Match operations

func (s *Storage) SaveMatch(ctx context.Context, match *model.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[match.ID] = match.Clone()
	return nil
}

func (s *Storage) CreateMatch(ctx context.Context, match *model.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requirePlayers(match.Player1ID, match.Player2ID); err != nil {
		return err
	}
	s.matches[match.ID] = match.Clone()
	return nil
}

// requirePlayers must be called with the lock held
func (s *Storage) requirePlayers(ids ...model.PlayerID) error {
	for _, id := range ids {
		if _, ok := s.players[id]; !ok {
			return model.ErrPlayerNotFound
		}
	}
	return nil
}

func (s *Storage) GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	match, ok := s.matches[id]
	if !ok {
		return nil, model.ErrMatchNotFound
	}
	return match.Clone(), nil
}

func (s *Storage) ListMatches(ctx context.Context) ([]*model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := make([]*model.Match, 0, len(s.matches))
	for _, match := range s.matches {
		matches = append(matches, match.Clone())
	}
	storage.SortMatchesByDate(matches)
	return matches, nil
}

func (s *Storage) ListMatchesByPlayer(ctx context.Context, playerID model.PlayerID) ([]*model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matches []*model.Match
	for _, match := range s.matches {
		if match.HasParticipant(playerID) {
			matches = append(matches, match.Clone())
		}
	}
	storage.SortMatchesByDate(matches)
	return matches, nil
}

func (s *Storage) DeleteMatch(ctx context.Context, id model.MatchID, guard storage.MatchGuard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	match, ok := s.matches[id]
	if !ok {
		return model.ErrMatchNotFound
	}
	if guard != nil {
		if err := guard(match.Clone()); err != nil {
			return err
		}
	}
	delete(s.matches, id)
	return nil
}

// UpdateMatch holds the write lock for the whole read-modify-write so two
// reports on the same match can never interleave.
func (s *Storage) UpdateMatch(ctx context.Context, id model.MatchID, fn storage.MatchMutation) (*model.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.matches[id]
	if !ok {
		return nil, model.ErrMatchNotFound
	}

	match := current.Clone()
	outcome, err := fn(match)
	if err != nil {
		return nil, err
	}
	for _, pid := range []model.PlayerID{match.Player1ID, match.Player2ID} {
		if !current.HasParticipant(pid) {
			if err := s.requirePlayers(pid); err != nil {
				return nil, err
			}
		}
	}

	var winner, loser model.Player
	if outcome != nil {
		w, ok := s.players[outcome.WinnerID]
		if !ok {
			return nil, model.ErrPlayerNotFound
		}
		l, ok := s.players[outcome.LoserID]
		if !ok {
			return nil, model.ErrPlayerNotFound
		}
		winner, loser = *w, *l
		winner.Wins++
		winner.UpdatedAt = match.UpdatedAt
		loser.Losses++
		loser.UpdatedAt = match.UpdatedAt
	}

	// Nothing below can fail, so the unit is all-or-nothing
	match.Version = current.Version + 1
	s.matches[id] = match
	if outcome != nil {
		s.players[winner.ID] = &winner
		s.players[loser.ID] = &loser
	}

	return match.Clone(), nil
}

// League settings

func (s *Storage) GetWeekLabel(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.weekLabel, nil
}

func (s *Storage) SaveWeekLabel(ctx context.Context, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weekLabel = label
	return nil
}
