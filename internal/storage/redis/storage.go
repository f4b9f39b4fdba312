package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/dartleague/internal/model"
	"github.com/mcoot/dartleague/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
	keys   keyspace
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.MaxTxRetries <= 0 {
		cfg.MaxTxRetries = 1
	}
	return &Storage{
		client: client,
		cfg:    cfg,
		keys:   newKeyspace(cfg.KeyPrefix),
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	return s.SavePlayers(ctx, []*model.Player{player})
}

func (s *Storage) SavePlayers(ctx context.Context, players []*model.Player) error {
	if len(players) == 0 {
		return nil
	}

	// MULTI/EXEC so a rank reorder is never half-applied
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, player := range players {
			data, err := json.Marshal(player)
			if err != nil {
				return err
			}
			pipe.Set(ctx, s.keys.player(player.ID), data, 0)
			pipe.SAdd(ctx, s.keys.playersIndex(), string(player.ID))
		}
		return nil
	})
	return err
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	return decodeJSON[model.Player](s.client.Get(ctx, s.keys.player(id)), model.ErrPlayerNotFound)
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	ids, err := s.client.SMembers(ctx, s.keys.playersIndex()).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.Player{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.keys.player(model.PlayerID(id))
	}

	players, err := mgetJSON[model.Player](ctx, s.client, keys)
	if err != nil {
		return nil, err
	}
	storage.SortPlayersByRank(players)
	return players, nil
}

// DeletePlayer WATCHes the player, their match index and the player index.
// A match scheduled or re-paired onto the player, or any roster change,
// aborts the EXEC and the guard runs again.
func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID, renumber storage.PlayersMutation) error {
	pKey := s.keys.player(id)
	credKey := s.keys.credential(id)
	indexKey := s.keys.playerMatches(id)

	txf := func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, pKey).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return model.ErrPlayerNotFound
		}

		matchIDs, err := tx.SMembers(ctx, indexKey).Result()
		if err != nil {
			return err
		}
		if len(matchIDs) > 0 {
			keys := make([]string, len(matchIDs))
			for i, mid := range matchIDs {
				keys[i] = s.keys.match(model.MatchID(mid))
			}
			values, err := tx.MGet(ctx, keys...).Result()
			if err != nil {
				return err
			}
			matches, err := decodeValues[model.Match](keys, values)
			if err != nil {
				return err
			}
			for _, m := range matches {
				if !m.Status.IsTerminal() {
					return model.ErrPlayerHasOpenMatches
				}
			}
		}

		cred, err := decodeJSON[model.Credential](tx.Get(ctx, credKey), model.ErrCredentialNotFound)
		if err != nil && !errors.Is(err, model.ErrCredentialNotFound) {
			return err
		}

		var changed []*model.Player
		if renumber != nil {
			remaining, err := s.watchPlayers(ctx, tx, id)
			if err != nil {
				return err
			}
			if changed, err = renumber(remaining); err != nil {
				return err
			}
		}
		encoded, err := encodePlayers(changed)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, pKey, indexKey)
			pipe.SRem(ctx, s.keys.playersIndex(), string(id))
			if cred != nil {
				pipe.Del(ctx, credKey, s.keys.emailIndex(cred.Email))
			}
			s.queuePlayers(ctx, pipe, changed, encoded)
			return nil
		})
		return err
	}

	return s.watchWithRetry(ctx, txf, pKey, indexKey, credKey, s.keys.playersIndex())
}

// UpdatePlayers WATCHes the player index and every player key it lists, so
// a concurrent standings write or roster change forces a retry.
func (s *Storage) UpdatePlayers(ctx context.Context, fn storage.PlayersMutation) error {
	txf := func(tx *redis.Tx) error {
		players, err := s.watchPlayers(ctx, tx, "")
		if err != nil {
			return err
		}

		changed, err := fn(players)
		if err != nil {
			return err
		}
		if len(changed) == 0 {
			return nil
		}
		encoded, err := encodePlayers(changed)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			s.queuePlayers(ctx, pipe, changed, encoded)
			return nil
		})
		return err
	}

	return s.watchWithRetry(ctx, txf, s.keys.playersIndex())
}

// watchPlayers WATCHes and loads every indexed player except skip, by rank
func (s *Storage) watchPlayers(ctx context.Context, tx *redis.Tx, skip model.PlayerID) ([]*model.Player, error) {
	ids, err := tx.SMembers(ctx, s.keys.playersIndex()).Result()
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		if model.PlayerID(id) != skip {
			keys = append(keys, s.keys.player(model.PlayerID(id)))
		}
	}

	players := []*model.Player{}
	if len(keys) > 0 {
		if err := tx.Watch(ctx, keys...).Err(); err != nil {
			return nil, err
		}
		values, err := tx.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, err
		}
		if players, err = decodeValues[model.Player](keys, values); err != nil {
			return nil, err
		}
	}
	storage.SortPlayersByRank(players)
	return players, nil
}

func (s *Storage) queuePlayers(ctx context.Context, pipe redis.Pipeliner, players []*model.Player, encoded [][]byte) {
	for i, player := range players {
		pipe.Set(ctx, s.keys.player(player.ID), encoded[i], 0)
		pipe.SAdd(ctx, s.keys.playersIndex(), string(player.ID))
	}
}

func encodePlayers(players []*model.Player) ([][]byte, error) {
	encoded := make([][]byte, len(players))
	for i, player := range players {
		data, err := json.Marshal(player)
		if err != nil {
			return nil, err
		}
		encoded[i] = data
	}
	return encoded, nil
}

// watchWithRetry runs txf under WATCH, starting again from a fresh read
// whenever a watched key changes before EXEC
func (s *Storage) watchWithRetry(ctx context.Context, txf func(*redis.Tx) error, keys ...string) error {
	for attempt := 0; attempt < s.cfg.MaxTxRetries; attempt++ {
		err := s.client.Watch(ctx, txf, keys...)
		if err == nil {
			return nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return model.ErrConcurrentUpdate
}

// Credential operations

func (s *Storage) SaveCredential(ctx context.Context, cred *model.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return err
	}

	previous, err := decodeJSON[model.Credential](s.client.Get(ctx, s.keys.credential(cred.PlayerID)), model.ErrCredentialNotFound)
	if err != nil && !errors.Is(err, model.ErrCredentialNotFound) {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	if previous != nil && storage.NormalizeEmail(previous.Email) != storage.NormalizeEmail(cred.Email) {
		pipe.Del(ctx, s.keys.emailIndex(previous.Email))
	}
	pipe.Set(ctx, s.keys.credential(cred.PlayerID), data, 0)
	pipe.Set(ctx, s.keys.emailIndex(cred.Email), string(cred.PlayerID), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetCredentialByEmail(ctx context.Context, email string) (*model.Credential, error) {
	// Look up player ID from email index
	playerID, err := s.client.Get(ctx, s.keys.emailIndex(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrCredentialNotFound
		}
		return nil, err
	}

	return decodeJSON[model.Credential](s.client.Get(ctx, s.keys.credential(model.PlayerID(playerID))), model.ErrCredentialNotFound)
}

func (s *Storage) DeleteCredential(ctx context.Context, playerID model.PlayerID) error {
	cred, err := decodeJSON[model.Credential](s.client.Get(ctx, s.keys.credential(playerID)), model.ErrCredentialNotFound)
	if err != nil {
		if errors.Is(err, model.ErrCredentialNotFound) {
			return nil
		}
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.keys.credential(playerID))
	pipe.Del(ctx, s.keys.emailIndex(cred.Email))
	_, err = pipe.Exec(ctx)
	return err
}

// Match operations

func (s *Storage) SaveMatch(ctx context.Context, match *model.Match) error {
	data, err := json.Marshal(match)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	s.queueMatch(ctx, pipe, match, data)
	_, err = pipe.Exec(ctx)
	return err
}

// CreateMatch WATCHes both player keys, so a player deleted between the
// existence check and EXEC aborts the insert
func (s *Storage) CreateMatch(ctx context.Context, match *model.Match) error {
	data, err := json.Marshal(match)
	if err != nil {
		return err
	}

	p1, p2 := s.keys.player(match.Player1ID), s.keys.player(match.Player2ID)
	txf := func(tx *redis.Tx) error {
		for _, key := range []string{p1, p2} {
			n, err := tx.Exists(ctx, key).Result()
			if err != nil {
				return err
			}
			if n == 0 {
				return model.ErrPlayerNotFound
			}
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			s.queueMatch(ctx, pipe, match, data)
			return nil
		})
		return err
	}

	return s.watchWithRetry(ctx, txf, p1, p2)
}

func (s *Storage) queueMatch(ctx context.Context, pipe redis.Pipeliner, match *model.Match, data []byte) {
	pipe.Set(ctx, s.keys.match(match.ID), data, 0)
	pipe.SAdd(ctx, s.keys.matchesIndex(), string(match.ID))
	pipe.SAdd(ctx, s.keys.playerMatches(match.Player1ID), string(match.ID))
	pipe.SAdd(ctx, s.keys.playerMatches(match.Player2ID), string(match.ID))
}

func (s *Storage) GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	return decodeJSON[model.Match](s.client.Get(ctx, s.keys.match(id)), model.ErrMatchNotFound)
}

func (s *Storage) ListMatches(ctx context.Context) ([]*model.Match, error) {
	return s.listMatchesIn(ctx, s.keys.matchesIndex())
}

func (s *Storage) ListMatchesByPlayer(ctx context.Context, playerID model.PlayerID) ([]*model.Match, error) {
	return s.listMatchesIn(ctx, s.keys.playerMatches(playerID))
}

func (s *Storage) listMatchesIn(ctx context.Context, indexKey string) ([]*model.Match, error) {
	ids, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.Match{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.keys.match(model.MatchID(id))
	}

	matches, err := mgetJSON[model.Match](ctx, s.client, keys)
	if err != nil {
		return nil, err
	}
	storage.SortMatchesByDate(matches)
	return matches, nil
}

// DeleteMatch WATCHes the match key, so a report that lands after the guard
// has run aborts the delete and the guard sees the new state
func (s *Storage) DeleteMatch(ctx context.Context, id model.MatchID, guard storage.MatchGuard) error {
	mKey := s.keys.match(id)

	txf := func(tx *redis.Tx) error {
		match, err := decodeJSON[model.Match](tx.Get(ctx, mKey), model.ErrMatchNotFound)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(match); err != nil {
				return err
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, mKey)
			pipe.SRem(ctx, s.keys.matchesIndex(), string(id))
			pipe.SRem(ctx, s.keys.playerMatches(match.Player1ID), string(id))
			pipe.SRem(ctx, s.keys.playerMatches(match.Player2ID), string(id))
			return nil
		})
		return err
	}

	return s.watchWithRetry(ctx, txf, mKey)
}

// UpdateMatch uses optimistic locking: the match key and both participants'
// player keys are WATCHed, and the writes go out in one MULTI/EXEC. If any
// watched key changes in between, EXEC aborts and the whole unit is retried
// from a fresh read.
func (s *Storage) UpdateMatch(ctx context.Context, id model.MatchID, fn storage.MatchMutation) (*model.Match, error) {
	mKey := s.keys.match(id)
	var updated *model.Match

	txf := func(tx *redis.Tx) error {
		current, err := decodeJSON[model.Match](tx.Get(ctx, mKey), model.ErrMatchNotFound)
		if err != nil {
			return err
		}

		if err := tx.Watch(ctx, s.keys.player(current.Player1ID), s.keys.player(current.Player2ID)).Err(); err != nil {
			return err
		}

		match := current.Clone()
		outcome, err := fn(match)
		if err != nil {
			return err
		}
		match.Version = current.Version + 1

		// A re-pairing needs its new players to survive until EXEC
		for _, pid := range []model.PlayerID{match.Player1ID, match.Player2ID} {
			if current.HasParticipant(pid) {
				continue
			}
			key := s.keys.player(pid)
			if err := tx.Watch(ctx, key).Err(); err != nil {
				return err
			}
			n, err := tx.Exists(ctx, key).Result()
			if err != nil {
				return err
			}
			if n == 0 {
				return model.ErrPlayerNotFound
			}
		}

		writes := map[string]any{mKey: match}
		if outcome != nil {
			winner, err := decodeJSON[model.Player](tx.Get(ctx, s.keys.player(outcome.WinnerID)), model.ErrPlayerNotFound)
			if err != nil {
				return err
			}
			loser, err := decodeJSON[model.Player](tx.Get(ctx, s.keys.player(outcome.LoserID)), model.ErrPlayerNotFound)
			if err != nil {
				return err
			}
			winner.Wins++
			winner.UpdatedAt = match.UpdatedAt
			loser.Losses++
			loser.UpdatedAt = match.UpdatedAt
			writes[s.keys.player(winner.ID)] = winner
			writes[s.keys.player(loser.ID)] = loser
		}

		encoded := make(map[string][]byte, len(writes))
		for key, value := range writes {
			data, err := json.Marshal(value)
			if err != nil {
				return err
			}
			encoded[key] = data
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for key, data := range encoded {
				pipe.Set(ctx, key, data, 0)
			}
			// Re-pairing moves the match between per-player indexes
			for _, pid := range []model.PlayerID{current.Player1ID, current.Player2ID} {
				if !match.HasParticipant(pid) {
					pipe.SRem(ctx, s.keys.playerMatches(pid), string(id))
				}
			}
			for _, pid := range []model.PlayerID{match.Player1ID, match.Player2ID} {
				if !current.HasParticipant(pid) {
					pipe.SAdd(ctx, s.keys.playerMatches(pid), string(id))
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		updated = match
		return nil
	}

	if err := s.watchWithRetry(ctx, txf, mKey); err != nil {
		return nil, err
	}
	return updated, nil
}

// League settings

func (s *Storage) GetWeekLabel(ctx context.Context) (string, error) {
	label, err := s.client.Get(ctx, s.keys.weekLabel()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return label, nil
}

func (s *Storage) SaveWeekLabel(ctx context.Context, label string) error {
	return s.client.Set(ctx, s.keys.weekLabel(), label, 0).Err()
}

// decodeJSON unmarshals a GET result, mapping a missing key to notFound
func decodeJSON[T any](cmd *redis.StringCmd, notFound error) (*T, error) {
	data, err := cmd.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, notFound
		}
		return nil, err
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", cmd.Args()[1], err)
	}
	return &v, nil
}

// mgetJSON fetches and decodes many records at once
func mgetJSON[T any](ctx context.Context, client *redis.Client, keys []string) ([]*T, error) {
	values, err := client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	return decodeValues[T](keys, values)
}

// decodeValues decodes an MGET reply, skipping keys that vanished
func decodeValues[T any](keys []string, values []any) ([]*T, error) {
	out := make([]*T, 0, len(values))
	for i, val := range values {
		if val == nil {
			continue // Deleted between SMEMBERS and MGET
		}
		var v T
		if err := json.Unmarshal([]byte(val.(string)), &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		out = append(out, &v)
	}
	return out, nil
}
