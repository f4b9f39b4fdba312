// Package storagetest holds the behaviour every storage backend must share.
// Backend packages embed Suite and set Store in their own SetupTest.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/dartleague/internal/model"
	"github.com/mcoot/dartleague/internal/storage"
)

type Suite struct {
	suite.Suite
	Store storage.Storage
	Ctx   context.Context
}

var baseTime = time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)

func (s *Suite) seedPlayers(ids ...model.PlayerID) {
	for i, id := range ids {
		s.Require().NoError(s.Store.SavePlayer(s.Ctx, &model.Player{
			ID:          id,
			Name:        string(id),
			Email:       string(id) + "@example.com",
			SchoolEmail: string(id) + "@school.example.com",
			Rank:        i + 1,
			CreatedAt:   baseTime,
			UpdatedAt:   baseTime,
		}))
	}
}

func (s *Suite) seedMatch(id model.MatchID, p1, p2 model.PlayerID, at time.Time) *model.Match {
	m := &model.Match{
		ID:            id,
		Player1ID:     p1,
		Player2ID:     p2,
		DateScheduled: at,
		Status:        model.MatchStatusScheduled,
		CreatedAt:     baseTime,
		UpdatedAt:     baseTime,
	}
	s.Require().NoError(s.Store.SaveMatch(s.Ctx, m))
	return m
}

// complete is a mutation that finishes a match for player1 exactly once
func complete(m *model.Match) (*model.Outcome, error) {
	if m.StandingsApplied {
		return nil, model.ErrInvalidMatchState
	}
	m.Status = model.MatchStatusCompleted
	m.WinnerID = m.Player1ID
	m.LoserID = m.Player2ID
	m.StandingsApplied = true
	m.UpdatedAt = baseTime.Add(time.Hour)
	return &model.Outcome{WinnerID: m.Player1ID, LoserID: m.Player2ID}, nil
}

// Player tests

func (s *Suite) TestSaveAndGetPlayer() {
	player := &model.Player{
		ID:            "player-1",
		Name:          "Alice",
		Email:         "alice@example.com",
		SchoolEmail:   "alice@school.example.com",
		PersonalEmail: "alice@home.example.com",
		Phone:         "555-0100",
		Wins:          3,
		Losses:        1,
		Rank:          1,
		PreviousRank:  2,
		IsAdmin:       true,
		CreatedAt:     baseTime,
		UpdatedAt:     baseTime,
	}
	s.Require().NoError(s.Store.SavePlayer(s.Ctx, player))

	got, err := s.Store.GetPlayer(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.Equal("Alice", got.Name)
	s.Equal("alice@home.example.com", got.PersonalEmail)
	s.Equal("555-0100", got.Phone)
	s.Equal(3, got.Wins)
	s.Equal(1, got.Losses)
	s.Equal(2, got.PreviousRank)
	s.True(got.IsAdmin)
	s.WithinDuration(baseTime, got.CreatedAt, time.Second)
}

func (s *Suite) TestGetPlayerNotFound() {
	_, err := s.Store.GetPlayer(s.Ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestGetPlayerReturnsCopy() {
	s.seedPlayers("player-1")

	got, err := s.Store.GetPlayer(s.Ctx, "player-1")
	s.Require().NoError(err)
	got.Wins = 99

	again, err := s.Store.GetPlayer(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(0, again.Wins)
}

func (s *Suite) TestListPlayersOrderedByRank() {
	s.seedPlayers("c", "a", "b")

	players, err := s.Store.ListPlayers(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(players, 3)
	s.Equal(model.PlayerID("c"), players[0].ID)
	s.Equal(model.PlayerID("a"), players[1].ID)
	s.Equal(model.PlayerID("b"), players[2].ID)
}

func (s *Suite) TestListPlayersEmpty() {
	players, err := s.Store.ListPlayers(s.Ctx)
	s.Require().NoError(err)
	s.Empty(players)
}

func (s *Suite) TestSavePlayersWritesAll() {
	s.seedPlayers("a", "b")

	a, _ := s.Store.GetPlayer(s.Ctx, "a")
	b, _ := s.Store.GetPlayer(s.Ctx, "b")
	a.Rank, b.Rank = 2, 1
	s.Require().NoError(s.Store.SavePlayers(s.Ctx, []*model.Player{a, b}))

	players, err := s.Store.ListPlayers(s.Ctx)
	s.Require().NoError(err)
	s.Equal(model.PlayerID("b"), players[0].ID)
	s.Equal(model.PlayerID("a"), players[1].ID)
}

// closeGaps renumbers players 1..N in the order given
func closeGaps(players []*model.Player) ([]*model.Player, error) {
	var changed []*model.Player
	for i, p := range players {
		if p.Rank != i+1 {
			p.Rank = i + 1
			changed = append(changed, p)
		}
	}
	return changed, nil
}

func (s *Suite) TestDeletePlayer() {
	s.seedPlayers("player-1", "player-2")
	s.Require().NoError(s.Store.SaveCredential(s.Ctx, &model.Credential{
		PlayerID: "player-1", Email: "alice@example.com", PasswordHash: "hash",
	}))

	s.Require().NoError(s.Store.DeletePlayer(s.Ctx, "player-1", nil))

	_, err := s.Store.GetPlayer(s.Ctx, "player-1")
	s.ErrorIs(err, model.ErrPlayerNotFound)
	_, err = s.Store.GetCredentialByEmail(s.Ctx, "alice@example.com")
	s.ErrorIs(err, model.ErrCredentialNotFound)

	players, err := s.Store.ListPlayers(s.Ctx)
	s.Require().NoError(err)
	s.Len(players, 1)
}

func (s *Suite) TestDeletePlayerNotFound() {
	s.ErrorIs(s.Store.DeletePlayer(s.Ctx, "nobody", nil), model.ErrPlayerNotFound)
}

func (s *Suite) TestDeletePlayerRenumbersRemaining() {
	s.seedPlayers("a", "b", "c")

	var seen []model.PlayerID
	err := s.Store.DeletePlayer(s.Ctx, "a", func(players []*model.Player) ([]*model.Player, error) {
		seen = seen[:0]
		for _, p := range players {
			seen = append(seen, p.ID)
		}
		return closeGaps(players)
	})
	s.Require().NoError(err)
	s.Equal([]model.PlayerID{"b", "c"}, seen)

	players, err := s.Store.ListPlayers(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(players, 2)
	s.Equal(model.PlayerID("b"), players[0].ID)
	s.Equal(1, players[0].Rank)
	s.Equal(2, players[1].Rank)
}

func (s *Suite) TestDeletePlayerRefusedWhileMatchOpen() {
	s.seedPlayers("a", "b")
	m := s.seedMatch("m1", "a", "b", baseTime)
	m.Status = model.MatchStatusAwaitingConfirmation
	s.Require().NoError(s.Store.SaveMatch(s.Ctx, m))

	renumbered := false
	err := s.Store.DeletePlayer(s.Ctx, "b", func(players []*model.Player) ([]*model.Player, error) {
		renumbered = true
		return closeGaps(players)
	})
	s.ErrorIs(err, model.ErrPlayerHasOpenMatches)
	s.False(renumbered)

	_, err = s.Store.GetPlayer(s.Ctx, "b")
	s.NoError(err)
}

func (s *Suite) TestDeletePlayerAllowedAfterMatchFinished() {
	s.seedPlayers("a", "b")
	s.seedMatch("m1", "a", "b", baseTime)
	_, err := s.Store.UpdateMatch(s.Ctx, "m1", complete)
	s.Require().NoError(err)

	s.Require().NoError(s.Store.DeletePlayer(s.Ctx, "b", closeGaps))

	// History keeps the finished match
	_, err = s.Store.GetMatch(s.Ctx, "m1")
	s.NoError(err)
}

func (s *Suite) TestDeletePlayerRacingCreateMatch() {
	s.seedPlayers("a", "b")

	var (
		wg                   sync.WaitGroup
		deleteErr, createErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		deleteErr = s.Store.DeletePlayer(s.Ctx, "b", closeGaps)
	}()
	go func() {
		defer wg.Done()
		createErr = s.Store.CreateMatch(s.Ctx, &model.Match{
			ID: "m1", Player1ID: "a", Player2ID: "b", DateScheduled: baseTime,
			Status: model.MatchStatusScheduled, CreatedAt: baseTime, UpdatedAt: baseTime,
		})
	}()
	wg.Wait()

	// Exactly one side wins; an open match never outlives its player
	if deleteErr == nil {
		s.ErrorIs(createErr, model.ErrPlayerNotFound)
		_, err := s.Store.GetMatch(s.Ctx, "m1")
		s.ErrorIs(err, model.ErrMatchNotFound)
	} else {
		s.ErrorIs(deleteErr, model.ErrPlayerHasOpenMatches)
		s.NoError(createErr)
		_, err := s.Store.GetPlayer(s.Ctx, "b")
		s.NoError(err)
	}
}

func (s *Suite) TestUpdatePlayersWritesChanged() {
	s.seedPlayers("a", "b", "c")

	err := s.Store.UpdatePlayers(s.Ctx, func(players []*model.Player) ([]*model.Player, error) {
		s.Require().Len(players, 3)
		s.Equal(model.PlayerID("a"), players[0].ID)
		players[0].Rank, players[2].Rank = 3, 1
		return []*model.Player{players[0], players[2]}, nil
	})
	s.Require().NoError(err)

	players, err := s.Store.ListPlayers(s.Ctx)
	s.Require().NoError(err)
	s.Equal(model.PlayerID("c"), players[0].ID)
	s.Equal(model.PlayerID("b"), players[1].ID)
	s.Equal(model.PlayerID("a"), players[2].ID)
}

func (s *Suite) TestUpdatePlayersErrorWritesNothing() {
	s.seedPlayers("a", "b")
	boom := errors.New("boom")

	err := s.Store.UpdatePlayers(s.Ctx, func(players []*model.Player) ([]*model.Player, error) {
		players[0].Rank = 9
		return nil, boom
	})
	s.ErrorIs(err, boom)

	a, _ := s.Store.GetPlayer(s.Ctx, "a")
	s.Equal(1, a.Rank)
}

func (s *Suite) TestUpdatePlayersKeepsConcurrentStandings() {
	s.seedPlayers("a", "b")
	s.seedMatch("m1", "a", "b", baseTime)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := s.Store.UpdateMatch(s.Ctx, "m1", complete)
		s.NoError(err)
	}()
	go func() {
		defer wg.Done()
		err := s.Store.UpdatePlayers(s.Ctx, func(players []*model.Player) ([]*model.Player, error) {
			for _, p := range players {
				p.PreviousRank = p.Rank
			}
			return players, nil
		})
		s.NoError(err)
	}()
	wg.Wait()

	a, _ := s.Store.GetPlayer(s.Ctx, "a")
	b, _ := s.Store.GetPlayer(s.Ctx, "b")
	s.Equal(1, a.Wins)
	s.Equal(1, b.Losses)
	s.Equal(1, a.PreviousRank)
	s.Equal(2, b.PreviousRank)
}

func (s *Suite) TestUpdatePlayersConcurrentAppendsKeepRanksDense() {
	const workers = 4
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := model.PlayerID(fmt.Sprintf("p%d", i))
			err := s.Store.UpdatePlayers(s.Ctx, func(players []*model.Player) ([]*model.Player, error) {
				rank := len(players) + 1
				return []*model.Player{{
					ID: id, Name: string(id), Rank: rank, PreviousRank: rank,
					CreatedAt: baseTime, UpdatedAt: baseTime,
				}}, nil
			})
			s.NoError(err)
		}()
	}
	wg.Wait()

	players, err := s.Store.ListPlayers(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(players, workers)
	for i, p := range players {
		s.Equal(i+1, p.Rank, "player %s", p.ID)
	}
}

// Credential tests

func (s *Suite) TestCredentialLookupIgnoresCase() {
	s.seedPlayers("player-1")
	s.Require().NoError(s.Store.SaveCredential(s.Ctx, &model.Credential{
		PlayerID:     "player-1",
		Email:        "Alice@Example.com",
		PasswordHash: "hash",
		UpdatedAt:    baseTime,
	}))

	cred, err := s.Store.GetCredentialByEmail(s.Ctx, "alice@example.COM")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("player-1"), cred.PlayerID)
	s.Equal("hash", cred.PasswordHash)
}

func (s *Suite) TestCredentialEmailChangeMovesIndex() {
	s.seedPlayers("player-1")
	s.Require().NoError(s.Store.SaveCredential(s.Ctx, &model.Credential{
		PlayerID: "player-1", Email: "old@example.com", PasswordHash: "hash",
	}))
	s.Require().NoError(s.Store.SaveCredential(s.Ctx, &model.Credential{
		PlayerID: "player-1", Email: "new@example.com", PasswordHash: "hash",
	}))

	_, err := s.Store.GetCredentialByEmail(s.Ctx, "old@example.com")
	s.ErrorIs(err, model.ErrCredentialNotFound)

	cred, err := s.Store.GetCredentialByEmail(s.Ctx, "new@example.com")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("player-1"), cred.PlayerID)
}

func (s *Suite) TestGetCredentialNotFound() {
	_, err := s.Store.GetCredentialByEmail(s.Ctx, "nobody@example.com")
	s.ErrorIs(err, model.ErrCredentialNotFound)
}

func (s *Suite) TestDeleteCredential() {
	s.seedPlayers("player-1")
	s.Require().NoError(s.Store.SaveCredential(s.Ctx, &model.Credential{
		PlayerID: "player-1", Email: "alice@example.com", PasswordHash: "hash",
	}))

	s.Require().NoError(s.Store.DeleteCredential(s.Ctx, "player-1"))

	_, err := s.Store.GetCredentialByEmail(s.Ctx, "alice@example.com")
	s.ErrorIs(err, model.ErrCredentialNotFound)

	// Deleting again is a no-op
	s.NoError(s.Store.DeleteCredential(s.Ctx, "player-1"))
}

// Match tests

func (s *Suite) TestSaveAndGetMatch() {
	s.seedPlayers("a", "b")
	m := s.seedMatch("match-1", "a", "b", baseTime)
	m.Notes = "Court 2"
	m.Player1Report = &model.Report{ClaimedWinnerID: "a", ReportedAt: baseTime}
	m.Status = model.MatchStatusAwaitingConfirmation
	s.Require().NoError(s.Store.SaveMatch(s.Ctx, m))

	got, err := s.Store.GetMatch(s.Ctx, "match-1")
	s.Require().NoError(err)
	s.Equal(model.MatchStatusAwaitingConfirmation, got.Status)
	s.Equal("Court 2", got.Notes)
	s.Require().NotNil(got.Player1Report)
	s.Equal(model.PlayerID("a"), got.Player1Report.ClaimedWinnerID)
	s.Nil(got.Player2Report)
	s.Nil(got.CompletedAt)
	s.WithinDuration(baseTime, got.DateScheduled, time.Second)
}

func (s *Suite) TestGetMatchNotFound() {
	_, err := s.Store.GetMatch(s.Ctx, "nonexistent")
	s.ErrorIs(err, model.ErrMatchNotFound)
}

func (s *Suite) TestListMatchesOrderedByDate() {
	s.seedPlayers("a", "b", "c")
	s.seedMatch("late", "a", "b", baseTime.Add(48*time.Hour))
	s.seedMatch("early", "b", "c", baseTime)

	matches, err := s.Store.ListMatches(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(matches, 2)
	s.Equal(model.MatchID("early"), matches[0].ID)
	s.Equal(model.MatchID("late"), matches[1].ID)
}

func (s *Suite) TestListMatchesByPlayer() {
	s.seedPlayers("a", "b", "c")
	s.seedMatch("m1", "a", "b", baseTime)
	s.seedMatch("m2", "b", "c", baseTime.Add(time.Hour))
	s.seedMatch("m3", "c", "a", baseTime.Add(2*time.Hour))

	matches, err := s.Store.ListMatchesByPlayer(s.Ctx, "a")
	s.Require().NoError(err)
	s.Require().Len(matches, 2)
	s.Equal(model.MatchID("m1"), matches[0].ID)
	s.Equal(model.MatchID("m3"), matches[1].ID)

	none, err := s.Store.ListMatchesByPlayer(s.Ctx, "nobody")
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *Suite) TestCreateMatch() {
	s.seedPlayers("a", "b")
	m := &model.Match{
		ID: "m1", Player1ID: "a", Player2ID: "b", DateScheduled: baseTime,
		Status: model.MatchStatusScheduled, CreatedAt: baseTime, UpdatedAt: baseTime,
	}
	s.Require().NoError(s.Store.CreateMatch(s.Ctx, m))

	matches, err := s.Store.ListMatchesByPlayer(s.Ctx, "b")
	s.Require().NoError(err)
	s.Require().Len(matches, 1)
	s.Equal(model.MatchID("m1"), matches[0].ID)
}

func (s *Suite) TestCreateMatchRequiresBothPlayers() {
	s.seedPlayers("a")

	err := s.Store.CreateMatch(s.Ctx, &model.Match{
		ID: "m1", Player1ID: "a", Player2ID: "ghost", DateScheduled: baseTime,
		Status: model.MatchStatusScheduled, CreatedAt: baseTime, UpdatedAt: baseTime,
	})
	s.ErrorIs(err, model.ErrPlayerNotFound)

	_, err = s.Store.GetMatch(s.Ctx, "m1")
	s.ErrorIs(err, model.ErrMatchNotFound)
}

func (s *Suite) TestDeleteMatch() {
	s.seedPlayers("a", "b")
	s.seedMatch("m1", "a", "b", baseTime)

	s.Require().NoError(s.Store.DeleteMatch(s.Ctx, "m1", nil))

	_, err := s.Store.GetMatch(s.Ctx, "m1")
	s.ErrorIs(err, model.ErrMatchNotFound)

	matches, err := s.Store.ListMatchesByPlayer(s.Ctx, "a")
	s.Require().NoError(err)
	s.Empty(matches)
}

func (s *Suite) TestDeleteMatchNotFound() {
	s.ErrorIs(s.Store.DeleteMatch(s.Ctx, "nonexistent", nil), model.ErrMatchNotFound)
}

func (s *Suite) TestDeleteMatchGuardSeesStoredState() {
	s.seedPlayers("a", "b")
	s.seedMatch("m1", "a", "b", baseTime)
	_, err := s.Store.UpdateMatch(s.Ctx, "m1", complete)
	s.Require().NoError(err)

	err = s.Store.DeleteMatch(s.Ctx, "m1", func(m *model.Match) error {
		if m.Status != model.MatchStatusScheduled {
			return model.ErrInvalidMatchState
		}
		return nil
	})
	s.ErrorIs(err, model.ErrInvalidMatchState)

	stored, err := s.Store.GetMatch(s.Ctx, "m1")
	s.Require().NoError(err)
	s.Equal(model.MatchStatusCompleted, stored.Status)
	matches, err := s.Store.ListMatchesByPlayer(s.Ctx, "a")
	s.Require().NoError(err)
	s.Len(matches, 1)
}

// Atomic update tests

func (s *Suite) TestUpdateMatchPersistsMatchAndStandings() {
	s.seedPlayers("a", "b")
	s.seedMatch("m1", "a", "b", baseTime)

	updated, err := s.Store.UpdateMatch(s.Ctx, "m1", complete)
	s.Require().NoError(err)
	s.Equal(model.MatchStatusCompleted, updated.Status)
	s.True(updated.StandingsApplied)

	stored, err := s.Store.GetMatch(s.Ctx, "m1")
	s.Require().NoError(err)
	s.Equal(model.MatchStatusCompleted, stored.Status)
	s.Equal(model.PlayerID("a"), stored.WinnerID)
	s.Greater(stored.Version, int64(0))

	winner, _ := s.Store.GetPlayer(s.Ctx, "a")
	loser, _ := s.Store.GetPlayer(s.Ctx, "b")
	s.Equal(1, winner.Wins)
	s.Equal(0, winner.Losses)
	s.Equal(0, loser.Wins)
	s.Equal(1, loser.Losses)
}

func (s *Suite) TestUpdateMatchWithoutOutcomeLeavesStandings() {
	s.seedPlayers("a", "b")
	s.seedMatch("m1", "a", "b", baseTime)

	_, err := s.Store.UpdateMatch(s.Ctx, "m1", func(m *model.Match) (*model.Outcome, error) {
		m.Notes = "moved indoors"
		return nil, nil
	})
	s.Require().NoError(err)

	stored, _ := s.Store.GetMatch(s.Ctx, "m1")
	s.Equal("moved indoors", stored.Notes)

	a, _ := s.Store.GetPlayer(s.Ctx, "a")
	s.Equal(0, a.Wins)
}

func (s *Suite) TestUpdateMatchErrorPersistsNothing() {
	s.seedPlayers("a", "b")
	s.seedMatch("m1", "a", "b", baseTime)
	boom := errors.New("boom")

	_, err := s.Store.UpdateMatch(s.Ctx, "m1", func(m *model.Match) (*model.Outcome, error) {
		m.Status = model.MatchStatusCompleted
		return nil, boom
	})
	s.ErrorIs(err, boom)

	stored, _ := s.Store.GetMatch(s.Ctx, "m1")
	s.Equal(model.MatchStatusScheduled, stored.Status)
	s.Equal(int64(0), stored.Version)
}

func (s *Suite) TestUpdateMatchNotFound() {
	_, err := s.Store.UpdateMatch(s.Ctx, "nonexistent", complete)
	s.ErrorIs(err, model.ErrMatchNotFound)
}

func (s *Suite) TestUpdateMatchRepairing() {
	s.seedPlayers("a", "b", "c")
	s.seedMatch("m1", "a", "b", baseTime)

	_, err := s.Store.UpdateMatch(s.Ctx, "m1", func(m *model.Match) (*model.Outcome, error) {
		m.Player2ID = "c"
		return nil, nil
	})
	s.Require().NoError(err)

	old, err := s.Store.ListMatchesByPlayer(s.Ctx, "b")
	s.Require().NoError(err)
	s.Empty(old)

	moved, err := s.Store.ListMatchesByPlayer(s.Ctx, "c")
	s.Require().NoError(err)
	s.Require().Len(moved, 1)
	s.Equal(model.MatchID("m1"), moved[0].ID)
}

func (s *Suite) TestUpdateMatchRepairingToMissingPlayer() {
	s.seedPlayers("a", "b")
	s.seedMatch("m1", "a", "b", baseTime)

	_, err := s.Store.UpdateMatch(s.Ctx, "m1", func(m *model.Match) (*model.Outcome, error) {
		m.Player2ID = "ghost"
		return nil, nil
	})
	s.ErrorIs(err, model.ErrPlayerNotFound)

	stored, err := s.Store.GetMatch(s.Ctx, "m1")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("b"), stored.Player2ID)
}

func (s *Suite) TestUpdateMatchBumpsVersion() {
	s.seedPlayers("a", "b")
	s.seedMatch("m1", "a", "b", baseTime)

	touch := func(m *model.Match) (*model.Outcome, error) { return nil, nil }
	first, err := s.Store.UpdateMatch(s.Ctx, "m1", touch)
	s.Require().NoError(err)
	second, err := s.Store.UpdateMatch(s.Ctx, "m1", touch)
	s.Require().NoError(err)
	s.Equal(first.Version+1, second.Version)
}

func (s *Suite) TestUpdateMatchConcurrentAppliesOutcomeOnce() {
	s.seedPlayers("a", "b")
	s.seedMatch("m1", "a", "b", baseTime)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Store.UpdateMatch(s.Ctx, "m1", complete)
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			if !errors.Is(err, model.ErrInvalidMatchState) && !errors.Is(err, model.ErrConcurrentUpdate) {
				s.Failf("unexpected error", "%v", err)
			}
		}()
	}
	wg.Wait()

	s.Equal(1, successes)
	winner, _ := s.Store.GetPlayer(s.Ctx, "a")
	loser, _ := s.Store.GetPlayer(s.Ctx, "b")
	s.Equal(1, winner.Wins)
	s.Equal(1, loser.Losses)
}

// League settings

func (s *Suite) TestWeekLabel() {
	label, err := s.Store.GetWeekLabel(s.Ctx)
	s.Require().NoError(err)
	s.Equal("", label)

	s.Require().NoError(s.Store.SaveWeekLabel(s.Ctx, "Week 3"))

	label, err = s.Store.GetWeekLabel(s.Ctx)
	s.Require().NoError(err)
	s.Equal("Week 3", label)
}
