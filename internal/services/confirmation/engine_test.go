package confirmation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/dartleague/internal/dependencies/mocks"
	"github.com/mcoot/dartleague/internal/model"
	"github.com/mcoot/dartleague/internal/storage"
	"github.com/mcoot/dartleague/internal/storage/memory"
	redisstore "github.com/mcoot/dartleague/internal/storage/redis"
	"github.com/mcoot/dartleague/internal/testutil"
)

var start = time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)

type EngineSuite struct {
	suite.Suite
	storage storage.Storage
	clock   *mocks.MockClock
	engine  *Engine
	ctx     context.Context
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(start)
	s.engine = New(s.storage, s.clock, testutil.NopLogger())
	s.ctx = context.Background()

	// A sits at rank 2 and B at rank 5 as in the league sheet
	for _, p := range []*model.Player{
		{ID: "A", Name: "Alice", Rank: 2, PreviousRank: 2},
		{ID: "B", Name: "Bob", Rank: 5, PreviousRank: 5},
		{ID: "C", Name: "Carol", Rank: 1, PreviousRank: 1},
	} {
		s.Require().NoError(s.storage.SavePlayer(s.ctx, p))
	}
	s.Require().NoError(s.storage.SaveMatch(s.ctx, &model.Match{
		ID:            "M",
		Player1ID:     "A",
		Player2ID:     "B",
		DateScheduled: start,
		Status:        model.MatchStatusScheduled,
	}))
}

func (s *EngineSuite) player(id model.PlayerID) *model.Player {
	p, err := s.storage.GetPlayer(s.ctx, id)
	s.Require().NoError(err)
	return p
}

func (s *EngineSuite) match() *model.Match {
	m, err := s.storage.GetMatch(s.ctx, "M")
	s.Require().NoError(err)
	return m
}

func (s *EngineSuite) report(id model.PlayerID, won bool) *Result {
	res, err := s.engine.ReportResult(s.ctx, "M", id, won)
	s.Require().NoError(err)
	return res
}

func (s *EngineSuite) assertNoStandingsChange() {
	for _, id := range []model.PlayerID{"A", "B"} {
		p := s.player(id)
		s.Zero(p.Wins, "wins of %s", id)
		s.Zero(p.Losses, "losses of %s", id)
	}
}

// Scenarios

func (s *EngineSuite) TestAgreementCompletesMatch() {
	s.report("A", true)
	res := s.report("B", false)

	s.True(res.StandingsUpdated)
	m := s.match()
	s.Equal(model.MatchStatusCompleted, m.Status)
	s.Equal(model.PlayerID("A"), m.WinnerID)
	s.Equal(model.PlayerID("B"), m.LoserID)
	s.True(m.StandingsApplied)
	s.Require().NotNil(m.CompletedAt)
	s.Equal(start, *m.CompletedAt)

	a, b := s.player("A"), s.player("B")
	s.Equal(1, a.Wins)
	s.Equal(0, a.Losses)
	s.Equal(0, b.Wins)
	s.Equal(1, b.Losses)
}

func (s *EngineSuite) TestAgreementLeavesRanksAlone() {
	s.report("A", true)
	s.report("B", false)

	s.Equal(2, s.player("A").Rank)
	s.Equal(5, s.player("B").Rank)
}

func (s *EngineSuite) TestDisagreementDisputesMatch() {
	s.report("A", true)
	res := s.report("B", true)

	s.False(res.StandingsUpdated)
	m := s.match()
	s.Equal(model.MatchStatusDisputed, m.Status)
	s.Empty(m.WinnerID)
	s.Empty(m.LoserID)
	s.Require().NotNil(m.Player1Report)
	s.Require().NotNil(m.Player2Report)
	s.Equal(model.PlayerID("A"), m.Player1Report.ClaimedWinnerID)
	s.Equal(model.PlayerID("B"), m.Player2Report.ClaimedWinnerID)
	s.assertNoStandingsChange()
}

func (s *EngineSuite) TestSingleReportAwaitsConfirmation() {
	res := s.report("A", true)

	s.False(res.StandingsUpdated)
	s.Equal(model.MatchStatusAwaitingConfirmation, res.Match.Status)
	s.Equal(model.MatchStatusAwaitingConfirmation, s.match().Status)
	s.assertNoStandingsChange()
}

func (s *EngineSuite) TestReportOnCompletedMatchFails() {
	s.report("A", true)
	s.report("B", false)
	before := s.match()

	_, err := s.engine.ReportResult(s.ctx, "M", "B", true)
	s.ErrorIs(err, model.ErrInvalidMatchState)

	after := s.match()
	s.Equal(before, after)
	s.Equal(1, s.player("A").Wins)
	s.Equal(1, s.player("B").Losses)
}

func (s *EngineSuite) TestReportOnCancelledMatchFails() {
	_, err := s.storage.UpdateMatch(s.ctx, "M", func(m *model.Match) (*model.Outcome, error) {
		m.Status = model.MatchStatusCancelled
		return nil, nil
	})
	s.Require().NoError(err)

	_, err = s.engine.ReportResult(s.ctx, "M", "A", true)
	s.ErrorIs(err, model.ErrInvalidMatchState)
}

// Preconditions

func (s *EngineSuite) TestUnknownMatch() {
	_, err := s.engine.ReportResult(s.ctx, "nope", "A", true)
	s.ErrorIs(err, model.ErrMatchNotFound)
}

func (s *EngineSuite) TestNonParticipant() {
	_, err := s.engine.ReportResult(s.ctx, "M", "C", true)
	s.ErrorIs(err, model.ErrNotParticipant)
	s.Equal(model.MatchStatusScheduled, s.match().Status)
}

func (s *EngineSuite) TestNonParticipantCheckedBeforeState() {
	s.report("A", true)
	s.report("B", false)

	_, err := s.engine.ReportResult(s.ctx, "M", "C", true)
	s.ErrorIs(err, model.ErrNotParticipant)
}

// Re-reporting

func (s *EngineSuite) TestRepeatedReportIsIdempotent() {
	s.report("A", true)
	first := s.match()

	s.report("A", true)
	s.report("A", true)
	again := s.match()

	s.Equal(model.MatchStatusAwaitingConfirmation, again.Status)
	s.Equal(first.Player1Report.ClaimedWinnerID, again.Player1Report.ClaimedWinnerID)
	s.Nil(again.Player2Report)
}

func (s *EngineSuite) TestLatestReportWins() {
	s.report("A", false) // A first says B won
	s.report("A", true)  // then corrects to A won
	s.report("B", false)

	m := s.match()
	s.Equal(model.MatchStatusCompleted, m.Status)
	s.Equal(model.PlayerID("A"), m.WinnerID)
}

func (s *EngineSuite) TestDisputeResolvesWhenClaimChanges() {
	s.report("A", true)
	s.report("B", true)
	s.Equal(model.MatchStatusDisputed, s.match().Status)

	res := s.report("B", false)

	s.True(res.StandingsUpdated)
	s.Equal(model.MatchStatusCompleted, s.match().Status)
	s.Equal(1, s.player("A").Wins)
}

func (s *EngineSuite) TestDisputeStaysWhileClaimsDiffer() {
	s.report("A", true)
	s.report("B", true)
	s.report("A", true)

	s.Equal(model.MatchStatusDisputed, s.match().Status)
	s.assertNoStandingsChange()
}

func (s *EngineSuite) TestReportTimestampFromClock() {
	s.clock.Advance(90 * time.Minute)
	s.report("B", false)

	m := s.match()
	s.Require().NotNil(m.Player2Report)
	s.Equal(start.Add(90*time.Minute), m.Player2Report.ReportedAt)
	s.Equal(start.Add(90*time.Minute), m.UpdatedAt)
}

func (s *EngineSuite) TestOutcomeAppliedOnceUnderRepeatedReports() {
	s.report("A", true)
	s.report("B", false)

	for range 5 {
		_, err := s.engine.ReportResult(s.ctx, "M", "A", true)
		s.ErrorIs(err, model.ErrInvalidMatchState)
		_, err = s.engine.ReportResult(s.ctx, "M", "B", false)
		s.ErrorIs(err, model.ErrInvalidMatchState)
	}

	s.Equal(1, s.player("A").Wins)
	s.Equal(1, s.player("B").Losses)
}

func (s *EngineSuite) TestConcurrentAgreeingReportsCompleteOnce() {
	var wg sync.WaitGroup
	var mu sync.Mutex
	updates := 0
	for range 10 {
		for _, r := range []struct {
			id  model.PlayerID
			won bool
		}{{"A", true}, {"B", false}} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := s.engine.ReportResult(s.ctx, "M", r.id, r.won)
				if err != nil {
					return
				}
				if res.StandingsUpdated {
					mu.Lock()
					updates++
					mu.Unlock()
				}
			}()
		}
	}
	wg.Wait()

	s.Equal(1, updates)
	s.Equal(model.MatchStatusCompleted, s.match().Status)
	s.Equal(1, s.player("A").Wins)
	s.Equal(1, s.player("B").Losses)
}

// Apply, the pure transition

func TestApplyCompletedMatchInvariant(t *testing.T) {
	cases := []struct {
		name    string
		reports [][2]any // reporter, claimsSelfWon
	}{
		{"player1 wins", [][2]any{{"A", true}, {"B", false}}},
		{"player2 wins", [][2]any{{"A", false}, {"B", true}}},
		{"player2 reports first", [][2]any{{"B", true}, {"A", false}}},
		{"after dispute", [][2]any{{"A", true}, {"B", true}, {"A", false}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := &model.Match{ID: "M", Player1ID: "A", Player2ID: "B", Status: model.MatchStatusScheduled}
			var outcome *model.Outcome
			for _, r := range tc.reports {
				var err error
				outcome, err = Apply(m, model.PlayerID(r[0].(string)), r[1].(bool), start)
				require.NoError(t, err)
			}

			require.Equal(t, model.MatchStatusCompleted, m.Status)
			require.NotNil(t, outcome)
			assert.NotEqual(t, m.WinnerID, m.LoserID)
			assert.ElementsMatch(t, []model.PlayerID{"A", "B"}, []model.PlayerID{m.WinnerID, m.LoserID})
			assert.Equal(t, m.WinnerID, outcome.WinnerID)
			assert.Equal(t, m.LoserID, outcome.LoserID)
		})
	}
}

func TestApplyDisagreementNeverCompletes(t *testing.T) {
	for _, aWon := range []bool{true, false} {
		m := &model.Match{ID: "M", Player1ID: "A", Player2ID: "B", Status: model.MatchStatusScheduled}

		_, err := Apply(m, "A", aWon, start)
		require.NoError(t, err)
		outcome, err := Apply(m, "B", aWon, start)
		require.NoError(t, err)

		assert.Nil(t, outcome)
		assert.Equal(t, model.MatchStatusDisputed, m.Status)
	}
}

func TestApplyFinalStateDependsOnLatestReports(t *testing.T) {
	once := &model.Match{ID: "M", Player1ID: "A", Player2ID: "B", Status: model.MatchStatusScheduled}
	_, _ = Apply(once, "A", true, start)

	many := &model.Match{ID: "M", Player1ID: "A", Player2ID: "B", Status: model.MatchStatusScheduled}
	_, _ = Apply(many, "A", false, start)
	_, _ = Apply(many, "A", true, start)
	_, _ = Apply(many, "A", true, start)

	assert.Equal(t, once.Status, many.Status)
	assert.Equal(t, once.Player1Report, many.Player1Report)
	assert.Equal(t, once.Player2Report, many.Player2Report)
}

// Redis backend

func TestConcurrentReportsOnRedis(t *testing.T) {
	mini := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mini.Addr()})
	cfg := redisstore.DefaultConfig()
	cfg.MaxTxRetries = 50
	store := redisstore.NewWithClient(client, cfg)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	require.NoError(t, store.SavePlayers(ctx, []*model.Player{
		{ID: "A", Rank: 1, PreviousRank: 1},
		{ID: "B", Rank: 2, PreviousRank: 2},
	}))
	require.NoError(t, store.SaveMatch(ctx, &model.Match{
		ID: "M", Player1ID: "A", Player2ID: "B", Status: model.MatchStatusScheduled,
	}))

	engine := New(store, mocks.NewMockClock(start), testutil.NopLogger())

	var wg sync.WaitGroup
	for _, id := range []model.PlayerID{"A", "B", "A", "B"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Both agree A won; late reports may see a completed match
			_, _ = engine.ReportResult(ctx, "M", id, id == "A")
		}()
	}
	wg.Wait()

	m, err := store.GetMatch(ctx, "M")
	require.NoError(t, err)
	assert.Equal(t, model.MatchStatusCompleted, m.Status)

	a, _ := store.GetPlayer(ctx, "A")
	b, _ := store.GetPlayer(ctx, "B")
	assert.Equal(t, 1, a.Wins)
	assert.Equal(t, 1, b.Losses)
}
