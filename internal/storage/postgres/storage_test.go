package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/dartleague/internal/model"
	"github.com/mcoot/dartleague/internal/storage/storagetest"
)

// Set DLEAGUE_TEST_DATABASE_URL to a disposable database to run these tests.
// Every table is truncated before each test.
const testDatabaseEnv = "DLEAGUE_TEST_DATABASE_URL"

type StorageSuite struct {
	storagetest.Suite
	storage *Storage
}

func TestStorageSuite(t *testing.T) {
	if os.Getenv(testDatabaseEnv) == "" {
		t.Skipf("%s not set", testDatabaseEnv)
	}
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupSuite() {
	cfg := DefaultConfig()
	cfg.URL = os.Getenv(testDatabaseEnv)

	store, err := New(cfg)
	s.Require().NoError(err)
	s.Require().NoError(store.Migrate(context.Background()))
	s.storage = store
}

func (s *StorageSuite) TearDownSuite() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
}

func (s *StorageSuite) SetupTest() {
	s.Ctx = context.Background()
	s.Store = s.storage
	_, err := s.storage.db.ExecContext(s.Ctx, `TRUNCATE players, credentials, matches, league_settings`)
	s.Require().NoError(err)
}

func (s *StorageSuite) TestMigrateIsRepeatable() {
	s.NoError(s.storage.Migrate(s.Ctx))
}

func (s *StorageSuite) TestUpdateMatchMissingLoserRollsBack() {
	s.Require().NoError(s.storage.SavePlayer(s.Ctx, &model.Player{ID: "a", Name: "a", Rank: 1, PreviousRank: 1}))
	s.Require().NoError(s.storage.SaveMatch(s.Ctx, &model.Match{
		ID: "m1", Player1ID: "a", Player2ID: "ghost", Status: model.MatchStatusScheduled,
	}))

	_, err := s.storage.UpdateMatch(s.Ctx, "m1", func(m *model.Match) (*model.Outcome, error) {
		m.Status = model.MatchStatusCompleted
		return &model.Outcome{WinnerID: "a", LoserID: "ghost"}, nil
	})
	s.ErrorIs(err, model.ErrPlayerNotFound)

	a, err := s.storage.GetPlayer(s.Ctx, "a")
	s.Require().NoError(err)
	s.Equal(0, a.Wins)

	stored, err := s.storage.GetMatch(s.Ctx, "m1")
	s.Require().NoError(err)
	s.Equal(model.MatchStatusScheduled, stored.Status)
}

func TestMatchRowRoundTrip(t *testing.T) {
	m := &model.Match{
		ID:            "m1",
		Player1ID:     "a",
		Player2ID:     "b",
		Status:        model.MatchStatusDisputed,
		Player2Report: &model.Report{ClaimedWinnerID: "b"},
	}

	got := matchRow(m).toModel()

	assert.Nil(t, got.Player1Report)
	if assert.NotNil(t, got.Player2Report) {
		assert.Equal(t, model.PlayerID("b"), got.Player2Report.ClaimedWinnerID)
	}
	assert.Nil(t, got.CompletedAt)
	assert.Equal(t, model.MatchStatusDisputed, got.Status)
}
