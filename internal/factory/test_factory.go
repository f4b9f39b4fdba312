package factory

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/dartleague/internal/dependencies/mocks"
	"github.com/mcoot/dartleague/internal/model"
	"github.com/mcoot/dartleague/internal/services/auth"
	"github.com/mcoot/dartleague/internal/services/leaderboard"
	"github.com/mcoot/dartleague/internal/services/roster"
	"github.com/mcoot/dartleague/internal/storage/memory"
	"github.com/mcoot/dartleague/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
	MockIDs   *mocks.MockIDGenerator
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	return NewTestAppWithPolicy(leaderboard.ManualPolicy{})
}

// NewTestAppWithPolicy is NewTestApp with a chosen rank policy
func NewTestAppWithPolicy(policy leaderboard.Policy) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	mockIDs := mocks.NewMockIDGenerator()

	authCfg := auth.DefaultConfig()
	authCfg.BcryptCost = bcrypt.MinCost

	app := newWithDependencies(store, mockClock, mockIDs, policy, authCfg, testutil.NopLogger())

	return &TestApp{
		App:       app,
		MockClock: mockClock,
		MockIDs:   mockIDs,
	}
}

// TestPassword is the password AddPlayer gives everyone
const TestPassword = "league-password"

// AddPlayer creates a player with id and email derived from name
func (t *TestApp) AddPlayer(ctx context.Context, name string, admin bool) (*model.Player, error) {
	id := strings.ToLower(name)
	t.MockIDs.QueueIDs(id)
	return t.RosterService.Create(ctx, roster.NewPlayer{
		Name:        name,
		Email:       id + "@example.com",
		SchoolEmail: id + "@school.example.com",
		Password:    TestPassword,
		IsAdmin:     admin,
	})
}

// Login opens a session for a player created by AddPlayer
func (t *TestApp) Login(ctx context.Context, name string) (string, error) {
	session, err := t.AuthService.Login(ctx, strings.ToLower(name)+"@example.com", TestPassword)
	if err != nil {
		return "", err
	}
	return session.Token, nil
}
