package api_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/dartleague/internal/api"
	"github.com/mcoot/dartleague/internal/api/apierr"
	"github.com/mcoot/dartleague/internal/api/response"
	"github.com/mcoot/dartleague/internal/factory"
	"github.com/mcoot/dartleague/internal/model"
	"github.com/mcoot/dartleague/internal/services/roster"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
	tokens  map[string]string
}

// newTestServer starts a league with an admin (Alice) and two players (Bob, Cara)
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	app := factory.NewTestApp()
	ctx := context.Background()

	ts := &testServer{
		handler: api.NewRouter(app.RouterConfig()),
		app:     app,
		tokens:  make(map[string]string),
	}

	for _, p := range []struct {
		name  string
		admin bool
	}{{"Alice", true}, {"Bob", false}, {"Cara", false}} {
		_, err := app.AddPlayer(ctx, p.name, p.admin)
		require.NoError(t, err)
		token, err := app.Login(ctx, p.name)
		require.NoError(t, err)
		ts.tokens[p.name] = token
	}

	return ts
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) as(name, method, path string, body any) *httptest.ResponseRecorder {
	return ts.request(method, path, body, ts.tokens[name])
}

func (ts *testServer) createMatch(t *testing.T, p1, p2 string) response.Match {
	t.Helper()
	rr := ts.as("Alice", http.MethodPost, "/api/v1/admin/matches", map[string]any{
		"player1_id":     p1,
		"player2_id":     p2,
		"date_scheduled": time.Date(2025, 3, 12, 18, 0, 0, 0, time.UTC),
		"notes":          "Board 1",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[response.Match](t, rr)
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[apierr.ErrorResponse](t, rr).Error.Code
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/sessions", map[string]string{
		"email":    "BOB@example.com",
		"password": factory.TestPassword,
	}, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	resp := decode[response.SessionResponse](t, rr)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "bob", resp.Player.ID)
	assert.Equal(t, "Bob", resp.Player.Name)

	rr = ts.request(http.MethodGet, "/api/v1/me", nil, resp.Token)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/sessions", map[string]string{
		"email":    "bob@example.com",
		"password": "not-the-password",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeInvalidCredentials, errorCode(t, rr))
}

func TestLoginValidation(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/sessions", map[string]string{"password": "x"}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	resp := decode[apierr.ErrorResponse](t, rr)
	assert.Equal(t, apierr.CodeInvalidRequest, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "email is required")

	rr = ts.request(http.MethodPost, "/api/v1/sessions", map[string]string{"email": "bob@example.com", "pass": "x"}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.as("Bob", http.MethodDelete, "/api/v1/sessions", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.as("Bob", http.MethodGet, "/api/v1/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestUnauthorizedWithoutToken(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/api/v1/me", "/api/v1/leaderboard", "/api/v1/matchups", "/api/v1/admin/players"} {
		rr := ts.request(http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}

	rr := ts.request(http.MethodGet, "/api/v1/me", nil, "bogus")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminRoutesNeedAdmin(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.as("Bob", http.MethodGet, "/api/v1/admin/players", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, apierr.CodeNotAdmin, errorCode(t, rr))

	rr = ts.as("Alice", http.MethodGet, "/api/v1/admin/players", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]response.Player](t, rr), 3)
}

func TestAdminFlagChangeAppliesImmediately(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.as("Alice", http.MethodPatch, "/api/v1/admin/players/bob", map[string]any{"is_admin": true})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	// Bob's existing session picks up the new flag
	rr = ts.as("Bob", http.MethodGet, "/api/v1/admin/players", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestLeaderboard(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.as("Cara", http.MethodGet, "/api/v1/leaderboard", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))

	board := decode[response.Leaderboard](t, rr)
	assert.Equal(t, "manual", board.Policy)
	require.Len(t, board.Entries, 3)
	assert.Equal(t, "alice", board.Entries[0].PlayerID)
	assert.True(t, board.Entries[0].IsLeader)
	assert.Equal(t, 1, board.Entries[0].Position)
	assert.Equal(t, "cara", board.Entries[2].PlayerID)
}

func TestCurrentMatchShowsOpponentContact(t *testing.T) {
	ts := newTestServer(t)
	phone, personal := "555-0199", "cara@home.example.com"
	_, err := ts.app.RosterService.Update(context.Background(), "cara", roster.PlayerUpdate{
		Phone: &phone, PersonalEmail: &personal,
	})
	require.NoError(t, err)
	match := ts.createMatch(t, "bob", "cara")

	rr := ts.as("Bob", http.MethodGet, "/api/v1/me/match", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "cara@example.com")

	current := decode[response.CurrentMatch](t, rr)
	require.NotNil(t, current.Match)
	assert.Equal(t, match.ID, current.Match.ID)
	require.NotNil(t, current.Opponent)
	assert.Equal(t, "cara", current.Opponent.ID)
	assert.Equal(t, "Cara", current.Opponent.Name)
	assert.Equal(t, 3, current.Opponent.Rank)
	assert.Equal(t, 0, current.Opponent.Wins)
	assert.Equal(t, "cara@school.example.com", current.Opponent.SchoolEmail)
	assert.Equal(t, personal, current.Opponent.PersonalEmail)
	assert.Equal(t, phone, current.Opponent.Phone)

	// Cara sees Bob
	rr = ts.as("Cara", http.MethodGet, "/api/v1/me/match", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	current = decode[response.CurrentMatch](t, rr)
	require.NotNil(t, current.Opponent)
	assert.Equal(t, "Bob", current.Opponent.Name)
	assert.Equal(t, 2, current.Opponent.Rank)
}

func TestReportFlow(t *testing.T) {
	ts := newTestServer(t)
	match := ts.createMatch(t, "bob", "cara")
	assert.Equal(t, string(model.MatchStatusScheduled), match.Status)

	// Matchups list the new pairing with names
	rr := ts.as("Cara", http.MethodGet, "/api/v1/matchups", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	matchups := decode[response.Matchups](t, rr)
	require.Len(t, matchups.Matchups, 1)
	assert.Equal(t, "Bob", matchups.Matchups[0].Player1Name)
	assert.Equal(t, "Cara", matchups.Matchups[0].Player2Name)

	// Each player sees it as their current match
	rr = ts.as("Bob", http.MethodGet, "/api/v1/me/match", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	current := decode[response.CurrentMatch](t, rr)
	require.NotNil(t, current.Match)
	assert.Equal(t, match.ID, current.Match.ID)
	require.NotNil(t, current.Opponent)
	assert.Equal(t, "Cara", current.Opponent.Name)

	path := "/api/v1/matches/" + match.ID + "/report"

	rr = ts.as("Bob", http.MethodPost, path, map[string]bool{"won": false})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	result := decode[response.ReportResult](t, rr)
	assert.Equal(t, string(model.MatchStatusAwaitingConfirmation), result.Match.Status)
	assert.False(t, result.StandingsUpdated)

	rr = ts.as("Cara", http.MethodPost, path, map[string]bool{"won": true})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	result = decode[response.ReportResult](t, rr)
	assert.Equal(t, string(model.MatchStatusCompleted), result.Match.Status)
	assert.Equal(t, "cara", result.Match.WinnerID)
	assert.Equal(t, "bob", result.Match.LoserID)
	assert.True(t, result.StandingsUpdated)

	// Reporting again after completion is refused
	rr = ts.as("Cara", http.MethodPost, path, map[string]bool{"won": true})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeInvalidMatchState, errorCode(t, rr))

	rr = ts.as("Cara", http.MethodGet, "/api/v1/me/history", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	history := decode[response.History](t, rr)
	assert.Equal(t, 1, history.Wins)
	require.Len(t, history.Matches, 1)
	assert.Equal(t, "Bob", history.Matches[0].OpponentName)
	assert.True(t, history.Matches[0].Won)

	rr = ts.as("Cara", http.MethodGet, "/api/v1/me/match", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	none := decode[response.CurrentMatch](t, rr)
	assert.Nil(t, none.Match)
	assert.Nil(t, none.Opponent)

	rr = ts.as("Bob", http.MethodGet, "/api/v1/leaderboard", nil)
	board := decode[response.Leaderboard](t, rr)
	assert.Equal(t, 1, board.Entries[1].Losses)
	assert.Equal(t, 1, board.Entries[2].Wins)
}

func TestReportByNonParticipant(t *testing.T) {
	ts := newTestServer(t)
	match := ts.createMatch(t, "bob", "cara")

	rr := ts.as("Alice", http.MethodPost, "/api/v1/matches/"+match.ID+"/report", map[string]bool{"won": true})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, apierr.CodeNotParticipant, errorCode(t, rr))
}

func TestReportNeedsWonField(t *testing.T) {
	ts := newTestServer(t)
	match := ts.createMatch(t, "bob", "cara")

	rr := ts.as("Bob", http.MethodPost, "/api/v1/matches/"+match.ID+"/report", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestReportUnknownMatch(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.as("Bob", http.MethodPost, "/api/v1/matches/nope/report", map[string]bool{"won": true})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeMatchNotFound, errorCode(t, rr))
}

func TestDisputeAndReopen(t *testing.T) {
	ts := newTestServer(t)
	match := ts.createMatch(t, "bob", "cara")
	path := "/api/v1/matches/" + match.ID + "/report"

	ts.as("Bob", http.MethodPost, path, map[string]bool{"won": true})
	rr := ts.as("Cara", http.MethodPost, path, map[string]bool{"won": true})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, string(model.MatchStatusDisputed), decode[response.ReportResult](t, rr).Match.Status)

	rr = ts.as("Alice", http.MethodPost, "/api/v1/admin/matches/"+match.ID+"/reopen", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	reopened := decode[response.Match](t, rr)
	assert.Equal(t, string(model.MatchStatusScheduled), reopened.Status)
	assert.Nil(t, reopened.Player1Report)

	rr = ts.as("Alice", http.MethodPost, "/api/v1/admin/matches/"+match.ID+"/reopen", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestAdminCreatePlayer(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.as("Alice", http.MethodPost, "/api/v1/admin/players", map[string]any{
		"name":         "Dev",
		"email":        "dev@example.com",
		"school_email": "dev@school.example.com",
		"password":     "dev-password",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[response.Player](t, rr)
	assert.Equal(t, 4, created.Rank)
	assert.Equal(t, 4, created.PreviousRank)

	rr = ts.as("Alice", http.MethodPost, "/api/v1/admin/players", map[string]any{
		"name":     "Impostor",
		"email":    "Dev@Example.com",
		"password": "other-password",
	})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeEmailExists, errorCode(t, rr))

	rr = ts.as("Alice", http.MethodPost, "/api/v1/admin/players", map[string]any{
		"name":     "Shorty",
		"email":    "not-an-email",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAdminUpdateRecordValidation(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.as("Alice", http.MethodPatch, "/api/v1/admin/players/bob", map[string]any{"wins": -1})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.as("Alice", http.MethodPatch, "/api/v1/admin/players/bob", map[string]any{"wins": 4, "losses": 2})
	require.Equal(t, http.StatusOK, rr.Code)
	p := decode[response.Player](t, rr)
	assert.Equal(t, 4, p.Wins)
	assert.Equal(t, 2, p.Losses)
}

func TestAdminSetRank(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.as("Alice", http.MethodPut, "/api/v1/admin/players/cara/rank", map[string]int{"rank": 1})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	p := decode[response.Player](t, rr)
	assert.Equal(t, 1, p.Rank)
	assert.Equal(t, 2, p.PositionDelta)

	rr = ts.as("Alice", http.MethodPut, "/api/v1/admin/players/cara/rank", map[string]int{"rank": 9})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidRank, errorCode(t, rr))

	rr = ts.as("Alice", http.MethodPut, "/api/v1/admin/players/cara/rank", map[string]int{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.as("Alice", http.MethodPut, "/api/v1/admin/players/cara/rank", map[string]int{"previous_rank": 1})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 0, decode[response.Player](t, rr).PositionDelta)
}

func TestAdminAdvanceWeek(t *testing.T) {
	ts := newTestServer(t)

	ts.as("Alice", http.MethodPut, "/api/v1/admin/players/cara/rank", map[string]int{"rank": 1})

	rr := ts.as("Alice", http.MethodPost, "/api/v1/admin/week/advance", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	board := decode[response.Leaderboard](t, rr)
	for _, e := range board.Entries {
		assert.Equal(t, 0, e.PositionDelta)
	}

	rr = ts.as("Alice", http.MethodPut, "/api/v1/admin/week", map[string]string{"label": "Week 2"})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.as("Bob", http.MethodGet, "/api/v1/matchups", nil)
	assert.Equal(t, "Week 2", decode[response.Matchups](t, rr).WeekLabel)
}

func TestAdminDeletePlayerWithOpenMatch(t *testing.T) {
	ts := newTestServer(t)
	match := ts.createMatch(t, "bob", "cara")

	rr := ts.as("Alice", http.MethodDelete, "/api/v1/admin/players/bob", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodePlayerHasOpenMatches, errorCode(t, rr))

	rr = ts.as("Alice", http.MethodPost, "/api/v1/admin/matches/"+match.ID+"/cancel", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.as("Alice", http.MethodDelete, "/api/v1/admin/players/bob", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	// The deleted player's session no longer works
	rr = ts.as("Bob", http.MethodGet, "/api/v1/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminMatchValidation(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.as("Alice", http.MethodPost, "/api/v1/admin/matches", map[string]any{
		"player1_id":     "bob",
		"player2_id":     "bob",
		"date_scheduled": time.Date(2025, 3, 12, 18, 0, 0, 0, time.UTC),
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.as("Alice", http.MethodPost, "/api/v1/admin/matches", map[string]any{
		"player1_id":     "bob",
		"player2_id":     "ghost",
		"date_scheduled": time.Date(2025, 3, 12, 18, 0, 0, 0, time.UTC),
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAdminUpdateMatchKeepsUnsetFields(t *testing.T) {
	ts := newTestServer(t)
	match := ts.createMatch(t, "bob", "cara")

	rr := ts.as("Alice", http.MethodPatch, "/api/v1/admin/matches/"+match.ID, map[string]any{"notes": "Moved to board 3"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decode[response.Match](t, rr)
	assert.Equal(t, "Moved to board 3", updated.Notes)
	assert.Equal(t, "bob", updated.Player1ID)
	assert.Equal(t, "cara", updated.Player2ID)
	assert.True(t, match.DateScheduled.Equal(updated.DateScheduled))
}

func TestAdminDeleteAndReconcileMatch(t *testing.T) {
	ts := newTestServer(t)
	match := ts.createMatch(t, "bob", "cara")

	rr := ts.as("Alice", http.MethodPost, "/api/v1/admin/matches/"+match.ID+"/reconcile", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = ts.as("Alice", http.MethodPost, "/api/v1/admin/reconcile", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[response.Reconciled](t, rr).Applied)

	rr = ts.as("Alice", http.MethodDelete, "/api/v1/admin/matches/"+match.ID, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.as("Bob", http.MethodGet, "/api/v1/matches/"+match.ID, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// streamEvents sends the name of every event read from body until it closes
func streamEvents(body io.Reader) <-chan string {
	names := make(chan string, 16)
	go func() {
		defer close(names)
		scanner := bufio.NewScanner(body)
		for scanner.Scan() {
			if name, ok := strings.CutPrefix(scanner.Text(), "event: "); ok {
				names <- name
			}
		}
	}()
	return names
}

func nextEvent(t *testing.T, names <-chan string) string {
	t.Helper()
	select {
	case name := <-names:
		return name
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
		return ""
	}
}

func TestEventStreamNeedsSession(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/events", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestEventStreamCarriesMatchAndStandings(t *testing.T) {
	ts := newTestServer(t)
	match := ts.createMatch(t, "bob", "cara")

	srv := httptest.NewServer(ts.handler)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+ts.tokens["Cara"])

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	names := streamEvents(resp.Body)
	assert.Equal(t, "connected", nextEvent(t, names))
	require.Eventually(t, func() bool { return ts.app.Events.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	path := "/api/v1/matches/" + match.ID + "/report"
	require.Equal(t, http.StatusOK, ts.as("Bob", http.MethodPost, path, map[string]bool{"won": true}).Code)
	require.Equal(t, http.StatusOK, ts.as("Cara", http.MethodPost, path, map[string]bool{"won": false}).Code)

	assert.Equal(t, "match-updated", nextEvent(t, names))
	assert.Equal(t, "match-updated", nextEvent(t, names))
	assert.Equal(t, "standings-updated", nextEvent(t, names))
}
