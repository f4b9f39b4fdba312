package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/dartleague/internal/api"
	"github.com/mcoot/dartleague/internal/api/response"
	"github.com/mcoot/dartleague/internal/cli"
	"github.com/mcoot/dartleague/internal/factory"
)

type harness struct {
	url       string
	tokenFile string
	app       *factory.TestApp
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("DLEAGUE_TOKEN", "")
	t.Setenv("DLEAGUE_PASSWORD", "")

	app := factory.NewTestApp()
	ctx := context.Background()
	for _, p := range []struct {
		name  string
		admin bool
	}{{"Alice", true}, {"Bob", false}, {"Cara", false}} {
		_, err := app.AddPlayer(ctx, p.name, p.admin)
		require.NoError(t, err)
	}

	srv := httptest.NewServer(api.NewRouter(app.RouterConfig()))
	t.Cleanup(srv.Close)

	return &harness{
		url:       srv.URL,
		tokenFile: filepath.Join(t.TempDir(), "token"),
		app:       app,
	}
}

// run executes the CLI with the given output format and returns stdout
func (h *harness) run(format string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer

	cmd := cli.NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--server", h.url, "--token-file", h.tokenFile, "-o", format}, args...))

	err := cmd.Execute()
	return stdout.String(), err
}

func (h *harness) json(t *testing.T, dst any, args ...string) {
	t.Helper()
	out, err := h.run("json", args...)
	require.NoError(t, err, "output: %s", out)
	require.NoError(t, json.Unmarshal([]byte(out), dst), "output: %s", out)
}

func (h *harness) tokenFor(t *testing.T, name string) string {
	t.Helper()
	token, err := h.app.Login(context.Background(), name)
	require.NoError(t, err)
	return token
}

func apiCode(err error) string {
	var apiErr *cli.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

func TestHealth(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("text", "health")
	require.NoError(t, err)
	assert.Equal(t, "Status: ok\nServer: "+h.url+"\nSession: not logged in\n", out)
}

func TestHealthReportsSession(t *testing.T) {
	h := newHarness(t)

	var result cli.HealthResult
	h.json(t, &result, "--token", h.tokenFor(t, "Cara"), "health")
	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, "Cara", result.Session)

	out, err := h.run("text", "--token", "stale-token", "health")
	require.NoError(t, err)
	assert.Contains(t, out, "Session: expired, log in again")
}

func TestLoginMeLogout(t *testing.T) {
	h := newHarness(t)

	var session response.SessionResponse
	h.json(t, &session, "login", "--email", "bob@example.com", "--password", factory.TestPassword)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "Bob", session.Player.Name)

	saved, err := os.ReadFile(h.tokenFile)
	require.NoError(t, err)
	assert.Contains(t, string(saved), session.Token)
	assert.Contains(t, string(saved), h.url)
	info, err := os.Stat(h.tokenFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	var me response.Player
	h.json(t, &me, "me")
	assert.Equal(t, "bob", me.ID)

	_, err = h.run("json", "logout")
	require.NoError(t, err)
	_, err = os.Stat(h.tokenFile)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = h.run("json", "me")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apiCode(err))
}

func TestSessionsAreKeptPerServer(t *testing.T) {
	h := newHarness(t)
	other := newHarness(t)
	other.tokenFile = h.tokenFile

	_, err := h.run("json", "login", "--email", "bob@example.com", "--password", factory.TestPassword)
	require.NoError(t, err)

	// Bob's token is never offered to a server that did not issue it
	_, err = other.run("json", "me")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apiCode(err))

	_, err = other.run("json", "login", "--email", "cara@example.com", "--password", factory.TestPassword)
	require.NoError(t, err)

	var me response.Player
	h.json(t, &me, "me")
	assert.Equal(t, "bob", me.ID)
	other.json(t, &me, "me")
	assert.Equal(t, "cara", me.ID)

	// Logging out of one server keeps the other session
	_, err = other.run("json", "logout")
	require.NoError(t, err)
	h.json(t, &me, "me")
	assert.Equal(t, "bob", me.ID)
}

func TestServerURLTrailingSlash(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("json", "--server", h.url+"/", "login", "--email", "bob@example.com", "--password", factory.TestPassword)
	require.NoError(t, err)

	var me response.Player
	h.json(t, &me, "me")
	assert.Equal(t, "bob", me.ID)
}

func TestServerURLMustBeHTTP(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("json", "--server", "localhost:8080", "health")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http://")
}

func TestTokenFileMustBePrivate(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(h.tokenFile, []byte("sessions: {}\n"), 0o644))
	require.NoError(t, os.Chmod(h.tokenFile, 0o644))

	_, err := h.run("json", "me")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chmod 600")
}

func TestLoginPasswordFromEnv(t *testing.T) {
	h := newHarness(t)
	t.Setenv("DLEAGUE_PASSWORD", factory.TestPassword)

	_, err := h.run("json", "login", "--email", "cara@example.com")
	require.NoError(t, err)
}

func TestLoginWrongPassword(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("json", "login", "--email", "bob@example.com", "--password", "not-the-password")
	require.Error(t, err)
	assert.Equal(t, "INVALID_CREDENTIALS", apiCode(err))

	_, statErr := os.Stat(h.tokenFile)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestScheduleReportAndStandings(t *testing.T) {
	h := newHarness(t)
	admin := h.tokenFor(t, "Alice")
	bob := h.tokenFor(t, "Bob")
	cara := h.tokenFor(t, "Cara")

	h.app.MockIDs.QueueIDs("m1")
	var match response.Match
	h.json(t, &match, "--token", admin, "admin", "match", "create",
		"--player1", "bob", "--player2", "cara", "--date", "2025-03-12T18:00:00Z", "--notes", "board 2")
	assert.Equal(t, "m1", match.ID)
	assert.Equal(t, "scheduled", match.Status)

	var matchups response.Matchups
	h.json(t, &matchups, "--token", bob, "matchups")
	require.Len(t, matchups.Matchups, 1)
	assert.Equal(t, "Cara", matchups.Matchups[0].Player2Name)

	var current response.CurrentMatch
	h.json(t, &current, "--token", cara, "match", "current")
	require.NotNil(t, current.Match)
	assert.Equal(t, "m1", current.Match.ID)
	require.NotNil(t, current.Opponent)
	assert.Equal(t, "Bob", current.Opponent.Name)

	out, err := h.run("text", "--token", cara, "match", "current")
	require.NoError(t, err)
	assert.Contains(t, out, "Opponent: Bob, rank 2 (-), record 0-0\n")
	assert.Contains(t, out, "  School email: bob@school.example.com\n")
	assert.NotContains(t, out, "Phone:")

	var first response.ReportResult
	h.json(t, &first, "--token", bob, "report", "m1", "--won")
	assert.Equal(t, "awaiting_confirmation", first.Match.Status)
	assert.False(t, first.StandingsUpdated)

	var second response.ReportResult
	h.json(t, &second, "--token", cara, "report", "m1", "--lost")
	assert.Equal(t, "completed", second.Match.Status)
	assert.Equal(t, "bob", second.Match.WinnerID)
	assert.True(t, second.StandingsUpdated)

	var board response.Leaderboard
	h.json(t, &board, "--token", bob, "leaderboard")
	wins := map[string]int{}
	for _, e := range board.Entries {
		wins[e.PlayerID] = e.Wins
	}
	assert.Equal(t, 1, wins["bob"])
	assert.Equal(t, 0, wins["cara"])

	var history response.History
	h.json(t, &history, "--token", cara, "history")
	require.Len(t, history.Matches, 1)
	assert.False(t, history.Matches[0].Won)
	assert.Equal(t, "Bob", history.Matches[0].OpponentName)
}

func TestReportNeedsExactlyOneOutcome(t *testing.T) {
	h := newHarness(t)
	bob := h.tokenFor(t, "Bob")

	_, err := h.run("json", "--token", bob, "report", "m1")
	assert.Error(t, err)

	_, err = h.run("json", "--token", bob, "report", "m1", "--won", "--lost")
	assert.Error(t, err)
}

func TestAdminCommandsRequireAdmin(t *testing.T) {
	h := newHarness(t)
	bob := h.tokenFor(t, "Bob")

	_, err := h.run("json", "--token", bob, "admin", "player", "list")
	require.Error(t, err)
	assert.Equal(t, "NOT_ADMIN", apiCode(err))
}

func TestAdminPlayerLifecycle(t *testing.T) {
	h := newHarness(t)
	admin := h.tokenFor(t, "Alice")

	h.app.MockIDs.QueueIDs("dave")
	var dave response.Player
	h.json(t, &dave, "--token", admin, "admin", "player", "add",
		"--name", "Dave", "--email", "dave@example.com", "--password", "dave-password")
	assert.Equal(t, "dave", dave.ID)
	assert.Equal(t, 4, dave.Rank)

	var updated response.Player
	h.json(t, &updated, "--token", admin, "admin", "player", "update", "dave", "--wins", "3", "--phone", "555-0100")
	assert.Equal(t, 3, updated.Wins)
	assert.Equal(t, "555-0100", updated.Phone)

	var ranked response.Player
	h.json(t, &ranked, "--token", admin, "admin", "player", "rank", "dave", "--rank", "1")
	assert.Equal(t, 1, ranked.Rank)

	_, err := h.run("json", "--token", admin, "admin", "player", "delete", "dave")
	require.NoError(t, err)

	var players []response.Player
	h.json(t, &players, "--token", admin, "admin", "player", "list")
	assert.Len(t, players, 3)
}

func TestAdminWeekLabelAndTextMatchups(t *testing.T) {
	h := newHarness(t)
	admin := h.tokenFor(t, "Alice")

	var label response.WeekLabel
	h.json(t, &label, "--token", admin, "admin", "week", "label", "Week 3")
	assert.Equal(t, "Week 3", label.Label)

	out, err := h.run("text", "--token", admin, "matchups")
	require.NoError(t, err)
	assert.Contains(t, out, "Week 3")
	assert.Contains(t, out, "No matches scheduled")
}

func TestReconcileWithNothingPending(t *testing.T) {
	h := newHarness(t)
	admin := h.tokenFor(t, "Alice")

	out, err := h.run("text", "--token", admin, "admin", "match", "reconcile")
	require.NoError(t, err)
	assert.Equal(t, "Standings already up to date\n", out)
}

// syncBuffer lets the test read output while a command is still writing it
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestEventsFollowsStream(t *testing.T) {
	h := newHarness(t)
	admin := h.tokenFor(t, "Alice")
	bob := h.tokenFor(t, "Bob")

	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() {
		cmd := cli.NewRootCmd()
		cmd.SetOut(out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--server", h.url, "--token-file", h.tokenFile, "-o", "json", "--token", bob, "events"})
		done <- cmd.Execute()
	}()

	require.Eventually(t, func() bool { return h.app.Events.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	body := `{"player1_id":"bob","player2_id":"cara","date_scheduled":"2025-03-12T18:00:00Z"}`
	req, err := http.NewRequest(http.MethodPost, h.url+"/api/v1/admin/matches", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+admin)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), `"event":"match-updated"`)
	}, 2*time.Second, 10*time.Millisecond)

	// Closing the hub ends the stream and the command with it
	h.app.Events.Close()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("events command did not stop")
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"event":"connected","data":{"status":"connected"}}`, lines[0])

	var update struct {
		Event string         `json:"event"`
		Data  response.Match `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &update))
	assert.Equal(t, "bob", update.Data.Player1ID)
	assert.Equal(t, "scheduled", update.Data.Status)
}
