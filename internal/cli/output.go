package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mcoot/dartleague/internal/api/response"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		o.printJSON(map[string]string{"message": msg})
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

// PrintEvent writes one streamed event. JSON output is one object per line.
func (o *Output) PrintEvent(event, data string) {
	if o.format == "json" {
		line := struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}{event, json.RawMessage(data)}
		if err := json.NewEncoder(o.w).Encode(line); err != nil {
			fmt.Fprintf(o.w, "{\"event\":%q}\n", event)
		}
		return
	}

	switch event {
	case "connected":
		fmt.Fprintln(o.w, "Connected, waiting for updates")
	case "match-updated":
		var m response.Match
		if json.Unmarshal([]byte(data), &m) == nil {
			fmt.Fprintf(o.w, "Match %s (%s vs %s) is now %s\n", m.ID, m.Player1ID, m.Player2ID, m.Status)
			return
		}
		fmt.Fprintf(o.w, "%s: %s\n", event, data)
	case "match-deleted":
		var d struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal([]byte(data), &d)
		fmt.Fprintf(o.w, "Match %s was deleted\n", d.ID)
	case "standings-updated":
		var l response.Leaderboard
		if json.Unmarshal([]byte(data), &l) == nil {
			fmt.Fprintln(o.w, "Standings updated:")
			o.printLeaderboard(l)
			return
		}
		fmt.Fprintf(o.w, "%s: %s\n", event, data)
	default:
		fmt.Fprintf(o.w, "%s: %s\n", event, data)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Player:
		o.printPlayer(v)
	case []response.Player:
		o.printPlayers(v)
	case response.SessionResponse:
		o.printPlayer(v.Player)
		fmt.Fprintf(o.w, "Session expires: %s\n", formatTime(v.ExpiresAt))
	case response.Leaderboard:
		o.printLeaderboard(v)
	case response.Matchups:
		o.printMatchups(v)
	case response.Match:
		o.printMatch(v)
	case []response.Match:
		o.printMatches(v)
	case response.CurrentMatch:
		if v.Match == nil {
			fmt.Fprintln(o.w, "No match scheduled")
			return
		}
		o.printMatch(*v.Match)
		if v.Opponent != nil {
			o.printOpponent(*v.Opponent)
		}
	case response.ReportResult:
		o.printMatch(v.Match)
		if v.StandingsUpdated {
			fmt.Fprintln(o.w, "Result confirmed, standings updated")
		}
	case response.History:
		o.printHistory(v)
	case response.Reconciled:
		if len(v.Applied) == 0 {
			fmt.Fprintln(o.w, "Standings already up to date")
			return
		}
		fmt.Fprintf(o.w, "Repaired: %s\n", strings.Join(v.Applied, ", "))
	case response.WeekLabel:
		fmt.Fprintf(o.w, "Week: %s\n", v.Label)
	case HealthResult:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
		fmt.Fprintf(o.w, "Server: %s\n", v.Server)
		switch v.Session {
		case "":
			fmt.Fprintln(o.w, "Session: not logged in")
		case sessionExpired:
			fmt.Fprintln(o.w, "Session: expired, log in again")
		default:
			fmt.Fprintf(o.w, "Session: %s\n", v.Session)
		}
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult is the server status plus what the CLI knows locally.
// Session holds the logged-in player's name.
type HealthResult struct {
	Status  string `json:"status"`
	Server  string `json:"server"`
	Session string `json:"session,omitempty"`
}

const sessionExpired = "expired"

func (o *Output) printPlayer(p response.Player) {
	fmt.Fprintf(o.w, "Player: %s (%s)\n", p.Name, p.ID)
	fmt.Fprintf(o.w, "Email: %s\n", p.Email)
	if p.SchoolEmail != "" {
		fmt.Fprintf(o.w, "School email: %s\n", p.SchoolEmail)
	}
	if p.PersonalEmail != "" {
		fmt.Fprintf(o.w, "Personal email: %s\n", p.PersonalEmail)
	}
	if p.Phone != "" {
		fmt.Fprintf(o.w, "Phone: %s\n", p.Phone)
	}
	fmt.Fprintf(o.w, "Record: %d-%d\n", p.Wins, p.Losses)
	fmt.Fprintf(o.w, "Rank: %d (%s)\n", p.Rank, formatDelta(p.PositionDelta))
	if p.IsAdmin {
		fmt.Fprintln(o.w, "Admin: yes")
	}
}

func (o *Output) printPlayers(players []response.Player) {
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tID\tNAME\tEMAIL\tW-L\tADMIN")
	for _, p := range players {
		admin := ""
		if p.IsAdmin {
			admin = "yes"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d-%d\t%s\n", p.Rank, p.ID, p.Name, p.Email, p.Wins, p.Losses, admin)
	}
	_ = tw.Flush()
}

func (o *Output) printLeaderboard(l response.Leaderboard) {
	if len(l.Entries) == 0 {
		fmt.Fprintln(o.w, "No players yet")
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "POS\tPLAYER\tW\tL\tMOVE")
	for _, e := range l.Entries {
		name := e.Name
		if e.IsLeader {
			name += " *"
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\n", e.Position, name, e.Wins, e.Losses, formatDelta(e.PositionDelta))
	}
	_ = tw.Flush()
}

func (o *Output) printMatchups(m response.Matchups) {
	if m.WeekLabel != "" {
		fmt.Fprintln(o.w, m.WeekLabel)
	}
	if len(m.Matchups) == 0 {
		fmt.Fprintln(o.w, "No matches scheduled")
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tMATCH\tPLAYERS\tNOTES")
	for _, mu := range m.Matchups {
		fmt.Fprintf(tw, "%s\t%s\t%s vs %s\t%s\n", formatTime(mu.DateScheduled), mu.MatchID, mu.Player1Name, mu.Player2Name, mu.Notes)
	}
	_ = tw.Flush()
}

func (o *Output) printMatch(m response.Match) {
	fmt.Fprintf(o.w, "Match: %s\n", m.ID)
	fmt.Fprintf(o.w, "Players: %s vs %s\n", m.Player1ID, m.Player2ID)
	fmt.Fprintf(o.w, "Scheduled: %s\n", formatTime(m.DateScheduled))
	fmt.Fprintf(o.w, "Status: %s\n", m.Status)
	if m.Notes != "" {
		fmt.Fprintf(o.w, "Notes: %s\n", m.Notes)
	}
	if m.Player1Report != nil {
		fmt.Fprintf(o.w, "%s says %s won\n", m.Player1ID, m.Player1Report.ClaimedWinnerID)
	}
	if m.Player2Report != nil {
		fmt.Fprintf(o.w, "%s says %s won\n", m.Player2ID, m.Player2Report.ClaimedWinnerID)
	}
	if m.WinnerID != "" {
		fmt.Fprintf(o.w, "Winner: %s\n", m.WinnerID)
	}
}

func (o *Output) printOpponent(p response.Opponent) {
	fmt.Fprintf(o.w, "Opponent: %s, rank %d (%s), record %d-%d\n",
		p.Name, p.Rank, formatDelta(p.PositionDelta), p.Wins, p.Losses)
	if p.SchoolEmail != "" {
		fmt.Fprintf(o.w, "  School email: %s\n", p.SchoolEmail)
	}
	if p.PersonalEmail != "" {
		fmt.Fprintf(o.w, "  Personal email: %s\n", p.PersonalEmail)
	}
	if p.Phone != "" {
		fmt.Fprintf(o.w, "  Phone: %s\n", p.Phone)
	}
}

func (o *Output) printMatches(matches []response.Match) {
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tPLAYERS\tSTATUS")
	for _, m := range matches {
		fmt.Fprintf(tw, "%s\t%s\t%s vs %s\t%s\n", m.ID, formatTime(m.DateScheduled), m.Player1ID, m.Player2ID, m.Status)
	}
	_ = tw.Flush()
}

func (o *Output) printHistory(h response.History) {
	fmt.Fprintf(o.w, "Record: %d-%d\n", h.Wins, h.Losses)
	if len(h.Matches) == 0 {
		fmt.Fprintln(o.w, "No completed matches")
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tOPPONENT\tRESULT\tRECORD")
	for _, e := range h.Matches {
		result := "L"
		if e.Won {
			result = "W"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d-%d\n", formatTime(e.PlayedAt), e.OpponentName, result, e.WinsAfter, e.LossesAfter)
	}
	_ = tw.Flush()
}

func formatDelta(d int) string {
	switch {
	case d > 0:
		return fmt.Sprintf("+%d", d)
	case d < 0:
		return fmt.Sprintf("%d", d)
	default:
		return "-"
	}
}

func formatTime(t time.Time) string {
	return t.Local().Format("Mon 02 Jan 15:04")
}
