package response

import (
	"time"

	"github.com/mcoot/dartleague/internal/model"
	"github.com/mcoot/dartleague/internal/services/auth"
	"github.com/mcoot/dartleague/internal/services/leaderboard"
	"github.com/mcoot/dartleague/internal/services/standings"
)

// Player represents a player in API responses. Credentials never leave the server.
type Player struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	SchoolEmail   string `json:"school_email,omitempty"`
	PersonalEmail string `json:"personal_email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
	Rank          int    `json:"rank"`
	PreviousRank  int    `json:"previous_rank"`
	PositionDelta int    `json:"position_delta"`
	IsAdmin       bool   `json:"is_admin"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:            string(p.ID),
		Name:          p.Name,
		Email:         p.Email,
		SchoolEmail:   p.SchoolEmail,
		PersonalEmail: p.PersonalEmail,
		Phone:         p.Phone,
		Wins:          p.Wins,
		Losses:        p.Losses,
		Rank:          p.Rank,
		PreviousRank:  p.PreviousRank,
		PositionDelta: p.PositionDelta(),
		IsAdmin:       p.IsAdmin,
	}
}

// PlayersFromModel converts a slice, keeping order
func PlayersFromModel(players []*model.Player) []Player {
	out := make([]Player, 0, len(players))
	for _, p := range players {
		out = append(out, PlayerFromModel(p))
	}
	return out
}

// SessionResponse is returned by login
type SessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Player    Player    `json:"player"`
}

// SessionResponseFrom creates a SessionResponse from a session and its player
func SessionResponseFrom(s *auth.Session, p *model.Player) SessionResponse {
	return SessionResponse{
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
		Player:    PlayerFromModel(p),
	}
}

// LeaderboardEntry is one row of the leaderboard
type LeaderboardEntry struct {
	Position      int    `json:"position"`
	PlayerID      string `json:"player_id"`
	Name          string `json:"name"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
	Rank          int    `json:"rank"`
	PreviousRank  int    `json:"previous_rank"`
	PositionDelta int    `json:"position_delta"`
	IsLeader      bool   `json:"is_leader"`
}

// Leaderboard is the full standings table
type Leaderboard struct {
	Policy  string             `json:"policy"`
	Entries []LeaderboardEntry `json:"entries"`
}

// LeaderboardFrom converts leaderboard entries
func LeaderboardFrom(policy string, entries []leaderboard.Entry) Leaderboard {
	out := Leaderboard{Policy: policy, Entries: make([]LeaderboardEntry, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, LeaderboardEntry{
			Position:      e.Position,
			PlayerID:      string(e.Player.ID),
			Name:          e.Player.Name,
			Wins:          e.Player.Wins,
			Losses:        e.Player.Losses,
			Rank:          e.Player.Rank,
			PreviousRank:  e.Player.PreviousRank,
			PositionDelta: e.PositionDelta,
			IsLeader:      e.IsLeader,
		})
	}
	return out
}

// Report is one participant's claim
type Report struct {
	ClaimedWinnerID string    `json:"claimed_winner_id"`
	ReportedAt      time.Time `json:"reported_at"`
}

func reportFromModel(r *model.Report) *Report {
	if r == nil {
		return nil
	}
	return &Report{ClaimedWinnerID: string(r.ClaimedWinnerID), ReportedAt: r.ReportedAt}
}

// Match represents a match in API responses
type Match struct {
	ID               string     `json:"id"`
	Player1ID        string     `json:"player1_id"`
	Player2ID        string     `json:"player2_id"`
	DateScheduled    time.Time  `json:"date_scheduled"`
	Notes            string     `json:"notes,omitempty"`
	Status           string     `json:"status"`
	Player1Report    *Report    `json:"player1_report,omitempty"`
	Player2Report    *Report    `json:"player2_report,omitempty"`
	WinnerID         string     `json:"winner_id,omitempty"`
	LoserID          string     `json:"loser_id,omitempty"`
	StandingsApplied bool       `json:"standings_applied"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// MatchFromModel converts a model.Match
func MatchFromModel(m *model.Match) Match {
	return Match{
		ID:               string(m.ID),
		Player1ID:        string(m.Player1ID),
		Player2ID:        string(m.Player2ID),
		DateScheduled:    m.DateScheduled,
		Notes:            m.Notes,
		Status:           string(m.Status),
		Player1Report:    reportFromModel(m.Player1Report),
		Player2Report:    reportFromModel(m.Player2Report),
		WinnerID:         string(m.WinnerID),
		LoserID:          string(m.LoserID),
		StandingsApplied: m.StandingsApplied,
		CompletedAt:      m.CompletedAt,
	}
}

// MatchesFromModel converts a slice, keeping order
func MatchesFromModel(matches []*model.Match) []Match {
	out := make([]Match, 0, len(matches))
	for _, m := range matches {
		out = append(out, MatchFromModel(m))
	}
	return out
}

// CurrentMatch wraps the caller's next match; Match is null when there is none
type CurrentMatch struct {
	Match    *Match    `json:"match"`
	Opponent *Opponent `json:"opponent,omitempty"`
}

// Opponent is what a player needs to arrange their match: the other
// player's standing and how to reach them. The login email stays private.
type Opponent struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
	Rank          int    `json:"rank"`
	PositionDelta int    `json:"position_delta"`
	SchoolEmail   string `json:"school_email,omitempty"`
	PersonalEmail string `json:"personal_email,omitempty"`
	Phone         string `json:"phone,omitempty"`
}

func OpponentFromModel(p *model.Player) *Opponent {
	return &Opponent{
		ID:            string(p.ID),
		Name:          p.Name,
		Wins:          p.Wins,
		Losses:        p.Losses,
		Rank:          p.Rank,
		PositionDelta: p.PositionDelta(),
		SchoolEmail:   p.SchoolEmail,
		PersonalEmail: p.PersonalEmail,
		Phone:         p.Phone,
	}
}

// ReportResult is returned after a participant reports
type ReportResult struct {
	Match            Match `json:"match"`
	StandingsUpdated bool  `json:"standings_updated"`
}

// Matchup is a scheduled pairing with display names filled in
type Matchup struct {
	MatchID       string    `json:"match_id"`
	Player1ID     string    `json:"player1_id"`
	Player1Name   string    `json:"player1_name"`
	Player2ID     string    `json:"player2_id"`
	Player2Name   string    `json:"player2_name"`
	DateScheduled time.Time `json:"date_scheduled"`
	Notes         string    `json:"notes,omitempty"`
}

// Matchups is the week's schedule
type Matchups struct {
	WeekLabel string    `json:"week_label"`
	Matchups  []Matchup `json:"matchups"`
}

// MatchupsFrom resolves player names for each matchup. Unknown ids keep an empty name.
func MatchupsFrom(label string, matchups []model.Matchup, names map[model.PlayerID]string) Matchups {
	out := Matchups{WeekLabel: label, Matchups: make([]Matchup, 0, len(matchups))}
	for _, mu := range matchups {
		out.Matchups = append(out.Matchups, Matchup{
			MatchID:       string(mu.MatchID),
			Player1ID:     string(mu.Player1ID),
			Player1Name:   names[mu.Player1ID],
			Player2ID:     string(mu.Player2ID),
			Player2Name:   names[mu.Player2ID],
			DateScheduled: mu.DateScheduled,
			Notes:         mu.Notes,
		})
	}
	return out
}

// HistoryEntry is one completed match from a player's side
type HistoryEntry struct {
	MatchID      string    `json:"match_id"`
	OpponentID   string    `json:"opponent_id"`
	OpponentName string    `json:"opponent_name"`
	Won          bool      `json:"won"`
	PlayedAt     time.Time `json:"played_at"`
	WinsAfter    int       `json:"wins_after"`
	LossesAfter  int       `json:"losses_after"`
}

// History is a player's completed matches, newest first
type History struct {
	PlayerID string         `json:"player_id"`
	Wins     int            `json:"wins"`
	Losses   int            `json:"losses"`
	Matches  []HistoryEntry `json:"matches"`
}

// HistoryFrom converts a player's history
func HistoryFrom(playerID model.PlayerID, entries []standings.HistoryEntry, record model.Record, names map[model.PlayerID]string) History {
	out := History{
		PlayerID: string(playerID),
		Wins:     record.Wins,
		Losses:   record.Losses,
		Matches:  make([]HistoryEntry, 0, len(entries)),
	}
	for _, e := range entries {
		out.Matches = append(out.Matches, HistoryEntry{
			MatchID:      string(e.MatchID),
			OpponentID:   string(e.OpponentID),
			OpponentName: names[e.OpponentID],
			Won:          e.Won,
			PlayedAt:     e.PlayedAt,
			WinsAfter:    e.RecordAfter.Wins,
			LossesAfter:  e.RecordAfter.Losses,
		})
	}
	return out
}

// Reconciled lists matches whose standings were repaired
type Reconciled struct {
	Applied []string `json:"applied"`
}

// WeekLabel is the current week label
type WeekLabel struct {
	Label string `json:"label"`
}
