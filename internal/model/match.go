package model

import "time"

// MatchID uniquely identifies a match
type MatchID string

// MatchStatus represents where a match is in the confirmation protocol
type MatchStatus string

const (
	MatchStatusScheduled            MatchStatus = "scheduled"
	MatchStatusAwaitingConfirmation MatchStatus = "awaiting_confirmation"
	MatchStatusCompleted            MatchStatus = "completed"
	MatchStatusDisputed             MatchStatus = "disputed" // waits for admin resolution
	MatchStatusCancelled            MatchStatus = "cancelled"
)

// IsTerminal reports whether no further reports can change the match
func (s MatchStatus) IsTerminal() bool {
	return s == MatchStatusCompleted || s == MatchStatusCancelled
}

// Valid reports whether s is a known status
func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusScheduled, MatchStatusAwaitingConfirmation, MatchStatusCompleted,
		MatchStatusDisputed, MatchStatusCancelled:
		return true
	}
	return false
}

// Slot identifies which side of a match a player occupies
type Slot int

const (
	SlotNone Slot = iota
	SlotPlayer1
	SlotPlayer2
)

// Report is one participant's claim of who won
type Report struct {
	ClaimedWinnerID PlayerID
	ReportedAt      time.Time
}

// Match is a single scheduled contest between two players.
// It is the only authoritative record for a pairing; matchups are derived from it.
type Match struct {
	ID            MatchID
	Player1ID     PlayerID
	Player2ID     PlayerID
	DateScheduled time.Time
	Notes         string
	Status        MatchStatus
	Player1Report *Report
	Player2Report *Report

	// Set only when Status is completed
	WinnerID PlayerID
	LoserID  PlayerID

	// StandingsApplied records that the outcome has been counted in the
	// players' win/loss records. Written in the same unit as the outcome.
	StandingsApplied bool

	// Version is bumped on every write and used for optimistic locking
	Version int64

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// Slot returns the side the given player occupies, or SlotNone
func (m *Match) Slot(playerID PlayerID) Slot {
	switch playerID {
	case m.Player1ID:
		return SlotPlayer1
	case m.Player2ID:
		return SlotPlayer2
	}
	return SlotNone
}

// HasParticipant reports whether the player is one of the two sides
func (m *Match) HasParticipant(playerID PlayerID) bool {
	return m.Slot(playerID) != SlotNone
}

// Opponent returns the other participant, or "" if playerID is not in the match
func (m *Match) Opponent(playerID PlayerID) PlayerID {
	switch m.Slot(playerID) {
	case SlotPlayer1:
		return m.Player2ID
	case SlotPlayer2:
		return m.Player1ID
	}
	return ""
}

// ReportFor returns the report stored for a slot
func (m *Match) ReportFor(slot Slot) *Report {
	switch slot {
	case SlotPlayer1:
		return m.Player1Report
	case SlotPlayer2:
		return m.Player2Report
	}
	return nil
}

// SetReport stores a report in the given slot, replacing any earlier one
func (m *Match) SetReport(slot Slot, r *Report) {
	switch slot {
	case SlotPlayer1:
		m.Player1Report = r
	case SlotPlayer2:
		m.Player2Report = r
	}
}

// Outcome returns the agreed result of a completed match
func (m *Match) Outcome() (Outcome, bool) {
	if m.Status != MatchStatusCompleted {
		return Outcome{}, false
	}
	return Outcome{WinnerID: m.WinnerID, LoserID: m.LoserID}, true
}

// Clone returns a deep copy so mutations can be discarded on failure
func (m *Match) Clone() *Match {
	c := *m
	if m.Player1Report != nil {
		r := *m.Player1Report
		c.Player1Report = &r
	}
	if m.Player2Report != nil {
		r := *m.Player2Report
		c.Player2Report = &r
	}
	if m.CompletedAt != nil {
		t := *m.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// Outcome is the standings delta produced by an agreed match
type Outcome struct {
	WinnerID PlayerID
	LoserID  PlayerID
}

// Matchup is the scheduling view of a match that has not been reported on
type Matchup struct {
	MatchID       MatchID
	Player1ID     PlayerID
	Player2ID     PlayerID
	DateScheduled time.Time
	Notes         string
}

// MatchupFromMatch projects a match into its matchup view
func MatchupFromMatch(m *Match) Matchup {
	return Matchup{
		MatchID:       m.ID,
		Player1ID:     m.Player1ID,
		Player2ID:     m.Player2ID,
		DateScheduled: m.DateScheduled,
		Notes:         m.Notes,
	}
}
