package model

import "time"

// PlayerID uniquely identifies a player across the system
type PlayerID string

// Player is a league participant as listed in the player directory
type Player struct {
	ID            PlayerID
	Name          string
	Email         string // login email
	SchoolEmail   string
	PersonalEmail string // optional
	Phone         string // optional
	Wins          int
	Losses        int
	Rank          int // dense 1..N across listed players
	PreviousRank  int
	IsAdmin       bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PositionDelta is previousRank - rank, positive when the player moved up
func (p *Player) PositionDelta() int {
	return p.PreviousRank - p.Rank
}

// Record returns the player's win/loss record
func (p *Player) Record() Record {
	return Record{Wins: p.Wins, Losses: p.Losses}
}

// Record is an aggregate win/loss count
type Record struct {
	Wins   int
	Losses int
}

// Credential holds authentication data for a player.
// Stored separately from Player so directory reads never carry it.
type Credential struct {
	PlayerID     PlayerID
	Email        string
	PasswordHash string // bcrypt hash
	UpdatedAt    time.Time
}
