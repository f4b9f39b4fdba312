package postgres

import (
	"database/sql"
	"time"

	"github.com/mcoot/dartleague/internal/model"
	"github.com/mcoot/dartleague/internal/storage"
)

const playerColumns = `id, name, email, school_email, personal_email, phone, wins, losses,
	rank, previous_rank, is_admin, created_at, updated_at`

type playerTableModel struct {
	ID            string    `db:"id"`
	Name          string    `db:"name"`
	Email         string    `db:"email"`
	SchoolEmail   string    `db:"school_email"`
	PersonalEmail string    `db:"personal_email"`
	Phone         string    `db:"phone"`
	Wins          int       `db:"wins"`
	Losses        int       `db:"losses"`
	Rank          int       `db:"rank"`
	PreviousRank  int       `db:"previous_rank"`
	IsAdmin       bool      `db:"is_admin"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func playerRow(p *model.Player) playerTableModel {
	return playerTableModel{
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
		IsAdmin:       p.IsAdmin,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (r playerTableModel) toModel() *model.Player {
	return &model.Player{
		ID:            model.PlayerID(r.ID),
		Name:          r.Name,
		Email:         r.Email,
		SchoolEmail:   r.SchoolEmail,
		PersonalEmail: r.PersonalEmail,
		Phone:         r.Phone,
		Wins:          r.Wins,
		Losses:        r.Losses,
		Rank:          r.Rank,
		PreviousRank:  r.PreviousRank,
		IsAdmin:       r.IsAdmin,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type credentialTableModel struct {
	PlayerID     string    `db:"player_id"`
	Email        string    `db:"email"`
	EmailKey     string    `db:"email_key"`
	PasswordHash string    `db:"password_hash"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func credentialRow(c *model.Credential) credentialTableModel {
	return credentialTableModel{
		PlayerID:     string(c.PlayerID),
		Email:        c.Email,
		EmailKey:     storage.NormalizeEmail(c.Email),
		PasswordHash: c.PasswordHash,
		UpdatedAt:    c.UpdatedAt,
	}
}

func (r credentialTableModel) toModel() *model.Credential {
	return &model.Credential{
		PlayerID:     model.PlayerID(r.PlayerID),
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		UpdatedAt:    r.UpdatedAt,
	}
}

const matchColumns = `id, player1_id, player2_id, date_scheduled, notes, status,
	player1_claimed_winner, player1_reported_at, player2_claimed_winner, player2_reported_at,
	winner_id, loser_id, standings_applied, version, created_at, updated_at, completed_at`

type matchTableModel struct {
	ID                   string         `db:"id"`
	Player1ID            string         `db:"player1_id"`
	Player2ID            string         `db:"player2_id"`
	DateScheduled        time.Time      `db:"date_scheduled"`
	Notes                string         `db:"notes"`
	Status               string         `db:"status"`
	Player1ClaimedWinner sql.NullString `db:"player1_claimed_winner"`
	Player1ReportedAt    sql.NullTime   `db:"player1_reported_at"`
	Player2ClaimedWinner sql.NullString `db:"player2_claimed_winner"`
	Player2ReportedAt    sql.NullTime   `db:"player2_reported_at"`
	WinnerID             string         `db:"winner_id"`
	LoserID              string         `db:"loser_id"`
	StandingsApplied     bool           `db:"standings_applied"`
	Version              int64          `db:"version"`
	CreatedAt            time.Time      `db:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at"`
	CompletedAt          sql.NullTime   `db:"completed_at"`
}

func matchRow(m *model.Match) matchTableModel {
	row := matchTableModel{
		ID:               string(m.ID),
		Player1ID:        string(m.Player1ID),
		Player2ID:        string(m.Player2ID),
		DateScheduled:    m.DateScheduled,
		Notes:            m.Notes,
		Status:           string(m.Status),
		WinnerID:         string(m.WinnerID),
		LoserID:          string(m.LoserID),
		StandingsApplied: m.StandingsApplied,
		Version:          m.Version,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	row.Player1ClaimedWinner, row.Player1ReportedAt = reportColumns(m.Player1Report)
	row.Player2ClaimedWinner, row.Player2ReportedAt = reportColumns(m.Player2Report)
	if m.CompletedAt != nil {
		row.CompletedAt = sql.NullTime{Time: *m.CompletedAt, Valid: true}
	}
	return row
}

func (r matchTableModel) toModel() *model.Match {
	return &model.Match{
		ID:               model.MatchID(r.ID),
		Player1ID:        model.PlayerID(r.Player1ID),
		Player2ID:        model.PlayerID(r.Player2ID),
		DateScheduled:    r.DateScheduled,
		Notes:            r.Notes,
		Status:           model.MatchStatus(r.Status),
		Player1Report:    reportFromColumns(r.Player1ClaimedWinner, r.Player1ReportedAt),
		Player2Report:    reportFromColumns(r.Player2ClaimedWinner, r.Player2ReportedAt),
		WinnerID:         model.PlayerID(r.WinnerID),
		LoserID:          model.PlayerID(r.LoserID),
		StandingsApplied: r.StandingsApplied,
		Version:          r.Version,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
		CompletedAt:      nullTimeToTimePtr(r.CompletedAt),
	}
}

func reportColumns(r *model.Report) (sql.NullString, sql.NullTime) {
	if r == nil {
		return sql.NullString{}, sql.NullTime{}
	}
	return sql.NullString{String: string(r.ClaimedWinnerID), Valid: true},
		sql.NullTime{Time: r.ReportedAt, Valid: true}
}

func reportFromColumns(winner sql.NullString, at sql.NullTime) *model.Report {
	if !winner.Valid {
		return nil
	}
	return &model.Report{
		ClaimedWinnerID: model.PlayerID(winner.String),
		ReportedAt:      at.Time,
	}
}

func nullTimeToTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
