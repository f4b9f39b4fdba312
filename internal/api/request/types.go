package request

import "time"

// LoginRequest is the request body for opening a session
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ReportRequest is a participant's claim about their own match
type ReportRequest struct {
	Won *bool `json:"won" validate:"required"`
}

// CreatePlayerRequest is the request body for adding a player
type CreatePlayerRequest struct {
	Name          string `json:"name" validate:"required,max=100"`
	Email         string `json:"email" validate:"required,email"`
	SchoolEmail   string `json:"school_email" validate:"omitempty,email"`
	PersonalEmail string `json:"personal_email,omitempty" validate:"omitempty,email"`
	Phone         string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Password      string `json:"password" validate:"required,min=8"`
	IsAdmin       bool   `json:"is_admin,omitempty"`
}

// UpdatePlayerRequest changes only the fields present in the body
type UpdatePlayerRequest struct {
	Name          *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email"`
	SchoolEmail   *string `json:"school_email,omitempty" validate:"omitempty,email"`
	PersonalEmail *string `json:"personal_email,omitempty" validate:"omitempty,email"`
	Phone         *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Password      *string `json:"password,omitempty" validate:"omitempty,min=8"`
	IsAdmin       *bool   `json:"is_admin,omitempty"`
	Wins          *int    `json:"wins,omitempty" validate:"omitempty,min=0"`
	Losses        *int    `json:"losses,omitempty" validate:"omitempty,min=0"`
}

// SetRankRequest moves a player on the ladder. Either field may be sent alone.
type SetRankRequest struct {
	Rank         *int `json:"rank,omitempty" validate:"omitempty,min=1"`
	PreviousRank *int `json:"previous_rank,omitempty" validate:"omitempty,min=1"`
}

// WeekLabelRequest sets the label shown above the matchups
type WeekLabelRequest struct {
	Label string `json:"label" validate:"required,max=64"`
}

// CreateMatchRequest pairs two players
type CreateMatchRequest struct {
	Player1ID     string    `json:"player1_id" validate:"required"`
	Player2ID     string    `json:"player2_id" validate:"required,nefield=Player1ID"`
	DateScheduled time.Time `json:"date_scheduled" validate:"required"`
	Notes         string    `json:"notes,omitempty" validate:"max=500"`
}

// UpdateMatchRequest edits a scheduled match; absent fields keep their value
type UpdateMatchRequest struct {
	Player1ID     *string    `json:"player1_id,omitempty" validate:"omitempty,min=1"`
	Player2ID     *string    `json:"player2_id,omitempty" validate:"omitempty,min=1"`
	DateScheduled *time.Time `json:"date_scheduled,omitempty"`
	Notes         *string    `json:"notes,omitempty" validate:"omitempty,max=500"`
}
