// Package seed loads a starting roster and schedule from YAML into an empty league.
package seed

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/mcoot/dartleague/internal/model"
	"github.com/mcoot/dartleague/internal/services/leaderboard"
	"github.com/mcoot/dartleague/internal/services/roster"
	"github.com/mcoot/dartleague/internal/services/schedule"
)

// File is the YAML document layout
type File struct {
	WeekLabel string   `yaml:"week_label"`
	Players   []Player `yaml:"players"`
	Matches   []Match  `yaml:"matches"`
}

// Player is one roster entry. Key is only used to refer to the player from
// matches in the same file; stored ids are generated.
type Player struct {
	Key           string `yaml:"key"`
	Name          string `yaml:"name"`
	Email         string `yaml:"email"`
	SchoolEmail   string `yaml:"school_email"`
	PersonalEmail string `yaml:"personal_email"`
	Phone         string `yaml:"phone"`
	Password      string `yaml:"password"`
	IsAdmin       bool   `yaml:"is_admin"`
	Wins          int    `yaml:"wins"`
	Losses        int    `yaml:"losses"`

	// Optional standing carried over from an existing league. Players
	// without a rank fill the free places in file order; a missing
	// previous_rank means no movement.
	Rank         int `yaml:"rank"`
	PreviousRank int `yaml:"previous_rank"`
}

// Match pairs two players by key
type Match struct {
	Player1 string    `yaml:"player1"`
	Player2 string    `yaml:"player2"`
	Date    time.Time `yaml:"date"`
	Notes   string    `yaml:"notes"`
}

// Result summarises what Apply wrote
type Result struct {
	Players int
	Matches int
}

// LoadFile reads and parses a seed file
func LoadFile(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and checks a seed document
func Parse(raw []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	keys := make(map[string]bool, len(f.Players))
	ranks := make(map[int]bool, len(f.Players))
	for i, p := range f.Players {
		if p.Key == "" {
			return fmt.Errorf("seed player %d: key is required", i+1)
		}
		if keys[p.Key] {
			return fmt.Errorf("seed player %q: duplicate key", p.Key)
		}
		keys[p.Key] = true

		if p.Rank < 0 || p.Rank > len(f.Players) {
			return fmt.Errorf("seed player %q: rank %d: %w", p.Key, p.Rank, model.ErrInvalidRank)
		}
		if p.Rank > 0 {
			if ranks[p.Rank] {
				return fmt.Errorf("seed player %q: rank %d taken twice: %w", p.Key, p.Rank, model.ErrInvalidRank)
			}
			ranks[p.Rank] = true
		}
		if p.PreviousRank < 0 {
			return fmt.Errorf("seed player %q: previous rank %d: %w", p.Key, p.PreviousRank, model.ErrInvalidRank)
		}
	}
	for i, m := range f.Matches {
		if !keys[m.Player1] || !keys[m.Player2] {
			return fmt.Errorf("seed match %d: unknown player key", i+1)
		}
		if m.Player1 == m.Player2 {
			return fmt.Errorf("seed match %d: %w", i+1, model.ErrSamePlayer)
		}
	}
	return nil
}

// Apply writes the file into the league when it has no players yet.
// A league that already has players is left alone and Apply returns a zero Result.
func Apply(ctx context.Context, f *File, rs *roster.Service, lb *leaderboard.Service, ss *schedule.Service) (Result, error) {
	existing, err := rs.List(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(existing) > 0 {
		return Result{}, nil
	}

	var res Result
	ids := make(map[string]model.PlayerID, len(f.Players))
	for _, sp := range f.Players {
		p, err := rs.Create(ctx, roster.NewPlayer{
			Name:          sp.Name,
			Email:         sp.Email,
			SchoolEmail:   sp.SchoolEmail,
			PersonalEmail: sp.PersonalEmail,
			Phone:         sp.Phone,
			Password:      sp.Password,
			IsAdmin:       sp.IsAdmin,
		})
		if err != nil {
			return res, fmt.Errorf("seed player %q: %w", sp.Key, err)
		}
		ids[sp.Key] = p.ID
		res.Players++

		if sp.Wins != 0 || sp.Losses != 0 {
			wins, losses := sp.Wins, sp.Losses
			if _, err := rs.Update(ctx, p.ID, roster.PlayerUpdate{Wins: &wins, Losses: &losses}); err != nil {
				return res, fmt.Errorf("seed player %q record: %w", sp.Key, err)
			}
		}
	}

	if err := applyStandings(ctx, f, ids, lb); err != nil {
		return res, err
	}

	for i, sm := range f.Matches {
		_, err := ss.CreateMatch(ctx, schedule.MatchDetails{
			Player1ID:     ids[sm.Player1],
			Player2ID:     ids[sm.Player2],
			DateScheduled: sm.Date,
			Notes:         sm.Notes,
		})
		if err != nil {
			return res, fmt.Errorf("seed match %d: %w", i+1, err)
		}
		res.Matches++
	}

	if f.WeekLabel != "" {
		if err := ss.SetWeekLabel(ctx, f.WeekLabel); err != nil {
			return res, err
		}
	}

	return res, nil
}

// applyStandings moves players into the places the file asks for. Places are
// filled from the top so a player already placed is never shifted again.
func applyStandings(ctx context.Context, f *File, ids map[string]model.PlayerID, lb *leaderboard.Service) error {
	if !slices.ContainsFunc(f.Players, func(p Player) bool { return p.Rank > 0 || p.PreviousRank > 0 }) {
		return nil
	}

	order := make([]Player, len(f.Players))
	var unranked []Player
	for _, sp := range f.Players {
		if sp.Rank > 0 {
			order[sp.Rank-1] = sp
		} else {
			unranked = append(unranked, sp)
		}
	}
	for i := range order {
		if order[i].Key == "" {
			order[i], unranked = unranked[0], unranked[1:]
		}
	}

	for i, sp := range order {
		rank := i + 1
		if _, err := lb.SetRank(ctx, ids[sp.Key], rank); err != nil {
			return fmt.Errorf("seed player %q rank: %w", sp.Key, err)
		}
		previous := sp.PreviousRank
		if previous == 0 {
			previous = rank
		}
		if _, err := lb.SetPreviousRank(ctx, ids[sp.Key], previous); err != nil {
			return fmt.Errorf("seed player %q previous rank: %w", sp.Key, err)
		}
	}
	return nil
}
