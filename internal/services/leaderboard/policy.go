package leaderboard

import (
	"cmp"
	"errors"
	"slices"

	"github.com/mcoot/dartleague/internal/model"
	"github.com/mcoot/dartleague/internal/storage"
)

var ErrUnknownPolicy = errors.New("unknown rank policy")

// Policy decides the rank order written back when a week is closed
type Policy interface {
	Name() string
	Order(players []*model.Player) []*model.Player
}

// ManualPolicy keeps whatever order the admins have set
type ManualPolicy struct{}

func (ManualPolicy) Name() string { return "manual" }

func (ManualPolicy) Order(players []*model.Player) []*model.Player {
	ordered := slices.Clone(players)
	storage.SortPlayersByRank(ordered)
	return ordered
}

// RecordPolicy orders by wins, then fewest losses, then current rank.
// Head-to-head results are not considered.
type RecordPolicy struct{}

func (RecordPolicy) Name() string { return "record" }

func (RecordPolicy) Order(players []*model.Player) []*model.Player {
	ordered := slices.Clone(players)
	slices.SortStableFunc(ordered, func(a, b *model.Player) int {
		if c := cmp.Compare(b.Wins, a.Wins); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Losses, b.Losses); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Rank, b.Rank); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return ordered
}

// PolicyByName resolves a configured policy name; empty means manual
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", "manual":
		return ManualPolicy{}, nil
	case "record":
		return RecordPolicy{}, nil
	}
	return nil, ErrUnknownPolicy
}
