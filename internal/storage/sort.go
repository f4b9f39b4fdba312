package storage

import (
	"cmp"
	"slices"

	"github.com/mcoot/dartleague/internal/model"
)

// SortPlayersByRank orders players by rank, then id so ties are stable
func SortPlayersByRank(players []*model.Player) {
	slices.SortFunc(players, func(a, b *model.Player) int {
		if c := cmp.Compare(a.Rank, b.Rank); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// SortMatchesByDate orders matches by scheduled date, then id
func SortMatchesByDate(matches []*model.Match) {
	slices.SortFunc(matches, func(a, b *model.Match) int {
		if c := a.DateScheduled.Compare(b.DateScheduled); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
