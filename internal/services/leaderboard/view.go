package leaderboard

import (
	"iter"
	"slices"

	"github.com/mcoot/dartleague/internal/model"
	"github.com/mcoot/dartleague/internal/storage"
)

// Entry is one leaderboard row
type Entry struct {
	Player        model.Player
	Position      int // 1-based display position
	PositionDelta int // PreviousRank - Rank, positive means moved up
	IsLeader      bool
}

// BuildLeaderboard orders players by rank and yields one entry per player.
// The sequence can be ranged over any number of times with the same result.
func BuildLeaderboard(players []*model.Player) iter.Seq[Entry] {
	ordered := slices.Clone(players)
	storage.SortPlayersByRank(ordered)

	return func(yield func(Entry) bool) {
		for i, p := range ordered {
			entry := Entry{
				Player:        *p,
				Position:      i + 1,
				PositionDelta: p.PositionDelta(),
				IsLeader:      i == 0,
			}
			if !yield(entry) {
				return
			}
		}
	}
}

// Renumber assigns dense ranks 1..N in the given order and returns the
// players whose rank changed
func Renumber(ordered []*model.Player) []*model.Player {
	var changed []*model.Player
	for i, p := range ordered {
		if p.Rank != i+1 {
			p.Rank = i + 1
			changed = append(changed, p)
		}
	}
	return changed
}
