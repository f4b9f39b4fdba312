package standings

import (
	"context"
	"slices"
	"time"

	"github.com/mcoot/dartleague/internal/model"
	"github.com/mcoot/dartleague/internal/storage"
)

// HistoryEntry is one completed match from a player's point of view
type HistoryEntry struct {
	MatchID     model.MatchID
	OpponentID  model.PlayerID
	Won         bool
	PlayedAt    time.Time
	RecordAfter model.Record // the player's record counting this match
}

// History builds per-player match history
type History struct {
	storage storage.Storage
}

// NewHistory creates a new History
func NewHistory(storage storage.Storage) *History {
	return &History{storage: storage}
}

// ForPlayer returns the player's completed matches newest first, plus the
// record those matches add up to
func (h *History) ForPlayer(ctx context.Context, playerID model.PlayerID) ([]HistoryEntry, model.Record, error) {
	if _, err := h.storage.GetPlayer(ctx, playerID); err != nil {
		return nil, model.Record{}, err
	}

	matches, err := h.storage.ListMatchesByPlayer(ctx, playerID)
	if err != nil {
		return nil, model.Record{}, err
	}

	var completed []*model.Match
	for _, m := range matches {
		if m.Status == model.MatchStatusCompleted {
			completed = append(completed, m)
		}
	}
	slices.SortStableFunc(completed, func(a, b *model.Match) int {
		return playedAt(a).Compare(playedAt(b))
	})

	// Walk oldest first to build running records, then reverse
	entries := make([]HistoryEntry, 0, len(completed))
	var record model.Record
	for _, m := range completed {
		won := m.WinnerID == playerID
		if won {
			record.Wins++
		} else {
			record.Losses++
		}
		entries = append(entries, HistoryEntry{
			MatchID:     m.ID,
			OpponentID:  m.Opponent(playerID),
			Won:         won,
			PlayedAt:    playedAt(m),
			RecordAfter: record,
		})
	}
	slices.Reverse(entries)

	return entries, record, nil
}

func playedAt(m *model.Match) time.Time {
	if m.CompletedAt != nil {
		return *m.CompletedAt
	}
	return m.DateScheduled
}
