package round

import (
	"fmt"
	"sort"

	"github.com/mcdev12/kiradelay/go/internal/models"
)

// ErrInvalidTimeFormat is returned when the actual time or a guessed time is not a valid HH:MM
var ErrInvalidTimeFormat = models.ErrInvalidTimeFormat

// Settle ranks guesses by absolute deviation from actualTime.
//
// Deviation is computed within a single day: a guess of 23:50 against an actual
// arrival of 00:10 deviates by 1420 minutes. Equal deviations keep the earlier
// submission ahead, falling back to input order when timestamps are equal.
// The input slice is not modified. An empty input yields an empty result.
func Settle(guesses []models.Guess, actualTime string) ([]models.SettlementEntry, error) {
	actual, err := models.ParseTimeOfDay(actualTime)
	if err != nil {
		return nil, fmt.Errorf("actual time: %w", err)
	}

	entries := make([]models.SettlementEntry, 0, len(guesses))
	for _, g := range guesses {
		guessed, err := models.ParseTimeOfDay(g.GuessedTime)
		if err != nil {
			return nil, fmt.Errorf("guess %s: %w", g.ID, err)
		}
		entries = append(entries, models.SettlementEntry{
			Guess:            g,
			DeviationMinutes: abs(guessed.MinutesUntil(actual)),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].DeviationMinutes != entries[j].DeviationMinutes {
			return entries[i].DeviationMinutes < entries[j].DeviationMinutes
		}
		return entries[i].Guess.CreatedAt.Before(entries[j].Guess.CreatedAt)
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// Winner returns the rank 1 entry, if any
func Winner(entries []models.SettlementEntry) (models.SettlementEntry, bool) {
	for _, e := range entries {
		if e.IsWinner() {
			return e, true
		}
	}
	return models.SettlementEntry{}, false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
