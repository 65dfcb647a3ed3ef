// Package leaderboard orders profiles for display. The profile store itself
// returns profiles in no particular order.
package leaderboard

import (
	"math"
	"sort"
	"strings"

	"github.com/mcdev12/kiradelay/go/internal/models"
)

// noBetsAverage is the average deviation assigned to profiles that never bet,
// so they sort behind anyone with a record
const noBetsAverage = 999.0

// Standing is one row of the leaderboard
type Standing struct {
	Position int                `json:"position"`
	Profile  models.UserProfile `json:"profile"`
	Summary  Summary            `json:"summary"`
}

// Summary is the derived per-profile figures shown next to the raw stats
type Summary struct {
	AverageDeviation int `json:"averageDeviation"`
	WinRatePercent   int `json:"winRatePercent"`
}

// Summarize rounds the average deviation and win rate to whole numbers; both are 0 with no bets
func Summarize(p models.UserProfile) Summary {
	if p.Stats.TotalBets == 0 {
		return Summary{}
	}
	bets := float64(p.Stats.TotalBets)
	return Summary{
		AverageDeviation: int(math.Round(float64(p.Stats.TotalDiffMinutes) / bets)),
		WinRatePercent:   int(math.Round(float64(p.Stats.TotalWins) / bets * 100)),
	}
}

// Rank orders profiles by most wins, then lowest average deviation, then most
// bets, then name. The input slice is left untouched.
func Rank(profiles []models.UserProfile) []Standing {
	sorted := make([]models.UserProfile, len(profiles))
	copy(sorted, profiles)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Stats, sorted[j].Stats
		if a.TotalWins != b.TotalWins {
			return a.TotalWins > b.TotalWins
		}
		avgA, avgB := average(a), average(b)
		if avgA != avgB {
			return avgA < avgB
		}
		if a.TotalBets != b.TotalBets {
			return a.TotalBets > b.TotalBets
		}
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})

	standings := make([]Standing, len(sorted))
	for i, p := range sorted {
		standings[i] = Standing{
			Position: i + 1,
			Profile:  p,
			Summary:  Summarize(p),
		}
	}
	return standings
}

func average(s models.UserStats) float64 {
	if s.TotalBets == 0 {
		return noBetsAverage
	}
	return float64(s.TotalDiffMinutes) / float64(s.TotalBets)
}
