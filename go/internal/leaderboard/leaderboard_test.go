package leaderboard

import (
	"testing"

	"github.com/mcdev12/kiradelay/go/internal/models"
)

func profile(name string, bets, wins, diff int) models.UserProfile {
	return models.UserProfile{
		Name:  name,
		Stats: models.UserStats{TotalBets: bets, TotalWins: wins, TotalDiffMinutes: diff},
	}
}

func TestRankOrdering(t *testing.T) {
	profiles := []models.UserProfile{
		profile("newbie", 0, 0, 0),
		profile("steady", 10, 2, 50),  // avg 5
		profile("sharp", 4, 2, 8),     // avg 2
		profile("champ", 6, 3, 120),   // most wins
		profile("veteran", 20, 2, 40), // avg 2, more bets than sharp
	}

	standings := Rank(profiles)

	want := []string{"champ", "veteran", "sharp", "steady", "newbie"}
	for i, name := range want {
		if standings[i].Profile.Name != name {
			got := make([]string, len(standings))
			for j, s := range standings {
				got[j] = s.Profile.Name
			}
			t.Fatalf("expected order %v, got %v", want, got)
		}
		if standings[i].Position != i+1 {
			t.Errorf("expected position %d, got %d", i+1, standings[i].Position)
		}
	}
	if profiles[0].Name != "newbie" {
		t.Fatal("expected input slice to be left untouched")
	}
}

func TestRankTiesFallBackToName(t *testing.T) {
	standings := Rank([]models.UserProfile{
		profile("bob", 0, 0, 0),
		profile("Alice", 0, 0, 0),
	})
	if standings[0].Profile.Name != "Alice" {
		t.Fatalf("expected Alice first, got %s", standings[0].Profile.Name)
	}
}

func TestSummarize(t *testing.T) {
	t.Run("no bets", func(t *testing.T) {
		s := Summarize(profile("x", 0, 0, 0))
		if s.AverageDeviation != 0 || s.WinRatePercent != 0 {
			t.Fatalf("expected zero summary, got %+v", s)
		}
	})

	t.Run("rounded figures", func(t *testing.T) {
		s := Summarize(profile("x", 3, 1, 10))
		if s.AverageDeviation != 3 {
			t.Errorf("expected average 3, got %d", s.AverageDeviation)
		}
		if s.WinRatePercent != 33 {
			t.Errorf("expected win rate 33, got %d", s.WinRatePercent)
		}
	})
}
