package models

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile is the durable record for one participant.
// Field names follow the persisted "users" layout.
type UserProfile struct {
	ID                   uuid.UUID `json:"id"`
	Name                 string    `json:"name"`
	JoinedAt             time.Time `json:"joinedAt"`
	Stats                UserStats `json:"stats"`
	NotificationsEnabled bool      `json:"notificationsEnabled"`
}

// UserStats holds cumulative results and the bounded, most-recent-first history
type UserStats struct {
	TotalBets        int            `json:"totalBets"`
	TotalWins        int            `json:"totalWins"`
	TotalDiffMinutes int            `json:"totalDiffMinutes"`
	History          []HistoryEntry `json:"history"`
}

// HistoryEntry records one past round from the user's point of view
type HistoryEntry struct {
	Date        time.Time `json:"date"`
	GuessedTime string    `json:"guessedTime"`
	ActualTime  string    `json:"actualTime"`
	Diff        int       `json:"diff"`
	Won         bool      `json:"won"`
}

// Clone returns a deep copy so callers cannot alias the stored history slice
func (p UserProfile) Clone() UserProfile {
	c := p
	if p.Stats.History != nil {
		c.Stats.History = make([]HistoryEntry, len(p.Stats.History))
		copy(c.Stats.History, p.Stats.History)
	}
	return c
}
