package models

import (
	"time"

	"github.com/google/uuid"
)

// Guess is one participant's prediction for the open round.
// Name is a snapshot of the profile name taken when the guess was placed.
type Guess struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"userId"`
	Name        string    `json:"name"`
	GuessedTime string    `json:"guessedTime"`
	CreatedAt   time.Time `json:"timestamp"`
}

// SettlementEntry is one ranked outcome of a settled round
type SettlementEntry struct {
	Guess            Guess `json:"bet"`
	DeviationMinutes int   `json:"diffMinutes"`
	Rank             int   `json:"rank"`
}

// IsWinner reports whether the entry holds rank 1
func (e SettlementEntry) IsWinner() bool {
	return e.Rank == 1
}
