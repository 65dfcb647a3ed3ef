package events

import (
	"time"

	"github.com/mcdev12/kiradelay/go/internal/models"
)

// Event payload types shared between the game and its consumers

// RoundStartedPayload is the payload for a RoundStarted event
type RoundStartedPayload struct {
	RoundID   string    `json:"round_id"`
	StartedAt time.Time `json:"started_at"`
	Forced    bool      `json:"forced"`
	Discarded int       `json:"discarded_guesses"`
}

// GuessPlacedPayload is the payload for a GuessPlaced event
type GuessPlacedPayload struct {
	GuessID     string    `json:"guess_id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	GuessedTime string    `json:"guessed_time"`
	Replaced    bool      `json:"replaced"`
	PlacedAt    time.Time `json:"placed_at"`
	GuessCount  int       `json:"guess_count"`
}

// RoundSettledPayload is the payload for a RoundSettled event
type RoundSettledPayload struct {
	RoundID    string                   `json:"round_id"`
	ActualTime string                   `json:"actual_time"`
	SettledAt  time.Time                `json:"settled_at"`
	WinnerID   string                   `json:"winner_id,omitempty"`
	WinnerName string                   `json:"winner_name,omitempty"`
	Results    []models.SettlementEntry `json:"results"`
}
