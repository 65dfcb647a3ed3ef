package game

import (
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/kiradelay/go/internal/models"
)

// RoundState is the lifecycle state of a round
type RoundState string

const (
	RoundStateOpen    RoundState = "open"
	RoundStateSettled RoundState = "settled"
)

// DefaultCommentaryEvery is the guess count interval that triggers live commentary
const DefaultCommentaryEvery = 3

// Notification text sent to opted-in participants after settlement
const (
	ArrivalTitle      = "Kira ist da!"
	arrivalBodyFormat = "Angekommen um %s. Sieh dir die Ergebnisse an!"
)

// Round is a snapshot of the current round
type Round struct {
	ID         uuid.UUID                `json:"id"`
	State      RoundState               `json:"state"`
	StartedAt  time.Time                `json:"startedAt"`
	SettledAt  *time.Time               `json:"settledAt,omitempty"`
	ActualTime string                   `json:"actualTime,omitempty"`
	Guesses    []models.Guess           `json:"guesses"`
	Results    []models.SettlementEntry `json:"results"`
	Commentary string                   `json:"commentary"`
}

// PlaceGuessRequest is the body of POST /api/round/guesses
type PlaceGuessRequest struct {
	UserID      uuid.UUID `json:"userId"`
	GuessedTime string    `json:"guessedTime"`
}

// SettleRequest is the body of POST /api/round/settle
type SettleRequest struct {
	ActualTime string `json:"actualTime"`
}

// NewRoundRequest is the body of POST /api/round/new
type NewRoundRequest struct {
	Force bool `json:"force"`
}
