package profiles

import (
	"github.com/google/uuid"
)

// DefaultHistoryCap is how many past rounds a profile keeps
const DefaultHistoryCap = 50

// MaxNameLength bounds display names, in runes
const MaxNameLength = 64

// OutcomeRequest is one settled guess applied to its owner's stats
type OutcomeRequest struct {
	UserID           uuid.UUID `json:"userId"`
	GuessedTime      string    `json:"guessedTime"`
	ActualTime       string    `json:"actualTime"`
	DeviationMinutes int       `json:"deviation"`
	Won              bool      `json:"won"`
}

// LoginRequest is the body of POST /api/session
type LoginRequest struct {
	Name string `json:"name"`
}

// NotificationPreferenceRequest is the body of PUT /api/profiles/{id}/notifications
type NotificationPreferenceRequest struct {
	Enabled bool `json:"enabled"`
}
