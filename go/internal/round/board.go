package round

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/kiradelay/go/internal/models"
)

// Board holds the guesses of the open round, at most one per user
type Board struct {
	mu      sync.RWMutex
	clock   clockwork.Clock
	guesses []models.Guess
}

// NewBoard creates an empty board stamped by clock
func NewBoard(clock clockwork.Clock) *Board {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Board{clock: clock}
}

// Place records a guess for userID. A user who already guessed has the prior
// guess replaced in its slot with a fresh id and timestamp.
func (b *Board) Place(userID uuid.UUID, name, guessedTime string) (models.Guess, error) {
	tod, err := models.ParseTimeOfDay(guessedTime)
	if err != nil {
		return models.Guess{}, fmt.Errorf("guessed time: %w", err)
	}
	if userID == uuid.Nil {
		return models.Guess{}, fmt.Errorf("user_id is required")
	}

	g := models.Guess{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        name,
		GuessedTime: tod.String(),
		CreatedAt:   b.clock.Now(),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.guesses {
		if b.guesses[i].UserID == userID {
			b.guesses[i] = g
			return g, nil
		}
	}
	b.guesses = append(b.guesses, g)
	return g, nil
}

// Guesses returns a copy of the current guesses in slot order
func (b *Board) Guesses() []models.Guess {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]models.Guess, len(b.guesses))
	copy(out, b.guesses)
	return out
}

// Len returns the number of active guesses
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.guesses)
}

// HasGuess reports whether userID has an active guess
func (b *Board) HasGuess(userID uuid.UUID) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, g := range b.guesses {
		if g.UserID == userID {
			return true
		}
	}
	return false
}

// Clear discards every guess
func (b *Board) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.guesses = nil
}
