package round

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

func TestBoardReplacesGuessPerUser(t *testing.T) {
	clock := clockwork.NewFakeClockAt(base)
	board := NewBoard(clock)
	alice, bob := uuid.New(), uuid.New()

	first, err := board.Place(alice, "Alice", "08:10")
	if err != nil {
		t.Fatalf("place failed: %v", err)
	}
	if _, err := board.Place(bob, "Bob", "08:20"); err != nil {
		t.Fatalf("place failed: %v", err)
	}

	clock.Advance(time.Minute)
	second, err := board.Place(alice, "Alice", "8:30")
	if err != nil {
		t.Fatalf("place failed: %v", err)
	}

	guesses := board.Guesses()
	if len(guesses) != 2 {
		t.Fatalf("expected 2 guesses, got %d", len(guesses))
	}
	if guesses[0].UserID != alice || guesses[0].GuessedTime != "08:30" {
		t.Fatalf("expected Alice's replaced guess in slot 0, got %+v", guesses[0])
	}
	if second.ID == first.ID {
		t.Fatal("expected replacement guess to get a new id")
	}
	if !second.CreatedAt.Equal(base.Add(time.Minute)) {
		t.Fatalf("expected new timestamp, got %v", second.CreatedAt)
	}
}

func TestBoardRejectsInvalidTime(t *testing.T) {
	board := NewBoard(clockwork.NewFakeClock())
	if _, err := board.Place(uuid.New(), "Alice", "soon"); !errors.Is(err, ErrInvalidTimeFormat) {
		t.Fatalf("expected ErrInvalidTimeFormat, got %v", err)
	}
	if board.Len() != 0 {
		t.Fatalf("expected empty board, got %d", board.Len())
	}
}

func TestBoardClear(t *testing.T) {
	board := NewBoard(clockwork.NewFakeClock())
	user := uuid.New()
	if _, err := board.Place(user, "Alice", "08:00"); err != nil {
		t.Fatalf("place failed: %v", err)
	}
	if !board.HasGuess(user) {
		t.Fatal("expected user to have a guess")
	}

	board.Clear()
	if board.Len() != 0 || board.HasGuess(user) {
		t.Fatal("expected board to be empty after clear")
	}
}

func TestBoardGuessesIsACopy(t *testing.T) {
	board := NewBoard(clockwork.NewFakeClock())
	if _, err := board.Place(uuid.New(), "Alice", "08:00"); err != nil {
		t.Fatalf("place failed: %v", err)
	}
	snapshot := board.Guesses()
	snapshot[0].Name = "Mallory"
	if board.Guesses()[0].Name != "Alice" {
		t.Fatal("expected board contents to be unaffected by snapshot mutation")
	}
}
