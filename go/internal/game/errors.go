package game

import "errors"

var (
	// ErrRoundSettled is returned when guessing on or settling a round that is already settled
	ErrRoundSettled = errors.New("round already settled")

	// ErrRoundOpen is returned when starting a new round would discard open guesses
	ErrRoundOpen = errors.New("round is still open")
)
