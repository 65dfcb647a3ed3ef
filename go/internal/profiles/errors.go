package profiles

import "errors"

var (
	// ErrInvalidName is returned when a display name is empty, whitespace-only or unusable
	ErrInvalidName = errors.New("invalid name")

	// ErrUserNotFound is returned when an id does not resolve to a stored profile.
	// Seeing it from a stat update means the caller holds a stale id.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidOutcome is returned for outcomes that would break the stats invariants
	ErrInvalidOutcome = errors.New("invalid outcome")

	// ErrNoSession is returned when no current user is set
	ErrNoSession = errors.New("no current user")
)
