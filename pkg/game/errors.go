package game

import "errors"

var (
	// ErrSessionOver is returned when an operation needs a running session.
	ErrSessionOver = errors.New("game: session is over")

	// ErrAlreadyStarted is returned by Start on a session that has already begun.
	ErrAlreadyStarted = errors.New("game: session already started")

	// ErrNoFeatures is returned when the machine is built without a features mailbox.
	ErrNoFeatures = errors.New("game: features mailbox is required")
)
