package track

import "errors"

// Sentinel errors for the track package.
var (
	// ErrInvalidConfig indicates a Config failed validation.
	ErrInvalidConfig = errors.New("track: invalid config")

	// ErrUnknownObstacle indicates an ID that was never spawned.
	ErrUnknownObstacle = errors.New("track: unknown obstacle")

	// ErrAlreadyResolved indicates an obstacle that has already left the track.
	ErrAlreadyResolved = errors.New("track: obstacle already resolved")
)
