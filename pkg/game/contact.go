package game

import "time"

// ContactEvent is the scene's notification that the player touched an obstacle.
type ContactEvent struct {
	ObstacleID uint64    `json:"obstacle_id"`
	At         time.Time `json:"at"`
}

// Outcome is what a contact did to the session.
type Outcome int

const (
	// OutcomeIgnored: session over, obstacle already resolved, or still queued.
	OutcomeIgnored Outcome = iota
	// OutcomePassed: pose matched, score incremented.
	OutcomePassed
	// OutcomeCrashed: pose missing or wrong, session ended.
	OutcomeCrashed
	// OutcomeUnknown: no obstacle with that ID was ever spawned.
	OutcomeUnknown
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomePassed:
		return "passed"
	case OutcomeCrashed:
		return "crashed"
	case OutcomeUnknown:
		return "unknown"
	}
	return "invalid"
}
