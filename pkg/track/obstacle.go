package track

import (
	"time"

	"github.com/teslashibe/go-poseperfect/pkg/pose"
)

// Lifecycle is the state of an obstacle slot.
type Lifecycle int

const (
	// Idle is an empty slot (zero value).
	Idle Lifecycle = iota
	// Pending obstacles are spawned but queued behind a busy lane.
	Pending
	// Active obstacles move toward the player and can be judged on contact.
	Active
	// Resolved obstacles have left the track.
	Resolved
)

func (l Lifecycle) String() string {
	switch l {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Active:
		return "active"
	case Resolved:
		return "resolved"
	}
	return "unknown"
}

// Resolution records how an obstacle left the track.
type Resolution int

const (
	Unresolved Resolution = iota
	Passed                // pose matched on contact
	Crashed               // pose missing or wrong on contact
	Missed                // reached the delete position without contact
)

func (r Resolution) String() string {
	switch r {
	case Unresolved:
		return "unresolved"
	case Passed:
		return "passed"
	case Crashed:
		return "crashed"
	case Missed:
		return "missed"
	}
	return "unknown"
}

// Obstacle is a track entity bound to a pose the player must hold on contact.
type Obstacle struct {
	ID         uint64
	SpawnTime  time.Duration // play time at spawn
	Position   float64       // progress toward the player
	Pose       pose.Template
	State      Lifecycle
	Resolution Resolution
}

// Judgeable reports whether a contact with this obstacle should be evaluated.
func (o *Obstacle) Judgeable() bool {
	return o != nil && o.State == Active
}
