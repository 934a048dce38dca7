package game

import (
	"time"

	"github.com/google/uuid"
)

// Status is the session lifecycle. GameOver is terminal.
type Status int32

const (
	Running Status = iota
	GameOver
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case GameOver:
		return "game_over"
	}
	return "unknown"
}

// MarshalText renders the status by name in JSON.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Game-over reasons.
const (
	ReasonNoPose       = "no_pose"
	ReasonPoseMismatch = "pose_mismatch"
	ReasonMissed       = "missed"
	ReasonStopped      = "stopped"
)

// Session is one run from start to game over.
type Session struct {
	ID          string
	StartedAt   time.Time
	Score       int
	TotalPassed int
	TotalMissed int
	Elapsed     time.Duration // accumulated play time, frozen at game over
	Status      Status
}

func newSession(now time.Time) Session {
	return Session{
		ID:        uuid.NewString(),
		StartedAt: now,
		Status:    Running,
	}
}

// Stats is a read-only snapshot of a session for display.
type Stats struct {
	SessionID      string  `json:"session_id"`
	Score          int     `json:"score"`
	TotalPassed    int     `json:"total_passed"`
	TotalMissed    int     `json:"total_missed"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Status         Status  `json:"status"`
	Reason         string  `json:"reason,omitempty"`
}

func (s Session) stats(reason string) Stats {
	return Stats{
		SessionID:      s.ID,
		Score:          s.Score,
		TotalPassed:    s.TotalPassed,
		TotalMissed:    s.TotalMissed,
		ElapsedSeconds: s.Elapsed.Seconds(),
		Status:         s.Status,
		Reason:         reason,
	}
}

// Over reports whether the snapshot is final.
func (s Stats) Over() bool {
	return s.Status == GameOver
}
