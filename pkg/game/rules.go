package game

import (
	"time"

	"github.com/teslashibe/go-poseperfect/pkg/pose"
)

// Rules are the judging parameters. They can be changed while a session runs.
type Rules struct {
	Tolerance     float64       `json:"tolerance"`       // Max per-feature angle error in degrees
	FeatureMaxAge time.Duration `json:"feature_max_age"` // Older features count as no pose; 0 = never stale
	MissEndsGame  bool          `json:"miss_ends_game"`  // Obstacles reaching the player untouched end the run
}

// DefaultRules returns the standard judging rules.
func DefaultRules() Rules {
	return Rules{
		Tolerance:     pose.DefaultTolerance,
		FeatureMaxAge: time.Second,
		MissEndsGame:  false,
	}
}

// StrictRules uses the tight tolerance from early builds of the game.
func StrictRules() Rules {
	r := DefaultRules()
	r.Tolerance = pose.LegacyTolerance
	r.FeatureMaxAge = 500 * time.Millisecond
	return r
}
