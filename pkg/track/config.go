// Package track generates obstacles on a time-driven cadence and moves them
// toward the player, ramping difficulty the longer a run lasts.
package track

import (
	"fmt"
	"time"
)

// Config holds the spawn cadence, speed ramp and playfield geometry.
type Config struct {
	// Spawn cadence
	SpawnInterval          time.Duration `json:"spawn_interval"`           // Initial time between spawns
	MinSpawnInterval       time.Duration `json:"min_spawn_interval"`       // Floor for SpawnInterval
	SpawnIntervalDecrement time.Duration `json:"spawn_interval_decrement"` // Subtracted on every spawn

	// Speed (track units per ReferenceTick)
	MoveSpeed          float64 `json:"move_speed"`           // Initial speed
	MoveSpeedIncrement float64 `json:"move_speed_increment"` // Added on every spawn
	MaxMoveSpeed       float64 `json:"max_move_speed"`       // 0 = uncapped

	// Geometry: obstacles travel from SpawnPosition toward DeletePosition
	SpawnPosition  float64       `json:"spawn_position"`
	DeletePosition float64       `json:"delete_position"`
	ReferenceTick  time.Duration `json:"reference_tick"` // A tick of this length moves an obstacle by MoveSpeed

	// Lanes
	MaxActive  int `json:"max_active"`  // Obstacles moving/judgeable at once
	MaxPending int `json:"max_pending"` // Spawned obstacles waiting for a free lane

	SpawnOnStart bool `json:"spawn_on_start"` // Put an obstacle on the track immediately
}

// DefaultConfig returns the standard difficulty curve.
func DefaultConfig() Config {
	return Config{
		// Cadence - one obstacle every 5s, tightening by 60ms per spawn down to 200ms
		SpawnInterval:          5 * time.Second,
		MinSpawnInterval:       200 * time.Millisecond,
		SpawnIntervalDecrement: 60 * time.Millisecond,

		// Speed - 0.2 units per 50ms, +0.02 per spawn
		MoveSpeed:          0.2,
		MoveSpeedIncrement: 0.02,
		MaxMoveSpeed:       0,

		// Geometry - 50 units of runway
		SpawnPosition:  -50,
		DeletePosition: 0,
		ReferenceTick:  50 * time.Millisecond,

		// Single judged lane with a short queue behind it
		MaxActive:  1,
		MaxPending: 3,

		SpawnOnStart: true,
	}
}

// CasualConfig returns a gentler ramp with a speed cap
func CasualConfig() Config {
	cfg := DefaultConfig()
	cfg.SpawnInterval = 6 * time.Second
	cfg.MinSpawnInterval = time.Second
	cfg.SpawnIntervalDecrement = 30 * time.Millisecond
	cfg.MoveSpeed = 0.15
	cfg.MoveSpeedIncrement = 0.01
	cfg.MaxMoveSpeed = 0.6
	return cfg
}

// ArcadeConfig returns a fast ramp with two judged lanes
func ArcadeConfig() Config {
	cfg := DefaultConfig()
	cfg.SpawnInterval = 3 * time.Second
	cfg.MinSpawnInterval = 500 * time.Millisecond
	cfg.SpawnIntervalDecrement = 100 * time.Millisecond
	cfg.MoveSpeed = 0.3
	cfg.MoveSpeedIncrement = 0.04
	cfg.MaxMoveSpeed = 2.0
	cfg.MaxActive = 2
	cfg.MaxPending = 4
	return cfg
}

// Preset returns a named config: "default", "casual" or "arcade".
func Preset(name string) (Config, error) {
	switch name {
	case "", "default":
		return DefaultConfig(), nil
	case "casual":
		return CasualConfig(), nil
	case "arcade":
		return ArcadeConfig(), nil
	}
	return Config{}, fmt.Errorf("%w: unknown preset %q", ErrInvalidConfig, name)
}

// Validate checks the config is internally consistent.
func (c Config) Validate() error {
	switch {
	case c.SpawnInterval <= 0:
		return fmt.Errorf("%w: spawn interval must be positive", ErrInvalidConfig)
	case c.MinSpawnInterval <= 0 || c.MinSpawnInterval > c.SpawnInterval:
		return fmt.Errorf("%w: min spawn interval must be in (0, spawn interval]", ErrInvalidConfig)
	case c.SpawnIntervalDecrement < 0:
		return fmt.Errorf("%w: spawn interval decrement must not be negative", ErrInvalidConfig)
	case c.MoveSpeed <= 0:
		return fmt.Errorf("%w: move speed must be positive", ErrInvalidConfig)
	case c.MoveSpeedIncrement < 0:
		return fmt.Errorf("%w: move speed increment must not be negative", ErrInvalidConfig)
	case c.MaxMoveSpeed != 0 && c.MaxMoveSpeed < c.MoveSpeed:
		return fmt.Errorf("%w: max move speed below initial speed", ErrInvalidConfig)
	case c.DeletePosition <= c.SpawnPosition:
		return fmt.Errorf("%w: delete position must be ahead of spawn position", ErrInvalidConfig)
	case c.ReferenceTick <= 0:
		return fmt.Errorf("%w: reference tick must be positive", ErrInvalidConfig)
	case c.MaxActive < 1:
		return fmt.Errorf("%w: need at least one active lane", ErrInvalidConfig)
	case c.MaxPending < 0:
		return fmt.Errorf("%w: pending queue size must not be negative", ErrInvalidConfig)
	}
	return nil
}
