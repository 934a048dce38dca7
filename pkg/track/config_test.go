package track

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfig_Valid(t *testing.T) {
	for _, name := range []string{"default", "casual", "arcade", ""} {
		cfg, err := Preset(name)
		if err != nil {
			t.Fatalf("Preset(%q): %v", name, err)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("Preset(%q) invalid: %v", name, err)
		}
	}
}

func TestPreset_Unknown(t *testing.T) {
	if _, err := Preset("nightmare"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestDefaultConfig_Values(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.SpawnInterval != 5*time.Second {
		t.Errorf("SpawnInterval = %v", cfg.SpawnInterval)
	}
	if cfg.MinSpawnInterval != 200*time.Millisecond {
		t.Errorf("MinSpawnInterval = %v", cfg.MinSpawnInterval)
	}
	if cfg.MoveSpeed != 0.2 || cfg.MoveSpeedIncrement != 0.02 {
		t.Errorf("speed = %v +%v", cfg.MoveSpeed, cfg.MoveSpeedIncrement)
	}
	if cfg.MaxActive != 1 {
		t.Errorf("MaxActive = %d, want single judged lane", cfg.MaxActive)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero interval", func(c *Config) { c.SpawnInterval = 0 }},
		{"min above interval", func(c *Config) { c.MinSpawnInterval = c.SpawnInterval + time.Second }},
		{"negative decrement", func(c *Config) { c.SpawnIntervalDecrement = -time.Millisecond }},
		{"zero speed", func(c *Config) { c.MoveSpeed = 0 }},
		{"negative increment", func(c *Config) { c.MoveSpeedIncrement = -1 }},
		{"cap below speed", func(c *Config) { c.MaxMoveSpeed = 0.1 }},
		{"delete behind spawn", func(c *Config) { c.DeletePosition = -60 }},
		{"zero reference tick", func(c *Config) { c.ReferenceTick = 0 }},
		{"no lanes", func(c *Config) { c.MaxActive = 0 }},
		{"negative queue", func(c *Config) { c.MaxPending = -1 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate = %v, want ErrInvalidConfig", err)
			}
		})
	}
}
