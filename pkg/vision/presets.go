package vision

import "fmt"

// Capture preset names.
const (
	PresetDefault = "default"
	PresetLow     = "low"
	Preset720p    = "720p"
)

// CapturePresetNames lists the presets in order of increasing cost.
func CapturePresetNames() []string {
	return []string{PresetLow, PresetDefault, Preset720p}
}

// CapturePreset returns a named capture config.
func CapturePreset(name string) (CaptureConfig, error) {
	cfg := DefaultCaptureConfig()
	switch name {
	case "", PresetDefault:
	case PresetLow:
		// Slow machines: small frames, analyzed more often since each is cheap
		cfg.Width = 320
		cfg.Height = 240
		cfg.FPS = 15
		cfg.JPEGQuality = 70
		cfg.NthFrame = 3
	case Preset720p:
		cfg.Width = 1280
		cfg.Height = 720
		cfg.JPEGQuality = 85
		cfg.NthFrame = 15
	default:
		return CaptureConfig{}, fmt.Errorf("vision: unknown capture preset %q (have %v)", name, CapturePresetNames())
	}
	return cfg, nil
}
