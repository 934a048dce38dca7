// Package debug provides global verbose-logging flags
package debug

import "github.com/teslashibe/go-poseperfect/internal/log"

// Enabled controls whether debug logging is active
var Enabled bool

// Pose controls per-feature match traces (very verbose, one line per compared feature)
var Pose bool

// Ticks controls per-tick spawner/track traces
var Ticks bool

// Log logs a debug message only if debug mode is enabled
func Log(msg string, args ...any) {
	if Enabled {
		log.Debug(msg, args...)
	}
}

// PoseLog logs only if pose tracing is enabled
func PoseLog(msg string, args ...any) {
	if Pose {
		log.Debug(msg, args...)
	}
}

// TickLog logs only if tick tracing is enabled
func TickLog(msg string, args ...any) {
	if Ticks {
		log.Debug(msg, args...)
	}
}
