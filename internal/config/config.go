// Package config provides environment-based configuration helpers for go-poseperfect commands.
package config

import (
	"os"
	"strconv"
	"time"
)

// Defaults used when the environment does not say otherwise.
const (
	DefaultPort      = "8080"
	DefaultLogLevel  = "info"
	DefaultServerURL = "ws://localhost:8080/ws/play"
	DefaultModelPath = "models/yolov8n-pose.onnx"
)

// String returns the env var value or the fallback when unset/empty.
func String(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Float returns the env var parsed as float64, or the fallback when unset or unparsable.
func Float(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

// Int returns the env var parsed as int, or the fallback.
func Int(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// Duration returns the env var parsed with time.ParseDuration, or the fallback.
func Duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// Bool returns the env var parsed with strconv.ParseBool, or the fallback.
func Bool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// Port returns the HTTP port from PORT.
func Port() string {
	return String("PORT", DefaultPort)
}

// LogLevel returns the log level from LOG_LEVEL.
func LogLevel() string {
	return String("LOG_LEVEL", DefaultLogLevel)
}

// CatalogPath returns the pose catalog file from POSE_CATALOG.
// Empty means the built-in catalog.
func CatalogPath() string {
	return os.Getenv("POSE_CATALOG")
}

// Tolerance returns the match tolerance in degrees from POSE_TOLERANCE.
func Tolerance(fallback float64) float64 {
	return Float("POSE_TOLERANCE", fallback)
}

// ModelPath returns the pose model path from POSE_MODEL.
func ModelPath() string {
	return String("POSE_MODEL", DefaultModelPath)
}

// ServerURL returns the game server websocket URL from GAME_SERVER_URL.
func ServerURL() string {
	return String("GAME_SERVER_URL", DefaultServerURL)
}
