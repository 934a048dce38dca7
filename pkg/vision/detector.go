package vision

import (
	"errors"

	"github.com/teslashibe/go-poseperfect/pkg/pose"
)

var (
	// ErrModelNotFound is returned when the model file does not exist.
	ErrModelNotFound = errors.New("vision: model file not found")

	// ErrEmptyFrame is returned for frames that decode to nothing.
	ErrEmptyFrame = errors.New("vision: empty frame")

	// ErrCameraUnavailable is returned when the camera cannot be opened or read.
	ErrCameraUnavailable = errors.New("vision: camera unavailable")
)

// Detector finds the player's skeleton in a frame.
type Detector interface {
	// Detect returns the most prominent person, or nil when nobody is visible.
	Detect(jpeg []byte) (*pose.Skeleton, error)

	// Close releases resources
	Close() error
}

// FrameSource produces JPEG frames.
type FrameSource interface {
	CaptureJPEG() ([]byte, error)
}

// DetectorFunc adapts a function to Detector.
type DetectorFunc func(jpeg []byte) (*pose.Skeleton, error)

// Detect calls f.
func (f DetectorFunc) Detect(jpeg []byte) (*pose.Skeleton, error) { return f(jpeg) }

// Close does nothing.
func (f DetectorFunc) Close() error { return nil }
