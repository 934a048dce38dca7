// Package vision turns camera frames into skeletons and feeds pose features
// to the game through a single-slot mailbox.
package vision

import "fmt"

// CaptureConfig holds camera and sampling parameters.
type CaptureConfig struct {
	DeviceID    int `json:"device_id"`    // OS camera index
	Width       int `json:"width"`        // Frame width in pixels
	Height      int `json:"height"`       // Frame height in pixels
	FPS         int `json:"fps"`          // Target capture rate
	JPEGQuality int `json:"jpeg_quality"` // 1-100
	NthFrame    int `json:"nth_frame"`    // Analyze one frame in N
}

// DefaultCaptureConfig returns 640x480 at 30 FPS, analyzing every 10th frame.
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		DeviceID:    0,
		Width:       640,
		Height:      480,
		FPS:         30,
		JPEGQuality: 80,
		NthFrame:    10,
	}
}

// Validate checks the config and returns all problems found.
func (c CaptureConfig) Validate() []string {
	var errs []string
	if c.Width < 64 || c.Height < 64 {
		errs = append(errs, fmt.Sprintf("resolution %dx%d too small", c.Width, c.Height))
	}
	if c.FPS < 1 || c.FPS > 120 {
		errs = append(errs, fmt.Sprintf("fps %d out of range 1-120", c.FPS))
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		errs = append(errs, fmt.Sprintf("jpeg quality %d out of range 1-100", c.JPEGQuality))
	}
	if c.NthFrame < 1 {
		errs = append(errs, "nth frame must be at least 1")
	}
	return errs
}

// DetectorConfig holds pose model configuration.
type DetectorConfig struct {
	ModelPath        string  // Path to ONNX model
	ConfidenceThresh float32 // Minimum person score
	NMSThresh        float32 // Overlap threshold for suppression
	InputWidth       int     // Model input width
	InputHeight      int     // Model input height
}

// DefaultDetectorConfig returns defaults for yolov8n-pose.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		ModelPath:        "models/yolov8n-pose.onnx",
		ConfidenceThresh: 0.5,
		NMSThresh:        0.45,
		InputWidth:       640,
		InputHeight:      640,
	}
}
