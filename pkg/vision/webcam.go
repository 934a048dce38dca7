package vision

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// WebcamSource captures JPEG frames from a local camera.
type WebcamSource struct {
	mu      sync.Mutex
	capture *gocv.VideoCapture
	frame   gocv.Mat
	config  CaptureConfig
}

// OpenWebcam opens the camera described by cfg.
func OpenWebcam(cfg CaptureConfig) (*WebcamSource, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid capture config: %v", errs)
	}

	capture, err := gocv.OpenVideoCapture(cfg.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: device %d: %v", ErrCameraUnavailable, cfg.DeviceID, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: device %d", ErrCameraUnavailable, cfg.DeviceID)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	capture.Set(gocv.VideoCaptureFPS, float64(cfg.FPS))

	return &WebcamSource{
		capture: capture,
		frame:   gocv.NewMat(),
		config:  cfg,
	}, nil
}

// Config returns the capture config.
func (w *WebcamSource) Config() CaptureConfig {
	return w.config
}

// CaptureJPEG reads one frame and encodes it.
func (w *WebcamSource) CaptureJPEG() ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if ok := w.capture.Read(&w.frame); !ok {
		return nil, fmt.Errorf("%w: read failed", ErrCameraUnavailable)
	}
	if w.frame.Empty() {
		return nil, ErrEmptyFrame
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, w.frame, []int{gocv.IMWriteJpegQuality, w.config.JPEGQuality})
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// Close releases the camera.
func (w *WebcamSource) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.frame.Close()
	return w.capture.Close()
}
