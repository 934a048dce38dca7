package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-poseperfect/internal/config"
	"github.com/teslashibe/go-poseperfect/internal/log"
	"github.com/teslashibe/go-poseperfect/pkg/gateway"
	"github.com/teslashibe/go-poseperfect/pkg/pose"
	"github.com/teslashibe/go-poseperfect/pkg/protocol"
	"github.com/teslashibe/go-poseperfect/pkg/vision"
)

var visionOpts struct {
	capture vision.CaptureConfig
	preset  string
	model   string
}

var cameraServer string

var cameraCmd = &cobra.Command{
	Use:   "camera",
	Short: "Detect poses from a local webcam and stream skeletons to a game server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCamera(cmd)
	},
}

func init() {
	addVisionFlags(cameraCmd)
	cameraCmd.Flags().StringVar(&cameraServer, "server", config.ServerURL(), "Game server websocket URL")
	rootCmd.AddCommand(cameraCmd)
}

func addVisionFlags(cmd *cobra.Command) {
	def := vision.DefaultCaptureConfig()
	f := cmd.Flags()
	f.IntVar(&visionOpts.capture.DeviceID, "device", def.DeviceID, "Webcam device ID")
	f.IntVar(&visionOpts.capture.Width, "width", def.Width, "Capture width")
	f.IntVar(&visionOpts.capture.Height, "height", def.Height, "Capture height")
	f.IntVar(&visionOpts.capture.FPS, "fps", def.FPS, "Capture rate")
	f.IntVar(&visionOpts.capture.JPEGQuality, "quality", def.JPEGQuality, "JPEG quality")
	f.IntVar(&visionOpts.capture.NthFrame, "nth-frame", def.NthFrame, "Analyze every Nth frame")
	f.StringVar(&visionOpts.preset, "camera-preset", vision.PresetDefault, fmt.Sprintf("Capture preset %v; explicit flags override it", vision.CapturePresetNames()))
	f.StringVar(&visionOpts.model, "model", config.ModelPath(), "YOLOv8-pose ONNX model")
}

// captureConfig applies --camera-preset, then any capture flags set explicitly.
func captureConfig(cmd *cobra.Command) (vision.CaptureConfig, error) {
	cfg, err := vision.CapturePreset(visionOpts.preset)
	if err != nil {
		return cfg, err
	}
	f := cmd.Flags()
	overrides := []struct {
		flag string
		dst  *int
		src  int
	}{
		{"device", &cfg.DeviceID, visionOpts.capture.DeviceID},
		{"width", &cfg.Width, visionOpts.capture.Width},
		{"height", &cfg.Height, visionOpts.capture.Height},
		{"fps", &cfg.FPS, visionOpts.capture.FPS},
		{"quality", &cfg.JPEGQuality, visionOpts.capture.JPEGQuality},
		{"nth-frame", &cfg.NthFrame, visionOpts.capture.NthFrame},
	}
	for _, o := range overrides {
		if f.Changed(o.flag) {
			*o.dst = o.src
		}
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return cfg, fmt.Errorf("invalid capture config: %v", errs)
	}
	return cfg, nil
}

// openVision opens the webcam and the pose model; close both when done.
func openVision(capture vision.CaptureConfig) (*vision.WebcamSource, *vision.YOLOPoseDetector, error) {
	dcfg := vision.DefaultDetectorConfig()
	dcfg.ModelPath = visionOpts.model
	det, err := vision.NewYOLOPose(dcfg)
	if err != nil {
		return nil, nil, err
	}
	cam, err := vision.OpenWebcam(capture)
	if err != nil {
		det.Close()
		return nil, nil, err
	}
	return cam, det, nil
}

func runCamera(cmd *cobra.Command) error {
	ctx := cmd.Context()
	capture, err := captureConfig(cmd)
	if err != nil {
		return err
	}
	cam, det, err := openVision(capture)
	if err != nil {
		return err
	}
	defer cam.Close()
	defer det.Close()

	client, err := gateway.Dial(ctx, cameraServer)
	if err != nil {
		return err
	}
	defer client.Close()
	log.Info("streaming skeletons", "server", cameraServer, "device", capture.DeviceID, "size", fmt.Sprintf("%dx%d", capture.Width, capture.Height))

	go func() {
		err := client.ReadLoop(func(msg *protocol.Message) {
			if msg.Type != protocol.TypeGameOver {
				return
			}
			if st, err := msg.GetStatusData(); err == nil {
				log.Info("game over", "score", st.Score, "reason", st.Reason)
			}
		})
		if err != nil {
			log.Warn("server connection closed", "error", err)
		}
	}()

	// The server extracts features itself; only raw skeletons go out.
	pipeline := vision.NewPipeline(det, nil, capture.NthFrame,
		vision.WithPipelineLogger(log.With("component", "vision")),
		vision.WithSkeletonSink(func(s *pose.Skeleton) {
			if err := client.SendSkeleton(s); err != nil {
				log.Warn("send skeleton", "error", err)
			}
		}))

	err = pipeline.Run(ctx, cam, capture.FPS)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
