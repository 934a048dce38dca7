package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-poseperfect/internal/log"
	"github.com/teslashibe/go-poseperfect/pkg/mailbox"
	"github.com/teslashibe/go-poseperfect/pkg/pose"
	"github.com/teslashibe/go-poseperfect/pkg/trainer"
	"github.com/teslashibe/go-poseperfect/pkg/vision"
)

var trainTolerance float64

var trainCmd = &cobra.Command{
	Use:   "train <pose>",
	Short: "Practice a single pose with live feedback from the webcam",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrain(cmd, args[0])
	},
}

func init() {
	addVisionFlags(trainCmd)
	trainCmd.Flags().Float64Var(&trainTolerance, "tolerance", pose.DefaultTolerance, "Max per-feature angle error in degrees")
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, name string) error {
	ctx := cmd.Context()
	catalog, err := loadCatalog(ctx)
	if err != nil {
		return err
	}

	features := mailbox.New[pose.FeatureVector]()
	tr, err := trainer.New(catalog, name, features, trainer.WithTolerance(trainTolerance))
	if err != nil {
		return fmt.Errorf("%w (available: %s)", err, strings.Join(catalog.Names(), ", "))
	}

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

	pipeline := vision.NewPipeline(det, features, capture.NthFrame,
		vision.WithPipelineLogger(log.With("component", "vision")))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := pipeline.Run(ctx, cam, capture.FPS); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("vision pipeline", "error", err)
			cancel()
		}
	}()

	fmt.Printf("Hold %q. Ctrl+C to stop.\n", name)
	err = tr.Run(ctx, printFeedback)
	fmt.Printf("Best streak: %d\n", tr.Best())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printFeedback(fb trainer.Feedback) {
	fmt.Println(fb.Message())
	if !fb.Detected || fb.Matched {
		return
	}
	for _, r := range fb.Results {
		if r.Within {
			continue
		}
		fmt.Printf("  %-22s off by %+.0f°\n", r.Feature, r.Delta)
	}
}
