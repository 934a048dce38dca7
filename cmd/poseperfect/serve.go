package main

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-poseperfect/internal/config"
	"github.com/teslashibe/go-poseperfect/internal/log"
	"github.com/teslashibe/go-poseperfect/pkg/game"
	"github.com/teslashibe/go-poseperfect/pkg/gateway"
	"github.com/teslashibe/go-poseperfect/pkg/mailbox"
	"github.com/teslashibe/go-poseperfect/pkg/pose"
	"github.com/teslashibe/go-poseperfect/pkg/track"
	"github.com/teslashibe/go-poseperfect/pkg/vision"
	"github.com/teslashibe/go-poseperfect/pkg/web"
)

var serveOpts struct {
	port         string
	tick         time.Duration
	tolerance    float64
	maxAge       time.Duration
	missEnds     bool
	preset       string
	restart      bool
	restartDelay time.Duration
	detect       bool
	model        string
	nthFrame     int
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the game server and dashboard",
	Long: `Runs a session and serves:
  ws://HOST:PORT/ws/play     scene and vision collaborators
  http://HOST:PORT/api/...   status, poses, tuning, events
  ws://HOST:PORT/ws/status   live session snapshots`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveOpts.port, "port", config.Port(), "HTTP port")
	f.DurationVar(&serveOpts.tick, "tick", config.Duration("GAME_TICK", game.DefaultEngineConfig().TickInterval), "Game tick interval")
	f.Float64Var(&serveOpts.tolerance, "tolerance", config.Tolerance(pose.DefaultTolerance), "Max per-feature angle error in degrees")
	f.DurationVar(&serveOpts.maxAge, "feature-max-age", game.DefaultRules().FeatureMaxAge, "Features older than this count as no pose (0 = never stale)")
	f.BoolVar(&serveOpts.missEnds, "miss-ends-game", false, "End the session when an obstacle passes untouched")
	f.StringVar(&serveOpts.preset, "preset", "default", "Difficulty preset (default, casual, arcade)")
	f.BoolVar(&serveOpts.restart, "restart", false, "Start a new session after game over")
	f.DurationVar(&serveOpts.restartDelay, "restart-delay", 3*time.Second, "Pause between sessions with --restart")
	f.BoolVar(&serveOpts.detect, "detect", false, "Run the pose model on frames received over /ws/play")
	f.StringVar(&serveOpts.model, "model", config.ModelPath(), "YOLOv8-pose ONNX model for --detect")
	f.IntVar(&serveOpts.nthFrame, "nth-frame", vision.DefaultCaptureConfig().NthFrame, "Analyze every Nth received frame")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	catalog, err := loadCatalog(ctx)
	if err != nil {
		return err
	}
	cfg, err := track.Preset(serveOpts.preset)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	rules := game.DefaultRules()
	rules.Tolerance = serveOpts.tolerance
	rules.FeatureMaxAge = serveOpts.maxAge
	rules.MissEndsGame = serveOpts.missEnds

	features := mailbox.New[pose.FeatureVector]()
	gw := gateway.New(log.With("component", "gateway"))
	dash := web.NewServer(web.Config{
		Port:    serveOpts.port,
		Version: Version,
		Debug:   debugMode,
	}, catalog)

	gw.RegisterRoutes(dash.App())
	gw.RegisterAPIRoutes(dash.App().Group("/api"))

	var current atomic.Pointer[game.Engine]

	gw.OnSkeleton(func(connID string, s *pose.Skeleton) {
		if s == nil {
			features.Clear()
			return
		}
		features.Publish(pose.ExtractFeatures(s))
	})
	gw.OnFeatures(func(connID string, fv pose.FeatureVector) {
		features.Publish(fv)
	})
	gw.OnContact(func(connID string, obstacleID uint64) {
		if e := current.Load(); e != nil {
			e.Contact(game.ContactEvent{ObstacleID: obstacleID})
		}
	})

	var pipeline *vision.Pipeline
	if serveOpts.detect {
		dcfg := vision.DefaultDetectorConfig()
		dcfg.ModelPath = serveOpts.model
		det, err := vision.NewYOLOPose(dcfg)
		if err != nil {
			return err
		}
		defer det.Close()
		pipeline = vision.NewPipeline(det, features, serveOpts.nthFrame,
			vision.WithPipelineLogger(log.With("component", "vision")))
		defer pipeline.Wait()
		registerPipelineMetrics(dash, pipeline)
	}
	gw.OnFrame(func(connID string, jpeg []byte) {
		if pipeline != nil {
			pipeline.Submit(jpeg)
		}
		dash.SendPreviewFrame(jpeg)
	})
	registerGatewayMetrics(dash, gw)

	engineCfg := game.DefaultEngineConfig()
	engineCfg.TickInterval = serveOpts.tick

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- dash.Start(ctx)
	}()

	log.Info("serving",
		"port", serveOpts.port,
		"preset", serveOpts.preset,
		"poses", catalog.Len(),
		"tolerance", rules.Tolerance,
		"play", fmt.Sprintf("ws://localhost:%s/ws/play", serveOpts.port))

	for {
		m, err := game.NewMachine(cfg, catalog, features,
			game.WithRules(rules),
			game.WithSceneSink(track.MultiSink{gw, dash}),
			game.WithLogger(log.With("component", "game")))
		if err != nil {
			return err
		}
		engine := game.NewEngine(m, engineCfg, gw, dash)
		dash.SetGame(m)
		current.Store(engine)

		st, err := engine.Run(ctx)
		current.Store(nil)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			return err
		}
		log.Info("session finished", "session", st.SessionID, "score", st.Score, "reason", st.Reason)

		if !serveOpts.restart {
			break
		}
		// Carry dashboard tuning into the next session.
		rules = m.Rules()
		features.Clear()

		select {
		case <-ctx.Done():
			return <-serverErr
		case err := <-serverErr:
			return err
		case <-time.After(serveOpts.restartDelay):
		}
	}

	if ctx.Err() != nil {
		return <-serverErr
	}
	return dash.Shutdown()
}

func registerGatewayMetrics(dash *web.Server, gw *gateway.Gateway) {
	dash.AddMetric(web.Metric{
		Name: "poseperfect_gateway_connections", Help: "Connected collaborators",
		Value: func() float64 { return float64(gw.ConnCount()) },
	})
	dash.AddMetric(web.Metric{
		Name: "poseperfect_gateway_messages_received", Help: "Messages received from collaborators", Kind: "counter",
		Value: func() float64 { return float64(gw.GetStats().MessagesReceived) },
	})
	dash.AddMetric(web.Metric{
		Name: "poseperfect_gateway_messages_dropped", Help: "Messages dropped for slow collaborators", Kind: "counter",
		Value: func() float64 { return float64(gw.GetStats().MessagesDropped) },
	})
}

func registerPipelineMetrics(dash *web.Server, p *vision.Pipeline) {
	dash.AddMetric(web.Metric{
		Name: "poseperfect_frames_analyzed", Help: "Frames run through the pose model", Kind: "counter",
		Value: func() float64 { return float64(p.Stats().Analyzed) },
	})
	dash.AddMetric(web.Metric{
		Name: "poseperfect_frames_dropped", Help: "Sampled frames skipped while the model was busy", Kind: "counter",
		Value: func() float64 { return float64(p.Stats().Dropped) },
	})
	dash.AddMetric(web.Metric{
		Name: "poseperfect_detection_failures", Help: "Frames the model could not analyze", Kind: "counter",
		Value: func() float64 { return float64(p.Stats().Failures) },
	})
}
