package vision

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-poseperfect/internal/log"
	"github.com/teslashibe/go-poseperfect/pkg/mailbox"
	"github.com/teslashibe/go-poseperfect/pkg/pose"
)

// SkeletonSink receives every analysis result; nil means nobody was detected.
type SkeletonSink func(*pose.Skeleton)

// PipelineStats counts frames through the pipeline.
type PipelineStats struct {
	Frames   uint64 `json:"frames"`   // Frames offered
	Analyzed uint64 `json:"analyzed"` // Frames sent to the detector
	Dropped  uint64 `json:"dropped"`  // Sampled frames skipped because the detector was busy
	Detected uint64 `json:"detected"` // Analyses that found a person
	Failures uint64 `json:"failures"` // Detector or capture errors
}

// Pipeline samples every Nth frame, runs the detector off the caller's
// goroutine and publishes features to the mailbox. Failures never
// propagate: they clear the mailbox so the game sees "no pose".
type Pipeline struct {
	detector Detector
	out      *mailbox.Latest[pose.FeatureVector]
	nth      uint64
	sink     SkeletonSink
	logger   *slog.Logger

	busy     atomic.Bool
	wg       sync.WaitGroup
	frames   atomic.Uint64
	analyzed atomic.Uint64
	dropped  atomic.Uint64
	detected atomic.Uint64
	failures atomic.Uint64
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithSkeletonSink forwards raw skeletons, e.g. to a remote game server.
func WithSkeletonSink(s SkeletonSink) PipelineOption {
	return func(p *Pipeline) { p.sink = s }
}

// WithPipelineLogger sets the logger.
func WithPipelineLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = l }
}

// NewPipeline creates a pipeline analyzing one frame in nth. out may be nil
// when only the skeleton sink is wanted.
func NewPipeline(detector Detector, out *mailbox.Latest[pose.FeatureVector], nth int, opts ...PipelineOption) *Pipeline {
	if nth < 1 {
		nth = 1
	}
	p := &Pipeline{
		detector: detector,
		out:      out,
		nth:      uint64(nth),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.L()
	}
	return p
}

// Submit offers a frame. Every Nth frame is analyzed in the background if
// the detector is idle; otherwise the frame is dropped. Never blocks.
// Returns true if the frame was handed to the detector.
func (p *Pipeline) Submit(jpeg []byte) bool {
	n := p.frames.Add(1)
	if n%p.nth != 0 {
		return false
	}
	if !p.busy.CompareAndSwap(false, true) {
		p.dropped.Add(1)
		return false
	}

	p.analyzed.Add(1)
	p.wg.Add(1)
	go p.analyze(jpeg)
	return true
}

func (p *Pipeline) analyze(jpeg []byte) {
	defer p.wg.Done()
	defer p.busy.Store(false)

	skel, err := p.detector.Detect(jpeg)
	if err != nil {
		p.failures.Add(1)
		p.logger.Debug("pose detection failed", "error", err)
		skel = nil
	}
	p.publish(skel)
}

func (p *Pipeline) publish(skel *pose.Skeleton) {
	if skel == nil || skel.Len() == 0 {
		if p.out != nil {
			p.out.Clear()
		}
		if p.sink != nil {
			p.sink(nil)
		}
		return
	}

	p.detected.Add(1)
	if p.out != nil {
		p.out.Publish(pose.ExtractFeatures(skel))
	}
	if p.sink != nil {
		p.sink(skel)
	}
}

// Run captures from src at fps until ctx is done, submitting every frame.
// Capture errors count as failed analyses and clear the mailbox.
func (p *Pipeline) Run(ctx context.Context, src FrameSource, fps int) error {
	if fps < 1 {
		fps = DefaultCaptureConfig().FPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	p.logger.Info("vision pipeline started", "fps", fps, "nth_frame", p.nth)

	for {
		select {
		case <-ctx.Done():
			p.Wait()
			st := p.Stats()
			p.logger.Info("vision pipeline stopped",
				"frames", st.Frames, "analyzed", st.Analyzed, "dropped", st.Dropped, "failures", st.Failures)
			return ctx.Err()

		case <-ticker.C:
			jpeg, err := src.CaptureJPEG()
			if err != nil {
				p.failures.Add(1)
				p.logger.Debug("capture failed", "error", err)
				if p.out != nil {
					p.out.Clear()
				}
				continue
			}
			p.Submit(jpeg)
		}
	}
}

// Wait blocks until any in-flight analysis finishes.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Stats returns frame counters.
func (p *Pipeline) Stats() PipelineStats {
	return PipelineStats{
		Frames:   p.frames.Load(),
		Analyzed: p.analyzed.Load(),
		Dropped:  p.dropped.Load(),
		Detected: p.detected.Load(),
		Failures: p.failures.Load(),
	}
}
