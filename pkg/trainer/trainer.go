// Package trainer is the practice mode: hold one pose and get live
// per-feature feedback, with no obstacles and no game over.
package trainer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-poseperfect/internal/log"
	"github.com/teslashibe/go-poseperfect/pkg/mailbox"
	"github.com/teslashibe/go-poseperfect/pkg/pose"
)

// DefaultInterval matches the game tick.
const DefaultInterval = 20 * time.Millisecond

// Feedback is the result of evaluating the player's pose against the target.
type Feedback struct {
	Pose     string               `json:"pose"`
	Matched  bool                 `json:"matched"`
	Detected bool                 `json:"detected"`
	Results  []pose.FeatureResult `json:"results,omitempty"`
	Streak   int                  `json:"streak"`
	Best     int                  `json:"best"`
}

// Message is a one-line summary for display.
func (f Feedback) Message() string {
	switch {
	case !f.Detected:
		return "No pose detected"
	case f.Matched:
		return "Matched " + f.Pose
	default:
		return "Keep adjusting"
	}
}

// Sink receives feedback when it changes.
type Sink func(Feedback)

// Trainer evaluates the latest features against a single template.
type Trainer struct {
	mu       sync.Mutex
	template pose.Template
	matcher  pose.Matcher
	features *mailbox.Latest[pose.FeatureVector]
	maxAge   time.Duration
	interval time.Duration
	streak   int
	best     int
	logger   *slog.Logger
}

// Option configures a Trainer.
type Option func(*Trainer)

// WithTolerance sets the match tolerance in degrees.
func WithTolerance(deg float64) Option {
	return func(t *Trainer) { t.matcher = pose.NewMatcher(deg) }
}

// WithMaxAge treats features older than d as no pose.
func WithMaxAge(d time.Duration) Option {
	return func(t *Trainer) { t.maxAge = d }
}

// WithInterval sets how often Run evaluates.
func WithInterval(d time.Duration) Option {
	return func(t *Trainer) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Trainer) { t.logger = l }
}

// New creates a trainer for the named template.
func New(catalog *pose.Catalog, name string, features *mailbox.Latest[pose.FeatureVector], opts ...Option) (*Trainer, error) {
	if catalog == nil {
		return nil, pose.ErrEmptyCatalog
	}
	tpl, err := catalog.Lookup(name)
	if err != nil {
		return nil, err
	}
	t := &Trainer{
		template: tpl,
		matcher:  pose.NewMatcher(pose.DefaultTolerance),
		features: features,
		maxAge:   time.Second,
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = log.L()
	}
	return t, nil
}

// Pose returns the template being practised.
func (t *Trainer) Pose() pose.Template {
	return t.template
}

// Evaluate judges fv and updates the streak. A nil vector means no pose.
func (t *Trainer) Evaluate(fv pose.FeatureVector) Feedback {
	t.mu.Lock()
	defer t.mu.Unlock()

	fb := Feedback{Pose: t.template.Name, Detected: fv != nil}
	if fb.Detected {
		fb.Results = t.matcher.Compare(fv, t.template)
		fb.Matched = t.matcher.Matches(fv, t.template)
	}

	if fb.Matched {
		t.streak++
		if t.streak > t.best {
			t.best = t.streak
		}
	} else {
		t.streak = 0
	}
	fb.Streak = t.streak
	fb.Best = t.best
	return fb
}

// Streak returns consecutive matched evaluations.
func (t *Trainer) Streak() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.streak
}

// Best returns the longest streak so far.
func (t *Trainer) Best() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.best
}

// Current evaluates whatever is in the mailbox now.
func (t *Trainer) Current() Feedback {
	fv, ok := t.features.LoadFresh(t.maxAge)
	if !ok {
		fv = nil
	}
	return t.Evaluate(fv)
}

// Run evaluates on every interval until ctx is done, calling sink whenever
// the pose appears, disappears or flips between matched and not.
func (t *Trainer) Run(ctx context.Context, sink Sink) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.logger.Info("training started", "pose", t.template.Name, "tolerance", t.matcher.Tolerance)

	var last *Feedback
	for {
		select {
		case <-ctx.Done():
			t.logger.Info("training stopped", "pose", t.template.Name, "best_streak", t.Best())
			return ctx.Err()

		case <-ticker.C:
			fb := t.Current()
			if last != nil && last.Detected == fb.Detected && last.Matched == fb.Matched {
				continue
			}
			last = &fb
			if sink != nil {
				sink(fb)
			}
		}
	}
}
