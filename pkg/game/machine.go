// Package game runs a pose-matching session: it ticks the obstacle track,
// judges contacts against the player's latest pose and ends the run on the
// first failed check.
package game

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-poseperfect/internal/log"
	"github.com/teslashibe/go-poseperfect/pkg/debug"
	"github.com/teslashibe/go-poseperfect/pkg/mailbox"
	"github.com/teslashibe/go-poseperfect/pkg/pose"
	"github.com/teslashibe/go-poseperfect/pkg/track"
)

// Machine owns one session and the track it plays on.
//
// Ticks and contacts may come from different goroutines; every mutation
// happens under mu. The status is also kept in an atomic so readers can
// poll it without the lock, and so the Running to GameOver transition is a
// single compare-and-swap.
type Machine struct {
	mu       sync.Mutex
	status   atomic.Int32
	started  bool
	session  Session
	reason   string
	rules    Rules
	matcher  pose.Matcher
	cfg      track.Config
	track    *track.Track
	spawner  *track.Spawner
	features *mailbox.Latest[pose.FeatureVector]

	listeners []func(Stats)
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Machine.
type Option func(*Machine)

// WithSceneSink sends obstacle intents to sink.
func WithSceneSink(sink track.SceneSink) Option {
	return func(m *Machine) {
		m.track.SetSink(sink)
	}
}

// WithLogger sets the logger. Defaults to the global logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = l
	}
}

// WithClock overrides time.Now for session timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		m.now = now
	}
}

// WithRules sets the judging rules. Defaults to DefaultRules.
func WithRules(r Rules) Option {
	return func(m *Machine) {
		m.rules = r
		m.matcher = pose.NewMatcher(r.Tolerance)
	}
}

// NewMachine builds a session that picks poses from catalog and judges
// contacts against the latest value in features.
func NewMachine(cfg track.Config, catalog *pose.Catalog, features *mailbox.Latest[pose.FeatureVector], opts ...Option) (*Machine, error) {
	if features == nil {
		return nil, ErrNoFeatures
	}
	tr, err := track.NewTrack(cfg, nil)
	if err != nil {
		return nil, err
	}
	sp, err := track.NewSpawner(cfg, catalog, tr)
	if err != nil {
		return nil, err
	}

	rules := DefaultRules()
	m := &Machine{
		rules:    rules,
		matcher:  pose.NewMatcher(rules.Tolerance),
		cfg:      cfg,
		track:    tr,
		spawner:  sp,
		features: features,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = log.L()
	}

	m.session = newSession(m.now())
	m.status.Store(int32(Running))
	return m, nil
}

// Start begins play, putting the first obstacle on the track when configured to.
func (m *Machine) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Status() == GameOver {
		return ErrSessionOver
	}
	if m.started {
		return ErrAlreadyStarted
	}
	m.started = true
	m.session.StartedAt = m.now()

	if m.cfg.SpawnOnStart {
		m.spawner.SpawnNow()
	}
	m.logger.Info("session started", "session", m.session.ID)
	return nil
}

// Status returns the session status without taking the lock.
func (m *Machine) Status() Status {
	return Status(m.status.Load())
}

// Tick advances play time by dt: spawns when due, moves obstacles and counts
// misses. Ticks after game over are ignored.
func (m *Machine) Tick(dt time.Duration) {
	var final *Stats

	m.mu.Lock()
	if m.Status() == GameOver || dt <= 0 {
		m.mu.Unlock()
		return
	}

	m.session.Elapsed += dt
	m.spawner.Tick(dt)

	for _, o := range m.track.Advance(dt, m.spawner.MoveSpeed()) {
		m.session.TotalMissed++
		m.logger.Debug("obstacle missed", "session", m.session.ID, "obstacle", o.ID, "pose", o.Pose.Name)
		if m.rules.MissEndsGame {
			final = m.endLocked(ReasonMissed)
			break
		}
	}
	m.mu.Unlock()

	m.notify(final)
}

// OnContact judges a contact with an obstacle against the player's current pose.
//
// A missing or stale pose, or one that doesn't match the obstacle's template,
// ends the session. A match scores a point and moves play on. Contacts after
// game over, for obstacles already resolved or still queued, are ignored.
func (m *Machine) OnContact(ev ContactEvent) Outcome {
	outcome, final := m.contact(ev)
	m.notify(final)
	return outcome
}

func (m *Machine) contact(ev ContactEvent) (Outcome, *Stats) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Status() == GameOver {
		return OutcomeIgnored, nil
	}

	o, ok := m.track.Get(ev.ObstacleID)
	if !ok {
		if m.track.Issued(ev.ObstacleID) {
			return OutcomeIgnored, nil
		}
		m.logger.Warn("contact with unknown obstacle", "session", m.session.ID, "obstacle", ev.ObstacleID)
		return OutcomeUnknown, nil
	}
	if !o.Judgeable() {
		return OutcomeIgnored, nil
	}

	fv, ok := m.features.LoadFresh(m.rules.FeatureMaxAge)
	if !ok {
		m.resolveLocked(o, track.Crashed)
		m.logger.Info("contact without pose", "session", m.session.ID, "obstacle", o.ID, "pose", o.Pose.Name)
		return OutcomeCrashed, m.endLocked(ReasonNoPose)
	}

	if !m.matcher.Matches(fv, o.Pose) {
		m.resolveLocked(o, track.Crashed)
		m.logger.Info("pose mismatch", "session", m.session.ID, "obstacle", o.ID, "pose", o.Pose.Name)
		return OutcomeCrashed, m.endLocked(ReasonPoseMismatch)
	}

	m.resolveLocked(o, track.Passed)
	m.session.Score++
	m.session.TotalPassed++
	m.spawner.Advance()

	debug.Log("obstacle passed", "session", m.session.ID, "obstacle", o.ID, "pose", o.Pose.Name, "score", m.session.Score)
	return OutcomePassed, nil
}

func (m *Machine) resolveLocked(o *track.Obstacle, r track.Resolution) {
	if _, err := m.track.Resolve(o.ID, r); err != nil {
		m.logger.Error("resolve obstacle", "obstacle", o.ID, "error", err)
	}
}

// endLocked moves the session to GameOver. Only the first caller wins; the
// returned stats are non-nil for that caller alone.
func (m *Machine) endLocked(reason string) *Stats {
	if !m.status.CompareAndSwap(int32(Running), int32(GameOver)) {
		return nil
	}
	m.session.Status = GameOver
	m.reason = reason
	st := m.session.stats(reason)

	m.logger.Info("game over",
		"session", st.SessionID,
		"reason", reason,
		"score", st.Score,
		"passed", st.TotalPassed,
		"missed", st.TotalMissed,
		"elapsed", m.session.Elapsed)
	return &st
}

// Stop ends a running session without a failed check, e.g. on shutdown.
func (m *Machine) Stop() {
	m.mu.Lock()
	final := m.endLocked(ReasonStopped)
	m.mu.Unlock()
	m.notify(final)
}

func (m *Machine) notify(final *Stats) {
	if final == nil {
		return
	}
	m.mu.Lock()
	listeners := append([]func(Stats){}, m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(*final)
	}
}

// OnGameOver registers fn to receive the final stats once, when the session ends.
func (m *Machine) OnGameOver(fn func(Stats)) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// Stats returns a snapshot of the session.
func (m *Machine) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.stats(m.reason)
}

// Session returns a copy of the session.
func (m *Machine) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Obstacles returns copies of the obstacles on the track.
func (m *Machine) Obstacles() []track.Obstacle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.track.Snapshot()
}

// SpawnState returns the spawner's difficulty state.
func (m *Machine) SpawnState() track.SpawnState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.spawner.State()
}

// Rules returns the current judging rules.
func (m *Machine) Rules() Rules {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rules
}

// SetRules replaces the judging rules; the next contact uses them.
func (m *Machine) SetRules(r Rules) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = r
	m.matcher = pose.NewMatcher(r.Tolerance)
	m.rules.Tolerance = m.matcher.Tolerance
	m.logger.Info("rules updated", "tolerance", m.rules.Tolerance, "feature_max_age", m.rules.FeatureMaxAge, "miss_ends_game", m.rules.MissEndsGame)
}
