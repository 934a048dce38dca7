// Package sim plays headless sessions with a scripted player, for tuning
// difficulty curves without a camera or a scene.
package sim

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/teslashibe/go-poseperfect/internal/log"
	"github.com/teslashibe/go-poseperfect/pkg/game"
	"github.com/teslashibe/go-poseperfect/pkg/mailbox"
	"github.com/teslashibe/go-poseperfect/pkg/pose"
	"github.com/teslashibe/go-poseperfect/pkg/track"
)

// ErrInvalidAccuracy is returned for an accuracy outside [0, 1].
var ErrInvalidAccuracy = errors.New("sim: accuracy must be between 0 and 1")

// Config describes the scripted player and the sessions it plays.
type Config struct {
	Track       track.Config
	Rules       game.Rules
	Accuracy    float64       // Probability of holding the right pose at each contact
	Tick        time.Duration // Simulated tick length
	MaxPlayTime time.Duration // Sessions still running after this are stopped
	ContactZone float64       // Distance before DeletePosition at which the player touches an obstacle
	Seed        uint64        // 0 picks a random seed
}

// DefaultConfig returns a 90% accurate player on the default track.
func DefaultConfig() Config {
	return Config{
		Track:       track.DefaultConfig(),
		Rules:       game.DefaultRules(),
		Accuracy:    0.9,
		Tick:        20 * time.Millisecond,
		MaxPlayTime: 10 * time.Minute,
		ContactZone: 1,
	}
}

// Summary aggregates finished sessions.
type Summary struct {
	Sessions  int            `json:"sessions"`
	Scores    []int          `json:"scores"`
	MeanScore float64        `json:"mean_score"`
	BestScore int            `json:"best_score"`
	Reasons   map[string]int `json:"reasons"`
}

func (s *Summary) add(st game.Stats) {
	s.Sessions++
	s.Scores = append(s.Scores, st.Score)
	if st.Score > s.BestScore {
		s.BestScore = st.Score
	}
	s.Reasons[st.Reason]++

	total := 0
	for _, sc := range s.Scores {
		total += sc
	}
	s.MeanScore = float64(total) / float64(s.Sessions)
}

// Simulator runs sessions one after another on a simulated clock.
type Simulator struct {
	cfg     Config
	catalog *pose.Catalog
	rng     *rand.Rand
}

// New creates a simulator drawing poses from catalog.
func New(cfg Config, catalog *pose.Catalog) (*Simulator, error) {
	if cfg.Accuracy < 0 || cfg.Accuracy > 1 {
		return nil, ErrInvalidAccuracy
	}
	if err := cfg.Track.Validate(); err != nil {
		return nil, err
	}
	def := DefaultConfig()
	if cfg.Tick <= 0 {
		cfg.Tick = def.Tick
	}
	if cfg.MaxPlayTime <= 0 {
		cfg.MaxPlayTime = def.MaxPlayTime
	}
	if cfg.ContactZone <= 0 {
		cfg.ContactZone = def.ContactZone
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Simulator{
		cfg:     cfg,
		catalog: catalog,
		rng:     rand.New(rand.NewPCG(seed, seed^0x2545f4914f6cdd1d)),
	}, nil
}

// Run plays n sessions, calling done after each one. It stops early when
// ctx is cancelled and returns what finished so far.
func (s *Simulator) Run(ctx context.Context, n int, done func(game.Stats)) (Summary, error) {
	sum := Summary{Reasons: make(map[string]int)}
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		st, err := s.Session()
		if err != nil {
			return sum, err
		}
		sum.add(st)
		if done != nil {
			done(st)
		}
	}
	return sum, nil
}

// Session plays one session to its end and returns the final stats.
func (s *Simulator) Session() (game.Stats, error) {
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }

	features := mailbox.New(mailbox.WithClock[pose.FeatureVector](clock))
	m, err := game.NewMachine(s.cfg.Track, s.catalog, features,
		game.WithRules(s.cfg.Rules),
		game.WithClock(clock),
		game.WithLogger(log.Discard()))
	if err != nil {
		return game.Stats{}, err
	}
	if err := m.Start(); err != nil {
		return game.Stats{}, err
	}

	touchAt := s.cfg.Track.DeletePosition - s.cfg.ContactZone
	var played time.Duration

	for m.Status() == game.Running {
		if played >= s.cfg.MaxPlayTime {
			m.Stop()
			break
		}
		now = now.Add(s.cfg.Tick)
		played += s.cfg.Tick
		m.Tick(s.cfg.Tick)

		for _, o := range m.Obstacles() {
			if o.State != track.Active || o.Position < touchAt {
				continue
			}
			features.Publish(s.strike(o.Pose))
			m.OnContact(game.ContactEvent{ObstacleID: o.ID, At: now})
			if m.Status() != game.Running {
				break
			}
		}
	}
	return m.Stats(), nil
}

// strike is the player's pose at contact: the template itself, or with
// probability 1-Accuracy every feature a quarter turn off.
func (s *Simulator) strike(t pose.Template) pose.FeatureVector {
	hit := s.rng.Float64() < s.cfg.Accuracy
	fv := make(pose.FeatureVector, len(t.Features))
	for name, v := range t.Features {
		if !hit {
			v += 90
		}
		fv[name] = v
	}
	return fv
}
