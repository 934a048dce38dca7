package track

import (
	"time"

	"github.com/teslashibe/go-poseperfect/pkg/debug"
	"github.com/teslashibe/go-poseperfect/pkg/pose"
)

// SpawnState is the spawner's difficulty state.
type SpawnState struct {
	Elapsed       time.Duration `json:"elapsed"`
	LastSpawn     time.Duration `json:"last_spawn"`
	SpawnInterval time.Duration `json:"spawn_interval"`
	MoveSpeed     float64       `json:"move_speed"`
	PreviousPose  string        `json:"previous_pose"`
	Spawned       int           `json:"spawned"`
}

// Spawner produces obstacles on a cadence that tightens with every spawn.
type Spawner struct {
	cfg     Config
	catalog *pose.Catalog
	track   *Track
	state   SpawnState
}

// NewSpawner creates a spawner feeding track. The catalog must hold at least one template.
func NewSpawner(cfg Config, catalog *pose.Catalog, track *Track) (*Spawner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if catalog == nil || catalog.Len() == 0 {
		return nil, pose.ErrEmptyCatalog
	}
	return &Spawner{
		cfg:     cfg,
		catalog: catalog,
		track:   track,
		state: SpawnState{
			SpawnInterval: cfg.SpawnInterval,
			MoveSpeed:     cfg.MoveSpeed,
		},
	}, nil
}

// State returns a copy of the spawn state.
func (s *Spawner) State() SpawnState {
	return s.state
}

// MoveSpeed returns the current obstacle speed.
func (s *Spawner) MoveSpeed() float64 {
	return s.state.MoveSpeed
}

// Tick accumulates play time and spawns when the interval has elapsed.
// When the track is full the spawn waits for room; difficulty only ramps on real spawns.
func (s *Spawner) Tick(dt time.Duration) []*Obstacle {
	if dt > 0 {
		s.state.Elapsed += dt
	}
	if s.state.Elapsed-s.state.LastSpawn < s.state.SpawnInterval {
		return nil
	}
	if o := s.spawn(); o != nil {
		return []*Obstacle{o}
	}
	return nil
}

// SpawnNow spawns immediately regardless of the interval. Returns nil if the track is full.
func (s *Spawner) SpawnNow() *Obstacle {
	return s.spawn()
}

// Advance moves play on to the next obstacle after one was resolved: if
// nothing is left on the track, spawn straight away. Queued obstacles were
// already promoted by the track.
func (s *Spawner) Advance() *Obstacle {
	if s.track.Len() > 0 {
		return nil
	}
	return s.spawn()
}

func (s *Spawner) spawn() *Obstacle {
	if !s.track.HasRoom() {
		return nil
	}

	tpl := s.catalog.PickNext(s.state.PreviousPose)
	o := s.track.Add(tpl, s.state.Elapsed)
	if o == nil {
		return nil
	}

	s.state.PreviousPose = tpl.Name
	s.state.LastSpawn = s.state.Elapsed
	s.state.Spawned++

	next := s.state.SpawnInterval - s.cfg.SpawnIntervalDecrement
	if next < s.cfg.MinSpawnInterval {
		next = s.cfg.MinSpawnInterval
	}
	s.state.SpawnInterval = next

	speed := s.state.MoveSpeed + s.cfg.MoveSpeedIncrement
	if s.cfg.MaxMoveSpeed > 0 && speed > s.cfg.MaxMoveSpeed {
		speed = s.cfg.MaxMoveSpeed
	}
	s.state.MoveSpeed = speed

	debug.TickLog("obstacle spawned",
		"id", o.ID, "pose", tpl.Name, "at", s.state.Elapsed,
		"next_interval", s.state.SpawnInterval, "speed", s.state.MoveSpeed)

	return o
}
