package track

import (
	"fmt"
	"time"

	"github.com/teslashibe/go-poseperfect/pkg/debug"
	"github.com/teslashibe/go-poseperfect/pkg/pose"
)

// Track holds in-flight obstacles in spawn order and moves the active ones.
// It is not safe for concurrent use; the game machine serializes access.
type Track struct {
	cfg       Config
	sink      SceneSink
	obstacles []*Obstacle // pending and active, oldest first
	nextID    uint64
}

// NewTrack creates an empty track. sink may be nil.
func NewTrack(cfg Config, sink SceneSink) (*Track, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Track{cfg: cfg, sink: sink, nextID: 1}, nil
}

// SetSink replaces the scene sink.
func (t *Track) SetSink(sink SceneSink) {
	t.sink = sink
}

func (t *Track) emit(i Intent) {
	if t.sink != nil {
		t.sink.Emit(i)
	}
}

// Capacity returns how many obstacles the track can hold at once.
func (t *Track) Capacity() int {
	return t.cfg.MaxActive + t.cfg.MaxPending
}

// HasRoom reports whether another obstacle can be queued.
func (t *Track) HasRoom() bool {
	return len(t.obstacles) < t.Capacity()
}

// Add queues a new obstacle bound to p and activates it if a lane is free.
// Returns nil when the track is full.
func (t *Track) Add(p pose.Template, spawnTime time.Duration) *Obstacle {
	if !t.HasRoom() {
		return nil
	}
	o := &Obstacle{
		ID:        t.nextID,
		SpawnTime: spawnTime,
		Position:  t.cfg.SpawnPosition,
		Pose:      p,
		State:     Pending,
	}
	t.nextID++
	t.obstacles = append(t.obstacles, o)
	t.promote()
	return o
}

// promote activates pending obstacles, oldest first, while lanes are free.
func (t *Track) promote() {
	active := 0
	for _, o := range t.obstacles {
		if o.State == Active {
			active++
		}
	}
	for _, o := range t.obstacles {
		if active >= t.cfg.MaxActive {
			return
		}
		if o.State != Pending {
			continue
		}
		o.State = Active
		o.Position = t.cfg.SpawnPosition
		active++
		t.emit(Intent{Kind: IntentCreate, ObstacleID: o.ID, Position: o.Position, Pose: o.Pose.Name})
	}
}

// Advance moves every active obstacle by moveSpeed scaled to the tick length.
// Obstacles reaching the delete position unresolved are resolved as Missed,
// removed, and returned.
func (t *Track) Advance(dt time.Duration, moveSpeed float64) []*Obstacle {
	if dt <= 0 || len(t.obstacles) == 0 {
		return nil
	}

	step := moveSpeed * float64(dt) / float64(t.cfg.ReferenceTick)
	var missed []*Obstacle

	for _, o := range t.obstacles {
		if o.State != Active {
			continue
		}
		o.Position += step
		t.emit(Intent{Kind: IntentMove, ObstacleID: o.ID, Position: o.Position, Delta: step, Pose: o.Pose.Name})

		if o.Position >= t.cfg.DeletePosition {
			missed = append(missed, o)
		}
	}

	for _, o := range missed {
		t.remove(o, Missed)
		debug.TickLog("obstacle missed", "id", o.ID, "pose", o.Pose.Name)
	}
	if len(missed) > 0 {
		t.promote()
	}
	return missed
}

// Resolve removes an obstacle with the given resolution and promotes the next pending one.
func (t *Track) Resolve(id uint64, r Resolution) (*Obstacle, error) {
	for _, o := range t.obstacles {
		if o.ID == id {
			t.remove(o, r)
			t.promote()
			return o, nil
		}
	}
	if t.Issued(id) {
		return nil, fmt.Errorf("%w: %d", ErrAlreadyResolved, id)
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownObstacle, id)
}

func (t *Track) remove(o *Obstacle, r Resolution) {
	wasActive := o.State == Active
	o.State = Resolved
	o.Resolution = r

	kept := t.obstacles[:0]
	for _, x := range t.obstacles {
		if x != o {
			kept = append(kept, x)
		}
	}
	for i := len(kept); i < len(t.obstacles); i++ {
		t.obstacles[i] = nil
	}
	t.obstacles = kept

	if wasActive {
		t.emit(Intent{Kind: IntentDestroy, ObstacleID: o.ID, Position: o.Position, Pose: o.Pose.Name, Resolution: r.String()})
	}
}

// Issued reports whether id was ever handed out by this track.
func (t *Track) Issued(id uint64) bool {
	return id > 0 && id < t.nextID
}

// Get returns an in-flight obstacle.
func (t *Track) Get(id uint64) (*Obstacle, bool) {
	for _, o := range t.obstacles {
		if o.ID == id {
			return o, true
		}
	}
	return nil, false
}

// Active returns obstacles currently moving, oldest first.
func (t *Track) Active() []*Obstacle {
	return t.filter(Active)
}

// Pending returns queued obstacles, oldest first.
func (t *Track) Pending() []*Obstacle {
	return t.filter(Pending)
}

func (t *Track) filter(state Lifecycle) []*Obstacle {
	var out []*Obstacle
	for _, o := range t.obstacles {
		if o.State == state {
			out = append(out, o)
		}
	}
	return out
}

// Len returns the number of in-flight obstacles.
func (t *Track) Len() int {
	return len(t.obstacles)
}

// Snapshot returns copies of all in-flight obstacles.
func (t *Track) Snapshot() []Obstacle {
	out := make([]Obstacle, len(t.obstacles))
	for i, o := range t.obstacles {
		out[i] = *o
	}
	return out
}
