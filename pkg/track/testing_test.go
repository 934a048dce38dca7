package track

import (
	"sync"
	"testing"

	"github.com/teslashibe/go-poseperfect/pkg/pose"
)

// recorder is a SceneSink that keeps every intent.
type recorder struct {
	mu      sync.Mutex
	intents []Intent
}

func (r *recorder) Emit(i Intent) {
	r.mu.Lock()
	r.intents = append(r.intents, i)
	r.mu.Unlock()
}

func (r *recorder) kinds(kind IntentKind) []Intent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Intent
	for _, i := range r.intents {
		if i.Kind == kind {
			out = append(out, i)
		}
	}
	return out
}

func testCatalog(t *testing.T) *pose.Catalog {
	t.Helper()
	return pose.DefaultCatalog(pose.WithSeed(99))
}

func newTestTrack(t *testing.T, cfg Config, sink SceneSink) *Track {
	t.Helper()
	tr, err := NewTrack(cfg, sink)
	if err != nil {
		t.Fatalf("NewTrack: %v", err)
	}
	return tr
}

func newTestSpawner(t *testing.T, cfg Config, tr *Track) *Spawner {
	t.Helper()
	s, err := NewSpawner(cfg, testCatalog(t), tr)
	if err != nil {
		t.Fatalf("NewSpawner: %v", err)
	}
	return s
}
