package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/teslashibe/go-poseperfect/pkg/game"
	"github.com/teslashibe/go-poseperfect/pkg/pose"
	"github.com/teslashibe/go-poseperfect/pkg/track"
)

type fakeGame struct {
	mu    sync.Mutex
	stats game.Stats
	rules game.Rules
	spawn track.SpawnState
	obs   []track.Obstacle
}

func (f *fakeGame) Stats() game.Stats { f.mu.Lock(); defer f.mu.Unlock(); return f.stats }
func (f *fakeGame) Rules() game.Rules { f.mu.Lock(); defer f.mu.Unlock(); return f.rules }
func (f *fakeGame) SetRules(r game.Rules) {
	f.mu.Lock()
	f.rules = r
	f.mu.Unlock()
}
func (f *fakeGame) SpawnState() track.SpawnState { return f.spawn }
func (f *fakeGame) Obstacles() []track.Obstacle { return f.obs }

func newFakeGame() *fakeGame {
	return &fakeGame{
		stats: game.Stats{SessionID: "s1", Score: 4, TotalPassed: 4, TotalMissed: 1, ElapsedSeconds: 12.5},
		rules: game.DefaultRules(),
		spawn: track.SpawnState{
			Elapsed:       12500 * time.Millisecond,
			SpawnInterval: 4 * time.Second,
			MoveSpeed:     0.23,
			PreviousPose:  "arnold",
			Spawned:       5,
		},
		obs: []track.Obstacle{
			{ID: 5, Pose: pose.Template{Name: "arnold"}, Position: 0.4, State: track.Active},
			{ID: 6, Pose: pose.Template{Name: "tpose"}, State: track.Pending},
		},
	}
}

func do(t *testing.T, s *Server, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

func TestHealth(t *testing.T) {
	s := NewServer(Config{Version: "test"}, nil)

	code, body := do(t, s, http.MethodGet, "/health", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var got map[string]any
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if got["status"] != "ok" || got["version"] != "test" || got["game"] != "idle" {
		t.Errorf("health = %v", got)
	}

	s.SetGame(newFakeGame())
	_, body = do(t, s, http.MethodGet, "/health", "")
	json.Unmarshal(body, &got)
	if got["game"] != "running" {
		t.Errorf("game = %v, want running", got["game"])
	}
}

func TestStatus(t *testing.T) {
	s := NewServer(Config{}, nil)

	if code, _ := do(t, s, http.MethodGet, "/api/status", ""); code != http.StatusServiceUnavailable {
		t.Errorf("without game: status = %d, want 503", code)
	}

	s.SetGame(newFakeGame())
	code, body := do(t, s, http.MethodGet, "/api/status", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}

	var got StatusView
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if got.Stats.Score != 4 || got.Stats.SessionID != "s1" {
		t.Errorf("stats = %+v", got.Stats)
	}
	if got.Spawn.IntervalSeconds != 4 || got.Spawn.Spawned != 5 || got.Spawn.PreviousPose != "arnold" {
		t.Errorf("spawn = %+v", got.Spawn)
	}
	if len(got.Obstacles) != 2 || got.Obstacles[0].State != "active" || got.Obstacles[1].State != "pending" {
		t.Errorf("obstacles = %+v", got.Obstacles)
	}
	if got.Tuning.Tolerance != pose.DefaultTolerance || got.Tuning.FeatureMaxAgeMS != 1000 {
		t.Errorf("tuning = %+v", got.Tuning)
	}
}

func TestPoses(t *testing.T) {
	s := NewServer(Config{}, nil)

	code, body := do(t, s, http.MethodGet, "/api/poses", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var got []pose.Template
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != pose.DefaultCatalog().Len() {
		t.Errorf("got %d poses, want %d", len(got), pose.DefaultCatalog().Len())
	}
}

func TestTuning(t *testing.T) {
	g := newFakeGame()
	s := NewServer(Config{}, nil)
	s.SetGame(g)

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantTol  float64
		wantAge  time.Duration
		wantMiss bool
	}{
		{"tolerance only", `{"tolerance": 20}`, http.StatusOK, 20, time.Second, false},
		{"max age only", `{"feature_max_age_ms": 750}`, http.StatusOK, 20, 750 * time.Millisecond, false},
		{"miss ends game", `{"miss_ends_game": true}`, http.StatusOK, 20, 750 * time.Millisecond, true},
		{"zero tolerance", `{"tolerance": 0}`, http.StatusBadRequest, 20, 750 * time.Millisecond, true},
		{"huge tolerance", `{"tolerance": 270}`, http.StatusBadRequest, 20, 750 * time.Millisecond, true},
		{"negative age", `{"feature_max_age_ms": -1}`, http.StatusBadRequest, 20, 750 * time.Millisecond, true},
		{"malformed", `{"tolerance":`, http.StatusBadRequest, 20, 750 * time.Millisecond, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, s, http.MethodPost, "/api/tuning", tt.body)
			if code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", code, tt.wantCode, body)
			}
			r := g.Rules()
			if r.Tolerance != tt.wantTol || r.FeatureMaxAge != tt.wantAge || r.MissEndsGame != tt.wantMiss {
				t.Errorf("rules = %+v", r)
			}
		})
	}

	code, body := do(t, s, http.MethodGet, "/api/tuning", "")
	if code != http.StatusOK {
		t.Fatalf("GET status = %d", code)
	}
	var got Tuning
	json.Unmarshal(body, &got)
	if got != (Tuning{Tolerance: 20, FeatureMaxAgeMS: 750, MissEndsGame: true}) {
		t.Errorf("GET tuning = %+v", got)
	}
}

func TestTuning_NoGame(t *testing.T) {
	s := NewServer(Config{}, nil)
	if code, _ := do(t, s, http.MethodPost, "/api/tuning", `{"tolerance": 20}`); code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", code)
	}
}

func TestEvents(t *testing.T) {
	s := NewServer(Config{}, nil)

	s.Emit(track.Intent{Kind: track.IntentCreate, ObstacleID: 1, Pose: "arnold"})
	s.Emit(track.Intent{Kind: track.IntentMove, ObstacleID: 1, Position: 0.1})
	s.Emit(track.Intent{Kind: track.IntentDestroy, ObstacleID: 1, Pose: "arnold", Resolution: "passed"})
	s.OnStatus(game.Stats{Score: 1, Status: game.GameOver, Reason: game.ReasonPoseMismatch})

	code, body := do(t, s, http.MethodGet, "/api/events", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var got []Event
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}

	want := []string{"spawn", "passed", "game_over"}
	if len(got) != len(want) {
		t.Fatalf("events = %+v", got)
	}
	for i, typ := range want {
		if got[i].Type != typ {
			t.Errorf("event %d type = %q, want %q", i, got[i].Type, typ)
		}
	}
	if !strings.Contains(got[2].Message, "pose_mismatch") {
		t.Errorf("game over message = %q", got[2].Message)
	}
}

func TestEvents_Bounded(t *testing.T) {
	s := NewServer(Config{}, nil)
	for i := 0; i < maxEvents+20; i++ {
		s.AddEvent("info", "x")
	}
	if n := len(s.Events()); n != maxEvents {
		t.Errorf("kept %d events, want %d", n, maxEvents)
	}
}

func TestMetrics(t *testing.T) {
	s := NewServer(Config{}, nil)
	s.SetGame(newFakeGame())
	s.AddMetric(Metric{Name: "poseperfect_frames_analyzed", Help: "Frames run through the detector", Kind: "counter", Value: func() float64 { return 42 }})

	code, body := do(t, s, http.MethodGet, "/metrics", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	text := string(body)
	for _, want := range []string{
		"poseperfect_score 4\n",
		"poseperfect_obstacles_missed 1\n",
		"poseperfect_elapsed_seconds 12.5\n",
		"poseperfect_game_over 0\n",
		"# TYPE poseperfect_frames_analyzed counter\n",
		"poseperfect_frames_analyzed 42\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics missing %q:\n%s", want, text)
		}
	}
}

func TestWebsocketRequiresUpgrade(t *testing.T) {
	s := NewServer(Config{}, nil)
	if code, _ := do(t, s, http.MethodGet, "/ws/status", ""); code != http.StatusUpgradeRequired {
		t.Errorf("status = %d, want 426", code)
	}
}
