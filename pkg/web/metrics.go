package web

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Metric is an extra series exposed on /metrics.
type Metric struct {
	Name  string
	Help  string
	Kind  string // gauge or counter
	Value func() float64
}

// AddMetric registers a series for /metrics. Components that the web
// package must not import, such as the vision pipeline, report through here.
func (s *Server) AddMetric(m Metric) {
	if m.Kind == "" {
		m.Kind = "gauge"
	}
	s.metricsMu.Lock()
	s.metrics = append(s.metrics, m)
	s.metricsMu.Unlock()
}

func (s *Server) handleMetrics(c *fiber.Ctx) error {
	var b strings.Builder

	s.gameMu.RLock()
	st := s.last
	s.gameMu.RUnlock()
	if g := s.currentGame(); g != nil {
		st = g.Stats()
	}

	over := 0
	if st.Over() {
		over = 1
	}
	fmt.Fprintf(&b, `# HELP poseperfect_score Current session score
# TYPE poseperfect_score gauge
poseperfect_score %d

# HELP poseperfect_obstacles_passed Obstacles passed this session
# TYPE poseperfect_obstacles_passed counter
poseperfect_obstacles_passed %d

# HELP poseperfect_obstacles_missed Obstacles that reached the player untouched
# TYPE poseperfect_obstacles_missed counter
poseperfect_obstacles_missed %d

# HELP poseperfect_elapsed_seconds Session play time
# TYPE poseperfect_elapsed_seconds gauge
poseperfect_elapsed_seconds %g

# HELP poseperfect_game_over Whether the session has ended
# TYPE poseperfect_game_over gauge
poseperfect_game_over %d

# HELP poseperfect_spectators Connected dashboard websockets
# TYPE poseperfect_spectators gauge
poseperfect_spectators %d
`, st.Score, st.TotalPassed, st.TotalMissed, st.ElapsedSeconds, over,
		s.statusHub.ClientCount()+s.eventHub.ClientCount()+s.previewHub.ClientCount())

	s.metricsMu.RLock()
	for _, m := range s.metrics {
		fmt.Fprintf(&b, "\n# HELP %s %s\n# TYPE %s %s\n%s %g\n", m.Name, m.Help, m.Name, m.Kind, m.Name, m.Value())
	}
	s.metricsMu.RUnlock()

	c.Set(fiber.HeaderContentType, "text/plain; version=0.0.4")
	return c.SendString(b.String())
}
