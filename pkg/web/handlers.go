package web

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-poseperfect/pkg/game"
	"github.com/teslashibe/go-poseperfect/pkg/hub"
	"github.com/teslashibe/go-poseperfect/pkg/track"
)

// StatusView is the /api/status response.
type StatusView struct {
	Stats     game.Stats     `json:"stats"`
	Spawn     SpawnView      `json:"spawn"`
	Obstacles []ObstacleView `json:"obstacles"`
	Tuning    Tuning         `json:"tuning"`
}

// SpawnView is the spawner's difficulty state in seconds.
type SpawnView struct {
	ElapsedSeconds  float64 `json:"elapsed_seconds"`
	IntervalSeconds float64 `json:"interval_seconds"`
	MoveSpeed       float64 `json:"move_speed"`
	PreviousPose    string  `json:"previous_pose,omitempty"`
	Spawned         int     `json:"spawned"`
}

// ObstacleView is one obstacle on the track.
type ObstacleView struct {
	ID         uint64  `json:"id"`
	Pose       string  `json:"pose"`
	Position   float64 `json:"position"`
	State      string  `json:"state"`
	Resolution string  `json:"resolution,omitempty"`
}

// Tuning is the adjustable subset of the judging rules.
type Tuning struct {
	Tolerance       float64 `json:"tolerance"`
	FeatureMaxAgeMS int64   `json:"feature_max_age_ms"`
	MissEndsGame    bool    `json:"miss_ends_game"`
}

// TuningRequest is the POST /api/tuning body. Omitted fields are unchanged.
type TuningRequest struct {
	Tolerance       *float64 `json:"tolerance"`
	FeatureMaxAgeMS *int64   `json:"feature_max_age_ms"`
	MissEndsGame    *bool    `json:"miss_ends_game"`
}

// TuningFromRules converts rules to their dashboard form.
func TuningFromRules(r game.Rules) Tuning {
	return Tuning{
		Tolerance:       r.Tolerance,
		FeatureMaxAgeMS: r.FeatureMaxAge.Milliseconds(),
		MissEndsGame:    r.MissEndsGame,
	}
}

// Apply returns r with the request's fields applied.
func (req TuningRequest) Apply(r game.Rules) (game.Rules, error) {
	if req.Tolerance != nil {
		if *req.Tolerance <= 0 || *req.Tolerance > 180 {
			return r, fiber.NewError(fiber.StatusBadRequest, "tolerance must be in (0, 180]")
		}
		r.Tolerance = *req.Tolerance
	}
	if req.FeatureMaxAgeMS != nil {
		if *req.FeatureMaxAgeMS < 0 {
			return r, fiber.NewError(fiber.StatusBadRequest, "feature_max_age_ms must not be negative")
		}
		r.FeatureMaxAge = time.Duration(*req.FeatureMaxAgeMS) * time.Millisecond
	}
	if req.MissEndsGame != nil {
		r.MissEndsGame = *req.MissEndsGame
	}
	return r, nil
}

func obstacleViews(obs []track.Obstacle) []ObstacleView {
	views := make([]ObstacleView, 0, len(obs))
	for _, o := range obs {
		v := ObstacleView{
			ID:       o.ID,
			Pose:     o.Pose.Name,
			Position: o.Position,
			State:    o.State.String(),
		}
		if o.Resolution != track.Unresolved {
			v.Resolution = o.Resolution.String()
		}
		views = append(views, v)
	}
	return views
}

func errorJSON(c *fiber.Ctx, code int, msg string) error {
	return c.Status(code).JSON(fiber.Map{"error": msg})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	status := "idle"
	if g := s.currentGame(); g != nil {
		status = g.Stats().Status.String()
	}
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": s.config.Version,
		"game":    status,
		"poses":   s.catalog.Len(),
	})
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	g := s.currentGame()
	if g == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, "no active session")
	}

	sp := g.SpawnState()
	return c.JSON(StatusView{
		Stats: g.Stats(),
		Spawn: SpawnView{
			ElapsedSeconds:  sp.Elapsed.Seconds(),
			IntervalSeconds: sp.SpawnInterval.Seconds(),
			MoveSpeed:       sp.MoveSpeed,
			PreviousPose:    sp.PreviousPose,
			Spawned:         sp.Spawned,
		},
		Obstacles: obstacleViews(g.Obstacles()),
		Tuning:    TuningFromRules(g.Rules()),
	})
}

func (s *Server) handlePoses(c *fiber.Ctx) error {
	return c.JSON(s.catalog.Templates())
}

func (s *Server) handleGetTuning(c *fiber.Ctx) error {
	g := s.currentGame()
	if g == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, "no active session")
	}
	return c.JSON(TuningFromRules(g.Rules()))
}

func (s *Server) handleSetTuning(c *fiber.Ctx) error {
	g := s.currentGame()
	if g == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, "no active session")
	}

	var req TuningRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid body: "+err.Error())
	}
	rules, err := req.Apply(g.Rules())
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	g.SetRules(rules)

	t := TuningFromRules(g.Rules())
	s.logger.Info("tuning updated", "tolerance", t.Tolerance, "feature_max_age_ms", t.FeatureMaxAgeMS, "miss_ends_game", t.MissEndsGame)
	s.AddEvent("info", "tuning updated")
	return c.JSON(t)
}

func (s *Server) handleEvents(c *fiber.Ctx) error {
	return c.JSON(s.Events())
}

// handleStatusWS greets the spectator with the latest snapshot.
func (s *Server) handleStatusWS(conn *websocket.Conn) {
	client := hub.NewClient(s.statusHub, conn)

	s.gameMu.RLock()
	attached := s.game != nil
	last := s.last
	s.gameMu.RUnlock()

	if attached {
		if data, err := json.Marshal(last); err == nil {
			client.Queue(hub.NewJSONMessage(data))
		}
	}
	client.Run()
}
