// Package web serves the game dashboard: session status, the pose catalog,
// live tuning and websocket streams for spectators.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-poseperfect/internal/log"
	"github.com/teslashibe/go-poseperfect/pkg/game"
	"github.com/teslashibe/go-poseperfect/pkg/hub"
	"github.com/teslashibe/go-poseperfect/pkg/pose"
	"github.com/teslashibe/go-poseperfect/pkg/track"
)

const maxEvents = 500

// Game is the session view the dashboard reads and tunes.
// *game.Machine implements it.
type Game interface {
	Stats() game.Stats
	Rules() game.Rules
	SetRules(game.Rules)
	SpawnState() track.SpawnState
	Obstacles() []track.Obstacle
}

// Event is one line of the dashboard event log.
type Event struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // spawn, passed, crashed, missed, game_over, info
	Message string `json:"message"`
}

// Config configures the dashboard server.
type Config struct {
	Port    string
	Version string
	Debug   bool // request logging
}

// Server is the dashboard HTTP server.
type Server struct {
	app    *fiber.App
	config Config
	logger *slog.Logger

	catalog *pose.Catalog

	game   Game
	last   game.Stats
	gameMu sync.RWMutex

	events   []Event
	eventsMu sync.RWMutex

	metrics   []Metric
	metricsMu sync.RWMutex

	statusHub  *hub.Hub
	eventHub   *hub.Hub
	previewHub *hub.Hub
}

// NewServer creates the dashboard for catalog. Attach a session with SetGame.
func NewServer(config Config, catalog *pose.Catalog) *Server {
	if catalog == nil {
		catalog = pose.DefaultCatalog()
	}
	s := &Server{
		config:     config,
		logger:     log.With("component", "web"),
		catalog:    catalog,
		events:     make([]Event, 0, maxEvents),
		statusHub:  hub.New("status"),
		eventHub:   hub.New("events"),
		previewHub: hub.New("preview"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "PosePerfect Dashboard",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New())
	if config.Debug {
		app.Use(logger.New())
	}

	app.Get("/health", s.handleHealth)
	app.Get("/metrics", s.handleMetrics)

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/poses", s.handlePoses)
	api.Get("/tuning", s.handleGetTuning)
	api.Post("/tuning", s.handleSetTuning)
	api.Get("/events", s.handleEvents)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/events", websocket.New(s.eventHub.Serve))
	app.Get("/ws/preview", websocket.New(s.previewHub.Serve))

	s.app = app
	return s
}

// App returns the fiber app so other route groups can share the listener.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the hubs and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go s.statusHub.Run(ctx)
	go s.eventHub.Run(ctx)
	go s.previewHub.Run(ctx)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening", "port", s.config.Port)
		errc <- s.app.Listen(":" + s.config.Port)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown stops the HTTP server.
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(5 * time.Second)
}

// SetGame attaches the session the dashboard reports on. It may be swapped
// between sessions; nil detaches.
func (s *Server) SetGame(g Game) {
	s.gameMu.Lock()
	s.game = g
	if g != nil {
		s.last = g.Stats()
	}
	s.gameMu.Unlock()
}

func (s *Server) currentGame() Game {
	s.gameMu.RLock()
	defer s.gameMu.RUnlock()
	return s.game
}

// OnStatus records a session snapshot and broadcasts it to status clients.
func (s *Server) OnStatus(st game.Stats) {
	s.gameMu.Lock()
	s.last = st
	s.gameMu.Unlock()

	if err := s.statusHub.BroadcastJSON(st); err != nil {
		s.logger.Error("broadcast status", "error", err)
	}
	if st.Over() {
		s.AddEvent("game_over", fmt.Sprintf("game over (%s), score %d", st.Reason, st.Score))
	}
}

// Emit logs spawns and resolutions. Moves are not logged.
func (s *Server) Emit(i track.Intent) {
	switch i.Kind {
	case track.IntentCreate:
		s.AddEvent("spawn", fmt.Sprintf("obstacle %d: %s", i.ObstacleID, i.Pose))
	case track.IntentDestroy:
		s.AddEvent(i.Resolution, fmt.Sprintf("obstacle %d: %s", i.ObstacleID, i.Pose))
	}
}

// AddEvent appends to the event log and broadcasts the entry.
func (s *Server) AddEvent(kind, message string) {
	ev := Event{
		Time:    time.Now().Format("15:04:05"),
		Type:    kind,
		Message: message,
	}

	s.eventsMu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > maxEvents {
		s.events = s.events[1:]
	}
	s.eventsMu.Unlock()

	if err := s.eventHub.BroadcastJSON(ev); err != nil {
		s.logger.Error("broadcast event", "error", err)
	}
}

// Events returns a copy of the event log, oldest first.
func (s *Server) Events() []Event {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()
	return append([]Event(nil), s.events...)
}

// SendPreviewFrame broadcasts an annotated JPEG to preview clients.
func (s *Server) SendPreviewFrame(jpeg []byte) {
	s.previewHub.BroadcastBinary(jpeg)
}

// StatusHub returns the hub behind /ws/status.
func (s *Server) StatusHub() *hub.Hub {
	return s.statusHub
}

// EventHub returns the hub behind /ws/events.
func (s *Server) EventHub() *hub.Hub {
	return s.eventHub
}

// PreviewHub returns the hub behind /ws/preview.
func (s *Server) PreviewHub() *hub.Hub {
	return s.previewHub
}
