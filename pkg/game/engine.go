package game

import (
	"context"
	"time"
)

// EngineConfig holds the tick loop parameters.
type EngineConfig struct {
	TickInterval  time.Duration `json:"tick_interval"`  // Time between ticks
	StatusEvery   int           `json:"status_every"`   // Publish a status snapshot every N ticks; 0 disables
	ContactBuffer int           `json:"contact_buffer"` // Queued contacts before Contact starts rejecting
}

// DefaultEngineConfig returns a 20ms tick with a status snapshot every 250ms.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		TickInterval:  20 * time.Millisecond,
		StatusEvery:   12,
		ContactBuffer: 16,
	}
}

// StatusSink receives periodic session snapshots and the final stats.
// Called on the engine goroutine; implementations must not block.
type StatusSink interface {
	OnStatus(Stats)
}

// StatusFunc adapts a function to StatusSink.
type StatusFunc func(Stats)

// OnStatus calls f.
func (f StatusFunc) OnStatus(s Stats) { f(s) }

// Engine drives a Machine from a ticker and serializes contacts onto the
// same goroutine as ticks.
type Engine struct {
	machine  *Machine
	config   EngineConfig
	contacts chan ContactEvent
	sinks    []StatusSink
}

// NewEngine creates an engine for m. Zero config fields take their defaults.
func NewEngine(m *Machine, config EngineConfig, sinks ...StatusSink) *Engine {
	def := DefaultEngineConfig()
	if config.TickInterval <= 0 {
		config.TickInterval = def.TickInterval
	}
	if config.ContactBuffer <= 0 {
		config.ContactBuffer = def.ContactBuffer
	}
	if config.StatusEvery < 0 {
		config.StatusEvery = 0
	}
	return &Engine{
		machine:  m,
		config:   config,
		contacts: make(chan ContactEvent, config.ContactBuffer),
		sinks:    sinks,
	}
}

// Machine returns the machine being driven.
func (e *Engine) Machine() *Machine {
	return e.machine
}

// Contact queues a contact for the tick goroutine. It never blocks; it
// returns false if the queue is full.
func (e *Engine) Contact(ev ContactEvent) bool {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	select {
	case e.contacts <- ev:
		return true
	default:
		e.machine.logger.Warn("contact queue full, dropping", "obstacle", ev.ObstacleID)
		return false
	}
}

// Run starts the session and ticks it until game over or ctx is cancelled.
// It returns the final stats; on cancellation the session is stopped and
// ctx.Err() is returned alongside them.
func (e *Engine) Run(ctx context.Context) (Stats, error) {
	if err := e.machine.Start(); err != nil {
		return e.machine.Stats(), err
	}

	ticker := time.NewTicker(e.config.TickInterval)
	defer ticker.Stop()

	e.machine.logger.Info("engine running",
		"session", e.machine.Session().ID,
		"tick", e.config.TickInterval,
		"status_every", e.config.StatusEvery)

	last := time.Now()
	ticks := 0

	for {
		select {
		case <-ctx.Done():
			e.machine.Stop()
			return e.finish(), ctx.Err()

		case ev := <-e.contacts:
			outcome := e.machine.OnContact(ev)
			e.machine.logger.Debug("contact", "obstacle", ev.ObstacleID, "outcome", outcome)

		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			e.machine.Tick(dt)

			ticks++
			if e.config.StatusEvery > 0 && ticks%e.config.StatusEvery == 0 {
				e.publish(e.machine.Stats())
			}
		}

		if e.machine.Status() == GameOver {
			return e.finish(), nil
		}
	}
}

func (e *Engine) finish() Stats {
	st := e.machine.Stats()
	e.publish(st)
	return st
}

func (e *Engine) publish(st Stats) {
	for _, s := range e.sinks {
		s.OnStatus(st)
	}
}
