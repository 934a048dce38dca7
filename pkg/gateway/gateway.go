// Package gateway is the WebSocket endpoint where vision clients and scene
// renderers connect to a running game.
package gateway

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/go-poseperfect/internal/log"
	"github.com/teslashibe/go-poseperfect/pkg/pose"
	"github.com/teslashibe/go-poseperfect/pkg/protocol"
)

// sendBuffer is the per-connection outbound queue length.
const sendBuffer = 64

// Conn is a connected collaborator.
type Conn struct {
	ID        string
	Conn      *websocket.Conn
	Connected time.Time

	mu       sync.Mutex
	lastSeen time.Time
	send     chan []byte
}

// LastSeen returns when the last message arrived.
func (c *Conn) LastSeen() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

func (c *Conn) touch() {
	c.mu.Lock()
	c.lastSeen = time.Now()
	c.mu.Unlock()
}

// enqueue queues data without blocking; false means the queue was full.
func (c *Conn) enqueue(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Gateway manages collaborator connections and routes their messages.
type Gateway struct {
	mu     sync.RWMutex
	conns  map[string]*Conn
	logger *slog.Logger

	// Callbacks
	onSkeleton func(connID string, s *pose.Skeleton)
	onFeatures func(connID string, fv pose.FeatureVector)
	onContact  func(connID string, obstacleID uint64)
	onFrame    func(connID string, jpeg []byte)

	// Stats
	messagesReceived atomic.Uint64
	messagesSent     atomic.Uint64
	messagesDropped  atomic.Uint64
	parseErrors      atomic.Uint64
}

// New creates a gateway. logger may be nil.
func New(logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = log.L()
	}
	return &Gateway{
		conns:  make(map[string]*Conn),
		logger: logger,
	}
}

// OnSkeleton sets the callback for incoming skeletons. s is nil when the
// client's detector found nobody.
func (g *Gateway) OnSkeleton(callback func(connID string, s *pose.Skeleton)) {
	g.mu.Lock()
	g.onSkeleton = callback
	g.mu.Unlock()
}

// OnFeatures sets the callback for incoming feature vectors
func (g *Gateway) OnFeatures(callback func(connID string, fv pose.FeatureVector)) {
	g.mu.Lock()
	g.onFeatures = callback
	g.mu.Unlock()
}

// OnContact sets the callback for obstacle contacts
func (g *Gateway) OnContact(callback func(connID string, obstacleID uint64)) {
	g.mu.Lock()
	g.onContact = callback
	g.mu.Unlock()
}

// OnFrame sets the callback for raw camera frames
func (g *Gateway) OnFrame(callback func(connID string, jpeg []byte)) {
	g.mu.Lock()
	g.onFrame = callback
	g.mu.Unlock()
}

// RegisterRoutes registers WebSocket routes on a Fiber app
func (g *Gateway) RegisterRoutes(app *fiber.App) {
	app.Use("/ws/play", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/play", websocket.New(g.handleConn))
}

func (g *Gateway) handleConn(c *websocket.Conn) {
	conn := &Conn{
		ID:        uuid.NewString(),
		Conn:      c,
		Connected: time.Now(),
		lastSeen:  time.Now(),
		send:      make(chan []byte, sendBuffer),
	}

	g.mu.Lock()
	g.conns[conn.ID] = conn
	count := len(g.conns)
	g.mu.Unlock()

	g.logger.Info("collaborator connected", "conn", conn.ID, "total", count)

	done := make(chan struct{})
	go g.writePump(conn, done)

	defer func() {
		g.mu.Lock()
		delete(g.conns, conn.ID)
		count := len(g.conns)
		g.mu.Unlock()
		close(done)

		g.logger.Info("collaborator disconnected", "conn", conn.ID, "total", count)
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				g.logger.Warn("read error", "conn", conn.ID, "error", err)
			}
			return
		}

		conn.touch()
		g.messagesReceived.Add(1)
		g.handleMessage(conn, data)
	}
}

// writePump owns writes to the socket so senders never block on the network.
func (g *Gateway) writePump(conn *Conn, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case data := <-conn.send:
			if err := conn.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				g.logger.Debug("write error", "conn", conn.ID, "error", err)
				return
			}
			g.messagesSent.Add(1)
		}
	}
}

func (g *Gateway) handleMessage(conn *Conn, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		g.parseErrors.Add(1)
		g.logger.Debug("parse error", "conn", conn.ID, "error", err)
		return
	}

	g.mu.RLock()
	skeletonCb := g.onSkeleton
	featuresCb := g.onFeatures
	contactCb := g.onContact
	frameCb := g.onFrame
	g.mu.RUnlock()

	switch msg.Type {
	case protocol.TypeSkeleton:
		if skeletonCb != nil {
			if sd, err := msg.GetSkeletonData(); err == nil {
				skeletonCb(conn.ID, sd.Skeleton())
			} else {
				g.parseErrors.Add(1)
			}
		}

	case protocol.TypeFeatures:
		if featuresCb != nil {
			if fd, err := msg.GetFeaturesData(); err == nil {
				featuresCb(conn.ID, fd.FeatureVector())
			} else {
				g.parseErrors.Add(1)
			}
		}

	case protocol.TypeContact:
		if contactCb != nil {
			if cd, err := msg.GetContactData(); err == nil {
				contactCb(conn.ID, cd.ObstacleID)
			} else {
				g.parseErrors.Add(1)
			}
		}

	case protocol.TypeFrame:
		if frameCb != nil {
			fd, err := msg.GetFrameData()
			if err != nil {
				g.parseErrors.Add(1)
				return
			}
			jpeg, err := fd.DecodeFrameData()
			if err != nil {
				g.parseErrors.Add(1)
				return
			}
			frameCb(conn.ID, jpeg)
		}

	case protocol.TypePing:
		id := ""
		if pd, err := msg.GetPingData(); err == nil {
			id = pd.ID
		}
		pong, err := protocol.NewPongMessage(id, msg.Timestamp, time.Now().UnixMilli())
		if err == nil {
			g.sendTo(conn, pong)
		}

	default:
		g.logger.Debug("unhandled message", "conn", conn.ID, "type", msg.Type)
	}
}

func (g *Gateway) sendTo(conn *Conn, msg *protocol.Message) bool {
	data, err := msg.Bytes()
	if err != nil {
		g.logger.Error("encode message", "type", msg.Type, "error", err)
		return false
	}
	if !conn.enqueue(data) {
		g.messagesDropped.Add(1)
		return false
	}
	return true
}

// Send queues a message for one connection.
func (g *Gateway) Send(connID string, msg *protocol.Message) error {
	g.mu.RLock()
	conn, ok := g.conns[connID]
	g.mu.RUnlock()

	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "connection not found")
	}
	if !g.sendTo(conn, msg) {
		return fiber.NewError(fiber.StatusServiceUnavailable, "send queue full")
	}
	return nil
}

// Broadcast queues a message for every connection. Slow connections drop it.
func (g *Gateway) Broadcast(msg *protocol.Message) {
	data, err := msg.Bytes()
	if err != nil {
		g.logger.Error("encode message", "type", msg.Type, "error", err)
		return
	}

	g.mu.RLock()
	conns := make([]*Conn, 0, len(g.conns))
	for _, c := range g.conns {
		conns = append(conns, c)
	}
	g.mu.RUnlock()

	for _, c := range conns {
		if !c.enqueue(data) {
			g.messagesDropped.Add(1)
			g.logger.Debug("send queue full, dropping", "conn", c.ID, "type", msg.Type)
		}
	}
}

// ConnCount returns the number of connections.
func (g *Gateway) ConnCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.conns)
}

// Stats contains gateway statistics
type Stats struct {
	Connections      int    `json:"connections"`
	MessagesReceived uint64 `json:"messages_received"`
	MessagesSent     uint64 `json:"messages_sent"`
	MessagesDropped  uint64 `json:"messages_dropped"`
	ParseErrors      uint64 `json:"parse_errors"`
}

// GetStats returns gateway statistics
func (g *Gateway) GetStats() Stats {
	return Stats{
		Connections:      g.ConnCount(),
		MessagesReceived: g.messagesReceived.Load(),
		MessagesSent:     g.messagesSent.Load(),
		MessagesDropped:  g.messagesDropped.Load(),
		ParseErrors:      g.parseErrors.Load(),
	}
}

// ConnInfo describes a connection
type ConnInfo struct {
	ID        string    `json:"id"`
	Connected time.Time `json:"connected"`
	LastSeen  time.Time `json:"last_seen"`
}

// ConnInfos returns info about all connections
func (g *Gateway) ConnInfos() []ConnInfo {
	g.mu.RLock()
	defer g.mu.RUnlock()

	infos := make([]ConnInfo, 0, len(g.conns))
	for _, c := range g.conns {
		infos = append(infos, ConnInfo{
			ID:        c.ID,
			Connected: c.Connected,
			LastSeen:  c.LastSeen(),
		})
	}
	return infos
}

// RegisterAPIRoutes registers connection inspection routes
func (g *Gateway) RegisterAPIRoutes(api fiber.Router) {
	conns := api.Group("/connections")

	conns.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"connections": g.ConnInfos(),
			"count":       g.ConnCount(),
		})
	})

	conns.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(g.GetStats())
	})
}
