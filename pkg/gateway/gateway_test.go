package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-poseperfect/internal/log"
	"github.com/teslashibe/go-poseperfect/pkg/game"
	"github.com/teslashibe/go-poseperfect/pkg/pose"
	"github.com/teslashibe/go-poseperfect/pkg/protocol"
	"github.com/teslashibe/go-poseperfect/pkg/track"
	"github.com/teslashibe/go-poseperfect/pkg/trainer"
)

func startServer(t *testing.T, g *Gateway) string {
	t.Helper()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	g.RegisterRoutes(app)
	g.RegisterAPIRoutes(app.Group("/api"))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go app.Listener(ln)
	t.Cleanup(func() { _ = app.Shutdown() })

	return "ws://" + ln.Addr().String() + "/ws/play"
}

func dial(t *testing.T, url string) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, url)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// inbox collects messages read by a client.
type inbox struct {
	mu   sync.Mutex
	msgs []*protocol.Message
}

func (b *inbox) add(m *protocol.Message) {
	b.mu.Lock()
	b.msgs = append(b.msgs, m)
	b.mu.Unlock()
}

func (b *inbox) find(typ protocol.MessageType) *protocol.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, m := range b.msgs {
		if m.Type == typ {
			return m
		}
	}
	return nil
}

func listen(c *Client) *inbox {
	b := &inbox{}
	go func() { _ = c.ReadLoop(b.add) }()
	return b
}

func TestNew(t *testing.T) {
	g := New(log.Discard())
	if g.ConnCount() != 0 {
		t.Error("ConnCount should be 0 initially")
	}
	if st := g.GetStats(); st.MessagesReceived != 0 || st.ParseErrors != 0 {
		t.Errorf("stats = %+v", st)
	}
	if len(g.ConnInfos()) != 0 {
		t.Error("ConnInfos should be empty")
	}
}

func TestGateway_Contact(t *testing.T) {
	g := New(log.Discard())
	got := make(chan uint64, 1)
	g.OnContact(func(_ string, id uint64) { got <- id })

	c := dial(t, startServer(t, g))
	if err := c.SendContact(7); err != nil {
		t.Fatal(err)
	}

	select {
	case id := <-got:
		if id != 7 {
			t.Errorf("obstacle = %d, want 7", id)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("contact not delivered")
	}
}

func TestGateway_Skeleton(t *testing.T) {
	g := New(log.Discard())
	got := make(chan *pose.Skeleton, 2)
	g.OnSkeleton(func(_ string, s *pose.Skeleton) { got <- s })

	c := dial(t, startServer(t, g))

	skel := pose.NewSkeleton(time.Now(),
		pose.Keypoint{Joint: pose.LeftElbow, X: 0.3, Y: 0.6, Confidence: 0.9},
		pose.Keypoint{Joint: pose.LeftWrist, X: 0.2, Y: 0.6, Confidence: 0.9},
	)
	if err := c.SendSkeleton(skel); err != nil {
		t.Fatal(err)
	}
	if err := c.SendSkeleton(nil); err != nil {
		t.Fatal(err)
	}

	for i, wantLen := range []int{2, 0} {
		select {
		case s := <-got:
			if s.Len() != wantLen {
				t.Errorf("skeleton %d joints = %d, want %d", i, s.Len(), wantLen)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("skeleton %d not delivered", i)
		}
	}
}

func TestGateway_FeaturesAndFrames(t *testing.T) {
	g := New(log.Discard())
	features := make(chan pose.FeatureVector, 1)
	frames := make(chan []byte, 1)
	g.OnFeatures(func(_ string, fv pose.FeatureVector) { features <- fv })
	g.OnFrame(func(_ string, jpeg []byte) { frames <- jpeg })

	c := dial(t, startServer(t, g))
	if err := c.SendFeatures(pose.FeatureVector{pose.RightArmAngle: 150}); err != nil {
		t.Fatal(err)
	}
	if err := c.SendFrame(640, 480, []byte{0xff, 0xd8}, 1); err != nil {
		t.Fatal(err)
	}

	select {
	case fv := <-features:
		if fv[pose.RightArmAngle] != 150 {
			t.Errorf("features = %v", fv)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("features not delivered")
	}

	select {
	case jpeg := <-frames:
		if len(jpeg) != 2 || jpeg[0] != 0xff {
			t.Errorf("frame = %x", jpeg)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("frame not delivered")
	}
}

func TestGateway_PingPong(t *testing.T) {
	g := New(log.Discard())
	c := dial(t, startServer(t, g))
	box := listen(c)

	if err := c.Ping("p1"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "pong", func() bool { return box.find(protocol.TypePong) != nil })

	pong, err := box.find(protocol.TypePong).GetPongData()
	if err != nil {
		t.Fatal(err)
	}
	if pong.ID != "p1" {
		t.Errorf("pong id = %q", pong.ID)
	}
}

func TestGateway_BroadcastsIntentsAndStatus(t *testing.T) {
	g := New(log.Discard())
	c := dial(t, startServer(t, g))
	box := listen(c)
	waitFor(t, "connection", func() bool { return g.ConnCount() == 1 })

	var sink track.SceneSink = g
	sink.Emit(track.Intent{Kind: track.IntentCreate, ObstacleID: 3, Position: -50, Pose: "arnold"})

	var status game.StatusSink = g
	status.OnStatus(game.Stats{SessionID: "s1", Score: 2, Status: game.GameOver, Reason: game.ReasonPoseMismatch})

	g.Feedback(trainer.Feedback{Pose: "arnold", Detected: true, Matched: true})

	waitFor(t, "obstacle", func() bool { return box.find(protocol.TypeObstacle) != nil })
	waitFor(t, "game over", func() bool { return box.find(protocol.TypeGameOver) != nil })
	waitFor(t, "feedback", func() bool { return box.find(protocol.TypeFeedback) != nil })

	od, err := box.find(protocol.TypeObstacle).GetObstacleData()
	if err != nil {
		t.Fatal(err)
	}
	if od.Kind != "create" || od.ID != 3 || od.Pose != "arnold" {
		t.Errorf("obstacle = %+v", od)
	}

	sd, err := box.find(protocol.TypeGameOver).GetStatusData()
	if err != nil {
		t.Fatal(err)
	}
	if sd.Status != "game_over" || sd.Score != 2 || sd.Reason != game.ReasonPoseMismatch {
		t.Errorf("status = %+v", sd)
	}

	fd, err := box.find(protocol.TypeFeedback).GetFeedbackData()
	if err != nil {
		t.Fatal(err)
	}
	if fd.Message != "Matched arnold" {
		t.Errorf("feedback message = %q", fd.Message)
	}

	if box.find(protocol.TypeStatus) != nil {
		t.Error("final stats should be sent as game_over, not status")
	}
}

func TestGateway_ParseErrors(t *testing.T) {
	g := New(log.Discard())
	c := dial(t, startServer(t, g))

	c.mu.Lock()
	err := c.conn.WriteMessage(websocket.TextMessage, []byte("not json"))
	c.mu.Unlock()
	if err != nil {
		t.Fatal(err)
	}

	waitFor(t, "parse error", func() bool { return g.GetStats().ParseErrors == 1 })
	if g.GetStats().MessagesReceived != 1 {
		t.Errorf("received = %d", g.GetStats().MessagesReceived)
	}
}

func TestGateway_Send(t *testing.T) {
	g := New(log.Discard())
	msg, _ := protocol.NewPingMessage("x")

	if err := g.Send("missing", msg); err == nil {
		t.Error("Send to unknown connection should fail")
	}

	c := dial(t, startServer(t, g))
	box := listen(c)
	waitFor(t, "connection", func() bool { return g.ConnCount() == 1 })

	id := g.ConnInfos()[0].ID
	if err := g.Send(id, msg); err != nil {
		t.Fatalf("Send: %v", err)
	}
	waitFor(t, "direct message", func() bool { return box.find(protocol.TypePing) != nil })
}

func TestGateway_Disconnect(t *testing.T) {
	g := New(log.Discard())
	c := dial(t, startServer(t, g))
	waitFor(t, "connection", func() bool { return g.ConnCount() == 1 })

	_ = c.Close()
	waitFor(t, "disconnect", func() bool { return g.ConnCount() == 0 })
}

func TestGateway_RequiresUpgrade(t *testing.T) {
	g := New(log.Discard())
	app := fiber.New()
	g.RegisterRoutes(app)

	resp, err := app.Test(httptest.NewRequest("GET", "/ws/play", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Errorf("status = %d, want 426", resp.StatusCode)
	}
}

func TestGateway_StatsRoute(t *testing.T) {
	g := New(log.Discard())
	app := fiber.New()
	g.RegisterAPIRoutes(app.Group("/api"))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/connections/stats", nil))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)

	var st Stats
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	if st.Connections != 0 {
		t.Errorf("connections = %d", st.Connections)
	}
}

func TestStatusData(t *testing.T) {
	sd := StatusData(game.Stats{SessionID: "a", Score: 3, ElapsedSeconds: 1.5, Status: game.Running})
	if sd.Status != "running" || sd.Score != 3 || sd.ElapsedSeconds != 1.5 {
		t.Errorf("status = %+v", sd)
	}
}
