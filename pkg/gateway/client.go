package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-poseperfect/pkg/pose"
	"github.com/teslashibe/go-poseperfect/pkg/protocol"
)

// Client connects a collaborator (camera, scene) to a gateway.
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes
}

// Dial connects to a gateway endpoint, e.g. ws://localhost:8080/ws/play.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &Client{conn: conn}, nil
}

// Send writes a message.
func (c *Client) Send(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// SendSkeleton sends a skeleton; nil reports that nobody was detected.
func (c *Client) SendSkeleton(s *pose.Skeleton) error {
	msg, err := protocol.NewSkeletonMessage(s)
	if err != nil {
		return err
	}
	return c.Send(msg)
}

// SendFeatures sends a precomputed feature vector.
func (c *Client) SendFeatures(fv pose.FeatureVector) error {
	msg, err := protocol.NewFeaturesMessage(fv)
	if err != nil {
		return err
	}
	return c.Send(msg)
}

// SendContact reports a collision with an obstacle.
func (c *Client) SendContact(obstacleID uint64) error {
	msg, err := protocol.NewContactMessage(obstacleID)
	if err != nil {
		return err
	}
	return c.Send(msg)
}

// SendFrame sends a JPEG frame for server-side detection.
func (c *Client) SendFrame(width, height int, jpeg []byte, frameID uint64) error {
	msg, err := protocol.NewFrameMessage(width, height, jpeg, frameID)
	if err != nil {
		return err
	}
	return c.Send(msg)
}

// Ping sends a ping; the reply arrives through ReadLoop.
func (c *Client) Ping(id string) error {
	msg, err := protocol.NewPingMessage(id)
	if err != nil {
		return err
	}
	return c.Send(msg)
}

// ReadLoop delivers incoming messages to handler until the connection closes.
// A normal close returns nil. Unparseable messages are skipped.
func (c *Client) ReadLoop(handler func(*protocol.Message)) error {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || errors.Is(err, websocket.ErrCloseSent) {
				return nil
			}
			return err
		}
		msg, err := protocol.ParseMessage(data)
		if err != nil {
			continue
		}
		handler(msg)
	}
}

// Close sends a close frame and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.mu.Unlock()
	return c.conn.Close()
}
