// Package protocol defines the WebSocket message types exchanged between the
// game core and its collaborators (vision clients, scene renderers, UIs).
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/teslashibe/go-poseperfect/pkg/pose"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Collaborator → core
	TypeSkeleton MessageType = "skeleton" // Detected keypoints, or none
	TypeFeatures MessageType = "features" // Precomputed feature vector
	TypeContact  MessageType = "contact"  // Player touched an obstacle
	TypeFrame    MessageType = "frame"    // Camera frame for server-side detection

	// Core → collaborators
	TypeObstacle MessageType = "obstacle"  // Create/move/destroy intent
	TypeStatus   MessageType = "status"    // Periodic session snapshot
	TypeGameOver MessageType = "game_over" // Final session stats
	TypeFeedback MessageType = "feedback"  // Training mode feedback

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data any) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v any) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// =============================================================================
// Collaborator → Core Message Types
// =============================================================================

// SkeletonData carries one frame of keypoints. None means the detector ran
// and found nobody.
type SkeletonData struct {
	Keypoints  []pose.Keypoint `json:"keypoints,omitempty"`
	None       bool            `json:"none,omitempty"`
	CapturedAt int64           `json:"captured_at,omitempty"` // Unix milliseconds
}

// FeaturesData carries a feature vector computed on the client.
type FeaturesData struct {
	Features map[string]float64 `json:"features"` // feature name → degrees
}

// ContactData reports a collision with an obstacle.
type ContactData struct {
	ObstacleID uint64 `json:"obstacle_id"`
}

// FrameData contains a camera frame
type FrameData struct {
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Format  string `json:"format"` // "jpeg"
	Data    string `json:"data"`   // base64 encoded
	FrameID uint64 `json:"frame_id,omitempty"`
}

// =============================================================================
// Core → Collaborator Message Types
// =============================================================================

// ObstacleData tells the scene to create, move or destroy an obstacle.
type ObstacleData struct {
	Kind       string  `json:"kind"` // "create", "move", "destroy"
	ID         uint64  `json:"id"`
	Position   float64 `json:"position"`
	Delta      float64 `json:"delta,omitempty"`
	Pose       string  `json:"pose"`                 // which cutout to render
	Resolution string  `json:"resolution,omitempty"` // on destroy: "passed", "crashed", "missed"
}

// StatusData is a session snapshot for display.
type StatusData struct {
	SessionID      string  `json:"session_id"`
	Score          int     `json:"score"`
	TotalPassed    int     `json:"total_passed"`
	TotalMissed    int     `json:"total_missed"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Status         string  `json:"status"` // "running", "game_over"
	Reason         string  `json:"reason,omitempty"`
}

// FeedbackData is live training feedback.
type FeedbackData struct {
	Pose     string               `json:"pose"`
	Matched  bool                 `json:"matched"`
	Detected bool                 `json:"detected"`
	Message  string               `json:"message"`
	Streak   int                  `json:"streak"`
	Best     int                  `json:"best"`
	Results  []pose.FeatureResult `json:"results,omitempty"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData for health checks
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
}

// PongData for health check responses
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
