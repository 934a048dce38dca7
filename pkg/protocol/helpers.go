package protocol

import (
	"encoding/base64"
	"time"

	"github.com/teslashibe/go-poseperfect/pkg/pose"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewSkeletonMessage creates a skeleton message. A nil skeleton is sent as none.
func NewSkeletonMessage(s *pose.Skeleton) (*Message, error) {
	if s == nil || s.Len() == 0 {
		return NewMessage(TypeSkeleton, SkeletonData{None: true})
	}

	data := SkeletonData{Keypoints: make([]pose.Keypoint, 0, s.Len())}
	for _, joint := range pose.COCOJoints {
		if kp, ok := s.Get(joint); ok {
			data.Keypoints = append(data.Keypoints, kp)
		}
	}
	if !s.CapturedAt.IsZero() {
		data.CapturedAt = s.CapturedAt.UnixMilli()
	}
	return NewMessage(TypeSkeleton, data)
}

// NewFeaturesMessage creates a features message
func NewFeaturesMessage(fv pose.FeatureVector) (*Message, error) {
	return NewMessage(TypeFeatures, FeaturesData{Features: fv})
}

// NewContactMessage creates a contact message
func NewContactMessage(obstacleID uint64) (*Message, error) {
	return NewMessage(TypeContact, ContactData{ObstacleID: obstacleID})
}

// NewFrameMessage creates a frame message from raw JPEG data
func NewFrameMessage(width, height int, jpegData []byte, frameID uint64) (*Message, error) {
	return NewMessage(TypeFrame, FrameData{
		Width:   width,
		Height:  height,
		Format:  "jpeg",
		Data:    base64.StdEncoding.EncodeToString(jpegData),
		FrameID: frameID,
	})
}

// NewObstacleMessage creates an obstacle intent message
func NewObstacleMessage(data ObstacleData) (*Message, error) {
	return NewMessage(TypeObstacle, data)
}

// NewStatusMessage creates a status message
func NewStatusMessage(data StatusData) (*Message, error) {
	return NewMessage(TypeStatus, data)
}

// NewGameOverMessage creates a game over message
func NewGameOverMessage(data StatusData) (*Message, error) {
	return NewMessage(TypeGameOver, data)
}

// NewFeedbackMessage creates a training feedback message
func NewFeedbackMessage(data FeedbackData) (*Message, error) {
	return NewMessage(TypeFeedback, data)
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: time.Now().UnixMilli(),
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetSkeletonData extracts skeleton data from a message
func (m *Message) GetSkeletonData() (*SkeletonData, error) {
	var data SkeletonData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Skeleton converts the payload to a skeleton. Returns nil for none.
// Unknown joints are dropped.
func (s *SkeletonData) Skeleton() *pose.Skeleton {
	if s == nil || s.None || len(s.Keypoints) == 0 {
		return nil
	}
	at := time.Now()
	if s.CapturedAt > 0 {
		at = time.UnixMilli(s.CapturedAt)
	}
	kps := make([]pose.Keypoint, 0, len(s.Keypoints))
	for _, kp := range s.Keypoints {
		if kp.Joint.IsKnown() {
			kps = append(kps, kp)
		}
	}
	if len(kps) == 0 {
		return nil
	}
	return pose.NewSkeleton(at, kps...)
}

// GetFeaturesData extracts features data from a message
func (m *Message) GetFeaturesData() (*FeaturesData, error) {
	var data FeaturesData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// FeatureVector returns the known features only.
func (f *FeaturesData) FeatureVector() pose.FeatureVector {
	fv := make(pose.FeatureVector, len(f.Features))
	for name, deg := range f.Features {
		if pose.IsFeature(name) {
			fv[name] = deg
		}
	}
	return fv
}

// GetContactData extracts contact data from a message
func (m *Message) GetContactData() (*ContactData, error) {
	var data ContactData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetFrameData extracts frame data from a message
func (m *Message) GetFrameData() (*FrameData, error) {
	var data FrameData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// DecodeFrameData decodes the base64 image data
func (f *FrameData) DecodeFrameData() ([]byte, error) {
	return base64.StdEncoding.DecodeString(f.Data)
}

// GetObstacleData extracts obstacle data from a message
func (m *Message) GetObstacleData() (*ObstacleData, error) {
	var data ObstacleData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetStatusData extracts status data from a status or game_over message
func (m *Message) GetStatusData() (*StatusData, error) {
	var data StatusData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetFeedbackData extracts feedback data from a message
func (m *Message) GetFeedbackData() (*FeedbackData, error) {
	var data FeedbackData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
