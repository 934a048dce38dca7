package protocol

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/teslashibe/go-poseperfect/pkg/pose"
)

func TestNewMessage(t *testing.T) {
	tests := []struct {
		name    string
		msgType MessageType
		data    any
		wantErr bool
	}{
		{
			name:    "contact message",
			msgType: TypeContact,
			data:    ContactData{ObstacleID: 3},
		},
		{
			name:    "obstacle message",
			msgType: TypeObstacle,
			data:    ObstacleData{Kind: "create", ID: 1, Position: -50, Pose: "arnold"},
		},
		{
			name:    "nil data",
			msgType: TypePing,
			data:    nil,
		},
		{
			name:    "unmarshalable data",
			msgType: TypeStatus,
			data:    func() {},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.msgType, tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if msg.Type != tt.msgType {
				t.Errorf("NewMessage() type = %v, want %v", msg.Type, tt.msgType)
			}
			if msg.Timestamp == 0 {
				t.Error("NewMessage() timestamp should be set")
			}
		})
	}
}

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    MessageType
		wantErr bool
	}{
		{"contact", `{"type":"contact","ts":1,"data":{"obstacle_id":7}}`, TypeContact, false},
		{"ping without data", `{"type":"ping"}`, TypePing, false},
		{"missing type", `{"data":{}}`, "", true},
		{"not json", `hello`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParseMessage([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && msg.Type != tt.want {
				t.Errorf("Type = %v, want %v", msg.Type, tt.want)
			}
		})
	}
}

func TestSkeletonMessage(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	skel := pose.NewSkeleton(at,
		pose.Keypoint{Joint: pose.LeftWrist, X: 0.2, Y: 0.7, Confidence: 0.9},
		pose.Keypoint{Joint: pose.LeftElbow, X: 0.3, Y: 0.6, Confidence: 0.8},
	)

	msg, err := NewSkeletonMessage(skel)
	if err != nil {
		t.Fatalf("NewSkeletonMessage() error = %v", err)
	}
	data, err := msg.GetSkeletonData()
	if err != nil {
		t.Fatalf("GetSkeletonData() error = %v", err)
	}

	if len(data.Keypoints) != 2 {
		t.Fatalf("keypoints = %d, want 2", len(data.Keypoints))
	}
	// COCO order: elbow (7) before wrist (9)
	if data.Keypoints[0].Joint != pose.LeftElbow {
		t.Errorf("first keypoint = %s, want left_elbow", data.Keypoints[0].Joint)
	}

	got := data.Skeleton()
	if got.Len() != 2 || !got.CapturedAt.Equal(at) {
		t.Errorf("skeleton = %+v", got)
	}
	if kp, _ := got.Get(pose.LeftWrist); kp.X != 0.2 {
		t.Errorf("wrist X = %v", kp.X)
	}
}

func TestSkeletonMessage_None(t *testing.T) {
	msg, err := NewSkeletonMessage(nil)
	if err != nil {
		t.Fatal(err)
	}
	data, err := msg.GetSkeletonData()
	if err != nil {
		t.Fatal(err)
	}
	if !data.None {
		t.Error("nil skeleton should be sent as none")
	}
	if data.Skeleton() != nil {
		t.Error("none should convert to a nil skeleton")
	}
}

func TestSkeletonData_DropsUnknownJoints(t *testing.T) {
	var data SkeletonData
	raw := `{"keypoints":[{"joint":"tail","x":0.1,"y":0.1,"confidence":1},{"joint":"nose","x":0.5,"y":0.9,"confidence":1}]}`
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		t.Fatal(err)
	}

	skel := data.Skeleton()
	if skel.Len() != 1 {
		t.Errorf("skeleton joints = %d, want 1", skel.Len())
	}
	if _, ok := skel.Get(pose.Nose); !ok {
		t.Error("nose missing")
	}
}

func TestFeaturesMessage(t *testing.T) {
	msg, err := NewFeaturesMessage(pose.FeatureVector{pose.LeftArmAngle: -150, "Bogus": 1})
	if err != nil {
		t.Fatal(err)
	}
	data, err := msg.GetFeaturesData()
	if err != nil {
		t.Fatal(err)
	}

	fv := data.FeatureVector()
	if len(fv) != 1 || fv[pose.LeftArmAngle] != -150 {
		t.Errorf("features = %v", fv)
	}
}

func TestContactMessage(t *testing.T) {
	msg, err := NewContactMessage(42)
	if err != nil {
		t.Fatal(err)
	}

	raw, err := msg.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := ParseMessage(raw)
	if err != nil {
		t.Fatal(err)
	}
	data, err := parsed.GetContactData()
	if err != nil {
		t.Fatal(err)
	}
	if data.ObstacleID != 42 {
		t.Errorf("ObstacleID = %d, want 42", data.ObstacleID)
	}
}

func TestFrameMessage(t *testing.T) {
	jpegData := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}

	msg, err := NewFrameMessage(640, 480, jpegData, 1)
	if err != nil {
		t.Fatalf("NewFrameMessage() error = %v", err)
	}
	frameData, err := msg.GetFrameData()
	if err != nil {
		t.Fatalf("GetFrameData() error = %v", err)
	}
	if frameData.Width != 640 || frameData.Format != "jpeg" {
		t.Errorf("frame = %+v", frameData)
	}

	decoded, err := frameData.DecodeFrameData()
	if err != nil {
		t.Fatalf("DecodeFrameData() error = %v", err)
	}
	if string(decoded) != string(jpegData) {
		t.Errorf("decoded = %x, want %x", decoded, jpegData)
	}
}

func TestGameOverMessage(t *testing.T) {
	msg, err := NewGameOverMessage(StatusData{SessionID: "abc", Score: 4, Status: "game_over", Reason: "pose_mismatch"})
	if err != nil {
		t.Fatal(err)
	}
	if msg.Type != TypeGameOver {
		t.Errorf("Type = %v", msg.Type)
	}
	data, err := msg.GetStatusData()
	if err != nil {
		t.Fatal(err)
	}
	if data.Score != 4 || data.Reason != "pose_mismatch" {
		t.Errorf("status = %+v", data)
	}
}

func TestFeedbackMessage(t *testing.T) {
	results := []pose.FeatureResult{{Feature: pose.LeftArmAngle, Target: -150, Detected: -140, Delta: 10, Present: true, Within: true}}
	msg, err := NewFeedbackMessage(FeedbackData{Pose: "front_biceps", Matched: true, Detected: true, Results: results})
	if err != nil {
		t.Fatal(err)
	}
	data, err := msg.GetFeedbackData()
	if err != nil {
		t.Fatal(err)
	}
	if !data.Matched || len(data.Results) != 1 || data.Results[0].Delta != 10 {
		t.Errorf("feedback = %+v", data)
	}
}

func TestPingPong(t *testing.T) {
	ping, err := NewPingMessage("p1")
	if err != nil {
		t.Fatal(err)
	}
	pd, err := ping.GetPingData()
	if err != nil {
		t.Fatal(err)
	}
	if pd.ID != "p1" || pd.Timestamp == 0 {
		t.Errorf("ping = %+v", pd)
	}

	pong, err := NewPongMessage(pd.ID, 100, 150)
	if err != nil {
		t.Fatal(err)
	}
	pg, err := pong.GetPongData()
	if err != nil {
		t.Fatal(err)
	}
	if pg.LatencyMs != 50 {
		t.Errorf("LatencyMs = %d, want 50", pg.LatencyMs)
	}
}
