// Package pose turns per-frame body keypoints into named joint-angle features
// and compares them against named pose templates.
package pose

import "time"

// JointID names a body joint reported by a pose estimator.
type JointID string

// Body joints. Names follow the left/right convention of the player's own body.
const (
	Nose          JointID = "nose"
	LeftEye       JointID = "left_eye"
	RightEye      JointID = "right_eye"
	LeftEar       JointID = "left_ear"
	RightEar      JointID = "right_ear"
	LeftShoulder  JointID = "left_shoulder"
	RightShoulder JointID = "right_shoulder"
	LeftElbow     JointID = "left_elbow"
	RightElbow    JointID = "right_elbow"
	LeftWrist     JointID = "left_wrist"
	RightWrist    JointID = "right_wrist"
	LeftHip       JointID = "left_hip"
	RightHip      JointID = "right_hip"
	LeftKnee      JointID = "left_knee"
	RightKnee     JointID = "right_knee"
	LeftAnkle     JointID = "left_ankle"
	RightAnkle    JointID = "right_ankle"
)

// COCOJoints lists joints in COCO keypoint index order (what YOLO-pose and
// most 2D estimators emit).
var COCOJoints = [17]JointID{
	Nose, LeftEye, RightEye, LeftEar, RightEar,
	LeftShoulder, RightShoulder, LeftElbow, RightElbow, LeftWrist, RightWrist,
	LeftHip, RightHip, LeftKnee, RightKnee, LeftAnkle, RightAnkle,
}

// IsKnown reports whether j is one of the joints above.
func (j JointID) IsKnown() bool {
	for _, k := range COCOJoints {
		if k == j {
			return true
		}
	}
	return false
}

// Keypoint is a single detected joint.
// X and Y are normalized to [0,1] with Y pointing up (origin bottom-left).
type Keypoint struct {
	Joint      JointID `json:"joint"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"` // 0-1
}

// Skeleton is one frame's worth of keypoints. Treat it as immutable:
// the next frame replaces it wholesale.
type Skeleton struct {
	Keypoints  map[JointID]Keypoint
	CapturedAt time.Time
}

// NewSkeleton builds a skeleton from keypoints. Later duplicates of a joint win.
func NewSkeleton(capturedAt time.Time, kps ...Keypoint) *Skeleton {
	s := &Skeleton{
		Keypoints:  make(map[JointID]Keypoint, len(kps)),
		CapturedAt: capturedAt,
	}
	for _, kp := range kps {
		s.Keypoints[kp.Joint] = kp
	}
	return s
}

// Get returns the keypoint for a joint.
func (s *Skeleton) Get(j JointID) (Keypoint, bool) {
	if s == nil {
		return Keypoint{}, false
	}
	kp, ok := s.Keypoints[j]
	return kp, ok
}

// Len returns the number of keypoints.
func (s *Skeleton) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Keypoints)
}
