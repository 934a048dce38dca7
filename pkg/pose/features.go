package pose

import "math"

// MinConfidence is the keypoint confidence a joint must exceed to contribute a feature.
const MinConfidence = 0.5

// Feature names.
const (
	LeftArmAngle       = "LeftArmAngle"
	RightArmAngle      = "RightArmAngle"
	LeftShoulderAngle  = "LeftShoulderAngle"
	RightShoulderAngle = "RightShoulderAngle"
	LeftHipAngle       = "LeftHipAngle"
	RightHipAngle      = "RightHipAngle"
	LeftKneeAngle      = "LeftKneeAngle"
	RightKneeAngle     = "RightKneeAngle"
	LeftTorsoAngle     = "LeftTorsoAngle"
	RightTorsoAngle    = "RightTorsoAngle"
)

// FeatureVector maps feature name to a signed angle in degrees, (-180, 180].
// Features whose joints were missing or low-confidence are absent, not zero.
type FeatureVector map[string]float64

// JointPair defines one feature: the angle of the vector From -> To.
type JointPair struct {
	Name string
	From JointID
	To   JointID
}

var jointPairs = []JointPair{
	{LeftArmAngle, LeftElbow, LeftWrist},
	{RightArmAngle, RightElbow, RightWrist},
	{LeftShoulderAngle, LeftShoulder, LeftElbow},
	{RightShoulderAngle, RightShoulder, RightElbow},
	{LeftHipAngle, LeftHip, LeftKnee},
	{RightHipAngle, RightHip, RightKnee},
	{LeftKneeAngle, LeftKnee, LeftAnkle},
	{RightKneeAngle, RightKnee, RightAnkle},
	{LeftTorsoAngle, LeftShoulder, LeftHip},
	{RightTorsoAngle, RightShoulder, RightHip},
}

// JointPairs returns a copy of the feature definitions.
func JointPairs() []JointPair {
	out := make([]JointPair, len(jointPairs))
	copy(out, jointPairs)
	return out
}

// FeatureNames returns all feature names in definition order.
func FeatureNames() []string {
	names := make([]string, len(jointPairs))
	for i, p := range jointPairs {
		names[i] = p.Name
	}
	return names
}

// IsFeature reports whether name is a known feature.
func IsFeature(name string) bool {
	for _, p := range jointPairs {
		if p.Name == name {
			return true
		}
	}
	return false
}

// Angle returns the signed angle of the vector from -> to in degrees, in (-180, 180].
func Angle(from, to Keypoint) float64 {
	deg := math.Atan2(to.Y-from.Y, to.X-from.X) * 180 / math.Pi
	if deg <= -180 {
		deg += 360
	}
	return deg
}

// ExtractFeatures computes every feature whose two joints are present with
// confidence above MinConfidence. It never fails; a nil skeleton yields an empty vector.
func ExtractFeatures(s *Skeleton) FeatureVector {
	fv := make(FeatureVector, len(jointPairs))
	if s == nil {
		return fv
	}

	for _, p := range jointPairs {
		from, ok := s.Get(p.From)
		if !ok || from.Confidence <= MinConfidence {
			continue
		}
		to, ok := s.Get(p.To)
		if !ok || to.Confidence <= MinConfidence {
			continue
		}
		fv[p.Name] = Angle(from, to)
	}

	return fv
}

// Clone returns an independent copy.
func (fv FeatureVector) Clone() FeatureVector {
	if fv == nil {
		return nil
	}
	out := make(FeatureVector, len(fv))
	for k, v := range fv {
		out[k] = v
	}
	return out
}
