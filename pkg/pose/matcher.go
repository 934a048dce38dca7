package pose

import (
	"math"
	"sort"

	"github.com/teslashibe/go-poseperfect/pkg/debug"
)

// Match tolerances in degrees.
const (
	// DefaultTolerance is the production margin.
	DefaultTolerance = 30.0

	// LegacyTolerance is the stricter margin some builds shipped with.
	LegacyTolerance = 10.0
)

// Matcher compares detected features against a template.
type Matcher struct {
	Tolerance float64 // degrees; a feature is within when |detected-target| < Tolerance
}

// NewMatcher returns a matcher with the given tolerance.
// Non-positive values fall back to DefaultTolerance.
func NewMatcher(tolerance float64) Matcher {
	if tolerance <= 0 || math.IsNaN(tolerance) {
		tolerance = DefaultTolerance
	}
	return Matcher{Tolerance: tolerance}
}

// Matches reports whether detected satisfies every target feature it carries.
// A target feature absent from detected is not a failure: partially occluded
// poses get the benefit of the doubt. Stops at the first violation.
func (m Matcher) Matches(detected FeatureVector, target Template) bool {
	tol := m.tolerance()

	for _, name := range target.featureNames() {
		got, ok := detected[name]
		if !ok {
			continue
		}
		want := target.Features[name]
		if !within(got, want, tol) {
			debug.PoseLog("pose feature out of tolerance",
				"pose", target.Name, "feature", name, "detected", got, "target", want)
			return false
		}
	}
	return true
}

// FeatureResult is the comparison of a single target feature.
type FeatureResult struct {
	Feature  string  `json:"feature"`
	Target   float64 `json:"target"`
	Detected float64 `json:"detected"`
	Delta    float64 `json:"delta"`   // detected - target; 0 when not present
	Present  bool    `json:"present"` // detected carried this feature
	Within   bool    `json:"within"`  // absent features count as within
}

// Compare returns one result per target feature, sorted by feature name.
// Unlike Matches it does not stop early; use it for feedback displays.
func (m Matcher) Compare(detected FeatureVector, target Template) []FeatureResult {
	tol := m.tolerance()
	names := target.featureNames()
	results := make([]FeatureResult, 0, len(names))

	for _, name := range names {
		want := target.Features[name]
		r := FeatureResult{Feature: name, Target: want, Within: true}
		if got, ok := detected[name]; ok {
			r.Present = true
			r.Detected = got
			r.Delta = got - want
			r.Within = within(got, want, tol)
		}
		results = append(results, r)
	}
	return results
}

func (m Matcher) tolerance() float64 {
	if m.Tolerance <= 0 {
		return DefaultTolerance
	}
	return m.Tolerance
}

func within(got, want, tol float64) bool {
	return math.Abs(got-want) < tol
}

// featureNames returns target feature names in sorted order so evaluation is deterministic.
func (t Template) featureNames() []string {
	names := make([]string, 0, len(t.Features))
	for name := range t.Features {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
