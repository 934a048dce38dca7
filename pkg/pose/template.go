package pose

import "fmt"

// Template is a named target pose: feature name -> target angle in degrees.
type Template struct {
	Name     string             `json:"name" yaml:"name"`
	Features map[string]float64 `json:"features" yaml:"features"`
}

// Validate checks the template is usable by the matcher.
func (t Template) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidTemplate)
	}
	if len(t.Features) == 0 {
		return fmt.Errorf("%w: %s has no features", ErrInvalidTemplate, t.Name)
	}
	for name, deg := range t.Features {
		if !IsFeature(name) {
			return fmt.Errorf("%w: %s in template %s", ErrUnknownFeature, name, t.Name)
		}
		if deg <= -180 || deg > 180 {
			return fmt.Errorf("%w: %s.%s=%v outside (-180, 180]", ErrInvalidTemplate, t.Name, name, deg)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (t Template) Clone() Template {
	out := Template{Name: t.Name, Features: make(map[string]float64, len(t.Features))}
	for k, v := range t.Features {
		out.Features[k] = v
	}
	return out
}

// DefaultTemplates returns the built-in bodybuilding poses.
func DefaultTemplates() []Template {
	return []Template{
		{Name: "front_biceps", Features: map[string]float64{LeftArmAngle: -150, RightArmAngle: 150}},
		{Name: "arnold", Features: map[string]float64{LeftArmAngle: -20, RightArmAngle: 150}},
		{Name: "side_chest", Features: map[string]float64{LeftArmAngle: -60, RightArmAngle: 100}},
		{Name: "side_tricep", Features: map[string]float64{LeftArmAngle: 15}},
	}
}
