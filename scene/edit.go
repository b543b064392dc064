package scene

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrUnknownPart     = errors.New("unknown part")
	ErrUnknownProperty = errors.New("unknown property")
)

// Property names an editable part attribute.
type Property string

const (
	PropX        Property = "x"
	PropY        Property = "y"
	PropRotation Property = "rotation" // degrees
	PropScale    Property = "scale"
)

// Properties lists the editable properties in panel order.
var Properties = []Property{PropX, PropY, PropRotation, PropScale}

// ClampScale applies the MinScale floor. NaN is treated as zero.
func ClampScale(v float64) float64 {
	if math.IsNaN(v) || v < MinScale {
		return MinScale
	}
	return v
}

// Set edits one property of the part under k in place. Rotation is given in
// degrees and stored in radians; scale is clamped.
func (s *Scene) Set(k Key, prop Property, value float64) error {
	p, ok := s.parts[k]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPart, k)
	}
	if math.IsInf(value, 0) {
		return fmt.Errorf("%s.%s: value must be finite", k, prop)
	}
	switch prop {
	case PropX:
		p.X = value
	case PropY:
		p.Y = value
	case PropRotation:
		p.Rotation = value * math.Pi / 180
	case PropScale:
		p.Scale = ClampScale(value)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownProperty, prop)
	}
	return nil
}

// Value reads one property of the part under k, rotation in degrees.
func (s *Scene) Value(k Key, prop Property) (float64, error) {
	p, ok := s.parts[k]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownPart, k)
	}
	switch prop {
	case PropX:
		return p.X, nil
	case PropY:
		return p.Y, nil
	case PropRotation:
		return p.Rotation * 180 / math.Pi, nil
	case PropScale:
		return p.Scale, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownProperty, prop)
}

// ResetPart restores the part under k to its built-in default.
func (s *Scene) ResetPart(k Key) error {
	def, ok := Default().parts[k]
	if !ok {
		return fmt.Errorf("%w: no default for %s", ErrUnknownPart, k)
	}
	if _, ok := s.parts[k]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPart, k)
	}
	s.Put(k, *def)
	return nil
}

// Reset restores every part that has a built-in default. Parts without a
// default are left untouched.
func (s *Scene) Reset() {
	defaults := Default()
	for _, k := range s.order {
		if def, ok := defaults.parts[k]; ok {
			s.Put(k, *def)
		}
	}
}
