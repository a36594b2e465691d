package registration

import (
	"fmt"
	"math"
	"strings"
)

// AngleUnit is the unit rotation spin boxes are displayed in
type AngleUnit int

const (
	Degrees AngleUnit = iota
	Radians
)

const (
	degPerRad = 180 / math.Pi
	radPerDeg = math.Pi / 180
)

// ParseAngleUnit parses "degrees" or "radians" (and their short forms)
func ParseAngleUnit(s string) (AngleUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "deg", "degree", "degrees":
		return Degrees, nil
	case "rad", "radian", "radians":
		return Radians, nil
	default:
		return Degrees, fmt.Errorf("unknown angle unit: %s (supported: degrees, radians)", s)
	}
}

func (u AngleUnit) String() string {
	if u == Radians {
		return "radians"
	}
	return "degrees"
}

// Other returns the opposite unit
func (u AngleUnit) Other() AngleUnit {
	if u == Radians {
		return Degrees
	}
	return Radians
}

// convert rescales an angle between units. Each direction always uses the
// same constant, so converting there and back is a pure function of the input.
func convert(v float64, from, to AngleUnit) float64 {
	switch {
	case from == to:
		return v
	case from == Degrees:
		return v * radPerDeg
	default:
		return v * degPerRad
	}
}

// Axis selects X, Y or Z
type Axis int

const (
	X Axis = iota
	Y
	Z
)

// ParseAxis parses "x", "y" or "z"
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x":
		return X, nil
	case "y":
		return Y, nil
	case "z":
		return Z, nil
	default:
		return X, fmt.Errorf("unknown axis: %q (supported: x, y, z)", s)
	}
}

func (a Axis) String() string {
	return [...]string{"x", "y", "z"}[a]
}

func (a Axis) valid() bool {
	return a >= X && a <= Z
}

// Kind distinguishes rotation controls from translation controls
type Kind int

const (
	Rotation Kind = iota
	Translation
)

// ParseKind parses "rotation" or "translation"
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rot", "rotation":
		return Rotation, nil
	case "trans", "translation":
		return Translation, nil
	default:
		return Rotation, fmt.Errorf("unknown control kind: %q (supported: rotation, translation)", s)
	}
}

func (k Kind) String() string {
	if k == Translation {
		return "translation"
	}
	return "rotation"
}
