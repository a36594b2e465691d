package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// ContinuityTolerance is the wrapped angular difference (radians) below which a
	// newly decomposed angle is treated as equal to the displayed one.
	ContinuityTolerance = 1e-4

	// DivergenceTolerance is the largest element difference accepted between a
	// matrix and the matrix recomposed from the parameters shown for it. Angles
	// kept within ContinuityTolerance on all three axes stay below it.
	DivergenceTolerance = 3 * ContinuityTolerance

	// RoundTripTolerance bounds the difference between a matrix and the
	// recomposition of its own decomposition.
	RoundTripTolerance = 1e-9

	// gimbalTolerance is the cos(rx) threshold under which rz is pinned to zero.
	gimbalTolerance = 1e-12
)

// Parameters is the Euler representation of a rigid transform about a rotation center.
// Angles are stored in radians, in X, Y, Z order.
type Parameters struct {
	Angles      mgl64.Vec3
	Translation mgl64.Vec3
}

// RotationYXZ builds the rotation block of the transform.
// Rotations are applied to points in the order: Y, then X, then Z (R = Rz * Rx * Ry).
func RotationYXZ(angles mgl64.Vec3) mgl64.Mat3 {
	ry := mgl64.Rotate3DY(angles[1])
	rx := mgl64.Rotate3DX(angles[0])
	rz := mgl64.Rotate3DZ(angles[2])
	return rz.Mul3(rx).Mul3(ry)
}

// Compose builds the 4x4 homogeneous matrix for the given parameters.
// The matrix is post-multiplied in this exact sequence:
// translate by -center, rotate Y, rotate X, rotate Z, translate by +center, translate by translation.
func Compose(center mgl64.Vec3, p Parameters) mgl64.Mat4 {
	m := mgl64.Translate3D(-center[0], -center[1], -center[2])
	m = mgl64.HomogRotate3DY(p.Angles[1]).Mul4(m)
	m = mgl64.HomogRotate3DX(p.Angles[0]).Mul4(m)
	m = mgl64.HomogRotate3DZ(p.Angles[2]).Mul4(m)
	m = mgl64.Translate3D(center[0], center[1], center[2]).Mul4(m)
	m = mgl64.Translate3D(p.Translation[0], p.Translation[1], p.Translation[2]).Mul4(m)
	return m
}

// Decompose extracts the canonical Euler parameters of m relative to center.
// No continuity with previously displayed angles is applied, see Reconcile.
func Decompose(m mgl64.Mat4, center mgl64.Vec3) Parameters {
	r := m.Mat3()

	// R21 = sin(rx), R20 = -cos(rx)sin(ry), R22 = cos(rx)cos(ry),
	// R01 = -cos(rx)sin(rz), R11 = cos(rx)cos(rz).
	var angles mgl64.Vec3
	a := math.Hypot(r.At(2, 0), r.At(2, 2))
	angles[0] = math.Atan2(r.At(2, 1), a)
	if a > gimbalTolerance {
		angles[2] = math.Atan2(-r.At(0, 1), r.At(1, 1))
	}

	// ry comes from what is left once rx and rz are taken out, so that
	// close to rx = +-pi/2 an error in rz is absorbed instead of doubled.
	rest := mgl64.Rotate3DX(-angles[0]).Mul3(mgl64.Rotate3DZ(-angles[2])).Mul3(r)
	angles[1] = math.Atan2(rest.At(0, 2), rest.At(0, 0))

	return Parameters{
		Angles:      angles,
		Translation: TranslationFor(m, center),
	}
}

// TranslationFor returns the user translation of m once the rotation center
// contribution is removed: t = offset - center + R*center.
func TranslationFor(m mgl64.Mat4, center mgl64.Vec3) mgl64.Vec3 {
	offset := mgl64.Vec3{m.At(0, 3), m.At(1, 3), m.At(2, 3)}
	return offset.Sub(center).Add(m.Mat3().Mul3x1(center))
}

// TranslationWith is TranslationFor with the rotation given by angles instead of
// the rotation block of m. Composing center, angles and the result reproduces
// the offset column of m exactly.
func TranslationWith(m mgl64.Mat4, center, angles mgl64.Vec3) mgl64.Vec3 {
	offset := mgl64.Vec3{m.At(0, 3), m.At(1, 3), m.At(2, 3)}
	return offset.Sub(center).Add(RotationYXZ(angles).Mul3x1(center))
}

// WrapAngle wraps an angle in radians into (-pi, pi].
func WrapAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	} else if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

// Reconcile chooses, per axis, between the previously displayed angle and a
// newly decomposed candidate. The candidate is adopted only when it differs
// from the previous angle by more than ContinuityTolerance modulo a full turn.
func Reconcile(previous, candidate mgl64.Vec3) mgl64.Vec3 {
	chosen := previous
	for i := 0; i < 3; i++ {
		if math.Abs(WrapAngle(candidate[i]-previous[i])) > ContinuityTolerance {
			chosen[i] = candidate[i]
		}
	}
	return chosen
}

// ReconcileSliders does the same for integer-degree slider positions: a slider
// only moves when the rounded candidate is not congruent to it modulo 360.
func ReconcileSliders(previous [3]int, candidate mgl64.Vec3) [3]int {
	chosen := previous
	for i := 0; i < 3; i++ {
		deg := int(math.Round(mgl64.RadToDeg(candidate[i])))
		if mod(deg-previous[i], 360) != 0 {
			chosen[i] = deg
		}
	}
	return chosen
}

// MaxAbsDiff returns the largest element-wise absolute difference of a and b.
func MaxAbsDiff(a, b mgl64.Mat4) float64 {
	var d float64
	for i := range a {
		d = math.Max(d, math.Abs(a[i]-b[i]))
	}
	return d
}

func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}
