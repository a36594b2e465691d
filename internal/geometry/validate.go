package geometry

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

// RigidTolerance is the maximum element-wise deviation accepted when checking
// that a matrix is a rigid transform.
const RigidTolerance = 1e-6

// ErrNotRigid is returned when a matrix is not a rotation plus a translation.
var ErrNotRigid = errors.New("matrix is not a rigid transform")

// Policy decides what happens to externally supplied matrices that are not rigid.
type Policy int

const (
	// PolicyStrict rejects anything that is not rotation + translation.
	PolicyStrict Policy = iota
	// PolicyOrthonormalize replaces the 3x3 block with the nearest proper rotation.
	PolicyOrthonormalize
	// PolicyPassthrough accepts the matrix as is.
	PolicyPassthrough
)

// ParsePolicy parses a policy name as used in configuration files.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return PolicyStrict, nil
	case "orthonormalize", "orthonormalise":
		return PolicyOrthonormalize, nil
	case "passthrough", "none":
		return PolicyPassthrough, nil
	default:
		return PolicyStrict, fmt.Errorf("unknown validation policy: %s (supported: strict, orthonormalize, passthrough)", s)
	}
}

func (p Policy) String() string {
	switch p {
	case PolicyOrthonormalize:
		return "orthonormalize"
	case PolicyPassthrough:
		return "passthrough"
	default:
		return "strict"
	}
}

// Validate applies the policy to m and returns the matrix the model should use.
// Matrices with NaN or infinite elements are rejected under every policy.
func Validate(m mgl64.Mat4, policy Policy) (mgl64.Mat4, error) {
	for i, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return m, fmt.Errorf("%w: element (%d, %d) is %v", ErrNotRigid, i%4, i/4, v)
		}
	}
	if policy == PolicyPassthrough {
		return m, nil
	}

	if !hasAffineLastRow(m) {
		return m, fmt.Errorf("%w: last row is %v, expected [0 0 0 1]", ErrNotRigid, m.Row(3))
	}

	r := rotationDense(m)
	if mat.Det(r) <= 0 {
		return m, fmt.Errorf("%w: rotation block has non-positive determinant (reflection or singular)", ErrNotRigid)
	}

	if isOrthonormal(r) {
		return m, nil
	}

	if policy == PolicyStrict {
		return m, fmt.Errorf("%w: rotation block is not orthonormal (scale or shear present)", ErrNotRigid)
	}

	nearest, err := nearestRotation(r)
	if err != nil {
		return m, err
	}
	out := m
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.Set(i, j, nearest.At(i, j))
		}
	}
	return out, nil
}

// IsRigid reports whether m passes the strict policy.
func IsRigid(m mgl64.Mat4) bool {
	_, err := Validate(m, PolicyStrict)
	return err == nil
}

func hasAffineLastRow(m mgl64.Mat4) bool {
	want := [4]float64{0, 0, 0, 1}
	for j := 0; j < 4; j++ {
		if math.Abs(m.At(3, j)-want[j]) > RigidTolerance {
			return false
		}
	}
	return true
}

func rotationDense(m mgl64.Mat4) *mat.Dense {
	r := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r.Set(i, j, m.At(i, j))
		}
	}
	return r
}

func isOrthonormal(r *mat.Dense) bool {
	var rtr mat.Dense
	rtr.Mul(r.T(), r)
	identity := mat.NewDiagDense(3, []float64{1, 1, 1})
	return mat.EqualApprox(&rtr, identity, RigidTolerance)
}

// nearestRotation returns the orthonormal polar factor U*Vt of r.
func nearestRotation(r *mat.Dense) (*mat.Dense, error) {
	var svd mat.SVD
	if ok := svd.Factorize(r, mat.SVDFull); !ok {
		return nil, fmt.Errorf("%w: SVD of rotation block failed", ErrNotRigid)
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var out mat.Dense
	out.Mul(&u, v.T())
	if mat.Det(&out) < 0 {
		return nil, fmt.Errorf("%w: nearest orthonormal matrix is a reflection", ErrNotRigid)
	}
	return &out, nil
}
