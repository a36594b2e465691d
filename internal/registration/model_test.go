package registration

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/rigidreg/internal/elastix"
	"github.com/philipparndt/rigidreg/internal/geometry"
	"github.com/philipparndt/rigidreg/internal/renderer"
	"github.com/philipparndt/rigidreg/internal/volume"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newImage() *volume.Volume {
	// 101 x 51 x 21 voxels of 1 mm starting at the origin: center (50, 25, 10)
	return volume.New(mgl64.Vec3{}, [3]int{101, 51, 21}, mgl64.Vec3{1, 1, 1})
}

func newModel(t *testing.T, opts ...Option) *Model {
	t.Helper()
	m, err := New(newImage(), opts...)
	require.NoError(t, err)
	return m
}

func assertMatrix(t *testing.T, want, got mgl64.Mat4, tol float64) {
	t.Helper()
	assert.LessOrEqual(t, geometry.MaxAbsDiff(want, got), tol, "matrix\n got %v\nwant %v", got, want)
}

func TestNew_DefaultsFromImage(t *testing.T) {
	img := newImage()
	initial := geometry.Compose(mgl64.Vec3{50, 25, 10}, geometry.Parameters{
		Angles:      mgl64.Vec3{0.1, 0.2, 0.3},
		Translation: mgl64.Vec3{4, 5, 6},
	})
	img.SetTransform(initial)

	m, err := New(img)
	require.NoError(t, err)

	assert.Equal(t, mgl64.Vec3{50, 25, 10}, m.Center())
	assert.Equal(t, initial, m.InitialMatrix())
	assert.Equal(t, initial, m.Matrix())
	assert.InDeltaSlice(t, []float64{0.1, 0.2, 0.3}, slice(m.Angles()), 1e-12)
	assert.InDeltaSlice(t, []float64{4, 5, 6}, slice(m.Translation()), 1e-12)
	assert.Equal(t, [3]int{6, 11, 17}, m.RotationSliders())
	assert.Equal(t, [3]int{4, 5, 6}, m.TranslationSliders())
	assert.Equal(t, Degrees, m.Unit())
	assert.NotEqual(t, [16]byte{}, [16]byte(m.ID()))
}

func TestNew_RejectsNonRigidInitialTransform(t *testing.T) {
	img := newImage()
	img.SetTransform(mgl64.Scale3D(2, 2, 2))

	_, err := New(img)
	assert.ErrorIs(t, err, geometry.ErrNotRigid)

	_, err = New(img, WithPolicy(geometry.PolicyPassthrough))
	assert.NoError(t, err)
}

func TestTranslationOnlyExample(t *testing.T) {
	m := newModel(t, WithCenter(mgl64.Vec3{}))

	m.SetParameters(geometry.Parameters{Translation: mgl64.Vec3{10, 0, 0}})

	want := mgl64.Translate3D(10, 0, 0)
	assertMatrix(t, want, m.Matrix(), 1e-12)

	require.NoError(t, m.SetMatrix(m.Matrix()))
	assert.Equal(t, mgl64.Vec3{}, m.Angles())
	assert.InDeltaSlice(t, []float64{10, 0, 0}, slice(m.Translation()), 1e-12)
}

func TestSetAngle_UpdatesMatrixAndSlider(t *testing.T) {
	m := newModel(t)

	require.NoError(t, m.SetAngle(Z, 90))

	assert.InDelta(t, math.Pi/2, m.Angles()[2], 1e-15)
	assert.Equal(t, [3]int{0, 0, 90}, m.RotationSliders())

	want := geometry.Compose(m.Center(), geometry.Parameters{Angles: mgl64.Vec3{0, 0, math.Pi / 2}})
	assertMatrix(t, want, m.Matrix(), 1e-12)
	assert.Equal(t, m.Matrix(), newImageTransform(m))
	assert.Zero(t, m.Divergence())
}

func slice(v mgl64.Vec3) []float64 {
	return v[:]
}

func newImageTransform(m *Model) mgl64.Mat4 {
	return m.image.Transform()
}

func TestSliders(t *testing.T) {
	m := newModel(t)

	require.NoError(t, m.SetRotationSlider(X, 45))
	assert.Equal(t, 45.0, m.DisplayAngles()[0])

	m.SetUnit(Radians)
	require.NoError(t, m.SetRotationSlider(Y, -30))
	assert.InDelta(t, -math.Pi/6, m.DisplayAngles()[1], 1e-15)
	assert.Equal(t, [3]int{45, -30, 0}, m.RotationSliders())

	require.NoError(t, m.SetTranslationSlider(Z, 5000))
	assert.Equal(t, float64(TranslationSliderLimit), m.Translation()[2])

	require.NoError(t, m.SetTranslation(X, 12.6))
	assert.Equal(t, [3]int{13, 0, 2000}, m.TranslationSliders())

	// Spin box in radians drives the degree slider
	require.NoError(t, m.SetAngle(Z, 1))
	assert.Equal(t, 57, m.RotationSliders()[2])

	assert.Error(t, m.SetAngle(Axis(7), 1))
}

func TestNudge(t *testing.T) {
	m := newModel(t, WithSteps(StepSizes{Translation: 0.5, Rotation: 2}))

	require.NoError(t, m.Nudge(Translation, Y, 3))
	require.NoError(t, m.Nudge(Rotation, X, -2))

	assert.Equal(t, 1.5, m.Translation()[1])
	assert.Equal(t, -4.0, m.DisplayAngles()[0])
}

func TestToggleUnit_IsExactlyInvertible(t *testing.T) {
	m := newModel(t)

	require.NoError(t, m.SetAngle(X, 30.123))
	require.NoError(t, m.SetAngle(Y, -271.77))
	before := m.DisplayAngles()
	anglesBefore := m.Angles()
	matrixBefore := m.Matrix()

	m.ToggleUnit()
	assert.Equal(t, Radians, m.Unit())
	assert.InDelta(t, 30.123*math.Pi/180, m.DisplayAngles()[0], 1e-15)

	m.ToggleUnit()
	assert.Equal(t, before, m.DisplayAngles(), "display values must survive a double toggle bit for bit")
	assert.Equal(t, anglesBefore, m.Angles())
	assert.Equal(t, matrixBefore, m.Matrix())

	// Same from the radian side.
	m.SetUnit(Radians)
	require.NoError(t, m.SetAngle(Z, 0.7))
	before = m.DisplayAngles()
	m.ToggleUnit()
	m.ToggleUnit()
	assert.Equal(t, before, m.DisplayAngles())
}

func TestSetMatrix_KeepsEquivalentDisplayedAngles(t *testing.T) {
	m := newModel(t)
	require.NoError(t, m.SetAngle(Z, 200))
	require.NoError(t, m.SetAngle(X, 30))
	require.NoError(t, m.SetTranslation(Y, 7))

	// Same transform coming back from outside: decomposes to rz = -160 degrees.
	require.NoError(t, m.SetMatrix(m.Matrix()))

	assert.Equal(t, 200.0, m.DisplayAngles()[2])
	assert.Equal(t, 30.0, m.DisplayAngles()[0])
	assert.Equal(t, [3]int{30, 0, 200}, m.RotationSliders())
	assert.InDelta(t, 7, m.Translation()[1], 1e-9)
}

func TestSetMatrix_AdoptsDifferentAngles(t *testing.T) {
	m := newModel(t)
	require.NoError(t, m.SetAngle(X, 10))

	target := geometry.Compose(m.Center(), geometry.Parameters{Angles: mgl64.Vec3{0.5, -0.25, 0.125}})
	require.NoError(t, m.SetMatrix(target))

	assert.InDeltaSlice(t, []float64{0.5, -0.25, 0.125}, slice(m.Angles()), 1e-12)
	assert.Equal(t, [3]int{29, -14, 7}, m.RotationSliders())
	assert.Equal(t, target, m.Matrix())
	assert.Less(t, m.Divergence(), 1e-9)
}

func TestSetMatrix_KeptAngleWithDistantCenter(t *testing.T) {
	center := mgl64.Vec3{200, 200, 200}
	m := newModel(t, WithCenter(center))

	// rz = 9e-5 is within the continuity tolerance of the displayed 0.
	target := geometry.Compose(center, geometry.Parameters{Angles: mgl64.Vec3{0, 0, 9e-5}, Translation: mgl64.Vec3{1, 2, 3}})
	require.NoError(t, m.SetMatrix(target))

	assert.Equal(t, 0.0, m.Angles()[2])
	assert.Equal(t, target, m.Matrix())

	recomposed := geometry.Compose(center, m.Parameters())
	for row := 0; row < 3; row++ {
		assert.InDelta(t, target.At(row, 3), recomposed.At(row, 3), 1e-9, "offset row %d", row)
	}
	assert.LessOrEqual(t, m.Divergence(), geometry.DivergenceTolerance)
}

func TestSetMatrix_NearGimbalLockKeepsMatrix(t *testing.T) {
	center := mgl64.Vec3{100, 50, 20}
	m := newModel(t, WithCenter(center))

	target := geometry.Compose(center, geometry.Parameters{Angles: mgl64.Vec3{math.Pi/2 - 1e-6, 0.3, 0.5}, Translation: mgl64.Vec3{1, 2, 3}})
	require.NoError(t, m.SetMatrix(target))

	assert.Less(t, m.Divergence(), geometry.RoundTripTolerance)
}

func TestSetMatrix_RejectedLeavesModelUnchanged(t *testing.T) {
	m := newModel(t)
	require.NoError(t, m.SetAngle(Y, 15))
	before := m.Snapshot()

	err := m.SetMatrix(mgl64.Scale3D(1, 2, 1))
	assert.ErrorIs(t, err, geometry.ErrNotRigid)
	assert.Equal(t, before, m.Snapshot())
}

func TestSetMatrix_Orthonormalize(t *testing.T) {
	m := newModel(t, WithPolicy(geometry.PolicyOrthonormalize))

	rotation := mgl64.HomogRotate3DZ(0.3)
	require.NoError(t, m.SetMatrix(rotation.Mul4(mgl64.Scale3D(1.01, 1.01, 1.01))))

	assertMatrix(t, rotation, m.Matrix(), 1e-12)
	assert.InDelta(t, 0.3, m.Angles()[2], 1e-12)
}

func TestSetCenter_KeepsMatrix(t *testing.T) {
	m := newModel(t)
	require.NoError(t, m.SetAngle(Z, 90))
	matrix := m.Matrix()

	m.SetCenter(mgl64.Vec3{0, 0, 0})

	assert.Equal(t, matrix, m.Matrix())
	assert.Equal(t, mgl64.Vec3{0, 0, 0}, m.Center())
	assert.Equal(t, 90.0, m.DisplayAngles()[2])
	// Rotating about (50, 25, 10) equals rotating about the origin plus a translation.
	assert.InDeltaSlice(t, []float64{75, -25, 0}, slice(m.Translation()), 1e-9)
	assert.Less(t, m.Divergence(), 1e-9)
}

func TestReset_IsIdempotent(t *testing.T) {
	img := newImage()
	img.SetTransform(mgl64.Translate3D(1, 2, 3))
	m, err := New(img)
	require.NoError(t, err)

	require.NoError(t, m.SetAngle(X, 120))
	require.NoError(t, m.SetTranslation(Z, -40))

	require.NoError(t, m.Reset())
	once := m.Snapshot()
	require.NoError(t, m.Reset())
	twice := m.Snapshot()

	assert.Equal(t, once, twice)
	assert.Equal(t, mgl64.Translate3D(1, 2, 3), m.Matrix())
	assert.Equal(t, mgl64.Translate3D(1, 2, 3), img.Transform())
	assert.InDeltaSlice(t, []float64{0, 0, 0}, slice(m.Angles()), 1e-12)
}

func TestCancel_RestoresInitialTransform(t *testing.T) {
	img := newImage()
	initial := geometry.Compose(mgl64.Vec3{50, 25, 10}, geometry.Parameters{
		Angles:      mgl64.Vec3{0, 0.25, 0},
		Translation: mgl64.Vec3{-1, 0, 2},
	})
	img.SetTransform(initial)
	m, err := New(img)
	require.NoError(t, err)

	require.NoError(t, m.SetAngle(Z, 70))
	require.NoError(t, m.SetTranslationSlider(X, 300))

	var last ChangeKind
	m.Subscribe(ListenerFunc(func(c Change) { last = c.Kind }))
	m.Cancel()

	assert.Equal(t, Cancelled, last)
	assert.Equal(t, "cancel", last.String())
	assert.Equal(t, initial, img.Transform())
	assert.InDeltaSlice(t, []float64{0, 0.25, 0}, slice(m.Angles()), 1e-12)
	assert.InDeltaSlice(t, []float64{-1, 0, 2}, slice(m.Translation()), 1e-9)
}

func TestApplyElastix(t *testing.T) {
	m := newModel(t)

	rec := &elastix.Record{
		Angles:      mgl64.Vec3{0.1, -0.2, 0.3},
		Translation: mgl64.Vec3{1, 2, 3},
		Center:      mgl64.Vec3{10, 20, 30},
	}
	m.ApplyElastix(rec)

	assert.Equal(t, rec.Center, m.Center())
	assert.Equal(t, rec.Angles, m.Angles())
	assert.Equal(t, rec.Translation, m.Translation())
	assertMatrix(t, geometry.Compose(rec.Center, geometry.Parameters{Angles: rec.Angles, Translation: rec.Translation}), m.Matrix(), 0)
	assert.InDelta(t, 0.1*180/math.Pi, m.DisplayAngles()[0], 1e-12)
}

func TestLoadElastix_MalformedLeavesModelUnchanged(t *testing.T) {
	m := newModel(t)
	require.NoError(t, m.SetAngle(X, 5))
	require.NoError(t, m.SetTranslation(Y, 3))
	before := m.Snapshot()

	path := filepath.Join(t.TempDir(), "TransformParameters.0.txt")
	content := "(TransformParameters 1.0 2.0 3.0 4.0)\n(CenterOfRotationPoint 1.0 2.0 3.0)\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	err := m.LoadElastix(path)
	var pe *elastix.ParseError
	assert.ErrorAs(t, err, &pe)
	assert.Equal(t, before, m.Snapshot())
}

func TestSaveAndLoadMatrix(t *testing.T) {
	m := newModel(t)
	require.NoError(t, m.SetAngle(Y, 33))
	require.NoError(t, m.SetTranslation(X, -12.5))
	saved := m.Matrix()

	path := filepath.Join(t.TempDir(), "out.mat")
	require.NoError(t, m.SaveMatrix(path, 16))

	require.NoError(t, m.Reset())
	require.NoError(t, m.LoadMatrix(path))
	assertMatrix(t, saved, m.Matrix(), 1e-12)
	assert.InDelta(t, 33, m.DisplayAngles()[1], 1e-9)

	before := m.Snapshot()
	assert.Error(t, m.LoadMatrix(filepath.Join(t.TempDir(), "missing.mat")))
	assert.Equal(t, before, m.Snapshot())
}

func TestListenersAndRenderer(t *testing.T) {
	redraws := 0
	m := newModel(t, WithRenderer(renderer.Func(func() { redraws++ })))

	var kinds []ChangeKind
	unsubscribe := m.Subscribe(ListenerFunc(func(c Change) {
		kinds = append(kinds, c.Kind)
		assert.Equal(t, m.ID(), c.Snapshot.Session)
	}))

	require.NoError(t, m.SetAngle(X, 1))
	m.SetCenter(mgl64.Vec3{1, 1, 1})
	m.ToggleUnit()
	require.NoError(t, m.Reset())

	assert.Equal(t, []ChangeKind{ParametersChanged, CenterChanged, UnitChanged, ResetDone}, kinds)
	// initial redraw from New, unit changes do not redraw
	assert.Equal(t, 4, redraws)

	unsubscribe()
	require.NoError(t, m.SetAngle(X, 2))
	assert.Len(t, kinds, 4)
}
