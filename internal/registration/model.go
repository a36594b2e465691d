package registration

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/philipparndt/rigidreg/internal/elastix"
	"github.com/philipparndt/rigidreg/internal/geometry"
	"github.com/philipparndt/rigidreg/internal/matfile"
	"github.com/philipparndt/rigidreg/internal/renderer"
	"github.com/philipparndt/rigidreg/internal/volume"
)

// Slider ranges. Rotation sliders are in integer degrees regardless of the display unit.
const (
	TranslationSliderLimit = 2000
	RotationSliderLimit    = 360
)

// StepSizes are the single-step increments of the spin boxes.
// The rotation step is expressed in the current display unit.
type StepSizes struct {
	Translation float64
	Rotation    float64
}

// Model holds the state of one manual registration session of an image:
// rotation center, Euler angles, translation and the resulting matrix.
//
// The model is not safe for concurrent use; every operation is expected to
// run on the goroutine handling user input.
type Model struct {
	id       uuid.UUID
	image    volume.Image
	renderer renderer.Renderer
	policy   geometry.Policy
	steps    StepSizes

	center      mgl64.Vec3
	angles      mgl64.Vec3 // radians
	translation mgl64.Vec3
	matrix      mgl64.Mat4
	initial     mgl64.Mat4

	// Spin box contents as typed (or set) in enteredUnit; angles is derived from them.
	entered     [3]float64
	enteredUnit [3]AngleUnit
	unit        AngleUnit

	rotationSliders    [3]int
	translationSliders [3]int

	listeners map[int]Listener
	nextID    int
}

// Option configures a model
type Option func(*Model)

// WithPolicy sets how non-rigid matrices are handled
func WithPolicy(p geometry.Policy) Option {
	return func(m *Model) { m.policy = p }
}

// WithRenderer sets the renderer asked to redraw after every transform change
func WithRenderer(r renderer.Renderer) Option {
	return func(m *Model) { m.renderer = r }
}

// WithUnit sets the initial display unit of the rotation spin boxes
func WithUnit(u AngleUnit) Option {
	return func(m *Model) { m.unit = u }
}

// WithSteps sets the spin box single steps
func WithSteps(s StepSizes) Option {
	return func(m *Model) { m.steps = s }
}

// WithCenter overrides the default rotation center (the image center)
func WithCenter(c mgl64.Vec3) Option {
	return func(m *Model) { m.center = c }
}

// New binds a model to image. The image's current transform becomes the
// initial matrix and is decomposed into parameters.
func New(image volume.Image, opts ...Option) (*Model, error) {
	m := &Model{
		id:        uuid.New(),
		image:     image,
		steps:     StepSizes{Translation: 1, Rotation: 1},
		center:    volume.DefaultCenter(image),
		initial:   image.Transform(),
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(m)
	}
	for i := range m.enteredUnit {
		m.enteredUnit[i] = Radians
	}

	if err := m.SetMatrix(m.initial); err != nil {
		return nil, fmt.Errorf("initial image transform: %w", err)
	}
	return m, nil
}

// ID identifies the session
func (m *Model) ID() uuid.UUID { return m.id }

// Matrix returns the current transform
func (m *Model) Matrix() mgl64.Mat4 { return m.matrix }

// InitialMatrix returns the transform the image had when the session started
func (m *Model) InitialMatrix() mgl64.Mat4 { return m.initial }

// Center returns the rotation center
func (m *Model) Center() mgl64.Vec3 { return m.center }

// Angles returns the rotation angles in radians
func (m *Model) Angles() mgl64.Vec3 { return m.angles }

// Translation returns the translation applied after the rotation
func (m *Model) Translation() mgl64.Vec3 { return m.translation }

// Parameters returns angles and translation together
func (m *Model) Parameters() geometry.Parameters {
	return geometry.Parameters{Angles: m.angles, Translation: m.translation}
}

// Unit returns the display unit of the rotation spin boxes
func (m *Model) Unit() AngleUnit { return m.unit }

// Policy returns the validation policy for loaded matrices
func (m *Model) Policy() geometry.Policy { return m.policy }

// Steps returns the spin box single steps
func (m *Model) Steps() StepSizes { return m.steps }

// DisplayAngles returns the rotation spin box values in the current unit
func (m *Model) DisplayAngles() [3]float64 {
	var out [3]float64
	for i := range out {
		out[i] = convert(m.entered[i], m.enteredUnit[i], m.unit)
	}
	return out
}

// RotationSliders returns the rotation slider positions in integer degrees
func (m *Model) RotationSliders() [3]int { return m.rotationSliders }

// TranslationSliders returns the translation slider positions
func (m *Model) TranslationSliders() [3]int { return m.translationSliders }

// Divergence is the largest element difference between the current matrix
// and the matrix recomposed from the displayed parameters.
func (m *Model) Divergence() float64 {
	return geometry.MaxAbsDiff(m.matrix, geometry.Compose(m.center, m.Parameters()))
}

// SetParameters replaces angles (radians) and translation and recomputes the matrix
func (m *Model) SetParameters(p geometry.Parameters) {
	for i := 0; i < 3; i++ {
		m.setAngle(i, p.Angles[i], Radians)
		m.setTranslation(i, p.Translation[i])
	}
	m.recompose(ParametersChanged)
}

// SetAngle sets a rotation spin box, value is in the current display unit
func (m *Model) SetAngle(axis Axis, value float64) error {
	if !axis.valid() {
		return fmt.Errorf("invalid axis %d", axis)
	}
	m.setAngle(int(axis), value, m.unit)
	m.recompose(ParametersChanged)
	return nil
}

// SetTranslation sets a translation spin box
func (m *Model) SetTranslation(axis Axis, value float64) error {
	if !axis.valid() {
		return fmt.Errorf("invalid axis %d", axis)
	}
	m.setTranslation(int(axis), value)
	m.recompose(ParametersChanged)
	return nil
}

// SetRotationSlider moves a rotation slider (integer degrees); the spin box follows
func (m *Model) SetRotationSlider(axis Axis, degrees int) error {
	if !axis.valid() {
		return fmt.Errorf("invalid axis %d", axis)
	}
	degrees = clampInt(degrees, RotationSliderLimit)
	m.setAngle(int(axis), float64(degrees), Degrees)
	m.recompose(ParametersChanged)
	return nil
}

// SetTranslationSlider moves a translation slider; the spin box follows
func (m *Model) SetTranslationSlider(axis Axis, value int) error {
	if !axis.valid() {
		return fmt.Errorf("invalid axis %d", axis)
	}
	value = clampInt(value, TranslationSliderLimit)
	m.setTranslation(int(axis), float64(value))
	m.recompose(ParametersChanged)
	return nil
}

// Nudge moves a spin box by a number of single steps (negative steps go down)
func (m *Model) Nudge(kind Kind, axis Axis, steps int) error {
	if !axis.valid() {
		return fmt.Errorf("invalid axis %d", axis)
	}
	if kind == Translation {
		return m.SetTranslation(axis, m.translation[axis]+float64(steps)*m.steps.Translation)
	}
	return m.SetAngle(axis, m.DisplayAngles()[axis]+float64(steps)*m.steps.Rotation)
}

// SetMatrix makes m the current transform and derives parameters from it.
// The matrix is checked against the validation policy first; when it is
// rejected the model is left untouched.
func (m *Model) SetMatrix(matrix mgl64.Mat4) error {
	validated, err := geometry.Validate(matrix, m.policy)
	if err != nil {
		return err
	}
	m.applyMatrix(validated, MatrixChanged)
	return nil
}

// SetCenter changes the rotation center. The matrix stays as it is, only its
// decomposition into angles and translation is recomputed.
func (m *Model) SetCenter(c mgl64.Vec3) {
	m.center = c
	m.applyMatrix(m.matrix, CenterChanged)
}

// SetUnit changes the display unit of the rotation spin boxes.
// Stored angles are not modified.
func (m *Model) SetUnit(u AngleUnit) {
	if u == m.unit {
		return
	}
	m.unit = u
	m.notify(UnitChanged)
}

// ToggleUnit switches between degrees and radians
func (m *Model) ToggleUnit() {
	m.SetUnit(m.unit.Other())
}

// Reset restores the initial matrix
func (m *Model) Reset() error {
	validated, err := geometry.Validate(m.initial, m.policy)
	if err != nil {
		return err
	}
	m.applyMatrix(validated, ResetDone)
	return nil
}

// Cancel gives the image back the exact transform it had when the model was
// created. Unlike Reset, the initial matrix is not run through the policy.
func (m *Model) Cancel() {
	m.applyMatrix(m.initial, Cancelled)
}

// LoadMatrix replaces the transform with the matrix stored in filename
func (m *Model) LoadMatrix(filename string) error {
	matrix, err := matfile.NewParser().Parse(filename)
	if err != nil {
		return err
	}
	if err := m.SetMatrix(matrix); err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	return nil
}

// SaveMatrix writes the current matrix to filename with the given number of decimals
func (m *Model) SaveMatrix(filename string, precision int) error {
	return matfile.NewWriter(precision).Write(filename, m.matrix)
}

// LoadElastix applies the Euler parameters of an elastix TransformParameters file
func (m *Model) LoadElastix(filename string) error {
	rec, err := elastix.NewParser().Parse(filename)
	if err != nil {
		return err
	}
	m.ApplyElastix(rec)
	return nil
}

// ApplyElastix maps elastix parameters directly onto center, angles and
// translation, then recomputes the matrix. No decomposition is involved.
func (m *Model) ApplyElastix(rec *elastix.Record) {
	m.center = rec.Center
	for i := 0; i < 3; i++ {
		m.setAngle(i, rec.Angles[i], Radians)
		m.setTranslation(i, rec.Translation[i])
	}
	m.recompose(ElastixLoaded)
}

func (m *Model) setAngle(i int, value float64, unit AngleUnit) {
	m.entered[i] = value
	m.enteredUnit[i] = unit
	m.angles[i] = convert(value, unit, Radians)
	m.rotationSliders[i] = clampInt(int(math.Round(convert(value, unit, Degrees))), RotationSliderLimit)
}

func (m *Model) setTranslation(i int, value float64) {
	m.translation[i] = value
	m.translationSliders[i] = clampInt(int(math.Round(value)), TranslationSliderLimit)
}

// recompose rebuilds the matrix from the parameters
func (m *Model) recompose(kind ChangeKind) {
	m.matrix = geometry.Compose(m.center, m.Parameters())
	m.publish(kind)
}

// applyMatrix stores an accepted matrix and derives parameters from it,
// keeping displayed angles that are equivalent to the decomposed ones.
func (m *Model) applyMatrix(matrix mgl64.Mat4, kind ChangeKind) {
	m.matrix = matrix
	p := geometry.Decompose(matrix, m.center)

	previous := m.angles
	m.keepAngles(geometry.Reconcile(previous, p.Angles))
	// Kept angles may be off by up to the continuity tolerance; the translation
	// absorbs that so the offset column still matches the matrix exactly.
	m.setTranslations(geometry.TranslationWith(matrix, m.center, m.angles))

	if m.Divergence() > geometry.DivergenceTolerance {
		m.angles = previous
		m.keepAngles(p.Angles)
		m.setTranslations(p.Translation)
	}
	m.rotationSliders = geometry.ReconcileSliders(m.rotationSliders, p.Angles)

	m.publish(kind)
}

func (m *Model) setTranslations(t mgl64.Vec3) {
	for i := 0; i < 3; i++ {
		m.setTranslation(i, t[i])
	}
}

// keepAngles stores chosen angles, leaving spin boxes whose value is unchanged as typed
func (m *Model) keepAngles(chosen mgl64.Vec3) {
	for i := 0; i < 3; i++ {
		if chosen[i] != m.angles[i] {
			m.entered[i] = chosen[i]
			m.enteredUnit[i] = Radians
			m.angles[i] = chosen[i]
		}
	}
}

// publish pushes the matrix into the image, redraws and notifies listeners
func (m *Model) publish(kind ChangeKind) {
	if m.image != nil {
		m.image.SetTransform(m.matrix)
	}
	if m.renderer != nil {
		m.renderer.Redraw()
	}
	m.notify(kind)
}

func clampInt(v, limit int) int {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}
