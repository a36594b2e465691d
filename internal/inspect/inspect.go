package inspect

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/rigidreg/internal/geometry"
	"github.com/philipparndt/rigidreg/internal/matfile"
	"github.com/philipparndt/rigidreg/internal/registration"
	"github.com/philipparndt/rigidreg/internal/ui"
	"gopkg.in/yaml.v3"
)

// Report is the decomposition of a matrix about a rotation center
type Report struct {
	File        string       `yaml:"file,omitempty"`
	Center      [3]float64   `yaml:"center,flow"`
	Unit        string       `yaml:"angle_unit"`
	Angles      [3]float64   `yaml:"angles,flow"`
	Translation [3]float64   `yaml:"translation,flow"`
	Matrix      [4][]float64 `yaml:"matrix"`
	Determinant float64      `yaml:"determinant"`
	Rigid       bool         `yaml:"rigid"`
	Divergence  float64      `yaml:"divergence"`

	matrix mgl64.Mat4
}

func (r *Report) center() mgl64.Vec3      { return mgl64.Vec3(r.Center) }
func (r *Report) angles() mgl64.Vec3      { return mgl64.Vec3(r.Angles) }
func (r *Report) translation() mgl64.Vec3 { return mgl64.Vec3(r.Translation) }

// YAML encodes the report
func (r *Report) YAML() (string, error) {
	out, err := yaml.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	return string(out), nil
}

// Decompose builds a report for m. Angles are given in unit.
func Decompose(m mgl64.Mat4, center mgl64.Vec3, unit registration.AngleUnit) *Report {
	p := geometry.Decompose(m, center)

	r := &Report{
		Center:      [3]float64(center),
		Unit:        unit.String(),
		Translation: [3]float64(p.Translation),
		Determinant: m.Mat3().Det(),
		Rigid:       geometry.IsRigid(m),
		Divergence:  geometry.MaxAbsDiff(m, geometry.Compose(center, p)),
		matrix:      m,
	}
	for i := 0; i < 3; i++ {
		r.Angles[i] = p.Angles[i]
		if unit == registration.Degrees {
			r.Angles[i] = mgl64.RadToDeg(p.Angles[i])
		}
	}
	for row := 0; row < 4; row++ {
		r.Matrix[row] = []float64{m.At(row, 0), m.At(row, 1), m.At(row, 2), m.At(row, 3)}
	}
	return r
}

// Inspector reads matrix files and reports their decomposition
type Inspector struct {
	Center mgl64.Vec3
	Unit   registration.AngleUnit
}

// NewInspector creates a new Inspector decomposing about center
func NewInspector(center mgl64.Vec3, unit registration.AngleUnit) *Inspector {
	return &Inspector{Center: center, Unit: unit}
}

// Read parses filename and builds its report
func (i *Inspector) Read(filename string) (*Report, error) {
	m, err := matfile.NewParser().Parse(filename)
	if err != nil {
		return nil, err
	}

	r := Decompose(m, i.Center, i.Unit)
	r.File = filename
	return r, nil
}

// Inspect reads and displays the decomposition of a matrix file
func (i *Inspector) Inspect(filename string) error {
	r, err := i.Read(filename)
	if err != nil {
		return err
	}

	ui.PrintHeader(fmt.Sprintf("Inspecting: %s", filename))
	printer := NewPrinter()
	printer.PrintReport(r)
	printer.PrintMatrix(r.matrix)
	return nil
}
