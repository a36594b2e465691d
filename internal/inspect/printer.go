package inspect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/rigidreg/internal/geometry"
	"github.com/philipparndt/rigidreg/internal/matfile"
	"github.com/philipparndt/rigidreg/internal/registration"
	"github.com/philipparndt/rigidreg/internal/ui"
)

// Printer prints model state in the console
type Printer struct {
	Precision int
}

// NewPrinter creates a printer using the default display precision
func NewPrinter() *Printer {
	return &Printer{Precision: matfile.PrecisionDefault}
}

// FormatVec formats v as "(x, y, z)" with the given number of decimals
func FormatVec(v mgl64.Vec3, decimals int) string {
	parts := make([]string, 3)
	for i := range parts {
		parts[i] = strconv.FormatFloat(v[i]+0, 'f', decimals, 64)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// PrintMatrix prints m as a 4x4 block
func (p *Printer) PrintMatrix(m mgl64.Mat4) {
	s := matfile.NewWriter(p.Precision).Format(m)
	ui.PrintBox(strings.TrimSuffix(s, "\n"))
}

// PrintSnapshot prints center, parameter table, sliders and the matrix
func (p *Printer) PrintSnapshot(s registration.Snapshot) {
	ui.PrintSeparator()
	ui.PrintKeyValue("Session", s.Session.String())
	ui.PrintKeyValue("Center", FormatVec(s.Center, p.Precision))
	ui.PrintKeyValue("Unit", s.Unit.String())

	ui.PrintTableHeader("Axis", "Rotation", "Slider", "Translation", "Slider")
	for i, axis := range []registration.Axis{registration.X, registration.Y, registration.Z} {
		ui.PrintTableRow(
			axis.String(),
			strconv.FormatFloat(s.DisplayAngles[i], 'f', p.Precision, 64),
			strconv.Itoa(s.RotationSliders[i]),
			strconv.FormatFloat(s.Translation[i], 'f', p.Precision, 64),
			strconv.Itoa(s.TranslationSliders[i]),
		)
	}

	p.PrintMatrix(s.Matrix)
}

// PrintReport prints a decomposition report
func (p *Printer) PrintReport(r *Report) {
	ui.PrintKeyValue("Center", FormatVec(r.center(), p.Precision))
	ui.PrintKeyValue("Angles ("+r.Unit+")", FormatVec(r.angles(), p.Precision))
	ui.PrintKeyValue("Translation", FormatVec(r.translation(), p.Precision))
	ui.PrintKeyValue("Determinant", strconv.FormatFloat(r.Determinant, 'f', 6, 64))

	if r.Rigid {
		ui.PrintSuccess("Matrix is rigid")
	} else {
		ui.PrintWarning("Matrix is not rigid; the parameters do not reproduce it")
	}
	if r.Divergence > geometry.RoundTripTolerance {
		ui.PrintWarning(fmt.Sprintf("Recomposed matrix differs by %g", r.Divergence))
	}
}
