package plan

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/rigidreg/internal/geometry"
	"github.com/philipparndt/rigidreg/internal/inspect"
	"github.com/philipparndt/rigidreg/internal/matfile"
	"github.com/philipparndt/rigidreg/internal/models"
	"github.com/philipparndt/rigidreg/internal/registration"
	"github.com/philipparndt/rigidreg/internal/renderer"
	"github.com/philipparndt/rigidreg/internal/ui"
	"github.com/philipparndt/rigidreg/internal/volume"
)

// Step is a single scripted user action
type Step interface {
	Name() string
	Execute(m *registration.Model) error
}

// Plan contains the session setup and all steps to replay
type Plan struct {
	Steps       []Step
	StopOnError bool

	config *models.YamlConfig
}

// Planner creates session plans from configuration files
type Planner struct{}

// NewPlanner creates a new session planner
func NewPlanner() *Planner {
	return &Planner{}
}

// CreatePlan converts the scripted actions of config into steps
func (p *Planner) CreatePlan(config *models.YamlConfig) (*Plan, error) {
	plan := &Plan{StopOnError: config.StopOnError, config: config}

	precision, err := matfile.ParsePrecision(config.Precision)
	if err != nil {
		return nil, err
	}

	for i, action := range config.Actions {
		step, err := p.createStep(action, precision)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i+1, err)
		}
		plan.Steps = append(plan.Steps, step)
	}

	return plan, nil
}

// createStep maps one action to its step; saves without an explicit
// precision use defaultPrecision.
func (p *Planner) createStep(action models.YamlAction, defaultPrecision int) (Step, error) {
	switch {
	case action.Rotate != nil:
		axis, err := registration.ParseAxis(action.Rotate.Axis)
		if err != nil {
			return nil, err
		}
		return &RotateStep{Axis: axis, Value: action.Rotate.Value}, nil
	case action.Translate != nil:
		axis, err := registration.ParseAxis(action.Translate.Axis)
		if err != nil {
			return nil, err
		}
		return &TranslateStep{Axis: axis, Value: action.Translate.Value}, nil
	case action.Slider != nil:
		kind, axis, err := parseControl(action.Slider.Kind, action.Slider.Axis)
		if err != nil {
			return nil, err
		}
		return &SliderStep{Kind: kind, Axis: axis, Value: action.Slider.Value}, nil
	case action.Nudge != nil:
		kind, axis, err := parseControl(action.Nudge.Kind, action.Nudge.Axis)
		if err != nil {
			return nil, err
		}
		return &NudgeStep{Kind: kind, Axis: axis, Steps: action.Nudge.Steps}, nil
	case action.Center != nil:
		if len(action.Center) != 3 {
			return nil, fmt.Errorf("center must have 3 values")
		}
		return &CenterStep{Center: mgl64.Vec3{action.Center[0], action.Center[1], action.Center[2]}}, nil
	case action.Unit != "":
		if action.Unit == "toggle" {
			return &UnitStep{Toggle: true}, nil
		}
		unit, err := registration.ParseAngleUnit(action.Unit)
		if err != nil {
			return nil, err
		}
		return &UnitStep{Unit: unit}, nil
	case action.LoadMatrix != "":
		return &LoadMatrixStep{File: action.LoadMatrix}, nil
	case action.LoadElastix != "":
		return &LoadElastixStep{File: action.LoadElastix}, nil
	case action.Reset:
		return &ResetStep{}, nil
	case action.Save != nil:
		if action.Save.Precision == "" {
			return &SaveStep{File: action.Save.File, Precision: defaultPrecision}, nil
		}
		precision, err := matfile.ParsePrecision(action.Save.Precision)
		if err != nil {
			return nil, err
		}
		return &SaveStep{File: action.Save.File, Precision: precision}, nil
	case action.Print:
		return &PrintStep{}, nil
	case action.Cancel:
		return &CancelStep{}, nil
	default:
		return nil, fmt.Errorf("empty action")
	}
}

func parseControl(kind, axis string) (registration.Kind, registration.Axis, error) {
	k, err := registration.ParseKind(kind)
	if err != nil {
		return k, 0, err
	}
	a, err := registration.ParseAxis(axis)
	return k, a, err
}

// RendererFactory creates the renderer that draws img
type RendererFactory func(img volume.Image) renderer.Renderer

// NewSession creates the image and the model described by the plan's configuration
func (p *Plan) NewSession(newRenderer RendererFactory) (*registration.Model, *volume.Volume, error) {
	return NewSession(p.config, newRenderer)
}

// NewSession creates the image and the model described by config.
// newRenderer may be nil when nothing needs to be drawn.
func NewSession(config *models.YamlConfig, newRenderer RendererFactory) (*registration.Model, *volume.Volume, error) {
	img, err := volume.FromInfo(config.Image)
	if err != nil {
		return nil, nil, err
	}
	if config.InitialMatrix != nil {
		img.SetTransform(matfile.FromRows(config.InitialMatrix[:]))
	}

	unit, err := registration.ParseAngleUnit(config.AngleUnit)
	if err != nil {
		return nil, nil, err
	}
	policy, err := geometry.ParsePolicy(config.Validation)
	if err != nil {
		return nil, nil, err
	}

	opts := []registration.Option{
		registration.WithUnit(unit),
		registration.WithPolicy(policy),
	}
	if newRenderer != nil {
		opts = append(opts, registration.WithRenderer(newRenderer(img)))
	}
	if config.Steps != nil {
		opts = append(opts, registration.WithSteps(registration.StepSizes{
			Translation: config.Steps.Translation,
			Rotation:    config.Steps.Rotation,
		}))
	}
	if len(config.Center) == 3 {
		opts = append(opts, registration.WithCenter(mgl64.Vec3{config.Center[0], config.Center[1], config.Center[2]}))
	}

	model, err := registration.New(img, opts...)
	if err != nil {
		return nil, nil, err
	}
	return model, img, nil
}

// Execute runs all steps against m.
// Failing steps are reported and skipped unless StopOnError is set;
// the number of failed steps is returned as an error at the end.
func (p *Plan) Execute(m *registration.Model) error {
	ui.PrintHeader(fmt.Sprintf("Session %s", m.ID()))

	failed := 0
	cancelled := false
	for i, step := range p.Steps {
		ui.PrintStep(fmt.Sprintf("[%d/%d] %s", i+1, len(p.Steps), step.Name()))
		if err := step.Execute(m); err != nil {
			failed++
			ui.PrintError(err.Error())
			if p.StopOnError {
				return fmt.Errorf("step %d (%s) failed: %w", i+1, step.Name(), err)
			}
		}
		if _, ok := step.(*CancelStep); ok {
			cancelled = true
			break
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d %s failed", failed, len(p.Steps), pluralize(len(p.Steps)))
	}
	if cancelled {
		ui.PrintWarning("Session cancelled, initial transform restored")
		return nil
	}
	ui.PrintSuccess(fmt.Sprintf("Session finished, %d %s applied", len(p.Steps), pluralize(len(p.Steps))))
	return nil
}

func pluralize(count int) string {
	if count == 1 {
		return "step"
	}
	return "steps"
}

// RotateStep types a value into a rotation spin box
type RotateStep struct {
	Axis  registration.Axis
	Value float64
}

func (s *RotateStep) Name() string {
	return fmt.Sprintf("Rotate %s = %g", s.Axis, s.Value)
}

func (s *RotateStep) Execute(m *registration.Model) error {
	return m.SetAngle(s.Axis, s.Value)
}

// TranslateStep types a value into a translation spin box
type TranslateStep struct {
	Axis  registration.Axis
	Value float64
}

func (s *TranslateStep) Name() string {
	return fmt.Sprintf("Translate %s = %g", s.Axis, s.Value)
}

func (s *TranslateStep) Execute(m *registration.Model) error {
	return m.SetTranslation(s.Axis, s.Value)
}

// SliderStep moves a slider
type SliderStep struct {
	Kind  registration.Kind
	Axis  registration.Axis
	Value int
}

func (s *SliderStep) Name() string {
	return fmt.Sprintf("Move %s slider %s to %d", s.Kind, s.Axis, s.Value)
}

func (s *SliderStep) Execute(m *registration.Model) error {
	if s.Kind == registration.Translation {
		return m.SetTranslationSlider(s.Axis, s.Value)
	}
	return m.SetRotationSlider(s.Axis, s.Value)
}

// NudgeStep clicks a spin box arrow a number of times
type NudgeStep struct {
	Kind  registration.Kind
	Axis  registration.Axis
	Steps int
}

func (s *NudgeStep) Name() string {
	return fmt.Sprintf("Step %s %s by %+d", s.Kind, s.Axis, s.Steps)
}

func (s *NudgeStep) Execute(m *registration.Model) error {
	return m.Nudge(s.Kind, s.Axis, s.Steps)
}

// CenterStep edits the rotation center
type CenterStep struct {
	Center mgl64.Vec3
}

func (s *CenterStep) Name() string {
	return fmt.Sprintf("Set rotation center to %s", inspect.FormatVec(s.Center, 3))
}

func (s *CenterStep) Execute(m *registration.Model) error {
	m.SetCenter(s.Center)
	return nil
}

// UnitStep switches the angle display unit
type UnitStep struct {
	Unit   registration.AngleUnit
	Toggle bool
}

func (s *UnitStep) Name() string {
	if s.Toggle {
		return "Toggle angle unit"
	}
	return "Show angles in " + s.Unit.String()
}

func (s *UnitStep) Execute(m *registration.Model) error {
	if s.Toggle {
		m.ToggleUnit()
	} else {
		m.SetUnit(s.Unit)
	}
	return nil
}

// LoadMatrixStep loads a matrix file
type LoadMatrixStep struct {
	File string
}

func (s *LoadMatrixStep) Name() string {
	return "Load matrix " + s.File
}

func (s *LoadMatrixStep) Execute(m *registration.Model) error {
	return m.LoadMatrix(s.File)
}

// LoadElastixStep loads an elastix parameter file
type LoadElastixStep struct {
	File string
}

func (s *LoadElastixStep) Name() string {
	return "Load elastix parameters " + s.File
}

func (s *LoadElastixStep) Execute(m *registration.Model) error {
	return m.LoadElastix(s.File)
}

// ResetStep restores the initial matrix
type ResetStep struct{}

func (s *ResetStep) Name() string {
	return "Reset transform"
}

func (s *ResetStep) Execute(m *registration.Model) error {
	return m.Reset()
}

// SaveStep writes the current matrix
type SaveStep struct {
	File      string
	Precision int
}

func (s *SaveStep) Name() string {
	return "Save matrix to " + s.File
}

func (s *SaveStep) Execute(m *registration.Model) error {
	if err := m.SaveMatrix(s.File, s.Precision); err != nil {
		return err
	}
	ui.PrintSuccess("Saved " + s.File)
	return nil
}

// PrintStep shows the current parameters and matrix
type PrintStep struct{}

func (s *PrintStep) Name() string {
	return "Show parameters"
}

func (s *PrintStep) Execute(m *registration.Model) error {
	inspect.NewPrinter().PrintSnapshot(m.Snapshot())
	return nil
}

// CancelStep closes the session without applying it
type CancelStep struct{}

func (s *CancelStep) Name() string {
	return "Cancel session"
}

func (s *CancelStep) Execute(m *registration.Model) error {
	m.Cancel()
	return nil
}

// Describe lists the steps of a plan, one per line
func (p *Plan) Describe() string {
	names := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		names[i] = fmt.Sprintf("%d. %s", i+1, s.Name())
	}
	return strings.Join(names, "\n")
}
