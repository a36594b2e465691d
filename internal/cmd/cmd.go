package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/rigidreg/internal/config"
	"github.com/philipparndt/rigidreg/internal/geometry"
	"github.com/philipparndt/rigidreg/internal/inspect"
	"github.com/philipparndt/rigidreg/internal/matfile"
	"github.com/philipparndt/rigidreg/internal/plan"
	"github.com/philipparndt/rigidreg/internal/preconditions"
	"github.com/philipparndt/rigidreg/internal/registration"
	"github.com/philipparndt/rigidreg/internal/renderer"
	"github.com/philipparndt/rigidreg/internal/stl"
	"github.com/philipparndt/rigidreg/internal/ui"
	"github.com/philipparndt/rigidreg/internal/volume"
	"github.com/philipparndt/rigidreg/version"
)

type CLI struct {
	Compose    *ComposeCmd    `cmd:"" help:"Compose a matrix from rotation center, angles and translation"`
	Decompose  *DecomposeCmd  `cmd:"" help:"Decompose a matrix file into angles and translation"`
	Elastix    *ElastixCmd    `cmd:"" help:"Convert an elastix EulerTransform parameter file into a matrix"`
	Session    *SessionCmd    `cmd:"" help:"Replay a scripted registration session (YAML)"`
	Apply      *ApplyCmd      `cmd:"" help:"Apply a matrix file to an STL mesh"`
	Config     *ConfigCmd     `cmd:"" help:"Validate a session file and show its contents"`
	Version    *VersionCmd    `cmd:"" help:"Show version information"`
	Completion *CompletionCmd `cmd:"" help:"Generate shell completion script"`
}

type ComposeCmd struct {
	Center      []float64 `help:"Rotation center x,y,z (default: 0,0,0)"`
	Rotation    []float64 `help:"Rotation angles about x,y,z (default: 0,0,0)" short:"r"`
	Translation []float64 `help:"Translation x,y,z (default: 0,0,0)" short:"t"`
	Unit        string    `help:"Angle unit (degrees or radians)" short:"u" default:"degrees"`
	Output      string    `help:"Write the matrix to this file instead of printing it" short:"o"`
	Precision   string    `help:"Decimals written: default, high or a number" default:"high"`
}

// Help adds additional help text with examples
func (c *ComposeCmd) Help() string {
	return renderComposeHelp()
}

func (c *ComposeCmd) Run() error {
	center, err := vec3("center", c.Center)
	if err != nil {
		return err
	}
	angles, err := vec3("rotation", c.Rotation)
	if err != nil {
		return err
	}
	translation, err := vec3("translation", c.Translation)
	if err != nil {
		return err
	}
	unit, err := registration.ParseAngleUnit(c.Unit)
	if err != nil {
		return err
	}
	precision, err := matfile.ParsePrecision(c.Precision)
	if err != nil {
		return err
	}

	if unit == registration.Degrees {
		for i := range angles {
			angles[i] = mgl64.DegToRad(angles[i])
		}
	}

	m := geometry.Compose(center, geometry.Parameters{Angles: angles, Translation: translation})
	return writeMatrix(m, c.Output, precision)
}

type DecomposeCmd struct {
	File   string    `arg:"" help:"Matrix file (4x4 or 3x4 numbers)"`
	Center []float64 `help:"Rotation center x,y,z (default: 0,0,0)"`
	Unit   string    `help:"Angle unit of the output (degrees or radians)" short:"u" default:"degrees"`
	YAML   bool      `help:"Print the decomposition as YAML" name:"yaml"`
}

func (c *DecomposeCmd) Run() error {
	if err := preconditions.ValidateFiles([]string{c.File}); err != nil {
		return err
	}
	center, err := vec3("center", c.Center)
	if err != nil {
		return err
	}
	unit, err := registration.ParseAngleUnit(c.Unit)
	if err != nil {
		return err
	}

	inspector := inspect.NewInspector(center, unit)
	if !c.YAML {
		return inspector.Inspect(c.File)
	}

	report, err := inspector.Read(c.File)
	if err != nil {
		return err
	}
	out, err := report.YAML()
	if err != nil {
		return err
	}
	ui.PrintCode(out, "yaml")
	return nil
}

type ElastixCmd struct {
	File      string `arg:"" help:"elastix TransformParameters file"`
	Output    string `help:"Write the matrix to this file instead of printing it" short:"o"`
	Precision string `help:"Decimals written: default, high or a number" default:"high"`
}

func (c *ElastixCmd) Run() error {
	if err := preconditions.ValidateFiles([]string{c.File}); err != nil {
		return err
	}
	precision, err := matfile.ParsePrecision(c.Precision)
	if err != nil {
		return err
	}

	img := volume.New(mgl64.Vec3{}, [3]int{1, 1, 1}, mgl64.Vec3{1, 1, 1})
	model, err := registration.New(img)
	if err != nil {
		return err
	}
	if err := model.LoadElastix(c.File); err != nil {
		return err
	}

	if c.Output == "" {
		inspect.NewPrinter().PrintSnapshot(model.Snapshot())
	}
	return writeMatrix(model.Matrix(), c.Output, precision)
}

type SessionCmd struct {
	Config string `arg:"" help:"Session file (YAML)"`
	Quiet  bool   `help:"Do not print the matrix after every change" short:"q"`
	DryRun bool   `help:"Only list the steps of the session" name:"dry-run"`
}

// Help adds additional help text with examples
func (c *SessionCmd) Help() string {
	return renderSessionHelp()
}

func (c *SessionCmd) Run() error {
	if err := preconditions.ValidateFiles([]string{c.Config}, ".yaml", ".yml"); err != nil {
		return err
	}

	cfg, err := config.NewLoader().Load(c.Config)
	if err != nil {
		return err
	}

	p, err := plan.NewPlanner().CreatePlan(cfg)
	if err != nil {
		return fmt.Errorf("failed to create session plan: %w", err)
	}

	if c.DryRun {
		ui.PrintList(fmt.Sprintf("Session %s", filepath.Base(c.Config)), strings.Split(p.Describe(), "\n"))
		return nil
	}

	ui.PrintTitle("rigidreg session " + filepath.Base(c.Config))

	var console *renderer.Console
	model, _, err := p.NewSession(func(img volume.Image) renderer.Renderer {
		console = renderer.NewConsole(img, c.Quiet)
		return console
	})
	if err != nil {
		return err
	}

	if err := p.Execute(model); err != nil {
		return err
	}
	ui.PrintInfo(fmt.Sprintf("%d redraws", console.Frames()))
	return nil
}

type ApplyCmd struct {
	Matrix     string `arg:"" help:"Matrix file"`
	Mesh       string `arg:"" help:"STL mesh (ASCII or binary)"`
	Output     string `help:"Output STL file (default: <mesh>-registered.stl)" short:"o"`
	Validation string `help:"Handling of non-rigid matrices: strict, orthonormalize or passthrough" default:"strict"`
}

func (c *ApplyCmd) Run() error {
	if err := preconditions.ValidateFiles([]string{c.Matrix}); err != nil {
		return err
	}
	if err := preconditions.ValidateFiles([]string{c.Mesh}, ".stl"); err != nil {
		return err
	}

	output := c.Output
	if output == "" {
		output = strings.TrimSuffix(c.Mesh, filepath.Ext(c.Mesh)) + "-registered.stl"
	}
	if err := preconditions.ValidateOutputPath(output); err != nil {
		return err
	}

	policy, err := geometry.ParsePolicy(c.Validation)
	if err != nil {
		return err
	}
	m, err := matfile.NewParser().Parse(c.Matrix)
	if err != nil {
		return err
	}
	m, err = geometry.Validate(m, policy)
	if err != nil {
		return fmt.Errorf("%s: %w", c.Matrix, err)
	}

	mesh, err := stl.NewParser().Parse(c.Mesh)
	if err != nil {
		return err
	}

	moved := mesh.Transform(m)
	if err := stl.NewWriter().Write(output, moved); err != nil {
		return err
	}

	ui.PrintHeader("Applied " + filepath.Base(c.Matrix))
	ui.PrintKeyValue("Triangles", fmt.Sprintf("%d", len(moved.Triangles)))
	lo, hi := mesh.Bounds()
	ui.PrintKeyValue("Bounds before", inspect.FormatVec(lo, 3)+" - "+inspect.FormatVec(hi, 3))
	lo, hi = moved.Bounds()
	ui.PrintKeyValue("Bounds after", inspect.FormatVec(lo, 3)+" - "+inspect.FormatVec(hi, 3))
	ui.PrintSuccess("Wrote " + output)
	return nil
}

type ConfigCmd struct {
	File string `arg:"" help:"Session file (YAML)"`
}

func (c *ConfigCmd) Run() error {
	cfg, err := config.NewLoader().Load(c.File)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	ui.PrintHeader(c.File)
	ui.PrintCode(string(data), "yaml")
	ui.PrintSuccess(fmt.Sprintf("Valid session with %d actions", len(cfg.Actions)))
	return nil
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	info := version.Get()
	fmt.Println(info.String())
	return nil
}

// vec3 checks that a flag got exactly three values; an unset flag is the zero vector
func vec3(name string, values []float64) (mgl64.Vec3, error) {
	if len(values) == 0 {
		return mgl64.Vec3{}, nil
	}
	if len(values) != 3 {
		return mgl64.Vec3{}, fmt.Errorf("--%s needs 3 comma separated values, got %d", name, len(values))
	}
	return mgl64.Vec3{values[0], values[1], values[2]}, nil
}

// writeMatrix prints m to stdout, or writes it to output when set
func writeMatrix(m mgl64.Mat4, output string, precision int) error {
	writer := matfile.NewWriter(precision)
	if output == "" {
		fmt.Print(writer.Format(m))
		return nil
	}

	if err := preconditions.ValidateOutputPath(output); err != nil {
		return err
	}
	if err := writer.Write(output, m); err != nil {
		return err
	}
	ui.PrintSuccess("Wrote " + output)
	return nil
}

// Parse parses command line arguments and executes the appropriate command
func Parse() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("rigidreg"),
		kong.Description("Manual rigid registration: compose, decompose and apply 3D rigid transforms"),
		kong.UsageOnError(),
	)
	err := ctx.Run()
	if err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
