package cmd

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/rigidreg/internal/geometry"
	"github.com/philipparndt/rigidreg/internal/matfile"
	"github.com/philipparndt/rigidreg/internal/stl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run parses args like the real binary and executes the selected command
func run(t *testing.T, args ...string) error {
	t.Helper()
	parser, err := kong.New(&CLI{}, kong.Name("rigidreg"), kong.Exit(func(int) { t.Fatalf("unexpected exit for %v", args) }))
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return ctx.Run()
}

func copyFile(t *testing.T, src, dst string) {
	t.Helper()
	data, err := os.ReadFile(src)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dst, data, 0644))
}

func TestComposeWritesMatrix(t *testing.T) {
	out := filepath.Join(t.TempDir(), "m.mat")

	require.NoError(t, run(t, "compose", "-r", "0,0,90", "-t", "10,0,0", "-o", out))

	m, err := matfile.NewParser().Parse(out)
	require.NoError(t, err)
	want := mgl64.Translate3D(10, 0, 0).Mul4(mgl64.HomogRotate3DZ(math.Pi / 2))
	assert.Less(t, geometry.MaxAbsDiff(want, m), 1e-12)
}

func TestComposeRejectsShortVector(t *testing.T) {
	err := run(t, "compose", "-t", "10,0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--translation needs 3")
}

func TestDecompose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.mat")
	require.NoError(t, matfile.NewWriter(matfile.PrecisionHigh).Write(path, mgl64.Translate3D(1, 2, 3)))

	assert.NoError(t, run(t, "decompose", path))
	assert.NoError(t, run(t, "decompose", "--yaml", "-u", "radians", path))
	assert.Error(t, run(t, "decompose", filepath.Join(t.TempDir(), "missing.mat")))
}

func TestElastixCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "elastix.mat")

	require.NoError(t, run(t, "elastix", "../../example/TransformParameters.0.txt", "-o", out))

	m, err := matfile.NewParser().Parse(out)
	require.NoError(t, err)
	assert.True(t, geometry.IsRigid(m))
}

func TestSessionCommand(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"session.yaml", "initial.mat", "TransformParameters.0.txt"} {
		copyFile(t, filepath.Join("..", "..", "example", name), filepath.Join(dir, name))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "out"), 0755))

	require.NoError(t, run(t, "session", "-q", filepath.Join(dir, "session.yaml")))
	_, err := os.Stat(filepath.Join(dir, "out", "manual.mat"))
	assert.NoError(t, err)

	assert.NoError(t, run(t, "session", "--dry-run", filepath.Join(dir, "session.yaml")))
	assert.NoError(t, run(t, "config", filepath.Join(dir, "session.yaml")))
}

func TestApplyCommand(t *testing.T) {
	dir := t.TempDir()
	matrix := filepath.Join(dir, "shift.mat")
	require.NoError(t, matfile.NewWriter(matfile.PrecisionHigh).Write(matrix, mgl64.Translate3D(0, 0, 5)))

	mesh := filepath.Join(dir, "part.stl")
	require.NoError(t, stl.NewWriter().Write(mesh, &stl.Mesh{Name: "part", Triangles: []stl.Triangle{{
		Normal: stl.Vector3{Z: 1},
		V2:     stl.Vector3{X: 1},
		V3:     stl.Vector3{Y: 1},
	}}}))

	require.NoError(t, run(t, "apply", matrix, mesh))

	moved, err := stl.NewParser().Parse(filepath.Join(dir, "part-registered.stl"))
	require.NoError(t, err)
	require.Len(t, moved.Triangles, 1)
	assert.Equal(t, stl.Vector3{X: 0, Y: 0, Z: 5}, moved.Triangles[0].V1)
}

func TestApplyRejectsScaledMatrix(t *testing.T) {
	dir := t.TempDir()
	matrix := filepath.Join(dir, "scale.mat")
	require.NoError(t, matfile.NewWriter(matfile.PrecisionHigh).Write(matrix, mgl64.Scale3D(2, 2, 2)))
	mesh := filepath.Join(dir, "part.stl")
	require.NoError(t, stl.NewWriter().Write(mesh, &stl.Mesh{Triangles: []stl.Triangle{{}}}))

	err := run(t, "apply", matrix, mesh)
	assert.ErrorIs(t, err, geometry.ErrNotRigid)
}

func TestWriteCompletion(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish"} {
		var buf bytes.Buffer
		require.NoError(t, writeCompletion(&buf, shell))
		assert.True(t, strings.Contains(buf.String(), "rigidreg"), shell)
		assert.True(t, strings.Contains(buf.String(), "decompose"), shell)
	}
	assert.Error(t, writeCompletion(&bytes.Buffer{}, "powershell"))
}

func TestHelpTexts(t *testing.T) {
	assert.Contains(t, renderComposeHelp(), "Rz * Rx * Ry")
	assert.Contains(t, renderSessionHelp(), "load_elastix")
}
