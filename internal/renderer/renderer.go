package renderer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/rigidreg/internal/matfile"
	"github.com/philipparndt/rigidreg/internal/ui"
	"github.com/philipparndt/rigidreg/internal/volume"
)

// Renderer redraws the views of an image after its transform changed
type Renderer interface {
	Redraw()
}

// Func adapts a plain function to the Renderer interface
type Func func()

// Redraw calls f
func (f Func) Redraw() { f() }

// Console prints the image's current transform on every redraw
type Console struct {
	image  volume.Image
	writer *matfile.Writer
	quiet  bool
	frames int
}

// NewConsole creates a console renderer for image.
// A quiet renderer only counts redraws.
func NewConsole(image volume.Image, quiet bool) *Console {
	return &Console{
		image:  image,
		writer: matfile.NewWriter(matfile.PrecisionDefault),
		quiet:  quiet,
	}
}

// Redraw prints the current transform
func (c *Console) Redraw() {
	c.frames++
	if c.quiet {
		return
	}
	ui.PrintBox(fmt.Sprintf("frame %d\n%s", c.frames, c.format(c.image.Transform())))
}

// Frames returns how many redraws were requested
func (c *Console) Frames() int {
	return c.frames
}

func (c *Console) format(m mgl64.Mat4) string {
	s := c.writer.Format(m)
	return s[:len(s)-1]
}
