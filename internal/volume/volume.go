package volume

import (
	"fmt"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/rigidreg/internal/models"
)

// Image is the part of an image volume the registration tool needs:
// its geometry and a single, externally owned transform slot.
type Image interface {
	Origin() mgl64.Vec3
	Size() [3]int
	Spacing() mgl64.Vec3
	Transform() mgl64.Mat4
	SetTransform(m mgl64.Mat4)
}

// Volume is an in-memory image description
type Volume struct {
	origin    mgl64.Vec3
	size      [3]int
	spacing   mgl64.Vec3
	transform mgl64.Mat4
}

// New creates a volume with an identity transform
func New(origin mgl64.Vec3, size [3]int, spacing mgl64.Vec3) *Volume {
	return &Volume{
		origin:    origin,
		size:      size,
		spacing:   spacing,
		transform: mgl64.Ident4(),
	}
}

// FromInfo creates a volume from a configuration block
func FromInfo(info models.ImageInfo) (*Volume, error) {
	for i := 0; i < 3; i++ {
		if info.Size[i] < 1 {
			return nil, fmt.Errorf("image size must be positive on every axis, got %v", info.Size)
		}
		if info.Spacing[i] <= 0 {
			return nil, fmt.Errorf("image spacing must be positive on every axis, got %v", info.Spacing)
		}
	}
	return New(mgl64.Vec3(info.Origin), info.Size, mgl64.Vec3(info.Spacing)), nil
}

func (v *Volume) Origin() mgl64.Vec3        { return v.origin }
func (v *Volume) Size() [3]int              { return v.size }
func (v *Volume) Spacing() mgl64.Vec3       { return v.spacing }
func (v *Volume) Transform() mgl64.Mat4     { return v.transform }
func (v *Volume) SetTransform(m mgl64.Mat4) { v.transform = m }

// DefaultCenter returns the center of the image bounding box,
// origin + (size - 1) * spacing / 2, rounded to 3 significant digits
// as it is shown in the center fields.
func DefaultCenter(img Image) mgl64.Vec3 {
	origin, size, spacing := img.Origin(), img.Size(), img.Spacing()

	var c mgl64.Vec3
	for i := 0; i < 3; i++ {
		exact := origin[i] + float64(size[i]-1)*spacing[i]*0.5
		c[i], _ = strconv.ParseFloat(strconv.FormatFloat(exact, 'g', 3, 64), 64)
	}
	return c
}
