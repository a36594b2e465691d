package volume

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/rigidreg/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCenter(t *testing.T) {
	tests := []struct {
		name    string
		origin  mgl64.Vec3
		size    [3]int
		spacing mgl64.Vec3
		want    mgl64.Vec3
	}{
		{"unit grid", mgl64.Vec3{0, 0, 0}, [3]int{11, 21, 3}, mgl64.Vec3{1, 1, 1}, mgl64.Vec3{5, 10, 1}},
		{"with origin", mgl64.Vec3{-100, 20, 0}, [3]int{101, 1, 5}, mgl64.Vec3{2, 1, 0.5}, mgl64.Vec3{0, 20, 1}},
		{"rounded to 3 digits", mgl64.Vec3{0, 0, 0}, [3]int{512, 512, 120}, mgl64.Vec3{0.9765625, 0.9765625, 2.5}, mgl64.Vec3{250, 250, 149}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DefaultCenter(New(tt.origin, tt.size, tt.spacing))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromInfo(t *testing.T) {
	v, err := FromInfo(models.ImageInfo{Origin: [3]float64{1, 2, 3}, Size: [3]int{4, 5, 6}, Spacing: [3]float64{1, 1, 2}})
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, v.Origin())
	assert.Equal(t, [3]int{4, 5, 6}, v.Size())
	assert.Equal(t, mgl64.Ident4(), v.Transform())

	_, err = FromInfo(models.ImageInfo{Size: [3]int{0, 1, 1}, Spacing: [3]float64{1, 1, 1}})
	assert.Error(t, err)

	_, err = FromInfo(models.ImageInfo{Size: [3]int{1, 1, 1}, Spacing: [3]float64{1, 0, 1}})
	assert.Error(t, err)
}

func TestSetTransform(t *testing.T) {
	v := New(mgl64.Vec3{}, [3]int{1, 1, 1}, mgl64.Vec3{1, 1, 1})
	m := mgl64.Translate3D(1, 2, 3)
	v.SetTransform(m)
	assert.Equal(t, m, v.Transform())
}
