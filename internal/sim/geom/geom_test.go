package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAngle(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 0},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-5 * math.Pi / 2, -math.Pi / 2},
		{4 * math.Pi, 0},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, NormalizeAngle(c.in), 1e-12, "in=%v", c.in)
	}
}

func TestVectorMagnitudeAngle(t *testing.T) {
	v := Vector{X: 3, Y: 4}
	assert.InDelta(t, 5.0, v.Magnitude(), 1e-12)
	assert.InDelta(t, math.Atan2(4, 3), v.Angle(), 1e-12)
	assert.InDelta(t, 1.0, v.Normalize().Magnitude(), 1e-12)
	assert.Equal(t, Vector{}, Vector{}.Normalize())
}

func TestPoseComposeInverse(t *testing.T) {
	p := Pose{X: 1, Y: -2, Theta: 0.7}
	id := p.Compose(p.Inverse())
	assert.InDelta(t, 0, id.X, 1e-12)
	assert.InDelta(t, 0, id.Y, 1e-12)
	assert.InDelta(t, 0, id.Theta, 1e-12)

	z, w := Pose{Theta: math.Pi / 2}.Quaternion()
	assert.InDelta(t, math.Sqrt2/2, z, 1e-12)
	assert.InDelta(t, math.Sqrt2/2, w, 1e-12)
}

func TestRaySegment_VerticalFaceAhead(t *testing.T) {
	r := NewRay(Point{X: 2, Y: 0}, math.Pi)
	d, ok := RaySegment(r, Segment{A: Point{X: 0.1, Y: -1}, B: Point{X: 0.1, Y: 1}})
	require.True(t, ok)
	assert.InDelta(t, 1.9, d, 1e-6)
}

func TestRaySegment_BehindOriginIgnored(t *testing.T) {
	r := NewRay(Point{X: 2, Y: 0}, 0)
	_, ok := RaySegment(r, Segment{A: Point{X: 0.1, Y: -1}, B: Point{X: 0.1, Y: 1}})
	assert.False(t, ok)
}

func TestRaySegment_OutsideExtentIgnored(t *testing.T) {
	r := NewRay(Point{X: 0, Y: 0}, math.Pi/4)
	_, ok := RaySegment(r, Segment{A: Point{X: 1, Y: -1}, B: Point{X: 1, Y: 0.5}})
	assert.False(t, ok)

	d, ok := RaySegment(r, Segment{A: Point{X: 1, Y: -1}, B: Point{X: 1, Y: 2}})
	require.True(t, ok)
	assert.InDelta(t, math.Sqrt2, d, 1e-6)
}

func TestRaySegment_ParallelBeamMisses(t *testing.T) {
	r := NewRay(Point{X: 0, Y: 0}, 0)
	_, ok := RaySegment(r, Segment{A: Point{X: -1, Y: 1}, B: Point{X: 5, Y: 1}})
	assert.False(t, ok)
}

func TestRaySegment_Oblique(t *testing.T) {
	r := NewRay(Point{X: 0, Y: 0}, 0)
	d, ok := RaySegment(r, Segment{A: Point{X: 2, Y: -1}, B: Point{X: 3, Y: 1}})
	require.True(t, ok)
	assert.InDelta(t, 2.5, d, 1e-9)
}

func TestRayCircle_Discriminant(t *testing.T) {
	r := NewRay(Point{X: 0, Y: 0}, 0)

	_, ok := RayCircle(r, Circle{Center: Point{X: 3, Y: 2}, R: 1})
	assert.False(t, ok, "negative discriminant")

	d, ok := RayCircle(r, Circle{Center: Point{X: 3, Y: 1}, R: 1})
	require.True(t, ok, "tangent")
	assert.InDelta(t, 3.0, d, 1e-9)

	d, ok = RayCircle(r, Circle{Center: Point{X: 3, Y: 0}, R: 1})
	require.True(t, ok, "secant")
	assert.InDelta(t, 2.0, d, 1e-9)

	_, ok = RayCircle(r, Circle{Center: Point{X: -3, Y: 0}, R: 1})
	assert.False(t, ok, "behind origin")

	d, ok = RayCircle(r, Circle{Center: Point{X: 0, Y: 0}, R: 1})
	require.True(t, ok, "origin inside")
	assert.InDelta(t, 1.0, d, 1e-9)
}

func TestRayRect_NearestFace(t *testing.T) {
	rect := RectAround(Point{}, 0.2, 1.0)
	d, ok := RayRect(NewRay(Point{X: -2, Y: 0}, 0), rect)
	require.True(t, ok)
	assert.InDelta(t, 1.9, d, 1e-6)
}
