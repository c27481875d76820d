package geom

import "math"

// Epsilon is added to slope denominators so axis-aligned rays never divide by zero.
const Epsilon = 1e-7

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Add(v Vector) Point { return Point{X: p.X + v.X, Y: p.Y + v.Y} }
func (p Point) Sub(q Point) Vector { return Vector{X: p.X - q.X, Y: p.Y - q.Y} }

func (v Vector) Add(w Vector) Vector    { return Vector{X: v.X + w.X, Y: v.Y + w.Y} }
func (v Vector) Sub(w Vector) Vector    { return Vector{X: v.X - w.X, Y: v.Y - w.Y} }
func (v Vector) Scale(s float64) Vector { return Vector{X: v.X * s, Y: v.Y * s} }
func (v Vector) Dot(w Vector) float64   { return v.X*w.X + v.Y*w.Y }
func (v Vector) Cross(w Vector) float64 { return v.X*w.Y - v.Y*w.X }
func (v Vector) Magnitude() float64     { return math.Hypot(v.X, v.Y) }
func (v Vector) Angle() float64         { return math.Atan2(v.Y, v.X) }
func (v Vector) Normalize() Vector {
	m := v.Magnitude()
	if m == 0 {
		return Vector{}
	}
	return Vector{X: v.X / m, Y: v.Y / m}
}

// Heading returns the unit vector at angle theta.
func Heading(theta float64) Vector {
	return Vector{X: math.Cos(theta), Y: math.Sin(theta)}
}

// NormalizeAngle wraps rad into (-pi, pi].
func NormalizeAngle(rad float64) float64 {
	a := math.Mod(rad, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	} else if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

func Deg2Rad(deg float64) float64 { return deg * math.Pi / 180.0 }

func AlmostEqual(a, b, eps float64) bool { return math.Abs(a-b) < eps }

// Pose is a planar rigid transform: translation (X, Y) and yaw Theta.
type Pose struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
}

func (p Pose) Point() Point { return Point{X: p.X, Y: p.Y} }

// Quaternion returns the (z, w) components of the yaw-only rotation.
func (p Pose) Quaternion() (z, w float64) {
	return math.Sin(p.Theta / 2), math.Cos(p.Theta / 2)
}

// Apply maps a point from the pose frame into the parent frame.
func (p Pose) Apply(q Point) Point {
	c, s := math.Cos(p.Theta), math.Sin(p.Theta)
	return Point{X: p.X + c*q.X - s*q.Y, Y: p.Y + s*q.X + c*q.Y}
}

// Compose returns p * q.
func (p Pose) Compose(q Pose) Pose {
	t := p.Apply(Point{X: q.X, Y: q.Y})
	return Pose{X: t.X, Y: t.Y, Theta: NormalizeAngle(p.Theta + q.Theta)}
}

func (p Pose) Inverse() Pose {
	c, s := math.Cos(p.Theta), math.Sin(p.Theta)
	return Pose{
		X:     -c*p.X - s*p.Y,
		Y:     s*p.X - c*p.Y,
		Theta: NormalizeAngle(-p.Theta),
	}
}
