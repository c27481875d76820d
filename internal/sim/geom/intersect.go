package geom

import "math"

// Ray is a half-line starting at Origin with unit direction Dir.
type Ray struct {
	Origin Point
	Dir    Vector
}

func NewRay(origin Point, theta float64) Ray {
	return Ray{Origin: origin, Dir: Heading(theta)}
}

func (r Ray) At(t float64) Point { return r.Origin.Add(r.Dir.Scale(t)) }

type Segment struct {
	A Point
	B Point
}

type Circle struct {
	Center Point   `json:"center"`
	R      float64 `json:"r"`
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

func RectAround(c Point, w, h float64) Rect {
	return Rect{MinX: c.X - w/2, MinY: c.Y - h/2, MaxX: c.X + w/2, MaxY: c.Y + h/2}
}

func (r Rect) Width() float64  { return r.MaxX - r.MinX }
func (r Rect) Height() float64 { return r.MaxY - r.MinY }
func (r Rect) Center() Point   { return Point{X: (r.MinX + r.MaxX) / 2, Y: (r.MinY + r.MaxY) / 2} }

func (r Rect) Contains(p Point) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}

// Faces returns the four sides in north, west, south, east order.
func (r Rect) Faces() [4]Segment {
	return [4]Segment{
		{A: Point{X: r.MinX, Y: r.MaxY}, B: Point{X: r.MaxX, Y: r.MaxY}},
		{A: Point{X: r.MinX, Y: r.MinY}, B: Point{X: r.MinX, Y: r.MaxY}},
		{A: Point{X: r.MinX, Y: r.MinY}, B: Point{X: r.MaxX, Y: r.MinY}},
		{A: Point{X: r.MaxX, Y: r.MinY}, B: Point{X: r.MaxX, Y: r.MaxY}},
	}
}

// RaySegment returns the distance along r to segment s.
// Only hits on the forward half-line that fall inside the segment's extent count.
func RaySegment(r Ray, s Segment) (float64, bool) {
	switch {
	case s.A.X == s.B.X:
		// Vertical face: x = s.A.X.
		t := (s.A.X - r.Origin.X) / (r.Dir.X + Epsilon)
		if t <= 0 {
			return 0, false
		}
		y := r.Origin.Y + t*r.Dir.Y
		if y < math.Min(s.A.Y, s.B.Y) || y > math.Max(s.A.Y, s.B.Y) {
			return 0, false
		}
		return t, true
	case s.A.Y == s.B.Y:
		// Horizontal face: y = s.A.Y.
		t := (s.A.Y - r.Origin.Y) / (r.Dir.Y + Epsilon)
		if t <= 0 {
			return 0, false
		}
		x := r.Origin.X + t*r.Dir.X
		if x < math.Min(s.A.X, s.B.X) || x > math.Max(s.A.X, s.B.X) {
			return 0, false
		}
		return t, true
	}

	e := s.B.Sub(s.A)
	den := r.Dir.Cross(e)
	if math.Abs(den) < Epsilon {
		return 0, false
	}
	ao := s.A.Sub(r.Origin)
	t := ao.Cross(e) / den
	u := ao.Cross(r.Dir) / den
	if t <= 0 || u < 0 || u > 1 {
		return 0, false
	}
	return t, true
}

// RayCircle returns the distance along r to the nearest forward intersection with c.
// A negative discriminant misses, zero is tangent, positive yields two roots.
func RayCircle(r Ray, c Circle) (float64, bool) {
	f := r.Origin.Sub(c.Center)
	b := f.Dot(r.Dir)
	disc := b*b - (f.Dot(f) - c.R*c.R)
	switch {
	case disc < 0:
		return 0, false
	case disc == 0:
		t := -b
		if t <= 0 {
			return 0, false
		}
		return t, true
	}
	sq := math.Sqrt(disc)
	t1, t2 := -b-sq, -b+sq
	if t1 > 0 {
		return t1, true
	}
	if t2 > 0 {
		return t2, true
	}
	return 0, false
}

// RayRect returns the nearest forward hit against the four faces of rect.
func RayRect(r Ray, rect Rect) (float64, bool) {
	best, hit := math.Inf(1), false
	for _, f := range rect.Faces() {
		if t, ok := RaySegment(r, f); ok && t < best {
			best, hit = t, true
		}
	}
	return best, hit
}
