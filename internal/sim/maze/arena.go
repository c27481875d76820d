package maze

import (
	"math"

	"multisim.dev/internal/sim/geom"
)

// WallHeight is the rendered height of every wall marker [m].
const WallHeight = 0.25

// Arena is the rectangle [-Width/2, Width/2] x [-Height/2, Height/2].
type Arena struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (a Arena) Bounds() geom.Rect {
	return geom.Rect{MinX: -a.Width / 2, MinY: -a.Height / 2, MaxX: a.Width / 2, MaxY: a.Height / 2}
}

func (a Arena) Contains(p geom.Point) bool { return a.Bounds().Contains(p) }

// Marker is a box used to draw a wall: centered at Center, rotated by Yaw,
// Length along its local x axis and Breadth along local y.
type Marker struct {
	Center  geom.Point `json:"center"`
	Yaw     float64    `json:"yaw"`
	Length  float64    `json:"length"`
	Breadth float64    `json:"breadth"`
	Height  float64    `json:"height"`
}

// BoundaryMarkers returns the four walls enclosing the arena, in
// +x, +y, -x, -y order. Each is breadth thick and sits just outside the arena.
func (a Arena) BoundaryMarkers(breadth float64) []Marker {
	out := make([]Marker, 0, 4)
	for i := 0; i < 4; i++ {
		m := Marker{Breadth: breadth, Height: WallHeight}
		switch i {
		case 0:
			m.Center = geom.Point{X: (a.Width + breadth) / 2}
			m.Yaw = math.Pi / 2
		case 1:
			m.Center = geom.Point{Y: (a.Height + breadth) / 2}
		case 2:
			m.Center = geom.Point{X: -(a.Width + breadth) / 2}
			m.Yaw = math.Pi / 2
		case 3:
			m.Center = geom.Point{Y: -(a.Height + breadth) / 2}
		}
		if i%2 == 0 {
			m.Length = a.Height + 2*breadth
		} else {
			m.Length = a.Width + 2*breadth
		}
		out = append(out, m)
	}
	return out
}
