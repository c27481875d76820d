package maze

import (
	"math"

	"multisim.dev/internal/sim/geom"
)

type Orientation int

const (
	// Horizontal walls run their long axis along x.
	Horizontal Orientation = iota
	Vertical
)

func (o Orientation) String() string {
	if o == Vertical {
		return "VERTICAL"
	}
	return "HORIZONTAL"
}

// Wall is an axis-aligned rectangular obstacle.
type Wall struct {
	Center      geom.Point  `json:"center"`
	Orientation Orientation `json:"orientation"`
	Length      float64     `json:"length"`
	Breadth     float64     `json:"breadth"`
}

func (w Wall) Rect() geom.Rect {
	if w.Orientation == Vertical {
		return geom.RectAround(w.Center, w.Breadth, w.Length)
	}
	return geom.RectAround(w.Center, w.Length, w.Breadth)
}

// Footprint is the wall's rectangle grown by margin on both sides of its short axis.
func (w Wall) Footprint(margin float64) geom.Rect {
	if w.Orientation == Vertical {
		return geom.RectAround(w.Center, w.Breadth+2*margin, w.Length)
	}
	return geom.RectAround(w.Center, w.Length, w.Breadth+2*margin)
}

func (w Wall) Marker() Marker {
	m := Marker{Center: w.Center, Length: w.Length, Breadth: w.Breadth, Height: WallHeight}
	if w.Orientation == Vertical {
		m.Yaw = math.Pi / 2
	}
	return m
}

// Rects returns the rectangles of ws in order.
func Rects(ws []Wall) []geom.Rect {
	out := make([]geom.Rect, len(ws))
	for i, w := range ws {
		out[i] = w.Rect()
	}
	return out
}
