package maze

import (
	"math"

	"multisim.dev/internal/sim/geom"
)

type Cell struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// Grid is a row-major occupancy grid covering an arena.
type Grid struct {
	Cols     int
	Rows     int
	CellSize float64
	// Origin is the world position of the (0, 0) cell's min corner.
	Origin geom.Point

	occ []bool
}

func NewGrid(a Arena, cellSize float64) *Grid {
	cols := int(math.Ceil(a.Width/cellSize - 1e-9))
	rows := int(math.Ceil(a.Height/cellSize - 1e-9))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return &Grid{
		Cols:     cols,
		Rows:     rows,
		CellSize: cellSize,
		Origin:   geom.Point{X: -a.Width / 2, Y: -a.Height / 2},
		occ:      make([]bool, cols*rows),
	}
}

func (g *Grid) Len() int { return g.Cols * g.Rows }

func (g *Grid) InBounds(c Cell) bool {
	return c.Col >= 0 && c.Col < g.Cols && c.Row >= 0 && c.Row < g.Rows
}

func (g *Grid) index(c Cell) int { return c.Row*g.Cols + c.Col }

func (g *Grid) cell(i int) Cell { return Cell{Col: i % g.Cols, Row: i / g.Cols} }

func (g *Grid) Occupied(c Cell) bool {
	if !g.InBounds(c) {
		return true
	}
	return g.occ[g.index(c)]
}

func (g *Grid) Set(c Cell, occupied bool) {
	if g.InBounds(c) {
		g.occ[g.index(c)] = occupied
	}
}

func (g *Grid) Clear() {
	for i := range g.occ {
		g.occ[i] = false
	}
}

func (g *Grid) Center(c Cell) geom.Point {
	return geom.Point{
		X: g.Origin.X + (float64(c.Col)+0.5)*g.CellSize,
		Y: g.Origin.Y + (float64(c.Row)+0.5)*g.CellSize,
	}
}

func (g *Grid) CellAt(p geom.Point) (Cell, bool) {
	c := Cell{
		Col: int(math.Floor((p.X - g.Origin.X) / g.CellSize)),
		Row: int(math.Floor((p.Y - g.Origin.Y) / g.CellSize)),
	}
	return c, g.InBounds(c)
}

// MarkRect occupies every cell whose interior overlaps r.
func (g *Grid) MarkRect(r geom.Rect) {
	c0 := int(math.Floor((r.MinX - g.Origin.X) / g.CellSize))
	c1 := int(math.Ceil((r.MaxX-g.Origin.X)/g.CellSize)) - 1
	r0 := int(math.Floor((r.MinY - g.Origin.Y) / g.CellSize))
	r1 := int(math.Ceil((r.MaxY-g.Origin.Y)/g.CellSize)) - 1
	c0, c1 = max(c0, 0), min(c1, g.Cols-1)
	r0, r1 = max(r0, 0), min(r1, g.Rows-1)
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			g.occ[row*g.Cols+col] = true
		}
	}
}

func (g *Grid) FreeCount() int {
	n := 0
	for _, o := range g.occ {
		if !o {
			n++
		}
	}
	return n
}

// FirstFree returns the first unoccupied cell in row-major order.
func (g *Grid) FirstFree() (Cell, bool) {
	for i, o := range g.occ {
		if !o {
			return g.cell(i), true
		}
	}
	return Cell{}, false
}

var neighbors4 = [4]Cell{{Col: 1}, {Col: -1}, {Row: 1}, {Row: -1}}

// Reachable returns the free cells 4-connected to start, in BFS order.
func (g *Grid) Reachable(start Cell) []Cell {
	if g.Occupied(start) {
		return nil
	}
	seen := make([]bool, len(g.occ))
	queue := make([]int, 0, len(g.occ))
	si := g.index(start)
	seen[si] = true
	queue = append(queue, si)
	for head := 0; head < len(queue); head++ {
		c := g.cell(queue[head])
		for _, d := range neighbors4 {
			n := Cell{Col: c.Col + d.Col, Row: c.Row + d.Row}
			if !g.InBounds(n) {
				continue
			}
			ni := g.index(n)
			if seen[ni] || g.occ[ni] {
				continue
			}
			seen[ni] = true
			queue = append(queue, ni)
		}
	}
	out := make([]Cell, len(queue))
	for i, idx := range queue {
		out[i] = g.cell(idx)
	}
	return out
}

// Connected reports whether every free cell is reachable from every other.
// A grid without free cells is not connected.
func (g *Grid) Connected() bool {
	start, ok := g.FirstFree()
	if !ok {
		return false
	}
	return len(g.Reachable(start)) == g.FreeCount()
}

// Components counts the 4-connected regions of free cells.
func (g *Grid) Components() int {
	seen := make([]bool, len(g.occ))
	n := 0
	for i, o := range g.occ {
		if o || seen[i] {
			continue
		}
		n++
		for _, c := range g.Reachable(g.cell(i)) {
			seen[g.index(c)] = true
		}
	}
	return n
}
