package maze

import (
	"context"
	"errors"
	"fmt"
	"math"

	"multisim.dev/internal/sim/geom"
	"multisim.dev/internal/sim/rng"
)

var (
	// ErrNoFreeCells means the requested walls fill the whole arena.
	ErrNoFreeCells = errors.New("maze: connectivity grid has no free cell")
	// ErrUnsatisfiable means the attempt budget ran out before every wall slot was filled.
	ErrUnsatisfiable = errors.New("maze unsatisfiable")
)

type Params struct {
	ArenaXMin float64
	ArenaXMax float64
	ArenaYMin float64
	ArenaYMax float64

	MinCorridorWidth float64
	WallLength       float64
	WallBreadth      float64
	WallCount        int

	// MaxAttempts bounds the total number of wall proposals. <= 0 means unbounded.
	MaxAttempts int
}

func (p Params) Validate() error {
	if p.MinCorridorWidth <= 0 {
		return fmt.Errorf("maze: min_corridor_width must be > 0")
	}
	if p.ArenaXMin <= 0 || p.ArenaYMin <= 0 {
		return fmt.Errorf("maze: arena bounds must be > 0")
	}
	if p.ArenaXMax < p.ArenaXMin || p.ArenaYMax < p.ArenaYMin {
		return fmt.Errorf("maze: arena max must be >= min")
	}
	if p.WallCount < 0 {
		return fmt.Errorf("maze: wall count must be >= 0")
	}
	if p.WallCount > 0 && (p.WallLength <= 0 || p.WallBreadth <= 0) {
		return fmt.Errorf("maze: wall length and breadth must be > 0")
	}
	return nil
}

// Maze is a generated layout. Walls never change after generation.
type Maze struct {
	Arena  Arena
	Walls  []Wall
	Spawns []Cell
	Grid   *Grid

	// Attempts is the number of wall proposals made, accepted or not.
	Attempts int
}

// SpawnPoint returns the world center of spawn cell i.
func (m *Maze) SpawnPoint(i int) geom.Point { return m.Grid.Center(m.Spawns[i]) }

// Generate draws the arena size and places up to p.WallCount walls so that the
// free region of the connectivity grid stays a single connected component.
// A proposal that would split the free region is discarded and its slot retried.
func Generate(ctx context.Context, p Params, src *rng.Source) (*Maze, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	arena := Arena{
		Width:  src.Uniform(p.ArenaXMin, p.ArenaXMax),
		Height: src.Uniform(p.ArenaYMin, p.ArenaYMax),
	}
	cellSize := p.MinCorridorWidth / 2
	grid := NewGrid(arena, cellSize)
	xs := corridorLine(arena.Width, p.MinCorridorWidth)
	ys := corridorLine(arena.Height, p.MinCorridorWidth)

	walls := make([]Wall, 0, p.WallCount)
	attempts := 0
	for len(walls) < p.WallCount {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p.MaxAttempts > 0 && attempts >= p.MaxAttempts {
			return nil, fmt.Errorf("%w: placed %d of %d walls in %d attempts", ErrUnsatisfiable, len(walls), p.WallCount, attempts)
		}
		attempts++

		w := Wall{Length: p.WallLength, Breadth: p.WallBreadth}
		if src.Bool() {
			w.Orientation = Vertical
		}
		w.Center = geom.Point{X: xs[src.IntN(len(xs))], Y: ys[src.IntN(len(ys))]}
		walls = append(walls, w)

		rasterize(grid, walls)
		if grid.FreeCount() == 0 {
			return nil, ErrNoFreeCells
		}
		if !grid.Connected() {
			walls = walls[:len(walls)-1]
		}
	}

	rasterize(grid, walls)
	start, ok := grid.FirstFree()
	if !ok {
		return nil, ErrNoFreeCells
	}
	return &Maze{
		Arena:    arena,
		Walls:    walls,
		Spawns:   grid.Reachable(start),
		Grid:     grid,
		Attempts: attempts,
	}, nil
}

// rasterize rebuilds g from scratch for ws. Each footprint is dilated by half a
// cell along the wall's short axis so thin walls always cover a full cell row.
func rasterize(g *Grid, ws []Wall) {
	g.Clear()
	for _, w := range ws {
		g.MarkRect(w.Footprint(g.CellSize / 2))
	}
}

// corridorLine returns the candidate wall centers along one axis of the given
// extent: multiples of spacing measured from the low edge.
func corridorLine(extent, spacing float64) []float64 {
	n := int(math.Floor(extent/spacing + 1e-9))
	out := make([]float64, 0, n+1)
	for k := 0; k <= n; k++ {
		out = append(out, -extent/2+float64(k)*spacing)
	}
	return out
}
