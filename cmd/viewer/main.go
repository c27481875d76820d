//go:build ebiten

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/color"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"multisim.dev/internal/observerproto"
)

var (
	background = color.RGBA{R: 0x1d, G: 0x1f, B: 0x24, A: 0xff}
	obstacleFg = color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}
)

type game struct {
	scene *scene
	view  view

	showPaths bool
	showScans bool
	status    func() string
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.showPaths = !g.showPaths
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyL) {
		g.showScans = !g.showScans
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(background)
	boot := g.scene.boot
	f := g.scene.frame()

	for _, m := range boot.Boundary {
		g.drawMarker(screen, m)
	}
	for _, m := range boot.Walls {
		g.drawMarker(screen, m)
	}
	for _, o := range boot.Obstacles {
		x, y := g.view.toScreen(o.X, o.Y)
		vector.DrawFilledCircle(screen, x, y, float32(o.R*g.view.Scale), obstacleFg, true)
	}

	radius := float32(math.Max(boot.WorldParams.CollisionRadius, 0.05) * g.view.Scale)
	for _, r := range f.Robots {
		c := colorOf(r.Color)
		if g.showPaths {
			g.drawPath(screen, f.Paths[r.Index], c)
		}
		if g.showScans {
			for _, p := range scanPoints(r.Pose, f.Scans[r.Index]) {
				x, y := g.view.toScreen(p.X, p.Y)
				vector.DrawFilledCircle(screen, x, y, 1.5, c, false)
			}
		}
		x, y := g.view.toScreen(r.Pose.X, r.Pose.Y)
		if r.Connected {
			vector.DrawFilledCircle(screen, x, y, radius, c, true)
		} else {
			vector.StrokeCircle(screen, x, y, radius, 2, c, true)
		}
		hx, hy := g.view.toScreen(r.Pose.X+1.5*float64(radius)/g.view.Scale*math.Cos(r.Pose.Theta), r.Pose.Y+1.5*float64(radius)/g.view.Scale*math.Sin(r.Pose.Theta))
		vector.StrokeLine(screen, x, y, hx, hy, 2, color.White, true)
	}

	ebitenutil.DebugPrint(screen, fmt.Sprintf("tick %d  robots %d  %s\n[p] paths  [l] scans  [q] quit", f.Tick, len(f.Robots), g.status()))
}

func (g *game) drawMarker(screen *ebiten.Image, m observerproto.Marker) {
	dx, dy := m.Length/2*math.Cos(m.Yaw), m.Length/2*math.Sin(m.Yaw)
	x0, y0 := g.view.toScreen(m.X-dx, m.Y-dy)
	x1, y1 := g.view.toScreen(m.X+dx, m.Y+dy)
	w := float32(math.Max(m.Breadth*g.view.Scale, 1))
	vector.StrokeLine(screen, x0, y0, x1, y1, w, colorOf(m.Color), false)
}

func (g *game) drawPath(screen *ebiten.Image, pts []observerproto.Point, c color.RGBA) {
	c.A = 0x90
	for i := 1; i < len(pts); i++ {
		x0, y0 := g.view.toScreen(pts[i-1].X, pts[i-1].Y)
		x1, y1 := g.view.toScreen(pts[i].X, pts[i].Y)
		vector.StrokeLine(screen, x0, y0, x1, y1, 1, c, true)
	}
}

func (g *game) Layout(int, int) (int, int) { return g.view.Width, g.view.Height }

func main() {
	var (
		addr      = flag.String("addr", "http://127.0.0.1:8080", "server base URL")
		scale     = flag.Float64("scale", 120, "pixels per metre")
		paths     = flag.Bool("paths", true, "draw robot paths")
		scans     = flag.Bool("scans", true, "draw range scans")
		pathLimit = flag.Int("path_limit", 500, "trailing path points per robot (0 = all)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[viewer] ", log.LstdFlags|log.Lmicroseconds)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	bctx, bcancel := context.WithTimeout(ctx, 5*time.Second)
	boot, err := fetchBootstrap(bctx, *addr)
	bcancel()
	if err != nil {
		logger.Fatalf("bootstrap: %v", err)
	}
	logger.Printf("run=%s seed=%d robots=%d walls=%d", boot.RunID, boot.WorldParams.Seed, boot.WorldParams.NumRobots, len(boot.Walls))

	sc := newScene(boot)
	streamErr := make(chan error, 1)
	go func() {
		streamErr <- stream(ctx, *addr, observerproto.SubscribeMsg{
			IncludePaths: true,
			IncludeScans: true,
			PathLimit:    *pathLimit,
		}, sc)
	}()

	status := "live"
	g := &game{
		scene:     sc,
		view:      newView(boot.WorldParams, *scale, 0.3),
		showPaths: *paths,
		showScans: *scans,
		status: func() string {
			select {
			case err := <-streamErr:
				status = "disconnected"
				if err != nil {
					logger.Printf("stream: %v", err)
				}
			default:
			}
			return status
		},
	}

	ebiten.SetWindowTitle(fmt.Sprintf("multisim viewer (seed %d)", boot.WorldParams.Seed))
	ebiten.SetWindowSize(g.view.Width, g.view.Height)
	ebiten.SetTPS(60)
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		logger.Fatal(err)
	}
}
