// Package viewer renders a swarm.Host with ebiten. It drives the world at
// the configured tick rate and exposes the steering parameters on a panel.
package viewer

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	golog "github.com/tochemey/goakt/v3/log"

	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/snapshot"
	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/swarm"
	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/ui"
)

var (
	whiteImage = ebiten.NewImage(3, 3)
	nodeColor  = color.RGBA{R: 60, G: 200, B: 90, A: 90}
	background = color.RGBA{R: 10, G: 10, B: 30, A: 255}
)

func init() {
	whiteImage.Fill(color.White)
}

type Game struct {
	ctx    context.Context
	host   *swarm.Host
	frames chan snapshot.Frame
	last   snapshot.Frame
	logger golog.Logger

	cfg        simulation.Config
	dt         time.Duration
	paused     bool
	population float64

	panel *ui.Panel

	// reused by Draw
	vertices []ebiten.Vertex
	indices  []uint16

	// Timing instrumentation
	updateAvg float64 // Rolling average in ms
	drawAvg   float64
}

// NewGame starts the world actor and builds the control panel.
func NewGame(ctx context.Context, cfg *simulation.Config, logger golog.Logger) (*Game, error) {
	frames := make(chan snapshot.Frame, 4) // Buffer to avoid blocking
	host, err := swarm.Start(ctx, cfg, frames, logger)
	if err != nil {
		return nil, err
	}
	g := &Game{
		ctx:        ctx,
		host:       host,
		frames:     frames,
		logger:     logger,
		cfg:        *cfg,
		dt:         time.Second / time.Duration(cfg.TicksPerSecond),
		population: float64(cfg.Population),
	}
	g.buildPanel()
	return g, nil
}

func (g *Game) buildPanel() {
	p := ui.NewPanel(10, 10, 260, g.cfg.WorldHeight-20, "Boids")

	p.AddSection("Perception")
	p.AddSlider("Perception Radius", 5, 200, g.cfg.PerceptionRadius, g.set("perceptionRadius"))
	p.AddSlider("Separation Radius", 1, 100, g.cfg.SeparationRadius, g.set("separationRadius"))

	p.AddSection("Steering Weights")
	p.AddSlider("Separation", 0, 10000, g.cfg.SeparationWeight, g.set("separationWeight"))
	p.AddSlider("Alignment", 0, 5, g.cfg.AlignmentWeight, g.set("alignmentWeight"))
	p.AddSlider("Cohesion", 0, 5, g.cfg.CohesionWeight, g.set("cohesionWeight"))

	p.AddSection("Physics")
	p.AddSlider("Max Speed", 10, 400, g.cfg.MaxSpeed, g.set("maxSpeed"))
	p.AddSlider("Min Speed", 0, 200, g.cfg.MinSpeed, g.set("minSpeed"))
	p.AddSlider("Max Force", 10, 1000, g.cfg.MaxForce, g.set("maxForce"))

	p.AddSection("Quadtree")
	p.AddSlider("Max Items / Node", 1, 64, float64(g.cfg.MaxItemsPerNode), func(v float64) {
		g.reconfigure(map[string]any{"maxItemsPerNode": math.Round(v)})
	})
	p.AddCheckbox("Show Quadtree", g.cfg.ShowQuadtree, func(v bool) {
		g.cfg.ShowQuadtree = v
		g.reconfigure(map[string]any{"showQuadtree": v})
	})

	p.AddSection("Population")
	p.AddSlider("Boids", 1, 5000, g.population, func(v float64) { g.population = math.Round(v) })
	p.AddButton("Respawn", func() {
		g.reconfigure(map[string]any{"population": g.population, "respawn": true})
	})
	p.AddButton("Pause / Resume", g.togglePause)

	g.panel = p
}

// set returns a slider callback that patches one float field.
func (g *Game) set(field string) func(float64) {
	return func(v float64) { g.reconfigure(map[string]any{field: v}) }
}

func (g *Game) reconfigure(patch map[string]any) {
	if err := g.host.Reconfigure(g.ctx, patch); err != nil {
		g.logger.Errorf("reconfigure %v: %v", patch, err)
	}
}

func (g *Game) togglePause() { g.paused = !g.paused }

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		g.updateAvg = g.updateAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	g.panel.Update()
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.togglePause()
	}

	// Retrieve Latest State (Non-blocking)
	for drained := false; !drained; {
		select {
		case f := <-g.frames:
			g.last = f
		default:
			drained = true
		}
	}

	if !g.paused {
		if err := g.host.Tick(g.ctx, g.dt); err != nil {
			return fmt.Errorf("tick: %w", err)
		}
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		g.drawAvg = g.drawAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	screen.Fill(background)
	if g.cfg.ShowQuadtree {
		for _, r := range g.last.Rects {
			vector.StrokeRect(screen, float32(r.Min.X), float32(r.Min.Y),
				float32(r.Width()), float32(r.Height()), 1, nodeColor, false)
		}
	}
	g.drawFlock(screen)
	g.panel.Draw(screen)

	status := "running"
	if g.paused {
		status = "paused"
	}
	msg := fmt.Sprintf("FPS: %.2f\nTPS: %.2f\n\nTick:   %d (%s)\nBoids:  %d\nNodes:  %d\n\nUpdate: %.2fms\nDraw:   %.2fms",
		ebiten.ActualFPS(), ebiten.ActualTPS(), g.last.Tick, status, len(g.last.Agents), len(g.last.Rects),
		g.updateAvg, g.drawAvg)
	ebitenutil.DebugPrintAt(screen, msg, int(g.cfg.WorldWidth)-160, 10)
}

// drawFlock batches every boid into one DrawTriangles call.
func (g *Game) drawFlock(screen *ebiten.Image) {
	g.vertices = g.vertices[:0]
	g.indices = g.indices[:0]
	for i, a := range g.last.Agents {
		if len(g.vertices)+3 > math.MaxUint16 {
			screen.DrawTriangles(g.vertices, g.indices, whiteImage, &ebiten.DrawTrianglesOptions{})
			g.vertices, g.indices = g.vertices[:0], g.indices[:0]
		}
		angle := a.Velocity.Angle()
		base := uint16(len(g.vertices))
		g.vertices = append(g.vertices,
			vertex(a.Position.X+math.Cos(angle)*6, a.Position.Y+math.Sin(angle)*6, i),
			vertex(a.Position.X+math.Cos(angle+2.5)*5, a.Position.Y+math.Sin(angle+2.5)*5, i),
			vertex(a.Position.X+math.Cos(angle-2.5)*5, a.Position.Y+math.Sin(angle-2.5)*5, i),
		)
		g.indices = append(g.indices, base, base+1, base+2)
	}
	if len(g.indices) > 0 {
		screen.DrawTriangles(g.vertices, g.indices, whiteImage, &ebiten.DrawTrianglesOptions{})
	}
}

func vertex(x, y float64, i int) ebiten.Vertex {
	// a slight tint per boid so individuals can be followed
	shade := 0.7 + 0.3*float32(i%7)/6
	return ebiten.Vertex{
		DstX: float32(x), DstY: float32(y),
		SrcX: 1, SrcY: 1,
		ColorR: 0.4 * shade, ColorG: 0.8 * shade, ColorB: 1, ColorA: 1,
	}
}

func (g *Game) Layout(w, h int) (int, int) { return int(g.cfg.WorldWidth), int(g.cfg.WorldHeight) }

// Close stops the actor system.
func (g *Game) Close() error {
	return g.host.Stop(g.ctx)
}
