// Package termview draws a flock kept in an ark ECS world on a terminal.
package termview

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/gdamore/tcell/v2"
	golog "github.com/tochemey/goakt/v3/log"

	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/ecsbridge"
	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/neighbor"
	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/simulation"
)

// headings are indexed by octant, clockwise from east. Screen y grows downwards.
var headings = []rune("→↘↓↙←↖↑↗")

var (
	boidStyle   = tcell.StyleDefault.Foreground(tcell.ColorAqua)
	treeStyle   = tcell.StyleDefault.Foreground(tcell.ColorDarkGreen)
	statusStyle = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorSilver)
)

type View struct {
	screen tcell.Screen
	bridge *ecsbridge.Bridge
	cfg    simulation.Config
	rng    *rand.Rand
	logger golog.Logger

	dt       float64
	paused   bool
	showTree bool
	ticks    uint64
	lastTick time.Duration

	states []simulation.AgentState
	found  neighbor.Set
}

// New spawns cfg.Population agents into the bridge's world.
func New(screen tcell.Screen, bridge *ecsbridge.Bridge, cfg *simulation.Config, logger golog.Logger) *View {
	v := &View{
		screen:   screen,
		bridge:   bridge,
		cfg:      *cfg,
		rng:      simulation.NewRand(cfg.Seed),
		logger:   logger,
		dt:       1 / float64(cfg.TicksPerSecond),
		showTree: cfg.ShowQuadtree,
	}
	v.respawn()
	return v
}

func (v *View) respawn() {
	bounds := v.bridge.Simulation().Bounds()
	v.bridge.Reset(simulation.SpawnFlock(&v.cfg, bounds, v.cfg.Population, 1, v.rng))
	v.ticks = 0
}

// Step advances the flock once unless paused.
func (v *View) Step() error {
	if v.paused {
		return nil
	}
	start := time.Now()
	if err := v.bridge.Step(v.dt); err != nil {
		return err
	}
	v.lastTick = time.Since(start)
	v.ticks++
	return nil
}

// cell maps a world point to a screen cell inside a cols x rows area.
func cell(bounds geometry.Rectangle, p geometry.Point, cols, rows int) (int, int) {
	x := int((p.X - bounds.Min.X) / bounds.Width() * float64(cols))
	y := int((p.Y - bounds.Min.Y) / bounds.Height() * float64(rows))
	return min(max(x, 0), cols-1), min(max(y, 0), rows-1)
}

func heading(vel geometry.Vector2D) rune {
	if vel.IsZero() {
		return '•'
	}
	octant := int(math.Round(vel.Angle()/(math.Pi/4))) % 8
	if octant < 0 {
		octant += 8
	}
	return headings[octant]
}

// Draw renders the last computed state. The bottom row holds the status line.
func (v *View) Draw() {
	v.screen.Clear()
	cols, rows := v.screen.Size()
	rows-- // status line
	if cols <= 0 || rows <= 0 {
		v.screen.Show()
		return
	}
	bounds := v.bridge.Simulation().Bounds()

	if v.showTree {
		for _, r := range v.bridge.Simulation().DebugTreeRectangles() {
			x0, y0 := cell(bounds, r.Min, cols, rows)
			x1, _ := cell(bounds, geometry.Point{X: r.Max.X, Y: r.Min.Y}, cols, rows)
			_, y1 := cell(bounds, geometry.Point{X: r.Min.X, Y: r.Max.Y}, cols, rows)
			for x := x0; x < x1; x++ {
				v.screen.SetContent(x, y0, '─', nil, treeStyle)
			}
			for y := y0; y < y1; y++ {
				v.screen.SetContent(x0, y, '│', nil, treeStyle)
			}
			v.screen.SetContent(x0, y0, '┼', nil, treeStyle)
		}
	}

	v.states = v.bridge.Gather(v.states[:0])
	for _, s := range v.states {
		x, y := cell(bounds, s.Position, cols, rows)
		v.screen.SetContent(x, y, heading(s.Velocity), nil, boidStyle)
	}

	line := []rune(v.status())
	for x := 0; x < cols; x++ {
		ch := ' '
		if x < len(line) {
			ch = line[x]
		}
		v.screen.SetContent(x, rows, ch, nil, statusStyle)
	}
	v.screen.Show()
}

// meanNeighbours is how many flockmates a boid perceives on average.
func (v *View) meanNeighbours() float64 {
	if len(v.states) == 0 {
		return 0
	}
	sim := v.bridge.Simulation()
	radius := sim.Config().PerceptionRadius
	total := 0
	for _, s := range v.states {
		var n int
		n, v.found = sim.Neighbors().CountWithinRadius(v.found, s.Handle, s.Position, radius)
		total += n
	}
	return float64(total) / float64(len(v.states))
}

func (v *View) status() string {
	status := fmt.Sprintf(" tick %d | boids %d | nbrs %.1f | %s/tick | [space] pause [t] tree [r] respawn [q] quit",
		v.ticks, len(v.states), v.meanNeighbours(), v.lastTick.Round(time.Microsecond))
	if v.paused {
		status = " PAUSED" + status
	}
	return status
}

// HandleEvent applies a key press. It returns false when the view should close.
func (v *View) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}
		switch ev.Rune() {
		case 'q':
			return false
		case ' ':
			v.paused = !v.paused
		case 't':
			v.showTree = !v.showTree
		case 'r':
			v.respawn()
			v.logger.Infof("flock respawned with %d boids", v.cfg.Population)
		}
	case *tcell.EventResize:
		v.screen.Sync()
	}
	return true
}

// Run ticks and draws until ctx is done or the user quits.
func (v *View) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(v.dt * float64(time.Second)))
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return // screen finalized
			}
			events <- ev
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			if !v.HandleEvent(ev) {
				return nil
			}
		case <-ticker.C:
			if err := v.Step(); err != nil {
				return err
			}
			v.Draw()
		}
	}
}
