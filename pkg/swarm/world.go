// Package swarm hosts a flock inside a goakt actor. The WorldActor owns the
// authoritative agent list, serialises ticks through its mailbox and pushes
// snapshot frames to whoever renders them.
//
// Messages understood by the WorldActor:
//
//	*durationpb.Duration  advance the flock by that time step
//	*emptypb.Empty        reply with the latest frame as *wrapperspb.BytesValue
//	*structpb.Struct      patch the configuration, keys are the JSON config names;
//	                      a "respawn": true entry or a new population restarts the flock
package swarm

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/snapshot"
)

// WorldActor is the "Brain." It manages the authoritative state and the quadtree driver.
type WorldActor struct {
	cfg    simulation.Config
	sim    *simulation.Simulation
	states []simulation.AgentState
	tick   uint64
	rng    *rand.Rand
	runID  string

	// Communication with UI
	frames chan<- snapshot.Frame

	// --- Benchmark Stats ---
	ticksSinceLog int
	tickTime      time.Duration
	lastLogTime   time.Time
}

var _ actor.Actor = (*WorldActor)(nil)

// NewWorldActor creates the world logic unit. frames may be nil when the
// caller only polls with *emptypb.Empty.
func NewWorldActor(cfg *simulation.Config, frames chan<- snapshot.Frame) *WorldActor {
	return &WorldActor{
		cfg:         *cfg,
		frames:      frames,
		runID:       uuid.NewString(),
		lastLogTime: time.Now(),
	}
}

// RunID identifies this flock in logs. It is fixed at construction.
func (w *WorldActor) RunID() string { return w.runID }

func (w *WorldActor) PreStart(ctx *actor.Context) error {
	sim, err := simulation.New(w.cfg.WorldBounds(), w.cfg,
		simulation.WithLogger(ctx.ActorSystem().Logger()))
	if err != nil {
		return fmt.Errorf("world %s: %w", w.runID, err)
	}
	w.sim = sim
	w.rng = simulation.NewRand(w.cfg.Seed)
	return nil
}

func (w *WorldActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {

	case *goaktpb.PostStart:
		w.spawnFlock()
		ctx.Logger().Infof("World %s started with %d boids in %s", w.runID, len(w.states), w.cfg.WorldBounds())

	// The Main Simulation Step (Driven by Game Loop)
	case *durationpb.Duration:
		if err := w.step(msg.AsDuration()); err != nil {
			ctx.Logger().Errorf("world %s tick %d: %v", w.runID, w.tick, err)
			return
		}
		w.logBenchmarks(ctx)
		w.pushFrame()

	case *emptypb.Empty:
		ctx.Response(wrapperspb.Bytes(snapshot.Marshal(w.frame())))

	// Handle dynamic slider updates from UI
	case *structpb.Struct:
		if err := w.reconfigure(msg); err != nil {
			ctx.Logger().Warnf("world %s: reconfigure rejected: %v", w.runID, err)
		}

	default:
		ctx.Unhandled()
	}
}

func (w *WorldActor) PostStop(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Infof("World %s is shutdown after %d ticks", w.runID, w.tick)
	return nil
}

func (w *WorldActor) spawnFlock() {
	w.states = simulation.SpawnFlock(&w.cfg, w.cfg.WorldBounds(), w.cfg.Population, 1, w.rng)
	w.tick = 0
}

func (w *WorldActor) step(dt time.Duration) error {
	start := time.Now()
	next, err := w.sim.Tick(w.states, dt.Seconds())
	if err != nil {
		return err
	}
	w.states = next
	w.tick++
	w.ticksSinceLog++
	w.tickTime += time.Since(start)
	return nil
}

// reconfigure overlays the struct fields on the current configuration.
func (w *WorldActor) reconfigure(patch *structpb.Struct) error {
	fields := patch.AsMap()
	respawn, _ := fields["respawn"].(bool)
	delete(fields, "respawn")

	b, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode patch: %w", err)
	}
	next := w.cfg
	if err := json.Unmarshal(b, &next); err != nil {
		return fmt.Errorf("apply patch: %w", err)
	}
	if err := w.sim.Reconfigure(next); err != nil {
		return err
	}
	respawn = respawn || next.Population != w.cfg.Population
	w.cfg = next
	if respawn {
		w.spawnFlock()
	}
	return nil
}

func (w *WorldActor) frame() snapshot.Frame {
	f := snapshot.Frame{Tick: w.tick, Agents: w.states}
	if w.cfg.ShowQuadtree {
		f.Rects = w.sim.DebugTreeRectangles()
	}
	return f
}

// pushFrame never blocks the actor: a busy UI just misses frames.
func (w *WorldActor) pushFrame() {
	if w.frames == nil {
		return
	}
	select {
	case w.frames <- w.frame():
	default:
		// UI busy, skip frame
	}
}

func (w *WorldActor) logBenchmarks(ctx *actor.ReceiveContext) {
	if time.Since(w.lastLogTime) < time.Second || w.ticksSinceLog == 0 {
		return
	}
	st := w.sim.Stats()
	ctx.Logger().Infof("📊 TICK RATE: %d/sec (avg %s) | Boids: %d | Tree nodes: %d depth: %d overfull: %d",
		w.ticksSinceLog, w.tickTime/time.Duration(w.ticksSinceLog), st.Agents,
		st.Tree.Nodes, st.Tree.Depth, st.Tree.Overfull)
	w.ticksSinceLog = 0
	w.tickTime = 0
	w.lastLogTime = time.Now()
}
