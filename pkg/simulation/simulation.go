// Package simulation is the per-frame driver of the flock: it keeps the
// quadtree in step with the agents, asks the neighbour service who each agent
// perceives, and runs the behaviour rules on a frozen snapshot of the tick.
//
// The host owns the agents and hands their plain state to Tick; the driver
// never keeps references to host objects.
package simulation

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/tochemey/goakt/v3/log"
	"golang.org/x/sync/errgroup"

	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/neighbor"
	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/quadtree"
)

// minChunk keeps tiny flocks on a single goroutine.
const minChunk = 64

// AgentState is the plain record exchanged with the host on every tick.
type AgentState struct {
	Handle   quadtree.Handle   `json:"handle"`
	Position geometry.Point    `json:"position"`
	Velocity geometry.Vector2D `json:"velocity"`
}

// Stats describes the driver after the last tick.
type Stats struct {
	Ticks    uint64
	Agents   int
	Rebuilds uint64 // full reindexes, every tick in rebuild mode
	Moves    uint64 // remove+insert pairs done by the incremental strategy
	NotFound uint64 // stale removals tolerated by the incremental strategy
	Clamped  uint64 // incoming positions pulled back inside the world
	Tree     quadtree.Stats
}

type Option func(*Simulation)

// WithLogger routes the driver diagnostics to logger.
func WithLogger(logger log.Logger) Option {
	return func(s *Simulation) {
		s.logger = logger
	}
}

// workerScratch is the per goroutine buffer set of the compute phase.
type workerScratch struct {
	items  neighbor.Set
	bodies []behavior.Body
}

// Simulation is not safe for concurrent Tick calls; hosts serialise them.
type Simulation struct {
	bounds    geometry.Rectangle
	cfg       Config
	rules     behavior.Rules
	policy    behavior.Boundary
	tree      *quadtree.Quadtree
	neighbors *neighbor.Service
	logger    log.Logger

	// per tick snapshot, reused across ticks
	bodies  []behavior.Body
	slot    map[quadtree.Handle]int
	items   []quadtree.Item
	scratch []workerScratch

	// positions as currently indexed, incremental strategy only
	indexed map[quadtree.Handle]geometry.Point

	stats Stats
}

// New creates a driver for a world covering worldBounds. The world size in cfg
// is only used by hosts; worldBounds is authoritative.
func New(worldBounds geometry.Rectangle, cfg Config, opts ...Option) (*Simulation, error) {
	if err := worldBounds.Validate(); err != nil {
		return nil, newConfigurationError(fmt.Errorf("world bounds: %w", err))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tree, err := quadtree.New(worldBounds, cfg.TreeConfig())
	if err != nil {
		return nil, newConfigurationError(err)
	}
	s := &Simulation{
		bounds:    worldBounds,
		tree:      tree,
		logger:    log.DiscardLogger,
		slot:      make(map[quadtree.Handle]int),
		indexed:   make(map[quadtree.Handle]geometry.Point),
	}
	s.neighbors = neighbor.NewService(liveIndex{s})
	s.apply(cfg)
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Simulation) apply(cfg Config) {
	s.cfg = cfg
	s.rules = cfg.Rules()
	s.policy = behavior.Boundary(cfg.BoundaryPolicy)
	s.scratch = make([]workerScratch, max(cfg.workerCount(), 1))
}

// Config returns a copy of the configuration in use.
func (s *Simulation) Config() Config { return s.cfg }

func (s *Simulation) Bounds() geometry.Rectangle { return s.bounds }

// Reconfigure swaps the configuration between two ticks. Changing the tree
// limits rebuilds the index on the next tick.
func (s *Simulation) Reconfigure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.TreeConfig() != s.cfg.TreeConfig() {
		tree, err := quadtree.New(s.bounds, cfg.TreeConfig())
		if err != nil {
			return newConfigurationError(err)
		}
		s.tree = tree
		clear(s.indexed)
	}
	if cfg.IndexStrategy != s.cfg.IndexStrategy {
		clear(s.indexed)
	}
	s.apply(cfg)
	s.logger.Debugf("simulation reconfigured: %+v", cfg)
	return nil
}

// Tick advances every agent by dt seconds and returns the new states in the
// order of the input. states is never modified. Every agent reads the same
// pre-tick snapshot, so the result does not depend on processing order.
func (s *Simulation) Tick(states []AgentState, dt float64) ([]AgentState, error) {
	if err := s.load(states, dt); err != nil {
		return nil, err
	}
	if err := s.refreshIndex(); err != nil {
		return nil, fmt.Errorf("refresh index at tick %d: %w", s.stats.Ticks, err)
	}

	out := make([]AgentState, len(states))
	if err := s.compute(out, dt); err != nil {
		return nil, err
	}

	s.stats.Ticks++
	s.stats.Agents = len(states)
	return out, nil
}

// load validates the tick arguments and freezes the clamped snapshot.
func (s *Simulation) load(states []AgentState, dt float64) error {
	var problems []error
	if !(dt > 0) || math.IsInf(dt, 0) {
		problems = append(problems, fmt.Errorf("time step must be positive and finite, got %v", dt))
	}

	clear(s.slot)
	s.bodies = s.bodies[:0]
	for i, st := range states {
		if _, dup := s.slot[st.Handle]; dup {
			problems = append(problems, fmt.Errorf("duplicate handle %d at index %d", st.Handle, i))
			continue
		}
		if !st.Position.IsFinite() || !st.Velocity.IsFinite() {
			problems = append(problems, fmt.Errorf("agent %d has a non finite state %v %v", st.Handle, st.Position, st.Velocity))
		}
		s.slot[st.Handle] = i
		p := s.bounds.Clamp(st.Position)
		if p != st.Position {
			s.stats.Clamped++
			s.logger.Debugf("agent %d at %s clamped into the world at %s", st.Handle, st.Position, p)
		}
		s.bodies = append(s.bodies, behavior.Body{Handle: uint64(st.Handle), Position: p, Velocity: st.Velocity})
	}
	if len(problems) > 0 {
		return newConfigurationError(problems...)
	}
	return nil
}

func (s *Simulation) refreshIndex() error {
	if s.cfg.IndexStrategy == IndexIncremental && len(s.indexed) > 0 &&
		s.stats.Ticks%uint64(s.cfg.RebuildInterval) != 0 {
		return s.moveIndexed()
	}
	return s.rebuildIndex()
}

// rebuildIndex indexes the snapshot from scratch in handle order, so the tree
// shape, and every neighbour list, depends only on the set of agents.
func (s *Simulation) rebuildIndex() error {
	s.items = s.items[:0]
	for _, b := range s.bodies {
		s.items = append(s.items, quadtree.Item{Handle: quadtree.Handle(b.Handle), Position: b.Position})
	}
	slices.SortFunc(s.items, func(a, b quadtree.Item) int {
		switch {
		case a.Handle < b.Handle:
			return -1
		case a.Handle > b.Handle:
			return 1
		}
		return 0
	})
	if err := s.tree.Rebuild(s.items); err != nil {
		return err
	}
	s.stats.Rebuilds++
	if s.cfg.IndexStrategy == IndexIncremental {
		clear(s.indexed)
		for _, it := range s.items {
			s.indexed[it.Handle] = it.Position
		}
		s.logger.Debugf("tick %d: full rebuild of %d agents", s.stats.Ticks, len(s.items))
	}
	return nil
}

// moveIndexed patches the tree: moved agents are removed at their old
// position and reinserted, new ones inserted, vanished ones removed.
func (s *Simulation) moveIndexed() error {
	for _, b := range s.bodies {
		h := quadtree.Handle(b.Handle)
		prev, known := s.indexed[h]
		if known && prev == b.Position {
			continue
		}
		if known {
			s.remove(h, prev)
			s.stats.Moves++
		}
		if err := s.tree.Insert(h, b.Position); err != nil {
			return err
		}
		s.indexed[h] = b.Position
	}
	for h, prev := range s.indexed {
		if _, alive := s.slot[h]; !alive {
			s.remove(h, prev)
			delete(s.indexed, h)
		}
	}
	if merged := s.tree.Compact(); merged > 0 {
		s.logger.Debugf("tick %d: compacted %d quadtree nodes", s.stats.Ticks, merged)
	}
	return nil
}

// remove tolerates a handle missing from its expected leaf: the agent is
// reinserted anyway, so the index converges.
func (s *Simulation) remove(h quadtree.Handle, at geometry.Point) {
	err := s.tree.Remove(h, at)
	if err == nil {
		return
	}
	if errors.Is(err, quadtree.ErrNotFound) {
		s.stats.NotFound++
		s.logger.Warnf("tick %d: %v", s.stats.Ticks, err)
		return
	}
	s.logger.Errorf("tick %d: unexpected remove failure: %v", s.stats.Ticks, err)
}

// compute fills out[i] from the frozen snapshot. Workers only read the tree,
// the snapshot and the slot map, and only write their own range of out.
func (s *Simulation) compute(out []AgentState, dt float64) error {
	n := len(s.bodies)
	workers := min(len(s.scratch), max(n/minChunk, 1))
	if workers <= 1 {
		s.computeRange(out, 0, n, dt, &s.scratch[0])
		return nil
	}

	chunk := (n + workers - 1) / workers
	var g errgroup.Group
	g.SetLimit(workers)
	for w := 0; w < workers; w++ {
		lo, hi := w*chunk, min((w+1)*chunk, n)
		if lo >= hi {
			break
		}
		scratch := &s.scratch[w]
		g.Go(func() error {
			s.computeRange(out, lo, hi, dt, scratch)
			return nil
		})
	}
	return g.Wait()
}

func (s *Simulation) computeRange(out []AgentState, lo, hi int, dt float64, scratch *workerScratch) {
	radius := s.rules.PerceptionRadius
	for i := lo; i < hi; i++ {
		self := s.bodies[i]
		scratch.items = s.neighbors.AppendWithinRadius(scratch.items[:0], quadtree.Handle(self.Handle), self.Position, radius, true)
		scratch.bodies = scratch.bodies[:0]
		for _, it := range scratch.items {
			scratch.bodies = append(scratch.bodies, s.bodies[s.slot[it.Handle]])
		}
		next := s.rules.Step(self, scratch.bodies, s.bounds, s.policy, dt)
		out[i] = AgentState{Handle: quadtree.Handle(next.Handle), Position: next.Position, Velocity: next.Velocity}
	}
}

// DebugTreeRectangles returns the boundary of every quadtree node as of the
// last tick, for debug overlays.
func (s *Simulation) DebugTreeRectangles() []geometry.Rectangle {
	return s.tree.Rectangles()
}

// Neighbors exposes the radius queries on the index as of the last tick, e.g.
// for hosts highlighting what one agent perceives. The service follows the
// tree across Reconfigure, so it can be kept.
func (s *Simulation) Neighbors() *neighbor.Service { return s.neighbors }

// liveIndex resolves the tree on every query since Reconfigure may replace it.
type liveIndex struct{ s *Simulation }

func (l liveIndex) QueryRegionAppend(dst []quadtree.Item, r geometry.Rectangle) []quadtree.Item {
	return l.s.tree.QueryRegionAppend(dst, r)
}

func (s *Simulation) Stats() Stats {
	st := s.stats
	st.Tree = s.tree.Stats()
	return st
}
