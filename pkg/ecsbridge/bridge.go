// Package ecsbridge lets hosts that keep their agents in an ark ECS world
// drive a simulation.Simulation. Each agent is an entity with Handle,
// Position and Velocity components; Step gathers them, runs one tick and
// writes the results back.
package ecsbridge

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/quadtree"
	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/simulation"
)

// Handle identifies the agent inside the simulation.
type Handle struct {
	ID quadtree.Handle
}

type Position struct {
	X, Y float64
}

type Velocity struct {
	X, Y float64
}

// Bridge owns the component mappers for one world.
type Bridge struct {
	world  *ecs.World
	mapper *ecs.Map3[Handle, Position, Velocity]
	filter *ecs.Filter3[Handle, Position, Velocity]
	sim    *simulation.Simulation

	// reused between steps
	entities []ecs.Entity
	states   []simulation.AgentState
}

// New wraps world, which must outlive the bridge. ecs.NewWorld returns a
// value, so pass its address.
func New(world *ecs.World, sim *simulation.Simulation) *Bridge {
	return &Bridge{
		world:  world,
		mapper: ecs.NewMap3[Handle, Position, Velocity](world),
		filter: ecs.NewFilter3[Handle, Position, Velocity](world),
		sim:    sim,
	}
}

// World returns the ECS world the bridge writes to.
func (b *Bridge) World() *ecs.World { return b.world }

func (b *Bridge) Simulation() *simulation.Simulation { return b.sim }

// Spawn creates one entity per state.
func (b *Bridge) Spawn(states []simulation.AgentState) []ecs.Entity {
	out := make([]ecs.Entity, len(states))
	for i, s := range states {
		out[i] = b.mapper.NewEntity(
			&Handle{ID: s.Handle},
			&Position{X: s.Position.X, Y: s.Position.Y},
			&Velocity{X: s.Velocity.X, Y: s.Velocity.Y},
		)
	}
	return out
}

// Despawn removes the entity. The agent disappears from the index on the next Step.
func (b *Bridge) Despawn(e ecs.Entity) {
	if b.world.Alive(e) {
		b.world.RemoveEntity(e)
	}
}

// Reset removes every agent entity and spawns states in their place.
func (b *Bridge) Reset(states []simulation.AgentState) []ecs.Entity {
	b.entities = b.entities[:0]
	query := b.filter.Query()
	for query.Next() {
		b.entities = append(b.entities, query.Entity())
	}
	for _, e := range b.entities {
		b.world.RemoveEntity(e)
	}
	return b.Spawn(states)
}

// Gather copies the components of every agent entity into dst.
func (b *Bridge) Gather(dst []simulation.AgentState) []simulation.AgentState {
	return b.gather(dst, nil)
}

// gather also records the entity of each state when entities is not nil.
func (b *Bridge) gather(dst []simulation.AgentState, entities *[]ecs.Entity) []simulation.AgentState {
	query := b.filter.Query()
	for query.Next() {
		h, p, v := query.Get()
		dst = append(dst, simulation.AgentState{
			Handle:   h.ID,
			Position: geometry.Point{X: p.X, Y: p.Y},
			Velocity: geometry.Vector2D{X: v.X, Y: v.Y},
		})
		if entities != nil {
			*entities = append(*entities, query.Entity())
		}
	}
	return dst
}

// Step advances every agent entity by dt seconds.
func (b *Bridge) Step(dt float64) error {
	b.entities = b.entities[:0]
	b.states = b.gather(b.states[:0], &b.entities)
	next, err := b.sim.Tick(b.states, dt)
	if err != nil {
		return fmt.Errorf("ecs step: %w", err)
	}
	for i, e := range b.entities {
		_, p, v := b.mapper.Get(e)
		p.X, p.Y = next[i].Position.X, next[i].Position.Y
		v.X, v.Y = next[i].Velocity.X, next[i].Velocity.Y
	}
	return nil
}
