package simulation

import (
	"math"
	"math/rand/v2"

	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/quadtree"
)

// NewRand returns the generator hosts spawn with: seeded from cfg.Seed, or
// from the global source when Seed is 0.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// SpawnFlock places n agents uniformly inside bounds with a random heading
// and a speed between MinSpeed and MaxSpeed. Handles start at first.
func SpawnFlock(cfg *Config, bounds geometry.Rectangle, n int, first quadtree.Handle, rng *rand.Rand) []AgentState {
	states := make([]AgentState, n)
	for i := range states {
		angle := rng.Float64() * 2 * math.Pi
		speed := cfg.MinSpeed + rng.Float64()*(cfg.MaxSpeed-cfg.MinSpeed)
		states[i] = AgentState{
			Handle: first + quadtree.Handle(i),
			Position: geometry.Point{
				X: bounds.Min.X + rng.Float64()*bounds.Width(),
				Y: bounds.Min.Y + rng.Float64()*bounds.Height(),
			},
			Velocity: geometry.Vector2D{X: math.Cos(angle) * speed, Y: math.Sin(angle) * speed},
		}
	}
	return states
}
