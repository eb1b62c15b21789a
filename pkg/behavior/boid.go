// Package behavior holds the boid steering rules and the kinematic step.
//
// Boids is an artificial life program, developed by Craig Reynolds in 1986,
// which simulates the flocking behaviour of birds, and related group motion.
// Each boid reacts only to the neighbours it perceives:
// separation keeps personal space, alignment matches heading,
// cohesion pulls toward the local centre of mass. https://en.wikipedia.org/wiki/Boids
//
// Everything here is a pure function of its arguments, so a whole flock can be
// stepped in any order, or in parallel, from the same pre-tick snapshot.
package behavior

import (
	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/geometry"
)

// coincidentDistance stands in for the distance between two boids at the
// exact same position, so separation still pushes them apart.
const coincidentDistance = 1e-6

// Body is what the rules need to know about one boid.
type Body struct {
	Handle   uint64
	Position geometry.Point
	Velocity geometry.Vector2D
}

// Weights scale the three flocking forces.
type Weights struct {
	Separation float64
	Alignment  float64
	Cohesion   float64
}

// Rules controls the physics constants for the simulation.
// Passing this into Steer and Integrate allows you to change rules dynamically at runtime.
type Rules struct {
	PerceptionRadius float64 // How far can they see?
	SeparationRadius float64 // Personal space radius
	Weights          Weights

	MaxSpeed float64
	MinSpeed float64 // 0 lets boids stop
	MaxForce float64

	EdgeMargin float64 // distance from the world edge where boids start turning, 0 disables
	TurnFactor float64 // edge turning strength
}

// Steer returns the flocking force acting on self. neighbors must not contain
// self; the caller decides who is perceived. With no neighbours the force is zero.
func (r Rules) Steer(self Body, neighbors []Body) geometry.Vector2D {
	if len(neighbors) == 0 {
		return geometry.Zero
	}
	var separation, velSum, posSum geometry.Vector2D
	sepRadiusSq := r.SeparationRadius * r.SeparationRadius

	for _, n := range neighbors {
		velSum = velSum.Add(n.Velocity)
		posSum = posSum.Add(n.Position)

		away := self.Position.Sub(n.Position)
		dSq := away.LenSqr()
		if dSq > sepRadiusSq {
			continue
		}
		if dSq == 0 {
			// same spot: split the pair along X by handle so both sides mirror
			push := 1 / coincidentDistance
			if self.Handle < n.Handle {
				push = -push
			}
			separation.X += push
			continue
		}
		separation = separation.Add(away.Mul(1 / dSq))
	}

	count := float64(len(neighbors))
	alignment := velSum.Mul(1 / count).Sub(self.Velocity)
	cohesion := posSum.Mul(1 / count).Sub(self.Position)

	force := separation.Mul(r.Weights.Separation).
		Add(alignment.Mul(r.Weights.Alignment)).
		Add(cohesion.Mul(r.Weights.Cohesion))
	return force.Limit(r.MaxForce)
}

// EdgeSteer is the soft boundary: inside EdgeMargin of a world edge the boid
// gets TurnFactor pushing it back toward the middle.
func (r Rules) EdgeSteer(p geometry.Point, bounds geometry.Rectangle) geometry.Vector2D {
	if r.EdgeMargin <= 0 || r.TurnFactor == 0 {
		return geometry.Zero
	}
	var f geometry.Vector2D
	if p.X < bounds.Min.X+r.EdgeMargin {
		f.X += r.TurnFactor
	}
	if p.X > bounds.Max.X-r.EdgeMargin {
		f.X -= r.TurnFactor
	}
	if p.Y < bounds.Min.Y+r.EdgeMargin {
		f.Y += r.TurnFactor
	}
	if p.Y > bounds.Max.Y-r.EdgeMargin {
		f.Y -= r.TurnFactor
	}
	return f
}

// Integrate applies force for dt seconds: velocity first, capped to MaxSpeed
// and floored to MinSpeed, then position with the new velocity.
func (r Rules) Integrate(b Body, force geometry.Vector2D, dt float64) Body {
	v := b.Velocity.Add(force.Mul(dt)).Limit(r.MaxSpeed)
	if r.MinSpeed > 0 && !v.IsZero() {
		if speedSq := v.LenSqr(); speedSq < r.MinSpeed*r.MinSpeed {
			v = v.Normalize().Mul(r.MinSpeed)
		}
	}
	b.Velocity = v
	b.Position = b.Position.Add(v.Mul(dt))
	return b
}

// Step runs one full update of self: flocking, edge avoidance, integration and
// the boundary policy. The combined force is capped to MaxForce.
func (r Rules) Step(self Body, neighbors []Body, bounds geometry.Rectangle, policy Boundary, dt float64) Body {
	force := r.Steer(self, neighbors).Add(r.EdgeSteer(self.Position, bounds)).Limit(r.MaxForce)
	next := r.Integrate(self, force, dt)
	next.Position, next.Velocity = ApplyBoundary(policy, bounds, next.Position, next.Velocity)
	return next
}
