package behavior

import (
	"fmt"
	"math"

	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/geometry"
)

// Boundary is what happens to a boid that steps outside the world.
type Boundary string

const (
	BoundaryWrap    Boundary = "wrap"    // leave on one side, enter on the opposite one
	BoundaryClamp   Boundary = "clamp"   // stop at the edge
	BoundaryReflect Boundary = "reflect" // bounce off the edge
)

// ParseBoundary maps a config string onto a Boundary.
func ParseBoundary(s string) (Boundary, error) {
	switch b := Boundary(s); b {
	case BoundaryWrap, BoundaryClamp, BoundaryReflect:
		return b, nil
	}
	return "", fmt.Errorf("unknown boundary policy %q (want wrap, clamp or reflect)", s)
}

// ApplyBoundary brings p back inside bounds according to policy and adjusts v
// to match. Points already inside are returned untouched. Unknown policies
// behave like clamp so the result is always inside bounds.
func ApplyBoundary(policy Boundary, bounds geometry.Rectangle, p geometry.Point, v geometry.Vector2D) (geometry.Point, geometry.Vector2D) {
	if bounds.Contains(p) && policy != BoundaryWrap {
		return p, v
	}
	switch policy {
	case BoundaryWrap:
		p.X = wrap(p.X, bounds.Min.X, bounds.Max.X)
		p.Y = wrap(p.Y, bounds.Min.Y, bounds.Max.Y)
	case BoundaryReflect:
		p.X, v.X = reflect(p.X, v.X, bounds.Min.X, bounds.Max.X)
		p.Y, v.Y = reflect(p.Y, v.Y, bounds.Min.Y, bounds.Max.Y)
		p = bounds.Clamp(p)
	default:
		p.X, v.X = clamp(p.X, v.X, bounds.Min.X, bounds.Max.X)
		p.Y, v.Y = clamp(p.Y, v.Y, bounds.Min.Y, bounds.Max.Y)
	}
	return p, v
}

// wrap maps x into [lo, hi).
func wrap(x, lo, hi float64) float64 {
	if x >= lo && x < hi {
		return x
	}
	span := hi - lo
	m := math.Mod(x-lo, span)
	if m < 0 {
		m += span
	}
	if m >= span {
		m = 0
	}
	return lo + m
}

func clamp(x, vx, lo, hi float64) (float64, float64) {
	switch {
	case x < lo:
		return lo, math.Max(vx, 0)
	case x > hi:
		return hi, math.Min(vx, 0)
	}
	return x, vx
}

func reflect(x, vx, lo, hi float64) (float64, float64) {
	switch {
	case x < lo:
		return lo + (lo - x), math.Abs(vx)
	case x > hi:
		return hi - (x - hi), -math.Abs(vx)
	}
	return x, vx
}
