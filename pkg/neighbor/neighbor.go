// Package neighbor answers "who is within r of this point" on top of a
// spatial index: a square region query narrows the candidates, then a
// Euclidean filter keeps the ones inside the circle.
package neighbor

import (
	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/quadtree"
)

// Set is an ephemeral list of agents found near a point.
// Order follows the index traversal and is deterministic for a given tree.
type Set = []quadtree.Item

// Index is the read-only part of a spatial index the service needs.
// *quadtree.Quadtree satisfies it.
type Index interface {
	QueryRegionAppend(dst []quadtree.Item, r geometry.Rectangle) []quadtree.Item
}

// Service runs radius queries against an Index. It keeps no state of its own
// besides the index, so one Service can be shared by concurrent readers.
type Service struct {
	index Index
}

func NewService(index Index) *Service {
	return &Service{index: index}
}

// FindWithinRadius returns every agent at distance <= radius from center,
// including an agent sitting exactly on center.
func (s *Service) FindWithinRadius(center geometry.Point, radius float64) Set {
	return s.AppendWithinRadius(nil, 0, center, radius, false)
}

// FindNeighbors is FindWithinRadius without the agent self.
func (s *Service) FindNeighbors(self quadtree.Handle, center geometry.Point, radius float64) Set {
	return s.AppendWithinRadius(nil, self, center, radius, true)
}

// AppendWithinRadius appends the agents within radius of center to dst and
// returns the extended slice. When exclude is set, items carrying self are
// skipped. A negative or NaN radius appends nothing.
func (s *Service) AppendWithinRadius(dst Set, self quadtree.Handle, center geometry.Point, radius float64, exclude bool) Set {
	if !(radius >= 0) || !center.IsFinite() {
		return dst
	}
	start := len(dst)
	dst = s.index.QueryRegionAppend(dst, geometry.SquareAround(center, radius))

	// filter the freshly appended tail in place
	radiusSq := radius * radius
	kept := start
	for _, it := range dst[start:] {
		if exclude && it.Handle == self {
			continue
		}
		if it.Position.DistanceSquaredTo(center) > radiusSq {
			continue
		}
		dst[kept] = it
		kept++
	}
	return dst[:kept]
}

// CountWithinRadius counts the agents within radius of center other than self.
// It reuses buf as scratch space and returns it so callers can keep one
// buffer per goroutine and count without allocating.
func (s *Service) CountWithinRadius(buf Set, self quadtree.Handle, center geometry.Point, radius float64) (int, Set) {
	buf = s.AppendWithinRadius(buf[:0], self, center, radius, true)
	return len(buf), buf
}
