package geometry

import (
	"errors"
	"fmt"
	"math"
)

// ErrDegenerateRectangle is returned by Validate for rectangles that cannot
// bound anything: zero or negative extent, or non finite coordinates.
var ErrDegenerateRectangle = errors.New("degenerate rectangle")

// Quadrant indexes the four children produced by Quadrants.
type Quadrant int

const (
	NorthWest Quadrant = iota
	NorthEast
	SouthWest
	SouthEast
)

// Rectangle is an axis-aligned box stored as its two extreme corners.
// Y grows downwards (screen convention), so "north" is the smaller Y.
// Bounds are closed: points on an edge are inside.
//
// Corners are kept instead of center and half extents so that the split line
// of a node is bit-for-bit the shared edge of its children.
type Rectangle struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// NewRectangle builds a rectangle from a center and half extents.
// Negative extents are folded to their absolute value.
func NewRectangle(center Point, halfWidth, halfHeight float64) Rectangle {
	hx, hy := math.Abs(halfWidth), math.Abs(halfHeight)
	return Rectangle{
		Min: Point{X: center.X - hx, Y: center.Y - hy},
		Max: Point{X: center.X + hx, Y: center.Y + hy},
	}
}

// RectFromCorners builds the rectangle spanned by two opposite corners, in any order.
func RectFromCorners(a, b Point) Rectangle {
	return Rectangle{
		Min: Point{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y)},
		Max: Point{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y)},
	}
}

// SquareAround returns the axis-aligned bounding square of the circle (center, radius).
func SquareAround(center Point, radius float64) Rectangle {
	return NewRectangle(center, radius, radius)
}

// Center is the midpoint of the rectangle; it is also where Quadrants splits.
func (r Rectangle) Center() Point {
	return Point{X: (r.Min.X + r.Max.X) / 2, Y: (r.Min.Y + r.Max.Y) / 2}
}

func (r Rectangle) Width() float64  { return r.Max.X - r.Min.X }
func (r Rectangle) Height() float64 { return r.Max.Y - r.Min.Y }

// Contains reports whether p lies within the closed bounds of r.
func (r Rectangle) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X &&
		p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Intersects reports whether the closed bounds of r and other overlap on both axes.
// Touching edges count as intersecting so agents sitting on a split line are never missed.
func (r Rectangle) Intersects(other Rectangle) bool {
	return r.Min.X <= other.Max.X && other.Min.X <= r.Max.X &&
		r.Min.Y <= other.Max.Y && other.Min.Y <= r.Max.Y
}

// Quadrants splits r at its center into four children indexed by Quadrant.
func (r Rectangle) Quadrants() [4]Rectangle {
	c := r.Center()
	return [4]Rectangle{
		NorthWest: {Min: r.Min, Max: c},
		NorthEast: {Min: Point{X: c.X, Y: r.Min.Y}, Max: Point{X: r.Max.X, Y: c.Y}},
		SouthWest: {Min: Point{X: r.Min.X, Y: c.Y}, Max: Point{X: c.X, Y: r.Max.Y}},
		SouthEast: {Min: c, Max: r.Max},
	}
}

// QuadrantOf returns the child quadrant a point belongs to.
// Points on a split line go east and/or south.
func (r Rectangle) QuadrantOf(p Point) Quadrant {
	c := r.Center()
	q := NorthWest
	if p.X >= c.X {
		q |= NorthEast
	}
	if p.Y >= c.Y {
		q |= SouthWest
	}
	return q
}

// Clamp returns the point of r closest to p.
func (r Rectangle) Clamp(p Point) Point {
	return Point{
		X: math.Max(r.Min.X, math.Min(r.Max.X, p.X)),
		Y: math.Max(r.Min.Y, math.Min(r.Max.Y, p.Y)),
	}
}

// Validate returns ErrDegenerateRectangle when r has no area or non finite fields.
func (r Rectangle) Validate() error {
	if !r.Min.IsFinite() || !r.Max.IsFinite() {
		return fmt.Errorf("%w: non finite bounds %s", ErrDegenerateRectangle, r)
	}
	if r.Max.X <= r.Min.X || r.Max.Y <= r.Min.Y {
		return fmt.Errorf("%w: %s has no area", ErrDegenerateRectangle, r)
	}
	return nil
}

func (r Rectangle) String() string {
	return fmt.Sprintf("[%s-%s]", r.Min, r.Max)
}
