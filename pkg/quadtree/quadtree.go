// Package quadtree implements a point quadtree keyed by agent handles.
//
// Items live in leaves only. A leaf splits into four quadrants once it holds
// more than MaxItems items, unless it already sits at MaxDepth; leaves at the
// depth bound keep accepting items so clustered or coincident points can never
// cause unbounded subdivision. Removal never merges nodes back; call Compact or
// Rebuild to tighten a tree that has seen a lot of churn.
//
// A Quadtree is not safe for concurrent mutation. Any number of goroutines may
// query it at the same time as long as nobody inserts, removes or rebuilds.
package quadtree

import (
	"errors"
	"fmt"
	"slices"

	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/geometry"
)

const (
	DefaultMaxItems = 16
	DefaultMaxDepth = 8
)

// Handle identifies an agent. It is owned by the host; the tree only stores it.
type Handle uint64

// Item is one indexed agent: its handle and the position it was indexed at.
type Item struct {
	Handle   Handle
	Position geometry.Point
}

// Config bounds the shape of the tree.
type Config struct {
	MaxItems int `json:"maxItems"` // items a leaf holds before it splits
	MaxDepth int `json:"maxDepth"` // depth at which leaves stop splitting
}

func DefaultConfig() Config {
	return Config{MaxItems: DefaultMaxItems, MaxDepth: DefaultMaxDepth}
}

type node struct {
	bounds   geometry.Rectangle
	depth    int
	items    []Item
	children *[4]node
}

func (n *node) isLeaf() bool {
	return n.children == nil
}

// Quadtree is the root node plus the world boundary and the split policy.
type Quadtree struct {
	bounds geometry.Rectangle
	cfg    Config
	root   node
	size   int
}

// New creates an empty tree covering bounds.
func New(bounds geometry.Rectangle, cfg Config) (*Quadtree, error) {
	if err := bounds.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if cfg.MaxItems < 1 {
		return nil, fmt.Errorf("%w: maxItems must be at least 1, got %d", ErrInvalidConfig, cfg.MaxItems)
	}
	if cfg.MaxDepth < 0 {
		return nil, fmt.Errorf("%w: maxDepth must not be negative, got %d", ErrInvalidConfig, cfg.MaxDepth)
	}
	return &Quadtree{
		bounds: bounds,
		cfg:    cfg,
		root:   node{bounds: bounds},
	}, nil
}

func (q *Quadtree) Bounds() geometry.Rectangle { return q.bounds }
func (q *Quadtree) Config() Config             { return q.cfg }

// Len returns the number of items in the tree.
func (q *Quadtree) Len() int { return q.size }

// Insert indexes h at p. Positions outside the root boundary are rejected with
// an *OutOfBoundsError; callers are expected to clamp before inserting.
// Inserting a handle that is already indexed stores it twice.
func (q *Quadtree) Insert(h Handle, p geometry.Point) error {
	if !q.bounds.Contains(p) {
		return &OutOfBoundsError{Handle: h, Position: p, Bounds: q.bounds}
	}
	q.root.insert(Item{Handle: h, Position: p}, q.cfg)
	q.size++
	return nil
}

func (n *node) insert(it Item, cfg Config) {
	for !n.isLeaf() {
		n = &n.children[n.bounds.QuadrantOf(it.Position)]
	}
	n.items = append(n.items, it)
	if len(n.items) > cfg.MaxItems && n.depth < cfg.MaxDepth {
		n.subdivide(cfg)
	}
}

// subdivide turns a leaf into an internal node and pushes every item down
// into the one child whose quadrant holds it.
func (n *node) subdivide(cfg Config) {
	quads := n.bounds.Quadrants()
	children := new([4]node)
	for i := range quads {
		children[i] = node{bounds: quads[i], depth: n.depth + 1}
	}
	n.children = children

	items := n.items
	n.items = nil
	for _, it := range items {
		n.children[n.bounds.QuadrantOf(it.Position)].insert(it, cfg)
	}
}

// Remove deletes h from the leaf that lastKnown descends to.
// It returns a *NotFoundError when h is not stored there, which happens when
// the caller's idea of the position drifted from what was inserted.
func (q *Quadtree) Remove(h Handle, lastKnown geometry.Point) error {
	if !q.bounds.Contains(lastKnown) {
		return &NotFoundError{Handle: h, Position: lastKnown}
	}
	n := &q.root
	for !n.isLeaf() {
		n = &n.children[n.bounds.QuadrantOf(lastKnown)]
	}
	for i, it := range n.items {
		if it.Handle == h {
			n.items = slices.Delete(n.items, i, i+1)
			q.size--
			return nil
		}
	}
	return &NotFoundError{Handle: h, Position: lastKnown}
}

// QueryRegion returns every item whose position lies inside r.
func (q *Quadtree) QueryRegion(r geometry.Rectangle) []Item {
	return q.QueryRegionAppend(nil, r)
}

// QueryRegionAppend appends the items inside r to dst and returns the extended
// slice, so hot loops can reuse one buffer across queries.
func (q *Quadtree) QueryRegionAppend(dst []Item, r geometry.Rectangle) []Item {
	return q.root.query(dst, r)
}

func (n *node) query(dst []Item, r geometry.Rectangle) []Item {
	if !n.bounds.Intersects(r) {
		return dst
	}
	if n.isLeaf() {
		if covers(r, n.bounds) {
			return append(dst, n.items...)
		}
		for _, it := range n.items {
			if r.Contains(it.Position) {
				dst = append(dst, it)
			}
		}
		return dst
	}
	for i := range n.children {
		dst = n.children[i].query(dst, r)
	}
	return dst
}

// covers reports whether outer fully contains inner.
func covers(outer, inner geometry.Rectangle) bool {
	return outer.Contains(inner.Min) && outer.Contains(inner.Max)
}

// Rebuild discards the tree and indexes items from scratch.
// Items outside the boundary are skipped and reported in the joined error;
// everything else is still inserted.
func (q *Quadtree) Rebuild(items []Item) error {
	q.Clear()
	var errs []error
	for _, it := range items {
		if err := q.Insert(it.Handle, it.Position); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Clear drops every item and node, keeping bounds and configuration.
func (q *Quadtree) Clear() {
	q.root = node{bounds: q.bounds}
	q.size = 0
}

// Compact collapses internal nodes whose children are all leaves holding no
// more than MaxItems items between them. It is the explicit counterpart of the
// no-merge policy of Remove and returns how many internal nodes were collapsed.
func (q *Quadtree) Compact() int {
	return q.root.compact(q.cfg)
}

func (n *node) compact(cfg Config) int {
	if n.isLeaf() {
		return 0
	}
	merged := 0
	total := 0
	allLeaves := true
	for i := range n.children {
		c := &n.children[i]
		merged += c.compact(cfg)
		if !c.isLeaf() {
			allLeaves = false
			continue
		}
		total += len(c.items)
	}
	if !allLeaves || total > cfg.MaxItems {
		return merged
	}
	var items []Item
	if total > 0 {
		items = make([]Item, 0, total)
		for i := range n.children {
			items = append(items, n.children[i].items...)
		}
	}
	n.items = items
	n.children = nil
	return merged + 1
}

// Rectangles returns the boundary of every node, parents before children.
// It is meant for debug overlays and never changes the tree.
func (q *Quadtree) Rectangles() []geometry.Rectangle {
	var rects []geometry.Rectangle
	q.walk(func(n *node) {
		rects = append(rects, n.bounds)
	})
	return rects
}

// Stats summarises the current shape of the tree.
type Stats struct {
	Nodes    int // all nodes, root included
	Leaves   int
	Items    int
	Depth    int // deepest node
	Overfull int // leaves holding more than MaxItems (only possible at MaxDepth)
}

func (s Stats) String() string {
	return fmt.Sprintf("Quadtree Stats - Nodes: %d - Leaves: %d - Values: %d - Depth: %d - Overfull: %d",
		s.Nodes, s.Leaves, s.Items, s.Depth, s.Overfull)
}

func (q *Quadtree) Stats() Stats {
	var s Stats
	q.walk(func(n *node) {
		s.Nodes++
		if n.depth > s.Depth {
			s.Depth = n.depth
		}
		if !n.isLeaf() {
			return
		}
		s.Leaves++
		s.Items += len(n.items)
		if len(n.items) > q.cfg.MaxItems {
			s.Overfull++
		}
	})
	return s
}

// walk visits nodes in pre-order.
func (q *Quadtree) walk(fn func(n *node)) {
	var visit func(n *node)
	visit = func(n *node) {
		fn(n)
		if n.isLeaf() {
			return
		}
		for i := range n.children {
			visit(&n.children[i])
		}
	}
	visit(&q.root)
}
