package quadtree

import (
	"errors"
	"fmt"

	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/geometry"
)

var (
	// ErrOutOfBounds is matched by errors returned when inserting outside the root boundary.
	ErrOutOfBounds = errors.New("position outside quadtree bounds")
	// ErrNotFound is matched by errors returned when removing a handle the tree does not hold
	// at the given position.
	ErrNotFound = errors.New("handle not found in quadtree")
	// ErrInvalidConfig is returned by New for unusable bounds or limits.
	ErrInvalidConfig = errors.New("invalid quadtree configuration")
)

// OutOfBoundsError carries the rejected insert.
type OutOfBoundsError struct {
	Handle   Handle
	Position geometry.Point
	Bounds   geometry.Rectangle
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("insert handle %d at %s: outside %s", e.Handle, e.Position, e.Bounds)
}

func (e *OutOfBoundsError) Unwrap() error { return ErrOutOfBounds }

// NotFoundError carries the failed removal.
type NotFoundError struct {
	Handle   Handle
	Position geometry.Point
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("remove handle %d at %s: not in the expected leaf", e.Handle, e.Position)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }
