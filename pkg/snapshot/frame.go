// Package snapshot encodes what a viewer needs to draw one tick: the agents
// and, optionally, the quadtree node boundaries.
//
// The encoding is the protobuf wire format, written by hand with protowire so
// no generated code is needed:
//
//	message Frame {
//	  uint64 tick = 1;
//	  repeated Agent agents = 2;
//	  repeated Rect rects = 3;
//	}
//	message Agent { uint64 handle = 1; double x = 2; double y = 3; double vx = 4; double vy = 5; }
//	message Rect  { double min_x = 1; double min_y = 2; double max_x = 3; double max_y = 4; }
//
// Unknown fields are skipped so older viewers keep working when fields are added.
package snapshot

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/quadtree"
	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/simulation"
)

// ErrMalformed is matched by every decoding error.
var ErrMalformed = errors.New("malformed snapshot frame")

const (
	frameTick   protowire.Number = 1
	frameAgents protowire.Number = 2
	frameRects  protowire.Number = 3

	agentHandle protowire.Number = 1
	agentX      protowire.Number = 2
	agentY      protowire.Number = 3
	agentVX     protowire.Number = 4
	agentVY     protowire.Number = 5
)

// Frame is one tick as seen by a viewer.
type Frame struct {
	Tick   uint64
	Agents []simulation.AgentState
	Rects  []geometry.Rectangle
}

// Marshal encodes f.
func Marshal(f Frame) []byte {
	// agents dominate: tag+len, then 1 varint and 4 doubles each
	return AppendFrame(make([]byte, 0, 16+len(f.Agents)*48+len(f.Rects)*38), f)
}

// AppendFrame appends the encoding of f to dst.
func AppendFrame(dst []byte, f Frame) []byte {
	dst = protowire.AppendTag(dst, frameTick, protowire.VarintType)
	dst = protowire.AppendVarint(dst, f.Tick)

	var msg []byte
	for _, a := range f.Agents {
		msg = msg[:0]
		msg = protowire.AppendTag(msg, agentHandle, protowire.VarintType)
		msg = protowire.AppendVarint(msg, uint64(a.Handle))
		msg = appendDouble(msg, agentX, a.Position.X)
		msg = appendDouble(msg, agentY, a.Position.Y)
		msg = appendDouble(msg, agentVX, a.Velocity.X)
		msg = appendDouble(msg, agentVY, a.Velocity.Y)
		dst = protowire.AppendTag(dst, frameAgents, protowire.BytesType)
		dst = protowire.AppendBytes(dst, msg)
	}
	for _, r := range f.Rects {
		msg = msg[:0]
		msg = appendDouble(msg, 1, r.Min.X)
		msg = appendDouble(msg, 2, r.Min.Y)
		msg = appendDouble(msg, 3, r.Max.X)
		msg = appendDouble(msg, 4, r.Max.Y)
		dst = protowire.AppendTag(dst, frameRects, protowire.BytesType)
		dst = protowire.AppendBytes(dst, msg)
	}
	return dst
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

// Unmarshal decodes a frame produced by Marshal.
func Unmarshal(b []byte) (Frame, error) {
	var f Frame
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte, x uint64) error {
		switch {
		case num == frameTick && typ == protowire.VarintType:
			f.Tick = x
		case num == frameAgents && typ == protowire.BytesType:
			a, err := unmarshalAgent(v)
			if err != nil {
				return err
			}
			f.Agents = append(f.Agents, a)
		case num == frameRects && typ == protowire.BytesType:
			r, err := unmarshalRect(v)
			if err != nil {
				return err
			}
			f.Rects = append(f.Rects, r)
		case num <= frameRects:
			return fmt.Errorf("field %d has wire type %d", num, typ)
		}
		return nil
	})
	if err != nil {
		return Frame{}, err
	}
	return f, nil
}

func unmarshalAgent(b []byte) (simulation.AgentState, error) {
	var a simulation.AgentState
	err := walk(b, func(num protowire.Number, typ protowire.Type, _ []byte, x uint64) error {
		if num == agentHandle {
			if typ != protowire.VarintType {
				return fmt.Errorf("agent handle has wire type %d", typ)
			}
			a.Handle = quadtree.Handle(x)
			return nil
		}
		if num > agentVY {
			return nil
		}
		if typ != protowire.Fixed64Type {
			return fmt.Errorf("agent field %d has wire type %d", num, typ)
		}
		v := math.Float64frombits(x)
		switch num {
		case agentX:
			a.Position.X = v
		case agentY:
			a.Position.Y = v
		case agentVX:
			a.Velocity.X = v
		case agentVY:
			a.Velocity.Y = v
		}
		return nil
	})
	return a, err
}

func unmarshalRect(b []byte) (geometry.Rectangle, error) {
	var r geometry.Rectangle
	err := walk(b, func(num protowire.Number, typ protowire.Type, _ []byte, x uint64) error {
		if num > 4 {
			return nil
		}
		if typ != protowire.Fixed64Type {
			return fmt.Errorf("rect field %d has wire type %d", num, typ)
		}
		v := math.Float64frombits(x)
		switch num {
		case 1:
			r.Min.X = v
		case 2:
			r.Min.Y = v
		case 3:
			r.Max.X = v
		case 4:
			r.Max.Y = v
		}
		return nil
	})
	return r, err
}

// walk calls fn for every field of a message. Varint and fixed64 values are
// passed in x, length delimited ones in v. Groups and fixed32 are skipped.
func walk(b []byte, fn func(num protowire.Number, typ protowire.Type, v []byte, x uint64) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %w", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		var (
			v []byte
			x uint64
		)
		switch typ {
		case protowire.VarintType:
			x, n = protowire.ConsumeVarint(b)
		case protowire.Fixed64Type:
			x, n = protowire.ConsumeFixed64(b)
		case protowire.BytesType:
			v, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return fmt.Errorf("%w: field %d: %w", ErrMalformed, num, protowire.ParseError(n))
		}
		b = b[n:]

		if typ != protowire.VarintType && typ != protowire.Fixed64Type && typ != protowire.BytesType {
			continue
		}
		if err := fn(num, typ, v, x); err != nil {
			if errors.Is(err, ErrMalformed) {
				return err
			}
			return fmt.Errorf("%w: %w", ErrMalformed, err)
		}
	}
	return nil
}
