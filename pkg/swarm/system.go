package swarm

import (
	"context"
	"fmt"
	"time"

	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/snapshot"
)

// Host is a started actor system with one WorldActor in it.
type Host struct {
	System actor.ActorSystem
	World  *actor.PID
	RunID  string
}

// Start boots an actor system and spawns the world. Frames are pushed to
// frames after every tick when it is not nil.
func Start(ctx context.Context, cfg *simulation.Config, frames chan<- snapshot.Frame, logger log.Logger) (*Host, error) {
	world := NewWorldActor(cfg, frames)
	system, err := actor.NewActorSystem("SwarmQuadtree",
		actor.WithLogger(logger),
		actor.WithActorInitMaxRetries(3))
	if err != nil {
		return nil, fmt.Errorf("failed to create actor system: %w", err)
	}
	if err := system.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start actor system: %w", err)
	}
	pid, err := system.Spawn(ctx, "world", world)
	if err != nil {
		_ = system.Stop(ctx)
		return nil, fmt.Errorf("failed to spawn world: %w", err)
	}
	return &Host{System: system, World: pid, RunID: world.RunID()}, nil
}

// Tick asks the world to advance by dt without waiting.
func (h *Host) Tick(ctx context.Context, dt time.Duration) error {
	return actor.Tell(ctx, h.World, durationpb.New(dt))
}

// Reconfigure sends a configuration patch keyed by JSON config names.
func (h *Host) Reconfigure(ctx context.Context, patch map[string]any) error {
	msg, err := structpb.NewStruct(patch)
	if err != nil {
		return fmt.Errorf("invalid patch: %w", err)
	}
	return actor.Tell(ctx, h.World, msg)
}

// Snapshot asks the world for its latest frame.
func (h *Host) Snapshot(ctx context.Context, timeout time.Duration) (snapshot.Frame, error) {
	reply, err := actor.Ask(ctx, h.World, &emptypb.Empty{}, timeout)
	if err != nil {
		return snapshot.Frame{}, fmt.Errorf("snapshot request: %w", err)
	}
	b, ok := reply.(*wrapperspb.BytesValue)
	if !ok {
		return snapshot.Frame{}, fmt.Errorf("snapshot request: unexpected reply %T", reply)
	}
	return snapshot.Unmarshal(b.GetValue())
}

func (h *Host) Stop(ctx context.Context) error {
	return h.System.Stop(ctx)
}
