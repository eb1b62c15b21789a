package swarm

import (
	"context"
	"testing"
	"time"

	"github.com/tochemey/goakt/v3/log"

	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/snapshot"
)

const askTimeout = 2 * time.Second

func smallConfig() *simulation.Config {
	cfg := simulation.DefaultConfig()
	cfg.WorldWidth = 400
	cfg.WorldHeight = 300
	cfg.Population = 50
	cfg.Seed = 7
	return cfg
}

func startHost(t *testing.T, cfg *simulation.Config, frames chan<- snapshot.Frame) *Host {
	t.Helper()
	ctx := context.Background()
	h, err := Start(ctx, cfg, frames, log.DiscardLogger)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = h.Stop(ctx) })
	return h
}

func TestWorldActor_SpawnsConfiguredFlock(t *testing.T) {
	cfg := smallConfig()
	h := startHost(t, cfg, nil)
	if h.RunID == "" {
		t.Error("expected a run id")
	}

	f, err := h.Snapshot(context.Background(), askTimeout)
	if err != nil {
		t.Fatal(err)
	}
	if f.Tick != 0 || len(f.Agents) != cfg.Population {
		t.Fatalf("got tick %d with %d agents; want tick 0 with %d", f.Tick, len(f.Agents), cfg.Population)
	}
	bounds := cfg.WorldBounds()
	for _, a := range f.Agents {
		if !bounds.Contains(a.Position) {
			t.Errorf("agent %d spawned outside %s at %s", a.Handle, bounds, a.Position)
		}
	}
	if len(f.Rects) != 0 {
		t.Errorf("quadtree overlay is off but frame has %d rects", len(f.Rects))
	}
}

func TestWorldActor_TicksAndPushesFrames(t *testing.T) {
	cfg := smallConfig()
	cfg.ShowQuadtree = true
	frames := make(chan snapshot.Frame, 16)
	h := startHost(t, cfg, frames)
	ctx := context.Background()

	before, err := h.Snapshot(ctx, askTimeout)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := h.Tick(ctx, time.Second/60); err != nil {
			t.Fatalf("Tick() error = %v", err)
		}
	}
	// the mailbox is ordered so the ask is answered after the three ticks
	after, err := h.Snapshot(ctx, askTimeout)
	if err != nil {
		t.Fatal(err)
	}
	if after.Tick != 3 {
		t.Errorf("Tick = %d; want 3", after.Tick)
	}
	if len(after.Rects) == 0 {
		t.Error("overlay on but no rects in frame")
	}
	moved := 0
	for i := range after.Agents {
		if after.Agents[i].Position != before.Agents[i].Position {
			moved++
		}
	}
	if moved == 0 {
		t.Error("no agent moved after three ticks")
	}

	select {
	case f := <-frames:
		if f.Tick != 1 {
			t.Errorf("first pushed frame has tick %d; want 1", f.Tick)
		}
	case <-time.After(askTimeout):
		t.Fatal("no frame pushed")
	}
}

func TestWorldActor_Reconfigure(t *testing.T) {
	h := startHost(t, smallConfig(), nil)
	ctx := context.Background()

	t.Run("population change respawns", func(t *testing.T) {
		if err := h.Reconfigure(ctx, map[string]any{"population": 20, "cohesionWeight": 2.5}); err != nil {
			t.Fatal(err)
		}
		f, err := h.Snapshot(ctx, askTimeout)
		if err != nil {
			t.Fatal(err)
		}
		if len(f.Agents) != 20 {
			t.Errorf("got %d agents; want 20", len(f.Agents))
		}
	})

	t.Run("invalid patch is ignored", func(t *testing.T) {
		if err := h.Reconfigure(ctx, map[string]any{"population": 5, "maxSpeed": -1}); err != nil {
			t.Fatal(err)
		}
		f, err := h.Snapshot(ctx, askTimeout)
		if err != nil {
			t.Fatal(err)
		}
		if len(f.Agents) != 20 {
			t.Errorf("rejected patch changed the flock to %d agents", len(f.Agents))
		}
	})

	t.Run("respawn flag", func(t *testing.T) {
		if err := h.Tick(ctx, time.Second/60); err != nil {
			t.Fatal(err)
		}
		if err := h.Reconfigure(ctx, map[string]any{"respawn": true}); err != nil {
			t.Fatal(err)
		}
		f, err := h.Snapshot(ctx, askTimeout)
		if err != nil {
			t.Fatal(err)
		}
		if f.Tick != 0 || len(f.Agents) != 20 {
			t.Errorf("after respawn got tick %d, %d agents", f.Tick, len(f.Agents))
		}
	})
}

func TestHost_ReconfigureRejectsUnencodablePatch(t *testing.T) {
	h := startHost(t, smallConfig(), nil)
	if err := h.Reconfigure(context.Background(), map[string]any{"bad": make(chan int)}); err == nil {
		t.Error("expected an error for a channel value")
	}
}
