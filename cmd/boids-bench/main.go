// boids-bench runs a flock headless and reports how long the ticks take.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	golog "github.com/tochemey/goakt/v3/log"

	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/snapshot"
)

func main() {
	configFile := flag.String("config", "configs/boids.json", "path to the JSON configuration")
	schemaFile := flag.String("schema", "", "path to a JSON schema overriding the embedded one")
	ticks := flag.Int("ticks", 600, "number of ticks to run")
	population := flag.Int("population", 0, "override the configured population")
	workers := flag.Int("workers", -1, "override the configured worker count (0 = GOMAXPROCS)")
	strategy := flag.String("strategy", "", "override the index strategy: rebuild or incremental")
	out := flag.String("snapshot", "", "write the last frame to this file")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	level := golog.InfoLevel
	if *debug {
		level = golog.DebugLevel
	}
	logger := golog.New(level, os.Stdout)

	cfg, err := simulation.LoadConfig(*configFile, *schemaFile)
	if err != nil {
		logger.Fatalf("💥 cannot load configuration: %v", err)
	}
	if *population > 0 {
		cfg.Population = *population
	}
	if *workers >= 0 {
		cfg.Workers = *workers
	}
	if *strategy != "" {
		cfg.IndexStrategy = simulation.IndexStrategy(*strategy)
	}

	if err := run(cfg, *ticks, *out, logger); err != nil {
		logger.Fatalf("💥 %v", err)
	}
}

func run(cfg *simulation.Config, ticks int, out string, logger golog.Logger) error {
	sim, err := simulation.New(cfg.WorldBounds(), *cfg, simulation.WithLogger(logger))
	if err != nil {
		return err
	}
	states := simulation.SpawnFlock(cfg, sim.Bounds(), cfg.Population, 1, simulation.NewRand(cfg.Seed))
	dt := 1 / float64(cfg.TicksPerSecond)

	logger.Infof("running %d boids for %d ticks (strategy %s, workers %d)",
		cfg.Population, ticks, cfg.IndexStrategy, cfg.Workers)

	var (
		total, window, worst time.Duration
		windowTicks          int
		lastLog              = time.Now()
	)
	for i := 0; i < ticks; i++ {
		start := time.Now()
		states, err = sim.Tick(states, dt)
		if err != nil {
			return fmt.Errorf("tick %d: %w", i, err)
		}
		d := time.Since(start)
		total += d
		window += d
		worst = max(worst, d)
		windowTicks++

		if time.Since(lastLog) >= time.Second {
			st := sim.Stats()
			logger.Infof("📊 tick %d | avg %s | tree %s", st.Ticks, window/time.Duration(windowTicks), st.Tree)
			window, windowTicks, lastLog = 0, 0, time.Now()
		}
	}

	st := sim.Stats()
	if ticks > 0 {
		logger.Infof("✅ %d ticks in %s | avg %s | worst %s | rebuilds %d | moves %d | clamped %d",
			st.Ticks, total, total/time.Duration(ticks), worst, st.Rebuilds, st.Moves, st.Clamped)
	}

	if out != "" {
		f := snapshot.Frame{Tick: st.Ticks, Agents: states, Rects: sim.DebugTreeRectangles()}
		if err := os.WriteFile(out, snapshot.Marshal(f), 0o644); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		logger.Infof("last frame written to %s", out)
	}
	return nil
}
