package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/gdamore/tcell/v2"
	"github.com/mlange-42/ark/ecs"
	golog "github.com/tochemey/goakt/v3/log"

	"github.com/lao-tseu-is-alive/go-swarm-quadtree/internal/termview"
	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/ecsbridge"
	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/simulation"
)

func main() {
	configFile := flag.String("config", "configs/boids.json", "path to the JSON configuration")
	schemaFile := flag.String("schema", "", "path to a JSON schema overriding the embedded one")
	flag.Parse()

	if err := run(*configFile, *schemaFile); err != nil {
		fmt.Fprintf(os.Stderr, "💥 %v\n", err)
		os.Exit(1)
	}
}

func run(configFile, schemaFile string) error {
	cfg, err := simulation.LoadConfig(configFile, schemaFile)
	if err != nil {
		return fmt.Errorf("cannot load configuration: %w", err)
	}

	// the terminal belongs to tcell, so only errors reach stderr
	logger := golog.New(golog.ErrorLevel, os.Stderr)
	sim, err := simulation.New(cfg.WorldBounds(), *cfg, simulation.WithLogger(logger))
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("cannot create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("cannot init screen: %w", err)
	}
	defer screen.Fini()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	world := ecs.NewWorld()
	view := termview.New(screen, ecsbridge.New(&world, sim), cfg, logger)
	if err := view.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
