package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	golog "github.com/tochemey/goakt/v3/log"

	"github.com/lao-tseu-is-alive/go-swarm-quadtree/internal/viewer"
	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/simulation"
)

func main() {
	configFile := flag.String("config", "configs/boids.json", "path to the JSON configuration")
	schemaFile := flag.String("schema", "", "path to a JSON schema overriding the embedded one")
	debug := flag.Bool("debug", false, "log every reconfiguration and clamped agent")
	flag.Parse()

	cfg, err := simulation.LoadConfig(*configFile, *schemaFile)
	if err != nil {
		log.Fatalf("💥 cannot load configuration: %v", err)
	}

	level := golog.InfoLevel
	if *debug {
		level = golog.DebugLevel
	}
	logger := golog.New(level, os.Stdout)

	ctx := context.Background()
	game, err := viewer.NewGame(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("💥 cannot start the world: %v", err)
	}
	defer game.Close()

	ebiten.SetWindowSize(int(cfg.WorldWidth), int(cfg.WorldHeight))
	ebiten.SetWindowTitle("Boids: Quadtree Flocking")
	ebiten.SetTPS(cfg.TicksPerSecond)
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
