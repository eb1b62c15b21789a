package simulation

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"runtime"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/quadtree"
)

//go:embed config.schema.json
var configSchema string

// IndexStrategy selects how the quadtree follows the agents between ticks.
type IndexStrategy string

const (
	// IndexRebuild reindexes every agent on every tick.
	IndexRebuild IndexStrategy = "rebuild"
	// IndexIncremental only moves the agents that changed position and
	// rebuilds from scratch every RebuildInterval ticks.
	IndexIncremental IndexStrategy = "incremental"
)

// ErrConfiguration is matched by every *ConfigurationError.
var ErrConfiguration = errors.New("invalid simulation configuration")

// ConfigurationError lists every problem found in a configuration or in the
// arguments of a tick, not only the first one.
type ConfigurationError struct {
	errs *multierror.Error
}

func newConfigurationError(problems ...error) *ConfigurationError {
	merr := multierror.Append(nil, problems...)
	merr.ErrorFormat = func(es []error) string {
		msgs := make([]string, len(es))
		for i, e := range es {
			msgs[i] = e.Error()
		}
		return strings.Join(msgs, "; ")
	}
	return &ConfigurationError{errs: merr}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrConfiguration, e.errs.Error())
}

// Problems returns the individual errors.
func (e *ConfigurationError) Problems() []error { return e.errs.WrappedErrors() }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

func (e *ConfigurationError) Unwrap() error { return e.errs }

type Config struct {
	// World Dimensions
	WorldWidth  float64 `json:"worldWidth"`
	WorldHeight float64 `json:"worldHeight"`

	// Population spawned by the hosts
	Population int    `json:"population"`
	Seed       uint64 `json:"seed"` // 0 picks a random seed

	// Quadtree shape
	MaxItemsPerNode int `json:"maxItemsPerNode"`
	MaxDepth        int `json:"maxDepth"`

	// Boids flocking parameters (matching pkg/behavior/boid.go)
	PerceptionRadius float64 `json:"perceptionRadius"` // How far can they see?
	SeparationRadius float64 `json:"separationRadius"` // Personal space radius, at most PerceptionRadius
	SeparationWeight float64 `json:"separationWeight"`
	AlignmentWeight  float64 `json:"alignmentWeight"`
	CohesionWeight   float64 `json:"cohesionWeight"`

	// Physics, in world units per second
	MaxSpeed float64 `json:"maxSpeed"`
	MinSpeed float64 `json:"minSpeed"`
	MaxForce float64 `json:"maxForce"`

	// World edges
	BoundaryPolicy string  `json:"boundaryPolicy"` // wrap, clamp or reflect
	EdgeMargin     float64 `json:"edgeMargin"`
	TurnFactor     float64 `json:"turnFactor"` // Edge turning strength

	// Driver
	IndexStrategy   IndexStrategy `json:"indexStrategy"`
	RebuildInterval int           `json:"rebuildInterval"`
	Workers         int           `json:"workers"` // 0 uses GOMAXPROCS

	// Hosts
	TicksPerSecond int  `json:"ticksPerSecond"`
	ShowQuadtree   bool `json:"showQuadtree"`
}

func DefaultConfig() *Config {
	return &Config{
		WorldWidth:       1000,
		WorldHeight:      800,
		Population:       500,
		MaxItemsPerNode:  quadtree.DefaultMaxItems,
		MaxDepth:         quadtree.DefaultMaxDepth,
		PerceptionRadius: 50,
		SeparationRadius: 20,
		SeparationWeight: 3000,
		AlignmentWeight:  1.5,
		CohesionWeight:   1.0,
		MaxSpeed:         120,
		MinSpeed:         40,
		MaxForce:         250,
		BoundaryPolicy:   string(behavior.BoundaryWrap),
		EdgeMargin:       0,
		TurnFactor:       0,
		IndexStrategy:    IndexRebuild,
		RebuildInterval:  60,
		Workers:          1,
		TicksPerSecond:   60,
	}
}

// LoadConfig loads configuration from a JSON file and validates it against the schema.
// An empty schemaFile validates against the schema compiled into the binary.
// Fields missing from the file keep their DefaultConfig value.
func LoadConfig(configFile string, schemaFile string) (*Config, error) {
	// 1. Compile Schema
	var (
		sch *jsonschema.Schema
		err error
	)
	if schemaFile == "" {
		sch, err = jsonschema.CompileString("config.schema.json", configSchema)
	} else {
		sch, err = jsonschema.Compile(schemaFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	// 2. Read Config File
	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	// 3. Validate
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// 4. Unmarshal into Struct
	cfg := DefaultConfig()
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the rules the schema cannot express, such as MinSpeed <= MaxSpeed.
// It returns a *ConfigurationError listing every problem, or nil.
func (c *Config) Validate() error {
	var problems []error
	bad := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}
	positive := func(name string, v float64) {
		if !(v > 0) || math.IsInf(v, 0) {
			bad("%s must be a positive number, got %v", name, v)
		}
	}
	nonNegative := func(name string, v float64) {
		if !(v >= 0) || math.IsInf(v, 0) {
			bad("%s must not be negative, got %v", name, v)
		}
	}

	positive("worldWidth", c.WorldWidth)
	positive("worldHeight", c.WorldHeight)
	if c.Population < 0 {
		bad("population must not be negative, got %d", c.Population)
	}
	if c.MaxItemsPerNode < 1 {
		bad("maxItemsPerNode must be at least 1, got %d", c.MaxItemsPerNode)
	}
	if c.MaxDepth < 0 {
		bad("maxDepth must not be negative, got %d", c.MaxDepth)
	}
	positive("perceptionRadius", c.PerceptionRadius)
	positive("separationRadius", c.SeparationRadius)
	if c.SeparationRadius > c.PerceptionRadius {
		// neighbours are only looked up within the perception radius
		bad("separationRadius %v exceeds perceptionRadius %v", c.SeparationRadius, c.PerceptionRadius)
	}
	nonNegative("separationWeight", c.SeparationWeight)
	nonNegative("alignmentWeight", c.AlignmentWeight)
	nonNegative("cohesionWeight", c.CohesionWeight)
	positive("maxSpeed", c.MaxSpeed)
	nonNegative("minSpeed", c.MinSpeed)
	positive("maxForce", c.MaxForce)
	if c.MinSpeed > c.MaxSpeed {
		bad("minSpeed %v exceeds maxSpeed %v", c.MinSpeed, c.MaxSpeed)
	}
	if _, err := behavior.ParseBoundary(c.BoundaryPolicy); err != nil {
		problems = append(problems, err)
	}
	nonNegative("edgeMargin", c.EdgeMargin)
	nonNegative("turnFactor", c.TurnFactor)
	switch c.IndexStrategy {
	case IndexRebuild:
	case IndexIncremental:
		if c.RebuildInterval < 1 {
			bad("rebuildInterval must be at least 1 with the incremental strategy, got %d", c.RebuildInterval)
		}
	default:
		bad("unknown indexStrategy %q (want rebuild or incremental)", c.IndexStrategy)
	}
	if c.Workers < 0 {
		bad("workers must not be negative, got %d", c.Workers)
	}
	if c.TicksPerSecond < 1 {
		bad("ticksPerSecond must be at least 1, got %d", c.TicksPerSecond)
	}

	if len(problems) == 0 {
		return nil
	}
	return newConfigurationError(problems...)
}

// WorldBounds is the rectangle [0, WorldWidth] x [0, WorldHeight].
func (c *Config) WorldBounds() geometry.Rectangle {
	return geometry.RectFromCorners(geometry.Point{}, geometry.Point{X: c.WorldWidth, Y: c.WorldHeight})
}

// Rules extracts the steering parameters.
func (c *Config) Rules() behavior.Rules {
	return behavior.Rules{
		PerceptionRadius: c.PerceptionRadius,
		SeparationRadius: c.SeparationRadius,
		Weights: behavior.Weights{
			Separation: c.SeparationWeight,
			Alignment:  c.AlignmentWeight,
			Cohesion:   c.CohesionWeight,
		},
		MaxSpeed:   c.MaxSpeed,
		MinSpeed:   c.MinSpeed,
		MaxForce:   c.MaxForce,
		EdgeMargin: c.EdgeMargin,
		TurnFactor: c.TurnFactor,
	}
}

// TreeConfig extracts the quadtree limits.
func (c *Config) TreeConfig() quadtree.Config {
	return quadtree.Config{MaxItems: c.MaxItemsPerNode, MaxDepth: c.MaxDepth}
}

// workerCount resolves Workers = 0 to GOMAXPROCS.
func (c *Config) workerCount() int {
	if c.Workers == 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Workers
}
