package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/san-kum/gravsim/internal/compute"
	"github.com/san-kum/gravsim/internal/gravity"
	"github.com/san-kum/gravsim/internal/qtree"
	"github.com/san-kum/gravsim/internal/sim"
	"gopkg.in/yaml.v3"
)

const (
	DefaultParticles = 1024
	DefaultSteps     = 10
	DefaultMode      = "par"
	DefaultSeed      = 42
	DefaultWarmup    = 1
)

var DefaultBenchSizes = []int{256, 512, 1024, 2048}

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Particles int         `yaml:"particles"`
	Steps     int         `yaml:"steps"`
	Mode      string      `yaml:"mode"`
	Workers   int         `yaml:"workers"`
	MinChunk  int         `yaml:"min_chunk"`
	Seed      uint64      `yaml:"seed"`
	Dt        float64     `yaml:"dt"`
	Softening float64     `yaml:"softening"`
	Tree      TreeConfig  `yaml:"tree"`
	Bench     BenchConfig `yaml:"bench"`
}

type TreeConfig struct {
	Capacity int `yaml:"capacity"`
	MaxDepth int `yaml:"max_depth"`
}

type BenchConfig struct {
	Sizes  []int `yaml:"sizes"`
	Steps  int   `yaml:"steps"`
	Warmup int   `yaml:"warmup"`
}

func DefaultConfig() *Config {
	return &Config{
		Particles: DefaultParticles,
		Steps:     DefaultSteps,
		Mode:      DefaultMode,
		Seed:      DefaultSeed,
		MinChunk:  compute.DefaultMinChunk,
		Dt:        sim.DefaultDt,
		Softening: gravity.DefaultSoftening,
		Tree: TreeConfig{
			Capacity: qtree.DefaultCapacity,
			MaxDepth: qtree.DefaultMaxDepth,
		},
		Bench: BenchConfig{
			Sizes:  append([]int(nil), DefaultBenchSizes...),
			Steps:  DefaultSteps,
			Warmup: DefaultWarmup,
		},
	}
}

// Load reads a YAML file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Particles < 0 {
		return fmt.Errorf("%w: particles must be non-negative, got %d", ErrInvalidConfig, c.Particles)
	}
	if c.Steps < 0 {
		return fmt.Errorf("%w: steps must be non-negative, got %d", ErrInvalidConfig, c.Steps)
	}
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidConfig, c.Dt)
	}
	if c.Softening <= 0 {
		return fmt.Errorf("%w: softening must be positive, got %g", ErrInvalidConfig, c.Softening)
	}
	if _, ok := compute.ByName(c.Mode, c.Workers); !ok {
		return fmt.Errorf("%w: unknown mode %q (want seq or par)", ErrInvalidConfig, c.Mode)
	}
	if c.Tree.Capacity < 1 {
		return fmt.Errorf("%w: tree capacity must be at least 1, got %d", ErrInvalidConfig, c.Tree.Capacity)
	}
	if c.Tree.MaxDepth < 0 {
		return fmt.Errorf("%w: tree max depth must be non-negative, got %d", ErrInvalidConfig, c.Tree.MaxDepth)
	}
	for _, n := range c.Bench.Sizes {
		if n < 0 {
			return fmt.Errorf("%w: bench size must be non-negative, got %d", ErrInvalidConfig, n)
		}
	}
	return nil
}

// Backend returns the parallel backend the config describes. The serial
// backend is used only when Mode selects it.
func (c *Config) Backend() compute.Backend {
	return compute.NewCPU(c.Workers, compute.WithMinChunk(c.MinChunk))
}

// Sequential reports whether Mode selects the single-threaded step.
func (c *Config) Sequential() bool {
	b, _ := compute.ByName(c.Mode, c.Workers)
	_, serial := b.(*compute.Serial)
	return serial
}

func (c *Config) SimOptions() []sim.Option {
	return []sim.Option{
		sim.WithDt(c.Dt),
		sim.WithSoftening(c.Softening),
		sim.WithBackend(c.Backend()),
	}
}

func (c *Config) TreeOptions() []qtree.Option {
	return []qtree.Option{
		qtree.WithCapacity(c.Tree.Capacity),
		qtree.WithMaxDepth(c.Tree.MaxDepth),
	}
}
