package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/coulomb/internal/dynamo"
	"github.com/san-kum/coulomb/internal/physics"
)

const (
	DefaultDt       = 1e-19
	DefaultSteps    = 5000
	DefaultFieldN   = 100
	DefaultSkip     = 8
	DefaultFPS      = 25
	DefaultRtol     = 1e-3
	DefaultAtol     = 1e-6
	BohrRadius      = 52.9
	DefaultBound    = BohrRadius * 3
	IntegratorDopri = "dopri5"
	IntegratorRK4   = "rk4"
)

type Config struct {
	Name       string            `yaml:"name"`
	Integrator string            `yaml:"integrator"`
	Dt         float64           `yaml:"dt"`
	Steps      int               `yaml:"steps"`
	Rtol       float64           `yaml:"rtol"`
	Atol       float64           `yaml:"atol"`
	Workers    int               `yaml:"workers"`
	Constants  physics.Constants `yaml:"constants"`
	Particles  physics.Ensemble  `yaml:"particles"`
	Field      FieldConfig       `yaml:"field"`
	Playback   PlaybackConfig    `yaml:"playback"`
}

// FieldConfig describes the grid the field is sampled on.
type FieldConfig struct {
	Bound float64 `yaml:"bound"`
	N     int     `yaml:"n"`
}

// PlaybackConfig controls terminal playback: one frame every Skip recorded
// steps at FPS frames per second.
type PlaybackConfig struct {
	Skip int `yaml:"skip"`
	FPS  int `yaml:"fps"`
}

// DefaultConfig is the hydrogen-flyby scenario.
func DefaultConfig() *Config {
	return hydrogenFlyby()
}

func base(name string) *Config {
	return &Config{
		Name:       name,
		Integrator: IntegratorDopri,
		Dt:         DefaultDt,
		Steps:      DefaultSteps,
		Rtol:       DefaultRtol,
		Atol:       DefaultAtol,
		Workers:    1,
		Constants:  physics.DefaultConstants(),
		Field:      FieldConfig{Bound: DefaultBound, N: DefaultFieldN},
		Playback:   PlaybackConfig{Skip: DefaultSkip, FPS: DefaultFPS},
	}
}

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

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Particles = append(physics.Ensemble(nil), c.Particles...)
	return &out
}

func (c *Config) Ensemble() physics.Ensemble {
	return c.Particles
}

// Dynamo returns the integration settings of the run.
func (c *Config) Dynamo() dynamo.Config {
	return dynamo.Config{
		Dt:    c.Dt,
		Steps: c.Steps,
		Rtol:  c.Rtol,
		Atol:  c.Atol,
	}
}

// Validate checks every field before any computation starts.
func (c *Config) Validate() error {
	switch c.Integrator {
	case IntegratorDopri, IntegratorRK4:
	default:
		return fmt.Errorf("unknown integrator %q: %w", c.Integrator, dynamo.ErrParameterBounds)
	}
	if !(c.Dt > 0) || math.IsInf(c.Dt, 0) {
		return fmt.Errorf("dt must be positive, got %v: %w", c.Dt, dynamo.ErrParameterBounds)
	}
	if c.Steps < 0 {
		return fmt.Errorf("steps must not be negative, got %d: %w", c.Steps, dynamo.ErrParameterBounds)
	}
	if c.Rtol < 0 || c.Atol < 0 {
		return fmt.Errorf("tolerances must not be negative: %w", dynamo.ErrParameterBounds)
	}
	if err := c.Constants.Validate(); err != nil {
		return err
	}
	if err := c.Particles.Validate(); err != nil {
		return err
	}
	if c.Field.N <= 0 || !(c.Field.Bound > 0) {
		return fmt.Errorf("field grid %d over ±%v: %w", c.Field.N, c.Field.Bound, dynamo.ErrInvalidGrid)
	}
	if c.Playback.Skip < 1 || c.Playback.FPS < 1 {
		return fmt.Errorf("playback skip %d fps %d: %w", c.Playback.Skip, c.Playback.FPS, dynamo.ErrParameterBounds)
	}
	return nil
}
