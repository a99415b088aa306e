package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/chemsim/internal/chem"
	"github.com/san-kum/chemsim/internal/dynamo"
	"github.com/san-kum/chemsim/internal/logging"
	"github.com/san-kum/chemsim/internal/physics"
	"github.com/san-kum/chemsim/internal/sim"
)

const (
	DefaultSteps   = 2000
	DefaultSeed    = 1
	DefaultPreset  = "co2"
	PatternUniform = "uniform"
	PatternPerlin  = "perlin"
)

type Config struct {
	Name     string            `yaml:"name"`
	Seed     int64             `yaml:"seed"`
	Params   ParamsConfig      `yaml:"params"`
	Scenario ScenarioConfig    `yaml:"scenario"`
	Run      RunConfig         `yaml:"run"`
	Log      logging.LogConfig `yaml:"log"`
}

// ParamsConfig mirrors physics.Params with element symbols in place of the
// element-indexed LJ table.
type ParamsConfig struct {
	Dt           float64             `yaml:"dt"`
	Cutoff       float64             `yaml:"cutoff"`
	MinDist      float64             `yaml:"min_dist"`
	MaxForce     float64             `yaml:"max_force"`
	BondStiff    float64             `yaml:"bond_stiffness"`
	MultiOrder   bool                `yaml:"multi_order"`
	Temperature  float64             `yaml:"temperature"`
	Damping      float64             `yaml:"damping"`
	ThermalKick  float64             `yaml:"thermal_kick"`
	BoxHalf      float64             `yaml:"box_half"`
	WallPadding  float64             `yaml:"wall_padding"`
	WallStiff    float64             `yaml:"wall_stiffness"`
	GrabStiff    float64             `yaml:"grab_stiffness"`
	GrabMaxForce float64             `yaml:"grab_max_force"`
	MaxBondSpeed float64             `yaml:"max_bond_speed"`
	MaxNewBonds  int                 `yaml:"max_new_bonds"`
	LJ           map[string]LJConfig `yaml:"lj,omitempty"`
}

// LJConfig overrides one element's Lennard-Jones parameters.
type LJConfig struct {
	Sigma   float64 `yaml:"sigma"`
	Epsilon float64 `yaml:"epsilon"`
}

type ScenarioConfig struct {
	Capacity int           `yaml:"capacity"`
	Atoms    []AtomConfig  `yaml:"atoms,omitempty"`
	Spawns   []SpawnConfig `yaml:"spawns,omitempty"`
}

// AtomConfig places one atom explicitly.
type AtomConfig struct {
	Element string     `yaml:"element"`
	Pos     [3]float64 `yaml:"pos,flow"`
	Vel     [3]float64 `yaml:"vel,flow"`
}

// SpawnConfig scatters Count atoms inside a sphere.
type SpawnConfig struct {
	Element string     `yaml:"element"`
	Count   int        `yaml:"count"`
	Center  [3]float64 `yaml:"center,flow"`
	Radius  float64    `yaml:"radius"`
	Pattern string     `yaml:"pattern"`
	// Speed is the per-axis velocity spread for a unit mass.
	Speed float64 `yaml:"speed"`
}

type RunConfig struct {
	Steps       int        `yaml:"steps"`
	Cadence     sim.Config `yaml:",inline"`
	MetricsAddr string     `yaml:"metrics_addr,omitempty"`
}

func defaultParamsConfig() ParamsConfig {
	p := physics.DefaultParams()
	return ParamsConfig{
		Dt:           p.Dt,
		Cutoff:       p.Cutoff,
		MinDist:      p.MinDist,
		MaxForce:     p.MaxForce,
		BondStiff:    p.BondStiff,
		MultiOrder:   p.MultiOrder,
		Temperature:  p.Temperature,
		Damping:      p.Damping,
		ThermalKick:  p.ThermalKick,
		BoxHalf:      p.BoxHalf,
		WallPadding:  p.WallPadding,
		WallStiff:    p.WallStiff,
		GrabStiff:    p.GrabStiff,
		GrabMaxForce: p.GrabMaxForce,
		MaxBondSpeed: p.MaxBondSpeed,
		MaxNewBonds:  p.MaxNewBonds,
	}
}

func DefaultConfig() *Config {
	return &Config{
		Name:     "custom",
		Seed:     DefaultSeed,
		Params:   defaultParamsConfig(),
		Scenario: ScenarioConfig{Capacity: physics.DefaultCapacity},
		Run: RunConfig{
			Steps:   DefaultSteps,
			Cadence: sim.DefaultConfig(),
		},
		Log: logging.LogConfig{Level: "info", Format: "console"},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
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

// PhysicsParams maps the params section onto a validated physics.Params.
func (c *Config) PhysicsParams() (physics.Params, error) {
	pc := c.Params
	p := physics.DefaultParams()
	p.Dt = pc.Dt
	p.Cutoff = pc.Cutoff
	p.MinDist = pc.MinDist
	p.MaxForce = pc.MaxForce
	p.BondStiff = pc.BondStiff
	p.MultiOrder = pc.MultiOrder
	p.Temperature = pc.Temperature
	p.Damping = pc.Damping
	p.ThermalKick = pc.ThermalKick
	p.BoxHalf = pc.BoxHalf
	p.WallPadding = pc.WallPadding
	p.WallStiff = pc.WallStiff
	p.GrabStiff = pc.GrabStiff
	p.GrabMaxForce = pc.GrabMaxForce
	p.MaxBondSpeed = pc.MaxBondSpeed
	p.MaxNewBonds = pc.MaxNewBonds
	for sym, lj := range pc.LJ {
		e, err := chem.ParseElement(sym)
		if err != nil {
			return physics.Params{}, fmt.Errorf("params.lj: %w", err)
		}
		p.LJ[e] = physics.LJ{Sigma: lj.Sigma, Epsilon: lj.Epsilon}
	}
	if err := p.Validate(); err != nil {
		return physics.Params{}, err
	}
	return p, nil
}

// Validate checks every section, naming the offending entry.
func (c *Config) Validate() error {
	if _, err := c.PhysicsParams(); err != nil {
		return err
	}
	if c.Scenario.Capacity < 0 {
		return fmt.Errorf("%w: scenario.capacity must be non-negative", dynamo.ErrInvalidParams)
	}
	for i, a := range c.Scenario.Atoms {
		if _, err := chem.ParseElement(a.Element); err != nil {
			return fmt.Errorf("scenario.atoms[%d]: %w", i, err)
		}
	}
	for i, s := range c.Scenario.Spawns {
		if _, err := chem.ParseElement(s.Element); err != nil {
			return fmt.Errorf("scenario.spawns[%d]: %w", i, err)
		}
		if s.Count < 0 || s.Radius < 0 || s.Speed < 0 {
			return fmt.Errorf("%w: scenario.spawns[%d]: count, radius and speed must be non-negative", dynamo.ErrInvalidParams, i)
		}
		switch s.Pattern {
		case "", PatternUniform, PatternPerlin:
		default:
			return fmt.Errorf("%w: scenario.spawns[%d]: unknown pattern %q", dynamo.ErrInvalidParams, i, s.Pattern)
		}
	}
	if c.Run.Steps < 0 {
		return fmt.Errorf("%w: run.steps must be non-negative", dynamo.ErrInvalidParams)
	}
	return nil
}

// SetParam sets one scalar of the params section by its yaml name. It is
// how sweeps and flag overrides address parameters generically.
func (c *Config) SetParam(name string, v float64) error {
	pc := &c.Params
	fields := map[string]*float64{
		"dt":             &pc.Dt,
		"cutoff":         &pc.Cutoff,
		"min_dist":       &pc.MinDist,
		"max_force":      &pc.MaxForce,
		"bond_stiffness": &pc.BondStiff,
		"temperature":    &pc.Temperature,
		"damping":        &pc.Damping,
		"thermal_kick":   &pc.ThermalKick,
		"box_half":       &pc.BoxHalf,
		"wall_padding":   &pc.WallPadding,
		"wall_stiffness": &pc.WallStiff,
		"grab_stiffness": &pc.GrabStiff,
		"grab_max_force": &pc.GrabMaxForce,
		"max_bond_speed": &pc.MaxBondSpeed,
	}
	if f, ok := fields[name]; ok {
		*f = v
		return nil
	}
	if name == "max_new_bonds" {
		pc.MaxNewBonds = int(v)
		return nil
	}
	return fmt.Errorf("%w: unknown parameter %q", dynamo.ErrInvalidParams, name)
}
