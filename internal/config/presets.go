package config

import (
	"math"
	"sort"

	"github.com/san-kum/chemsim/internal/chem"
)

// Preset is a named, ready-to-run configuration.
type Preset struct {
	Description string
	build       func(*Config)
}

var Presets = map[string]Preset{
	"co2": {
		Description: "carbon flanked by two oxygens at double-bond distance",
		build: func(c *Config) {
			d := restLength(chem.C, chem.O, chem.Double)
			c.Scenario.Atoms = []AtomConfig{
				{Element: "C"},
				{Element: "O", Pos: [3]float64{d, 0, 0}},
				{Element: "O", Pos: [3]float64{-d, 0, 0}},
			}
			c.Run.Steps = 500
		},
	},
	"water": {
		Description: "bent H-O-H at single-bond distance",
		build: func(c *Config) {
			d := restLength(chem.O, chem.H, chem.Single)
			half := 104.5 / 2 * math.Pi / 180
			c.Scenario.Atoms = []AtomConfig{
				{Element: "O"},
				{Element: "H", Pos: [3]float64{d * math.Sin(half), d * math.Cos(half), 0}},
				{Element: "H", Pos: [3]float64{-d * math.Sin(half), d * math.Cos(half), 0}},
			}
			c.Run.Steps = 500
		},
	},
	"methane": {
		Description: "carbon with four hydrogens on a tetrahedron",
		build: func(c *Config) {
			d := restLength(chem.C, chem.H, chem.Single) / math.Sqrt(3)
			c.Scenario.Atoms = []AtomConfig{
				{Element: "C"},
				{Element: "H", Pos: [3]float64{d, d, d}},
				{Element: "H", Pos: [3]float64{d, -d, -d}},
				{Element: "H", Pos: [3]float64{-d, d, -d}},
				{Element: "H", Pos: [3]float64{-d, -d, d}},
			}
			c.Run.Steps = 500
		},
	},
	"ammonia": {
		Description: "nitrogen with three hydrogens in a pyramid",
		build: func(c *Config) {
			d := restLength(chem.N, chem.H, chem.Single)
			c.Scenario.Atoms = []AtomConfig{{Element: "N"}}
			for k := 0; k < 3; k++ {
				phi := float64(k) * 2 * math.Pi / 3
				c.Scenario.Atoms = append(c.Scenario.Atoms, AtomConfig{
					Element: "H",
					Pos:     [3]float64{0.94 * d * math.Cos(phi), -0.34 * d, 0.94 * d * math.Sin(phi)},
				})
			}
			c.Run.Steps = 500
		},
	},
	"soup": {
		Description: "warm mixed CHON cluster with perlin-clumped spawns",
		build: func(c *Config) {
			c.Params.Temperature = 0.3
			c.Params.BoxHalf = 8
			c.Scenario.Spawns = []SpawnConfig{
				{Element: "C", Count: 8, Radius: 5, Pattern: PatternPerlin, Speed: 0.5},
				{Element: "H", Count: 24, Radius: 5, Pattern: PatternPerlin, Speed: 0.5},
				{Element: "O", Count: 6, Radius: 5, Pattern: PatternPerlin, Speed: 0.5},
				{Element: "N", Count: 4, Radius: 5, Pattern: PatternPerlin, Speed: 0.5},
			}
			c.Run.Steps = 5000
		},
	},
	"gas": {
		Description: "hot dilute hydrogen and oxygen",
		build: func(c *Config) {
			c.Params.Temperature = 1.0
			c.Scenario.Spawns = []SpawnConfig{
				{Element: "H", Count: 30, Radius: 8, Pattern: PatternUniform, Speed: 1.5},
				{Element: "O", Count: 15, Radius: 8, Pattern: PatternUniform, Speed: 1.5},
			}
			c.Run.Steps = 3000
		},
	},
}

func restLength(a, b chem.Element, o chem.Order) float64 {
	r0, _ := chem.PairBase(a, b)
	return chem.RestLength(r0, o)
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Name = name
	p.build(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
