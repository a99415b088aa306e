package sim

import (
	"github.com/san-kum/chemsim/internal/analysis"
	"github.com/san-kum/chemsim/internal/physics"
)

// Frame is handed to metrics and observers after every step. Sim must be
// treated as read-only. Molecules is nil except on analysis steps.
type Frame struct {
	Step      int
	Time      float64
	Sim       *physics.Simulation
	Changes   physics.StepResult
	Molecules []analysis.Molecule
}

// Analyzed reports whether the frame carries a fresh analysis.
func (f *Frame) Analyzed() bool { return f.Molecules != nil }

type Metric interface {
	Name() string
	Observe(f *Frame)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(f *Frame)
}

// Config sets the runner's cadences. Zero values take the defaults.
type Config struct {
	ReclassifyEvery int `yaml:"reclassify_every" json:"reclassify_every"`
	AnalyzeEvery    int `yaml:"analyze_every" json:"analyze_every"`
	SampleEvery     int `yaml:"sample_every" json:"sample_every"`
	MaxSubSteps     int `yaml:"max_substeps" json:"max_substeps"`
}

const (
	DefaultReclassifyEvery = 10
	DefaultAnalyzeEvery    = 50
	DefaultSampleEvery     = 10
	DefaultMaxSubSteps     = 5
)

func DefaultConfig() Config {
	return Config{
		ReclassifyEvery: DefaultReclassifyEvery,
		AnalyzeEvery:    DefaultAnalyzeEvery,
		SampleEvery:     DefaultSampleEvery,
		MaxSubSteps:     DefaultMaxSubSteps,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ReclassifyEvery <= 0 {
		c.ReclassifyEvery = d.ReclassifyEvery
	}
	if c.AnalyzeEvery <= 0 {
		c.AnalyzeEvery = d.AnalyzeEvery
	}
	if c.SampleEvery <= 0 {
		c.SampleEvery = d.SampleEvery
	}
	if c.MaxSubSteps <= 0 {
		c.MaxSubSteps = d.MaxSubSteps
	}
	return c
}

// Sample is one row of the recorded time series.
type Sample struct {
	Step          int     `json:"step"`
	Time          float64 `json:"time"`
	KineticEnergy float64 `json:"kinetic_energy"`
	Temperature   float64 `json:"temperature"`
	Atoms         int     `json:"atoms"`
	Bonds         int     `json:"bonds"`
	Molecules     int     `json:"molecules"`
}

type Result struct {
	Samples     []Sample
	Molecules   []analysis.Molecule
	Discoveries []analysis.Discovery
	Metrics     map[string]float64
	Stats       physics.Stats
	StepsTaken  int
}
