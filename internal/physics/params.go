package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/chemsim/internal/chem"
	"github.com/san-kum/chemsim/internal/dynamo"
)

// LJ holds one element's Lennard-Jones parameters.
type LJ struct {
	Sigma   float64
	Epsilon float64
}

// Params is the parameter bundle passed to Step and Reclassify.
type Params struct {
	Dt float64

	LJ          [chem.NumElements]LJ
	Cutoff      float64
	MinDist     float64
	MaxForce    float64
	BondStiff   float64 // global multiplier on pair base stiffness
	MultiOrder  bool
	Temperature float64
	Damping     float64 // velocity multiplier applied every step
	ThermalKick float64

	BoxHalf     float64
	WallPadding float64
	WallStiff   float64

	GrabStiff    float64
	GrabMaxForce float64

	MaxBondSpeed float64 // relative speed above which atoms will not bond
	MaxNewBonds  int     // formation cap per step
}

func DefaultParams() Params {
	p := Params{
		Dt:           0.01,
		Cutoff:       5.0,
		MinDist:      0.3,
		MaxForce:     60.0,
		BondStiff:    1.0,
		MultiOrder:   true,
		Temperature:  0.0,
		Damping:      0.995,
		ThermalKick:  1.0,
		BoxHalf:      10.0,
		WallPadding:  0.2,
		WallStiff:    200.0,
		GrabStiff:    40.0,
		GrabMaxForce: 80.0,
		MaxBondSpeed: 4.0,
		MaxNewBonds:  4,
	}
	for _, e := range chem.All() {
		pr := e.Props()
		p.LJ[e] = LJ{Sigma: pr.Sigma, Epsilon: pr.Epsilon}
	}
	return p
}

// Validate rejects bundles that would corrupt the step loop.
func (p *Params) Validate() error {
	finite := []struct {
		name string
		v    float64
	}{
		{"dt", p.Dt}, {"cutoff", p.Cutoff}, {"min_dist", p.MinDist},
		{"max_force", p.MaxForce}, {"bond_stiffness", p.BondStiff},
		{"temperature", p.Temperature}, {"damping", p.Damping},
		{"thermal_kick", p.ThermalKick}, {"box_half", p.BoxHalf},
		{"wall_padding", p.WallPadding}, {"wall_stiffness", p.WallStiff},
		{"grab_stiffness", p.GrabStiff}, {"grab_max_force", p.GrabMaxForce},
		{"max_bond_speed", p.MaxBondSpeed},
	}
	for _, f := range finite {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s is not finite", dynamo.ErrInvalidParams, f.name)
		}
		if f.v < 0 {
			return fmt.Errorf("%w: %s must be non-negative, got %g", dynamo.ErrInvalidParams, f.name, f.v)
		}
	}
	if p.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrInvalidParams, p.Dt)
	}
	if p.Cutoff <= 0 {
		return fmt.Errorf("%w: cutoff must be positive, got %g", dynamo.ErrInvalidParams, p.Cutoff)
	}
	if p.MinDist <= 0 || p.MinDist >= p.Cutoff {
		return fmt.Errorf("%w: min_dist must be in (0, cutoff), got %g", dynamo.ErrInvalidParams, p.MinDist)
	}
	if p.MaxForce <= 0 {
		return fmt.Errorf("%w: max_force must be positive", dynamo.ErrInvalidParams)
	}
	if p.Damping <= 0 || p.Damping > 1 {
		return fmt.Errorf("%w: damping must be in (0, 1], got %g", dynamo.ErrInvalidParams, p.Damping)
	}
	if p.BoxHalf <= p.WallPadding {
		return fmt.Errorf("%w: box_half must exceed wall_padding", dynamo.ErrInvalidParams)
	}
	if p.MaxNewBonds < 0 {
		return fmt.Errorf("%w: max_new_bonds must be non-negative", dynamo.ErrInvalidParams)
	}
	for _, e := range chem.All() {
		lj := p.LJ[e]
		if lj.Sigma <= 0 || lj.Epsilon < 0 || math.IsNaN(lj.Sigma+lj.Epsilon) || math.IsInf(lj.Sigma+lj.Epsilon, 0) {
			return fmt.Errorf("%w: bad lj parameters for %s", dynamo.ErrInvalidParams, e)
		}
	}
	return nil
}
