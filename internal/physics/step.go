package physics

import (
	"math"

	"github.com/san-kum/chemsim/internal/dynamo"
)

// StepResult reports the topology changes made by one step.
type StepResult struct {
	Formed int
	Broken int
}

// Step advances the simulation by p.Dt: force accumulation, wall and grab
// forces, semi-implicit Euler integration with damping and thermal noise,
// then the break and formation passes. Reclassify is not run here.
func (s *Simulation) Step(p *Params) (StepResult, error) {
	if err := p.Validate(); err != nil {
		return StepResult{}, err
	}

	atoms := s.liveAtoms()
	for _, a := range atoms {
		a.Force = dynamo.Vec3{}
	}

	accumulateNonbonded(atoms, p)
	s.accumulateSprings(p)
	applyWalls(atoms, p)
	s.applyGrab(p)
	s.integrate(atoms, p)

	res := StepResult{Broken: s.BreakBonds()}
	res.Formed = s.FormBonds(p)
	s.stats.Steps++
	return res, nil
}

func (s *Simulation) liveAtoms() []*Atom {
	out := make([]*Atom, 0, s.atoms.Len())
	s.atoms.Each(func(_ Handle, a *Atom) bool {
		out = append(out, a)
		return true
	})
	return out
}

// applyWalls pushes atoms back into the cubic box with a force proportional
// to how far they have crossed the padded boundary.
func applyWalls(atoms []*Atom, p *Params) {
	for _, a := range atoms {
		limit := math.Max(p.BoxHalf-a.Radius-p.WallPadding, 0)
		for axis := 0; axis < 3; axis++ {
			x := a.Pos.Component(axis)
			f := a.Force.Component(axis)
			switch {
			case x > limit:
				f -= p.WallStiff * (x - limit)
			case x < -limit:
				f += p.WallStiff * (-limit - x)
			default:
				continue
			}
			a.Force = a.Force.WithComponent(axis, f)
		}
	}
}

// applyGrab pulls the grabbed atom toward the target with a critically
// damped spring, clamped to p.GrabMaxForce.
func (s *Simulation) applyGrab(p *Params) {
	if !s.hasGrab || !s.hasTarget {
		return
	}
	a := s.atom(s.grabbed)
	if a == nil {
		return
	}
	damp := 2 * math.Sqrt(p.GrabStiff*a.Mass)
	f := s.target.Sub(a.Pos).Scale(p.GrabStiff).Sub(a.Vel.Scale(damp))
	if mag := f.Len(); mag > p.GrabMaxForce {
		f = f.Scale(p.GrabMaxForce / mag)
	}
	a.Force = a.Force.Add(f)
}

func (s *Simulation) integrate(atoms []*Atom, p *Params) {
	dt := p.Dt
	kick := 0.0
	if p.Temperature > 0 {
		kick = p.ThermalKick * math.Sqrt(p.Temperature*dt)
	}
	for _, a := range atoms {
		v := a.Vel.Add(a.Force.Scale(dt / a.Mass)).Scale(p.Damping)
		if kick > 0 {
			sd := kick / math.Sqrt(a.Mass)
			v = v.Add(dynamo.Vec3{
				X: s.rng.NormFloat64() * sd,
				Y: s.rng.NormFloat64() * sd,
				Z: s.rng.NormFloat64() * sd,
			})
		}
		a.Vel = v
		a.Pos = a.Pos.Add(v.Scale(dt))
	}
}

// KineticEnergy is the total kinetic energy of the live atoms.
func (s *Simulation) KineticEnergy() float64 {
	ke := 0.0
	s.atoms.Each(func(_ Handle, a *Atom) bool {
		ke += 0.5 * a.Mass * a.Vel.LenSq()
		return true
	})
	return ke
}

// Temperature is the instantaneous kinetic temperature 2KE/(3N) in the
// engine's units (k_B = 1).
func (s *Simulation) Temperature() float64 {
	n := s.atoms.Len()
	if n == 0 {
		return 0
	}
	return 2 * s.KineticEnergy() / (3 * float64(n))
}
