package physics

import (
	"github.com/san-kum/chemsim/internal/chem"
	"github.com/san-kum/chemsim/internal/dynamo"
)

// AtomID identifies an atom for the lifetime of its Simulation. Ids are
// assigned monotonically from 1 and never reused.
type AtomID uint32

// Atom is a simulated particle. Callers get copies; mutation goes through
// the Simulation.
type Atom struct {
	ID          AtomID
	Element     chem.Element
	Pos         dynamo.Vec3
	Vel         dynamo.Vec3
	Force       dynamo.Vec3
	Mass        float64
	Radius      float64
	Valence     int
	ValenceUsed int

	bonds []Handle
}

func newAtom(id AtomID, e chem.Element, pos dynamo.Vec3) Atom {
	p := e.Props()
	return Atom{
		ID:      id,
		Element: e,
		Pos:     pos,
		Mass:    p.Mass,
		Radius:  p.Radius,
		Valence: p.Valence,
	}
}

// Spare is the bond order this atom can still take on.
func (a *Atom) Spare() int { return a.Valence - a.ValenceUsed }

func (a *Atom) detach(h Handle) {
	for i, b := range a.bonds {
		if b == h {
			a.bonds = append(a.bonds[:i], a.bonds[i+1:]...)
			return
		}
	}
}
