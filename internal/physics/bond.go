package physics

import "github.com/san-kum/chemsim/internal/chem"

// breakFactor scales the rest length into the break distance.
const breakFactor = 1.75

// Bond joins two atoms. A is always the lower id.
type Bond struct {
	A, B      AtomID
	Order     chem.Order
	RestLen   float64
	Stiffness float64
	BreakDist float64

	ha, hb   Handle
	r0Single float64
	kBase    float64
	mult     float64
}

// R0Single is the pair's single-bond equilibrium length.
func (b *Bond) R0Single() float64 { return b.r0Single }

// Other returns the endpoint opposite id.
func (b *Bond) Other(id AtomID) AtomID {
	if b.A == id {
		return b.B
	}
	return b.A
}

type pairKey struct{ lo, hi AtomID }

func keyOf(a, b AtomID) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

// setOrder updates the order and the values cached from it. stiffMult is the
// global stiffness multiplier in force when the values are derived.
func (b *Bond) setOrder(o chem.Order, stiffMult float64) {
	b.Order = o
	b.mult = stiffMult
	b.RestLen = chem.RestLength(b.r0Single, o)
	b.Stiffness = chem.Stiffness(b.kBase*stiffMult, o)
	b.BreakDist = breakFactor * b.RestLen
}
