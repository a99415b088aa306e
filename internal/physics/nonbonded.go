package physics

import (
	"math"

	"github.com/san-kum/chemsim/internal/dynamo"
)

var fallbackAxis = dynamo.Vec3{X: 1}

// clamp bounds a signed force magnitude to [-limit, limit].
func clamp(f, limit float64) float64 {
	if f > limit {
		return limit
	}
	if f < -limit {
		return -limit
	}
	return f
}

// ljForce is the Lennard-Jones force magnitude at distance r; positive
// values repel. r is floored at minDist and the result clamped to maxForce.
func ljForce(sigma, epsilon, r, minDist, maxForce float64) float64 {
	if r < minDist {
		r = minDist
	}
	sr := sigma / r
	sr2 := sr * sr
	sr6 := sr2 * sr2 * sr2
	f := 24 * epsilon * (2*sr6*sr6 - sr6) / r
	return clamp(f, maxForce)
}

// accumulateNonbonded adds pairwise LJ forces for every pair within the
// cutoff. O(n^2) over live atoms.
func accumulateNonbonded(atoms []*Atom, p *Params) {
	cut2 := p.Cutoff * p.Cutoff
	for i := 0; i < len(atoms); i++ {
		a := atoms[i]
		lja := p.LJ[a.Element]
		for j := i + 1; j < len(atoms); j++ {
			b := atoms[j]
			d := a.Pos.Sub(b.Pos)
			r2 := d.LenSq()
			if r2 > cut2 {
				continue
			}
			ljb := p.LJ[b.Element]
			eps := math.Sqrt(lja.Epsilon * ljb.Epsilon)
			if eps == 0 {
				continue
			}
			sigma := 0.5 * (lja.Sigma + ljb.Sigma)
			r := math.Sqrt(r2)

			dir := fallbackAxis
			if r > 0 {
				dir = d.Scale(1 / r)
			}
			f := dir.Scale(ljForce(sigma, eps, r, p.MinDist, p.MaxForce))
			a.Force = a.Force.Add(f)
			b.Force = b.Force.Sub(f)
		}
	}
}
