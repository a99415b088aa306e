package physics

// accumulateSprings adds the harmonic force of every live bond to its
// endpoints, clamped to the same bound as the nonbonded pairs.
func (s *Simulation) accumulateSprings(p *Params) {
	s.bonds.Each(func(_ Handle, b *Bond) bool {
		a, c := s.atoms.Get(b.ha), s.atoms.Get(b.hb)
		if a == nil || c == nil {
			return true
		}
		if b.mult != p.BondStiff {
			b.setOrder(b.Order, p.BondStiff)
		}
		d := c.Pos.Sub(a.Pos)
		r := d.Len()
		dir := fallbackAxis
		if r > 0 {
			dir = d.Scale(1 / r)
		}
		// stretched bonds pull a toward c
		f := dir.Scale(clamp(b.Stiffness*(r-b.RestLen), p.MaxForce))
		a.Force = a.Force.Add(f)
		c.Force = c.Force.Sub(f)
		return true
	})
}
