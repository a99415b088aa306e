package physics

import (
	"github.com/san-kum/chemsim/internal/chem"
	"github.com/san-kum/chemsim/internal/logging"
)

// Distances below are ratios to the pair's single-bond length.
const (
	// formReach is how close two atoms must be to bond at all.
	formReach = 1.1

	// formation bands: closer approach picks a higher order
	formTriple = 0.88
	formDouble = 0.96

	// reclassification hysteresis; downgrades use looser thresholds than
	// upgrades so a bond sitting near a boundary keeps its order
	upSingleToDouble   = 0.95
	upDoubleToTriple   = 0.87
	downDoubleToSingle = 0.99
	downTripleToDouble = 0.91
)

func formationOrder(ratio float64, multi bool) chem.Order {
	switch {
	case !multi:
		return chem.Single
	case ratio < formTriple:
		return chem.Triple
	case ratio < formDouble:
		return chem.Double
	default:
		return chem.Single
	}
}

// targetOrder applies the hysteresis rules to a bond currently at cur.
func targetOrder(cur chem.Order, ratio float64, multi bool) chem.Order {
	if !multi {
		return chem.Single
	}
	t := cur
	if t == chem.Single && ratio < upSingleToDouble {
		t = chem.Double
	}
	if t == chem.Double && ratio < upDoubleToTriple {
		t = chem.Triple
	}
	if t != cur {
		return t
	}
	if t == chem.Triple && ratio > downTripleToDouble {
		t = chem.Double
	}
	if t == chem.Double && ratio > downDoubleToSingle {
		t = chem.Single
	}
	return t
}

// affordable steps o down until both atoms can pay for it. The second
// result is false when not even a single bond fits.
func affordable(o chem.Order, spareA, spareB int) (chem.Order, bool) {
	for o >= chem.Single {
		if o.Int() <= spareA && o.Int() <= spareB {
			return o, true
		}
		o--
	}
	return 0, false
}

// BreakBonds removes every bond stretched past its break distance or whose
// endpoint no longer exists, refunding valence. It returns the number removed.
func (s *Simulation) BreakBonds() int {
	broken := 0
	for _, h := range s.bonds.Handles() {
		b := s.bonds.Get(h)
		a, c := s.atoms.Get(b.ha), s.atoms.Get(b.hb)
		if a != nil && c != nil && c.Pos.Sub(a.Pos).Len() <= b.BreakDist {
			continue
		}
		s.log.Debug("bond broken",
			logging.Uint32("a", uint32(b.A)), logging.Uint32("b", uint32(b.B)), logging.Int("order", b.Order.Int()))
		s.removeBond(h)
		broken++
	}
	s.stats.BondsBroken += broken
	return broken
}

// FormBonds bonds close, slow-moving pairs that both have spare valence,
// creating at most p.MaxNewBonds bonds. It returns the number formed.
func (s *Simulation) FormBonds(p *Params) int {
	if p.MaxNewBonds <= 0 {
		return 0
	}
	handles := s.atoms.Handles()
	formed := 0
	for i := 0; i < len(handles); i++ {
		a := s.atoms.Get(handles[i])
		for j := i + 1; j < len(handles) && a.Spare() > 0; j++ {
			b := s.atoms.Get(handles[j])
			if b.Spare() <= 0 {
				continue
			}
			if _, bonded := s.pairs[keyOf(a.ID, b.ID)]; bonded {
				continue
			}
			r0, _ := chem.PairBase(a.Element, b.Element)
			dist := b.Pos.Sub(a.Pos).Len()
			if dist >= formReach*r0 {
				continue
			}
			if b.Vel.Sub(a.Vel).Len() >= p.MaxBondSpeed {
				continue
			}
			o, ok := affordable(formationOrder(dist/r0, p.MultiOrder), a.Spare(), b.Spare())
			if !ok {
				continue
			}
			s.addBond(handles[i], handles[j], o, p.BondStiff)
			s.log.Debug("bond formed",
				logging.Uint32("a", uint32(a.ID)), logging.Uint32("b", uint32(b.ID)),
				logging.Int("order", o.Int()), logging.Float64("dist", dist))
			formed++
			if formed >= p.MaxNewBonds {
				s.stats.BondsFormed += formed
				return formed
			}
		}
	}
	s.stats.BondsFormed += formed
	return formed
}

// Reclassify re-derives every bond's order from its current length. It is
// more expensive than a step and is meant to run on a slower cadence. It
// returns the number of bonds whose order changed.
func (s *Simulation) Reclassify(p *Params) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	changed := 0
	s.bonds.Each(func(_ Handle, b *Bond) bool {
		a, c := s.atoms.Get(b.ha), s.atoms.Get(b.hb)
		if a == nil || c == nil {
			return true
		}
		ratio := c.Pos.Sub(a.Pos).Len() / b.r0Single
		cur := b.Order
		t := targetOrder(cur, ratio, p.MultiOrder)
		if t > cur {
			delta := int(t - cur)
			up, ok := affordable(chem.Order(delta), a.Spare(), c.Spare())
			if !ok {
				return true
			}
			t = cur + up
		}
		if t == cur {
			return true
		}
		diff := t.Int() - cur.Int()
		a.ValenceUsed += diff
		c.ValenceUsed += diff
		b.setOrder(t, p.BondStiff)
		s.log.Debug("bond order changed",
			logging.Uint32("a", uint32(b.A)), logging.Uint32("b", uint32(b.B)),
			logging.Int("from", cur.Int()), logging.Int("to", t.Int()))
		changed++
		return true
	})
	s.stats.OrderChanges += changed
	return changed, nil
}
