package physics

import (
	"github.com/san-kum/chemsim/internal/chem"
	"github.com/san-kum/chemsim/internal/dynamo"
)

// SnapshotAtom is the serializable view of an atom.
type SnapshotAtom struct {
	ID          AtomID       `json:"id"`
	Element     chem.Element `json:"element"`
	Pos         [3]float64   `json:"pos"`
	Vel         [3]float64   `json:"vel"`
	ValenceUsed int          `json:"valence_used"`
}

// SnapshotBond is the serializable view of a bond.
type SnapshotBond struct {
	A     AtomID     `json:"a"`
	B     AtomID     `json:"b"`
	Order chem.Order `json:"order"`
}

// Snapshot is a detached copy of the population, used for analysis and
// persistence. It never aliases simulation state.
type Snapshot struct {
	Atoms []SnapshotAtom `json:"atoms"`
	Bonds []SnapshotBond `json:"bonds"`
}

func (s *Simulation) Snapshot() Snapshot {
	snap := Snapshot{
		Atoms: make([]SnapshotAtom, 0, s.atoms.Len()),
		Bonds: make([]SnapshotBond, 0, s.bonds.Len()),
	}
	s.atoms.Each(func(_ Handle, a *Atom) bool {
		snap.Atoms = append(snap.Atoms, SnapshotAtom{
			ID:          a.ID,
			Element:     a.Element,
			Pos:         [3]float64{a.Pos.X, a.Pos.Y, a.Pos.Z},
			Vel:         [3]float64{a.Vel.X, a.Vel.Y, a.Vel.Z},
			ValenceUsed: a.ValenceUsed,
		})
		return true
	})
	s.bonds.Each(func(_ Handle, b *Bond) bool {
		snap.Bonds = append(snap.Bonds, SnapshotBond{A: b.A, B: b.B, Order: b.Order})
		return true
	})
	return snap
}

// Restore rebuilds a simulation from a snapshot. Atoms keep their snapshot
// ids and capacity grows to hold every stored atom; later AddAtom calls
// continue past the highest id. Atoms with a zero or repeated id or an
// invalid element are skipped. Bonds naming unknown atoms, duplicates and
// bonds that would exceed valence are dropped.
func Restore(snap Snapshot, opts ...Option) *Simulation {
	s := New(opts...)
	s.capacity = max(s.capacity, len(snap.Atoms))
	remap := make(map[AtomID]AtomID, len(snap.Atoms))
	for _, sa := range snap.Atoms {
		pos := dynamo.V(sa.Pos[0], sa.Pos[1], sa.Pos[2])
		vel := dynamo.V(sa.Vel[0], sa.Vel[1], sa.Vel[2])
		if sa.ID == 0 || !sa.Element.Valid() || !pos.IsFinite() {
			continue
		}
		if _, taken := s.ids[sa.ID]; taken {
			continue
		}
		a := newAtom(sa.ID, sa.Element, pos)
		if vel.IsFinite() {
			a.Vel = vel
		}
		s.ids[sa.ID] = s.atoms.Insert(a)
		s.nextID = max(s.nextID, sa.ID+1)
		remap[sa.ID] = sa.ID
	}
	for _, sb := range snap.Bonds {
		a, okA := remap[sb.A]
		b, okB := remap[sb.B]
		if !okA || !okB || a == b || !sb.Order.Valid() {
			continue
		}
		if _, dup := s.pairs[keyOf(a, b)]; dup {
			continue
		}
		ha, hb := s.ids[a], s.ids[b]
		if sb.Order.Int() > s.atoms.Get(ha).Spare() || sb.Order.Int() > s.atoms.Get(hb).Spare() {
			continue
		}
		s.addBond(ha, hb, sb.Order, 1.0)
	}
	return s
}
