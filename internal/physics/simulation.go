package physics

import (
	"fmt"
	"sort"

	"github.com/san-kum/chemsim/internal/chem"
	"github.com/san-kum/chemsim/internal/dynamo"
	"github.com/san-kum/chemsim/internal/logging"
)

// DefaultCapacity bounds the live atom count unless overridden.
const DefaultCapacity = 256

// Simulation owns every atom and bond. It has no internal locking: callers
// that step it from one goroutine and read it from another must serialize
// access themselves.
type Simulation struct {
	atoms Arena[Atom]
	bonds Arena[Bond]
	ids   map[AtomID]Handle
	pairs map[pairKey]Handle

	nextID   AtomID
	capacity int

	grabbed   AtomID
	hasGrab   bool
	target    dynamo.Vec3
	hasTarget bool

	rng dynamo.Rand
	log logging.Logger

	stats Stats
}

// Stats counts topology events since the simulation was created.
type Stats struct {
	Steps         int
	BondsFormed   int
	BondsBroken   int
	OrderChanges  int
	AtomsDeclined int
}

type Option func(*Simulation)

// WithCapacity sets the maximum number of live atoms.
func WithCapacity(n int) Option {
	return func(s *Simulation) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithRand injects the random source used for thermal noise.
func WithRand(r dynamo.Rand) Option {
	return func(s *Simulation) {
		if r != nil {
			s.rng = r
		}
	}
}

// WithLogger sets the logger for topology events.
func WithLogger(l logging.Logger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.log = l
		}
	}
}

func New(opts ...Option) *Simulation {
	s := &Simulation{
		ids:      make(map[AtomID]Handle),
		pairs:    make(map[pairKey]Handle),
		nextID:   1,
		capacity: DefaultCapacity,
		rng:      dynamo.NewRand(1),
		log:      logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddAtom places a new atom at rest. It returns false, without error, when
// the simulation is full or the element is not one of the supported set.
func (s *Simulation) AddAtom(e chem.Element, pos dynamo.Vec3) (AtomID, bool) {
	if !e.Valid() || !pos.IsFinite() {
		s.stats.AtomsDeclined++
		s.log.Warn("atom declined", logging.String("reason", "invalid element or position"))
		return 0, false
	}
	if s.atoms.Len() >= s.capacity {
		s.stats.AtomsDeclined++
		s.log.Debug("atom declined", logging.String("reason", "capacity"), logging.Int("capacity", s.capacity))
		return 0, false
	}
	id := s.nextID
	s.nextID++
	s.ids[id] = s.atoms.Insert(newAtom(id, e, pos))
	return id, true
}

// AddAtomWithVelocity is AddAtom followed by setting the initial velocity.
func (s *Simulation) AddAtomWithVelocity(e chem.Element, pos, vel dynamo.Vec3) (AtomID, bool) {
	id, ok := s.AddAtom(e, pos)
	if ok && vel.IsFinite() {
		s.atom(id).Vel = vel
	}
	return id, ok
}

// RemoveAtom destroys the atom and every bond touching it. Unknown ids are
// ignored.
func (s *Simulation) RemoveAtom(id AtomID) {
	h, ok := s.ids[id]
	if !ok {
		return
	}
	a := s.atoms.Get(h)
	for _, bh := range append([]Handle(nil), a.bonds...) {
		s.removeBond(bh)
	}
	s.atoms.Remove(h)
	delete(s.ids, id)
	if s.hasGrab && s.grabbed == id {
		s.Release()
	}
}

// Grab marks id as held and pulls it toward target on every step.
func (s *Simulation) Grab(id AtomID, target dynamo.Vec3) bool {
	if _, ok := s.ids[id]; !ok {
		return false
	}
	s.grabbed, s.hasGrab = id, true
	s.SetTarget(target)
	return true
}

// SetTarget moves the drag target. Non-finite targets clear it.
func (s *Simulation) SetTarget(target dynamo.Vec3) {
	if !target.IsFinite() {
		s.hasTarget = false
		return
	}
	s.target, s.hasTarget = target, true
}

// Release clears the grab and its target.
func (s *Simulation) Release() {
	s.grabbed, s.hasGrab = 0, false
	s.hasTarget = false
}

// Grabbed reports the held atom, if any.
func (s *Simulation) Grabbed() (AtomID, bool) { return s.grabbed, s.hasGrab }

// Target reports the drag target, if set.
func (s *Simulation) Target() (dynamo.Vec3, bool) { return s.target, s.hasTarget }

func (s *Simulation) atom(id AtomID) *Atom {
	h, ok := s.ids[id]
	if !ok {
		return nil
	}
	return s.atoms.Get(h)
}

// Atom returns a copy of the atom with the given id.
func (s *Simulation) Atom(id AtomID) (Atom, bool) {
	a := s.atom(id)
	if a == nil {
		return Atom{}, false
	}
	cp := *a
	cp.bonds = nil
	return cp, true
}

// SetVelocity overrides an atom's velocity. Unknown ids are ignored.
func (s *Simulation) SetVelocity(id AtomID, v dynamo.Vec3) {
	if a := s.atom(id); a != nil && v.IsFinite() {
		a.Vel = v
	}
}

// SetPosition teleports an atom. Unknown ids are ignored.
func (s *Simulation) SetPosition(id AtomID, p dynamo.Vec3) {
	if a := s.atom(id); a != nil && p.IsFinite() {
		a.Pos = p
	}
}

// Atoms returns copies of all live atoms in storage order.
func (s *Simulation) Atoms() []Atom {
	out := make([]Atom, 0, s.atoms.Len())
	s.atoms.Each(func(_ Handle, a *Atom) bool {
		cp := *a
		cp.bonds = nil
		out = append(out, cp)
		return true
	})
	return out
}

// Bonds returns copies of all live bonds in storage order.
func (s *Simulation) Bonds() []Bond {
	out := make([]Bond, 0, s.bonds.Len())
	s.bonds.Each(func(_ Handle, b *Bond) bool {
		out = append(out, *b)
		return true
	})
	return out
}

// BondBetween returns the bond joining a and b, if any.
func (s *Simulation) BondBetween(a, b AtomID) (Bond, bool) {
	h, ok := s.pairs[keyOf(a, b)]
	if !ok {
		return Bond{}, false
	}
	return *s.bonds.Get(h), true
}

func (s *Simulation) NumAtoms() int { return s.atoms.Len() }
func (s *Simulation) NumBonds() int { return s.bonds.Len() }
func (s *Simulation) Capacity() int { return s.capacity }
func (s *Simulation) Stats() Stats  { return s.stats }

// addBond records a bond and charges both endpoints. The caller has already
// checked valence and that the pair is unbonded.
func (s *Simulation) addBond(ha, hb Handle, o chem.Order, stiffMult float64) Handle {
	a, b := s.atoms.Get(ha), s.atoms.Get(hb)
	if a.ID > b.ID {
		a, b = b, a
		ha, hb = hb, ha
	}
	r0, kBase := chem.PairBase(a.Element, b.Element)
	bond := Bond{A: a.ID, B: b.ID, ha: ha, hb: hb, r0Single: r0, kBase: kBase}
	bond.setOrder(o, stiffMult)
	h := s.bonds.Insert(bond)
	s.pairs[keyOf(a.ID, b.ID)] = h
	a.bonds = append(a.bonds, h)
	b.bonds = append(b.bonds, h)
	a.ValenceUsed += o.Int()
	b.ValenceUsed += o.Int()
	return h
}

// removeBond drops a bond and refunds whichever endpoints still exist.
func (s *Simulation) removeBond(h Handle) {
	b := s.bonds.Get(h)
	if b == nil {
		return
	}
	for _, ah := range []Handle{b.ha, b.hb} {
		if a := s.atoms.Get(ah); a != nil {
			a.ValenceUsed -= b.Order.Int()
			a.detach(h)
		}
	}
	delete(s.pairs, keyOf(b.A, b.B))
	s.bonds.Remove(h)
}

// CheckInvariants verifies valence bookkeeping, the order domain and pair
// uniqueness. It is O(atoms + bonds) and meant for tests and diagnostics.
func (s *Simulation) CheckInvariants() error {
	sums := make(map[AtomID]int, s.atoms.Len())
	seen := make(map[pairKey]bool, s.bonds.Len())
	var err error
	s.bonds.Each(func(h Handle, b *Bond) bool {
		if !b.Order.Valid() {
			err = fmt.Errorf("%w: bond %d-%d has order %d", dynamo.ErrInvariant, b.A, b.B, b.Order)
			return false
		}
		k := keyOf(b.A, b.B)
		if seen[k] || b.A == b.B {
			err = fmt.Errorf("%w: duplicate or self bond %d-%d", dynamo.ErrInvariant, b.A, b.B)
			return false
		}
		seen[k] = true
		if s.atoms.Get(b.ha) == nil || s.atoms.Get(b.hb) == nil {
			err = fmt.Errorf("%w: bond %d-%d has a dead endpoint", dynamo.ErrInvariant, b.A, b.B)
			return false
		}
		sums[b.A] += b.Order.Int()
		sums[b.B] += b.Order.Int()
		return true
	})
	if err != nil {
		return err
	}
	ids := make([]AtomID, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		a := s.atom(id)
		if a.ValenceUsed != sums[id] {
			return fmt.Errorf("%w: atom %d valence used %d, bonds sum %d", dynamo.ErrInvariant, id, a.ValenceUsed, sums[id])
		}
		if a.ValenceUsed > a.Valence {
			return fmt.Errorf("%w: atom %d over valence (%d > %d)", dynamo.ErrInvariant, id, a.ValenceUsed, a.Valence)
		}
	}
	return nil
}
