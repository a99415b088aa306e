package physics

import (
	"github.com/san-kum/chemsim/internal/chem"
	"github.com/san-kum/chemsim/internal/dynamo"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Atom/bond store", func() {
	var (
		s *Simulation
		p Params
	)

	BeforeEach(func() {
		s = New()
		p = DefaultParams()
	})

	It("assigns ids monotonically and never reuses them", func() {
		a, ok := s.AddAtom(chem.C, dynamo.V(0, 0, 0))
		Expect(ok).To(BeTrue())
		b, _ := s.AddAtom(chem.H, dynamo.V(3, 0, 0))
		Expect(b).To(BeNumerically(">", a))

		s.RemoveAtom(b)
		c, _ := s.AddAtom(chem.H, dynamo.V(3, 0, 0))
		Expect(c).To(BeNumerically(">", b))
		Expect(s.NumAtoms()).To(Equal(2))
	})

	It("initializes atoms from the element table", func() {
		id, _ := s.AddAtom(chem.N, dynamo.V(1, 2, 3))
		a, ok := s.Atom(id)
		Expect(ok).To(BeTrue())
		Expect(a.Element).To(Equal(chem.N))
		Expect(a.Mass).To(Equal(chem.N.Mass()))
		Expect(a.Valence).To(Equal(3))
		Expect(a.ValenceUsed).To(BeZero())
		Expect(a.Vel).To(Equal(dynamo.Vec3{}))
	})

	It("declines atoms past capacity and invalid elements without error", func() {
		s = New(WithCapacity(2))
		_, ok1 := s.AddAtom(chem.H, dynamo.V(0, 0, 0))
		_, ok2 := s.AddAtom(chem.H, dynamo.V(2, 0, 0))
		_, ok3 := s.AddAtom(chem.H, dynamo.V(4, 0, 0))
		Expect([]bool{ok1, ok2, ok3}).To(Equal([]bool{true, true, false}))

		s = New()
		_, ok := s.AddAtom(chem.Element(0), dynamo.V(0, 0, 0))
		Expect(ok).To(BeFalse())
		_, ok = s.AddAtom(chem.Element(42), dynamo.V(0, 0, 0))
		Expect(ok).To(BeFalse())
		Expect(s.Stats().AtomsDeclined).To(Equal(2))
	})

	It("ignores removal of unknown ids", func() {
		s.AddAtom(chem.C, dynamo.V(0, 0, 0))
		s.RemoveAtom(999)
		Expect(s.NumAtoms()).To(Equal(1))
	})

	It("removes incident bonds and restores valence on removal", func() {
		c, _ := s.AddAtom(chem.C, dynamo.V(0, 0, 0))
		h1, _ := s.AddAtom(chem.H, dynamo.V(1.1, 0, 0))
		h2, _ := s.AddAtom(chem.H, dynamo.V(-1.1, 0, 0))
		Expect(s.FormBonds(&p)).To(Equal(2))

		s.RemoveAtom(c)
		Expect(s.NumBonds()).To(BeZero())
		for _, id := range []AtomID{h1, h2} {
			a, _ := s.Atom(id)
			Expect(a.ValenceUsed).To(BeZero())
		}
		Expect(s.CheckInvariants()).To(Succeed())
	})

	It("releases the grab when the grabbed atom is removed", func() {
		id, _ := s.AddAtom(chem.O, dynamo.V(0, 0, 0))
		Expect(s.Grab(id, dynamo.V(1, 1, 1))).To(BeTrue())
		s.RemoveAtom(id)
		_, held := s.Grabbed()
		Expect(held).To(BeFalse())
		Expect(s.Grab(id, dynamo.V(0, 0, 0))).To(BeFalse())
	})

	It("round-trips through a snapshot", func() {
		c, _ := s.AddAtom(chem.C, dynamo.V(0, 0, 0))
		s.AddAtom(chem.O, dynamo.V(1.2972, 0, 0))
		Expect(s.FormBonds(&p)).To(Equal(1))
		s.SetVelocity(c, dynamo.V(0.5, 0, 0))

		r := Restore(s.Snapshot())
		Expect(r.NumAtoms()).To(Equal(2))
		Expect(r.NumBonds()).To(Equal(1))
		Expect(r.Bonds()[0].Order).To(Equal(chem.Double))
		Expect(r.Atoms()[0].Vel.X).To(Equal(0.5))
		Expect(r.CheckInvariants()).To(Succeed())
	})

	It("keeps snapshot ids across gaps and continues numbering after them", func() {
		c, _ := s.AddAtom(chem.C, dynamo.V(0, 0, 0))
		o, _ := s.AddAtom(chem.O, dynamo.V(1.2972, 0, 0))
		h, _ := s.AddAtom(chem.H, dynamo.V(-1.1, 0, 0))
		Expect(s.FormBonds(&p)).To(Equal(2))
		s.RemoveAtom(c)

		r := Restore(s.Snapshot())
		ids := []AtomID{}
		for _, a := range r.Atoms() {
			ids = append(ids, a.ID)
		}
		Expect(ids).To(ConsistOf(o, h))
		_, ok := r.Atom(c)
		Expect(ok).To(BeFalse())

		next, ok := r.AddAtom(chem.N, dynamo.V(5, 5, 5))
		Expect(ok).To(BeTrue())
		Expect(next).To(BeNumerically(">", h))
		Expect(r.CheckInvariants()).To(Succeed())
	})

	It("restores populations larger than the default capacity", func() {
		const n = DefaultCapacity + 44
		s = New(WithCapacity(n))
		for i := 0; i < n; i++ {
			_, ok := s.AddAtom(chem.H, dynamo.V(float64(i%20)*3, float64(i/20)*3, 0))
			Expect(ok).To(BeTrue())
		}
		last := s.Atoms()[n-1]
		s.RemoveAtom(1)
		snap := s.Snapshot()

		r := Restore(snap)
		Expect(r.NumAtoms()).To(Equal(n - 1))
		Expect(r.Capacity()).To(BeNumerically(">=", n-1))
		got, ok := r.Atom(last.ID)
		Expect(ok).To(BeTrue())
		Expect(got.Pos).To(Equal(last.Pos))

		small := Restore(snap, WithCapacity(4))
		Expect(small.NumAtoms()).To(Equal(n - 1))
	})

	It("drops snapshot bonds that are invalid", func() {
		snap := Snapshot{
			Atoms: []SnapshotAtom{{ID: 1, Element: chem.H}, {ID: 2, Element: chem.H, Pos: [3]float64{1, 0, 0}}},
			Bonds: []SnapshotBond{
				{A: 1, B: 2, Order: chem.Single},
				{A: 2, B: 1, Order: chem.Single},
				{A: 1, B: 9, Order: chem.Single},
				{A: 1, B: 1, Order: chem.Single},
			},
		}
		r := Restore(snap)
		Expect(r.NumBonds()).To(Equal(1))
		Expect(r.CheckInvariants()).To(Succeed())
	})
})
