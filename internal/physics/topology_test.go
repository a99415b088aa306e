package physics

import (
	"github.com/san-kum/chemsim/internal/chem"
	"github.com/san-kum/chemsim/internal/dynamo"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// placePair puts a and b on the x axis at ratio times their single-bond length.
func placePair(s *Simulation, a, b chem.Element, ratio float64) (AtomID, AtomID) {
	r0, _ := chem.PairBase(a, b)
	ia, _ := s.AddAtom(a, dynamo.V(0, 0, 0))
	ib, _ := s.AddAtom(b, dynamo.V(ratio*r0, 0, 0))
	return ia, ib
}

var _ = Describe("Bond topology", func() {
	var (
		s *Simulation
		p Params
	)

	BeforeEach(func() {
		s = New()
		p = DefaultParams()
	})

	Describe("formation", func() {
		It("bonds two resting atoms at single-bond distance within a few steps", func() {
			a, b := placePair(s, chem.C, chem.C, 1.0)
			for i := 0; i < 5 && s.NumBonds() == 0; i++ {
				_, err := s.Step(&p)
				Expect(err).NotTo(HaveOccurred())
			}
			bond, ok := s.BondBetween(a, b)
			Expect(ok).To(BeTrue())
			Expect(bond.Order).To(Equal(chem.Single))
			for _, id := range []AtomID{a, b} {
				at, _ := s.Atom(id)
				Expect(at.ValenceUsed).To(Equal(1))
			}
		})

		DescribeTable("picks the order from the proximity band",
			func(ratio float64, multi bool, want chem.Order) {
				p.MultiOrder = multi
				a, b := placePair(s, chem.C, chem.O, ratio)
				Expect(s.FormBonds(&p)).To(Equal(1))
				bond, _ := s.BondBetween(a, b)
				Expect(bond.Order).To(Equal(want))
			},
			Entry("loose approach", 1.05, true, chem.Single),
			Entry("double band", 0.92, true, chem.Double),
			Entry("triple band is capped by oxygen valence", 0.85, true, chem.Double),
			Entry("multi-order disabled", 0.85, false, chem.Single),
		)

		It("forms a triple bond when both atoms can afford it", func() {
			a, b := placePair(s, chem.N, chem.N, 0.84)
			Expect(s.FormBonds(&p)).To(Equal(1))
			bond, _ := s.BondBetween(a, b)
			Expect(bond.Order).To(Equal(chem.Triple))
			Expect(bond.RestLen).To(BeNumerically("~", 0.84*1.42, 1e-12))
			Expect(bond.BreakDist).To(BeNumerically("~", 1.75*bond.RestLen, 1e-12))
		})

		It("down-shifts to the highest affordable order", func() {
			o, _ := s.AddAtom(chem.O, dynamo.V(0, 0, 0))
			s.AddAtom(chem.H, dynamo.V(1.01, 0, 0))
			c, _ := s.AddAtom(chem.C, dynamo.V(-0.85*1.41, 0, 0))

			Expect(s.FormBonds(&p)).To(Equal(2))
			bond, ok := s.BondBetween(o, c)
			Expect(ok).To(BeTrue())
			Expect(bond.Order).To(Equal(chem.Single))
			at, _ := s.Atom(o)
			Expect(at.ValenceUsed).To(Equal(2))
			Expect(s.CheckInvariants()).To(Succeed())
		})

		It("skips pairs that are too far apart", func() {
			placePair(s, chem.C, chem.C, 1.15)
			Expect(s.FormBonds(&p)).To(BeZero())
		})

		It("skips pairs colliding faster than the speed cap", func() {
			a, b := placePair(s, chem.C, chem.C, 1.0)
			s.SetVelocity(a, dynamo.V(0, 3, 0))
			s.SetVelocity(b, dynamo.V(0, -3, 0))
			Expect(s.FormBonds(&p)).To(BeZero())
		})

		It("skips atoms with no spare valence", func() {
			placePair(s, chem.H, chem.H, 1.0)
			Expect(s.FormBonds(&p)).To(Equal(1))
			s.AddAtom(chem.H, dynamo.V(0, 0.7, 0))
			Expect(s.FormBonds(&p)).To(BeZero())
		})

		It("never duplicates a bond", func() {
			placePair(s, chem.C, chem.C, 1.0)
			Expect(s.FormBonds(&p)).To(Equal(1))
			Expect(s.FormBonds(&p)).To(BeZero())
			Expect(s.NumBonds()).To(Equal(1))
		})

		It("caps the number of new bonds per pass", func() {
			p.MaxNewBonds = 2
			s.AddAtom(chem.C, dynamo.V(0, 0, 0))
			for _, d := range []dynamo.Vec3{dynamo.V(1.1, 0, 0), dynamo.V(-1.1, 0, 0), dynamo.V(0, 1.1, 0), dynamo.V(0, -1.1, 0)} {
				s.AddAtom(chem.H, d)
			}
			Expect(s.FormBonds(&p)).To(Equal(2))
			Expect(s.FormBonds(&p)).To(Equal(2))
			Expect(s.NumBonds()).To(Equal(4))
			Expect(s.CheckInvariants()).To(Succeed())
		})
	})

	Describe("breaking", func() {
		It("removes an over-stretched bond and restores valence", func() {
			a, b := placePair(s, chem.C, chem.C, 1.0)
			Expect(s.FormBonds(&p)).To(Equal(1))

			s.SetPosition(b, dynamo.V(3.0, 0, 0))
			Expect(s.BreakBonds()).To(Equal(1))
			_, ok := s.BondBetween(a, b)
			Expect(ok).To(BeFalse())
			for _, id := range []AtomID{a, b} {
				at, _ := s.Atom(id)
				Expect(at.ValenceUsed).To(BeZero())
			}
		})

		It("breaks during a step when driven past the break distance", func() {
			a, b := placePair(s, chem.C, chem.C, 1.0)
			Expect(s.FormBonds(&p)).To(Equal(1))
			s.SetPosition(b, dynamo.V(3.0, 0, 0))

			res, err := s.Step(&p)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Broken).To(Equal(1))
			_, ok := s.BondBetween(a, b)
			Expect(ok).To(BeFalse())
			Expect(s.Stats().BondsBroken).To(Equal(1))
		})

		It("keeps bonds within the break distance", func() {
			placePair(s, chem.C, chem.C, 1.0)
			s.FormBonds(&p)
			Expect(s.BreakBonds()).To(BeZero())
		})
	})

	Describe("reclassification", func() {
		var a, b AtomID
		r0 := 1.5 // C-C

		BeforeEach(func() {
			a, b = placePair(s, chem.C, chem.C, 1.0)
			Expect(s.FormBonds(&p)).To(Equal(1))
		})

		order := func() chem.Order {
			bond, ok := s.BondBetween(a, b)
			Expect(ok).To(BeTrue())
			return bond.Order
		}
		moveTo := func(ratio float64) {
			s.SetPosition(b, dynamo.V(ratio*r0, 0, 0))
		}

		It("upgrades, holds inside the hysteresis band, then downgrades", func() {
			moveTo(0.97)
			n, err := s.Reclassify(&p)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeZero())
			Expect(order()).To(Equal(chem.Single))

			moveTo(0.93)
			n, _ = s.Reclassify(&p)
			Expect(n).To(Equal(1))
			Expect(order()).To(Equal(chem.Double))

			moveTo(0.97)
			s.Reclassify(&p)
			Expect(order()).To(Equal(chem.Double))

			moveTo(0.86)
			s.Reclassify(&p)
			Expect(order()).To(Equal(chem.Triple))

			moveTo(0.90)
			s.Reclassify(&p)
			Expect(order()).To(Equal(chem.Triple))

			moveTo(0.93)
			s.Reclassify(&p)
			Expect(order()).To(Equal(chem.Double))

			moveTo(1.0)
			s.Reclassify(&p)
			Expect(order()).To(Equal(chem.Single))
			Expect(s.CheckInvariants()).To(Succeed())
		})

		It("jumps straight to triple when compressed far enough", func() {
			moveTo(0.80)
			s.Reclassify(&p)
			Expect(order()).To(Equal(chem.Triple))
			at, _ := s.Atom(a)
			Expect(at.ValenceUsed).To(Equal(3))
		})

		It("recomputes the cached bond geometry", func() {
			moveTo(0.93)
			s.Reclassify(&p)
			bond, _ := s.BondBetween(a, b)
			Expect(bond.RestLen).To(BeNumerically("~", 0.92*r0, 1e-12))
			Expect(bond.Stiffness).To(BeNumerically("~", 1.9*400, 1e-9))
			Expect(bond.BreakDist).To(BeNumerically("~", 1.75*0.92*r0, 1e-12))
		})

		It("forces single bonds when multi-order is disabled", func() {
			moveTo(0.93)
			s.Reclassify(&p)
			Expect(order()).To(Equal(chem.Double))

			p.MultiOrder = false
			s.Reclassify(&p)
			Expect(order()).To(Equal(chem.Single))
			Expect(s.CheckInvariants()).To(Succeed())
		})

		It("rejects malformed parameters", func() {
			p.Cutoff = -1
			_, err := s.Reclassify(&p)
			Expect(err).To(MatchError(dynamo.ErrInvalidParams))
		})
	})

	It("does not upgrade past either endpoint's valence", func() {
		h1, _ := s.AddAtom(chem.H, dynamo.V(-1.01, 0, 0))
		o2, _ := s.AddAtom(chem.O, dynamo.V(0, 0, 0))
		o3, _ := s.AddAtom(chem.O, dynamo.V(1.32, 0, 0))
		s.AddAtom(chem.H, dynamo.V(1.32+1.01, 0, 0))
		Expect(s.FormBonds(&p)).To(Equal(3))
		_, ok := s.BondBetween(h1, o2)
		Expect(ok).To(BeTrue())

		s.SetPosition(o3, dynamo.V(0.9*1.32, 0, 0))
		n, err := s.Reclassify(&p)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeZero())
		bond, _ := s.BondBetween(o2, o3)
		Expect(bond.Order).To(Equal(chem.Single))
		Expect(s.CheckInvariants()).To(Succeed())
	})
})
