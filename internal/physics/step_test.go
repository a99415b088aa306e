package physics

import (
	"math"
	"testing"

	"github.com/san-kum/chemsim/internal/chem"
	"github.com/san-kum/chemsim/internal/dynamo"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Forces", func() {
	p := DefaultParams()

	It("vanishes at the Lennard-Jones minimum", func() {
		sigma := 1.2
		rMin := math.Pow(2, 1.0/6) * sigma
		Expect(ljForce(sigma, 0.1, rMin, p.MinDist, p.MaxForce)).To(BeNumerically("~", 0, 1e-12))
		Expect(ljForce(sigma, 0.1, 0.9*rMin, p.MinDist, p.MaxForce)).To(BeNumerically(">", 0))
		Expect(ljForce(sigma, 0.1, 1.5*rMin, p.MinDist, p.MaxForce)).To(BeNumerically("<", 0))
	})

	It("stays finite and clamped as r goes to zero", func() {
		for _, r := range []float64{0, 1e-300, 1e-6, 0.1} {
			f := ljForce(1.2, 0.1, r, p.MinDist, p.MaxForce)
			Expect(math.IsNaN(f) || math.IsInf(f, 0)).To(BeFalse())
			Expect(f).To(Equal(p.MaxForce))
		}
	})

	It("applies equal and opposite pair forces", func() {
		s := New()
		s.AddAtom(chem.C, dynamo.V(0, 0, 0))
		s.AddAtom(chem.O, dynamo.V(1.0, 0.5, -0.3))
		atoms := s.liveAtoms()
		accumulateNonbonded(atoms, &p)

		sum := atoms[0].Force.Add(atoms[1].Force)
		Expect(sum.Len()).To(BeNumerically("<", 1e-12))
		Expect(atoms[0].Force.Len()).To(BeNumerically(">", 0))
	})

	It("ignores pairs beyond the cutoff or with zero epsilon", func() {
		s := New()
		s.AddAtom(chem.C, dynamo.V(0, 0, 0))
		s.AddAtom(chem.C, dynamo.V(p.Cutoff+0.1, 0, 0))
		atoms := s.liveAtoms()
		accumulateNonbonded(atoms, &p)
		Expect(atoms[0].Force).To(Equal(dynamo.Vec3{}))

		q := p
		q.LJ[chem.H] = LJ{Sigma: 0.6, Epsilon: 0}
		s = New()
		s.AddAtom(chem.H, dynamo.V(0, 0, 0))
		s.AddAtom(chem.C, dynamo.V(0.5, 0, 0))
		atoms = s.liveAtoms()
		accumulateNonbonded(atoms, &q)
		Expect(atoms[0].Force).To(Equal(dynamo.Vec3{}))
	})

	It("keeps coincident atoms finite", func() {
		s := New()
		s.AddAtom(chem.C, dynamo.V(1, 1, 1))
		s.AddAtom(chem.C, dynamo.V(1, 1, 1))
		for i := 0; i < 10; i++ {
			_, err := s.Step(&p)
			Expect(err).NotTo(HaveOccurred())
		}
		for _, a := range s.Atoms() {
			Expect(a.Pos.IsFinite()).To(BeTrue())
			Expect(a.Vel.IsFinite()).To(BeTrue())
		}
	})

	It("pulls a stretched bond back toward its rest length", func() {
		s := New()
		a, b := placePair(s, chem.C, chem.C, 1.0)
		s.FormBonds(&p)
		s.SetPosition(b, dynamo.V(1.6, 0, 0))
		s.accumulateSprings(&p)

		fa, fb := s.atom(a).Force, s.atom(b).Force
		Expect(fa.X).To(BeNumerically("~", 400*0.1, 1e-9))
		Expect(fb.X).To(BeNumerically("~", -400*0.1, 1e-9))
	})

	It("clamps spring forces to the maximum", func() {
		s := New()
		_, b := placePair(s, chem.C, chem.C, 1.0)
		s.FormBonds(&p)
		s.SetPosition(b, dynamo.V(2.5, 0, 0))
		s.accumulateSprings(&p)
		Expect(s.atom(b).Force.Len()).To(BeNumerically("~", p.MaxForce, 1e-9))
	})

	It("follows the global stiffness multiplier", func() {
		s := New()
		a, b := placePair(s, chem.C, chem.C, 1.0)
		s.FormBonds(&p)
		q := p
		q.BondStiff = 0.5
		s.SetPosition(b, dynamo.V(1.6, 0, 0))
		s.accumulateSprings(&q)
		Expect(s.atom(a).Force.X).To(BeNumerically("~", 200*0.1, 1e-9))
		bond, _ := s.BondBetween(a, b)
		Expect(bond.Stiffness).To(BeNumerically("~", 200, 1e-9))
	})
})

var _ = Describe("Step", func() {
	var p Params

	BeforeEach(func() {
		p = DefaultParams()
	})

	It("rejects malformed parameter bundles before touching state", func() {
		cases := []func(*Params){
			func(p *Params) { p.Dt = 0 },
			func(p *Params) { p.Dt = -0.01 },
			func(p *Params) { p.Cutoff = 0 },
			func(p *Params) { p.Cutoff = -2 },
			func(p *Params) { p.MinDist = 0 },
			func(p *Params) { p.Damping = 1.5 },
			func(p *Params) { p.Temperature = math.NaN() },
			func(p *Params) { p.MaxForce = math.Inf(1) },
			func(p *Params) { p.LJ[chem.C].Sigma = 0 },
			func(p *Params) { p.BoxHalf = 0.1 },
		}
		for _, mutate := range cases {
			s := New()
			id, _ := s.AddAtom(chem.C, dynamo.V(0, 0, 0))
			s.SetVelocity(id, dynamo.V(1, 0, 0))
			q := DefaultParams()
			mutate(&q)
			_, err := s.Step(&q)
			Expect(err).To(MatchError(dynamo.ErrInvalidParams))
			a, _ := s.Atom(id)
			Expect(a.Pos).To(Equal(dynamo.Vec3{}))
		}
	})

	It("moves a free atom by v*dt with damping", func() {
		s := New()
		id, _ := s.AddAtomWithVelocity(chem.C, dynamo.V(0, 0, 0), dynamo.V(1, 0, 0))
		_, err := s.Step(&p)
		Expect(err).NotTo(HaveOccurred())
		a, _ := s.Atom(id)
		Expect(a.Vel.X).To(BeNumerically("~", p.Damping, 1e-12))
		Expect(a.Pos.X).To(BeNumerically("~", p.Damping*p.Dt, 1e-12))
	})

	It("pushes atoms back inside the box", func() {
		s := New()
		id, _ := s.AddAtom(chem.C, dynamo.V(p.BoxHalf+1, 0, -(p.BoxHalf + 1)))
		s.Step(&p)
		a, _ := s.Atom(id)
		Expect(a.Vel.X).To(BeNumerically("<", 0))
		Expect(a.Vel.Z).To(BeNumerically(">", 0))
		Expect(a.Vel.Y).To(BeZero())
	})

	It("drags a grabbed atom toward the target", func() {
		s := New()
		id, _ := s.AddAtom(chem.O, dynamo.V(0, 0, 0))
		target := dynamo.V(3, 0, 0)
		Expect(s.Grab(id, target)).To(BeTrue())
		for i := 0; i < 400; i++ {
			s.Step(&p)
		}
		a, _ := s.Atom(id)
		Expect(a.Pos.Sub(target).Len()).To(BeNumerically("<", 0.3))

		s.Release()
		_, held := s.Grabbed()
		Expect(held).To(BeFalse())
	})

	It("limits the grab force", func() {
		s := New()
		id, _ := s.AddAtom(chem.H, dynamo.V(0, 0, 0))
		s.Grab(id, dynamo.V(1000, 0, 0))
		s.applyGrab(&p)
		Expect(s.atom(id).Force.Len()).To(BeNumerically("~", p.GrabMaxForce, 1e-9))
	})

	It("is reproducible for a given seed and varies across seeds", func() {
		p.Temperature = 2.0
		run := func(seed int64) []Atom {
			s := New(WithRand(dynamo.NewRand(seed)))
			s.AddAtom(chem.C, dynamo.V(0, 0, 0))
			s.AddAtom(chem.O, dynamo.V(2, 0, 0))
			for i := 0; i < 50; i++ {
				s.Step(&p)
			}
			return s.Atoms()
		}
		Expect(run(7)).To(Equal(run(7)))
		Expect(run(7)).NotTo(Equal(run(8)))
	})

	It("leaves velocities untouched by noise at zero temperature", func() {
		s := New()
		id, _ := s.AddAtom(chem.S, dynamo.V(0, 0, 0))
		s.Step(&p)
		a, _ := s.Atom(id)
		Expect(a.Vel).To(Equal(dynamo.Vec3{}))
		Expect(s.KineticEnergy()).To(BeZero())
		Expect(s.Temperature()).To(BeZero())
	})

	It("maintains every store invariant through a hot, crowded run", func() {
		rng := dynamo.NewRand(3)
		s := New(WithRand(dynamo.NewRand(11)))
		elements := chem.All()
		for i := 0; i < 48; i++ {
			pos := dynamo.V(rng.Float64()*8-4, rng.Float64()*8-4, rng.Float64()*8-4)
			s.AddAtom(elements[i%len(elements)], pos)
		}
		p.BoxHalf = 5
		p.Temperature = 0.8

		for step := 1; step <= 600; step++ {
			_, err := s.Step(&p)
			Expect(err).NotTo(HaveOccurred())
			if step%10 == 0 {
				_, err = s.Reclassify(&p)
				Expect(err).NotTo(HaveOccurred())
			}
			if step%50 == 0 {
				Expect(s.CheckInvariants()).To(Succeed())
			}
		}
		Expect(s.Stats().BondsFormed).To(BeNumerically(">", 0))
		for _, b := range s.Bonds() {
			Expect(b.Order.Valid()).To(BeTrue())
		}
		for _, a := range s.Atoms() {
			Expect(a.Pos.IsFinite()).To(BeTrue())
		}
	})
})

func BenchmarkStep(b *testing.B) {
	rng := dynamo.NewRand(5)
	s := New()
	elements := chem.All()
	for i := 0; i < 128; i++ {
		pos := dynamo.V(rng.Float64()*16-8, rng.Float64()*16-8, rng.Float64()*16-8)
		s.AddAtom(elements[i%len(elements)], pos)
	}
	p := DefaultParams()
	p.Temperature = 0.5
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Step(&p); err != nil {
			b.Fatal(err)
		}
	}
}
