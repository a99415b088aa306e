package metrics

import "github.com/san-kum/chemsim/internal/sim"

// MaxBonds is the largest live bond count seen.
type MaxBonds struct {
	name string
	max  int
}

func NewMaxBonds() *MaxBonds {
	return &MaxBonds{name: "max_bonds"}
}

func (m *MaxBonds) Name() string { return m.name }

func (m *MaxBonds) Observe(f *sim.Frame) {
	if n := f.Sim.NumBonds(); n > m.max {
		m.max = n
	}
}

func (m *MaxBonds) Value() float64 { return float64(m.max) }
func (m *MaxBonds) Reset()         { m.max = 0 }

// BondTurnover is the mean number of bonds formed plus broken per step.
type BondTurnover struct {
	name    string
	events  int
	samples int
}

func NewBondTurnover() *BondTurnover {
	return &BondTurnover{name: "bond_turnover"}
}

func (b *BondTurnover) Name() string { return b.name }

func (b *BondTurnover) Observe(f *sim.Frame) {
	b.events += f.Changes.Formed + f.Changes.Broken
	b.samples++
}

func (b *BondTurnover) Value() float64 {
	if b.samples == 0 {
		return 0
	}
	return float64(b.events) / float64(b.samples)
}

func (b *BondTurnover) Reset() {
	b.events = 0
	b.samples = 0
}

// Molecules is the number of multi-atom molecules in the latest analysis.
type Molecules struct {
	name string
	last int
}

func NewMolecules() *Molecules {
	return &Molecules{name: "molecules"}
}

func (m *Molecules) Name() string { return m.name }

func (m *Molecules) Observe(f *sim.Frame) {
	if !f.Analyzed() {
		return
	}
	n := 0
	for _, mol := range f.Molecules {
		if mol.Atoms > 1 {
			n++
		}
	}
	m.last = n
}

func (m *Molecules) Value() float64 { return float64(m.last) }
func (m *Molecules) Reset()         { m.last = 0 }
