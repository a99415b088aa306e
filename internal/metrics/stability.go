package metrics

import "github.com/san-kum/chemsim/internal/sim"

// Integrity is the fraction of checked steps on which the store invariants
// held. Checking is O(atoms + bonds), so it only runs every few steps.
type Integrity struct {
	name       string
	every      int
	violations int
	samples    int
}

func NewIntegrity(every int) *Integrity {
	if every <= 0 {
		every = 1
	}
	return &Integrity{name: "integrity", every: every}
}

func (i *Integrity) Name() string { return i.name }

func (i *Integrity) Observe(f *sim.Frame) {
	if f.Step%i.every != 0 {
		return
	}
	i.samples++
	if f.Sim.CheckInvariants() != nil {
		i.violations++
	}
}

func (i *Integrity) Value() float64 {
	if i.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(i.violations)/float64(i.samples)
}

func (i *Integrity) Reset() {
	i.violations = 0
	i.samples = 0
}

// Default is the metric set attached to headless runs.
func Default() []sim.Metric {
	return []sim.Metric{
		NewKineticEnergy(),
		NewPeakTemperature(),
		NewMaxBonds(),
		NewBondTurnover(),
		NewMolecules(),
		NewIntegrity(50),
	}
}
