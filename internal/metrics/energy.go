package metrics

import "github.com/san-kum/chemsim/internal/sim"

// KineticEnergy is the mean total kinetic energy over observed steps.
type KineticEnergy struct {
	name    string
	sum     float64
	samples int
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (k *KineticEnergy) Name() string { return k.name }

func (k *KineticEnergy) Observe(f *sim.Frame) {
	k.sum += f.Sim.KineticEnergy()
	k.samples++
}

func (k *KineticEnergy) Value() float64 {
	if k.samples == 0 {
		return 0
	}
	return k.sum / float64(k.samples)
}

func (k *KineticEnergy) Reset() {
	k.sum = 0
	k.samples = 0
}

// PeakTemperature is the highest instantaneous kinetic temperature seen.
type PeakTemperature struct {
	name string
	peak float64
}

func NewPeakTemperature() *PeakTemperature {
	return &PeakTemperature{name: "peak_temperature"}
}

func (p *PeakTemperature) Name() string { return p.name }

func (p *PeakTemperature) Observe(f *sim.Frame) {
	if t := f.Sim.Temperature(); t > p.peak {
		p.peak = t
	}
}

func (p *PeakTemperature) Value() float64 { return p.peak }
func (p *PeakTemperature) Reset()         { p.peak = 0 }
