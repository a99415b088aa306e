package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/chemsim/internal/metrics"
	"github.com/san-kum/chemsim/internal/sim"
)

// Registry maps metric names to constructors so runs can pick metrics by
// name from flags or config.
type Registry struct {
	metrics map[string]func() sim.Metric
}

func NewRegistry() *Registry {
	r := &Registry{metrics: make(map[string]func() sim.Metric)}

	r.metrics["kinetic_energy"] = func() sim.Metric { return metrics.NewKineticEnergy() }
	r.metrics["peak_temperature"] = func() sim.Metric { return metrics.NewPeakTemperature() }
	r.metrics["max_bonds"] = func() sim.Metric { return metrics.NewMaxBonds() }
	r.metrics["bond_turnover"] = func() sim.Metric { return metrics.NewBondTurnover() }
	r.metrics["molecules"] = func() sim.Metric { return metrics.NewMolecules() }
	r.metrics["integrity"] = func() sim.Metric { return metrics.NewIntegrity(50) }

	return r
}

func (r *Registry) GetMetric(name string) (sim.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(), nil
}

// Metrics builds the named metrics, or every registered metric when names is
// empty.
func (r *Registry) Metrics(names ...string) ([]sim.Metric, error) {
	if len(names) == 0 {
		names = r.ListMetrics()
	}
	out := make([]sim.Metric, 0, len(names))
	for _, name := range names {
		m, err := r.GetMetric(name)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *Registry) ListMetrics() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
