package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/san-kum/chemsim/internal/analysis"
	"github.com/san-kum/chemsim/internal/logging"
	"github.com/san-kum/chemsim/internal/physics"
	"github.com/san-kum/chemsim/internal/sim"
)

// ExporterConfig holds configuration for the prometheus exporter.
type ExporterConfig struct {
	Namespace            string
	EnableProcessMetrics bool
	EnableGoMetrics      bool
	ConstLabels          map[string]string
}

// Exporter publishes simulation state as prometheus metrics. It is a
// sim.Observer; scrapes may run concurrently with stepping.
type Exporter struct {
	registry *prometheus.Registry
	log      logging.Logger

	atoms       prometheus.Gauge
	bonds       prometheus.Gauge
	temperature prometheus.Gauge
	kinetic     prometheus.Gauge
	molecules   prometheus.Gauge
	species     *prometheus.GaugeVec

	steps        prometheus.Counter
	formed       prometheus.Counter
	broken       prometheus.Counter
	orderChanges prometheus.Counter

	last physics.Stats
}

func NewExporter(cfg ExporterConfig, log logging.Logger) (*Exporter, error) {
	if cfg.Namespace == "" {
		return nil, errors.New("metrics: namespace is required")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}

	registry := prometheus.NewRegistry()
	if cfg.EnableProcessMetrics {
		registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{
			Namespace: cfg.Namespace,
		}))
	}
	if cfg.EnableGoMetrics {
		registry.MustRegister(prometheus.NewGoCollector())
	}

	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace, Name: name, Help: help, ConstLabels: cfg.ConstLabels,
		})
	}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace, Name: name, Help: help, ConstLabels: cfg.ConstLabels,
		})
	}

	e := &Exporter{
		registry:     registry,
		log:          log,
		atoms:        gauge("atoms", "Live atoms."),
		bonds:        gauge("bonds", "Live bonds."),
		temperature:  gauge("temperature", "Instantaneous kinetic temperature."),
		kinetic:      gauge("kinetic_energy", "Total kinetic energy."),
		molecules:    gauge("molecules", "Multi-atom molecules in the latest analysis."),
		steps:        counter("steps_total", "Fixed steps executed."),
		formed:       counter("bonds_formed_total", "Bonds formed."),
		broken:       counter("bonds_broken_total", "Bonds broken."),
		orderChanges: counter("bond_order_changes_total", "Bond order changes from reclassification."),
		species: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace, Name: "species", Help: "Molecule count per species in the latest analysis.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"formula", "fingerprint"}),
	}

	for _, c := range []prometheus.Collector{
		e.atoms, e.bonds, e.temperature, e.kinetic, e.molecules, e.species,
		e.steps, e.formed, e.broken, e.orderChanges,
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// OnStep updates gauges from the frame and advances the counters by the
// change in simulation stats since the previous frame.
func (e *Exporter) OnStep(f *sim.Frame) {
	s := f.Sim
	e.atoms.Set(float64(s.NumAtoms()))
	e.bonds.Set(float64(s.NumBonds()))
	e.temperature.Set(s.Temperature())
	e.kinetic.Set(s.KineticEnergy())

	st := s.Stats()
	e.steps.Add(float64(nonNegative(st.Steps - e.last.Steps)))
	e.formed.Add(float64(nonNegative(st.BondsFormed - e.last.BondsFormed)))
	e.broken.Add(float64(nonNegative(st.BondsBroken - e.last.BondsBroken)))
	e.orderChanges.Add(float64(nonNegative(st.OrderChanges - e.last.OrderChanges)))
	e.last = st

	if f.Analyzed() {
		e.setSpecies(f.Molecules)
	}
}

func (e *Exporter) setSpecies(ms []analysis.Molecule) {
	e.species.Reset()
	n := 0
	for _, sp := range analysis.Tally(ms) {
		if sp.Atoms < 2 {
			continue
		}
		n += sp.Count
		e.species.WithLabelValues(sp.Formula, sp.Fingerprint).Set(float64(sp.Count))
	}
	e.molecules.Set(float64(n))
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func (e *Exporter) Registry() *prometheus.Registry { return e.registry }

func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Serve exposes the handler on addr until the server fails. Callers run it in
// a goroutine.
func (e *Exporter) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())
	e.log.Info("serving metrics", logging.String("addr", addr))
	return http.ListenAndServe(addr, mux)
}
