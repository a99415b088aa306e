package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/chemsim/internal/config"
	"github.com/san-kum/chemsim/internal/logging"
	"github.com/san-kum/chemsim/internal/physics"
	"github.com/san-kum/chemsim/internal/sim"
)

// Experiment turns a Config into a ready Runner and runs it.
type Experiment struct {
	cfg    *config.Config
	log    logging.Logger
	runner *sim.Runner
	report BuildReport
}

func New(cfg *config.Config, log logging.Logger) *Experiment {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Experiment{cfg: cfg, log: log}
}

// Setup validates the config, builds the scenario and attaches metrics and
// observers to a new runner.
func (e *Experiment) Setup(metrics []sim.Metric, observers ...sim.Observer) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	params, err := e.cfg.PhysicsParams()
	if err != nil {
		return err
	}
	s, rep, err := Build(e.cfg.Scenario, e.cfg.Seed, e.log)
	if err != nil {
		return err
	}
	e.report = rep

	opts := []sim.Option{
		sim.WithConfig(e.cfg.Run.Cadence),
		sim.WithLogger(e.log.Named("sim")),
	}
	for _, m := range metrics {
		opts = append(opts, sim.WithMetric(m))
	}
	for _, o := range observers {
		opts = append(opts, sim.WithObserver(o))
	}
	e.runner, err = sim.NewRunner(s, params, opts...)
	if err != nil {
		return err
	}
	e.log.Info("experiment ready",
		logging.String("name", e.cfg.Name),
		logging.Int("atoms", s.NumAtoms()),
		logging.Int("steps", e.cfg.Run.Steps))
	return nil
}

// Run executes the configured number of steps.
func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.runner == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.runner.Run(ctx, e.cfg.Run.Steps)
}

func (e *Experiment) Runner() *sim.Runner    { return e.runner }
func (e *Experiment) Report() BuildReport    { return e.report }
func (e *Experiment) Config() *config.Config { return e.cfg }

// Ensemble runs n copies of the configured scenario with consecutive seeds
// starting at the config's seed.
func Ensemble(ctx context.Context, cfg *config.Config, n int, log logging.Logger, metricNames ...string) ([]*sim.Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	reg := NewRegistry()
	factory := func(seed int64) (*sim.Runner, error) {
		c := *cfg
		c.Seed = seed
		ms, err := reg.Metrics(metricNames...)
		if err != nil {
			return nil, err
		}
		e := New(&c, log.With(logging.Any("seed", seed)))
		if err := e.Setup(ms); err != nil {
			return nil, err
		}
		return e.Runner(), nil
	}
	return sim.NewEnsemble(factory, n, cfg.Seed).Run(ctx, cfg.Run.Steps)
}

// Snapshot of the runner's simulation, for persistence.
func (e *Experiment) Snapshot() (physics.Snapshot, bool) {
	if e.runner == nil {
		return physics.Snapshot{}, false
	}
	return e.runner.Simulation().Snapshot(), true
}
