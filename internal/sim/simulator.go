package sim

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/chemsim/internal/analysis"
	"github.com/san-kum/chemsim/internal/dynamo"
	"github.com/san-kum/chemsim/internal/logging"
	"github.com/san-kum/chemsim/internal/physics"
)

// Runner drives a Simulation on a fixed timestep: it runs the reclassify and
// analysis cadences and feeds metrics and observers. Like the Simulation it
// wraps, it is not safe for concurrent use.
type Runner struct {
	sim    *physics.Simulation
	params physics.Params
	cfg    Config
	log    logging.Logger

	metrics   []Metric
	observers []Observer
	census    *analysis.Census

	step      int
	acc       float64
	molecules []analysis.Molecule
}

type Option func(*Runner)

func WithConfig(c Config) Option {
	return func(r *Runner) { r.cfg = c.withDefaults() }
}

func WithLogger(l logging.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

func WithMetric(m Metric) Option {
	return func(r *Runner) { r.AddMetric(m) }
}

func WithObserver(o Observer) Option {
	return func(r *Runner) { r.AddObserver(o) }
}

// NewRunner validates p and wraps s.
func NewRunner(s *physics.Simulation, p physics.Params, opts ...Option) (*Runner, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil simulation", dynamo.ErrInvalidParams)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{
		sim:    s,
		params: p,
		cfg:    DefaultConfig(),
		log:    logging.NewNopLogger(),
		census: analysis.NewCensus(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Runner) AddMetric(m Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

func (r *Runner) Simulation() *physics.Simulation { return r.sim }
func (r *Runner) Params() physics.Params          { return r.params }
func (r *Runner) Config() Config                  { return r.cfg }
func (r *Runner) Census() *analysis.Census        { return r.census }
func (r *Runner) Steps() int                      { return r.step }
func (r *Runner) Time() float64                   { return float64(r.step) * r.params.Dt }

// Molecules is the most recent analysis, or nil before the first one.
func (r *Runner) Molecules() []analysis.Molecule { return r.molecules }

// SetParams swaps the parameter bundle between steps.
func (r *Runner) SetParams(p physics.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.params = p
	return nil
}

// StepOnce runs one fixed step plus whatever cadence work falls on it.
func (r *Runner) StepOnce() error {
	changes, err := r.sim.Step(&r.params)
	if err != nil {
		return &dynamo.StepError{Step: r.step, Time: r.Time(), Wrapped: err}
	}
	r.step++

	if r.step%r.cfg.ReclassifyEvery == 0 {
		if _, err := r.sim.Reclassify(&r.params); err != nil {
			return &dynamo.StepError{Step: r.step, Time: r.Time(), Wrapped: err}
		}
	}

	f := &Frame{Step: r.step, Time: r.Time(), Sim: r.sim, Changes: changes}
	if r.step%r.cfg.AnalyzeEvery == 0 {
		r.analyze()
		f.Molecules = r.molecules
	}

	for _, m := range r.metrics {
		m.Observe(f)
	}
	for _, obs := range r.observers {
		obs.OnStep(f)
	}
	return nil
}

func (r *Runner) analyze() {
	r.molecules = analysis.AnalyzeSimulation(r.sim)
	for _, d := range r.census.Observe(r.step, r.molecules) {
		r.log.Info("new species",
			logging.String("formula", d.Formula),
			logging.String("fingerprint", d.Fingerprint),
			logging.Int("step", d.FirstStep))
	}
}

// Analyze runs an analysis outside the regular cadence.
func (r *Runner) Analyze() []analysis.Molecule {
	r.analyze()
	return r.molecules
}

// Advance feeds wall-clock time into the fixed-step accumulator and runs the
// steps that are due, at most MaxSubSteps of them. Time owed beyond the cap
// is dropped. It returns the number of steps taken.
func (r *Runner) Advance(elapsed time.Duration) (int, error) {
	if elapsed > 0 {
		r.acc += elapsed.Seconds()
	}
	dt := r.params.Dt
	// clamp before converting so a tiny dt cannot overflow int
	due := int(math.Floor(math.Min(r.acc/dt, float64(r.cfg.MaxSubSteps+1))))
	if due > r.cfg.MaxSubSteps {
		due = r.cfg.MaxSubSteps
		r.acc = math.Mod(r.acc, dt)
	} else {
		r.acc -= float64(due) * dt
	}
	for i := 0; i < due; i++ {
		if err := r.StepOnce(); err != nil {
			return i, err
		}
	}
	return due, nil
}

// Pending is the accumulated time not yet consumed by Advance.
func (r *Runner) Pending() float64 { return r.acc }

// Run steps headlessly, recording samples every SampleEvery steps. It stops
// early, returning what it has, when ctx is canceled or a step fails. A final
// analysis always runs so the result describes the end state.
func (r *Runner) Run(ctx context.Context, steps int) (*Result, error) {
	if steps < 0 {
		return nil, fmt.Errorf("%w: negative step count %d", dynamo.ErrInvalidParams, steps)
	}
	for _, m := range r.metrics {
		m.Reset()
	}

	result := &Result{
		Samples: make([]Sample, 0, steps/r.cfg.SampleEvery+2),
		Metrics: make(map[string]float64),
	}
	if r.molecules == nil {
		r.analyze()
	}
	result.Samples = append(result.Samples, r.sample())

	var runErr error
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			runErr = fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}
		if runErr != nil {
			break
		}
		if err := r.StepOnce(); err != nil {
			runErr = err
			break
		}
		result.StepsTaken++
		if r.step%r.cfg.SampleEvery == 0 {
			result.Samples = append(result.Samples, r.sample())
		}
	}

	r.analyze()
	result.Molecules = r.molecules
	result.Discoveries = r.census.Discoveries()
	result.Stats = r.sim.Stats()
	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	if runErr != nil {
		r.log.Warn("run stopped early", logging.Int("step", r.step), logging.Err(runErr))
	}
	return result, runErr
}

// sample reads the molecule count from the latest analysis.
func (r *Runner) sample() Sample {
	return Sample{
		Step:          r.step,
		Time:          r.Time(),
		KineticEnergy: r.sim.KineticEnergy(),
		Temperature:   r.sim.Temperature(),
		Atoms:         r.sim.NumAtoms(),
		Bonds:         r.sim.NumBonds(),
		Molecules:     len(r.molecules),
	}
}
