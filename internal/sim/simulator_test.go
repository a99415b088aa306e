package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/san-kum/chemsim/internal/chem"
	"github.com/san-kum/chemsim/internal/dynamo"
	"github.com/san-kum/chemsim/internal/physics"
)

func carbonDioxide(seed int64) *physics.Simulation {
	s := physics.New(physics.WithRand(dynamo.NewRand(seed)))
	r0, _ := chem.PairBase(chem.C, chem.O)
	d := chem.RestLength(r0, chem.Double)
	s.AddAtom(chem.C, dynamo.V(0, 0, 0))
	s.AddAtom(chem.O, dynamo.V(d, 0, 0))
	s.AddAtom(chem.O, dynamo.V(-d, 0, 0))
	return s
}

type countMetric struct {
	count int
}

func (c *countMetric) Name() string     { return "count" }
func (c *countMetric) Observe(f *Frame) { c.count++ }
func (c *countMetric) Value() float64   { return float64(c.count) }
func (c *countMetric) Reset()           { c.count = 0 }

type frameRecorder struct {
	steps    []int
	analyzed []int
}

func (r *frameRecorder) OnStep(f *Frame) {
	r.steps = append(r.steps, f.Step)
	if f.Analyzed() {
		r.analyzed = append(r.analyzed, f.Step)
	}
}

func TestNewRunnerRejectsBadInput(t *testing.T) {
	p := physics.DefaultParams()
	if _, err := NewRunner(nil, p); !errors.Is(err, dynamo.ErrInvalidParams) {
		t.Errorf("nil simulation: got %v", err)
	}

	p.Cutoff = -1
	if _, err := NewRunner(physics.New(), p); !errors.Is(err, dynamo.ErrInvalidParams) {
		t.Errorf("negative cutoff: got %v", err)
	}
}

func TestRunnerRun(t *testing.T) {
	metric := &countMetric{}
	rec := &frameRecorder{}
	r, err := NewRunner(carbonDioxide(1), physics.DefaultParams(),
		WithConfig(Config{AnalyzeEvery: 25, SampleEvery: 10}),
		WithMetric(metric), WithObserver(rec))
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}

	result, err := r.Run(context.Background(), 100)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.StepsTaken != 100 {
		t.Errorf("expected 100 steps, got %d", result.StepsTaken)
	}
	if len(result.Samples) != 11 {
		t.Errorf("expected 11 samples, got %d", len(result.Samples))
	}
	if got := result.Metrics["count"]; got != 100 {
		t.Errorf("expected metric value 100, got %v", got)
	}
	if len(rec.steps) != 100 || rec.steps[0] != 1 || rec.steps[99] != 100 {
		t.Errorf("unexpected observed steps: %d frames", len(rec.steps))
	}
	want := []int{25, 50, 75, 100}
	if len(rec.analyzed) != len(want) {
		t.Fatalf("expected analyses at %v, got %v", want, rec.analyzed)
	}
	for i := range want {
		if rec.analyzed[i] != want[i] {
			t.Errorf("analysis %d at step %d, want %d", i, rec.analyzed[i], want[i])
		}
	}

	if len(result.Molecules) != 1 || result.Molecules[0].Formula != "CO2" {
		t.Fatalf("expected one CO2, got %+v", result.Molecules)
	}
	if result.Molecules[0].MaxOrder != 2 {
		t.Errorf("expected double bonds, got max order %d", result.Molecules[0].MaxOrder)
	}
	if len(result.Discoveries) != 1 || result.Discoveries[0].FirstStep != 25 {
		t.Errorf("expected CO2 discovered at step 25, got %+v", result.Discoveries)
	}
	last := result.Samples[len(result.Samples)-1]
	if last.Step != 100 || last.Atoms != 3 || last.Bonds != 2 {
		t.Errorf("unexpected final sample %+v", last)
	}
}

func TestRunnerRunCanceled(t *testing.T) {
	r, err := NewRunner(carbonDioxide(1), physics.DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := r.Run(ctx, 50)
	if !errors.Is(err, dynamo.ErrContextCanceled) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if result == nil || result.StepsTaken != 0 {
		t.Errorf("expected an empty partial result, got %+v", result)
	}

	if _, err := r.Run(context.Background(), -1); !errors.Is(err, dynamo.ErrInvalidParams) {
		t.Errorf("negative steps: got %v", err)
	}
}

func TestRunnerAdvance(t *testing.T) {
	r, err := NewRunner(physics.New(), physics.DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	dt := r.Params().Dt

	tests := []struct {
		name    string
		elapsed time.Duration
		steps   int
	}{
		{"less than a step", 4 * time.Millisecond, 0},
		{"carries remainder", 7 * time.Millisecond, 1},
		{"several steps", 35 * time.Millisecond, 3},
		{"capped after a stall", time.Second, DefaultMaxSubSteps},
		{"negative is ignored", -time.Second, 0},
	}
	total := 0
	for _, tt := range tests {
		n, err := r.Advance(tt.elapsed)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if n != tt.steps {
			t.Errorf("%s: took %d steps, want %d", tt.name, n, tt.steps)
		}
		if r.Pending() < 0 || r.Pending() >= dt {
			t.Errorf("%s: pending %v outside [0, dt)", tt.name, r.Pending())
		}
		total += n
	}
	if r.Steps() != total {
		t.Errorf("runner counted %d steps, want %d", r.Steps(), total)
	}
}

func TestRunnerAdvanceTinyTimestep(t *testing.T) {
	p := physics.DefaultParams()
	p.Dt = 1e-300
	r, err := NewRunner(physics.New(), p)
	if err != nil {
		t.Fatal(err)
	}

	n, err := r.Advance(1000 * time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if n != DefaultMaxSubSteps {
		t.Errorf("took %d steps, want the cap %d", n, DefaultMaxSubSteps)
	}
	if pending := r.Pending(); pending < 0 || pending >= p.Dt {
		t.Errorf("pending %v outside [0, dt)", pending)
	}
}

func TestRunnerSetParams(t *testing.T) {
	r, err := NewRunner(physics.New(), physics.DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	bad := physics.DefaultParams()
	bad.Dt = 0
	if err := r.SetParams(bad); !errors.Is(err, dynamo.ErrInvalidParams) {
		t.Errorf("expected invalid params, got %v", err)
	}
	if r.Params().Dt != physics.DefaultParams().Dt {
		t.Error("rejected bundle replaced the current one")
	}

	hot := physics.DefaultParams()
	hot.Temperature = 3
	if err := r.SetParams(hot); err != nil {
		t.Fatal(err)
	}
	if r.Params().Temperature != 3 {
		t.Error("temperature not applied")
	}
}

func TestEnsemble(t *testing.T) {
	p := physics.DefaultParams()
	p.Temperature = 0.05
	factory := func(seed int64) (*Runner, error) {
		return NewRunner(carbonDioxide(seed), p)
	}

	results, err := NewEnsemble(factory, 4, 100).Run(context.Background(), 50)
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i, res := range results {
		if res.StepsTaken != 50 {
			t.Errorf("member %d took %d steps", i, res.StepsTaken)
		}
	}

	failing := func(seed int64) (*Runner, error) {
		q := p
		q.Dt = 0
		return NewRunner(carbonDioxide(seed), q)
	}
	if _, err := NewEnsemble(failing, 2, 0).Run(context.Background(), 10); !errors.Is(err, dynamo.ErrInvalidParams) {
		t.Errorf("expected factory error, got %v", err)
	}
}
