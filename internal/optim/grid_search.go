// Package optim sweeps scenario parameters over a grid and ranks the runs by
// one metric.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/chemsim/internal/config"
	"github.com/san-kum/chemsim/internal/experiment"
	"github.com/san-kum/chemsim/internal/sim"
)

// Trial is one grid point and its outcome.
type Trial struct {
	Params map[string]float64
	Value  float64
	Result *sim.Result
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	maximize   bool
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d parameters but %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("optim: empty range for %s", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Maximize makes larger metric values win. The default is to minimize.
func (g *GridSearch) Maximize() *GridSearch {
	g.maximize = true
	return g
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search runs an experiment for every grid point, in row-major order of the
// parameters. Failed trials are recorded and skipped. It returns the best
// point, its value and every trial; a canceled ctx stops it early with the
// trials so far.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
) (map[string]float64, float64, []Trial, error) {

	best := math.Inf(1)
	if g.maximize {
		best = math.Inf(-1)
	}
	var bestParams map[string]float64
	trials := make([]Trial, 0, g.Size())

	err := g.searchRecursive(ctx, 0, make(map[string]float64), func(params map[string]float64) {
		t := Trial{Params: params}
		exp, err := buildExperiment(params)
		if err != nil {
			t.Err = err
			trials = append(trials, t)
			return
		}
		t.Result, t.Err = exp.Run(ctx)
		if t.Err == nil {
			v, ok := t.Result.Metrics[metricName]
			if !ok {
				t.Err = fmt.Errorf("optim: run has no metric %q", metricName)
			}
			t.Value = v
		}
		trials = append(trials, t)
		if t.Err != nil {
			return
		}
		if (g.maximize && t.Value > best) || (!g.maximize && t.Value < best) {
			best = t.Value
			bestParams = params
		}
	})
	if bestParams == nil && err == nil {
		err = errors.New("optim: no trial succeeded")
	}
	return bestParams, best, trials, err
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	visit func(map[string]float64),
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		visit(current)
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, visit); err != nil {
			return err
		}
	}
	return nil
}

// Builder returns a buildExperiment function that copies base, applies
// the grid point and sets up the named metrics.
func Builder(base *config.Config, metricNames ...string) func(map[string]float64) (*experiment.Experiment, error) {
	reg := experiment.NewRegistry()
	return func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := *base
		for name, v := range params {
			if err := cfg.SetParam(name, v); err != nil {
				return nil, err
			}
		}
		ms, err := reg.Metrics(metricNames...)
		if err != nil {
			return nil, err
		}
		exp := experiment.New(&cfg, nil)
		if err := exp.Setup(ms); err != nil {
			return nil, err
		}
		return exp, nil
	}
}

// ParseAxis parses "name=v1,v2,..." or "name=start:stop:step" (inclusive)
// into a parameter name and its values.
func ParseAxis(axis string) (string, []float64, error) {
	name, vals, ok := strings.Cut(axis, "=")
	if !ok || name == "" || vals == "" {
		return "", nil, fmt.Errorf("optim: axis %q: want name=values", axis)
	}
	if parts := strings.Split(vals, ":"); len(parts) == 3 {
		var f [3]float64
		for i, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return "", nil, fmt.Errorf("optim: axis %q: %w", axis, err)
			}
			f[i] = v
		}
		start, stop, step := f[0], f[1], f[2]
		if step <= 0 || stop < start {
			return "", nil, fmt.Errorf("optim: axis %q: need start <= stop and step > 0", axis)
		}
		n := int(math.Floor((stop-start)/step+1e-9)) + 1
		out := make([]float64, n)
		for i := range out {
			out[i] = start + float64(i)*step
		}
		return name, out, nil
	}
	var out []float64
	for _, p := range strings.Split(vals, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return "", nil, fmt.Errorf("optim: axis %q: %w", axis, err)
		}
		out = append(out, v)
	}
	return name, out, nil
}
