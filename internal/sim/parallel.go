package sim

import (
	"context"
	"sync"
)

// Factory builds an independent runner for one ensemble member.
type Factory func(seed int64) (*Runner, error)

// Ensemble runs several independently seeded simulations in parallel. Each
// member owns its own Simulation, so no state is shared between goroutines.
type Ensemble struct {
	factory   Factory
	numRuns   int
	seedStart int64
}

func NewEnsemble(f Factory, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{factory: f, numRuns: numRuns, seedStart: seedStart}
}

// Run executes steps on every member and returns results in seed order.
func (e *Ensemble) Run(ctx context.Context, steps int) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			r, err := e.factory(e.seedStart + int64(idx))
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = r.Run(ctx, steps)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}

	return results, nil
}
