package dynamo

import "math/rand"

// Rand is the pseudorandom source consumed by the engine. *rand.Rand
// satisfies it.
type Rand interface {
	Float64() float64
	NormFloat64() float64
}

// NewRand returns a deterministic source for seed.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
