package experiment

import (
	"fmt"
	"math"

	"github.com/aquilax/go-perlin"

	"github.com/san-kum/chemsim/internal/chem"
	"github.com/san-kum/chemsim/internal/config"
	"github.com/san-kum/chemsim/internal/dynamo"
	"github.com/san-kum/chemsim/internal/logging"
	"github.com/san-kum/chemsim/internal/physics"
)

const (
	// spawned atoms keep at least this far from every earlier atom
	minSpawnGap = 0.9
	// placement attempts per spawned atom before it is skipped
	spawnAttempts = 64

	perlinAlpha = 2.0
	perlinBeta  = 2.0
	perlinOct   = 3
	perlinScale = 0.35
)

// BuildReport counts what Build placed and what it had to leave out.
type BuildReport struct {
	Placed   int
	Declined int // refused by the simulation, usually capacity
	Crowded  int // no free spot found
}

// Build creates a Simulation populated from sc. Explicit atoms are placed
// first, then each spawn group is scattered. seed drives both the spawn
// placement and the simulation's thermal noise.
func Build(sc config.ScenarioConfig, seed int64, log logging.Logger) (*physics.Simulation, BuildReport, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	s := physics.New(
		physics.WithCapacity(sc.Capacity),
		physics.WithRand(dynamo.NewRand(seed)),
		physics.WithLogger(log.Named("physics")),
	)
	var rep BuildReport

	for i, a := range sc.Atoms {
		e, err := chem.ParseElement(a.Element)
		if err != nil {
			return nil, rep, fmt.Errorf("scenario.atoms[%d]: %w", i, err)
		}
		if _, ok := s.AddAtomWithVelocity(e, vec(a.Pos), vec(a.Vel)); ok {
			rep.Placed++
		} else {
			rep.Declined++
		}
	}

	rng := dynamo.NewRand(seed ^ 0x5eed)
	placed := make([]dynamo.Vec3, 0, len(sc.Atoms))
	for _, a := range s.Atoms() {
		placed = append(placed, a.Pos)
	}

	for i, sp := range sc.Spawns {
		e, err := chem.ParseElement(sp.Element)
		if err != nil {
			return nil, rep, fmt.Errorf("scenario.spawns[%d]: %w", i, err)
		}
		accept := uniformDensity
		if sp.Pattern == config.PatternPerlin {
			accept = perlinDensity(perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOct, seed+int64(i)))
		}
		center := vec(sp.Center)
		sd := sp.Speed / math.Sqrt(e.Mass())

		for n := 0; n < sp.Count; n++ {
			pos, ok := findSpot(rng, center, sp.Radius, placed, accept)
			if !ok {
				rep.Crowded++
				continue
			}
			vel := dynamo.V(rng.NormFloat64()*sd, rng.NormFloat64()*sd, rng.NormFloat64()*sd)
			if _, ok := s.AddAtomWithVelocity(e, pos, vel); !ok {
				rep.Declined++
				continue
			}
			placed = append(placed, pos)
			rep.Placed++
		}
	}

	if rep.Declined > 0 || rep.Crowded > 0 {
		log.Warn("scenario partially placed",
			logging.Int("placed", rep.Placed),
			logging.Int("declined", rep.Declined),
			logging.Int("crowded", rep.Crowded))
	}
	return s, rep, nil
}

func vec(a [3]float64) dynamo.Vec3 { return dynamo.V(a[0], a[1], a[2]) }

// density maps a candidate position to an acceptance probability in [0, 1].
type density func(p dynamo.Vec3) float64

func uniformDensity(dynamo.Vec3) float64 { return 1 }

// perlinDensity clumps spawns where the noise field is high.
func perlinDensity(noise *perlin.Perlin) density {
	return func(p dynamo.Vec3) float64 {
		v := noise.Noise3D(p.X*perlinScale, p.Y*perlinScale, p.Z*perlinScale)
		return math.Min(1, math.Max(0.05, 0.5+v))
	}
}

// findSpot rejection-samples a point in the ball that respects the density
// and the minimum gap.
func findSpot(rng dynamo.Rand, center dynamo.Vec3, radius float64, placed []dynamo.Vec3, accept density) (dynamo.Vec3, bool) {
	for try := 0; try < spawnAttempts; try++ {
		p := center.Add(inBall(rng, radius))
		if rng.Float64() > accept(p) {
			continue
		}
		if crowded(p, placed) {
			continue
		}
		return p, true
	}
	return dynamo.Vec3{}, false
}

func inBall(rng dynamo.Rand, radius float64) dynamo.Vec3 {
	if radius <= 0 {
		return dynamo.Vec3{}
	}
	for {
		p := dynamo.V(2*rng.Float64()-1, 2*rng.Float64()-1, 2*rng.Float64()-1)
		if p.LenSq() <= 1 {
			return p.Scale(radius)
		}
	}
}

func crowded(p dynamo.Vec3, placed []dynamo.Vec3) bool {
	for _, q := range placed {
		if p.Sub(q).LenSq() < minSpawnGap*minSpawnGap {
			return true
		}
	}
	return false
}
