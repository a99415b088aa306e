package experiment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/san-kum/chemsim/internal/chem"
	"github.com/san-kum/chemsim/internal/config"
	"github.com/san-kum/chemsim/internal/dynamo"
	"github.com/san-kum/chemsim/internal/logging"
)

func TestBuild_ExplicitAtoms(t *testing.T) {
	sc := config.ScenarioConfig{Atoms: []config.AtomConfig{
		{Element: "C"},
		{Element: "o", Pos: [3]float64{1.3, 0, 0}, Vel: [3]float64{0, 1, 0}},
	}}
	s, rep, err := Build(sc, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, BuildReport{Placed: 2}, rep)

	atoms := s.Atoms()
	require.Len(t, atoms, 2)
	assert.Equal(t, chem.O, atoms[1].Element)
	assert.Equal(t, 1.0, atoms[1].Vel.Y)
}

func TestBuild_UnknownElement(t *testing.T) {
	sc := config.ScenarioConfig{Atoms: []config.AtomConfig{{Element: "Zz"}}}
	_, _, err := Build(sc, 1, nil)
	assert.True(t, errors.Is(err, dynamo.ErrUnknownElement))
}

func TestBuild_Spawns(t *testing.T) {
	for _, pattern := range []string{config.PatternUniform, config.PatternPerlin} {
		t.Run(pattern, func(t *testing.T) {
			center := [3]float64{1, -1, 0.5}
			sc := config.ScenarioConfig{Spawns: []config.SpawnConfig{
				{Element: "H", Count: 20, Radius: 5, Center: center, Pattern: pattern, Speed: 1},
				{Element: "C", Count: 5, Radius: 5, Center: center, Pattern: pattern},
			}}
			s, rep, err := Build(sc, 42, nil)
			require.NoError(t, err)
			assert.Equal(t, 25, rep.Placed)
			assert.Equal(t, 25, s.NumAtoms())

			atoms := s.Atoms()
			for i, a := range atoms {
				d := a.Pos.Sub(dynamo.V(center[0], center[1], center[2])).Len()
				assert.LessOrEqual(t, d, 5.0+1e-9)
				for _, b := range atoms[i+1:] {
					assert.GreaterOrEqual(t, a.Pos.Sub(b.Pos).Len(), minSpawnGap)
				}
				if a.Element == chem.C {
					assert.Equal(t, dynamo.Vec3{}, a.Vel)
				}
			}

			again, _, err := Build(sc, 42, nil)
			require.NoError(t, err)
			assert.Equal(t, atoms, again.Atoms(), "same seed, same layout")
		})
	}
}

func TestBuild_CapacityAndCrowding(t *testing.T) {
	sc := config.ScenarioConfig{
		Capacity: 5,
		Spawns:   []config.SpawnConfig{{Element: "H", Count: 8, Radius: 10}},
	}
	s, rep, err := Build(sc, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, s.NumAtoms())
	assert.Equal(t, 5, rep.Placed)
	assert.Equal(t, 3, rep.Declined)

	tight := config.ScenarioConfig{Spawns: []config.SpawnConfig{{Element: "H", Count: 3, Radius: 0}}}
	s, rep, err = Build(tight, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, s.NumAtoms())
	assert.Equal(t, 2, rep.Crowded)
}

func TestExperiment_PartialPlacementWarnsOnce(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cfg := config.GetPreset("co2")
	cfg.Scenario.Capacity = 2

	e := New(cfg, logging.NewLoggerFromCore(core))
	require.NoError(t, e.Setup(nil))
	assert.Equal(t, BuildReport{Placed: 2, Declined: 1}, e.Report())

	warned := logs.FilterMessage("scenario partially placed").All()
	require.Len(t, warned, 1)
	assert.EqualValues(t, 1, warned[0].ContextMap()["declined"])
}

func TestExperiment_Preset(t *testing.T) {
	cfg := config.GetPreset("co2")
	cfg.Run.Steps = 200

	e := New(cfg, nil)
	_, err := e.Run(context.Background())
	assert.Error(t, err, "run before setup")

	ms, err := NewRegistry().Metrics()
	require.NoError(t, err)
	require.NoError(t, e.Setup(ms))
	assert.Equal(t, 3, e.Report().Placed)

	res, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Molecules, 1)
	assert.Equal(t, "CO2", res.Molecules[0].Formula)
	assert.Equal(t, 2, res.Molecules[0].MaxOrder)
	assert.Equal(t, 1.0, res.Metrics["integrity"])

	snap, ok := e.Snapshot()
	require.True(t, ok)
	assert.Len(t, snap.Bonds, 2)
}

func TestExperiment_InvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Params.Cutoff = -1
	err := New(cfg, nil).Setup(nil)
	assert.True(t, errors.Is(err, dynamo.ErrInvalidParams))
}

func TestEnsemble(t *testing.T) {
	cfg := config.GetPreset("water")
	cfg.Run.Steps = 60
	cfg.Params.Temperature = 0.05

	results, err := Ensemble(context.Background(), cfg, 3, nil, "max_bonds")
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, 60, r.StepsTaken)
		assert.Contains(t, r.Metrics, "max_bonds")
	}

	_, err = Ensemble(context.Background(), cfg, 2, nil, "nope")
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	names := r.ListMetrics()
	assert.Contains(t, names, "kinetic_energy")
	assert.Contains(t, names, "integrity")

	_, err := r.GetMetric("unknown")
	assert.Error(t, err)

	ms, err := r.Metrics("max_bonds", "molecules")
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "max_bonds", ms[0].Name())
}
