package analysis

import (
	"testing"

	"github.com/san-kum/chemsim/internal/chem"
	"github.com/san-kum/chemsim/internal/dynamo"
	"github.com/san-kum/chemsim/internal/physics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenario_CarbonDioxideAssembles(t *testing.T) {
	s := physics.New(physics.WithRand(dynamo.NewRand(1)))
	r0, _ := chem.PairBase(chem.C, chem.O)
	d := chem.RestLength(r0, chem.Double)

	_, ok := s.AddAtom(chem.C, dynamo.V(0, 0, 0))
	require.True(t, ok)
	s.AddAtom(chem.O, dynamo.V(d, 0, 0))
	s.AddAtom(chem.O, dynamo.V(-d, 0, 0))

	p := physics.DefaultParams()
	for i := 1; i <= 200; i++ {
		_, err := s.Step(&p)
		require.NoError(t, err)
		if i%10 == 0 {
			_, err = s.Reclassify(&p)
			require.NoError(t, err)
		}
	}
	_, err := s.Reclassify(&p)
	require.NoError(t, err)
	require.NoError(t, s.CheckInvariants())

	ms := AnalyzeSimulation(s)
	require.Len(t, ms, 1)
	m := ms[0]
	assert.Equal(t, 3, m.Atoms)
	assert.Equal(t, 2, m.Bonds)
	assert.Equal(t, 0, m.Rings)
	assert.Equal(t, 2, m.MaxOrder)
	assert.Equal(t, "CO2", m.Formula)

	atoms, bonds := carbonDioxide(77, chem.Double)
	assert.Equal(t, Canonicalize(atoms, bonds).Fingerprint, m.Fingerprint)
}

func TestScenario_WaterFromSoup(t *testing.T) {
	s := physics.New()
	r0, _ := chem.PairBase(chem.O, chem.H)
	s.AddAtom(chem.O, dynamo.V(0, 0, 0))
	s.AddAtom(chem.H, dynamo.V(r0, 0, 0))
	s.AddAtom(chem.H, dynamo.V(0, r0, 0))
	s.AddAtom(chem.H, dynamo.V(0, 0, 6))

	p := physics.DefaultParams()
	for i := 0; i < 50; i++ {
		_, err := s.Step(&p)
		require.NoError(t, err)
	}

	census := NewCensus()
	fresh := census.Observe(50, AnalyzeSimulation(s))
	require.Len(t, fresh, 1)
	assert.Equal(t, "H2O", fresh[0].Formula)
	assert.Equal(t, 50, fresh[0].FirstStep)
}
