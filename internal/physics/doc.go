// Package physics is the chemsim particle engine: a small 3D simulator with
// Lennard-Jones nonbonded forces, order-dependent harmonic bonds, and bonds
// that form, break and change order under valence limits.
//
// A [Simulation] owns all atoms and bonds in arena storage:
//
//   - [Simulation.AddAtom], [Simulation.RemoveAtom]: population changes
//   - [Simulation.Grab], [Simulation.Release]: external drag interaction
//   - [Simulation.Step]: one fixed timestep of forces, integration, and the
//     break and formation passes
//   - [Simulation.Reclassify]: bond order hysteresis, run on a slower cadence
//
// Every operation that takes a [Params] validates it first and returns
// dynamo.ErrInvalidParams for malformed bundles. Everything else saturates:
// atoms past capacity are declined, unknown ids are ignored, and bonds that
// do not fit an atom's valence are down-shifted or skipped.
//
// # Example
//
//	s := physics.New(physics.WithRand(dynamo.NewRand(42)))
//	c, _ := s.AddAtom(chem.C, dynamo.V(0, 0, 0))
//	s.AddAtom(chem.O, dynamo.V(1.3, 0, 0))
//	p := physics.DefaultParams()
//	for i := 0; i < 100; i++ {
//	    if _, err := s.Step(&p); err != nil {
//	        return err
//	    }
//	}
//	s.Reclassify(&p)
//
// # Thread Safety
//
// A Simulation is not safe for concurrent use. Serialize access externally.
package physics
