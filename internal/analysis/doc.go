// Package analysis identifies molecules in an atom/bond population.
//
//   - [Analyze]: split a population into bonded components, one [Molecule]
//     per component, in a deterministic order
//   - [Canonicalize]: label-refinement fingerprint of a single component
//   - [Formula]: Hill-order chemical formula
//   - [Census]: running record of which species have appeared and when
//
// Fingerprints depend only on elements and bond structure. Renumbering atom
// ids or reordering the input slices never changes them:
//
//	atoms, bonds := analysis.FromSnapshot(sim.Snapshot())
//	for _, m := range analysis.Analyze(atoms, bonds) {
//	    fmt.Println(m.Formula, m.Fingerprint)
//	}
package analysis
