package analysis

import (
	"sort"

	"github.com/san-kum/chemsim/internal/chem"
	"github.com/san-kum/chemsim/internal/physics"
)

// Atom is the part of an atom that matters for identification.
type Atom struct {
	ID      physics.AtomID
	Element chem.Element
}

// Bond is an undirected edge between two atom ids.
type Bond struct {
	A, B  physics.AtomID
	Order chem.Order
}

// FromSnapshot extracts the analysis view of a snapshot.
func FromSnapshot(snap physics.Snapshot) ([]Atom, []Bond) {
	atoms := make([]Atom, len(snap.Atoms))
	for i, a := range snap.Atoms {
		atoms[i] = Atom{ID: a.ID, Element: a.Element}
	}
	bonds := make([]Bond, len(snap.Bonds))
	for i, b := range snap.Bonds {
		bonds[i] = Bond{A: b.A, B: b.B, Order: b.Order}
	}
	return atoms, bonds
}

// AnalyzeSimulation is Analyze over the live population of s.
func AnalyzeSimulation(s *physics.Simulation) []Molecule {
	return Analyze(FromSnapshot(s.Snapshot()))
}

// graph is a sanitized adjacency view: duplicate atom ids keep the first
// entry, and bonds that are self loops, name unknown atoms, carry an invalid
// order or repeat a pair are dropped.
type graph struct {
	atoms []Atom
	bonds []Bond
	index map[physics.AtomID]int
	adj   [][]int // atom index -> bond indices
}

func newGraph(atoms []Atom, bonds []Bond) *graph {
	g := &graph{
		atoms: make([]Atom, 0, len(atoms)),
		index: make(map[physics.AtomID]int, len(atoms)),
	}
	for _, a := range atoms {
		if _, dup := g.index[a.ID]; dup || !a.Element.Valid() {
			continue
		}
		g.index[a.ID] = len(g.atoms)
		g.atoms = append(g.atoms, a)
	}
	g.adj = make([][]int, len(g.atoms))

	type pair struct{ lo, hi physics.AtomID }
	seen := make(map[pair]bool, len(bonds))
	for _, b := range bonds {
		ia, okA := g.index[b.A]
		ib, okB := g.index[b.B]
		if !okA || !okB || b.A == b.B || !b.Order.Valid() {
			continue
		}
		k := pair{b.A, b.B}
		if k.lo > k.hi {
			k.lo, k.hi = k.hi, k.lo
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		bi := len(g.bonds)
		g.bonds = append(g.bonds, b)
		g.adj[ia] = append(g.adj[ia], bi)
		g.adj[ib] = append(g.adj[ib], bi)
	}
	return g
}

// components walks the graph with an explicit stack and returns, for each
// component, its atom indices and bond indices.
func (g *graph) components() (members [][]int, edges [][]int) {
	visited := make([]bool, len(g.atoms))
	var stack []int
	for start := range g.atoms {
		if visited[start] {
			continue
		}
		visited[start] = true
		stack = append(stack[:0], start)
		var comp, compBonds []int
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp = append(comp, i)
			for _, bi := range g.adj[i] {
				b := g.bonds[bi]
				j := g.index[b.A]
				if j == i {
					j = g.index[b.B]
				}
				// each bond is recorded once, from its lower-index endpoint
				if i < j {
					compBonds = append(compBonds, bi)
				}
				if !visited[j] {
					visited[j] = true
					stack = append(stack, j)
				}
			}
		}
		members = append(members, comp)
		edges = append(edges, compBonds)
	}
	return members, edges
}

// Analyze partitions the population into connected components and describes
// each as a Molecule. Unbonded atoms come back as single-atom molecules.
// The result is ordered by atom count, then bond count (both descending),
// then fingerprint, so it does not depend on input order.
func Analyze(atoms []Atom, bonds []Bond) []Molecule {
	g := newGraph(atoms, bonds)
	members, edges := g.components()

	out := make([]Molecule, 0, len(members))
	for c := range members {
		ca := make([]Atom, len(members[c]))
		for k, i := range members[c] {
			ca[k] = g.atoms[i]
		}
		cb := make([]Bond, len(edges[c]))
		for k, bi := range edges[c] {
			cb[k] = g.bonds[bi]
		}
		out = append(out, canonicalize(newGraph(ca, cb)))
	}
	sortMolecules(out)
	return out
}

func sortMolecules(ms []Molecule) {
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].Atoms != ms[j].Atoms {
			return ms[i].Atoms > ms[j].Atoms
		}
		if ms[i].Bonds != ms[j].Bonds {
			return ms[i].Bonds > ms[j].Bonds
		}
		if ms[i].Fingerprint != ms[j].Fingerprint {
			return ms[i].Fingerprint < ms[j].Fingerprint
		}
		return firstMember(ms[i]) < firstMember(ms[j])
	})
}

func firstMember(m Molecule) physics.AtomID {
	if len(m.Members) == 0 {
		return 0
	}
	return m.Members[0]
}
