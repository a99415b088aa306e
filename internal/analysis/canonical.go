package analysis

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/chemsim/internal/chem"
	"github.com/san-kum/chemsim/internal/physics"
)

// refineRounds is the number of label-refinement rounds.
const refineRounds = 8

// Molecule describes one connected component.
type Molecule struct {
	Fingerprint string           `json:"fingerprint"`
	Formula     string           `json:"formula"`
	Atoms       int              `json:"atoms"`
	Bonds       int              `json:"bonds"`
	Rings       int              `json:"rings"`
	MaxOrder    int              `json:"max_order"`
	Key         string           `json:"key"`
	Members     []physics.AtomID `json:"members"`
}

// Canonicalize fingerprints a single component. Bonds whose endpoints are not
// both in atoms are ignored; the caller is expected to pass a connected set.
func Canonicalize(atoms []Atom, bonds []Bond) Molecule {
	return canonicalize(newGraph(atoms, bonds))
}

func canonicalize(g *graph) Molecule {
	labels := refine(g)

	maxOrder := 0
	edges := make([]string, len(g.bonds))
	for i, b := range g.bonds {
		la, lb := labels[g.index[b.A]], labels[g.index[b.B]]
		if la > lb {
			la, lb = lb, la
		}
		edges[i] = la + "-" + lb + ":" + strconv.Itoa(b.Order.Int())
		if b.Order.Int() > maxOrder {
			maxOrder = b.Order.Int()
		}
	}
	sort.Strings(edges)

	sorted := append([]string(nil), labels...)
	sort.Strings(sorted)

	elements := make([]chem.Element, len(g.atoms))
	members := make([]physics.AtomID, len(g.atoms))
	for i, a := range g.atoms {
		elements[i] = a.Element
		members[i] = a.ID
	}
	sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })

	n, nb := len(g.atoms), len(g.bonds)
	rings := nb - n + 1
	if rings < 0 {
		rings = 0
	}
	formula := Formula(elements)
	key := fmt.Sprintf("n%d|b%d|r%d|o%d|%s|%s|%s",
		n, nb, rings, maxOrder, formula,
		strings.Join(sorted, ","), strings.Join(edges, ","))

	return Molecule{
		Fingerprint: hash64(key),
		Formula:     formula,
		Atoms:       n,
		Bonds:       nb,
		Rings:       rings,
		MaxOrder:    maxOrder,
		Key:         key,
		Members:     members,
	}
}

// refine runs Weisfeiler-Leman style relabelling and returns the final label
// of every atom in g.atoms order.
func refine(g *graph) []string {
	labels := make([]string, len(g.atoms))
	for i, a := range g.atoms {
		orders := make([]int, len(g.adj[i]))
		for k, bi := range g.adj[i] {
			orders[k] = g.bonds[bi].Order.Int()
		}
		sort.Ints(orders)
		var sb strings.Builder
		sb.WriteString(a.Element.String())
		sb.WriteByte('/')
		sb.WriteString(strconv.Itoa(len(orders)))
		sb.WriteByte('/')
		for _, o := range orders {
			sb.WriteString(strconv.Itoa(o))
		}
		labels[i] = sb.String()
	}

	next := make([]string, len(labels))
	for round := 0; round < refineRounds; round++ {
		for i := range g.atoms {
			nbrs := make([]string, len(g.adj[i]))
			for k, bi := range g.adj[i] {
				b := g.bonds[bi]
				j := g.index[b.A]
				if j == i {
					j = g.index[b.B]
				}
				nbrs[k] = strconv.Itoa(b.Order.Int()) + ":" + labels[j]
			}
			sort.Strings(nbrs)
			next[i] = labels[i] + "(" + strings.Join(nbrs, ";") + ")"
		}
		// compaction is a pure function of each string, so equal strings
		// get equal codes whatever order the atoms are visited in
		codes := make(map[string]string, len(next))
		for i, s := range next {
			c, ok := codes[s]
			if !ok {
				c = hash64(s)
				codes[s] = c
			}
			labels[i] = c
		}
	}
	return labels
}

// hash64 is the 16-digit hex FNV-1a digest of s.
func hash64(s string) string {
	h := fnv.New64a()
	h.Write([]byte(s))
	return fmt.Sprintf("%016x", h.Sum64())
}

// Formula renders element counts in Hill order: C then H when carbon is
// present, everything else (H included when there is no carbon)
// alphabetically. A count of one has no numeral.
func Formula(elements []chem.Element) string {
	var counts [chem.NumElements]int
	for _, e := range elements {
		if e.Valid() {
			counts[e]++
		}
	}

	syms := make([]chem.Element, 0, chem.NumElements)
	for _, e := range chem.All() {
		if counts[e] > 0 {
			syms = append(syms, e)
		}
	}
	hasCarbon := counts[chem.C] > 0
	rank := func(e chem.Element) int {
		if hasCarbon {
			switch e {
			case chem.C:
				return 0
			case chem.H:
				return 1
			}
		}
		return 2
	}
	sort.Slice(syms, func(i, j int) bool {
		ri, rj := rank(syms[i]), rank(syms[j])
		if ri != rj {
			return ri < rj
		}
		return syms[i].String() < syms[j].String()
	})

	var sb strings.Builder
	for _, e := range syms {
		sb.WriteString(e.String())
		if counts[e] > 1 {
			sb.WriteString(strconv.Itoa(counts[e]))
		}
	}
	return sb.String()
}
