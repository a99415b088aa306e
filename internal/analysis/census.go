package analysis

import "sort"

// Species aggregates identical molecules from one analysis.
type Species struct {
	Fingerprint string `json:"fingerprint"`
	Formula     string `json:"formula"`
	Atoms       int    `json:"atoms"`
	Bonds       int    `json:"bonds"`
	Rings       int    `json:"rings"`
	MaxOrder    int    `json:"max_order"`
	Count       int    `json:"count"`
}

// Tally groups molecules by fingerprint, most common first.
func Tally(ms []Molecule) []Species {
	idx := make(map[string]int)
	var out []Species
	for _, m := range ms {
		if i, ok := idx[m.Fingerprint]; ok {
			out[i].Count++
			continue
		}
		idx[m.Fingerprint] = len(out)
		out = append(out, Species{
			Fingerprint: m.Fingerprint,
			Formula:     m.Formula,
			Atoms:       m.Atoms,
			Bonds:       m.Bonds,
			Rings:       m.Rings,
			MaxOrder:    m.MaxOrder,
			Count:       1,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Atoms != out[j].Atoms {
			return out[i].Atoms > out[j].Atoms
		}
		return out[i].Fingerprint < out[j].Fingerprint
	})
	return out
}

// Discovery records the first time a multi-atom species was seen.
type Discovery struct {
	Species
	FirstStep int `json:"first_step"`
	Peak      int `json:"peak"`
}

// Census accumulates species across repeated analyses of one run. It is not
// safe for concurrent use.
type Census struct {
	found   map[string]*Discovery
	order   []string
	current []Species
}

func NewCensus() *Census {
	return &Census{found: make(map[string]*Discovery)}
}

// Observe records the molecules present at step and returns the species seen
// for the first time. Single atoms are counted but never discovered.
func (c *Census) Observe(step int, ms []Molecule) []Discovery {
	c.current = Tally(ms)
	var fresh []Discovery
	for _, sp := range c.current {
		if d, ok := c.found[sp.Fingerprint]; ok {
			if sp.Count > d.Peak {
				d.Peak = sp.Count
			}
			continue
		}
		if sp.Atoms < 2 {
			continue
		}
		d := &Discovery{Species: sp, FirstStep: step, Peak: sp.Count}
		c.found[sp.Fingerprint] = d
		c.order = append(c.order, sp.Fingerprint)
		fresh = append(fresh, *d)
	}
	return fresh
}

// Current is the tally from the latest Observe.
func (c *Census) Current() []Species {
	return append([]Species(nil), c.current...)
}

// Discoveries lists every discovered species in the order first seen.
func (c *Census) Discoveries() []Discovery {
	out := make([]Discovery, len(c.order))
	for i, fp := range c.order {
		out[i] = *c.found[fp]
	}
	return out
}

// Len is the number of distinct species discovered so far.
func (c *Census) Len() int { return len(c.order) }
