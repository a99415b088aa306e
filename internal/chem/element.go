// Package chem holds the closed set of elements the engine simulates and the
// per-element and per-pair constants the force field is built from.
package chem

import (
	"fmt"
	"strings"

	"github.com/san-kum/chemsim/internal/dynamo"
)

// Element is one of the six supported elements. The zero value is invalid.
type Element uint8

const (
	H Element = iota + 1
	C
	N
	O
	P
	S
)

// NumElements is the size of arrays indexed by Element (index 0 unused).
const NumElements = int(S) + 1

// Props are the fixed per-element constants.
type Props struct {
	Symbol  string
	Mass    float64
	Radius  float64 // covalent radius; r0_single of a pair is the sum
	Valence int
	Sigma   float64 // default Lennard-Jones sigma
	Epsilon float64 // default Lennard-Jones epsilon
	Stiff   float64 // base bond stiffness contribution
}

var props = [NumElements]Props{
	H: {Symbol: "H", Mass: 1.0, Radius: 0.35, Valence: 1, Sigma: 0.60, Epsilon: 0.02, Stiff: 300},
	C: {Symbol: "C", Mass: 12.0, Radius: 0.75, Valence: 4, Sigma: 1.28, Epsilon: 0.10, Stiff: 400},
	N: {Symbol: "N", Mass: 14.0, Radius: 0.71, Valence: 3, Sigma: 1.21, Epsilon: 0.08, Stiff: 380},
	O: {Symbol: "O", Mass: 16.0, Radius: 0.66, Valence: 2, Sigma: 1.12, Epsilon: 0.08, Stiff: 360},
	P: {Symbol: "P", Mass: 31.0, Radius: 1.07, Valence: 5, Sigma: 1.82, Epsilon: 0.12, Stiff: 260},
	S: {Symbol: "S", Mass: 32.0, Radius: 1.05, Valence: 2, Sigma: 1.78, Epsilon: 0.12, Stiff: 260},
}

// All lists the supported elements in declaration order.
func All() []Element {
	return []Element{H, C, N, O, P, S}
}

// ParseElement maps a symbol to its Element. Symbols are case-sensitive
// except that a lone lowercase letter is accepted ("c" -> C).
func ParseElement(symbol string) (Element, error) {
	s := strings.TrimSpace(symbol)
	if len(s) == 1 {
		s = strings.ToUpper(s)
	}
	for _, e := range All() {
		if props[e].Symbol == s {
			return e, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", dynamo.ErrUnknownElement, symbol)
}

// MustParse is ParseElement for literals known to be valid.
func MustParse(symbol string) Element {
	e, err := ParseElement(symbol)
	if err != nil {
		panic(err)
	}
	return e
}

func (e Element) Valid() bool { return e >= H && e <= S }

func (e Element) String() string {
	if !e.Valid() {
		return fmt.Sprintf("Element(%d)", uint8(e))
	}
	return props[e].Symbol
}

// Props returns the element constants. Invalid elements return the zero value.
func (e Element) Props() Props {
	if !e.Valid() {
		return Props{}
	}
	return props[e]
}

func (e Element) Mass() float64   { return e.Props().Mass }
func (e Element) Radius() float64 { return e.Props().Radius }
func (e Element) Valence() int    { return e.Props().Valence }

func (e Element) MarshalText() ([]byte, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("%w: %d", dynamo.ErrUnknownElement, uint8(e))
	}
	return []byte(e.String()), nil
}

func (e *Element) UnmarshalText(text []byte) error {
	parsed, err := ParseElement(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
