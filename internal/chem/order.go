package chem

import (
	"fmt"

	"github.com/san-kum/chemsim/internal/dynamo"
)

// Order is a bond multiplicity. Only Single, Double and Triple are valid;
// construct from untrusted ints with NewOrder.
type Order uint8

const (
	Single Order = 1
	Double Order = 2
	Triple Order = 3
)

const (
	// rest length shrinks 8% per extra order
	restShrink = 0.08
	// stiffness grows 90% per extra order
	stiffGrowth = 0.9
)

func NewOrder(n int) (Order, error) {
	if n < int(Single) || n > int(Triple) {
		return 0, fmt.Errorf("%w: %d", dynamo.ErrInvalidOrder, n)
	}
	return Order(n), nil
}

func (o Order) Valid() bool { return o >= Single && o <= Triple }

func (o Order) Int() int { return int(o) }

func (o Order) String() string {
	switch o {
	case Single:
		return "single"
	case Double:
		return "double"
	case Triple:
		return "triple"
	}
	return fmt.Sprintf("Order(%d)", uint8(o))
}

// RestLength is the equilibrium length of a bond of order o given the pair's
// single-bond length.
func RestLength(r0Single float64, o Order) float64 {
	return r0Single * (1 - restShrink*float64(o-1))
}

// Stiffness is the spring constant of a bond of order o given the pair's
// (multiplier-scaled) single-bond stiffness.
func Stiffness(kSingle float64, o Order) float64 {
	return kSingle * (1 + stiffGrowth*float64(o-1))
}

// PairBase returns the single-bond equilibrium length and base stiffness for
// an element pair. Symmetric in a and b.
func PairBase(a, b Element) (r0Single, kBase float64) {
	pa, pb := a.Props(), b.Props()
	return pa.Radius + pb.Radius, 0.5 * (pa.Stiff + pb.Stiff)
}
