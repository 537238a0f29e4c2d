/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: membership.go
Description: Type-1 membership functions. Shapes form a closed set selected by a tag,
with a single pure evaluation operation that maps a crisp value to a degree in [0,1].
*/

package fuzzy

import (
	"fmt"
	"math"
)

// Shape identifies the membership function variant
type Shape int

const (
	ShapeTriangular Shape = iota
	ShapeGauangle
)

// String returns the lowercase shape name used in definitions and output
func (s Shape) String() string {
	switch s {
	case ShapeTriangular:
		return "triangular"
	case ShapeGauangle:
		return "gauangle"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// ParseShape converts a shape name into its tag
func ParseShape(name string) (Shape, error) {
	switch name {
	case "triangular", "triangle", "tri":
		return ShapeTriangular, nil
	case "gauangle":
		return ShapeGauangle, nil
	default:
		return 0, fmt.Errorf("%w: unknown shape %q", ErrShapeInvalid, name)
	}
}

// gauangleCap is the membership where the Gaussian cap hands over to the
// straight tail, i.e. the Gaussian value at its inflection point.
var gauangleCap = math.Exp(-0.5)

// MembershipFunction is an immutable membership function with three breakpoints.
// For both shapes a is the left foot, b the peak and c the right foot.
type MembershipFunction struct {
	name  string
	shape Shape
	a     float64
	b     float64
	c     float64
}

// Triangular creates a triangular membership function (a <= b <= c)
func Triangular(name string, a, b, c float64) (MembershipFunction, error) {
	return newMembershipFunction(name, ShapeTriangular, a, b, c)
}

// Gauangle creates a Gaussian-angle membership function (a <= b <= c).
// The curve is a Gaussian cap around b whose tails continue as straight lines
// tangent at the inflection points, reaching zero at a and c. When a == b (or
// b == c) the left (right) side is an open shoulder with membership 1.
func Gauangle(name string, a, b, c float64) (MembershipFunction, error) {
	return newMembershipFunction(name, ShapeGauangle, a, b, c)
}

// NewMembershipFunction creates a membership function of the given shape
func NewMembershipFunction(name string, shape Shape, a, b, c float64) (MembershipFunction, error) {
	return newMembershipFunction(name, shape, a, b, c)
}

func newMembershipFunction(name string, shape Shape, a, b, c float64) (MembershipFunction, error) {
	if shape != ShapeTriangular && shape != ShapeGauangle {
		return MembershipFunction{}, fmt.Errorf("%w: %s", ErrShapeInvalid, shape)
	}
	if !isFinite(a) || !isFinite(b) || !isFinite(c) {
		return MembershipFunction{}, fmt.Errorf("%w: %s %q has non-finite breakpoints", ErrShapeInvalid, shape, name)
	}
	if a > b || b > c {
		return MembershipFunction{}, fmt.Errorf("%w: %s %q breakpoints (%g, %g, %g) must be non-decreasing",
			ErrShapeInvalid, shape, name, a, b, c)
	}
	return MembershipFunction{name: name, shape: shape, a: a, b: b, c: c}, nil
}

// Membership returns the degree of membership of x, always in [0,1]
func (mf MembershipFunction) Membership(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	switch mf.shape {
	case ShapeTriangular:
		return mf.triangular(x)
	case ShapeGauangle:
		return mf.gauangle(x)
	default:
		return 0
	}
}

func (mf MembershipFunction) triangular(x float64) float64 {
	switch {
	case x == mf.b:
		return 1
	case x > mf.a && x < mf.b:
		return (x - mf.a) / (mf.b - mf.a)
	case x > mf.b && x < mf.c:
		return (mf.c - x) / (mf.c - mf.b)
	default:
		return 0
	}
}

func (mf MembershipFunction) gauangle(x float64) float64 {
	switch {
	case x == mf.b:
		return 1
	case x < mf.b:
		if mf.a == mf.b {
			return 1
		}
		return gauangleSide((mf.b - x) / (mf.b - mf.a))
	default:
		if mf.b == mf.c {
			return 1
		}
		return gauangleSide((x - mf.b) / (mf.c - mf.b))
	}
}

// gauangleSide evaluates one side of the gauangle curve at normalised distance
// u from the peak (u = 1 at the foot).
func gauangleSide(u float64) float64 {
	switch {
	case u >= 1:
		return 0
	case u <= 0.5:
		return math.Exp(-2 * u * u)
	default:
		return gauangleCap * 2 * (1 - u)
	}
}

// Name returns the linguistic label of the function
func (mf MembershipFunction) Name() string { return mf.name }

// Shape returns the variant tag
func (mf MembershipFunction) Shape() Shape { return mf.shape }

// Params returns the defining breakpoints
func (mf MembershipFunction) Params() (a, b, c float64) { return mf.a, mf.b, mf.c }

// Peak returns the representative value used by height defuzzification
func (mf MembershipFunction) Peak() float64 { return mf.b }

// Support returns the outer breakpoints. Shoulders (a == b or b == c) stay at 1 past
// the matching end, so outside (lower, upper) the membership is not necessarily 0.
func (mf MembershipFunction) Support() (lower, upper float64) { return mf.a, mf.c }

// Within reports whether every breakpoint lies inside d
func (mf MembershipFunction) Within(d Domain) bool {
	return d.Contains(mf.a) && d.Contains(mf.b) && d.Contains(mf.c)
}

func (mf MembershipFunction) String() string {
	return fmt.Sprintf("%s %s(%g, %g, %g)", mf.name, mf.shape, mf.a, mf.b, mf.c)
}

// Point is one sample of a membership curve
type Point struct {
	X  float64 `json:"x"`
	Mu float64 `json:"mu"`
}

// Sample evaluates mf at n evenly spaced points of d. This is the hook used by
// plotting and reporting code; it never touches engine state.
func Sample(mf MembershipFunction, d Domain, n int) ([]Point, error) {
	xs, err := d.Discretize(n)
	if err != nil {
		return nil, err
	}
	points := make([]Point, len(xs))
	for i, x := range xs {
		points[i] = Point{X: x, Mu: mf.Membership(x)}
	}
	return points, nil
}
