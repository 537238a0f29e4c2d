/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: domain.go
Description: Closed numeric interval used by inputs, outputs and membership functions
for bounds checking and discretization.
*/

package fuzzy

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Domain is the closed interval [Lower, Upper]
type Domain struct {
	Lower float64 `json:"lower" yaml:"lower"`
	Upper float64 `json:"upper" yaml:"upper"`
}

// NewDomain creates a domain, requiring finite bounds with lower < upper
func NewDomain(lower, upper float64) (Domain, error) {
	d := Domain{Lower: lower, Upper: upper}
	if err := d.Validate(); err != nil {
		return Domain{}, err
	}
	return d, nil
}

// Validate checks the interval invariants
func (d Domain) Validate() error {
	if !isFinite(d.Lower) || !isFinite(d.Upper) {
		return fmt.Errorf("%w: bounds must be finite, got [%v, %v]", ErrInvalidDomain, d.Lower, d.Upper)
	}
	if d.Lower >= d.Upper {
		return fmt.Errorf("%w: lower %v must be below upper %v", ErrInvalidDomain, d.Lower, d.Upper)
	}
	return nil
}

// Contains reports whether x lies inside the closed interval
func (d Domain) Contains(x float64) bool {
	return x >= d.Lower && x <= d.Upper
}

// Size returns the width of the interval
func (d Domain) Size() float64 {
	return d.Upper - d.Lower
}

// Midpoint returns the centre of the interval
func (d Domain) Midpoint() float64 {
	return d.Lower + d.Size()/2
}

// Clamp limits x to the interval
func (d Domain) Clamp(x float64) float64 {
	return math.Max(d.Lower, math.Min(d.Upper, x))
}

// Discretize returns n evenly spaced points, the first being Lower and the last Upper
func (d Domain) Discretize(n int) ([]float64, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDiscretization, n)
	}
	return floats.Span(make([]float64, n), d.Lower, d.Upper), nil
}

func (d Domain) String() string {
	return fmt.Sprintf("[%g, %g]", d.Lower, d.Upper)
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
