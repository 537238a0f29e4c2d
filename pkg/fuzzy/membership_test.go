/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: membership_test.go
Description: Tests for domains and membership function shapes. Covers breakpoint
values, monotonicity, shoulders, shape validation and curve sampling.
*/

package fuzzy_test

import (
	"math"
	"testing"

	"github.com/kleascm/akaylee-fls/pkg/fuzzy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDomain tests domain construction and helpers
func TestDomain(t *testing.T) {
	d, err := fuzzy.NewDomain(0, 30)
	require.NoError(t, err)
	assert.Equal(t, 30.0, d.Size())
	assert.Equal(t, 15.0, d.Midpoint())
	assert.True(t, d.Contains(0))
	assert.True(t, d.Contains(30))
	assert.False(t, d.Contains(30.01))
	assert.Equal(t, 30.0, d.Clamp(45))
	assert.Equal(t, 0.0, d.Clamp(-1))

	_, err = fuzzy.NewDomain(5, 5)
	assert.ErrorIs(t, err, fuzzy.ErrInvalidDomain)
	_, err = fuzzy.NewDomain(10, 0)
	assert.ErrorIs(t, err, fuzzy.ErrInvalidDomain)
	_, err = fuzzy.NewDomain(math.Inf(-1), 0)
	assert.ErrorIs(t, err, fuzzy.ErrInvalidDomain)
}

// TestDomainDiscretize tests evenly spaced sampling of a domain
func TestDomainDiscretize(t *testing.T) {
	d, err := fuzzy.NewDomain(0, 10)
	require.NoError(t, err)

	xs, err := d.Discretize(11)
	require.NoError(t, err)
	require.Len(t, xs, 11)
	for i, x := range xs {
		assert.InDelta(t, float64(i), x, 1e-12)
	}
	assert.Equal(t, 0.0, xs[0])
	assert.Equal(t, 10.0, xs[10])

	_, err = d.Discretize(1)
	assert.ErrorIs(t, err, fuzzy.ErrInvalidDiscretization)
}

// TestTriangularBreakpoints tests the defining points of a triangular function
func TestTriangularBreakpoints(t *testing.T) {
	mf, err := fuzzy.Triangular("medium", 0, 5, 10)
	require.NoError(t, err)

	cases := []struct {
		x    float64
		want float64
	}{
		{-1, 0},
		{0, 0},
		{2.5, 0.5},
		{5, 1},
		{7.5, 0.5},
		{10, 0},
		{11, 0},
	}
	for _, tc := range cases {
		assert.InDelta(t, tc.want, mf.Membership(tc.x), 1e-12, "x=%v", tc.x)
	}

	a, b, c := mf.Params()
	assert.Equal(t, [3]float64{0, 5, 10}, [3]float64{a, b, c})
	assert.Equal(t, 5.0, mf.Peak())
	lo, hi := mf.Support()
	assert.Equal(t, [2]float64{0, 10}, [2]float64{lo, hi})
	assert.Equal(t, "medium", mf.Name())
	assert.Equal(t, fuzzy.ShapeTriangular, mf.Shape())
}

// TestTriangularStepEdges tests degenerate sides where breakpoints coincide
func TestTriangularStepEdges(t *testing.T) {
	left, err := fuzzy.Triangular("low", 0, 0, 15)
	require.NoError(t, err)
	assert.Equal(t, 1.0, left.Membership(0))
	assert.InDelta(t, 2.0/3.0, left.Membership(5), 1e-12)
	assert.Equal(t, 0.0, left.Membership(15))

	right, err := fuzzy.Triangular("high", 15, 30, 30)
	require.NoError(t, err)
	assert.Equal(t, 1.0, right.Membership(30))
	assert.InDelta(t, 1.0/3.0, right.Membership(20), 1e-12)
	assert.Equal(t, 0.0, right.Membership(15))
	assert.Equal(t, 0.0, right.Membership(31))
}

// TestTriangularMonotonic tests rising and falling segments of a triangular function
func TestTriangularMonotonic(t *testing.T) {
	mf, err := fuzzy.Triangular("mild", 18, 20.5, 23)
	require.NoError(t, err)

	prev := mf.Membership(18)
	for i := 0; i <= 50; i++ {
		x := 18 + 2.5*float64(i)/50
		mu := mf.Membership(x)
		assert.GreaterOrEqual(t, mu, prev, "rising segment at %v", x)
		prev = mu
	}
	prev = mf.Membership(20.5)
	for i := 0; i <= 50; i++ {
		x := 20.5 + 2.5*float64(i)/50
		mu := mf.Membership(x)
		assert.LessOrEqual(t, mu, prev, "falling segment at %v", x)
		prev = mu
	}
}

// TestGauangleShape tests the Gaussian cap and straight tails
func TestGauangleShape(t *testing.T) {
	mf, err := fuzzy.Gauangle("middle-aged", 0, 10, 20)
	require.NoError(t, err)

	assert.Equal(t, 0.0, mf.Membership(0))
	assert.Equal(t, 0.0, mf.Membership(20))
	assert.Equal(t, 1.0, mf.Membership(10))
	assert.InDelta(t, math.Exp(-0.5), mf.Membership(5), 1e-12)
	assert.InDelta(t, math.Exp(-0.5), mf.Membership(15), 1e-12)
	assert.InDelta(t, math.Exp(-0.125), mf.Membership(7.5), 1e-12)
	assert.InDelta(t, 0.5*math.Exp(-0.5), mf.Membership(2.5), 1e-12)

	// Continuous where the cap meets the tail
	assert.InDelta(t, mf.Membership(5-1e-9), mf.Membership(5+1e-9), 1e-6)

	prev := 0.0
	for i := 0; i <= 100; i++ {
		x := float64(i) / 10
		mu := mf.Membership(x)
		assert.GreaterOrEqual(t, mu, prev)
		assert.True(t, mu >= 0 && mu <= 1)
		prev = mu
	}
	for i := 100; i <= 200; i++ {
		x := float64(i) / 10
		mu := mf.Membership(x)
		assert.LessOrEqual(t, mu, prev)
		prev = mu
	}
}

// TestGauangleShoulders tests open-ended categories at the domain bounds
func TestGauangleShoulders(t *testing.T) {
	young, err := fuzzy.Gauangle("young", 0, 0, 24)
	require.NoError(t, err)
	assert.Equal(t, 1.0, young.Membership(0))
	assert.InDelta(t, math.Exp(-0.5), young.Membership(12), 1e-12)
	assert.Equal(t, 0.0, young.Membership(24))

	old, err := fuzzy.Gauangle("old", 64, 100, 100)
	require.NoError(t, err)
	assert.Equal(t, 1.0, old.Membership(100))
	assert.Equal(t, 0.0, old.Membership(64))
	assert.Equal(t, 0.0, old.Membership(30))
}

// TestShapeInvalid tests construction with non-monotonic breakpoints
func TestShapeInvalid(t *testing.T) {
	_, err := fuzzy.Triangular("bad", 5, 1, 10)
	assert.ErrorIs(t, err, fuzzy.ErrShapeInvalid)

	_, err = fuzzy.Gauangle("bad", 0, 10, 5)
	assert.ErrorIs(t, err, fuzzy.ErrShapeInvalid)

	_, err = fuzzy.Triangular("nan", math.NaN(), 1, 2)
	assert.ErrorIs(t, err, fuzzy.ErrShapeInvalid)

	_, err = fuzzy.NewMembershipFunction("unknown", fuzzy.Shape(42), 0, 1, 2)
	assert.ErrorIs(t, err, fuzzy.ErrShapeInvalid)

	_, err = fuzzy.ParseShape("trapezoid")
	assert.ErrorIs(t, err, fuzzy.ErrShapeInvalid)

	shape, err := fuzzy.ParseShape("gauangle")
	require.NoError(t, err)
	assert.Equal(t, fuzzy.ShapeGauangle, shape)
}

// TestMembershipBounded tests that membership never leaves [0,1]
func TestMembershipBounded(t *testing.T) {
	tri, err := fuzzy.Triangular("t", 1, 2, 4)
	require.NoError(t, err)
	gau, err := fuzzy.Gauangle("g", 1, 2, 4)
	require.NoError(t, err)

	for x := -5.0; x <= 10; x += 0.01 {
		for _, mf := range []fuzzy.MembershipFunction{tri, gau} {
			mu := mf.Membership(x)
			assert.True(t, mu >= 0 && mu <= 1, "%s at %v = %v", mf.Name(), x, mu)
		}
	}
	assert.Equal(t, 0.0, tri.Membership(math.NaN()))
}

// TestSample tests membership sampling over a caller-chosen discretization
func TestSample(t *testing.T) {
	mf, err := fuzzy.Triangular("small", 0, 0, 5)
	require.NoError(t, err)
	d, err := fuzzy.NewDomain(0, 10)
	require.NoError(t, err)

	points, err := fuzzy.Sample(mf, d, 11)
	require.NoError(t, err)
	require.Len(t, points, 11)
	assert.Equal(t, fuzzy.Point{X: 0, Mu: 1}, points[0])
	assert.InDelta(t, 0.6, points[2].Mu, 1e-12)
	assert.Equal(t, 0.0, points[10].Mu)

	_, err = fuzzy.Sample(mf, d, 0)
	assert.ErrorIs(t, err, fuzzy.ErrInvalidDiscretization)
}
