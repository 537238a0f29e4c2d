/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: defuzzify.go
Description: Height and centroid defuzzification. Both work on the rules targeting a
single output and report a zero total weight as a fallback for the rulebase policy.
*/

package fuzzy

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// outputOutcome is the defuzzified state of one output
type outputOutcome struct {
	output    *Output
	value     float64
	fallback  bool
	rules     []*Rule
	strengths []float64
	aggregate []Point
}

func defuzzify(o *Output, rules []*Rule, values Values, mode Mode, keepAggregate bool) (outputOutcome, error) {
	oc := outputOutcome{output: o, rules: rules, strengths: make([]float64, len(rules))}
	for i, r := range rules {
		fs, err := r.FiringStrength(values)
		if err != nil {
			return outputOutcome{}, err
		}
		oc.strengths[i] = fs
	}

	switch mode {
	case ModeHeight:
		value, ok := height(rules, oc.strengths)
		oc.value, oc.fallback = value, !ok
	case ModeCentroid:
		xs, err := o.Domain().Discretize(o.DiscretizationLevel())
		if err != nil {
			return outputOutcome{}, err
		}
		agg := aggregate(xs, rules, oc.strengths)
		value, ok := centroid(xs, agg)
		oc.value, oc.fallback = value, !ok
		if keepAggregate {
			oc.aggregate = make([]Point, len(xs))
			for i := range xs {
				oc.aggregate[i] = Point{X: xs[i], Mu: agg[i]}
			}
		}
	}
	return oc, nil
}

// height returns sum(fs*peak)/sum(fs); ok is false when nothing fired
func height(rules []*Rule, strengths []float64) (float64, bool) {
	total := floats.Sum(strengths)
	if total == 0 {
		return 0, false
	}
	peaks := make([]float64, len(rules))
	for i, r := range rules {
		peaks[i] = r.consequent.mf.Peak()
	}
	return floats.Dot(strengths, peaks) / total, true
}

// aggregate clips every consequent by its rule's firing strength (min) and
// unions the clipped sets (max) at each sample point.
func aggregate(xs []float64, rules []*Rule, strengths []float64) []float64 {
	agg := make([]float64, len(xs))
	for j, r := range rules {
		fs := strengths[j]
		if fs == 0 {
			continue
		}
		mf := r.consequent.mf
		for i, x := range xs {
			agg[i] = math.Max(agg[i], math.Min(fs, mf.Membership(x)))
		}
	}
	return agg
}

// centroid returns sum(x*agg)/sum(agg); ok is false when the aggregate is empty
func centroid(xs, agg []float64) (float64, bool) {
	total := floats.Sum(agg)
	if total == 0 {
		return 0, false
	}
	return floats.Dot(xs, agg) / total, true
}
