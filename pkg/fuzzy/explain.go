/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: explain.go
Description: Evaluation explanations. Exposes per-rule firing strengths, fallback
flags and the aggregated centroid curve so callers can print why a result came out
the way it did.
*/

package fuzzy

import (
	"context"
)

// RuleFiring is the firing strength of one rule during an evaluation
type RuleFiring struct {
	Index    int     `json:"index"`
	Rule     string  `json:"rule"`
	Output   string  `json:"output"`
	Strength float64 `json:"strength"`
}

// OutputExplanation describes how one output was defuzzified
type OutputExplanation struct {
	Output    string  `json:"output"`
	Value     float64 `json:"value"`
	Fallback  bool    `json:"fallback"`
	Aggregate []Point `json:"aggregate,omitempty"`
}

// Explanation is a complete account of one evaluation
type Explanation struct {
	Mode    string              `json:"mode"`
	Values  Values              `json:"values"`
	Outputs []OutputExplanation `json:"outputs"`
	Firings []RuleFiring        `json:"firings"`
}

// Result converts the explanation back into output values keyed by name
func (e *Explanation) Result() map[string]float64 {
	out := make(map[string]float64, len(e.Outputs))
	for _, o := range e.Outputs {
		out[o.Output] = o.Value
	}
	return out
}

// Explain evaluates like EvaluateContext and additionally reports rule firings in
// rulebase order. Centroid explanations carry the aggregated membership curve.
func (rb *Rulebase) Explain(ctx context.Context, values Values, mode Mode) (*Explanation, error) {
	ev, err := rb.run(ctx, values, mode, true)
	if err != nil {
		return nil, err
	}

	strength := make(map[*Rule]float64, len(ev.rules))
	exp := &Explanation{
		Mode:    mode.String(),
		Values:  make(Values, len(ev.inputs)),
		Outputs: make([]OutputExplanation, 0, len(ev.outcomes)),
		Firings: make([]RuleFiring, 0, len(ev.rules)),
	}
	for _, in := range ev.inputs {
		exp.Values[in.Name()] = values[in.Name()]
	}
	for _, oc := range ev.outcomes {
		for i, r := range oc.rules {
			strength[r] = oc.strengths[i]
		}
		exp.Outputs = append(exp.Outputs, OutputExplanation{
			Output:    oc.output.Name(),
			Value:     oc.value,
			Fallback:  oc.fallback,
			Aggregate: oc.aggregate,
		})
	}
	for i, r := range ev.rules {
		exp.Firings = append(exp.Firings, RuleFiring{
			Index:    i + 1,
			Rule:     r.String(),
			Output:   r.consequent.output.Name(),
			Strength: strength[r],
		})
	}
	return exp, nil
}
