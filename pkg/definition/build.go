/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: build.go
Description: Builds a ready to evaluate System from a validated definition using the
core fuzzy API, and describes the system for printing and HTTP summaries.
*/

package definition

import (
	"context"
	"fmt"

	"github.com/kleascm/akaylee-fls/pkg/fuzzy"
)

// System is a built fuzzy system: its variables, their terms and the rulebase
type System struct {
	Name        string
	Description string
	Inputs      []*fuzzy.Input
	Outputs     []*fuzzy.Output
	Rulebase    *fuzzy.Rulebase

	def   *Definition
	terms map[string][]fuzzy.MembershipFunction
}

// Build validates def and constructs every variable, term and rule. Options are
// applied after the definition's policy so callers may override it.
func Build(def *Definition, opts ...fuzzy.Option) (*System, error) {
	if def == nil {
		return nil, fmt.Errorf("%w: nil definition", ErrInvalidDefinition)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	policy, err := fuzzy.ParseNoFirePolicy(def.Policy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}

	sys := &System{
		Name:        def.Name,
		Description: def.Description,
		def:         def,
		terms:       make(map[string][]fuzzy.MembershipFunction),
	}

	antecedents := make(map[string]*fuzzy.Antecedent)
	for _, v := range def.Inputs {
		domain, err := fuzzy.NewDomain(v.Domain.Lower, v.Domain.Upper)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", v.Name, err)
		}
		in, err := fuzzy.NewInput(v.Name, domain)
		if err != nil {
			return nil, err
		}
		for _, t := range v.Terms {
			mf, err := buildTerm(t)
			if err != nil {
				return nil, fmt.Errorf("input %q: %w", v.Name, err)
			}
			a, err := fuzzy.NewAntecedent(t.Name, mf, in)
			if err != nil {
				return nil, err
			}
			antecedents[Ref(v.Name, t.Name)] = a
			sys.terms[v.Name] = append(sys.terms[v.Name], mf)
		}
		sys.Inputs = append(sys.Inputs, in)
	}

	consequents := make(map[string]*fuzzy.Consequent)
	for _, v := range def.Outputs {
		domain, err := fuzzy.NewDomain(v.Domain.Lower, v.Domain.Upper)
		if err != nil {
			return nil, fmt.Errorf("output %q: %w", v.Name, err)
		}
		out, err := fuzzy.NewOutput(v.Name, domain)
		if err != nil {
			return nil, err
		}
		if v.Discretization > 0 {
			if err := out.SetDiscretizationLevel(v.Discretization); err != nil {
				return nil, fmt.Errorf("output %q: %w", v.Name, err)
			}
		}
		for _, t := range v.Terms {
			mf, err := buildTerm(t)
			if err != nil {
				return nil, fmt.Errorf("output %q: %w", v.Name, err)
			}
			c, err := fuzzy.NewConsequent(t.Name, mf, out)
			if err != nil {
				return nil, err
			}
			consequents[Ref(v.Name, t.Name)] = c
			sys.terms[v.Name] = append(sys.terms[v.Name], mf)
		}
		sys.Outputs = append(sys.Outputs, out)
	}

	opts = append([]fuzzy.Option{fuzzy.WithNoFirePolicy(policy)}, opts...)
	rb := fuzzy.NewRulebase(len(def.Rules), opts...)
	for i, r := range def.Rules {
		ants := make([]*fuzzy.Antecedent, 0, len(r.If))
		for _, clause := range r.If {
			ants = append(ants, antecedents[clause])
		}
		rule, err := fuzzy.NewRule(consequents[r.Then], ants...)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		if err := rb.AddRule(rule); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
	}
	// Outputs no rule concludes still get a value under the no-fire policy
	for _, out := range sys.Outputs {
		if err := rb.RegisterOutput(out); err != nil {
			return nil, err
		}
	}
	sys.Rulebase = rb
	return sys, nil
}

func buildTerm(t TermDef) (fuzzy.MembershipFunction, error) {
	shape, err := fuzzy.ParseShape(t.Shape)
	if err != nil {
		return fuzzy.MembershipFunction{}, err
	}
	return fuzzy.NewMembershipFunction(t.Name, shape, t.Params[0], t.Params[1], t.Params[2])
}

// Definition returns the document the system was built from
func (s *System) Definition() *Definition { return s.def }

// Terms returns the membership functions of a variable in declaration order
func (s *System) Terms(variable string) ([]fuzzy.MembershipFunction, bool) {
	terms, ok := s.terms[variable]
	return append([]fuzzy.MembershipFunction(nil), terms...), ok
}

// Domain returns the domain of an input or output by name
func (s *System) Domain(variable string) (fuzzy.Domain, bool) {
	for _, in := range s.Inputs {
		if in.Name() == variable {
			return in.Domain(), true
		}
	}
	for _, out := range s.Outputs {
		if out.Name() == variable {
			return out.Domain(), true
		}
	}
	return fuzzy.Domain{}, false
}

// Sample samples every term of a variable at n evenly spaced points over its domain
func (s *System) Sample(variable string, n int) ([]string, [][]fuzzy.Point, error) {
	domain, ok := s.Domain(variable)
	if !ok {
		return nil, nil, fmt.Errorf("unknown variable %q", variable)
	}
	terms := s.terms[variable]
	names := make([]string, len(terms))
	curves := make([][]fuzzy.Point, len(terms))
	for i, mf := range terms {
		points, err := fuzzy.Sample(mf, domain, n)
		if err != nil {
			return nil, nil, err
		}
		names[i] = mf.Name()
		curves[i] = points
	}
	return names, curves, nil
}

// Predict evaluates the system for one set of input values, keyed by output name
func (s *System) Predict(values fuzzy.Values, mode fuzzy.Mode) (map[string]float64, error) {
	return s.PredictContext(context.Background(), values, mode)
}

// PredictContext is Predict with cancellation
func (s *System) PredictContext(ctx context.Context, values fuzzy.Values, mode fuzzy.Mode) (map[string]float64, error) {
	result, err := s.Rulebase.EvaluateContext(ctx, values, mode)
	if err != nil {
		return nil, err
	}
	return result.ByName(), nil
}

// VariableSummary is the printable shape of one variable
type VariableSummary struct {
	Name           string        `json:"name"`
	Kind           string        `json:"kind"`
	Domain         fuzzy.Domain  `json:"domain"`
	Discretization int           `json:"discretization,omitempty"`
	Terms          []TermSummary `json:"terms"`
}

// TermSummary is the printable shape of one term
type TermSummary struct {
	Name   string     `json:"name"`
	Shape  string     `json:"shape"`
	Params [3]float64 `json:"params"`
}

// Summary describes a system without exposing engine internals
type Summary struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Policy      string            `json:"policy"`
	Variables   []VariableSummary `json:"variables"`
	Rules       []string          `json:"rules"`
}

// Summarize returns the system summary used by describe and GET /v1/system
func (s *System) Summarize() Summary {
	sum := Summary{
		Name:        s.Name,
		Description: s.Description,
		Policy:      s.Rulebase.Policy().String(),
	}
	for _, in := range s.Inputs {
		sum.Variables = append(sum.Variables, s.variableSummary(in.Name(), "input", in.Domain(), 0))
	}
	for _, out := range s.Outputs {
		sum.Variables = append(sum.Variables, s.variableSummary(out.Name(), "output", out.Domain(), out.DiscretizationLevel()))
	}
	for _, r := range s.Rulebase.Rules() {
		sum.Rules = append(sum.Rules, r.String())
	}
	return sum
}

func (s *System) variableSummary(name, kind string, domain fuzzy.Domain, discretization int) VariableSummary {
	vs := VariableSummary{Name: name, Kind: kind, Domain: domain, Discretization: discretization}
	for _, mf := range s.terms[name] {
		a, b, c := mf.Params()
		vs.Terms = append(vs.Terms, TermSummary{Name: mf.Name(), Shape: mf.Shape().String(), Params: [3]float64{a, b, c}})
	}
	return vs
}
