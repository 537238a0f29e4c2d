/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: rule.go
Description: Antecedents, consequents and rules. Antecedents bind a membership function
to an input, consequents bind one to an output, and a rule AND-combines its antecedents
with the minimum t-norm.
*/

package fuzzy

import (
	"fmt"
	"math"
	"strings"
)

// Values maps input names to crisp values for one evaluation
type Values map[string]float64

// Antecedent is a linguistic term over an input
type Antecedent struct {
	name  string
	mf    MembershipFunction
	input *Input
}

// NewAntecedent binds mf to input. Breakpoints must lie inside the input domain.
func NewAntecedent(name string, mf MembershipFunction, input *Input) (*Antecedent, error) {
	if input == nil {
		return nil, fmt.Errorf("antecedent %q: input must not be nil", name)
	}
	if !mf.Within(input.Domain()) {
		return nil, fmt.Errorf("%w: antecedent %q membership %s exceeds input %q domain %s",
			ErrDomainMismatch, name, mf, input.Name(), input.Domain())
	}
	return &Antecedent{name: name, mf: mf, input: input}, nil
}

// Name returns the antecedent label
func (a *Antecedent) Name() string { return a.name }

// MembershipFunction returns the bound membership function
func (a *Antecedent) MembershipFunction() MembershipFunction { return a.mf }

// Input returns the referenced input
func (a *Antecedent) Input() *Input { return a.input }

// FiringDegree returns the membership of the input's value in values
func (a *Antecedent) FiringDegree(values Values) (float64, error) {
	x, ok := values[a.input.Name()]
	if !ok {
		return 0, fmt.Errorf("%w: %q (antecedent %q)", ErrInputNotSet, a.input.Name(), a.name)
	}
	return a.mf.Membership(x), nil
}

func (a *Antecedent) String() string {
	return fmt.Sprintf("%s is %s", a.input.Name(), a.name)
}

// Consequent is a linguistic term over an output
type Consequent struct {
	name   string
	mf     MembershipFunction
	output *Output
}

// NewConsequent binds mf to output. Breakpoints must lie inside the output domain.
func NewConsequent(name string, mf MembershipFunction, output *Output) (*Consequent, error) {
	if output == nil {
		return nil, fmt.Errorf("consequent %q: output must not be nil", name)
	}
	if !mf.Within(output.Domain()) {
		return nil, fmt.Errorf("%w: consequent %q membership %s exceeds output %q domain %s",
			ErrDomainMismatch, name, mf, output.Name(), output.Domain())
	}
	return &Consequent{name: name, mf: mf, output: output}, nil
}

// Name returns the consequent label
func (c *Consequent) Name() string { return c.name }

// MembershipFunction returns the bound membership function
func (c *Consequent) MembershipFunction() MembershipFunction { return c.mf }

// Output returns the targeted output
func (c *Consequent) Output() *Output { return c.output }

func (c *Consequent) String() string {
	return fmt.Sprintf("%s is %s", c.output.Name(), c.name)
}

// Rule is IF antecedent AND ... THEN consequent
type Rule struct {
	antecedents []*Antecedent
	consequent  *Consequent
}

// NewRule creates a rule from at least one antecedent
func NewRule(consequent *Consequent, antecedents ...*Antecedent) (*Rule, error) {
	if consequent == nil {
		return nil, fmt.Errorf("rule consequent must not be nil")
	}
	if len(antecedents) == 0 {
		return nil, fmt.Errorf("%w: consequent %q", ErrEmptyRule, consequent.Name())
	}
	for i, a := range antecedents {
		if a == nil {
			return nil, fmt.Errorf("rule for %q: antecedent %d is nil", consequent.Name(), i)
		}
	}
	return &Rule{
		antecedents: append([]*Antecedent(nil), antecedents...),
		consequent:  consequent,
	}, nil
}

// Antecedents returns a copy of the rule's antecedents in order
func (r *Rule) Antecedents() []*Antecedent {
	return append([]*Antecedent(nil), r.antecedents...)
}

// Consequent returns the rule's conclusion
func (r *Rule) Consequent() *Consequent { return r.consequent }

// FiringStrength is the minimum of the antecedents' firing degrees
func (r *Rule) FiringStrength(values Values) (float64, error) {
	strength := math.Inf(1)
	for _, a := range r.antecedents {
		degree, err := a.FiringDegree(values)
		if err != nil {
			return 0, err
		}
		strength = math.Min(strength, degree)
	}
	return strength, nil
}

func (r *Rule) String() string {
	parts := make([]string, len(r.antecedents))
	for i, a := range r.antecedents {
		parts[i] = a.String()
	}
	return fmt.Sprintf("IF %s THEN %s", strings.Join(parts, " AND "), r.consequent)
}
