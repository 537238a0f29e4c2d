/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: system.go
Description: Tables describing fuzzy systems and evaluations: variables and terms,
rules, results, per-rule firing traces and sampled membership curves.
*/

package reporting

import (
	"fmt"
	"sort"

	"github.com/kleascm/akaylee-fls/pkg/definition"
	"github.com/kleascm/akaylee-fls/pkg/fuzzy"
)

// Variables renders every variable with its domain and terms
func Variables(sum definition.Summary, m Mode) string {
	t := NewTable(m, fmt.Sprintf("%s: variables", sum.Name))
	t.Header("Variable", "Kind", "Domain", "Term", "Shape", "Params")
	for _, v := range sum.Variables {
		for i, term := range v.Terms {
			name, kind, domain := "", "", ""
			if i == 0 {
				name, kind = v.Name, v.Kind
				domain = fmt.Sprintf("[%g, %g]", v.Domain.Lower, v.Domain.Upper)
			}
			t.Row(name, kind, domain, term.Name, term.Shape,
				fmt.Sprintf("%g, %g, %g", term.Params[0], term.Params[1], term.Params[2]))
		}
	}
	return t.String()
}

// Rules renders the numbered rule list
func Rules(sum definition.Summary, m Mode) string {
	t := NewTable(m, fmt.Sprintf("%s: %d rules (no-fire policy %s)", sum.Name, len(sum.Rules), sum.Policy))
	t.Header("#", "Rule")
	for i, r := range sum.Rules {
		t.Row(i+1, r)
	}
	t.AlignRight(1)
	return t.String()
}

// Result renders output values sorted by name
func Result(title string, result map[string]float64, m Mode) string {
	names := make([]string, 0, len(result))
	for name := range result {
		names = append(names, name)
	}
	sort.Strings(names)

	t := NewTable(m, title)
	t.Header("Output", "Value")
	for _, name := range names {
		t.Row(name, Number(result[name]))
	}
	t.AlignRight(2)
	return t.String()
}

// Trace renders the firing strength of every rule and the outputs of an explanation.
// Rules that did not fire are skipped unless all is set.
func Trace(exp *fuzzy.Explanation, all bool, m Mode) string {
	t := NewTable(m, fmt.Sprintf("Rule trace (%s)", exp.Mode))
	t.Header("#", "Rule", "Strength")
	fired := 0
	for _, f := range exp.Firings {
		if f.Strength > 0 {
			fired++
		} else if !all {
			continue
		}
		t.Row(f.Index, f.Rule, Number(f.Strength))
	}
	t.Footer("", fmt.Sprintf("%d of %d rules fired", fired, len(exp.Firings)), "")
	t.AlignRight(1, 3)

	out := NewTable(m, "Outputs")
	out.Header("Output", "Value", "Fallback")
	for _, o := range exp.Outputs {
		fallback := ""
		if o.Fallback {
			fallback = "midpoint"
		}
		out.Row(o.Output, Number(o.Value), fallback)
	}
	out.AlignRight(2)
	return t.String() + "\n" + out.String()
}

// Samples renders sampled membership curves, one column per term
func Samples(variable string, terms []string, curves [][]fuzzy.Point, m Mode) string {
	t := NewTable(m, fmt.Sprintf("%s membership", variable))
	header := append([]string{"x"}, terms...)
	t.Header(header...)
	if len(curves) == 0 {
		return t.String()
	}
	align := make([]int, len(header))
	for i := range align {
		align[i] = i + 1
	}
	for i := range curves[0] {
		row := make([]any, 0, len(header))
		row = append(row, Number(curves[0][i].X))
		for _, c := range curves {
			row = append(row, Number(c[i].Mu))
		}
		t.Row(row...)
	}
	t.AlignRight(align...)
	return t.String()
}
