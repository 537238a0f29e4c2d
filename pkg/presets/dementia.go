/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: dementia.go
Description: Dementia state prediction from MMSE score, age, clinical dementia rating
and MRI visit delay. Four inputs, one output and 49 rules.
*/

package presets

import (
	"github.com/kleascm/akaylee-fls/pkg/definition"
)

// Variable names of the dementia system
const (
	VarMMSE     = "mmse"
	VarAge      = "age"
	VarCDR      = "cdr"
	VarMRDelay  = "mr_delay"
	VarDementia = "dementia"
)

// Dementia returns the dementia prediction system. Output terms place non-demented
// around 2, converted around 5 and demented around 8 on a 0-10 scale.
func Dementia() *definition.Definition {
	def := &definition.Definition{
		Name:        "dementia",
		Description: "Dementia state from MMSE, age, clinical dementia rating and MR delay",
		Policy:      "midpoint",
		Inputs: []definition.VariableDef{
			{
				Name:   VarMMSE,
				Domain: definition.DomainDef{Lower: 0, Upper: 30},
				Terms: []definition.TermDef{
					tri("severe", 0, 0, 17),
					tri("mild", 18, 20.5, 23),
					tri("none", 24, 30, 30),
				},
			},
			{
				Name:   VarAge,
				Domain: definition.DomainDef{Lower: 0, Upper: 100},
				Terms: []definition.TermDef{
					gau("young", 0, 0, 24),
					gau("middle", 24, 44, 64),
					gau("old", 64, 100, 100),
				},
			},
			{
				Name:   VarCDR,
				Domain: definition.DomainDef{Lower: 0, Upper: 3},
				Terms: []definition.TermDef{
					tri("none", 0, 0, 0.5),
					tri("very_mild", 0, 0.5, 1),
					tri("mild", 0.5, 1, 2),
					tri("moderate", 1, 2, 3),
					tri("severe", 2, 3, 3),
				},
			},
			{
				Name:   VarMRDelay,
				Domain: definition.DomainDef{Lower: 0, Upper: 2639},
				Terms: []definition.TermDef{
					gau("short", 0, 0, 675.9),
					gau("moderate", 676, 1319.1, 1456.9),
					gau("long", 1457, 2639, 2639),
				},
			},
		},
		Outputs: []definition.VariableDef{
			{
				Name:           VarDementia,
				Domain:         definition.DomainDef{Lower: 0, Upper: 10},
				Discretization: 100,
				Terms: []definition.TermDef{
					gau("non_demented", 0, 2, 4),
					gau("converted", 3, 5, 7),
					gau("demented", 6, 8, 10),
				},
			},
		},
	}
	def.Rules = dementiaRules()
	return def
}

func dementiaRules() []definition.RuleDef {
	ref := definition.Ref
	demented := ref(VarDementia, "demented")
	converted := ref(VarDementia, "converted")
	impaired := []string{"very_mild", "mild", "moderate", "severe"}

	rules := []definition.RuleDef{
		rule(ref(VarDementia, "non_demented"), ref(VarCDR, "none")),
	}
	// Any impairment seen shortly after the first visit
	for _, cdr := range impaired {
		rules = append(rules, rule(demented, ref(VarCDR, cdr), ref(VarMRDelay, "short")))
	}
	// Impairment with a reduced MMSE at later visits
	for _, delay := range []string{"moderate", "long"} {
		for _, mmse := range []string{"severe", "mild"} {
			for _, cdr := range impaired {
				rules = append(rules, rule(demented, ref(VarCDR, cdr), ref(VarMRDelay, delay), ref(VarMMSE, mmse)))
			}
		}
	}
	// Impairment with a normal MMSE after a long delay suggests conversion
	for _, cdr := range impaired {
		rules = append(rules, rule(converted, ref(VarCDR, cdr), ref(VarMRDelay, "long"), ref(VarMMSE, "none")))
	}
	// Age refinements of the moderate delay rules
	for _, age := range []string{"old", "middle", "young"} {
		for _, mmse := range []string{"severe", "mild"} {
			for _, cdr := range impaired {
				rules = append(rules, rule(demented, ref(VarCDR, cdr), ref(VarMRDelay, "moderate"), ref(VarMMSE, mmse), ref(VarAge, age)))
			}
		}
	}
	return rules
}
