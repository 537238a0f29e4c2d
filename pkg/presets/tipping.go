/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: tipping.go
Description: The classic "how much to tip the waiter" system. Food quality and service
level, both rated 0-10, drive a tip percentage between 0 and 30.
*/

package presets

import (
	"github.com/kleascm/akaylee-fls/pkg/definition"
)

// Tipping returns the two-input tipping system
func Tipping() *definition.Definition {
	ref := definition.Ref
	return &definition.Definition{
		Name:        "tipping",
		Description: "Tip percentage from food quality and service level",
		Policy:      "midpoint",
		Inputs: []definition.VariableDef{
			{
				Name:   "food",
				Domain: definition.DomainDef{Lower: 0, Upper: 10},
				Terms: []definition.TermDef{
					tri("bad", 0, 0, 10),
					tri("great", 0, 10, 10),
				},
			},
			{
				Name:   "service",
				Domain: definition.DomainDef{Lower: 0, Upper: 10},
				Terms: []definition.TermDef{
					gau("unfriendly", 0, 0, 6),
					gau("ok", 2.5, 5, 7.5),
					gau("friendly", 4, 10, 10),
				},
			},
		},
		Outputs: []definition.VariableDef{
			{
				Name:           "tip",
				Domain:         definition.DomainDef{Lower: 0, Upper: 30},
				Discretization: 50,
				Terms: []definition.TermDef{
					gau("low", 0, 0, 12),
					tri("medium", 5, 15, 25),
					gau("high", 18, 30, 30),
				},
			},
		},
		Rules: []definition.RuleDef{
			rule(ref("tip", "low"), ref("food", "bad"), ref("service", "unfriendly")),
			rule(ref("tip", "low"), ref("food", "bad"), ref("service", "ok")),
			rule(ref("tip", "medium"), ref("food", "bad"), ref("service", "friendly")),
			rule(ref("tip", "low"), ref("food", "great"), ref("service", "unfriendly")),
			rule(ref("tip", "medium"), ref("food", "great"), ref("service", "ok")),
			rule(ref("tip", "high"), ref("food", "great"), ref("service", "friendly")),
		},
	}
}
