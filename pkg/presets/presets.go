/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: presets.go
Description: Built-in fuzzy systems available by name to the CLI and the server.
*/

package presets

import (
	"fmt"
	"sort"

	"github.com/kleascm/akaylee-fls/pkg/definition"
)

// registry maps preset names to definition constructors
var registry = map[string]func() *definition.Definition{
	"dementia": Dementia,
	"tipping":  Tipping,
}

// Names returns the registered preset names in sorted order
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a fresh copy of the named preset definition
func Lookup(name string) (*definition.Definition, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q (available: %v)", name, Names())
	}
	return ctor(), nil
}

func tri(name string, a, b, c float64) definition.TermDef {
	return definition.TermDef{Name: name, Shape: "triangular", Params: []float64{a, b, c}}
}

func gau(name string, a, b, c float64) definition.TermDef {
	return definition.TermDef{Name: name, Shape: "gauangle", Params: []float64{a, b, c}}
}

func rule(then string, clauses ...string) definition.RuleDef {
	return definition.RuleDef{If: clauses, Then: then}
}
