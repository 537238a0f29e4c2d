/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: definition.go
Description: Persisted fuzzy system definitions. A definition describes inputs, outputs,
their linguistic terms and the rules connecting them as a YAML or JSON document. This
package loads, validates and marshals definitions; build.go turns them into a rulebase.
*/

package definition

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidDefinition wraps every structural or referential definition problem
var ErrInvalidDefinition = errors.New("invalid definition")

// Format is a definition serialization format
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from a file extension, defaulting to YAML
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Definition is the document form of a fuzzy system
type Definition struct {
	Name        string        `yaml:"name" json:"name" validate:"required"`
	Description string        `yaml:"description,omitempty" json:"description,omitempty"`
	Policy      string        `yaml:"policy,omitempty" json:"policy,omitempty" validate:"omitempty,oneof=midpoint error"`
	Inputs      []VariableDef `yaml:"inputs" json:"inputs" validate:"required,min=1,dive"`
	Outputs     []VariableDef `yaml:"outputs" json:"outputs" validate:"required,min=1,dive"`
	Rules       []RuleDef     `yaml:"rules" json:"rules" validate:"required,min=1,dive"`
}

// VariableDef describes an input or output variable and its terms
type VariableDef struct {
	Name   string    `yaml:"name" json:"name" validate:"required"`
	Domain DomainDef `yaml:"domain" json:"domain"`
	// Discretization only applies to outputs; zero means the default level
	Discretization int       `yaml:"discretization,omitempty" json:"discretization,omitempty" validate:"omitempty,min=2"`
	Terms          []TermDef `yaml:"terms" json:"terms" validate:"required,min=1,dive"`
}

// DomainDef is the closed interval of a variable
type DomainDef struct {
	Lower float64 `yaml:"lower" json:"lower"`
	Upper float64 `yaml:"upper" json:"upper" validate:"gtfield=Lower"`
}

// TermDef is a named membership function over a variable
type TermDef struct {
	Name   string    `yaml:"name" json:"name" validate:"required"`
	Shape  string    `yaml:"shape" json:"shape" validate:"required,oneof=triangular gauangle"`
	Params []float64 `yaml:"params,flow" json:"params" validate:"len=3"`
}

// RuleDef is one IF-THEN rule. Clauses reference terms as "variable.term".
type RuleDef struct {
	If   []string `yaml:"if,flow" json:"if" validate:"required,min=1,dive,termref"`
	Then string   `yaml:"then" json:"then" validate:"required,termref"`
}

// definitionValidate is shared by every Validate call
var definitionValidate *validator.Validate

func init() {
	definitionValidate = validator.New()
	_ = definitionValidate.RegisterValidation("termref", validateTermRef)
}

// validateTermRef checks the "variable.term" clause form
func validateTermRef(fl validator.FieldLevel) bool {
	_, _, err := SplitRef(fl.Field().String())
	return err == nil
}

// SplitRef splits a "variable.term" reference. The term is everything after the
// last dot so variable names may contain dots.
func SplitRef(ref string) (variable, term string, err error) {
	i := strings.LastIndexByte(ref, '.')
	if i <= 0 || i == len(ref)-1 {
		return "", "", fmt.Errorf("%w: reference %q must look like variable.term", ErrInvalidDefinition, ref)
	}
	return ref[:i], ref[i+1:], nil
}

// Ref joins a variable and term into a rule clause
func Ref(variable, term string) string {
	return variable + "." + term
}

// Validate runs struct-level validation and the cross-reference checks that tags
// cannot express: unique names and rules that reference declared terms.
func (d *Definition) Validate() error {
	if err := definitionValidate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidDefinition, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}

	inputs := make(map[string]map[string]bool, len(d.Inputs))
	outputs := make(map[string]map[string]bool, len(d.Outputs))
	collect := func(kind string, vars []VariableDef, into map[string]map[string]bool) error {
		for _, v := range vars {
			if _, dup := inputs[v.Name]; dup {
				return fmt.Errorf("%w: duplicate variable %q", ErrInvalidDefinition, v.Name)
			}
			if _, dup := outputs[v.Name]; dup {
				return fmt.Errorf("%w: duplicate variable %q", ErrInvalidDefinition, v.Name)
			}
			terms := make(map[string]bool, len(v.Terms))
			for _, t := range v.Terms {
				if terms[t.Name] {
					return fmt.Errorf("%w: %s %q has duplicate term %q", ErrInvalidDefinition, kind, v.Name, t.Name)
				}
				terms[t.Name] = true
			}
			into[v.Name] = terms
		}
		return nil
	}
	if err := collect("input", d.Inputs, inputs); err != nil {
		return err
	}
	if err := collect("output", d.Outputs, outputs); err != nil {
		return err
	}

	for i, r := range d.Rules {
		for _, clause := range r.If {
			v, t, _ := SplitRef(clause)
			terms, ok := inputs[v]
			if !ok {
				return fmt.Errorf("%w: rule %d references unknown input %q", ErrInvalidDefinition, i+1, v)
			}
			if !terms[t] {
				return fmt.Errorf("%w: rule %d references unknown term %q of input %q", ErrInvalidDefinition, i+1, t, v)
			}
		}
		v, t, _ := SplitRef(r.Then)
		terms, ok := outputs[v]
		if !ok {
			return fmt.Errorf("%w: rule %d concludes unknown output %q", ErrInvalidDefinition, i+1, v)
		}
		if !terms[t] {
			return fmt.Errorf("%w: rule %d concludes unknown term %q of output %q", ErrInvalidDefinition, i+1, t, v)
		}
	}
	return nil
}

// Parse decodes and validates a definition document
func Parse(data []byte, format Format) (*Definition, error) {
	var def Definition
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("failed to decode JSON definition: %w", err)
		}
	case FormatYAML, "":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("failed to decode YAML definition: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported definition format %q", format)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Load reads a definition file, choosing the format from its extension
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition %s: %w", path, err)
	}
	def, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Marshal encodes a definition in the requested format
func Marshal(def *Definition, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(def, "", "  ")
	case FormatYAML, "":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(def); err != nil {
			return nil, fmt.Errorf("failed to encode YAML definition: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported definition format %q", format)
	}
}

// Save writes a definition to path in the format implied by its extension
func Save(def *Definition, path string) error {
	data, err := Marshal(def, FormatFromPath(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write definition %s: %w", path, err)
	}
	return nil
}
