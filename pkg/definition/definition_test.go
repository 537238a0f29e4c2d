/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: definition_test.go
Description: Tests for definition parsing, validation, building and marshalling.
*/

package definition_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kleascm/akaylee-fls/pkg/definition"
	"github.com/kleascm/akaylee-fls/pkg/fuzzy"
	"github.com/kleascm/akaylee-fls/pkg/presets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const blendYAML = `
name: blend
policy: midpoint
inputs:
  - name: x
    domain: {lower: 0, upper: 30}
    terms:
      - {name: low, shape: triangular, params: [0, 0, 20]}
      - {name: high, shape: triangular, params: [10, 30, 30]}
outputs:
  - name: y
    domain: {lower: 0, upper: 10}
    discretization: 11
    terms:
      - {name: small, shape: triangular, params: [0, 0, 5]}
      - {name: large, shape: triangular, params: [5, 10, 10]}
rules:
  - {if: [x.low], then: y.small}
  - {if: [x.high], then: y.large}
`

// TestParseAndBuild tests the YAML path end to end
func TestParseAndBuild(t *testing.T) {
	def, err := definition.Parse([]byte(blendYAML), definition.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "blend", def.Name)
	require.Len(t, def.Rules, 2)

	sys, err := definition.Build(def)
	require.NoError(t, err)
	assert.Equal(t, 11, sys.Outputs[0].DiscretizationLevel())
	assert.Same(t, def, sys.Definition())

	height, err := sys.Predict(fuzzy.Values{"x": 12}, fuzzy.ModeHeight)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, height["y"], 1e-12)

	centroid, err := sys.Predict(fuzzy.Values{"x": 12}, fuzzy.ModeCentroid)
	require.NoError(t, err)
	assert.InDelta(t, 72.0/23.0, centroid["y"], 1e-9)

	sum := sys.Summarize()
	assert.Equal(t, "midpoint", sum.Policy)
	require.Len(t, sum.Variables, 2)
	assert.Equal(t, "input", sum.Variables[0].Kind)
	assert.Equal(t, [3]float64{0, 0, 20}, sum.Variables[0].Terms[0].Params)
	assert.Equal(t, []string{"IF x is low THEN y is small", "IF x is high THEN y is large"}, sum.Rules)
}

// TestValidationErrors tests structural and referential problems
func TestValidationErrors(t *testing.T) {
	base := func() *definition.Definition {
		def, err := definition.Parse([]byte(blendYAML), definition.FormatYAML)
		require.NoError(t, err)
		return def
	}

	cases := map[string]func(d *definition.Definition){
		"missing name":        func(d *definition.Definition) { d.Name = "" },
		"unknown shape":       func(d *definition.Definition) { d.Inputs[0].Terms[0].Shape = "trapezoid" },
		"two params":          func(d *definition.Definition) { d.Inputs[0].Terms[0].Params = []float64{0, 1} },
		"inverted domain":     func(d *definition.Definition) { d.Inputs[0].Domain = definition.DomainDef{Lower: 5, Upper: 1} },
		"tiny discretization": func(d *definition.Definition) { d.Outputs[0].Discretization = 1 },
		"bad policy":          func(d *definition.Definition) { d.Policy = "panic" },
		"no rules":            func(d *definition.Definition) { d.Rules = nil },
		"malformed ref":       func(d *definition.Definition) { d.Rules[0].If = []string{"xlow"} },
		"unknown input":       func(d *definition.Definition) { d.Rules[0].If = []string{"z.low"} },
		"unknown term":        func(d *definition.Definition) { d.Rules[0].If = []string{"x.medium"} },
		"output as input":     func(d *definition.Definition) { d.Rules[0].If = []string{"y.small"} },
		"unknown output term": func(d *definition.Definition) { d.Rules[0].Then = "y.huge" },
		"duplicate term":      func(d *definition.Definition) { d.Inputs[0].Terms[1].Name = "low" },
		"duplicate variable":  func(d *definition.Definition) { d.Outputs[0].Name = "x" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			def := base()
			mutate(def)
			assert.ErrorIs(t, def.Validate(), definition.ErrInvalidDefinition)
			_, err := definition.Build(def)
			assert.Error(t, err)
		})
	}
}

// TestBuildRejectsTermOutsideDomain tests breakpoints beyond the variable domain
func TestBuildRejectsTermOutsideDomain(t *testing.T) {
	def, err := definition.Parse([]byte(blendYAML), definition.FormatYAML)
	require.NoError(t, err)
	def.Outputs[0].Terms[1].Params = []float64{5, 10, 12}
	_, err = definition.Build(def)
	assert.ErrorIs(t, err, fuzzy.ErrDomainMismatch)

	def.Outputs[0].Terms[1].Params = []float64{10, 5, 1}
	_, err = definition.Build(def)
	assert.ErrorIs(t, err, fuzzy.ErrShapeInvalid)
}

// TestParseRejectsUnknownFields tests strict decoding
func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := definition.Parse([]byte("name: x\nfrobnicate: true\n"), definition.FormatYAML)
	assert.Error(t, err)
	_, err = definition.Parse([]byte(`{"name":"x","frobnicate":true}`), definition.FormatJSON)
	assert.Error(t, err)
	_, err = definition.Parse([]byte("name: x"), definition.Format("toml"))
	assert.Error(t, err)
}

// TestErrorPolicy tests that the definition policy reaches the rulebase
func TestErrorPolicy(t *testing.T) {
	def, err := definition.Parse([]byte(blendYAML), definition.FormatYAML)
	require.NoError(t, err)
	def.Policy = "error"
	def.Inputs[0].Terms[0].Params = []float64{0, 0, 15}
	def.Inputs[0].Terms[1].Params = []float64{15, 30, 30}

	sys, err := definition.Build(def)
	require.NoError(t, err)
	assert.Equal(t, fuzzy.FailOnNoFire, sys.Rulebase.Policy())
	_, err = sys.Predict(fuzzy.Values{"x": 15}, fuzzy.ModeCentroid)
	assert.ErrorIs(t, err, fuzzy.ErrNoRuleFired)

	// Caller options override the document
	lenient, err := definition.Build(def, fuzzy.WithNoFirePolicy(fuzzy.FallbackMidpoint))
	require.NoError(t, err)
	result, err := lenient.Predict(fuzzy.Values{"x": 15}, fuzzy.ModeCentroid)
	require.NoError(t, err)
	assert.Equal(t, 5.0, result["y"])
}

// TestOutputWithoutRulesIsEvaluated tests that declared outputs always get a value
func TestOutputWithoutRulesIsEvaluated(t *testing.T) {
	def, err := definition.Parse([]byte(blendYAML), definition.FormatYAML)
	require.NoError(t, err)
	def.Outputs = append(def.Outputs, definition.VariableDef{
		Name:   "spare",
		Domain: definition.DomainDef{Lower: -4, Upper: 4},
		Terms:  []definition.TermDef{{Name: "zero", Shape: "gauangle", Params: []float64{-1, 0, 1}}},
	})
	sys, err := definition.Build(def)
	require.NoError(t, err)

	result, err := sys.Predict(fuzzy.Values{"x": 3}, fuzzy.ModeHeight)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result["spare"])
	assert.Len(t, result, 2)
}

// TestRoundTrip tests that a preset survives marshalling in both formats
func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	values := fuzzy.Values{"mmse": 20, "age": 70, "cdr": 0.7, "mr_delay": 1100}

	original, err := definition.Build(presets.Dementia())
	require.NoError(t, err)
	want, err := original.Predict(values, fuzzy.ModeCentroid)
	require.NoError(t, err)

	for _, file := range []string{"dementia.yaml", "dementia.json"} {
		path := filepath.Join(dir, file)
		require.NoError(t, definition.Save(presets.Dementia(), path))

		loaded, err := definition.Load(path)
		require.NoError(t, err, file)
		assert.Equal(t, presets.Dementia(), loaded, file)

		sys, err := definition.Build(loaded)
		require.NoError(t, err)
		got, err := sys.Predict(values, fuzzy.ModeCentroid)
		require.NoError(t, err)
		assert.Equal(t, want, got, file)
	}

	_, err = definition.Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// TestSplitRef tests clause parsing
func TestSplitRef(t *testing.T) {
	v, term, err := definition.SplitRef("mr_delay.long")
	require.NoError(t, err)
	assert.Equal(t, "mr_delay", v)
	assert.Equal(t, "long", term)

	v, term, err = definition.SplitRef("sensor.temp.high")
	require.NoError(t, err)
	assert.Equal(t, "sensor.temp", v)
	assert.Equal(t, "high", term)

	for _, bad := range []string{"", "x", ".low", "x."} {
		_, _, err := definition.SplitRef(bad)
		assert.ErrorIs(t, err, definition.ErrInvalidDefinition, bad)
	}
}
