/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: commands_test.go
Description: Tests for command helpers: system selection, value parsing, batch
evaluation and output, validation and export.
*/

package commands

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kleascm/akaylee-fls/pkg/definition"
	"github.com/kleascm/akaylee-fls/pkg/fuzzy"
	"github.com/kleascm/akaylee-fls/pkg/monitoring"
	"github.com/kleascm/akaylee-fls/pkg/presets"
	"github.com/kleascm/akaylee-fls/pkg/reporting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tipping(t *testing.T) *definition.System {
	t.Helper()
	sys, err := loadSystem("tipping", "", nil)
	require.NoError(t, err)
	return sys
}

// TestParseAssignments tests name=value parsing
func TestParseAssignments(t *testing.T) {
	values, err := parseAssignments([]string{"food=7", " service = 9.5 "})
	require.NoError(t, err)
	assert.Equal(t, fuzzy.Values{"food": 7, "service": 9.5}, values)

	for _, bad := range [][]string{{"food"}, {"=3"}, {"food=tasty"}, {"food=1", "food=2"}} {
		_, err := parseAssignments(bad)
		assert.Error(t, err, bad)
	}
}

// TestLoadSystem tests preset and definition selection
func TestLoadSystem(t *testing.T) {
	sys := tipping(t)
	assert.Equal(t, "tipping", sys.Name)

	path := filepath.Join(t.TempDir(), "dementia.json")
	require.NoError(t, exportPreset(nil, "dementia", path, ""))
	sys, err := loadSystem("", path, nil)
	require.NoError(t, err)
	assert.Equal(t, 49, sys.Rulebase.Len())

	_, err = loadSystem("tipping", path, nil)
	assert.Error(t, err)
	_, err = loadSystem("", "", nil)
	assert.ErrorContains(t, err, "dementia, tipping")
	_, err = loadSystem("weather", "", nil)
	assert.Error(t, err)
}

// TestParseOutputFormat tests table and JSON format names
func TestParseOutputFormat(t *testing.T) {
	f, err := parseOutputFormat("JSON")
	require.NoError(t, err)
	assert.True(t, f.json)
	f, err = parseOutputFormat("md")
	require.NoError(t, err)
	assert.Equal(t, outputFormat{table: reporting.Markdown}, f)
	_, err = parseOutputFormat("xml")
	assert.Error(t, err)
}

// TestPrintEvaluation tests JSON and table evaluation output
func TestPrintEvaluation(t *testing.T) {
	sys := tipping(t)
	exp, err := sys.Rulebase.Explain(context.Background(), fuzzy.Values{"food": 10, "service": 10}, fuzzy.ModeHeight)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printEvaluation(&buf, sys, exp, outputFormat{json: true}, true, false))
	var out evaluation
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "tipping", out.System)
	assert.InDelta(t, 30.0, out.Outputs["tip"], 1e-9)
	assert.Len(t, out.Trace, 6)

	buf.Reset()
	require.NoError(t, printEvaluation(&buf, sys, exp, outputFormat{table: reporting.CSV}, false, false))
	assert.Equal(t, "output,value\ntip,30.0000", strings.ToLower(strings.TrimSpace(buf.String())))
}

// TestPrintDescriptionAndSamples tests describe and sample output
func TestPrintDescriptionAndSamples(t *testing.T) {
	sys := tipping(t)
	var buf bytes.Buffer
	require.NoError(t, printDescription(&buf, sys, outputFormat{table: reporting.ASCII}))
	assert.Contains(t, buf.String(), "Tip percentage from food quality and service level")
	assert.Contains(t, buf.String(), "IF food is bad AND service is unfriendly THEN tip is low")

	buf.Reset()
	require.NoError(t, printSamples(&buf, sys, "food", 3, outputFormat{json: true}))
	var out samples
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, fuzzy.Domain{Lower: 0, Upper: 10}, out.Domain)
	assert.Equal(t, []fuzzy.Point{{X: 0, Mu: 0}, {X: 5, Mu: 0.5}, {X: 10, Mu: 1}}, out.Terms["great"])

	assert.Error(t, printSamples(&buf, sys, "weather", 3, outputFormat{}))
}

// TestBatch tests reading, concurrent evaluation and CSV output with failing rows
func TestBatch(t *testing.T) {
	sys := tipping(t)
	input := "food,service\n10,10\n0,0\n11,5\nabc,5\n5,5\n"
	header, rows, err := readRows(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"food", "service"}, header)
	require.Len(t, rows, 5)
	assert.NotEmpty(t, rows[3].Error, "unparseable cell")

	recorder := monitoring.NewRecorder(nil, nil)
	require.NoError(t, evaluateRows(context.Background(), sys, rows, fuzzy.ModeHeight, 3, recorder))
	assert.InDelta(t, 30.0, rows[0].Outputs["tip"], 1e-9)
	assert.InDelta(t, 0.0, rows[1].Outputs["tip"], 1e-9)
	assert.Contains(t, rows[2].Error, "domain mismatch")
	assert.Empty(t, rows[4].Error)
	assert.Equal(t, 2, countFailed(rows))

	want, err := sys.Predict(fuzzy.Values{"food": 5, "service": 5}, fuzzy.ModeHeight)
	require.NoError(t, err)
	assert.InDelta(t, want["tip"], rows[4].Outputs["tip"], 1e-12)

	var buf bytes.Buffer
	require.NoError(t, writeRowsCSV(&buf, header, sys, rows))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 6)
	assert.Equal(t, []string{"row", "food", "service", "tip", "error"}, records[0])
	assert.Equal(t, []string{"1", "10", "10", "30.000000", ""}, records[1])
	assert.Equal(t, "", records[3][3])
	assert.NotEmpty(t, records[3][4])
}

// gapDefinition leaves x in (10, 20) uncovered so nothing fires at 15
const gapDefinition = `
name: gap
inputs:
  - name: x
    domain: {lower: 0, upper: 30}
    terms:
      - {name: low, shape: triangular, params: [0, 0, 10]}
      - {name: high, shape: triangular, params: [20, 30, 30]}
outputs:
  - name: y
    domain: {lower: 0, upper: 10}
    terms:
      - {name: small, shape: triangular, params: [0, 0, 5]}
      - {name: large, shape: triangular, params: [5, 10, 10]}
rules:
  - {if: [x.low], then: y.small}
  - {if: [x.high], then: y.large}
`

// TestBatchFallbacks tests that midpoint fallbacks are reported per row and counted
func TestBatchFallbacks(t *testing.T) {
	def, err := definition.Parse([]byte(gapDefinition), definition.FormatYAML)
	require.NoError(t, err)
	sys, err := definition.Build(def)
	require.NoError(t, err)

	_, rows, err := readRows(strings.NewReader("x\n0\n15\n30\n16\n"))
	require.NoError(t, err)
	recorder := monitoring.NewRecorder(nil, nil)
	require.NoError(t, evaluateRows(context.Background(), sys, rows, fuzzy.ModeHeight, 2, recorder))

	assert.Empty(t, rows[0].Fallbacks)
	assert.Equal(t, []string{"y"}, rows[1].Fallbacks)
	assert.InDelta(t, 5.0, rows[1].Outputs["y"], 1e-12)
	assert.Empty(t, rows[2].Fallbacks)
	assert.Equal(t, []string{"y"}, rows[3].Fallbacks)
	assert.Equal(t, 0, countFailed(rows))

	snap := recorder.Snapshot()
	assert.Equal(t, int64(4), snap.Evaluations)
	assert.Equal(t, int64(2), snap.Fallbacks)
}

// TestBatchCancelled tests that cancellation aborts the batch
func TestBatchCancelled(t *testing.T) {
	sys := tipping(t)
	_, rows, err := readRows(strings.NewReader("food,service\n1,1\n2,2\n"))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, evaluateRows(ctx, sys, rows, fuzzy.ModeCentroid, 1, monitoring.NewRecorder(nil, nil)), context.Canceled)

	_, _, err = readRows(strings.NewReader(""))
	assert.Error(t, err)
}

// TestValidateFiles tests reporting of valid and invalid definitions
func TestValidateFiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "tipping.yaml")
	require.NoError(t, exportPreset(nil, "tipping", good, ""))
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: bad\ninputs: []\n"), 0o644))

	var buf bytes.Buffer
	assert.Equal(t, 2, validateFiles(&buf, []string{good, bad, filepath.Join(dir, "missing.yaml")}))
	assert.Contains(t, buf.String(), "tipping (2 inputs, 1 outputs, 6 rules)")
	assert.Contains(t, buf.String(), "bad.yaml")
}

// TestExportPreset tests format selection and round trips
func TestExportPreset(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, exportPreset(&buf, "tipping", "-", "json"))
	def, err := definition.Parse(buf.Bytes(), definition.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, presets.Tipping(), def)

	buf.Reset()
	require.NoError(t, exportPreset(&buf, "tipping", "", ""))
	def, err = definition.Parse(buf.Bytes(), definition.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "tipping", def.Name)

	assert.Error(t, exportPreset(&buf, "tipping", "", "toml"))
	assert.Error(t, exportPreset(&buf, "weather", "", ""))
}
