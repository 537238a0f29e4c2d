/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: metrics_test.go
Description: Tests for the Prometheus recorder.
*/

package monitoring_test

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/kleascm/akaylee-fls/pkg/fuzzy"
	"github.com/kleascm/akaylee-fls/pkg/monitoring"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// gapRulebase fires nothing for x >= 4
func gapRulebase(t *testing.T) *fuzzy.Rulebase {
	t.Helper()
	xd, err := fuzzy.NewDomain(0, 10)
	require.NoError(t, err)
	in, err := fuzzy.NewInput("x", xd)
	require.NoError(t, err)
	out, err := fuzzy.NewOutput("y", xd)
	require.NoError(t, err)

	lowMF, err := fuzzy.Triangular("low", 0, 0, 4)
	require.NoError(t, err)
	low, err := fuzzy.NewAntecedent("low", lowMF, in)
	require.NoError(t, err)
	smallMF, err := fuzzy.Triangular("small", 0, 0, 5)
	require.NoError(t, err)
	small, err := fuzzy.NewConsequent("small", smallMF, out)
	require.NoError(t, err)
	r, err := fuzzy.NewRule(small, low)
	require.NoError(t, err)

	rb := fuzzy.NewRulebase(1, fuzzy.WithLogger(quietLogger()))
	require.NoError(t, rb.AddRule(r))
	return rb
}

// TestRecorderExplain tests evaluation, error and fallback accounting
func TestRecorderExplain(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := monitoring.NewRecorder(reg, quietLogger())
	rb := gapRulebase(t)
	ctx := context.Background()

	exp, err := rec.Explain(ctx, "gap", rb, fuzzy.Values{"x": 1}, fuzzy.ModeHeight)
	require.NoError(t, err)
	assert.False(t, exp.Outputs[0].Fallback)

	exp, err = rec.Explain(ctx, "gap", rb, fuzzy.Values{"x": 5}, fuzzy.ModeCentroid)
	require.NoError(t, err)
	assert.True(t, exp.Outputs[0].Fallback)

	_, err = rec.Explain(ctx, "gap", rb, fuzzy.Values{"x": 50}, fuzzy.ModeHeight)
	assert.ErrorIs(t, err, fuzzy.ErrDomainMismatch)

	snap := rec.Snapshot()
	assert.Equal(t, int64(3), snap.Evaluations)
	assert.Equal(t, int64(1), snap.Failed)
	assert.Equal(t, int64(1), snap.Fallbacks)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	for _, want := range []string{
		"fls_evaluations_total",
		"fls_evaluation_duration_seconds",
		"fls_evaluation_errors_total",
		"fls_no_rule_fired_fallbacks_total",
	} {
		assert.True(t, names[want], want)
	}

	expected := `
# HELP fls_no_rule_fired_fallbacks_total Outputs resolved to their domain midpoint because no rule fired
# TYPE fls_no_rule_fired_fallbacks_total counter
fls_no_rule_fired_fallbacks_total{output="y",system="gap"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "fls_no_rule_fired_fallbacks_total"))

	errs := `
# HELP fls_evaluation_errors_total Failed evaluations by error kind
# TYPE fls_evaluation_errors_total counter
fls_evaluation_errors_total{kind="domain_mismatch",system="gap"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(errs), "fls_evaluation_errors_total"))
}

// TestErrorKind tests error classification
func TestErrorKind(t *testing.T) {
	cases := map[string]error{
		"":                nil,
		"no_rule_fired":   fmt.Errorf("wrapped: %w", fuzzy.ErrNoRuleFired),
		"domain_mismatch": fuzzy.ErrDomainMismatch,
		"input_not_set":   fuzzy.ErrInputNotSet,
		"unknown_mode":    fuzzy.ErrUnknownMode,
		"canceled":        context.DeadlineExceeded,
		"other":           io.EOF,
	}
	for want, err := range cases {
		assert.Equal(t, want, monitoring.ErrorKind(err))
	}
}

// TestRecorderCounters tests the cache, reload, batch and rule gauges
func TestRecorderCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := monitoring.NewRecorder(reg, nil)

	rec.CacheHit()
	rec.CacheHit()
	rec.CacheMiss()
	rec.ObserveReload(nil)
	rec.ObserveReload(io.ErrUnexpectedEOF)
	rec.ObserveBatchRow(nil)
	rec.SetRules("dementia", 49)
	rec.SetRules("tipping", 6)

	count, err := testutil.GatherAndCount(reg, "fls_cache_lookups_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	expected := `
# HELP fls_rules Number of rules in the active system
# TYPE fls_rules gauge
fls_rules{system="tipping"} 6
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "fls_rules"))
	assert.GreaterOrEqual(t, rec.Snapshot().Uptime, time.Duration(0))

	// Unregistered recorders work for one-shot runs
	standalone := monitoring.NewRecorder(nil, nil)
	standalone.ObserveEvaluation("x", fuzzy.ModeHeight, time.Millisecond, nil)
	assert.Equal(t, int64(1), standalone.Snapshot().Evaluations)
}
