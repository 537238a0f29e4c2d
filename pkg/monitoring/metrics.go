/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: metrics.go
Description: Prometheus metrics for evaluations, no-fire fallbacks, the result cache,
definition reloads and batch rows. A Recorder also keeps in-process totals that the
health endpoint and the batch summary report without scraping.
*/

package monitoring

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/kleascm/akaylee-fls/pkg/fuzzy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

const namespace = "fls"

// Result labels
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Recorder records evaluation metrics on a Prometheus registry
type Recorder struct {
	evaluations  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	errorsByKind *prometheus.CounterVec
	fallbacks    *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	reloads      *prometheus.CounterVec
	batchRows    *prometheus.CounterVec
	rules        *prometheus.GaugeVec

	startTime   time.Time
	total       atomic.Int64
	failed      atomic.Int64
	fallbackCnt atomic.Int64

	logger *logrus.Logger
}

// NewRecorder creates the collectors and registers them on reg. A nil reg
// creates an unregistered recorder, useful for one-shot CLI runs.
func NewRecorder(reg prometheus.Registerer, logger *logrus.Logger) *Recorder {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	factory := promauto.With(reg)
	return &Recorder{
		evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Total rulebase evaluations by system, mode and result",
		}, []string{"system", "mode", "result"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "Rulebase evaluation latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10), // 10us to ~2.6s
		}, []string{"system", "mode"}),
		errorsByKind: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluation_errors_total",
			Help:      "Failed evaluations by error kind",
		}, []string{"system", "kind"}),
		fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "no_rule_fired_fallbacks_total",
			Help:      "Outputs resolved to their domain midpoint because no rule fired",
		}, []string{"system", "output"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by outcome",
		}, []string{"outcome"}),
		reloads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "definition_reloads_total",
			Help:      "Definition hot reloads by result",
		}, []string{"result"}),
		batchRows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_rows_total",
			Help:      "Batch rows evaluated by result",
		}, []string{"result"}),
		rules: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rules",
			Help:      "Number of rules in the active system",
		}, []string{"system"}),
		startTime: time.Now(),
		logger:    logger,
	}
}

// ErrorKind classifies an evaluation error for the errors metric
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, fuzzy.ErrNoRuleFired):
		return "no_rule_fired"
	case errors.Is(err, fuzzy.ErrDomainMismatch):
		return "domain_mismatch"
	case errors.Is(err, fuzzy.ErrInputNotSet):
		return "input_not_set"
	case errors.Is(err, fuzzy.ErrUnknownMode):
		return "unknown_mode"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}

// ObserveEvaluation records one evaluation outcome
func (r *Recorder) ObserveEvaluation(system string, mode fuzzy.Mode, duration time.Duration, err error) {
	r.total.Add(1)
	result := ResultOK
	if err != nil {
		result = ResultError
		r.failed.Add(1)
		r.errorsByKind.WithLabelValues(system, ErrorKind(err)).Inc()
	}
	r.evaluations.WithLabelValues(system, mode.String(), result).Inc()
	r.latency.WithLabelValues(system, mode.String()).Observe(duration.Seconds())
}

// ObserveExplanation records fallbacks reported by an explanation
func (r *Recorder) ObserveExplanation(system string, exp *fuzzy.Explanation) {
	if exp == nil {
		return
	}
	for _, o := range exp.Outputs {
		if o.Fallback {
			r.fallbackCnt.Add(1)
			r.fallbacks.WithLabelValues(system, o.Output).Inc()
		}
	}
}

// Explain evaluates through rb.Explain and records latency, errors and fallbacks
func (r *Recorder) Explain(ctx context.Context, system string, rb *fuzzy.Rulebase, values fuzzy.Values, mode fuzzy.Mode) (*fuzzy.Explanation, error) {
	start := time.Now()
	exp, err := rb.Explain(ctx, values, mode)
	r.ObserveEvaluation(system, mode, time.Since(start), err)
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"system": system,
			"mode":   mode.String(),
			"kind":   ErrorKind(err),
		}).WithError(err).Debug("Evaluation failed")
		return nil, err
	}
	r.ObserveExplanation(system, exp)
	return exp, nil
}

// CacheHit records a result cache hit
func (r *Recorder) CacheHit() { r.cacheLookups.WithLabelValues("hit").Inc() }

// CacheMiss records a result cache miss
func (r *Recorder) CacheMiss() { r.cacheLookups.WithLabelValues("miss").Inc() }

// ObserveReload records a definition reload
func (r *Recorder) ObserveReload(err error) {
	if err != nil {
		r.reloads.WithLabelValues(ResultError).Inc()
		return
	}
	r.reloads.WithLabelValues(ResultOK).Inc()
}

// ObserveBatchRow records one batch row
func (r *Recorder) ObserveBatchRow(err error) {
	if err != nil {
		r.batchRows.WithLabelValues(ResultError).Inc()
		return
	}
	r.batchRows.WithLabelValues(ResultOK).Inc()
}

// SetRules publishes the rule count of the active system
func (r *Recorder) SetRules(system string, n int) {
	r.rules.Reset()
	r.rules.WithLabelValues(system).Set(float64(n))
}

// Snapshot is the in-process view of the recorder totals
type Snapshot struct {
	Uptime      time.Duration `json:"uptime"`
	Evaluations int64         `json:"evaluations"`
	Failed      int64         `json:"failed"`
	Fallbacks   int64         `json:"fallbacks"`
}

// Snapshot returns the totals since the recorder was created
func (r *Recorder) Snapshot() Snapshot {
	return Snapshot{
		Uptime:      time.Since(r.startTime),
		Evaluations: r.total.Load(),
		Failed:      r.failed.Load(),
		Fallbacks:   r.fallbackCnt.Load(),
	}
}
