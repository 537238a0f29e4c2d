/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: rulebase.go
Description: Rulebase holding an ordered collection of rules. Evaluation is a pure
function of the supplied input values: rules are partitioned by target output when
they are added, every output is defuzzified independently, and a fresh result map is
returned without mutating engine structure.
*/

package fuzzy

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Mode selects the defuzzification strategy
type Mode int

const (
	// ModeHeight is the weighted average of consequent peaks by firing strength
	ModeHeight Mode = iota
	// ModeCentroid is the discretized centroid of the min-max aggregated set
	ModeCentroid
)

// String returns the mode name
func (m Mode) String() string {
	switch m {
	case ModeHeight:
		return "height"
	case ModeCentroid:
		return "centroid"
	default:
		return "mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// ParseMode accepts "height"/"centroid" as well as the numeric forms 0/1
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "height", "0":
		return ModeHeight, nil
	case "centroid", "1":
		return ModeCentroid, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

func (m Mode) valid() bool {
	return m == ModeHeight || m == ModeCentroid
}

// NoFirePolicy decides what an output evaluates to when no rule contributes to it
type NoFirePolicy int

const (
	// FallbackMidpoint resolves the output to the midpoint of its domain
	FallbackMidpoint NoFirePolicy = iota
	// FailOnNoFire fails the evaluation with ErrNoRuleFired
	FailOnNoFire
)

// String returns the policy name used in definitions
func (p NoFirePolicy) String() string {
	if p == FailOnNoFire {
		return "error"
	}
	return "midpoint"
}

// ParseNoFirePolicy accepts "midpoint" or "error"
func ParseNoFirePolicy(s string) (NoFirePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "midpoint":
		return FallbackMidpoint, nil
	case "error", "fail":
		return FailOnNoFire, nil
	default:
		return 0, fmt.Errorf("unknown no-fire policy %q", s)
	}
}

// Option configures a Rulebase
type Option func(*Rulebase)

// WithLogger sets the logger used for evaluation diagnostics
func WithLogger(logger *logrus.Logger) Option {
	return func(rb *Rulebase) {
		if logger != nil {
			rb.logger = logger
		}
	}
}

// WithNoFirePolicy sets the NoRuleFired policy, applied to both modes
func WithNoFirePolicy(p NoFirePolicy) Option {
	return func(rb *Rulebase) { rb.policy = p }
}

// WithParallelism bounds how many outputs are defuzzified concurrently
func WithParallelism(n int) Option {
	return func(rb *Rulebase) {
		if n > 0 {
			rb.parallelism = n
		}
	}
}

// Result maps each evaluated output to its crisp value
type Result map[*Output]float64

// Get returns the value computed for o
func (r Result) Get(o *Output) (float64, bool) {
	v, ok := r[o]
	return v, ok
}

// ByName returns the result keyed by output name
func (r Result) ByName() map[string]float64 {
	out := make(map[string]float64, len(r))
	for o, v := range r {
		out[o.Name()] = v
	}
	return out
}

// Rulebase is an ordered collection of rules
type Rulebase struct {
	mu sync.RWMutex

	rules   []*Rule
	inputs  []*Input
	outputs []*Output

	// Partition of rules by target output, maintained on insert
	byOutput    map[*Output][]*Rule
	inputNames  map[string]*Input
	outputNames map[string]*Output

	logger      *logrus.Logger
	policy      NoFirePolicy
	parallelism int
}

// NewRulebase creates an empty rulebase. capacityHint pre-sizes rule storage.
func NewRulebase(capacityHint int, opts ...Option) *Rulebase {
	if capacityHint < 0 {
		capacityHint = 0
	}
	rb := &Rulebase{
		rules:       make([]*Rule, 0, capacityHint),
		byOutput:    make(map[*Output][]*Rule),
		inputNames:  make(map[string]*Input),
		outputNames: make(map[string]*Output),
		logger:      logrus.StandardLogger(),
		policy:      FallbackMidpoint,
		parallelism: 1,
	}
	for _, opt := range opts {
		opt(rb)
	}
	return rb
}

// AddRule appends a rule, registering its inputs and output
func (rb *Rulebase) AddRule(rule *Rule) error {
	if rule == nil {
		return fmt.Errorf("rule must not be nil")
	}

	rb.mu.Lock()
	defer rb.mu.Unlock()

	// Validate everything before mutating so a rejected rule leaves no trace.
	// Inputs of this rule count too, two of them may collide with each other.
	seen := make(map[string]*Input, len(rule.antecedents))
	for _, a := range rule.antecedents {
		name := a.input.Name()
		existing, ok := rb.inputNames[name]
		if !ok {
			existing, ok = seen[name]
		}
		if ok && existing != a.input {
			return fmt.Errorf("%w: input %q", ErrDuplicateName, name)
		}
		seen[name] = a.input
	}
	out := rule.consequent.output
	if existing, ok := rb.outputNames[out.Name()]; ok && existing != out {
		return fmt.Errorf("%w: output %q", ErrDuplicateName, out.Name())
	}

	for _, a := range rule.antecedents {
		if _, ok := rb.inputNames[a.input.Name()]; !ok {
			rb.inputNames[a.input.Name()] = a.input
			rb.inputs = append(rb.inputs, a.input)
		}
	}
	rb.registerOutputLocked(out)
	rb.byOutput[out] = append(rb.byOutput[out], rule)
	rb.rules = append(rb.rules, rule)
	return nil
}

// RegisterOutput makes o part of every evaluation even if no rule targets it
func (rb *Rulebase) RegisterOutput(o *Output) error {
	if o == nil {
		return fmt.Errorf("output must not be nil")
	}
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if existing, ok := rb.outputNames[o.Name()]; ok && existing != o {
		return fmt.Errorf("%w: output %q", ErrDuplicateName, o.Name())
	}
	rb.registerOutputLocked(o)
	return nil
}

func (rb *Rulebase) registerOutputLocked(o *Output) {
	if _, ok := rb.outputNames[o.Name()]; ok {
		return
	}
	rb.outputNames[o.Name()] = o
	rb.outputs = append(rb.outputs, o)
}

// Rules returns the rules in insertion order
func (rb *Rulebase) Rules() []*Rule {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return append([]*Rule(nil), rb.rules...)
}

// Inputs returns the inputs referenced by the rules, in first-use order
func (rb *Rulebase) Inputs() []*Input {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return append([]*Input(nil), rb.inputs...)
}

// Outputs returns the evaluated outputs, in first-use order
func (rb *Rulebase) Outputs() []*Output {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return append([]*Output(nil), rb.outputs...)
}

// Input looks up a referenced input by name
func (rb *Rulebase) Input(name string) (*Input, bool) {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	in, ok := rb.inputNames[name]
	return in, ok
}

// Output looks up an evaluated output by name
func (rb *Rulebase) Output(name string) (*Output, bool) {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	o, ok := rb.outputNames[name]
	return o, ok
}

// RulesFor returns the rules whose consequent targets o
func (rb *Rulebase) RulesFor(o *Output) []*Rule {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return append([]*Rule(nil), rb.byOutput[o]...)
}

// Len returns the number of rules
func (rb *Rulebase) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return len(rb.rules)
}

// Policy returns the NoRuleFired policy in effect
func (rb *Rulebase) Policy() NoFirePolicy { return rb.policy }

// CurrentValues snapshots the current value of every referenced input
func (rb *Rulebase) CurrentValues() (Values, error) {
	inputs := rb.Inputs()
	values := make(Values, len(inputs))
	for _, in := range inputs {
		v, ok := in.Value()
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInputNotSet, in.Name())
		}
		values[in.Name()] = v
	}
	return values, nil
}

// Evaluate defuzzifies every output using the inputs' current values
func (rb *Rulebase) Evaluate(mode Mode) (Result, error) {
	values, err := rb.CurrentValues()
	if err != nil {
		return nil, err
	}
	return rb.EvaluateContext(context.Background(), values, mode)
}

// EvaluateWith defuzzifies every output using the supplied values. It holds no
// shared mutable state and is safe to call concurrently.
func (rb *Rulebase) EvaluateWith(values Values, mode Mode) (Result, error) {
	return rb.EvaluateContext(context.Background(), values, mode)
}

// EvaluateContext is EvaluateWith with cancellation
func (rb *Rulebase) EvaluateContext(ctx context.Context, values Values, mode Mode) (Result, error) {
	ev, err := rb.run(ctx, values, mode, false)
	if err != nil {
		return nil, err
	}
	result := make(Result, len(ev.outcomes))
	for _, oc := range ev.outcomes {
		result[oc.output] = oc.value
	}
	return result, nil
}

// evaluation is the outcome of one run together with the rules and inputs it saw
type evaluation struct {
	outcomes []outputOutcome
	rules    []*Rule
	inputs   []*Input
}

// run validates values and defuzzifies every output. Either all outputs succeed
// or the evaluation fails as a whole.
func (rb *Rulebase) run(ctx context.Context, values Values, mode Mode, keepAggregate bool) (*evaluation, error) {
	if !mode.valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMode, mode)
	}

	rb.mu.RLock()
	defer rb.mu.RUnlock()

	for _, in := range rb.inputs {
		x, ok := values[in.Name()]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInputNotSet, in.Name())
		}
		if err := in.check(x); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	outcomes := make([]outputOutcome, len(rb.outputs))
	evaluate := func(ctx context.Context, i int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		o := rb.outputs[i]
		oc, err := defuzzify(o, rb.byOutput[o], values, mode, keepAggregate)
		if err != nil {
			return err
		}
		if oc.fallback {
			if err := rb.applyPolicy(&oc, mode); err != nil {
				return err
			}
		}
		outcomes[i] = oc
		return nil
	}

	if rb.parallelism > 1 && len(rb.outputs) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(rb.parallelism)
		for i := range rb.outputs {
			i := i
			g.Go(func() error { return evaluate(gctx, i) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range rb.outputs {
			if err := evaluate(ctx, i); err != nil {
				return nil, err
			}
		}
	}

	if rb.logger.IsLevelEnabled(logrus.DebugLevel) {
		rb.logger.WithFields(logrus.Fields{
			"mode":     mode.String(),
			"rules":    len(rb.rules),
			"outputs":  len(rb.outputs),
			"duration": time.Since(start),
		}).Debug("Rulebase evaluated")
	}
	// rules and inputs are append-only, so the headers stay valid after unlock
	return &evaluation{outcomes: outcomes, rules: rb.rules, inputs: rb.inputs}, nil
}

func (rb *Rulebase) applyPolicy(oc *outputOutcome, mode Mode) error {
	if rb.policy == FailOnNoFire {
		return fmt.Errorf("%w: output %q (%s)", ErrNoRuleFired, oc.output.Name(), mode)
	}
	oc.value = oc.output.Domain().Midpoint()
	rb.logger.WithFields(logrus.Fields{
		"output": oc.output.Name(),
		"mode":   mode.String(),
		"value":  oc.value,
	}).Warn("No rule fired, falling back to domain midpoint")
	return nil
}

func (rb *Rulebase) String() string {
	rules := rb.Rules()
	var b strings.Builder
	fmt.Fprintf(&b, "Rulebase (%d rules)\n", len(rules))
	for i, r := range rules {
		fmt.Fprintf(&b, "%3d: %s\n", i+1, r)
	}
	return b.String()
}
