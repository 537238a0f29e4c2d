/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: variable.go
Description: Named input and output variables. Inputs carry an optional crisp value
set by the caller; outputs carry the discretization level used by centroid
defuzzification.
*/

package fuzzy

import (
	"fmt"
	"sync"
)

// DefaultDiscretizationLevel is the number of samples used for centroid defuzzification
const DefaultDiscretizationLevel = 100

// Input is a named crisp input over a domain
type Input struct {
	name   string
	domain Domain

	mu    sync.RWMutex
	value float64
	set   bool
}

// NewInput creates an input with no value set
func NewInput(name string, domain Domain) (*Input, error) {
	if name == "" {
		return nil, fmt.Errorf("input name must not be empty")
	}
	if err := domain.Validate(); err != nil {
		return nil, fmt.Errorf("input %q: %w", name, err)
	}
	return &Input{name: name, domain: domain}, nil
}

// Name returns the input identifier
func (in *Input) Name() string { return in.name }

// Domain returns the input domain
func (in *Input) Domain() Domain { return in.domain }

// SetValue stores the current crisp value. Values outside the domain are rejected.
func (in *Input) SetValue(x float64) error {
	if err := in.check(x); err != nil {
		return err
	}
	in.mu.Lock()
	in.value, in.set = x, true
	in.mu.Unlock()
	return nil
}

// Value returns the current crisp value and whether one has been set
func (in *Input) Value() (float64, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.value, in.set
}

// ClearValue returns the input to the unset state
func (in *Input) ClearValue() {
	in.mu.Lock()
	in.value, in.set = 0, false
	in.mu.Unlock()
}

func (in *Input) check(x float64) error {
	if !isFinite(x) || !in.domain.Contains(x) {
		return fmt.Errorf("%w: input %q value %v outside %s", ErrDomainMismatch, in.name, x, in.domain)
	}
	return nil
}

func (in *Input) String() string {
	if v, ok := in.Value(); ok {
		return fmt.Sprintf("%s %s = %g", in.name, in.domain, v)
	}
	return fmt.Sprintf("%s %s (unset)", in.name, in.domain)
}

// Output is a named output variable over a domain
type Output struct {
	name   string
	domain Domain

	mu             sync.RWMutex
	discretization int
}

// NewOutput creates an output with the default discretization level
func NewOutput(name string, domain Domain) (*Output, error) {
	if name == "" {
		return nil, fmt.Errorf("output name must not be empty")
	}
	if err := domain.Validate(); err != nil {
		return nil, fmt.Errorf("output %q: %w", name, err)
	}
	return &Output{name: name, domain: domain, discretization: DefaultDiscretizationLevel}, nil
}

// Name returns the output identifier
func (o *Output) Name() string { return o.name }

// Domain returns the output domain
func (o *Output) Domain() Domain { return o.domain }

// DiscretizationLevel returns the number of centroid samples
func (o *Output) DiscretizationLevel() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.discretization
}

// SetDiscretizationLevel changes the number of centroid samples (n >= 2)
func (o *Output) SetDiscretizationLevel(n int) error {
	if n < 2 {
		return fmt.Errorf("%w: output %q level %d", ErrInvalidDiscretization, o.name, n)
	}
	o.mu.Lock()
	o.discretization = n
	o.mu.Unlock()
	return nil
}

func (o *Output) String() string {
	return fmt.Sprintf("%s %s (discretization %d)", o.name, o.domain, o.DiscretizationLevel())
}
