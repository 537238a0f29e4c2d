/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: errors.go
Description: Error taxonomy for the fuzzy inference core. Every failure is local,
synchronous and non-retryable; callers match them with errors.Is.
*/

package fuzzy

import "errors"

var (
	// ErrShapeInvalid is returned when membership function breakpoints are not
	// non-decreasing (a <= b <= c) or are not finite.
	ErrShapeInvalid = errors.New("membership function shape invalid")

	// ErrInputNotSet is returned when an evaluation needs an input that has no value.
	ErrInputNotSet = errors.New("input not set")

	// ErrNoRuleFired is returned, under FailOnNoFire, when no rule contributes to an output.
	ErrNoRuleFired = errors.New("no rule fired")

	// ErrDomainMismatch is returned when a value or breakpoint lies outside the domain
	// of the variable it belongs to.
	ErrDomainMismatch = errors.New("domain mismatch")

	// ErrInvalidDomain is returned for domains whose lower bound is not below the upper bound.
	ErrInvalidDomain = errors.New("invalid domain")

	// ErrInvalidDiscretization is returned for discretization levels below 2.
	ErrInvalidDiscretization = errors.New("invalid discretization level")

	ErrEmptyRule     = errors.New("rule has no antecedents")
	ErrDuplicateName = errors.New("duplicate variable name")
	ErrUnknownMode   = errors.New("unknown defuzzification mode")
)
