// Package targeterr implements the errors returned when computing
// value targets: malformed shapes, missing parameter snapshots, numeric
// divergence of the Bellman target and unsupported estimator
// configurations.
package targeterr

import (
	"errors"
	"fmt"
)

// Kind describes the category of an Error
type Kind int

const (
	// Shape errors are returned when tensors have an illegal shape, for
	// example a batch with zero time steps or rewards and values whose
	// shapes cannot be broadcast together.
	Shape Kind = iota

	// MissingParameter errors are returned when a parametric value
	// function is called without a parameter snapshot.
	MissingParameter

	// NumericDivergence errors are returned when non-finite values
	// appear in a Bellman target.
	NumericDivergence

	// UnsupportedConfiguration errors are returned when a caller
	// requests an estimator it cannot use.
	UnsupportedConfiguration
)

func (k Kind) String() string {
	switch k {
	case Shape:
		return "shape error"
	case MissingParameter:
		return "missing parameter"
	case NumericDivergence:
		return "numeric divergence"
	case UnsupportedConfiguration:
		return "unsupported configuration"
	default:
		return "unknown error"
	}
}

// Error is an error that occurred while computing a value target. Op
// names the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Error satisfies the error interface
func (e *Error) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying cause of the error
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(k Kind, op, format string, args ...interface{}) error {
	return &Error{
		Kind: k,
		Op:   op,
		Err:  fmt.Errorf(format, args...),
	}
}

// Shapef returns a new Shape error for operation op
func Shapef(op, format string, args ...interface{}) error {
	return newError(Shape, op, format, args...)
}

// MissingParameterf returns a new MissingParameter error for operation op
func MissingParameterf(op, format string, args ...interface{}) error {
	return newError(MissingParameter, op, format, args...)
}

// NumericDivergencef returns a new NumericDivergence error for
// operation op
func NumericDivergencef(op, format string, args ...interface{}) error {
	return newError(NumericDivergence, op, format, args...)
}

// Unsupportedf returns a new UnsupportedConfiguration error for
// operation op
func Unsupportedf(op, format string, args ...interface{}) error {
	return newError(UnsupportedConfiguration, op, format, args...)
}

// is reports whether err, or any error it wraps, is an *Error of kind k
func is(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}

// IsShape returns whether or not an error reports an illegal shape.
func IsShape(err error) bool {
	return is(err, Shape)
}

// IsMissingParameter returns whether or not an error reports that a
// parametric value function was called without parameters.
func IsMissingParameter(err error) bool {
	return is(err, MissingParameter)
}

// IsNumericDivergence returns whether or not an error reports
// non-finite values in a Bellman target.
func IsNumericDivergence(err error) bool {
	return is(err, NumericDivergence)
}

// IsUnsupported returns whether or not an error reports an unsupported
// estimator configuration.
func IsUnsupported(err error) bool {
	return is(err, UnsupportedConfiguration)
}
