// Package errors provides the error types and wrapping helpers used across
// gophet. It builds on cockroachdb/errors so every constructed error carries
// a stack trace, and defines structured errors for the failure modes a
// forecasting library actually hits: calling Predict before Fit, shape
// mismatches, invalid hyperparameters, and unsupported features.
package errors

import (
	"fmt"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// Sentinel errors, compared with Is.
var (
	// ErrNotImplemented marks a requested feature the library does not
	// support, such as an unsupported loss function.
	ErrNotImplemented = errors.New("not implemented")

	// ErrEmptyData is returned when a frame or matrix without rows reaches
	// a computation.
	ErrEmptyData = errors.New("empty data")
)

// NotFittedError is returned when Predict, Transform, or Save is called on a
// model that has not been fitted.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("gophet: %s: model is not fitted yet, call Fit() before %s()", e.ModelName, e.Method)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("model", e.ModelName).Str("method", e.Method).Str("type", "NotFittedError")
}

// NewNotFittedError builds a NotFittedError with a stack trace attached.
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// DimensionError reports a mismatch between an expected and an observed
// dimension. Axis 0 means rows, axis 1 means columns.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int
}

func (e *DimensionError) Error() string {
	axis := "columns"
	if e.Axis == 0 {
		axis = "rows"
	}
	return fmt.Sprintf("gophet: %s: dimension mismatch on axis %d (%s): expected %d, got %d",
		e.Op, e.Axis, axis, e.Expected, e.Got)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("operation", e.Op).Int("expected", e.Expected).Int("got", e.Got).
		Int("axis", e.Axis).Str("type", "DimensionError")
}

// NewDimensionError builds a DimensionError with a stack trace attached.
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ValidationError reports an invalid configuration value or constructor
// argument.
type ValidationError struct {
	Param  string
	Reason string
	Value  interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("gophet: validation failed for %q: %s (got: %v)", e.Param, e.Reason, e.Value)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *ValidationError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("param", e.Param).Str("reason", e.Reason).Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError builds a ValidationError with a stack trace attached.
func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{Param: param, Reason: reason, Value: value})
}

// ValueError reports an argument whose value is unusable for an operation,
// for example an empty vector passed to a metric.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("gophet: %s: %s", e.Op, e.Message)
}

// NewValueError builds a ValueError with a stack trace attached.
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ModelError wraps a lower-level failure that occurred inside a model
// operation.
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gophet: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("gophet: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error { return e.Err }

// NewModelError builds a ModelError with a stack trace attached.
func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// NumericalInstabilityError reports NaN or Inf values produced during
// training, typically from a diverging optimizer step.
type NumericalInstabilityError struct {
	Op        string
	Value     float64
	Iteration int
}

func (e *NumericalInstabilityError) Error() string {
	return fmt.Sprintf("gophet: numerical instability in %s at iteration %d: %g", e.Op, e.Iteration, e.Value)
}

// CheckScalar returns a NumericalInstabilityError when v is NaN or Inf.
func CheckScalar(op string, v float64, iteration int) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.WithStack(&NumericalInstabilityError{Op: op, Value: v, Iteration: iteration})
	}
	return nil
}

// Thin wrappers over cockroachdb/errors so callers import one errors package.

// Is reports whether err matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool { return errors.As(err, target) }

// New creates an error with a stack trace.
func New(message string) error { return errors.New(message) }

// Newf creates a formatted error with a stack trace.
func Newf(format string, args ...interface{}) error { return errors.Newf(format, args...) }

// Wrap annotates err with a message.
func Wrap(err error, message string) error { return errors.Wrap(err, message) }

// Wrapf annotates err with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// WithStack attaches a stack trace to err.
func WithStack(err error) error { return errors.WithStack(err) }
