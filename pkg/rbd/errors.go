package rbd

import (
	"errors"
	"fmt"
)

// Error classes
var (
	ErrConfiguration = errors.New("configuration error")
	ErrNumerical     = errors.New("numerical error")
	ErrConvergence   = errors.New("convergence warning")
)

// ModelError provides structured error information for model assembly and
// evaluation.
type ModelError struct {
	Op      string // Operation that failed (e.g., "AddEdge", "Freeze", "MonteCarlo")
	Entity  string // Entity type (e.g., "block", "voter", "edge", "grid")
	Name    string // Block name (if applicable)
	Context string // Additional context
	Cause   error  // Underlying error, usually one of the error classes above
}

// Error implements the error interface.
func (e *ModelError) Error() string {
	subject := e.Entity
	if e.Name != "" {
		subject = fmt.Sprintf("%s %q", e.Entity, e.Name)
	}
	if e.Context != "" {
		return fmt.Sprintf("%s %s: %v: %s", e.Op, subject, e.Cause, e.Context)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, subject, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ModelError) Unwrap() error {
	return e.Cause
}

// ErrorBuilder provides a fluent interface for building ModelErrors.
type ErrorBuilder struct {
	err ModelError
}

// NewError creates a new error builder with the given operation.
func NewError(op string) *ErrorBuilder {
	return &ErrorBuilder{err: ModelError{Op: op}}
}

// Block sets the entity to "block" with the given name.
func (b *ErrorBuilder) Block(name string) *ErrorBuilder {
	b.err.Entity = "block"
	b.err.Name = name
	return b
}

// Voter sets the entity to "voter" with the given name.
func (b *ErrorBuilder) Voter(name string) *ErrorBuilder {
	b.err.Entity = "voter"
	b.err.Name = name
	return b
}

// Entity sets a free-form entity type.
func (b *ErrorBuilder) Entity(entity string) *ErrorBuilder {
	b.err.Entity = entity
	return b
}

// Context sets additional context information.
func (b *ErrorBuilder) Context(format string, args ...any) *ErrorBuilder {
	b.err.Context = fmt.Sprintf(format, args...)
	return b
}

// Cause sets the underlying error cause.
func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Configuration marks the error as a configuration error.
func (b *ErrorBuilder) Configuration() *ErrorBuilder {
	return b.Cause(ErrConfiguration)
}

// Numerical marks the error as a numerical error.
func (b *ErrorBuilder) Numerical() *ErrorBuilder {
	return b.Cause(ErrNumerical)
}

// Err returns the error as an error interface.
func (b *ErrorBuilder) Err() error {
	e := b.err
	return &e
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsNumerical reports whether err is a numerical error.
func IsNumerical(err error) bool {
	return errors.Is(err, ErrNumerical)
}

// IsConvergence reports whether err is a convergence warning.
func IsConvergence(err error) bool {
	return errors.Is(err, ErrConvergence)
}

// ConvergenceWarning is a non-fatal diagnostic: the confidence interval of
// the MTTF estimate is wider than the caller's tolerance.
type ConvergenceWarning struct {
	Trials            int
	RelativeHalfWidth float64
	Tolerance         float64
}

func (w *ConvergenceWarning) Error() string {
	return fmt.Sprintf("%v: relative half-width %.4g exceeds tolerance %.4g after %d trials",
		ErrConvergence, w.RelativeHalfWidth, w.Tolerance, w.Trials)
}

func (w *ConvergenceWarning) Unwrap() error {
	return ErrConvergence
}

// CensoringWarning reports trials in which the system never lost its
// entry-to-exit connection. Their failure time is the largest finite sample
// of the trial, so the MTTF is a lower bound. Unbounded counts the censored
// trials without any finite sample; they are recorded at time 0.
type CensoringWarning struct {
	Censored  int
	Unbounded int
	Trials    int
}

func (w *CensoringWarning) Error() string {
	msg := fmt.Sprintf("%d of %d trials censored: system never disconnected, failure time capped at the largest finite sample",
		w.Censored, w.Trials)
	if w.Unbounded > 0 {
		msg += fmt.Sprintf("; %d trials drew no finite lifetime and were recorded at 0, the MTTF is not meaningful", w.Unbounded)
	}
	return msg
}
