package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrEmptyResult       = errors.New("no lab results found")
	ErrDependencyFailure = errors.New("report generation failed")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
)

// ValidationError is a malformed or missing caller input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// EmptyResultError means the query was well formed but matched no records for a
// report kind that requires at least one.
type EmptyResultError struct {
	Kind ReportKind
	From time.Time
	To   time.Time
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("no lab results found for %s report between %s and %s",
		e.Kind, e.From.Format("2006-01-02"), e.To.Format("2006-01-02"))
}

func (e *EmptyResultError) Is(target error) bool { return target == ErrEmptyResult }

// DependencyError wraps an unexpected fault from the record store, asset store or renderer.
type DependencyError struct {
	Stage string
	Err   error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }

func (e *DependencyError) Is(target error) bool { return target == ErrDependencyFailure }

// Dependency wraps err as a DependencyError unless it already is one or is nil.
func Dependency(stage string, err error) error {
	if err == nil {
		return nil
	}
	var de *DependencyError
	if errors.As(err, &de) {
		return err
	}
	return &DependencyError{Stage: stage, Err: err}
}
