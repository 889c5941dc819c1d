/*
errors.go - Centralized error types for the program engine

PURPOSE:
  All error kinds in one place. Every error here is recoverable at the
  call site: the caller corrects the input and resubmits. No operation
  partially mutates state before failing.

ERROR CATEGORIES:
  1. Validation errors - malformed create/update input (all fields reported)
  2. Budget errors     - spend would exceed a budget
  3. Not-found errors  - unknown project, district, or quick action

USAGE:
  Callers classify with errors.Is:

    if errors.Is(err, program.ErrInsufficientBudget) {
        // 409 at the HTTP boundary
    }

SEE ALSO:
  - lifecycle.go: Returns ValidationError and InsufficientBudgetError
  - engine.go: Returns NotFoundError for unknown ids
*/
package program

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is wrapped by every ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientBudget is returned when a spend or quick action would
	// exceed the relevant budget.
	ErrInsufficientBudget = errors.New("insufficient budget")

	// ErrProjectNotFound is returned for unknown project ids.
	ErrProjectNotFound = errors.New("project not found")

	// ErrDistrictUnknown is returned when a district name is not registered.
	ErrDistrictUnknown = errors.New("unknown district")

	// ErrActionNotFound is returned for unknown quick action ids.
	ErrActionNotFound = errors.New("quick action not found")

	// ErrProjectRequired is returned when a quick action needs a target
	// project and none was supplied.
	ErrProjectRequired = errors.New("quick action requires a project")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// FieldError names a single violated field and why it was rejected.
type FieldError struct {
	Field  string
	Reason string
}

// ValidationError reports every violated field of a submission, not just
// the first. Entities are all-or-nothing: a ValidationError means nothing
// was constructed or mutated.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Add records a violation. Returns the error for chaining.
func (e *ValidationError) Add(field, reason string) *ValidationError {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
	return e
}

// OrNil returns nil when no violations were recorded.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// InsufficientBudgetError provides details about a budget shortage.
type InsufficientBudgetError struct {
	ProjectID ProjectID // Empty for program-level budget failures
	Budget    Money
	Spent     Money
	Requested Money
	Shortfall Money
}

func (e *InsufficientBudgetError) Error() string {
	return fmt.Sprintf("insufficient budget: budget %v, spent %v, requested %v, shortfall %v",
		e.Budget, e.Spent, e.Requested, e.Shortfall)
}

func (e *InsufficientBudgetError) Unwrap() error { return ErrInsufficientBudget }

// NotFoundError identifies which reference could not be resolved.
type NotFoundError struct {
	Kind string // "project", "district", "action"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	switch e.Kind {
	case "district":
		return ErrDistrictUnknown
	case "action":
		return ErrActionNotFound
	default:
		return ErrProjectNotFound
	}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInsufficientBudget) ||
		errors.Is(err, ErrProjectRequired)
}

// IsNotFound returns true if the error indicates a missing reference.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProjectNotFound) ||
		errors.Is(err, ErrDistrictUnknown) ||
		errors.Is(err, ErrActionNotFound)
}
