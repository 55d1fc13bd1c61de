/*
errors.go - Centralized error taxonomy for the attendance engine

PURPOSE:
  All engine error types in one place. The taxonomy is deterministic: given
  the same inputs the engine returns the same error, and nothing here is
  retried by the engine itself. The calling layer maps these onto its own
  surface (HTTP status codes, UI messages).

ERROR CATEGORIES:
  1. Validation errors  - Malformed input, caller's fault
  2. Sequence violations - Punch out of order or duplicate
  3. Conflicts           - Overlapping justification/override creation
  4. Availability        - Inactive or missing employee
  5. Anomalies           - Non-monotonic punch data (flagged, not discarded)

USAGE:
  if errors.Is(err, engine.ErrSequenceViolation) {
      var sv *engine.SequenceViolationError
      errors.As(err, &sv)
      // sv.Expected tells the employee the next accepted action
  }

SEE ALSO:
  - sequence.go: Produces SequenceViolationError
  - reconcile.go: Sets the Anomalous flag instead of erroring
  - api package: Maps these onto HTTP status codes
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned for malformed input. Always the caller's
	// fault, never retried.
	ErrValidation = errors.New("validation failed")

	// ErrSequenceViolation is returned when a punch is submitted out of
	// order or into an occupied slot.
	ErrSequenceViolation = errors.New("punch sequence violation")

	// ErrConflict is returned when creating a justification or override
	// that overlaps an existing active one.
	ErrConflict = errors.New("conflicting record exists")

	// ErrEmployeeUnavailable is returned for inactive or missing employees.
	// Hard stop: no partial computation is performed.
	ErrEmployeeUnavailable = errors.New("employee unavailable")

	// ErrAnomalousData marks non-monotonic punch data. Reconciliation does
	// not return it as an error (the DayRecord is flagged instead); it
	// exists for callers that need to reject anomalous input up front.
	ErrAnomalousData = errors.New("anomalous punch data")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = errors.New("record not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports which field of the input was malformed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// SequenceViolationError explains a rejected punch and names the next
// accepted action, so the employee-facing caller can render it verbatim.
type SequenceViolationError struct {
	EmployeeID EmployeeID
	Date       Date
	Got        PunchType
	Expected   PunchType // zero value when no further punch is accepted
	Reason     string
}

func (e *SequenceViolationError) Error() string {
	if e.Expected == "" {
		return fmt.Sprintf("punch %s rejected on %s: %s", e.Got, e.Date, e.Reason)
	}
	return fmt.Sprintf("punch %s rejected on %s: %s (next expected: %s)",
		e.Got, e.Date, e.Reason, e.Expected)
}

func (e *SequenceViolationError) Unwrap() error { return ErrSequenceViolation }

// ConflictError carries the conflicting record IDs so an administrator can
// resolve the overlap manually.
type ConflictError struct {
	Kind        string // "justification" or "override"
	EmployeeID  EmployeeID
	Conflicting []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflicts with existing active records %v for employee %s",
		e.Kind, e.Conflicting, e.EmployeeID)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// EmployeeUnavailableError distinguishes missing from inactive.
type EmployeeUnavailableError struct {
	EmployeeID EmployeeID
	Inactive   bool
}

func (e *EmployeeUnavailableError) Error() string {
	if e.Inactive {
		return fmt.Sprintf("employee %s is inactive", e.EmployeeID)
	}
	return fmt.Sprintf("employee %s not found", e.EmployeeID)
}

func (e *EmployeeUnavailableError) Unwrap() error { return ErrEmployeeUnavailable }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrSequenceViolation) ||
		errors.Is(err, ErrInvalidPeriod)
}

// IsConflict returns true for overlap conflicts on creation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrEmployeeUnavailable)
}
