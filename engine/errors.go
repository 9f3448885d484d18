/*
errors.go - Centralized error types for the calculation engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context (which line,
  which scenario).

ERROR CATEGORIES:
  1. Input errors - A window whose end precedes its start
  2. Store errors - Missing scenarios or results

USAGE:
    if errors.Is(err, engine.ErrInvalidRange) {
        // surface as an input-validation failure
    }

SEE ALSO:
  - timeline.go: Window.Validate returns RangeError
  - scenario/calculate.go: LineError wraps these with line context
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
	// ErrInvalidRange is returned when an end month precedes its start month.
	// It is the only error a calculator can produce.
	ErrInvalidRange = errors.New("invalid range: end before start")

	// ErrScenarioNotFound is returned when a referenced scenario doesn't exist.
	ErrScenarioNotFound = errors.New("scenario not found")

	// ErrResultNotFound is returned when no result has been stored yet.
	ErrResultNotFound = errors.New("result not found")

	// ErrInvalidTimeline is returned for timelines without any months.
	ErrInvalidTimeline = errors.New("invalid timeline: must have at least one month")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// RangeError reports the offending window.
type RangeError struct {
	Start Month
	End   Month
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid range: end month %d before start month %d", e.End, e.Start)
}

func (e *RangeError) Unwrap() error {
	return ErrInvalidRange
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInvalidTimeline)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrScenarioNotFound) ||
		errors.Is(err, ErrResultNotFound)
}
