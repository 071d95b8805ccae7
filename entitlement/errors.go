/*
errors.go - Centralized error types for the calculation core

PURPOSE:
  All calculation error types in one place. Other packages wrap or test
  these with errors.Is / errors.As.

ERROR CATEGORIES:
  1. InvalidInput - malformed claim input, rejected before any calculation
  2. MissingReferenceData - no table row for the given keys/year
  3. Unresolvable location - neither tier of the distance resolver could
     place an origin/destination (defined in the distance package, treated
     as invalid input by callers)

CONTRACT:
  A missing reference row is fatal to the calculation. It is never
  defaulted to zero and never substituted with a neighboring year, so
  callers can always distinguish "$0 entitlement" from "could not
  determine entitlement".

USAGE:
  if errors.Is(err, entitlement.ErrMissingReferenceData) {
      var miss *entitlement.MissingReferenceDataError
      errors.As(err, &miss) // miss.Table, miss.Keys, miss.Year
  }
*/
package entitlement

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInput is returned for malformed dates, negative weight, or
	// other input rejected before any calculation runs.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingReferenceData is returned when no table row exists for the
	// given keys and effective year.
	ErrMissingReferenceData = errors.New("missing reference data")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidInputError identifies which field of the input was rejected.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// MissingReferenceDataError identifies exactly which lookup failed.
type MissingReferenceDataError struct {
	Table string   // e.g. "dla", "per_diem", "state_tax"
	Keys  []string // lookup keys in order
	Year  int
}

func (e *MissingReferenceDataError) Error() string {
	return fmt.Sprintf("missing reference data: table %q has no row for [%s] in year %d",
		e.Table, strings.Join(e.Keys, ", "), e.Year)
}

func (e *MissingReferenceDataError) Unwrap() error { return ErrMissingReferenceData }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is the caller's fault (bad input)
// rather than a data or system problem.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
