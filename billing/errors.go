/*
errors.go - Centralized error types for the billing core

PURPOSE:
  All billing error kinds in one place. Every error is value-returned and
  recoverable at the call site; the API layer maps kinds onto HTTP statuses
  and the core's responsibility ends at producing an unambiguous kind.

ERROR CATEGORIES:
  1. Conflict errors - state already in the target shape (double deactivation,
     same-state due transition)
  2. Not-found errors - operating on a missing student/period/due
  3. Duplicate-key errors - uniqueness violations surfaced from the store;
     the Generator treats these as success, everyone else re-raises

USAGE:
  if errors.Is(err, billing.ErrConflict) { ... }

  var nf *billing.NotFoundError
  if errors.As(err, &nf) { ... }

SEE ALSO:
  - schedule/errors.go: capacity and overlap errors for the slot model
  - store/sqlite/sqlite.go: maps constraint violations to ErrDuplicateKey
*/
package billing

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrConflict is returned when the state is already in the target shape,
	// e.g. deactivating an already-deactivated student.
	ErrConflict = errors.New("state already in target shape")

	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned by stores on uniqueness violations.
	// Expected during idempotent due generation; re-raised everywhere else.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidAmount is returned when a fee or receipt amount is not positive.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConflictError reports an operation against state that is already in the
// requested shape.
type ConflictError struct {
	StudentID string
	Op        string // "deactivate", "set_status", ...
	Detail    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict for student %s: %s", e.Op, e.StudentID, e.Detail)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// NotFoundError reports a missing record.
type NotFoundError struct {
	Kind string // "student", "open period", "due"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }
