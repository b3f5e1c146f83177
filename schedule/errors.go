package schedule

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrCapacity is returned when a block would exceed MaxOccupants.
	ErrCapacity = errors.New("slot capacity exceeded")

	// ErrOverlap is returned when a student would hold two overlapping
	// intervals on the same weekday.
	ErrOverlap = errors.New("overlapping slot")

	// ErrBlockNotFound is returned when no slots match the given block key.
	ErrBlockNotFound = errors.New("block not found")

	// ErrInvalidInterval is returned when end is not after start.
	ErrInvalidInterval = errors.New("invalid interval: end not after start")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// CapacityError reports a block occupant overflow.
type CapacityError struct {
	Key       BlockKey
	Occupants int
	Adding    int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("block %s holds %d, adding %d exceeds the %d-occupant cap",
		e.Key, e.Occupants, e.Adding, MaxOccupants)
}

func (e *CapacityError) Unwrap() error { return ErrCapacity }

// OverlapError reports a conflicting interval for one student.
type OverlapError struct {
	StudentID string
	Weekday   time.Weekday
	Existing  BlockKey
	Requested BlockKey
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("student %s already occupies %s, conflicting with %s",
		e.StudentID, e.Existing, e.Requested)
}

func (e *OverlapError) Unwrap() error { return ErrOverlap }
