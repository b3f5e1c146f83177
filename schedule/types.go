/*
Package schedule implements the weekly slot model for a trainer's calendar.

PURPOSE:
  Represents recurring weekly time blocks shared by up to four students,
  detects overlap per student per weekday, and supports partial mutation:
  remove one occupant, change a block's time, add an occupant - without
  disturbing the others.

KEY CONCEPTS:
  - Slot: one row = one student inside one (weekday, start, end) interval
  - Block: the derived set of slots sharing an identical (weekday, start,
    end) key. There is no stored block entity; co-membership IS the block.
  - TimeOfDay: minutes since midnight, compared on half-open [start, end)

INVARIANTS:
  1. A student never has two overlapping intervals on the same weekday
  2. A block holds at most MaxOccupants students
  3. An empty block ceases to exist (no dangling placeholder rows)

SEE ALSO:
  - planner.go: the operations enforcing the invariants
  - errors.go: capacity and overlap error kinds
*/
package schedule

import (
	"fmt"
	"sort"
	"time"
)

// MaxOccupants is the hard cap of students sharing one block.
const MaxOccupants = 4

// =============================================================================
// TIME OF DAY - Minutes since midnight
// =============================================================================

// TimeOfDay is a clock time within a day, in minutes since midnight.
// Interval membership is always half-open: [start, end).
type TimeOfDay int

// ParseTimeOfDay parses "15:04".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q (use HH:MM): %w", s, err)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// overlaps reports whether [aStart,aEnd) and [bStart,bEnd) share any instant.
func overlaps(aStart, aEnd, bStart, bEnd TimeOfDay) bool {
	return aStart < bEnd && bStart < aEnd
}

// =============================================================================
// SLOT AND BLOCK
// =============================================================================

// Slot is one student's membership in one weekly time interval.
type Slot struct {
	ID        string
	TrainerID string
	Weekday   time.Weekday
	Start     TimeOfDay
	End       TimeOfDay
	StudentID string
	CreatedAt time.Time
}

// Key returns the derived grouping key of the block this slot belongs to.
func (s Slot) Key() BlockKey {
	return BlockKey{Weekday: s.Weekday, Start: s.Start, End: s.End}
}

// BlockKey identifies a block: slots sharing an identical weekday and
// interval belong together. Not a stored foreign key.
type BlockKey struct {
	Weekday time.Weekday
	Start   TimeOfDay
	End     TimeOfDay
}

func (k BlockKey) String() string {
	return fmt.Sprintf("%s %s-%s", k.Weekday, k.Start, k.End)
}

// Contains reports whether the block's interval contains clock time t.
// The block is rendered once at its start cell; the model only answers
// membership, duplicate suppression across spanned cells is the renderer's
// job.
func (k BlockKey) Contains(t TimeOfDay) bool {
	return t >= k.Start && t < k.End
}

// Duration returns the block length in minutes (drives render height).
func (k BlockKey) Duration() int { return int(k.End - k.Start) }

// Block is the materialized view of a slot group: the key plus the union of
// occupants.
type Block struct {
	Key        BlockKey
	StudentIDs []string
}

// GroupSlots folds slot rows into blocks, ordered by weekday then start time.
// Occupants within a block are ordered by student ID for stable output.
func GroupSlots(slots []Slot) []Block {
	byKey := make(map[BlockKey][]string)
	for _, s := range slots {
		byKey[s.Key()] = append(byKey[s.Key()], s.StudentID)
	}

	blocks := make([]Block, 0, len(byKey))
	for k, ids := range byKey {
		sort.Strings(ids)
		blocks = append(blocks, Block{Key: k, StudentIDs: ids})
	}
	sort.Slice(blocks, func(i, j int) bool {
		if blocks[i].Key.Weekday != blocks[j].Key.Weekday {
			return blocks[i].Key.Weekday < blocks[j].Key.Weekday
		}
		return blocks[i].Key.Start < blocks[j].Key.Start
	})
	return blocks
}
