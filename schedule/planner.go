/*
planner.go - Slot operations with overlap and capacity validation

PURPOSE:
  The Planner is the mutation surface for the weekly grid. Every operation
  re-validates the two invariants (per-student non-overlap per weekday,
  per-block occupant cap) before touching rows, and touches only the rows
  it names - co-occupants of a block are never disturbed by a partial edit.

SEE ALSO:
  - types.go: Slot/Block/TimeOfDay, GroupSlots
  - store/sqlite/sqlite.go, store/memory/memory.go: Store implementations
*/
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// STORE - Persistence contract for slot rows
// =============================================================================

type Store interface {
	InsertSlots(ctx context.Context, slots []Slot) error

	// SlotsByTrainer returns every slot row for the trainer.
	SlotsByTrainer(ctx context.Context, trainerID string) ([]Slot, error)

	// SlotsByTrainerDay returns the trainer's slots on one weekday.
	SlotsByTrainerDay(ctx context.Context, trainerID string, day time.Weekday) ([]Slot, error)

	// UpdateBlockTimes rewrites start/end for every row matching the key.
	// Returns the number of rows touched.
	UpdateBlockTimes(ctx context.Context, trainerID string, key BlockKey, newStart, newEnd TimeOfDay) (int, error)

	// DeleteSlot removes one student's row from a block. Returns the number
	// of rows removed (0 or 1).
	DeleteSlot(ctx context.Context, trainerID string, key BlockKey, studentID string) (int, error)
}

// =============================================================================
// PLANNER
// =============================================================================

type Planner struct {
	store Store
}

func NewPlanner(store Store) *Planner {
	return &Planner{store: store}
}

// Occupy creates a block: one row per student in the given interval.
// Repeated student IDs collapse to one occupant. Fails with CapacityError
// when the occupant total (including any students
// already in an identical block) would exceed MaxOccupants, and with
// OverlapError when any of the students already occupies a conflicting
// interval that weekday.
func (p *Planner) Occupy(ctx context.Context, trainerID string, key BlockKey, studentIDs []string) error {
	if key.End <= key.Start {
		return ErrInvalidInterval
	}
	if len(studentIDs) == 0 {
		return fmt.Errorf("occupy %s: no students given", key)
	}
	studentIDs = dedupe(studentIDs)

	day, err := p.store.SlotsByTrainerDay(ctx, trainerID, key.Weekday)
	if err != nil {
		return fmt.Errorf("load day: %w", err)
	}

	existing := 0
	for _, s := range day {
		if s.Key() == key {
			existing++
		}
	}
	if existing+len(studentIDs) > MaxOccupants {
		return &CapacityError{Key: key, Occupants: existing, Adding: len(studentIDs)}
	}

	for _, id := range studentIDs {
		if err := checkOverlap(day, id, key); err != nil {
			return err
		}
	}

	rows := make([]Slot, len(studentIDs))
	now := time.Now().UTC()
	for i, id := range studentIDs {
		rows[i] = Slot{
			ID:        uuid.NewString(),
			TrainerID: trainerID,
			Weekday:   key.Weekday,
			Start:     key.Start,
			End:       key.End,
			StudentID: id,
			CreatedAt: now,
		}
	}
	if err := p.store.InsertSlots(ctx, rows); err != nil {
		return fmt.Errorf("insert slots: %w", err)
	}
	return nil
}

// AddOccupant adds one student to an existing block.
func (p *Planner) AddOccupant(ctx context.Context, trainerID string, key BlockKey, studentID string) error {
	day, err := p.store.SlotsByTrainerDay(ctx, trainerID, key.Weekday)
	if err != nil {
		return fmt.Errorf("load day: %w", err)
	}

	occupants := 0
	for _, s := range day {
		if s.Key() == key {
			occupants++
		}
	}
	if occupants == 0 {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, key)
	}
	if occupants >= MaxOccupants {
		return &CapacityError{Key: key, Occupants: occupants, Adding: 1}
	}
	if err := checkOverlap(day, studentID, key); err != nil {
		return err
	}

	return p.store.InsertSlots(ctx, []Slot{{
		ID:        uuid.NewString(),
		TrainerID: trainerID,
		Weekday:   key.Weekday,
		Start:     key.Start,
		End:       key.End,
		StudentID: studentID,
		CreatedAt: time.Now().UTC(),
	}})
}

// RemoveOccupant deletes one student's row. Co-occupants keep their rows;
// when the last row goes, the block is gone with it.
func (p *Planner) RemoveOccupant(ctx context.Context, trainerID string, key BlockKey, studentID string) error {
	n, err := p.store.DeleteSlot(ctx, trainerID, key, studentID)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s has no occupant %s", ErrBlockNotFound, key, studentID)
	}
	return nil
}

// Resize moves every row of the block to a new interval, re-validating each
// occupant against the rest of their weekday (the block's own rows excluded,
// they are the ones moving).
func (p *Planner) Resize(ctx context.Context, trainerID string, key BlockKey, newStart, newEnd TimeOfDay) error {
	if newEnd <= newStart {
		return ErrInvalidInterval
	}

	day, err := p.store.SlotsByTrainerDay(ctx, trainerID, key.Weekday)
	if err != nil {
		return fmt.Errorf("load day: %w", err)
	}

	var members []Slot
	var others []Slot
	for _, s := range day {
		if s.Key() == key {
			members = append(members, s)
		} else {
			others = append(others, s)
		}
	}
	if len(members) == 0 {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, key)
	}

	target := BlockKey{Weekday: key.Weekday, Start: newStart, End: newEnd}
	for _, m := range members {
		if err := checkOverlap(others, m.StudentID, target); err != nil {
			return err
		}
	}

	if _, err := p.store.UpdateBlockTimes(ctx, trainerID, key, newStart, newEnd); err != nil {
		return fmt.Errorf("update block times: %w", err)
	}
	return nil
}

// SlotAt returns the block whose interval contains t on the given weekday,
// or nil when the cell is free.
func (p *Planner) SlotAt(ctx context.Context, trainerID string, day time.Weekday, t TimeOfDay) (*Block, error) {
	slots, err := p.store.SlotsByTrainerDay(ctx, trainerID, day)
	if err != nil {
		return nil, fmt.Errorf("load day: %w", err)
	}
	for _, b := range GroupSlots(slots) {
		if b.Key.Contains(t) {
			return &b, nil
		}
	}
	return nil, nil
}

// WeekGrid returns every block of the trainer's week, ordered by weekday
// then start time.
func (p *Planner) WeekGrid(ctx context.Context, trainerID string) ([]Block, error) {
	slots, err := p.store.SlotsByTrainer(ctx, trainerID)
	if err != nil {
		return nil, fmt.Errorf("load slots: %w", err)
	}
	return GroupSlots(slots), nil
}

// checkOverlap fails when the student already occupies an interval on the
// weekday that conflicts with the requested one.
// dedupe drops repeated IDs, keeping first-occurrence order. A repeated ID
// would otherwise count twice against capacity and collide on insert.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func checkOverlap(day []Slot, studentID string, requested BlockKey) error {
	for _, s := range day {
		if s.StudentID != studentID {
			continue
		}
		if overlaps(s.Start, s.End, requested.Start, requested.End) {
			return &OverlapError{
				StudentID: studentID,
				Weekday:   requested.Weekday,
				Existing:  s.Key(),
				Requested: requested,
			}
		}
	}
	return nil
}
