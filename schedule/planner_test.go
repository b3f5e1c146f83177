package schedule_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonus/trainer-engine/schedule"
	"github.com/tonus/trainer-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

const testTrainer = "trainer-1"

func newTestPlanner(t *testing.T) (*schedule.Planner, *memory.Memory) {
	t.Helper()
	store := memory.New()
	return schedule.NewPlanner(store), store
}

func key(day time.Weekday, start, end string) schedule.BlockKey {
	s, err := schedule.ParseTimeOfDay(start)
	if err != nil {
		panic(err)
	}
	e, err := schedule.ParseTimeOfDay(end)
	if err != nil {
		panic(err)
	}
	return schedule.BlockKey{Weekday: day, Start: s, End: e}
}

// =============================================================================
// CAPACITY
// =============================================================================

func TestPlanner_Occupy_UpToFourStudents(t *testing.T) {
	p, _ := newTestPlanner(t)
	ctx := context.Background()

	k := key(time.Monday, "08:00", "09:00")
	err := p.Occupy(ctx, testTrainer, k, []string{"s1", "s2", "s3", "s4"})
	require.NoError(t, err)

	grid, err := p.WeekGrid(ctx, testTrainer)
	require.NoError(t, err)
	require.Len(t, grid, 1)
	assert.Equal(t, []string{"s1", "s2", "s3", "s4"}, grid[0].StudentIDs)
}

func TestPlanner_Occupy_DuplicateStudentCollapses(t *testing.T) {
	// GIVEN: A request listing the same student twice
	// WHEN: Occupying a block
	// THEN: One row is persisted, not two

	p, _ := newTestPlanner(t)
	ctx := context.Background()

	k := key(time.Monday, "08:00", "09:00")
	require.NoError(t, p.Occupy(ctx, testTrainer, k, []string{"s1", "s1", "s2"}))

	grid, err := p.WeekGrid(ctx, testTrainer)
	require.NoError(t, err)
	require.Len(t, grid, 1)
	assert.Equal(t, []string{"s1", "s2"}, grid[0].StudentIDs)
}

func TestPlanner_FifthOccupant_Rejected(t *testing.T) {
	// GIVEN: A full block of four
	// WHEN: Adding a fifth student
	// THEN: CapacityError, block unchanged

	p, _ := newTestPlanner(t)
	ctx := context.Background()

	k := key(time.Monday, "08:00", "09:00")
	require.NoError(t, p.Occupy(ctx, testTrainer, k, []string{"s1", "s2", "s3", "s4"}))

	err := p.AddOccupant(ctx, testTrainer, k, "s5")
	assert.ErrorIs(t, err, schedule.ErrCapacity)
	var capErr *schedule.CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 4, capErr.Occupants)

	grid, err := p.WeekGrid(ctx, testTrainer)
	require.NoError(t, err)
	require.Len(t, grid, 1)
	assert.Len(t, grid[0].StudentIDs, 4)
}

func TestPlanner_Occupy_CountsExistingOccupants(t *testing.T) {
	// GIVEN: A block already holding three students
	// WHEN: Occupying the same interval with two more
	// THEN: CapacityError (3 + 2 > 4)

	p, _ := newTestPlanner(t)
	ctx := context.Background()

	k := key(time.Tuesday, "18:00", "19:00")
	require.NoError(t, p.Occupy(ctx, testTrainer, k, []string{"s1", "s2", "s3"}))

	err := p.Occupy(ctx, testTrainer, k, []string{"s4", "s5"})
	assert.ErrorIs(t, err, schedule.ErrCapacity)
}

// =============================================================================
// OVERLAP
// =============================================================================

func TestPlanner_StudentOverlapSameWeekday_Rejected(t *testing.T) {
	// GIVEN: s1 trains Monday 08:00-09:00
	// WHEN: Booking s1 Monday 08:30-09:30
	// THEN: OverlapError; the adjacent 09:00-10:00 is fine

	p, _ := newTestPlanner(t)
	ctx := context.Background()

	require.NoError(t, p.Occupy(ctx, testTrainer, key(time.Monday, "08:00", "09:00"), []string{"s1"}))

	err := p.Occupy(ctx, testTrainer, key(time.Monday, "08:30", "09:30"), []string{"s1"})
	assert.ErrorIs(t, err, schedule.ErrOverlap)
	var ovErr *schedule.OverlapError
	require.ErrorAs(t, err, &ovErr)
	assert.Equal(t, "s1", ovErr.StudentID)

	// Half-open intervals: touching endpoints do not conflict.
	assert.NoError(t, p.Occupy(ctx, testTrainer, key(time.Monday, "09:00", "10:00"), []string{"s1"}))
}

func TestPlanner_SameTimeDifferentWeekday_Allowed(t *testing.T) {
	p, _ := newTestPlanner(t)
	ctx := context.Background()

	require.NoError(t, p.Occupy(ctx, testTrainer, key(time.Monday, "08:00", "09:00"), []string{"s1"}))
	assert.NoError(t, p.Occupy(ctx, testTrainer, key(time.Wednesday, "08:00", "09:00"), []string{"s1"}))
}

func TestPlanner_InvalidInterval_Rejected(t *testing.T) {
	p, _ := newTestPlanner(t)
	ctx := context.Background()

	err := p.Occupy(ctx, testTrainer, key(time.Monday, "09:00", "09:00"), []string{"s1"})
	assert.ErrorIs(t, err, schedule.ErrInvalidInterval)

	err = p.Occupy(ctx, testTrainer, key(time.Monday, "10:00", "09:00"), []string{"s1"})
	assert.ErrorIs(t, err, schedule.ErrInvalidInterval)
}

// =============================================================================
// RESIZE
// =============================================================================

func TestPlanner_Resize_MovesAllOccupants(t *testing.T) {
	p, _ := newTestPlanner(t)
	ctx := context.Background()

	k := key(time.Monday, "08:00", "09:00")
	require.NoError(t, p.Occupy(ctx, testTrainer, k, []string{"s1", "s2"}))

	newStart, _ := schedule.ParseTimeOfDay("10:00")
	newEnd, _ := schedule.ParseTimeOfDay("11:30")
	require.NoError(t, p.Resize(ctx, testTrainer, k, newStart, newEnd))

	grid, err := p.WeekGrid(ctx, testTrainer)
	require.NoError(t, err)
	require.Len(t, grid, 1)
	assert.Equal(t, "10:00", grid[0].Key.Start.String())
	assert.Equal(t, "11:30", grid[0].Key.End.String())
	assert.Equal(t, []string{"s1", "s2"}, grid[0].StudentIDs)
}

func TestPlanner_Resize_RevalidatesEveryOccupant(t *testing.T) {
	// GIVEN: s2 is in both the 08:00 block and a 10:00 block
	// WHEN: Resizing the 08:00 block onto 10:00-11:00
	// THEN: OverlapError for s2; nothing moves

	p, _ := newTestPlanner(t)
	ctx := context.Background()

	k := key(time.Monday, "08:00", "09:00")
	require.NoError(t, p.Occupy(ctx, testTrainer, k, []string{"s1", "s2"}))
	require.NoError(t, p.Occupy(ctx, testTrainer, key(time.Monday, "10:00", "11:00"), []string{"s2"}))

	newStart, _ := schedule.ParseTimeOfDay("10:00")
	newEnd, _ := schedule.ParseTimeOfDay("11:00")
	err := p.Resize(ctx, testTrainer, k, newStart, newEnd)
	assert.ErrorIs(t, err, schedule.ErrOverlap)

	grid, err := p.WeekGrid(ctx, testTrainer)
	require.NoError(t, err)
	require.Len(t, grid, 2)
	assert.Equal(t, "08:00", grid[0].Key.Start.String(), "failed resize must not move rows")
}

func TestPlanner_Resize_UnknownBlock(t *testing.T) {
	p, _ := newTestPlanner(t)

	newStart, _ := schedule.ParseTimeOfDay("10:00")
	newEnd, _ := schedule.ParseTimeOfDay("11:00")
	err := p.Resize(context.Background(), testTrainer, key(time.Friday, "08:00", "09:00"), newStart, newEnd)
	assert.ErrorIs(t, err, schedule.ErrBlockNotFound)
}

// =============================================================================
// OCCUPANT REMOVAL
// =============================================================================

func TestPlanner_RemoveOccupant_LeavesCoOccupants(t *testing.T) {
	p, _ := newTestPlanner(t)
	ctx := context.Background()

	k := key(time.Monday, "08:00", "09:00")
	require.NoError(t, p.Occupy(ctx, testTrainer, k, []string{"s1", "s2"}))

	require.NoError(t, p.RemoveOccupant(ctx, testTrainer, k, "s1"))

	grid, err := p.WeekGrid(ctx, testTrainer)
	require.NoError(t, err)
	require.Len(t, grid, 1)
	assert.Equal(t, []string{"s2"}, grid[0].StudentIDs)
}

func TestPlanner_RemoveLastOccupant_DissolvesBlock(t *testing.T) {
	p, _ := newTestPlanner(t)
	ctx := context.Background()

	k := key(time.Monday, "08:00", "09:00")
	require.NoError(t, p.Occupy(ctx, testTrainer, k, []string{"s1"}))
	require.NoError(t, p.RemoveOccupant(ctx, testTrainer, k, "s1"))

	grid, err := p.WeekGrid(ctx, testTrainer)
	require.NoError(t, err)
	assert.Empty(t, grid, "a block is nothing but its occupant rows")
}

func TestPlanner_RemoveUnknownOccupant_NotFound(t *testing.T) {
	p, _ := newTestPlanner(t)
	ctx := context.Background()

	k := key(time.Monday, "08:00", "09:00")
	require.NoError(t, p.Occupy(ctx, testTrainer, k, []string{"s1"}))

	err := p.RemoveOccupant(ctx, testTrainer, k, "s2")
	assert.ErrorIs(t, err, schedule.ErrBlockNotFound)
}

// =============================================================================
// LOOKUP
// =============================================================================

func TestPlanner_SlotAt(t *testing.T) {
	p, _ := newTestPlanner(t)
	ctx := context.Background()

	require.NoError(t, p.Occupy(ctx, testTrainer, key(time.Monday, "08:00", "09:00"), []string{"s1"}))

	at := func(raw string) *schedule.Block {
		tod, err := schedule.ParseTimeOfDay(raw)
		require.NoError(t, err)
		b, err := p.SlotAt(ctx, testTrainer, time.Monday, tod)
		require.NoError(t, err)
		return b
	}

	assert.NotNil(t, at("08:00"), "start is inside")
	assert.NotNil(t, at("08:30"))
	assert.Nil(t, at("09:00"), "end is exclusive")
	assert.Nil(t, at("07:59"))
}

func TestPlanner_AddOccupant_UnknownBlock(t *testing.T) {
	p, _ := newTestPlanner(t)

	err := p.AddOccupant(context.Background(), testTrainer, key(time.Monday, "08:00", "09:00"), "s1")
	assert.ErrorIs(t, err, schedule.ErrBlockNotFound)
}
