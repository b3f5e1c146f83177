package schedule_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonus/trainer-engine/schedule"
)

func TestParseTimeOfDay(t *testing.T) {
	tod, err := schedule.ParseTimeOfDay("08:30")
	require.NoError(t, err)
	assert.Equal(t, 8, tod.Hour())
	assert.Equal(t, 30, tod.Minute())
	assert.Equal(t, "08:30", tod.String())

	for _, raw := range []string{"", "8", "25:00", "08:60", "08-30"} {
		_, err := schedule.ParseTimeOfDay(raw)
		assert.Error(t, err, "should reject %q", raw)
	}
}

func TestGroupSlots_FoldsRowsIntoBlocks(t *testing.T) {
	// Rows sharing (weekday, start, end) are one block; ordering is weekday
	// then start, occupants sorted by ID.

	mk := func(day time.Weekday, start, end, student string) schedule.Slot {
		k := key(day, start, end)
		return schedule.Slot{
			ID:        student + "-row",
			TrainerID: testTrainer,
			Weekday:   k.Weekday,
			Start:     k.Start,
			End:       k.End,
			StudentID: student,
		}
	}

	blocks := schedule.GroupSlots([]schedule.Slot{
		mk(time.Wednesday, "18:00", "19:00", "s3"),
		mk(time.Monday, "08:00", "09:00", "s2"),
		mk(time.Monday, "08:00", "09:00", "s1"),
		mk(time.Monday, "10:00", "11:00", "s1"),
	})

	require.Len(t, blocks, 3)
	assert.Equal(t, []string{"s1", "s2"}, blocks[0].StudentIDs)
	assert.Equal(t, "08:00", blocks[0].Key.Start.String())
	assert.Equal(t, "10:00", blocks[1].Key.Start.String())
	assert.Equal(t, time.Wednesday, blocks[2].Key.Weekday)
}

func TestBlockKey_ContainsHalfOpen(t *testing.T) {
	k := key(time.Monday, "08:00", "09:00")

	start, _ := schedule.ParseTimeOfDay("08:00")
	end, _ := schedule.ParseTimeOfDay("09:00")
	mid, _ := schedule.ParseTimeOfDay("08:59")

	assert.True(t, k.Contains(start))
	assert.True(t, k.Contains(mid))
	assert.False(t, k.Contains(end))
	assert.Equal(t, 60, k.Duration())
}
