package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonus/trainer-engine/billing"
	"github.com/tonus/trainer-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

const testTrainer = "trainer-1"

func newTestReconciler(t *testing.T, today billing.Month) (*billing.Reconciler, *memory.Memory) {
	t.Helper()
	store := memory.New()
	r := billing.NewReconciler(store)
	r.Now = func() billing.Month { return today }
	return r, store
}

func seedStudent(t *testing.T, store *memory.Memory, id, name string) billing.Student {
	t.Helper()
	s := billing.Student{
		ID:        id,
		TrainerID: testTrainer,
		Name:      name,
		Fee:       billing.MustParseDecimal("250"),
		DueDay:    5,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.InsertStudent(context.Background(), s))
	return s
}

func month(y int, m time.Month) billing.Month { return billing.NewMonth(y, m) }

// =============================================================================
// BILLABILITY
// =============================================================================

func TestReconciler_NewStudentIsBillableEverywhere(t *testing.T) {
	// GIVEN: A student with no inactivity history
	// THEN: Every month is billable

	today := month(2025, time.June)
	r, store := newTestReconciler(t, today)
	seedStudent(t, store, "s1", "Ana")
	ctx := context.Background()

	for _, m := range []billing.Month{today.AddMonths(-6), today, today.AddMonths(6)} {
		billable, err := r.IsBillable(ctx, "s1", m)
		require.NoError(t, err)
		assert.True(t, billable, "month %s", m)
	}
}

func TestReconciler_DeactivateThenReactivate_RoundTrip(t *testing.T) {
	// GIVEN: Deactivated effective June, reactivated effective September
	// THEN: May billable, June-August inactive, September billable again

	today := month(2025, time.October)
	r, store := newTestReconciler(t, today)
	seedStudent(t, store, "s1", "Ana")
	ctx := context.Background()

	require.NoError(t, r.Deactivate(ctx, "s1", month(2025, time.June)))
	require.NoError(t, r.Reactivate(ctx, "s1", month(2025, time.September), today))

	cases := map[billing.Month]bool{
		month(2025, time.May):       true,
		month(2025, time.June):      false,
		month(2025, time.July):      false,
		month(2025, time.August):    false,
		month(2025, time.September): true,
		month(2025, time.October):   true,
	}
	for m, want := range cases {
		got, err := r.IsBillable(ctx, "s1", m)
		require.NoError(t, err)
		assert.Equal(t, want, got, "month %s", m)
	}
}

// =============================================================================
// THE BIFURCATION: FUTURE REACTIVATION
// =============================================================================

func TestReconciler_FutureReactivation_StagesMarker(t *testing.T) {
	// GIVEN: Today is January, student deactivated effective January
	// WHEN: Reactivating effective March (in the future)
	// THEN: The period stays open with a staged marker; January and February
	//       stay inactive while March and later read billable immediately

	today := month(2025, time.January)
	r, store := newTestReconciler(t, today)
	seedStudent(t, store, "s1", "Ana")
	ctx := context.Background()

	require.NoError(t, r.Deactivate(ctx, "s1", month(2025, time.January)))
	require.NoError(t, r.Reactivate(ctx, "s1", month(2025, time.March), today))

	open, err := store.OpenPeriod(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, open, "period must stay open until March arrives")
	require.NotNil(t, open.ScheduledReactivation)
	assert.True(t, open.ScheduledReactivation.Equal(month(2025, time.March)))

	cases := map[billing.Month]bool{
		month(2025, time.January):  false,
		month(2025, time.February): false,
		month(2025, time.March):    true,
		month(2025, time.April):    true,
	}
	for m, want := range cases {
		got, err := r.IsBillable(ctx, "s1", m)
		require.NoError(t, err)
		assert.Equal(t, want, got, "month %s", m)
	}
}

func TestReconciler_Maintain_MaterializesArrivedMarker(t *testing.T) {
	// GIVEN: A staged March reactivation
	// WHEN: Maintain runs with today >= March
	// THEN: The period is closed at February and billability is unchanged
	//       for every month (materialization is a storage normalization)

	r, store := newTestReconciler(t, month(2025, time.January))
	seedStudent(t, store, "s1", "Ana")
	ctx := context.Background()

	require.NoError(t, r.Deactivate(ctx, "s1", month(2025, time.January)))
	require.NoError(t, r.Reactivate(ctx, "s1", month(2025, time.March), month(2025, time.January)))

	probe := []billing.Month{
		month(2024, time.December),
		month(2025, time.January),
		month(2025, time.February),
		month(2025, time.March),
		month(2025, time.April),
	}
	before := make(map[billing.Month]bool, len(probe))
	for _, m := range probe {
		b, err := r.IsBillable(ctx, "s1", m)
		require.NoError(t, err)
		before[m] = b
	}

	// March arrives.
	require.NoError(t, r.Maintain(ctx, testTrainer, month(2025, time.March)))

	open, err := store.OpenPeriod(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, open, "marker should have been materialized into a closed period")

	periods, err := store.PeriodsByStudent(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, periods, 1)
	require.NotNil(t, periods[0].End)
	assert.True(t, periods[0].End.Equal(month(2025, time.February)))
	assert.Nil(t, periods[0].ScheduledReactivation)

	for _, m := range probe {
		after, err := r.IsBillable(ctx, "s1", m)
		require.NoError(t, err)
		assert.Equal(t, before[m], after, "billability for %s must not change", m)
	}
}

func TestReconciler_ReactivateAtOrBeforeStart_DeletesVoidPeriod(t *testing.T) {
	// GIVEN: Deactivated effective June
	// WHEN: Reactivated effective June (the pause never took effect)
	// THEN: The period row is removed entirely

	today := month(2025, time.July)
	r, store := newTestReconciler(t, today)
	seedStudent(t, store, "s1", "Ana")
	ctx := context.Background()

	require.NoError(t, r.Deactivate(ctx, "s1", month(2025, time.June)))
	require.NoError(t, r.Reactivate(ctx, "s1", month(2025, time.June), today))

	periods, err := store.PeriodsByStudent(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, periods)

	billable, err := r.IsBillable(ctx, "s1", month(2025, time.June))
	require.NoError(t, err)
	assert.True(t, billable)
}

// =============================================================================
// CONFLICTS
// =============================================================================

func TestReconciler_DoubleDeactivate_Conflict(t *testing.T) {
	today := month(2025, time.June)
	r, store := newTestReconciler(t, today)
	seedStudent(t, store, "s1", "Ana")
	ctx := context.Background()

	require.NoError(t, r.Deactivate(ctx, "s1", month(2025, time.June)))

	err := r.Deactivate(ctx, "s1", month(2025, time.August))
	assert.ErrorIs(t, err, billing.ErrConflict)
	var conflict *billing.ConflictError
	assert.ErrorAs(t, err, &conflict)
	assert.Equal(t, "s1", conflict.StudentID)
}

func TestReconciler_DeactivateIntoClosedRange_Conflict(t *testing.T) {
	// GIVEN: A closed inactive range June..August
	// WHEN: Deactivating effective July (inside the range)
	// THEN: ConflictError

	today := month(2025, time.December)
	r, store := newTestReconciler(t, today)
	seedStudent(t, store, "s1", "Ana")
	ctx := context.Background()

	require.NoError(t, r.Deactivate(ctx, "s1", month(2025, time.June)))
	require.NoError(t, r.Reactivate(ctx, "s1", month(2025, time.September), today))

	err := r.Deactivate(ctx, "s1", month(2025, time.July))
	assert.ErrorIs(t, err, billing.ErrConflict)
}

func TestReconciler_DeactivateBeforeClosedRange_Conflict(t *testing.T) {
	// GIVEN: A closed inactive range June..August
	// WHEN: Deactivating effective April (before the range starts)
	// THEN: ConflictError; an open-ended period from April would overlap
	//       June..August, and later months must stay billable

	today := month(2025, time.December)
	r, store := newTestReconciler(t, today)
	seedStudent(t, store, "s1", "Ana")
	ctx := context.Background()

	require.NoError(t, r.Deactivate(ctx, "s1", month(2025, time.June)))
	require.NoError(t, r.Reactivate(ctx, "s1", month(2025, time.September), today))

	err := r.Deactivate(ctx, "s1", month(2025, time.April))
	assert.ErrorIs(t, err, billing.ErrConflict)

	// June stays covered by exactly one period.
	periods, err := store.PeriodsByStudent(ctx, "s1")
	require.NoError(t, err)
	covering := 0
	for _, p := range periods {
		if p.Covers(month(2025, time.June)) {
			covering++
		}
	}
	assert.Equal(t, 1, covering)

	billable, err := r.IsBillable(ctx, "s1", month(2025, time.October))
	require.NoError(t, err)
	assert.True(t, billable)
}

func TestReconciler_ReactivateWithoutOpenPeriod_NotFound(t *testing.T) {
	today := month(2025, time.June)
	r, store := newTestReconciler(t, today)
	seedStudent(t, store, "s1", "Ana")

	err := r.Reactivate(context.Background(), "s1", month(2025, time.July), today)
	assert.ErrorIs(t, err, billing.ErrNotFound)
}

func TestReconciler_DeactivateAfterArrivedMarker_Succeeds(t *testing.T) {
	// GIVEN: A staged March reactivation that has arrived but was never
	//        materialized by a maintenance pass
	// WHEN: Deactivating again effective May
	// THEN: The stale open row is resolved first and the new pause opens

	r, store := newTestReconciler(t, month(2025, time.January))
	seedStudent(t, store, "s1", "Ana")
	ctx := context.Background()

	require.NoError(t, r.Deactivate(ctx, "s1", month(2025, time.January)))
	require.NoError(t, r.Reactivate(ctx, "s1", month(2025, time.March), month(2025, time.January)))

	// Time passes; no Maintain ran in between.
	r.Now = func() billing.Month { return month(2025, time.May) }
	require.NoError(t, r.Deactivate(ctx, "s1", month(2025, time.May)))

	periods, err := store.PeriodsByStudent(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, periods, 2)

	billable, err := r.IsBillable(ctx, "s1", month(2025, time.April))
	require.NoError(t, err)
	assert.True(t, billable, "April sits between the two pauses")

	billable, err = r.IsBillable(ctx, "s1", month(2025, time.May))
	require.NoError(t, err)
	assert.False(t, billable)
}
