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

func newTestGenerator(t *testing.T, today billing.Month) (*billing.Generator, *billing.Reconciler, *memory.Memory) {
	t.Helper()
	store := memory.New()
	r := billing.NewReconciler(store)
	r.Now = func() billing.Month { return today }
	g := billing.NewGenerator(store, r)
	g.Now = r.Now
	return g, r, store
}

func TestGenerator_CreatesDuesForBillableStudents(t *testing.T) {
	today := month(2025, time.June)
	g, _, store := newTestGenerator(t, today)
	seedStudent(t, store, "s1", "Ana")
	seedStudent(t, store, "s2", "Bruno")
	ctx := context.Background()

	dues, err := g.EnsureDuesForMonth(ctx, testTrainer, today)
	require.NoError(t, err)
	require.Len(t, dues, 2)
	for _, d := range dues {
		assert.Equal(t, billing.StatusPending, d.Status)
		assert.True(t, d.DueMonth.Equal(today))
		assert.True(t, d.Amount.Equal(billing.MustParseDecimal("250")))
	}
}

func TestGenerator_Idempotent(t *testing.T) {
	// GIVEN: Dues already generated for June
	// WHEN: Generating June again, twice
	// THEN: The row set is identical each time; nothing is duplicated

	today := month(2025, time.June)
	g, _, store := newTestGenerator(t, today)
	seedStudent(t, store, "s1", "Ana")
	ctx := context.Background()

	first, err := g.EnsureDuesForMonth(ctx, testTrainer, today)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := g.EnsureDuesForMonth(ctx, testTrainer, today)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID, "same row, not a new one")
}

func TestGenerator_SkipsInactiveMonths(t *testing.T) {
	// GIVEN: A student paying 300 deactivated effective June
	// WHEN: Generating May, June, and July
	// THEN: Only May gets a due

	today := month(2025, time.July)
	g, r, store := newTestGenerator(t, today)
	s := billing.Student{
		ID:        "s1",
		TrainerID: testTrainer,
		Name:      "Carla",
		Fee:       billing.MustParseDecimal("300"),
		DueDay:    10,
		CreatedAt: time.Now().UTC(),
	}
	ctx := context.Background()
	require.NoError(t, store.InsertStudent(ctx, s))
	require.NoError(t, r.Deactivate(ctx, "s1", month(2025, time.June)))

	may, err := g.EnsureDuesForMonth(ctx, testTrainer, month(2025, time.May))
	require.NoError(t, err)
	require.Len(t, may, 1)
	assert.True(t, may[0].Amount.Equal(billing.MustParseDecimal("300")))

	june, err := g.EnsureDuesForMonth(ctx, testTrainer, month(2025, time.June))
	require.NoError(t, err)
	assert.Empty(t, june)

	july, err := g.EnsureDuesForMonth(ctx, testTrainer, month(2025, time.July))
	require.NoError(t, err)
	assert.Empty(t, july)
}

func TestGenerator_PreexistingDueSurvivesRetroactiveDeactivation(t *testing.T) {
	// GIVEN: A June due already exists, then the student is deactivated
	//        retroactively effective June
	// WHEN: Generating June again
	// THEN: The existing row stays; history is not rewritten

	today := month(2025, time.June)
	g, r, store := newTestGenerator(t, today)
	seedStudent(t, store, "s1", "Ana")
	ctx := context.Background()

	first, err := g.EnsureDuesForMonth(ctx, testTrainer, today)
	require.NoError(t, err)
	require.Len(t, first, 1)

	require.NoError(t, r.Deactivate(ctx, "s1", month(2025, time.June)))

	again, err := g.EnsureDuesForMonth(ctx, testTrainer, today)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, first[0].ID, again[0].ID)
}

func TestGenerator_AmountFrozenAtGeneration(t *testing.T) {
	// GIVEN: A June due generated at fee 250
	// WHEN: The fee changes to 400 and July is generated
	// THEN: June keeps 250, July gets 400

	today := month(2025, time.July)
	g, _, store := newTestGenerator(t, today)
	seedStudent(t, store, "s1", "Ana")
	ctx := context.Background()

	june, err := g.EnsureDuesForMonth(ctx, testTrainer, month(2025, time.June))
	require.NoError(t, err)
	require.Len(t, june, 1)

	require.NoError(t, store.UpdateStudentFee(ctx, "s1", billing.MustParseDecimal("400")))

	july, err := g.EnsureDuesForMonth(ctx, testTrainer, month(2025, time.July))
	require.NoError(t, err)
	require.Len(t, july, 1)
	assert.True(t, july[0].Amount.Equal(billing.MustParseDecimal("400")))

	juneAgain, err := store.DuesForMonth(ctx, testTrainer, month(2025, time.June))
	require.NoError(t, err)
	require.Len(t, juneAgain, 1)
	assert.True(t, juneAgain[0].Amount.Equal(billing.MustParseDecimal("250")), "generated amount never rewritten")
}

func TestGenerator_MaterializesStagedReactivationFirst(t *testing.T) {
	// GIVEN: A staged March reactivation, and it is now March
	// WHEN: Generating March dues
	// THEN: The marker is materialized and March gets a due

	g, r, store := newTestGenerator(t, month(2025, time.March))
	seedStudent(t, store, "s1", "Ana")
	ctx := context.Background()

	r.Now = func() billing.Month { return month(2025, time.January) }
	require.NoError(t, r.Deactivate(ctx, "s1", month(2025, time.January)))
	require.NoError(t, r.Reactivate(ctx, "s1", month(2025, time.March), month(2025, time.January)))
	r.Now = func() billing.Month { return month(2025, time.March) }

	dues, err := g.EnsureDuesForMonth(ctx, testTrainer, month(2025, time.March))
	require.NoError(t, err)
	require.Len(t, dues, 1)

	open, err := store.OpenPeriod(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, open, "generation pass normalizes the staged marker")
}
