/*
generator.go - Idempotent monthly due generation

PURPOSE:
  Ensures exactly one pending due exists for every billable student in a
  given month. Called on every view-month navigation, so it must be safe
  under repeated and concurrent invocation.

IDEMPOTENCY:
  "A row exists for (student, month)" is the idempotency key, enforced by the
  store's unique index - not by the read-then-check alone, which would race
  against a UI double-click. An ErrDuplicateKey on insert therefore means
  someone else just generated the same due, and is treated as success.

WHAT IS NEVER TOUCHED:
  - students outside the billable set
  - pre-existing due rows (a due generated before a retroactive deactivation
    stays; history is not rewritten)

SEE ALSO:
  - reconciler.go: computes the billable set
  - store.go: DueStore uniqueness contract
*/
package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// GENERATOR
// =============================================================================

// Generator materializes due rows for billable students.
type Generator struct {
	store      Store
	reconciler *Reconciler

	// Now returns the current calendar month. Overridable in tests.
	Now func() Month
}

func NewGenerator(store Store, reconciler *Reconciler) *Generator {
	return &Generator{store: store, reconciler: reconciler, Now: CurrentMonth}
}

// EnsureDuesForMonth inserts a pending due for every billable student of the
// trainer lacking one for month m, then returns the full row set for the
// month. Amount is the student's fee at generation time; later fee changes
// never rewrite it.
func (g *Generator) EnsureDuesForMonth(ctx context.Context, trainerID string, m Month) ([]MonthlyDue, error) {
	// Lazy evaluation of staged reactivations whose month has arrived.
	if err := g.reconciler.Maintain(ctx, trainerID, g.Now()); err != nil {
		return nil, err
	}

	students, err := g.store.ListStudents(ctx, trainerID)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}

	existing, err := g.store.DuesForMonth(ctx, trainerID, m)
	if err != nil {
		return nil, fmt.Errorf("load dues: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, d := range existing {
		have[d.StudentID] = true
	}

	for _, s := range students {
		if have[s.ID] {
			continue
		}
		billable, err := g.reconciler.IsBillable(ctx, s.ID, m)
		if err != nil {
			return nil, err
		}
		if !billable {
			continue
		}

		due := MonthlyDue{
			ID:        uuid.NewString(),
			StudentID: s.ID,
			TrainerID: trainerID,
			DueMonth:  m,
			Amount:    s.Fee,
			Status:    StatusPending,
			CreatedAt: time.Now().UTC(),
		}
		if err := g.store.InsertDue(ctx, due); err != nil {
			if errors.Is(err, ErrDuplicateKey) {
				// Lost a double-submission race; the row exists, which is
				// exactly what we wanted.
				continue
			}
			return nil, fmt.Errorf("insert due for %s: %w", s.ID, err)
		}
	}

	return g.store.DuesForMonth(ctx, trainerID, m)
}
