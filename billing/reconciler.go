/*
reconciler.go - Billability decisions from the period history

PURPOSE:
  The Reconciler answers "is this student billable in month M" and maintains
  the inactivity period history behind that answer. Billability is always
  computed live from periods - there is no stored "active" flag that can
  drift out of sync.

THE BIFURCATION:
  Reactivation splits on whether the effective month has already arrived:

  - effective <= current month: the open period is closed at effective-1 and
    the student is immediately billable from effective on. Nothing else to
    record - billability is derived.

  - effective > current month: the open period must keep covering the
    intervening months, so it stays open and a scheduled_reactivation marker
    is staged instead. Any queried month >= marker reads as billable, any
    month in [start, marker) reads as inactive. When the month arrives, the
    maintenance pass materializes the closed period.

  Deactivation data and future reactivation intent therefore coexist on one
  row until Maintain (or the lazy pass before any state change) resolves them.

SEE ALSO:
  - period.go: ActivityPeriod.Covers implements the coverage rule
  - generator.go: runs Maintain before generating dues
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
// RECONCILER
// =============================================================================

// Reconciler decides billability and mutates the period history.
type Reconciler struct {
	store Store

	// Now returns the current calendar month. Overridable in tests.
	Now func() Month
}

func NewReconciler(store Store) *Reconciler {
	return &Reconciler{store: store, Now: CurrentMonth}
}

// IsBillable reports whether the student owes a due for month m:
// true iff no inactivity period covers m.
func (r *Reconciler) IsBillable(ctx context.Context, studentID string, m Month) (bool, error) {
	periods, err := r.store.PeriodsByStudent(ctx, studentID)
	if err != nil {
		return false, fmt.Errorf("load periods: %w", err)
	}
	for _, p := range periods {
		if p.Covers(m) {
			return false, nil
		}
	}
	return true, nil
}

// Deactivate opens a new inactivity period starting at effective.
// Fails with ConflictError if an open period already exists (the caller must
// reactivate first), if effective is already covered by a past period, or if
// any existing period starts at or after effective.
func (r *Reconciler) Deactivate(ctx context.Context, studentID string, effective Month) error {
	// A staged reactivation whose month has arrived still looks like an open
	// period in storage; resolve it first so it doesn't block a fresh
	// deactivation of a student who is in fact billable again.
	if err := r.maintainStudent(ctx, studentID, r.Now()); err != nil {
		return err
	}

	periods, err := r.store.PeriodsByStudent(ctx, studentID)
	if err != nil {
		return fmt.Errorf("load periods: %w", err)
	}
	for _, p := range periods {
		if p.Open() {
			return &ConflictError{
				StudentID: studentID,
				Op:        "deactivate",
				Detail:    fmt.Sprintf("already inactive since %s", p.Start),
			}
		}
		if p.Covers(effective) {
			return &ConflictError{
				StudentID: studentID,
				Op:        "deactivate",
				Detail:    fmt.Sprintf("month %s already inside inactive range %s..%s", effective, p.Start, p.End),
			}
		}
		// The new period is open-ended, so it would swallow any period
		// starting at or after effective.
		if p.Start.AfterOrEqual(effective) {
			return &ConflictError{
				StudentID: studentID,
				Op:        "deactivate",
				Detail:    fmt.Sprintf("a later inactive range already starts at %s", p.Start),
			}
		}
	}

	period := ActivityPeriod{
		ID:        uuid.NewString(),
		StudentID: studentID,
		Start:     effective,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.store.InsertPeriod(ctx, period); err != nil {
		// The partial unique index catches the UI double-click race the
		// read-then-write check above cannot.
		if errors.Is(err, ErrDuplicateKey) {
			return &ConflictError{StudentID: studentID, Op: "deactivate", Detail: "already inactive"}
		}
		return fmt.Errorf("insert period: %w", err)
	}
	return nil
}

// Reactivate ends the student's open inactivity period.
//
// If effective has already arrived (effective <= today), the period is closed
// at effective-1 and the student is billable from effective on. If effective
// lies strictly in the future, the period stays open and the reactivation is
// staged; Maintain materializes it once the month arrives.
//
// Reactivating a student with no open period is reported as NotFoundError.
func (r *Reconciler) Reactivate(ctx context.Context, studentID string, effective, today Month) error {
	open, err := r.store.OpenPeriod(ctx, studentID)
	if err != nil {
		return fmt.Errorf("load open period: %w", err)
	}
	if open == nil {
		return &NotFoundError{Kind: "open period", ID: studentID}
	}

	if effective.After(today) {
		if err := r.store.ScheduleReactivation(ctx, open.ID, effective); err != nil {
			return fmt.Errorf("schedule reactivation: %w", err)
		}
		return nil
	}

	return r.closeAt(ctx, *open, effective)
}

// Maintain materializes staged reactivations whose month has arrived for all
// of the trainer's students. Safe to run on every view-month navigation;
// billability itself never depends on it (Covers handles the staged marker),
// this only normalizes storage so open periods mean what they say.
func (r *Reconciler) Maintain(ctx context.Context, trainerID string, today Month) error {
	opens, err := r.store.OpenPeriodsByTrainer(ctx, trainerID)
	if err != nil {
		return fmt.Errorf("load open periods: %w", err)
	}
	for _, p := range opens {
		if err := r.materialize(ctx, p, today); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reconciler) maintainStudent(ctx context.Context, studentID string, today Month) error {
	open, err := r.store.OpenPeriod(ctx, studentID)
	if err != nil {
		return fmt.Errorf("load open period: %w", err)
	}
	if open == nil {
		return nil
	}
	return r.materialize(ctx, *open, today)
}

func (r *Reconciler) materialize(ctx context.Context, p ActivityPeriod, today Month) error {
	if p.ScheduledReactivation == nil || p.ScheduledReactivation.After(today) {
		return nil
	}
	return r.closeAt(ctx, p, *p.ScheduledReactivation)
}

// closeAt ends an open period so the student is billable from effective on.
// A period that would end before it started never took effect and is removed
// instead of being stored with end < start.
func (r *Reconciler) closeAt(ctx context.Context, p ActivityPeriod, effective Month) error {
	if effective.BeforeOrEqual(p.Start) {
		if err := r.store.DeletePeriod(ctx, p.ID); err != nil {
			return fmt.Errorf("delete void period: %w", err)
		}
		return nil
	}
	if err := r.store.ClosePeriod(ctx, p.ID, effective.Prev()); err != nil {
		return fmt.Errorf("close period: %w", err)
	}
	return nil
}
