/*
ledger.go - Due status transitions and the cash-received ledger

PURPOSE:
  The StatusLedger mutates a due's pending/paid state and keeps the
  append-only ledger of money actually received. The two records answer
  different questions: the due files the obligation under its owed month,
  the ledger entry files the cash under the day it was collected. A debt
  paid late therefore appears in both places with different dates.

ATOMICITY:
  pending -> paid flips the status AND appends the ledger entry inside one
  store transaction. Either both land or neither does.

ASYMMETRY:
  paid -> pending clears paid_on but does NOT retract the ledger entry.
  This mirrors the observed product behavior; whether a reversal entry
  should be appended instead is an open product question, so the code keeps
  the asymmetry rather than silently fixing it.

SEE ALSO:
  - types.go: MonthlyDue, LedgerEntry, EffectiveStatus
  - store.go: TxStore.WithTx
*/
package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// STATUS LEDGER
// =============================================================================

// StatusLedger owns due status transitions and ledger appends.
type StatusLedger struct {
	store TxStore

	// Now returns the current time. Overridable in tests.
	Now func() time.Time
}

func NewStatusLedger(store TxStore) *StatusLedger {
	return &StatusLedger{store: store, Now: time.Now}
}

// SetStatus transitions a due between pending and paid.
//
// pending -> paid: sets paid_on to paidOn (or today) and atomically appends
// a ledger entry for the due's amount dated the actual payment date.
//
// paid -> pending: clears paid_on. The ledger entry is deliberately left
// standing (see file comment).
//
// A transition into the status the due already has is a ConflictError.
func (l *StatusLedger) SetStatus(ctx context.Context, dueID string, status DueStatus, paidOn *time.Time) (*MonthlyDue, error) {
	due, err := l.store.GetDue(ctx, dueID)
	if err != nil {
		return nil, fmt.Errorf("load due: %w", err)
	}
	if due == nil {
		return nil, &NotFoundError{Kind: "due", ID: dueID}
	}
	if due.Status == status {
		return nil, &ConflictError{
			StudentID: due.StudentID,
			Op:        "set_status",
			Detail:    fmt.Sprintf("due %s already %s", dueID, status),
		}
	}

	switch status {
	case StatusPaid:
		date := l.Now().UTC()
		if paidOn != nil {
			date = *paidOn
		}
		student, err := l.store.GetStudent(ctx, due.StudentID)
		if err != nil {
			return nil, fmt.Errorf("load student: %w", err)
		}
		name := due.StudentID
		if student != nil {
			name = student.Name
		}

		err = l.store.WithTx(ctx, func(s Store) error {
			if err := s.SetDueStatus(ctx, due.ID, StatusPaid, &date); err != nil {
				return err
			}
			return s.AppendEntry(ctx, LedgerEntry{
				ID:          uuid.NewString(),
				TrainerID:   due.TrainerID,
				Description: fmt.Sprintf("Monthly fee of %s - %s", name, due.DueMonth.Label()),
				Amount:      due.Amount,
				Date:        date,
				CreatedAt:   time.Now().UTC(),
			})
		})
		if err != nil {
			return nil, fmt.Errorf("mark paid: %w", err)
		}

	case StatusPending:
		if err := l.store.SetDueStatus(ctx, due.ID, StatusPending, nil); err != nil {
			return nil, fmt.Errorf("revert to pending: %w", err)
		}

	default:
		return nil, fmt.Errorf("status %q is not storable", status)
	}

	return l.store.GetDue(ctx, dueID)
}

// LogReceipt appends a one-off cash-received entry not tied to any due.
func (l *StatusLedger) LogReceipt(ctx context.Context, trainerID, description string, amount decimal.Decimal, date time.Time) (*LedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	entry := LedgerEntry{
		ID:          uuid.NewString(),
		TrainerID:   trainerID,
		Description: description,
		Amount:      amount,
		Date:        date,
		CreatedAt:   time.Now().UTC(),
	}
	if err := l.store.AppendEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("append entry: %w", err)
	}
	return &entry, nil
}

// =============================================================================
// MONTHLY REPORT
// =============================================================================

// MonthlyReport summarizes one month: cash actually received (ledger) next
// to the state of the month's obligations (dues).
type MonthlyReport struct {
	Month        Month
	CashIn       decimal.Decimal
	EntryCount   int
	DuesTotal    decimal.Decimal
	PendingCount int
	PaidCount    int
	OverdueCount int
}

// Report builds the summary for (trainer, month). current drives the derived
// overdue status.
func (l *StatusLedger) Report(ctx context.Context, trainerID string, m, current Month) (*MonthlyReport, error) {
	entries, err := l.store.EntriesForMonth(ctx, trainerID, m)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	dues, err := l.store.DuesForMonth(ctx, trainerID, m)
	if err != nil {
		return nil, fmt.Errorf("load dues: %w", err)
	}

	report := &MonthlyReport{
		Month:      m,
		CashIn:     decimal.Zero,
		DuesTotal:  decimal.Zero,
		EntryCount: len(entries),
	}
	for _, e := range entries {
		report.CashIn = report.CashIn.Add(e.Amount)
	}
	for _, d := range dues {
		report.DuesTotal = report.DuesTotal.Add(d.Amount)
		switch d.EffectiveStatus(current) {
		case StatusPaid:
			report.PaidCount++
		case StatusOverdue:
			report.OverdueCount++
		default:
			report.PendingCount++
		}
	}
	return report, nil
}
