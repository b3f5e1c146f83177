/*
Package billing provides the billing reconciliation core for a personal-trainer
business.

PURPOSE:
  This package decides which students owe a monthly due, generates due records
  idempotently, and keeps an immutable cash-received ledger next to the mutable
  due rows. Activation/deactivation history is the single source of truth for
  billability: a student is billable in a month iff no inactivity period covers
  that month.

KEY CONCEPTS IN THIS FILE (types.go):
  - Student: roster entry with a monthly fee (frozen per due at generation time)
  - MonthlyDue: one month's obligation for one student, unique per (student, month)
  - LedgerEntry: an immutable, denormalized cash-received record
  - DueStatus: pending/paid stored, overdue derived at read time

DESIGN PRINCIPLES:
  1. Immutability: ledger entries are written once and never updated
  2. Precision: decimal.Decimal for all money, no floats
  3. Explicit identity: every operation takes a trainer ID, no ambient state
  4. Snapshots: a due's amount is the fee at generation time, fee changes
     never rewrite past dues

SEE ALSO:
  - month.go: calendar-month value type used as the billing key
  - period.go: inactivity periods and coverage rules
  - reconciler.go: billability and (de)activation operations
  - generator.go: idempotent due generation
  - ledger.go: status transitions and ledger appends
*/
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STUDENT - Roster entry
// =============================================================================

// Student is a roster entry owned by exactly one trainer.
// Students are never hard-deleted: archiving removes them from the roster
// while dues and ledger rows keep standing on their own.
type Student struct {
	ID        string
	TrainerID string
	Name      string
	Fee       decimal.Decimal // monthly fee, snapshot into each generated due
	DueDay    int             // preferred day of month for payment (1..28)
	Archived  bool
	CreatedAt time.Time
}

// =============================================================================
// MONTHLY DUE - Mutable billing obligation
// =============================================================================

type DueStatus string

const (
	StatusPending DueStatus = "pending"
	StatusPaid    DueStatus = "paid"

	// StatusOverdue is derived at read time, never stored.
	StatusOverdue DueStatus = "overdue"
)

// MonthlyDue is one month's billing obligation for one student.
// Created once by the Generator; only Status and PaidOn mutate afterwards.
// DueMonth and Amount are frozen at creation.
type MonthlyDue struct {
	ID        string
	StudentID string
	TrainerID string
	DueMonth  Month
	Amount    decimal.Decimal
	Status    DueStatus
	PaidOn    *time.Time
	CreatedAt time.Time
}

// EffectiveStatus returns the status as the UI should display it:
// a pending due whose month has passed reads as overdue.
func (d MonthlyDue) EffectiveStatus(current Month) DueStatus {
	if d.Status == StatusPending && d.DueMonth.Before(current) {
		return StatusOverdue
	}
	return d.Status
}

// =============================================================================
// LEDGER ENTRY - Immutable cash-received record
// =============================================================================

// LedgerEntry records money received. It carries the student's name inside
// Description rather than a foreign key, so the row stays meaningful after
// the student is archived or removed. Written once, never updated.
//
// Date is the actual payment date, which may differ from
// the owed month kept on the MonthlyDue (a debt paid late is filed under its
// owed month but reported as cash-in on the day it was collected).
type LedgerEntry struct {
	ID          string
	TrainerID   string
	Description string
	Amount      decimal.Decimal
	Date        time.Time
	CreatedAt   time.Time
}

// MustParseDecimal parses a decimal string, returning zero on failure.
// For fixtures and scanning trusted storage values.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
