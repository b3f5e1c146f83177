/*
store.go - Persistence interfaces for the billing core

PURPOSE:
  Defines the contract between the billing logic and the record store.
  Implementations exist for SQLite (production) and memory (tests).

KEY INTERFACES:
  StudentStore: roster persistence
  PeriodStore:  inactivity periods (the interval store)
  DueStore:     monthly dues with (student, month) uniqueness
  LedgerStore:  append-only cash-received entries
  Store:        all of the above
  TxStore:      Store plus atomic multi-write support

CONSTRAINTS THE STORE MUST ENFORCE:
  - monthly_dues unique on (student_id, due_month); violations surface as
    ErrDuplicateKey so the Generator stays idempotent under double-submission
  - at most one open period (end IS NULL) per student, same surfacing
  - ledger entries have no update or delete path at all

SEE ALSO:
  - store/sqlite/sqlite.go: production implementation
  - store/memory/memory.go: in-memory implementation for tests
*/
package billing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STUDENT STORE
// =============================================================================

type StudentStore interface {
	InsertStudent(ctx context.Context, s Student) error

	// GetStudent returns nil when the student doesn't exist.
	GetStudent(ctx context.Context, id string) (*Student, error)

	// ListStudents returns the trainer's roster, archived students excluded,
	// ordered by name.
	ListStudents(ctx context.Context, trainerID string) ([]Student, error)

	UpdateStudentFee(ctx context.Context, id string, fee decimal.Decimal) error

	// ArchiveStudent removes a student from the roster. Dues and ledger rows
	// are untouched.
	ArchiveStudent(ctx context.Context, id string) error
}

// =============================================================================
// PERIOD STORE - The interval store
// =============================================================================

type PeriodStore interface {
	// InsertPeriod persists a period. Returns ErrDuplicateKey if the student
	// already has an open period and the new one is open too.
	InsertPeriod(ctx context.Context, p ActivityPeriod) error

	// PeriodsByStudent returns all periods for a student ordered by Start.
	PeriodsByStudent(ctx context.Context, studentID string) ([]ActivityPeriod, error)

	// OpenPeriod returns the student's open period, or nil if none.
	OpenPeriod(ctx context.Context, studentID string) (*ActivityPeriod, error)

	// OpenPeriodsByTrainer returns every open period across the trainer's
	// students, for the maintenance pass.
	OpenPeriodsByTrainer(ctx context.Context, trainerID string) ([]ActivityPeriod, error)

	// ClosePeriod sets the inclusive end month and clears any staged
	// reactivation marker.
	ClosePeriod(ctx context.Context, id string, end Month) error

	// ScheduleReactivation stages a future reactivation on an open period.
	ScheduleReactivation(ctx context.Context, id string, m Month) error

	// DeletePeriod removes a period that never took effect.
	DeletePeriod(ctx context.Context, id string) error
}

// =============================================================================
// DUE STORE
// =============================================================================

type DueStore interface {
	// InsertDue persists a due. Returns ErrDuplicateKey when a row for
	// (student, due_month) already exists - the Generator's idempotency key.
	InsertDue(ctx context.Context, d MonthlyDue) error

	// GetDue returns nil when the due doesn't exist.
	GetDue(ctx context.Context, id string) (*MonthlyDue, error)

	// DuesForMonth returns all dues for (trainer, month).
	DuesForMonth(ctx context.Context, trainerID string, m Month) ([]MonthlyDue, error)

	// DuesForStudent returns all dues for a student ordered by month.
	DuesForStudent(ctx context.Context, studentID string) ([]MonthlyDue, error)

	// SetDueStatus mutates status and paid_on only. DueMonth and Amount are
	// frozen at creation and have no update path.
	SetDueStatus(ctx context.Context, id string, status DueStatus, paidOn *time.Time) error
}

// =============================================================================
// LEDGER STORE - Append-only
// =============================================================================

// LedgerStore persists cash-received entries.
// IMPORTANT: append-only. No Update, No Delete. Ever.
type LedgerStore interface {
	AppendEntry(ctx context.Context, e LedgerEntry) error

	// EntriesForMonth returns entries whose Date falls inside the month,
	// ordered by Date.
	EntriesForMonth(ctx context.Context, trainerID string, m Month) ([]LedgerEntry, error)
}

// =============================================================================
// COMPOSITE STORE
// =============================================================================

// Store is what the billing operations are built against.
type Store interface {
	StudentStore
	PeriodStore
	DueStore
	LedgerStore
}

// TxStore wraps Store with transaction support. Marking a due paid and
// appending its ledger entry must land atomically; WithTx is how.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
