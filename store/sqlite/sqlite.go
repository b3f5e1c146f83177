/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements billing.TxStore and schedule.Store using SQLite. The same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

CONSTRAINT-BACKED INVARIANTS:
  The core's idempotency and single-open-period guarantees live here as
  indexes, not as application checks alone:
  - idx_dues_student_month:  unique (student_id, due_month) - the Generator's
    idempotency key, safe against UI double-clicks
  - idx_periods_one_open:    partial unique index allowing at most one row
    per student with end_month IS NULL
  Violations surface as billing.ErrDuplicateKey.

APPEND-ONLY ENFORCEMENT:
  ledger_entries has INSERT and SELECT paths only. No UPDATE, no DELETE.

KEY TABLES:
  students:         roster (archived flag, never hard-deleted)
  activity_periods: inactivity intervals, month keys stored as "YYYY-MM"
  monthly_dues:     one obligation per (student, month), amount frozen
  ledger_entries:   immutable cash-received rows
  schedule_slots:   one row per occupant per weekly block

WAL MODE:
  SQLite is opened with WAL for better concurrency: readers don't block,
  single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/trainer.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - billing/store.go, schedule/planner.go: interface definitions
  - store/memory/memory.go: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/tonus/trainer-engine/billing"
	"github.com/tonus/trainer-engine/schedule"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Compile-time interface checks
var (
	_ billing.TxStore = (*Store)(nil)
	_ schedule.Store  = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps ":memory:" databases coherent across the pool.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Students (roster; archived instead of deleted so billing history stands)
	CREATE TABLE IF NOT EXISTS students (
		id TEXT PRIMARY KEY,
		trainer_id TEXT NOT NULL,
		name TEXT NOT NULL,
		fee TEXT NOT NULL,
		due_day INTEGER NOT NULL DEFAULT 1,
		archived BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_students_trainer
		ON students(trainer_id);

	-- Inactivity periods. Month keys are "YYYY-MM" so lexical order is
	-- chronological order.
	CREATE TABLE IF NOT EXISTS activity_periods (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		start_month TEXT NOT NULL,
		end_month TEXT,
		scheduled_reactivation TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_periods_student
		ON activity_periods(student_id);

	-- CRITICAL: at most one open period per student. The application checks
	-- too, but this is what survives a double-click.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_periods_one_open
		ON activity_periods(student_id)
		WHERE end_month IS NULL;

	-- Monthly dues. Amount is a frozen snapshot of the fee at generation.
	CREATE TABLE IF NOT EXISTS monthly_dues (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		trainer_id TEXT NOT NULL,
		due_month TEXT NOT NULL,
		amount TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		paid_on TEXT,
		created_at TEXT NOT NULL
	);

	-- CRITICAL: the Generator's idempotency key.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_dues_student_month
		ON monthly_dues(student_id, due_month);
	CREATE INDEX IF NOT EXISTS idx_dues_trainer_month
		ON monthly_dues(trainer_id, due_month);

	-- Ledger entries (append-only; no UPDATE or DELETE path exists)
	CREATE TABLE IF NOT EXISTS ledger_entries (
		id TEXT PRIMARY KEY,
		trainer_id TEXT NOT NULL,
		description TEXT NOT NULL,
		amount TEXT NOT NULL,
		entry_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_trainer_date
		ON ledger_entries(trainer_id, entry_date);

	-- Schedule slots: one row per occupant; the block is the derived
	-- (weekday, start, end) grouping, not a stored entity.
	CREATE TABLE IF NOT EXISTS schedule_slots (
		id TEXT PRIMARY KEY,
		trainer_id TEXT NOT NULL,
		weekday INTEGER NOT NULL,
		start_minutes INTEGER NOT NULL,
		end_minutes INTEGER NOT NULL,
		student_id TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_slots_trainer_day
		ON schedule_slots(trainer_id, weekday);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_slots_block_member
		ON schedule_slots(trainer_id, weekday, start_minutes, end_minutes, student_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx lets the same helpers run against *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// STUDENT STORE
// =============================================================================

func (s *Store) InsertStudent(ctx context.Context, st billing.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertStudent(ctx, s.db, st)
}

func insertStudent(ctx context.Context, db dbtx, st billing.Student) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO students (id, trainer_id, name, fee, due_day, archived, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.TrainerID, st.Name, st.Fee.String(), st.DueDay, st.Archived,
		st.CreatedAt.UTC().Format(time.RFC3339),
	)
	return mapConstraintError(err, "insert student")
}

func (s *Store) GetStudent(ctx context.Context, id string) (*billing.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getStudent(ctx, s.db, id)
}

func getStudent(ctx context.Context, db dbtx, id string) (*billing.Student, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, trainer_id, name, fee, due_day, archived, created_at
		FROM students WHERE id = ?`, id)

	st, err := scanStudent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Store) ListStudents(ctx context.Context, trainerID string) ([]billing.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listStudents(ctx, s.db, trainerID)
}

func listStudents(ctx context.Context, db dbtx, trainerID string) ([]billing.Student, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, trainer_id, name, fee, due_day, archived, created_at
		FROM students
		WHERE trainer_id = ? AND archived = FALSE
		ORDER BY name`, trainerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	var students []billing.Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, *st)
	}
	return students, rows.Err()
}

func (s *Store) UpdateStudentFee(ctx context.Context, id string, fee decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateStudentFee(ctx, s.db, id, fee)
}

func updateStudentFee(ctx context.Context, db dbtx, id string, fee decimal.Decimal) error {
	res, err := db.ExecContext(ctx,
		"UPDATE students SET fee = ? WHERE id = ?", fee.String(), id)
	if err != nil {
		return fmt.Errorf("failed to update fee: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) ArchiveStudent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return archiveStudent(ctx, s.db, id)
}

func archiveStudent(ctx context.Context, db dbtx, id string) error {
	res, err := db.ExecContext(ctx,
		"UPDATE students SET archived = TRUE WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to archive student: %w", err)
	}
	return requireAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(r rowScanner) (*billing.Student, error) {
	var st billing.Student
	var fee, createdAt string
	if err := r.Scan(&st.ID, &st.TrainerID, &st.Name, &fee, &st.DueDay, &st.Archived, &createdAt); err != nil {
		return nil, err
	}
	st.Fee = billing.MustParseDecimal(fee)
	st.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &st, nil
}

// =============================================================================
// PERIOD STORE
// =============================================================================

func (s *Store) InsertPeriod(ctx context.Context, p billing.ActivityPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertPeriod(ctx, s.db, p)
}

func insertPeriod(ctx context.Context, db dbtx, p billing.ActivityPeriod) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO activity_periods (id, student_id, start_month, end_month, scheduled_reactivation, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.StudentID, p.Start.String(), monthPtr(p.End), monthPtr(p.ScheduledReactivation),
		p.CreatedAt.UTC().Format(time.RFC3339),
	)
	return mapConstraintError(err, "insert period")
}

func (s *Store) PeriodsByStudent(ctx context.Context, studentID string) ([]billing.ActivityPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return periodsByStudent(ctx, s.db, studentID)
}

func periodsByStudent(ctx context.Context, db dbtx, studentID string) ([]billing.ActivityPeriod, error) {
	return queryPeriods(ctx, db, `
		SELECT id, student_id, start_month, end_month, scheduled_reactivation, created_at
		FROM activity_periods
		WHERE student_id = ?
		ORDER BY start_month ASC`, studentID)
}

func (s *Store) OpenPeriod(ctx context.Context, studentID string) (*billing.ActivityPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return openPeriod(ctx, s.db, studentID)
}

func openPeriod(ctx context.Context, db dbtx, studentID string) (*billing.ActivityPeriod, error) {
	periods, err := queryPeriods(ctx, db, `
		SELECT id, student_id, start_month, end_month, scheduled_reactivation, created_at
		FROM activity_periods
		WHERE student_id = ? AND end_month IS NULL`, studentID)
	if err != nil {
		return nil, err
	}
	if len(periods) == 0 {
		return nil, nil
	}
	return &periods[0], nil
}

func (s *Store) OpenPeriodsByTrainer(ctx context.Context, trainerID string) ([]billing.ActivityPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return openPeriodsByTrainer(ctx, s.db, trainerID)
}

func openPeriodsByTrainer(ctx context.Context, db dbtx, trainerID string) ([]billing.ActivityPeriod, error) {
	return queryPeriods(ctx, db, `
		SELECT p.id, p.student_id, p.start_month, p.end_month, p.scheduled_reactivation, p.created_at
		FROM activity_periods p
		JOIN students st ON st.id = p.student_id
		WHERE st.trainer_id = ? AND p.end_month IS NULL`, trainerID)
}

func (s *Store) ClosePeriod(ctx context.Context, id string, end billing.Month) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return closePeriod(ctx, s.db, id, end)
}

func closePeriod(ctx context.Context, db dbtx, id string, end billing.Month) error {
	res, err := db.ExecContext(ctx, `
		UPDATE activity_periods
		SET end_month = ?, scheduled_reactivation = NULL
		WHERE id = ?`, end.String(), id)
	if err != nil {
		return fmt.Errorf("failed to close period: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) ScheduleReactivation(ctx context.Context, id string, m billing.Month) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return scheduleReactivation(ctx, s.db, id, m)
}

func scheduleReactivation(ctx context.Context, db dbtx, id string, m billing.Month) error {
	res, err := db.ExecContext(ctx, `
		UPDATE activity_periods
		SET scheduled_reactivation = ?
		WHERE id = ? AND end_month IS NULL`, m.String(), id)
	if err != nil {
		return fmt.Errorf("failed to schedule reactivation: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) DeletePeriod(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deletePeriod(ctx, s.db, id)
}

func deletePeriod(ctx context.Context, db dbtx, id string) error {
	res, err := db.ExecContext(ctx,
		"DELETE FROM activity_periods WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete period: %w", err)
	}
	return requireAffected(res)
}

func queryPeriods(ctx context.Context, db dbtx, query string, args ...any) ([]billing.ActivityPeriod, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query periods: %w", err)
	}
	defer rows.Close()

	var periods []billing.ActivityPeriod
	for rows.Next() {
		var p billing.ActivityPeriod
		var start, createdAt string
		var end, sched sql.NullString
		if err := rows.Scan(&p.ID, &p.StudentID, &start, &end, &sched, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan period: %w", err)
		}
		p.Start, _ = billing.ParseMonth(start)
		p.End = scanMonth(end)
		p.ScheduledReactivation = scanMonth(sched)
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// =============================================================================
// DUE STORE
// =============================================================================

func (s *Store) InsertDue(ctx context.Context, d billing.MonthlyDue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertDue(ctx, s.db, d)
}

func insertDue(ctx context.Context, db dbtx, d billing.MonthlyDue) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO monthly_dues (id, student_id, trainer_id, due_month, amount, status, paid_on, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.StudentID, d.TrainerID, d.DueMonth.String(), d.Amount.String(),
		string(d.Status), timePtr(d.PaidOn), d.CreatedAt.UTC().Format(time.RFC3339),
	)
	return mapConstraintError(err, "insert due")
}

func (s *Store) GetDue(ctx context.Context, id string) (*billing.MonthlyDue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getDue(ctx, s.db, id)
}

func getDue(ctx context.Context, db dbtx, id string) (*billing.MonthlyDue, error) {
	dues, err := queryDues(ctx, db, `
		SELECT id, student_id, trainer_id, due_month, amount, status, paid_on, created_at
		FROM monthly_dues WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(dues) == 0 {
		return nil, nil
	}
	return &dues[0], nil
}

func (s *Store) DuesForMonth(ctx context.Context, trainerID string, m billing.Month) ([]billing.MonthlyDue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return duesForMonth(ctx, s.db, trainerID, m)
}

func duesForMonth(ctx context.Context, db dbtx, trainerID string, m billing.Month) ([]billing.MonthlyDue, error) {
	return queryDues(ctx, db, `
		SELECT id, student_id, trainer_id, due_month, amount, status, paid_on, created_at
		FROM monthly_dues
		WHERE trainer_id = ? AND due_month = ?
		ORDER BY student_id`, trainerID, m.String())
}

func (s *Store) DuesForStudent(ctx context.Context, studentID string) ([]billing.MonthlyDue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return duesForStudent(ctx, s.db, studentID)
}

func duesForStudent(ctx context.Context, db dbtx, studentID string) ([]billing.MonthlyDue, error) {
	return queryDues(ctx, db, `
		SELECT id, student_id, trainer_id, due_month, amount, status, paid_on, created_at
		FROM monthly_dues
		WHERE student_id = ?
		ORDER BY due_month ASC`, studentID)
}

func (s *Store) SetDueStatus(ctx context.Context, id string, status billing.DueStatus, paidOn *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return setDueStatus(ctx, s.db, id, status, paidOn)
}

// setDueStatus only ever touches status and paid_on. due_month and amount
// are frozen at insert.
func setDueStatus(ctx context.Context, db dbtx, id string, status billing.DueStatus, paidOn *time.Time) error {
	res, err := db.ExecContext(ctx, `
		UPDATE monthly_dues SET status = ?, paid_on = ? WHERE id = ?`,
		string(status), timePtr(paidOn), id)
	if err != nil {
		return fmt.Errorf("failed to set due status: %w", err)
	}
	return requireAffected(res)
}

func queryDues(ctx context.Context, db dbtx, query string, args ...any) ([]billing.MonthlyDue, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query dues: %w", err)
	}
	defer rows.Close()

	var dues []billing.MonthlyDue
	for rows.Next() {
		var d billing.MonthlyDue
		var month, amount, status, createdAt string
		var paidOn sql.NullString
		if err := rows.Scan(&d.ID, &d.StudentID, &d.TrainerID, &month, &amount, &status, &paidOn, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan due: %w", err)
		}
		d.DueMonth, _ = billing.ParseMonth(month)
		d.Amount = billing.MustParseDecimal(amount)
		d.Status = billing.DueStatus(status)
		if paidOn.Valid {
			t, _ := time.Parse(time.RFC3339, paidOn.String)
			d.PaidOn = &t
		}
		d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		dues = append(dues, d)
	}
	return dues, rows.Err()
}

// =============================================================================
// LEDGER STORE - Append-only (INSERT and SELECT only)
// =============================================================================

func (s *Store) AppendEntry(ctx context.Context, e billing.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendEntry(ctx, s.db, e)
}

func appendEntry(ctx context.Context, db dbtx, e billing.LedgerEntry) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO ledger_entries (id, trainer_id, description, amount, entry_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.TrainerID, e.Description, e.Amount.String(),
		e.Date.UTC().Format(time.RFC3339), e.CreatedAt.UTC().Format(time.RFC3339),
	)
	return mapConstraintError(err, "append ledger entry")
}

func (s *Store) EntriesForMonth(ctx context.Context, trainerID string, m billing.Month) ([]billing.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return entriesForMonth(ctx, s.db, trainerID, m)
}

func entriesForMonth(ctx context.Context, db dbtx, trainerID string, m billing.Month) ([]billing.LedgerEntry, error) {
	from := m.FirstDay()
	to := m.Next().FirstDay()

	rows, err := db.QueryContext(ctx, `
		SELECT id, trainer_id, description, amount, entry_date, created_at
		FROM ledger_entries
		WHERE trainer_id = ? AND entry_date >= ? AND entry_date < ?
		ORDER BY entry_date ASC, created_at ASC`,
		trainerID, from.Format(time.RFC3339), to.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []billing.LedgerEntry
	for rows.Next() {
		var e billing.LedgerEntry
		var amount, date, createdAt string
		if err := rows.Scan(&e.ID, &e.TrainerID, &e.Description, &amount, &date, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		e.Amount = billing.MustParseDecimal(amount)
		e.Date, _ = time.Parse(time.RFC3339, date)
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// TRANSACTIONAL STORE (billing.TxStore interface)
// =============================================================================

// WithTx executes fn within a database transaction. Every operation on the
// store passed to fn runs on that transaction, reads included. With a single
// pooled connection, touching the parent *sql.DB while the transaction holds
// it would block forever. The mutex is not held across fn - SQLite
// serializes the writes.
func (s *Store) WithTx(ctx context.Context, fn func(store billing.Store) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txStore runs every operation on the transaction. It takes no mutex; the
// transaction owns the connection for its whole lifetime.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) InsertStudent(ctx context.Context, st billing.Student) error {
	return insertStudent(ctx, ts.tx, st)
}

func (ts *txStore) GetStudent(ctx context.Context, id string) (*billing.Student, error) {
	return getStudent(ctx, ts.tx, id)
}

func (ts *txStore) ListStudents(ctx context.Context, trainerID string) ([]billing.Student, error) {
	return listStudents(ctx, ts.tx, trainerID)
}

func (ts *txStore) UpdateStudentFee(ctx context.Context, id string, fee decimal.Decimal) error {
	return updateStudentFee(ctx, ts.tx, id, fee)
}

func (ts *txStore) ArchiveStudent(ctx context.Context, id string) error {
	return archiveStudent(ctx, ts.tx, id)
}

func (ts *txStore) InsertPeriod(ctx context.Context, p billing.ActivityPeriod) error {
	return insertPeriod(ctx, ts.tx, p)
}

func (ts *txStore) PeriodsByStudent(ctx context.Context, studentID string) ([]billing.ActivityPeriod, error) {
	return periodsByStudent(ctx, ts.tx, studentID)
}

func (ts *txStore) OpenPeriod(ctx context.Context, studentID string) (*billing.ActivityPeriod, error) {
	return openPeriod(ctx, ts.tx, studentID)
}

func (ts *txStore) OpenPeriodsByTrainer(ctx context.Context, trainerID string) ([]billing.ActivityPeriod, error) {
	return openPeriodsByTrainer(ctx, ts.tx, trainerID)
}

func (ts *txStore) ClosePeriod(ctx context.Context, id string, end billing.Month) error {
	return closePeriod(ctx, ts.tx, id, end)
}

func (ts *txStore) ScheduleReactivation(ctx context.Context, id string, m billing.Month) error {
	return scheduleReactivation(ctx, ts.tx, id, m)
}

func (ts *txStore) DeletePeriod(ctx context.Context, id string) error {
	return deletePeriod(ctx, ts.tx, id)
}

func (ts *txStore) InsertDue(ctx context.Context, d billing.MonthlyDue) error {
	return insertDue(ctx, ts.tx, d)
}

func (ts *txStore) GetDue(ctx context.Context, id string) (*billing.MonthlyDue, error) {
	return getDue(ctx, ts.tx, id)
}

func (ts *txStore) DuesForMonth(ctx context.Context, trainerID string, m billing.Month) ([]billing.MonthlyDue, error) {
	return duesForMonth(ctx, ts.tx, trainerID, m)
}

func (ts *txStore) DuesForStudent(ctx context.Context, studentID string) ([]billing.MonthlyDue, error) {
	return duesForStudent(ctx, ts.tx, studentID)
}

func (ts *txStore) SetDueStatus(ctx context.Context, id string, status billing.DueStatus, paidOn *time.Time) error {
	return setDueStatus(ctx, ts.tx, id, status, paidOn)
}

func (ts *txStore) AppendEntry(ctx context.Context, e billing.LedgerEntry) error {
	return appendEntry(ctx, ts.tx, e)
}

func (ts *txStore) EntriesForMonth(ctx context.Context, trainerID string, m billing.Month) ([]billing.LedgerEntry, error) {
	return entriesForMonth(ctx, ts.tx, trainerID, m)
}

// =============================================================================
// SCHEDULE STORE (schedule.Store interface)
// =============================================================================

func (s *Store) InsertSlots(ctx context.Context, slots []schedule.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, sl := range slots {
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO schedule_slots (id, trainer_id, weekday, start_minutes, end_minutes, student_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sl.ID, sl.TrainerID, int(sl.Weekday), int(sl.Start), int(sl.End),
			sl.StudentID, sl.CreatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return mapConstraintError(err, "insert slot")
		}
	}
	return sqlTx.Commit()
}

func (s *Store) SlotsByTrainer(ctx context.Context, trainerID string) ([]schedule.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.querySlots(ctx, `
		SELECT id, trainer_id, weekday, start_minutes, end_minutes, student_id, created_at
		FROM schedule_slots
		WHERE trainer_id = ?
		ORDER BY weekday, start_minutes, student_id`, trainerID)
}

func (s *Store) SlotsByTrainerDay(ctx context.Context, trainerID string, day time.Weekday) ([]schedule.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.querySlots(ctx, `
		SELECT id, trainer_id, weekday, start_minutes, end_minutes, student_id, created_at
		FROM schedule_slots
		WHERE trainer_id = ? AND weekday = ?
		ORDER BY start_minutes, student_id`, trainerID, int(day))
}

func (s *Store) UpdateBlockTimes(ctx context.Context, trainerID string, key schedule.BlockKey, newStart, newEnd schedule.TimeOfDay) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE schedule_slots
		SET start_minutes = ?, end_minutes = ?
		WHERE trainer_id = ? AND weekday = ? AND start_minutes = ? AND end_minutes = ?`,
		int(newStart), int(newEnd),
		trainerID, int(key.Weekday), int(key.Start), int(key.End))
	if err != nil {
		return 0, fmt.Errorf("failed to update block times: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *Store) DeleteSlot(ctx context.Context, trainerID string, key schedule.BlockKey, studentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM schedule_slots
		WHERE trainer_id = ? AND weekday = ? AND start_minutes = ? AND end_minutes = ? AND student_id = ?`,
		trainerID, int(key.Weekday), int(key.Start), int(key.End), studentID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete slot: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *Store) querySlots(ctx context.Context, query string, args ...any) ([]schedule.Slot, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query slots: %w", err)
	}
	defer rows.Close()

	var slots []schedule.Slot
	for rows.Next() {
		var sl schedule.Slot
		var weekday, start, end int
		var createdAt string
		if err := rows.Scan(&sl.ID, &sl.TrainerID, &weekday, &start, &end, &sl.StudentID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		sl.Weekday = time.Weekday(weekday)
		sl.Start = schedule.TimeOfDay(start)
		sl.End = schedule.TimeOfDay(end)
		sl.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		slots = append(slots, sl)
	}
	return slots, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func monthPtr(m *billing.Month) any {
	if m == nil {
		return nil
	}
	return m.String()
}

func timePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func scanMonth(ns sql.NullString) *billing.Month {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	m, err := billing.ParseMonth(ns.String)
	if err != nil {
		return nil
	}
	return &m
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return billing.ErrNotFound
	}
	return nil
}

func mapConstraintError(err error, op string) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key") {
		return billing.ErrDuplicateKey
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
