/*
handlers.go - HTTP API handlers for the trainer engine

PURPOSE:
  Exposes the billing and schedule engines via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Students:
    GET    /api/students                   List active students
    POST   /api/students                   Create student
    GET    /api/students/{id}              Get student details
    PUT    /api/students/{id}/fee          Update monthly fee
    DELETE /api/students/{id}              Archive student
    POST   /api/students/{id}/deactivate   Open an activity pause
    POST   /api/students/{id}/reactivate   Close or schedule end of a pause
    GET    /api/students/{id}/billable     Billability for a month
    GET    /api/students/{id}/dues         Due history

  Billing:
    POST   /api/billing/{month}/generate   Ensure dues exist for the month
    GET    /api/billing/{month}/dues       Dues with derived status
    POST   /api/dues/{id}/status           Transition pending <-> paid
    GET    /api/ledger                     Ledger entries for a month
    POST   /api/ledger/receipts            Log a one-off receipt
    GET    /api/reports/{month}            Monthly cash report

  Schedule:
    GET    /api/schedule                   Week grid of blocks
    POST   /api/schedule/blocks            Occupy a block
    PUT    /api/schedule/blocks            Resize a block
    POST   /api/schedule/blocks/occupants  Add an occupant
    DELETE /api/schedule/blocks/occupants  Remove an occupant
    GET    /api/schedule/at                Block covering a point in time

IDENTITY:
  The acting trainer is passed explicitly as the X-Trainer-ID header.
  There is no ambient session state. Requests without the header are 400.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Student, due, or block not found
  - 409: Conflict (duplicate open pause, capacity, overlap, idempotency)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tonus/trainer-engine/billing"
	"github.com/tonus/trainer-engine/schedule"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is the persistence surface the handlers need: the billing store with
// transactions plus the schedule slot store. Both *sqlite.Store and the
// in-memory store satisfy it.
type Store interface {
	billing.TxStore
	schedule.Store
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	store      Store
	reconciler *billing.Reconciler
	generator  *billing.Generator
	ledger     *billing.StatusLedger
	planner    *schedule.Planner
}

// NewHandler wires the domain services on top of the given store.
func NewHandler(store Store) *Handler {
	reconciler := billing.NewReconciler(store)
	return &Handler{
		store:      store,
		reconciler: reconciler,
		generator:  billing.NewGenerator(store, reconciler),
		ledger:     billing.NewStatusLedger(store),
		planner:    schedule.NewPlanner(store),
	}
}

// trainerID extracts the acting trainer from the request header.
func trainerID(r *http.Request) string {
	return r.Header.Get("X-Trainer-ID")
}

func newID() string {
	return uuid.NewString()
}

// =============================================================================
// STUDENTS
// =============================================================================

// ListStudents returns the active roster, ordered by name.
func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	trainer := trainerID(r)
	if trainer == "" {
		writeError(w, http.StatusBadRequest, "Missing X-Trainer-ID header", nil)
		return
	}

	students, err := h.store.ListStudents(r.Context(), trainer)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list students", err)
		return
	}

	dtos := make([]StudentDTO, 0, len(students))
	for _, s := range students {
		dtos = append(dtos, toStudentDTO(s))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateStudent adds a student to the roster. With no pause on record
// every month from here on is billable.
func (h *Handler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	trainer := trainerID(r)
	if trainer == "" {
		writeError(w, http.StatusBadRequest, "Missing X-Trainer-ID header", nil)
		return
	}

	var req CreateStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required", nil)
		return
	}
	fee, err := decimal.NewFromString(req.Fee)
	if err != nil || !fee.IsPositive() {
		writeError(w, http.StatusBadRequest, "Fee must be a positive decimal", err)
		return
	}
	if req.DueDay < 1 || req.DueDay > 28 {
		writeError(w, http.StatusBadRequest, "Due day must be between 1 and 28", nil)
		return
	}

	student := billing.Student{
		ID:        newID(),
		TrainerID: trainer,
		Name:      req.Name,
		Fee:       fee,
		DueDay:    req.DueDay,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.InsertStudent(r.Context(), student); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create student", err)
		return
	}

	writeJSON(w, http.StatusCreated, toStudentDTO(student))
}

// GetStudent returns one student, scoped to the acting trainer.
func (h *Handler) GetStudent(w http.ResponseWriter, r *http.Request) {
	student, ok := h.loadStudent(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toStudentDTO(*student))
}

// UpdateFee changes a student's monthly fee. Already generated dues keep
// their frozen amount; only future generations see the new fee.
func (h *Handler) UpdateFee(w http.ResponseWriter, r *http.Request) {
	student, ok := h.loadStudent(w, r)
	if !ok {
		return
	}

	var req UpdateFeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	fee, err := decimal.NewFromString(req.Fee)
	if err != nil || !fee.IsPositive() {
		writeError(w, http.StatusBadRequest, "Fee must be a positive decimal", err)
		return
	}

	if err := h.store.UpdateStudentFee(r.Context(), student.ID, fee); err != nil {
		h.domainError(w, "Failed to update fee", err)
		return
	}

	student.Fee = fee
	writeJSON(w, http.StatusOK, toStudentDTO(*student))
}

// ArchiveStudent removes a student from the roster. Dues and ledger
// entries are kept; history is never rewritten.
func (h *Handler) ArchiveStudent(w http.ResponseWriter, r *http.Request) {
	student, ok := h.loadStudent(w, r)
	if !ok {
		return
	}

	if err := h.store.ArchiveStudent(r.Context(), student.ID); err != nil {
		h.domainError(w, "Failed to archive student", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "archived"})
}

// Deactivate opens an activity pause from the effective month onward.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	student, ok := h.loadStudent(w, r)
	if !ok {
		return
	}

	effective, ok := h.parseEffectiveMonth(w, r)
	if !ok {
		return
	}

	if err := h.reconciler.Deactivate(r.Context(), student.ID, effective); err != nil {
		h.domainError(w, "Failed to deactivate student", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":         "deactivated",
		"effective_from": effective.String(),
	})
}

// Reactivate ends the open pause. A past or current effective month closes
// the pause now; a future one is staged and applied when it arrives.
func (h *Handler) Reactivate(w http.ResponseWriter, r *http.Request) {
	student, ok := h.loadStudent(w, r)
	if !ok {
		return
	}

	effective, ok := h.parseEffectiveMonth(w, r)
	if !ok {
		return
	}

	if err := h.reconciler.Reactivate(r.Context(), student.ID, effective, h.reconciler.Now()); err != nil {
		h.domainError(w, "Failed to reactivate student", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":         "reactivated",
		"effective_from": effective.String(),
	})
}

// Billable reports whether a month is billable for the student.
// The month comes from the ?month= query and defaults to the current one.
func (h *Handler) Billable(w http.ResponseWriter, r *http.Request) {
	student, ok := h.loadStudent(w, r)
	if !ok {
		return
	}

	m := h.reconciler.Now()
	if raw := r.URL.Query().Get("month"); raw != "" {
		parsed, err := billing.ParseMonth(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid month, expected YYYY-MM", err)
			return
		}
		m = parsed
	}

	billable, err := h.reconciler.IsBillable(r.Context(), student.ID, m)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute billability", err)
		return
	}

	writeJSON(w, http.StatusOK, BillableDTO{
		StudentID: student.ID,
		Month:     m.String(),
		Billable:  billable,
	})
}

// StudentDues returns the student's full due history, oldest month first.
func (h *Handler) StudentDues(w http.ResponseWriter, r *http.Request) {
	student, ok := h.loadStudent(w, r)
	if !ok {
		return
	}

	dues, err := h.store.DuesForStudent(r.Context(), student.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list dues", err)
		return
	}

	writeJSON(w, http.StatusOK, h.toDueDTOs(dues))
}

// =============================================================================
// BILLING
// =============================================================================

// GenerateDues materializes the month's dues for every billable student.
// Safe to call repeatedly; existing rows are left untouched.
func (h *Handler) GenerateDues(w http.ResponseWriter, r *http.Request) {
	trainer := trainerID(r)
	if trainer == "" {
		writeError(w, http.StatusBadRequest, "Missing X-Trainer-ID header", nil)
		return
	}

	m, err := billing.ParseMonth(chi.URLParam(r, "month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month, expected YYYY-MM", err)
		return
	}

	dues, err := h.generator.EnsureDuesForMonth(r.Context(), trainer, m)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate dues", err)
		return
	}
	dueGenerationRuns.Inc()

	writeJSON(w, http.StatusOK, h.toDueDTOs(dues))
}

// ListDues returns the month's dues with the derived overdue status.
func (h *Handler) ListDues(w http.ResponseWriter, r *http.Request) {
	trainer := trainerID(r)
	if trainer == "" {
		writeError(w, http.StatusBadRequest, "Missing X-Trainer-ID header", nil)
		return
	}

	m, err := billing.ParseMonth(chi.URLParam(r, "month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month, expected YYYY-MM", err)
		return
	}

	dues, err := h.store.DuesForMonth(r.Context(), trainer, m)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list dues", err)
		return
	}

	writeJSON(w, http.StatusOK, h.toDueDTOs(dues))
}

// SetDueStatus transitions a due between pending and paid.
func (h *Handler) SetDueStatus(w http.ResponseWriter, r *http.Request) {
	trainer := trainerID(r)
	if trainer == "" {
		writeError(w, http.StatusBadRequest, "Missing X-Trainer-ID header", nil)
		return
	}

	dueID := chi.URLParam(r, "id")
	due, err := h.store.GetDue(r.Context(), dueID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load due", err)
		return
	}
	if due == nil || due.TrainerID != trainer {
		writeError(w, http.StatusNotFound, "Due not found", nil)
		return
	}

	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var status billing.DueStatus
	switch req.Status {
	case string(billing.StatusPending):
		status = billing.StatusPending
	case string(billing.StatusPaid):
		status = billing.StatusPaid
	default:
		writeError(w, http.StatusBadRequest, "Status must be pending or paid", nil)
		return
	}

	var paidOn *time.Time
	if req.PaidOn != "" {
		t, err := time.Parse("2006-01-02", req.PaidOn)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid paid_on, expected YYYY-MM-DD", err)
			return
		}
		paidOn = &t
	}

	updated, err := h.ledger.SetStatus(r.Context(), dueID, status, paidOn)
	if err != nil {
		h.domainError(w, "Failed to update due status", err)
		return
	}
	if status == billing.StatusPaid {
		paymentsRecorded.Inc()
	}

	writeJSON(w, http.StatusOK, toDueDTO(*updated, h.reconciler.Now()))
}

// ListLedger returns ledger entries for the ?month= query (default current).
func (h *Handler) ListLedger(w http.ResponseWriter, r *http.Request) {
	trainer := trainerID(r)
	if trainer == "" {
		writeError(w, http.StatusBadRequest, "Missing X-Trainer-ID header", nil)
		return
	}

	m := h.reconciler.Now()
	if raw := r.URL.Query().Get("month"); raw != "" {
		parsed, err := billing.ParseMonth(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid month, expected YYYY-MM", err)
			return
		}
		m = parsed
	}

	entries, err := h.store.EntriesForMonth(r.Context(), trainer, m)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list ledger entries", err)
		return
	}

	dtos := make([]LedgerEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, toLedgerEntryDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// LogReceipt appends a one-off ledger entry outside the due cycle.
func (h *Handler) LogReceipt(w http.ResponseWriter, r *http.Request) {
	trainer := trainerID(r)
	if trainer == "" {
		writeError(w, http.StatusBadRequest, "Missing X-Trainer-ID header", nil)
		return
	}

	var req LogReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Description == "" {
		writeError(w, http.StatusBadRequest, "Description is required", nil)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Amount must be a decimal", err)
		return
	}

	date := time.Now().UTC()
	if req.Date != "" {
		t, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", err)
			return
		}
		date = t
	}

	entry, err := h.ledger.LogReceipt(r.Context(), trainer, req.Description, amount, date)
	if err != nil {
		h.domainError(w, "Failed to log receipt", err)
		return
	}
	receiptsLogged.Inc()

	writeJSON(w, http.StatusCreated, toLedgerEntryDTO(*entry))
}

// Report returns the monthly cash summary.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	trainer := trainerID(r)
	if trainer == "" {
		writeError(w, http.StatusBadRequest, "Missing X-Trainer-ID header", nil)
		return
	}

	m, err := billing.ParseMonth(chi.URLParam(r, "month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month, expected YYYY-MM", err)
		return
	}

	report, err := h.ledger.Report(r.Context(), trainer, m, h.reconciler.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build report", err)
		return
	}

	writeJSON(w, http.StatusOK, ReportDTO{
		Month:        report.Month.String(),
		CashIn:       report.CashIn.String(),
		EntryCount:   report.EntryCount,
		DuesTotal:    report.DuesTotal.String(),
		PendingCount: report.PendingCount,
		PaidCount:    report.PaidCount,
		OverdueCount: report.OverdueCount,
	})
}

// =============================================================================
// SCHEDULE
// =============================================================================

// WeekGrid returns all blocks for the trainer's week.
func (h *Handler) WeekGrid(w http.ResponseWriter, r *http.Request) {
	trainer := trainerID(r)
	if trainer == "" {
		writeError(w, http.StatusBadRequest, "Missing X-Trainer-ID header", nil)
		return
	}

	blocks, err := h.planner.WeekGrid(r.Context(), trainer)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load schedule", err)
		return
	}

	dtos := make([]BlockDTO, 0, len(blocks))
	for _, b := range blocks {
		dtos = append(dtos, toBlockDTO(b))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Occupy books one or more students into a block.
func (h *Handler) Occupy(w http.ResponseWriter, r *http.Request) {
	trainer := trainerID(r)
	if trainer == "" {
		writeError(w, http.StatusBadRequest, "Missing X-Trainer-ID header", nil)
		return
	}

	var req OccupyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	key, ok := parseBlockKey(w, req.Weekday, req.Start, req.End)
	if !ok {
		return
	}
	if len(req.StudentIDs) == 0 {
		writeError(w, http.StatusBadRequest, "At least one student is required", nil)
		return
	}

	if err := h.planner.Occupy(r.Context(), trainer, key, req.StudentIDs); err != nil {
		h.domainError(w, "Failed to occupy block", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

// Resize moves a block to a new interval, re-validating every occupant.
func (h *Handler) Resize(w http.ResponseWriter, r *http.Request) {
	trainer := trainerID(r)
	if trainer == "" {
		writeError(w, http.StatusBadRequest, "Missing X-Trainer-ID header", nil)
		return
	}

	var req ResizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	key, ok := parseBlockKey(w, req.Weekday, req.Start, req.End)
	if !ok {
		return
	}
	newStart, err := schedule.ParseTimeOfDay(req.NewStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid new_start, expected HH:MM", err)
		return
	}
	newEnd, err := schedule.ParseTimeOfDay(req.NewEnd)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid new_end, expected HH:MM", err)
		return
	}

	if err := h.planner.Resize(r.Context(), trainer, key, newStart, newEnd); err != nil {
		h.domainError(w, "Failed to resize block", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// AddOccupant adds a student to an existing block.
func (h *Handler) AddOccupant(w http.ResponseWriter, r *http.Request) {
	trainer, key, studentID, ok := h.parseOccupantRequest(w, r)
	if !ok {
		return
	}

	if err := h.planner.AddOccupant(r.Context(), trainer, key, studentID); err != nil {
		h.domainError(w, "Failed to add occupant", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

// RemoveOccupant removes a student from a block. Removing the last
// occupant dissolves the block.
func (h *Handler) RemoveOccupant(w http.ResponseWriter, r *http.Request) {
	trainer, key, studentID, ok := h.parseOccupantRequest(w, r)
	if !ok {
		return
	}

	if err := h.planner.RemoveOccupant(r.Context(), trainer, key, studentID); err != nil {
		h.domainError(w, "Failed to remove occupant", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SlotAt returns the block covering ?weekday=&time=, or 404.
func (h *Handler) SlotAt(w http.ResponseWriter, r *http.Request) {
	trainer := trainerID(r)
	if trainer == "" {
		writeError(w, http.StatusBadRequest, "Missing X-Trainer-ID header", nil)
		return
	}

	day, ok := parseWeekdayParam(w, r.URL.Query().Get("weekday"))
	if !ok {
		return
	}
	t, err := schedule.ParseTimeOfDay(r.URL.Query().Get("time"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid time, expected HH:MM", err)
		return
	}

	block, err := h.planner.SlotAt(r.Context(), trainer, day, t)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up schedule", err)
		return
	}
	if block == nil {
		writeError(w, http.StatusNotFound, "No block at that time", nil)
		return
	}

	writeJSON(w, http.StatusOK, toBlockDTO(*block))
}

// =============================================================================
// HELPERS
// =============================================================================

// loadStudent resolves {id} for the acting trainer, writing the error
// response itself when the lookup fails.
func (h *Handler) loadStudent(w http.ResponseWriter, r *http.Request) (*billing.Student, bool) {
	trainer := trainerID(r)
	if trainer == "" {
		writeError(w, http.StatusBadRequest, "Missing X-Trainer-ID header", nil)
		return nil, false
	}

	id := chi.URLParam(r, "id")
	student, err := h.store.GetStudent(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load student", err)
		return nil, false
	}
	if student == nil || student.TrainerID != trainer {
		writeError(w, http.StatusNotFound, "Student not found", nil)
		return nil, false
	}
	return student, true
}

func (h *Handler) parseEffectiveMonth(w http.ResponseWriter, r *http.Request) (billing.Month, bool) {
	var req EffectiveMonthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return billing.Month{}, false
	}
	m, err := billing.ParseMonth(req.EffectiveMonth)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid effective_month, expected YYYY-MM", err)
		return billing.Month{}, false
	}
	return m, true
}

func (h *Handler) parseOccupantRequest(w http.ResponseWriter, r *http.Request) (string, schedule.BlockKey, string, bool) {
	trainer := trainerID(r)
	if trainer == "" {
		writeError(w, http.StatusBadRequest, "Missing X-Trainer-ID header", nil)
		return "", schedule.BlockKey{}, "", false
	}

	var req OccupantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return "", schedule.BlockKey{}, "", false
	}
	key, ok := parseBlockKey(w, req.Weekday, req.Start, req.End)
	if !ok {
		return "", schedule.BlockKey{}, "", false
	}
	if req.StudentID == "" {
		writeError(w, http.StatusBadRequest, "Student ID is required", nil)
		return "", schedule.BlockKey{}, "", false
	}
	return trainer, key, req.StudentID, true
}

func parseBlockKey(w http.ResponseWriter, weekday int, start, end string) (schedule.BlockKey, bool) {
	if weekday < 0 || weekday > 6 {
		writeError(w, http.StatusBadRequest, "Weekday must be between 0 (Sunday) and 6 (Saturday)", nil)
		return schedule.BlockKey{}, false
	}
	s, err := schedule.ParseTimeOfDay(start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start, expected HH:MM", err)
		return schedule.BlockKey{}, false
	}
	e, err := schedule.ParseTimeOfDay(end)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end, expected HH:MM", err)
		return schedule.BlockKey{}, false
	}
	return schedule.BlockKey{Weekday: time.Weekday(weekday), Start: s, End: e}, true
}

func parseWeekdayParam(w http.ResponseWriter, raw string) (time.Weekday, bool) {
	if len(raw) != 1 || raw[0] < '0' || raw[0] > '6' {
		writeError(w, http.StatusBadRequest, "Weekday must be between 0 (Sunday) and 6 (Saturday)", nil)
		return 0, false
	}
	return time.Weekday(raw[0] - '0'), true
}

func (h *Handler) toDueDTOs(dues []billing.MonthlyDue) []DueDTO {
	current := h.reconciler.Now()
	dtos := make([]DueDTO, 0, len(dues))
	for _, d := range dues {
		dtos = append(dtos, toDueDTO(d, current))
	}
	return dtos
}

// domainError maps billing/schedule error kinds to HTTP status codes.
func (h *Handler) domainError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, billing.ErrNotFound), errors.Is(err, schedule.ErrBlockNotFound):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, billing.ErrConflict),
		errors.Is(err, billing.ErrDuplicateKey),
		errors.Is(err, schedule.ErrCapacity),
		errors.Is(err, schedule.ErrOverlap):
		writeError(w, http.StatusConflict, message, err)
	case errors.Is(err, billing.ErrInvalidAmount), errors.Is(err, schedule.ErrInvalidInterval):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
