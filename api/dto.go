/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/tonus/trainer-engine/billing"
	"github.com/tonus/trainer-engine/schedule"
)

// =============================================================================
// STUDENTS
// =============================================================================

type StudentDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Fee       string `json:"fee"`
	DueDay    int    `json:"due_day"`
	CreatedAt string `json:"created_at"`
}

func toStudentDTO(s billing.Student) StudentDTO {
	return StudentDTO{
		ID:        s.ID,
		Name:      s.Name,
		Fee:       s.Fee.String(),
		DueDay:    s.DueDay,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
}

type CreateStudentRequest struct {
	Name   string `json:"name"`
	Fee    string `json:"fee"`
	DueDay int    `json:"due_day"`
}

type UpdateFeeRequest struct {
	Fee string `json:"fee"`
}

type EffectiveMonthRequest struct {
	EffectiveMonth string `json:"effective_month"` // "YYYY-MM"
}

type BillableDTO struct {
	StudentID string `json:"student_id"`
	Month     string `json:"month"`
	Billable  bool   `json:"billable"`
}

// =============================================================================
// DUES AND LEDGER
// =============================================================================

type DueDTO struct {
	ID        string `json:"id"`
	StudentID string `json:"student_id"`
	DueMonth  string `json:"due_month"`
	Amount    string `json:"amount"`
	Status    string `json:"status"` // pending, paid, or derived overdue
	PaidOn    string `json:"paid_on,omitempty"`
}

func toDueDTO(d billing.MonthlyDue, current billing.Month) DueDTO {
	dto := DueDTO{
		ID:        d.ID,
		StudentID: d.StudentID,
		DueMonth:  d.DueMonth.String(),
		Amount:    d.Amount.String(),
		Status:    string(d.EffectiveStatus(current)),
	}
	if d.PaidOn != nil {
		dto.PaidOn = d.PaidOn.Format("2006-01-02")
	}
	return dto
}

type SetStatusRequest struct {
	Status string `json:"status"`            // "pending" or "paid"
	PaidOn string `json:"paid_on,omitempty"` // "YYYY-MM-DD", defaults to today
}

type LedgerEntryDTO struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
}

func toLedgerEntryDTO(e billing.LedgerEntry) LedgerEntryDTO {
	return LedgerEntryDTO{
		ID:          e.ID,
		Description: e.Description,
		Amount:      e.Amount.String(),
		Date:        e.Date.Format("2006-01-02"),
	}
}

type LogReceiptRequest struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Date        string `json:"date,omitempty"` // "YYYY-MM-DD", defaults to today
}

type ReportDTO struct {
	Month        string `json:"month"`
	CashIn       string `json:"cash_in"`
	EntryCount   int    `json:"entry_count"`
	DuesTotal    string `json:"dues_total"`
	PendingCount int    `json:"pending_count"`
	PaidCount    int    `json:"paid_count"`
	OverdueCount int    `json:"overdue_count"`
}

// =============================================================================
// SCHEDULE
// =============================================================================

type BlockDTO struct {
	Weekday    int      `json:"weekday"` // 0=Sunday .. 6=Saturday
	Start      string   `json:"start"`
	End        string   `json:"end"`
	DurationMn int      `json:"duration_minutes"`
	StudentIDs []string `json:"student_ids"`
}

func toBlockDTO(b schedule.Block) BlockDTO {
	return BlockDTO{
		Weekday:    int(b.Key.Weekday),
		Start:      b.Key.Start.String(),
		End:        b.Key.End.String(),
		DurationMn: b.Key.Duration(),
		StudentIDs: b.StudentIDs,
	}
}

type OccupyRequest struct {
	Weekday    int      `json:"weekday"`
	Start      string   `json:"start"`
	End        string   `json:"end"`
	StudentIDs []string `json:"student_ids"`
}

type ResizeRequest struct {
	Weekday  int    `json:"weekday"`
	Start    string `json:"start"`
	End      string `json:"end"`
	NewStart string `json:"new_start"`
	NewEnd   string `json:"new_end"`
}

type OccupantRequest struct {
	Weekday   int    `json:"weekday"`
	Start     string `json:"start"`
	End       string `json:"end"`
	StudentID string `json:"student_id"`
}

// =============================================================================
// ERRORS
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
