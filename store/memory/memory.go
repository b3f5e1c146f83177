// Package memory provides in-memory store implementations (for testing/dev).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tonus/trainer-engine/billing"
	"github.com/tonus/trainer-engine/schedule"
)

// =============================================================================
// MEMORY STORE - Implements billing.TxStore and schedule.Store
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	students map[string]billing.Student
	periods  map[string]billing.ActivityPeriod
	dues     map[string]billing.MonthlyDue
	dueKeys  map[dueKey]string // (student, month) -> due ID, the uniqueness index
	entries  []billing.LedgerEntry
	slots    map[string]schedule.Slot
}

type dueKey struct {
	StudentID string
	Month     billing.Month
}

// Compile-time interface checks
var (
	_ billing.TxStore = (*Memory)(nil)
	_ schedule.Store  = (*Memory)(nil)
)

func New() *Memory {
	return &Memory{
		students: make(map[string]billing.Student),
		periods:  make(map[string]billing.ActivityPeriod),
		dues:     make(map[string]billing.MonthlyDue),
		dueKeys:  make(map[dueKey]string),
		slots:    make(map[string]schedule.Slot),
	}
}

// WithTx runs fn against the same store. The memory store has no rollback;
// tests that need atomicity failure modes use the sqlite store.
func (m *Memory) WithTx(_ context.Context, fn func(billing.Store) error) error {
	return fn(m)
}

// =============================================================================
// STUDENT STORE
// =============================================================================

func (m *Memory) InsertStudent(_ context.Context, s billing.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[s.ID]; ok {
		return billing.ErrDuplicateKey
	}
	m.students[s.ID] = s
	return nil
}

func (m *Memory) GetStudent(_ context.Context, id string) (*billing.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.students[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *Memory) ListStudents(_ context.Context, trainerID string) ([]billing.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []billing.Student
	for _, s := range m.students {
		if s.TrainerID == trainerID && !s.Archived {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) UpdateStudentFee(_ context.Context, id string, fee decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return billing.ErrNotFound
	}
	s.Fee = fee
	m.students[id] = s
	return nil
}

func (m *Memory) ArchiveStudent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return billing.ErrNotFound
	}
	s.Archived = true
	m.students[id] = s
	return nil
}

// =============================================================================
// PERIOD STORE
// =============================================================================

func (m *Memory) InsertPeriod(_ context.Context, p billing.ActivityPeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.End == nil {
		for _, existing := range m.periods {
			if existing.StudentID == p.StudentID && existing.End == nil {
				return billing.ErrDuplicateKey
			}
		}
	}
	m.periods[p.ID] = p
	return nil
}

func (m *Memory) PeriodsByStudent(_ context.Context, studentID string) ([]billing.ActivityPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []billing.ActivityPeriod
	for _, p := range m.periods {
		if p.StudentID == studentID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (m *Memory) OpenPeriod(_ context.Context, studentID string) (*billing.ActivityPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.periods {
		if p.StudentID == studentID && p.End == nil {
			return &p, nil
		}
	}
	return nil, nil
}

func (m *Memory) OpenPeriodsByTrainer(_ context.Context, trainerID string) ([]billing.ActivityPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []billing.ActivityPeriod
	for _, p := range m.periods {
		if p.End != nil {
			continue
		}
		s, ok := m.students[p.StudentID]
		if ok && s.TrainerID == trainerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *Memory) ClosePeriod(_ context.Context, id string, end billing.Month) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.periods[id]
	if !ok {
		return billing.ErrNotFound
	}
	p.End = &end
	p.ScheduledReactivation = nil
	m.periods[id] = p
	return nil
}

func (m *Memory) ScheduleReactivation(_ context.Context, id string, month billing.Month) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.periods[id]
	if !ok {
		return billing.ErrNotFound
	}
	p.ScheduledReactivation = &month
	m.periods[id] = p
	return nil
}

func (m *Memory) DeletePeriod(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.periods[id]; !ok {
		return billing.ErrNotFound
	}
	delete(m.periods, id)
	return nil
}

// =============================================================================
// DUE STORE
// =============================================================================

func (m *Memory) InsertDue(_ context.Context, d billing.MonthlyDue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := dueKey{StudentID: d.StudentID, Month: d.DueMonth}
	if _, ok := m.dueKeys[k]; ok {
		return billing.ErrDuplicateKey
	}
	m.dues[d.ID] = d
	m.dueKeys[k] = d.ID
	return nil
}

func (m *Memory) GetDue(_ context.Context, id string) (*billing.MonthlyDue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.dues[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (m *Memory) DuesForMonth(_ context.Context, trainerID string, month billing.Month) ([]billing.MonthlyDue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []billing.MonthlyDue
	for _, d := range m.dues {
		if d.TrainerID == trainerID && d.DueMonth.Equal(month) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}

func (m *Memory) DuesForStudent(_ context.Context, studentID string) ([]billing.MonthlyDue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []billing.MonthlyDue
	for _, d := range m.dues {
		if d.StudentID == studentID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueMonth.Before(out[j].DueMonth) })
	return out, nil
}

func (m *Memory) SetDueStatus(_ context.Context, id string, status billing.DueStatus, paidOn *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.dues[id]
	if !ok {
		return billing.ErrNotFound
	}
	d.Status = status
	d.PaidOn = paidOn
	m.dues[id] = d
	return nil
}

// =============================================================================
// LEDGER STORE - Append-only
// =============================================================================

func (m *Memory) AppendEntry(_ context.Context, e billing.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *Memory) EntriesForMonth(_ context.Context, trainerID string, month billing.Month) ([]billing.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []billing.LedgerEntry
	for _, e := range m.entries {
		if e.TrainerID == trainerID && billing.MonthOf(e.Date).Equal(month) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// AllEntries returns every ledger entry (test support).
func (m *Memory) AllEntries() []billing.LedgerEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]billing.LedgerEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// =============================================================================
// SCHEDULE STORE
// =============================================================================

func (m *Memory) InsertSlots(_ context.Context, slots []schedule.Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range slots {
		m.slots[s.ID] = s
	}
	return nil
}

func (m *Memory) SlotsByTrainer(_ context.Context, trainerID string) ([]schedule.Slot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []schedule.Slot
	for _, s := range m.slots {
		if s.TrainerID == trainerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *Memory) SlotsByTrainerDay(_ context.Context, trainerID string, day time.Weekday) ([]schedule.Slot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []schedule.Slot
	for _, s := range m.slots {
		if s.TrainerID == trainerID && s.Weekday == day {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *Memory) UpdateBlockTimes(_ context.Context, trainerID string, key schedule.BlockKey, newStart, newEnd schedule.TimeOfDay) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.slots {
		if s.TrainerID == trainerID && s.Key() == key {
			s.Start = newStart
			s.End = newEnd
			m.slots[id] = s
			n++
		}
	}
	return n, nil
}

func (m *Memory) DeleteSlot(_ context.Context, trainerID string, key schedule.BlockKey, studentID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.slots {
		if s.TrainerID == trainerID && s.Key() == key && s.StudentID == studentID {
			delete(m.slots, id)
			return 1, nil
		}
	}
	return 0, nil
}
