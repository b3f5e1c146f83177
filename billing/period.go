package billing

import "time"

// =============================================================================
// ACTIVITY PERIOD - Inclusive month range of inactivity
// =============================================================================

// ActivityPeriod is a contiguous inclusive range of months during which a
// student is inactive (not billable). End == nil means "inactive from Start
// onward until further notice"; at most one such open period may exist per
// student, enforced by the store.
//
// ScheduledReactivation stages a reactivation that lies in the future: the
// period stays open (the student must still read as inactive for the
// intervening months) but any month at or past the marker reads as billable.
// A maintenance pass materializes the closed period once the month arrives.
type ActivityPeriod struct {
	ID                    string
	StudentID             string
	Start                 Month
	End                   *Month // inclusive; nil = open-ended
	ScheduledReactivation *Month
	CreatedAt             time.Time
}

// Open reports whether the period is still open-ended.
func (p ActivityPeriod) Open() bool { return p.End == nil }

// Covers reports whether month m falls inside the inactive range, taking a
// staged future reactivation into account. billable(m) == no period covers m.
func (p ActivityPeriod) Covers(m Month) bool {
	if m.Before(p.Start) {
		return false
	}
	if p.ScheduledReactivation != nil && m.AfterOrEqual(*p.ScheduledReactivation) {
		return false
	}
	if p.End != nil && m.After(*p.End) {
		return false
	}
	return true
}
