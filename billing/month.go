package billing

import (
	"fmt"
	"time"
)

// =============================================================================
// MONTH - First-of-month billing key
// =============================================================================

// Month identifies a calendar month. It is the key type for dues and
// inactivity periods; all interval reasoning in this package is in whole
// months, never days.
type Month struct {
	Year  int
	Month time.Month
}

// Constructors
func NewMonth(year int, month time.Month) Month {
	return Month{Year: year, Month: month}
}

func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

func CurrentMonth() Month {
	return MonthOf(time.Now())
}

// ParseMonth parses the storage/API form "2006-01".
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q (use YYYY-MM): %w", s, err)
	}
	return MonthOf(t), nil
}

// index maps the month onto a continuous integer scale so comparison and
// arithmetic survive year boundaries.
func (m Month) index() int { return m.Year*12 + int(m.Month) - 1 }

// Comparison
func (m Month) Before(other Month) bool        { return m.index() < other.index() }
func (m Month) After(other Month) bool         { return m.index() > other.index() }
func (m Month) Equal(other Month) bool         { return m.index() == other.index() }
func (m Month) BeforeOrEqual(other Month) bool { return m.index() <= other.index() }
func (m Month) AfterOrEqual(other Month) bool  { return m.index() >= other.index() }

// Arithmetic
func (m Month) AddMonths(n int) Month {
	t := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	return MonthOf(t)
}

func (m Month) Next() Month { return m.AddMonths(1) }
func (m Month) Prev() Month { return m.AddMonths(-1) }

// Sub returns the number of whole months from other to m.
func (m Month) Sub(other Month) int { return m.index() - other.index() }

// FirstDay returns the first day of the month in UTC.
func (m Month) FirstDay() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// String returns the sortable storage form "2006-01".
func (m Month) String() string { return m.FirstDay().Format("2006-01") }

// Label returns the human form used in ledger descriptions, e.g. "March 2025".
func (m Month) Label() string { return m.FirstDay().Format("January 2006") }
