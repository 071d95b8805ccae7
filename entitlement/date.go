package entitlement

import (
	"encoding/json"
	"time"
)

// =============================================================================
// DATE - Civil date (day granularity, UTC)
// =============================================================================

// Date is a civil date. Travel entitlements are day-granular; normalizing to
// UTC midnight keeps comparisons and JSON round-trips stable.
type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an arbitrary time to its civil date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a "2006-01-02" date string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(o Date) bool        { return d.normalize().Before(o.normalize()) }
func (d Date) After(o Date) bool         { return d.normalize().After(o.normalize()) }
func (d Date) Equal(o Date) bool         { return d.normalize().Equal(o.normalize()) }
func (d Date) BeforeOrEqual(o Date) bool { return d.Before(o) || d.Equal(o) }
func (d Date) AfterOrEqual(o Date) bool  { return d.After(o) || d.Equal(o) }

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{Time: d.Time.AddDate(0, 0, n)} }

// Properties
func (d Date) Year() int         { return d.Time.Year() }
func (d Date) Month() time.Month { return d.Time.Month() }
func (d Date) Day() int          { return d.Time.Day() }
func (d Date) IsZero() bool      { return d.Time.IsZero() }

// FiscalYear returns the federal fiscal year containing the date.
// FY N runs October 1 of N-1 through September 30 of N; PCS reference
// tables are published per fiscal year.
func (d Date) FiscalYear() int {
	if d.Time.Month() >= time.October {
		return d.Time.Year() + 1
	}
	return d.Time.Year()
}

func (d Date) String() string {
	return d.normalize().Format("2006-01-02")
}

// DaysBetween returns whole days from one date to another (to - from).
func DaysBetween(from, to Date) int {
	return int(to.normalize().Sub(from.normalize()).Hours() / 24)
}

// JSON round-trips as "2006-01-02".
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
