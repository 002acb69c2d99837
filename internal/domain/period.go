package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPeriod is returned when the requested report year or month is
// outside the accepted range.
var ErrInvalidPeriod = errors.New("invalid report period")

const (
	minReportYear = 2020
	maxReportYear = 2030

	// activityWindowDays mirrors the vendor UI's default hiding of records
	// with no activity in the trailing year.
	activityWindowDays = 365
)

// Period holds the boundaries for one report run: the first day of the
// report month, and the trailing activity cutoff used to drop stale records.
// Computed once per run, immutable afterwards.
type Period struct {
	Year  int
	Month time.Month

	Start          time.Time
	ActivityCutoff time.Time
}

// NewPeriod builds the period boundaries for (year, month) relative to the
// current date.
func NewPeriod(year, month int) (Period, error) {
	return NewPeriodAt(year, month, time.Now().UTC())
}

// NewPeriodAt is NewPeriod with an explicit reference date for the activity
// cutoff. The cutoff is calendar accurate: it goes back 365 days crossing
// leap years correctly rather than subtracting a fixed second count.
func NewPeriodAt(year, month int, now time.Time) (Period, error) {
	if month < 1 || month > 12 {
		return Period{}, fmt.Errorf("%w: month %d outside 1-12", ErrInvalidPeriod, month)
	}
	if year < minReportYear || year > maxReportYear {
		return Period{}, fmt.Errorf("%w: year %d outside %d-%d", ErrInvalidPeriod, year, minReportYear, maxReportYear)
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -activityWindowDays)

	return Period{
		Year:           year,
		Month:          time.Month(month),
		Start:          start,
		ActivityCutoff: cutoff,
	}, nil
}

// End returns the exclusive upper bound of the report month.
func (p Period) End() time.Time {
	return p.Start.AddDate(0, 1, 0)
}

// Contains reports whether t falls inside the report month.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End())
}

// IsTerminalStatus reports whether a record status means the record is
// closed and should never appear in any bucket.
func IsTerminalStatus(status string) bool {
	switch status {
	case "COMPLETED", "VOIDED":
		return true
	}
	return false
}
