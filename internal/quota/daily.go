package quota

import "time"

// DailyCounter pairs a count with the calendar day it belongs to. Every
// consumer calls CheckAndReset before incrementing, so the "new day" logic
// lives in exactly one place instead of being scattered across call sites.
type DailyCounter struct {
	Count     int
	ResetDate time.Time
	Limit     int
	loc       *time.Location
}

// NewDailyCounter creates a counter that resets at local midnight in loc.
func NewDailyCounter(limit int, loc *time.Location) *DailyCounter {
	if loc == nil {
		loc = time.UTC
	}
	return &DailyCounter{Limit: limit, loc: loc}
}

// CheckAndReset zeroes the count when now belongs to a later calendar day
// than the stored reset date. A rollover resets at most once: repeated calls
// within the same day are no-ops.
func (d *DailyCounter) CheckAndReset(now time.Time) {
	today := midnight(now, d.loc)
	if d.ResetDate.IsZero() || today.After(d.ResetDate) {
		d.Count = 0
		d.ResetDate = today
	}
}

// Exhausted reports whether the limit is already spent for the current day.
func (d *DailyCounter) Exhausted(now time.Time) bool {
	d.CheckAndReset(now)
	return d.Limit > 0 && d.Count >= d.Limit
}

// Increment consumes one unit, returning false when the daily limit is hit.
func (d *DailyCounter) Increment(now time.Time) bool {
	d.CheckAndReset(now)
	if d.Limit > 0 && d.Count >= d.Limit {
		return false
	}
	d.Count++
	return true
}

// Remaining returns how many units are left today.
func (d *DailyCounter) Remaining(now time.Time) int {
	d.CheckAndReset(now)
	if d.Limit <= 0 {
		return int(^uint(0) >> 1)
	}
	left := d.Limit - d.Count
	if left < 0 {
		return 0
	}
	return left
}

func midnight(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
