package sla

import "time"

// DateLayout is the calendar-date format used for due and completion dates.
const DateLayout = "2006-01-02"

// Metrics holds the SLA fields derived from a task's dates. Nil pointers mean
// one of the inputs was absent.
type Metrics struct {
	SLADays   *int
	DelayDays *int
	Breach    bool
}

// Date truncates t to its calendar date in UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

const secondsPerDay = 24 * 60 * 60

// WholeDays returns the number of calendar days from from to to. It is
// negative when to is earlier than from. Unix seconds are used rather than
// time.Duration, which cannot span more than about 292 years.
func WholeDays(from, to time.Time) int {
	return int((Date(to).Unix() - Date(from).Unix()) / secondsPerDay)
}

// Compute derives the SLA metrics of a task created at createdAt.
// A zero createdAt counts as absent.
func Compute(createdAt time.Time, dueAt, completedAt *time.Time) Metrics {
	var m Metrics
	if dueAt != nil && !createdAt.IsZero() {
		v := WholeDays(createdAt, *dueAt)
		m.SLADays = &v
	}
	if dueAt != nil && completedAt != nil {
		v := WholeDays(*dueAt, *completedAt)
		m.DelayDays = &v
		m.Breach = v > 0
	}
	return m
}

// ParseDate parses a YYYY-MM-DD calendar date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
