package planning

import (
	"time"
)

// WorkCalendar defines the plant's working window. Scheduling starts jobs
// inside it, overtime is the portion of a job falling outside it, and
// weekends are never worked.
type WorkCalendar struct {
	StartHour        int     // first working hour of the day
	EndHour          int     // end of the standard window (exclusive)
	MaxOvertimeHours float64 // tolerated overtime per day before warnings
}

// DefaultCalendar is the 08:00-17:00 Monday-Friday week with a 3 hour
// overtime allowance.
func DefaultCalendar() WorkCalendar {
	return WorkCalendar{StartHour: 8, EndHour: 17, MaxOvertimeHours: 3}
}

// HoursPerDay is the length of the standard working window.
func (c WorkCalendar) HoursPerDay() float64 {
	return float64(c.EndHour - c.StartHour)
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func atHour(t time.Time, hour int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, t.Location())
}

// nextWorkday returns the start of the next working day after t.
func (c WorkCalendar) nextWorkday(t time.Time) time.Time {
	next := atHour(t.AddDate(0, 0, 1), c.StartHour)
	for isWeekend(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// AlignToWorkStart snaps a time to the next available working hour: truncated
// to the hour, moved up to StartHour when too early, rolled to the next
// workday when at or past EndHour, and shifted off weekends.
func (c WorkCalendar) AlignToWorkStart(t time.Time) time.Time {
	result := atHour(t, t.Hour())
	switch {
	case result.Hour() < c.StartHour:
		result = atHour(result, c.StartHour)
	case result.Hour() >= c.EndHour:
		result = c.nextWorkday(result)
	}
	for isWeekend(result) {
		result = result.AddDate(0, 0, 1)
	}
	return result
}

// AdvanceWorkHours moves start forward by the given number of working hours,
// consuming the remainder of each working day and skipping weekends.
func (c WorkCalendar) AdvanceWorkHours(start time.Time, hours float64) time.Time {
	const eps = 1e-9
	remaining := hours
	current := start

	for remaining > eps {
		if current.Hour() >= c.EndHour {
			current = c.nextWorkday(current)
		}
		if current.Hour() < c.StartHour {
			current = atHour(current, c.StartHour)
		}
		for isWeekend(current) {
			current = current.AddDate(0, 0, 1)
		}

		dayEnd := atHour(current, c.EndHour)
		available := dayEnd.Sub(current).Hours()
		if available <= 0 {
			current = c.nextWorkday(current)
			continue
		}

		if remaining <= available {
			current = current.Add(hoursDuration(remaining))
			remaining = 0
		} else {
			remaining -= available
			current = c.nextWorkday(current)
		}
	}
	return current
}

// JobOvertimeHours measures how much of the span [start, end) falls outside
// the standard working window.
func (c WorkCalendar) JobOvertimeHours(start, end time.Time) float64 {
	overtime := 0.0
	current := start
	for current.Before(end) {
		dayEnd := atHour(current, c.EndHour)
		if !current.Before(dayEnd) {
			next := c.nextWorkday(current)
			otEnd := minTime(end, next)
			overtime += otEnd.Sub(current).Hours()
			current = next
		} else {
			current = minTime(end, dayEnd)
		}
	}
	return max(overtime, 0)
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
