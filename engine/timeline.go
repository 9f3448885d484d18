package engine

import (
	"fmt"
	"time"
)

// =============================================================================
// MONTH & WINDOW - The core concept for series calculation
// =============================================================================

// Month is a zero-based absolute project month.
type Month int

// Window is an inclusive range of project months.
// A line is active for every month in [Start, End].
type Window struct {
	Start Month `json:"start_month"`
	End   Month `json:"end_month"`
}

// Validate rejects windows whose end precedes their start.
func (w Window) Validate() error {
	if w.End < w.Start {
		return &RangeError{Start: w.Start, End: w.End}
	}
	return nil
}

// Contains returns true if m is within [Start, End].
func (w Window) Contains(m Month) bool {
	return m >= w.Start && m <= w.End
}

// Count returns the number of months in the window.
func (w Window) Count() int {
	if w.End < w.Start {
		return 0
	}
	return int(w.End-w.Start) + 1
}

// Clip restricts the window to a timeline of n months.
// ok is false when nothing of the window lies inside the timeline.
func (w Window) Clip(n int) (clipped Window, ok bool) {
	start, end := w.Start, w.End
	if start < 0 {
		start = 0
	}
	if int(end) > n-1 {
		end = Month(n - 1)
	}
	if end < start {
		return Window{}, false
	}
	return Window{Start: start, End: end}, true
}

// Shift moves the window by delta months.
func (w Window) Shift(delta int) Window {
	return Window{Start: w.Start + Month(delta), End: w.End + Month(delta)}
}

// YearsElapsed returns the whole years between the window start and m.
func (w Window) YearsElapsed(m Month) int {
	if m <= w.Start {
		return 0
	}
	return int(m-w.Start) / 12
}

// SpanYears returns the whole years the window spans.
func (w Window) SpanYears() int {
	return w.YearsElapsed(w.End)
}

func (w Window) String() string {
	return fmt.Sprintf("[M%d, M%d]", w.Start, w.End)
}

// =============================================================================
// TIMELINE - Maps project months onto the calendar
// =============================================================================

// Timeline is the fixed horizon every series in a scenario spans.
type Timeline struct {
	Months int
	Start  TimePoint // zero when the project has no calendar anchor
}

// NewTimeline anchors a timeline of n months at the given year and month.
func NewTimeline(n int, year int, month time.Month) Timeline {
	return Timeline{Months: n, Start: StartOfMonth(year, month)}
}

// Label returns "2026-03" for anchored timelines and "M3" otherwise.
func (t Timeline) Label(m Month) string {
	if t.Start.IsZero() {
		return fmt.Sprintf("M%d", m)
	}
	return t.Start.AddMonths(int(m)).Time.Format("2006-01")
}

// Labels returns the label of every month in the timeline.
func (t Timeline) Labels() []string {
	out := make([]string, t.Months)
	for i := range out {
		out[i] = t.Label(Month(i))
	}
	return out
}

// MonthOf returns the project month that contains the calendar date.
func (t Timeline) MonthOf(date TimePoint) Month {
	if t.Start.IsZero() {
		return 0
	}
	years := date.Year() - t.Start.Year()
	months := int(date.Month()) - int(t.Start.Month())
	return Month(years*12 + months)
}

// =============================================================================
// TIME POINT - Calendar anchor
// =============================================================================

type TimePoint struct {
	Time time.Time
}

func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseMonth parses "2006-01" into the first day of that month.
func ParseMonth(s string) (TimePoint, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return TimePoint{}, fmt.Errorf("invalid month %q (use YYYY-MM): %w", s, err)
	}
	return TimePoint{Time: t.UTC()}, nil
}

func (tp TimePoint) AddMonths(n int) TimePoint { return TimePoint{Time: tp.Time.AddDate(0, n, 0)} }
func (tp TimePoint) Year() int                 { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month         { return tp.Time.Month() }
func (tp TimePoint) IsZero() bool              { return tp.Time.IsZero() }

func (tp TimePoint) String() string {
	if tp.IsZero() {
		return ""
	}
	return tp.Time.Format("2006-01")
}

func StartOfMonth(year int, month time.Month) TimePoint { return NewTimePoint(year, month, 1) }
