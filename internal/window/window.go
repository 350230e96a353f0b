// Package window computes the Thursday-to-Wednesday prediction window and
// its open/close instants. All functions are pure; the earliest kickoff of
// the window is passed in by callers so this package never touches storage.
package window

import "time"

// CloseLead is how long before the window's first kickoff submissions close.
const CloseLead = 2 * time.Hour

// State of a window relative to a point in time.
type State string

const (
	BeforeOpen State = "before_open"
	Open       State = "open"
	Closed     State = "closed"
)

// Window is one Thursday-to-Wednesday prediction period. Start and End are
// calendar dates (midnight UTC); OpenAt and CloseAt are instants in the
// deployment's local zone. A zero CloseAt means no fixtures are known for
// the window yet, so there is no close bound.
type Window struct {
	Start   time.Time
	End     time.Time
	OpenAt  time.Time
	CloseAt time.Time
}

// HasFixtures reports whether a close instant could be computed, i.e. at
// least one fixture in the window has been synced.
func (w Window) HasFixtures() bool { return !w.CloseAt.IsZero() }

// StateAt evaluates the window state machine at now. Open iff
// OpenAt <= now < CloseAt; with no close bound the window stays Open once
// OpenAt has passed (the per-match kickoff lock still protects each match).
func (w Window) StateAt(now time.Time) State {
	if now.Before(w.OpenAt) {
		return BeforeOpen
	}
	if w.CloseAt.IsZero() || now.Before(w.CloseAt) {
		return Open
	}
	return Closed
}

// ContainsDate reports whether t's calendar date falls inside [Start, End].
func (w Window) ContainsDate(t time.Time) bool {
	d := DateOf(t)
	return !d.Before(w.Start) && !d.After(w.End)
}

// DateOf returns the calendar date of t, read in t's own location, as a
// midnight-UTC value. Matches the representation pgx uses for DATE columns,
// so dates compare as plain instants.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the most recent Thursday on or before d. A Thursday maps
// to itself.
func WeekStart(d time.Time) time.Time {
	day := DateOf(d)
	offset := (int(day.Weekday()) - int(time.Thursday) + 7) % 7
	return day.AddDate(0, 0, -offset)
}

// WindowFor returns the window dates containing d: the Thursday on or before
// d and the following Wednesday. d always lies within [start, end].
func WindowFor(d time.Time) (start, end time.Time) {
	start = WeekStart(d)
	return start, start.AddDate(0, 0, 6)
}

// Calculator derives open/close instants for windows in a fixed local zone.
type Calculator struct {
	loc      *time.Location
	openHour int
}

// NewCalculator creates a Calculator. openHour is the local hour on Thursday
// at which the window opens.
func NewCalculator(loc *time.Location, openHour int) *Calculator {
	if loc == nil {
		loc = time.UTC
	}
	return &Calculator{loc: loc, openHour: openHour}
}

// Location returns the calculator's zone.
func (c *Calculator) Location() *time.Location { return c.loc }

// OpenClose computes the window containing anchor. firstKickoff is the
// earliest local kickoff among the window's matches, or nil when none are
// synced yet, which leaves the window without a close bound.
func (c *Calculator) OpenClose(anchor time.Time, firstKickoff *time.Time) Window {
	start, end := WindowFor(anchor)
	openAt := time.Date(start.Year(), start.Month(), start.Day(), c.openHour, 0, 0, 0, c.loc)

	var closeAt time.Time
	if firstKickoff != nil {
		closeAt = firstKickoff.Add(-CloseLead)
	}
	return Window{Start: start, End: end, OpenAt: openAt, CloseAt: closeAt}
}

// NextAnchor returns an anchor date inside the window after the one
// containing anchor.
func NextAnchor(anchor time.Time) time.Time {
	return WeekStart(anchor).AddDate(0, 0, 7)
}

// LastWeekStart returns the Thursday of the window that ended before the one
// containing anchor, i.e. the week the orchestrator scores after close.
func LastWeekStart(anchor time.Time) time.Time {
	return WeekStart(anchor).AddDate(0, 0, -7)
}
