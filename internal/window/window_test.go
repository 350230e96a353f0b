package window

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekStart_AlwaysThursday(t *testing.T) {
	// Sweep a full year of dates; every result must be a Thursday on or
	// before the input, at most six days back.
	d := date(2025, time.January, 1)
	for i := 0; i < 365; i++ {
		ws := WeekStart(d)
		if ws.Weekday() != time.Thursday {
			t.Fatalf("WeekStart(%s) = %s, weekday %s, want Thursday",
				d.Format("2006-01-02"), ws.Format("2006-01-02"), ws.Weekday())
		}
		if ws.After(d) {
			t.Fatalf("WeekStart(%s) = %s is after input", d.Format("2006-01-02"), ws.Format("2006-01-02"))
		}
		if d.Sub(ws) > 6*24*time.Hour {
			t.Fatalf("WeekStart(%s) = %s is more than 6 days back", d.Format("2006-01-02"), ws.Format("2006-01-02"))
		}
		d = d.AddDate(0, 0, 1)
	}
}

func TestWeekStart_ThursdayMapsToItself(t *testing.T) {
	thu := date(2025, time.January, 9)
	if got := WeekStart(thu); !got.Equal(thu) {
		t.Errorf("WeekStart(Thursday) = %s, want itself", got.Format("2006-01-02"))
	}
}

func TestWindowFor_KnownWeek(t *testing.T) {
	// 2025-01-10 is a Friday; its window is Thu 2025-01-09 .. Wed 2025-01-15.
	start, end := WindowFor(date(2025, time.January, 10))
	if want := date(2025, time.January, 9); !start.Equal(want) {
		t.Errorf("start = %s, want %s", start.Format("2006-01-02"), want.Format("2006-01-02"))
	}
	if want := date(2025, time.January, 15); !end.Equal(want) {
		t.Errorf("end = %s, want %s", end.Format("2006-01-02"), want.Format("2006-01-02"))
	}
}

func TestWindowFor_ContainsInput(t *testing.T) {
	d := date(2024, time.June, 1)
	for i := 0; i < 60; i++ {
		start, end := WindowFor(d)
		if d.Before(start) || d.After(end) {
			t.Fatalf("%s outside its own window [%s, %s]",
				d.Format("2006-01-02"), start.Format("2006-01-02"), end.Format("2006-01-02"))
		}
		d = d.AddDate(0, 0, 1)
	}
}

func TestOpenClose_WithFixtures(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Singapore")
	if err != nil {
		t.Fatal(err)
	}
	calc := NewCalculator(loc, 9)

	// First kickoff Saturday 2025-01-11 at 20:00 local.
	kick := time.Date(2025, time.January, 11, 20, 0, 0, 0, loc)
	w := calc.OpenClose(date(2025, time.January, 10), &kick)

	wantOpen := time.Date(2025, time.January, 9, 9, 0, 0, 0, loc)
	if !w.OpenAt.Equal(wantOpen) {
		t.Errorf("OpenAt = %s, want %s", w.OpenAt, wantOpen)
	}
	wantClose := kick.Add(-2 * time.Hour)
	if !w.CloseAt.Equal(wantClose) {
		t.Errorf("CloseAt = %s, want %s", w.CloseAt, wantClose)
	}
	if !w.HasFixtures() {
		t.Error("HasFixtures() = false, want true")
	}
}

func TestOpenClose_NoFixtures(t *testing.T) {
	calc := NewCalculator(time.UTC, 9)
	w := calc.OpenClose(date(2025, time.January, 10), nil)

	if w.HasFixtures() {
		t.Error("HasFixtures() = true, want false")
	}
	// No close bound: still open well after the open instant.
	if got := w.StateAt(w.OpenAt.Add(96 * time.Hour)); got != Open {
		t.Errorf("StateAt(open+96h) = %s, want %s", got, Open)
	}
	if got := w.StateAt(w.OpenAt.Add(-time.Minute)); got != BeforeOpen {
		t.Errorf("StateAt(open-1m) = %s, want %s", got, BeforeOpen)
	}
}

func TestStateAt_Transitions(t *testing.T) {
	calc := NewCalculator(time.UTC, 9)
	kick := time.Date(2025, time.January, 11, 15, 0, 0, 0, time.UTC)
	w := calc.OpenClose(date(2025, time.January, 10), &kick)

	cases := []struct {
		name string
		now  time.Time
		want State
	}{
		{"before open", w.OpenAt.Add(-time.Second), BeforeOpen},
		{"at open", w.OpenAt, Open},
		{"mid window", w.OpenAt.Add(12 * time.Hour), Open},
		{"just before close", w.CloseAt.Add(-time.Second), Open},
		{"at close", w.CloseAt, Closed},
		{"after close", w.CloseAt.Add(time.Hour), Closed},
	}
	for _, tc := range cases {
		if got := w.StateAt(tc.now); got != tc.want {
			t.Errorf("%s: StateAt = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestContainsDate(t *testing.T) {
	calc := NewCalculator(time.UTC, 9)
	w := calc.OpenClose(date(2025, time.January, 10), nil)

	if !w.ContainsDate(date(2025, time.January, 9)) {
		t.Error("start date should be contained")
	}
	if !w.ContainsDate(date(2025, time.January, 15)) {
		t.Error("end date should be contained")
	}
	if w.ContainsDate(date(2025, time.January, 16)) {
		t.Error("day after end should not be contained")
	}
	if w.ContainsDate(date(2025, time.January, 8)) {
		t.Error("day before start should not be contained")
	}
}

func TestDateOf_UsesLocalCalendarDate(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Singapore")
	if err != nil {
		t.Fatal(err)
	}
	// 2025-01-10 23:30 UTC is already 2025-01-11 in Singapore.
	utc := time.Date(2025, time.January, 10, 23, 30, 0, 0, time.UTC)
	if got := DateOf(utc.In(loc)); !got.Equal(date(2025, time.January, 11)) {
		t.Errorf("DateOf = %s, want 2025-01-11", got.Format("2006-01-02"))
	}
}

func TestLastWeekStart(t *testing.T) {
	got := LastWeekStart(date(2025, time.January, 10))
	if want := date(2025, time.January, 2); !got.Equal(want) {
		t.Errorf("LastWeekStart = %s, want %s", got.Format("2006-01-02"), want.Format("2006-01-02"))
	}
}

func TestNextAnchor(t *testing.T) {
	got := NextAnchor(date(2025, time.January, 10))
	if want := date(2025, time.January, 16); !got.Equal(want) {
		t.Errorf("NextAnchor = %s, want %s", got.Format("2006-01-02"), want.Format("2006-01-02"))
	}
	// The next anchor's window starts exactly seven days after the current.
	start, _ := WindowFor(got)
	if want := date(2025, time.January, 16); !start.Equal(want) {
		t.Errorf("next window start = %s, want %s", start.Format("2006-01-02"), want.Format("2006-01-02"))
	}
}
