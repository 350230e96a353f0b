package cycle

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeSyncer struct {
	counts map[string]int
	errs   map[string]error
	calls  []string
}

func (f *fakeSyncer) Sync(ctx context.Context, from, to time.Time, status string) (int, error) {
	f.calls = append(f.calls, status)
	return f.counts[status], f.errs[status]
}

type fakeScorer struct {
	users      int
	err        error
	recomputed []struct {
		group int
		week  time.Time
	}
}

func (f *fakeScorer) RecomputeWeek(ctx context.Context, groupID int, weekStart time.Time) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.recomputed = append(f.recomputed, struct {
		group int
		week  time.Time
	}{groupID, weekStart})
	return f.users, nil
}

type fakeGroups struct {
	ids []int
	err error
}

func (f *fakeGroups) ActiveGroupIDs(ctx context.Context) ([]int, error) { return f.ids, f.err }

type fakeMarker struct {
	last     *time.Time
	recorded []Result
}

func (f *fakeMarker) LastRun(ctx context.Context) (*time.Time, error) { return f.last, nil }
func (f *fakeMarker) RecordRun(ctx context.Context, r Result) error {
	f.recorded = append(f.recorded, r)
	f.last = &r.WeekStart
	return nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextTrigger(t *testing.T) {
	// 2025-01-09 is a Thursday.
	cases := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"wednesday night", time.Date(2025, 1, 8, 22, 0, 0, 0, time.UTC), time.Date(2025, 1, 9, 9, 0, 0, 0, time.UTC)},
		{"thursday before trigger", time.Date(2025, 1, 9, 8, 59, 0, 0, time.UTC), time.Date(2025, 1, 9, 9, 0, 0, 0, time.UTC)},
		{"exactly at trigger", time.Date(2025, 1, 9, 9, 0, 0, 0, time.UTC), time.Date(2025, 1, 16, 9, 0, 0, 0, time.UTC)},
		{"friday", time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC), time.Date(2025, 1, 16, 9, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		if got := NextTrigger(tc.now, time.UTC, 9); !got.Equal(tc.want) {
			t.Errorf("%s: NextTrigger = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestDue_Coalescing(t *testing.T) {
	// Current window starts Thursday 2025-01-09; trigger at 09:00.
	thisWeek := date(2025, time.January, 9)
	lastWeek := date(2025, time.January, 2)
	monthAgo := date(2024, time.December, 12)
	afterTrigger := time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC)
	beforeTrigger := time.Date(2025, 1, 9, 8, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		last *time.Time
		now  time.Time
		want bool
	}{
		{"never ran, after trigger", nil, afterTrigger, true},
		{"never ran, before trigger", nil, beforeTrigger, false},
		{"ran this week already", &thisWeek, afterTrigger, false},
		{"ran last week, trigger passed", &lastWeek, afterTrigger, true},
		{"missed many weeks, still one run", &monthAgo, afterTrigger, true},
	}
	for _, tc := range cases {
		if got := Due(tc.last, tc.now, time.UTC, 9); got != tc.want {
			t.Errorf("%s: Due = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func newTestRunner(syncer *fakeSyncer, scorer *fakeScorer, groups *fakeGroups, marker *fakeMarker, now time.Time) *Runner {
	r := NewRunner(syncer, scorer, groups, marker, time.UTC, 9, nil)
	r.now = func() time.Time { return now }
	return r
}

func TestRunOnce_SyncsAndScores(t *testing.T) {
	syncer := &fakeSyncer{counts: map[string]int{"SCHEDULED": 10, "FINISHED": 8}}
	scorer := &fakeScorer{users: 3}
	groups := &fakeGroups{ids: []int{1, 2}}
	now := time.Date(2025, 1, 9, 9, 0, 5, 0, time.UTC) // Thursday just after trigger

	r := newTestRunner(syncer, scorer, groups, &fakeMarker{}, now)
	res := r.RunOnce(context.Background())

	if res.FixturesSynced != 10 || res.ResultsSynced != 8 {
		t.Errorf("synced = %d/%d, want 10/8", res.FixturesSynced, res.ResultsSynced)
	}
	if len(syncer.calls) != 2 || syncer.calls[0] != "SCHEDULED" || syncer.calls[1] != "FINISHED" {
		t.Errorf("sync calls = %v", syncer.calls)
	}
	if res.GroupsScored != 2 || res.UsersScored != 6 {
		t.Errorf("scored = %d groups / %d users, want 2/6", res.GroupsScored, res.UsersScored)
	}
	// The week scored is the one that just closed: Thursday a week earlier.
	wantWeek := date(2025, time.January, 2)
	for _, rec := range scorer.recomputed {
		if !rec.week.Equal(wantWeek) {
			t.Errorf("recomputed week = %s, want 2025-01-02", rec.week.Format("2006-01-02"))
		}
	}
	if !res.WeekStart.Equal(date(2025, time.January, 9)) {
		t.Errorf("WeekStart = %s, want 2025-01-09", res.WeekStart.Format("2006-01-02"))
	}
}

func TestRunOnce_SyncFailureDoesNotBlockScoring(t *testing.T) {
	syncer := &fakeSyncer{
		counts: map[string]int{},
		errs: map[string]error{
			"SCHEDULED": errors.New("provider down"),
			"FINISHED":  errors.New("provider down"),
		},
	}
	scorer := &fakeScorer{users: 2}
	groups := &fakeGroups{ids: []int{5}}
	now := time.Date(2025, 1, 9, 10, 0, 0, 0, time.UTC)

	r := newTestRunner(syncer, scorer, groups, &fakeMarker{}, now)
	res := r.RunOnce(context.Background())

	if len(res.SyncErrors) != 2 {
		t.Errorf("SyncErrors = %v, want 2 entries", res.SyncErrors)
	}
	if res.GroupsScored != 1 {
		t.Errorf("GroupsScored = %d, want 1 (scoring must still run)", res.GroupsScored)
	}
}

func TestRunOnce_ScorerFailureSkipsGroupOnly(t *testing.T) {
	syncer := &fakeSyncer{counts: map[string]int{}}
	scorer := &fakeScorer{err: errors.New("deadlock")}
	groups := &fakeGroups{ids: []int{1, 2, 3}}
	now := time.Date(2025, 1, 9, 10, 0, 0, 0, time.UTC)

	r := newTestRunner(syncer, scorer, groups, &fakeMarker{}, now)
	res := r.RunOnce(context.Background())

	if res.GroupsScored != 0 {
		t.Errorf("GroupsScored = %d, want 0", res.GroupsScored)
	}
}

func TestRunIfDue_RecordsMarkerAndCoalesces(t *testing.T) {
	syncer := &fakeSyncer{counts: map[string]int{"SCHEDULED": 1, "FINISHED": 1}}
	scorer := &fakeScorer{users: 1}
	groups := &fakeGroups{ids: []int{1}}
	marker := &fakeMarker{}
	now := time.Date(2025, 1, 9, 9, 30, 0, 0, time.UTC)

	r := newTestRunner(syncer, scorer, groups, marker, now)

	r.runIfDue(context.Background())
	if len(marker.recorded) != 1 {
		t.Fatalf("recorded = %d runs, want 1", len(marker.recorded))
	}

	// Second check in the same window: coalesced, no second run.
	r.runIfDue(context.Background())
	if len(marker.recorded) != 1 {
		t.Errorf("recorded = %d runs after re-check, want still 1", len(marker.recorded))
	}
}
