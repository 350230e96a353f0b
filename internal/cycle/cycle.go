// Package cycle runs the weekly orchestration: sync upcoming fixtures and
// recent results, then rescore the week that just closed for every group.
//
// The trigger is a plain Go timer aimed at Thursday 09:00 local, with
// coalescing via a cycle_runs marker row: a delayed or missed trigger causes
// at most one catch-up run, never a backlog of repeated runs.
package cycle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/matchweek/matchweek/internal/provider/fd"
	"github.com/matchweek/matchweek/internal/sync"
	"github.com/matchweek/matchweek/internal/window"
)

// Syncer pulls a date range from the provider into the match store.
type Syncer interface {
	Sync(ctx context.Context, dateFrom, dateTo time.Time, status string) (int, error)
}

// Scorer recomputes one group's weekly scores.
type Scorer interface {
	RecomputeWeek(ctx context.Context, groupID int, weekStart time.Time) (int, error)
}

// Groups lists the groups to score each cycle.
type Groups interface {
	ActiveGroupIDs(ctx context.Context) ([]int, error)
}

// Marker persists the last completed run's week so restarts and delayed
// triggers coalesce instead of re-running.
type Marker interface {
	LastRun(ctx context.Context) (*time.Time, error)
	RecordRun(ctx context.Context, r Result) error
}

// Result is the informational summary of one run. It is reported, never
// used for correctness decisions.
type Result struct {
	WeekStart      time.Time
	FixturesSynced int
	ResultsSynced  int
	GroupsScored   int
	UsersScored    int
	SyncErrors     []string
	Duration       time.Duration
}

// Summary returns a human-readable summary.
func (r *Result) Summary() string {
	s := fmt.Sprintf("week=%s fixtures=%d results=%d groups=%d users=%d dur=%s",
		r.WeekStart.Format("2006-01-02"), r.FixturesSynced, r.ResultsSynced,
		r.GroupsScored, r.UsersScored, r.Duration.Round(time.Second))
	if len(r.SyncErrors) > 0 {
		s += " sync_errors=" + strings.Join(r.SyncErrors, "; ")
	}
	return s
}

// Runner owns the weekly trigger and executes runs.
type Runner struct {
	syncer Syncer
	scorer Scorer
	groups Groups
	marker Marker
	loc    *time.Location
	hour   int // local trigger hour on Thursdays
	now    func() time.Time
	logger *slog.Logger
}

// NewRunner creates a Runner triggering Thursdays at the given local hour.
func NewRunner(syncer Syncer, scorer Scorer, groups Groups, marker Marker, loc *time.Location, hour int, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Runner{
		syncer: syncer,
		scorer: scorer,
		groups: groups,
		marker: marker,
		loc:    loc,
		hour:   hour,
		now:    time.Now,
		logger: logger,
	}
}

// NextTrigger returns the first Thursday hour:00 in loc strictly after now.
func NextTrigger(now time.Time, loc *time.Location, hour int) time.Time {
	local := now.In(loc)
	ws := window.WeekStart(local)
	trigger := time.Date(ws.Year(), ws.Month(), ws.Day(), hour, 0, 0, 0, loc)
	if !trigger.After(now) {
		trigger = trigger.AddDate(0, 0, 7)
	}
	return trigger
}

// Due decides whether a run should happen now: the current window's trigger
// instant has passed and no run has been recorded for this window yet. A
// marker from an older window still yields exactly one run — that single
// catch-up coalesces any number of missed triggers.
func Due(lastRun *time.Time, now time.Time, loc *time.Location, hour int) bool {
	local := now.In(loc)
	currentStart := window.WeekStart(local)
	trigger := time.Date(currentStart.Year(), currentStart.Month(), currentStart.Day(), hour, 0, 0, 0, loc)
	if now.Before(trigger) {
		return false
	}
	return lastRun == nil || lastRun.Before(currentStart)
}

// RunOnce executes one full cycle unconditionally: sync the next 7 days of
// fixtures and the prior 7 days of results, then recompute the week that
// just closed for every active group. Sync failures are logged and recorded
// in the result but never block the scoring phase — whatever data is already
// persisted still gets scored.
func (r *Runner) RunOnce(ctx context.Context) Result {
	start := r.now()
	today := start.In(r.loc)

	result := Result{WeekStart: window.WeekStart(today)}

	from, to := sync.UpcomingRange(today, 7)
	n, err := r.syncer.Sync(ctx, from, to, fd.StatusScheduled)
	if err != nil {
		r.logger.Warn("Fixture sync failed, scoring continues on persisted data", "error", err)
		result.SyncErrors = append(result.SyncErrors, err.Error())
	}
	result.FixturesSynced = n

	from, to = sync.PriorRange(today, 7)
	n, err = r.syncer.Sync(ctx, from, to, fd.StatusFinished)
	if err != nil {
		r.logger.Warn("Result sync failed, scoring continues on persisted data", "error", err)
		result.SyncErrors = append(result.SyncErrors, err.Error())
	}
	result.ResultsSynced = n

	lastWeek := window.LastWeekStart(today)
	ids, err := r.groups.ActiveGroupIDs(ctx)
	if err != nil {
		r.logger.Error("Listing groups failed, no scoring this run", "error", err)
		result.Duration = r.now().Sub(start)
		return result
	}
	for _, groupID := range ids {
		users, err := r.scorer.RecomputeWeek(ctx, groupID, lastWeek)
		if err != nil {
			r.logger.Error("Recompute failed", "group", groupID,
				"week_start", lastWeek.Format("2006-01-02"), "error", err)
			continue
		}
		result.GroupsScored++
		result.UsersScored += users
	}

	result.Duration = r.now().Sub(start)
	return result
}

// runIfDue checks the marker and executes at most one run.
func (r *Runner) runIfDue(ctx context.Context) {
	last, err := r.marker.LastRun(ctx)
	if err != nil {
		r.logger.Error("Reading cycle marker failed", "error", err)
		return
	}
	if !Due(last, r.now(), r.loc, r.hour) {
		return
	}

	result := r.RunOnce(ctx)
	r.logger.Info("Weekly cycle complete", "summary", result.Summary())

	if err := r.marker.RecordRun(ctx, result); err != nil {
		r.logger.Error("Recording cycle run failed", "error", err)
	}
}

// Start blocks until ctx is cancelled, running the cycle whenever it comes
// due. On startup it checks for a missed run (e.g. the process was down on
// Thursday morning) and coalesces it into a single catch-up. Intended to be
// called with `go`.
func (r *Runner) Start(ctx context.Context) {
	r.logger.Info("Weekly cycle scheduler started",
		"trigger", fmt.Sprintf("Thursdays %02d:00", r.hour), "zone", r.loc.String())

	for {
		r.runIfDue(ctx)

		next := NextTrigger(r.now(), r.loc, r.hour)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			r.logger.Info("Weekly cycle scheduler stopped")
			return
		}
	}
}
