package cycle

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists cycle run markers in the cycle_runs table: one row per
// window, upserted so repeated catch-ups for the same week collapse.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a cycle marker store on the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// LastRun returns the week_start of the most recent recorded run, or nil if
// no run has ever been recorded.
func (s *Store) LastRun(ctx context.Context) (*time.Time, error) {
	var last *time.Time
	if err := s.pool.QueryRow(ctx, "last_cycle_run").Scan(&last); err != nil {
		return nil, fmt.Errorf("last cycle run: %w", err)
	}
	return last, nil
}

// RecordRun upserts the run summary for its week.
func (s *Store) RecordRun(ctx context.Context, r Result) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO cycle_runs (week_start, fixtures_synced, results_synced, groups_scored, users_scored, ran_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (week_start) DO UPDATE SET
			fixtures_synced = EXCLUDED.fixtures_synced,
			results_synced  = EXCLUDED.results_synced,
			groups_scored   = EXCLUDED.groups_scored,
			users_scored    = EXCLUDED.users_scored,
			ran_at          = NOW()`,
		r.WeekStart, r.FixturesSynced, r.ResultsSynced, r.GroupsScored, r.UsersScored,
	)
	if err != nil {
		return fmt.Errorf("record cycle run %s: %w", r.WeekStart.Format("2006-01-02"), err)
	}
	return nil
}
