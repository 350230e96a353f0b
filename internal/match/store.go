package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned by ByID when no match has the given id.
var ErrNotFound = errors.New("match not found")

// Store provides Postgres access to the matches table.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a match store on the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// UpsertBatch writes all records in a single transaction: either every row
// commits or none do. Insert sets competition and season; updates leave them
// untouched so provider re-syncs never clobber labels set at insert time.
func (s *Store) UpsertBatch(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin upsert batch: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range records {
		_, err := tx.Exec(ctx, `
			INSERT INTO matches (
				match_id, status, competition, season, home, away,
				utc_kickoff, local_kickoff, date, time,
				home_score, away_score, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,NOW())
			ON CONFLICT (match_id) DO UPDATE SET
				status        = EXCLUDED.status,
				home          = EXCLUDED.home,
				away          = EXCLUDED.away,
				utc_kickoff   = EXCLUDED.utc_kickoff,
				local_kickoff = EXCLUDED.local_kickoff,
				date          = EXCLUDED.date,
				time          = EXCLUDED.time,
				home_score    = EXCLUDED.home_score,
				away_score    = EXCLUDED.away_score,
				updated_at    = NOW()`,
			r.MatchID, r.Status, r.Competition, r.Season, r.Home, r.Away,
			r.UTCKickoff, r.LocalKickoff, r.Date, r.Time,
			r.HomeScore, r.AwayScore,
		)
		if err != nil {
			return fmt.Errorf("upsert match %d: %w", r.MatchID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit upsert batch: %w", err)
	}
	return nil
}

// ByID returns a single match record, or ErrNotFound.
func (s *Store) ByID(ctx context.Context, id int64) (*Record, error) {
	var r Record
	err := s.pool.QueryRow(ctx, "match_by_id", id).Scan(
		&r.MatchID, &r.Status, &r.Competition, &r.Season, &r.Home, &r.Away,
		&r.UTCKickoff, &r.LocalKickoff, &r.Date, &r.Time,
		&r.HomeScore, &r.AwayScore, &r.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get match %d: %w", id, err)
	}
	return &r, nil
}

// InWindow returns all matches whose local date falls in [start, end],
// ordered by date then id.
func (s *Store) InWindow(ctx context.Context, start, end time.Time) ([]Record, error) {
	rows, err := s.pool.Query(ctx, "matches_in_window", start, end)
	if err != nil {
		return nil, fmt.Errorf("matches in window: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(
			&r.MatchID, &r.Status, &r.Competition, &r.Season, &r.Home, &r.Away,
			&r.UTCKickoff, &r.LocalKickoff, &r.Date, &r.Time,
			&r.HomeScore, &r.AwayScore, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// EarliestLocalKickoff returns the earliest local kickoff among matches in
// [start, end], or nil when no matches are known for the range.
func (s *Store) EarliestLocalKickoff(ctx context.Context, start, end time.Time) (*time.Time, error) {
	var first *time.Time
	err := s.pool.QueryRow(ctx, "earliest_local_kickoff", start, end).Scan(&first)
	if err != nil {
		return nil, fmt.Errorf("earliest kickoff: %w", err)
	}
	return first, nil
}
