package predict

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides Postgres access to the predictions table.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a prediction store on the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Upsert inserts or updates the unique (group, user, match) prediction row,
// refreshing updated_at. Duplicate-key races resolve to last-write-wins.
func (s *Store) Upsert(ctx context.Context, p Prediction) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO predictions (group_id, user_id, match_id, home_pred, away_pred, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (group_id, user_id, match_id) DO UPDATE SET
			home_pred  = EXCLUDED.home_pred,
			away_pred  = EXCLUDED.away_pred,
			updated_at = NOW()`,
		p.GroupID, p.UserID, p.MatchID, p.Home, p.Away,
	)
	if err != nil {
		return fmt.Errorf("upsert prediction (%d,%d,%d): %w", p.GroupID, p.UserID, p.MatchID, err)
	}
	return nil
}

// WindowMatchesWithPicks returns all matches with local date in [start, end]
// joined with the caller's saved picks.
func (s *Store) WindowMatchesWithPicks(ctx context.Context, groupID, userID int, start, end time.Time) ([]MatchPick, error) {
	rows, err := s.pool.Query(ctx, "window_matches_with_picks", groupID, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("window matches: %w", err)
	}
	defer rows.Close()

	var picks []MatchPick
	for rows.Next() {
		var p MatchPick
		if err := rows.Scan(&p.MatchID, &p.Date, &p.Time, &p.Home, &p.Away, &p.MyHome, &p.MyAway); err != nil {
			return nil, fmt.Errorf("scan match pick: %w", err)
		}
		p.DateStr = p.Date.Format("2006-01-02")
		picks = append(picks, p)
	}
	return picks, rows.Err()
}

// WindowPredictions returns every member's submitted predictions for window
// matches, most recently updated first.
func (s *Store) WindowPredictions(ctx context.Context, groupID int, start, end time.Time) ([]MemberPick, error) {
	rows, err := s.pool.Query(ctx, "window_predictions_all", groupID, start, end)
	if err != nil {
		return nil, fmt.Errorf("window predictions: %w", err)
	}
	defer rows.Close()

	var picks []MemberPick
	for rows.Next() {
		var p MemberPick
		if err := rows.Scan(&p.MatchID, &p.Home, &p.Away, &p.UserID, &p.HomePred, &p.AwayPred, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan member pick: %w", err)
		}
		picks = append(picks, p)
	}
	return picks, rows.Err()
}
