package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Engine recomputes weekly scores and serves leaderboard aggregates. It is
// the only writer of weekly_scores rows.
type Engine struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewEngine creates a scoring engine on the given pool.
func NewEngine(pool *pgxpool.Pool, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{pool: pool, logger: logger}
}

// RecomputeWeek joins the group's predictions against matches with local
// date in [weekStart, weekStart+6], sums points per user, and replaces each
// user's weekly_scores row in a single transaction. Replacement (never
// addition) makes recomputation idempotent, so late score corrections are
// handled by simply running it again. Returns the number of users scored.
func (e *Engine) RecomputeWeek(ctx context.Context, groupID int, weekStart time.Time) (int, error) {
	weekEnd := weekStart.AddDate(0, 0, 6)

	rows, err := e.pool.Query(ctx, "week_prediction_results", groupID, weekStart, weekEnd)
	if err != nil {
		return 0, fmt.Errorf("week predictions for group %d: %w", groupID, err)
	}
	defer rows.Close()

	var results []PredictionResult
	for rows.Next() {
		var r PredictionResult
		if err := rows.Scan(&r.UserID, &r.HomePred, &r.AwayPred, &r.HomeScore, &r.AwayScore); err != nil {
			return 0, fmt.Errorf("scan prediction result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("read prediction results: %w", err)
	}

	totals := Totals(results)
	if len(totals) == 0 {
		return 0, nil
	}

	// One transaction per group-week so readers never observe a half-updated
	// totals table.
	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin recompute: %w", err)
	}
	defer tx.Rollback(ctx)

	for userID, points := range totals {
		_, err := tx.Exec(ctx, `
			INSERT INTO weekly_scores (group_id, user_id, week_start, points, updated_at)
			VALUES ($1, $2, $3, $4, NOW())
			ON CONFLICT (group_id, user_id, week_start) DO UPDATE SET
				points     = EXCLUDED.points,
				updated_at = NOW()`,
			groupID, userID, weekStart, points,
		)
		if err != nil {
			return 0, fmt.Errorf("upsert weekly score (%d,%d): %w", groupID, userID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit recompute: %w", err)
	}

	e.logger.Info("Recomputed week",
		"group", groupID,
		"week_start", weekStart.Format("2006-01-02"),
		"predictions", len(results),
		"users", len(totals))
	return len(totals), nil
}

// LeaderboardEntry is one user's cumulative total for a group.
type LeaderboardEntry struct {
	UserID      int `json:"user_id"`
	TotalPoints int `json:"total_points"`
}

// Leaderboard returns cumulative points per user across all weeks, ordered
// by total descending with ties broken by lowest user id.
func (e *Engine) Leaderboard(ctx context.Context, groupID int) ([]LeaderboardEntry, error) {
	rows, err := e.pool.Query(ctx, "leaderboard", groupID)
	if err != nil {
		return nil, fmt.Errorf("leaderboard for group %d: %w", groupID, err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var le LeaderboardEntry
		if err := rows.Scan(&le.UserID, &le.TotalPoints); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		entries = append(entries, le)
	}
	return entries, rows.Err()
}
