// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matchweek/matchweek/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers all statements the API, gate, scoring,
// and sync layers use. Prepared statements eliminate parse overhead on every
// request.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Matches
		"match_by_id": `
			SELECT match_id, status, competition, season, home, away,
			       utc_kickoff, local_kickoff, date, time,
			       home_score, away_score, updated_at
			FROM matches WHERE match_id = $1`,
		"matches_in_window": `
			SELECT match_id, status, competition, season, home, away,
			       utc_kickoff, local_kickoff, date, time,
			       home_score, away_score, updated_at
			FROM matches
			WHERE date BETWEEN $1 AND $2
			ORDER BY date ASC, match_id ASC`,
		"earliest_local_kickoff": `
			SELECT min(local_kickoff) FROM matches WHERE date BETWEEN $1 AND $2`,

		// Predictions
		"window_matches_with_picks": `
			SELECT m.match_id, m.date, m.time, m.home, m.away,
			       p.home_pred, p.away_pred
			FROM matches m
			LEFT JOIN predictions p
			  ON p.group_id = $1 AND p.user_id = $2 AND p.match_id = m.match_id
			WHERE m.date BETWEEN $3 AND $4
			ORDER BY m.date ASC, m.match_id ASC`,
		"window_predictions_all": `
			SELECT p.match_id, m.home, m.away, p.user_id,
			       p.home_pred, p.away_pred, p.updated_at
			FROM predictions p
			JOIN matches m ON m.match_id = p.match_id
			WHERE p.group_id = $1 AND m.date BETWEEN $2 AND $3
			ORDER BY p.updated_at DESC`,

		// Scoring
		"week_prediction_results": `
			SELECT p.user_id, p.home_pred, p.away_pred, m.home_score, m.away_score
			FROM predictions p
			JOIN matches m ON m.match_id = p.match_id
			WHERE p.group_id = $1 AND m.date BETWEEN $2 AND $3`,
		"leaderboard": `
			SELECT user_id, sum(points) AS total_points
			FROM weekly_scores
			WHERE group_id = $1
			GROUP BY user_id
			ORDER BY total_points DESC, user_id ASC`,

		// Groups (collaborator tables, read-only here)
		"membership_check": `
			SELECT 1 FROM group_members
			WHERE group_id = $1 AND user_id = $2 AND status = 'approved'`,
		"active_groups": `SELECT id FROM groups ORDER BY id`,

		// Cycle run marker
		"last_cycle_run": `SELECT max(week_start) FROM cycle_runs`,
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
