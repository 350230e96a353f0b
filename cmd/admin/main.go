// Command admin is the Matchweek operations CLI.
//
// Usage:
//
//	matchweek-admin sync fixtures --days 14
//	matchweek-admin sync results --days 14
//	matchweek-admin score recompute --group 3 --week 2026-08-20
//	matchweek-admin score recompute-all --week 2026-08-20
//	matchweek-admin window show --date 2026-08-29
//	matchweek-admin cycle run
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matchweek/matchweek/internal/config"
	"github.com/matchweek/matchweek/internal/cycle"
	"github.com/matchweek/matchweek/internal/db"
	"github.com/matchweek/matchweek/internal/group"
	"github.com/matchweek/matchweek/internal/match"
	"github.com/matchweek/matchweek/internal/provider/fd"
	"github.com/matchweek/matchweek/internal/scoring"
	msync "github.com/matchweek/matchweek/internal/sync"
	"github.com/matchweek/matchweek/internal/window"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "matchweek-admin",
		Short: "Matchweek operations CLI",
	}

	root.AddCommand(syncCmd())
	root.AddCommand(scoreCmd())
	root.AddCommand(windowCmd())
	root.AddCommand(cycleCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// sync command
// --------------------------------------------------------------------------

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull matches from the provider into the database",
	}
	cmd.AddCommand(syncRangeCmd("fixtures", "Sync upcoming scheduled fixtures", fd.StatusScheduled, false))
	cmd.AddCommand(syncRangeCmd("results", "Sync recently finished results", fd.StatusFinished, true))
	return cmd
}

func syncRangeCmd(use, short, status string, prior bool) *cobra.Command {
	var days int
	var fromFlag, toFlag string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				loc, _ := cfg.Location()
				syncer := buildSyncer(cfg, pool, loc)

				today := time.Now().In(loc)
				var from, to time.Time
				if prior {
					from, to = msync.PriorRange(today, days)
				} else {
					from, to = msync.UpcomingRange(today, days)
				}
				if fromFlag != "" {
					d, err := time.ParseInLocation("2006-01-02", fromFlag, loc)
					if err != nil {
						return fmt.Errorf("parse --from: %w", err)
					}
					from = window.DateOf(d)
				}
				if toFlag != "" {
					d, err := time.ParseInLocation("2006-01-02", toFlag, loc)
					if err != nil {
						return fmt.Errorf("parse --to: %w", err)
					}
					to = window.DateOf(d)
				}

				start := time.Now()
				n, err := syncer.Sync(ctx, from, to, status)
				if err != nil {
					return err
				}
				logger.Info("Sync finished", "status", status, "matches", n,
					"duration", time.Since(start).Round(time.Second))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 14, "Range size in days")
	cmd.Flags().StringVar(&fromFlag, "from", "", "Range start (YYYY-MM-DD); overrides --days")
	cmd.Flags().StringVar(&toFlag, "to", "", "Range end (YYYY-MM-DD); overrides --days")
	return cmd
}

// --------------------------------------------------------------------------
// score command
// --------------------------------------------------------------------------

func scoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Recompute weekly scores",
	}
	cmd.AddCommand(scoreRecomputeCmd())
	cmd.AddCommand(scoreRecomputeAllCmd())
	return cmd
}

func scoreRecomputeCmd() *cobra.Command {
	var groupID int
	var week string
	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Recompute one group's scores for a week (idempotent)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if groupID == 0 {
				return fmt.Errorf("--group is required")
			}
			return run(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				loc, _ := cfg.Location()
				weekStart, err := resolveWeek(week, loc)
				if err != nil {
					return err
				}
				engine := scoring.NewEngine(pool.Pool, logger)
				users, err := engine.RecomputeWeek(ctx, groupID, weekStart)
				if err != nil {
					return err
				}
				logger.Info("Recompute finished", "group", groupID,
					"week_start", weekStart.Format("2006-01-02"), "users", users)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&groupID, "group", 0, "Group ID")
	cmd.Flags().StringVar(&week, "week", "", "Week date (YYYY-MM-DD, snapped to its Thursday); default: last closed week")
	return cmd
}

func scoreRecomputeAllCmd() *cobra.Command {
	var week string
	cmd := &cobra.Command{
		Use:   "recompute-all",
		Short: "Recompute every active group's scores for a week",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				loc, _ := cfg.Location()
				weekStart, err := resolveWeek(week, loc)
				if err != nil {
					return err
				}
				engine := scoring.NewEngine(pool.Pool, logger)
				groups := group.NewStore(pool.Pool)

				ids, err := groups.ActiveGroupIDs(ctx)
				if err != nil {
					return err
				}
				scored, users := 0, 0
				for _, gid := range ids {
					n, err := engine.RecomputeWeek(ctx, gid, weekStart)
					if err != nil {
						logger.Error("Recompute failed", "group", gid, "error", err)
						continue
					}
					scored++
					users += n
				}
				logger.Info("Recompute-all finished",
					"week_start", weekStart.Format("2006-01-02"),
					"groups", scored, "users", users)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&week, "week", "", "Week date (YYYY-MM-DD, snapped to its Thursday); default: last closed week")
	return cmd
}

// --------------------------------------------------------------------------
// window command
// --------------------------------------------------------------------------

func windowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "window",
		Short: "Inspect prediction windows",
	}
	cmd.AddCommand(windowShowCmd())
	return cmd
}

func windowShowCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the window containing a date and its open/close instants",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				loc, _ := cfg.Location()
				anchor := time.Now().In(loc)
				if date != "" {
					d, err := time.ParseInLocation("2006-01-02", date, loc)
					if err != nil {
						return fmt.Errorf("parse --date: %w", err)
					}
					anchor = d
				}

				calc := window.NewCalculator(loc, cfg.CycleHour)
				matches := match.NewStore(pool.Pool)

				start, end := window.WindowFor(anchor)
				first, err := matches.EarliestLocalKickoff(ctx, start, end)
				if err != nil {
					return err
				}
				w := calc.OpenClose(anchor, first)

				closeAt := "none (no fixtures synced)"
				if w.HasFixtures() {
					closeAt = w.CloseAt.Format(time.RFC3339)
				}
				logger.Info("Window",
					"start", w.Start.Format("2006-01-02"),
					"end", w.End.Format("2006-01-02"),
					"open_at", w.OpenAt.Format(time.RFC3339),
					"close_at", closeAt,
					"state", string(w.StateAt(time.Now())))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Anchor date (YYYY-MM-DD); default: today")
	return cmd
}

// --------------------------------------------------------------------------
// cycle command
// --------------------------------------------------------------------------

func cycleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Weekly cycle operations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run one full cycle now: sync fixtures and results, rescore last week",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				loc, _ := cfg.Location()
				syncer := buildSyncer(cfg, pool, loc)
				engine := scoring.NewEngine(pool.Pool, logger)
				groups := group.NewStore(pool.Pool)
				marker := cycle.NewStore(pool.Pool)

				runner := cycle.NewRunner(syncer, engine, groups, marker, loc, cfg.CycleHour, logger)
				result := runner.RunOnce(ctx)
				logger.Info("Cycle finished", "summary", result.Summary())
				return nil
			})
		},
	})
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

func buildSyncer(cfg *config.Config, pool *db.Pool, loc *time.Location) *msync.Syncer {
	client := fd.NewClient(fd.DefaultBaseURL, cfg.FDAPIToken, cfg.FDRequestsPerMinute, logger)
	matches := match.NewStore(pool.Pool)
	return msync.New(client, matches, loc, cfg.Competition, cfg.SeasonLabel, logger)
}

// resolveWeek snaps a date flag to its Thursday; empty means the most
// recently closed week.
func resolveWeek(week string, loc *time.Location) (time.Time, error) {
	if week == "" {
		return window.LastWeekStart(time.Now().In(loc)), nil
	}
	d, err := time.ParseInLocation("2006-01-02", week, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse --week: %w", err)
	}
	return window.WeekStart(d), nil
}

// run handles config loading, DB connection, and context cancellation.
func run(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}
