// Package sync pulls fixtures and results from the external provider and
// merges them into the matches table. The merge is an idempotent batch
// upsert keyed by the provider's match id: re-syncing unchanged input only
// refreshes updated_at.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/matchweek/matchweek/internal/match"
	"github.com/matchweek/matchweek/internal/provider/fd"
	"github.com/matchweek/matchweek/internal/window"
)

// Provider fetches match objects for a competition and date range.
type Provider interface {
	Matches(ctx context.Context, competition string, dateFrom, dateTo time.Time, status string) ([]fd.Match, error)
}

// MatchWriter persists a batch of match records atomically.
type MatchWriter interface {
	UpsertBatch(ctx context.Context, records []match.Record) error
}

// Syncer normalizes provider matches to local time and upserts them.
type Syncer struct {
	provider    Provider
	store       MatchWriter
	loc         *time.Location
	competition string
	season      string
	logger      *slog.Logger
}

// New creates a Syncer. competition is the provider competition code; season
// is the label stamped on inserted rows.
func New(provider Provider, store MatchWriter, loc *time.Location, competition, season string, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Syncer{
		provider:    provider,
		store:       store,
		loc:         loc,
		competition: competition,
		season:      season,
		logger:      logger,
	}
}

// Sync fetches matches in the inclusive [dateFrom, dateTo] range with the
// given status filter and upserts them in one transaction. Returns the
// number of rows written. Provider errors are returned without retry; the
// store is not touched on fetch failure.
func (s *Syncer) Sync(ctx context.Context, dateFrom, dateTo time.Time, status string) (int, error) {
	matches, err := s.provider.Matches(ctx, s.competition, dateFrom, dateTo, status)
	if err != nil {
		return 0, fmt.Errorf("fetch %s matches: %w", s.competition, err)
	}
	if len(matches) == 0 {
		return 0, nil
	}

	records := make([]match.Record, 0, len(matches))
	for _, m := range matches {
		records = append(records, s.normalize(m))
	}

	if err := s.store.UpsertBatch(ctx, records); err != nil {
		return 0, fmt.Errorf("upsert %d matches: %w", len(records), err)
	}

	s.logger.Info("Synced matches",
		"competition", s.competition,
		"status", status,
		"from", dateFrom.Format("2006-01-02"),
		"to", dateTo.Format("2006-01-02"),
		"count", len(records))
	return len(records), nil
}

// normalize converts one provider match to a local record: the UTC kickoff
// becomes a local kickoff plus derived calendar date and "HH:MM" strings.
func (s *Syncer) normalize(m fd.Match) match.Record {
	utcKick := m.UTCDate.UTC()
	localKick := utcKick.In(s.loc)

	return match.Record{
		MatchID:      m.ID,
		Status:       m.Status,
		Competition:  "Premier League",
		Season:       s.season,
		Home:         m.HomeTeam.Name,
		Away:         m.AwayTeam.Name,
		UTCKickoff:   utcKick,
		LocalKickoff: localKick,
		Date:         window.DateOf(localKick),
		Time:         localKick.Format("15:04"),
		HomeScore:    m.Score.FullTime.Home,
		AwayScore:    m.Score.FullTime.Away,
	}
}

// UpcomingRange returns the [today, today+days] range used for fixture syncs.
func UpcomingRange(today time.Time, days int) (from, to time.Time) {
	from = window.DateOf(today)
	return from, from.AddDate(0, 0, days)
}

// PriorRange returns the [today-days, yesterday] range used for result syncs.
func PriorRange(today time.Time, days int) (from, to time.Time) {
	to = window.DateOf(today).AddDate(0, 0, -1)
	return to.AddDate(0, 0, -(days - 1)), to
}
